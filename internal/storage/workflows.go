package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/KumarSohan18/No-Code-platform/internal/workflow"
)

// Workflow is a stored workflow definition.
type Workflow struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Nodes       []workflow.Node `json:"nodes"`
	Edges       []workflow.Edge `json:"edges"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

// WorkflowUpdate carries the optional fields of a workflow update; nil fields
// are left unchanged.
type WorkflowUpdate struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Nodes       *[]workflow.Node `json:"nodes,omitempty"`
	Edges       *[]workflow.Edge `json:"edges,omitempty"`
	IsActive    *bool            `json:"is_active,omitempty"`
}

func (d *DB) CreateWorkflow(name, description string, nodes []workflow.Node, edges []workflow.Edge) (*Workflow, error) {
	if nodes == nil {
		nodes = []workflow.Node{}
	}
	if edges == nil {
		edges = []workflow.Edge{}
	}
	nodesJSON, err := json.Marshal(nodes)
	if err != nil {
		return nil, fmt.Errorf("marshal nodes: %w", err)
	}
	edgesJSON, err := json.Marshal(edges)
	if err != nil {
		return nil, fmt.Errorf("marshal edges: %w", err)
	}

	var w Workflow
	var rawNodes, rawEdges []byte
	err = d.sql.QueryRow(`
		INSERT INTO workflows (name, description, nodes, edges)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, description, nodes, edges, is_active, created_at, updated_at`,
		name, description, nodesJSON, edgesJSON).Scan(
		&w.ID, &w.Name, &w.Description, &rawNodes, &rawEdges, &w.IsActive, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalGraph(&w, rawNodes, rawEdges); err != nil {
		return nil, err
	}
	return &w, nil
}

func (d *DB) GetWorkflow(id int) (*Workflow, error) {
	var w Workflow
	var rawNodes, rawEdges []byte
	err := d.sql.QueryRow(`
		SELECT id, name, description, nodes, edges, is_active, created_at, updated_at
		FROM workflows WHERE id = $1`, id).Scan(
		&w.ID, &w.Name, &w.Description, &rawNodes, &rawEdges, &w.IsActive, &w.CreatedAt, &w.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := unmarshalGraph(&w, rawNodes, rawEdges); err != nil {
		return nil, err
	}
	return &w, nil
}

// ListWorkflows returns one page of workflows plus the total count.
func (d *DB) ListWorkflows(page, size int) ([]Workflow, int, error) {
	offset := (page - 1) * size
	rows, err := d.sql.Query(`
		SELECT id, name, description, nodes, edges, is_active, created_at, updated_at
		FROM workflows ORDER BY id OFFSET $1 LIMIT $2`, offset, size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	workflows := []Workflow{}
	for rows.Next() {
		var w Workflow
		var rawNodes, rawEdges []byte
		if err := rows.Scan(&w.ID, &w.Name, &w.Description, &rawNodes, &rawEdges, &w.IsActive, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if err := unmarshalGraph(&w, rawNodes, rawEdges); err != nil {
			return nil, 0, err
		}
		workflows = append(workflows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := d.sql.QueryRow(`SELECT COUNT(*) FROM workflows`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return workflows, total, nil
}

func (d *DB) UpdateWorkflow(id int, update WorkflowUpdate) (*Workflow, error) {
	w, err := d.GetWorkflow(id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		w.Name = *update.Name
	}
	if update.Description != nil {
		w.Description = *update.Description
	}
	if update.Nodes != nil {
		w.Nodes = *update.Nodes
	}
	if update.Edges != nil {
		w.Edges = *update.Edges
	}
	if update.IsActive != nil {
		w.IsActive = *update.IsActive
	}

	nodesJSON, err := json.Marshal(w.Nodes)
	if err != nil {
		return nil, fmt.Errorf("marshal nodes: %w", err)
	}
	edgesJSON, err := json.Marshal(w.Edges)
	if err != nil {
		return nil, fmt.Errorf("marshal edges: %w", err)
	}

	err = d.sql.QueryRow(`
		UPDATE workflows
		SET name = $1, description = $2, nodes = $3, edges = $4, is_active = $5,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $6
		RETURNING updated_at`,
		w.Name, w.Description, nodesJSON, edgesJSON, w.IsActive, id).Scan(&w.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (d *DB) DeleteWorkflow(id int) error {
	result, err := d.sql.Exec(`DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordExecution stores the outcome of one workflow run and returns the
// execution row id.
func (d *DB) RecordExecution(workflowID int, sessionID string, input map[string]any, result *workflow.ExecutionResult) (int, error) {
	inputJSON, err := json.Marshal(input)
	if err != nil {
		return 0, fmt.Errorf("marshal input: %w", err)
	}
	outputJSON, err := json.Marshal(result.Output)
	if err != nil {
		return 0, fmt.Errorf("marshal output: %w", err)
	}
	logJSON, err := json.Marshal(result.ExecutionLog)
	if err != nil {
		return 0, fmt.Errorf("marshal execution log: %w", err)
	}

	var id int
	err = d.sql.QueryRow(`
		INSERT INTO workflow_executions
			(workflow_id, session_id, input_data, output_data, execution_log, status, error_message, execution_time)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)
		RETURNING id`,
		workflowID, sessionID, inputJSON, outputJSON, logJSON,
		result.Status, result.Error, result.ExecutionTime).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func unmarshalGraph(w *Workflow, rawNodes, rawEdges []byte) error {
	if err := json.Unmarshal(rawNodes, &w.Nodes); err != nil {
		return fmt.Errorf("unmarshal nodes: %w", err)
	}
	if err := json.Unmarshal(rawEdges, &w.Edges); err != nil {
		return fmt.Errorf("unmarshal edges: %w", err)
	}
	return nil
}
