package store

import (
	"database/sql"
	"fmt"
)

// Transaction-scoped reads and writes used by the consolidation pass.
// Everything here runs against an open *sql.Tx so a dream either commits
// as one unit or leaves no trace.

// NodeState is the slice of a node the dream pass operates on.
type NodeState struct {
	ID           string
	Label        string
	Confidence   float64
	LastAccessed int64
}

// CoAccessEdge is a co_accessed edge as seen by the boost stage.
type CoAccessEdge struct {
	Source string
	Target string
	Weight float64
}

// ContradictionSummary is the report form of an unreviewed contradiction.
type ContradictionSummary struct {
	EdgeID           string  `json:"edge_id"`
	Source           string  `json:"source"`
	Target           string  `json:"target"`
	Weight           float64 `json:"weight"`
	ResolutionStatus string  `json:"resolution_status"`
}

// NodeStatesTx loads every node's id, label, confidence, and last access
// time, in creation order.
func NodeStatesTx(tx *sql.Tx) ([]NodeState, error) {
	rows, err := tx.Query(`
		SELECT id, label, confidence, last_accessed FROM nodes
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("node states: %w", err)
	}
	defer rows.Close()

	var states []NodeState
	for rows.Next() {
		var s NodeState
		if err := rows.Scan(&s.ID, &s.Label, &s.Confidence, &s.LastAccessed); err != nil {
			return nil, fmt.Errorf("scan node state: %w", err)
		}
		states = append(states, s)
	}
	return states, rows.Err()
}

// UpdateConfidenceTx writes a node's new confidence inside the transaction.
func UpdateConfidenceTx(tx *sql.Tx, id string, confidence float64) error {
	if _, err := tx.Exec("UPDATE nodes SET confidence = ? WHERE id = ?", confidence, id); err != nil {
		return fmt.Errorf("update confidence %s: %w", id, err)
	}
	return nil
}

// CoAccessEdgesTx loads every co_accessed edge, in creation order.
func CoAccessEdgesTx(tx *sql.Tx) ([]CoAccessEdge, error) {
	rows, err := tx.Query(`
		SELECT source, target, weight FROM edges
		WHERE type = 'co_accessed'
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("co_accessed edges: %w", err)
	}
	defer rows.Close()

	var edges []CoAccessEdge
	for rows.Next() {
		var e CoAccessEdge
		if err := rows.Scan(&e.Source, &e.Target, &e.Weight); err != nil {
			return nil, fmt.Errorf("scan co_accessed edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// ContradictionSummariesTx lists unreviewed contradicts edges with their
// endpoint labels, read-only, within the pass's snapshot.
func ContradictionSummariesTx(tx *sql.Tx) ([]ContradictionSummary, error) {
	rows, err := tx.Query(`
		SELECT e.id, s.label, t.label, e.weight, e.resolution_status
		FROM edges e
		JOIN nodes s ON s.id = e.source
		JOIN nodes t ON t.id = e.target
		WHERE e.type = 'contradicts' AND e.resolution_status = 'unreviewed'
		ORDER BY e.created_at, e.id
	`)
	if err != nil {
		return nil, fmt.Errorf("contradiction summaries: %w", err)
	}
	defer rows.Close()

	var out []ContradictionSummary
	for rows.Next() {
		var c ContradictionSummary
		if err := rows.Scan(&c.EdgeID, &c.Source, &c.Target, &c.Weight, &c.ResolutionStatus); err != nil {
			return nil, fmt.Errorf("scan contradiction summary: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
