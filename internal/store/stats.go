package store

import (
	"database/sql"
	"fmt"
)

// Stats is a read-only rollup over the whole graph.
type Stats struct {
	TotalNodes               int            `json:"total_nodes"`
	TotalEdges               int            `json:"total_edges"`
	AvgConfidence            float64        `json:"avg_confidence"`
	UnreviewedContradictions int            `json:"unreviewed_contradictions"`
	NodeTypes                map[string]int `json:"node_types"`
	EdgeTypes                map[string]int `json:"edge_types"`
}

// queryer is satisfied by both *sql.DB and *sql.Tx, so the same rollup can
// run standalone or inside the dream transaction.
type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Stats returns graph totals from a single snapshot of the store.
func (db *DB) Stats() (*Stats, error) {
	return collectStats(db.DB)
}

// StatsTx returns graph totals as seen by an open transaction.
func StatsTx(tx *sql.Tx) (*Stats, error) {
	return collectStats(tx)
}

func collectStats(q queryer) (*Stats, error) {
	s := &Stats{
		NodeTypes: map[string]int{},
		EdgeTypes: map[string]int{},
	}

	err := q.QueryRow(`
		SELECT COUNT(*), COALESCE(AVG(confidence), 0) FROM nodes
	`).Scan(&s.TotalNodes, &s.AvgConfidence)
	if err != nil {
		return nil, fmt.Errorf("node totals: %w", err)
	}

	if err := q.QueryRow("SELECT COUNT(*) FROM edges").Scan(&s.TotalEdges); err != nil {
		return nil, fmt.Errorf("edge total: %w", err)
	}

	err = q.QueryRow(`
		SELECT COUNT(*) FROM edges
		WHERE type = 'contradicts' AND resolution_status = 'unreviewed'
	`).Scan(&s.UnreviewedContradictions)
	if err != nil {
		return nil, fmt.Errorf("unreviewed count: %w", err)
	}

	rows, err := q.Query("SELECT type, COUNT(*) FROM nodes GROUP BY type")
	if err != nil {
		return nil, fmt.Errorf("node types: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("scan node type: %w", err)
		}
		s.NodeTypes[t] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = q.Query("SELECT type, COUNT(*) FROM edges GROUP BY type")
	if err != nil {
		return nil, fmt.Errorf("edge types: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("scan edge type: %w", err)
		}
		s.EdgeTypes[t] = n
	}
	return s, rows.Err()
}
