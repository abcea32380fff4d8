package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Edge is a typed, weighted relationship between two nodes.
type Edge struct {
	ID               string   `json:"id"`
	Source           string   `json:"source"`
	Target           string   `json:"target"`
	Type             string   `json:"type"`
	Weight           float64  `json:"weight"`
	ContextIDs       []string `json:"context_ids"`
	ResolutionStatus *string  `json:"resolution_status,omitempty"`
	CreatedAt        int64    `json:"created_at"`
	LastReinforced   int64    `json:"last_reinforced"`
}

// Neighbor pairs an edge incident to a node with the node at its other end.
type Neighbor struct {
	Direction string `json:"direction"` // outgoing or incoming
	Edge      Edge   `json:"edge"`
	Node      Node   `json:"node"`
}

// Contradiction pairs a contradicts edge with its resolved endpoints.
type Contradiction struct {
	Edge       Edge `json:"edge"`
	SourceNode Node `json:"source_node"`
	TargetNode Node `json:"target_node"`
}

const edgeColumns = "id, source, target, type, weight, context_ids, resolution_status, created_at, last_reinforced"

// InsertEdge inserts a new edge. Caller supplies the id and must have
// verified both endpoints exist; the foreign keys enforce it regardless.
func (db *DB) InsertEdge(e *Edge) error {
	now := time.Now().UnixMilli()
	contextIDs, err := marshalStrings(e.ContextIDs)
	if err != nil {
		return fmt.Errorf("marshal context_ids: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO edges (id, source, target, type, weight, context_ids, resolution_status, created_at, last_reinforced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Source, e.Target, e.Type, e.Weight, contextIDs, e.ResolutionStatus, now, now)
	if err != nil {
		return fmt.Errorf("insert edge: %w", err)
	}

	e.CreatedAt = now
	e.LastReinforced = now
	return nil
}

// GetEdge returns an edge by id, or nil if not found.
func (db *DB) GetEdge(id string) (*Edge, error) {
	row := db.QueryRow("SELECT "+edgeColumns+" FROM edges WHERE id = ?", id)
	e, err := scanEdge(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get edge: %w", err)
	}
	return e, nil
}

// DeleteEdge removes an edge by id. Nodes are never affected.
// Returns false if no edge with that id existed.
func (db *DB) DeleteEdge(id string) (bool, error) {
	result, err := db.Exec("DELETE FROM edges WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete edge: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete edge rows affected: %w", err)
	}
	return affected > 0, nil
}

// ReinforceEdge strengthens an edge: weight moves toward 1.0 by boost and
// last_reinforced advances. Returns the updated edge, or nil if absent.
func (db *DB) ReinforceEdge(id string, boost float64) (*Edge, error) {
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		UPDATE edges
		SET weight = min(1.0, weight + ?),
		    last_reinforced = ?
		WHERE id = ?
	`, boost, now, id)
	if err != nil {
		return nil, fmt.Errorf("reinforce edge: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("reinforce edge rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}
	return db.GetEdge(id)
}

// Neighbors returns every edge incident to nodeID paired with the node at
// the other endpoint, in edge creation order. edgeType narrows to a single
// edge type when non-empty. Self-loops appear once, as outgoing.
func (db *DB) Neighbors(nodeID, edgeType string) ([]Neighbor, error) {
	q := `
		SELECT CASE WHEN e.source = ? THEN 'outgoing' ELSE 'incoming' END,
		       e.id, e.source, e.target, e.type, e.weight, e.context_ids, e.resolution_status, e.created_at, e.last_reinforced,
		       n.id, n.type, n.label, n.content, n.confidence, n.tags, n.source_ids, n.access_count, n.created_at, n.last_accessed
		FROM edges e
		JOIN nodes n ON n.id = CASE WHEN e.source = ? THEN e.target ELSE e.source END
		WHERE (e.source = ? OR e.target = ?)
	`
	args := []any{nodeID, nodeID, nodeID, nodeID}
	if edgeType != "" {
		q += " AND e.type = ?"
		args = append(args, edgeType)
	}
	q += " ORDER BY e.created_at, e.id"

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("neighbors: %w", err)
	}
	defer rows.Close()

	var neighbors []Neighbor
	for rows.Next() {
		var nb Neighbor
		var contextIDs, tags, sourceIDs string
		err := rows.Scan(&nb.Direction,
			&nb.Edge.ID, &nb.Edge.Source, &nb.Edge.Target, &nb.Edge.Type, &nb.Edge.Weight,
			&contextIDs, &nb.Edge.ResolutionStatus, &nb.Edge.CreatedAt, &nb.Edge.LastReinforced,
			&nb.Node.ID, &nb.Node.Type, &nb.Node.Label, &nb.Node.Content, &nb.Node.Confidence,
			&tags, &sourceIDs, &nb.Node.AccessCount, &nb.Node.CreatedAt, &nb.Node.LastAccessed)
		if err != nil {
			return nil, fmt.Errorf("scan neighbor: %w", err)
		}
		if nb.Edge.ContextIDs, err = unmarshalStrings(contextIDs); err != nil {
			return nil, fmt.Errorf("unmarshal context_ids: %w", err)
		}
		if nb.Node.Tags, err = unmarshalStrings(tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags: %w", err)
		}
		if nb.Node.SourceIDs, err = unmarshalStrings(sourceIDs); err != nil {
			return nil, fmt.Errorf("unmarshal source_ids: %w", err)
		}
		neighbors = append(neighbors, nb)
	}
	return neighbors, rows.Err()
}

// Contradictions returns every contradicts edge whose resolution_status
// matches, each joined with its source and target nodes.
func (db *DB) Contradictions(status string) ([]Contradiction, error) {
	rows, err := db.Query(`
		SELECT e.id, e.source, e.target, e.type, e.weight, e.context_ids, e.resolution_status, e.created_at, e.last_reinforced,
		       s.id, s.type, s.label, s.content, s.confidence, s.tags, s.source_ids, s.access_count, s.created_at, s.last_accessed,
		       t.id, t.type, t.label, t.content, t.confidence, t.tags, t.source_ids, t.access_count, t.created_at, t.last_accessed
		FROM edges e
		JOIN nodes s ON s.id = e.source
		JOIN nodes t ON t.id = e.target
		WHERE e.type = 'contradicts' AND e.resolution_status = ?
		ORDER BY e.created_at, e.id
	`, status)
	if err != nil {
		return nil, fmt.Errorf("contradictions: %w", err)
	}
	defer rows.Close()

	var out []Contradiction
	for rows.Next() {
		var c Contradiction
		var ctx, sTags, sSrc, tTags, tSrc string
		err := rows.Scan(
			&c.Edge.ID, &c.Edge.Source, &c.Edge.Target, &c.Edge.Type, &c.Edge.Weight,
			&ctx, &c.Edge.ResolutionStatus, &c.Edge.CreatedAt, &c.Edge.LastReinforced,
			&c.SourceNode.ID, &c.SourceNode.Type, &c.SourceNode.Label, &c.SourceNode.Content, &c.SourceNode.Confidence,
			&sTags, &sSrc, &c.SourceNode.AccessCount, &c.SourceNode.CreatedAt, &c.SourceNode.LastAccessed,
			&c.TargetNode.ID, &c.TargetNode.Type, &c.TargetNode.Label, &c.TargetNode.Content, &c.TargetNode.Confidence,
			&tTags, &tSrc, &c.TargetNode.AccessCount, &c.TargetNode.CreatedAt, &c.TargetNode.LastAccessed)
		if err != nil {
			return nil, fmt.Errorf("scan contradiction: %w", err)
		}
		if c.Edge.ContextIDs, err = unmarshalStrings(ctx); err != nil {
			return nil, fmt.Errorf("unmarshal context_ids: %w", err)
		}
		if c.SourceNode.Tags, err = unmarshalStrings(sTags); err != nil {
			return nil, fmt.Errorf("unmarshal tags: %w", err)
		}
		if c.SourceNode.SourceIDs, err = unmarshalStrings(sSrc); err != nil {
			return nil, fmt.Errorf("unmarshal source_ids: %w", err)
		}
		if c.TargetNode.Tags, err = unmarshalStrings(tTags); err != nil {
			return nil, fmt.Errorf("unmarshal tags: %w", err)
		}
		if c.TargetNode.SourceIDs, err = unmarshalStrings(tSrc); err != nil {
			return nil, fmt.Errorf("unmarshal source_ids: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanEdge(row rowScanner) (*Edge, error) {
	var e Edge
	var contextIDs string
	err := row.Scan(&e.ID, &e.Source, &e.Target, &e.Type, &e.Weight,
		&contextIDs, &e.ResolutionStatus, &e.CreatedAt, &e.LastReinforced)
	if err != nil {
		return nil, err
	}
	if e.ContextIDs, err = unmarshalStrings(contextIDs); err != nil {
		return nil, fmt.Errorf("unmarshal context_ids: %w", err)
	}
	return &e, nil
}
