package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Node is a remembered fact, entity, concept, event, or source.
type Node struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"` // entity, concept, event, source
	Label        string   `json:"label"`
	Content      string   `json:"content"`
	Confidence   float64  `json:"confidence"`
	Tags         []string `json:"tags"`
	SourceIDs    []string `json:"source_ids"`
	AccessCount  int      `json:"access_count"`
	CreatedAt    int64    `json:"created_at"`
	LastAccessed int64    `json:"last_accessed"`
}

const nodeColumns = "id, type, label, content, confidence, tags, source_ids, access_count, created_at, last_accessed"

// InsertNode inserts a new node. Caller supplies the id; timestamps are set here.
func (db *DB) InsertNode(n *Node) error {
	now := time.Now().UnixMilli()
	tags, err := marshalStrings(n.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	sourceIDs, err := marshalStrings(n.SourceIDs)
	if err != nil {
		return fmt.Errorf("marshal source_ids: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO nodes (id, type, label, content, confidence, tags, source_ids, access_count, created_at, last_accessed)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`, n.ID, n.Type, n.Label, n.Content, n.Confidence, tags, sourceIDs, now, now)
	if err != nil {
		return fmt.Errorf("insert node: %w", err)
	}

	n.AccessCount = 0
	n.CreatedAt = now
	n.LastAccessed = now
	return nil
}

// GetNode returns a node by id, or nil if not found.
func (db *DB) GetNode(id string) (*Node, error) {
	row := db.QueryRow("SELECT "+nodeColumns+" FROM nodes WHERE id = ?", id)
	n, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get node: %w", err)
	}
	return n, nil
}

// DeleteNode removes a node by id. Incident edges are removed by the
// ON DELETE CASCADE foreign keys in the same implicit transaction.
// Returns false if no node with that id existed.
func (db *DB) DeleteNode(id string) (bool, error) {
	result, err := db.Exec("DELETE FROM nodes WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete node: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete node rows affected: %w", err)
	}
	return affected > 0, nil
}

// TouchNode records an access: increments access_count, advances
// last_accessed, and nudges confidence toward 1.0 by boost.
// Returns the updated node, or nil if the id does not exist.
func (db *DB) TouchNode(id string, boost float64) (*Node, error) {
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		UPDATE nodes
		SET access_count = access_count + 1,
		    last_accessed = ?,
		    confidence = min(1.0, confidence + ?)
		WHERE id = ?
	`, now, boost, id)
	if err != nil {
		return nil, fmt.Errorf("touch node: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("touch node rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}
	return db.GetNode(id)
}

// SearchNodes returns nodes whose label or content contains the query,
// case-insensitively, ordered by confidence then recency for determinism.
// nodeType narrows to a single type when non-empty.
func (db *DB) SearchNodes(query, nodeType string, limit int) ([]Node, error) {
	pattern := "%" + escapeLike(query) + "%"
	args := []any{pattern, pattern}

	q := `
		SELECT ` + nodeColumns + ` FROM nodes
		WHERE (label LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\')
	`
	if nodeType != "" {
		q += " AND type = ?"
		args = append(args, nodeType)
	}
	q += " ORDER BY confidence DESC, last_accessed DESC, id LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("search nodes: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// escapeLike escapes LIKE metacharacters so user queries match literally.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

func marshalStrings(s []string) (string, error) {
	if s == nil {
		s = []string{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalStrings(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var s []string
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, err
	}
	if s == nil {
		s = []string{}
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*Node, error) {
	var n Node
	var tags, sourceIDs string
	err := row.Scan(&n.ID, &n.Type, &n.Label, &n.Content, &n.Confidence,
		&tags, &sourceIDs, &n.AccessCount, &n.CreatedAt, &n.LastAccessed)
	if err != nil {
		return nil, err
	}
	if n.Tags, err = unmarshalStrings(tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	if n.SourceIDs, err = unmarshalStrings(sourceIDs); err != nil {
		return nil, fmt.Errorf("unmarshal source_ids: %w", err)
	}
	return &n, nil
}

func scanNodes(rows *sql.Rows) ([]Node, error) {
	var nodes []Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, *n)
	}
	return nodes, rows.Err()
}
