package store

import (
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustInsertNode(t *testing.T, db *DB, id, nodeType, label string, confidence float64) *Node {
	t.Helper()
	n := &Node{
		ID:         id,
		Type:       nodeType,
		Label:      label,
		Confidence: confidence,
	}
	if err := db.InsertNode(n); err != nil {
		t.Fatalf("InsertNode %s: %v", id, err)
	}
	return n
}

func TestInsertGetNode(t *testing.T) {
	db := testDB(t)

	n := &Node{
		ID:         "n1",
		Type:       "concept",
		Label:      "Knowledge Graph Memory",
		Content:    "Structuring agent memory as a queryable graph",
		Confidence: 0.95,
		Tags:       []string{"memory", "graph"},
		SourceIDs:  []string{"src-1"},
	}
	if err := db.InsertNode(n); err != nil {
		t.Fatalf("InsertNode: %v", err)
	}
	if n.CreatedAt == 0 || n.LastAccessed != n.CreatedAt {
		t.Errorf("timestamps not initialized: created=%d accessed=%d", n.CreatedAt, n.LastAccessed)
	}

	got, err := db.GetNode("n1")
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if got == nil {
		t.Fatal("GetNode returned nil for existing node")
	}
	if got.Label != n.Label || got.Type != n.Type || got.Confidence != n.Confidence {
		t.Errorf("got %+v, want %+v", got, n)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "memory" {
		t.Errorf("Tags = %v, want [memory graph]", got.Tags)
	}
	if got.AccessCount != 0 {
		t.Errorf("AccessCount = %d, want 0", got.AccessCount)
	}
}

func TestGetNodeMissing(t *testing.T) {
	db := testDB(t)

	got, err := db.GetNode("missing")
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if got != nil {
		t.Errorf("GetNode = %+v, want nil", got)
	}
}

func TestNodeEmptyCollections(t *testing.T) {
	db := testDB(t)

	mustInsertNode(t, db, "n1", "entity", "Bare", 1.0)
	got, err := db.GetNode("n1")
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if got.Tags == nil || got.SourceIDs == nil {
		t.Errorf("Tags/SourceIDs should be empty slices, got %v %v", got.Tags, got.SourceIDs)
	}
}

func TestDeleteNode(t *testing.T) {
	db := testDB(t)

	mustInsertNode(t, db, "n1", "entity", "Doomed", 1.0)

	deleted, err := db.DeleteNode("n1")
	if err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	if !deleted {
		t.Error("DeleteNode = false, want true")
	}

	deleted, err = db.DeleteNode("n1")
	if err != nil {
		t.Fatalf("DeleteNode again: %v", err)
	}
	if deleted {
		t.Error("DeleteNode on absent id = true, want false")
	}
}

func TestTouchNode(t *testing.T) {
	db := testDB(t)

	mustInsertNode(t, db, "n1", "entity", "Hot", 0.5)

	n, err := db.TouchNode("n1", 0.05)
	if err != nil {
		t.Fatalf("TouchNode: %v", err)
	}
	if n == nil {
		t.Fatal("TouchNode returned nil for existing node")
	}
	if n.AccessCount != 1 {
		t.Errorf("AccessCount = %d, want 1", n.AccessCount)
	}
	if n.Confidence < 0.549 || n.Confidence > 0.551 {
		t.Errorf("Confidence = %f, want 0.55", n.Confidence)
	}
}

func TestTouchNodeClampsAtOne(t *testing.T) {
	db := testDB(t)

	mustInsertNode(t, db, "n1", "entity", "Maxed", 0.99)

	for i := 0; i < 5; i++ {
		if _, err := db.TouchNode("n1", 0.05); err != nil {
			t.Fatalf("TouchNode %d: %v", i, err)
		}
	}

	n, err := db.GetNode("n1")
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if n.Confidence != 1.0 {
		t.Errorf("Confidence = %f, want clamped 1.0", n.Confidence)
	}
	if n.AccessCount != 5 {
		t.Errorf("AccessCount = %d, want 5", n.AccessCount)
	}
}

func TestTouchNodeMissing(t *testing.T) {
	db := testDB(t)

	n, err := db.TouchNode("missing", 0.05)
	if err != nil {
		t.Fatalf("TouchNode: %v", err)
	}
	if n != nil {
		t.Errorf("TouchNode = %+v, want nil", n)
	}
}

func TestSearchNodes(t *testing.T) {
	db := testDB(t)

	mustInsertNode(t, db, "n1", "concept", "Knowledge Graph Memory", 0.95)
	mustInsertNode(t, db, "n2", "concept", "Flat Text Memory", 0.6)
	mustInsertNode(t, db, "n3", "entity", "Cairn", 1.0)

	results, err := db.SearchNodes("memory", "", 20)
	if err != nil {
		t.Fatalf("SearchNodes: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	// Ordered by confidence descending
	if results[0].ID != "n1" || results[1].ID != "n2" {
		t.Errorf("order = [%s %s], want [n1 n2]", results[0].ID, results[1].ID)
	}
}

func TestSearchNodesCaseInsensitive(t *testing.T) {
	db := testDB(t)

	mustInsertNode(t, db, "n1", "concept", "Knowledge Graph Memory", 0.95)

	results, err := db.SearchNodes("KNOWLEDGE", "", 20)
	if err != nil {
		t.Fatalf("SearchNodes: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("len(results) = %d, want 1", len(results))
	}
}

func TestSearchNodesTypeFilter(t *testing.T) {
	db := testDB(t)

	mustInsertNode(t, db, "n1", "concept", "Memory Concept", 0.9)
	mustInsertNode(t, db, "n2", "event", "Memory Event", 0.9)

	results, err := db.SearchNodes("memory", "event", 20)
	if err != nil {
		t.Fatalf("SearchNodes: %v", err)
	}
	if len(results) != 1 || results[0].ID != "n2" {
		t.Errorf("results = %v, want only n2", results)
	}
}

func TestSearchNodesMatchesContent(t *testing.T) {
	db := testDB(t)

	n := &Node{ID: "n1", Type: "source", Label: "Paper", Content: "graph consolidation study", Confidence: 1.0}
	if err := db.InsertNode(n); err != nil {
		t.Fatalf("InsertNode: %v", err)
	}

	results, err := db.SearchNodes("consolidation", "", 20)
	if err != nil {
		t.Fatalf("SearchNodes: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("len(results) = %d, want 1", len(results))
	}
}

func TestSearchNodesLimit(t *testing.T) {
	db := testDB(t)

	for i := 0; i < 5; i++ {
		mustInsertNode(t, db, string(rune('a'+i)), "entity", "common term", 1.0)
	}

	results, err := db.SearchNodes("common", "", 3)
	if err != nil {
		t.Fatalf("SearchNodes: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("len(results) = %d, want 3", len(results))
	}
}

func TestSearchNodesLiteralWildcards(t *testing.T) {
	db := testDB(t)

	mustInsertNode(t, db, "n1", "entity", "100% certain", 1.0)
	mustInsertNode(t, db, "n2", "entity", "totally certain", 1.0)

	results, err := db.SearchNodes("100%", "", 20)
	if err != nil {
		t.Fatalf("SearchNodes: %v", err)
	}
	if len(results) != 1 || results[0].ID != "n1" {
		t.Errorf("LIKE metacharacters not escaped: got %v", results)
	}
}
