package engine

import (
	"strings"

	"github.com/lazypower/kgmem/internal/store"
)

// Neighbors returns, for every edge incident to nodeID, the edge plus the
// node at the other endpoint, in edge creation order. edgeType narrows to
// an exact edge type when non-empty.
func (e *Engine) Neighbors(nodeID, edgeType string) ([]store.Neighbor, error) {
	n, err := e.db.GetNode(nodeID)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, notFound("node", nodeID)
	}
	return e.db.Neighbors(nodeID, edgeType)
}

// Search matches query case-insensitively as a substring of node labels
// and content. nodeType narrows to one type when non-empty. limit bounds
// results to [1,100]; zero means the default of 20.
func (e *Engine) Search(query, nodeType string, limit int) ([]store.Node, error) {
	if strings.TrimSpace(query) == "" {
		return nil, validationf("search query is required")
	}
	if limit == 0 {
		limit = defaultSearchLimit
	}
	if limit < 1 || limit > maxSearchLimit {
		return nil, validationf("limit %d outside [1,%d]", limit, maxSearchLimit)
	}
	return e.db.SearchNodes(query, nodeType, limit)
}

// Contradictions returns every contradicts edge whose resolution_status
// matches, paired with its endpoint nodes. The status set is open; the
// value is a literal filter. Empty means "unreviewed".
func (e *Engine) Contradictions(status string) ([]store.Contradiction, error) {
	if status == "" {
		status = statusUnreviewed
	}
	return e.db.Contradictions(status)
}
