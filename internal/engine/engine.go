package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lazypower/kgmem/internal/store"
)

// Engine is the knowledge-graph memory engine. All state lives in the
// store; multiple independent engines over separate stores are fine.
type Engine struct {
	db  *store.DB
	log *zap.Logger

	// Serializes dream passes so two concurrent passes cannot
	// double-apply decay or boost to the same node.
	dreamMu sync.Mutex
}

// New creates an Engine over an open store.
func New(db *store.DB, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{db: db, log: logger}
}

// NodeInput is the caller-supplied portion of a new node.
// Confidence defaults to 1.0 when nil.
type NodeInput struct {
	Type       string
	Label      string
	Content    string
	Confidence *float64
	Tags       []string
	SourceIDs  []string
}

// EdgeInput is the caller-supplied portion of a new edge.
// Weight defaults to 0.5 when nil. ResolutionStatus defaults to
// "unreviewed" for contradicts edges and stays null otherwise.
type EdgeInput struct {
	Source           string
	Target           string
	Type             string
	Weight           *float64
	ContextIDs       []string
	ResolutionStatus *string
}

// AddNode validates and stores a new node, returning it with its
// generated id.
func (e *Engine) AddNode(in NodeInput) (*store.Node, error) {
	if err := validateNodeInput(in); err != nil {
		return nil, err
	}

	confidence := 1.0
	if in.Confidence != nil {
		confidence = *in.Confidence
	}

	n := &store.Node{
		ID:         uuid.NewString(),
		Type:       in.Type,
		Label:      in.Label,
		Content:    in.Content,
		Confidence: confidence,
		Tags:       in.Tags,
		SourceIDs:  in.SourceIDs,
	}
	if err := e.db.InsertNode(n); err != nil {
		return nil, fmt.Errorf("add node: %w", err)
	}

	e.log.Debug("node added", zap.String("id", n.ID), zap.String("type", n.Type), zap.String("label", n.Label))
	return n, nil
}

// GetNode returns a node by id.
func (e *Engine) GetNode(id string) (*store.Node, error) {
	n, err := e.db.GetNode(id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, notFound("node", id)
	}
	return n, nil
}

// DeleteNode removes a node and, by cascade, every edge referencing it.
// Returns false (not an error) when the id is absent.
func (e *Engine) DeleteNode(id string) (bool, error) {
	deleted, err := e.db.DeleteNode(id)
	if err != nil {
		return false, err
	}
	if deleted {
		e.log.Debug("node deleted", zap.String("id", id))
	}
	return deleted, nil
}

// Touch records an access: access_count increments, last_accessed
// advances, confidence moves toward 1.0 by a fixed unit.
func (e *Engine) Touch(id string) (*store.Node, error) {
	n, err := e.db.TouchNode(id, touchBoost)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, notFound("node", id)
	}
	return n, nil
}

// AddEdge validates and stores a new edge between two existing nodes,
// returning it with its generated id. Self-loops are permitted.
func (e *Engine) AddEdge(in EdgeInput) (*store.Edge, error) {
	if err := validateEdgeInput(in); err != nil {
		return nil, err
	}

	for _, endpoint := range []string{in.Source, in.Target} {
		n, err := e.db.GetNode(endpoint)
		if err != nil {
			return nil, err
		}
		if n == nil {
			return nil, notFound("node", endpoint)
		}
	}

	weight := defaultWeight
	if in.Weight != nil {
		weight = *in.Weight
	}

	status := in.ResolutionStatus
	if in.Type == edgeTypeContradicts && status == nil {
		s := statusUnreviewed
		status = &s
	}

	edge := &store.Edge{
		ID:               uuid.NewString(),
		Source:           in.Source,
		Target:           in.Target,
		Type:             in.Type,
		Weight:           weight,
		ContextIDs:       in.ContextIDs,
		ResolutionStatus: status,
	}
	if err := e.db.InsertEdge(edge); err != nil {
		return nil, fmt.Errorf("add edge: %w", err)
	}

	e.log.Debug("edge added", zap.String("id", edge.ID), zap.String("type", edge.Type))
	return edge, nil
}

// GetEdge returns an edge by id.
func (e *Engine) GetEdge(id string) (*store.Edge, error) {
	edge, err := e.db.GetEdge(id)
	if err != nil {
		return nil, err
	}
	if edge == nil {
		return nil, notFound("edge", id)
	}
	return edge, nil
}

// DeleteEdge removes an edge. Nodes are never affected.
// Returns false (not an error) when the id is absent.
func (e *Engine) DeleteEdge(id string) (bool, error) {
	deleted, err := e.db.DeleteEdge(id)
	if err != nil {
		return false, err
	}
	if deleted {
		e.log.Debug("edge deleted", zap.String("id", id))
	}
	return deleted, nil
}

// Reinforce strengthens an edge by boost, clamped at 1.0, and advances
// last_reinforced.
func (e *Engine) Reinforce(edgeID string, boost float64) (*store.Edge, error) {
	if outsideUnit(boost) {
		return nil, validationf("boost %.4f outside [0,1]", boost)
	}
	edge, err := e.db.ReinforceEdge(edgeID, boost)
	if err != nil {
		return nil, err
	}
	if edge == nil {
		return nil, notFound("edge", edgeID)
	}
	return edge, nil
}

// Stats returns a read-only rollup over the graph.
func (e *Engine) Stats() (*store.Stats, error) {
	return e.db.Stats()
}
