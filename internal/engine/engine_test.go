package engine_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazypower/kgmem/internal/engine"
	"github.com/lazypower/kgmem/internal/store"
)

func newTestEngine(t *testing.T) (*engine.Engine, *store.DB) {
	t.Helper()
	db, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return engine.New(db, nil), db
}

func f(v float64) *float64 { return &v }

func TestAddNodeDefaults(t *testing.T) {
	eng, _ := newTestEngine(t)

	n, err := eng.AddNode(engine.NodeInput{Type: "entity", Label: "Cairn"})
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, 1.0, n.Confidence)
	assert.Equal(t, 0, n.AccessCount)
	assert.Equal(t, n.CreatedAt, n.LastAccessed)
}

func TestAddNodeValidation(t *testing.T) {
	eng, _ := newTestEngine(t)

	cases := []struct {
		name string
		in   engine.NodeInput
	}{
		{"bad type", engine.NodeInput{Type: "widget", Label: "X"}},
		{"empty label", engine.NodeInput{Type: "entity", Label: ""}},
		{"blank label", engine.NodeInput{Type: "entity", Label: "   "}},
		{"confidence high", engine.NodeInput{Type: "entity", Label: "X", Confidence: f(1.5)}},
		{"confidence low", engine.NodeInput{Type: "entity", Label: "X", Confidence: f(-0.1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := eng.AddNode(tc.in)
			require.Error(t, err)
			assert.True(t, engine.IsValidation(err), "want ValidationError, got %v", err)
		})
	}
}

func TestGetNodeNotFound(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.GetNode("missing")
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
}

func TestDeleteNodeAbsentIsFalse(t *testing.T) {
	eng, _ := newTestEngine(t)

	deleted, err := eng.DeleteNode("missing")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestTouch(t *testing.T) {
	eng, _ := newTestEngine(t)

	n, err := eng.AddNode(engine.NodeInput{Type: "concept", Label: "Hot", Confidence: f(0.5)})
	require.NoError(t, err)

	touched, err := eng.Touch(n.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, touched.AccessCount)
	assert.InDelta(t, 0.55, touched.Confidence, 1e-9)
	assert.GreaterOrEqual(t, touched.LastAccessed, n.LastAccessed)

	// Touch never decreases confidence, even at the ceiling.
	for i := 0; i < 20; i++ {
		touched, err = eng.Touch(n.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, 1.0, touched.Confidence)
	assert.Equal(t, 21, touched.AccessCount)
}

func TestTouchNotFound(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.Touch("missing")
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
}

func TestAddEdgeDefaults(t *testing.T) {
	eng, _ := newTestEngine(t)

	a, err := eng.AddNode(engine.NodeInput{Type: "entity", Label: "A"})
	require.NoError(t, err)
	b, err := eng.AddNode(engine.NodeInput{Type: "entity", Label: "B"})
	require.NoError(t, err)

	e, err := eng.AddEdge(engine.EdgeInput{Source: a.ID, Target: b.ID, Type: "supports"})
	require.NoError(t, err)
	assert.Equal(t, 0.5, e.Weight)
	assert.Nil(t, e.ResolutionStatus)
}

func TestAddEdgeContradictsDefaultsUnreviewed(t *testing.T) {
	eng, _ := newTestEngine(t)

	a, _ := eng.AddNode(engine.NodeInput{Type: "concept", Label: "A"})
	b, _ := eng.AddNode(engine.NodeInput{Type: "concept", Label: "B"})

	e, err := eng.AddEdge(engine.EdgeInput{Source: a.ID, Target: b.ID, Type: "contradicts", Weight: f(0.7)})
	require.NoError(t, err)
	require.NotNil(t, e.ResolutionStatus)
	assert.Equal(t, "unreviewed", *e.ResolutionStatus)

	// An explicit status wins over the default.
	dismissed := "dismissed"
	e2, err := eng.AddEdge(engine.EdgeInput{
		Source: a.ID, Target: b.ID, Type: "contradicts",
		ResolutionStatus: &dismissed,
	})
	require.NoError(t, err)
	require.NotNil(t, e2.ResolutionStatus)
	assert.Equal(t, "dismissed", *e2.ResolutionStatus)
}

func TestAddEdgeMissingEndpoint(t *testing.T) {
	eng, _ := newTestEngine(t)

	a, _ := eng.AddNode(engine.NodeInput{Type: "entity", Label: "A"})

	_, err := eng.AddEdge(engine.EdgeInput{Source: a.ID, Target: "ghost", Type: "supports"})
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))

	_, err = eng.AddEdge(engine.EdgeInput{Source: "ghost", Target: a.ID, Type: "supports"})
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
}

func TestAddEdgeValidation(t *testing.T) {
	eng, _ := newTestEngine(t)

	a, _ := eng.AddNode(engine.NodeInput{Type: "entity", Label: "A"})
	b, _ := eng.AddNode(engine.NodeInput{Type: "entity", Label: "B"})

	_, err := eng.AddEdge(engine.EdgeInput{Source: a.ID, Target: b.ID, Type: "supports", Weight: f(1.2)})
	require.Error(t, err)
	assert.True(t, engine.IsValidation(err))

	_, err = eng.AddEdge(engine.EdgeInput{Source: a.ID, Target: b.ID, Type: ""})
	require.Error(t, err)
	assert.True(t, engine.IsValidation(err))
}

func TestAddEdgeSelfLoop(t *testing.T) {
	eng, _ := newTestEngine(t)

	a, _ := eng.AddNode(engine.NodeInput{Type: "concept", Label: "Self"})

	e, err := eng.AddEdge(engine.EdgeInput{Source: a.ID, Target: a.ID, Type: "supports"})
	require.NoError(t, err)
	assert.Equal(t, a.ID, e.Source)
	assert.Equal(t, a.ID, e.Target)
}

func TestReinforce(t *testing.T) {
	eng, _ := newTestEngine(t)

	a, _ := eng.AddNode(engine.NodeInput{Type: "entity", Label: "A"})
	b, _ := eng.AddNode(engine.NodeInput{Type: "entity", Label: "B"})
	e, _ := eng.AddEdge(engine.EdgeInput{Source: a.ID, Target: b.ID, Type: "supports", Weight: f(0.5)})

	got, err := eng.Reinforce(e.ID, 0.3)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, got.Weight, 1e-9)
	assert.GreaterOrEqual(t, got.LastReinforced, e.LastReinforced)

	got, err = eng.Reinforce(e.ID, 0.9)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Weight)
}

func TestReinforceValidation(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.Reinforce("any", 1.5)
	require.Error(t, err)
	assert.True(t, engine.IsValidation(err))

	_, err = eng.Reinforce("missing", 0.1)
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
}

// NaN compares false against both range bounds, so a plain min/max check
// would wave it through to the store.
func TestNaNRejectedEverywhere(t *testing.T) {
	eng, _ := newTestEngine(t)
	nan := math.NaN()

	_, err := eng.AddNode(engine.NodeInput{Type: "entity", Label: "X", Confidence: f(nan)})
	require.Error(t, err)
	assert.True(t, engine.IsValidation(err))

	a, _ := eng.AddNode(engine.NodeInput{Type: "entity", Label: "A"})
	b, _ := eng.AddNode(engine.NodeInput{Type: "entity", Label: "B"})

	_, err = eng.AddEdge(engine.EdgeInput{Source: a.ID, Target: b.ID, Type: "supports", Weight: f(nan)})
	require.Error(t, err)
	assert.True(t, engine.IsValidation(err))

	e, _ := eng.AddEdge(engine.EdgeInput{Source: a.ID, Target: b.ID, Type: "supports"})
	_, err = eng.Reinforce(e.ID, nan)
	require.Error(t, err)
	assert.True(t, engine.IsValidation(err))

	for _, cfg := range []engine.DreamConfig{
		{DecayRate: nan, BoostFactor: 0.1, StaleDays: 7, MinConfidence: 0.01},
		{DecayRate: 0.05, BoostFactor: nan, StaleDays: 7, MinConfidence: 0.01},
		{DecayRate: 0.05, BoostFactor: 0.1, StaleDays: nan, MinConfidence: 0.01},
		{DecayRate: 0.05, BoostFactor: 0.1, StaleDays: 7, MinConfidence: nan},
	} {
		_, err := eng.Dream(cfg)
		require.Error(t, err)
		assert.True(t, engine.IsValidation(err))
	}
}

func TestNeighborsNotFound(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.Neighbors("missing", "")
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
}

func TestNeighbors(t *testing.T) {
	eng, _ := newTestEngine(t)

	hub, _ := eng.AddNode(engine.NodeInput{Type: "concept", Label: "Hub"})
	out, _ := eng.AddNode(engine.NodeInput{Type: "entity", Label: "Out"})
	in, _ := eng.AddNode(engine.NodeInput{Type: "entity", Label: "In"})
	eng.AddEdge(engine.EdgeInput{Source: hub.ID, Target: out.ID, Type: "mentions"})
	eng.AddEdge(engine.EdgeInput{Source: in.ID, Target: hub.ID, Type: "supports"})

	neighbors, err := eng.Neighbors(hub.ID, "")
	require.NoError(t, err)
	require.Len(t, neighbors, 2)

	filtered, err := eng.Neighbors(hub.ID, "supports")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "incoming", filtered[0].Direction)
	assert.Equal(t, in.ID, filtered[0].Node.ID)
}

func TestSearchValidation(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.Search("", "", 0)
	require.Error(t, err)
	assert.True(t, engine.IsValidation(err))

	_, err = eng.Search("   ", "", 0)
	require.Error(t, err)
	assert.True(t, engine.IsValidation(err))

	_, err = eng.Search("ok", "", 101)
	require.Error(t, err)
	assert.True(t, engine.IsValidation(err))

	_, err = eng.Search("ok", "", -1)
	require.Error(t, err)
	assert.True(t, engine.IsValidation(err))
}

func TestSearch(t *testing.T) {
	eng, _ := newTestEngine(t)

	eng.AddNode(engine.NodeInput{Type: "concept", Label: "Knowledge Graph Memory", Confidence: f(0.95)})
	eng.AddNode(engine.NodeInput{Type: "concept", Label: "Flat Text Memory", Confidence: f(0.6)})
	eng.AddNode(engine.NodeInput{Type: "entity", Label: "Unrelated"})

	results, err := eng.Search("memory", "", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Knowledge Graph Memory", results[0].Label)
}

func TestContradictionsDefaultStatus(t *testing.T) {
	eng, _ := newTestEngine(t)

	a, _ := eng.AddNode(engine.NodeInput{Type: "concept", Label: "A"})
	b, _ := eng.AddNode(engine.NodeInput{Type: "concept", Label: "B"})
	eng.AddEdge(engine.EdgeInput{Source: a.ID, Target: b.ID, Type: "contradicts"})

	got, err := eng.Contradictions("")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].SourceNode.Label)
	assert.Equal(t, "B", got[0].TargetNode.Label)

	none, err := eng.Contradictions("resolved")
	require.NoError(t, err)
	assert.Empty(t, none)
}
