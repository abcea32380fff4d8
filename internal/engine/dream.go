package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/lazypower/kgmem/internal/store"
)

// DreamConfig tunes a consolidation pass.
type DreamConfig struct {
	DecayRate     float64 `json:"decay_rate"`
	BoostFactor   float64 `json:"boost_factor"`
	StaleDays     float64 `json:"stale_days"`
	MinConfidence float64 `json:"min_confidence"`
}

// DefaultDreamConfig returns the standing consolidation parameters.
func DefaultDreamConfig() DreamConfig {
	return DreamConfig{
		DecayRate:     0.05,
		BoostFactor:   0.1,
		StaleDays:     7.0,
		MinConfidence: 0.01,
	}
}

// DecayedNode records one node's confidence drop during the decay stage.
type DecayedNode struct {
	ID            string  `json:"id"`
	Label         string  `json:"label"`
	OldConfidence float64 `json:"old_confidence"`
	NewConfidence float64 `json:"new_confidence"`
	DaysIdle      float64 `json:"days_idle"`
}

// BoostedNode records one node's confidence lift during the boost stage.
// OldConfidence is the post-decay value; EdgeWeight is the summed weight
// of the qualifying co_accessed edges.
type BoostedNode struct {
	ID            string  `json:"id"`
	Label         string  `json:"label"`
	OldConfidence float64 `json:"old_confidence"`
	NewConfidence float64 `json:"new_confidence"`
	EdgeWeight    float64 `json:"edge_weight"`
}

// DreamReport is the outcome of one consolidation pass.
type DreamReport struct {
	Timestamp      string                       `json:"timestamp"`
	Config         DreamConfig                  `json:"config"`
	Decayed        []DecayedNode                `json:"decayed"`
	Boosted        []BoostedNode                `json:"boosted"`
	Contradictions []store.ContradictionSummary `json:"contradictions"`
	Stats          *store.Stats                 `json:"stats"`
}

const dayMillis = 24 * 60 * 60 * 1000

// boostNeighborFloor is the confidence a co-accessed neighbor must exceed
// for its edge to propagate a boost.
const boostNeighborFloor = 0.5

// Dream runs the consolidation pass: decay stale confidence, propagate
// boosts across co-accessed clusters, surface unreviewed contradictions.
// The three stages run in one transaction; either every update applies or
// none do. The pass never creates or deletes nodes or edges, and passes
// are serialized so two cannot double-apply to the same node.
func (e *Engine) Dream(cfg DreamConfig) (*DreamReport, error) {
	if err := validateDreamConfig(cfg); err != nil {
		return nil, err
	}

	e.dreamMu.Lock()
	defer e.dreamMu.Unlock()

	now := time.Now()
	nowMillis := now.UnixMilli()

	tx, err := e.db.Begin()
	if err != nil {
		return nil, &TransactionError{Op: "dream", Err: err}
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	states, err := store.NodeStatesTx(tx)
	if err != nil {
		return nil, &TransactionError{Op: "dream", Err: err}
	}

	confidence := make(map[string]float64, len(states))
	labels := make(map[string]string, len(states))
	for _, s := range states {
		confidence[s.ID] = s.Confidence
		labels[s.ID] = s.Label
	}

	report := &DreamReport{
		Timestamp:      now.UTC().Format(time.RFC3339),
		Config:         cfg,
		Decayed:        []DecayedNode{},
		Boosted:        []BoostedNode{},
		Contradictions: []store.ContradictionSummary{},
	}

	// Stage 1: decay. Nodes idle past stale_days lose confidence scaled
	// by how long they have sat, floored at min_confidence.
	cutoff := nowMillis - int64(cfg.StaleDays*dayMillis)
	for _, s := range states {
		if s.LastAccessed >= cutoff {
			continue
		}
		daysIdle := float64(nowMillis-s.LastAccessed) / dayMillis
		scale := daysIdle / (daysIdle + 1)
		newConf := s.Confidence * (1 - cfg.DecayRate*scale)
		if newConf < cfg.MinConfidence {
			newConf = cfg.MinConfidence
		}
		if newConf == s.Confidence {
			continue
		}
		if err := store.UpdateConfidenceTx(tx, s.ID, newConf); err != nil {
			return nil, &TransactionError{Op: "dream decay", Err: err}
		}
		confidence[s.ID] = newConf
		report.Decayed = append(report.Decayed, DecayedNode{
			ID:            s.ID,
			Label:         s.Label,
			OldConfidence: s.Confidence,
			NewConfidence: newConf,
			DaysIdle:      daysIdle,
		})
	}

	// Stage 2: boost. A node gains edge.weight * boost_factor for every
	// incident co_accessed edge whose other endpoint sits above the
	// neighbor floor after decay. Boosts sum, then clamp at 1.0.
	coEdges, err := store.CoAccessEdgesTx(tx)
	if err != nil {
		return nil, &TransactionError{Op: "dream boost", Err: err}
	}

	boostWeight := make(map[string]float64)
	for _, edge := range coEdges {
		if confidence[edge.Target] > boostNeighborFloor {
			boostWeight[edge.Source] += edge.Weight
		}
		if edge.Source != edge.Target && confidence[edge.Source] > boostNeighborFloor {
			boostWeight[edge.Target] += edge.Weight
		}
	}

	for _, s := range states {
		weight, ok := boostWeight[s.ID]
		if !ok {
			continue
		}
		old := confidence[s.ID]
		newConf := old + weight*cfg.BoostFactor
		if newConf > 1.0 {
			newConf = 1.0
		}
		if newConf == old {
			continue
		}
		if err := store.UpdateConfidenceTx(tx, s.ID, newConf); err != nil {
			return nil, &TransactionError{Op: "dream boost", Err: err}
		}
		confidence[s.ID] = newConf
		report.Boosted = append(report.Boosted, BoostedNode{
			ID:            s.ID,
			Label:         s.Label,
			OldConfidence: old,
			NewConfidence: newConf,
			EdgeWeight:    weight,
		})
	}

	// Stage 3: surface unreviewed contradictions. Pure read, folded into
	// the same snapshot.
	contradictions, err := store.ContradictionSummariesTx(tx)
	if err != nil {
		return nil, &TransactionError{Op: "dream contradictions", Err: err}
	}
	if contradictions != nil {
		report.Contradictions = contradictions
	}

	stats, err := store.StatsTx(tx)
	if err != nil {
		return nil, &TransactionError{Op: "dream stats", Err: err}
	}
	report.Stats = stats

	if err := tx.Commit(); err != nil {
		return nil, &TransactionError{Op: "dream commit", Err: err}
	}
	committed = true

	e.log.Info("dream pass complete",
		zap.Int("decayed", len(report.Decayed)),
		zap.Int("boosted", len(report.Boosted)),
		zap.Int("contradictions", len(report.Contradictions)),
	)
	return report, nil
}
