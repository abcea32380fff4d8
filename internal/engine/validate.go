package engine

import (
	"math"
	"strings"
)

const (
	// touchBoost is the fixed confidence increment applied per access.
	touchBoost = 0.05

	// defaultWeight is assigned to edges created without one.
	defaultWeight = 0.5

	// statusUnreviewed is the default resolution_status for contradicts edges.
	statusUnreviewed = "unreviewed"

	// edgeTypeCoAccessed and edgeTypeContradicts carry extra semantics;
	// the edge type set is otherwise open.
	edgeTypeCoAccessed  = "co_accessed"
	edgeTypeContradicts = "contradicts"

	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// validNodeTypes is the closed node type set.
var validNodeTypes = map[string]bool{
	"entity":  true,
	"concept": true,
	"event":   true,
	"source":  true,
}

// outsideUnit reports whether v falls outside [0,1]. NaN compares false
// against every bound, so it must be rejected explicitly.
func outsideUnit(v float64) bool {
	return math.IsNaN(v) || v < 0.0 || v > 1.0
}

func validateNodeInput(in NodeInput) error {
	if !validNodeTypes[in.Type] {
		return validationf("invalid node type %q (want entity, concept, event, or source)", in.Type)
	}
	if strings.TrimSpace(in.Label) == "" {
		return validationf("label is required")
	}
	if in.Confidence != nil && outsideUnit(*in.Confidence) {
		return validationf("confidence %.4f outside [0,1]", *in.Confidence)
	}
	return nil
}

func validateEdgeInput(in EdgeInput) error {
	if in.Source == "" {
		return validationf("source is required")
	}
	if in.Target == "" {
		return validationf("target is required")
	}
	if in.Type == "" {
		return validationf("edge type is required")
	}
	if in.Weight != nil && outsideUnit(*in.Weight) {
		return validationf("weight %.4f outside [0,1]", *in.Weight)
	}
	return nil
}

func validateDreamConfig(cfg DreamConfig) error {
	if outsideUnit(cfg.DecayRate) {
		return validationf("decay_rate %.4f outside [0,1]", cfg.DecayRate)
	}
	if outsideUnit(cfg.BoostFactor) {
		return validationf("boost_factor %.4f outside [0,1]", cfg.BoostFactor)
	}
	if math.IsNaN(cfg.StaleDays) || cfg.StaleDays < 0.0 {
		return validationf("stale_days %.4f must be >= 0", cfg.StaleDays)
	}
	if outsideUnit(cfg.MinConfidence) {
		return validationf("min_confidence %.4f outside [0,1]", cfg.MinConfidence)
	}
	return nil
}
