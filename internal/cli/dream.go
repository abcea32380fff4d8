package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lazypower/kgmem/internal/engine"
)

var (
	dreamDecayRate     float64
	dreamBoostFactor   float64
	dreamStaleDays     float64
	dreamMinConfidence float64
	dreamJSON          bool
)

var dreamCmd = &cobra.Command{
	Use:   "dream",
	Short: "Run one consolidation pass over the graph",
	Long: "Decays stale node confidence, propagates boosts across co-accessed\n" +
		"clusters, and surfaces unreviewed contradictions. Never adds or\n" +
		"removes knowledge.",
	RunE: runDream,
}

func init() {
	dreamCmd.Flags().Float64Var(&dreamDecayRate, "decay-rate", -1, "confidence decay rate [0,1]")
	dreamCmd.Flags().Float64Var(&dreamBoostFactor, "boost-factor", -1, "co-access boost factor [0,1]")
	dreamCmd.Flags().Float64Var(&dreamStaleDays, "stale-days", -1, "idle days before a node is stale")
	dreamCmd.Flags().Float64Var(&dreamMinConfidence, "min-confidence", -1, "confidence floor [0,1]")
	dreamCmd.Flags().BoolVar(&dreamJSON, "json", false, "print the full report as JSON")
}

func runDream(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	dc := engine.DreamConfig{
		DecayRate:     cfg.Dream.DecayRate,
		BoostFactor:   cfg.Dream.BoostFactor,
		StaleDays:     cfg.Dream.StaleDays,
		MinConfidence: cfg.Dream.MinConfidence,
	}
	if dreamDecayRate >= 0 {
		dc.DecayRate = dreamDecayRate
	}
	if dreamBoostFactor >= 0 {
		dc.BoostFactor = dreamBoostFactor
	}
	if dreamStaleDays >= 0 {
		dc.StaleDays = dreamStaleDays
	}
	if dreamMinConfidence >= 0 {
		dc.MinConfidence = dreamMinConfidence
	}

	eng := engine.New(db, zap.NewNop())
	report, err := eng.Dream(dc)
	if err != nil {
		return err
	}

	if dreamJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Printf("dream pass at %s\n\n", report.Timestamp)

	fmt.Printf("decayed (%d):\n", len(report.Decayed))
	for _, d := range report.Decayed {
		fmt.Printf("  %s: %.4f -> %.4f (idle %.1fd)\n", d.Label, d.OldConfidence, d.NewConfidence, d.DaysIdle)
	}

	fmt.Printf("\nboosted (%d):\n", len(report.Boosted))
	for _, b := range report.Boosted {
		fmt.Printf("  %s: %.4f -> %.4f (via edge weight %.2f)\n", b.Label, b.OldConfidence, b.NewConfidence, b.EdgeWeight)
	}

	fmt.Printf("\ncontradictions needing review (%d):\n", len(report.Contradictions))
	for _, c := range report.Contradictions {
		fmt.Printf("  %s <-> %s (weight %.2f)\n", c.Source, c.Target, c.Weight)
	}

	fmt.Printf("\nnodes: %d  edges: %d  avg confidence: %.4f\n",
		report.Stats.TotalNodes, report.Stats.TotalEdges, report.Stats.AvgConfidence)
	return nil
}
