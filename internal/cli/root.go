package cli

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lazypower/kgmem/internal/config"
	"github.com/lazypower/kgmem/internal/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "kgmem",
	Short: "Knowledge graph memory for AI agents",
	Long:  "kgmem stores agent memory as a typed, weighted knowledge graph. Relationships are the knowledge.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// .env is optional; ignore a missing file.
	godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (YAML)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dreamCmd)
	rootCmd.AddCommand(statsCmd)
}

// loadConfig resolves the effective configuration for a command run.
func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}

// openStore opens the database named by the config, falling back to the
// default path under the user's home directory.
func openStore(cfg config.Config) (*store.DB, error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	return store.Open(dbPath)
}
