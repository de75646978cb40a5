// Package contexture implements the CLI for the decision-context graph
// service.
package contexture

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	root "github.com/contexture-ai/contexture"
	"github.com/contexture-ai/contexture/pkg/cache"
	"github.com/contexture-ai/contexture/pkg/config"
	"github.com/contexture-ai/contexture/pkg/driver"
	"github.com/contexture-ai/contexture/pkg/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "contexture",
	Short: "Decision-context graph service",
	Long: `Contexture normalizes extracted decision contexts, derives their
graph representations, and synchronizes them into a multi-tenant
property-graph store.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default contexture.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("contexture")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.contexture")
	}
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig resolves configuration and applies CLI overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	return cfg, nil
}

// newClient builds the composition root: store, optional cache, and
// the contexture client around them.
func newClient(cfg *config.Config) (*root.Client, error) {
	log := logger.NewDefault(logger.ParseLevel(cfg.Log.Level))

	var store driver.GraphStore
	switch cfg.Database.Driver {
	case "memory":
		store = driver.NewMemoryStore()
	case "neo4j", "":
		neoStore, err := driver.NewNeo4jStore(
			cfg.Database.URI, cfg.Database.Username,
			cfg.Database.Password, cfg.Database.Database)
		if err != nil {
			return nil, err
		}
		store = neoStore
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.Database.Driver)
	}

	clientCfg := &root.Config{
		SimilarityLimit: cfg.Sync.SimilarityLimit,
		Logger:          log,
	}
	if cfg.Cache.Enabled {
		fetchCache, err := cache.NewBadgerCache(cfg.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		clientCfg.Cache = fetchCache
		clientCfg.CacheTTL = time.Duration(cfg.Cache.TTLSeconds) * time.Second
	}

	return root.NewClient(store, clientCfg), nil
}
