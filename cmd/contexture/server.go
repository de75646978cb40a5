package contexture

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/contexture-ai/contexture/pkg/config"
	"github.com/contexture-ai/contexture/pkg/logger"
	"github.com/contexture-ai/contexture/pkg/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the contexture HTTP server",
	Long: `Start the contexture HTTP server to provide REST API access to the
decision-context graph.

The server provides endpoints for:
- Normalizing raw context records
- Building context and decision graph views
- Computing context similarity
- Importing context batches into the graph store
- Fetching persisted graphs and reconstructed contexts`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().String("host", "", "Server host")
	serverCmd.Flags().Int("port", 0, "Server port")
	serverCmd.Flags().String("mode", "", "Server mode (debug, release, test)")

	serverCmd.Flags().String("db-driver", "", "Database driver (neo4j, memory)")
	serverCmd.Flags().String("db-uri", "", "Database URI")
	serverCmd.Flags().String("db-username", "", "Database username")
	serverCmd.Flags().String("db-password", "", "Database password")
	serverCmd.Flags().String("db-database", "", "Database name")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	overrideServerFlags(cmd, cfg)

	log := logger.NewDefault(logger.ParseLevel(cfg.Log.Level))

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}
	if cfg.Database.URI == "" && cfg.Database.Driver != "memory" {
		return fmt.Errorf("database URI is required")
	}

	client, err := newClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize contexture: %w", err)
	}
	defer client.Close(context.Background())

	if err := client.CreateIndices(context.Background()); err != nil {
		return fmt.Errorf("failed to create indices: %w", err)
	}

	srv := server.New(cfg, client)
	srv.Setup()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("starting server",
			"host", cfg.Server.Host, "port", cfg.Server.Port,
			"driver", cfg.Database.Driver)
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		log.Info("received signal, shutting down", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		log.Info("server stopped gracefully")
		return nil
	}
}

func overrideServerFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode, _ = cmd.Flags().GetString("mode")
	}
	if cmd.Flags().Changed("db-driver") {
		cfg.Database.Driver, _ = cmd.Flags().GetString("db-driver")
	}
	if cmd.Flags().Changed("db-uri") {
		cfg.Database.URI, _ = cmd.Flags().GetString("db-uri")
	}
	if cmd.Flags().Changed("db-username") {
		cfg.Database.Username, _ = cmd.Flags().GetString("db-username")
	}
	if cmd.Flags().Changed("db-password") {
		cfg.Database.Password, _ = cmd.Flags().GetString("db-password")
	}
	if cmd.Flags().Changed("db-database") {
		cfg.Database.Database, _ = cmd.Flags().GetString("db-database")
	}
}
