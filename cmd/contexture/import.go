package contexture

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/contexture-ai/contexture/pkg/graphsync"
)

var importCmd = &cobra.Command{
	Use:   "import <payload.json>",
	Short: "Import an extractor payload into the graph store",
	Long: `Import reads a JSON extractor payload, normalizes every context in
it, and replaces the target (user, tenant) scope in the graph store.

By default the contexts are written as a plain context graph. With
--decision the full decision graph is stored instead: ownership chain,
similarity edges, and evolution links.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("user", "", "Owner user id (required)")
	importCmd.Flags().String("tenant", "", "Tenant id (defaults to the public tenant)")
	importCmd.Flags().String("project", "", "Project id for the ownership chain")
	importCmd.Flags().Bool("decision", false, "Store the decision graph instead of the plain context graph")
	_ = importCmd.MarkFlagRequired("user")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}

	client, err := newClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize contexture: %w", err)
	}
	defer client.Close(context.Background())

	contexts, meta := client.NormalizePayload(data)
	if len(contexts) == 0 {
		return fmt.Errorf("payload contains no contexts")
	}

	userID, _ := cmd.Flags().GetString("user")
	tenantID, _ := cmd.Flags().GetString("tenant")
	decision, _ := cmd.Flags().GetBool("decision")

	var count int
	if decision {
		req := graphsync.Request{
			Contexts: contexts,
			UserID:   userID,
			TenantID: tenantID,
		}
		req.ProjectID, _ = cmd.Flags().GetString("project")
		if meta != nil {
			req.DocumentID = meta.DocumentID
		}
		count, err = client.StoreDecisionGraph(context.Background(), req)
	} else {
		count, err = client.ImportContexts(context.Background(), contexts, userID, tenantID)
	}
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("Imported %d contexts\n", count)
	return nil
}
