package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opentelekomcloud/giji/internal/config"
	"github.com/opentelekomcloud/giji/internal/directory"
	"github.com/opentelekomcloud/giji/internal/github"
	"github.com/opentelekomcloud/giji/internal/importer"
	"github.com/opentelekomcloud/giji/internal/jira"
	"github.com/opentelekomcloud/giji/internal/logging"
	"github.com/opentelekomcloud/giji/internal/metadata"
)

var syncKind string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Import open GitHub issues of one kind into JIRA",
	Long: `Sync runs one batch import pass. It lists the repositories owned by the
configured squads, fetches every open issue, and imports the ones matching
the selected kind (bug, demand or bulk) into JIRA. Imported issues are
labeled on the GitHub side so reruns are idempotent.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVarP(&syncKind, "kind", "k", "bug",
		"record kind to import: bug, demand or bulk")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if err := config.ValidateSync(cfg); err != nil {
		return err
	}

	policy, ok := importer.PolicyForKind(syncKind, cfg)
	if !ok {
		return fmt.Errorf("unknown kind %q: must be bug, demand or bulk", syncKind)
	}

	source, err := github.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize github client: %w", err)
	}

	target, err := jira.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize jira client: %w", err)
	}

	dir, err := directory.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize repository directory: %w", err)
	}
	defer dir.Close()

	resolver := metadata.NewResolver(cfg.Sync.MetadataPolicy,
		metadata.NewGiteaClient(cfg.Gitea.BaseURL))

	pipeline := importer.NewPipeline(source, target, resolver, dir, policy)
	driver := importer.NewDriver(dir, pipeline, cfg.GitHub.Orgs, cfg.Sync.Teams)

	stats, err := driver.Run(ctx)
	if err != nil {
		return err
	}

	// Record-level failures are already logged per record; the run itself
	// completed, so the process exits zero.
	logging.Info("sync finished",
		"kind", policy.Name,
		"created", stats.Created,
		"skipped", stats.Skipped,
		"failed", stats.Failed)
	return nil
}
