package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/opentelekomcloud/giji/internal/config"
	"github.com/opentelekomcloud/giji/internal/directory"
	"github.com/opentelekomcloud/giji/internal/github"
	"github.com/opentelekomcloud/giji/internal/logging"
)

// labelDelay paces label creation across many repositories.
const labelDelay = 500 * time.Millisecond

type labelDef struct {
	Name        string
	Color       string
	Description string
}

// labelSet is the fixed set of labels every managed repository carries.
var labelSet = []labelDef{
	{"bulk", "59110f", "Imported in bulk without a template"},
	{"bug", "d73a4a", "Something isn't working"},
	{"demand", "ec9f36", "Request for new documentation"},
	{"documentation_bug", "fe5611", "Defect in the published documentation"},
	{"imported-to-jira", "0075ca", "A JIRA ticket exists for this issue"},
}

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Create the standard label set in every managed repository",
	Long: `Labels provisions the fixed label set the importer relies on in every
repository owned by the configured squads. Existing labels are left
untouched; the command only reports them.`,
	RunE: runLabels,
}

func runLabels(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if err := config.ValidateLabels(cfg); err != nil {
		return err
	}

	client, err := github.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize github client: %w", err)
	}

	dir, err := directory.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize repository directory: %w", err)
	}
	defer dir.Close()

	entries, err := dir.List(ctx, cfg.Sync.Teams)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		logging.Info("no repositories matched the configured teams", "teams", cfg.Sync.Teams)
		return nil
	}

	var created, existing, failed int
	for _, org := range cfg.GitHub.Orgs {
		// Permissions are org-wide for the token in use; one check on the
		// first repository catches a read-only token before the loop.
		ok, err := client.HasPushPermission(ctx, org, entries[0].Repo)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("token has no push permission in %s/%s: label creation would fail everywhere", org, entries[0].Repo)
		}

		for _, entry := range entries {
			for _, def := range labelSet {
				outcome, err := client.CreateLabel(ctx, org, entry.Repo, def.Name, def.Color, def.Description)
				switch {
				case err != nil:
					failed++
					logging.Error("failed to create label",
						"org", org,
						"repository", entry.Repo,
						"label", def.Name,
						"error", err)
				case outcome == github.LabelExists:
					existing++
				default:
					created++
					logging.Info("created label",
						"org", org,
						"repository", entry.Repo,
						"label", def.Name)
				}
				time.Sleep(labelDelay)
			}
		}
	}

	logging.Info("label bootstrap finished",
		"created", created,
		"existing", existing,
		"failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d label creations failed", failed)
	}
	return nil
}
