package importer

import (
	"context"

	"github.com/opentelekomcloud/giji/internal/directory"
	"github.com/opentelekomcloud/giji/internal/logging"
	"github.com/opentelekomcloud/giji/pkg/models"
)

// RepoLister supplies the set of repositories to process.
type RepoLister interface {
	List(ctx context.Context, teams []string) ([]models.RepoEntry, error)
}

// Driver runs the pipeline over every repository of every configured
// organization. Repository failures are isolated from each other;
// configuration defects abort the whole run.
type Driver struct {
	directory RepoLister
	pipeline  *Pipeline
	orgs      []string
	teams     []string
}

// NewDriver wires a batch driver.
func NewDriver(dir RepoLister, pipeline *Pipeline, orgs, teams []string) *Driver {
	return &Driver{
		directory: dir,
		pipeline:  pipeline,
		orgs:      orgs,
		teams:     teams,
	}
}

// Run executes the batch and returns the aggregated counters. A non-nil
// error means the run was aborted; the returned stats still cover whatever
// completed before the abort.
func (d *Driver) Run(ctx context.Context) (models.RunStats, error) {
	var total models.RunStats

	entries, err := d.directory.List(ctx, d.teams)
	if err != nil {
		return total, err
	}
	if len(entries) == 0 {
		logging.Info("no repositories matched the configured teams", "teams", d.teams)
		return total, nil
	}

	logging.Info("starting batch run",
		"kind", d.pipeline.policy.Name,
		"orgs", d.orgs,
		"repositories", len(entries))

	for _, org := range d.orgs {
		for _, entry := range entries {
			stats, err := d.pipeline.ProcessRepository(ctx, org, entry.Repo)
			total.Merge(stats)
			if err != nil {
				if directory.IsConfigError(err) {
					logging.Error("configuration defect, aborting run",
						"repository", entry.Repo,
						"error", err)
					return total, err
				}
				logging.Error("repository failed, continuing with the next one",
					"org", org,
					"repository", entry.Repo,
					"error", err)
				continue
			}
		}
	}

	logging.Info("batch run finished",
		"kind", d.pipeline.policy.Name,
		"created", total.Created,
		"skipped", total.Skipped,
		"failed", total.Failed)
	return total, nil
}
