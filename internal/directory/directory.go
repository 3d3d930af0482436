// Package directory lists the repositories under management and resolves
// each repository to its master component in the target system.
package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opentelekomcloud/giji/internal/config"
	"github.com/opentelekomcloud/giji/internal/logging"
	"github.com/opentelekomcloud/giji/pkg/models"
)

// Pool bounds. The directory issues a single query per run, so the pool is
// kept small.
const (
	minConns = 1
	maxConns = 10
)

// listQuery selects the managed repositories of the configured teams. The
// ordering fixes the run order so retries process repositories
// deterministically.
const listQuery = `
	SELECT "Repository", "Squad", "Title"
	FROM repo_title_category
	WHERE "Squad" = ANY($1)
	ORDER BY "Squad", "Repository"
`

// ConfigError marks a configuration problem, e.g. a repository without a
// master component mapping. It is distinguishable from data and network
// errors because the batch driver aborts the run on it instead of skipping.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// Directory serves repository listings and component resolution. When a
// fixed repository list is configured the database is never touched.
type Directory struct {
	pool       *pgxpool.Pool
	fixed      []string
	components map[string]string
}

// New builds a Directory. The connection pool is only opened when no fixed
// repository list is configured.
func New(ctx context.Context, cfg *config.Config) (*Directory, error) {
	d := &Directory{
		fixed:      cfg.Sync.Repositories,
		components: cfg.Sync.Components,
	}

	if len(d.fixed) > 0 {
		logging.Info("using fixed repository list", "count", len(d.fixed))
		return d, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}
	poolCfg.MinConns = minConns
	poolCfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logging.Info("connected to database", "host", cfg.Database.Host, "name", cfg.Database.Name)
	d.pool = pool
	return d, nil
}

// List returns the repositories of the given teams ordered by (team, repo).
// With a fixed repository list configured, the list is returned as-is and
// teams are ignored.
func (d *Directory) List(ctx context.Context, teams []string) ([]models.RepoEntry, error) {
	if len(d.fixed) > 0 {
		entries := make([]models.RepoEntry, 0, len(d.fixed))
		for _, repo := range d.fixed {
			entries = append(entries, models.RepoEntry{Repo: repo})
		}
		return entries, nil
	}

	rows, err := d.pool.Query(ctx, listQuery, teams)
	if err != nil {
		return nil, fmt.Errorf("failed to query repositories: %w", err)
	}
	defer rows.Close()

	var entries []models.RepoEntry
	for rows.Next() {
		var entry models.RepoEntry
		if err := rows.Scan(&entry.Repo, &entry.Team, &entry.Title); err != nil {
			return nil, fmt.Errorf("failed to scan repository row: %w", err)
		}
		logging.Debug("found repository",
			"repository", entry.Repo,
			"squad", entry.Team,
			"title", entry.Title)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read repository rows: %w", err)
	}

	logging.Info("fetched repositories", "teams", teams, "count", len(entries))
	return entries, nil
}

// ResolveComponent maps a repository to its master component identifier.
// A missing entry is a configuration error, never a skip: importing without
// correct component tagging is worse than not importing.
func (d *Directory) ResolveComponent(repo string) (string, error) {
	component, ok := d.components[repo]
	if !ok || component == "" {
		return "", &ConfigError{
			Msg: fmt.Sprintf("master component mapping missing for repository %q", repo),
		}
	}
	return component, nil
}

// Close drains the connection pool. Safe to call in all exit paths.
func (d *Directory) Close() {
	if d.pool != nil {
		d.pool.Close()
	}
}
