package metadata

import (
	"context"
	"fmt"

	"github.com/opentelekomcloud/giji/internal/config"
	"github.com/opentelekomcloud/giji/internal/logging"
)

// Strategy is one way of resolving affected locations for an organization.
type Strategy interface {
	Name() string
	AffectedLocations(ctx context.Context, org string) ([]string, error)
}

// Resolver tries an ordered list of strategies and returns the first
// successful result. The strategy order is a deployment-time choice.
type Resolver struct {
	strategies []Strategy
}

// NewResolver builds the strategy chain for the configured policy.
// Strict uses the metadata repository only; fallback tries the metadata
// repository, then the built-in per-organization table, then the single
// default location list.
func NewResolver(policy string, gitea *GiteaClient) *Resolver {
	if policy == config.PolicyStrict {
		return &Resolver{strategies: []Strategy{gitea}}
	}
	return &Resolver{strategies: []Strategy{
		gitea,
		staticTable{},
		defaultLocations{},
	}}
}

// AffectedLocations resolves the location list for an organization, trying
// each strategy in order.
func (r *Resolver) AffectedLocations(ctx context.Context, org string) ([]string, error) {
	var lastErr error
	for _, strategy := range r.strategies {
		locations, err := strategy.AffectedLocations(ctx, org)
		if err != nil {
			logging.Warn("affected-locations strategy failed",
				"strategy", strategy.Name(),
				"org", org,
				"error", err)
			lastErr = err
			continue
		}
		if len(locations) > 0 {
			return locations, nil
		}
	}
	return nil, fmt.Errorf("failed to resolve affected locations for org %q: %w", org, lastErr)
}

// Name implements Strategy for GiteaClient.
func (c *GiteaClient) Name() string { return "gitea" }

// staticTable is the built-in per-organization fallback used when the
// metadata repository is unavailable.
type staticTable struct{}

var staticOrgLocations = map[string][]string{
	"opentelekomcloud-docs":       {"EU-DE-03 AZ3 (Germany/Biere)"},
	"opentelekomcloud-docs-swiss": {"EU-CH2 AZ1 (Switzerland/Bern)"},
}

func (staticTable) Name() string { return "static-table" }

func (staticTable) AffectedLocations(_ context.Context, org string) ([]string, error) {
	locations, ok := staticOrgLocations[org]
	if !ok {
		return nil, fmt.Errorf("org %q not in static location table", org)
	}
	return locations, nil
}

// defaultLocations is the terminal fallback: one hardcoded list.
type defaultLocations struct{}

func (defaultLocations) Name() string { return "default" }

func (defaultLocations) AffectedLocations(context.Context, string) ([]string, error) {
	return []string{"EU-DE-03 AZ3 (Germany/Biere)"}, nil
}
