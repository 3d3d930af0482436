// Package metadata resolves organization metadata, most importantly the
// affected-locations list attached to every imported record.
package metadata

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"gopkg.in/yaml.v3"

	"github.com/opentelekomcloud/giji/internal/httpx"
	"github.com/opentelekomcloud/giji/internal/logging"
)

// environmentsPath is the fixed content-API path of the cloud environment
// descriptors inside the metadata repository.
const environmentsPath = "/repos/infra/otc-metadata-rework/contents/otc_metadata/data/cloud_environments"

// GiteaClient reads organization descriptors from the metadata repository's
// content API. Read-only; requests are unauthenticated.
type GiteaClient struct {
	rc *resty.Client
}

// NewGiteaClient builds a client for the given instance base URL. The
// metadata endpoint gets a shorter timeout than the primary systems and the
// same transient-retry policy.
func NewGiteaClient(baseURL string) *GiteaClient {
	rc := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/") + environmentsPath).
		SetTimeout(httpx.MetadataTimeout).
		SetRetryCount(httpx.DefaultMaxAttempts - 1).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || httpx.IsTransientStatus(r.StatusCode())
		})

	return &GiteaClient{rc: rc}
}

// dirEntry is one entry of a content-API directory listing.
type dirEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// fileContent is a content-API file response; the body is base64-encoded.
type fileContent struct {
	Content string `json:"content"`
}

// descriptor is the YAML shape of a cloud environment file.
type descriptor struct {
	PublicOrg         string   `yaml:"public_org"`
	AffectedLocations []string `yaml:"affected_locations"`
}

// AffectedLocations scans the descriptor directory and returns the
// affected_locations list of the first descriptor whose public_org matches
// the requested organization.
func (c *GiteaClient) AffectedLocations(ctx context.Context, org string) ([]string, error) {
	var entries []dirEntry
	resp, err := c.rc.R().SetContext(ctx).SetResult(&entries).Get("")
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata directory: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, httpx.NewRemoteError(resp.StatusCode(), resp.String())
	}

	for _, entry := range entries {
		if entry.Type != "file" || !strings.HasSuffix(entry.Name, ".yaml") {
			continue
		}

		desc, err := c.fetchDescriptor(ctx, entry.Name)
		if err != nil {
			logging.Warn("skipping unreadable metadata descriptor",
				"file", entry.Name,
				"error", err)
			continue
		}

		if desc.PublicOrg == org && len(desc.AffectedLocations) > 0 {
			return desc.AffectedLocations, nil
		}
	}

	return nil, fmt.Errorf("no metadata descriptor found for org %q", org)
}

func (c *GiteaClient) fetchDescriptor(ctx context.Context, name string) (*descriptor, error) {
	var file fileContent
	resp, err := c.rc.R().SetContext(ctx).SetResult(&file).Get("/" + name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", name, err)
	}
	if !resp.IsSuccess() {
		return nil, httpx.NewRemoteError(resp.StatusCode(), resp.String())
	}

	raw, err := base64.StdEncoding.DecodeString(file.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}

	var desc descriptor
	if err := yaml.Unmarshal(raw, &desc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return &desc, nil
}
