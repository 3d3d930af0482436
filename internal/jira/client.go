// Package jira provides functionality for interacting with the target
// ticketing system's REST API.
package jira

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	jira "github.com/andygrunwald/go-jira"
	"github.com/trivago/tgo/tcontainer"

	"github.com/opentelekomcloud/giji/internal/config"
	"github.com/opentelekomcloud/giji/internal/httpx"
	"github.com/opentelekomcloud/giji/internal/logging"
	"github.com/opentelekomcloud/giji/pkg/models"
)

// Client handles interactions with the JIRA API.
type Client struct {
	client  *jira.Client
	baseURL string
}

// NewClient creates a new JIRA client authenticated with a bearer token and,
// when a certificate pair is configured, a mutual-TLS client certificate.
// All calls go through the resilient transport.
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.Jira.URL == "" || cfg.Jira.Token == "" {
		return nil, fmt.Errorf("missing required environment variables: [JIRA_URL JIRA_TOKEN]")
	}

	var base http.RoundTripper
	if cfg.Jira.CertPath != "" && cfg.Jira.KeyPath != "" {
		cert, err := tls.LoadX509KeyPair(cfg.Jira.CertPath, cfg.Jira.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load jira client certificate: %w", err)
		}
		base = &http.Transport{
			TLSClientConfig: &tls.Config{Certificates: []tls.Certificate{cert}},
		}
		logging.Info("jira client certificate loaded", "cert_path", cfg.Jira.CertPath)
	}

	auth := &jira.BearerAuthTransport{
		Token:     cfg.Jira.Token,
		Transport: base,
	}

	httpClient := httpx.NewClient(httpx.DefaultTimeout, auth, nil)

	client, err := jira.NewClient(httpClient, cfg.Jira.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}

	return &Client{client: client, baseURL: cfg.Jira.URL}, nil
}

// BrowseURL returns the human-facing URL of a ticket.
func (c *Client) BrowseURL(key string) string {
	return fmt.Sprintf("%s/browse/%s", c.baseURL, key)
}

// existsJQL builds the duplicate-search query. Linkage between the two
// systems is recovered from the summary convention "[repo] title" plus the
// "#N" reference, not from a persisted mapping table.
func existsJQL(project string, number int, repo string) string {
	return fmt.Sprintf(`project = %s AND summary ~ "#%d" AND summary ~ "%s"`, project, number, repo)
}

// Exists reports whether a ticket for the given source record is already
// present in the target project.
func (c *Client) Exists(ctx context.Context, project string, number int, repo string) (bool, error) {
	jql := existsJQL(project, number, repo)

	_, resp, err := c.client.Issue.SearchWithContext(ctx, jql, &jira.SearchOptions{
		MaxResults: 1,
		Fields:     []string{"summary"},
	})
	if err != nil {
		if resp != nil {
			err = jira.NewJiraError(resp, err)
		}
		return false, fmt.Errorf("failed to search jira for issue #%d in %s: %w", number, repo, err)
	}

	return resp.Total > 0, nil
}

// CreateIssue submits a draft and returns the new ticket key.
func (c *Client) CreateIssue(ctx context.Context, draft models.TargetIssueDraft) (string, error) {
	fields := &jira.IssueFields{
		Project: jira.Project{Key: draft.ProjectKey},
		Type: jira.IssueType{
			Name: draft.IssueTypeName,
			ID:   draft.IssueTypeID,
		},
		Summary:     draft.Summary,
		Description: draft.Description,
		Labels:      draft.Labels,
	}

	if draft.Priority != "" {
		fields.Priority = &jira.Priority{Name: draft.Priority}
	}

	if len(draft.CustomFields) > 0 {
		fields.Unknowns = tcontainer.NewMarshalMap()
		for id, value := range draft.CustomFields {
			fields.Unknowns[id] = value
		}
	}

	issue, resp, err := c.client.Issue.CreateWithContext(ctx, &jira.Issue{Fields: fields})
	if err != nil {
		if resp != nil {
			err = jira.NewJiraError(resp, err)
		}
		return "", fmt.Errorf("failed to create jira issue: %w", err)
	}

	return issue.Key, nil
}

// AddComment posts a comment on a ticket.
func (c *Client) AddComment(ctx context.Context, key, body string) error {
	_, resp, err := c.client.Issue.AddCommentWithContext(ctx, key, &jira.Comment{Body: body})
	if err != nil {
		if resp != nil {
			err = jira.NewJiraError(resp, err)
		}
		return fmt.Errorf("failed to add comment to %s: %w", key, err)
	}
	return nil
}
