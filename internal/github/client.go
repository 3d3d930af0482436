// Package github provides functionality for interacting with the source
// tracker's REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v41/github"
	"golang.org/x/oauth2"

	"github.com/opentelekomcloud/giji/internal/config"
	"github.com/opentelekomcloud/giji/internal/httpx"
	"github.com/opentelekomcloud/giji/internal/logging"
	"github.com/opentelekomcloud/giji/pkg/models"
)

// perPage is the fixed page size for issue listing.
const perPage = 100

// Client encapsulates the GitHub API client.
type Client struct {
	client *github.Client
}

// NewClient creates a new GitHub API client from configuration. All calls go
// through the resilient transport: 30s timeout, bounded retries, and
// proactive self-throttling against the rate-limit headers.
func NewClient(cfg *config.Config) (*Client, error) {
	token := cfg.GitHub.Token
	if token == "" {
		return nil, fmt.Errorf("github token not found in configuration")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	authed := oauth2.NewClient(context.Background(), ts)

	httpClient := httpx.NewClient(httpx.DefaultTimeout, authed.Transport, httpx.NewRateTracker(httpx.DefaultLowWater))

	client := github.NewClient(httpClient)

	if cfg.GitHub.APIURL != "" && cfg.GitHub.APIURL != "https://api.github.com" {
		apiURL := strings.TrimSuffix(cfg.GitHub.APIURL, "/") + "/"
		parsedURL, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}
		client.BaseURL = parsedURL
		client.UploadURL = parsedURL
	}

	logging.Info("github configuration",
		"api_url", cfg.GitHub.APIURL,
		"token", logging.MaskSensitive(token))

	return &Client{client: client}, nil
}

// ListOpenIssues retrieves all open issues from a repository, following
// pagination until a short or empty page. Pull requests are kept in the
// result with the IsPullRequest flag set; the pipeline skips them itself so
// they show up in the skip counts.
func (c *Client) ListOpenIssues(ctx context.Context, org, repo string) ([]models.SourceRecord, error) {
	opts := &github.IssueListByRepoOptions{
		State: "open",
		ListOptions: github.ListOptions{
			PerPage: perPage,
		},
	}

	var records []models.SourceRecord
	for {
		issues, resp, err := c.client.Issues.ListByRepo(ctx, org, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch issues for %s/%s: %w", org, repo, err)
		}

		for _, issue := range issues {
			records = append(records, toSourceRecord(issue))
		}

		if resp.NextPage == 0 || len(issues) < perPage {
			break
		}
		opts.Page = resp.NextPage
	}

	logging.Info("fetched open issues",
		"org", org,
		"repository", repo,
		"count", len(records))
	return records, nil
}

// ListComments retrieves all comments for an issue in creation order.
func (c *Client) ListComments(ctx context.Context, org, repo string, number int) ([]models.Comment, error) {
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var comments []models.Comment
	for {
		page, resp, err := c.client.Issues.ListComments(ctx, org, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch comments for %s/%s#%d: %w", org, repo, number, err)
		}

		for _, comment := range page {
			comments = append(comments, models.Comment{
				Author:    comment.GetUser().GetLogin(),
				CreatedAt: comment.GetCreatedAt(),
				Body:      comment.GetBody(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return comments, nil
}

// AddLabels adds one or more labels to an issue. Labels that don't exist in
// the repository are created automatically by the API.
func (c *Client) AddLabels(ctx context.Context, org, repo string, number int, labels ...string) error {
	logging.Debug("adding labels", "labels", labels, "issue_number", number)

	_, _, err := c.client.Issues.AddLabelsToIssue(ctx, org, repo, number, labels)
	if err != nil {
		return fmt.Errorf("failed to add labels to issue %s/%s#%d: %w", org, repo, number, err)
	}
	return nil
}

// AddComment posts a comment on an issue.
func (c *Client) AddComment(ctx context.Context, org, repo string, number int, body string) error {
	comment := &github.IssueComment{Body: github.String(body)}

	_, _, err := c.client.Issues.CreateComment(ctx, org, repo, number, comment)
	if err != nil {
		return fmt.Errorf("failed to add comment to issue %s/%s#%d: %w", org, repo, number, err)
	}
	return nil
}

// LabelOutcome reports what happened when creating a repository label.
type LabelOutcome string

const (
	// LabelCreated means the label did not exist and was created.
	LabelCreated LabelOutcome = "created"
	// LabelExists means the repository already had the label.
	LabelExists LabelOutcome = "already_exists"
)

// CreateLabel creates a label definition in a repository. An existing label
// with the same name is not an error. Other rejections surface as typed
// remote errors.
func (c *Client) CreateLabel(ctx context.Context, org, repo, name, color, description string) (LabelOutcome, error) {
	label := &github.Label{
		Name:        github.String(name),
		Color:       github.String(color),
		Description: github.String(description),
	}

	_, _, err := c.client.Issues.CreateLabel(ctx, org, repo, label)
	if err == nil {
		return LabelCreated, nil
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		if isAlreadyExists(ghErr) {
			return LabelExists, nil
		}
		return "", httpx.NewRemoteError(ghErr.Response.StatusCode, ghErr.Message)
	}
	return "", fmt.Errorf("failed to create label %q in %s/%s: %w", name, org, repo, err)
}

func isAlreadyExists(ghErr *github.ErrorResponse) bool {
	for _, e := range ghErr.Errors {
		if e.Code == "already_exists" {
			return true
		}
	}
	return false
}

// HasPushPermission reports whether the authenticated user can push to the
// repository. Used as a cheap pre-flight check before label creation.
func (c *Client) HasPushPermission(ctx context.Context, org, repo string) (bool, error) {
	repository, _, err := c.client.Repositories.Get(ctx, org, repo)
	if err != nil {
		return false, fmt.Errorf("failed to read permissions for %s/%s: %w", org, repo, err)
	}
	return repository.GetPermissions()["push"], nil
}

// toSourceRecord converts a GitHub API issue to the internal model.
func toSourceRecord(issue *github.Issue) models.SourceRecord {
	labelNames := make([]string, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		labelNames = append(labelNames, label.GetName())
	}

	return models.SourceRecord{
		Number:        issue.GetNumber(),
		Title:         issue.GetTitle(),
		Body:          issue.GetBody(),
		Labels:        labelNames,
		IsPullRequest: issue.PullRequestLinks != nil,
		Author:        issue.GetUser().GetLogin(),
		CreatedAt:     issue.GetCreatedAt(),
		HTMLURL:       issue.GetHTMLURL(),
	}
}
