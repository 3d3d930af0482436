package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentelekomcloud/giji/internal/config"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&config.Config{
		GitHub: config.GitHubConfig{
			Token:  "test-token",
			APIURL: server.URL,
		},
	})
	require.NoError(t, err)
	return client
}

func TestNewClientMissingToken(t *testing.T) {
	_, err := NewClient(&config.Config{})
	assert.Error(t, err)
}

func TestListOpenIssues(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/org/docs-rds/issues", r.URL.Path)
		assert.Equal(t, "open", r.URL.Query().Get("state"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{
				"number": 7,
				"title": "wrong retention limit",
				"body": "details",
				"labels": [{"name": "bug"}],
				"user": {"login": "alice"},
				"html_url": "https://github.com/org/docs-rds/issues/7"
			},
			{
				"number": 8,
				"title": "fix typo",
				"user": {"login": "bob"},
				"pull_request": {"url": "https://api.github.com/repos/org/docs-rds/pulls/8"}
			}
		]`)
	}))

	records, err := client.ListOpenIssues(context.Background(), "org", "docs-rds")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 7, records[0].Number)
	assert.Equal(t, "wrong retention limit", records[0].Title)
	assert.Equal(t, []string{"bug"}, records[0].Labels)
	assert.Equal(t, "alice", records[0].Author)
	assert.False(t, records[0].IsPullRequest)

	// Pull requests stay in the listing, flagged for the pipeline to skip.
	assert.True(t, records[1].IsPullRequest)
}

func TestListComments(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/org/docs-rds/issues/7/comments", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"user": {"login": "alice"}, "body": "me too", "created_at": "2025-03-14T10:00:00Z"}
		]`)
	}))

	comments, err := client.ListComments(context.Background(), "org", "docs-rds", 7)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "alice", comments[0].Author)
	assert.Equal(t, "me too", comments[0].Body)
}

func TestAddLabels(t *testing.T) {
	var sent []string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/org/docs-rds/issues/7/labels", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"name": "imported-to-jira"}]`)
	}))

	err := client.AddLabels(context.Background(), "org", "docs-rds", 7, "imported-to-jira")
	require.NoError(t, err)
	assert.Equal(t, []string{"imported-to-jira"}, sent)
}

func TestCreateLabelOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    LabelOutcome
		wantErr bool
	}{
		{
			name:   "created",
			status: http.StatusCreated,
			body:   `{"name": "bug"}`,
			want:   LabelCreated,
		},
		{
			name:   "already exists is not an error",
			status: http.StatusUnprocessableEntity,
			body:   `{"message": "Validation Failed", "errors": [{"resource": "Label", "code": "already_exists"}]}`,
			want:   LabelExists,
		},
		{
			name:    "other rejection surfaces",
			status:  http.StatusUnprocessableEntity,
			body:    `{"message": "Validation Failed", "errors": [{"resource": "Label", "code": "invalid"}]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))

			outcome, err := client.CreateLabel(context.Background(), "org", "docs-rds", "bug", "d73a4a", "")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, outcome)
		})
	}
}

func TestHasPushPermission(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/org/docs-rds", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"name": "docs-rds", "permissions": {"pull": true, "push": false}}`)
	}))

	ok, err := client.HasPushPermission(context.Background(), "org", "docs-rds")
	require.NoError(t, err)
	assert.False(t, ok)
}
