package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentelekomcloud/giji/internal/config"
	"github.com/opentelekomcloud/giji/pkg/models"
)

func testConfig() *config.Config {
	return &config.Config{
		Jira: config.JiraConfig{
			ProjectKey:        "BM",
			IssueType:         "Bug",
			DemandProjectKey:  "OTCPR",
			DemandIssueTypeID: "11001",
		},
		Sync: config.SyncConfig{
			MarkerLabel: "imported-to-jira",
		},
		Fields: config.FieldIDs{
			MasterComponent:   "customfield_17001",
			UsersImpact:       "customfield_24700",
			AffectedLocations: "customfield_10244",
			TestCategory:      "customfield_20100",
			BugType:           "customfield_20101",
			AffectedAreas:     "customfield_10218",
			EstimatedEffort:   "customfield_15700",
			Tier:              "customfield_15237",
			PaysInto:          "customfield_16000",
			TestCategoryIDs: map[string]string{
				"QA":  "17600",
				"UAT": "17601",
			},
			EffortValueID:   "15104",
			TierValueID:     "14637",
			PaysIntoValueID: "15204",
		},
	}
}

func TestKindPolicyMatches(t *testing.T) {
	cfg := testConfig()
	bug := BugPolicy(cfg)
	bulk := BulkPolicy(cfg)

	tests := []struct {
		name   string
		policy KindPolicy
		record models.SourceRecord
		want   bool
	}{
		{"bug label", bug, models.SourceRecord{Labels: []string{"bug"}}, true},
		{"bug label case-insensitive", bug, models.SourceRecord{Labels: []string{"Bug"}}, true},
		{"bug title prefix", bug, models.SourceRecord{Title: "[bug] wrong limit"}, true},
		{"unrelated label", bug, models.SourceRecord{Labels: []string{"question"}}, false},
		{"prefix mid-title does not count", bug, models.SourceRecord{Title: "not a [BUG] report"}, false},
		{"bulk takes unlabeled", bulk, models.SourceRecord{Title: "anything"}, true},
		{"bulk rejects labeled", bulk, models.SourceRecord{Labels: []string{"question"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Matches(tt.record))
		})
	}
}

func TestDeriveTestCategory(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://docs.example.com/umn/rds/backups.html", "UAT"},
		{"https://docs.example.com/UMN/rds/backups.html", "UAT"},
		{"umn", "UAT"},
		{"https://docs.example.com/api-ref/rds/", "QA"},
		{"", "QA"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, deriveTestCategory(tt.url))
		})
	}
}

func TestBugPolicyDraft(t *testing.T) {
	cfg := testConfig()
	policy := BugPolicy(cfg)

	fields := ParseTemplate(bugBody)
	draft := policy.BuildDraft(DraftInput{
		Record:    models.SourceRecord{Number: 7, Body: bugBody},
		Fields:    fields,
		Repo:      "docs-rds",
		Component: "RDS",
		Locations: []string{"EU-DE-03 AZ3 (Germany/Biere)"},
	})

	assert.Contains(t, draft.Description, "The retention section still documents the old 35 day limit.")
	assert.Contains(t, draft.Description, "**Document URL:**")
	assert.Equal(t, "Medium", draft.Priority)
	assert.Equal(t, []string{"bug", "github-import", "docs-rds"}, draft.Labels)

	assert.Equal(t, []map[string]string{{"key": "RDS"}}, draft.CustomFields["customfield_17001"])
	assert.Equal(t, []map[string]string{{"value": "EU-DE-03 AZ3 (Germany/Biere)"}},
		draft.CustomFields["customfield_10244"])
	// The document lives under /umn/, so the UAT category id is selected.
	assert.Equal(t, map[string]string{"id": "17601"}, draft.CustomFields["customfield_20100"])
	assert.Equal(t, []map[string]string{{"value": "Documentation"}}, draft.CustomFields["customfield_20101"])
	assert.Equal(t, []map[string]string{{"value": "Production"}}, draft.CustomFields["customfield_10218"])
	assert.Equal(t, "Users cannot find the backup retention limits.", draft.CustomFields["customfield_24700"])
}

func TestBugPolicyFallsBackToRawBody(t *testing.T) {
	policy := BugPolicy(testConfig())

	draft := policy.BuildDraft(DraftInput{
		Record:    models.SourceRecord{Body: "free form report"},
		Fields:    models.TemplateFields{},
		Repo:      "docs-rds",
		Component: "RDS",
	})
	assert.Contains(t, draft.Description, "free form report")
}

func TestDemandPolicyDraft(t *testing.T) {
	cfg := testConfig()
	policy := DemandPolicy(cfg)
	require.Equal(t, "OTCPR", policy.ProjectKey)
	require.Equal(t, "11001", policy.IssueTypeID)

	fields := ParseTemplate(demandBody)
	draft := policy.BuildDraft(DraftInput{
		Record:    models.SourceRecord{Body: demandBody},
		Fields:    fields,
		Repo:      "docs-ecs",
		Component: "ECS",
		Locations: []string{"EU-DE-03 AZ3 (Germany/Biere)"},
	})

	assert.Contains(t, draft.Description, "The c7n flavors shipped last month")
	assert.Contains(t, draft.Description, "User Guide, FAQ")
	assert.Equal(t, []string{"demand", "github-import", "docs-ecs"}, draft.Labels)

	assert.Equal(t, map[string]string{"id": "15104"}, draft.CustomFields["customfield_15700"])
	assert.Equal(t, map[string]string{"id": "14637"}, draft.CustomFields["customfield_15237"])
	assert.Equal(t, []map[string]string{{"id": "15204"}}, draft.CustomFields["customfield_16000"])
}

func TestDemandPolicyNarrativeFallback(t *testing.T) {
	policy := DemandPolicy(testConfig())

	// No feature description section: the summary section carries the text.
	fields := ParseTemplate("### Summary\n\nonly a summary")
	draft := policy.BuildDraft(DraftInput{Fields: fields, Repo: "docs-ecs"})
	assert.Contains(t, draft.Description, "only a summary")
}

func TestBulkPolicyDraft(t *testing.T) {
	cfg := testConfig()
	policy := BulkPolicy(cfg)
	require.ElementsMatch(t, []string{"imported-to-jira", "bulk"}, policy.MarkerLabels)

	draft := policy.BuildDraft(DraftInput{
		Record:    models.SourceRecord{Number: 3, Body: ""},
		Repo:      "docs-obs",
		Component: "OBS",
	})

	assert.Equal(t, "No description provided", draft.Description)
	assert.Equal(t, []string{"bulk-import", "github-import", "docs-obs"}, draft.Labels)
	// Without a document URL the category defaults to QA.
	assert.Equal(t, map[string]string{"id": "17600"}, draft.CustomFields["customfield_20100"])
}
