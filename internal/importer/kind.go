package importer

import (
	"strings"

	"github.com/opentelekomcloud/giji/internal/config"
	"github.com/opentelekomcloud/giji/pkg/models"
)

// Static field values that rarely change and are not fed from Vault.
const (
	staticBugType       = "Documentation"
	staticAffectedAreas = "Production"
	staticPriority      = "Medium"
)

// DraftInput carries everything a kind policy needs to build the
// kind-specific part of a target draft.
type DraftInput struct {
	Record    models.SourceRecord
	Fields    models.TemplateFields
	Repo      string
	Component string
	Locations []string
}

// KindPolicy describes one record kind: how in-scope records are
// recognized, which target issue type they map to and how their fields are
// built. The bug, demand and bulk importers are all instances of this.
type KindPolicy struct {
	// Name is the kind name, used in logs and as the first target label.
	Name string

	// Label marks in-scope records; TitlePrefix is the alternative
	// bracketed title convention, matched case-insensitively.
	Label       string
	TitlePrefix string

	// UnlabeledOnly inverts classification: only records without any label
	// are in scope (the bulk importer).
	UnlabeledOnly bool

	// TemplateGate skips records whose body has no recognized template
	// sections.
	TemplateGate bool

	// ProjectKey and the issue type selector for created tickets.
	ProjectKey    string
	IssueTypeName string
	IssueTypeID   string

	// MarkerLabels are applied back on the source record after import.
	MarkerLabels []string

	// BuildDraft fills the kind-specific summary-independent parts of the
	// draft: description body (before the provenance footer), priority,
	// labels and custom fields.
	BuildDraft func(in DraftInput) models.TargetIssueDraft
}

// Matches reports whether a record is in scope for this kind.
func (p KindPolicy) Matches(record models.SourceRecord) bool {
	if p.UnlabeledOnly {
		return len(record.Labels) == 0
	}
	for _, label := range record.Labels {
		if strings.EqualFold(label, p.Label) {
			return true
		}
	}
	return p.TitlePrefix != "" &&
		strings.HasPrefix(strings.ToUpper(record.Title), p.TitlePrefix)
}

// deriveTestCategory classifies a record by its Document URL: user manual
// pages get UAT, everything else (including API references and records
// without a URL) defaults to QA.
func deriveTestCategory(url string) string {
	u := strings.ToLower(strings.TrimSpace(url))
	if strings.Contains(u, "/umn/") || u == "umn" {
		return "UAT"
	}
	return "QA"
}

// locationValues wraps a location list in the target system's option
// payload shape.
func locationValues(locations []string) []map[string]string {
	values := make([]map[string]string, 0, len(locations))
	for _, location := range locations {
		values = append(values, map[string]string{"value": location})
	}
	return values
}

// componentValue wraps a master component id in its payload shape.
func componentValue(component string) []map[string]string {
	return []map[string]string{{"key": component}}
}

// BugPolicy builds the documentation-bug importer kind.
func BugPolicy(cfg *config.Config) KindPolicy {
	ids := cfg.Fields
	return KindPolicy{
		Name:          "bug",
		Label:         "bug",
		TitlePrefix:   "[BUG]",
		TemplateGate:  true,
		ProjectKey:    cfg.Jira.ProjectKey,
		IssueTypeName: cfg.Jira.IssueType,
		MarkerLabels:  []string{cfg.Sync.MarkerLabel},
		BuildDraft: func(in DraftInput) models.TargetIssueDraft {
			narrative := in.Fields.Section(SectionDescription)
			if narrative == "" {
				narrative = in.Record.Body
			}
			description := NormalizeRichText(narrative)

			if url := in.Fields.Section(SectionDocumentURL); url != "" {
				description += "\n\n**Document URL:**\n" + url
			}
			if extra := in.Fields.Section(SectionAdditionalContext); extra != "" {
				description += "\n\n**Additional Context:**\n" + NormalizeRichText(extra)
			}

			custom := map[string]interface{}{
				ids.MasterComponent:   componentValue(in.Component),
				ids.AffectedLocations: locationValues(in.Locations),
				ids.TestCategory: map[string]string{
					"id": ids.TestCategoryIDs[deriveTestCategory(in.Fields.Section(SectionDocumentURL))],
				},
				ids.BugType:       []map[string]string{{"value": staticBugType}},
				ids.AffectedAreas: []map[string]string{{"value": staticAffectedAreas}},
			}
			if impact := in.Fields.Section(SectionUsersImpact); impact != "" {
				custom[ids.UsersImpact] = impact
			}

			return models.TargetIssueDraft{
				Description:  description,
				Priority:     staticPriority,
				Labels:       []string{"bug", "github-import", in.Repo},
				CustomFields: custom,
			}
		},
	}
}

// DemandPolicy builds the demand importer kind.
func DemandPolicy(cfg *config.Config) KindPolicy {
	ids := cfg.Fields
	return KindPolicy{
		Name:         "demand",
		Label:        "demand",
		TitlePrefix:  "[DEMAND]",
		TemplateGate: true,
		ProjectKey:   cfg.Jira.DemandProjectKey,
		IssueTypeID:  cfg.Jira.DemandIssueTypeID,
		MarkerLabels: []string{cfg.Sync.MarkerLabel},
		BuildDraft: func(in DraftInput) models.TargetIssueDraft {
			narrative := in.Fields.Section(SectionFeatureDescription)
			if narrative == "" {
				narrative = in.Fields.Section(SectionSummary)
			}
			if narrative == "" {
				narrative = in.Record.Body
			}
			description := NormalizeRichText(narrative)

			if len(in.Fields.DocTypes) > 0 {
				description += "\n\n**Documents Requested:**\n" + strings.Join(in.Fields.DocTypes, ", ")
			}
			if extra := in.Fields.Section(SectionAdditionalContext); extra != "" {
				description += "\n\n**Additional Context:**\n" + NormalizeRichText(extra)
			}

			custom := map[string]interface{}{
				ids.MasterComponent:   componentValue(in.Component),
				ids.AffectedLocations: locationValues(in.Locations),
				ids.EstimatedEffort:   map[string]string{"id": ids.EffortValueID},
				ids.Tier:              map[string]string{"id": ids.TierValueID},
				ids.PaysInto:          []map[string]string{{"id": ids.PaysIntoValueID}},
			}

			return models.TargetIssueDraft{
				Description:  description,
				Priority:     staticPriority,
				Labels:       []string{"demand", "github-import", in.Repo},
				CustomFields: custom,
			}
		},
	}
}

// BulkPolicy builds the bulk importer kind: records without any label are
// imported as bugs with static field values and no template gate.
func BulkPolicy(cfg *config.Config) KindPolicy {
	ids := cfg.Fields
	return KindPolicy{
		Name:          "bulk",
		UnlabeledOnly: true,
		ProjectKey:    cfg.Jira.ProjectKey,
		IssueTypeName: cfg.Jira.IssueType,
		MarkerLabels:  []string{cfg.Sync.MarkerLabel, "bulk"},
		BuildDraft: func(in DraftInput) models.TargetIssueDraft {
			body := in.Record.Body
			if body == "" {
				body = "No description provided"
			}

			custom := map[string]interface{}{
				ids.MasterComponent:   componentValue(in.Component),
				ids.AffectedLocations: locationValues(in.Locations),
				ids.TestCategory:      map[string]string{"id": ids.TestCategoryIDs["QA"]},
				ids.BugType:           []map[string]string{{"value": staticBugType}},
				ids.AffectedAreas:     []map[string]string{{"value": staticAffectedAreas}},
			}

			return models.TargetIssueDraft{
				Description:  NormalizeRichText(body),
				Priority:     staticPriority,
				Labels:       []string{"bulk-import", "github-import", in.Repo},
				CustomFields: custom,
			}
		},
	}
}

// PolicyForKind returns the policy registered under a kind name.
func PolicyForKind(kind string, cfg *config.Config) (KindPolicy, bool) {
	switch kind {
	case "bug":
		return BugPolicy(cfg), true
	case "demand":
		return DemandPolicy(cfg), true
	case "bulk":
		return BulkPolicy(cfg), true
	default:
		return KindPolicy{}, false
	}
}
