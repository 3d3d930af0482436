// Package importer implements the idempotent cross-system import pipeline:
// record classification, duplicate detection, template extraction, field
// mapping and the batch driver tying it together.
package importer

import (
	"regexp"
	"strings"

	"github.com/opentelekomcloud/giji/pkg/models"
)

// Keys of the recognized template sections.
const (
	SectionUsersImpact        = "users_impact"
	SectionDocumentURL        = "url"
	SectionDescription        = "description"
	SectionAdditionalContext  = "additional_context"
	SectionSummary            = "summary"
	SectionFeatureDescription = "feature_description"
	SectionDocumentsRequested = "doc_types"
)

// sectionRule is one entry of the declarative template table. Adding a new
// template section means adding a row here, not new control flow.
type sectionRule struct {
	key      string
	header   string
	checkbox bool
}

var templateRules = []sectionRule{
	{key: SectionUsersImpact, header: "User's Impact"},
	{key: SectionDocumentURL, header: "Document URL"},
	{key: SectionDescription, header: "Description"},
	{key: SectionAdditionalContext, header: "Additional Context"},
	{key: SectionSummary, header: "Summary"},
	{key: SectionFeatureDescription, header: "Feature Description"},
	{key: SectionDocumentsRequested, header: "Documents Requested", checkbox: true},
}

var sectionPatterns = compileSectionPatterns()

func compileSectionPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(templateRules))
	for _, rule := range templateRules {
		// Text runs from the section header to the next header or the end
		// of the body.
		patterns[rule.key] = regexp.MustCompile(
			`### ` + regexp.QuoteMeta(rule.header) + `\s*\n\s*([\s\S]*?)(?:\n\s*###|$)`)
	}
	return patterns
}

var checkedItemPattern = regexp.MustCompile(`- \[x\]\s*(.*)`)

// ParseTemplate extracts the recognized template sections from an issue
// body. A body with zero recognized sections yields an empty result, which
// the pipeline treats as "does not use the template" and skips; that is a
// data-quality gate, not an error.
func ParseTemplate(body string) models.TemplateFields {
	fields := models.TemplateFields{Sections: map[string]string{}}
	if body == "" {
		return fields
	}

	for _, rule := range templateRules {
		match := sectionPatterns[rule.key].FindStringSubmatch(body)
		if match == nil {
			continue
		}
		block := strings.TrimSpace(match[1])

		if rule.checkbox {
			fields.DocTypes = parseCheckedItems(block)
			continue
		}
		fields.Sections[rule.key] = block
	}

	return fields
}

// parseCheckedItems keeps only lines with a checked checkbox marker;
// unchecked lines are dropped.
func parseCheckedItems(block string) []string {
	var items []string
	for _, line := range strings.Split(block, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "- [x]") {
			continue
		}
		if match := checkedItemPattern.FindStringSubmatch(trimmed); match != nil {
			if item := strings.TrimSpace(match[1]); item != "" {
				items = append(items, item)
			}
		}
	}
	return items
}
