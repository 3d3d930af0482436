package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/opentelekomcloud/giji/internal/logging"
	"github.com/opentelekomcloud/giji/pkg/models"
)

// maxDescriptionLength is the target system's text field limit. Longer
// descriptions are truncated, never rejected.
const maxDescriptionLength = 32767

// recordDelay paces record processing so a long batch stays well under the
// trackers' rate limits. commentDelay paces comment backfill the same way.
const (
	recordDelay  = 500 * time.Millisecond
	commentDelay = 500 * time.Millisecond
)

// SourceClient is the subset of the source tracker API the pipeline needs.
type SourceClient interface {
	ListOpenIssues(ctx context.Context, org, repo string) ([]models.SourceRecord, error)
	ListComments(ctx context.Context, org, repo string, number int) ([]models.Comment, error)
	AddLabels(ctx context.Context, org, repo string, number int, labels ...string) error
	AddComment(ctx context.Context, org, repo string, number int, body string) error
}

// TargetClient is the subset of the target ticketing API the pipeline needs.
type TargetClient interface {
	Exists(ctx context.Context, project string, number int, repo string) (bool, error)
	CreateIssue(ctx context.Context, draft models.TargetIssueDraft) (string, error)
	AddComment(ctx context.Context, key, body string) error
	BrowseURL(key string) string
}

// LocationResolver resolves the affected-locations list per organization.
type LocationResolver interface {
	AffectedLocations(ctx context.Context, org string) ([]string, error)
}

// ComponentResolver maps a repository to its master component id.
type ComponentResolver interface {
	ResolveComponent(repo string) (string, error)
}

// Pipeline imports one repository's records for a single kind. It holds no
// per-record state; cross-run idempotence comes entirely from the duplicate
// detector.
type Pipeline struct {
	source     SourceClient
	target     TargetClient
	locations  LocationResolver
	components ComponentResolver
	policy     KindPolicy
	detector   *DuplicateDetector

	delay        time.Duration
	commentDelay time.Duration
	sleep        func(time.Duration)
}

// NewPipeline wires a pipeline for one kind policy.
func NewPipeline(source SourceClient, target TargetClient, locations LocationResolver,
	components ComponentResolver, policy KindPolicy) *Pipeline {
	return &Pipeline{
		source:       source,
		target:       target,
		locations:    locations,
		components:   components,
		policy:       policy,
		detector:     NewDuplicateDetector(target, policy.MarkerLabels...),
		delay:        recordDelay,
		commentDelay: commentDelay,
		sleep:        time.Sleep,
	}
}

// ProcessRepository runs every open record of a repository through the
// pipeline and returns the per-repository counters. Record-level failures
// are counted and logged, not returned; only errors that invalidate the
// whole repository (or the whole run) come back as err.
func (p *Pipeline) ProcessRepository(ctx context.Context, org, repo string) (models.RunStats, error) {
	var stats models.RunStats

	records, err := p.source.ListOpenIssues(ctx, org, repo)
	if err != nil {
		return stats, err
	}

	for _, record := range records {
		outcome, err := p.processRecord(ctx, org, repo, record)
		if err != nil {
			return stats, err
		}
		stats.Record(outcome)

		logging.Debug("record processed",
			"repository", repo,
			"issue_number", record.Number,
			"outcome", outcome.Kind,
			"reason", outcome.Reason,
			"key", outcome.TargetKey)

		p.sleep(p.delay)
	}

	logging.Info("repository processed",
		"org", org,
		"repository", repo,
		"kind", p.policy.Name,
		"created", stats.Created,
		"skipped", stats.Skipped,
		"failed", stats.Failed)
	return stats, nil
}

// processRecord decides and executes the fate of a single record. The
// returned error is reserved for run-aborting conditions; everything else is
// expressed as an outcome.
func (p *Pipeline) processRecord(ctx context.Context, org, repo string, record models.SourceRecord) (models.Outcome, error) {
	if record.IsPullRequest {
		return models.Skipped(models.ReasonIsPullRequest), nil
	}
	if !p.policy.Matches(record) {
		return models.Skipped(models.ReasonWrongKind), nil
	}
	if p.detector.AlreadyImported(record) {
		return models.Skipped(models.ReasonAlreadyImported), nil
	}

	exists, err := p.detector.ExistsInTarget(ctx, record, p.policy.ProjectKey, repo)
	if err != nil {
		// A failed search must not block the import; a duplicate created by
		// proceeding is recoverable, a silently dropped record is not.
		logging.Warn("duplicate search failed, proceeding with import",
			"repository", repo,
			"issue_number", record.Number,
			"error", err)
		exists = false
	}
	if exists {
		// The ticket is there but the marker label is missing, typically
		// after an interrupted run. Heal the marker so the search is not
		// needed next time.
		if err := p.source.AddLabels(ctx, org, repo, record.Number, p.policy.MarkerLabels...); err != nil {
			logging.Warn("failed to backfill marker label",
				"repository", repo,
				"issue_number", record.Number,
				"error", err)
		}
		return models.Skipped(models.ReasonAlreadyExists), nil
	}

	fields := ParseTemplate(record.Body)
	if p.policy.TemplateGate && fields.Empty() {
		logging.Warn("record body does not follow the template, skipping",
			"repository", repo,
			"issue_number", record.Number)
		return models.Skipped(models.ReasonNoTemplate), nil
	}

	component, err := p.components.ResolveComponent(repo)
	if err != nil {
		// A missing component mapping is a configuration defect that would
		// misfile every record of this repository. It aborts the run.
		return models.Outcome{}, err
	}

	locations, err := p.locations.AffectedLocations(ctx, org)
	if err != nil {
		logging.Error("failed to resolve affected locations",
			"org", org,
			"repository", repo,
			"issue_number", record.Number,
			"error", err)
		return models.Failed(models.ReasonNoLocations), nil
	}

	draft := p.buildDraft(repo, record, fields, component, locations)

	key, err := p.target.CreateIssue(ctx, draft)
	if err != nil {
		logging.Error("failed to create target ticket",
			"repository", repo,
			"issue_number", record.Number,
			"error", err)
		return models.Failed(models.ReasonTargetRejected), nil
	}

	logging.Info("created target ticket",
		"repository", repo,
		"issue_number", record.Number,
		"key", key)

	p.backfillComments(ctx, org, repo, record.Number, key)
	p.markImported(ctx, org, repo, record.Number, key)

	return models.Created(key), nil
}

// buildDraft combines the kind-specific payload with the parts shared by
// every kind: the summary convention, the provenance footer and the length
// cap.
func (p *Pipeline) buildDraft(repo string, record models.SourceRecord,
	fields models.TemplateFields, component string, locations []string) models.TargetIssueDraft {
	in := DraftInput{
		Record:    record,
		Fields:    fields,
		Repo:      repo,
		Component: component,
		Locations: locations,
	}
	draft := p.policy.BuildDraft(in)

	draft.ProjectKey = p.policy.ProjectKey
	draft.IssueTypeName = p.policy.IssueTypeName
	draft.IssueTypeID = p.policy.IssueTypeID
	draft.Summary = fmt.Sprintf("[%s] %s", repo, record.Title)

	draft.Description += fmt.Sprintf(
		"\n\n*Imported from [GitHub Issue #%d](%s) in repository %s*",
		record.Number, record.HTMLURL, repo)
	if len(draft.Description) > maxDescriptionLength {
		draft.Description = draft.Description[:maxDescriptionLength]
	}

	return draft
}

// backfillComments copies the record's discussion onto the new ticket.
// Failures here are logged and tolerated; the ticket already exists.
func (p *Pipeline) backfillComments(ctx context.Context, org, repo string, number int, key string) {
	comments, err := p.source.ListComments(ctx, org, repo, number)
	if err != nil {
		logging.Warn("failed to fetch comments for backfill",
			"repository", repo,
			"issue_number", number,
			"error", err)
		return
	}

	for _, comment := range comments {
		body := strings.TrimSpace(NormalizeRichText(comment.Body))
		if body == "" {
			continue
		}
		text := fmt.Sprintf("*Comment by %s on %s:*\n\n%s",
			comment.Author, comment.CreatedAt.Format("2006-01-02"), body)

		if err := p.target.AddComment(ctx, key, text); err != nil {
			logging.Warn("failed to backfill comment",
				"key", key,
				"issue_number", number,
				"error", err)
		}
		p.sleep(p.commentDelay)
	}
}

// markImported applies the marker labels and the provenance comment on the
// source record. Failures are logged; the next run's duplicate search will
// still recognize the ticket by its summary.
func (p *Pipeline) markImported(ctx context.Context, org, repo string, number int, key string) {
	if err := p.source.AddLabels(ctx, org, repo, number, p.policy.MarkerLabels...); err != nil {
		logging.Warn("failed to add marker label",
			"repository", repo,
			"issue_number", number,
			"error", err)
	}

	comment := fmt.Sprintf("This issue has been imported to Jira: [%s](%s)",
		key, p.target.BrowseURL(key))
	if err := p.source.AddComment(ctx, org, repo, number, comment); err != nil {
		logging.Warn("failed to add provenance comment",
			"repository", repo,
			"issue_number", number,
			"error", err)
	}
}
