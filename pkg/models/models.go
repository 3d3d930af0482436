// Package models defines data structures shared across the application.
package models

import (
	"time"
)

// SourceRecord represents an issue fetched from the source tracker. It is
// never mutated after fetching; the pipeline only reads it and later appends
// a label or comment through the tracker's own API.
type SourceRecord struct {
	// Number is the issue number, unique per repository.
	Number int

	// Title is the issue's title.
	Title string

	// Body is the full markdown body of the issue.
	Body string

	// Labels is a slice of label names attached to the issue.
	Labels []string

	// IsPullRequest marks records that are pull requests. The issues API
	// returns them alongside regular issues and they are always excluded.
	IsPullRequest bool

	// Author is the login of the user who opened the issue.
	Author string

	// CreatedAt is the timestamp when the issue was created.
	CreatedAt time.Time

	// HTMLURL is the canonical browse URL of the issue.
	HTMLURL string
}

// Comment represents a single comment on a source record.
type Comment struct {
	Author    string
	CreatedAt time.Time
	Body      string
}

// RepoEntry is one row of the repository directory: a repository together
// with the team owning it and its display title.
type RepoEntry struct {
	Repo  string
	Team  string
	Title string
}

// TemplateFields holds the values extracted from an issue body written
// against the fixed markdown template. Absent sections are simply missing
// keys. An empty value is a valid result meaning the record does not follow
// the template.
type TemplateFields struct {
	// Sections maps recognized section keys to their trimmed text.
	Sections map[string]string

	// DocTypes lists the checked entries of the "Documents Requested"
	// checkbox section.
	DocTypes []string
}

// Empty reports whether no recognized section was found in the body.
func (f TemplateFields) Empty() bool {
	return len(f.Sections) == 0 && len(f.DocTypes) == 0
}

// Section returns the text of a section, or "" when absent.
func (f TemplateFields) Section(key string) string {
	if f.Sections == nil {
		return ""
	}
	return f.Sections[key]
}

// TargetIssueDraft is the payload created in the target ticketing system.
// It is constructed fresh per source record and never reused.
type TargetIssueDraft struct {
	// ProjectKey selects the target project.
	ProjectKey string

	// IssueTypeName selects the issue type by name. Empty when the type is
	// selected by id instead.
	IssueTypeName string

	// IssueTypeID selects the issue type by id.
	IssueTypeID string

	// Summary is the ticket summary, always prefixed with the originating
	// repository name in brackets.
	Summary string

	// Description is the normalized body plus provenance footer, capped at
	// the target system's maximum field length.
	Description string

	// Priority is the priority name, e.g. "Medium".
	Priority string

	// Labels are the labels applied on the target ticket.
	Labels []string

	// CustomFields maps custom field ids to their value payloads.
	CustomFields map[string]interface{}
}

// Skip and failure reasons attached to outcomes.
const (
	ReasonIsPullRequest   = "is-pr"
	ReasonWrongKind       = "wrong-kind"
	ReasonAlreadyImported = "already-imported"
	ReasonAlreadyExists   = "already-exists"
	ReasonNoTemplate      = "no-template"
	ReasonNoLocations     = "no-locations"
	ReasonTargetRejected  = "target-rejected"
)

// OutcomeKind classifies what happened to a single record.
type OutcomeKind int

const (
	// OutcomeCreated means a target ticket was created for the record.
	OutcomeCreated OutcomeKind = iota
	// OutcomeSkipped means the record was intentionally not imported.
	OutcomeSkipped
	// OutcomeFailed means the import was attempted and failed.
	OutcomeFailed
)

// String renders the outcome kind for logs.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCreated:
		return "created"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the terminal per-record result of one pipeline pass.
type Outcome struct {
	Kind   OutcomeKind
	Reason string

	// TargetKey is the key of the created ticket, set only for OutcomeCreated.
	TargetKey string
}

// Created returns a successful outcome carrying the new target key.
func Created(key string) Outcome {
	return Outcome{Kind: OutcomeCreated, TargetKey: key}
}

// Skipped returns a skip outcome with the given reason.
func Skipped(reason string) Outcome {
	return Outcome{Kind: OutcomeSkipped, Reason: reason}
}

// Failed returns a failure outcome with the given reason.
func Failed(reason string) Outcome {
	return Outcome{Kind: OutcomeFailed, Reason: reason}
}

// RunStats aggregates outcomes per repository and for the whole run. It is
// never persisted; cross-run idempotence relies on the duplicate detector.
type RunStats struct {
	Created int
	Failed  int
	Skipped int
}

// Record counts one outcome.
func (s *RunStats) Record(o Outcome) {
	switch o.Kind {
	case OutcomeCreated:
		s.Created++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
}

// Merge adds another set of counters into s.
func (s *RunStats) Merge(other RunStats) {
	s.Created += other.Created
	s.Failed += other.Failed
	s.Skipped += other.Skipped
}
