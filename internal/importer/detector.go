package importer

import (
	"context"

	"github.com/opentelekomcloud/giji/pkg/models"
)

// TargetSearcher is the slice of the target client the detector needs.
type TargetSearcher interface {
	Exists(ctx context.Context, project string, number int, repo string) (bool, error)
}

// DuplicateDetector decides whether a source record has already been
// imported: first via the marker labels on the record itself (cheap, no
// network), then via an authoritative search in the target system.
type DuplicateDetector struct {
	markerLabels []string
	target       TargetSearcher
}

// NewDuplicateDetector builds a detector for the given marker labels.
func NewDuplicateDetector(target TargetSearcher, markerLabels ...string) *DuplicateDetector {
	return &DuplicateDetector{
		markerLabels: markerLabels,
		target:       target,
	}
}

// AlreadyImported reports whether any of the record's labels is a marker
// label. No network call.
func (d *DuplicateDetector) AlreadyImported(record models.SourceRecord) bool {
	for _, label := range record.Labels {
		for _, marker := range d.markerLabels {
			if label == marker {
				return true
			}
		}
	}
	return false
}

// ExistsInTarget searches the target system for a ticket referencing the
// record. This catches records imported by a run that crashed before
// labeling; the pipeline then applies the marker label retroactively so
// repeated runs converge.
func (d *DuplicateDetector) ExistsInTarget(ctx context.Context, record models.SourceRecord, project, repo string) (bool, error) {
	return d.target.Exists(ctx, project, record.Number, repo)
}
