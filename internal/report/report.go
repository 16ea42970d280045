// Package report collects per-run counters and optionally persists them as
// a SQLite artifact once the run completes. It is a summary of a finished
// run, not a recovery log: a crash mid-run is recovered by re-running the
// whole pipeline.
package report

import (
	"time"

	"github.com/google/uuid"

	"wb-updater/internal/submit"
)

type BrandSummary struct {
	Brand   string
	Records int
	Matched int
	Skipped map[string]int
}

type Submission struct {
	Kind          string
	Deduped       int
	Submitted     int
	Batches       int
	FailedBatches int
	OK            bool
}

type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	MappingArticles  int
	MappingBarcodes  int
	MappingConflicts int

	TemplateFile      string
	TemplateAdjusted  int
	RecommendedPrices int

	Brands      []BrandSummary
	Submissions []Submission
}

func New() *Report {
	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
}

func (r *Report) AddBrand(brand string, records, matched int, skipped map[string]int) {
	r.Brands = append(r.Brands, BrandSummary{
		Brand:   brand,
		Records: records,
		Matched: matched,
		Skipped: skipped,
	})
}

func (r *Report) AddSubmission(kind string, res submit.Result) {
	r.Submissions = append(r.Submissions, Submission{
		Kind:          kind,
		Deduped:       res.Deduped,
		Submitted:     res.Submitted,
		Batches:       len(res.Batches),
		FailedBatches: res.FailedBatches(),
		OK:            res.OK(),
	})
}

func (r *Report) Finish() {
	r.FinishedAt = time.Now().UTC()
}

// OK is the run aggregate: every submission succeeded.
func (r *Report) OK() bool {
	for _, s := range r.Submissions {
		if !s.OK {
			return false
		}
	}
	return true
}
