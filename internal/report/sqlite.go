package report

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// WriteSQLite appends this run's summary to the report database at path,
// creating the schema on first use. Runs accumulate so the file doubles as
// a submission history.
func (r *Report) WriteSQLite(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	schema := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			started_at TEXT,
			finished_at TEXT,
			ok INTEGER,
			mapping_articles INTEGER,
			mapping_barcodes INTEGER,
			mapping_conflicts INTEGER,
			template_file TEXT,
			template_adjusted INTEGER,
			recommended_prices INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS brands (
			run_id TEXT,
			brand TEXT,
			records INTEGER,
			matched INTEGER,
			skipped TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS submissions (
			run_id TEXT,
			kind TEXT,
			deduped INTEGER,
			submitted INTEGER,
			batches INTEGER,
			failed_batches INTEGER,
			ok INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_brands_run ON brands(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_run ON submissions(run_id)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs VALUES (?,?,?,?,?,?,?,?,?,?)`,
		r.RunID,
		r.StartedAt.Format(time.RFC3339),
		r.FinishedAt.Format(time.RFC3339),
		boolInt(r.OK()),
		r.MappingArticles,
		r.MappingBarcodes,
		r.MappingConflicts,
		r.TemplateFile,
		r.TemplateAdjusted,
		r.RecommendedPrices,
	)
	if err != nil {
		return err
	}

	for _, b := range r.Brands {
		_, err = tx.Exec(
			`INSERT INTO brands VALUES (?,?,?,?,?)`,
			r.RunID, b.Brand, b.Records, b.Matched, formatSkipped(b.Skipped),
		)
		if err != nil {
			return err
		}
	}

	for _, s := range r.Submissions {
		_, err = tx.Exec(
			`INSERT INTO submissions VALUES (?,?,?,?,?,?,?)`,
			r.RunID, s.Kind, s.Deduped, s.Submitted, s.Batches, s.FailedBatches, boolInt(s.OK),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatSkipped(skipped map[string]int) string {
	if len(skipped) == 0 {
		return ""
	}
	parts := make([]string, 0, len(skipped))
	for reason, count := range skipped {
		parts = append(parts, fmt.Sprintf("%s=%d", reason, count))
	}
	return strings.Join(parts, ";")
}
