package reviewcloud

import (
	"context"
	"log"

	"github.com/cognicore/reviewcloud/pkg/reviewcloud/config"
	"github.com/cognicore/reviewcloud/pkg/reviewcloud/ingest"
	"github.com/cognicore/reviewcloud/pkg/reviewcloud/terms"
)

// run is the private state of one mining pass. Nothing in it is shared
// between runs.
type run struct {
	e      *Engine
	cfg    config.Config
	logger *log.Logger
	filter *terms.Filter
	table  *terms.Table
	report Report
}

// document is a sanitized review.
type document struct {
	text     string
	positive bool
}

// newRun prepares a run that excludes the words of productName.
func (e *Engine) newRun(productName string) *run {
	return &run{
		e:      e,
		cfg:    e.cfg,
		logger: e.logger,
		filter: &terms.Filter{
			Stops:           e.stops,
			Name:            terms.NewNameMatcher(productName),
			MinWordLength:   e.cfg.MinWordLength,
			MaxWordLength:   e.cfg.MaxWordLength,
			MinPhraseLength: e.cfg.MinPhraseLength,
		},
		table:  terms.NewTable(),
		report: Report{Filtered: make(map[string]int)},
	}
}

func (r *run) mine(ctx context.Context, reviews []ingest.Review) error {
	docs, err := r.prepare(ctx, reviews)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		r.logger.Printf("Warning: no usable reviews to mine")
		return nil
	}

	if r.cfg.MaxTermWords >= 2 {
		if err := r.phrasePass(ctx, docs); err != nil {
			return err
		}
	}
	if r.cfg.MinTermWords <= 1 {
		if err := r.wordPass(ctx, docs); err != nil {
			return err
		}
	}

	r.report.Merges = terms.Consolidate(r.table)
	r.table.Compact()

	for _, term := range r.table.Terms() {
		if terms.WordCount(term) > 1 {
			r.report.Phrases++
		} else {
			r.report.Words++
		}
	}
	return nil
}

// prepare validates, deduplicates and sanitizes the reviews.
func (r *run) prepare(ctx context.Context, reviews []ingest.Review) ([]document, error) {
	seen := make(map[string]struct{}, len(reviews))
	docs := make([]document, 0, len(reviews))
	for i := range reviews {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rev := reviews[i]
		if err := rev.Validate(); err != nil {
			r.report.Skipped++
			r.logger.Printf("Warning: skipping review %q: %v", rev.ID, err)
			continue
		}
		if _, dup := seen[rev.ID]; dup {
			r.report.Duplicates++
			continue
		}
		seen[rev.ID] = struct{}{}
		docs = append(docs, document{text: r.e.sanitizer.Sanitize(rev.Text), positive: rev.Positive})
	}
	r.report.Reviews = len(docs)
	return docs, nil
}

// phrasePass counts multi-word terms, then filters and prunes them.
func (r *run) phrasePass(ctx context.Context, docs []document) error {
	lo := max(r.cfg.MinTermWords, 2)
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.table.AddReview(r.e.extractor.Extract(d.text, lo, r.cfg.MaxTermWords), d.positive)
	}

	r.report.RarePhrases = len(r.table.DropRare(2, r.cfg.MinPhraseOccurrences))
	r.applyFilter()

	r.report.Subsumed = terms.Prune(r.table, r.cfg.SubsumptionThreshold)
	r.table.Compact()
	return nil
}

// wordPass strips the surviving phrases from every review and counts the
// single words left over.
func (r *run) wordPass(ctx context.Context, docs []document) error {
	matcher := ingest.NewPhraseMatcher(r.table.MultiWord())
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		residue := matcher.Strip(d.text)
		r.table.AddReview(r.e.extractor.Extract(residue, 1, 1), d.positive)
	}
	r.applyFilter()
	return nil
}

func (r *run) applyFilter() {
	for reason, list := range r.filter.Apply(r.table) {
		r.report.Filtered[reason] += len(list)
	}
}
