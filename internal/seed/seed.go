// Package seed implements the Seeder (C5): the discover, analyze, embed,
// and upsert pipeline that populates the scripts table from a directory
// tree of source files.
package seed

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/scriptindex/scriptindex/domain/record"
	"github.com/scriptindex/scriptindex/internal/analyzer"
	"github.com/scriptindex/scriptindex/internal/embedding"
	"github.com/scriptindex/scriptindex/internal/log"
	"github.com/scriptindex/scriptindex/internal/repository"
)

// analyzeWorkers bounds the concurrency of the discover→analyze fan-out,
// mirroring the embedding client's partitioned batch-dispatch pattern.
const analyzeWorkers = 8

// ProgressFunc is invoked after each successful upsert with the running
// count of persisted records and the number of successfully analyzed
// records being persisted, in persistence order (not discovery order).
type ProgressFunc func(current, total int)

// Report is the Seeding report: spec.md §3.
type Report struct {
	Processed int
	Inserted  int
	Failed    int
	Errors    []string // "<path>: <cause>", in the order encountered
}

// Seeder drives the discover/analyze/embed/upsert pipeline.
type Seeder struct {
	repo         *repository.Store
	embedder     *embedding.Client
	sourceSuffix string
	logger       *log.Logger
}

// New constructs a Seeder. sourceSuffix selects which files discover()
// includes (e.g. ".sh").
func New(repo *repository.Store, embedder *embedding.Client, sourceSuffix string) *Seeder {
	return &Seeder{
		repo:         repo,
		embedder:     embedder,
		sourceSuffix: sourceSuffix,
		logger:       log.Default(),
	}
}

// WithLogger overrides the Seeder's logger.
func (s *Seeder) WithLogger(l *log.Logger) *Seeder {
	s.logger = l
	return s
}

// InitializeSchema creates the scripts table and indices if absent. Safe to
// call repeatedly.
func (s *Seeder) InitializeSchema(ctx context.Context) error {
	return s.repo.InitializeSchema(ctx)
}

// Discover recursively walks root and returns every regular file whose
// name ends in the configured source suffix, in filepath.WalkDir's lexical
// walk order. analyzeAll keeps this discovery order; progress callbacks
// follow persistence order.
func (s *Seeder) Discover(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if strings.HasSuffix(d.Name(), s.sourceSuffix) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

type analyzeOutcome struct {
	index  int
	script record.Script
	err    error
}

// Seed runs the full pipeline over root and returns the resulting report.
// Each run is tagged with its own correlation ID so log lines from the
// analyze/embed/upsert stages can be traced back to a single seed call.
func (s *Seeder) Seed(ctx context.Context, root string, progress ProgressFunc) (Report, error) {
	ctx = log.WithCorrelationID(ctx, fmt.Sprintf("seed-%s", filepath.Base(root)))

	paths, err := s.Discover(root)
	if err != nil {
		return Report{}, err
	}
	s.logger.InfoContext(ctx, "discovered scripts", "root", root, "count", len(paths))
	if len(paths) == 0 {
		return Report{}, nil
	}

	report := Report{}

	scripts, failures := s.analyzeAll(paths)
	report.Failed += len(failures)
	report.Errors = append(report.Errors, failures...)
	report.Processed = len(paths)
	for _, f := range failures {
		s.logger.WarnContext(ctx, "analyze failed", "detail", f)
	}

	if len(scripts) == 0 {
		return report, nil
	}

	texts := make([]string, len(scripts))
	for i, sc := range scripts {
		texts[i] = embeddingTextFor(sc)
	}

	embedded, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		// A whole-batch embedding failure fails all remaining records of
		// that batch.
		s.logger.ErrorContext(ctx, "batch embedding failed", "count", len(scripts), "error", err)
		report.Failed += len(scripts)
		for _, sc := range scripts {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", sc.Path(), err))
		}
		return report, nil
	}

	total := len(scripts)
	current := 0
	for i, sc := range scripts {
		enriched := record.NewBuilder().
			Name(sc.Name()).
			Path(sc.Path()).
			Category(sc.Category()).
			Description(sc.Description()).
			Usage(sc.Usage()).
			Tags(sc.Tags()).
			Dependencies(sc.Dependencies()).
			EmbeddingText(texts[i]).
			Embedding(embedded[i].Vector).
			Tokens(embedded[i].Tokens).
			Build()

		if _, err := s.repo.Create(ctx, enriched); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", sc.Path(), err))
			continue
		}

		report.Inserted++
		current++
		if progress != nil {
			progress(current, total)
		}
	}

	s.logger.InfoContext(ctx, "seed run complete",
		"processed", report.Processed, "inserted", report.Inserted, "failed", report.Failed)

	return report, nil
}

// analyzeAll analyzes paths concurrently through a bounded worker pool,
// reassembling successes in discovery order before returning. Failures are
// returned as formatted "<path>: <cause>" strings, also in discovery order.
func (s *Seeder) analyzeAll(paths []string) ([]record.Script, []string) {
	outcomes := make([]analyzeOutcome, len(paths))

	sem := make(chan struct{}, analyzeWorkers)
	var wg sync.WaitGroup
	for i, p := range paths {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, path string) {
			defer wg.Done()
			defer func() { <-sem }()

			sc, err := analyzer.Analyze(path)
			outcomes[idx] = analyzeOutcome{index: idx, script: sc, err: err}
		}(i, p)
	}
	wg.Wait()

	var scripts []record.Script
	var failures []string
	for _, o := range outcomes {
		if o.err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", paths[o.index], o.err))
			continue
		}
		scripts = append(scripts, o.script)
	}

	return scripts, failures
}

// embeddingTextFor derives the text submitted for embedding: the
// description, falling back to the script's name or the literal "script".
func embeddingTextFor(s record.Script) string {
	if strings.TrimSpace(s.Description()) != "" {
		return s.Description()
	}
	if strings.TrimSpace(s.Name()) != "" {
		return s.Name()
	}
	return "script"
}

// Stats computes the single aggregate query over the table.
func (s *Seeder) Stats(ctx context.Context) (repository.Stats, error) {
	return s.repo.Stats(ctx)
}
