// Package ingest turns a batch of recipe source documents into canonical
// recipes. Documents are parsed and normalized in parallel; results are
// merged in document order once every worker has finished.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"prodplan/internal/notation"
	"prodplan/internal/recipe"
)

// DefaultPattern matches recipe source documents.
const DefaultPattern = "*.lua"

// Document is one source file held in memory.
type Document struct {
	Source string
	Data   []byte
}

// Failure is a document or recipe that could not be ingested. Recipe is empty
// when the whole document failed to parse.
type Failure struct {
	Source string
	Recipe string
	Err    error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Source, f.Err)
}

// Reason classifies the failure for metrics.
func (f Failure) Reason() string {
	var syn *notation.SyntaxError
	if errors.As(f.Err, &syn) {
		return "syntax"
	}
	var ing *recipe.IngestError
	if errors.As(f.Err, &ing) {
		return string(ing.Reason)
	}
	return "other"
}

type Options struct {
	// Workers bounds the number of documents processed at once. Zero means
	// GOMAXPROCS.
	Workers  int
	Defaults recipe.Defaults
}

// Result is the merged outcome of a batch.
type Result struct {
	Recipes    map[string]recipe.Recipe
	Categories []string
	Failures   []Failure
	// Duplicates lists recipe names defined by more than one document.
	Duplicates []string
	Documents  int
	// Total counts every recipe normalized successfully, duplicates included.
	Total int
}

// Sorted returns the recipes ordered by name.
func (r *Result) Sorted() []recipe.Recipe {
	names := make([]string, 0, len(r.Recipes))
	for name := range r.Recipes {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]recipe.Recipe, 0, len(names))
	for _, name := range names {
		out = append(out, r.Recipes[name])
	}
	return out
}

// FailedDocuments counts documents that produced no recipe at all.
func (r *Result) FailedDocuments() int {
	n := 0
	for _, f := range r.Failures {
		if f.Recipe == "" {
			n++
		}
	}
	return n
}

type documentResult struct {
	recipes  []recipe.Recipe
	failures []Failure
}

func (d documentResult) outcome() string {
	switch {
	case len(d.failures) == 0:
		return outcomeOK
	case len(d.recipes) > 0:
		return outcomePartial
	default:
		return outcomeFailed
	}
}

// Run ingests docs. Syntax and normalization errors are collected as
// failures; only context cancellation aborts the batch.
func Run(ctx context.Context, docs []Document, opts Options) (*Result, error) {
	start := time.Now()
	defer func() { ingestDuration.Observe(time.Since(start).Seconds()) }()

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	defaults := opts.Defaults
	if defaults == (recipe.Defaults{}) {
		defaults = recipe.DefaultDefaults()
	}

	results := make([]documentResult, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = ingestDocument(doc, defaults)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	res := &Result{
		Recipes:   make(map[string]recipe.Recipe),
		Documents: len(docs),
	}
	origin := make(map[string]string)
	categories := make(map[string]struct{})
	for i, dr := range results {
		documentsTotal.WithLabelValues(dr.outcome()).Inc()
		for _, f := range dr.failures {
			recipeFailures.WithLabelValues(f.Reason()).Inc()
		}
		res.Failures = append(res.Failures, dr.failures...)
		for _, r := range dr.recipes {
			if prev, dup := origin[r.Name]; dup {
				slog.Warn("duplicate recipe, later definition wins",
					"recipe", r.Name, "previous", prev, "source", docs[i].Source)
				res.Duplicates = append(res.Duplicates, r.Name)
			}
			origin[r.Name] = docs[i].Source
			res.Recipes[r.Name] = r
			categories[r.Category] = struct{}{}
			res.Total++
		}
	}
	recipesTotal.Add(float64(res.Total))

	for c := range categories {
		res.Categories = append(res.Categories, c)
	}
	sort.Strings(res.Categories)
	sort.Strings(res.Duplicates)

	slog.Debug("ingest finished",
		"documents", res.Documents,
		"recipes", len(res.Recipes),
		"failures", len(res.Failures),
		"duration", time.Since(start))
	return res, nil
}

func ingestDocument(doc Document, defaults recipe.Defaults) documentResult {
	objects, err := notation.ParseDocument(doc.Data)
	if err != nil {
		return documentResult{failures: []Failure{{Source: doc.Source, Err: err}}}
	}
	var dr documentResult
	for _, obj := range objects {
		r, err := recipe.Normalize(obj, defaults)
		if err != nil {
			name := ""
			var ing *recipe.IngestError
			if errors.As(err, &ing) {
				name = ing.Recipe
			}
			if name == "" {
				name = "?"
			}
			dr.failures = append(dr.failures, Failure{Source: doc.Source, Recipe: name, Err: err})
			continue
		}
		dr.recipes = append(dr.recipes, r)
	}
	return dr
}

// LoadDir reads every file in dir matching pattern, in lexical order.
func LoadDir(dir, pattern string) ([]Document, error) {
	if dir == "" {
		return nil, fmt.Errorf("source directory is required")
	}
	if pattern == "" {
		pattern = DefaultPattern
	}
	files, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("scan source dir: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no source files matching %s found in %s", pattern, dir)
	}
	sort.Strings(files)

	docs := make([]Document, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		docs = append(docs, Document{Source: path, Data: data})
	}
	return docs, nil
}
