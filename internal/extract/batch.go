package extract

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/pillbox/internal/compose"
	"github.com/hpungsan/pillbox/internal/errors"
)

// DefaultWorkers bounds concurrent extractions in ExtractAll.
const DefaultWorkers = 4

// Result pairs a path with its extraction outcome.
type Result struct {
	Path string
	Doc  *Document
	Err  error
}

// ExtractAll extracts paths concurrently and returns one Result per path in
// input order. A failing file does not stop the others; the returned error is
// non-nil only when ctx ends first.
func ExtractAll(ctx context.Context, paths []string, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	results := make([]Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := Extract(gctx, p)
			results[i] = Result{Path: p, Doc: doc, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.NewCancelled("extract")
	}
	if ctx.Err() != nil {
		return nil, errors.NewCancelled("extract")
	}
	return results, nil
}

// Files converts results into composition file entries. Failed extractions
// keep their error so the context shows what could not be read.
func Files(results []Result) []compose.File {
	files := make([]compose.File, len(results))
	for i, r := range results {
		files[i] = compose.File{Name: filepath.Base(r.Path)}
		if r.Err != nil {
			files[i].Err = r.Err
			continue
		}
		files[i].Name = r.Doc.Name
		files[i].Text = r.Doc.Text
	}
	return files
}

// Glob returns the regular files under root matching a doublestar pattern
// such as "notes/**/*.md", sorted.
func Glob(root, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, errors.NewInvalidRequest("invalid glob pattern: " + pattern)
	}

	var matches []string
	err := doublestar.GlobWalk(os.DirFS(root), pattern, func(path string, d fs.DirEntry) error {
		if !d.IsDir() {
			matches = append(matches, filepath.Join(root, filepath.FromSlash(path)))
		}
		return nil
	})
	if err != nil {
		return nil, errors.NewInvalidRequest("glob: " + err.Error())
	}
	sort.Strings(matches)
	return matches, nil
}
