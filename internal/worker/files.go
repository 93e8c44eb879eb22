package worker

import (
	"context"
	"fmt"
	"os"
	"sort"
)

// FileJob reads one file
type FileJob struct {
	Path string
}

// Execute reads the file unless the context is already cancelled
func (j *FileJob) Execute(ctx context.Context) *FileResult {
	if err := ctx.Err(); err != nil {
		return &FileResult{Path: j.Path, Error: err}
	}
	data, err := os.ReadFile(j.Path)
	if err != nil {
		return &FileResult{Path: j.Path, Error: fmt.Errorf("read file: %w", err)}
	}
	return &FileResult{Path: j.Path, Data: data}
}

// FileResult is the content of one file or the error reading it
type FileResult struct {
	Path  string
	Data  []byte
	Error error
}

// ReadFiles reads paths concurrently and returns results sorted by path.
// The order does not depend on which worker finished first.
func ReadFiles(ctx context.Context, paths []string, workers int) []*FileResult {
	if len(paths) == 0 {
		return []*FileResult{}
	}

	pool := NewPool[*FileResult](ctx, workers)
	pool.Start()

	refused := false
	for _, path := range paths {
		if !pool.Submit(&FileJob{Path: path}) {
			refused = true
			break
		}
	}

	var results []*FileResult
	if refused {
		results = pool.Shutdown()
	} else {
		results = pool.Wait()
	}

	// paths refused or dropped after cancellation still get a result
	done := make(map[string]bool, len(results))
	for _, r := range results {
		done[r.Path] = true
	}
	for _, path := range paths {
		if !done[path] {
			results = append(results, &FileResult{Path: path, Error: context.Cause(ctx)})
		}
	}

	sort.SliceStable(results, func(i, k int) bool {
		return results[i].Path < results[k].Path
	})
	return results
}
