package pipeline

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Outcome is the result of one file of a batch. Err holds the input or phase
// error that stopped that file; it does not affect the other files.
type Outcome struct {
	Path   string
	Result *Result
	Err    error
}

// CompileFiles compiles every path concurrently, each unit with its own LLVM
// context, and returns the outcomes in input order. The returned error is
// only set when ctx is cancelled.
func CompileFiles(ctx context.Context, paths []string, opts Options) ([]Outcome, error) {
	out := make([]Outcome, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = compileFile(path, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func compileFile(path string, opts Options) Outcome {
	u, err := LoadFile(path)
	if err != nil {
		return Outcome{Path: path, Err: err}
	}
	res, err := Compile(u, opts)
	return Outcome{Path: path, Result: res, Err: err}
}
