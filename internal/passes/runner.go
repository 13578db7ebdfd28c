// Package passes holds the optimizer passes and the scheduler that runs
// them over a module.
package passes

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"treeopt/internal/effects"
	"treeopt/internal/ir"
)

// Pass transforms one function in place. RunFunc must keep all mutable
// state local to the invocation: the runner calls it for many functions
// concurrently.
type Pass interface {
	Name() string
	RunFunc(m *ir.Module, fn *ir.Func, opts effects.Options)
}

var registry = map[string]func() Pass{
	"licm":     func() Pass { return LICM{} },
	"nop-elim": func() Pass { return NopElim{} },
}

// Lookup returns the constructor for a registered pass name.
func Lookup(name string) (func() Pass, bool) {
	ctor, ok := registry[name]
	return ctor, ok
}

// Names returns the registered pass names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the named passes in order over the module. Within one
// pass every function is processed concurrently, bounded by jobs
// (GOMAXPROCS when jobs <= 0); functions share no tree state, so no
// locking is involved.
func Run(ctx context.Context, m *ir.Module, names []string, opts effects.Options, jobs int) error {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	for _, name := range names {
		ctor, ok := registry[name]
		if !ok {
			return fmt.Errorf("unknown pass %q (available: %v)", name, Names())
		}
		pass := ctor()

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(min(jobs, max(len(m.Funcs), 1)))
		for _, fn := range m.Funcs {
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				pass.RunFunc(m, fn, opts)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("pass %s: %w", name, err)
		}
	}
	return nil
}
