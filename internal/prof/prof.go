// Package prof starts and stops the runtime profilers requested on the
// command line.
package prof

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	rtrace "runtime/trace"
)

// Profiles holds output paths; empty paths are skipped.
type Profiles struct {
	CPU   string
	Mem   string // heap profile written on stop
	Trace string // runtime execution trace
}

// Enabled reports whether any profile was requested.
func (p Profiles) Enabled() bool {
	return p.CPU != "" || p.Mem != "" || p.Trace != ""
}

// Start enables the requested profilers. The returned stop function
// finishes them and writes the heap profile; it is safe to call once.
func Start(p Profiles) (stop func() error, err error) {
	var files []*os.File
	var stops []func()
	fail := func(err error) (func() error, error) {
		for _, s := range stops {
			s()
		}
		for _, f := range files {
			_ = f.Close()
		}
		return nil, err
	}

	if p.CPU != "" {
		f, err := os.Create(p.CPU)
		if err != nil {
			return fail(err)
		}
		files = append(files, f)
		if err := pprof.StartCPUProfile(f); err != nil {
			return fail(fmt.Errorf("cpu profile: %w", err))
		}
		stops = append(stops, pprof.StopCPUProfile)
	}
	if p.Trace != "" {
		f, err := os.Create(p.Trace)
		if err != nil {
			return fail(err)
		}
		files = append(files, f)
		if err := rtrace.Start(f); err != nil {
			return fail(fmt.Errorf("runtime trace: %w", err))
		}
		stops = append(stops, rtrace.Stop)
	}

	return func() error {
		for _, s := range stops {
			s()
		}
		var errs []error
		for _, f := range files {
			errs = append(errs, f.Close())
		}
		if p.Mem != "" {
			errs = append(errs, writeHeap(p.Mem))
		}
		return errors.Join(errs...)
	}, nil
}

func writeHeap(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}
