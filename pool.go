package mdlive

import (
	"context"
	"runtime"

	"github.com/alnah/go-mdlive/internal/diagram"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one compiler can run.
	MinPoolSize = 1

	// MaxPoolSize caps concurrent compiler processes; a JVM or a headless
	// Chromium behind mmdc costs hundreds of MB.
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for the compilers' own threads.
	cpuDivisor = 2
)

// CompilerPool bounds how many diagram compilers run at once. Segments of a
// document render concurrently; only their subprocesses queue here.
type CompilerPool struct {
	sem chan struct{}
}

// NewCompilerPool creates a pool admitting n concurrent compilations.
func NewCompilerPool(n int) *CompilerPool {
	if n < MinPoolSize {
		n = MinPoolSize
	}
	return &CompilerPool{sem: make(chan struct{}, n)}
}

// Acquire blocks until a slot is free or ctx is done.
func (p *CompilerPool) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (p *CompilerPool) Release() {
	<-p.sem
}

// Size returns the pool capacity.
func (p *CompilerPool) Size() int {
	return cap(p.sem)
}

// InUse returns the number of slots currently held.
func (p *CompilerPool) InUse() int {
	return len(p.sem)
}

var _ diagram.Gate = (*CompilerPool)(nil)

// ResolvePoolSize determines the pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers.
	n := runtime.GOMAXPROCS(0) / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
