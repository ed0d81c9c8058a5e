package registry

import (
	"context"
	"sync"

	"github.com/ethereum-optimism/infra/op-harness/types"
)

// UnitOfWork is the computation executed for one descriptor
type UnitOfWork interface {
	Run(ctx context.Context) types.Outcome
}

// WorkFunc adapts a plain function into a UnitOfWork.
type WorkFunc func(ctx context.Context) types.Outcome

func (f WorkFunc) Run(ctx context.Context) types.Outcome {
	return f(ctx)
}

// TestFunc is a test body. A nil error means the test passed.
type TestFunc func(ctx context.Context) error

func (f TestFunc) Run(ctx context.Context) types.Outcome {
	if err := f(ctx); err != nil {
		return types.Failed(err.Error())
	}
	return types.Passed()
}

// BenchFunc is a benchmark body returning its measurement.
type BenchFunc func(ctx context.Context) (types.Measurement, error)

func (f BenchFunc) Run(ctx context.Context) types.Outcome {
	m, err := f(ctx)
	if err != nil {
		return types.Failed(err.Error())
	}
	return types.Measured(m.Average, m.Variance)
}

// Descriptor describes one registered test or benchmark
type Descriptor struct {
	name    string
	kind    types.Kind
	ignored bool
	work    UnitOfWork
}

func (d Descriptor) Name() string { return d.name }
func (d Descriptor) Kind() types.Kind { return d.kind }
func (d Descriptor) Ignored() bool { return d.ignored }
func (d Descriptor) Work() UnitOfWork { return d.work }
func (d Descriptor) String() string { return d.name }

// WithIgnored returns a copy of the descriptor with the ignored flag set.
func (d Descriptor) WithIgnored(ignored bool) Descriptor {
	d.ignored = ignored
	return d
}

// Option configures a descriptor at registration time
type Option func(*Descriptor)

// Ignored marks the descriptor as ignored.
func Ignored(ignored bool) Option {
	return func(d *Descriptor) {
		d.ignored = ignored
	}
}

// NewDescriptor builds a standalone descriptor.
func NewDescriptor(name string, kind types.Kind, work UnitOfWork, opts ...Option) Descriptor {
	d := Descriptor{name: name, kind: kind, work: work}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Registry is an append-only list of descriptors kept in registration order.
// Duplicate names are allowed and scheduled independently.
type Registry struct {
	descriptors []Descriptor
	mu          sync.RWMutex
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

// Test registers a test.
func (r *Registry) Test(name string, fn TestFunc, opts ...Option) *Registry {
	return r.Add(name, types.KindTest, fn, opts...)
}

// Bench registers a benchmark.
func (r *Registry) Bench(name string, fn BenchFunc, opts ...Option) *Registry {
	return r.Add(name, types.KindBench, fn, opts...)
}

// Add registers a descriptor of the given kind.
func (r *Registry) Add(name string, kind types.Kind, work UnitOfWork, opts ...Option) *Registry {
	d := NewDescriptor(name, kind, work, opts...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.descriptors = append(r.descriptors, d)
	return r
}

// Descriptors returns a copy of the registered descriptors.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.descriptors)
}
