package runner

import (
	"context"

	"github.com/ethereum-optimism/infra/op-harness/types"
)

type testInfoKey struct{}

// TestInfo identifies the running test to its unit of work
type TestInfo struct {
	RunID     string
	Name      string
	Kind      types.Kind
	Index     int
	NoCapture bool // Set by --nocapture; the unit decides what to do with its output
}

// WithTestInfo attaches info to ctx.
func WithTestInfo(ctx context.Context, info TestInfo) context.Context {
	return context.WithValue(ctx, testInfoKey{}, info)
}

// TestInfoFromContext returns the info of the test running under ctx.
func TestInfoFromContext(ctx context.Context) (TestInfo, bool) {
	info, ok := ctx.Value(testInfoKey{}).(TestInfo)
	return info, ok
}
