package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"

	harness "github.com/ethereum-optimism/infra/op-harness"
	"github.com/ethereum-optimism/infra/op-harness/registry"
	"github.com/ethereum-optimism/infra/op-harness/runner"
	"github.com/ethereum-optimism/infra/op-harness/types"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	// Only export spans when a collector was configured
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		shutdown, err := otelconfig.ConfigureOpenTelemetry(
			otelconfig.WithServiceName("op-harness"),
			otelconfig.WithServiceVersion(fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)),
		)
		if err != nil {
			log.Crit("Failed to setup open telemetry", "message", err)
		}
		status := harness.MainContext(context.Background(), demoSuite(), os.Args)
		shutdown()
		status.Exit()
	}

	harness.Main(demoSuite())
}

// demoSuite is a small suite exercising every outcome the harness reports.
func demoSuite() *registry.Registry {
	return registry.New().
		Test("arith::add", func(ctx context.Context) error {
			if 1+1 != 2 {
				return errors.New("1 + 1 != 2")
			}
			return nil
		}).
		Test("strings::fields", func(ctx context.Context) error {
			got := strings.Fields(" a b  c ")
			if len(got) != 3 {
				return fmt.Errorf("expected 3 fields, got %d", len(got))
			}
			return nil
		}).
		Test("timing::sleep", func(ctx context.Context) error {
			select {
			case <-time.After(50 * time.Millisecond):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}).
		Test("context::info", func(ctx context.Context) error {
			info, ok := runner.TestInfoFromContext(ctx)
			if !ok {
				return errors.New("test info missing from context")
			}
			if info.NoCapture {
				fmt.Printf("running %s in run %s\n", info.Name, info.RunID)
			}
			return nil
		}).
		Test("network::slow_probe", func(ctx context.Context) error {
			return errors.New("network probes are disabled")
		}, registry.Ignored(true)).
		Bench("strings::builder", func(ctx context.Context) (types.Measurement, error) {
			const iterations = 1000
			start := time.Now()
			for i := 0; i < iterations; i++ {
				var b strings.Builder
				for j := 0; j < 16; j++ {
					b.WriteString("x")
				}
				_ = b.String()
			}
			avg := uint64(time.Since(start).Nanoseconds()) / iterations
			return types.Measurement{Average: avg, Variance: avg / 10}, nil
		})
}
