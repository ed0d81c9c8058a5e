package service

import (
	"net/http"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-harness/runner"
	"github.com/ethereum-optimism/infra/op-harness/types"
)

// HealthzHandler answers health checks. It reports 503 once a test failed.
type HealthzHandler struct {
	log    log.Logger
	failed atomic.Bool
}

// MarkFailed switches the handler to the unhealthy response.
func (h *HealthzHandler) MarkFailed() {
	h.failed.Store(true)
}

func (h *HealthzHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.log.Debug("Received health check request", "path", r.URL.Path)
	if h.failed.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("FAILED")) //nolint:errcheck
		return
	}
	w.Write([]byte("OK")) //nolint:errcheck
}

var _ runner.EventSink = (*HealthzHandler)(nil)

func (h *HealthzHandler) OnStart(runner.Plan) error { return nil }
func (h *HealthzHandler) OnTestStart(types.Event) error { return nil }
func (h *HealthzHandler) OnFinish(*runner.Result) error { return nil }

// OnResult marks the handler unhealthy on the first failed test.
func (h *HealthzHandler) OnResult(ev types.Event) error {
	if ev.Outcome.IsFailure() {
		h.MarkFailed()
	}
	return nil
}
