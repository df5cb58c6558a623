package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/riskibarqy/auction-engine/internal/config"
	"github.com/riskibarqy/auction-engine/internal/platform/logging"
)

// Telemetry owns the process-wide tracing, profiling and pprof endpoints.
type Telemetry struct {
	logger        *logging.Logger
	stopTracing   func(context.Context) error
	stopProfiling func() error
	pprof         *http.Server
}

// Start brings up every enabled component. A failure stops whatever already started.
func Start(cfg config.Config, logger *logging.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = logging.Default()
	}
	t := &Telemetry{logger: logger}

	var err error
	if t.stopTracing, err = initUptrace(cfg, logger); err != nil {
		return nil, fmt.Errorf("init uptrace: %w", err)
	}
	if t.stopProfiling, err = initPyroscope(cfg, logger); err != nil {
		_ = t.Shutdown(context.Background())
		return nil, fmt.Errorf("init pyroscope: %w", err)
	}
	t.pprof = startPprofServer(cfg, logger)
	return t, nil
}

// Shutdown stops components in reverse start order and flushes pending spans.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.pprof != nil {
		if err := t.pprof.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop pprof: %w", err))
		} else {
			t.logger.Info("pprof server stopped")
		}
	}
	if t.stopProfiling != nil {
		if err := t.stopProfiling(); err != nil {
			errs = append(errs, fmt.Errorf("stop pyroscope: %w", err))
		}
	}
	if t.stopTracing != nil {
		if err := t.stopTracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown uptrace: %w", err))
		}
	}
	return errors.Join(errs...)
}
