package controllers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/http/dto"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/http/helpers"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/observability/logger"
)

// Check es una dependencia que /readyz consulta (store, redis).
type Check func(ctx context.Context) error

// HealthController maneja /healthz y /readyz.
type HealthController struct {
	version string
	checks  map[string]Check
	timeout time.Duration
}

func NewHealthController(version string, checks map[string]Check) *HealthController {
	return &HealthController{version: version, checks: checks, timeout: 2 * time.Second}
}

// Healthz maneja GET /healthz: el proceso responde.
func (c *HealthController) Healthz(w http.ResponseWriter, _ *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, dto.HealthResponse{Status: "ok", Version: c.version})
}

// Readyz maneja GET /readyz: 503 si alguna dependencia falla.
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	log := opLog(r, "HealthController.Readyz")
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	// los checks corren en paralelo; un fallo no cancela a los demás
	var (
		mu   sync.Mutex
		down = map[string]error{}
		g    errgroup.Group
	)
	for name, check := range c.checks {
		g.Go(func() error {
			if err := check(ctx); err != nil {
				mu.Lock()
				down[name] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	resp := dto.HealthResponse{Status: "ready", Version: c.version, Components: map[string]string{}}
	status := http.StatusOK
	for name := range c.checks {
		if err, ok := down[name]; ok {
			log.Warn("readiness check failed", logger.Component(name), logger.Err(err))
			resp.Components[name] = "down"
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Components[name] = "up"
	}
	helpers.WriteJSON(w, status, resp)
}
