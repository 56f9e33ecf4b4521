package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/authsession/pkg/authsdk"
	"github.com/aussiebroadwan/authsession/pkg/httpx"
)

const readyTimeout = 2 * time.Second

// pinger is satisfied by store.Store and codestore.Store.
type pinger interface {
	Ping(ctx context.Context) error
}

// health answers the health endpoints.
type health struct {
	started time.Time
	version string

	db    pinger
	codes pinger
}

func (h *health) response(status string) authsdk.HealthResponse {
	return authsdk.HealthResponse{
		Status:  status,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
		Version: h.version,
	}
}

// Livez godoc
//
//	@Summary		Liveness check
//	@Description	Status, uptime and version. Always 200 while the process runs.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse
//	@Router			/livez [get].
func (h *health) Livez(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.response("ok"))
}

// Readyz godoc
//
//	@Summary		Readiness check
//	@Description	Pings the refresh token database and the code store.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse
//	@Failure		503	{object}	authsdk.HealthResponse	"a dependency did not answer"
//	@Router			/readyz [get].
func (h *health) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	checks := &authsdk.HealthChecks{
		Database:  check(ctx, h.db),
		CodeStore: check(ctx, h.codes),
	}

	status, code := "ok", http.StatusOK
	if checks.Database != "ok" || checks.CodeStore != "ok" {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	resp := h.response(status)
	resp.Checks = checks
	httpx.WriteJSON(w, code, resp)
}

func check(ctx context.Context, p pinger) string {
	if err := p.Ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
