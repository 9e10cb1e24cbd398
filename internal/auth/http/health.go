package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/till/pkg/authsdk"
	"github.com/aussiebroadwan/till/pkg/httpx"
)

const (
	statusOK       = "ok"
	statusDegraded = "degraded"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SignerStatus reports whether tokens can be issued.
type SignerStatus interface {
	Ready() bool
}

// health builds the common part of both probes.
type health struct {
	startTime time.Time
	version   string
}

func (h health) response(status string, checks *authsdk.HealthChecks) authsdk.HealthResponse {
	return authsdk.HealthResponse{
		Status:  status,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
		Version: h.version,
		Checks:  checks,
	}
}

// LivezHandler godoc
//
//	@Summary		Health Check Endpoint
//	@Description	Liveness probe. Answers 200 whenever the process is serving.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	h := health{startTime: startTime, version: version}
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, h.response(statusOK, nil))
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe covering the database, the token signer and the denylist.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	db Pinger,
	signer SignerStatus,
	denylist Pinger,
) http.HandlerFunc {
	h := health{startTime: startTime, version: version}
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{
			Database: probe(r.Context(), db),
			Signer:   statusOK,
			// The sqlite denylist shares the database, so only an external
			// driver gets its own probe.
			Denylist: probe(r.Context(), denylist),
		}
		if !signer.Ready() {
			checks.Signer = "error: no signing key loaded"
		}

		status, code := statusOK, http.StatusOK
		for _, c := range []string{checks.Database, checks.Signer, checks.Denylist} {
			if c != statusOK {
				status, code = statusDegraded, http.StatusServiceUnavailable
				break
			}
		}

		httpx.WriteJSON(w, code, h.response(status, checks))
	}
}

// probe reports "ok" for a nil pinger.
func probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return statusOK
	}
	if err := p.Ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return statusOK
}
