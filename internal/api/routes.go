package api

import (
	"net/http"

	"github.com/pazarnet/discovery/internal/auth"
	"github.com/pazarnet/discovery/internal/middleware"
)

// Routes wires all handlers onto a ServeMux. Discovery reads require a
// valid token of any role; boost administration and archive exports require
// the admin role.
func Routes(
	jwtSvc *auth.JWTService,
	discovery *DiscoveryHandlers,
	boosts *BoostHandlers,
	archives *ArchiveHandlers,
	health *HealthHandlers,
) *http.ServeMux {
	mux := http.NewServeMux()

	authed := middleware.Authenticate(jwtSvc)
	admin := func(h http.Handler) http.Handler {
		return authed(middleware.RequireAdmin(h))
	}

	mux.Handle("GET /network/discovery", authed(http.HandlerFunc(discovery.Discover)))

	mux.Handle("POST /network/boosts", admin(http.HandlerFunc(boosts.Create)))
	mux.Handle("DELETE /network/boosts/{id}", admin(http.HandlerFunc(boosts.Deactivate)))
	mux.Handle("GET /network/boosts/audit", admin(http.HandlerFunc(boosts.Audit)))

	if archives != nil {
		mux.Handle("POST /admin/archive/impressions", admin(http.HandlerFunc(archives.ExportImpressions)))
		mux.Handle("POST /admin/archive/audit", admin(http.HandlerFunc(archives.ExportAudit)))
	}

	mux.HandleFunc("GET /health", health.Health)
	mux.HandleFunc("GET /ready", health.Ready)

	return mux
}
