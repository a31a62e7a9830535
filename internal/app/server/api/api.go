// Replication API surface.
//
// GET  /api/v1/ping                     # handshake: health + site id
// POST /api/v1/sync/receive             # apply one replicated change
// GET  /api/v1/sync/document/{dt}/{n}   # document snapshot for dependency fetch
// GET  /api/v1/peers                    # admin: list peers
// POST /api/v1/peers                    # admin: register peer
// POST /api/v1/peers/{name}/test        # admin: connection test
// GET  /api/v1/logs                     # admin: list sync logs
// POST /api/v1/logs/{id}/retry          # admin: retry failed delivery
// GET  /api/v1/policies                 # admin: list policies
// GET  /api/v1/status                   # admin: engine overview

package api

import (
	healthAPI "syncmesh/internal/app/server/api/http/health"
	"syncmesh/internal/app/server/api/http/middleware"
	"syncmesh/internal/app/server/api/http/middleware/auth"
	"syncmesh/internal/app/server/api/http/middleware/logger"
	peerAPI "syncmesh/internal/app/server/api/http/peer"
	policyAPI "syncmesh/internal/app/server/api/http/policy"
	syncAPI "syncmesh/internal/app/server/api/http/sync"
	synclogAPI "syncmesh/internal/app/server/api/http/synclog"
	"syncmesh/internal/domain/peer"
	"syncmesh/internal/domain/sync"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"
)

// Deps carries the engine collaborators the HTTP surface exposes. The
// engine itself is assembled in main; the API layer only routes to it.
type Deps struct {
	SyncService sync.Servicer
	PeerService peer.Servicer
	Logs        sync.LogRepository
	Policies    sync.PolicyRepository
	Retryer     synclogAPI.Retryer
	Verifier    auth.CredentialVerifier
}

type Handlers struct {
	Health  *healthAPI.Handler
	Sync    *syncAPI.Handler
	Peer    *peerAPI.Handler
	SyncLog *synclogAPI.Handler
	Policy  *policyAPI.Handler
}

// New creates a *chi.Mux with all operations registered through huma.
func New(deps Deps, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	config := huma.DefaultConfig("SyncMesh API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, config)

	h := handlers(deps, log)
	h.Health.SetupRoutes(API)
	h.Sync.SetupRoutes(API)
	h.Peer.SetupRoutes(API)
	h.SyncLog.SetupRoutes(API)
	h.Policy.SetupRoutes(API)

	return mux
}

func handlers(deps Deps, log *slog.Logger) *Handlers {
	authMW := auth.New(deps.Verifier, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(deps.SyncService, deps.PeerService, log, middlewares.GetAllAndClear())

	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	syncHandler := syncAPI.NewHandler(deps.SyncService, log, middlewares.GetAllAndClear())

	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	peerHandler := peerAPI.NewHandler(deps.PeerService, log, middlewares.GetAllAndClear())

	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	synclogHandler := synclogAPI.NewHandler(deps.Logs, deps.Retryer, log, middlewares.GetAllAndClear())

	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	policyHandler := policyAPI.NewHandler(deps.Policies, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health:  healthHandler,
		Sync:    syncHandler,
		Peer:    peerHandler,
		SyncLog: synclogHandler,
		Policy:  policyHandler,
	}
}
