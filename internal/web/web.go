package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"

	"palmwatch/internal/telemetry"
	"palmwatch/internal/web/api"
	"palmwatch/internal/web/middleware"

	"github.com/gin-gonic/gin"
)

type WebServer struct {
	router   *gin.Engine
	server   *http.Server
	done     chan struct{}
	doneOnce sync.Once
}

func NewWebServer(store *telemetry.Store) *WebServer {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())

	ws := &WebServer{
		router: router,
		server: &http.Server{Handler: router},
		done:   make(chan struct{}),
	}

	api.RegisterSnapshotRoutes(router, store)
	api.RegisterMachineRoutes(router, store)
	api.RegisterTreeRoutes(router, store)
	api.RegisterAlertRoutes(router, store)
	api.RegisterStreamRoutes(router, store, ws.done)

	return ws
}

// Handler exposes the router, mainly for httptest
func (ws *WebServer) Handler() http.Handler {
	return ws.router
}

// Start serves on addr until Shutdown is called
func (ws *WebServer) Start(addr string) error {
	ws.server.Addr = addr
	log.Printf("WEB: Listening on %s", addr)
	if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown ends open websocket streams and drains in-flight requests
func (ws *WebServer) Shutdown(ctx context.Context) error {
	ws.doneOnce.Do(func() { close(ws.done) })
	return ws.server.Shutdown(ctx)
}
