// Package server exposes the traversal engine over HTTP. One endpoint wraps
// the engine; everything else here is routing, decoding, and error mapping.
package server

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/allykrinsky/lineage-poc/internal/graph"
	"github.com/allykrinsky/lineage-poc/internal/traversal"
)

// Server wires the traversal engine and graph store into an http.Handler.
type Server struct {
	engine *traversal.Engine
	store  graph.Store
	logger *zap.Logger
}

// New creates the HTTP server surface.
func New(engine *traversal.Engine, store graph.Store, logger *zap.Logger) *Server {
	return &Server{engine: engine, store: store, logger: logger}
}

// Handler returns the fully assembled handler: routes, request ids,
// logging, panic recovery, CORS.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/traverse", s.handleTraverse).Methods(http.MethodPost)
	api.HandleFunc("/nodes/{id}", s.handleGetNode).Methods(http.MethodGet)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	var h http.Handler = r
	h = s.logRequests(h)
	h = s.requestID(h)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(&recoveryLogger{s.logger}))(h)
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(h)
	return h
}

// recoveryLogger adapts zap to gorilla's recovery handler.
type recoveryLogger struct {
	logger *zap.Logger
}

func (l *recoveryLogger) Println(v ...interface{}) {
	l.logger.Error("Panic recovered in HTTP handler", zap.Any("detail", v))
}
