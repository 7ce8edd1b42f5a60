package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/valyala/bytebufferpool"
	"go.uber.org/zap"

	"github.com/allykrinsky/lineage-poc/internal/jsonx"
	"github.com/allykrinsky/lineage-poc/internal/traversal"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) handleTraverse(w http.ResponseWriter, r *http.Request) {
	var req traversal.Request
	if err := jsonx.DecodeFrom(r.Body, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}

	resp, err := s.engine.Traverse(r.Context(), req)
	if err != nil {
		s.writeTraversalError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	node, err := s.store.GetNode(r.Context(), id)
	if err != nil {
		s.writeError(w, r, http.StatusBadGateway, "adapter_error", "graph store unavailable")
		return
	}
	if node == nil {
		s.writeError(w, r, http.StatusNotFound, "not_found", "node not found")
		return
	}

	s.writeJSON(w, http.StatusOK, node)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// writeTraversalError maps the traversal error taxonomy onto status codes.
func (s *Server) writeTraversalError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, traversal.ErrInvalidRequest):
		s.writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, traversal.ErrStartNotFound):
		s.writeError(w, r, http.StatusNotFound, "start_not_found", err.Error())
	case errors.Is(err, traversal.ErrCancelled):
		s.writeError(w, r, http.StatusRequestTimeout, "cancelled", err.Error())
	case errors.Is(err, traversal.ErrAdapter):
		s.logger.Error("Traversal aborted by graph store",
			zap.String("request_id", requestIDFrom(r)),
			zap.Error(err))
		s.writeError(w, r, http.StatusBadGateway, "adapter_error", "graph store unavailable")
	default:
		s.logger.Error("Traversal failed",
			zap.String("request_id", requestIDFrom(r)),
			zap.Error(err))
		s.writeError(w, r, http.StatusInternalServerError, "internal", "traversal failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, kind, msg string) {
	s.writeJSON(w, status, errorBody{Error: msg, Kind: kind})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := jsonx.Marshal(v)
	if err != nil {
		s.logger.Error("Response encoding failed", zap.Error(err))
		http.Error(w, "encoding failure", http.StatusInternalServerError)
		return
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	buf.Write(data)
	buf.WriteByte('\n')

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.B)
}
