package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// DebugHandler предоставляет доступ к внутреннему состоянию сервера
type DebugHandler struct {
	Server *Server
}

func NewDebugHandler(s *Server) *DebugHandler {
	return &DebugHandler{Server: s}
}

// RegisterRoutes регистрирует debug-эндпоинты
func (h *DebugHandler) RegisterRoutes(r chi.Router) {
	r.Get("/debug/sessions", h.handleListSessions)
	r.Get("/debug/sessions/{id}/diagnostics", h.handleDiagnostics)
	r.Get("/debug/sessions/{id}/events", h.handleEvents)
}

// /debug/sessions - все сессии: фаза, этаж, длина ленты, подключен ли клиент
func (h *DebugHandler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Server.sessions.List(h.Server.hub.HasSubscriber))
}

// /debug/sessions/{id}/diagnostics - хвост канала диагностики (неизвестный контент, клампы)
func (h *DebugHandler) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	live, ok := h.Server.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
		return
	}
	live.mu.Lock()
	diag := live.session.Diagnostics()
	body := map[string]any{
		"total": diag.Total(),
		"items": diag.Items(),
	}
	live.mu.Unlock()
	writeJSON(w, http.StatusOK, body)
}

// /debug/sessions/{id}/events - лента решений рана как есть
func (h *DebugHandler) handleEvents(w http.ResponseWriter, r *http.Request) {
	live, ok := h.Server.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
		return
	}
	live.mu.Lock()
	events := live.session.Events()
	live.mu.Unlock()
	if events == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, events)
}
