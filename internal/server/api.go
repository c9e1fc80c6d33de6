package server

import (
	"ascension-server/internal/domain"
	"ascension-server/internal/infrastructure/storage"
	"ascension-server/internal/replay"
	"ascension-server/pkg/api"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// MaxReplayBody - лимит тела запроса с реплеем
const MaxReplayBody = 8 << 20

// POST /api/replays/verify
// Тело - JSON массив событий или бинарный файл реплея (application/octet-stream).
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxReplayBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read body: %w", err))
		return
	}

	var events []domain.ReplayEvent
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/octet-stream") {
		rf, err := storage.Decode(bytes.NewReader(body))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		events = rf.Events
	} else if err := json.Unmarshal(body, &events); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid replay json: %w", err))
		return
	}

	rep := replay.Verify(s.catalog, events)
	s.logger.WithField("ok", rep.OK).WithField("steps", rep.Steps).Info("Replay verified")
	writeJSON(w, http.StatusOK, rep)
}

// GET /api/replays/{id} - сохраненная лента и отчет ее проверки
func (s *Server) handleGetReplay(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("storage disabled"))
		return
	}
	rec, rf, err := s.store.GetReplay(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		storage.ReplayRecord
		Events []domain.ReplayEvent `json:"events"`
	}{rec, rf.Events})
}

// POST /api/runs/{id}/snapshot - id сессии или рана
func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("storage disabled"))
		return
	}
	live, ok := s.sessions.Find(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
		return
	}

	live.mu.Lock()
	snap, err := live.session.Snapshot()
	live.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	if _, err := replay.ExportSnapshot(snap); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	rec, err := s.store.SaveSnapshot(r.Context(), snap)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// GET /api/runs/{id}/snapshots - снапшоты рана, новые первыми
func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("storage disabled"))
		return
	}
	recs, err := s.store.ListSnapshots(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if recs == nil {
		recs = []storage.SnapshotRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// GET /api/snapshots/{id} - снапшот после проверки схемы
func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("storage disabled"))
		return
	}
	rec, err := s.store.GetSnapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	snap, err := replay.ImportSnapshot(rec.Body)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeError(w, http.StatusInternalServerError, err)
}

// writeError пишет ошибку; у SchemaError отдаются все нарушения
func writeError(w http.ResponseWriter, status int, err error) {
	resp := api.ErrorResponse{Error: err.Error()}
	var schemaErr *domain.SchemaError
	if errors.As(err, &schemaErr) {
		resp.Violations = schemaErr.Violations
	}
	writeJSON(w, status, resp)
}
