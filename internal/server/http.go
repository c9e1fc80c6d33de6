package server

import (
	"ascension-server/internal/config"
	"ascension-server/internal/content"
	"ascension-server/internal/engine"
	"ascension-server/internal/infrastructure/storage"
	"ascension-server/internal/network"
	"ascension-server/internal/version"
	"ascension-server/pkg/logger"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	apiTimeout      = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Deps - то, из чего собирается сервер. Store и Replays опциональны.
type Deps struct {
	Config  config.Config
	Catalog content.Catalog
	Store   *storage.SQLiteStore
	Replays *storage.ReplayService
}

type Server struct {
	cfg       config.Config
	engineCfg engine.Config
	catalog   content.Catalog
	store     *storage.SQLiteStore
	replays   *storage.ReplayService

	hub      *network.Broadcaster
	sessions *SessionRegistry
	commands map[string]HandlerFunc

	// ctx живет, пока живет сервер; тикеры боя завершаются по нему
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	now    func() time.Time
	logger *logrus.Entry
}

func New(d Deps) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:       d.Config,
		engineCfg: engine.Config{Seed: d.Config.Seed},
		catalog:   d.Catalog,
		store:     d.Store,
		replays:   d.Replays,
		hub:       network.NewBroadcaster(),
		sessions:  NewSessionRegistry(d.Catalog),
		commands:  commandTable(),
		ctx:       ctx,
		cancel:    cancel,
		now:       time.Now,
		logger:    logger.Log.WithField("component", "server"),
	}
}

// Routes собирает chi роутер
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Get("/ws", s.handleWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(apiTimeout))
		r.Post("/replays/verify", s.handleVerify)
		r.Get("/replays/{id}", s.handleGetReplay)
		r.Post("/runs/{id}/snapshot", s.handleSaveSnapshot)
		r.Get("/runs/{id}/snapshots", s.handleListSnapshots)
		r.Get("/snapshots/{id}", s.handleGetSnapshot)
	})

	NewDebugHandler(s).RegisterRoutes(r)
	return r
}

// Run запускает HTTP сервер и блокируется до отмены ctx или ошибки listen
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Infof("Ascension server running on :%s", s.cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down...")
		s.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close останавливает тикеры боев и отключает клиентов
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
	s.hub.CloseAll()
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Разрешаем запросы с фронтенда
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("HTTP request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.Info())
}

// handleWS обрабатывает подключение по WebSocket
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Error("Upgrade error")
		return
	}

	client := NewClient(s, conn)

	// Запускаем пампы
	go client.writePump()
	go client.readPump()
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Log.WithError(err).Debug("write json response failed")
	}
}
