package server

import (
	"ascension-server/internal/content"
	"ascension-server/internal/engine"
	"sort"
	"sync"
	"time"
)

// liveSession - сессия, которой управляет websocket клиент.
// engine.Session однопоточная: любой доступ к ней только под mu
// (команды клиента и тикер боя идут из разных горутин).
type liveSession struct {
	mu       sync.Mutex
	session  *engine.Session
	ticking  bool // тикер боя запущен
	archived bool // лента законченного рана уже сохранена
	lastSeen time.Time
}

// SessionRegistry - все живые сессии сервера
type SessionRegistry struct {
	mu      sync.RWMutex
	items   map[string]*liveSession
	catalog content.Catalog
	now     func() time.Time
}

func NewSessionRegistry(catalog content.Catalog) *SessionRegistry {
	return &SessionRegistry{
		items:   make(map[string]*liveSession),
		catalog: catalog,
		now:     time.Now,
	}
}

// Create поднимает новую пустую сессию
func (r *SessionRegistry) Create(cfg engine.Config) *liveSession {
	live := &liveSession{
		session:  engine.NewSession(r.catalog, cfg),
		lastSeen: r.now(),
	}
	r.mu.Lock()
	r.items[live.session.ID] = live
	r.mu.Unlock()
	return live
}

// Get ищет сессию по id
func (r *SessionRegistry) Get(id string) (*liveSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	live, ok := r.items[id]
	return live, ok
}

// Find ищет сессию по id сессии или по id ее текущего рана
func (r *SessionRegistry) Find(id string) (*liveSession, bool) {
	if live, ok := r.Get(id); ok {
		return live, true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, live := range r.items {
		live.mu.Lock()
		run := live.session.Run()
		live.mu.Unlock()
		if run != nil && run.RunID == id {
			return live, true
		}
	}
	return nil, false
}

// Touch отмечает активность клиента
func (r *SessionRegistry) Touch(live *liveSession) {
	live.mu.Lock()
	live.lastSeen = r.now()
	live.mu.Unlock()
}

// Count - число сессий
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// SessionSummary - строка /debug/sessions
type SessionSummary struct {
	ID          string    `json:"id"`
	RunID       string    `json:"runId,omitempty"`
	Phase       string    `json:"phase"`
	Floor       int       `json:"floor"`
	Events      int       `json:"events"`
	Diagnostics int       `json:"diagnostics"`
	Ticking     bool      `json:"ticking"`
	Connected   bool      `json:"connected"`
	LastSeen    time.Time `json:"lastSeen"`
}

// List - сводка по всем сессиям, по id
func (r *SessionRegistry) List(connected func(id string) bool) []SessionSummary {
	r.mu.RLock()
	lives := make([]*liveSession, 0, len(r.items))
	for _, live := range r.items {
		lives = append(lives, live)
	}
	r.mu.RUnlock()

	out := make([]SessionSummary, 0, len(lives))
	for _, live := range lives {
		live.mu.Lock()
		s := live.session
		sum := SessionSummary{
			ID:          s.ID,
			Phase:       s.Phase().String(),
			Events:      len(s.Events()),
			Diagnostics: s.Diagnostics().Total(),
			Ticking:     live.ticking,
			LastSeen:    live.lastSeen,
		}
		if run := s.Run(); run != nil {
			sum.RunID = run.RunID
			sum.Floor = run.FloorIndex
		}
		live.mu.Unlock()
		if connected != nil {
			sum.Connected = connected(sum.ID)
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
