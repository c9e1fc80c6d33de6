// Package replay проигрывает записанную ленту решений на свежей сессии и проверяет,
// что каждое перегенерированное предложение совпадает с записанным выбором.
package replay

import (
	"ascension-server/internal/content"
	"ascension-server/internal/domain"
	"ascension-server/internal/engine"
	"ascension-server/pkg/logger"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrNothingLoaded - Start без загруженной ленты
var ErrNothingLoaded = errors.New("no replay loaded")

// Runner ведет курсор по ленте. Сессия создается заново на каждый Start,
// поэтому повторный проигрыш не зависит от предыдущего.
type Runner struct {
	catalog content.Catalog
	session *engine.Session
	events  []domain.ReplayEvent
	cursor  int
	started bool
	failed  error
	logger  *logrus.Entry
}

func NewRunner(catalog content.Catalog) *Runner {
	return &Runner{
		catalog: catalog,
		logger:  logger.Log.WithField("component", "replay"),
	}
}

// Load проверяет схему всей ленты и сбрасывает курсор. Битая лента не загружается.
func (r *Runner) Load(events []domain.ReplayEvent) error {
	if err := Validate(events); err != nil {
		r.logger.WithError(err).Warn("Replay rejected by schema validation.")
		return err
	}
	r.Reset()
	r.events = append([]domain.ReplayEvent(nil), events...)
	r.logger.WithField("events", len(events)).Debug("Replay loaded.")
	return nil
}

// Start поднимает новую сессию и применяет runStart
func (r *Runner) Start() error {
	if len(r.events) == 0 {
		return ErrNothingLoaded
	}
	first := r.events[0]
	if first.Type() != domain.ReplayRunStart {
		return domain.NewSchemaError(fmt.Errorf("event #0: replay must start with runStart, got %q", first.T))
	}

	r.session = engine.NewSession(r.catalog, engine.Config{Policy: domain.PolicyAuto})
	r.cursor = 0
	r.failed = nil
	if err := withPayload(applyRunStart)(r, 0, first.Payload); err != nil {
		r.failed = err
		return err
	}
	r.cursor = 1
	r.started = true

	run := r.session.Run()
	r.logger.WithFields(logrus.Fields{
		"run_id": run.RunID,
		"seed":   run.Seed,
		"events": len(r.events),
	}).Info("Replay started.")
	return nil
}

// Step применяет ровно одно следующее событие. После первой ошибки раннер стоит.
func (r *Runner) Step() error {
	switch {
	case !r.started:
		return domain.ErrReplayNotStarted
	case r.failed != nil:
		return r.failed
	case r.cursor >= len(r.events):
		return domain.ErrReplayFinished
	}

	index := r.cursor
	ev := r.events[index]
	step, ok := steps[ev.Type()]
	if !ok {
		r.failed = domain.NewSchemaError(fmt.Errorf("event #%d: unexpected type %q", index, ev.T))
		return r.failed
	}
	if err := step(r, index, ev.Payload); err != nil {
		r.failed = err
		r.logger.WithFields(logrus.Fields{
			"event_index": index,
			"event_type":  ev.T,
		}).WithError(err).Error("Replay step failed.")
		return err
	}
	r.cursor++

	r.logger.WithFields(logrus.Fields{
		"event_index": index,
		"event_type":  ev.T,
		"phase":       r.session.Phase().String(),
	}).Debug("Replay step applied.")
	if r.Done() {
		r.logger.WithField("steps", r.cursor).Info("Replay finished.")
	}
	return nil
}

// RunAll доигрывает ленту до конца или до первой ошибки. Возвращает число примененных событий.
func (r *Runner) RunAll() (int, error) {
	if !r.started {
		if err := r.Start(); err != nil {
			return r.cursor, err
		}
	}
	for !r.Done() {
		if err := r.Step(); err != nil {
			return r.cursor, err
		}
	}
	return r.cursor, nil
}

// Reset забывает ленту и сессию вместе с ее кешами (витрины магазинов)
func (r *Runner) Reset() {
	if r.session != nil {
		r.session.Reset()
	}
	r.session = nil
	r.events = nil
	r.cursor = 0
	r.started = false
	r.failed = nil
}

func (r *Runner) Done() bool { return r.started && r.cursor >= len(r.events) }
func (r *Runner) Cursor() int { return r.cursor }
func (r *Runner) Len() int { return len(r.events) }
func (r *Runner) Err() error { return r.failed }

// Session - сессия, на которой идет проигрыш (nil до Start)
func (r *Runner) Session() *engine.Session { return r.session }

// Snapshot - текущее состояние проигрываемого рана
func (r *Runner) Snapshot() (domain.RunSnapshot, error) {
	if r.session == nil {
		return domain.RunSnapshot{}, domain.ErrReplayNotStarted
	}
	return r.session.Snapshot()
}
