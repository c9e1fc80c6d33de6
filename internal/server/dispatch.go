package server

import (
	"ascension-server/internal/domain"
	"ascension-server/internal/engine"
	"ascension-server/internal/infrastructure/storage"
	"ascension-server/pkg/api"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Execute выполняет команду клиента над сессией и возвращает ответ.
// Отклоненная команда не меняет состояние и не попадает в ленту реплея.
func (s *Server) Execute(live *liveSession, cmd api.ClientCommand) api.ServerResponse {
	live.mu.Lock()
	defer live.mu.Unlock()

	sess := live.session
	live.lastSeen = s.now()
	log := s.logger.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"action":     cmd.Action,
	})

	handler, ok := s.commands[cmd.Action]
	if !ok {
		log.Warn("Unknown action")
		return s.errorResponse(live, fmt.Errorf("unknown action %q", cmd.Action))
	}

	res, err := handler(CommandContext{Live: live, Session: sess, Config: s.engineCfg}, cmd.Payload)
	if err != nil {
		log.WithError(err).Debug("Command rejected")
		return s.errorResponse(live, err)
	}
	log.WithField("phase", sess.Phase().String()).Debug("Command applied")

	if sess.Phase() == domain.PhaseBattle {
		s.startTicker(live)
	}
	s.archive(live)

	resp := api.ServerResponse{
		Type:      res.Type,
		SessionID: sess.ID,
		Phase:     sess.Phase().String(),
		Data:      res.Data,
		Logs:      sess.TakeLogs(),
	}
	if resp.Type == "" {
		resp.Type = api.ResponseUpdate
		resp.Data = buildView(sess)
	}
	return resp
}

// State - текущее состояние сессии (первое сообщение после handshake)
func (s *Server) State(live *liveSession) api.ServerResponse {
	live.mu.Lock()
	defer live.mu.Unlock()
	if live.session.Phase() == domain.PhaseBattle {
		s.startTicker(live)
	}
	return api.ServerResponse{
		Type:      api.ResponseUpdate,
		SessionID: live.session.ID,
		Phase:     live.session.Phase().String(),
		Data:      buildView(live.session),
		Logs:      live.session.TakeLogs(),
	}
}

func (s *Server) errorResponse(live *liveSession, err error) api.ServerResponse {
	sess := live.session
	sess.AddLog(err.Error(), engine.LogError)
	return api.ServerResponse{
		Type:      api.ResponseError,
		SessionID: sess.ID,
		Phase:     sess.Phase().String(),
		Error:     err.Error(),
		Logs:      sess.TakeLogs(),
	}
}

// --- ТИКЕР БОЯ ---
// Темп боя - забота сервера. Ядро двигается только вызовами AdvanceBattle.

// startTicker запускает горутину боя, если она еще не идет. Вызывать под mu.
func (s *Server) startTicker(live *liveSession) {
	if live.ticking || s.cfg.TickInterval <= 0 {
		return
	}
	live.ticking = true
	s.wg.Add(1)
	go s.playBattle(live)
}

func (s *Server) playBattle(live *liveSession) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			live.mu.Lock()
			live.ticking = false
			live.mu.Unlock()
			return
		case <-ticker.C:
			if !s.stepBattle(live) {
				return
			}
		}
	}
}

// stepBattle - один ход боя. false - бой кончился, тикер останавливается.
func (s *Server) stepBattle(live *liveSession) bool {
	live.mu.Lock()
	defer live.mu.Unlock()

	sess := live.session
	if sess.Phase() != domain.PhaseBattle {
		live.ticking = false
		return false
	}
	// Смотреть некому - бой на паузе до переподключения
	if !s.hub.HasSubscriber(sess.ID) {
		return true
	}

	events, err := sess.AdvanceBattle()
	if err != nil {
		s.logger.WithError(err).WithField("session_id", sess.ID).Warn("Battle tick failed")
		live.ticking = false
		return false
	}

	turn := 0
	if b := sess.Battle(); b != nil {
		turn = b.Turn()
	}
	s.hub.SendTo(sess.ID, api.ServerResponse{
		Type:      api.ResponseBattleTurn,
		SessionID: sess.ID,
		Phase:     domain.PhaseBattle.String(),
		Turn:      turn,
		Data:      events,
	})

	if sess.Phase() == domain.PhaseBattle {
		return true
	}

	// Бой закончен: итог, драфт или конец рана
	live.ticking = false
	s.archive(live)
	s.hub.SendTo(sess.ID, api.ServerResponse{
		Type:      api.ResponseUpdate,
		SessionID: sess.ID,
		Phase:     sess.Phase().String(),
		Data:      buildView(sess),
		Logs:      sess.TakeLogs(),
	})
	return false
}

// archive сохраняет ленту законченного рана (файл + sqlite). Вызывать под mu.
func (s *Server) archive(live *liveSession) {
	sess := live.session
	if live.archived || sess.Phase() != domain.PhaseFinished {
		return
	}
	live.archived = true

	run := sess.Run()
	rf := &storage.ReplayFile{
		Seed:      run.Seed,
		Timestamp: s.now().UnixMilli(),
		Events:    sess.Events(),
	}
	log := s.logger.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"run_id":     run.RunID,
		"outcome":    string(run.RunOutcome),
		"events":     len(rf.Events),
	})

	if s.replays != nil {
		path, err := s.replays.Save(run.RunID, rf)
		if err != nil {
			log.WithError(err).Error("Failed to write replay file")
		} else {
			log = log.WithField("path", path)
		}
	}
	if s.store != nil {
		rec, err := s.store.SaveReplay(s.ctx, run.RunID, rf)
		if err != nil {
			log.WithError(err).Error("Failed to store replay")
		} else {
			log = log.WithField("replay_id", rec.ID)
		}
	}
	log.Info("Run archived.")
}
