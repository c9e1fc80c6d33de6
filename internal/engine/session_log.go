package engine

import (
	"ascension-server/pkg/api"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Типы записей игрового лога
const (
	LogInfo   = "INFO"
	LogCombat = "COMBAT"
	LogError  = "ERROR"
)

// MaxPendingLogs - сколько непрочитанных записей держит сессия
const MaxPendingLogs = 100

// AddLog добавляет запись в лог сессии (для клиента, в снапшот не попадает)
func (s *Session) AddLog(text, logType string) {
	s.logSeq++
	s.logs = append(s.logs, api.LogEntry{
		ID:        fmt.Sprintf("%s_%d", s.ID, s.logSeq),
		Text:      text,
		Type:      logType,
		Timestamp: s.now().UnixMilli(),
	})
	if len(s.logs) > MaxPendingLogs {
		s.logs = append([]api.LogEntry(nil), s.logs[len(s.logs)-MaxPendingLogs:]...)
	}
	s.logger.WithFields(logrus.Fields{
		"component": "game_log",
		"log_type":  logType,
	}).Debug(text)
}

// TakeLogs отдает накопленные записи и очищает очередь
func (s *Session) TakeLogs() []api.LogEntry {
	out := s.logs
	s.logs = nil
	return out
}
