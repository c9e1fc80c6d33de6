package engine

import (
	"ascension-server/internal/domain"
	"ascension-server/pkg/logger"
	"sync"

	"github.com/sirupsen/logrus"
)

// DiagnosticsLimit - сколько последних записей хранится
const DiagnosticsLimit = 256

// Diagnostics - канал восстановимых проблем: неизвестные id, клампы битых чисел.
// Игра при этом продолжается на заглушках.
type Diagnostics struct {
	mu     sync.Mutex
	items  []domain.Diagnostic
	total  int
	logger *logrus.Entry
}

func NewDiagnostics() *Diagnostics {
	return &Diagnostics{logger: logger.Log.WithField("component", "diagnostics")}
}

// Report пишет запись и дублирует ее в лог на уровне Warn
func (d *Diagnostics) Report(item domain.Diagnostic) {
	fields := logrus.Fields{"kind": item.Kind}
	for k, v := range item.Fields {
		fields[k] = v
	}
	d.logger.WithFields(fields).Warn(item.Message)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.total++
	d.items = append(d.items, item)
	if len(d.items) > DiagnosticsLimit {
		d.items = append([]domain.Diagnostic(nil), d.items[len(d.items)-DiagnosticsLimit:]...)
	}
}

// Items - копия накопленных записей
func (d *Diagnostics) Items() []domain.Diagnostic {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.Diagnostic(nil), d.items...)
}

// Total - сколько записей пришло за все время (включая вытесненные)
func (d *Diagnostics) Total() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.total
}

func (d *Diagnostics) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items = nil
	d.total = 0
}
