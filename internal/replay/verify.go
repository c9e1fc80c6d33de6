package replay

import (
	"ascension-server/internal/content"
	"ascension-server/internal/domain"
)

// Report - итог headless-проверки ленты
type Report struct {
	OK    bool                `json:"ok"`
	Steps int                 `json:"steps"`
	Total int                 `json:"total"`
	Error string              `json:"error,omitempty"`
	Final *domain.RunSnapshot `json:"final,omitempty"`
}

// Verify проигрывает ленту на свежем раннере и возвращает отчет.
// Ошибка проигрыша попадает в отчет вместе с состоянием на момент остановки.
func Verify(catalog content.Catalog, events []domain.ReplayEvent) Report {
	r := NewRunner(catalog)
	rep := Report{Total: len(events)}

	if err := r.Load(events); err != nil {
		rep.Error = err.Error()
		return rep
	}
	steps, err := r.RunAll()
	rep.Steps = steps
	if snap, serr := r.Snapshot(); serr == nil {
		rep.Final = &snap
	}
	if err != nil {
		rep.Error = err.Error()
		return rep
	}
	rep.OK = true
	return rep
}
