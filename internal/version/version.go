// Package version - метаданные сборки и версии форматов, которые понимает сервер.
package version

import (
	"ascension-server/internal/domain"
	"fmt"
	"strings"
	"time"
)

// Заполняются через -ldflags "-X ascension-server/internal/version.BuildDate=..."
var (
	BuildDate   string // YYYY-MM-DD (UTC)
	BuildCommit string
	BuildBranch string
	BuildCI     string
)

const dateLayout = "2006-01-02"

// buildEpoch - день 0 нумерации сборок
var buildEpoch = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

// VersionInfo - ответ /version и строка в логе старта
type VersionInfo struct {
	BuildID    int    `json:"buildId"`
	BuildDate  string `json:"buildDate,omitempty"`
	Commit     string `json:"commit,omitempty"`
	Branch     string `json:"branch,omitempty"`
	CI         string `json:"ci,omitempty"`
	Calculated bool   `json:"calculated"`
	Error      string `json:"error,omitempty"`

	ReplayVersion   int `json:"replayVersion"`
	SnapshotVersion int `json:"snapshotVersion"`
}

// CalculateBuildID - дней от эпохи до BuildDate
func CalculateBuildID() (int, error) {
	if BuildDate == "" {
		return 0, fmt.Errorf("BuildDate is empty")
	}
	day, err := time.ParseInLocation(dateLayout, BuildDate, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("invalid BuildDate %q: %w", BuildDate, err)
	}
	if day.Before(buildEpoch) {
		return 0, fmt.Errorf("BuildDate %s is before epoch %s", BuildDate, buildEpoch.Format(dateLayout))
	}
	// обе даты - полночь UTC, деление целое
	return int(day.Sub(buildEpoch) / (24 * time.Hour)), nil
}

func Info() VersionInfo {
	info := VersionInfo{
		BuildDate:       BuildDate,
		Commit:          BuildCommit,
		Branch:          BuildBranch,
		CI:              BuildCI,
		ReplayVersion:   domain.ReplayVersion,
		SnapshotVersion: domain.SnapshotVersion,
	}
	if id, err := CalculateBuildID(); err != nil {
		info.Error = err.Error()
	} else {
		info.BuildID, info.Calculated = id, true
	}
	return info
}

// String - одна строка для лога: номер сборки, откуда она, какие форматы читает.
// Пустые поля ldflags в строку не попадают.
func String() string {
	info := Info()

	var b strings.Builder
	if info.Calculated {
		fmt.Fprintf(&b, "Ascension build %d (%s)", info.BuildID, info.BuildDate)
	} else {
		fmt.Fprintf(&b, "Ascension build unknown (%s)", info.Error)
	}
	for _, part := range [][2]string{{"commit", info.Commit}, {"branch", info.Branch}, {"ci", info.CI}} {
		if part[1] != "" {
			fmt.Fprintf(&b, " %s[%s]", part[0], part[1])
		}
	}
	fmt.Fprintf(&b, " replay v%d snapshot v%d", info.ReplayVersion, info.SnapshotVersion)
	return b.String()
}
