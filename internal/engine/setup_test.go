package engine

import (
	"ascension-server/internal/content"
	"ascension-server/internal/domain"
	"ascension-server/pkg/logger"
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func builtinCatalog(t *testing.T) content.Catalog {
	t.Helper()
	cat, err := content.LoadBuiltin()
	if err != nil {
		t.Fatalf("builtin catalog: %v", err)
	}
	return cat
}

// newTestSession - сессия на встроенном каталоге с фиксированным сидом
func newTestSession(t *testing.T, policy domain.SkillPolicy) *Session {
	t.Helper()
	return NewSession(builtinCatalog(t), Config{Seed: 1, Policy: policy})
}

// sturdyRun - ран, который гарантированно переживает первые этажи
func sturdyRun(seed uint32) RunParams {
	return RunParams{
		RunID:        "run-test",
		Seed:         seed,
		CharacterID:  "warden",
		OriginPathID: "ember",
		RunPathID:    "gale",
		HPMax:        5000,
	}
}

// clearFloor проходит текущий этаж: сделка -> отказ, бой -> автобой, драфт -> первый вариант
func clearFloor(t *testing.T, s *Session) {
	t.Helper()
	floor := s.Run().FloorIndex
	if _, err := s.EnterRoom(floor); err != nil {
		t.Fatalf("enter floor %d: %v", floor, err)
	}
	if s.Phase() == domain.PhaseBargain {
		if err := s.DeclineBargain(); err != nil {
			t.Fatalf("decline bargain: %v", err)
		}
	}
	if s.Phase() == domain.PhaseShop {
		return
	}
	if _, err := s.StartBattle(); err != nil {
		t.Fatalf("start battle on floor %d: %v", floor, err)
	}
	if o, err := s.RunBattle(); err != nil || o != domain.OutcomeVictory {
		t.Fatalf("battle on floor %d: outcome %s, err %v", floor, o, err)
	}
	if _, err := s.PickDraft(0); err != nil {
		t.Fatalf("draft on floor %d: %v", floor, err)
	}
}
