package engine

import (
	"ascension-server/internal/content"
	"ascension-server/internal/content/mocks"
	"ascension-server/internal/domain"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
)

func TestSession_FirstFloorFlow(t *testing.T) {
	s := newTestSession(t, domain.PolicyAuto)

	run, err := s.StartRun(sturdyRun(42))
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if run.FloorIndex != 0 || s.Phase() != domain.PhaseMap {
		t.Fatalf("fresh run: floor %d, phase %s", run.FloorIndex, s.Phase())
	}

	kind, err := s.EnterRoom(0)
	if err != nil || kind != domain.RoomBattle {
		t.Fatalf("EnterRoom(0) = %s, %v", kind, err)
	}
	if s.Phase() != domain.PhaseRoom {
		t.Fatalf("no resonance yet, bargain must not spawn: phase %s", s.Phase())
	}

	b, err := s.StartBattle()
	if err != nil {
		t.Fatalf("StartBattle: %v", err)
	}
	if b.Seed != 0 && b.Seed == s.Run().Seed {
		t.Error("battle must use a per-floor seed, not the run seed")
	}

	outcome, err := s.RunBattle()
	if err != nil || outcome != domain.OutcomeVictory {
		t.Fatalf("RunBattle = %s, %v", outcome, err)
	}
	if s.Phase() != domain.PhaseDraft || s.Draft() == nil || len(s.Draft().Options) != 3 {
		t.Fatalf("victory must open a 3-option draft, phase %s", s.Phase())
	}
	if got := s.Run().EchoFragments; got < 3 {
		t.Errorf("fragments = %d, battle reward missing", got)
	}

	if _, err := s.PickDraft(0); err != nil {
		t.Fatalf("PickDraft: %v", err)
	}
	if s.Phase() != domain.PhaseMap || s.Run().FloorIndex != 1 {
		t.Errorf("after draft: phase %s, floor %d", s.Phase(), s.Run().FloorIndex)
	}

	want := []domain.ReplayEventType{
		domain.ReplayRunStart,
		domain.ReplayEnterRoom,
		domain.ReplayBattleStart,
		domain.ReplayBattleEnd,
		domain.ReplayDraftPick,
	}
	events := s.Events()
	if len(events) != len(want) {
		t.Fatalf("recorded %d events, want %d", len(events), len(want))
	}
	for i, ev := range events {
		if ev.Type() != want[i] || ev.V != domain.ReplayVersion {
			t.Errorf("event %d = %s v%d, want %s", i, ev.T, ev.V, want[i])
		}
	}

	if logs := s.TakeLogs(); len(logs) == 0 {
		t.Error("session log must not be empty after a floor")
	}
}

func TestSession_ShopFloor(t *testing.T) {
	s := newTestSession(t, domain.PolicyAuto)
	if _, err := s.StartRun(sturdyRun(7)); err != nil {
		t.Fatal(err)
	}
	for s.Run().FloorIndex < 4 {
		clearFloor(t, s)
	}

	kind, err := s.EnterRoom(4)
	if err != nil || kind != domain.RoomShop {
		t.Fatalf("floor 5 must be a shop: %s, %v", kind, err)
	}
	if s.Phase() != domain.PhaseShop || s.Shop() == nil {
		t.Fatalf("phase %s", s.Phase())
	}
	if _, err := s.StartBattle(); !errors.Is(err, domain.ErrWrongRoom) {
		t.Errorf("battle in shop: %v", err)
	}

	// Выход из магазина - вход на следующий этаж
	if _, err := s.EnterRoom(4); !errors.Is(err, domain.ErrInvalidChoice) {
		t.Errorf("re-entering the shop floor: %v", err)
	}
	if _, err := s.EnterRoom(5); err != nil {
		t.Fatalf("leave shop: %v", err)
	}
	if s.Run().FloorIndex != 5 || s.Shop() != nil {
		t.Errorf("leaving the shop must close floor 4: floor %d", s.Run().FloorIndex)
	}
}

func TestSession_PhaseErrors(t *testing.T) {
	s := newTestSession(t, domain.PolicyAuto)

	if _, err := s.StartBattle(); !errors.Is(err, domain.ErrNoActiveRun) {
		t.Errorf("StartBattle without run: %v", err)
	}
	if _, err := s.Snapshot(); !errors.Is(err, domain.ErrNoActiveRun) {
		t.Errorf("Snapshot without run: %v", err)
	}
	if _, err := s.StartRun(RunParams{Seed: 1, OriginPathID: "ember"}); !errors.Is(err, domain.ErrInvalidChoice) {
		t.Errorf("StartRun without run path: %v", err)
	}

	if _, err := s.StartRun(sturdyRun(3)); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"Draft on map", func() error { _, err := s.PickDraft(0); return err }, domain.ErrNoOffer},
		{"Shop on map", func() error { _, err := s.BuyEcho(0); return err }, domain.ErrNoOffer},
		{"Bargain on map", func() error { return s.DeclineBargain() }, domain.ErrNoOffer},
		{"Battle on map", func() error { _, err := s.StartBattle(); return err }, domain.ErrWrongRoom},
		{"Advance without battle", func() error { _, err := s.AdvanceBattle(); return err }, domain.ErrNoBattle},
		{"Skill without battle", func() error { return s.QueueSkill() }, domain.ErrNoBattle},
		{"Skipping a floor", func() error { _, err := s.EnterRoom(2); return err }, domain.ErrInvalidChoice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(s.Events())
			if err := tt.call(); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if len(s.Events()) != before {
				t.Error("rejected action must not be recorded")
			}
		})
	}

	if _, err := s.EnterRoom(0); err != nil {
		t.Fatal(err)
	}
	if _, err := s.StartBattle(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.EnterRoom(0); !errors.Is(err, domain.ErrBattleInProgress) {
		t.Errorf("EnterRoom during battle: %v", err)
	}
	if _, err := s.StartBattle(); !errors.Is(err, domain.ErrBattleInProgress) {
		t.Errorf("second StartBattle: %v", err)
	}
}

func TestSession_AdvanceBattleStepByStep(t *testing.T) {
	s := newTestSession(t, domain.PolicyAttackOnly)
	if _, err := s.StartRun(sturdyRun(11)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.EnterRoom(0); err != nil {
		t.Fatal(err)
	}
	if _, err := s.StartBattle(); err != nil {
		t.Fatal(err)
	}
	if err := s.QueueSkill(); err != nil {
		t.Fatal(err)
	}

	for i := 0; s.Phase() == domain.PhaseBattle; i++ {
		if i > MaxBattleTurns {
			t.Fatal("battle did not finish")
		}
		if _, err := s.AdvanceBattle(); err != nil {
			t.Fatal(err)
		}
	}

	events := s.Events()
	last := events[len(events)-1]
	var end domain.BattleEndPayload
	if err := json.Unmarshal(last.Payload, &end); err != nil {
		t.Fatal(err)
	}
	if len(end.SkillTurns) != 1 || end.SkillTurns[0] != 0 {
		t.Errorf("battleEnd must carry the skill order, got %v", end.SkillTurns)
	}
	if *end.HPAfter != s.Run().HPCurrent {
		t.Errorf("hpAfter %d, run hp %d", *end.HPAfter, s.Run().HPCurrent)
	}
}

func TestSession_SnapshotRestoreMidBattle(t *testing.T) {
	live := newTestSession(t, domain.PolicyAuto)
	if _, err := live.StartRun(sturdyRun(99)); err != nil {
		t.Fatal(err)
	}
	clearFloor(t, live)
	if _, err := live.EnterRoom(1); err != nil {
		t.Fatal(err)
	}
	if _, err := live.StartBattle(); err != nil {
		t.Fatal(err)
	}
	if _, err := live.AdvanceBattle(); err != nil {
		t.Fatal(err)
	}

	snap, err := live.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	var decoded domain.RunSnapshot
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}

	restored := newTestSession(t, domain.PolicyAuto)
	if err := restored.Restore(decoded); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Phase() != domain.PhaseBattle || restored.Battle().Turn() != 1 {
		t.Fatalf("restored phase %s", restored.Phase())
	}

	for _, s := range []*Session{live, restored} {
		if _, err := s.RunBattle(); err != nil {
			t.Fatal(err)
		}
		if _, err := s.PickDraft(1); err != nil {
			t.Fatal(err)
		}
		clearFloor(t, s)
	}

	if a, b := mustJSON(t, live), mustJSON(t, restored); a != b {
		t.Errorf("restored session diverged:\n live: %s\n restored: %s", a, b)
	}
}

func TestSession_RestoreRejects(t *testing.T) {
	s := newTestSession(t, domain.PolicyAuto)

	err := s.Restore(domain.RunSnapshot{SnapshotVersion: domain.SnapshotVersion + 1})
	if !errors.Is(err, domain.ErrVersionMismatch) {
		t.Errorf("future version: %v", err)
	}
	err = s.Restore(domain.RunSnapshot{SnapshotVersion: domain.SnapshotVersion, Phase: domain.PhaseBattle})
	if !errors.Is(err, domain.ErrNoBattle) {
		t.Errorf("battle phase without battle: %v", err)
	}
}

// Битый сейв с огромным счетчиком бросков открывается сразу, без прокрутки потока
func TestSession_RestoreHugeRandomCounter(t *testing.T) {
	live := newTestSession(t, domain.PolicyAttackOnly)
	if _, err := live.StartRun(sturdyRun(5)); err != nil {
		t.Fatal(err)
	}
	snap, err := live.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	snap.Run.RandomCounter = 1 << 62

	restored := newTestSession(t, domain.PolicyAuto)
	done := make(chan error, 1)
	go func() { done <- restored.Restore(snap) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Restore: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Restore did not return for a huge random counter")
	}

	if restored.Policy() != domain.PolicyAttackOnly {
		t.Errorf("policy = %s, want attack-only", restored.Policy())
	}
	if _, err := restored.EnterRoom(0); err != nil {
		t.Fatalf("restored session is not playable: %v", err)
	}
}

func TestSession_UnknownContentFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	cat := mocks.NewMockCatalog(ctrl)
	cat.EXPECT().Character(gomock.Any()).Return(content.CharacterDef{}, false).AnyTimes()
	cat.EXPECT().Enemy(gomock.Any()).Return(content.EnemyDef{}, false).AnyTimes()
	cat.EXPECT().Equipment(gomock.Any()).Return(content.EquipmentDef{}, false).AnyTimes()
	cat.EXPECT().Echo(gomock.Any()).Return(content.EchoDef{}, false).AnyTimes()
	cat.EXPECT().Resonance(gomock.Any()).Return(content.ResonanceDef{}, false).AnyTimes()
	cat.EXPECT().Echoes().Return(nil).AnyTimes()
	cat.EXPECT().Enemies().Return(nil).AnyTimes()
	cat.EXPECT().Resonances().Return(nil).AnyTimes()

	s := NewSession(cat, Config{Seed: 1})
	if _, err := s.StartRun(RunParams{Seed: 5, CharacterID: "ghost", OriginPathID: "void", RunPathID: "ember", HPMax: 100}); err != nil {
		t.Fatalf("unknown content must not fail the run: %v", err)
	}
	if _, err := s.EnterRoom(0); err != nil {
		t.Fatal(err)
	}
	b, err := s.StartBattle()
	if err != nil {
		t.Fatal(err)
	}
	if b.EnemyID != content.FallbackEnemyID {
		t.Errorf("enemy = %q, want fallback", b.EnemyID)
	}

	items := s.Diagnostics().Items()
	if len(items) < 3 {
		t.Fatalf("want diagnostics for both paths and the enemy pool, got %+v", items)
	}
	for _, d := range items {
		if d.Kind != "content" {
			t.Errorf("unexpected diagnostic kind %q", d.Kind)
		}
	}
}

func TestDiagnostics_KeepsTail(t *testing.T) {
	d := NewDiagnostics()
	for i := 0; i < DiagnosticsLimit+10; i++ {
		d.Report(domain.Diagnostic{Kind: "clamp", Message: "value clamped", Fields: map[string]any{"i": i}})
	}
	items := d.Items()
	if len(items) != DiagnosticsLimit || d.Total() != DiagnosticsLimit+10 {
		t.Fatalf("items %d, total %d", len(items), d.Total())
	}
	if items[0].Fields["i"] != 10 {
		t.Errorf("oldest kept = %v, want 10", items[0].Fields["i"])
	}
	d.Clear()
	if len(d.Items()) != 0 || d.Total() != 0 {
		t.Error("Clear must drop everything")
	}
}

func mustJSON(t *testing.T, s *Session) string {
	t.Helper()
	snap, err := s.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	return string(raw)
}
