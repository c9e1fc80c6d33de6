package domain

import (
	"math"
	"testing"
)

func TestAttributes_Sanitize(t *testing.T) {
	a := Attributes{
		MaxHP:      -5,
		HP:         40,
		MaxPosture: 10,
		Posture:    25,
		Attack:     -3,
		Defense:    math.NaN(),
		CritChance: math.Inf(1),
	}
	if !a.Sanitize() {
		t.Fatal("expected Sanitize to report fixes")
	}
	if a.MaxHP != 1 || a.HP != 1 {
		t.Errorf("hp not clamped: %d/%d", a.HP, a.MaxHP)
	}
	if a.Posture != 10 {
		t.Errorf("posture not clamped: %d", a.Posture)
	}
	if a.Attack != 0 || a.Defense != 0 || a.CritChance != 0 {
		t.Errorf("bad floats survived: %+v", a)
	}

	clean := Attributes{MaxHP: 10, HP: 5, MaxPosture: 4, Posture: 4, Attack: 3}
	if clean.Sanitize() {
		t.Error("clean attributes should not be reported as fixed")
	}
}

func TestAttributes_Mutators(t *testing.T) {
	a := Attributes{MaxHP: 20, HP: 20, MaxPosture: 10, Posture: 10, MaxEnergy: 100}

	if got := a.TakeDamage(25); got != 20 || a.HP != 0 {
		t.Errorf("TakeDamage overkill: applied %d, hp %d", got, a.HP)
	}
	if got := a.Heal(50); got != 20 || a.HP != 20 {
		t.Errorf("Heal clamp: applied %d, hp %d", got, a.HP)
	}
	if got := a.TakeDamage(-4); got != 0 {
		t.Errorf("negative damage applied %d", got)
	}
	if got := a.DrainPosture(7); got != 7 || a.Posture != 3 {
		t.Errorf("DrainPosture: applied %d, posture %d", got, a.Posture)
	}
	a.RestorePosture(100)
	if a.Posture != 10 {
		t.Errorf("RestorePosture clamp: %d", a.Posture)
	}

	a.RestoreEnergy(30)
	if a.SpendEnergy(40) {
		t.Error("spent more energy than available")
	}
	if !a.SpendEnergy(30) || a.Energy != 0 {
		t.Errorf("SpendEnergy: %d left", a.Energy)
	}

	a.SetMaxHP(8)
	if a.MaxHP != 8 || a.HP != 8 {
		t.Errorf("SetMaxHP: %d/%d", a.HP, a.MaxHP)
	}
	a.SetMaxHP(0)
	if a.MaxHP != 1 {
		t.Errorf("SetMaxHP floor: %d", a.MaxHP)
	}
}

func TestApplyStat(t *testing.T) {
	a := Attributes{MaxPosture: 10, Posture: 4}
	if !ApplyStat(&a, StatAttack, 2.5) || a.Attack != 2.5 {
		t.Errorf("attack: %v", a.Attack)
	}
	if !ApplyStat(&a, StatBonusHits, 1) || a.BonusHits != 1 {
		t.Errorf("bonus hits: %v", a.BonusHits)
	}
	if !ApplyStat(&a, StatMaxPosture, 5) || a.MaxPosture != 15 || a.Posture != 9 {
		t.Errorf("max posture: %d/%d", a.Posture, a.MaxPosture)
	}
	if ApplyStat(&a, "luck", 1) {
		t.Error("unknown stat accepted")
	}
}

func TestDraftHistory_Push(t *testing.T) {
	var h DraftHistory
	h = h.Push(DraftHistoryEntry{OriginOptions: 1})
	if h.Full() {
		t.Fatal("one entry is not full")
	}
	h = h.Push(DraftHistoryEntry{OriginOptions: 2})
	h = h.Push(DraftHistoryEntry{OriginOptions: 3})

	if len(h) != DraftHistoryLen || !h.Full() {
		t.Fatalf("len = %d", len(h))
	}
	if h[0].OriginOptions != 2 || h[1].OriginOptions != 3 {
		t.Errorf("oldest entry not evicted: %+v", h)
	}
}

func TestStatus_IsStaggered(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusNormal, false},
		{StatusPreparing, false},
		{StatusBroken, true},
		{StatusSuperbroken, true},
		{StatusDead, false},
	}
	for _, tt := range tests {
		if got := tt.status.IsStaggered(); got != tt.want {
			t.Errorf("%s.IsStaggered() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestDefaultBehavior(t *testing.T) {
	boss := DefaultBehavior(ArchetypeBoss)
	if len(boss.Cycle) != 4 || boss.Cycle[2] != MoveCharge || boss.Cycle[3] != MoveHeavy {
		t.Errorf("boss cycle: %v", boss.Cycle)
	}
	if DefaultBehavior(ArchetypeElite).ChargeChance != DefaultEliteChargeChance {
		t.Error("elite charge chance")
	}
	if DefaultBehavior(ArchetypeSimple).ChargeChance != DefaultSimpleChargeChance {
		t.Error("simple charge chance")
	}
}
