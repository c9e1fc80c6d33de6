package systems

import (
	"ascension-server/internal/domain"
	"testing"
)

func newCombatant(id string, a domain.Attributes) *domain.Combatant {
	return &domain.Combatant{ID: id, Name: id, Attrs: a}
}

func TestResolveAction_MultiHitScalars(t *testing.T) {
	attacker := newCombatant("hero", domain.Attributes{MaxHP: 10, HP: 10, Attack: 100})
	target := newCombatant("dummy", domain.Attributes{MaxHP: 10000, HP: 10000})

	res := ResolveAction(attacker, target, ActionSpec{
		Target:     domain.SideEnemy,
		AttackMult: 1,
		Hits:       4,
	})

	want := []int{100, 40, 30, 20}
	var got []int
	for _, ev := range res.Events {
		if ev.Kind == domain.EventDamage || ev.Kind == domain.EventMultiHit {
			got = append(got, ev.Value)
		}
	}
	if len(got) != len(want) {
		t.Fatalf("hits = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("hit %d: got %d, want %d", i, got[i], want[i])
		}
	}
	if res.Events[0].Kind != domain.EventDamage {
		t.Errorf("first hit must be DAMAGE, got %s", res.Events[0].Kind)
	}
	if res.TotalDamage != 190 || target.Attrs.HP != 10000-190 {
		t.Errorf("total damage %d, hp %d", res.TotalDamage, target.Attrs.HP)
	}
}

func TestScalar_ClampsToLastEntry(t *testing.T) {
	if Scalar(HPScalars, 99) != HPScalars[len(HPScalars)-1] {
		t.Error("hp table not clamped")
	}
	if Scalar(PostureScalars, -1) != PostureScalars[0] {
		t.Error("negative index not clamped")
	}
	for i := 1; i < len(HPScalars); i++ {
		if HPScalars[i] > HPScalars[i-1] || PostureScalars[i] > PostureScalars[i-1] {
			t.Fatalf("tables must be monotonically decreasing at %d", i)
		}
		if PostureScalars[i] < HPScalars[i] {
			t.Fatalf("posture table must be gentler at %d", i)
		}
	}
}

func TestResolveAction_PostureOverkillCap(t *testing.T) {
	attacker := newCombatant("hero", domain.Attributes{MaxHP: 10, HP: 10, Attack: 500})
	target := newCombatant("wall", domain.Attributes{
		MaxHP: 1_000_000, HP: 1_000_000,
		MaxPosture: 40, Posture: 20,
	})

	res := ResolveAction(attacker, target, ActionSpec{
		Target:      domain.SideEnemy,
		AttackMult:  1,
		PostureMult: 1,
		Hits:        5,
	})

	if res.TotalPosture != 27 {
		t.Errorf("applied posture = %d, want 27 (20 + round(20*0.35))", res.TotalPosture)
	}
	if target.Attrs.Posture != 0 {
		t.Errorf("posture = %d, want 0", target.Attrs.Posture)
	}
	if target.Status != domain.StatusBroken || target.BreakTurns != BrokenTurns {
		t.Errorf("status %s/%d, want broken", target.Status, target.BreakTurns)
	}

	sum := 0
	for _, ev := range res.Events {
		if ev.Kind == domain.EventPosture {
			sum += ev.Value
		}
	}
	if sum != 27 {
		t.Errorf("posture events sum %d, want 27", sum)
	}
}

func TestResolveAction_Superbreak(t *testing.T) {
	attacker := newCombatant("hero", domain.Attributes{MaxHP: 10, HP: 10, Attack: 200})
	target := newCombatant("boss", domain.Attributes{
		MaxHP: 100000, HP: 100000,
		MaxPosture: 30, Posture: 30,
	})
	target.Status = domain.StatusPreparing

	res := ResolveAction(attacker, target, ActionSpec{Target: domain.SideEnemy, AttackMult: 1, PostureMult: 1, Hits: 1})

	if !res.Superbroke || target.Status != domain.StatusSuperbroken || target.BreakTurns != SuperbrokenTurns {
		t.Fatalf("expected superbreak, got %s/%d", target.Status, target.BreakTurns)
	}
	// Ровно одно событие слома, и оно после события стойки
	var kinds []domain.TurnEventKind
	for _, ev := range res.Events {
		kinds = append(kinds, ev.Kind)
	}
	want := []domain.TurnEventKind{domain.EventDamage, domain.EventPosture, domain.EventSuperbreak}
	if len(kinds) != len(want) {
		t.Fatalf("events %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d: %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestResolveAction_CritSharedByAllHits(t *testing.T) {
	for _, crit := range []bool{true, false} {
		attacker := newCombatant("hero", domain.Attributes{MaxHP: 10, HP: 10, Attack: 50, CritDamage: 2})
		target := newCombatant("dummy", domain.Attributes{MaxHP: 100000, HP: 100000})

		res := ResolveAction(attacker, target, ActionSpec{Target: domain.SideEnemy, AttackMult: 1, Hits: 5, Crit: crit})
		for _, ev := range res.Events {
			if ev.Crit != crit {
				t.Fatalf("crit=%v: mixed crit flags in one action: %+v", crit, res.Events)
			}
		}
		if crit && res.Events[0].Value != 100 {
			t.Errorf("crit hit = %d, want 100", res.Events[0].Value)
		}
	}
}

func TestReduceDamage_Cap(t *testing.T) {
	tests := []struct {
		name string
		raw  float64
		dr   float64
		want int
	}{
		{"no reduction", 100, 0, 100},
		{"half", 100, 50, 50},
		{"at cap", 100, 90, 10},
		{"over cap behaves like cap", 100, 200, 10},
		{"big hit at cap", 1000, 90, 100},
		{"small hit at cap", 20, 90, 2},
		{"fractional reduction floors", 100, 33.3, 66},
		{"negative reduction ignored", 100, -50, 100},
		{"never zero", 1, 90, 1},
		{"zero source stays zero", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReduceDamage(tt.raw, tt.dr); got != tt.want {
				t.Errorf("ReduceDamage(%v, %v) = %d, want %d", tt.raw, tt.dr, got, tt.want)
			}
		})
	}
}

func TestEffectiveAttack_DegradesOnGarbage(t *testing.T) {
	att := &domain.Attributes{Attack: -10, Penetration: 5}
	def := &domain.Attributes{Defense: 3}
	if got := EffectiveAttack(att, def, 1); got != 1 {
		t.Errorf("negative attack: %v, want 1", got)
	}

	att = &domain.Attributes{Attack: 20, Penetration: 0.5}
	def = &domain.Attributes{Defense: 10}
	if got := EffectiveAttack(att, def, 1); got != 15 {
		t.Errorf("penetration: %v, want 15", got)
	}
}

func TestBreakLifecycle(t *testing.T) {
	c := newCombatant("e", domain.Attributes{MaxHP: 10, HP: 10, MaxPosture: 20, Posture: 0})
	EnterBreak(c, true)

	if TickBreak(c) {
		t.Fatal("superbreak must last two skipped turns")
	}
	if !TickBreak(c) {
		t.Fatal("expected recovery on second skipped turn")
	}
	if c.Status != domain.StatusNormal || c.Attrs.Posture != 20 {
		t.Errorf("after recovery: %s posture %d", c.Status, c.Attrs.Posture)
	}
}

func TestDot_ReplaceAndTick(t *testing.T) {
	attacker := newCombatant("hero", domain.Attributes{MaxHP: 10, HP: 10, Attack: 50})
	target := newCombatant("dummy", domain.Attributes{MaxHP: 1000, HP: 1000, MaxPosture: 100, Posture: 50})

	ResolveAction(attacker, target, ActionSpec{Target: domain.SideEnemy, AttackMult: 1, Hits: 1, ApplyDot: true})
	if target.Dot == nil || target.Dot.Damage != 10 || target.Dot.PosturePerTick != 5 || target.Dot.TicksRemaining != DotTicks {
		t.Fatalf("dot: %+v", target.Dot)
	}

	// Новый стак заменяет старый, а не складывается
	target.Dot.TicksRemaining = 1
	ResolveAction(attacker, target, ActionSpec{Target: domain.SideEnemy, AttackMult: 1, Hits: 1, ApplyDot: true})
	if target.Dot.TicksRemaining != DotTicks {
		t.Errorf("dot not replaced: %+v", target.Dot)
	}

	hp := target.Attrs.HP
	for i := 0; i < DotTicks; i++ {
		evs := TickDot(target, domain.SideEnemy)
		if len(evs) == 0 || evs[0].Kind != domain.EventDot {
			t.Fatalf("tick %d: %+v", i, evs)
		}
	}
	if target.Dot != nil {
		t.Error("dot must clear after last tick")
	}
	if hp-target.Attrs.HP != 30 {
		t.Errorf("dot dealt %d, want 30", hp-target.Attrs.HP)
	}
	if evs := TickDot(target, domain.SideEnemy); evs != nil {
		t.Errorf("cleared dot ticked: %+v", evs)
	}
}

func TestRegenPosture(t *testing.T) {
	c := newCombatant("p", domain.Attributes{MaxHP: 10, HP: 10, MaxPosture: 50, Posture: 10})
	if got := RegenPosture(c); got != 4 {
		t.Errorf("regen = %d, want ceil(50*0.08)=4", got)
	}
	c.Status = domain.StatusPreparing
	if got := RegenPosture(c); got != 0 {
		t.Errorf("regen while preparing = %d", got)
	}
}
