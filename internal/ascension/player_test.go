package ascension

import (
	"ascension-server/internal/content"
	"ascension-server/internal/domain"
	"testing"
)

func TestBuildPlayer(t *testing.T) {
	g, rec := newTestGenerator(t, 1)
	run := newTestRun(g, 1)
	run.HPCurrent = 70
	run.PickedEchoIDs = []string{"ember-spark", "tide-shell"}
	run.Upgrades = []domain.ActiveUpgrade{{ID: "buff", Stat: domain.StatDamagePct, Amount: 15, RemainingBattles: 2}}

	p := g.BuildPlayer(run)

	// warden 13 + iron-blade 3 + spark 2
	if p.Attrs.Attack != 18 {
		t.Errorf("attack = %v, want 18", p.Attrs.Attack)
	}
	// warden 6 + quilted-coat 2 + shell 2
	if p.Attrs.Defense != 10 {
		t.Errorf("defense = %v, want 10", p.Attrs.Defense)
	}
	if p.Attrs.DamagePct != 15 {
		t.Errorf("damagePct = %v, want 15", p.Attrs.DamagePct)
	}
	if p.Attrs.HP != 70 || p.Attrs.MaxHP != 100 {
		t.Errorf("hp must come from the run: %d/%d", p.Attrs.HP, p.Attrs.MaxHP)
	}
	if p.Attrs.Energy != 0 || p.Attrs.Posture != p.Attrs.MaxPosture {
		t.Errorf("battle must start with 0 energy and full posture: %+v", p.Attrs)
	}
	if len(rec.items) != 0 {
		t.Errorf("unexpected diagnostics: %+v", rec.items)
	}
}

func TestBuildPlayer_ResonanceBonusHits(t *testing.T) {
	g, _ := newTestGenerator(t, 1)
	run := armedRun(g, 1)

	base := run.ResonanceTier
	p := g.BuildPlayer(run)
	if p.Attrs.BonusHits != base {
		t.Errorf("bonus hits = %d, want %d", p.Attrs.BonusHits, base)
	}
}

func TestBuildPlayer_UnknownCharacter(t *testing.T) {
	g, rec := newTestGenerator(t, 1)
	run := g.CreateNewRun("r", 1, "ghost", "ember", "gale", 100)

	p := g.BuildPlayer(run)

	if p.ID != content.FallbackCharacterID {
		t.Errorf("unknown character must fall back, got %q", p.ID)
	}
	if !rec.has("content") {
		t.Error("unknown character must reach diagnostics")
	}
}

func TestBuildPlayer_UnknownCharacterReportedOncePerRun(t *testing.T) {
	g, rec := newTestGenerator(t, 1)
	run := g.CreateNewRun("r", 1, "ghost", "ember", "gale", 100)

	// драфт, магазин и снапшот пересобирают игрока каждый раз
	for i := 0; i < 3; i++ {
		g.BuildPlayer(run)
		g.HealPct(run)
	}
	if n := countContent(rec, "ghost"); n != 1 {
		t.Fatalf("unknown character reported %d times, want 1", n)
	}

	g.Reset()
	g.BuildPlayer(run)
	if n := countContent(rec, "ghost"); n != 2 {
		t.Errorf("new run must report again, got %d", n)
	}
}

func countContent(rec *recorder, id string) int {
	n := 0
	for _, d := range rec.items {
		if d.Kind == "content" && d.Fields["id"] == id {
			n++
		}
	}
	return n
}

func TestPickEnemy(t *testing.T) {
	t.Run("Boss room", func(t *testing.T) {
		g, _ := newTestGenerator(t, 1)
		run := newTestRun(g, 1)
		if e := g.PickEnemy(run, domain.RoomBoss); e.ID != "hollow-king" {
			t.Errorf("boss = %q", e.ID)
		}
		if run.RandomCounter != 0 {
			t.Error("single candidate must not consume a draw")
		}
	})

	t.Run("Battle pool", func(t *testing.T) {
		g, _ := newTestGenerator(t, 2)
		run := newTestRun(g, 2)
		for i := 0; i < 20; i++ {
			e := g.PickEnemy(run, domain.RoomBattle)
			if !e.AppearsIn(domain.RoomBattle) {
				t.Fatalf("%s does not belong to battle rooms", e.ID)
			}
		}
		if run.RandomCounter != 20 {
			t.Errorf("random counter = %d, want 20", run.RandomCounter)
		}
	})

	t.Run("Empty pool falls back", func(t *testing.T) {
		g, rec := newTestGenerator(t, 3)
		run := newTestRun(g, 3)
		if e := g.PickEnemy(run, domain.RoomShop); e.ID != content.FallbackEnemyID {
			t.Errorf("want fallback, got %q", e.ID)
		}
		if !rec.has("content") {
			t.Error("fallback must reach diagnostics")
		}
	})
}

func TestBuildEnemy_Scaling(t *testing.T) {
	g, _ := newTestGenerator(t, 1)
	def, _ := g.catalog.Enemy("ash-hound")

	base := g.BuildEnemy(def, 0, domain.RoomBattle)
	if base.Attrs.MaxHP != 42 || base.Attrs.HP != 42 || base.Attrs.Attack != 9 {
		t.Errorf("floor 0 must use table stats: %+v", base.Attrs)
	}

	deep := g.BuildEnemy(def, 10, domain.RoomBattle)
	if deep.Attrs.MaxHP != 76 { // 42 * 1.8 = 75.6
		t.Errorf("floor 10 hp = %d, want 76", deep.Attrs.MaxHP)
	}

	challenge := g.BuildEnemy(def, 0, domain.RoomChallenge)
	if challenge.Attrs.MaxHP != 50 { // 42 * 1.2 = 50.4
		t.Errorf("challenge hp = %d, want 50", challenge.Attrs.MaxHP)
	}
}
