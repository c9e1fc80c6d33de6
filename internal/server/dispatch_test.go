package server

import (
	"ascension-server/internal/domain"
	"ascension-server/pkg/api"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExecute_FirstFloor(t *testing.T) {
	srv := newTestServer(t)
	live := playFirstFloor(t, srv)

	if got := live.session.Phase(); got != domain.PhaseMap {
		t.Fatalf("phase after draft = %s, want map", got)
	}
	types := make([]string, 0)
	for _, ev := range live.session.Events() {
		types = append(types, ev.T)
	}
	want := []string{"runStart", "enterRoom", "battleStart", "battleEnd", "draftPick"}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", types, want)
	}
	if live.ticking {
		t.Error("ticker flag must be cleared after the battle")
	}
}

func TestExecute_StartRunAppliesPolicyAndSeed(t *testing.T) {
	srv := newTestServer(t)
	live := srv.sessions.Create(srv.engineCfg)

	p := startPayload()
	p.Seed = 0
	resp := mustOK(t, srv, live, command(t, api.ActionStartRun, p))

	view, ok := resp.Data.(SessionView)
	if !ok {
		t.Fatalf("UPDATE data is %T", resp.Data)
	}
	if view.Run == nil || view.Run.Seed != 7 {
		t.Errorf("seed 0 must fall back to the server seed 7, got %+v", view.Run)
	}
	if live.session.Policy() != domain.PolicyAttackOnly {
		t.Errorf("policy = %s", live.session.Policy())
	}
	if len(resp.Logs) == 0 {
		t.Error("run start must produce a log entry")
	}
}

func TestExecute_Rejections(t *testing.T) {
	srv := newTestServer(t)
	live := srv.sessions.Create(srv.engineCfg)
	mustOK(t, srv, live, command(t, api.ActionStartRun, startPayload()))
	before := len(live.session.Events())

	tests := []struct {
		name    string
		cmd     api.ClientCommand
		wantErr string
	}{
		{"Unknown action", api.ClientCommand{Action: "DANCE"}, "unknown action"},
		{"Missing payload", api.ClientCommand{Action: api.ActionEnterRoom}, "payload is required"},
		{"Broken payload", api.ClientCommand{Action: api.ActionEnterRoom, Payload: json.RawMessage(`{"floor":"x"}`)}, "invalid payload format"},
		{"Negative floor", command(t, api.ActionEnterRoom, api.FloorPayload{Floor: -1}), "validation failed"},
		{"Wrong floor", command(t, api.ActionEnterRoom, api.FloorPayload{Floor: 3}), "invalid choice"},
		{"Draft out of phase", command(t, api.ActionPickDraft, api.IndexPayload{Index: 0}), "no offer"},
		{"Skill without battle", command(t, api.ActionSkill, nil), "no battle"},
		{"Bad policy", command(t, api.ActionStartRun, api.StartRunPayload{OriginPathID: "a", RunPathID: "b", Policy: "berserk"}), "validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := srv.Execute(live, tt.cmd)
			if resp.Type != api.ResponseError {
				t.Fatalf("type = %s, want ERROR", resp.Type)
			}
			if !strings.Contains(resp.Error, tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", resp.Error, tt.wantErr)
			}
			if len(resp.Logs) == 0 || resp.Logs[len(resp.Logs)-1].Type != "ERROR" {
				t.Errorf("rejection must be logged for the client: %+v", resp.Logs)
			}
		})
	}

	if got := len(live.session.Events()); got != before {
		t.Errorf("rejected commands were recorded: %d events, want %d", got, before)
	}
	if live.session.Phase() != domain.PhaseMap {
		t.Errorf("phase changed to %s", live.session.Phase())
	}
}

func TestExecute_Snapshot(t *testing.T) {
	srv := newTestServer(t)
	live := srv.sessions.Create(srv.engineCfg)

	if resp := srv.Execute(live, command(t, api.ActionSnapshot, nil)); resp.Type != api.ResponseError {
		t.Errorf("snapshot without a run must fail, got %s", resp.Type)
	}

	mustOK(t, srv, live, command(t, api.ActionStartRun, startPayload()))
	resp := mustOK(t, srv, live, command(t, api.ActionSnapshot, nil))
	if resp.Type != api.ResponseSnapshot {
		t.Fatalf("type = %s", resp.Type)
	}
	snap, ok := resp.Data.(domain.RunSnapshot)
	if !ok {
		t.Fatalf("data is %T", resp.Data)
	}
	if snap.Seed != 11 || snap.Phase != domain.PhaseMap || len(snap.Events) != 1 {
		t.Errorf("unexpected snapshot: seed=%d phase=%s events=%d", snap.Seed, snap.Phase, len(snap.Events))
	}
}

func TestStepBattle_PausedWithoutSubscriber(t *testing.T) {
	srv := newTestServer(t)
	live := srv.sessions.Create(srv.engineCfg)
	mustOK(t, srv, live, command(t, api.ActionStartRun, startPayload()))
	resp := mustOK(t, srv, live, command(t, api.ActionEnterRoom, api.FloorPayload{Floor: 0}))
	if resp.Phase == domain.PhaseBargain.String() {
		mustOK(t, srv, live, command(t, api.ActionPickBargain, api.BargainPayload{Decline: true}))
	}
	mustOK(t, srv, live, command(t, api.ActionStartBattle, nil))

	for i := 0; i < 3; i++ {
		if !srv.stepBattle(live) {
			t.Fatal("ticker must keep waiting while nobody watches")
		}
	}
	if turn := live.session.Battle().Turn(); turn != 0 {
		t.Errorf("battle advanced to turn %d without a subscriber", turn)
	}
}

func TestArchive_FinishedRunOnce(t *testing.T) {
	srv := newTestServer(t)
	live := playFirstFloor(t, srv)

	snap, err := live.session.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	snap.Phase = domain.PhaseFinished
	snap.Run.RunOutcome = domain.RunOutcomeDefeat
	if err := live.session.Restore(snap); err != nil {
		t.Fatal(err)
	}

	srv.archive(live)
	srv.archive(live)

	files, err := os.ReadDir(srv.replays.SaveDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("replay files = %d, want 1", len(files))
	}
	rf, err := srv.replays.Load(filepath.Join(srv.replays.SaveDir, files[0].Name()))
	if err != nil {
		t.Fatal(err)
	}
	if rf.Seed != 11 || len(rf.Events) != len(live.session.Events()) {
		t.Errorf("archived seed=%d events=%d", rf.Seed, len(rf.Events))
	}
}
