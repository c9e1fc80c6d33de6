package server

import (
	"ascension-server/internal/domain"
	"ascension-server/internal/infrastructure/storage"
	"ascension-server/internal/replay"
	"ascension-server/pkg/api"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func do(t *testing.T, h http.Handler, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestRoutes_HealthAndVersion(t *testing.T) {
	h := newTestServer(t).Routes()

	w := do(t, h, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Errorf("health = %d %q", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS header = %q", got)
	}

	w = do(t, h, http.MethodGet, "/version", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "replayVersion") {
		t.Errorf("version = %d %q", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodOptions, "/api/replays/verify", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("preflight = %d", w.Code)
	}
}

func TestRoutes_VerifyReplay(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Routes()
	live := playFirstFloor(t, srv)
	events := live.session.Events()

	jsonBody, err := json.Marshal(events)
	if err != nil {
		t.Fatal(err)
	}
	var bin bytes.Buffer
	if err := storage.Encode(&bin, &storage.ReplayFile{Seed: 11, Timestamp: 1, Events: events}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		contentType string
		body        []byte
		wantOK      bool
		wantErr     string
	}{
		{"JSON events", "application/json", jsonBody, true, ""},
		{"Binary file", "application/octet-stream", bin.Bytes(), true, ""},
		{"Empty list", "application/json", []byte(`[]`), false, "replay has no events"},
		{"Tampered draft", "application/json", tamperDraft(t, events), false, "determinism violation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/replays/verify", tt.contentType, tt.body)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", w.Code, w.Body.String())
			}
			rep := decodeBody[replay.Report](t, w)
			if rep.OK != tt.wantOK {
				t.Fatalf("ok = %v, error = %q", rep.OK, rep.Error)
			}
			if tt.wantOK && rep.Steps != len(events) {
				t.Errorf("steps = %d, want %d", rep.Steps, len(events))
			}
			if !strings.Contains(rep.Error, tt.wantErr) {
				t.Errorf("error = %q, want %q", rep.Error, tt.wantErr)
			}
		})
	}

	for name, tc := range map[string]struct {
		ct   string
		body []byte
	}{
		"Broken json":  {"application/json", []byte(`{not json`)},
		"Broken magic": {"application/octet-stream", []byte("NOPE0000000000000000000000")},
	} {
		t.Run(name, func(t *testing.T) {
			if w := do(t, h, http.MethodPost, "/api/replays/verify", tc.ct, tc.body); w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func tamperDraft(t *testing.T, events []domain.ReplayEvent) []byte {
	t.Helper()
	out := append([]domain.ReplayEvent(nil), events...)
	for i, ev := range out {
		if ev.Type() != domain.ReplayDraftPick {
			continue
		}
		var p domain.DraftPickPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			t.Fatal(err)
		}
		p.OptionID = "not-the-offered-echo"
		raw, err := json.Marshal(p)
		if err != nil {
			t.Fatal(err)
		}
		out[i].Payload = raw
	}
	body, err := json.Marshal(out)
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestRoutes_Snapshots(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Routes()

	empty := srv.sessions.Create(srv.engineCfg)
	if w := do(t, h, http.MethodPost, "/api/runs/"+empty.session.ID+"/snapshot", "", nil); w.Code != http.StatusConflict {
		t.Errorf("snapshot of an idle session = %d, want 409", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/api/runs/nobody/snapshot", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown session = %d, want 404", w.Code)
	}

	live := playFirstFloor(t, srv)
	runID := live.session.Run().RunID

	// по id рана тоже находится
	w := do(t, h, http.MethodPost, "/api/runs/"+runID+"/snapshot", "", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("save snapshot = %d: %s", w.Code, w.Body.String())
	}
	rec := decodeBody[storage.SnapshotRecord](t, w)
	if rec.RunID != runID || rec.Floor != 1 {
		t.Errorf("record = %+v", rec)
	}

	w = do(t, h, http.MethodGet, "/api/snapshots/"+rec.ID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get snapshot = %d: %s", w.Code, w.Body.String())
	}
	snap := decodeBody[domain.RunSnapshot](t, w)
	want, _ := live.session.Snapshot()
	if snap.Seed != want.Seed || snap.Run.RandomCounter != want.Run.RandomCounter || len(snap.Events) != len(want.Events) {
		t.Errorf("snapshot mismatch: got seed=%d draws=%d events=%d", snap.Seed, snap.Run.RandomCounter, len(snap.Events))
	}

	w = do(t, h, http.MethodGet, "/api/runs/"+runID+"/snapshots", "", nil)
	if list := decodeBody[[]storage.SnapshotRecord](t, w); len(list) != 1 || list[0].ID != rec.ID {
		t.Errorf("list = %+v", list)
	}

	if w := do(t, h, http.MethodGet, "/api/snapshots/missing", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing snapshot = %d, want 404", w.Code)
	}
}

func TestRoutes_DebugSessions(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Routes()
	live := playFirstFloor(t, srv)

	w := do(t, h, http.MethodGet, "/debug/sessions", "", nil)
	list := decodeBody[[]SessionSummary](t, w)
	if len(list) != 1 || list[0].ID != live.session.ID || list[0].Events != 5 || !list[0].Connected {
		t.Errorf("sessions = %+v", list)
	}

	w = do(t, h, http.MethodGet, "/debug/sessions/"+live.session.ID+"/events", "", nil)
	if events := decodeBody[[]domain.ReplayEvent](t, w); len(events) != 5 {
		t.Errorf("events = %d", len(events))
	}

	if w := do(t, h, http.MethodGet, "/debug/sessions/nope/diagnostics", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown session diagnostics = %d", w.Code)
	}
}

func TestWebSocket_RunAndResume(t *testing.T) {
	srv := newTestServer(t)
	srv.cfg.TickInterval = time.Millisecond
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	// handshake сразу с первой командой
	if err := conn.WriteJSON(command(t, api.ActionStartRun, startPayload())); err != nil {
		t.Fatal(err)
	}
	first := readMsg(t, conn)
	if first.Type != api.ResponseUpdate || first.SessionID == "" || first.Phase != "idle" {
		t.Fatalf("first message = %+v", first)
	}
	if msg := readMsg(t, conn); msg.Phase != "map" {
		t.Fatalf("after START_RUN phase = %q (%s)", msg.Phase, msg.Error)
	}
	sessionID := first.SessionID

	if err := conn.WriteJSON(command(t, api.ActionEnterRoom, api.FloorPayload{Floor: 0})); err != nil {
		t.Fatal(err)
	}
	if msg := readMsg(t, conn); msg.Phase == domain.PhaseBargain.String() {
		if err := conn.WriteJSON(command(t, api.ActionPickBargain, api.BargainPayload{Decline: true})); err != nil {
			t.Fatal(err)
		}
		readMsg(t, conn)
	}
	if err := conn.WriteJSON(command(t, api.ActionStartBattle, nil)); err != nil {
		t.Fatal(err)
	}

	turns := 0
	for {
		msg := readMsg(t, conn)
		if msg.Type == api.ResponseBattleTurn {
			turns++
			continue
		}
		if msg.Phase == domain.PhaseDraft.String() {
			break
		}
	}
	if turns == 0 {
		t.Error("battle turns were not streamed")
	}
	_ = conn.Close()

	// переподключение по токену возвращает ту же сессию
	conn2, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("redial: %v", err)
	}
	defer conn2.Close()
	if err := conn2.WriteJSON(api.ClientCommand{Token: sessionID}); err != nil {
		t.Fatal(err)
	}
	resumed := readMsg(t, conn2)
	if resumed.SessionID != sessionID || resumed.Phase != domain.PhaseDraft.String() {
		t.Errorf("resumed = %s/%s, want %s/draft", resumed.SessionID, resumed.Phase, sessionID)
	}
}

func readMsg(t *testing.T, conn *websocket.Conn) api.ServerResponse {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatal(err)
	}
	var msg api.ServerResponse
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}
