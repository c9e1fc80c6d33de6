package storage

import (
	"ascension-server/internal/domain"
	"ascension-server/pkg/logger"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func sampleReplay(t *testing.T) *ReplayFile {
	t.Helper()
	payloads := []domain.ReplayPayload{
		domain.RunStartPayload{RunID: "r1", Seed: domain.F64Ptr(77), OriginPathID: "ember", RunPathID: "gale", HPMax: domain.IntPtr(120)},
		domain.EnterRoomPayload{FloorIndex: domain.IntPtr(0), RoomKind: "battle"},
		domain.BattleStartPayload{FloorIndex: domain.IntPtr(0), EnemyID: "ash-hound", BattleSeed: domain.U32Ptr(123456)},
		domain.BattleEndPayload{Outcome: "victory", Turns: domain.IntPtr(9), HPAfter: domain.IntPtr(101), SkillTurns: []int{2}},
		domain.DraftPickPayload{OptionIndex: domain.IntPtr(1), OptionID: "rest"},
	}
	rf := &ReplayFile{Seed: 77, Timestamp: 1700000000000}
	for _, p := range payloads {
		ev, err := domain.NewReplayEvent(p)
		if err != nil {
			t.Fatal(err)
		}
		rf.Events = append(rf.Events, ev)
	}
	return rf
}

func TestCodec_RoundTrip(t *testing.T) {
	rf := sampleReplay(t)
	var buf bytes.Buffer
	if err := Encode(&buf, rf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte(MagicHeader)) {
		t.Fatal("file must start with magic")
	}
	// 4+4+4+8+4 байт заголовка
	if size := binary.Size(ReplayFileHeader{}); size != 24 {
		t.Errorf("header size = %d, want 24", size)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, rf) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, rf)
	}
}

func TestDecode_Rejects(t *testing.T) {
	var good bytes.Buffer
	if err := Encode(&good, sampleReplay(t)); err != nil {
		t.Fatal(err)
	}
	raw := good.Bytes()

	badMagic := append([]byte("NOPE"), raw[4:]...)

	badVersion := append([]byte(nil), raw...)
	binary.LittleEndian.PutUint32(badVersion[4:8], 9)

	badType := append([]byte(nil), raw...)
	badType[24] = 200 // тип первой записи

	tests := []struct {
		name string
		data []byte
		want error
		msg  string
	}{
		{"Magic", badMagic, ErrInvalidMagic, ""},
		{"Version", badVersion, domain.ErrVersionMismatch, ""},
		{"Unknown event type", badType, nil, "unknown type code 200"},
		{"Truncated", raw[:len(raw)-3], nil, "payload"},
		{"Empty", nil, nil, "failed to read header"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tt.data))
			if err == nil {
				t.Fatal("want error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if tt.msg != "" && !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("err = %v, want %q", err, tt.msg)
			}
		})
	}
}

func TestEncode_Rejects(t *testing.T) {
	unknown := &ReplayFile{Events: []domain.ReplayEvent{{V: 1, T: "teleport"}}}
	if err := Encode(&bytes.Buffer{}, unknown); err == nil {
		t.Error("unknown event type must not be stored")
	}

	huge := &ReplayFile{Events: []domain.ReplayEvent{{V: 1, T: "runStart", Payload: make([]byte, 70000)}}}
	if err := Encode(&bytes.Buffer{}, huge); err == nil || !strings.Contains(err.Error(), "too long") {
		t.Errorf("oversized payload: %v", err)
	}
}

func TestReplayService_SaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "replays")
	svc, err := NewReplayService(dir)
	if err != nil {
		t.Fatal(err)
	}
	rf := sampleReplay(t)

	path, err := svc.Save("r1", rf)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Ext(path) != FileExt || filepath.Dir(path) != dir {
		t.Errorf("unexpected path %s", path)
	}

	got, err := svc.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, rf) {
		t.Error("loaded replay differs")
	}
}

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_Snapshots(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	clock := time.UnixMilli(1700000000000)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	snap := domain.RunSnapshot{
		SnapshotVersion: domain.SnapshotVersion,
		Seed:            9,
		Phase:           domain.PhaseMap,
		FloorIndex:      2,
		Run:             domain.AscensionRunState{RunID: "run-a", Seed: 9, FloorIndex: 2, HPMax: 100, HPCurrent: 80},
	}
	first, err := s.SaveSnapshot(ctx, snap)
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	snap.FloorIndex, snap.Run.FloorIndex = 3, 3
	second, err := s.SaveSnapshot(ctx, snap)
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.GetSnapshot(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if got.RunID != "run-a" || got.Floor != 2 || !bytes.Equal(got.Body, first.Body) {
		t.Errorf("stored record = %+v", got)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("created at %v, want %v", got.CreatedAt, first.CreatedAt)
	}

	list, err := s.ListSnapshots(ctx, "run-a")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("list must be newest first: %+v", list)
	}
	if list[0].Body != nil {
		t.Error("list must not carry bodies")
	}

	if _, err := s.GetSnapshot(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing snapshot: %v", err)
	}
}

func TestSQLiteStore_Replays(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	rf := sampleReplay(t)

	rec, err := s.SaveReplay(ctx, "run-b", rf)
	if err != nil {
		t.Fatalf("SaveReplay: %v", err)
	}
	if rec.EventCount != len(rf.Events) || rec.Seed != 77 {
		t.Errorf("record = %+v", rec)
	}

	got, decoded, err := s.GetReplay(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetReplay: %v", err)
	}
	if got.RunID != "run-b" || !reflect.DeepEqual(decoded, rf) {
		t.Error("stored replay differs")
	}
	if _, _, err := s.GetReplay(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing replay: %v", err)
	}

	// повторная миграция безопасна
	if err := s.Migrate(ctx); err != nil {
		t.Errorf("second Migrate: %v", err)
	}
}
