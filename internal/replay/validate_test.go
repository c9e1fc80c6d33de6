package replay

import (
	"ascension-server/internal/domain"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestValidate_CollectsAllViolations(t *testing.T) {
	events := []domain.ReplayEvent{
		{V: 2, T: "runStart", Payload: json.RawMessage(`{}`)},
		{V: 1, T: "teleport", Payload: json.RawMessage(`{}`)},
		{V: 1, T: "draftPick", Payload: json.RawMessage(`{"optionIndex":-1}`)},
		{V: 1, T: "battleEnd", Payload: json.RawMessage(`{"outcome":"draw","turns":3}`)},
	}

	err := Validate(events)
	var schema *domain.SchemaError
	if !errors.As(err, &schema) {
		t.Fatalf("want schema error, got %v", err)
	}

	// версия + 5 полей runStart + тип + 2 в draftPick + 2 в battleEnd
	if len(schema.Violations) != 11 {
		t.Fatalf("got %d violations, want 11:\n%s", len(schema.Violations), strings.Join(schema.Violations, "\n"))
	}
	for _, want := range []string{
		"event #0: version 2",
		"event #0 (runStart): seed is required",
		"event #0 (runStart): hpMax is required",
		`event #1: unknown type "teleport"`,
		"event #2 (draftPick): optionIndex must be >= 0",
		"event #2 (draftPick): optionId is required",
		`event #3 (battleEnd): unknown outcome "draw"`,
		"event #3 (battleEnd): hpAfter is required",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("missing violation %q", want)
		}
	}
}

func TestValidate_Ordering(t *testing.T) {
	start := json.RawMessage(`{"runId":"r","seed":1,"originPathId":"ember","runPathId":"gale","hpMax":100}`)

	tests := []struct {
		name   string
		events []domain.ReplayEvent
		want   string
	}{
		{"Empty", nil, "no events"},
		{
			"Must open with runStart",
			[]domain.ReplayEvent{{V: 1, T: "enterRoom", Payload: json.RawMessage(`{"floorIndex":0,"roomKind":"battle"}`)}},
			"must start with runStart",
		},
		{
			"Second runStart",
			[]domain.ReplayEvent{{V: 1, T: "runStart", Payload: start}, {V: 1, T: "runStart", Payload: start}},
			"only allowed as the first event",
		},
		{
			"Missing payload",
			[]domain.ReplayEvent{{V: 1, T: "runStart"}},
			"payload is required",
		},
		{
			"Bad room kind",
			[]domain.ReplayEvent{
				{V: 1, T: "runStart", Payload: start},
				{V: 1, T: "enterRoom", Payload: json.RawMessage(`{"floorIndex":0,"roomKind":"library"}`)},
			},
			`unknown room kind "library"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.events)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}

	if err := Validate([]domain.ReplayEvent{{V: 1, T: "runStart", Payload: start}}); err != nil {
		t.Errorf("valid replay rejected: %v", err)
	}
}

func TestBargainPickPayload_Validate(t *testing.T) {
	tests := []struct {
		name  string
		index *int
		id    *string
		ok    bool
	}{
		{"Accept", domain.IntPtr(1), domain.StrPtr("cinder-heart"), true},
		{"Decline", domain.IntPtr(-1), domain.StrPtr(""), true},
		{"Decline with id", domain.IntPtr(-1), domain.StrPtr("cinder-heart"), false},
		{"Accept without id", domain.IntPtr(0), domain.StrPtr(""), false},
		{"Index below -1", domain.IntPtr(-2), domain.StrPtr(""), false},
		{"Missing fields", nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := domain.BargainPickPayload{OptionIndex: tt.index, UpgradeID: tt.id}.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}
