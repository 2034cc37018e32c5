package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name string
		a    Value
		b    Value
		want bool
	}{
		{"equal strings", String("run"), String("run"), true},
		{"different strings", String("run"), String("jog"), false},
		{"string vs number", String("1"), Number(1), false},
		{"equal numbers", Number(42), Number(42), true},
		{"nulls", Null(), Null(), true},
		{"equal lists", List(String("a"), Number(1)), List(String("a"), Number(1)), true},
		{"reordered lists", List(String("a"), String("b")), List(String("b"), String("a")), false},
		{
			"equal maps",
			MapValue(map[string]Value{"x": Number(1)}),
			MapValue(map[string]Value{"x": Number(1)}),
			true,
		},
		{
			"maps with extra key",
			MapValue(map[string]Value{"x": Number(1)}),
			MapValue(map[string]Value{"x": Number(1), "y": Number(2)}),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValueCloneIsDeep(t *testing.T) {
	original := MapValue(map[string]Value{
		"tags": List(String("health")),
	})

	cloned := original.Clone()
	cloned.Map["tags"].List[0] = String("tampered")

	if !original.Map["tags"].List[0].Equal(String("health")) {
		t.Error("expected clone mutation to leave the original untouched")
	}
}

func TestValueJSONRoundTrip(t *testing.T) {
	raw := `{"title":"run","progress":55,"done":false,"tags":["health","running"],"meta":{"color":null}}`

	var v Value
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if v.Kind != KindMap {
		t.Fatalf("expected map value, got kind %d", v.Kind)
	}
	if !v.Map["progress"].Equal(Number(55)) {
		t.Errorf("expected numeric progress, got %+v", v.Map["progress"])
	}
	if !v.Map["meta"].Map["color"].Equal(Null()) {
		t.Errorf("expected null nested value, got %+v", v.Map["meta"].Map["color"])
	}

	encoded, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var again Value
	if err := json.Unmarshal(encoded, &again); err != nil {
		t.Fatalf("Unmarshal() round trip error = %v", err)
	}
	if !v.Equal(again) {
		t.Error("expected round-tripped value to equal the original")
	}
}

func TestAttributesTime(t *testing.T) {
	attrs := Attributes{
		"rfc3339": String("2026-02-03T04:05:06Z"),
		"unix":    Number(1770091506),
		"garbage": String("not a time"),
		"wrong":   Boolean(true),
	}

	got, ok := attrs.Time("rfc3339")
	if !ok {
		t.Fatal("expected RFC3339 string to parse")
	}
	want := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Time() = %v, want %v", got, want)
	}

	got, ok = attrs.Time("unix")
	if !ok {
		t.Fatal("expected unix-second number to parse")
	}
	if got.Unix() != 1770091506 {
		t.Errorf("Time() unix = %d, want 1770091506", got.Unix())
	}

	if _, ok := attrs.Time("garbage"); ok {
		t.Error("expected unparsable string to be rejected")
	}
	if _, ok := attrs.Time("wrong"); ok {
		t.Error("expected non-time kind to be rejected")
	}
	if _, ok := attrs.Time("absent"); ok {
		t.Error("expected missing key to be rejected")
	}
}

func TestSnapshotEqual(t *testing.T) {
	present := PresentSnapshot(Attributes{"title": String("run")})

	if !present.Equal(present.Clone()) {
		t.Error("expected snapshot to equal its clone")
	}
	if present.Equal(TombstoneSnapshot()) {
		t.Error("expected live copy to differ from tombstone")
	}

	// Deleted and never-existed both mean "no live copy here".
	if !TombstoneSnapshot().Equal(MissingSnapshot()) {
		t.Error("expected gone snapshots to equal each other")
	}
}
