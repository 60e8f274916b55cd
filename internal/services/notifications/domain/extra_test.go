package domain

import (
	"encoding/json"
	"testing"
)

func TestExtraData_JSONPreservesFieldOrder(t *testing.T) {
	t.Parallel()

	extra := ExtraData{
		{Key: "team_id", Value: "team-1"},
		{Key: "team_name", Value: "Translators"},
		{Key: "change_type", Value: "deactivated"},
		{Key: "reason", Value: ""},
	}

	raw, err := extra.JSON()
	if err != nil {
		t.Fatalf("serialize extra: %v", err)
	}
	want := `{"team_id":"team-1","team_name":"Translators","change_type":"deactivated","reason":""}`
	if raw != want {
		t.Fatalf("extra json = %s, want %s", raw, want)
	}
}

func TestExtraData_EmptySerializesAsEmptyObject(t *testing.T) {
	t.Parallel()

	raw, err := ExtraData(nil).JSON()
	if err != nil {
		t.Fatalf("serialize empty extra: %v", err)
	}
	if raw != "{}" {
		t.Fatalf("empty extra json = %s, want {}", raw)
	}
}

func TestParseExtraData_RoundTrip(t *testing.T) {
	t.Parallel()

	extra := ExtraData{
		{Key: "team_id", Value: "team-1"},
		{Key: "member_count", Value: json.Number("4")},
		{Key: "active", Value: true},
	}
	raw, err := extra.JSON()
	if err != nil {
		t.Fatalf("serialize extra: %v", err)
	}

	parsed, err := ParseExtraData(raw)
	if err != nil {
		t.Fatalf("parse extra: %v", err)
	}
	if len(parsed) != len(extra) {
		t.Fatalf("parsed fields = %d, want %d", len(parsed), len(extra))
	}
	for i, field := range extra {
		if parsed[i].Key != field.Key {
			t.Fatalf("field %d key = %q, want %q", i, parsed[i].Key, field.Key)
		}
		if parsed[i].Value != field.Value {
			t.Fatalf("field %d value = %v (%T), want %v (%T)", i, parsed[i].Value, parsed[i].Value, field.Value, field.Value)
		}
	}
}

func TestParseExtraData_EmptyAndInvalid(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "  ", "{}"} {
		parsed, err := ParseExtraData(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if parsed != nil {
			t.Fatalf("parse %q = %v, want nil", raw, parsed)
		}
	}

	if _, err := ParseExtraData(`["not","an","object"]`); err == nil {
		t.Fatal("expected error for non-object payload")
	}
}
