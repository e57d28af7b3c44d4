package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"Task", KeyTask, "sass", Task("sass")},
		{"RunID", KeyRunID, "abc", RunID("abc")},
		{"Path", KeyPath, "sass/style.scss", Path("sass/style.scss")},
		{"Op", KeyOp, "WRITE", Op("WRITE")},
		{"Addr", KeyAddr, ":35729", Addr(":35729")},
		{"Error", KeyError, "boom", Error(errors.New("boom"))},
		{"NilError", KeyError, "", Error(nil)},
	}
	for _, c := range cases {
		if c.attr.Key != c.attrKey {
			t.Fatalf("%s: expected key %s got %s", c.name, c.attrKey, c.attr.Key)
		}
		if c.attr.Value.String() != c.attrVal {
			t.Fatalf("%s: expected value %s got %s", c.name, c.attrVal, c.attr.Value.String())
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if a := Files(3); a.Key != KeyFiles || a.Value.Int64() != 3 {
		t.Fatalf("unexpected files attr: %v", a)
	}
	if a := BytesSaved(1024); a.Key != KeyBytesSaved || a.Value.Int64() != 1024 {
		t.Fatalf("unexpected bytes attr: %v", a)
	}
	if a := Clients(2); a.Key != KeyClients || a.Value.Int64() != 2 {
		t.Fatalf("unexpected clients attr: %v", a)
	}
	if a := DurationMS(1.5); a.Key != KeyDurationMS || a.Value.Float64() != 1.5 {
		t.Fatalf("unexpected duration attr: %v", a)
	}
}
