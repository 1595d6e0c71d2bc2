package telemetry_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petasbytes/ellie/internal/metrics"
	"github.com/petasbytes/ellie/internal/telemetry"
)

func TestEmitReplyFeatures_HappyPath(t *testing.T) {
	base := t.TempDir()
	t.Setenv("ELLIE_ARTIFACTS_DIR", base)
	t.Setenv("ELLIE_OBSERVE_JSON", "1")

	ctx := telemetry.WithTurnID(context.Background(), "turn-xyz")
	user := "hey ellie  status\nreport"
	reply := "All sectors green."

	telemetry.EmitReplyFeatures(ctx, user, reply)

	m, err := readLastJSONL(t, base)
	if err != nil {
		t.Fatalf("read last jsonl: %v", err)
	}
	if m["event"] != "reply_features" || m["turn_id"] != "turn-xyz" || m["features_version"] != "1" {
		t.Fatalf("unexpected header fields: %#v", m)
	}

	want := metrics.CountFeatures(reply)
	r, ok := m["reply"].(map[string]any)
	if !ok {
		t.Fatalf("reply field missing or wrong type: %T", m["reply"])
	}
	if r["bytes"] != float64(want.Bytes) || r["runes"] != float64(want.Runes) ||
		r["words"] != float64(want.Words) || r["lines"] != float64(want.Lines) {
		t.Fatalf("reply features mismatch: got %#v, want %#v", r, want)
	}
	u := m["user"].(map[string]any)
	if u["lines"] != float64(2) || u["words"] != float64(4) {
		t.Fatalf("user features mismatch: %#v", u)
	}
}

func TestEmitReplyFeatures_NoRawTextLeakage(t *testing.T) {
	base := t.TempDir()
	t.Setenv("ELLIE_ARTIFACTS_DIR", base)
	t.Setenv("ELLIE_OBSERVE_JSON", "1")

	user := "secret launch codes"
	reply := "Denied, recruit."
	telemetry.EmitReplyFeatures(context.Background(), user, reply)

	b, err := os.ReadFile(filepath.Join(base, "events.jsonl"))
	if err != nil {
		t.Fatalf("read events: %v", err)
	}
	if strings.Contains(string(b), user) || strings.Contains(string(b), reply) {
		t.Fatalf("raw text found in events.jsonl")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(b))), &m); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if _, ok := m["text"]; ok {
		t.Fatalf("unexpected text field present in event")
	}
}
