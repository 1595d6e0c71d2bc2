package telemetry

import (
	"context"

	"github.com/petasbytes/ellie/internal/metrics"
)

// EmitReplyFeatures records size features of the user input and the outbound
// reply. Only counts are emitted, never raw text.
func EmitReplyFeatures(ctx context.Context, user, reply string) {
	if !ObserveEnabled() {
		return
	}
	turnID, _ := TurnIDFromContext(ctx)
	u := metrics.CountFeatures(user)
	r := metrics.CountFeatures(reply)
	Emit("reply_features", map[string]any{
		"turn_id":          turnID,
		"features_version": "1",
		"user":             featureMap(u),
		"reply":            featureMap(r),
	})
}

func featureMap(f metrics.Features) map[string]any {
	return map[string]any{
		"bytes":           f.Bytes,
		"runes":           f.Runes,
		"words":           f.Words,
		"lines":           f.Lines,
		"non_blank_lines": f.NonBlankLines,
	}
}
