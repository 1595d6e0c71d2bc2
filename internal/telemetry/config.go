package telemetry

import (
	"os"
)

var observeEnabled bool

func init() {
	// Read once at process start. Mid-run environment changes have no effect
	// except the explicit test override in ObserveEnabled.
	observeEnabled = os.Getenv("ELLIE_OBSERVE_JSON") == "1"
}

// ObserveEnabled reports whether JSONL emission is enabled.
func ObserveEnabled() bool {
	// Preserve startup-evaluated default, but allow tests to enable mid-run via env override.
	if os.Getenv("ELLIE_OBSERVE_JSON") == "1" {
		return true
	}
	return observeEnabled
}

// ArtifactsDir is where events.jsonl is written (ELLIE_ARTIFACTS_DIR, default .ellie).
func ArtifactsDir() string {
	if v := os.Getenv("ELLIE_ARTIFACTS_DIR"); v != "" {
		return v
	}
	return ".ellie"
}
