package testutil

import (
	"os"
	"testing"
)

// RequireIntegration skips t unless INTEGRATION=1.
func RequireIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("INTEGRATION") != "1" {
		t.Skip("Skipping integration test. Set INTEGRATION=1 to run.")
	}
}

// RequireEnv returns the named variables or skips t when any is unset.
func RequireEnv(t *testing.T, keys ...string) map[string]string {
	t.Helper()
	values := make(map[string]string, len(keys))
	for _, key := range keys {
		v := os.Getenv(key)
		if v == "" {
			t.Skipf("Skipping: %s not set", key)
		}
		values[key] = v
	}
	return values
}
