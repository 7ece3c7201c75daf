package signalhandler

import "testing"

func TestGetOptimalProcs(t *testing.T) {
	if got := GetOptimalProcs(); got < 1 {
		t.Fatalf("GetOptimalProcs() = %d, want at least 1", got)
	}
}
