package platform

import (
	"runtime"
	"testing"
)

func TestFixedProbe(t *testing.T) {
	probe := Fixed{MacOS: true}
	if !probe.IsMacOS() {
		t.Error("Expected IsMacOS to be true")
	}
	if probe.IsWeb() || probe.IsIOS() || probe.IsAndroid() || probe.IsWindows() {
		t.Error("Expected all other answers to be false")
	}
}

func TestHostProbeMatchesGOOS(t *testing.T) {
	probe := Host()

	if probe.IsWeb() != (runtime.GOOS == "js" || runtime.GOOS == "wasip1") {
		t.Errorf("IsWeb disagrees with GOOS %s", runtime.GOOS)
	}
	if probe.IsWindows() != (runtime.GOOS == "windows") {
		t.Errorf("IsWindows disagrees with GOOS %s", runtime.GOOS)
	}
	if probe.IsMacOS() != (runtime.GOOS == "darwin") {
		t.Errorf("IsMacOS disagrees with GOOS %s", runtime.GOOS)
	}

	// At most one family can be reported at a time.
	count := 0
	for _, answer := range []bool{probe.IsWeb(), probe.IsIOS(), probe.IsAndroid(), probe.IsWindows(), probe.IsMacOS()} {
		if answer {
			count++
		}
	}
	if count > 1 {
		t.Errorf("Host probe reported %d platform families, want at most 1", count)
	}
}
