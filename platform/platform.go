// Package platform answers capability questions about the runtime the
// binary is hosted on. The session layer consults it in exactly two
// places: the filesystem guard on opening documents by path, and the
// WEBP format guard on rendering.
package platform

import "runtime"

// Probe reports which platform family the current runtime belongs to.
type Probe interface {
	IsWeb() bool
	IsIOS() bool
	IsAndroid() bool
	IsWindows() bool
	IsMacOS() bool
}

type hostProbe struct{}

// Host returns a Probe describing the platform this binary runs on,
// derived from the compile-time GOOS.
func Host() Probe { return hostProbe{} }

func (hostProbe) IsWeb() bool     { return runtime.GOOS == "js" || runtime.GOOS == "wasip1" }
func (hostProbe) IsIOS() bool     { return runtime.GOOS == "ios" }
func (hostProbe) IsAndroid() bool { return runtime.GOOS == "android" }
func (hostProbe) IsWindows() bool { return runtime.GOOS == "windows" }
func (hostProbe) IsMacOS() bool   { return runtime.GOOS == "darwin" }

// Fixed is a Probe with hard-wired answers, for tests and for callers
// that detect their environment some other way.
type Fixed struct {
	Web     bool
	IOS     bool
	Android bool
	Windows bool
	MacOS   bool
}

func (f Fixed) IsWeb() bool     { return f.Web }
func (f Fixed) IsIOS() bool     { return f.IOS }
func (f Fixed) IsAndroid() bool { return f.Android }
func (f Fixed) IsWindows() bool { return f.Windows }
func (f Fixed) IsMacOS() bool   { return f.MacOS }
