//go:build !profile

package profiler

func Init(capacity int) {}

var noop = func() {}

func Start(name string) func() { return noop }

func Dump(path string) error { return nil }
