//go:build profile

package profiler

import (
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

// Frame-span profiler for the render thread. Build with -tags profile;
// without the tag every call compiles to a no-op.

type span struct {
	AtNS int64
	Name int
	Open bool
}

var (
	ready atomic.Bool
	buf   []span
	head  atomic.Int64
	names []string
	index map[string]int
)

// Init must be called once with a capacity (#span events).
// Example: profiler.Init(1 << 16)
func Init(capacity int) {
	if capacity <= 0 {
		capacity = 1 << 16
	}
	buf = make([]span, capacity)
	names = names[:0]
	index = map[string]int{}
	head.Store(0)
	ready.Store(true)
}

// Start begins a scope and returns an end func to be deferred.
func Start(name string) func() {
	if !ready.Load() {
		return func() {}
	}
	id := intern(name)
	begin := time.Now().UnixNano()
	push(span{AtNS: begin, Name: id, Open: true})
	return func() {
		end := time.Now().UnixNano()
		if end < begin {
			end = begin
		}
		push(span{AtNS: end, Name: id, Open: false})
	}
}

// Dump writes the recorded spans as a speedscope evented profile.
func Dump(path string) error {
	n := head.Load()
	if n == 0 {
		return fmt.Errorf("profiler: no events to dump")
	}
	if n > int64(len(buf)) {
		n = int64(len(buf))
	}

	type ev struct {
		Type  string `json:"type"`
		Frame int    `json:"frame"`
		At    int64  `json:"at"`
	}
	type frame struct {
		Name string `json:"name"`
	}

	events := make([]ev, 0, n)
	for _, s := range buf[:n] {
		t := "C"
		if s.Open {
			t = "O"
		}
		events = append(events, ev{Type: t, Frame: s.Name, At: s.AtNS})
	}
	frames := make([]frame, len(names))
	for i, name := range names {
		frames[i] = frame{Name: name}
	}

	doc := map[string]any{
		"$schema": "https://www.speedscope.app/file-format-schema.json",
		"shared":  map[string]any{"frames": frames},
		"profiles": []map[string]any{{
			"type":       "evented",
			"name":       "render thread",
			"unit":       "nanoseconds",
			"startValue": events[0].At,
			"endValue":   events[len(events)-1].At,
			"events":     events,
		}},
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func push(s span) {
	i := head.Add(1) - 1
	if int(i) < len(buf) {
		buf[i] = s
	}
}

func intern(name string) int {
	if id, ok := index[name]; ok {
		return id
	}
	id := len(names)
	names = append(names, name)
	index[name] = id
	return id
}
