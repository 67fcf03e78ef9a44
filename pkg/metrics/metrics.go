// Package metrics defines the minimal recorder interface the cache and
// rate-limit components emit their operational metrics through.
package metrics

// Recorder receives counters and timing observations. Implementations must be
// safe for concurrent use; they are called from request hot paths and should
// not block.
type Recorder interface {
	Add(name string, value float64, tags map[string]string)
	Observe(name string, value float64, tags map[string]string)
}

// NoOp is a recorder that does nothing.
// It ensures callers never have to check 'if recorder != nil' in the hot path.
type NoOp struct{}

func (NoOp) Add(name string, value float64, tags map[string]string)     {}
func (NoOp) Observe(name string, value float64, tags map[string]string) {}
