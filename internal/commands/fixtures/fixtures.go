package fixtures

import "sync"

// RecordingRegistry captures command handlers handed to a registry during
// container wiring.
type RecordingRegistry struct {
	mu       sync.Mutex
	Handlers []any
	err      error
}

// NewRecordingRegistry constructs an empty registry recorder.
func NewRecordingRegistry() *RecordingRegistry {
	return &RecordingRegistry{
		Handlers: make([]any, 0),
	}
}

// Fail makes every later registration return err.
func (r *RecordingRegistry) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// RegisterCommand satisfies contentcmd.Registry while recording the handler.
func (r *RecordingRegistry) RegisterCommand(handler any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.Handlers = append(r.Handlers, handler)
	return nil
}

// Len reports how many handlers were recorded.
func (r *RecordingRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Handlers)
}
