package fake

import "sync"

// Call is one recorded invocation of a fake's method.
type Call struct {
	Method string
	Args   []any
}

// CallRecorder collects the calls a fake receives. Fakes embed it and
// record from each method; tests read the log back with Calls or
// CallCount.
type CallRecorder struct {
	mu  sync.Mutex
	log []Call
}

func (r *CallRecorder) record(method string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, Call{Method: method, Args: args})
}

// Calls returns the recorded calls to method, in order. An empty
// method selects every call.
func (r *CallRecorder) Calls(method string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Call
	for _, c := range r.log {
		if method == "" || c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// CallCount returns how many times method was invoked.
func (r *CallRecorder) CallCount(method string) int {
	return len(r.Calls(method))
}

// Reset discards the recorded log.
func (r *CallRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = nil
}
