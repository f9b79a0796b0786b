package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var ErrMethodNotFound = errors.New("method not found")

// Method handles a function call. The returned value is JSON-encoded into
// the stage result.
type Method func(ctx context.Context, call Call) (any, error)

// Router resolves function calls by the code installed on the receiver and
// the method name.
type Router struct {
	mu      sync.RWMutex
	methods map[string]map[string]Method
}

func NewRouter() *Router {
	return &Router{methods: map[string]map[string]Method{}}
}

func (r *Router) Handle(code, method string, fn Method) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.methods[code] == nil {
		r.methods[code] = map[string]Method{}
	}
	r.methods[code][method] = fn
}

func (r *Router) Dispatch(ctx context.Context, code string, call Call) (json.RawMessage, error) {
	r.mu.RLock()
	fn, ok := r.methods[code][call.Method]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s on code %q", ErrMethodNotFound, call.Method, code)
	}

	v, err := fn(ctx, call)
	if err != nil {
		return nil, err
	}

	if v == nil {
		return nil, nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", call.Method, err)
	}

	return b, nil
}
