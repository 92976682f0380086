// internal/menu/recorder.go
package menu

import (
	"context"
	"sync"
)

// Op is one call made against a Native.
type Op struct {
	Kind string // "removeAll" | "create"
	Item ItemID
}

// Recorder is an in-memory Native. It keeps the resulting item list and the
// full call log, and is used when the hub runs without a browser attached.
type Recorder struct {
	mu    sync.Mutex
	items []Item
	ops   []Op
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) RemoveAll(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
	r.ops = append(r.ops, Op{Kind: "removeAll"})
	return nil
}

func (r *Recorder) Create(_ context.Context, item Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, item)
	r.ops = append(r.ops, Op{Kind: "create", Item: item.ID})
	return nil
}

// Items returns the entries currently present.
func (r *Recorder) Items() []Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Item(nil), r.items...)
}

// Ops returns every call in order.
func (r *Recorder) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Op(nil), r.ops...)
}
