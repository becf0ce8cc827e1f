package tx

import (
	"context"
	"sync"
)

type memoryTxKey struct{}

// memoryUnit is one unit of work in flight. Stores register undo steps on it
// while they write.
type memoryUnit struct {
	owner *MemoryTx
	undo  []func()
}

// MemoryTx serializes units of work against in-memory stores with one mutex.
// Nested calls on the same context do not re-acquire the lock.
//
// When fn fails, the undo steps registered through OnRollback run in reverse
// order. Writes made by stores that never call OnRollback are not undone.
type MemoryTx struct {
	mu sync.Mutex
}

func NewMemoryTx() *MemoryTx {
	return &MemoryTx{}
}

func (m *MemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if u, ok := ctx.Value(memoryTxKey{}).(*memoryUnit); ok && u.owner == m {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	u := &memoryUnit{owner: m}
	if err := fn(context.WithValue(ctx, memoryTxKey{}, u)); err != nil {
		for i := len(u.undo) - 1; i >= 0; i-- {
			u.undo[i]()
		}
		return err
	}
	return nil
}

// OnRollback registers undo with the in-memory unit of work carried by ctx.
// Outside a unit of work it does nothing.
func OnRollback(ctx context.Context, undo func()) {
	if u, ok := ctx.Value(memoryTxKey{}).(*memoryUnit); ok {
		u.undo = append(u.undo, undo)
	}
}
