package memory

import (
	"context"
	"sync"
	"time"
)

// Denylist keeps revoked token ids in process memory until they expire.
// Entries vanish on restart; use the redis denylist when that matters.
type Denylist struct {
	mu  sync.RWMutex
	now func() time.Time
	m   map[string]time.Time // jti -> expiry
}

func NewDenylist() *Denylist {
	return &Denylist{
		now: time.Now,
		m:   make(map[string]time.Time),
	}
}

// WithClock is for tests.
func (d *Denylist) WithClock(now func() time.Time) *Denylist {
	d.now = now
	return d
}

func (d *Denylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !until.After(d.now()) {
		return nil
	}

	d.mu.Lock()
	d.m[jti] = until
	d.mu.Unlock()

	d.sweep()
	return nil
}

func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	d.mu.RLock()
	exp, ok := d.m[jti]
	d.mu.RUnlock()
	if !ok {
		return false, nil
	}

	if !d.now().Before(exp) {
		d.mu.Lock()
		delete(d.m, jti)
		d.mu.Unlock()
		return false, nil
	}

	return true, nil
}

func (d *Denylist) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.m)
}

func (d *Denylist) sweep() {
	now := d.now()

	d.mu.Lock()
	for k, exp := range d.m {
		if !now.Before(exp) {
			delete(d.m, k)
		}
	}
	d.mu.Unlock()
}
