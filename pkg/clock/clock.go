// Package clock abstrae la hora actual para poder fijarla en pruebas.
package clock

import (
	"sync"
	"time"
)

// Clock fuente de la hora actual.
type Clock interface {
	Now() time.Time
}

// System reloj del sistema.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fake reloj fijo que solo avanza con Advance.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

func NewFake(t time.Time) *Fake {
	return &Fake{now: t.UTC()}
}

func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Fake) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *Fake) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC()
}
