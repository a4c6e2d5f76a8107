package netwatch

import (
	"log/slog"
	"net"
	"sync"
	"time"
)

// Watcher reports network reachability. IsConnected returns the last known
// value without blocking; subscribers are called on every transition.
type Watcher interface {
	IsConnected() bool
	Subscribe(fn func(connected bool)) (unsubscribe func())
}

// Prober determines reachability by periodically dialing a TCP address.
// The value starts out true and only changes once the first probe completes,
// so an early recording start is not rejected before anything is known.
type Prober struct {
	address  string
	interval time.Duration
	timeout  time.Duration

	mu        sync.Mutex
	connected bool
	subs      map[int]func(bool)
	nextSubID int
	stopChan  chan struct{}
	stopOnce  sync.Once

	// dial is swapped out in tests.
	dial func(address string, timeout time.Duration) error
}

// NewProber creates a prober for the given host:port. Call Start to begin
// probing and Stop to shut it down.
func NewProber(address string, interval, timeout time.Duration) *Prober {
	return &Prober{
		address:   address,
		interval:  interval,
		timeout:   timeout,
		connected: true,
		subs:      make(map[int]func(bool)),
		stopChan:  make(chan struct{}),
		dial:      dialTCP,
	}
}

func dialTCP(address string, timeout time.Duration) error {
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return err
	}
	return conn.Close()
}

// Start launches the probe loop. The first probe runs immediately.
func (p *Prober) Start() {
	go func() {
		p.probe()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.probe()
			case <-p.stopChan:
				return
			}
		}
	}()
}

// Stop terminates the probe loop. Safe to call more than once.
func (p *Prober) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopChan)
	})
}

func (p *Prober) probe() {
	if p.address == "" {
		return
	}
	err := p.dial(p.address, p.timeout)
	p.set(err == nil)
}

func (p *Prober) set(connected bool) {
	p.mu.Lock()
	changed := p.connected != connected
	p.connected = connected
	var fns []func(bool)
	if changed {
		for _, fn := range p.subs {
			fns = append(fns, fn)
		}
	}
	p.mu.Unlock()

	if changed {
		slog.Info("Connectivity changed", "connected", connected, "address", p.address)
		for _, fn := range fns {
			fn(connected)
		}
	}
}

func (p *Prober) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *Prober) Subscribe(fn func(connected bool)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextSubID
	p.nextSubID++
	p.subs[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

// Manual is a watcher whose value is set directly. Used in tests and as a
// stand-in when probing is disabled.
type Manual struct {
	mu        sync.Mutex
	connected bool
	subs      map[int]func(bool)
	nextSubID int
}

func NewManual(connected bool) *Manual {
	return &Manual{
		connected: connected,
		subs:      make(map[int]func(bool)),
	}
}

// Set updates the connectivity value and fires subscribers on a transition.
func (m *Manual) Set(connected bool) {
	m.mu.Lock()
	changed := m.connected != connected
	m.connected = connected
	var fns []func(bool)
	if changed {
		for _, fn := range m.subs {
			fns = append(fns, fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(connected)
	}
}

func (m *Manual) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *Manual) Subscribe(fn func(connected bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSubID
	m.nextSubID++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}
