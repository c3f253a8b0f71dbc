package onebot

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ConnectionName is the registry key the live gateway connection is published
// under. There is exactly one gateway connection per process.
const ConnectionName = "onebot"

// Registry holds live gateway connections, shared between the connection
// manager (sole writer), the send path and the status endpoint.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*websocket.Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*websocket.Conn)}
}

func (r *Registry) put(name string, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[name] = conn
}

func (r *Registry) remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, name)
}

func (r *Registry) get(name string) *websocket.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conns[name]
}

// Connected reports whether a live connection is registered under name.
func (r *Registry) Connected(name string) bool {
	return r.get(name) != nil
}

// RestartPolicy governs how a background loop restarts after a failure.
// Attempts are unbounded; the gateway is meant to stay connected forever.
type RestartPolicy struct {
	Delay time.Duration
}

var DefaultRestartPolicy = RestartPolicy{Delay: 5 * time.Second}

// Manager owns the persistent connection to the OneBot gateway: it dials with
// the auth header, pumps inbound frames into the dispatcher and redials after
// any failure.
type Manager struct {
	url        string
	token      string
	registry   *Registry
	dispatcher *Dispatcher
	policy     RestartPolicy

	writeMu sync.Mutex
}

func NewManager(url, token string, registry *Registry, dispatcher *Dispatcher) *Manager {
	return &Manager{
		url:        url,
		token:      token,
		registry:   registry,
		dispatcher: dispatcher,
		policy:     DefaultRestartPolicy,
	}
}

// SetRestartPolicy overrides the reconnect delay. Useful in tests.
func (m *Manager) SetRestartPolicy(p RestartPolicy) { m.policy = p }

// Run connects and pumps frames until ctx is cancelled. Every connection
// failure degrades to log-wait-redial; Run never returns an error.
func (m *Manager) Run(ctx context.Context) {
	for {
		if err := m.connectAndPump(ctx); err != nil {
			log.Printf("❌ gateway connection lost: %v", err)
		}
		if ctx.Err() != nil {
			return
		}
		log.Printf("reconnecting to gateway in %s...", m.policy.Delay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.policy.Delay):
		}
	}
}

func (m *Manager) connectAndPump(ctx context.Context) error {
	header := http.Header{}
	if m.token != "" {
		header.Set("Authorization", "Bearer "+m.token)
	}

	log.Printf("connecting to OneBot gateway at %s", m.url)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, m.url, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial: %w (handshake status %s)", err, resp.Status)
		}
		return fmt.Errorf("dial: %w", err)
	}
	log.Printf("✅ connected to OneBot gateway")

	m.registry.put(ConnectionName, conn)
	defer func() {
		m.registry.remove(ConnectionName)
		_ = conn.Close()
	}()

	// Unblock the read loop when the process shuts down.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Printf("⚠️ dropping unparseable frame: %v", err)
			continue
		}
		m.dispatcher.Dispatch(ctx, ev)
	}
}

// Send marshals and writes an action on the live connection. Delivery is
// at-most-once: without a live connection the action is logged and dropped,
// there is no queueing across reconnects.
func (m *Manager) Send(a Action) {
	conn := m.registry.get(ConnectionName)
	if conn == nil {
		log.Printf("⚠️ gateway connection unavailable, dropping %s action", a.Action)
		return
	}

	data, err := json.Marshal(a)
	if err != nil {
		log.Printf("❌ failed to marshal action: %v", err)
		return
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("❌ failed to send action: %v", err)
		return
	}
	log.Printf("sent %s action", a.Action)
}
