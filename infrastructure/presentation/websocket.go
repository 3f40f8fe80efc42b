package presentation

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ahrav/go-luckydraw/internal/domain"
	"github.com/ahrav/go-luckydraw/internal/ports"
)

var _ ports.Presenter = (*WebSocketPresenter)(nil)

// Message types exchanged with a browser reel.
const (
	MessageSpin    = "spin"
	MessageSettled = "settled"
)

// SpinMessage is sent to the browser to start a spin. The reel must come
// to rest on the last label of Sequence. Spin numbers each spin on the
// connection, starting at 1.
type SpinMessage struct {
	Type     string   `json:"type"`
	Spin     uint64   `json:"spin"`
	Sequence []string `json:"sequence"`
}

// ClientMessage is what the browser sends back. A spin completes when a
// message of type "settled" carrying its Spin number arrives; anything
// else is ignored.
type ClientMessage struct {
	Type string `json:"type"`
	Spin uint64 `json:"spin"`
}

// WebSocketPresenter drives a reel rendered in a browser. The host attaches
// the browser's connection; each Present sends the sequence and waits for
// the browser to report that the animation has settled. Without an
// attached connection every draw fails with
// domain.ErrPresentationTargetUnavailable.
type WebSocketPresenter struct {
	name      string
	writeWait time.Duration
	logger    *zap.Logger

	// presentMu serializes spins on the shared connection and guards
	// lastSpin.
	presentMu sync.Mutex
	lastSpin  uint64

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWebSocketPresenter creates a presenter with no connection attached.
func NewWebSocketPresenter(name string, logger *zap.Logger) *WebSocketPresenter {
	if name == "" {
		name = "websocket"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketPresenter{
		name:      name,
		writeWait: 5 * time.Second,
		logger:    logger.With(zap.String("presenter", name)),
	}
}

// Name implements ports.Presenter.
func (p *WebSocketPresenter) Name() string { return p.name }

// Attach makes conn the rendering target, closing any previous one.
func (p *WebSocketPresenter) Attach(conn *websocket.Conn) {
	p.mu.Lock()
	old := p.conn
	p.conn = conn
	p.mu.Unlock()

	if old != nil && old != conn {
		_ = old.Close()
	}
	p.logger.Debug("client attached", zap.String("remote", conn.RemoteAddr().String()))
}

// Detach closes and forgets the current connection, if any.
func (p *WebSocketPresenter) Detach() {
	p.mu.Lock()
	conn := p.conn
	p.conn = nil
	p.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

// Connected reports whether a browser is attached.
func (p *WebSocketPresenter) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn != nil
}

// Handler upgrades incoming requests and attaches the resulting
// connection.
func (p *WebSocketPresenter) Handler(upgrader *websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			p.logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		p.Attach(conn)
	}
}

// Present implements ports.Presenter.
func (p *WebSocketPresenter) Present(ctx context.Context, sequence []string) error {
	p.presentMu.Lock()
	defer p.presentMu.Unlock()

	p.mu.Lock()
	conn := p.conn
	p.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("%w: no client attached", domain.ErrPresentationTargetUnavailable)
	}

	if err := conn.SetWriteDeadline(time.Now().Add(p.writeWait)); err != nil {
		return p.fail(conn, err)
	}
	p.lastSpin++
	spin := p.lastSpin
	if err := conn.WriteJSON(SpinMessage{Type: MessageSpin, Spin: spin, Sequence: sequence}); err != nil {
		return p.fail(conn, err)
	}

	done := make(chan error, 1)
	go func() { done <- p.awaitSettled(conn, spin) }()

	select {
	case err := <-done:
		if err != nil {
			return p.fail(conn, err)
		}
		return nil
	case <-ctx.Done():
		// Unblock the reader. The connection is unusable after a read
		// error, so it is dropped.
		_ = conn.SetReadDeadline(time.Now())
		<-done
		p.drop(conn)
		return ctx.Err()
	}
}

// awaitSettled reads until the browser acknowledges spin. Acks for other
// spins, such as a duplicate left over from an earlier one, are skipped.
func (p *WebSocketPresenter) awaitSettled(conn *websocket.Conn, spin uint64) error {
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		return err
	}
	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		if msg.Type != MessageSettled {
			continue
		}
		if msg.Spin == spin {
			return nil
		}
		p.logger.Debug("ignoring ack for another spin",
			zap.Uint64("spin", spin), zap.Uint64("acked", msg.Spin))
	}
}

// fail drops conn and reports err as a lost rendering target.
func (p *WebSocketPresenter) fail(conn *websocket.Conn, err error) error {
	p.logger.Warn("client lost during spin", zap.Error(err))
	p.drop(conn)
	return fmt.Errorf("%w: %w", domain.ErrPresentationTargetUnavailable, err)
}

func (p *WebSocketPresenter) drop(conn *websocket.Conn) {
	p.mu.Lock()
	if p.conn == conn {
		p.conn = nil
	}
	p.mu.Unlock()
	_ = conn.Close()
}
