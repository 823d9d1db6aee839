package hydra

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lendora/lendora/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// transport owns a single duplex connection to a node. It is the only
// seam that knows whether events come from the wire or from the
// direct-mode synthesizer: callers observe the same dispatch sequence
// either way.
type transport struct {
	cfg      Config
	dispatch func(ports.HeadEvent)

	mtx       sync.Mutex
	conn      *websocket.Conn
	connected bool
	direct    bool
	recvDone  chan struct{}
	synth     *synthesizer
}

func newTransport(cfg Config, dispatch func(ports.HeadEvent)) *transport {
	return &transport{cfg: cfg, dispatch: dispatch}
}

func (t *transport) connect(ctx context.Context) (ports.ConnectResult, error) {
	if t.cfg.Mode == ModeDirectOnly {
		log.Info("direct mode configured, skipping node connection")
		t.enableDirect()
		return ports.ConnectResult{Connected: false, DirectMode: true}, nil
	}

	for attempt := 1; attempt <= t.cfg.ReconnectAttempts; attempt++ {
		log.WithField("url", t.cfg.NodeURL).Infof("connecting to node (attempt %d)", attempt)

		dialCtx, cancel := context.WithTimeout(ctx, t.cfg.ConnectionTimeout)
		conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, t.cfg.NodeURL, nil)
		cancel()
		if err == nil {
			done := make(chan struct{})

			t.mtx.Lock()
			t.conn = conn
			t.connected = true
			t.direct = false
			t.recvDone = done
			t.mtx.Unlock()

			go t.receiveLoop(conn, done)

			log.WithField("url", t.cfg.NodeURL).Info("connected to node")
			return ports.ConnectResult{Connected: true}, nil
		}

		log.WithError(err).Warnf("connection failed (attempt %d)", attempt)

		if attempt < t.cfg.ReconnectAttempts {
			select {
			case <-time.After(t.cfg.ReconnectDelay):
			case <-ctx.Done():
				return ports.ConnectResult{}, ctx.Err()
			}
		}
	}

	if t.cfg.Mode == ModeAuto {
		log.Warn("could not connect to node, falling back to direct mode")
		t.enableDirect()
		return ports.ConnectResult{Connected: false, DirectMode: true}, nil
	}

	return ports.ConnectResult{}, ports.ConnectionError{
		URL: t.cfg.NodeURL, Attempts: t.cfg.ReconnectAttempts,
	}
}

func (t *transport) enableDirect() {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.direct = true
	if t.synth == nil {
		t.synth = newSynthesizer(t.dispatch, t.cfg.DirectModeDelay, t.cfg.ContestationPeriod)
	}
}

// receiveLoop forwards each inbound frame to the dispatch function. It
// terminates on connection close or read error and does not retry:
// reconnection is a caller-initiated operation.
func (t *transport) receiveLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Warn("connection to node closed")
			}
			t.mtx.Lock()
			if t.conn == conn {
				t.connected = false
			}
			t.mtx.Unlock()
			return
		}

		event, err := decodeFrame(payload)
		if err != nil {
			log.WithError(err).Warn("dropping malformed frame")
			continue
		}
		t.dispatch(event)
	}
}

// send serializes outbound frames onto the single socket. In direct
// mode the command is handed to the synthesizer instead.
func (t *transport) send(cmd command) error {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	if t.direct {
		t.synth.handle(cmd)
		return nil
	}

	if !t.connected || t.conn == nil {
		return ports.NotConnectedError{Op: cmd.tag()}
	}

	payload, err := json.Marshal(cmd)
	if err != nil {
		return err
	}

	if t.cfg.MessageTimeout > 0 {
		// Best effort: a stuck socket should not wedge the caller.
		_ = t.conn.SetWriteDeadline(time.Now().Add(t.cfg.MessageTimeout))
	}
	if err := t.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return err
	}

	log.WithField("tag", cmd.tag()).Debug("sent command")
	return nil
}

// disconnect closes the socket, awaits the receive loop and stops the
// synthesizer. No event is dispatched after it returns. Safe to call
// even if connect never succeeded.
func (t *transport) disconnect(ctx context.Context) error {
	t.mtx.Lock()
	conn := t.conn
	done := t.recvDone
	synth := t.synth
	t.conn = nil
	t.connected = false
	t.direct = false
	t.synth = nil
	t.recvDone = nil
	t.mtx.Unlock()

	if synth != nil {
		synth.stop()
	}

	if conn == nil {
		return nil
	}

	deadline := time.Now().Add(time.Second)
	// Closing the underlying connection makes the receive loop's read
	// fail, which is its cooperative stop signal.
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		deadline,
	)
	if err := conn.Close(); err != nil {
		log.WithError(err).Warn("error closing connection")
	}

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	log.Info("disconnected from node")
	return nil
}

func (t *transport) status() (connected, direct bool) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.connected, t.direct
}
