package hydra

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/lendora/lendora/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

type stateWaiter struct {
	target ports.HeadState
	ch     chan struct{}
}

type headClient struct {
	cfg Config
	tr  *transport

	mtx      sync.RWMutex
	state    ports.HeadState
	headID   string
	utxo     ports.UTxOSet
	handlers map[string][]ports.EventHandler
	waiters  []stateWaiter
}

// NewHeadClient returns a channel protocol client bound to a single
// node connection (or its direct-mode stand-in).
func NewHeadClient(cfg Config) (ports.HeadClient, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Mode.validate(); err != nil {
		return nil, err
	}

	c := &headClient{
		cfg:      cfg,
		state:    ports.HeadStateIdle,
		utxo:     make(ports.UTxOSet),
		handlers: make(map[string][]ports.EventHandler),
	}
	c.tr = newTransport(cfg, c.dispatchEvent)
	return c, nil
}

func (c *headClient) Connect(ctx context.Context) (ports.ConnectResult, error) {
	return c.tr.connect(ctx)
}

func (c *headClient) Disconnect(ctx context.Context) error {
	return c.tr.disconnect(ctx)
}

func (c *headClient) Init(ctx context.Context, contestationPeriod time.Duration) error {
	if contestationPeriod <= 0 {
		contestationPeriod = c.cfg.ContestationPeriod
	}

	c.mtx.Lock()
	switch c.state {
	case ports.HeadStateIdle:
	case ports.HeadStateFinal:
		// A new Init after Final starts a new channel lifecycle.
		c.state = ports.HeadStateIdle
		c.headID = ""
		c.utxo = make(ports.UTxOSet)
	default:
		state := c.state
		c.mtx.Unlock()
		return ports.InvalidStateError{Op: commandInit, State: state}
	}
	c.mtx.Unlock()

	return c.tr.send(initCommand{
		Tag:                commandInit,
		ContestationPeriod: int64(contestationPeriod.Seconds()),
	})
}

func (c *headClient) Commit(ctx context.Context, utxos []ports.UTxORef) error {
	if err := c.requireState(commandCommit, ports.HeadStateInitializing, ports.HeadStateOpen); err != nil {
		return err
	}

	utxoMap := make(map[string]json.RawMessage, len(utxos))
	for _, utxo := range utxos {
		value := utxo.Value
		if value == nil {
			value = json.RawMessage(`{}`)
		}
		utxoMap[utxo.String()] = value
	}

	return c.tr.send(commitCommand{Tag: commandCommit, UTxO: utxoMap})
}

func (c *headClient) SubmitTx(ctx context.Context, payload []byte) error {
	if err := c.requireState(commandNewTx, ports.HeadStateOpen); err != nil {
		return err
	}

	return c.tr.send(newTxCommand{
		Tag: commandNewTx,
		Transaction: txEnvelope{
			Type:    cardanoEraTag,
			CborHex: hex.EncodeToString(payload),
		},
	})
}

func (c *headClient) Close(ctx context.Context) error {
	if err := c.requireState(commandClose, ports.HeadStateOpen); err != nil {
		return err
	}
	return c.tr.send(tagOnlyCommand{Tag: commandClose})
}

func (c *headClient) Fanout(ctx context.Context) error {
	if err := c.requireState(
		commandFanout, ports.HeadStateClosed, ports.HeadStateFanoutPossible,
	); err != nil {
		return err
	}
	return c.tr.send(tagOnlyCommand{Tag: commandFanout})
}

func (c *headClient) RefreshUTxO(ctx context.Context) error {
	return c.tr.send(tagOnlyCommand{Tag: commandGetUTxO})
}

func (c *headClient) UTxOSnapshot() ports.UTxOSet {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	copied := make(ports.UTxOSet, len(c.utxo))
	for k, v := range c.utxo {
		copied[k] = v
	}
	return copied
}

func (c *headClient) HeadID() string {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.headID
}

func (c *headClient) State() ports.HeadState {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.state
}

func (c *headClient) Status() ports.HeadStatus {
	connected, direct := c.tr.status()
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return ports.HeadStatus{
		Connected:  connected,
		DirectMode: direct,
		State:      c.state,
		HeadID:     c.headID,
	}
}

func (c *headClient) On(tag string, handler ports.EventHandler) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.handlers[tag] = append(c.handlers[tag], handler)
}

// WaitForState blocks until the head reaches the target state, the
// context is cancelled or the configured transition timeout expires.
func (c *headClient) WaitForState(ctx context.Context, target ports.HeadState) error {
	c.mtx.Lock()
	if c.state == target {
		c.mtx.Unlock()
		return nil
	}
	waiter := stateWaiter{target: target, ch: make(chan struct{})}
	c.waiters = append(c.waiters, waiter)
	c.mtx.Unlock()

	timer := time.NewTimer(c.cfg.TransitionTimeout)
	defer timer.Stop()

	select {
	case <-waiter.ch:
		return nil
	case <-ctx.Done():
		c.removeWaiter(waiter.ch)
		return ctx.Err()
	case <-timer.C:
		c.removeWaiter(waiter.ch)
		c.mtx.RLock()
		state, headID := c.state, c.headID
		c.mtx.RUnlock()
		return ports.TransitionTimeoutError{Target: target, State: state, HeadID: headID}
	}
}

func (c *headClient) removeWaiter(ch chan struct{}) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	for i, w := range c.waiters {
		if w.ch == ch {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return
		}
	}
}

func (c *headClient) requireState(op string, allowed ...ports.HeadState) error {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	for _, s := range allowed {
		if c.state == s {
			return nil
		}
	}
	return ports.InvalidStateError{Op: op, State: c.state}
}

// dispatchEvent runs on the transport's receive goroutine (or the
// direct-mode worker). It applies state transitions, wakes waiters and
// invokes subscribers in arrival order.
func (c *headClient) dispatchEvent(event ports.HeadEvent) {
	tag := event.Tag()
	log.WithField("tag", tag).Debug("received event")

	c.mtx.Lock()
	switch e := event.(type) {
	case ports.HeadIsInitializingEvent:
		c.state = ports.HeadStateInitializing
		if len(e.HeadID) > 0 {
			c.headID = e.HeadID
		}
	case ports.HeadIsOpenEvent:
		c.state = ports.HeadStateOpen
		if len(e.HeadID) > 0 {
			c.headID = e.HeadID
		}
		if e.UTxO != nil {
			c.utxo = e.UTxO
		}
	case ports.HeadIsClosedEvent:
		c.state = ports.HeadStateClosed
	case ports.ReadyToFanoutEvent:
		c.state = ports.HeadStateFanoutPossible
	case ports.HeadIsFinalizedEvent:
		c.state = ports.HeadStateFinal
		if e.UTxO != nil {
			c.utxo = e.UTxO
		}
	case ports.CommittedEvent:
		if e.UTxO != nil {
			c.utxo = e.UTxO
		}
	case ports.GetUTxOResponseEvent:
		if e.UTxO != nil {
			c.utxo = e.UTxO
		}
	}

	remaining := c.waiters[:0]
	var woken []chan struct{}
	for _, w := range c.waiters {
		if w.target == c.state {
			woken = append(woken, w.ch)
			continue
		}
		remaining = append(remaining, w)
	}
	c.waiters = remaining

	handlers := append([]ports.EventHandler{}, c.handlers[tag]...)
	c.mtx.Unlock()

	for _, ch := range woken {
		close(ch)
	}

	for _, handler := range handlers {
		invokeHandler(tag, handler, event)
	}
}

// invokeHandler isolates subscriber failures: one panicking handler
// must not abort dispatch to the rest or kill the receive loop.
func invokeHandler(tag string, handler ports.EventHandler, event ports.HeadEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("tag", tag).Errorf("event handler panicked: %v", r)
		}
	}()
	handler(event)
}
