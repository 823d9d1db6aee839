package hydra

import (
	"fmt"
	"time"
)

const (
	// ModeAuto tries the node first and falls back to direct mode once
	// reconnect attempts are exhausted.
	ModeAuto ConnectionMode = "auto"
	// ModeRealOnly never falls back: connection failure is surfaced.
	ModeRealOnly ConnectionMode = "real"
	// ModeDirectOnly never dials a node.
	ModeDirectOnly ConnectionMode = "direct"
)

type ConnectionMode string

func (m ConnectionMode) validate() error {
	switch m {
	case ModeAuto, ModeRealOnly, ModeDirectOnly:
		return nil
	default:
		return fmt.Errorf("unknown connection mode %q", string(m))
	}
}

type Config struct {
	NodeURL            string
	ConnectionTimeout  time.Duration
	MessageTimeout     time.Duration
	ReconnectAttempts  int
	ReconnectDelay     time.Duration
	Mode               ConnectionMode
	TransitionTimeout  time.Duration
	ContestationPeriod time.Duration
	// DirectModeDelay simulates network latency between a command and
	// its synthesized event in direct mode.
	DirectModeDelay time.Duration
}

func (c Config) withDefaults() Config {
	if len(c.NodeURL) <= 0 {
		c.NodeURL = "ws://127.0.0.1:4001"
	}
	if c.ConnectionTimeout <= 0 {
		c.ConnectionTimeout = 10 * time.Second
	}
	if c.MessageTimeout <= 0 {
		c.MessageTimeout = 30 * time.Second
	}
	if c.ReconnectAttempts <= 0 {
		c.ReconnectAttempts = 3
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = 2 * time.Second
	}
	if len(c.Mode) <= 0 {
		c.Mode = ModeAuto
	}
	if c.TransitionTimeout <= 0 {
		c.TransitionTimeout = 10 * time.Second
	}
	if c.ContestationPeriod <= 0 {
		c.ContestationPeriod = 60 * time.Second
	}
	if c.DirectModeDelay <= 0 {
		c.DirectModeDelay = 100 * time.Millisecond
	}
	return c
}
