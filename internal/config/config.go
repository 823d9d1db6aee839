package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lendora/lendora/internal/infrastructure/hydra"
	"github.com/spf13/viper"
)

type Config struct {
	NodeURL            string
	ConnectionTimeout  time.Duration
	MessageTimeout     time.Duration
	ReconnectAttempts  int
	ReconnectDelay     time.Duration
	Mode               string
	TransitionTimeout  time.Duration
	ContestationPeriod time.Duration
	LogLevel           int
	NodesFile          string
	HealthInterval     time.Duration
	AcceptMargin       float64
	MaxRounds          int
}

func (c *Config) String() string {
	buf, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("error while marshalling config JSON: %s", err)
	}
	return string(buf)
}

var (
	NodeURL            = "NODE_URL"
	ConnectionTimeout  = "CONNECTION_TIMEOUT"
	MessageTimeout     = "MESSAGE_TIMEOUT"
	ReconnectAttempts  = "RECONNECT_ATTEMPTS"
	ReconnectDelay     = "RECONNECT_DELAY"
	Mode               = "MODE"
	TransitionTimeout  = "TRANSITION_TIMEOUT"
	ContestationPeriod = "CONTESTATION_PERIOD"
	LogLevel           = "LOG_LEVEL"
	NodesFile          = "NODES_FILE"
	HealthInterval     = "HEALTH_INTERVAL"
	AcceptMargin       = "ACCEPT_MARGIN"
	MaxRounds          = "MAX_ROUNDS"

	defaultNodeURL            = "ws://127.0.0.1:4001"
	defaultConnectionTimeout  = 10 * time.Second
	defaultMessageTimeout     = 30 * time.Second
	defaultReconnectAttempts  = 3
	defaultReconnectDelay     = 2 * time.Second
	defaultMode               = string(hydra.ModeAuto)
	defaultTransitionTimeout  = 10 * time.Second
	defaultContestationPeriod = 60 * time.Second
	defaultLogLevel           = 4
	defaultHealthInterval     = 30 * time.Second
	defaultAcceptMargin       = 0.5
	defaultMaxRounds          = 10

	supportedModes = map[string]struct{}{
		string(hydra.ModeAuto):       {},
		string(hydra.ModeRealOnly):   {},
		string(hydra.ModeDirectOnly): {},
	}
)

func LoadConfig() (*Config, error) {
	viper.SetEnvPrefix("LENDORA")
	viper.AutomaticEnv()

	viper.SetDefault(NodeURL, defaultNodeURL)
	viper.SetDefault(ConnectionTimeout, defaultConnectionTimeout)
	viper.SetDefault(MessageTimeout, defaultMessageTimeout)
	viper.SetDefault(ReconnectAttempts, defaultReconnectAttempts)
	viper.SetDefault(ReconnectDelay, defaultReconnectDelay)
	viper.SetDefault(Mode, defaultMode)
	viper.SetDefault(TransitionTimeout, defaultTransitionTimeout)
	viper.SetDefault(ContestationPeriod, defaultContestationPeriod)
	viper.SetDefault(LogLevel, defaultLogLevel)
	viper.SetDefault(HealthInterval, defaultHealthInterval)
	viper.SetDefault(AcceptMargin, defaultAcceptMargin)
	viper.SetDefault(MaxRounds, defaultMaxRounds)

	mode := viper.GetString(Mode)
	if _, ok := supportedModes[mode]; !ok {
		return nil, fmt.Errorf("connection mode must be one of auto, real, direct, got %q", mode)
	}

	return &Config{
		NodeURL:            viper.GetString(NodeURL),
		ConnectionTimeout:  viper.GetDuration(ConnectionTimeout),
		MessageTimeout:     viper.GetDuration(MessageTimeout),
		ReconnectAttempts:  viper.GetInt(ReconnectAttempts),
		ReconnectDelay:     viper.GetDuration(ReconnectDelay),
		Mode:               mode,
		TransitionTimeout:  viper.GetDuration(TransitionTimeout),
		ContestationPeriod: viper.GetDuration(ContestationPeriod),
		LogLevel:           viper.GetInt(LogLevel),
		NodesFile:          viper.GetString(NodesFile),
		HealthInterval:     viper.GetDuration(HealthInterval),
		AcceptMargin:       viper.GetFloat64(AcceptMargin),
		MaxRounds:          viper.GetInt(MaxRounds),
	}, nil
}

// HydraConfig maps the loaded configuration onto the channel client.
func (c *Config) HydraConfig() hydra.Config {
	return hydra.Config{
		NodeURL:            c.NodeURL,
		ConnectionTimeout:  c.ConnectionTimeout,
		MessageTimeout:     c.MessageTimeout,
		ReconnectAttempts:  c.ReconnectAttempts,
		ReconnectDelay:     c.ReconnectDelay,
		Mode:               hydra.ConnectionMode(c.Mode),
		TransitionTimeout:  c.TransitionTimeout,
		ContestationPeriod: c.ContestationPeriod,
	}
}
