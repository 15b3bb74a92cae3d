// Package config resolves runtime settings from the environment. A
// .env file, if present, is layered in by main before Load runs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Push channel modes.
const (
	PushModeSocket = "socket"
	PushModeKafka  = "kafka"
	PushModeOff    = "off"
)

// Config captures all runtime settings for the tip session service.
type Config struct {
	Port            string
	PaymentsBaseURL string
	CreatorID       string

	PushMode     string
	SocketURL    string
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	PollInterval    time.Duration
	PollMaxAttempts int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

const (
	defaultPort         = "8080"
	defaultKafkaTopic   = "streamtip.tip-events"
	defaultKafkaGroup   = "streamtip-session"
	defaultPollInterval = 5 * time.Second
	defaultPollBudget   = 12
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second
)

// Load resolves configuration from environment variables, falling back
// to defaults where a setting is optional.
func Load() (Config, error) {
	cfg := Config{
		Port:            defaultPort,
		PushMode:        PushModeSocket,
		KafkaTopic:      defaultKafkaTopic,
		KafkaGroupID:    defaultKafkaGroup,
		PollInterval:    defaultPollInterval,
		PollMaxAttempts: defaultPollBudget,
		ReadTimeout:     defaultReadTimeout,
		WriteTimeout:    defaultWriteTimeout,
	}

	cfg.PaymentsBaseURL = os.Getenv("PAYMENTS_BASE_URL")
	if cfg.PaymentsBaseURL == "" {
		return Config{}, fmt.Errorf("PAYMENTS_BASE_URL environment variable not set")
	}
	cfg.CreatorID = os.Getenv("CREATOR_ID")
	if cfg.CreatorID == "" {
		return Config{}, fmt.Errorf("CREATOR_ID environment variable not set")
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}

	if v := os.Getenv("PUSH_MODE"); v != "" {
		cfg.PushMode = strings.ToLower(strings.TrimSpace(v))
	}
	switch cfg.PushMode {
	case PushModeSocket:
		cfg.SocketURL = os.Getenv("SOCKET_URL")
		if cfg.SocketURL == "" {
			return Config{}, fmt.Errorf("SOCKET_URL environment variable not set (required for PUSH_MODE=socket)")
		}
	case PushModeKafka:
		brokers := os.Getenv("KAFKA_BROKERS")
		if brokers == "" {
			return Config{}, fmt.Errorf("KAFKA_BROKERS environment variable not set (required for PUSH_MODE=kafka)")
		}
		cfg.KafkaBrokers = splitAndTrim(brokers)
		if v := os.Getenv("KAFKA_TOPIC"); v != "" {
			cfg.KafkaTopic = v
		}
		if v := os.Getenv("KAFKA_GROUP_ID"); v != "" {
			cfg.KafkaGroupID = v
		}
	case PushModeOff:
	default:
		return Config{}, fmt.Errorf("invalid PUSH_MODE %q, must be socket, kafka or off", cfg.PushMode)
	}

	if v := os.Getenv("POLL_INTERVAL_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("invalid POLL_INTERVAL_SECONDS %q", v)
		}
		cfg.PollInterval = time.Duration(seconds) * time.Second
	}
	if v := os.Getenv("POLL_MAX_ATTEMPTS"); v != "" {
		attempts, err := strconv.Atoi(v)
		if err != nil || attempts <= 0 {
			return Config{}, fmt.Errorf("invalid POLL_MAX_ATTEMPTS %q", v)
		}
		cfg.PollMaxAttempts = attempts
	}

	return cfg, nil
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
