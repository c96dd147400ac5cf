package analyzer

import (
	"io"
	"log/slog"
	"time"

	"github.com/rfbench/aa30gw/rf"
)

const (
	// DefaultBaudRate is the AA-30 line rate.
	DefaultBaudRate = 38400

	// DefaultReadTimeout bounds each blocking read on the transport. It is
	// the only timeout granularity in the protocol: a sweep may run
	// arbitrarily long as long as the device keeps producing lines.
	DefaultReadTimeout = 3 * time.Second

	// DefaultSettleDelay is how long the RF board needs after power-on
	// before it accepts further commands.
	DefaultSettleDelay = 200 * time.Millisecond
)

// DefaultReferenceImpedance is the impedance sweeps are derived against
// unless the config overrides it.
const DefaultReferenceImpedance = rf.DefaultZ0

// Config carries everything a Session needs besides the device itself.
type Config struct {
	// Dialer opens the transport to the analyzer. Required.
	Dialer Dialer
	// ReadTimeout is the per-read deadline applied to the transport when it
	// supports one (serial ports do).
	ReadTimeout time.Duration
	// SettleDelay is the pause after a successful power-on command.
	SettleDelay time.Duration
	// ReferenceImpedance is the z0 used for reflection-coefficient math.
	ReferenceImpedance complex128
	// Logger receives protocol-level events. Defaults to a discard logger.
	Logger *slog.Logger
}

func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = DefaultSettleDelay
	}
	if c.ReferenceImpedance == 0 {
		c.ReferenceImpedance = DefaultReferenceImpedance
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}

// ConfigBuilder builds a Config fluently.
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.Dialer = d
	return b
}

func (b *ConfigBuilder) WithReadTimeout(t time.Duration) *ConfigBuilder {
	b.config.ReadTimeout = t
	return b
}

func (b *ConfigBuilder) WithSettleDelay(d time.Duration) *ConfigBuilder {
	b.config.SettleDelay = d
	return b
}

func (b *ConfigBuilder) WithReferenceImpedance(z0 complex128) *ConfigBuilder {
	b.config.ReferenceImpedance = z0
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.Logger = l
	return b
}

func (b *ConfigBuilder) Build() (Config, error) {
	if err := b.config.validate(); err != nil {
		return Config{}, err
	}
	b.config.setDefaults()
	return b.config, nil
}
