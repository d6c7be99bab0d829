package usage

import (
	"log/slog"
	"time"
)

// DefaultTimeout bounds each store round trip made by the resolver and the gate.
const DefaultTimeout = 3 * time.Second

// FailurePolicy decides CheckLimit's answer when the store is unavailable.
type FailurePolicy int

const (
	// FailClosed denies the action. Tenants may be wrongly blocked during an outage.
	FailClosed FailurePolicy = iota
	// FailOpen allows the action. Usage may overshoot the limit during an outage.
	FailOpen
)

func (p FailurePolicy) String() string {
	if p == FailOpen {
		return "fail_open"
	}
	return "fail_closed"
}

// Config is loaded from the environment with pkg/config.
type Config struct {
	Timeout     time.Duration `env:"USAGE_TIMEOUT" envDefault:"3s"`
	FailOpen    bool          `env:"USAGE_FAIL_OPEN" envDefault:"false"`
	RecordRetry bool          `env:"USAGE_RECORD_RETRY" envDefault:"false"`
}

type options struct {
	timeout     time.Duration
	policy      FailurePolicy
	recordRetry bool
	log         *slog.Logger
	metrics     *Metrics
}

// Option configures a Resolver or a Gate.
type Option func(*options)

func newOptions(opts []Option) options {
	o := options{
		timeout: DefaultTimeout,
		policy:  FailClosed,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithTimeout sets the per-call store timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func WithFailurePolicy(p FailurePolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithRecordRetry allows one retry of a failed increment. Increments carry no
// idempotency key, so a retry after a timeout that did reach the store counts twice.
func WithRecordRetry(enabled bool) Option {
	return func(o *options) { o.recordRetry = enabled }
}

func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithMetrics records decisions on m. Share one Metrics between resolver and gate.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// FromConfig applies timeout, failure policy and retry settings from cfg.
func FromConfig(cfg Config) Option {
	return func(o *options) {
		WithTimeout(cfg.Timeout)(o)
		if cfg.FailOpen {
			o.policy = FailOpen
		} else {
			o.policy = FailClosed
		}
		o.recordRetry = cfg.RecordRetry
	}
}
