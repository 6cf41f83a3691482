package supervisor

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/ZerepL/smart-espresso/internal/supervisor/brew"
	"github.com/ZerepL/smart-espresso/internal/supervisor/health"
	"github.com/ZerepL/smart-espresso/internal/supervisor/link"
	"github.com/ZerepL/smart-espresso/internal/supervisor/report"
)

// Options collects every tunable cadence and threshold of the supervisor.
// The defaults are the firmware defaults; deployments normally override only
// the brew timings.
type Options struct {
	// TickInterval is the loop granularity. Every cadence in the system is
	// seconds or longer, so this only bounds watchdog feeding latency.
	TickInterval time.Duration `json:"tick-interval" mapstructure:"tick-interval"`

	// CheckpointInterval is how often the session brew count is folded into
	// the persisted all-time total.
	CheckpointInterval time.Duration `json:"checkpoint-interval" mapstructure:"checkpoint-interval"`

	// LivenessInterval is the cadence of the software liveness signal, the
	// coarser watchdog layered under the hardware one.
	LivenessInterval time.Duration `json:"liveness-interval" mapstructure:"liveness-interval"`

	// Brew timings.
	HeatDuration time.Duration `json:"heat-duration" mapstructure:"heat-duration"`
	StateTimeout time.Duration `json:"state-timeout" mapstructure:"state-timeout"`

	// Reporting.
	ReportInterval time.Duration `json:"report-interval" mapstructure:"report-interval"`
	ReportRetries  int           `json:"report-retries" mapstructure:"report-retries"`

	// Primary link.
	PrimaryRetryInterval time.Duration `json:"primary-retry-interval" mapstructure:"primary-retry-interval"`
	PrimaryFailThreshold uint32        `json:"primary-fail-threshold" mapstructure:"primary-fail-threshold"`

	// Broker link.
	BrokerRetryInterval  time.Duration `json:"broker-retry-interval" mapstructure:"broker-retry-interval"`
	BrokerConnectTimeout time.Duration `json:"broker-connect-timeout" mapstructure:"broker-connect-timeout"`
	BrokerFailThreshold  uint32        `json:"broker-fail-threshold" mapstructure:"broker-fail-threshold"`

	// Health monitor.
	HealthCheckInterval time.Duration `json:"health-check-interval" mapstructure:"health-check-interval"`
	PublishSilence      time.Duration `json:"publish-silence" mapstructure:"publish-silence"`
	BrokerSilence       time.Duration `json:"broker-silence" mapstructure:"broker-silence"`
	PrimaryAttemptLimit uint32        `json:"primary-attempt-limit" mapstructure:"primary-attempt-limit"`
	BrokerAttemptLimit  uint32        `json:"broker-attempt-limit" mapstructure:"broker-attempt-limit"`
	RolloverInterval    time.Duration `json:"rollover-interval" mapstructure:"rollover-interval"`
	MemorySysLimit      uint64        `json:"memory-sys-limit" mapstructure:"memory-sys-limit"`
}

// NewOptions returns the firmware default tuning.
func NewOptions() *Options {
	brewCfg := brew.DefaultConfig()
	prim := link.DefaultPrimaryConfig()
	brok := link.DefaultBrokerConfig()
	hlth := health.DefaultConfig()
	rep := report.DefaultConfig()

	return &Options{
		TickInterval:       50 * time.Millisecond,
		CheckpointInterval: 10 * time.Minute,
		LivenessInterval:   30 * time.Second,

		HeatDuration: brewCfg.HeatDuration,
		StateTimeout: brewCfg.StateTimeout,

		ReportInterval: rep.Interval,
		ReportRetries:  rep.Retries,

		PrimaryRetryInterval: prim.RetryInterval,
		PrimaryFailThreshold: prim.FailThreshold,

		BrokerRetryInterval:  brok.RetryInterval,
		BrokerConnectTimeout: brok.ConnectTimeout,
		BrokerFailThreshold:  brok.FailThreshold,

		HealthCheckInterval: hlth.CheckInterval,
		PublishSilence:      hlth.PublishSilence,
		BrokerSilence:       hlth.BrokerSilence,
		PrimaryAttemptLimit: hlth.PrimaryAttemptLimit,
		BrokerAttemptLimit:  hlth.BrokerAttemptLimit,
		RolloverInterval:    hlth.RolloverInterval,
	}
}

// Validate is provided for symmetry with the other options structs.
func (o *Options) Validate() []error {
	return nil
}

// AddFlags binds the supervisor tunables to the given FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.DurationVar(&o.TickInterval, "supervisor.tick-interval", o.TickInterval, "Granularity of the cooperative loop.")
	fs.DurationVar(&o.CheckpointInterval, "supervisor.checkpoint-interval", o.CheckpointInterval, "Cadence of brew-count checkpointing into retention memory.")
	fs.DurationVar(&o.LivenessInterval, "supervisor.liveness-interval", o.LivenessInterval, "Cadence of the software liveness signal.")

	fs.DurationVar(&o.HeatDuration, "brew.heat-duration", o.HeatDuration, "Boiler heat time before the pour starts.")
	fs.DurationVar(&o.StateTimeout, "brew.state-timeout", o.StateTimeout, "Safety bound on any non-idle brew state.")

	fs.DurationVar(&o.ReportInterval, "report.interval", o.ReportInterval, "Cadence of the outward status report.")
	fs.IntVar(&o.ReportRetries, "report.retries", o.ReportRetries, "Publish attempts per report cycle before giving up.")

	fs.DurationVar(&o.PrimaryRetryInterval, "link.primary-retry-interval", o.PrimaryRetryInterval, "Reconnect check cadence for the primary link.")
	fs.Uint32Var(&o.PrimaryFailThreshold, "link.primary-fail-threshold", o.PrimaryFailThreshold, "Consecutive primary link failures before a forced restart.")

	fs.DurationVar(&o.BrokerRetryInterval, "link.broker-retry-interval", o.BrokerRetryInterval, "Retry cadence for the broker link.")
	fs.DurationVar(&o.BrokerConnectTimeout, "link.broker-connect-timeout", o.BrokerConnectTimeout, "Bound on a single broker connection attempt.")
	fs.Uint32Var(&o.BrokerFailThreshold, "link.broker-fail-threshold", o.BrokerFailThreshold, "Consecutive broker failures before a forced restart.")

	fs.DurationVar(&o.HealthCheckInterval, "health.check-interval", o.HealthCheckInterval, "Cadence of the health monitor.")
	fs.DurationVar(&o.PublishSilence, "health.publish-silence", o.PublishSilence, "Max silence of successful status publishes before a forced restart.")
	fs.DurationVar(&o.BrokerSilence, "health.broker-silence", o.BrokerSilence, "Max silence of inbound broker activity before a forced restart.")
	fs.Uint32Var(&o.PrimaryAttemptLimit, "health.primary-attempt-limit", o.PrimaryAttemptLimit, "Cumulative primary reconnect count that forces a restart.")
	fs.Uint32Var(&o.BrokerAttemptLimit, "health.broker-attempt-limit", o.BrokerAttemptLimit, "Cumulative broker reconnect count that forces a restart.")
	fs.DurationVar(&o.RolloverInterval, "health.rollover-interval", o.RolloverInterval, "Cadence of the cumulative-counter rollover.")
	fs.Uint64Var(&o.MemorySysLimit, "health.memory-sys-limit", o.MemorySysLimit, "Runtime memory limit in bytes that forces a restart (0 disables).")
}

func (o *Options) brewConfig() brew.Config {
	return brew.Config{
		HeatDuration: o.HeatDuration,
		StateTimeout: o.StateTimeout,
	}
}

func (o *Options) primaryConfig() link.PrimaryConfig {
	return link.PrimaryConfig{
		RetryInterval: o.PrimaryRetryInterval,
		FailThreshold: o.PrimaryFailThreshold,
	}
}

func (o *Options) brokerConfig(identity Identity) link.BrokerConfig {
	return link.BrokerConfig{
		ClientID:       identity.ClientID,
		CommandTopic:   identity.CommandTopic,
		VerifyTopic:    identity.VerifyTopic,
		RetryInterval:  o.BrokerRetryInterval,
		ConnectTimeout: o.BrokerConnectTimeout,
		FailThreshold:  o.BrokerFailThreshold,
	}
}

func (o *Options) healthConfig() health.Config {
	return health.Config{
		CheckInterval:       o.HealthCheckInterval,
		PublishSilence:      o.PublishSilence,
		BrokerSilence:       o.BrokerSilence,
		PrimaryAttemptLimit: o.PrimaryAttemptLimit,
		BrokerAttemptLimit:  o.BrokerAttemptLimit,
		RolloverInterval:    o.RolloverInterval,
		MemorySysLimit:      o.MemorySysLimit,
	}
}

func (o *Options) reportConfig(identity Identity) report.Config {
	return report.Config{
		Topic:           identity.StatusTopic,
		Interval:        o.ReportInterval,
		Retries:         o.ReportRetries,
		FirmwareVersion: identity.FirmwareVersion,
	}
}
