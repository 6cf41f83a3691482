// Package report publishes the periodic status record: counters, connection
// flags, memory figures and the full restart history. Outcomes of commands
// are only observable through these reports; there is no response path.
package report

import (
	"encoding/json"
	"runtime"
	"time"

	"github.com/ZerepL/smart-espresso/internal/pkg/metrics"
	"github.com/ZerepL/smart-espresso/internal/supervisor/clock"
	"github.com/ZerepL/smart-espresso/internal/supervisor/core"
	"github.com/ZerepL/smart-espresso/internal/supervisor/link"
	"github.com/ZerepL/smart-espresso/internal/supervisor/store"
	"github.com/ZerepL/smart-espresso/pkg/log"
)

// Publisher is the outward side of the broker link the reporter uses.
type Publisher interface {
	Publish(topic string, payload []byte) bool
}

// BrewInfo is the slice of the brew machine the report includes.
type BrewInfo interface {
	State() string
}

// PrimaryInfo is the slice of the primary link manager the report includes.
type PrimaryInfo interface {
	State() link.State
	Address() string
	CumulativeAttempts() uint32
}

// BrokerInfo is the slice of the broker link manager the report includes.
type BrokerInfo interface {
	State() link.State
	CumulativeAttempts() uint32
}

// RecordSource yields the current persisted restart record.
type RecordSource interface {
	Record() store.RestartRecord
}

// Config tunes the reporting cadence.
type Config struct {
	// Topic the status record is published to.
	Topic string

	// Interval between reports.
	Interval time.Duration

	// Retries bounds publish attempts within one cadence tick.
	Retries int

	// FirmwareVersion is stamped into every report.
	FirmwareVersion string
}

// DefaultConfig matches the firmware defaults: one report a minute, three
// tries per cycle.
func DefaultConfig() Config {
	return Config{
		Interval: 60 * time.Second,
		Retries:  3,
	}
}

// StatusReport is the published record.
type StatusReport struct {
	FirmwareVersion string `json:"firmwareVersion,omitempty"`
	BootTime        string `json:"bootTime"`
	UptimeMs        uint32 `json:"uptimeMs"`

	BrewState        string `json:"brewState"`
	BrewCountSession uint32 `json:"brewCountSession"`
	BrewCountAllTime uint32 `json:"brewCountAllTime"`

	PrimaryLink LinkReport `json:"primaryLink"`
	BrokerLink  LinkReport `json:"brokerLink"`

	Memory MemoryReport `json:"memory"`

	Restarts RestartReport `json:"restarts"`
}

// LinkReport describes one managed link.
type LinkReport struct {
	State    string `json:"state"`
	Address  string `json:"address,omitempty"`
	Attempts uint32 `json:"attempts"`
}

// MemoryReport carries the Go runtime memory figures.
type MemoryReport struct {
	Alloc uint64 `json:"alloc"`
	Sys   uint64 `json:"sys"`
	NumGC uint32 `json:"numGC"`
}

// RestartReport carries the persisted restart history.
type RestartReport struct {
	Total      uint32            `json:"total"`
	LastReason string            `json:"lastReason"`
	ByReason   map[string]uint32 `json:"byReason"`
}

// Reporter assembles and publishes the status record on its cadence.
type Reporter struct {
	cfg       Config
	clk       clock.Clock
	session   *core.Session
	publisher Publisher
	brew      BrewInfo
	primary   PrimaryInfo
	broker    BrokerInfo
	records   RecordSource
	logger    log.Logger

	bootTime time.Time
	lastTick clock.Ticks
	ticked   bool
}

// NewReporter wires the reporter to everything it reads.
func NewReporter(cfg Config, clk clock.Clock, session *core.Session, publisher Publisher, brew BrewInfo, primary PrimaryInfo, broker BrokerInfo, records RecordSource, logger log.Logger) *Reporter {
	return &Reporter{
		cfg:       cfg,
		clk:       clk,
		session:   session,
		publisher: publisher,
		brew:      brew,
		primary:   primary,
		broker:    broker,
		records:   records,
		logger:    logger.WithName("report"),
		bootTime:  time.Now(),
	}
}

// Tick publishes a status record when the cadence has elapsed, retrying a
// failed publish up to the configured bound before giving up for this cycle.
// The Prometheus mirror is refreshed every cadence tick regardless.
func (r *Reporter) Tick() {
	now := r.clk.Now()
	if r.ticked && !clock.Elapsed(r.clk, r.lastTick, r.cfg.Interval) {
		return
	}
	r.ticked = true
	r.lastTick = now

	rep := r.build(now)
	r.mirror(rep)

	payload, err := json.Marshal(rep)
	if err != nil {
		r.logger.Error(err, "Status report marshal failed")
		return
	}

	for attempt := 1; attempt <= r.cfg.Retries; attempt++ {
		if r.publisher.Publish(r.cfg.Topic, payload) {
			r.session.LastStatusPublish = r.clk.Now()
			metrics.StatusPublishTotal.WithLabelValues("success").Inc()
			return
		}
		metrics.StatusPublishTotal.WithLabelValues("failed").Inc()
		r.logger.Warn("Status publish failed", "attempt", attempt)
	}
	r.logger.Warn("Status report dropped for this cycle", "retries", r.cfg.Retries)
}

func (r *Reporter) build(now clock.Ticks) StatusReport {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	rec := r.records.Record()

	byReason := make(map[string]uint32, core.NumReasons)
	for i, n := range rec.ByReason {
		byReason[core.RestartReason(i).String()] = n
	}

	return StatusReport{
		FirmwareVersion: r.cfg.FirmwareVersion,
		BootTime:        r.bootTime.Format(time.RFC3339),
		UptimeMs:        uint32(now - r.session.StartedAt),

		BrewState:        r.brew.State(),
		BrewCountSession: r.session.BrewCount,
		BrewCountAllTime: rec.BrewCountAllTime + r.session.BrewCount,

		PrimaryLink: LinkReport{
			State:    r.primary.State().String(),
			Address:  r.primary.Address(),
			Attempts: r.primary.CumulativeAttempts(),
		},
		BrokerLink: LinkReport{
			State:    r.broker.State().String(),
			Attempts: r.broker.CumulativeAttempts(),
		},

		Memory: MemoryReport{
			Alloc: ms.Alloc,
			Sys:   ms.Sys,
			NumGC: ms.NumGC,
		},

		Restarts: RestartReport{
			Total:      rec.TotalRestarts,
			LastReason: rec.LastReason.String(),
			ByReason:   byReason,
		},
	}
}

// mirror refreshes the Prometheus view of the same figures.
func (r *Reporter) mirror(rep StatusReport) {
	metrics.BrewsAllTime.Set(float64(rep.BrewCountAllTime))

	for reason, n := range rep.Restarts.ByReason {
		metrics.RestartsByReason.WithLabelValues(reason).Set(float64(n))
	}

	setLink := func(name string, lr LinkReport) {
		up := 0.0
		if lr.State == link.StateUp.String() {
			up = 1.0
		}
		metrics.LinkUp.WithLabelValues(name).Set(up)
		metrics.LinkAttempts.WithLabelValues(name).Set(float64(lr.Attempts))
	}
	setLink("primary", rep.PrimaryLink)
	setLink("broker", rep.BrokerLink)
}
