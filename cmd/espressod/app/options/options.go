package options

import (
	"github.com/spf13/pflag"

	"github.com/ZerepL/smart-espresso/internal/platform/hal"
	"github.com/ZerepL/smart-espresso/internal/supervisor"
	"github.com/ZerepL/smart-espresso/pkg/log"
	"github.com/ZerepL/smart-espresso/pkg/options"
)

// DeviceOptions identifies this appliance and locates its local resources.
type DeviceOptions struct {
	// ClientID names the appliance on the broker. Empty derives one from the
	// hostname.
	ClientID string `json:"client-id" mapstructure:"client-id"`

	// FirmwareVersion is stamped into every status report. Normally injected
	// at build time.
	FirmwareVersion string `json:"firmware-version" mapstructure:"firmware-version"`

	// Interface is the primary network interface to supervise.
	Interface string `json:"interface" mapstructure:"interface"`

	// RetentionPath is the retention memory backing file. Must live on tmpfs
	// so it survives a restart but not a power cycle.
	RetentionPath string `json:"retention-path" mapstructure:"retention-path"`
}

// NewDeviceOptions returns the appliance defaults.
func NewDeviceOptions() *DeviceOptions {
	return &DeviceOptions{
		FirmwareVersion: "0.0.0-dev",
		Interface:       "wlan0",
		RetentionPath:   "/dev/shm/espressod-retention.bin",
	}
}

// AddFlags binds the device identity flags to the given FlagSet.
func (o *DeviceOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.ClientID, "device.client-id", o.ClientID, "Appliance client ID on the broker (empty derives from hostname).")
	fs.StringVar(&o.FirmwareVersion, "device.firmware-version", o.FirmwareVersion, "Firmware version stamped into status reports.")
	fs.StringVar(&o.Interface, "device.interface", o.Interface, "Primary network interface to supervise.")
	fs.StringVar(&o.RetentionPath, "device.retention-path", o.RetentionPath, "Retention memory backing file (tmpfs).")
}

// Options aggregates every configuration concern of the daemon.
type Options struct {
	Device     *DeviceOptions       `json:"device" mapstructure:"device"`
	Mqtt       *options.MqttOptions `json:"mqtt" mapstructure:"mqtt"`
	HTTP       *options.HTTPOptions `json:"http" mapstructure:"http"`
	Supervisor *supervisor.Options  `json:"supervisor" mapstructure:"supervisor"`
	HAL        *hal.Config          `json:"hal" mapstructure:"hal"`
	Log        *log.Options         `json:"log" mapstructure:"log"`
}

// NewOptions builds the full default configuration.
func NewOptions() *Options {
	halCfg := hal.DefaultConfig()
	return &Options{
		Device:     NewDeviceOptions(),
		Mqtt:       options.NewMqttOptions(),
		HTTP:       options.NewHTTPOptions(),
		Supervisor: supervisor.NewOptions(),
		HAL:        &halCfg,
		Log:        log.NewOptions(),
	}
}

// Flags binds every options group to the given FlagSet.
func (o *Options) Flags(fs *pflag.FlagSet) {
	o.Device.AddFlags(fs)
	o.Mqtt.AddFlags(fs)
	o.HTTP.AddFlags(fs)
	o.Supervisor.AddFlags(fs)
	o.HAL.AddFlags(fs)
	o.Log.AddFlags(fs)
}

// Validate collects every validation failure across the option groups.
func (o *Options) Validate() []error {
	errs := []error{}
	errs = append(errs, o.Mqtt.Validate()...)
	errs = append(errs, o.HTTP.Validate()...)
	errs = append(errs, o.Supervisor.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return errs
}
