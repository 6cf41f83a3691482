// Package app wires the espressod daemon: configuration, the hardware and
// transport adapters, the supervisor loop, and the debug HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/ZerepL/smart-espresso/cmd/espressod/app/options"
	"github.com/ZerepL/smart-espresso/internal/debugserver"
	"github.com/ZerepL/smart-espresso/internal/platform/hal"
	"github.com/ZerepL/smart-espresso/internal/platform/mqttbus"
	"github.com/ZerepL/smart-espresso/internal/platform/netlink"
	"github.com/ZerepL/smart-espresso/internal/platform/retention"
	"github.com/ZerepL/smart-espresso/internal/supervisor"
	"github.com/ZerepL/smart-espresso/internal/supervisor/clock"
	"github.com/ZerepL/smart-espresso/internal/supervisor/core"
	"github.com/ZerepL/smart-espresso/pkg/log"
)

const (
	commandName = "espressod"
	commandDesc = `The smart-espresso firmware supervisor. Runs the brew state machine,
supervises the network and broker links, persists restart analytics in
retention memory, and reports status over MQTT.`

	// exitCodeRestart signals the process supervisor to relaunch the binary
	// when the hardware reboot path is unavailable (mock HAL).
	exitCodeRestart = 86
)

// NewEspressoCommand builds the root command.
func NewEspressoCommand() *cobra.Command {
	opts := options.NewOptions()
	var configFile string

	cmd := &cobra.Command{
		Use:          commandName,
		Short:        "Launch the smart-espresso firmware supervisor",
		Long:         commandDesc,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd.Flags(), configFile); err != nil {
				return err
			}
			if errs := opts.Validate(); len(errs) > 0 {
				return fmt.Errorf("invalid configuration: %v", errs)
			}
			return run(opts)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to the configuration file (YAML).")
	opts.Flags(cmd.Flags())

	return cmd
}

// loadConfig layers the config file under the command-line flags: a flag set
// explicitly on the command line always wins over the file.
func loadConfig(fs *pflag.FlagSet, configFile string) error {
	if configFile == "" {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", configFile, err)
	}

	var applyErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed || !v.IsSet(f.Name) {
			return
		}
		if err := fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil && applyErr == nil {
			applyErr = fmt.Errorf("config key %s: %w", f.Name, err)
		}
	})
	return applyErr
}

func run(opts *options.Options) error {
	log.Init(opts.Log)
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	clientID := opts.Device.ClientID
	if clientID == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("derive client id: %w", err)
		}
		clientID = commandName + "-" + hostname
	}

	identity := supervisor.Identity{
		ClientID:        clientID,
		FirmwareVersion: opts.Device.FirmwareVersion,
		CommandTopic:    opts.Mqtt.TopicRoot + "/cmd",
		StatusTopic:     opts.Mqtt.TopicRoot + "/status",
		VerifyTopic:     opts.Mqtt.TopicRoot + "/hello",
	}

	board, err := hal.New(*opts.HAL, log.Std())
	if err != nil {
		return fmt.Errorf("open hardware: %w", err)
	}

	mqttCfg := opts.Mqtt.ToClientConfig()
	mqttCfg.WillTopic = identity.VerifyTopic
	mqttCfg.WillPayload = []byte("offline")
	bus := mqttbus.NewBus(ctx, mqttCfg, log.Std())

	sup := supervisor.New(opts.Supervisor, identity, supervisor.Deps{
		Clock:     clock.NewMonotonic(),
		HAL:       board,
		Retention: retention.NewFileMemory(opts.Device.RetentionPath),
		Primary:   netlink.NewInterface(opts.Device.Interface, log.Std()),
		Broker:    bus,
		Logger:    log.Std(),
	})
	bus.SetHandler(sup.OnBrokerMessage)

	g, gctx := errgroup.WithContext(ctx)

	if !opts.HTTP.Disabled {
		debug := debugserver.NewServer(opts.HTTP, sup.Ready)
		g.Go(func() error { return debug.Start(gctx) })
	}

	g.Go(func() error {
		defer cancel()
		return sup.Run(gctx)
	})

	err = g.Wait()
	bus.Disconnect()

	var restart *core.RestartError
	if errors.As(err, &restart) {
		log.Warn("Restart committed, rebooting", "reason", restart.Request.Reason)
		_ = log.Sync()
		if rerr := board.Reboot(); rerr != nil {
			return fmt.Errorf("reboot: %w", rerr)
		}
		// Reboot returned without error but the process is still alive: the
		// mock path. Exit with the restart code for the process supervisor.
		os.Exit(exitCodeRestart)
	}
	return err
}
