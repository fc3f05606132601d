package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/calvinmclean/covernode/firmware/bus"
	"github.com/calvinmclean/covernode/firmware/config"
	"github.com/calvinmclean/covernode/firmware/device"
	"github.com/calvinmclean/covernode/firmware/expander"
	"github.com/calvinmclean/covernode/firmware/motor"
	"github.com/calvinmclean/covernode/firmware/store"
)

const defaultVersion = "0.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:          "covernode-firmware",
		Short:        "Run a two-motor cover node on the RS485 bus",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if debug {
				cfg.Debug = true
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "/etc/covernode/config.yaml", "path to the node configuration")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")

	return cmd
}

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

func run(ctx context.Context, cfg config.Config) (err error) {
	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return errors.Wrap(err, "error creating logger")
	}
	defer func() { _ = logger.Sync() }()

	if _, err := host.Init(); err != nil {
		return errors.Wrap(err, "error initializing host")
	}

	i2cBus, err := i2creg.Open(cfg.I2C.Bus)
	if err != nil {
		return errors.Wrap(err, "error opening I2C bus")
	}
	defer multierr.AppendInvoke(&err, multierr.Close(i2cBus))

	inputs, err := expander.New(expander.FromPeriph(i2cBus), cfg.I2C.Address, cfg.Expander)
	if err != nil {
		return err
	}

	if cfg.Address == 0 {
		addr, err := inputs.Address()
		if err != nil {
			return errors.Wrap(err, "error reading node address")
		}
		logger.Infow("using address from DIP switches", "address", addr)
		cfg.Address = addr
	}
	cfg.Version = readVersion(cfg.VersionFile, logger)

	actuator, err := motor.New(cfg.Motors)
	if err != nil {
		return errors.Wrap(err, "error setting up motors")
	}
	defer multierr.AppendInvoke(&err, multierr.Close(actuator))

	rs485, err := bus.Open(cfg.Serial, logger)
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(rs485))

	st := store.NewFile(cfg.CalibrationFile, cfg.PositionFile, logger)

	d, err := device.New(cfg.Config, inputs, actuator, rs485, st, device.WithLogger(logger))
	if err != nil {
		return err
	}

	return d.Run(ctx)
}

// readVersion returns the version from a {"version": "..."} document, or 0.0.0 when it is unusable
func readVersion(path string, logger *zap.SugaredLogger) string {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Infow("no version file", "path", path, "error", err)
		return defaultVersion
	}

	var doc struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &doc); err != nil || doc.Version == "" {
		logger.Warnw("unusable version file", "path", path, "error", err)
		return defaultVersion
	}
	return doc.Version
}
