package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/matt-g-everett/ledmagnet/api"
	"github.com/matt-g-everett/ledmagnet/frame"
	"github.com/matt-g-everett/ledmagnet/stream"
)

var (
	configPath string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ledmagnet",
	Short: "Stream a pointer-following glow to an ledrx strip",
	Long: `ledmagnet streams frames to an ledrx LED strip over MQTT. A pointer
position published on the pointer topic pulls a glow along the strip,
animated with spring physics on top of an idle animation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The preview owns the terminal.
		if cmd.Name() == "preview" {
			logger = zap.NewNop()
			return nil
		}

		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runStream,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to the broker and stream frames",
	RunE:  runStream,
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render the strip in the terminal and steer the glow with the arrow keys",
	RunE:  runPreview,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "YAML config file.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging.")
	rootCmd.AddCommand(runCmd, previewCmd)
}

type app struct {
	Config     stream.Config
	Client     mqtt.Client
	Host       *frame.TickerHost
	Schedule   *frame.Schedule
	Magnet     *stream.Magnet
	Controller *stream.Controller
	Streamer   *stream.Streamer
	Pointer    *stream.PointerListener
	Api        *api.Api
	logger     *zap.Logger
}

func newApp(config stream.Config, logger *zap.Logger) (*app, error) {
	a := new(app)
	a.Config = config
	a.logger = logger

	foreground, err := stream.ParseHex(config.Magnet.Foreground)
	if err != nil {
		return nil, err
	}
	idle, err := stream.NewIdle(config.Magnet.Idle, config)
	if err != nil {
		return nil, err
	}

	a.Host = frame.NewTickerHost(frame.IntervalForRate(config.Strip.FrameRate), logger.Named("frame"))
	a.Schedule = frame.NewSchedule(a.Host)
	a.Magnet = stream.NewMagnet(a.Schedule, config.Strip.Pixels, config.Magnet.Radius, foreground,
		logger.Named("magnet"), stream.SpringOptions(config)...)
	a.Controller = stream.NewController(config.Strip.Pixels, idle, a.Magnet, logger.Named("controller"))
	a.Controller.CycleIdle(config)

	options := mqtt.NewClientOptions().
		AddBroker(config.Mqtt.URL).
		SetClientID(config.Mqtt.ClientID).
		SetUsername(config.Mqtt.Username).
		SetPassword(config.Mqtt.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetAutoReconnect(true).
		SetOnConnectHandler(a.handleOnConnect).
		SetConnectionLostHandler(a.handleConnectionLost)
	a.Client = mqtt.NewClient(options)

	a.Streamer = stream.NewStreamer(config, a.Client, a.Schedule, a.Controller, logger.Named("stream"))
	a.Pointer = stream.NewPointerListener(config, a.Client, a.Magnet, logger.Named("pointer"))
	a.Api = api.NewApi(config.Api.Addr, config.Api.Static, a.Magnet.Animator(), a.Streamer, a.Magnet,
		logger.Named("api"))

	return a, nil
}

func (a *app) handleOnConnect(client mqtt.Client) {
	a.logger.Info("connected", zap.String("broker", a.Config.Mqtt.URL))
	if err := a.Pointer.Subscribe(); err != nil {
		a.logger.Error("pointer subscription failed", zap.Error(err))
	}
}

func (a *app) handleConnectionLost(client mqtt.Client, err error) {
	a.logger.Warn("connection lost", zap.Error(err))
}

func (a *app) run(ctx context.Context) error {
	if token := a.Client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect to %s: %w", a.Config.Mqtt.URL, token.Error())
	}
	defer a.Client.Disconnect(250)

	a.Streamer.Start()
	defer a.Schedule.Clear()
	defer a.Magnet.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Host.Run(ctx) })
	g.Go(func() error { return a.Api.Serve(ctx) })

	err := g.Wait()
	a.logger.Info("stopped",
		zap.Uint64("frames", a.Streamer.Frames()), zap.Uint64("failures", a.Streamer.Failures()))
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runStream(cmd *cobra.Command, args []string) error {
	mqtt.ERROR = zap.NewStdLog(logger.Named("mqtt"))

	config, err := stream.LoadConfig(configPath)
	if err != nil {
		return err
	}
	logger.Debug("config loaded", zap.String("path", configPath), zap.Any("strip", config.Strip))

	a, err := newApp(config, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.run(ctx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
