// mqttconsole is an interactive console for two MQTT client sessions.
//
// Lines typed as "topic message" are published by the first session. The
// first session's inbound messages are queued and printed between input
// lines; the second session prints its inbound messages as they arrive.
// A line starting with "." quits.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nerrad567/mqttconsole/internal/console"
	"github.com/nerrad567/mqttconsole/internal/infrastructure/config"
	"github.com/nerrad567/mqttconsole/internal/infrastructure/logging"
	"github.com/nerrad567/mqttconsole/internal/infrastructure/telemetry"
	"github.com/nerrad567/mqttconsole/internal/queue"
	"github.com/nerrad567/mqttconsole/internal/session"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// configEnv names the config file when --config is not given.
const configEnv = "MQTTCONSOLE_CONFIG"

// dialFunc builds the session dialer. Tests replace it with a fake broker.
type dialFunc func(cfg config.MQTTConfig, logger session.Logger) session.Dialer

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(session.MQTTDialer).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

// newRootCmd builds the mqttconsole command tree.
func newRootCmd(dial dialFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mqttconsole",
		Short:         "Publish and watch MQTT messages from two client sessions",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout(), dial)
		},
	}

	f := cmd.Flags()
	f.StringP("config", "c", "", "config file (.yaml or .toml); defaults to $"+configEnv)
	f.StringP("broker", "b", "", "broker address as host:port")
	f.Int("qos", 1, "QoS for subscriptions and publishes (0, 1 or 2)")
	f.Int("reconnect-interval", 10, "longest wait in seconds between reconnect attempts")
	f.String("log-level", "warn", "log level (debug, info, warn, error)")
	f.Bool("no-color", false, "disable coloured output")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mqttconsole %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

// loadConfig reads the config file, then applies flags the user set
// explicitly, then validates the result.
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	path, _ := flags.GetString("config")
	if path == "" {
		path = os.Getenv(configEnv)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if flags.Changed("broker") {
		broker, _ := flags.GetString("broker")
		if err := cfg.SetBroker(broker); err != nil {
			return nil, fmt.Errorf("--broker: %w", err)
		}
	}
	if flags.Changed("qos") {
		cfg.MQTT.QoS, _ = flags.GetInt("qos")
	}
	if flags.Changed("reconnect-interval") {
		cfg.MQTT.Reconnect.Interval, _ = flags.GetInt("reconnect-interval")
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if noColor, _ := flags.GetBool("no-color"); noColor {
		cfg.Console.Color = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run is the actual application logic, separated from main for testability.
//
// It returns nil after a quit command or a signal, and an error when a
// session fails or the input ends without a quit command.
func run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, dial dialFunc) error {
	log := logging.New(cfg.Logging, version)
	log.Info("starting mqttconsole",
		"version", version,
		"commit", commit,
		"build_date", date,
		"broker", cfg.MQTT.Broker.Address(),
	)

	recorder, err := connectTelemetry(cfg.InfluxDB, log)
	if err != nil {
		return err
	}
	if recorder != nil {
		defer func() {
			log.Info("closing telemetry")
			if closeErr := recorder.Close(); closeErr != nil {
				log.Error("error closing telemetry", "error", closeErr)
			}
		}()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	inbound := queue.New(cfg.Console.QueueCapacity)
	outbound := queue.New(cfg.Console.QueueCapacity)
	printer := console.NewPrinter(out, cfg.Console.Color)

	queued := session.New(
		session.ConfigFrom(cfg.Sessions.Queued, cfg.MQTT.QoS),
		dial(cfg.MQTT, log.With("session", cfg.Sessions.Queued.Name)),
		session.QueueInbound{Queue: inbound},
		sessionOptions(cfg, cfg.Sessions.Queued, log, recorder,
			session.WithPublishRate(cfg.Console.PublishRate))...,
	)
	direct := session.New(
		session.ConfigFrom(cfg.Sessions.Direct, cfg.MQTT.QoS),
		dial(cfg.MQTT, log.With("session", cfg.Sessions.Direct.Name)),
		session.SinkInbound{Sink: printer, Label: cfg.Sessions.Direct.Label},
		sessionOptions(cfg, cfg.Sessions.Direct, log, recorder)...,
	)

	var wg sync.WaitGroup
	queuedErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		queuedErr <- runQueued(ctx, queued, inbound, outbound, log)
	}()

	loopErr := runInteractive(ctx, direct, printer, cfg, in, inbound, outbound, log)
	if loopErr != nil && !errors.Is(loopErr, console.ErrInputClosed) {
		// The quit entry was not sent; stop the publisher directly.
		cancel()
	}
	wg.Wait()

	if recorder != nil {
		for _, s := range []*session.Session{queued, direct} {
			st := s.Stats()
			recorder.RecordSessionStats(s.Name(), st.Published, st.Received, st.Dropped)
		}
	}
	log.Info("mqttconsole stopped", "queued", queued.Stats(), "direct", direct.Stats())

	if err := <-queuedErr; err != nil {
		return fmt.Errorf("%s session: %w", cfg.Sessions.Queued.Name, err)
	}
	if loopErr != nil && !errors.Is(loopErr, context.Canceled) {
		return loopErr
	}
	return nil
}

// runQueued runs the backgrounded session until it stops publishing. On the
// way out it closes both queues so the console loop notices, then disconnects.
func runQueued(ctx context.Context, s *session.Session, inbound, outbound *queue.Queue, log *logging.Logger) error {
	defer func() {
		if err := s.Close(); err != nil {
			log.Error("error closing session", "session", s.Name(), "error", err)
		}
	}()
	defer inbound.Close()
	defer outbound.Close()

	if err := s.Start(ctx); err != nil {
		log.Error("session failed to start", "session", s.Name(), "error", err)
		return err
	}
	if err := s.RunPublisher(ctx, outbound); err != nil {
		log.Error("publisher stopped", "session", s.Name(), "error", err)
		return err
	}
	return nil
}

// runInteractive starts the direct session on the calling goroutine, prints
// the banner and runs the command loop.
func runInteractive(
	ctx context.Context,
	direct *session.Session,
	printer *console.Printer,
	cfg *config.Config,
	in io.Reader,
	inbound, outbound *queue.Queue,
	log *logging.Logger,
) error {
	defer func() {
		if err := direct.Close(); err != nil {
			log.Error("error closing session", "session", direct.Name(), "error", err)
		}
	}()

	if err := direct.Start(ctx); err != nil {
		return fmt.Errorf("%s session: %w", direct.Name(), err)
	}

	printer.Banner(cfg.Sessions.Queued, cfg.Sessions.Direct)

	loop := console.New(in, printer, inbound, outbound, cfg.Sessions.Queued.Label,
		console.WithLogger(log))
	return loop.Run(ctx)
}

func sessionOptions(cfg *config.Config, sc config.SessionConfig, log *logging.Logger, recorder *telemetry.Recorder, extra ...session.Option) []session.Option {
	opts := []session.Option{
		session.WithLogger(log.With("session", sc.Name)),
		session.WithRetry(session.RetryPolicy{
			MaxAttempts:     cfg.MQTT.Retry.MaxAttempts,
			InitialInterval: time.Duration(cfg.MQTT.Retry.InitialInterval) * time.Second,
			MaxInterval:     time.Duration(cfg.MQTT.Retry.MaxInterval) * time.Second,
		}),
	}
	if recorder != nil {
		opts = append(opts, session.WithRecorder(recorder))
	}
	if sc.ClientID != "" {
		opts = append(opts, session.WithClientID(sc.ClientID))
	}
	return append(opts, extra...)
}

// connectTelemetry returns nil when telemetry is disabled.
func connectTelemetry(cfg config.InfluxDBConfig, log *logging.Logger) (*telemetry.Recorder, error) {
	recorder, err := telemetry.Connect(cfg)
	if errors.Is(err, telemetry.ErrDisabled) {
		log.Info("telemetry disabled")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}

	recorder.SetOnError(func(err error) {
		log.Error("telemetry write error", "error", err)
	})
	log.Info("telemetry connected",
		"url", cfg.URL,
		"org", cfg.Org,
		"bucket", cfg.Bucket,
	)
	return recorder, nil
}
