package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/muesli/termenv"

	ping "github.com/digineo/multiping"
	"github.com/digineo/multiping/exporter"
	"github.com/digineo/multiping/monitor"
)

const (
	exitOK    = 0
	exitError = 1
	exitSetup = 2

	// number of log lines shown below the table
	logKeep = 5
)

func main() {
	var cli CLI

	kong.Parse(&cli,
		kong.Name("multiping"),
		kong.Description("Ping many hosts at once and show their reachability."),
		kong.DefaultEnvars("MULTIPING"),
	)

	os.Exit(run(&cli))
}

func run(cli *CLI) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	level, err := parseLogLevel(cli.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}

	// the table owns the terminal, logs are shown in its footer and
	// printed again after exit
	var capture *logInterceptor
	var out io.Writer = os.Stderr
	if cli.UI == uiTable {
		capture = interceptLog(logKeep)
		out = capture
		defer capture.flush(os.Stderr)
	}

	logger := newLogger(out, level)
	setLoggers(logger)

	targets, err := cli.targets()
	if err != nil {
		logger.ErrorContext(ctx, "Failed to read targets", errAttr(err))
		return exitSetup
	}

	pinger, err := ping.New(cli.Bind4, cli.Bind6, cli.Privileged)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to open ICMP sockets", errAttr(err))
		return exitSetup
	}
	defer pinger.Close()
	logger.InfoContext(ctx, "Opened ICMP sockets", slog.Bool("privileged", pinger.Privileged()))

	if cli.Mark != 0 {
		if err := pinger.SetMark(cli.Mark); err != nil {
			logger.ErrorContext(ctx, "Failed to set socket mark", errAttr(err), slog.Uint64("mark", uint64(cli.Mark)))
			return exitSetup
		}
	}

	res, err := newResolver(cli)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create resolver", errAttr(err))
		return exitSetup
	}
	defer res.Close()

	styles := newStyleSet(termenv.EnvColorProfile())
	boards := monitor.Boards{}

	var exp *exporter.Exporter
	if cli.MetricsAddr != "" {
		if exp, err = exporter.NewExporter(); err != nil {
			logger.ErrorContext(ctx, "Failed to create prometheus exporter", errAttr(err))
			return exitSetup
		}
		boards = append(boards, exp)
	}

	var ui *userInterface
	var bars *barBoard
	if cli.UI == uiTable {
		ui = buildTUI(styles)
		capture.setFooter(ui.footer)
		boards = append(boards, ui)
	} else {
		bars = newBarBoard(styles)
		boards = append(boards, bars)
	}

	m := monitor.New(pinger, res.Resolver, boards, monitor.Config{
		Interval:    cli.interval(),
		Timeout:     cli.timeout(),
		PayloadSize: ping.DefaultPayloadSize,
	})

	counters := withSocketDiscards(m.Counters, pinger.Ignored)

	if exp != nil {
		if err := exp.Watch(counters); err != nil {
			logger.ErrorContext(ctx, "Failed to register monitor metrics", errAttr(err))
			return exitSetup
		}

		stop := serveMetrics(ctx, cancel, logger, exporter.NewServer(cli.MetricsAddr, exp.Handler()))
		defer stop()
	}

	if ui != nil {
		err = runTable(ctx, cancel, ui, m, targets)
	} else {
		err = runBars(ctx, logger, bars, m, targets)
	}

	c := counters()
	logger.InfoContext(ctx, "Stopped",
		slog.Int("resolved", c.Resolved),
		slog.Int("dropped", c.Dropped),
		slog.Uint64("probes", c.Probes),
		slog.Uint64("ignored", c.Ignored),
	)

	if err != nil {
		logger.ErrorContext(ctx, "Monitor failed", errAttr(err))
		return exitError
	}
	return exitOK
}

func runBars(ctx context.Context, logger *slog.Logger, bars *barBoard, m *monitor.Monitor, targets []string) error {
	if err := bars.Start(); err != nil {
		logger.WarnContext(ctx, "Progress bars unavailable, printing plain lines", errAttr(err))
		bars.fallback(os.Stdout)
	} else {
		defer func() { _ = bars.Stop() }()
	}

	return m.Run(ctx, targets)
}

// runTable runs the user interface on the calling goroutine. Closing the
// interface stops the monitor and vice versa.
func runTable(ctx context.Context, cancel context.CancelFunc, ui *userInterface, m *monitor.Monitor, targets []string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- m.Run(ctx, targets)
		ui.Stop()
	}()

	uiErr := ui.Run()
	cancel()

	if err := <-errCh; err != nil {
		return err
	}
	return uiErr
}

// serveMetrics starts the HTTP server in the background. A failing server
// cancels ctx. The returned function shuts the server down.
func serveMetrics(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger, srv *exporter.Server) func() {
	go func() {
		logger.InfoContext(ctx, "Start HTTP Server", slog.String("address", srv.ListenAddr()))

		if err := srv.Start(); err != nil {
			logger.ErrorContext(ctx, "Failed to start HTTP Server", errAttr(err))
			cancel()
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to stop HTTP Server", errAttr(err))
		}
	}
}

// withSocketDiscards adds the packets discarded by the sockets to the
// ignored replies of the monitor.
func withSocketDiscards(counters func() monitor.Counters, discarded func() uint64) func() monitor.Counters {
	return func() monitor.Counters {
		c := counters()
		c.Ignored += discarded()
		return c
	}
}
