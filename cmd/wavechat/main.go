// Command wavechat is a terminal client for the audio analysis backend:
// it loads an audio file, lets you pick a region, previews it as a
// spectrogram, runs an analysis and chats about the result.
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kbukum/wavechat/api"
	"github.com/kbukum/wavechat/audio"
	"github.com/kbukum/wavechat/bootstrap"
	"github.com/kbukum/wavechat/component"
	"github.com/kbukum/wavechat/config"
	"github.com/kbukum/wavechat/headless"
	"github.com/kbukum/wavechat/httpclient"
	"github.com/kbukum/wavechat/logger"
	"github.com/kbukum/wavechat/observability"
	"github.com/kbukum/wavechat/process"
	"github.com/kbukum/wavechat/selection"
	"github.com/kbukum/wavechat/session"
	"github.com/kbukum/wavechat/version"
	"github.com/kbukum/wavechat/waveform"
)

func main() {
	configPath := flag.String("config", "", "path to config.yml")
	summary := flag.Bool("summary", false, "print the startup summary to stderr")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: wavechat [-config path] [-summary] <audio-file>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println("wavechat " + version.Get().String())
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(context.Background(), *configPath, *summary, flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "wavechat: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, summary bool, audioPath string) error {
	if _, err := os.Stat(audioPath); err != nil {
		return err
	}

	cfg := &Config{}
	loadOpts := []config.LoaderOption{config.WithEnvPrefix("WAVECHAT")}
	if configPath != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(configPath))
	}
	if err := config.LoadConfig("wavechat", cfg, loadOpts...); err != nil {
		return err
	}

	// NewApp applies defaults too; the shutdown timeout is needed before that.
	cfg.ApplyDefaults()
	appOpts := []bootstrap.Option{bootstrap.WithGracefulTimeout(cfg.ShutdownTimeout)}
	if summary {
		appOpts = append(appOpts, bootstrap.WithSummary(os.Stderr))
	}
	app, err := bootstrap.NewApp(cfg, appOpts...)
	if err != nil {
		return err
	}
	wireTelemetry(app)

	metrics, err := observability.NewRequestMetrics(observability.Meter("wavechat"))
	if err != nil {
		return err
	}

	handles := audio.NewRegistry()
	backend := httpclient.NewComponent(cfg.API,
		httpclient.WithMetrics(metrics),
		httpclient.WithLogger(logger.WithComponent("httpclient")),
	)

	probe := headless.NewFFProbe(cfg.Probe.Binary, process.NewExec())
	if cfg.Probe.Timeout > 0 {
		probe.Timeout = cfg.Probe.Timeout
	}
	if !process.Available(probe.Binary) {
		app.Logger.Warn("ffprobe not found, audio will fail to load", logger.Fields("binary", probe.Binary))
	}

	model := selection.NewModel()
	events := newNotifier()
	controller := waveform.New(headless.New(probe), handles, model,
		waveform.WithMaxDefaultSelection(cfg.Waveform.MaxDefaultSelection),
		waveform.WithStatusListener(func(waveform.Status) { events.notify() }),
	)
	unsubscribe := model.Subscribe(func(selection.Selection) { events.notify() })
	defer unsubscribe()

	for _, c := range []component.Component{handles, backend, controller} {
		if err := app.RegisterComponent(c); err != nil {
			return err
		}
	}

	return app.RunTask(ctx, func(ctx context.Context) error {
		src := audio.FileSource(audioPath)
		orch := session.New(api.New(backend.Client()), model)
		orch.SetSource(src)
		controller.SetSource(src)

		ui := newUI(ctx, uiDeps{
			source:     src,
			player:     controller,
			analyst:    orch,
			selections: model,
			params:     cfg.Analysis,
			step:       cfg.Waveform.Step,
			events:     events,
		})
		_, err := tea.NewProgram(ui, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
		if stderrors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})
}

// wireTelemetry installs OTLP exporters when enabled and flushes them on
// shutdown.
func wireTelemetry(app *bootstrap.App[*Config]) {
	cfg := app.Cfg
	if cfg.Tracing.Enabled {
		app.OnStart(func(ctx context.Context) error {
			tc := cfg.tracerConfig()
			tp, err := observability.InitTracer(ctx, &tc)
			if err != nil {
				return err
			}
			app.OnStop(tp.Shutdown)
			return nil
		})
	}
	if cfg.Metrics.Enabled {
		app.OnStart(func(ctx context.Context) error {
			mc := cfg.meterConfig()
			mp, err := observability.InitMeter(ctx, &mc)
			if err != nil {
				return err
			}
			app.OnStop(mp.Shutdown)
			return nil
		})
	}
}
