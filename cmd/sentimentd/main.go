package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"sentimentd/internal/config"
	"sentimentd/internal/httpapi"
	"sentimentd/internal/manager"
	"sentimentd/internal/pipeline"
	"sentimentd/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := newRootCmd(os.Getenv).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// flagValues mirrors the command line; only flags the user set override the
// file and environment.
type flagValues struct {
	configPath   string
	addr         string
	modelID      string
	backend      string
	hfEndpoint   string
	hfHubURL     string
	logLevel     string
	logFormat    string
	natsURL      string
	natsSubject  string
	corsOrigins  string
	maxBodyBytes int64
	preload      bool
	serialize    bool
	metrics      bool
}

func newRootCmd(getenv func(string) string) *cobra.Command {
	return newRootCmdWith(&flagValues{}, getenv)
}

// newRootCmdWith binds the command's flags to fv.
func newRootCmdWith(fv *flagValues, getenv func(string) string) *cobra.Command {
	def := config.Default()
	root := &cobra.Command{
		Use:           "sentimentd",
		Short:         "Sentiment classification over HTTP",
		Example:       "  sentimentd --addr :8080\n  sentimentd --backend lexicon --preload\n  sentimentd --config ~/.config/sentimentd.yaml",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, fv, getenv)
			if err != nil {
				return err
			}
			log := newLogger(cfg)
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
	f := root.Flags()
	f.StringVar(&fv.configPath, "config", "", "Path to a yaml, json or toml config file")
	f.StringVar(&fv.addr, "addr", def.Addr, "HTTP listen address (env SENTIMENTD_ADDR)")
	f.StringVar(&fv.modelID, "model", def.ModelID, "Model id to serve (env HF_MODEL_ID)")
	f.StringVar(&fv.backend, "backend", def.Backend, "Inference backend: hf-inference|lexicon (env SENTIMENTD_BACKEND)")
	f.StringVar(&fv.hfEndpoint, "hf-endpoint", def.HFEndpoint, "Hugging Face inference API base URL (env HF_INFERENCE_URL)")
	f.StringVar(&fv.hfHubURL, "hf-hub-url", def.HFHubURL, "Hugging Face hub URL used to resolve models; empty skips resolution (env HF_HUB_URL)")
	f.StringVar(&fv.logLevel, "log-level", def.LogLevel, "Log level: debug|info|warn|error|off (env SENTIMENTD_LOG_LEVEL)")
	f.StringVar(&fv.logFormat, "log-format", def.LogFormat, "Log format: json|console (env SENTIMENTD_LOG_FORMAT)")
	f.StringVar(&fv.natsURL, "nats-url", "", "Publish one event per prediction to this NATS server (env SENTIMENTD_NATS_URL)")
	f.StringVar(&fv.natsSubject, "nats-subject", def.NATSSubject, "NATS subject for prediction events (env SENTIMENTD_NATS_SUBJECT)")
	f.StringVar(&fv.corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins; enables CORS (env SENTIMENTD_CORS_ORIGINS)")
	f.Int64Var(&fv.maxBodyBytes, "max-body-bytes", def.MaxBodyBytes, "Maximum /predict body size (env SENTIMENTD_MAX_BODY_BYTES)")
	f.BoolVar(&fv.preload, "preload", false, "Load the model at startup instead of on the first request (env SENTIMENTD_PRELOAD)")
	f.BoolVar(&fv.serialize, "serialize", false, "Run one classification at a time (env SENTIMENTD_SERIALIZE)")
	f.BoolVar(&fv.metrics, "metrics", def.MetricsEnabled, "Count predictions in Prometheus (env SENTIMENTD_METRICS)")
	return root
}

// resolveConfig layers defaults, the config file, the environment and the
// flags that were explicitly set, then validates the result.
func resolveConfig(cmd *cobra.Command, fv *flagValues, getenv func(string) string) (config.Config, error) {
	cfg := config.Default()
	if fv.configPath != "" {
		var err error
		if cfg, err = config.Load(fv.configPath); err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
	}
	if err := config.ApplyEnv(&cfg, getenv); err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}
	set := cmd.Flags().Changed
	if set("addr") {
		cfg.Addr = fv.addr
	}
	if set("model") {
		cfg.ModelID = fv.modelID
	}
	if set("backend") {
		cfg.Backend = fv.backend
	}
	if set("hf-endpoint") {
		cfg.HFEndpoint = fv.hfEndpoint
	}
	if set("hf-hub-url") {
		cfg.HFHubURL = fv.hfHubURL
	}
	if set("log-level") {
		cfg.LogLevel = fv.logLevel
	}
	if set("log-format") {
		cfg.LogFormat = fv.logFormat
	}
	if set("nats-url") {
		cfg.NATSURL = fv.natsURL
	}
	if set("nats-subject") {
		cfg.NATSSubject = fv.natsSubject
	}
	if set("cors-origins") {
		cfg.CORSOrigins = config.SplitCSV(fv.corsOrigins)
		cfg.CORSEnabled = len(cfg.CORSOrigins) > 0
	}
	if set("max-body-bytes") {
		cfg.MaxBodyBytes = fv.maxBodyBytes
	}
	if set("preload") {
		cfg.Preload = fv.preload
	}
	if set("serialize") {
		cfg.Serialize = fv.serialize
	}
	if set("metrics") {
		cfg.MetricsEnabled = fv.metrics
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.Config) zerolog.Logger {
	lvl := zerolog.InfoLevel
	switch strings.ToLower(cfg.LogLevel) {
	case "off", "disabled":
		lvl = zerolog.Disabled
	default:
		if l, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err == nil && l != zerolog.NoLevel {
			lvl = l
		}
	}
	if cfg.LogFormat == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(lvl).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

// buildRecorder assembles the telemetry sinks enabled in cfg. The returned
// close func releases the NATS connection, if any.
func buildRecorder(cfg config.Config, reg prometheus.Registerer, log zerolog.Logger) (telemetry.Recorder, func(), error) {
	var recs []telemetry.Recorder
	closeFn := func() {}
	if cfg.MetricsEnabled {
		p, err := telemetry.NewPrometheusRecorder(reg)
		if err != nil {
			return nil, closeFn, fmt.Errorf("prometheus recorder: %w", err)
		}
		recs = append(recs, p)
	}
	if cfg.NATSURL != "" {
		n, err := telemetry.ConnectNATS(cfg.NATSURL, cfg.NATSSubject, log)
		if err != nil {
			return nil, closeFn, fmt.Errorf("nats recorder: %w", err)
		}
		recs = append(recs, n)
		closeFn = func() {
			if err := n.Close(); err != nil {
				log.Warn().Err(err).Msg("nats close")
			}
		}
	}
	rec := telemetry.Multi(func(err error) {
		log.Warn().Err(err).Msg("telemetry sink panicked")
	}, recs...)
	return rec, closeFn, nil
}

// newManager wires the pipeline backend and telemetry into a Manager.
func newManager(cfg config.Config, rec telemetry.Recorder, log zerolog.Logger) (*manager.Manager, error) {
	loader, err := pipeline.NewLoader(cfg.Backend, pipeline.Options{
		Endpoint: cfg.HFEndpoint,
		HubURL:   cfg.HFHubURL,
		Token:    cfg.HFToken,
	})
	if err != nil {
		return nil, err
	}
	mlog := log.With().Str("component", "manager").Logger()
	return manager.NewWithConfig(manager.ManagerConfig{
		ModelID:            cfg.ModelID,
		Backend:            cfg.Backend,
		Loader:             loader,
		Recorder:           rec,
		Logger:             &mlog,
		SerializeInference: cfg.Serialize,
	}), nil
}

func configureHTTP(cfg config.Config, log zerolog.Logger) {
	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetRequestLogLevel(cfg.LogLevel)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins, nil, nil)
}

// serve runs the HTTP server until ctx is canceled, then shuts down
// gracefully.
func serve(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	rec, closeRec, err := buildRecorder(cfg, prometheus.DefaultRegisterer, log)
	if err != nil {
		return err
	}
	defer closeRec()

	mgr, err := newManager(cfg, rec, log)
	if err != nil {
		return err
	}
	configureHTTP(cfg, log)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(mgr),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("model", cfg.ModelID).Str("backend", cfg.Backend).Msg("sentimentd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if cfg.Preload {
		go func() {
			if err := mgr.Warmup(ctx); err != nil {
				log.Error().Err(err).Msg("preload failed")
			}
		}()
	}

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	return nil
}
