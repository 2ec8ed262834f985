package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MAR2807/ai-chatbot-v3/core/logx"
	"github.com/MAR2807/ai-chatbot-v3/core/secret"
	"github.com/MAR2807/ai-chatbot-v3/internal/api"
	"github.com/MAR2807/ai-chatbot-v3/internal/bedrock"
	"github.com/MAR2807/ai-chatbot-v3/internal/config"
	"github.com/MAR2807/ai-chatbot-v3/internal/inflight"
	"github.com/MAR2807/ai-chatbot-v3/internal/metrics"
	"github.com/MAR2807/ai-chatbot-v3/internal/relay"
	"github.com/MAR2807/ai-chatbot-v3/internal/server"
	"github.com/MAR2807/ai-chatbot-v3/internal/serverstate"
)

var (
	version   = "dev"
	buildSHA  = "unknown"
	buildDate = "unknown"
)

// configFlag returns the value of --config from args, if present.
func configFlag(args []string) string {
	for i, a := range args {
		a = strings.TrimPrefix(a, "-")
		a = strings.TrimPrefix(a, "-")
		if v, ok := strings.CutPrefix(a, "config="); ok {
			return v
		}
		if a == "config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func instanceName() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return uuid.NewString()
}

func main() {
	var cfg config.RelayConfig
	cfg.SetDefaults()
	cfg.ApplyEnv()
	if v := configFlag(os.Args[1:]); v != "" {
		cfg.ConfigFile = v
	}
	if err := cfg.LoadFile(cfg.ConfigFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		logx.Log.Fatal().Err(err).Str("path", cfg.ConfigFile).Msg("load config")
	}
	cfg.ApplyEnv()

	showVersion := flag.Bool("version", false, "print version and exit")
	cfg.BindFlagsFromCurrent(flag.CommandLine)
	flag.Usage = func() {
		_, _ = fmt.Fprintf(flag.CommandLine.Output(), "bedrock-relay version=%s sha=%s date=%s\n\n", version, buildSHA, buildDate)
		flag.PrintDefaults()
	}
	flag.Parse()
	if *showVersion {
		fmt.Printf("bedrock-relay version=%s sha=%s date=%s\n", version, buildSHA, buildDate)
		return
	}

	logx.Configure(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		logx.Log.Fatal().Err(err).Msg("invalid configuration")
	}

	model, err := bedrock.NewClient(cfg.Credentials())
	if err != nil {
		logx.Log.Fatal().Err(err).Msg("configure bedrock client")
	}
	logx.Log.Info().
		Str("region", model.Region()).
		Str("access_key_id", secret.Mask(cfg.AWS.AccessKeyID)).
		Str("model", bedrock.ModelID).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Msg("bedrock client configured")

	reg := prometheus.NewRegistry()
	metrics.Register(reg)
	metrics.RegisterRuntime(reg)
	metrics.SetBuildInfo(version, buildSHA, buildDate)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store serverstate.Store
	if cfg.RedisAddr != "" {
		instance := instanceName()
		rs, err := serverstate.NewRedisStore(ctx, cfg.RedisAddr, instance)
		if err != nil {
			logx.Log.Fatal().Err(err).Msg("connect redis")
		}
		store = rs
		logx.Log.Info().Str("instance", instance).Msg("using redis state store")
	}
	state := serverstate.NewTracker(store)

	var counter inflight.Counter
	doc, err := api.LoadOpenAPI(ctx, version)
	if err != nil {
		logx.Log.Fatal().Err(err).Msg("load openapi document")
	}
	handler, err := server.New(cfg, server.Deps{
		Invoke:   relay.New(model, relay.WithRedactedSecrets(cfg.AWS.SecretAccessKey, cfg.AWS.AccessKeyID)),
		State:    state,
		Inflight: &counter,
		Metrics:  reg,
		OpenAPI:  doc,
	})
	if err != nil {
		logx.Log.Fatal().Err(err).Msg("build router")
	}

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	var metricsSrv *http.Server
	if !cfg.MetricsOnMainPort() {
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: server.MetricsHandler(reg), ReadHeaderTimeout: 10 * time.Second}
	}

	stop, stopNow := context.WithCancel(ctx)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range sigCh {
			if state.IsDraining(ctx) || cfg.DrainTimeout == 0 {
				logx.Log.Warn().Msg("termination requested")
				stopNow()
				return
			}
			if err := state.StartDrain(ctx); err != nil {
				logx.Log.Error().Err(err).Msg("publish draining state")
			}
			logx.Log.Info().Dur("timeout", cfg.DrainTimeout).Int64("inflight", counter.Load()).Msg("draining; send SIGTERM again to terminate immediately")
			go func(d time.Duration) {
				wctx, wcancel := context.WithTimeout(stop, d)
				defer wcancel()
				if !counter.WaitForZero(wctx) && stop.Err() == nil {
					logx.Log.Warn().Int64("inflight", counter.Load()).Msg("drain timeout exceeded; terminating")
				}
				stopNow()
			}(cfg.DrainTimeout)
		}
	}()
	go func() {
		<-stop.Done()
		if err := srv.Shutdown(context.Background()); err != nil {
			logx.Log.Error().Err(err).Msg("server shutdown")
		}
	}()
	if metricsSrv != nil {
		go func() {
			<-stop.Done()
			if err := metricsSrv.Shutdown(context.Background()); err != nil {
				logx.Log.Error().Err(err).Msg("metrics server shutdown")
			}
		}()
		go func() {
			logx.Log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server starting")
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logx.Log.Error().Err(err).Msg("metrics server error")
			}
		}()
	}

	if err := state.MarkReady(ctx); err != nil {
		logx.Log.Error().Err(err).Msg("publish ready state")
	}
	logx.Log.Info().Int("port", cfg.Port).Str("version", version).Msg("relay starting")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logx.Log.Fatal().Err(err).Msg("server error")
	}
}
