package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aranyoray/studybot/internal/api"
	"github.com/aranyoray/studybot/internal/coach"
	"github.com/aranyoray/studybot/internal/llm"
	"github.com/aranyoray/studybot/internal/research"
	"github.com/aranyoray/studybot/internal/store"
	"github.com/aranyoray/studybot/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		shutdownTracing := telemetry.Shutdown(func(context.Context) error { return nil })
		if cfg.OTel {
			var err error
			shutdownTracing, err = telemetry.Setup(ctx, cfg.ServiceName, cfg.OTelEndpoint)
			if err != nil {
				return fmt.Errorf("setup tracing: %w", err)
			}
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := shutdownTracing(sctx); err != nil {
				log.Warn("tracing shutdown failed", zap.Error(err))
			}
		}()

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		collector, err := research.NewCollector([]byte(cfg.ResearchSalt))
		if err != nil {
			return fmt.Errorf("init research collector: %w", err)
		}
		if cfg.ResearchSalt == "" {
			log.Warn("STUDYBOT_RESEARCH_SALT is not set; pseudonyms change on every restart")
		}

		srv, err := api.New(api.Options{
			Store:       s,
			Coach:       newCoach(ctx, s),
			Collector:   collector,
			Logger:      log,
			JWTSecret:   cfg.JWTSecret,
			CORSOrigins: cfg.CORSOrigins,
		})
		if err != nil {
			return err
		}

		hs := &http.Server{
			Addr:              cfg.Addr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errc := make(chan error, 1)
		go func() {
			log.Info("listening", zap.String("addr", cfg.Addr), zap.String("driver", s.Dialect()))
			errc <- hs.ListenAndServe()
		}()

		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return hs.Shutdown(sctx)
	},
}

// newCoach builds the coach on the configured LLM provider. A provider
// that fails to initialize leaves the coach on built-in messages.
func newCoach(ctx context.Context, s *store.Store) *coach.Coach {
	var provider llm.Provider
	lcfg, err := llm.ConfigFromEnv()
	if err == nil {
		provider, err = llm.NewProvider(ctx, lcfg, s.EventRepo(), log)
	}
	if err != nil {
		log.Warn("LLM provider unavailable, using built-in coaching", zap.Error(err))
		provider = nil
	}
	return coach.New(provider, coach.DefaultConfig(), log)
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides STUDYBOT_ADDR)")
}
