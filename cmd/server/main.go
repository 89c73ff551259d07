package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lettersweep/lettersweep-backend/internal/config"
	"github.com/lettersweep/lettersweep-backend/internal/engine"
	"github.com/lettersweep/lettersweep-backend/internal/grid"
	"github.com/lettersweep/lettersweep-backend/internal/httpapi"
	"github.com/lettersweep/lettersweep-backend/internal/hub"
	"github.com/lettersweep/lettersweep-backend/internal/oracle"
	"github.com/lettersweep/lettersweep-backend/internal/scoring"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	log := newLogger(cfg.AppEnv)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validator, err := buildValidator(cfg, log)
	if err != nil {
		log.Fatal("oracle setup failed", zap.Error(err))
	}

	rules := engine.Rules{
		GridSize:     cfg.GridSize,
		TotalRounds:  cfg.TotalRounds,
		MaxPlayers:   cfg.MaxPlayers,
		MinPlayers:   cfg.MinPlayers,
		TurnTimeMS:   cfg.TurnTime.Milliseconds(),
		RefillPolicy: grid.RefillPolicy(cfg.RefillPolicy),
		ComboPolicy:  scoring.ComboPolicy(cfg.ComboPolicy),
	}

	h := hub.NewHub(ctx, rules, validator, log)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.SetupRoutes(h, cfg.JWTSecret, log),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		h.Inbox() <- hub.ShutdownHub{}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(appEnv string) *zap.Logger {
	if appEnv == "prod" {
		log, err := zap.NewProduction()
		if err != nil {
			panic(err)
		}
		return log
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return log
}

// buildValidator picks the word oracle: a remote service when configured,
// otherwise the embedded dictionary. Either way it goes through the
// fail-closed cache.
func buildValidator(cfg config.Config, log *zap.Logger) (oracle.Validator, error) {
	var inner oracle.Validator
	if cfg.OracleURL != "" {
		inner = oracle.NewHTTP(cfg.OracleURL, cfg.OracleTimeout)
		log.Info("using remote word oracle", zap.String("url", cfg.OracleURL))
	} else {
		dict, err := oracle.NewDictionary(cfg.WordsFile)
		if err != nil {
			return nil, err
		}
		inner = dict
		log.Info("using dictionary word oracle", zap.Int("words", dict.Len()))
	}
	return oracle.NewCache(inner, log), nil
}
