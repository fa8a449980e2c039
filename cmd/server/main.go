package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/enedis-gateway/auth"
	"github.com/jrsteele09/enedis-gateway/customer"
	"github.com/jrsteele09/enedis-gateway/enedis"
	"github.com/jrsteele09/enedis-gateway/internal/config"
	"github.com/jrsteele09/enedis-gateway/metering"
	"github.com/jrsteele09/enedis-gateway/server"
	"github.com/jrsteele09/enedis-gateway/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("Error running server")
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	if os.Getenv("ENV") != "PRODUCTION" {
		// A missing .env file is fine; the environment may already be populated.
		_ = godotenv.Load()
	}

	c, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(c)
	displayAppname(c.AppName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backends, err := openBackends(ctx, c.Storage)
	if err != nil {
		return err
	}
	defer backends.Close()

	srv := &http.Server{Addr: c.Port, Handler: server.New(*c, buildServices(c, backends))}
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- listenAndServe(srv)
	}()

	if err := waitForStop(listenErr); err != nil {
		return err
	}
	returnError = shutdown(srv)
	return returnError
}

func buildServices(c *config.Config, b *backends) server.Services {
	client := enedis.NewClient(c.Enedis)
	tokens := token.New(token.NewHMACSigner(c.Security.JWTSecret))
	resolver := token.NewResolver(b.users, token.WithFallbackToken(c.Enedis.FallbackAccessToken))

	flow := auth.NewFlow(auth.Deps{
		Provider: client,
		Users:    b.users,
		Sessions: b.sessions,
		Tokens:   tokens,
	}, c.Enedis.DeepLink, auth.WithSessionTTL(c.Security.SessionMaxAge))

	return server.Services{
		Flow:      flow,
		Metering:  metering.NewService(b.records, client, resolver),
		Customers: customer.NewService(client, resolver),
		Tokens:    tokens,
	}
}

func setupLogging(c *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	if c.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

// waitForStop blocks until SIGINT/SIGTERM arrives or the listener exits, returning the
// listener's error in the latter case.
func waitForStop(listenErr <-chan error) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		return nil
	case err := <-listenErr:
		if err == nil {
			return errors.New("listener stopped unexpectedly")
		}
		return err
	}
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
