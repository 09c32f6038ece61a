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
	"github.com/jrsteele09/go-accounts-dashboard/accounting"
	"github.com/jrsteele09/go-accounts-dashboard/groups"
	"github.com/jrsteele09/go-accounts-dashboard/internal/config"
	"github.com/jrsteele09/go-accounts-dashboard/internal/obs"
	"github.com/jrsteele09/go-accounts-dashboard/oauth"
	"github.com/jrsteele09/go-accounts-dashboard/reports"
	"github.com/jrsteele09/go-accounts-dashboard/server"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	obs.SetupLogger(c.GetEnv(), c.GetLogLevel(), c.GetAppName())
	if err := c.Validate(); err != nil {
		return err
	}
	displayAppname(c.GetAppName())

	ctx := context.Background()

	sessionRepo, closeSessions, err := openSessionStore(ctx, c)
	if err != nil {
		return err
	}
	defer closeSessions()

	groupRepo, closeGroups, err := openGroupStore(ctx, c)
	if err != nil {
		return err
	}
	defer closeGroups()

	api := accounting.NewClient(c.GetAPIBaseURL(), c.GetUpstreamTimeout())
	auth, err := oauth.New(ctx, c, api, oauth.NewInMemoryFlowRepo(c.GetAuthFlowTimeout()))
	if err != nil {
		return err
	}
	aggregator := reports.NewAggregator(api)

	handler, err := server.New(c, server.Deps{
		Sessions:   sessionRepo,
		Auth:       auth,
		Accounting: api,
		Reports:    aggregator,
		Groups:     groups.NewService(groupRepo, aggregator),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- listenAndServe(srv) }()

	select {
	case err := <-errCh:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(srv)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
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
