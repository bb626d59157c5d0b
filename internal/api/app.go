package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"lingodrill/internal/flow"
	"lingodrill/internal/ports"

	log "github.com/sirupsen/logrus"
)

// RunServer runs the HTTP server exposing the session endpoints. This is a
// blocking call.
func RunServer(port int,
	orchestrator *flow.Orchestrator,
	validator *flow.Validator,
	profiles ports.ProfileStore,
	exercises ports.ExerciseSource,
) {
	h := NewHandler(orchestrator, validator, profiles, exercises)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("lingodrill listening on %s\n", srv.Addr)
	log.Fatal(srv.ListenAndServe())
}

// RunServerInterruptible runs the server in the background in a Go routine and immediately returns a chan to
// the caller. The caller can then send a signal to the chan to gracefully shutdown the server.
// It's up to the caller to wait for in the main Go routine to keep the server running.
func RunServerInterruptible(port int,
	orchestrator *flow.Orchestrator,
	validator *flow.Validator,
	profiles ports.ProfileStore,
	exercises ports.ExerciseSource,
) (stop chan<- struct{}, done <-chan error) {
	h := NewHandler(orchestrator, validator, profiles, exercises)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// one-shot channels for control & completion
	stopCh := make(chan struct{})
	doneCh := make(chan error, 1) // buffered so goroutines can finish without blocking

	// server goroutine
	go func() {
		log.Printf("lingodrill listening on %s\n", srv.Addr)
		err := srv.ListenAndServe()
		// http.ErrServerClosed is returned on Shutdown; treat that as clean exit
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			doneCh <- err
			return
		}
		doneCh <- nil
	}()

	go func() {
		<-stopCh
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx) // graceful; in-flight requests get time to finish
	}()
	return stopCh, doneCh
}
