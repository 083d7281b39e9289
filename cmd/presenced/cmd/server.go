package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/tebraouisamy/presence-app/api"
	"github.com/tebraouisamy/presence-app/attendance"
	"github.com/tebraouisamy/presence-app/directory"
)

var (
	port         int
	dataDir      string
	backend      string
	postgresDSN  string
	coursesPath  string
	graceMinutes int
	tlsCert      string
	tlsKey       string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the attendance service server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if postgresDSN == "" {
			postgresDSN = os.Getenv("DATABASE_URL")
		}
		store, closeStore, err := openStore(ctx, backend, dataDir, postgresDSN)
		if err != nil {
			return err
		}
		defer closeStore()

		dir, err := directory.Load(coursesPath)
		if err != nil {
			return fmt.Errorf("loading course catalog: %w", err)
		}

		codec, err := newCodec()
		if err != nil {
			return fmt.Errorf("building token codec: %w", err)
		}

		// Clock in the catalog's timezone, so record days line up with the
		// days session starts are resolved against.
		a := api.New(store, dir, codec,
			api.WithGrace(time.Duration(graceMinutes)*time.Minute),
			api.WithClock(func() time.Time { return time.Now().In(dir.Location()) }),
		)

		r := chi.NewRouter()
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		r.Mount("/api/v1", a.Router())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			var err error
			if tlsCert != "" && tlsKey != "" {
				err = server.ListenAndServeTLS(tlsCert, tlsKey)
			} else {
				err = server.ListenAndServe()
			}
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		fmt.Printf("Starting server on port %d (backend: %s, grace: %s)...\n",
			port, backend, time.Duration(graceMinutes)*time.Minute)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			fmt.Printf("\nReceived %s, shutting down...\n", sig)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	serverCmd.Flags().StringVar(&dataDir, "data-dir", "./data", "Directory for persistent data (bbolt backend)")
	serverCmd.Flags().StringVar(&backend, "backend", "bbolt", "Storage backend: memory, bbolt or postgres")
	serverCmd.Flags().StringVar(&postgresDSN, "postgres-dsn", "", "PostgreSQL DSN (defaults to DATABASE_URL)")
	serverCmd.Flags().StringVar(&coursesPath, "courses", "courses.yaml", "Path to the course catalog")
	serverCmd.Flags().IntVar(&graceMinutes, "grace-minutes", int(attendance.DefaultGrace/time.Minute), "On-time grace window after session start")
	serverCmd.Flags().StringVar(&tlsCert, "tls-cert", "", "Path to TLS certificate file")
	serverCmd.Flags().StringVar(&tlsKey, "tls-key", "", "Path to TLS key file")
}
