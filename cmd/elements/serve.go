package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/elements/internal/source"
	"github.com/vango-dev/elements/internal/watch"
	"github.com/vango-dev/elements/pkg/inspect"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		opts  sessionOptions
		port  int
		host  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the registry inspector",
		Long: `Define the manifest against the document and serve an HTTP
inspector for the resulting registry.

The inspector lists definitions and elements, waits for definitions,
streams registry events over a websocket and exposes Prometheus
metrics on /metrics.

Examples:
  elements serve
  elements serve --port=8080
  elements serve --host=0.0.0.0
  elements serve --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.withHub = true
			return runServe(flags, opts, host, port, watch)
		},
	}

	cmd.Flags().StringVarP(&opts.document, "document", "d", "", "Document to serve (default from elements.json)")
	cmd.Flags().StringVarP(&opts.manifest, "manifest", "m", "", "Manifest to define (default from elements.json)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from elements.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from elements.json)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Define new manifest entries when the manifest file changes")

	return cmd
}

func runServe(flags *globalFlags, opts sessionOptions, host string, port int, watchManifest bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := openSession(ctx, flags, opts)
	if err != nil {
		return err
	}
	if port > 0 {
		s.cfg.Inspect.Port = port
	}
	if host != "" {
		s.cfg.Inspect.Host = host
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	maxWait, err := time.ParseDuration(s.cfg.Inspect.WhenDefinedTimeout)
	if err != nil {
		maxWait = inspect.DefaultWhenDefinedTimeout
	}

	errs := s.apply(ctx)
	printDefinitionErrors(errs)
	s.printReactionErrors()

	inspectOpts := []inspect.Option{
		inspect.WithLogger(s.logger),
		inspect.WithHub(s.hub),
		inspect.WithMaxWait(maxWait),
	}
	if s.gatherer != nil {
		inspectOpts = append(inspectOpts, inspect.WithGatherer(s.gatherer))
	}
	server := &http.Server{
		Addr:              s.cfg.InspectAddress(),
		Handler:           inspect.New(s.realm, inspectOpts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	loopDone := make(chan error, 1)
	go func() { loopDone <- s.realm.Run(ctx) }()

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.ListenAndServe() }()

	watchDone := make(chan struct{})
	if watchManifest {
		if err := startWatch(ctx, s, watchDone); err != nil {
			warn("not watching manifest: %v", err)
			close(watchDone)
		}
	} else {
		close(watchDone)
	}

	success("Inspector listening on http://%s", server.Addr)
	info("%d definitions, %d rejected", s.realm.Registry.Len(), len(errs))

	select {
	case <-ctx.Done():
		fmt.Println("\n\n  Shutting down...")
	case err := <-serveErr:
		if !stderrors.Is(err, http.ErrServerClosed) {
			cancel()
			<-watchDone
			<-loopDone
			return err
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	s.hub.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		errorMsg("shutdown: %v", err)
	}
	cancel()
	<-watchDone
	<-loopDone
	s.realm.Close()
	return nil
}

// startWatch defines new manifest entries whenever a local manifest is
// written. done is closed when the watcher stops.
func startWatch(ctx context.Context, s *session, done chan<- struct{}) error {
	loc, err := source.Parse(s.manifestPath)
	if err != nil {
		return err
	}
	if loc.IsS3() {
		return fmt.Errorf("%s is not a local file", s.manifestPath)
	}
	w, err := watch.New([]string{loc.Path}, watch.WithLogger(s.logger))
	if err != nil {
		return err
	}

	go func() {
		defer close(done)
		w.Run(ctx, func(string) {
			added, errs, reactionErrs, err := s.reload(ctx)
			if err != nil {
				if ctx.Err() == nil {
					printError(err)
				}
				return
			}
			printDefinitionErrors(errs)
			printReactionErrors(reactionErrs)
			info("Manifest reloaded: %d new definitions", added)
		})
	}()
	info("Watching %s", s.manifestPath)
	return nil
}
