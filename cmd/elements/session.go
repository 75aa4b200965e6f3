package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/elements/internal/config"
	"github.com/vango-dev/elements/internal/errors"
	"github.com/vango-dev/elements/internal/manifest"
	"github.com/vango-dev/elements/internal/source"
	"github.com/vango-dev/elements/pkg/dom"
	"github.com/vango-dev/elements/pkg/hostvalue/native"
	"github.com/vango-dev/elements/pkg/inspect"
	"github.com/vango-dev/elements/pkg/metrics"
	"github.com/vango-dev/elements/pkg/reactions"
	"github.com/vango-dev/elements/pkg/realm"
	"github.com/vango-dev/elements/pkg/registry"
)

// sessionOptions override configuration from flags.
type sessionOptions struct {
	document string
	manifest string
	withHub  bool
}

// reactionError is an error reported while running a reaction.
type reactionError struct {
	element *dom.Node
	err     error
}

// session is a realm loaded from configuration, with the manifest parsed
// but not yet applied.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	realm    *realm.Realm
	manifest *manifest.Manifest

	loader       *source.Loader
	manifestPath string
	ctors        manifest.Constructors

	gatherer *prometheus.Registry
	hub      *inspect.Hub

	invocations    []manifest.Invocation
	reactionErrors []reactionError
}

// loadConfig resolves --config: a file, a directory, or a search upwards
// from the working directory. Missing configuration falls back to
// defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		root, err := config.FindProjectRoot(wd)
		if err != nil {
			return config.New(), nil
		}
		return config.Load(root)
	}
	if st, err := os.Stat(path); err == nil && st.IsDir() {
		return config.LoadOrDefault(path)
	}
	return config.LoadFile(path)
}

func openSession(ctx context.Context, flags *globalFlags, opts sessionOptions) (*session, error) {
	cfg, err := loadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.verbose {
		cfg.Log.Level = "debug"
	}
	logger := cfg.Logger(os.Stderr)

	documentPath := cfg.ResolvePath(cfg.Document)
	if opts.document != "" {
		documentPath = opts.document
	}
	manifestPath := cfg.ResolvePath(cfg.Manifest)
	if opts.manifest != "" {
		manifestPath = opts.manifest
	}

	loader := source.New(
		source.WithS3Client(source.NewS3Client(cfg.S3)),
		source.WithLogger(logger),
	)

	docData, err := loader.Read(ctx, documentPath)
	if err != nil {
		return nil, err
	}
	doc, err := dom.Parse(bytes.NewReader(docData))
	if err != nil {
		return nil, errors.New("E083").WithDetail(documentPath).Wrap(err)
	}

	manifestData, err := loader.Read(ctx, manifestPath)
	if err != nil {
		return nil, err
	}
	m, err := manifest.Parse(displayName(manifestPath), manifestData)
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:          cfg,
		logger:       logger,
		manifest:     m,
		loader:       loader,
		manifestPath: manifestPath,
		ctors:        make(manifest.Constructors),
	}

	registryOpts := []registry.Option{registry.WithTracerName(cfg.Tracing.TracerName)}
	reactionOpts := []reactions.Option{reactions.WithErrorHandler(func(el *dom.Node, err error) {
		s.reactionErrors = append(s.reactionErrors, reactionError{element: el, err: err})
	})}
	if cfg.Metrics.Enabled {
		s.gatherer = prometheus.NewRegistry()
		collector := metrics.New(
			metrics.WithRegistry(s.gatherer),
			metrics.WithNamespace(cfg.Metrics.Namespace),
		)
		registryOpts = append(registryOpts, registry.WithObserver(collector))
		reactionOpts = append(reactionOpts, reactions.WithObserver(collector))
	}
	if opts.withHub {
		s.hub = inspect.NewHub(logger)
		registryOpts = append(registryOpts, registry.WithObserver(s.hub))
		reactionOpts = append(reactionOpts, reactions.WithObserver(s.hub))
	}

	s.realm = realm.New(native.NewHost(displayName(documentPath)), doc,
		realm.WithLogger(logger),
		realm.WithRegistryOptions(registryOpts...),
		realm.WithReactionOptions(reactionOpts...),
	)
	logger.Debug("session opened", "document", documentPath, "manifest", manifestPath, "entries", len(m.Entries))
	return s, nil
}

// apply defines every manifest entry and returns the definition errors.
func (s *session) apply(ctx context.Context) []*errors.Error {
	return s.applyManifest(ctx, s.manifest)
}

func (s *session) applyManifest(ctx context.Context, m *manifest.Manifest) []*errors.Error {
	return m.Apply(ctx, s.realm, s.ctors, func(inv manifest.Invocation) {
		s.invocations = append(s.invocations, inv)
	})
}

// reload re-reads the manifest and defines the entries whose names are not
// defined yet. The realm's loop must be running.
func (s *session) reload(ctx context.Context) (added int, errs []*errors.Error, reactionErrs []reactionError, err error) {
	data, err := s.loader.Read(ctx, s.manifestPath)
	if err != nil {
		return 0, nil, nil, err
	}
	m, err := manifest.Parse(displayName(s.manifestPath), data)
	if err != nil {
		return 0, nil, nil, err
	}

	err = s.realm.Do(ctx, func() {
		rest := m.Filter(func(e *manifest.Entry) bool {
			_, ok := s.realm.Registry.Get(e.Name)
			return !ok
		})
		before, seen := s.realm.Registry.Len(), len(s.reactionErrors)
		errs = s.applyManifest(ctx, rest)
		added = s.realm.Registry.Len() - before
		reactionErrs = append(reactionErrs, s.reactionErrors[seen:]...)
		s.manifest = m
	})
	return added, errs, reactionErrs, err
}

// printDefinitionErrors prints errs and reports whether there were any.
func printDefinitionErrors(errs []*errors.Error) bool {
	for _, err := range errs {
		printError(err)
	}
	return len(errs) > 0
}

// printReactionErrors prints upgrade and callback failures as warnings.
func (s *session) printReactionErrors() {
	printReactionErrors(s.reactionErrors)
}

func printReactionErrors(errs []reactionError) {
	for _, re := range errs {
		warn("%s: %v", re.element, re.err)
	}
}

func displayName(path string) string {
	if filepath.IsAbs(path) {
		if wd, err := os.Getwd(); err == nil {
			if rel, err := filepath.Rel(wd, path); err == nil && !startsWithDotDot(rel) {
				return rel
			}
		}
	}
	return path
}

func startsWithDotDot(p string) bool {
	return len(p) >= 2 && p[:2] == ".."
}

// definitionFailure is returned by commands that found definition errors.
type definitionFailure struct {
	count int
}

func (d definitionFailure) Error() string {
	return fmt.Sprintf("%d definition(s) failed", d.count)
}
