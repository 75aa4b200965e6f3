package inspect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/elements/pkg/definition"
	"github.com/vango-dev/elements/pkg/dom"
	"github.com/vango-dev/elements/pkg/future"
	"github.com/vango-dev/elements/pkg/hostvalue"
	"github.com/vango-dev/elements/pkg/realm"
	"github.com/vango-dev/elements/pkg/registry"
)

// DefaultWhenDefinedTimeout bounds /when-defined when no timeout is given.
const DefaultWhenDefinedTimeout = 30 * time.Second

// Server serves a read-mostly HTTP view of a realm. Every realm access
// runs on the realm's loop, so the loop must be running.
type Server struct {
	realm    *realm.Realm
	hub      *Hub
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	maxWait  time.Duration
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithHub streams events from hub on /events.
func WithHub(hub *Hub) Option {
	return func(s *Server) {
		s.hub = hub
	}
}

// WithGatherer serves metrics from g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithMaxWait caps the timeout a /when-defined request may ask for.
func WithMaxWait(d time.Duration) Option {
	return func(s *Server) {
		s.maxWait = d
	}
}

// New creates an inspector for r.
func New(r *realm.Realm, opts ...Option) *Server {
	s := &Server{
		realm:   r,
		logger:  slog.Default(),
		maxWait: DefaultWhenDefinedTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "inspect")
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/definitions", s.handleDefinitions)
	r.Get("/definitions/{name}", s.handleDefinition)
	r.Get("/when-defined/{name}", s.handleWhenDefined)
	r.Post("/upgrade", s.handleUpgrade)
	r.Get("/elements", s.handleElements)
	r.Get("/document", s.handleDocument)
	if s.hub != nil {
		r.Get("/events", s.hub.HandleWebSocket)
	}
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

// DefinitionInfo is the JSON form of a definition.
type DefinitionInfo struct {
	Name               string   `json:"name"`
	LocalName          string   `json:"localName"`
	Autonomous         bool     `json:"autonomous"`
	ObservedAttributes []string `json:"observedAttributes"`
	Callbacks          []string `json:"callbacks"`
	FormAssociated     bool     `json:"formAssociated"`
	DisableInternals   bool     `json:"disableInternals"`
	DisableShadow      bool     `json:"disableShadow"`
}

func newDefinitionInfo(def *definition.Definition) DefinitionInfo {
	info := DefinitionInfo{
		Name:               def.Name(),
		LocalName:          def.LocalName(),
		Autonomous:         def.IsAutonomous(),
		ObservedAttributes: def.ObservedAttributes(),
		Callbacks:          []string{},
		FormAssociated:     def.FormAssociated(),
		DisableInternals:   def.DisableInternals(),
		DisableShadow:      def.DisableShadow(),
	}
	for name, cb := range def.Callbacks() {
		if cb != nil {
			info.Callbacks = append(info.Callbacks, string(name))
		}
	}
	return info
}

// ElementInfo is the JSON form of an element.
type ElementInfo struct {
	Tag        string `json:"tag"`
	Namespace  string `json:"namespace"`
	Is         string `json:"is,omitempty"`
	State      string `json:"state"`
	Definition string `json:"definition,omitempty"`
	Connected  bool   `json:"connected"`
}

func (s *Server) handleDefinitions(w http.ResponseWriter, r *http.Request) {
	var out []DefinitionInfo
	err := s.realm.Do(r.Context(), func() {
		for _, def := range s.realm.Registry.Definitions() {
			out = append(out, newDefinitionInfo(def))
		}
	})
	if err != nil {
		s.loopError(w, err)
		return
	}
	if out == nil {
		out = []DefinitionInfo{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDefinition(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var (
		info  DefinitionInfo
		found bool
	)
	err := s.realm.Do(r.Context(), func() {
		for _, def := range s.realm.Registry.Definitions() {
			if def.Name() == name {
				info, found = newDefinitionInfo(def), true
				return
			}
		}
	})
	if err != nil {
		s.loopError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not defined: "+name)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleWhenDefined waits until name is defined, the timeout expires or
// the registry is closed.
func (s *Server) handleWhenDefined(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	timeout := s.maxWait
	if raw := r.URL.Query().Get("timeout"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			writeError(w, http.StatusBadRequest, "invalid timeout "+raw)
			return
		}
		timeout = min(d, s.maxWait)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	var f *future.Future[hostvalue.Value]
	err := s.realm.Do(ctx, func() {
		f = s.realm.Registry.WhenDefined(name)
	})
	if err != nil {
		s.loopError(w, err)
		return
	}

	ctor, err := f.Await(ctx)
	var derr *registry.DefinitionError
	switch {
	case errors.As(err, &derr):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"name": name, "error": derr.Error(), "class": derr.Class(),
		})
		return
	case errors.Is(err, registry.ErrRegistryClosed):
		writeError(w, http.StatusGone, err.Error())
		return
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusRequestTimeout, "timed out waiting for "+name)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var constructor string
	if err := s.realm.Do(ctx, func() { constructor = s.realm.Host.Describe(ctor) }); err != nil {
		s.loopError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "defined": true, "constructor": constructor})
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	counts := make(map[string]int)
	err := s.realm.Do(r.Context(), func() {
		s.realm.Upgrade(r.Context(), s.realm.Document)
		for _, el := range s.realm.Document.Elements() {
			counts[el.State().String()]++
		}
	})
	if err != nil {
		s.loopError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"states": counts})
}

func (s *Server) handleElements(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	out := []ElementInfo{}
	err := s.realm.Do(r.Context(), func() {
		for _, el := range s.realm.Document.Elements() {
			if state != "" && el.State().String() != state {
				continue
			}
			if state == "" && el.State() == dom.StateUncustomized {
				continue
			}
			info := ElementInfo{
				Tag:       el.LocalName,
				Namespace: el.Namespace,
				Is:        el.Is(),
				State:     el.State().String(),
				Connected: el.IsConnected(),
			}
			if def := el.Definition(); def != nil {
				info.Definition = def.Name()
			}
			out = append(out, info)
		}
	})
	if err != nil {
		s.loopError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	var (
		buf       bytes.Buffer
		renderErr error
	)
	err := s.realm.Do(r.Context(), func() {
		renderErr = dom.Render(&buf, s.realm.Document)
	})
	if err == nil {
		err = renderErr
	}
	if err != nil {
		s.loopError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) loopError(w http.ResponseWriter, err error) {
	s.logger.Warn("realm request failed", "error", err)
	status := http.StatusServiceUnavailable
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusRequestTimeout
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
