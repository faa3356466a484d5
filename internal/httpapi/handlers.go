package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"backoffice.app/internal/apperr"
	"backoffice.app/internal/auth"
	"backoffice.app/internal/media"
	"backoffice.app/internal/obs"
)

const serviceName = "backoffice-api"

// Pinger is implemented by every store adapter.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyProbe checks the store with a bounded timeout.
type ReadyProbe struct {
	Store   Pinger
	Timeout time.Duration
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.Store == nil {
		return nil
	}
	timeout := rp.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return rp.Store.Ping(ctx)
}

type Config struct {
	Production   bool
	CORSOrigins  []string
	MaxBodyBytes int64
}

// API is the HTTP layer.
type API struct {
	accounts *auth.Service
	images   *media.Service
	ready    ReadyProbe
	metrics  *obs.Metrics
	logger   *slog.Logger
	boundary *Boundary
	cfg      Config
	router   chi.Router
}

func New(accounts *auth.Service, images *media.Service, ready ReadyProbe, metrics *obs.Metrics, logger *slog.Logger, cfg Config) (*API, error) {
	if accounts == nil || images == nil {
		return nil, errors.New("account and image services are required")
	}
	if metrics == nil {
		metrics = obs.NewMetrics()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 50 << 20
	}
	a := &API{
		accounts: accounts,
		images:   images,
		ready:    ready,
		metrics:  metrics,
		logger:   logger,
		boundary: NewBoundary(logger, cfg.Production, metrics),
		cfg:      cfg,
	}
	a.router = a.routes()
	return a, nil
}

func (a *API) Handler() http.Handler { return a.router }

func (a *API) Boundary() *Boundary { return a.boundary }

func (a *API) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(
		RequestID,
		Logging(a.logger),
		a.metrics.Instrument,
		Recover(a.boundary),
		SecurityHeaders,
		CORS(a.cfg.CORSOrigins),
		MaxBodyBytes(a.cfg.MaxBodyBytes),
	)
	r.NotFound(a.handle(func(w http.ResponseWriter, r *http.Request) error {
		return errRouteNotFound(r)
	}))
	r.MethodNotAllowed(a.handle(func(w http.ResponseWriter, r *http.Request) error {
		return errMethodNotAllowed()
	}))

	r.Get("/healthz", a.Healthz)
	r.Get("/readyz", a.Ready)
	r.Get("/v1/info", a.Info)
	r.Method(http.MethodGet, "/metrics", a.metrics.Handler())

	r.Route("/admin", func(r chi.Router) {
		r.Post("/", a.handle(a.createAdmin))
		r.Get("/", a.handle(a.listAdmins))
		r.Get("/{id}", a.handle(a.getAdmin))
		r.Put("/{id}", a.handle(a.updateAdmin))
		r.Patch("/{id}", a.handle(a.updateAdmin))
		r.Delete("/{id}", a.handle(a.deleteAdmin))
	})
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", a.handle(a.login))
		r.Post("/register", a.handle(a.register))
	})
	r.Route("/images", func(r chi.Router) {
		r.Post("/", a.handle(a.createImage))
		r.Get("/", a.handle(a.listImages))
		r.Get("/{id}", a.handle(a.getImage))
		r.Delete("/{id}", a.handle(a.deleteImage))
	})
	return r
}

// handlerFunc returns its failure instead of writing it.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (a *API) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			a.boundary.Render(w, r, err)
		}
	}
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": obs.Version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.ready.Check(r.Context()); err != nil {
		a.boundary.Render(w, r, apperr.Wrap(apperr.KindServiceUnavailable, "store not ready", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":  serviceName,
		"time":  time.Now().UTC().Format(time.RFC3339),
		"build": obs.Build(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
