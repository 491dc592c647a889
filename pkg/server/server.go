// Package server provides the HTTP api for dominance runs.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mpapenbr/track-dominance/log"
	"github.com/mpapenbr/track-dominance/pkg/cache"
	"github.com/mpapenbr/track-dominance/pkg/model"
	"github.com/mpapenbr/track-dominance/pkg/repository"
	utilcache "github.com/mpapenbr/track-dominance/pkg/utils/cache"
	"github.com/mpapenbr/track-dominance/pkg/utils/cache/loadercache"
)

type (
	// ScheduleSource lists meetings and sessions
	ScheduleSource interface {
		Meetings(ctx context.Context, year int) ([]model.Meeting, error)
		Sessions(ctx context.Context, meetingKey int) ([]model.Session, error)
	}
	// DominanceComputer computes a run for a session
	DominanceComputer interface {
		Compute(ctx context.Context, sessionKey int, binWidth float64) (*model.Result, error)
	}
	runKey struct {
		session  int
		binWidth float64
	}
	Option func(*Server)
	Server struct {
		schedule   ScheduleSource
		dominance  DominanceComputer
		db         repository.Querier
		store      bool
		stats      cache.Store
		runTTL     time.Duration
		assetsHost string
		log        *log.Logger
		runs       utilcache.Cache[runKey, model.Result]
	}
)

func WithSchedule(s ScheduleSource) Option {
	return func(srv *Server) {
		srv.schedule = s
	}
}

func WithDominance(d DominanceComputer) Option {
	return func(srv *Server) {
		srv.dominance = d
	}
}

// WithDB enables the run endpoints. If store is true computed runs are persisted.
func WithDB(db repository.Querier, store bool) Option {
	return func(srv *Server) {
		srv.db = db
		srv.store = store
	}
}

// WithCacheStats reports the statistics of the response cache on /healthz
func WithCacheStats(s cache.Store) Option {
	return func(srv *Server) {
		srv.stats = s
	}
}

func WithRunTTL(d time.Duration) Option {
	return func(srv *Server) {
		srv.runTTL = d
	}
}

func WithAssetsHost(host string) Option {
	return func(srv *Server) {
		srv.assetsHost = host
	}
}

func WithLogger(l *log.Logger) Option {
	return func(srv *Server) {
		srv.log = l
	}
}

func New(opts ...Option) *Server {
	ret := &Server{
		runTTL: 10 * time.Minute,
		log:    log.Default().Named("server"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.runs = loadercache.New(
		loadercache.WithExpiration[runKey, model.Result](ret.runTTL),
		loadercache.WithLoader[runKey, model.Result](ret.loadRun),
		loadercache.WithLogger[runKey, model.Result](ret.log.Named("runs")),
	)
	return ret
}

// Handler returns the api with CORS, tracing and request ids applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.healthz)
	mux.HandleFunc("GET /api/meetings", s.meetings)
	mux.HandleFunc("GET /api/sessions", s.sessions)
	mux.HandleFunc("GET /api/dominance", s.dominanceJSON)
	mux.HandleFunc("GET /dominance.html", s.dominanceHTML)
	mux.HandleFunc("GET /dominance.png", s.dominancePNG)
	mux.HandleFunc("GET /api/runs", s.runsBySession)
	mux.HandleFunc("GET /api/runs/{id}", s.runByID)
	mux.HandleFunc("DELETE /api/runs/{id}", s.deleteRun)

	return otelhttp.NewHandler(
		newCORS().Handler(s.withRequestID(mux)),
		"tdm",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}))
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		l := s.log.With(log.String("requestId", id))
		l.Debug("request", log.String("method", r.Method), log.String("path", r.URL.Path))
		next.ServeHTTP(w, r.WithContext(log.AddToContext(r.Context(), l)))
	})
}

// loadRun computes a run. The computation is shared by concurrent requests
// so it must not be cancelled by the request which started it.
func (s *Server) loadRun(ctx context.Context, key runKey) (*model.Result, error) {
	ctx = context.WithoutCancel(ctx)
	res, err := s.dominance.Compute(ctx, key.session, key.binWidth)
	if err != nil {
		return nil, err
	}
	if s.store && s.db != nil {
		if _, err := storeRun(ctx, s.db, key.session, res); err != nil {
			log.GetFromContext(ctx).Warn("could not store run",
				log.Int("session", key.session), log.ErrorField(err))
		}
	}
	return res, nil
}

func newCORS() *cors.Cors {
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodDelete,
		},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         int(2 * time.Hour / time.Second),
	})
}
