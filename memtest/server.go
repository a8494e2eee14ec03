package memtest

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Al-aminI/memsient-go/api"
)

// Server is a fake Memsient backend holding all state in memory
// behind one mutex. Construct with New; it is safe for concurrent
// requests.
type Server struct {
	logger     *zap.Logger
	validate   *validator.Validate
	secret     []byte
	asyncDelay time.Duration
	handler    http.Handler

	mu         sync.Mutex
	users      map[string]*userRecord
	byEmail    map[string]string
	memories   map[string]map[string]*memoryRecord
	jobs       map[string]*ingestJob
	keys       map[string]*keyRecord
	plans      []api.Plan
	subs       map[string]*api.Subscription
	retrievals map[string]int
	invoices   map[string][]api.Invoice
	checkouts  map[string]*checkoutRecord
}

type userRecord struct {
	user     api.User
	password string
}

type memoryRecord struct {
	info   api.Memory
	chunks []string
}

type ingestJob struct {
	status   api.IngestStatus
	content  string
	received time.Time
}

type keyRecord struct {
	key    api.APIKey
	userID string
	secret string
}

type checkoutRecord struct {
	userID string
	planID string
}

// Option configures the server.
type Option func(*Server)

// WithLogger enables request logging. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAsyncDelay delays async ingestion jobs so polls can observe the
// accepted state. The default of zero completes jobs before the
// acceptance response is written, which keeps tests deterministic.
func WithAsyncDelay(d time.Duration) Option {
	return func(s *Server) {
		s.asyncDelay = d
	}
}

// New creates a fake backend with seeded plans and no users.
func New(opts ...Option) *Server {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("memtest: cannot read random secret: " + err.Error())
	}

	s := &Server{
		logger:     zap.NewNop(),
		validate:   validator.New(),
		secret:     secret,
		users:      make(map[string]*userRecord),
		byEmail:    make(map[string]string),
		memories:   make(map[string]map[string]*memoryRecord),
		jobs:       make(map[string]*ingestJob),
		keys:       make(map[string]*keyRecord),
		plans:      seedPlans(),
		subs:       make(map[string]*api.Subscription),
		retrievals: make(map[string]int),
		invoices:   make(map[string][]api.Invoice),
		checkouts:  make(map[string]*checkoutRecord),
	}
	// Report fields by their json names in validation messages.
	s.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root handler, ready for httptest.NewServer or
// http.ListenAndServe.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Get("/plans", s.handleListPlans)
		r.Get("/plans/{planID}", s.handleGetPlan)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Get("/auth/me", s.handleMe)

			r.Get("/memory", s.handleListMemories)
			r.Post("/memory/create", s.handleCreateMemory)
			r.Post("/memory/ingest/text", s.handleIngestText)
			r.Get("/memory/ingest/status/{requestID}", s.handleIngestStatus)
			r.Post("/memory/query", s.handleQuery)
			r.Get("/memory/{memoryID}", s.handleGetMemory)
			r.Delete("/memory/{memoryID}", s.handleDeleteMemory)

			r.Get("/api-keys", s.handleListKeys)
			r.Post("/api-keys", s.handleCreateKey)
			r.Post("/api-keys/{keyID}/revoke", s.handleRevokeKey)
			r.Delete("/api-keys/{keyID}", s.handleDeleteKey)

			r.Get("/subscriptions/me", s.handleMySubscription)
			r.Post("/payments/checkout", s.handleCheckout)
			r.Get("/usage", s.handleUsage)
			r.Get("/invoices", s.handleInvoices)
		})
	})
	return r
}

// requestLogger logs one line per request with status and timing.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("requestID", r.Header.Get("X-Request-ID")),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// detail writes the platform's error shape: {"detail": msg} where msg
// is a string or a list of strings.
func detail(w http.ResponseWriter, status int, msg any) {
	writeJSON(w, status, map[string]any{"detail": msg})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// validationDetails turns validator errors into the detail-list shape
// the real backend produces on 422s.
func (s *Server) validationDetails(err error) []string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "email":
			msgs = append(msgs, fe.Field()+" must be a valid email address")
		case "min":
			msgs = append(msgs, fe.Field()+" must be at least "+fe.Param()+" characters")
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return msgs
}
