// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/campusride/go-ride-backend/internal/config"
	"github.com/campusride/go-ride-backend/internal/domain"
	"github.com/campusride/go-ride-backend/internal/http/handlers"
	"github.com/campusride/go-ride-backend/internal/http/middleware"
	"github.com/campusride/go-ride-backend/internal/repo"
	"github.com/campusride/go-ride-backend/internal/services"
)

// rideRepoShim adapts the repository free functions to the services.RideRepo
// and services.SeatMutator interfaces. This keeps services decoupled from the
// concrete repo package while reusing existing functions.
type rideRepoShim struct{}

func (rideRepoShim) InsertRide(ctx context.Context, db *mongo.Database, ride *domain.Ride) (*domain.Ride, error) {
	return repo.InsertRide(ctx, db, ride)
}

func (rideRepoShim) GetRide(ctx context.Context, db *mongo.Database, id string) (*domain.Ride, error) {
	return repo.GetRide(ctx, db, id)
}

func (rideRepoShim) ListRides(ctx context.Context, db *mongo.Database, from, to string) ([]domain.Ride, error) {
	return repo.ListRides(ctx, db, from, to)
}

func (rideRepoShim) SearchRides(ctx context.Context, db *mongo.Database, fromSub, toSub string, now time.Time) ([]domain.Ride, error) {
	return repo.SearchRides(ctx, db, fromSub, toSub, now)
}

func (rideRepoShim) ListRidesByCreator(ctx context.Context, db *mongo.Database, userID string) ([]domain.Ride, error) {
	return repo.ListRidesByCreator(ctx, db, userID)
}

func (rideRepoShim) RidesByIDs(ctx context.Context, db *mongo.Database, ids []string) ([]domain.Ride, error) {
	return repo.RidesByIDs(ctx, db, ids)
}

func (rideRepoShim) DecrementSeat(ctx context.Context, db *mongo.Database, id string) error {
	return repo.DecrementSeat(ctx, db, id)
}

func (rideRepoShim) IncrementSeat(ctx context.Context, db *mongo.Database, id string) error {
	return repo.IncrementSeat(ctx, db, id)
}

func (rideRepoShim) DeleteRide(ctx context.Context, db *mongo.Database, id string) error {
	return repo.DeleteRide(ctx, db, id)
}

// requestRepoShim adapts the repository free functions to services.RequestRepo
// and services.RequestCascade.
type requestRepoShim struct{}

func (requestRepoShim) InsertJoinRequest(ctx context.Context, db *mongo.Database, req *domain.JoinRequest) (*domain.JoinRequest, error) {
	return repo.InsertJoinRequest(ctx, db, req)
}

func (requestRepoShim) HasPendingRequest(ctx context.Context, db *mongo.Database, rideID, requesterID string) (bool, error) {
	return repo.HasPendingRequest(ctx, db, rideID, requesterID)
}

func (requestRepoShim) ListRequestsForRide(ctx context.Context, db *mongo.Database, rideID string, status domain.RequestStatus) ([]domain.JoinRequest, error) {
	return repo.ListRequestsForRide(ctx, db, rideID, status)
}

func (requestRepoShim) ResolvePendingRequest(ctx context.Context, db *mongo.Database, rideID, requesterID string, to domain.RequestStatus) error {
	return repo.ResolvePendingRequest(ctx, db, rideID, requesterID, to)
}

func (requestRepoShim) ListApprovedByRequester(ctx context.Context, db *mongo.Database, userID string) ([]domain.JoinRequest, error) {
	return repo.ListApprovedByRequester(ctx, db, userID)
}

func (requestRepoShim) DeleteRequestsForRide(ctx context.Context, db *mongo.Database, rideID string) (int64, error) {
	return repo.DeleteRequestsForRide(ctx, db, rideID)
}

// profileRepoShim adapts the repository free functions to services.ProfileRepo.
type profileRepoShim struct{}

func (profileRepoShim) UpsertProfile(ctx context.Context, db *mongo.Database, userID, fullName, phone, email string) error {
	return repo.UpsertProfile(ctx, db, userID, fullName, phone, email)
}

func (profileRepoShim) GetProfile(ctx context.Context, db *mongo.Database, userID string) (*domain.Profile, error) {
	return repo.GetProfile(ctx, db, userID)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *mongo.Database, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key",
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist.
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Compress listing payloads.
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	rideSvc := services.NewRideService(db, rideRepoShim{}, requestRepoShim{})
	rideSvc.ExpiryGrace = cfg.RideExpiryGrace
	reqSvc := services.NewRequestService(db, requestRepoShim{}, rideRepoShim{})
	profSvc := services.NewProfileService(db, profileRepoShim{})

	h := handlers.New(rideSvc, reqSvc, profSvc, cfg.IdempotencyTTL)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Rides
		api.POST("/rides", h.CreateRide)
		api.GET("/rides", h.ListRides)
		api.GET("/rides/search", h.SearchRides)
		api.GET("/rides/:id", h.GetRide)
		api.DELETE("/rides/:id", h.DeleteRide)
		api.GET("/users/:id/rides", h.ListUserRides)
		api.GET("/dashboard", h.Dashboard)

		// Join requests
		api.POST("/rides/:id/requests", h.SubmitRequest)
		api.GET("/rides/:id/requests", h.ListRequests)
		api.POST("/rides/:id/requests/:userId/approve", h.ApproveRequest)
		api.POST("/rides/:id/requests/:userId/reject", h.RejectRequest)

		// Profiles
		api.PUT("/profiles/:id", h.UpsertProfile)
		api.GET("/profiles/:id", h.GetProfile)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
