package instrumented

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/wishlist/internal/domain"
	"github.com/utafrali/wishlist/internal/repository"
	apperrors "github.com/utafrali/wishlist/pkg/errors"
)

const tracerName = "github.com/utafrali/wishlist/internal/repository/instrumented"

// BreakerConfig holds the circuit breaker settings for the store.
type BreakerConfig struct {
	// Name identifies the breaker in metrics and logs.
	Name string

	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32

	// Interval clears the failure counts while closed. 0 never clears them.
	Interval time.Duration

	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration

	// FailureRatio trips the breaker once at least MinRequests were made.
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerConfig returns the defaults used by the wishlist service.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

var breakerState = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "wishlist_store_breaker_state",
		Help: "Current state of the store circuit breaker (0=closed, 1=half-open, 2=open)",
	},
	[]string{"name"},
)

func init() {
	prometheus.MustRegister(breakerState)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// isSuccessful reports whether err should count as a healthy store call.
// Missing wishlists, lost version races and caller cancellation say nothing
// about the store itself.
func isSuccessful(err error) bool {
	return err == nil ||
		errors.Is(err, apperrors.ErrNotFound) ||
		errors.Is(err, apperrors.ErrConflict) ||
		errors.Is(err, context.Canceled)
}

// WishlistRepository decorates another repository with tracing spans and a
// circuit breaker. When the breaker is open calls fail fast with a
// ServiceUnavailable error and never reach the store.
type WishlistRepository struct {
	next    repository.WishlistRepository
	store   string
	breaker *gobreaker.CircuitBreaker[*domain.Wishlist]
	tracer  trace.Tracer
}

// NewWishlistRepository wraps next. store names the backing store in spans.
func NewWishlistRepository(next repository.WishlistRepository, store string, cfg BreakerConfig, logger *slog.Logger) *WishlistRepository {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("store circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
		IsSuccessful: isSuccessful,
	}

	breakerState.WithLabelValues(cfg.Name).Set(0)

	return &WishlistRepository{
		next:    next,
		store:   store,
		breaker: gobreaker.NewCircuitBreaker[*domain.Wishlist](settings),
		tracer:  otel.Tracer(tracerName),
	}
}

// FindByOwner implements repository.WishlistRepository.
func (r *WishlistRepository) FindByOwner(ctx context.Context, userID string) (*domain.Wishlist, error) {
	ctx, span := r.start(ctx, "FindByOwner", userID)
	defer span.End()

	w, err := r.breaker.Execute(func() (*domain.Wishlist, error) {
		return r.next.FindByOwner(ctx, userID)
	})
	if w != nil {
		span.SetAttributes(attribute.Int("wishlist.items", w.Len()))
	}
	return w, r.finish(span, err)
}

// Save implements repository.WishlistRepository.
func (r *WishlistRepository) Save(ctx context.Context, w *domain.Wishlist) (*domain.Wishlist, error) {
	ctx, span := r.start(ctx, "Save", w.UserID)
	defer span.End()
	span.SetAttributes(
		attribute.Bool("wishlist.pending", w.IsPending()),
		attribute.Int("wishlist.version", w.Version),
		attribute.Int("wishlist.items", w.Len()),
	)

	saved, err := r.breaker.Execute(func() (*domain.Wishlist, error) {
		return r.next.Save(ctx, w)
	})
	return saved, r.finish(span, err)
}

// Ping bypasses the breaker so readiness reflects the store itself.
func (r *WishlistRepository) Ping(ctx context.Context) error {
	ctx, span := r.start(ctx, "Ping", "")
	defer span.End()
	return r.finish(span, r.next.Ping(ctx))
}

// State returns the current breaker state.
func (r *WishlistRepository) State() gobreaker.State {
	return r.breaker.State()
}

func (r *WishlistRepository) start(ctx context.Context, op, userID string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("wishlist.store", r.store)}
	if userID != "" {
		attrs = append(attrs, attribute.String("wishlist.user_id", userID))
	}
	return r.tracer.Start(ctx, "WishlistRepository."+op, trace.WithAttributes(attrs...))
}

func (r *WishlistRepository) finish(span trace.Span, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = apperrors.ServiceUnavailable("wishlist store unavailable", err)
	}
	if !isSuccessful(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
