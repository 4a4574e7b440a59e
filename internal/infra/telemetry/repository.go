package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kislikjeka/userregistry/internal/platform/user"
)

const instrumentationName = "github.com/kislikjeka/userregistry/internal/infra/telemetry"

// Outcome labels attached to spans and metrics
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// TracedRepository decorates a user.Repository with a span, a call counter
// and a duration histogram per operation
type TracedRepository struct {
	next     user.Repository
	driver   string
	tracer   trace.Tracer
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

// Option configures a TracedRepository
type Option func(*options)

type options struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// WithTracerProvider overrides the global tracer provider
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// WithMeterProvider overrides the global meter provider
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// NewTracedRepository wraps next; driver names the backing store in attributes
func NewTracedRepository(next user.Repository, driver string, opts ...Option) (*TracedRepository, error) {
	o := options{
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	meter := o.meterProvider.Meter(instrumentationName)

	calls, err := meter.Int64Counter("userregistry.repository.calls",
		metric.WithDescription("Number of user repository calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("userregistry.repository.duration",
		metric.WithDescription("User repository call duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500),
	)
	if err != nil {
		return nil, err
	}

	return &TracedRepository{
		next:     next,
		driver:   driver,
		tracer:   o.tracerProvider.Tracer(instrumentationName),
		calls:    calls,
		duration: duration,
	}, nil
}

// Create records an insert
func (r *TracedRepository) Create(ctx context.Context, u *user.User) error {
	ctx, end := r.start(ctx, "insert")
	err := r.next.Create(ctx, u)
	end(err)
	return err
}

// GetByID records a lookup by id
func (r *TracedRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	ctx, end := r.start(ctx, "find_by_id", attribute.Int64("user.id", id))
	u, err := r.next.GetByID(ctx, id)
	end(err)
	return u, err
}

// GetByEmail records a lookup by email
func (r *TracedRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	ctx, end := r.start(ctx, "find_by_email")
	u, err := r.next.GetByEmail(ctx, email)
	end(err)
	return u, err
}

// List records a full scan
func (r *TracedRepository) List(ctx context.Context) ([]*user.User, error) {
	ctx, end := r.start(ctx, "find_all")
	users, err := r.next.List(ctx)
	end(err)
	return users, err
}

// Update records an update
func (r *TracedRepository) Update(ctx context.Context, u *user.User) error {
	ctx, end := r.start(ctx, "update", attribute.Int64("user.id", u.ID))
	err := r.next.Update(ctx, u)
	end(err)
	return err
}

// Delete records a delete
func (r *TracedRepository) Delete(ctx context.Context, id int64) error {
	ctx, end := r.start(ctx, "delete", attribute.Int64("user.id", id))
	err := r.next.Delete(ctx, id)
	end(err)
	return err
}

func (r *TracedRepository) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	base := []attribute.KeyValue{
		attribute.String("db.operation", op),
		attribute.String("db.system", r.driver),
	}

	ctx, span := r.tracer.Start(ctx, "user_repository."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(base, attrs...)...),
	)
	started := time.Now()

	return ctx, func(err error) {
		outcome := Outcome(err)
		span.SetAttributes(attribute.String("outcome", outcome))
		if outcome == OutcomeError {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		set := metric.WithAttributes(append(base, attribute.String("outcome", outcome))...)
		r.calls.Add(ctx, 1, set)
		r.duration.Record(ctx, float64(time.Since(started).Microseconds())/1000, set)
	}
}

// Outcome classifies a repository result. Not-found and unique violations
// are expected answers, not failures.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, user.ErrUserNotFound):
		return OutcomeNotFound
	case errors.Is(err, user.ErrEmailAlreadyExists):
		return OutcomeConflict
	default:
		return OutcomeError
	}
}
