package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-form-engine/internal/events"
)

// Outcomes recorded per notifier call.
const (
	OutcomeSent     = "sent"
	OutcomeFailed   = "failed"
	OutcomeDisabled = "disabled"
)

// notificationsTotal counts notifier calls by notifier and outcome.
var notificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "form_notifications_total",
		Help: "Notifier invocations by notifier and outcome.",
	},
	[]string{"notifier", "outcome"},
)

func init() {
	prometheus.MustRegister(notificationsTotal)
}

// DefaultTimeout bounds a single notifier call when none is configured.
const DefaultTimeout = 5 * time.Second

// Result describes one notifier's handling of an event.
type Result struct {
	Notifier string
	Outcome  string
	Err      error
}

// Dispatcher forwards submission events to every enabled notifier.
//
// Delivery is best-effort and at-most-once: notifiers run sequentially, each
// under its own timeout on a context detached from the caller's cancellation,
// and a failure is logged and counted but never retried or returned.
type Dispatcher struct {
	mu        sync.RWMutex
	notifiers []Notifier

	timeout time.Duration
	logger  zerolog.Logger
}

// NewDispatcher creates a dispatcher. A non-positive timeout uses DefaultTimeout.
func NewDispatcher(logger zerolog.Logger, timeout time.Duration, notifiers ...Notifier) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	d := &Dispatcher{timeout: timeout, logger: logger}
	d.Replace(notifiers)
	return d
}

// Replace swaps the notifier set. Calls already in flight keep the old set.
func (d *Dispatcher) Replace(notifiers []Notifier) {
	cp := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			cp = append(cp, n)
		}
	}
	d.mu.Lock()
	d.notifiers = cp
	d.mu.Unlock()
}

// Notifiers returns a snapshot of the configured notifiers.
func (d *Dispatcher) Notifiers() []Notifier {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Notifier(nil), d.notifiers...)
}

// Subscribe registers the dispatcher as the SubmissionCreated handler on bus.
func (d *Dispatcher) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.SubmissionCreated, d.Handle)
}

// Handle is the events.Handler adapter. Other event types are ignored.
func (d *Dispatcher) Handle(ctx context.Context, e events.Event) {
	if sc, ok := e.(events.SubmissionCreatedEvent); ok {
		d.OnSubmissionCreated(ctx, sc)
	}
}

// OnSubmissionCreated calls Notify on each enabled notifier, in order, and
// reports what happened to every configured notifier.
func (d *Dispatcher) OnSubmissionCreated(ctx context.Context, e events.SubmissionCreatedEvent) []Result {
	tr := otel.Tracer("notify/Dispatcher")
	ctx, span := tr.Start(ctx, "OnSubmissionCreated",
		trace.WithAttributes(
			attribute.Int64("form.id", int64(e.FormID)),
			attribute.Int64("submission.id", int64(e.SubmissionID)),
		),
	)
	defer span.End()

	notifiers := d.Notifiers()
	results := make([]Result, 0, len(notifiers))
	for _, n := range notifiers {
		if !n.IsEnabled() {
			notificationsTotal.WithLabelValues(n.Name(), OutcomeDisabled).Inc()
			results = append(results, Result{Notifier: n.Name(), Outcome: OutcomeDisabled})
			continue
		}
		err := d.call(ctx, n, e)
		res := Result{Notifier: n.Name(), Outcome: OutcomeSent, Err: err}
		if err != nil {
			res.Outcome = OutcomeFailed
			d.logger.Warn().
				Err(err).
				Str("notifier", n.Name()).
				Uint64("form_id", e.FormID).
				Uint64("submission_id", e.SubmissionID).
				Msg("notification failed")
		} else {
			d.logger.Debug().
				Str("notifier", n.Name()).
				Uint64("submission_id", e.SubmissionID).
				Msg("notification sent")
		}
		notificationsTotal.WithLabelValues(n.Name(), res.Outcome).Inc()
		results = append(results, res)
	}
	return results
}

// call runs one notifier with its own deadline and converts panics to errors.
func (d *Dispatcher) call(parent context.Context, n Notifier, e events.SubmissionCreatedEvent) (err error) {
	ctx, span := otel.Tracer("notify/Dispatcher").Start(parent, "Notify",
		trace.WithAttributes(attribute.String("notifier", n.Name())))
	defer span.End()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier %s panicked: %v", n.Name(), r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	return n.Notify(ctx, e)
}
