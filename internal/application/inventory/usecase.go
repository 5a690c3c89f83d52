package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Valores por defecto de las reservas.
const (
	DefaultReservationTTL    = 30 * time.Minute
	DefaultReservationMaxTTL = 24 * time.Hour
)

// SystemActor usuario con el que se auditan las operaciones del barrido.
const SystemActor = "system"

const tracerName = "github.com/jhoicas/stock-ledger/internal/application/inventory"

// Options dependencias opcionales compartidas por los casos de uso.
type Options struct {
	Events         EventPublisher
	Log            *logger.Logger
	Now            func() time.Time
	ReservationTTL time.Duration
	MaxTTL         time.Duration
}

// engine base común: transacción, reloj, trazas, auditoría y eventos.
type engine struct {
	tx     TxRunner
	events EventPublisher
	log    *logger.Logger
	now    func() time.Time
	tracer trace.Tracer
}

func newEngine(tx TxRunner, opts Options, component string) engine {
	e := engine{
		tx:     tx,
		events: opts.Events,
		log:    opts.Log.Component(component),
		now:    opts.Now,
		tracer: otel.Tracer(tracerName),
	}
	if e.events == nil {
		e.events = nopPublisher{}
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

func (e *engine) clock() time.Time {
	return e.now().UTC()
}

// txScope estado de un intento de transacción. Se recrea en cada reintento.
type txScope struct {
	Repos
	ctx    context.Context
	actor  entity.Actor
	now    time.Time
	events []entity.LedgerEvent
	// after error devuelto al llamador después de confirmar lo ya escrito.
	after error
}

func (s *txScope) emit(ev entity.LedgerEvent) {
	if ev.BusinessID == "" {
		ev.BusinessID = s.actor.BusinessID
	}
	ev.ActorID = s.actor.UserID
	ev.OccurredAt = s.now
	s.events = append(s.events, ev)
}

func (s *txScope) audit(businessID, entityType, entityID, action string, before, after any) error {
	entry := &entity.AuditEntry{
		ID:         uuid.New().String(),
		BusinessID: businessID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		ActorID:    s.actor.UserID,
		CreatedAt:  s.now,
	}
	var err error
	if entry.Before, err = marshalState(before); err != nil {
		return err
	}
	if entry.After, err = marshalState(after); err != nil {
		return err
	}
	if err := s.Audit.Append(s.ctx, entry); err != nil {
		return fmt.Errorf("append audit %s %s: %w", entityType, action, err)
	}
	return nil
}

// auditAllocation registra el cambio del contador de una tienda.
func (s *txScope) auditAllocation(action string, before int64, a *entity.Allocation) error {
	id := a.ProductID + ":" + a.StorefrontID
	return s.audit(a.BusinessID, "allocation", id, action,
		map[string]int64{"quantity": before}, map[string]int64{"quantity": a.Quantity})
}

func marshalState(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal audit state: %w", err)
	}
	return b, nil
}

// write ejecuta fn en una transacción de escritura con su span. Los eventos se publican solo
// después del commit y un fallo al publicar no revierte el libro.
func (e *engine) write(ctx context.Context, op string, actor entity.Actor, fn func(s *txScope) error) error {
	ctx, span := e.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("ledger.business_id", actor.BusinessID),
		attribute.String("ledger.actor_id", actor.UserID),
	))
	defer span.End()

	var scope *txScope
	err := e.tx.Run(ctx, func(r Repos) error {
		scope = &txScope{Repos: r, ctx: ctx, actor: actor, now: e.clock()}
		return fn(scope)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	e.publish(ctx, op, scope.events)
	if scope.after != nil {
		span.SetStatus(codes.Error, scope.after.Error())
	}
	return scope.after
}

// read ejecuta fn en una transacción de solo lectura.
func (e *engine) read(ctx context.Context, op string, actor entity.Actor, fn func(ctx context.Context, r Repos) error) error {
	ctx, span := e.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("ledger.business_id", actor.BusinessID),
	))
	defer span.End()

	err := e.tx.RunReadOnly(ctx, func(r Repos) error { return fn(ctx, r) })
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (e *engine) publish(ctx context.Context, op string, events []entity.LedgerEvent) {
	if len(events) == 0 {
		return
	}
	if err := e.events.Publish(ctx, events...); err != nil {
		e.log.Warn().Err(err).Str("op", op).Int("events", len(events)).Msg("no se pudieron publicar eventos del libro")
	}
}

// checkActor exige el par (negocio, usuario) explícito en cada llamada.
func checkActor(a entity.Actor) error {
	if a.BusinessID == "" {
		return domain.Invalid("business_id", "requerido")
	}
	if a.UserID == "" {
		return domain.Invalid("actor_id", "requerido")
	}
	return nil
}

func required(field, value string) error {
	if value == "" {
		return domain.Invalid(field, "requerido")
	}
	return nil
}
