package insight

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
	"github.com/johnquangdev/sales-mentor/internal/domain/repositories"
	usecaseErrors "github.com/johnquangdev/sales-mentor/internal/usecase/errors"
	"github.com/johnquangdev/sales-mentor/pkg/metrics"
)

// Event is the outbound insight frame
type Event struct {
	Type        string            `json:"type"`
	CallID      string            `json:"call_id"`
	Category    entities.Category `json:"category"`
	Title       string            `json:"title"`
	Urgency     entities.Urgency  `json:"urgency"`
	Context     string            `json:"context"`
	Suggestions []string          `json:"suggestions"`
	Question    string            `json:"question"`
	Pitfalls    []string          `json:"pitfalls"`
	Script      string            `json:"script,omitempty"`
	Quote       string            `json:"quote"`
	TS          int64             `json:"ts"`
}

// Dispatcher turns gated candidates into persisted insights and outbound events
type Dispatcher struct {
	generator         Generator
	insights          repositories.InsightRepository
	generationTimeout time.Duration
	persistTimeout    time.Duration
	metrics           *metrics.Metrics
	logger            *zap.Logger
	now               func() time.Time
}

// NewDispatcher creates a new insight dispatcher
func NewDispatcher(
	generator Generator,
	insights repositories.InsightRepository,
	generationTimeout time.Duration,
	persistTimeout time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		generator:         generator,
		insights:          insights,
		generationTimeout: generationTimeout,
		persistTimeout:    persistTimeout,
		metrics:           m,
		logger:            logger,
		now:               time.Now,
	}
}

// Dispatch generates a card for a keyword candidate. The slot is committed once a
// card exists and aborted otherwise, so a failed generation never consumes cooldown.
func (d *Dispatcher) Dispatch(ctx context.Context, cand Candidate, slot Slot) (*Event, error) {
	genCtx, cancel := d.withTimeout(ctx, d.generationTimeout)
	started := d.now()
	card, err := d.generator.GenerateInsightCard(genCtx, cand.Category, cand.Quote, cand.Recent)
	cancel()
	if err == nil && card == nil {
		err = usecaseErrors.ErrNoInsight
	}
	if err != nil {
		slot.Abort()
		d.metrics.RecordGeneration(string(cand.Channel), "error", d.now().Sub(started))
		if d.logger != nil {
			d.logger.Warn("⚠️ Insight generation failed",
				zap.String("call_id", cand.CallID),
				zap.String("category", string(cand.Category)),
				zap.Error(err),
			)
		}
		return nil, fmt.Errorf("%w: %v", usecaseErrors.ErrGenerationFailed, err)
	}
	slot.Commit()
	d.metrics.RecordGeneration(string(cand.Channel), "ok", d.now().Sub(started))

	return d.Deliver(ctx, cand, card), nil
}

// DispatchContextual asks the generator whether the recent lines need an
// intervention. It returns nil, nil when they do not.
func (d *Dispatcher) DispatchContextual(ctx context.Context, callID string, lines []string, slot Slot) (*Event, error) {
	genCtx, cancel := d.withTimeout(ctx, d.generationTimeout)
	started := d.now()
	card, err := d.generator.GenerateContextualInsight(genCtx, lines)
	cancel()
	if err != nil {
		slot.Abort()
		d.metrics.RecordGeneration(string(ChannelContextual), "error", d.now().Sub(started))
		if d.logger != nil {
			d.logger.Warn("⚠️ Contextual analysis failed", zap.String("call_id", callID), zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %v", usecaseErrors.ErrGenerationFailed, err)
	}
	if card == nil {
		slot.Abort()
		d.metrics.RecordGeneration(string(ChannelContextual), "empty", d.now().Sub(started))
		return nil, nil
	}
	slot.Commit()
	d.metrics.RecordGeneration(string(ChannelContextual), "ok", d.now().Sub(started))

	quote := ""
	if len(lines) > 0 {
		quote = lines[len(lines)-1]
	}
	cand := Candidate{
		CallID:      callID,
		Category:    entities.CategoryOther,
		Quote:       quote,
		Confidence:  ContextualConfidence,
		TriggeredAt: d.now(),
		Channel:     ChannelContextual,
	}
	return d.Deliver(ctx, cand, card), nil
}

// Deliver persists a generated card and builds its outbound event. A persistence
// failure is logged and the event is still returned.
func (d *Dispatcher) Deliver(ctx context.Context, cand Candidate, card *entities.InsightCard) *Event {
	card.Normalize()
	d.persist(ctx, cand, card)
	d.metrics.RecordInsight(string(cand.Category), string(cand.Channel))

	if d.logger != nil {
		d.logger.Info("💡 Insight dispatched",
			zap.String("call_id", cand.CallID),
			zap.String("category", string(cand.Category)),
			zap.String("channel", string(cand.Channel)),
			zap.String("title", card.Title),
		)
	}

	return &Event{
		Type:        "insight",
		CallID:      cand.CallID,
		Category:    cand.Category,
		Title:       card.Title,
		Urgency:     card.Urgency,
		Context:     card.Context,
		Suggestions: card.Suggestions,
		Question:    card.Question,
		Pitfalls:    card.Pitfalls,
		Script:      card.Script,
		Quote:       cand.Quote,
		TS:          d.now().UnixMilli(),
	}
}

func (d *Dispatcher) persist(ctx context.Context, cand Candidate, card *entities.InsightCard) {
	callID, err := uuid.Parse(cand.CallID)
	if err != nil {
		if d.logger != nil {
			d.logger.Error("❌ Insight not persisted: invalid call id", zap.String("call_id", cand.CallID))
		}
		return
	}

	provider, model := d.generator.Describe()
	record := &entities.Insight{
		CallID:      callID,
		Type:        cand.Category,
		Confidence:  cand.Confidence,
		Quote:       cand.Quote,
		Suggestions: card.Suggestions,
		Model: datatypes.NewJSONType(entities.InsightModel{
			Provider: provider,
			Model:    model,
			Title:    card.Title,
			Question: card.Question,
			Urgency:  card.Urgency,
			Channel:  string(cand.Channel),
		}),
		DedupeKey: cand.DedupeKey,
	}

	// A card that was already generated is stored even if the client has gone.
	persistCtx, cancel := d.withTimeout(context.WithoutCancel(ctx), d.persistTimeout)
	defer cancel()
	if err := d.insights.Create(persistCtx, record); err != nil && d.logger != nil {
		d.logger.Error("❌ Failed to persist insight",
			zap.String("call_id", cand.CallID),
			zap.String("category", string(cand.Category)),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
