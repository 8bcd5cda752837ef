package events

import (
	"context"
	"time"

	"github.com/luminary/luminary-backend/internal/docprocessing/domain"
	"github.com/luminary/luminary-backend/pkg/httputil"
	"github.com/luminary/luminary-backend/pkg/logger"
	"github.com/luminary/luminary-backend/pkg/messaging"
)

const source = "extract-service"

// Publisher is satisfied by *messaging.Publisher
type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// ChallanEventPublisher publishes extraction events
type ChallanEventPublisher struct {
	publisher Publisher
	logger    *logger.Logger
}

// NewChallanEventPublisher declares the exchange and binds a publisher to it
func NewChallanEventPublisher(rmq *messaging.RabbitMQ, exchange string, log *logger.Logger) (*ChallanEventPublisher, error) {
	if exchange == "" {
		exchange = messaging.ExchangeLuminaryEvents
	}
	publisher, err := messaging.NewPublisher(rmq, exchange, source, log)
	if err != nil {
		return nil, err
	}
	return NewChallanEventPublisherWith(publisher, log), nil
}

// NewChallanEventPublisherWith wraps an existing publisher
func NewChallanEventPublisherWith(p Publisher, log *logger.Logger) *ChallanEventPublisher {
	return &ChallanEventPublisher{
		publisher: p,
		logger:    log,
	}
}

// PublishChallanExtracted publishes a challan.extracted event. Failures are
// logged only.
func (p *ChallanEventPublisher) PublishChallanExtracted(ctx context.Context, doc domain.UploadedDocument, processorName string, record domain.ExtractedRecord, took time.Duration) {
	data := messaging.ChallanExtractedEvent{
		OriginalName: doc.OriginalName,
		Processor:    processorName,
		Date:         record.Date,
		VehicleNo:    record.VehicleNo,
		Description:  record.Description,
		Qty:          record.Qty,
		Unit:         record.Unit,
		DurationMs:   took.Milliseconds(),
	}

	if id := httputil.GetRequestID(ctx); id != "" {
		ctx = messaging.WithCorrelationID(ctx, id)
	}

	if err := p.publisher.Publish(ctx, messaging.EventChallanExtracted, data); err != nil {
		p.logger.Error().Err(err).Str("file", doc.OriginalName).Msg("failed to publish challan extracted event")
	}
}
