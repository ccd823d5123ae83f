package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher forwards notifications as JSON to a NATS subject.
type NATSPublisher struct {
	conn    publisher
	close   func()
	subject string
	logger  *zap.Logger
}

func NewNATSPublisher(url, subject string, logger *zap.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("cylinderops-dashboard"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn, close: conn.Close, subject: subject, logger: logger}, nil
}

func (p *NATSPublisher) Notify(_ context.Context, n Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		p.logger.Error("Failed to marshal notification", zap.Error(err))
		return
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		p.logger.Warn("Failed to publish notification",
			zap.String("subject", p.subject),
			zap.Error(err))
	}
}

func (p *NATSPublisher) Close() error {
	if p.close != nil {
		p.close()
	}
	return nil
}
