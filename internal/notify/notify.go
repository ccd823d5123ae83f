package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a toast shown on every connected dashboard.
type Notification struct {
	ID         uuid.UUID `json:"id"`
	Level      Level     `json:"level"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Resource   string    `json:"resource,omitempty"`
	ResourceID string    `json:"resource_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func New(level Level, title, message string) Notification {
	return Notification{
		ID:        uuid.New(),
		Level:     level,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

// About tags the notification with the resource it concerns.
func (n Notification) About(resource, resourceID string) Notification {
	n.Resource = resource
	n.ResourceID = resourceID
	return n
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Multi delivers to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}

type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) {
	fields := []zap.Field{
		zap.String("level", string(n.Level)),
		zap.String("title", n.Title),
		zap.String("message", n.Message),
	}
	if n.Resource != "" {
		fields = append(fields, zap.String("resource", n.Resource), zap.String("resource_id", n.ResourceID))
	}

	switch n.Level {
	case LevelError:
		l.logger.Error("Toast", fields...)
	case LevelWarning:
		l.logger.Warn("Toast", fields...)
	default:
		l.logger.Info("Toast", fields...)
	}
}
