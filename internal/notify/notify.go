// Package notify delivers the transient, non-blocking notices the insights
// page shows to its user.
package notify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jaytnw/sage-insights/internal/mqtt"
	"go.uber.org/zap"
)

type Level string

const (
	LevelError Level = "error"
	LevelInfo  Level = "info"
)

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

func New(userID string, level Level, message string) Notification {
	return Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Level:     level,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// LogNotifier only records the notice.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) {
	l.logger.Info("user notification",
		zap.String("id", n.ID),
		zap.String("user_id", n.UserID),
		zap.String("level", string(n.Level)),
		zap.String("message", n.Message),
	)
}

// MQTTNotifier publishes each notice as JSON on <prefix>/<userId>.
type MQTTNotifier struct {
	client mqtt.Client
	prefix string
	logger *zap.Logger
}

func NewMQTTNotifier(client mqtt.Client, topicPrefix string, logger *zap.Logger) *MQTTNotifier {
	return &MQTTNotifier{
		client: client,
		prefix: strings.TrimSuffix(topicPrefix, "/"),
		logger: logger,
	}
}

func (m *MQTTNotifier) Topic(userID string) string {
	return m.prefix + "/" + userID
}

func (m *MQTTNotifier) Notify(_ context.Context, n Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		m.logger.Error("encode notification", zap.Error(err))
		return
	}
	if err := m.client.Publish(m.Topic(n.UserID), payload); err != nil {
		m.logger.Warn("publish notification failed", zap.String("user_id", n.UserID), zap.Error(err))
	}
}

// Multi fans a notice out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, notifier := range m {
		notifier.Notify(ctx, n)
	}
}
