package mqtt

import (
	"fmt"
	"time"

	mqttlib "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MessageHandler defines the signature for handling incoming messages
type MessageHandler func(topic string, payload []byte)

// Client defines the interface for MQTT operations
type Client interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string, handler MessageHandler) error
	Close()
}

// mqttClient implements the Client interface
type mqttClient struct {
	client mqttlib.Client
	logger *zap.Logger
}

// NewClient connects to the broker. Paho reconnects on its own after the
// first successful connect.
func NewClient(brokerURL, clientID, username, password string, logger *zap.Logger) (Client, error) {
	opts := mqttlib.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetUsername(username).
		SetPassword(password).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqttlib.Client, err error) {
			logger.Warn("mqtt connection lost", zap.Error(err))
		})

	client := mqttlib.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}

	logger.Info("mqtt connected", zap.String("broker", brokerURL))
	return &mqttClient{client: client, logger: logger}, nil
}

// Publish sends a message to a topic
func (m *mqttClient) Publish(topic string, payload []byte) error {
	token := m.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt publish to %s timed out", topic)
	}
	return token.Error()
}

// Subscribe subscribes to a topic with a custom message handler
func (m *mqttClient) Subscribe(topic string, handler MessageHandler) error {
	token := m.client.Subscribe(topic, 1, func(_ mqttlib.Client, msg mqttlib.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt subscribe to %s timed out", topic)
	}
	return token.Error()
}

func (m *mqttClient) Close() {
	m.client.Disconnect(250)
}
