// Package mqtt implements the publish sink: a lifecycle-managed client that
// forwards transformed records to a message-bus topic for real-time consumers.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/eddielth/sensor-gate/config"
	"github.com/eddielth/sensor-gate/logger"
	"github.com/eddielth/sensor-gate/transformer"
)

// Publisher represents the MQTT publish sink. It is constructed once at
// process start, connected before the ingress accepts traffic and
// disconnected once at shutdown.
type Publisher struct {
	client paho.Client
	config config.MQTTConfig
}

// NewPublisher creates a new publisher from configuration. Use an ssl://
// broker URL for TLS.
func NewPublisher(cfg config.MQTTConfig) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address cannot be empty")
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)

	if cfg.ClientID == "" {
		cfg.ClientID = fmt.Sprintf("sensor-gate-%d", time.Now().Unix())
	}
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Error("MQTT connection lost: %v", err)
	})

	opts.SetReconnectingHandler(func(_ paho.Client, _ *paho.ClientOptions) {
		logger.Info("trying to reconnect to MQTT broker...")
	})

	return &Publisher{
		client: paho.NewClient(opts),
		config: cfg,
	}, nil
}

// Connect connects to the MQTT broker
func (p *Publisher) Connect() error {
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("connection to MQTT broker timed out")
	}

	if err := token.Error(); err != nil {
		return err
	}

	logger.Info("successfully connected to MQTT broker: %s", p.config.Broker)
	return nil
}

// Publish forwards a record to the configured topic, waiting at most until
// the context deadline for broker acknowledgement. Failures are logged and
// returned for observability, but callers treat the sink as best-effort:
// a publish failure never blocks or fails the storage path.
func (p *Publisher) Publish(ctx context.Context, record *transformer.Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to serialize record: %v", err)
	}

	token := p.client.Publish(p.config.Topic, p.config.QoS, p.config.Retain, payload)
	select {
	case <-ctx.Done():
		return fmt.Errorf("publish to topic %s: %v", p.config.Topic, ctx.Err())
	case <-token.Done():
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %v", p.config.Topic, err)
	}

	logger.Debug("record published to topic %s", p.config.Topic)
	return nil
}

// Disconnect disconnects from the MQTT broker
func (p *Publisher) Disconnect() {
	p.client.Disconnect(250)
	logger.Info("disconnected from MQTT broker")
}
