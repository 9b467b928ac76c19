// FilePath: internal/ingest/ingest.mqtt.go

// Package ingest accepts device readings over MQTT. Devices publish the same JSON
// body they would POST to /api/readings on <prefix>/<api key>/readings.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dosense/dohub/internal/errors"
	"github.com/dosense/dohub/internal/models"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	nuts "github.com/vaudience/go-nuts"
)

// Ingestor is the part of the hub service the bridge drives
type Ingestor interface {
	AuthenticateDevice(ctx context.Context, apiKey string) (*models.Sensor, error)
	IngestReading(ctx context.Context, sensor *models.Sensor, in *models.ReadingInput) (*models.Reading, error)
}

type Config struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	QoS         byte
	Timeout     time.Duration
}

type Bridge struct {
	ingestor Ingestor
	config   Config
	client   mqtt.Client
}

func NewBridge(ingestor Ingestor, config Config) *Bridge {
	if config.TopicPrefix == "" {
		config.TopicPrefix = "dohub"
	}
	if config.ClientID == "" {
		config.ClientID = nuts.NID("dohub", 8)
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &Bridge{ingestor: ingestor, config: config}
}

// Topic is the subscription filter covering every device.
func (b *Bridge) Topic() string {
	return b.config.TopicPrefix + "/+/readings"
}

// Start connects to the broker and subscribes. Subscriptions are restored on reconnect.
func (b *Bridge) Start() error {
	opts := mqtt.NewClientOptions().
		AddBroker(b.config.Broker).
		SetClientID(b.config.ClientID).
		SetAutoReconnect(true).
		SetOnConnectHandler(func(c mqtt.Client) {
			if token := c.Subscribe(b.Topic(), b.config.QoS, b.onMessage); token.Wait() && token.Error() != nil {
				nuts.L.Errorf("[Ingest] Subscribe to %s failed: %v", b.Topic(), token.Error())
				return
			}
			nuts.L.Infof("[Ingest] Subscribed to %s", b.Topic())
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			nuts.L.Warnf("[Ingest] Connection to %s lost: %v", b.config.Broker, err)
		})

	b.client = mqtt.NewClient(opts)
	token := b.client.Connect()
	if !token.WaitTimeout(b.config.Timeout) {
		return fmt.Errorf("timed out connecting to broker %s", b.config.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	return nil
}

func (b *Bridge) Stop() {
	if b.client == nil || !b.client.IsConnected() {
		return
	}
	b.client.Unsubscribe(b.Topic()).WaitTimeout(b.config.Timeout)
	b.client.Disconnect(250)
	nuts.L.Infof("[Ingest] Disconnected from %s", b.config.Broker)
}

func (b *Bridge) onMessage(_ mqtt.Client, msg mqtt.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), b.config.Timeout)
	defer cancel()

	reading, err := b.Handle(ctx, msg.Topic(), msg.Payload())
	if err != nil {
		if apiErr, ok := errors.AsAPIError(err); ok && apiErr.Code < 500 {
			nuts.L.Warnf("[Ingest] Rejected message on %s: %s", b.redact(msg.Topic()), apiErr.Message)
			return
		}
		nuts.L.Errorf("[Ingest] Failed to store message on %s: %v", b.redact(msg.Topic()), err)
		return
	}
	nuts.L.Infof("[Ingest] Stored reading %s for sensor %s", reading.ID, reading.SensorID)
}

// Handle authenticates the key in the topic and stores the payload as a reading.
func (b *Bridge) Handle(ctx context.Context, topic string, payload []byte) (*models.Reading, error) {
	apiKey, err := b.apiKey(topic)
	if err != nil {
		return nil, err
	}
	sensor, err := b.ingestor.AuthenticateDevice(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	var in models.ReadingInput
	if err := json.Unmarshal(payload, &in); err != nil {
		return nil, errors.NewValidationError("invalid reading payload", err)
	}
	return b.ingestor.IngestReading(ctx, sensor, &in)
}

func (b *Bridge) apiKey(topic string) (string, error) {
	rest, ok := strings.CutPrefix(topic, b.config.TopicPrefix+"/")
	key, found := strings.CutSuffix(rest, "/readings")
	if !ok || !found || key == "" || strings.Contains(key, "/") {
		return "", errors.NewValidationError("unexpected topic", nil)
	}
	return key, nil
}

// redact hides the key segment in logs.
func (b *Bridge) redact(topic string) string {
	if key, err := b.apiKey(topic); err == nil {
		return strings.Replace(topic, "/"+key+"/", "/***/", 1)
	}
	return b.config.TopicPrefix + "/?"
}
