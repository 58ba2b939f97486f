package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/jmakela/herdguard-go/internal/conf"
)

const (
	mqttConnectTimeout = 10 * time.Second
	mqttRecordTimeout  = 5 * time.Second
	mqttQoS            = 1
)

// positionPayload is the JSON body collars publish on the position topic.
type positionPayload struct {
	DeviceID     string   `json:"device_id"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Accuracy     *float64 `json:"accuracy,omitempty"`
	BatteryLevel *int     `json:"battery_level,omitempty"`
}

// MQTTSource subscribes to the collar position topic and feeds reports into
// the ingestor.
type MQTTSource struct {
	client   mqtt.Client
	ingestor *Ingestor
	topic    string
	log      *zap.Logger
}

// NewMQTTSource creates an MQTT ingestion source from settings.
func NewMQTTSource(cfg conf.MQTTSettings, ingestor *Ingestor, log *zap.Logger) *MQTTSource {
	s := &MQTTSource{
		ingestor: ingestor,
		topic:    cfg.Topic,
		log:      log,
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn("mqtt connection lost", zap.Error(err))
		})

	s.client = mqtt.NewClient(opts)
	return s
}

// Start connects to the broker. Subscription happens in the on-connect
// handler so it survives reconnects.
func (s *MQTTSource) Start() error {
	token := s.client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return fmt.Errorf("timed out connecting to mqtt broker")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to mqtt broker: %w", err)
	}
	return nil
}

// Stop disconnects from the broker.
func (s *MQTTSource) Stop() {
	s.client.Disconnect(250)
}

func (s *MQTTSource) onConnect(client mqtt.Client) {
	s.log.Info("mqtt connected, subscribing", zap.String("topic", s.topic))
	token := client.Subscribe(s.topic, mqttQoS, s.handleMessage)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			s.log.Error("mqtt subscribe failed",
				zap.String("topic", s.topic),
				zap.Error(err))
		}
	}()
}

func (s *MQTTSource) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var payload positionPayload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		s.log.Warn("dropping malformed position payload",
			zap.String("topic", msg.Topic()),
			zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), mqttRecordTimeout)
	defer cancel()

	if _, err := s.ingestor.Record(ctx, RecordRequest{
		DeviceExternalID: payload.DeviceID,
		Latitude:         payload.Latitude,
		Longitude:        payload.Longitude,
		Accuracy:         payload.Accuracy,
		BatteryLevel:     payload.BatteryLevel,
	}); err != nil {
		s.log.Error("failed to record mqtt position report",
			zap.String("device_id", payload.DeviceID),
			zap.Error(err))
	}
}
