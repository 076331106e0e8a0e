package mqtt

import (
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/berfenger/garagedoor2mqtt/internal/config"
	"github.com/berfenger/garagedoor2mqtt/internal/core/domain"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	MQTT_PAYLOAD_ONLINE  = "online"
	MQTT_PAYLOAD_OFFLINE = "offline"
	MQTT_PAYLOAD_ON      = "on"
	MQTT_PAYLOAD_OFF     = "off"

	MQTT_PAYLOAD_TOGGLE = "toggle"

	MQTT_COVER_PAYLOAD_OPEN  = "OPEN"
	MQTT_COVER_PAYLOAD_CLOSE = "CLOSE"
	MQTT_COVER_PAYLOAD_STOP  = "STOP"
)

func OptsFromConfig(cfg *config.Config) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Host, cfg.MQTT.Port))
	opts.SetClientID(fmt.Sprintf("garagedoor_%d", rand.Intn(1000)))
	if cfg.MQTT.Username != "" && cfg.MQTT.Password != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}
	opts.WillEnabled = true
	opts.WillPayload = []byte(MQTT_PAYLOAD_OFFLINE)
	opts.WillRetained = true
	opts.WillTopic = bridgeStateTopic(cfg.MQTT.BaseTopic)
	opts.WillQos = 0

	return opts
}

func CreateMQTTClient(cfg *config.Config, opts *mqtt.ClientOptions, onConnectHandler func(client mqtt.Client),
	onConnectionLostHandler func(mqtt.Client, error)) *MQTTClient {
	if onConnectHandler != nil {
		opts.OnConnect = onConnectHandler
	}
	if onConnectionLostHandler != nil {
		opts.OnConnectionLost = onConnectionLostHandler
	}
	return &MQTTClient{
		client:             mqtt.NewClient(opts),
		cfg:                cfg.MQTT,
		coverCommandRegexp: coverCommandExtractor(cfg.MQTT.BaseTopic),
		observationRegexp:  observationExtractor(cfg.MQTT.StatestreamTopic),
	}
}

type MQTTClient struct {
	client             mqtt.Client
	cfg                config.MQTTConfig
	coverCommandRegexp *regexp.Regexp
	observationRegexp  *regexp.Regexp
}

// ParsedMQTTCommand is a cover command received on the bridge command topic.
type ParsedMQTTCommand struct {
	DoorId  string
	Payload string
}

// ParsedObservation is an entity state seen on the statestream topic tree.
type ParsedObservation struct {
	EntityId string
	Value    domain.SensorValue
	At       time.Time
}

func (c *MQTTClient) baseTopic() string {
	return c.cfg.BaseTopic
}

func (c *MQTTClient) BridgeStateTopic() string {
	return bridgeStateTopic(c.baseTopic())
}

func (c *MQTTClient) SensorStateTopic(sensorId string) string {
	return fmt.Sprintf("%s/sensor/%s/state", c.baseTopic(), sensorId)
}

func (c *MQTTClient) BinarySensorStateTopic(sensorId string) string {
	return fmt.Sprintf("%s/binary_sensor/%s/state", c.baseTopic(), sensorId)
}

func (c *MQTTClient) CoverStateTopic(doorId string) string {
	return fmt.Sprintf("%s/cover/%s/state", c.baseTopic(), doorId)
}

func (c *MQTTClient) CoverCommandTopic(doorId string) string {
	return fmt.Sprintf("%s/cover/%s/command", c.baseTopic(), doorId)
}

// EntityStateTopic is the statestream topic carrying an entity's state.
func (c *MQTTClient) EntityStateTopic(entityId string) (string, error) {
	dom, object, err := config.ParseEntityId(entityId)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s/state", c.cfg.StatestreamTopic, dom, object), nil
}

// ToggleCommandTopic is the topic a toggle pulse for the actuator entity is
// published to.
func (c *MQTTClient) ToggleCommandTopic(entityId string) (string, error) {
	dom, object, err := config.ParseEntityId(entityId)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s/set", c.cfg.CommandTopic, dom, object), nil
}

func (c *MQTTClient) ParseMQTTCommand(msg mqtt.Message) (*ParsedMQTTCommand, error) {
	topic := msg.Topic()
	matches := c.coverCommandRegexp.FindAllStringSubmatch(topic, 1)
	if len(matches) == 0 {
		return nil, errors.New("invalid command")
	}
	if len(matches[0]) != 2 {
		return nil, errors.New("invalid cover command")
	}
	payload := strings.ToUpper(strings.TrimSpace(string(msg.Payload())))
	switch payload {
	case MQTT_COVER_PAYLOAD_OPEN, MQTT_COVER_PAYLOAD_CLOSE, MQTT_COVER_PAYLOAD_STOP:
	default:
		return nil, fmt.Errorf("invalid cover command payload %q", payload)
	}
	return &ParsedMQTTCommand{
		DoorId:  matches[0][1],
		Payload: payload,
	}, nil
}

func (c *MQTTClient) ParseObservation(msg mqtt.Message) (*ParsedObservation, error) {
	topic := msg.Topic()
	matches := c.observationRegexp.FindAllStringSubmatch(topic, 1)
	if len(matches) == 0 {
		return nil, errors.New("not an entity state topic")
	}
	if len(matches[0]) != 3 {
		return nil, errors.New("invalid entity state topic")
	}
	entityId := fmt.Sprintf("%s.%s", matches[0][1], matches[0][2])
	return &ParsedObservation{
		EntityId: entityId,
		Value:    payloadToSensorValue(string(msg.Payload())),
		At:       time.Now(),
	}, nil
}

func (c *MQTTClient) Publish(topic string, payload any, qos byte, retain bool, continuation func(error), timeout time.Duration) {
	token := c.client.Publish(topic, qos, retain, payload)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT publish timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

// PublishSync blocks until the broker acks the publish or the timeout hits.
// Only safe off the actor goroutine.
func (c *MQTTClient) PublishSync(topic string, payload any, qos byte, retain bool, timeout time.Duration) error {
	token := c.client.Publish(topic, qos, retain, payload)
	if !token.WaitTimeout(timeout) {
		return errors.New("MQTT publish timed out")
	}
	return token.Error()
}

func (c *MQTTClient) Subscribe(topic string, qos byte, handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	token := c.client.Subscribe(topic, qos, handler)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT subscribe timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) SubscribeToCommandTopic(handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	c.Subscribe(c.commandTopic(), 1, handler, continuation, timeout)
}

func (c *MQTTClient) SubscribeToEntityStateTopics(entityIds []string, handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) error {
	filters := make(map[string]byte, len(entityIds))
	for _, entityId := range entityIds {
		topic, err := c.EntityStateTopic(entityId)
		if err != nil {
			return err
		}
		filters[topic] = 1
	}
	token := c.client.SubscribeMultiple(filters, handler)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT subscribe timed out"))
		} else {
			continuation(token.Error())
		}
	}()
	return nil
}

func (c *MQTTClient) Unsubscribe(topic string, continuation func(error), timeout time.Duration) {
	token := c.client.Unsubscribe(topic)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT unsubscribe timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Connect(continuation func(error), timeout time.Duration) {
	token := c.client.Connect()
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT connect timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Disconnect(timeout time.Duration) {
	c.client.Disconnect(uint(timeout.Milliseconds()))
}

func (c *MQTTClient) commandTopic() string {
	return fmt.Sprintf("%s/#", c.baseTopic())
}

func coverCommandExtractor(baseTopic string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf("%s/cover/([a-zA-Z0-9_]+)/command", baseTopic))
}

func observationExtractor(statestreamTopic string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf("%s/([a-z_]+)/([a-zA-Z0-9_]+)/state", statestreamTopic))
}

func bridgeStateTopic(baseTopic string) string {
	return fmt.Sprintf("%s/bridge/state", baseTopic)
}

func payloadToSensorValue(payload string) domain.SensorValue {
	switch strings.ToLower(strings.TrimSpace(payload)) {
	case MQTT_PAYLOAD_ON:
		return domain.SensorOn
	case MQTT_PAYLOAD_OFF:
		return domain.SensorOff
	default:
		return domain.SensorUnavailable
	}
}
