package mqtt

import (
	"bytes"
	"fmt"
	"log"

	"palmwatch/internal/models"
	"palmwatch/internal/utils"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Command names accepted on {prefix}/commands/{name}
const (
	CommandToggleCamera = "toggle_camera"
	CommandToggleMode   = "toggle_mode"
	CommandPatch        = "patch"
)

// StoreController is the part of the telemetry store driven by commands
type StoreController interface {
	ToggleCamera() bool
	ToggleMode() models.Mode
	Patch(p models.Patch) models.Snapshot
}

// CommandListener applies commands received over MQTT to the store
type CommandListener struct {
	client mqtt.Client
	prefix string
	store  StoreController
}

// NewCommandListener creates a listener for {prefix}/commands/+
func NewCommandListener(client mqtt.Client, prefix string, store StoreController) *CommandListener {
	return &CommandListener{client: client, prefix: prefix, store: store}
}

// Topic is the subscription filter
func (l *CommandListener) Topic() string {
	return l.prefix + "/commands/+"
}

// Start subscribes to the command topic
func (l *CommandListener) Start() error {
	log.Printf("MQTT: Subscribing to topic: %s", l.Topic())
	token := l.client.Subscribe(l.Topic(), qosAtLeastOnce, l.onCommand)
	if !token.WaitTimeout(tokenTimeout) {
		return fmt.Errorf("subscribe to %s timed out", l.Topic())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", l.Topic(), err)
	}
	return nil
}

// Stop unsubscribes from the command topic
func (l *CommandListener) Stop() {
	token := l.client.Unsubscribe(l.Topic())
	token.WaitTimeout(tokenTimeout)
	log.Printf("MQTT: Unsubscribed from topic: %s", l.Topic())
}

func (l *CommandListener) onCommand(_ mqtt.Client, msg mqtt.Message) {
	command := utils.LastTopicSegment(msg.Topic())
	log.Printf("MQTT: Command received: %s", command)

	if err := l.Apply(command, msg.Payload()); err != nil {
		log.Printf("MQTT: Command %s rejected: %v", command, err)
	}
}

// Apply runs a single command against the store
func (l *CommandListener) Apply(command string, payload []byte) error {
	switch command {
	case CommandToggleCamera:
		active := l.store.ToggleCamera()
		log.Printf("MQTT: Camera active: %t", active)
	case CommandToggleMode:
		mode := l.store.ToggleMode()
		log.Printf("MQTT: Mode: %s", mode)
	case CommandPatch:
		patch, err := models.DecodePatch(bytes.NewReader(payload))
		if err != nil {
			return err
		}
		l.store.Patch(patch)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}
