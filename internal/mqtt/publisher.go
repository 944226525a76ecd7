package mqtt

import (
	"encoding/json"
	"fmt"

	"palmwatch/internal/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher pushes snapshots and threshold notices to the broker
type Publisher struct {
	client mqtt.Client
	prefix string
}

// NewPublisher creates a publisher writing under the topic prefix
func NewPublisher(client mqtt.Client, prefix string) *Publisher {
	return &Publisher{client: client, prefix: prefix}
}

// SnapshotTopic holds the latest snapshot as a retained message
func (p *Publisher) SnapshotTopic() string {
	return p.prefix + "/snapshot"
}

// MachineTopic carries the state of a single machine
func (p *Publisher) MachineTopic(machineID string) string {
	return fmt.Sprintf("%s/machines/%s/state", p.prefix, machineID)
}

// NoticeTopic carries threshold notices
func (p *Publisher) NoticeTopic() string {
	return p.prefix + "/notices"
}

// PublishSnapshot publishes the snapshot and then each machine state
func (p *Publisher) PublishSnapshot(snap models.Snapshot) error {
	if err := p.publishJSON(p.SnapshotTopic(), true, snap); err != nil {
		return err
	}
	for _, m := range snap.Machines {
		if err := p.publishJSON(p.MachineTopic(m.ID), false, m); err != nil {
			return err
		}
	}
	return nil
}

// PublishNotice publishes a threshold notice
func (p *Publisher) PublishNotice(n models.Notice) error {
	return p.publishJSON(p.NoticeTopic(), false, n)
}

func (p *Publisher) publishJSON(topic string, retained bool, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal payload for %s: %w", topic, err)
	}

	token := p.client.Publish(topic, qosAtLeastOnce, retained, payload)
	if !token.WaitTimeout(tokenTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}
