package service

import (
	"github.com/glenmo/lorawan-water-tank-monitor/internal/mqtt"
)

// Register attaches the ingester to the MQTT subscriber.
func (i *Ingester) Register(subscriber mqtt.MQTTSubscriber) {
	subscriber.SetMessageHandler(i.OnMessage)
}
