// Package notifier delivers triggered alerts to users over the
// channels each alert opted into.
package notifier

import (
	"time"

	"pricepick/internal/models"
	"pricepick/logger"
)

// Channel names used for routing and logging
const (
	ChannelEmail = "email"
	ChannelPush  = "push"
	ChannelSMS   = "sms"
)

// Payload carries everything a channel needs to render a notification.
type Payload struct {
	Alert   *models.Alert
	Product *models.Product
	User    *models.User

	CurrentPrice  float64
	PreviousPrice *float64
	TriggeredAt   time.Time
}

// Channel delivers a notification over one medium.
type Channel interface {
	// Name identifies the channel for routing and logging
	Name() string

	// Send delivers the notification
	Send(payload *Payload) error
}

// Dispatcher fans a payload out to the channels the alert enabled.
// Channel failures are logged, never propagated: a broken SMTP server
// must not block the monitoring loop or the other channels.
type Dispatcher struct {
	channels []Channel
	log      *logger.Logger
}

// NewDispatcher creates a dispatcher over the given channels.
func NewDispatcher(channels ...Channel) *Dispatcher {
	return &Dispatcher{
		channels: channels,
		log:      logger.ForNotifier(),
	}
}

// Dispatch sends the payload over every enabled channel and returns
// the number of successful deliveries.
func (d *Dispatcher) Dispatch(payload *Payload) int {
	sent := 0
	for _, ch := range d.channels {
		if !enabled(payload.Alert, ch.Name()) {
			continue
		}
		if err := ch.Send(payload); err != nil {
			logger.LogError("notifier", err, "Failed to send %s notification for alert %d",
				ch.Name(), payload.Alert.ID)
			continue
		}
		d.log.Info().
			Str("channel", ch.Name()).
			Int64("alert_id", payload.Alert.ID).
			Int64("product_id", payload.Product.ID).
			Msg("Notification sent")
		sent++
	}
	return sent
}

func enabled(alert *models.Alert, channel string) bool {
	switch channel {
	case ChannelEmail:
		return alert.NotifyEmail
	case ChannelPush:
		return alert.NotifyPush
	case ChannelSMS:
		return alert.NotifySMS
	}
	return false
}
