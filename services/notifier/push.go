package notifier

import (
	"encoding/json"
	"time"

	apperr "pricepick/pkg/errors"
	"pricepick/services/publisher"
)

// PushChannel publishes alert events to the event stream, where push
// notification consumers pick them up.
type PushChannel struct {
	publisher publisher.Publisher
}

var _ Channel = (*PushChannel)(nil)

// NewPushChannel creates a push channel over the given publisher.
func NewPushChannel(pub publisher.Publisher) *PushChannel {
	return &PushChannel{publisher: pub}
}

func (c *PushChannel) Name() string { return ChannelPush }

type pushEvent struct {
	AlertID       int64    `json:"alert_id"`
	UserID        int64    `json:"user_id"`
	ProductID     int64    `json:"product_id"`
	ProductName   string   `json:"product_name"`
	ProductURL    string   `json:"product_url"`
	AlertType     string   `json:"alert_type"`
	CurrentPrice  float64  `json:"current_price"`
	PreviousPrice *float64 `json:"previous_price,omitempty"`
	TargetPrice   float64  `json:"target_price"`
	Currency      string   `json:"currency"`
	TriggeredAt   string   `json:"triggered_at"`
}

// Send publishes the alert as a JSON event.
func (c *PushChannel) Send(payload *Payload) error {
	event := pushEvent{
		AlertID:       payload.Alert.ID,
		UserID:        payload.Alert.UserID,
		ProductID:     payload.Product.ID,
		ProductName:   payload.Product.Name,
		ProductURL:    payload.Product.URL,
		AlertType:     payload.Alert.Type,
		CurrentPrice:  payload.CurrentPrice,
		PreviousPrice: payload.PreviousPrice,
		TargetPrice:   payload.Alert.TargetPrice,
		Currency:      payload.Product.Currency,
		TriggeredAt:   payload.TriggeredAt.UTC().Format(time.RFC3339),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return apperr.NewNotification("push", "failed to marshal alert event", err)
	}
	if err := c.publisher.Publish(publisher.KindAlert, data); err != nil {
		return apperr.NewNotification("push", "failed to publish alert event", err)
	}
	return nil
}
