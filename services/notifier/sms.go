package notifier

import (
	apperr "pricepick/pkg/errors"
	"pricepick/logger"
)

// SMSChannel is a placeholder until an SMS provider is wired in. It
// accepts payloads for users with a phone number and logs them.
// TODO: integrate an SMS gateway once a provider account exists.
type SMSChannel struct {
	log *logger.Logger
}

var _ Channel = (*SMSChannel)(nil)

// NewSMSChannel creates the SMS channel.
func NewSMSChannel() *SMSChannel {
	return &SMSChannel{log: logger.ForNotifier()}
}

func (c *SMSChannel) Name() string { return ChannelSMS }

// Send logs the notification instead of delivering it.
func (c *SMSChannel) Send(payload *Payload) error {
	if payload.User == nil || payload.User.Phone == "" {
		return apperr.NewNotification("sms", "alert user has no phone number", nil)
	}
	c.log.Info().
		Str("phone", payload.User.Phone).
		Int64("alert_id", payload.Alert.ID).
		Float64("price", payload.CurrentPrice).
		Msg("SMS notification (delivery not configured)")
	return nil
}
