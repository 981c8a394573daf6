package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAlertShouldTriggerPriceDrop(t *testing.T) {
	alert := &Alert{
		Type:        AlertPriceDrop,
		TargetPrice: 100.0,
		IsActive:    true,
	}

	// Without thresholds, any price at or below target triggers
	assert.True(t, alert.ShouldTrigger(100.0))
	assert.True(t, alert.ShouldTrigger(99.99))
	assert.False(t, alert.ShouldTrigger(100.01))
}

func TestAlertShouldTriggerPercentageThreshold(t *testing.T) {
	alert := &Alert{
		Type:                AlertPriceDrop,
		TargetPrice:         100.0,
		ThresholdPercentage: 10.0,
		IsActive:            true,
	}

	assert.True(t, alert.ShouldTrigger(90.0))
	assert.True(t, alert.ShouldTrigger(85.0))
	assert.False(t, alert.ShouldTrigger(91.0))
}

func TestAlertShouldTriggerAmountThreshold(t *testing.T) {
	alert := &Alert{
		Type:            AlertPriceDrop,
		TargetPrice:     100.0,
		ThresholdAmount: 15.0,
		IsActive:        true,
	}

	assert.True(t, alert.ShouldTrigger(85.0))
	assert.False(t, alert.ShouldTrigger(86.0))
}

func TestAlertShouldTriggerPriceIncrease(t *testing.T) {
	alert := &Alert{
		Type:                AlertPriceIncrease,
		TargetPrice:         100.0,
		ThresholdPercentage: 10.0,
		IsActive:            true,
	}

	assert.True(t, alert.ShouldTrigger(110.0))
	assert.False(t, alert.ShouldTrigger(109.0))
}

func TestAlertShouldTriggerTargetPrice(t *testing.T) {
	alert := &Alert{
		Type:        AlertTargetPrice,
		TargetPrice: 50.0,
		IsActive:    true,
	}

	assert.True(t, alert.ShouldTrigger(50.0))
	assert.True(t, alert.ShouldTrigger(49.0))
	assert.False(t, alert.ShouldTrigger(51.0))
}

func TestAlertInactiveOrTriggeredNeverFires(t *testing.T) {
	alert := &Alert{
		Type:        AlertPriceDrop,
		TargetPrice: 100.0,
		IsActive:    false,
	}
	assert.False(t, alert.ShouldTrigger(50.0))

	alert.IsActive = true
	alert.Trigger(time.Now())
	assert.False(t, alert.ShouldTrigger(50.0))
	assert.NotNil(t, alert.TriggeredAt)

	alert.Reset()
	assert.True(t, alert.ShouldTrigger(50.0))
	assert.Nil(t, alert.TriggeredAt)
}

func TestScrapeSessionLifecycle(t *testing.T) {
	session := &ScrapeSession{Status: SessionPending}
	assert.False(t, session.IsTerminal())

	started := time.Now()
	session.Start(started)
	assert.Equal(t, SessionRunning, session.Status)

	session.Complete(started.Add(2*time.Second), true)
	assert.Equal(t, SessionCompleted, session.Status)
	assert.True(t, session.Success)
	assert.Equal(t, 2*time.Second, session.Duration())

	// Terminal state is set once; a late Fail must not overwrite it
	session.Fail(time.Now(), "boom", "network")
	assert.Equal(t, SessionCompleted, session.Status)
	assert.True(t, session.Success)
	assert.Empty(t, session.ErrorMessage)
}

func TestScrapeSessionFail(t *testing.T) {
	session := &ScrapeSession{Status: SessionPending}
	now := time.Now()
	session.Start(now)
	session.Fail(now.Add(time.Second), "connection refused", "network")

	assert.Equal(t, SessionFailed, session.Status)
	assert.False(t, session.Success)
	assert.Equal(t, "connection refused", session.ErrorMessage)
	assert.Equal(t, "network", session.ErrorType)

	session.Complete(time.Now(), true)
	assert.Equal(t, SessionFailed, session.Status)
}

func TestScrapeIssueIsRetryable(t *testing.T) {
	assert.True(t, (&ScrapeIssue{ErrorType: "network"}).IsRetryable())
	assert.True(t, (&ScrapeIssue{ErrorType: "timeout"}).IsRetryable())
	assert.False(t, (&ScrapeIssue{ErrorType: "parsing"}).IsRetryable())
}

func TestProductIsOnSale(t *testing.T) {
	current := 80.0
	original := 100.0

	p := &Product{CurrentPrice: &current, OriginalPrice: &original}
	assert.True(t, p.IsOnSale())

	p.OriginalPrice = nil
	assert.False(t, p.IsOnSale())
}
