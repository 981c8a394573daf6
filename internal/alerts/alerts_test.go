package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricepick/config"
	"pricepick/internal/models"
	"pricepick/internal/store"
	"pricepick/services/notifier"
)

type fakeDispatcher struct {
	payloads []*notifier.Payload
}

var _ Dispatcher = (*fakeDispatcher)(nil)

func (f *fakeDispatcher) Dispatch(p *notifier.Payload) int {
	f.payloads = append(f.payloads, p)
	return 1
}

func newTestService(t *testing.T) (*Service, *store.SQLite, *fakeDispatcher) {
	t.Helper()
	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	d := &fakeDispatcher{}
	cfg := config.Config{AlertRecheckInterval: time.Hour}
	return New(st, d, cfg), st, d
}

func seedProduct(t *testing.T, st *store.SQLite, price float64) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:         "Widget",
		Platform:     "amazon",
		URL:          "https://amazon.com/dp/B000TEST",
		Currency:     "USD",
		CurrentPrice: &price,
		IsAvailable:  true,
		IsTracking:   true,
		IsActive:     true,
	}
	require.NoError(t, st.CreateProduct(p))
	return p
}

func seedUser(t *testing.T, st *store.SQLite) *models.User {
	t.Helper()
	u := &models.User{Email: "buyer@example.com", EmailEnabled: true, IsActive: true}
	require.NoError(t, st.CreateUser(u))
	return u
}

func TestCheckProductTriggersAndNotifies(t *testing.T) {
	svc, st, d := newTestService(t)
	p := seedProduct(t, st, 85.0)
	u := seedUser(t, st)

	alert := &models.Alert{
		UserID:      u.ID,
		ProductID:   p.ID,
		Type:        models.AlertPriceDrop,
		TargetPrice: 90.0,
		NotifyEmail: true,
	}
	require.NoError(t, svc.Create(alert))

	triggered, err := svc.CheckProduct(p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, triggered)

	require.Len(t, d.payloads, 1)
	payload := d.payloads[0]
	assert.Equal(t, alert.ID, payload.Alert.ID)
	assert.Equal(t, 85.0, payload.CurrentPrice)
	require.NotNil(t, payload.User)
	assert.Equal(t, "buyer@example.com", payload.User.Email)

	reloaded, err := st.GetAlert(alert.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsTriggered)
	assert.NotNil(t, reloaded.TriggeredAt)
	assert.NotNil(t, reloaded.LastChecked)

	// A triggered alert does not fire again
	triggered, err = svc.CheckProduct(p.ID, true)
	require.NoError(t, err)
	assert.Zero(t, triggered)
	assert.Len(t, d.payloads, 1)
}

func TestCheckProductRecheckWindow(t *testing.T) {
	svc, st, d := newTestService(t)
	p := seedProduct(t, st, 100.0)
	u := seedUser(t, st)

	alert := &models.Alert{
		UserID:      u.ID,
		ProductID:   p.ID,
		Type:        models.AlertPriceDrop,
		TargetPrice: 90.0,
		NotifyEmail: true,
	}
	require.NoError(t, svc.Create(alert))

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	// First check stamps LastChecked without triggering
	triggered, err := svc.CheckProduct(p.ID, false)
	require.NoError(t, err)
	assert.Zero(t, triggered)

	// Price drops below target, but the alert was checked recently
	price := 80.0
	p.CurrentPrice = &price
	require.NoError(t, st.UpdateProduct(p))

	svc.now = func() time.Time { return base.Add(30 * time.Minute) }
	triggered, err = svc.CheckProduct(p.ID, false)
	require.NoError(t, err)
	assert.Zero(t, triggered)
	assert.Empty(t, d.payloads)

	// Force bypasses the window
	triggered, err = svc.CheckProduct(p.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, triggered)
	assert.Len(t, d.payloads, 1)
}

func TestCheckAllSweepsEveryProduct(t *testing.T) {
	svc, st, d := newTestService(t)
	u := seedUser(t, st)

	p1 := seedProduct(t, st, 85.0)
	p2 := &models.Product{
		Name: "Gadget", Platform: "ebay",
		URL: "https://ebay.com/itm/42", Currency: "USD",
		IsTracking: true, IsActive: true,
	}
	price2 := 40.0
	p2.CurrentPrice = &price2
	require.NoError(t, st.CreateProduct(p2))

	for _, pid := range []int64{p1.ID, p2.ID} {
		require.NoError(t, svc.Create(&models.Alert{
			UserID: u.ID, ProductID: pid,
			Type: models.AlertPriceDrop, TargetPrice: 90.0, NotifyEmail: true,
		}))
	}

	triggered, err := svc.CheckAll(true)
	require.NoError(t, err)
	assert.Equal(t, 2, triggered)
	assert.Len(t, d.payloads, 2)
}

func TestCheckAllHonorsRecheckWindow(t *testing.T) {
	svc, st, d := newTestService(t)
	u := seedUser(t, st)
	p := seedProduct(t, st, 100.0)

	require.NoError(t, svc.Create(&models.Alert{
		UserID: u.ID, ProductID: p.ID,
		Type: models.AlertPriceDrop, TargetPrice: 90.0, NotifyEmail: true,
	}))

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	// The sweep stamps LastChecked without triggering
	triggered, err := svc.CheckAll(false)
	require.NoError(t, err)
	assert.Zero(t, triggered)

	price := 80.0
	p.CurrentPrice = &price
	require.NoError(t, st.UpdateProduct(p))

	// Inside the window the alert is skipped even though it would fire
	svc.now = func() time.Time { return base.Add(30 * time.Minute) }
	triggered, err = svc.CheckAll(false)
	require.NoError(t, err)
	assert.Zero(t, triggered)
	assert.Empty(t, d.payloads)

	// Past the window the sweep picks it up
	svc.now = func() time.Time { return base.Add(2 * time.Hour) }
	triggered, err = svc.CheckAll(false)
	require.NoError(t, err)
	assert.Equal(t, 1, triggered)
	assert.Len(t, d.payloads, 1)
}

func TestCheckProductWithoutPrice(t *testing.T) {
	svc, st, _ := newTestService(t)
	p := &models.Product{
		Name: "Widget", Platform: "amazon",
		URL: "https://amazon.com/dp/B000NEW", Currency: "USD",
		IsTracking: true, IsActive: true,
	}
	require.NoError(t, st.CreateProduct(p))

	triggered, err := svc.CheckProduct(p.ID, true)
	require.NoError(t, err)
	assert.Zero(t, triggered)
}

func TestCreateValidation(t *testing.T) {
	svc, st, _ := newTestService(t)
	p := seedProduct(t, st, 100.0)
	u := seedUser(t, st)

	err := svc.Create(&models.Alert{
		UserID: u.ID, ProductID: p.ID, Type: "bogus", TargetPrice: 50.0,
	})
	assert.Error(t, err)

	err = svc.Create(&models.Alert{
		UserID: u.ID, ProductID: p.ID, Type: models.AlertPriceDrop, TargetPrice: 0,
	})
	assert.Error(t, err)

	err = svc.Create(&models.Alert{
		UserID: u.ID, ProductID: 9999, Type: models.AlertPriceDrop, TargetPrice: 50.0,
	})
	assert.Error(t, err)

	err = svc.Create(&models.Alert{
		UserID: 9999, ProductID: p.ID, Type: models.AlertPriceDrop, TargetPrice: 50.0,
	})
	assert.Error(t, err)
}

func TestResetReArmsAlert(t *testing.T) {
	svc, st, d := newTestService(t)
	p := seedProduct(t, st, 85.0)
	u := seedUser(t, st)

	alert := &models.Alert{
		UserID: u.ID, ProductID: p.ID,
		Type: models.AlertPriceDrop, TargetPrice: 90.0, NotifyEmail: true,
	}
	require.NoError(t, svc.Create(alert))

	_, err := svc.CheckProduct(p.ID, true)
	require.NoError(t, err)
	require.Len(t, d.payloads, 1)

	require.NoError(t, svc.Reset(alert.ID))

	triggered, err := svc.CheckProduct(p.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, triggered)
	assert.Len(t, d.payloads, 2)
}

func TestDeactivateHidesAlert(t *testing.T) {
	svc, st, d := newTestService(t)
	p := seedProduct(t, st, 85.0)
	u := seedUser(t, st)

	alert := &models.Alert{
		UserID: u.ID, ProductID: p.ID,
		Type: models.AlertPriceDrop, TargetPrice: 90.0, NotifyEmail: true,
	}
	require.NoError(t, svc.Create(alert))
	require.NoError(t, svc.Deactivate(alert.ID))

	triggered, err := svc.CheckProduct(p.ID, true)
	require.NoError(t, err)
	assert.Zero(t, triggered)
	assert.Empty(t, d.payloads)

	stats, err := svc.Stats(u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 0, stats.Active)
}
