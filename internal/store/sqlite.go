package store

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"pricepick/internal/models"
	"pricepick/logger"
	apperr "pricepick/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT NOT NULL UNIQUE,
	full_name TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	email_enabled INTEGER NOT NULL DEFAULT 1,
	weekly_summary INTEGER NOT NULL DEFAULT 0,
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS products (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	brand TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	platform TEXT NOT NULL,
	url TEXT NOT NULL UNIQUE,
	current_price REAL,
	original_price REAL,
	currency TEXT NOT NULL DEFAULT 'USD',
	is_available INTEGER NOT NULL DEFAULT 1,
	is_tracking INTEGER NOT NULL DEFAULT 1,
	is_active INTEGER NOT NULL DEFAULT 1,
	image_url TEXT NOT NULL DEFAULT '',
	rating REAL,
	review_count INTEGER NOT NULL DEFAULT 0,
	price_selector TEXT NOT NULL DEFAULT '',
	title_selector TEXT NOT NULL DEFAULT '',
	availability_selector TEXT NOT NULL DEFAULT '',
	last_checked_at DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_due ON products(is_tracking, is_active, last_checked_at);

CREATE TABLE IF NOT EXISTS price_points (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	product_id INTEGER NOT NULL REFERENCES products(id),
	price REAL NOT NULL,
	currency TEXT NOT NULL DEFAULT 'USD',
	is_sale INTEGER NOT NULL DEFAULT 0,
	is_available INTEGER NOT NULL DEFAULT 1,
	change_amount REAL NOT NULL DEFAULT 0,
	change_percentage REAL NOT NULL DEFAULT 0,
	session_id INTEGER NOT NULL DEFAULT 0,
	source_url TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_price_points_product ON price_points(product_id, created_at DESC);

CREATE TABLE IF NOT EXISTS alerts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id),
	product_id INTEGER NOT NULL REFERENCES products(id),
	alert_type TEXT NOT NULL,
	target_price REAL NOT NULL,
	threshold_percentage REAL NOT NULL DEFAULT 0,
	threshold_amount REAL NOT NULL DEFAULT 0,
	is_active INTEGER NOT NULL DEFAULT 1,
	is_triggered INTEGER NOT NULL DEFAULT 0,
	triggered_at DATETIME,
	last_checked DATETIME,
	notify_email INTEGER NOT NULL DEFAULT 1,
	notify_push INTEGER NOT NULL DEFAULT 0,
	notify_sms INTEGER NOT NULL DEFAULT 0,
	notes TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alerts_product ON alerts(product_id, is_active);

CREATE TABLE IF NOT EXISTS scrape_sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_key TEXT NOT NULL,
	product_id INTEGER NOT NULL REFERENCES products(id),
	platform TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	started_at DATETIME,
	completed_at DATETIME,
	success INTEGER NOT NULL DEFAULT 0,
	price_found INTEGER NOT NULL DEFAULT 0,
	title_found INTEGER NOT NULL DEFAULT 0,
	availability_found INTEGER NOT NULL DEFAULT 0,
	scraped_price TEXT NOT NULL DEFAULT '',
	scraped_title TEXT NOT NULL DEFAULT '',
	scraped_availability TEXT NOT NULL DEFAULT '',
	scraped_image_url TEXT NOT NULL DEFAULT '',
	scraped_rating TEXT NOT NULL DEFAULT '',
	scraped_review_count TEXT NOT NULL DEFAULT '',
	response_time_ms INTEGER NOT NULL DEFAULT 0,
	http_status INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	error_type TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_product ON scrape_sessions(product_id, created_at DESC);

CREATE TABLE IF NOT EXISTS scrape_issues (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id INTEGER NOT NULL REFERENCES scrape_sessions(id),
	error_type TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	http_status INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);
`

// SQLite implements Store on a local SQLite database.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// NewSQLite opens (and migrates) the database at path. Use ":memory:"
// for an ephemeral store.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, apperr.NewPersistence("store", "failed to open database", err)
	}
	// A single connection avoids SQLITE_BUSY on concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, apperr.NewPersistence("store", "failed to run migrations", err)
	}

	logger.ForStore().Debug().Str("path", path).Msg("Database opened")
	return &SQLite{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) CreateProduct(p *models.Product) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	res, err := s.db.Exec(`INSERT INTO products
		(name, description, brand, category, platform, url,
		 current_price, original_price, currency,
		 is_available, is_tracking, is_active,
		 image_url, rating, review_count,
		 price_selector, title_selector, availability_selector,
		 last_checked_at, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.Name, p.Description, p.Brand, p.Category, p.Platform, p.URL,
		nullFloat(p.CurrentPrice), nullFloat(p.OriginalPrice), p.Currency,
		p.IsAvailable, p.IsTracking, p.IsActive,
		p.ImageURL, nullFloat(p.Rating), p.ReviewCount,
		p.PriceSelector, p.TitleSelector, p.AvailabilitySelector,
		nullTime(p.LastCheckedAt), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return apperr.NewPersistence("store", "failed to insert product", err)
	}
	p.ID, _ = res.LastInsertId()
	return nil
}

const productColumns = `id, name, description, brand, category, platform, url,
	current_price, original_price, currency,
	is_available, is_tracking, is_active,
	image_url, rating, review_count,
	price_selector, title_selector, availability_selector,
	last_checked_at, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	var p models.Product
	var currentPrice, originalPrice, rating sql.NullFloat64
	var lastChecked sql.NullTime

	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Brand, &p.Category,
		&p.Platform, &p.URL,
		&currentPrice, &originalPrice, &p.Currency,
		&p.IsAvailable, &p.IsTracking, &p.IsActive,
		&p.ImageURL, &rating, &p.ReviewCount,
		&p.PriceSelector, &p.TitleSelector, &p.AvailabilitySelector,
		&lastChecked, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.CurrentPrice = floatPtr(currentPrice)
	p.OriginalPrice = floatPtr(originalPrice)
	p.Rating = floatPtr(rating)
	p.LastCheckedAt = timePtr(lastChecked)
	return &p, nil
}

func (s *SQLite) GetProduct(id int64) (*models.Product, error) {
	p, err := scanProduct(s.db.QueryRow(`SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.NewPersistence("store", "failed to load product", err)
	}
	return p, nil
}

func (s *SQLite) GetProductByURL(url string) (*models.Product, error) {
	p, err := scanProduct(s.db.QueryRow(`SELECT `+productColumns+` FROM products WHERE url = ?`, url))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.NewPersistence("store", "failed to load product", err)
	}
	return p, nil
}

func (s *SQLite) ListProducts(activeOnly bool) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY id`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, apperr.NewPersistence("store", "failed to list products", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

// ListDueProducts returns tracked, active products whose last check is
// older than cutoff (or that were never checked), oldest check first.
func (s *SQLite) ListDueProducts(cutoff time.Time, limit int) ([]*models.Product, error) {
	rows, err := s.db.Query(`SELECT `+productColumns+` FROM products
		WHERE is_tracking = 1 AND is_active = 1
		  AND (last_checked_at IS NULL OR last_checked_at < ?)
		ORDER BY last_checked_at ASC
		LIMIT ?`, cutoff, limit)
	if err != nil {
		return nil, apperr.NewPersistence("store", "failed to list due products", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

func collectProducts(rows *sql.Rows) ([]*models.Product, error) {
	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, apperr.NewPersistence("store", "failed to scan product", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *SQLite) UpdateProduct(p *models.Product) error {
	p.UpdatedAt = time.Now().UTC()

	_, err := s.db.Exec(`UPDATE products SET
		name = ?, description = ?, brand = ?, category = ?, platform = ?, url = ?,
		current_price = ?, original_price = ?, currency = ?,
		is_available = ?, is_tracking = ?, is_active = ?,
		image_url = ?, rating = ?, review_count = ?,
		price_selector = ?, title_selector = ?, availability_selector = ?,
		last_checked_at = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Description, p.Brand, p.Category, p.Platform, p.URL,
		nullFloat(p.CurrentPrice), nullFloat(p.OriginalPrice), p.Currency,
		p.IsAvailable, p.IsTracking, p.IsActive,
		p.ImageURL, nullFloat(p.Rating), p.ReviewCount,
		p.PriceSelector, p.TitleSelector, p.AvailabilitySelector,
		nullTime(p.LastCheckedAt), p.UpdatedAt, p.ID)
	if err != nil {
		return apperr.NewPersistence("store", "failed to update product", err)
	}
	return nil
}

func (s *SQLite) SetTracking(id int64, tracking bool) error {
	_, err := s.db.Exec(`UPDATE products SET is_tracking = ?, updated_at = ? WHERE id = ?`,
		tracking, time.Now().UTC(), id)
	if err != nil {
		return apperr.NewPersistence("store", "failed to set tracking", err)
	}
	return nil
}

func (s *SQLite) TouchProduct(id int64, checkedAt time.Time) error {
	_, err := s.db.Exec(`UPDATE products SET last_checked_at = ?, updated_at = ? WHERE id = ?`,
		checkedAt, time.Now().UTC(), id)
	if err != nil {
		return apperr.NewPersistence("store", "failed to touch product", err)
	}
	return nil
}

func (s *SQLite) CreatePricePoint(pp *models.PricePoint) error {
	pp.CreatedAt = time.Now().UTC()

	res, err := s.db.Exec(`INSERT INTO price_points
		(product_id, price, currency, is_sale, is_available,
		 change_amount, change_percentage, session_id, source_url, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		pp.ProductID, pp.Price, pp.Currency, pp.IsSale, pp.IsAvailable,
		pp.ChangeAmount, pp.ChangePercentage, pp.SessionID, pp.SourceURL, pp.CreatedAt)
	if err != nil {
		return apperr.NewPersistence("store", "failed to insert price point", err)
	}
	pp.ID, _ = res.LastInsertId()
	return nil
}

const pricePointColumns = `id, product_id, price, currency, is_sale, is_available,
	change_amount, change_percentage, session_id, source_url, created_at`

func scanPricePoint(row interface{ Scan(...any) error }) (*models.PricePoint, error) {
	var pp models.PricePoint
	err := row.Scan(&pp.ID, &pp.ProductID, &pp.Price, &pp.Currency,
		&pp.IsSale, &pp.IsAvailable,
		&pp.ChangeAmount, &pp.ChangePercentage, &pp.SessionID, &pp.SourceURL,
		&pp.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &pp, nil
}

func (s *SQLite) LatestPrice(productID int64) (*models.PricePoint, error) {
	return s.priceAtOffset(productID, 0)
}

// PreviousPrice returns the second most recent point, the one before
// the latest.
func (s *SQLite) PreviousPrice(productID int64) (*models.PricePoint, error) {
	return s.priceAtOffset(productID, 1)
}

func (s *SQLite) priceAtOffset(productID int64, offset int) (*models.PricePoint, error) {
	pp, err := scanPricePoint(s.db.QueryRow(`SELECT `+pricePointColumns+` FROM price_points
		WHERE product_id = ? ORDER BY created_at DESC, id DESC LIMIT 1 OFFSET ?`,
		productID, offset))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.NewPersistence("store", "failed to load price point", err)
	}
	return pp, nil
}

func (s *SQLite) ListPrices(productID int64, since time.Time, limit int) ([]*models.PricePoint, error) {
	rows, err := s.db.Query(`SELECT `+pricePointColumns+` FROM price_points
		WHERE product_id = ? AND created_at >= ?
		ORDER BY created_at DESC, id DESC LIMIT ?`,
		productID, since, limit)
	if err != nil {
		return nil, apperr.NewPersistence("store", "failed to list prices", err)
	}
	defer rows.Close()

	var points []*models.PricePoint
	for rows.Next() {
		pp, err := scanPricePoint(rows)
		if err != nil {
			return nil, apperr.NewPersistence("store", "failed to scan price point", err)
		}
		points = append(points, pp)
	}
	return points, rows.Err()
}

func (s *SQLite) PurgePricesBefore(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM price_points WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, apperr.NewPersistence("store", "failed to purge price points", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *SQLite) CreateAlert(a *models.Alert) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	res, err := s.db.Exec(`INSERT INTO alerts
		(user_id, product_id, alert_type, target_price,
		 threshold_percentage, threshold_amount,
		 is_active, is_triggered, triggered_at, last_checked,
		 notify_email, notify_push, notify_sms, notes, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.UserID, a.ProductID, a.Type, a.TargetPrice,
		a.ThresholdPercentage, a.ThresholdAmount,
		a.IsActive, a.IsTriggered, nullTime(a.TriggeredAt), nullTime(a.LastChecked),
		a.NotifyEmail, a.NotifyPush, a.NotifySMS, a.Notes, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return apperr.NewPersistence("store", "failed to insert alert", err)
	}
	a.ID, _ = res.LastInsertId()
	return nil
}

const alertColumns = `id, user_id, product_id, alert_type, target_price,
	threshold_percentage, threshold_amount,
	is_active, is_triggered, triggered_at, last_checked,
	notify_email, notify_push, notify_sms, notes, created_at, updated_at`

func scanAlert(row interface{ Scan(...any) error }) (*models.Alert, error) {
	var a models.Alert
	var triggeredAt, lastChecked sql.NullTime

	err := row.Scan(&a.ID, &a.UserID, &a.ProductID, &a.Type, &a.TargetPrice,
		&a.ThresholdPercentage, &a.ThresholdAmount,
		&a.IsActive, &a.IsTriggered, &triggeredAt, &lastChecked,
		&a.NotifyEmail, &a.NotifyPush, &a.NotifySMS, &a.Notes,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.TriggeredAt = timePtr(triggeredAt)
	a.LastChecked = timePtr(lastChecked)
	return &a, nil
}

func (s *SQLite) GetAlert(id int64) (*models.Alert, error) {
	a, err := scanAlert(s.db.QueryRow(`SELECT `+alertColumns+` FROM alerts WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.NewPersistence("store", "failed to load alert", err)
	}
	return a, nil
}

func (s *SQLite) ListAlertsForProduct(productID int64, activeOnly bool) ([]*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE product_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY id`

	rows, err := s.db.Query(query, productID)
	if err != nil {
		return nil, apperr.NewPersistence("store", "failed to list alerts", err)
	}
	defer rows.Close()
	return collectAlerts(rows)
}

func (s *SQLite) ListAlertsForUser(userID int64) ([]*models.Alert, error) {
	rows, err := s.db.Query(`SELECT `+alertColumns+` FROM alerts WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, apperr.NewPersistence("store", "failed to list alerts", err)
	}
	defer rows.Close()
	return collectAlerts(rows)
}

func collectAlerts(rows *sql.Rows) ([]*models.Alert, error) {
	var alerts []*models.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, apperr.NewPersistence("store", "failed to scan alert", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (s *SQLite) UpdateAlert(a *models.Alert) error {
	a.UpdatedAt = time.Now().UTC()

	_, err := s.db.Exec(`UPDATE alerts SET
		alert_type = ?, target_price = ?,
		threshold_percentage = ?, threshold_amount = ?,
		is_active = ?, is_triggered = ?, triggered_at = ?, last_checked = ?,
		notify_email = ?, notify_push = ?, notify_sms = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		a.Type, a.TargetPrice,
		a.ThresholdPercentage, a.ThresholdAmount,
		a.IsActive, a.IsTriggered, nullTime(a.TriggeredAt), nullTime(a.LastChecked),
		a.NotifyEmail, a.NotifyPush, a.NotifySMS, a.Notes, a.UpdatedAt, a.ID)
	if err != nil {
		return apperr.NewPersistence("store", "failed to update alert", err)
	}
	return nil
}

// SetAlertActive soft-deletes (or restores) an alert.
func (s *SQLite) SetAlertActive(id int64, active bool) error {
	_, err := s.db.Exec(`UPDATE alerts SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), id)
	if err != nil {
		return apperr.NewPersistence("store", "failed to set alert active", err)
	}
	return nil
}

func (s *SQLite) GetAlertStats(userID int64) (*AlertStats, error) {
	var stats AlertStats
	err := s.db.QueryRow(`SELECT COUNT(*),
		COALESCE(SUM(is_active), 0),
		COALESCE(SUM(is_triggered), 0)
		FROM alerts WHERE user_id = ?`, userID).
		Scan(&stats.Total, &stats.Active, &stats.Triggered)
	if err != nil {
		return nil, apperr.NewPersistence("store", "failed to load alert stats", err)
	}
	return &stats, nil
}

func (s *SQLite) CreateSession(sess *models.ScrapeSession) error {
	sess.CreatedAt = time.Now().UTC()

	res, err := s.db.Exec(`INSERT INTO scrape_sessions
		(session_key, product_id, platform, url, status, started_at, completed_at,
		 success, price_found, title_found, availability_found,
		 scraped_price, scraped_title, scraped_availability,
		 scraped_image_url, scraped_rating, scraped_review_count,
		 response_time_ms, http_status, error_message, error_type, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		sess.SessionKey, sess.ProductID, sess.Platform, sess.URL, sess.Status,
		nullTime(sess.StartedAt), nullTime(sess.CompletedAt),
		sess.Success, sess.PriceFound, sess.TitleFound, sess.AvailabilityFound,
		sess.ScrapedPrice, sess.ScrapedTitle, sess.ScrapedAvailability,
		sess.ScrapedImageURL, sess.ScrapedRating, sess.ScrapedReviewCount,
		sess.ResponseTimeMs, sess.HTTPStatus, sess.ErrorMessage, sess.ErrorType,
		sess.CreatedAt)
	if err != nil {
		return apperr.NewPersistence("store", "failed to insert session", err)
	}
	sess.ID, _ = res.LastInsertId()
	return nil
}

func (s *SQLite) UpdateSession(sess *models.ScrapeSession) error {
	_, err := s.db.Exec(`UPDATE scrape_sessions SET
		status = ?, started_at = ?, completed_at = ?,
		success = ?, price_found = ?, title_found = ?, availability_found = ?,
		scraped_price = ?, scraped_title = ?, scraped_availability = ?,
		scraped_image_url = ?, scraped_rating = ?, scraped_review_count = ?,
		response_time_ms = ?, http_status = ?, error_message = ?, error_type = ?
		WHERE id = ?`,
		sess.Status, nullTime(sess.StartedAt), nullTime(sess.CompletedAt),
		sess.Success, sess.PriceFound, sess.TitleFound, sess.AvailabilityFound,
		sess.ScrapedPrice, sess.ScrapedTitle, sess.ScrapedAvailability,
		sess.ScrapedImageURL, sess.ScrapedRating, sess.ScrapedReviewCount,
		sess.ResponseTimeMs, sess.HTTPStatus, sess.ErrorMessage, sess.ErrorType,
		sess.ID)
	if err != nil {
		return apperr.NewPersistence("store", "failed to update session", err)
	}
	return nil
}

const sessionColumns = `id, session_key, product_id, platform, url, status,
	started_at, completed_at,
	success, price_found, title_found, availability_found,
	scraped_price, scraped_title, scraped_availability,
	scraped_image_url, scraped_rating, scraped_review_count,
	response_time_ms, http_status, error_message, error_type, created_at`

func scanSession(row interface{ Scan(...any) error }) (*models.ScrapeSession, error) {
	var sess models.ScrapeSession
	var startedAt, completedAt sql.NullTime

	err := row.Scan(&sess.ID, &sess.SessionKey, &sess.ProductID, &sess.Platform,
		&sess.URL, &sess.Status, &startedAt, &completedAt,
		&sess.Success, &sess.PriceFound, &sess.TitleFound, &sess.AvailabilityFound,
		&sess.ScrapedPrice, &sess.ScrapedTitle, &sess.ScrapedAvailability,
		&sess.ScrapedImageURL, &sess.ScrapedRating, &sess.ScrapedReviewCount,
		&sess.ResponseTimeMs, &sess.HTTPStatus, &sess.ErrorMessage, &sess.ErrorType,
		&sess.CreatedAt)
	if err != nil {
		return nil, err
	}
	sess.StartedAt = timePtr(startedAt)
	sess.CompletedAt = timePtr(completedAt)
	return &sess, nil
}

func (s *SQLite) GetSession(id int64) (*models.ScrapeSession, error) {
	sess, err := scanSession(s.db.QueryRow(`SELECT `+sessionColumns+` FROM scrape_sessions WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.NewPersistence("store", "failed to load session", err)
	}
	return sess, nil
}

func (s *SQLite) ListSessionsForProduct(productID int64, limit int) ([]*models.ScrapeSession, error) {
	rows, err := s.db.Query(`SELECT `+sessionColumns+` FROM scrape_sessions
		WHERE product_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		productID, limit)
	if err != nil {
		return nil, apperr.NewPersistence("store", "failed to list sessions", err)
	}
	defer rows.Close()

	var sessions []*models.ScrapeSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, apperr.NewPersistence("store", "failed to scan session", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *SQLite) CreateIssue(e *models.ScrapeIssue) error {
	e.CreatedAt = time.Now().UTC()

	res, err := s.db.Exec(`INSERT INTO scrape_issues
		(session_id, error_type, error_message, url, http_status, created_at)
		VALUES (?,?,?,?,?,?)`,
		e.SessionID, e.ErrorType, e.ErrorMessage, e.URL, e.HTTPStatus, e.CreatedAt)
	if err != nil {
		return apperr.NewPersistence("store", "failed to insert issue", err)
	}
	e.ID, _ = res.LastInsertId()
	return nil
}

func (s *SQLite) PurgeSessionsBefore(cutoff time.Time) (int64, error) {
	if _, err := s.db.Exec(`DELETE FROM scrape_issues WHERE session_id IN
		(SELECT id FROM scrape_sessions WHERE created_at < ?)`, cutoff); err != nil {
		return 0, apperr.NewPersistence("store", "failed to purge issues", err)
	}
	res, err := s.db.Exec(`DELETE FROM scrape_sessions WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, apperr.NewPersistence("store", "failed to purge sessions", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *SQLite) CreateUser(u *models.User) error {
	u.CreatedAt = time.Now().UTC()

	res, err := s.db.Exec(`INSERT INTO users
		(email, full_name, phone, email_enabled, weekly_summary, is_active, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		u.Email, u.FullName, u.Phone, u.EmailEnabled, u.WeeklySummary, u.IsActive, u.CreatedAt)
	if err != nil {
		return apperr.NewPersistence("store", "failed to insert user", err)
	}
	u.ID, _ = res.LastInsertId()
	return nil
}

func (s *SQLite) GetUser(id int64) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(`SELECT id, email, full_name, phone, email_enabled,
		weekly_summary, is_active, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.FullName, &u.Phone, &u.EmailEnabled,
			&u.WeeklySummary, &u.IsActive, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.NewPersistence("store", "failed to load user", err)
	}
	return &u, nil
}

func (s *SQLite) GetMonitoringStats() (*MonitoringStats, error) {
	var stats MonitoringStats
	dayStart := time.Now().UTC().Truncate(24 * time.Hour)

	err := s.db.QueryRow(`SELECT
		(SELECT COUNT(*) FROM products WHERE is_active = 1),
		(SELECT COUNT(*) FROM products WHERE is_active = 1 AND is_tracking = 1),
		(SELECT COUNT(*) FROM scrape_sessions WHERE created_at >= ?),
		(SELECT COUNT(*) FROM scrape_sessions WHERE created_at >= ? AND status = 'failed'),
		(SELECT COUNT(*) FROM price_points WHERE created_at >= ?)`,
		dayStart, dayStart, dayStart).
		Scan(&stats.TotalProducts, &stats.TrackedProducts,
			&stats.SessionsToday, &stats.FailedToday, &stats.PricePointsToday)
	if err != nil {
		return nil, apperr.NewPersistence("store", "failed to load monitoring stats", err)
	}
	return &stats, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
