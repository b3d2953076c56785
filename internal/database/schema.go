package database

// schemaStatements creates the source tables the pipeline reads and the
// result tables it writes. Source tables are populated by the upstream
// sync jobs; dates are stored as RFC 3339 / "YYYY-MM-DD" text, which
// sorts and compares correctly in SQLite.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS members (
		member_uid TEXT PRIMARY KEY,
		registered_at TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS employees (
		member_uid TEXT PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		product_id TEXT PRIMARY KEY,
		model TEXT,
		vertical TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tracking_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		member_uid TEXT NOT NULL,
		event_name TEXT NOT NULL,
		event_time TEXT NOT NULL,
		product_id TEXT,
		category TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tracking_events_member
		ON tracking_events (member_uid, event_name, event_time)`,
	`CREATE TABLE IF NOT EXISTS community_activities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		member_uid TEXT NOT NULL,
		activity_name TEXT NOT NULL,
		activity_time TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_community_activities_member
		ON community_activities (member_uid)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		member_uid TEXT NOT NULL,
		vertical TEXT NOT NULL,
		order_date TEXT NOT NULL,
		amount REAL NOT NULL,
		is_gift INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_member_date
		ON orders (member_uid, order_date)`,
	`CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		status TEXT NOT NULL,
		members_total INTEGER NOT NULL DEFAULT 0,
		members_scored INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS member_scores (
		run_id TEXT NOT NULL,
		member_uid TEXT NOT NULL,
		vertical TEXT NOT NULL,
		score REAL NOT NULL,
		PRIMARY KEY (run_id, member_uid, vertical)
	)`,
	`CREATE TABLE IF NOT EXISTS member_predictions (
		run_id TEXT NOT NULL,
		member_uid TEXT NOT NULL,
		predicted_vertical TEXT NOT NULL,
		max_score REAL NOT NULL,
		PRIMARY KEY (run_id, member_uid)
	)`,
	`CREATE TABLE IF NOT EXISTS evaluation_results (
		run_id TEXT NOT NULL,
		vertical TEXT NOT NULL,
		predicted_size INTEGER NOT NULL,
		not_predicted_size INTEGER NOT NULL,
		cvr_predicted REAL NOT NULL,
		cvr_not_predicted REAL NOT NULL,
		cvr_ratio REAL,
		avg_purchase_predicted REAL NOT NULL,
		avg_purchase_not_predicted REAL NOT NULL,
		purchase_ratio REAL,
		avg_sales_share_predicted REAL NOT NULL,
		avg_sales_share_not_predicted REAL NOT NULL,
		sales_share_ratio REAL,
		PRIMARY KEY (run_id, vertical)
	)`,
}
