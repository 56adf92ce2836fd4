package sqlite

// schema is applied on every Open. Statements are idempotent.
// Dates are stored as YYYY-MM-DD text and timestamps as fixed-width UTC text
// so that lexical order matches chronological order.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS activity_records (
		user_id           TEXT    NOT NULL,
		activity_date     TEXT    NOT NULL,
		articles_read     INTEGER NOT NULL DEFAULT 0 CHECK (articles_read >= 0),
		quizzes_completed INTEGER NOT NULL DEFAULT 0 CHECK (quizzes_completed >= 0),
		points_earned     INTEGER NOT NULL DEFAULT 0 CHECK (points_earned >= 0),
		PRIMARY KEY (user_id, activity_date)
	)`,

	`CREATE TABLE IF NOT EXISTS streak_states (
		user_id            TEXT    PRIMARY KEY,
		current_streak     INTEGER NOT NULL DEFAULT 0,
		longest_streak     INTEGER NOT NULL DEFAULT 0,
		last_activity_date TEXT,
		total_points       INTEGER NOT NULL DEFAULT 0,
		updated_at         TEXT    NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS quiz_results (
		user_id       TEXT    NOT NULL,
		item_id       TEXT    NOT NULL,
		score         INTEGER NOT NULL CHECK (score BETWEEN 0 AND 100),
		points_earned INTEGER NOT NULL DEFAULT 0,
		completed_at  TEXT    NOT NULL,
		time_spent_ms INTEGER,
		PRIMARY KEY (user_id, item_id)
	)`,

	`CREATE TABLE IF NOT EXISTS badges (
		id                  INTEGER PRIMARY KEY AUTOINCREMENT,
		name                TEXT    NOT NULL UNIQUE,
		description         TEXT    NOT NULL DEFAULT '',
		icon                TEXT    NOT NULL DEFAULT '',
		points_required     INTEGER NOT NULL DEFAULT 0,
		quiz_count_required INTEGER NOT NULL DEFAULT 0,
		streak_required     INTEGER NOT NULL DEFAULT 0,
		is_active           BOOLEAN NOT NULL DEFAULT 1
	)`,

	`CREATE TABLE IF NOT EXISTS user_badges (
		user_id   TEXT    NOT NULL,
		badge_id  INTEGER NOT NULL REFERENCES badges(id),
		earned_at TEXT    NOT NULL,
		PRIMARY KEY (user_id, badge_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_user_badges_earned ON user_badges (user_id, earned_at)`,
}
