package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: ACTIVITY LEDGER AND STREAKS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create ledger and streak tables
-- Version: 001

-- One row per user per calendar day, created on first activity
CREATE TABLE IF NOT EXISTS activity_records (
    user_id TEXT NOT NULL,
    activity_date DATE NOT NULL,
    articles_read INTEGER NOT NULL DEFAULT 0,
    quizzes_completed INTEGER NOT NULL DEFAULT 0,
    points_earned INTEGER NOT NULL DEFAULT 0,

    PRIMARY KEY (user_id, activity_date),
    CONSTRAINT valid_counters CHECK (
        articles_read >= 0 AND quizzes_completed >= 0 AND points_earned >= 0
    )
);

-- Recent activity is always read newest first
CREATE INDEX IF NOT EXISTS idx_activity_records_user_date
    ON activity_records(user_id, activity_date DESC);

-- Streak and points state, one row per user
CREATE TABLE IF NOT EXISTS streak_states (
    user_id TEXT PRIMARY KEY,
    current_streak INTEGER NOT NULL DEFAULT 0,
    longest_streak INTEGER NOT NULL DEFAULT 0,
    last_activity_date DATE,
    total_points INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_streak CHECK (current_streak >= 0 AND longest_streak >= current_streak),
    CONSTRAINT valid_points CHECK (total_points >= 0)
);
`

const migration001Down = `
DROP TABLE IF EXISTS streak_states;
DROP TABLE IF EXISTS activity_records;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: QUIZ RESULTS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create quiz results table
-- Version: 002

-- Best result per user and content item
CREATE TABLE IF NOT EXISTS quiz_results (
    user_id TEXT NOT NULL,
    item_id TEXT NOT NULL,
    score INTEGER NOT NULL,
    points_earned INTEGER NOT NULL DEFAULT 0,
    completed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    time_spent_ms BIGINT,

    PRIMARY KEY (user_id, item_id),
    CONSTRAINT valid_score CHECK (score BETWEEN 0 AND 100),
    CONSTRAINT valid_time_spent CHECK (time_spent_ms IS NULL OR time_spent_ms >= 0)
);
`

const migration002Down = `
DROP TABLE IF EXISTS quiz_results;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: BADGES
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create badge catalog and grants
-- Version: 003

-- Catalog, managed by operators and seeded by cmd/migrate
CREATE TABLE IF NOT EXISTS badges (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(100) NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    icon VARCHAR(16) NOT NULL DEFAULT '',
    points_required INTEGER NOT NULL DEFAULT 0,
    quiz_count_required INTEGER NOT NULL DEFAULT 0,
    streak_required INTEGER NOT NULL DEFAULT 0,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,

    CONSTRAINT valid_thresholds CHECK (
        points_required >= 0 AND quiz_count_required >= 0 AND streak_required >= 0
    )
);

-- A badge is granted at most once per user
CREATE TABLE IF NOT EXISTS user_badges (
    user_id TEXT NOT NULL,
    badge_id BIGINT NOT NULL REFERENCES badges(id) ON DELETE CASCADE,
    earned_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (user_id, badge_id)
);

CREATE INDEX IF NOT EXISTS idx_user_badges_user_earned ON user_badges(user_id, earned_at);
`

const migration003Down = `
DROP TABLE IF EXISTS user_badges;
DROP TABLE IF EXISTS badges;
`
