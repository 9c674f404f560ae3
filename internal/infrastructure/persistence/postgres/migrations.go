// Package postgres implements the PostgreSQL persistence layer for the
// LearnForge metrics engine.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create progress records
-- Version: 001

CREATE TABLE IF NOT EXISTS progress (
    user_id VARCHAR(64) NOT NULL,
    course_id VARCHAR(64) NOT NULL,
    completed_percentage DOUBLE PRECISION NOT NULL DEFAULT 0,
    completed_module_ids TEXT[] NOT NULL DEFAULT '{}',
    milestones_achieved JSONB NOT NULL DEFAULT '[]'::jsonb,
    completed BOOLEAN NOT NULL DEFAULT FALSE,
    completed_at TIMESTAMP WITH TIME ZONE,
    last_updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (user_id, course_id),

    CONSTRAINT valid_percentage CHECK (completed_percentage >= 0 AND completed_percentage <= 100)
);

CREATE INDEX IF NOT EXISTS idx_progress_course ON progress(course_id);
CREATE INDEX IF NOT EXISTS idx_progress_user ON progress(user_id);
CREATE INDEX IF NOT EXISTS idx_progress_completed ON progress(course_id) WHERE completed;
`

const migration001Down = `
DROP TABLE IF EXISTS progress;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE ASSESSMENTS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create assessment submissions and evaluation results
-- Version: 002

CREATE TABLE IF NOT EXISTS assessment_submissions (
    id UUID PRIMARY KEY,
    user_id VARCHAR(64) NOT NULL,
    course_id VARCHAR(64) NOT NULL,
    assessment_id VARCHAR(64) NOT NULL,
    score DOUBLE PRECISION NOT NULL DEFAULT 0,
    total_score DOUBLE PRECISION NOT NULL DEFAULT 0,
    percentage DOUBLE PRECISION NOT NULL DEFAULT 0,
    passed BOOLEAN NOT NULL DEFAULT FALSE,
    submission_text TEXT NOT NULL DEFAULT '',
    submission_url TEXT NOT NULL DEFAULT '',
    status VARCHAR(20) NOT NULL,
    feedback TEXT NOT NULL DEFAULT '',
    reviewed_at TIMESTAMP WITH TIME ZONE,
    submitted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_submission_percentage CHECK (percentage >= 0 AND percentage <= 100)
);

CREATE INDEX IF NOT EXISTS idx_submissions_user_course ON assessment_submissions(user_id, course_id, submitted_at);
CREATE INDEX IF NOT EXISTS idx_submissions_course ON assessment_submissions(course_id);
CREATE INDEX IF NOT EXISTS idx_submissions_user ON assessment_submissions(user_id);

-- Append-only audit trail of derived evaluations.
CREATE TABLE IF NOT EXISTS evaluation_results (
    id UUID PRIMARY KEY,
    submission_id UUID NOT NULL,
    user_id VARCHAR(64) NOT NULL,
    course_id VARCHAR(64) NOT NULL,
    passed BOOLEAN NOT NULL,
    status VARCHAR(20) NOT NULL,
    grade VARCHAR(4) NOT NULL,
    competency_level VARCHAR(20) NOT NULL,
    evaluated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_evaluation_results_submission ON evaluation_results(submission_id);
`

const migration002Down = `
DROP TABLE IF EXISTS evaluation_results;
DROP TABLE IF EXISTS assessment_submissions;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE CERTIFICATES
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create certificates and their audit log
-- Version: 003

CREATE TABLE IF NOT EXISTS certificates (
    id UUID PRIMARY KEY,
    user_id VARCHAR(64) NOT NULL,
    course_id VARCHAR(64) NOT NULL,
    course_name VARCHAR(200) NOT NULL,
    user_name VARCHAR(200) NOT NULL,
    completion_date TIMESTAMP WITH TIME ZONE NOT NULL,
    issued_date TIMESTAMP WITH TIME ZONE NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'ACTIVE',
    course_completion DOUBLE PRECISION NOT NULL,
    final_score INTEGER NOT NULL,
    assessments_passed INTEGER NOT NULL,
    valid_until TIMESTAMP WITH TIME ZONE NOT NULL,
    revoked_at TIMESTAMP WITH TIME ZONE,
    revocation_reason TEXT NOT NULL DEFAULT '',
    metadata JSONB NOT NULL DEFAULT '{}'::jsonb,

    CONSTRAINT valid_certificate_status CHECK (status IN ('ACTIVE', 'REVOKED'))
);

-- At most one ACTIVE certificate per (user, course). Concurrent generation
-- races resolve through this index: the loser gets a unique violation and
-- re-reads the winner.
CREATE UNIQUE INDEX IF NOT EXISTS idx_certificates_active_pair
    ON certificates(user_id, course_id) WHERE status = 'ACTIVE';

CREATE INDEX IF NOT EXISTS idx_certificates_user ON certificates(user_id, issued_date DESC);

CREATE TABLE IF NOT EXISTS certificate_logs (
    id UUID PRIMARY KEY,
    certificate_id UUID NOT NULL,
    user_id VARCHAR(64) NOT NULL,
    course_id VARCHAR(64) NOT NULL,
    action VARCHAR(20) NOT NULL,
    occurred_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    reason TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_certificate_logs_certificate ON certificate_logs(certificate_id, occurred_at);
`

const migration003Down = `
DROP TABLE IF EXISTS certificate_logs;
DROP TABLE IF EXISTS certificates;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: CREATE ANALYTICS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
-- Migration: Create engagement events and course aggregate snapshots
-- Version: 004

CREATE TABLE IF NOT EXISTS engagement_events (
    id UUID PRIMARY KEY,
    user_id VARCHAR(64) NOT NULL,
    course_id VARCHAR(64) NOT NULL,
    type VARCHAR(40) NOT NULL,
    occurred_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    metadata JSONB NOT NULL DEFAULT '{}'::jsonb
);

CREATE INDEX IF NOT EXISTS idx_engagement_events_user ON engagement_events(user_id, occurred_at);
CREATE INDEX IF NOT EXISTS idx_engagement_events_course ON engagement_events(course_id, occurred_at);

-- Persisted staleness layer of the aggregate cache. One row per course,
-- refreshed only by explicit rebuilds and the scheduled refresh job.
CREATE TABLE IF NOT EXISTS course_aggregates (
    course_id VARCHAR(64) PRIMARY KEY,
    metrics JSONB NOT NULL,
    last_updated TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const migration004Down = `
DROP TABLE IF EXISTS course_aggregates;
DROP TABLE IF EXISTS engagement_events;
`
