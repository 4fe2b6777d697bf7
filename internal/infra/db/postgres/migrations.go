package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// RunMigrations creates the schema when missing. Statements are idempotent
// so startup can always run them.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	migrations := []string{
		createUsersTable,
		createIdeasTable,
		createAnalysesTable,
		createChatMessagesTable,
		createGenerationErrorsTable,
	}
	for i, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
  id               VARCHAR(64) PRIMARY KEY,
  email            VARCHAR(255) NOT NULL UNIQUE,
  name             VARCHAR(255) NOT NULL DEFAULT '',
  password_hash    VARCHAR(255) NOT NULL,
  role             VARCHAR(16)  NOT NULL DEFAULT 'USER',
  credits          INT          NOT NULL DEFAULT 0,
  credits_reset_at TIMESTAMPTZ  NOT NULL,
  verified         BOOLEAN      NOT NULL DEFAULT FALSE,
  notify_by_email  BOOLEAN      NOT NULL DEFAULT TRUE,
  created_at       TIMESTAMPTZ  NOT NULL,
  updated_at       TIMESTAMPTZ  NOT NULL
);`

const createIdeasTable = `
CREATE TABLE IF NOT EXISTS ideas (
  id               VARCHAR(64) PRIMARY KEY,
  user_id          VARCHAR(64)  NOT NULL,
  title            VARCHAR(255) NOT NULL,
  one_liner        VARCHAR(512) NOT NULL DEFAULT '',
  description      TEXT         NOT NULL,
  status           VARCHAR(16)  NOT NULL DEFAULT 'DRAFT',
  attachments_json JSONB        NOT NULL,
  created_at       TIMESTAMPTZ  NOT NULL,
  updated_at       TIMESTAMPTZ  NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ideas_user_created ON ideas (user_id, created_at);`

const createAnalysesTable = `
CREATE TABLE IF NOT EXISTS analyses (
  id          VARCHAR(64) PRIMARY KEY,
  idea_id     VARCHAR(64) NOT NULL,
  user_id     VARCHAR(64) NOT NULL,
  report_json JSONB       NOT NULL,
  created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analyses_idea ON analyses (user_id, idea_id, created_at);`

const createChatMessagesTable = `
CREATE TABLE IF NOT EXISTS chat_messages (
  id          VARCHAR(64) PRIMARY KEY,
  analysis_id VARCHAR(64) NOT NULL,
  user_id     VARCHAR(64) NOT NULL,
  role        VARCHAR(16) NOT NULL,
  content     TEXT        NOT NULL,
  created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_analysis ON chat_messages (user_id, analysis_id, created_at);`

const createGenerationErrorsTable = `
CREATE TABLE IF NOT EXISTS generation_errors (
  id           BIGSERIAL PRIMARY KEY,
  user_id      VARCHAR(64) NOT NULL,
  idea_id      VARCHAR(64) NOT NULL,
  phase        VARCHAR(32) NOT NULL DEFAULT '-',
  message      TEXT        NOT NULL,
  details_json JSONB       NOT NULL,
  created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_generr_idea ON generation_errors (user_id, idea_id, created_at);`
