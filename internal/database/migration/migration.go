package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id            UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  email         TEXT        NOT NULL UNIQUE,
  name          TEXT        NOT NULL,
  role          TEXT        NOT NULL DEFAULT 'user',
  password_hash TEXT        NOT NULL,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id                   UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  user_id              UUID        NOT NULL REFERENCES users (id),
  requester_name       TEXT        NOT NULL,
  requester_citizen_id TEXT        NOT NULL,
  requester_phone      TEXT        NOT NULL,
  requester_email      TEXT        NOT NULL,
  notarization_field   TEXT        NOT NULL,
  notarization_service TEXT        NOT NULL,
  amount               BIGINT      NOT NULL CHECK (amount > 0),
  files                JSONB       NOT NULL DEFAULT '[]',
  output_files         JSONB       NOT NULL DEFAULT '[]',
  status               TEXT        NOT NULL DEFAULT 'pending',
  feedback             TEXT        NOT NULL DEFAULT '',
  metadata_uri         TEXT        NOT NULL DEFAULT '',
  mint_address         TEXT        NOT NULL DEFAULT '',
  tx_signature         TEXT        NOT NULL DEFAULT '',
  created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_documents_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_status ON documents (status);`,
	},
	{
		Name: "create_index_documents_user_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_user_id ON documents (user_id);`,
	},
	{
		Name: "create_table_status_tracking",
		SQL: `CREATE TABLE IF NOT EXISTS status_tracking (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id UUID        NOT NULL REFERENCES documents (id),
  status      TEXT        NOT NULL,
  actor_id    TEXT        NOT NULL,
  actor_role  TEXT        NOT NULL,
  feedback    TEXT        NOT NULL DEFAULT '',
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_status_tracking_document_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_status_tracking_document_id ON status_tracking (document_id, created_at);`,
	},
	{
		Name: "create_table_request_signatures",
		SQL: `CREATE TABLE IF NOT EXISTS request_signatures (
  id                  UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id         UUID        NOT NULL UNIQUE REFERENCES documents (id),
  signature_image_key TEXT        NOT NULL DEFAULT '',
  user_approved       BOOLEAN     NOT NULL DEFAULT FALSE,
  user_approved_at    TIMESTAMPTZ,
  notary_approved     BOOLEAN     NOT NULL DEFAULT FALSE,
  notary_approved_at  TIMESTAMPTZ,
  created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_payments",
		SQL: `CREATE TABLE IF NOT EXISTS payments (
  id             UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  order_code     BIGINT      NOT NULL UNIQUE CHECK (order_code > 0),
  amount         BIGINT      NOT NULL CHECK (amount > 0),
  description    TEXT        NOT NULL,
  status         TEXT        NOT NULL DEFAULT 'pending',
  user_id        UUID        NOT NULL REFERENCES users (id),
  document_id    UUID        REFERENCES documents (id),
  wallet_item_id UUID,
  checkout_url   TEXT        NOT NULL DEFAULT '',
  return_url     TEXT        NOT NULL DEFAULT '',
  cancel_url     TEXT        NOT NULL DEFAULT '',
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_payments_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_payments_status ON payments (status);`,
	},
	{
		Name: "create_table_wallet_items",
		SQL: `CREATE TABLE IF NOT EXISTS wallet_items (
  id               UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  user_id          UUID        NOT NULL REFERENCES users (id),
  mint_address     TEXT        NOT NULL,
  metadata_address TEXT        NOT NULL DEFAULT '',
  tx_signature     TEXT        NOT NULL DEFAULT '',
  filename         TEXT        NOT NULL,
  metadata_uri     TEXT        NOT NULL,
  amount           BIGINT      NOT NULL DEFAULT 1 CHECK (amount >= 0),
  explorer_link    TEXT        NOT NULL DEFAULT '',
  solscan_link     TEXT        NOT NULL DEFAULT '',
  ipfs_link        TEXT        NOT NULL DEFAULT '',
  minted_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
  created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (user_id, mint_address)
);`,
	},
}

// EnsureMigrated checks if the 'documents' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.documents') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
