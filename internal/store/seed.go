package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"

	"github.com/ppiankov/zkloci/internal/model"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS verification_requests (
	request_id             TEXT PRIMARY KEY,
	provider_id            TEXT NOT NULL DEFAULT '',
	provider_name          TEXT NOT NULL DEFAULT '',
	type                   TEXT NOT NULL DEFAULT '',
	use_case               TEXT NOT NULL DEFAULT '',
	status                 TEXT NOT NULL DEFAULT 'active',
	description            TEXT NOT NULL DEFAULT '',
	attribute_requirements JSONB,
	total_proofs           INTEGER NOT NULL DEFAULT 0,
	successful_proofs      INTEGER NOT NULL DEFAULT 0,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS verification_requests_scope_idx
	ON verification_requests (status, created_at, provider_name, use_case);

CREATE TABLE IF NOT EXISTS proof_results (
	proof_id   TEXT PRIMARY KEY,
	request_id TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	result     BOOLEAN NOT NULL,
	metadata   JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS proof_results_request_idx
	ON proof_results (request_id, created_at);
`

const refreshStatsSQL = `
UPDATE verification_requests r
SET total_proofs = s.total, successful_proofs = s.successful
FROM (
	SELECT request_id, COUNT(*) AS total, COUNT(*) FILTER (WHERE result) AS successful
	FROM proof_results
	GROUP BY request_id
) s
WHERE r.request_id = s.request_id`

// Seeder writes demo records into Postgres. It is the only writer in the module.
type Seeder struct {
	conn *Postgres
}

// NewSeeder creates a seeder over an open Postgres reader
func NewSeeder(conn *Postgres) *Seeder {
	return &Seeder{conn: conn}
}

// EnsureSchema creates the tables if they do not exist
func (s *Seeder) EnsureSchema(ctx context.Context) error {
	if _, err := s.conn.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Seed inserts the records in one transaction and refreshes the cached
// per-request counters. With reset, existing rows are removed first.
func (s *Seeder) Seed(ctx context.Context, requests []model.VerificationRequest, proofs []model.ProofResult, reset bool) error {
	return s.conn.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		if reset {
			if _, err := tx.Exec(ctx, "DELETE FROM proof_results"); err != nil {
				return fmt.Errorf("clear proofs: %w", err)
			}
			if _, err := tx.Exec(ctx, "DELETE FROM verification_requests"); err != nil {
				return fmt.Errorf("clear requests: %w", err)
			}
		}

		for _, r := range requests {
			attrs, err := marshalJSONB(r.AttributeRequirements)
			if err != nil {
				return fmt.Errorf("encode attributes for %s: %w", r.RequestID, err)
			}
			_, err = tx.Exec(ctx, `INSERT INTO verification_requests
				(request_id, provider_id, provider_name, type, use_case, status, description,
				 attribute_requirements, created_at, expires_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				ON CONFLICT (request_id) DO NOTHING`,
				r.RequestID, r.ProviderID, r.ProviderName, r.Type, r.UseCase, string(r.Status),
				r.Description, attrs, r.CreatedAt, r.ExpiresAt)
			if err != nil {
				return fmt.Errorf("insert request %s: %w", r.RequestID, err)
			}
		}

		for _, p := range proofs {
			meta, err := marshalJSONB(p.Metadata)
			if err != nil {
				return fmt.Errorf("encode metadata for %s: %w", p.ProofID, err)
			}
			_, err = tx.Exec(ctx, `INSERT INTO proof_results
				(proof_id, request_id, user_id, result, metadata, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (proof_id) DO NOTHING`,
				p.ProofID, p.RequestID, p.UserID, p.Result, meta, p.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert proof %s: %w", p.ProofID, err)
			}
		}

		if _, err := tx.Exec(ctx, refreshStatsSQL); err != nil {
			return fmt.Errorf("refresh request stats: %w", err)
		}
		return nil
	})
}

func marshalJSONB(v map[string]interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
