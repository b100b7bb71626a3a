package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/ppiankov/zkloci/internal/model"
)

// Postgres reads requests and proofs from a pgx connection pool.
// The pool handles concurrent readers.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the database and verifies it answers
func NewPostgres(ctx context.Context, connectionString string) (*Postgres, error) {
	if strings.TrimSpace(connectionString) == "" {
		return nil, fmt.Errorf("%w: database url is empty", ErrUnavailable)
	}

	pool, err := pgxpool.Connect(ctx, connectionString)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", ErrUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}

	return &Postgres{pool: pool}, nil
}

// Status reports available once connected
func (p *Postgres) Status() Status {
	if p == nil || p.pool == nil {
		return StatusUnavailable
	}
	return StatusAvailable
}

// Close releases all pooled connections
func (p *Postgres) Close() {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
}

// FindRequests returns the requests matching the filter
func (p *Postgres) FindRequests(ctx context.Context, filter RequestFilter) ([]model.VerificationRequest, error) {
	sql, args := buildRequestQuery(filter)

	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, classifyError("find requests", err)
	}
	defer rows.Close()

	requests := make([]model.VerificationRequest, 0)
	for rows.Next() {
		var (
			r      model.VerificationRequest
			status string
			attrs  pgtype.JSONB
		)
		if err := rows.Scan(
			&r.RequestID,
			&r.ProviderID,
			&r.ProviderName,
			&r.Type,
			&r.UseCase,
			&status,
			&r.Description,
			&attrs,
			&r.CreatedAt,
			&r.ExpiresAt,
			&r.Stats.TotalProofs,
			&r.Stats.SuccessfulProofs,
		); err != nil {
			return nil, classifyError("scan request", err)
		}
		r.Status = model.RequestStatus(status)
		r.AttributeRequirements = decodeJSONB(attrs)
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError("iterate requests", err)
	}

	return requests, nil
}

// FindProofs returns the proofs matching the filter
func (p *Postgres) FindProofs(ctx context.Context, filter ProofFilter) ([]model.ProofResult, error) {
	if len(filter.RequestIDs) == 0 {
		return []model.ProofResult{}, nil
	}

	sql, args := buildProofQuery(filter)

	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, classifyError("find proofs", err)
	}
	defer rows.Close()

	proofs := make([]model.ProofResult, 0)
	for rows.Next() {
		var (
			pr   model.ProofResult
			meta pgtype.JSONB
		)
		if err := rows.Scan(&pr.ProofID, &pr.RequestID, &pr.UserID, &pr.Result, &pr.CreatedAt, &meta); err != nil {
			return nil, classifyError("scan proof", err)
		}
		pr.Metadata = decodeJSONB(meta)
		proofs = append(proofs, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError("iterate proofs", err)
	}

	return proofs, nil
}

// buildRequestQuery renders the request filter as SQL. Absent fields add no predicate.
func buildRequestQuery(filter RequestFilter) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if !filter.CreatedSince.IsZero() {
		add("created_at >= $%d", filter.CreatedSince)
	}
	if filter.ProviderName != "" {
		add("provider_name = $%d", filter.ProviderName)
	}
	if filter.UseCase != "" {
		add("use_case = $%d", filter.UseCase)
	}

	sql := `SELECT request_id, provider_id, provider_name, type, use_case, status, description,
			attribute_requirements, created_at, expires_at, total_proofs, successful_proofs
			FROM verification_requests`
	if len(where) > 0 {
		sql += "\n\t\t\tWHERE " + strings.Join(where, " AND ")
	}
	sql += "\n\t\t\tORDER BY created_at, request_id"

	return sql, args
}

// buildProofQuery renders the proof filter as SQL
func buildProofQuery(filter ProofFilter) (string, []interface{}) {
	sql := `SELECT proof_id, request_id, user_id, result, created_at, metadata
			FROM proof_results
			WHERE request_id = ANY($1)`
	args := []interface{}{filter.RequestIDs}

	if !filter.CreatedSince.IsZero() {
		sql += " AND created_at >= $2"
		args = append(args, filter.CreatedSince)
	}
	sql += "\n\t\t\tORDER BY created_at, proof_id"

	return sql, args
}

// classifyError maps errors that did not come from the server to ErrUnavailable.
// Server-side errors (bad SQL, missing table) are returned as-is.
func classifyError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

func decodeJSONB(j pgtype.JSONB) map[string]interface{} {
	if j.Status != pgtype.Present || len(j.Bytes) == 0 {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(j.Bytes, &out); err != nil {
		return nil
	}
	return out
}
