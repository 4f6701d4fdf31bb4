package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/jackc/pgx/v5/pgconn"

	"f2f-cri/internal/session/models"
	"f2f-cri/pkg/platform/sentinel"
)

// Nullable index columns are coalesced so they scan into plain strings.
const selectColumns = `
	session_id, client_id, client_session_id, state, redirect_uri, oauth_state,
	subject, persistent_session_id, client_ip_address, created_date, expiry_date,
	COALESCE(authorization_code, '') AS authorization_code, authorization_code_expiry,
	access_token, access_token_expiry,
	COALESCE(vendor_session_id, '') AS vendor_session_id, document_used,
	evidence_requested, attempt_count, expiry_notified, person_identity`

// PostgresStore persists sessions in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// sessionRow adds the JSONB columns that the session model keeps structured.
type sessionRow struct {
	models.Session
	PersonJSON   []byte `db:"person_identity"`
	EvidenceJSON []byte `db:"evidence_requested"`
}

func (r *sessionRow) toSession() (*models.Session, error) {
	session := r.Session
	if len(r.PersonJSON) > 0 {
		if err := json.Unmarshal(r.PersonJSON, &session.Person); err != nil {
			return nil, fmt.Errorf("decode person identity: %w", err)
		}
	}
	if len(r.EvidenceJSON) > 0 {
		var er models.EvidenceRequested
		if err := json.Unmarshal(r.EvidenceJSON, &er); err != nil {
			return nil, fmt.Errorf("decode evidence requested: %w", err)
		}
		session.EvidenceRequested = &er
	}
	return &session, nil
}

func (s *PostgresStore) Create(ctx context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}
	person, evidence, err := encodeJSONColumns(session)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (
			session_id, client_id, client_session_id, state, redirect_uri, oauth_state,
			subject, persistent_session_id, client_ip_address, created_date, expiry_date,
			authorization_code, authorization_code_expiry, access_token, access_token_expiry,
			vendor_session_id, document_used, evidence_requested, attempt_count,
			expiry_notified, person_identity
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		session.ID, session.ClientID, session.ClientSessionID, string(session.State),
		session.RedirectURI, session.OAuthState, session.Subject, session.PersistentSessionID,
		session.ClientIPAddress, session.CreatedDate, session.ExpiryDate,
		nullString(session.AuthorizationCode), session.AuthorizationCodeExpiry,
		session.AccessToken, session.AccessTokenExpiry,
		nullString(session.VendorSessionID), session.DocumentUsed, evidence,
		session.AttemptCount, session.ExpiryNotified, person,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("session %s exists: %w", session.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Session, error) {
	return s.findOne(ctx, "find session by id", `SELECT `+selectColumns+` FROM sessions WHERE session_id = $1`, id)
}

func (s *PostgresStore) FindByAuthorizationCode(ctx context.Context, code string) (*models.Session, error) {
	return s.findOne(ctx, "find session by authorization code", `SELECT `+selectColumns+` FROM sessions WHERE authorization_code = $1`, code)
}

func (s *PostgresStore) FindByVendorSessionID(ctx context.Context, vendorSessionID string) (*models.Session, error) {
	return s.findOne(ctx, "find session by vendor session id", `SELECT `+selectColumns+` FROM sessions WHERE vendor_session_id = $1`, vendorSessionID)
}

func (s *PostgresStore) findOne(ctx context.Context, op, query string, arg string) (*models.Session, error) {
	var row sessionRow
	if err := sqlscan.Get(ctx, s.db, &row, query, arg); err != nil {
		if sqlscan.NotFound(err) {
			return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return row.toSession()
}

// Execute holds a row lock for the whole read-validate-mutate-write cycle.
func (s *PostgresStore) Execute(ctx context.Context, id string, validate ValidateFunc, mutate MutateFunc) (*models.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin session tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is no-op; error already captured
	}()

	var row sessionRow
	err = sqlscan.Get(ctx, tx, &row, `SELECT `+selectColumns+` FROM sessions WHERE session_id = $1 FOR UPDATE`, id)
	if err != nil {
		if sqlscan.NotFound(err) {
			return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("lock session: %w", err)
	}
	session, err := row.toSession()
	if err != nil {
		return nil, err
	}

	if err := validate(session); err != nil {
		return nil, err
	}
	mutate(session)

	person, evidence, err := encodeJSONColumns(session)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE sessions SET
			state = $2, subject = $3, expiry_date = $4,
			authorization_code = $5, authorization_code_expiry = $6,
			access_token = $7, access_token_expiry = $8,
			vendor_session_id = $9, document_used = $10, evidence_requested = $11,
			attempt_count = $12, expiry_notified = $13, person_identity = $14,
			updated_at = NOW()
		WHERE session_id = $1`,
		session.ID, string(session.State), session.Subject, session.ExpiryDate,
		nullString(session.AuthorizationCode), session.AuthorizationCodeExpiry,
		session.AccessToken, session.AccessTokenExpiry,
		nullString(session.VendorSessionID), session.DocumentUsed, evidence,
		session.AttemptCount, session.ExpiryNotified, person,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("update session %s: %w", id, sentinel.ErrConflict)
		}
		return nil, fmt.Errorf("update session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit session tx: %w", err)
	}
	return session, nil
}

func (s *PostgresStore) ListByStates(ctx context.Context, states []models.State, createdBefore int64) ([]*models.Session, error) {
	names := make([]string, len(states))
	for i, st := range states {
		names[i] = string(st)
	}

	var rows []*sessionRow
	err := sqlscan.Select(ctx, s.db, &rows, `
		SELECT `+selectColumns+`
		FROM sessions
		WHERE state = ANY($1) AND created_date <= $2 AND expiry_notified = FALSE
		ORDER BY created_date`, names, createdBefore)
	if err != nil {
		return nil, fmt.Errorf("list sessions by state: %w", err)
	}

	out := make([]*models.Session, 0, len(rows))
	for _, row := range rows {
		session, err := row.toSession()
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	return out, nil
}

func encodeJSONColumns(session *models.Session) (person string, evidence *string, err error) {
	p, err := json.Marshal(session.Person)
	if err != nil {
		return "", nil, fmt.Errorf("marshal person identity: %w", err)
	}
	if session.EvidenceRequested != nil {
		e, err := json.Marshal(session.EvidenceRequested)
		if err != nil {
			return "", nil, fmt.Errorf("marshal evidence requested: %w", err)
		}
		es := string(e)
		evidence = &es
	}
	return string(p), evidence, nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
