package preview

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLStore keeps tokens in preview_tokens.
type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Insert(ctx context.Context, t Token) error {
	var data any
	if len(t.ContentData) > 0 {
		data = []byte(t.ContentData)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preview_tokens (token, content_type, content_id, content_data, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.Token, t.ContentType, t.ContentID, data, t.ExpiresAt, t.CreatedAt)
	return err
}

func (s *SQLStore) Get(ctx context.Context, token string) (Token, error) {
	var t Token
	err := s.db.GetContext(ctx, &t,
		`SELECT token, content_type, content_id, content_data, expires_at, created_at
		   FROM preview_tokens WHERE token = ?`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return Token{}, ErrNotFound
	}
	return t, err
}

func (s *SQLStore) Delete(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM preview_tokens WHERE token = ?`, token)
	return err
}

func (s *SQLStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM preview_tokens WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
