// Package preview issues and resolves short-lived preview tokens.
//
// A token binds a content type to either a persisted record id or an
// inline draft payload, so an editor can render unsaved work without
// touching the live record.  Tokens are write-once; expiry is the only
// invalidation.  Expired rows are deleted lazily on read and by Sweep.
package preview

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/demosite/internal/metrics"
)

// Content types understood by the resolvers wired in main.
const (
	TypeDemoSite = "demo-site"
	TypePost     = "post"
	TypeProject  = "project"
)

// DefaultTTL applies when NewService gets ttl <= 0.
const DefaultTTL = 30 * time.Minute

const tokenBytes = 32

var (
	// ErrNotFound covers unknown tokens and tokens whose target is gone.
	ErrNotFound = errors.New("preview not found")
	// ErrExpired is returned for tokens past their expiry.
	ErrExpired = errors.New("preview expired")
	// ErrInvalid rejects an Issue call with neither id nor data, or an
	// unregistered content type.
	ErrInvalid = errors.New("invalid preview request")
)

// Token is one preview_tokens row.
type Token struct {
	Token       string    `db:"token"`
	ContentType string    `db:"content_type"`
	ContentID   *string   `db:"content_id"`
	ContentData []byte    `db:"content_data"`
	ExpiresAt   time.Time `db:"expires_at"`
	CreatedAt   time.Time `db:"created_at"`
}

// Resolved is what a token renders.  Exactly one of Record and Data is
// set: Record for persisted content, Data for an inline draft.
type Resolved struct {
	ContentType string
	ContentID   string
	Record      any
	Data        json.RawMessage
}

// Inline reports whether the payload is a draft carried by the token.
func (r Resolved) Inline() bool { return r.Record == nil }

// TokenStore persists tokens.  SQLStore is the production implementation.
type TokenStore interface {
	Insert(ctx context.Context, t Token) error
	Get(ctx context.Context, token string) (Token, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Resolver loads a persisted record by id.  It must return an error
// matching ErrNotFound (via errors.Is) when the record does not exist.
type Resolver func(ctx context.Context, id string) (any, error)

// Service issues and resolves tokens.
type Service struct {
	store     TokenStore
	ttl       time.Duration
	resolvers map[string]Resolver
	now       func() time.Time
	random    func([]byte) (int, error)
}

// NewService returns a Service storing tokens in store.
func NewService(store TokenStore, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		store:     store,
		ttl:       ttl,
		resolvers: make(map[string]Resolver),
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		random:    rand.Read,
	}
}

// Register installs the resolver for contentType.  Call during startup.
func (s *Service) Register(contentType string, r Resolver) {
	s.resolvers[contentType] = r
}

// TTL returns the token lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }

// Issue creates a new token.  When both contentID and data are supplied
// the id wins and data is not stored.
func (s *Service) Issue(ctx context.Context, contentType string, contentID *string, data json.RawMessage) (string, error) {
	if _, ok := s.resolvers[contentType]; !ok {
		return "", fmt.Errorf("%w: content type %q", ErrInvalid, contentType)
	}
	if contentID != nil && *contentID == "" {
		contentID = nil
	}
	if contentID != nil {
		data = nil
	} else if len(data) == 0 || string(data) == "null" {
		return "", fmt.Errorf("%w: contentId or contentData required", ErrInvalid)
	}

	tok, err := s.newToken()
	if err != nil {
		return "", err
	}
	now := s.now()
	t := Token{
		Token:       tok,
		ContentType: contentType,
		ContentID:   contentID,
		ContentData: []byte(data),
		ExpiresAt:   now.Add(s.ttl),
		CreatedAt:   now,
	}
	if err := s.store.Insert(ctx, t); err != nil {
		return "", fmt.Errorf("insert preview token: %w", err)
	}
	metrics.PreviewIssuedTotal.WithLabelValues(contentType).Inc()
	return tok, nil
}

// Resolve returns the content behind token.
func (s *Service) Resolve(ctx context.Context, token string) (Resolved, error) {
	res, err := s.resolve(ctx, token)
	metrics.PreviewResolvedTotal.WithLabelValues(resultLabel(err)).Inc()
	return res, err
}

func (s *Service) resolve(ctx context.Context, token string) (Resolved, error) {
	t, err := s.store.Get(ctx, token)
	if err != nil {
		return Resolved{}, err
	}
	if !s.now().Before(t.ExpiresAt) {
		if err := s.store.Delete(ctx, token); err != nil {
			zap.S().Warnw("preview token delete failed", "err", err)
		}
		return Resolved{}, ErrExpired
	}

	res := Resolved{ContentType: t.ContentType}
	if t.ContentID == nil {
		res.Data = json.RawMessage(t.ContentData)
		return res, nil
	}

	r, ok := s.resolvers[t.ContentType]
	if !ok {
		return Resolved{}, ErrNotFound
	}
	rec, err := r(ctx, *t.ContentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Resolved{}, ErrNotFound
		}
		return Resolved{}, fmt.Errorf("resolve %s %s: %w", t.ContentType, *t.ContentID, err)
	}
	res.ContentID = *t.ContentID
	res.Record = rec
	return res, nil
}

// Sweep deletes every expired token.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	metrics.PreviewSweptTotal.Add(float64(n))
	return n, nil
}

// RunSweeper calls Sweep every interval until ctx is cancelled.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				zap.S().Errorw("preview sweep failed", "err", err)
				continue
			}
			if n > 0 {
				zap.S().Debugw("preview tokens swept", "count", n)
			}
		}
	}
}

func (s *Service) newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := s.random(b); err != nil {
		return "", fmt.Errorf("preview token entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
