package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"f2f-cri/internal/session/models"
	"f2f-cri/pkg/platform/sentinel"
)

const (
	sessionKeyPrefix  = "f2f:session:"
	authCodeKeyPrefix = "f2f:authcode:"
	vendorKeyPrefix   = "f2f:vendor:"
	stateKeyPrefix    = "f2f:state:"

	// defaultRetention bounds how long a finished journey stays readable.
	defaultRetention = 30 * 24 * time.Hour

	maxTxRetries = 3
)

// RedisStore keeps each session as one JSON document plus secondary index
// keys for the authorization code and vendor session id. Per-state sorted
// sets scored by created date back ListByStates.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

type RedisOption func(*RedisStore)

// WithRetention sets the TTL applied to new session keys.
func WithRetention(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		if d > 0 {
			s.retention = d
		}
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, retention: defaultRetention}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

func authCodeKey(code string) string { return authCodeKeyPrefix + code }

func vendorKey(vendorSessionID string) string { return vendorKeyPrefix + vendorSessionID }

func stateKey(state models.State) string { return stateKeyPrefix + string(state) }

func (s *RedisStore) Create(ctx context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	created, err := s.client.SetNX(ctx, sessionKey(session.ID), data, s.retention).Result()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if !created {
		return fmt.Errorf("session %s exists: %w", session.ID, sentinel.ErrConflict)
	}

	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		s.writeIndexes(ctx, pipe, nil, session)
		return nil
	})
	if err != nil {
		return fmt.Errorf("index session: %w", err)
	}
	return nil
}

func (s *RedisStore) FindByID(ctx context.Context, id string) (*models.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find session by id: %w", err)
	}
	return decodeSession(data)
}

func (s *RedisStore) FindByAuthorizationCode(ctx context.Context, code string) (*models.Session, error) {
	return s.findByIndex(ctx, authCodeKey(code), func(sess *models.Session) bool {
		return sess.AuthorizationCode == code
	})
}

func (s *RedisStore) FindByVendorSessionID(ctx context.Context, vendorSessionID string) (*models.Session, error) {
	return s.findByIndex(ctx, vendorKey(vendorSessionID), func(sess *models.Session) bool {
		return sess.VendorSessionID == vendorSessionID
	})
}

// findByIndex resolves an index key and re-checks the session, since an
// index entry can briefly outlive the field it points at.
func (s *RedisStore) findByIndex(ctx context.Context, key string, matches func(*models.Session) bool) (*models.Session, error) {
	id, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("resolve session index: %w", err)
	}
	session, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !matches(session) {
		return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	return session, nil
}

// Execute uses WATCH on the session key. A concurrent writer aborts the
// transaction and the whole read-validate-mutate cycle is retried.
func (s *RedisStore) Execute(ctx context.Context, id string, validate ValidateFunc, mutate MutateFunc) (*models.Session, error) {
	key := sessionKey(id)
	var result *models.Session

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
			}
			return fmt.Errorf("load session: %w", err)
		}
		session, err := decodeSession(data)
		if err != nil {
			return err
		}
		before := session.Clone()

		if err := validate(session); err != nil {
			return err
		}
		mutate(session)

		updated, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, redis.KeepTTL)
			s.writeIndexes(ctx, pipe, before, session)
			return nil
		})
		if err != nil {
			return err
		}
		result = session
		return nil
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("session %s kept changing: %w", id, sentinel.ErrConflict)
}

// writeIndexes brings the secondary keys in line with after. before is nil on create.
func (s *RedisStore) writeIndexes(ctx context.Context, pipe redis.Pipeliner, before, after *models.Session) {
	var prev models.Session
	if before != nil {
		prev = *before
	}

	if prev.AuthorizationCode != after.AuthorizationCode {
		if prev.AuthorizationCode != "" {
			pipe.Del(ctx, authCodeKey(prev.AuthorizationCode))
		}
		if after.AuthorizationCode != "" {
			pipe.Set(ctx, authCodeKey(after.AuthorizationCode), after.ID, s.retention)
		}
	}
	if prev.VendorSessionID != after.VendorSessionID {
		if prev.VendorSessionID != "" {
			pipe.Del(ctx, vendorKey(prev.VendorSessionID))
		}
		if after.VendorSessionID != "" {
			pipe.Set(ctx, vendorKey(after.VendorSessionID), after.ID, s.retention)
		}
	}

	if before != nil && (prev.State != after.State || prev.ExpiryNotified != after.ExpiryNotified) {
		pipe.ZRem(ctx, stateKey(prev.State), after.ID)
	}
	if before == nil || prev.State != after.State || prev.ExpiryNotified != after.ExpiryNotified {
		if !after.ExpiryNotified {
			pipe.ZAdd(ctx, stateKey(after.State), redis.Z{Score: float64(after.CreatedDate), Member: after.ID})
		}
	}
}

func (s *RedisStore) ListByStates(ctx context.Context, states []models.State, createdBefore int64) ([]*models.Session, error) {
	var out []*models.Session
	for _, state := range states {
		ids, err := s.client.ZRangeByScore(ctx, stateKey(state), &redis.ZRangeBy{
			Min: "-inf",
			Max: strconv.FormatInt(createdBefore, 10),
		}).Result()
		if err != nil {
			return nil, fmt.Errorf("list %s sessions: %w", state, err)
		}
		if len(ids) == 0 {
			continue
		}

		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = sessionKey(id)
		}
		values, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, fmt.Errorf("load %s sessions: %w", state, err)
		}

		var gone []any
		for i, v := range values {
			raw, ok := v.(string)
			if !ok {
				// the session key expired under its retention TTL
				gone = append(gone, ids[i])
				continue
			}
			session, err := decodeSession([]byte(raw))
			if err != nil {
				return nil, err
			}
			if session.State != state || session.ExpiryNotified {
				continue
			}
			out = append(out, session)
		}
		if len(gone) > 0 {
			if err := s.client.ZRem(ctx, stateKey(state), gone...).Err(); err != nil {
				return nil, fmt.Errorf("prune %s index: %w", state, err)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedDate < out[j].CreatedDate })
	return out, nil
}

func decodeSession(data []byte) (*models.Session, error) {
	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}
