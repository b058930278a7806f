package redis

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idemLock      = "LOCK"
	idemResPrefix = "RES:"
)

// IdempotencyStore remembers the response of a booking request per Idempotency-Key.
// A key is first claimed with a short lock, then overwritten with the stored response.
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewIdempotencyStore returns nil when rdb is nil; callers skip idempotency then.
func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	if rdb == nil {
		return nil
	}
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

func (s *IdempotencyStore) AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, idemLock, lockTTL).Result()
}

// StoredResult is a finished response together with the fingerprint of the request that
// produced it.
type StoredResult struct {
	Status      int
	Fingerprint string
	Body        string
}

// SaveResult stores the status code and body so a replay returns the same answer.
// fingerprint must not contain ':'.
func (s *IdempotencyStore) SaveResult(ctx context.Context, key string, res StoredResult) error {
	return s.rdb.Set(ctx, key, encodeResult(res), s.ttl).Err()
}

// GetResult returns the stored response. ok is false while the key is only locked.
func (s *IdempotencyStore) GetResult(ctx context.Context, key string) (res StoredResult, ok bool, err error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return StoredResult{}, false, nil
	}
	if err != nil {
		return StoredResult{}, false, err
	}

	res, ok = decodeResult(v)
	return res, ok, nil
}

// encodeResult lays a result out as "RES:<status>:<fingerprint>:<body>".
func encodeResult(res StoredResult) string {
	return idemResPrefix + strconv.Itoa(res.Status) + ":" + res.Fingerprint + ":" + res.Body
}

func decodeResult(v string) (StoredResult, bool) {
	rest, found := strings.CutPrefix(v, idemResPrefix)
	if !found {
		return StoredResult{}, false
	}

	code, rest, found := strings.Cut(rest, ":")
	if !found {
		return StoredResult{}, false
	}
	fp, body, found := strings.Cut(rest, ":")
	if !found {
		return StoredResult{}, false
	}

	status, err := strconv.Atoi(code)
	if err != nil {
		return StoredResult{}, false
	}

	return StoredResult{Status: status, Fingerprint: fp, Body: body}, true
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
