// Package redis wraps an account.Repository with a cache-aside read path,
// grounded on the teacher's GetAccountRedisOrDatabase SetNX-lock pattern
// (components/ledger/internal/services/query/get-account-redis-or-database.go),
// simplified to the single-key-per-account-id lookups this domain needs.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/vertexpay/core/components/accounts/internal/domain/account"
	"github.com/vertexpay/core/pkg/mredis"
)

const (
	entryTTL = 10 * time.Minute
	lockTTL  = 5 * time.Second
)

// CachedRepository decorates an account.Repository with a read-through
// cache keyed by account id. Writes invalidate the cached entry rather than
// updating it in place, avoiding stale reads racing a concurrent writer.
type CachedRepository struct {
	account.Repository
	Conn *mredis.Connection
}

func NewCachedRepository(repo account.Repository, conn *mredis.Connection) *CachedRepository {
	return &CachedRepository{Repository: repo, Conn: conn}
}

func (r *CachedRepository) Find(ctx context.Context, organizationID, id string) (*account.Account, error) {
	client, err := r.Conn.Client(ctx)
	if err != nil {
		// Redis being unavailable degrades to a direct database read rather
		// than failing the request.
		return r.Repository.Find(ctx, organizationID, id)
	}

	key := cacheKey(id)

	cached, err := client.Get(ctx, key).Result()
	if err == nil {
		var a account.Account
		if jsonErr := json.Unmarshal([]byte(cached), &a); jsonErr == nil {
			return &a, nil
		}
	} else if !errors.Is(err, goredis.Nil) {
		return r.Repository.Find(ctx, organizationID, id)
	}

	lockKey := "lock:" + key

	acquired, lockErr := client.SetNX(ctx, lockKey, "processing", lockTTL).Result()
	if lockErr == nil && !acquired {
		// Another request is already populating this entry; fall through to
		// the database rather than busy-waiting on the lock.
		return r.Repository.Find(ctx, organizationID, id)
	}

	a, err := r.Repository.Find(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}

	if payload, marshalErr := json.Marshal(a); marshalErr == nil {
		_ = client.Set(ctx, key, payload, entryTTL).Err()
	}

	return a, nil
}

func (r *CachedRepository) Update(ctx context.Context, a *account.Account) (*account.Account, error) {
	updated, err := r.Repository.Update(ctx, a)
	if err != nil {
		return nil, err
	}

	if client, clientErr := r.Conn.Client(ctx); clientErr == nil {
		_ = client.Del(ctx, cacheKey(a.ID)).Err()
	}

	return updated, nil
}

func cacheKey(id string) string {
	return "account:" + id
}
