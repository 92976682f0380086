// internal/store/redis_test.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	commonerrors "jtracker-hub/internal/common/errors"
	"jtracker-hub/internal/common/logger"
	"jtracker-hub/internal/models"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_KeyLayout(t *testing.T) {
	mr, client := setupRedis(t)
	s := NewRedisStore(client, "jtracker", 3, logger.NewNoOpLogger())

	require.NoError(t, SetAs(context.Background(), s, models.KeyURLs, []string{"a"}))

	raw, err := mr.Get("{jtracker}:urls")
	require.NoError(t, err)
	assert.JSONEq(t, `["a"]`, raw)
}

func TestRedisStore_KeysShareOneHashTag(t *testing.T) {
	for _, prefix := range []string{"jtracker", ""} {
		s := NewRedisStore(nil, prefix, 3, logger.NewNoOpLogger())
		for _, k := range models.AllKeys {
			key := s.redisKey(k)
			assert.Equal(t, "{jtracker}:"+string(k), key, "prefix %q", prefix)
		}
	}
}

func TestRedisStore_SeesWritesFromOtherProcesses(t *testing.T) {
	mr, client := setupRedis(t)
	s := NewRedisStore(client, "jtracker", 3, logger.NewNoOpLogger())

	require.NoError(t, mr.Set("{jtracker}:currentTabs", `[{"id":5,"toggleIsEnabled":true,"toggleIsOn":false}]`))

	tabs, ok, err := GetAs[[]models.CurrentTab](context.Background(), s, models.KeyCurrentTabs)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []models.CurrentTab{{ID: 5, ToggleIsEnabled: true}}, tabs)
}

func TestRedisStore_CrossProcessUpdatesRetryOnConflict(t *testing.T) {
	mr, _ := setupRedis(t)
	ctx := context.Background()

	// Two stores with independent in-process locks share one server, so only
	// WATCH protects the read-modify-write between them.
	clientA := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	clientB := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { clientA.Close(); clientB.Close() })

	a := NewRedisStore(clientA, "jtracker", 1000, logger.NewNoOpLogger())
	b := NewRedisStore(clientB, "jtracker", 1000, logger.NewNoOpLogger())
	require.NoError(t, SetAs(ctx, a, models.KeyURLs, []string{}))

	const perStore = 25
	var wg sync.WaitGroup
	for _, s := range []Store{a, b} {
		wg.Add(1)
		go func(s Store) {
			defer wg.Done()
			for i := 0; i < perStore; i++ {
				err := UpdateAs(ctx, s, models.KeyURLs, func(urls []string) ([]string, error) {
					return append(urls, "u"), nil
				})
				assert.NoError(t, err)
			}
		}(s)
	}
	wg.Wait()

	urls, _, err := GetAs[[]string](ctx, a, models.KeyURLs)
	require.NoError(t, err)
	assert.Len(t, urls, 2*perStore)
}

func TestRedisStore_GetError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db, "jtracker", 3, logger.NewNoOpLogger())

	mock.ExpectMGet("{jtracker}:applications").SetErr(errors.New("connection refused"))

	_, err := s.Get(context.Background(), models.KeyApplications)
	require.Error(t, err)
	assert.True(t, commonerrors.HasCode(err, commonerrors.ErrCodeStoreReadFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_GetPartial(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db, "jtracker", 3, logger.NewNoOpLogger())

	mock.ExpectMGet("{jtracker}:applications", "{jtracker}:urls").SetVal([]interface{}{"[]", nil})

	values, err := s.Get(context.Background(), models.KeyApplications, models.KeyURLs)
	require.NoError(t, err)
	assert.Equal(t, Values{models.KeyApplications: json.RawMessage(`[]`)}, values)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_PingError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db, "jtracker", 3, logger.NewNoOpLogger())

	mock.ExpectPing().SetErr(errors.New("down"))

	assert.Error(t, s.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_UpdateReadFailure(t *testing.T) {
	mr, client := setupRedis(t)
	s := NewRedisStore(client, "jtracker", 3, logger.NewNoOpLogger())
	mr.Close()

	err := s.Update(context.Background(), models.KeyURLs, func(old json.RawMessage) (json.RawMessage, error) {
		return old, nil
	})
	require.Error(t, err)
	assert.True(t,
		commonerrors.HasCode(err, commonerrors.ErrCodeStoreReadFailed) ||
			commonerrors.HasCode(err, commonerrors.ErrCodeStoreWriteFailed),
		"got %v", err)
}
