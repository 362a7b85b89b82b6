// Package storetest holds the behaviour suite every artifact store driver
// must pass.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/ssop/internal/ssop/store"
	"github.com/stretchr/testify/require"
)

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Factory builds a fresh, empty store bound to clock.
type Factory func(t *testing.T, clock *Clock) store.Store

// Run executes the full suite against the driver built by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, st store.Store, clock *Clock)
	}{
		{"UpsertFindRoundTrip", testUpsertFindRoundTrip},
		{"UpsertWithoutTTL", testUpsertWithoutTTL},
		{"UpsertKeepsCallerExpWithoutTTL", testUpsertKeepsCallerExp},
		{"UpsertOverwrites", testUpsertOverwrites},
		{"UpsertInvalidKey", testUpsertInvalidKey},
		{"PayloadIsolation", testPayloadIsolation},
		{"ExpiryBoundary", testExpiryBoundary},
		{"FindByUIDFirstInInsertionOrder", testFindByUIDOrder},
		{"FindByUIDNamespaceScoped", testFindByUIDNamespaceScoped},
		{"FindByUIDSkipsExpired", testFindByUIDSkipsExpired},
		{"FindByUserCode", testFindByUserCode},
		{"Destroy", testDestroy},
		{"ConsumeOnce", testConsumeOnce},
		{"ConsumeExpired", testConsumeExpired},
		{"ConsumeConcurrent", testConsumeConcurrent},
		{"UpsertConcurrent", testUpsertConcurrent},
		{"RevokeByGrantID", testRevokeByGrantID},
		{"Reset", testReset},
		{"DeleteExpired", testDeleteExpired},
		{"Ping", testPing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := NewClock()
			st := newStore(t, clock)
			t.Cleanup(func() { _ = st.Close() })
			tt.fn(t, st, clock)
		})
	}
}

func testUpsertFindRoundTrip(t *testing.T, st store.Store, clock *Clock) {
	ctx := context.Background()

	err := st.Upsert(ctx, store.NamespaceAuthorizationCode, "c1", store.Payload{
		"grantId":  "g1",
		"clientId": "internal-client",
		"scope":    "openid profile",
	}, 600*time.Second)
	require.NoError(t, err)

	got, err := st.Find(ctx, store.NamespaceAuthorizationCode, "c1")
	require.NoError(t, err)
	require.Equal(t, "g1", got.GrantID())
	require.Equal(t, "internal-client", got.String("clientId"))
	require.Equal(t, clock.Now().Unix()+600, got.Exp())
}

func testUpsertWithoutTTL(t *testing.T, st store.Store, clock *Clock) {
	ctx := context.Background()

	require.NoError(t, st.Upsert(ctx, store.NamespaceGrant, "g1", store.Payload{"accountId": "alice"}, 0))

	clock.Advance(365 * 24 * time.Hour)
	got, err := st.Find(ctx, store.NamespaceGrant, "g1")
	require.NoError(t, err)
	require.Zero(t, got.Exp())
}

func testUpsertKeepsCallerExp(t *testing.T, st store.Store, clock *Clock) {
	ctx := context.Background()
	exp := clock.Now().Unix() + 30

	require.NoError(t, st.Upsert(ctx, store.NamespaceSession, "s1", store.Payload{"exp": exp}, 0))

	got, err := st.Find(ctx, store.NamespaceSession, "s1")
	require.NoError(t, err)
	require.Equal(t, exp, got.Exp())

	clock.Advance(30 * time.Second)
	_, err = st.Find(ctx, store.NamespaceSession, "s1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testUpsertOverwrites(t *testing.T, st store.Store, _ *Clock) {
	ctx := context.Background()

	require.NoError(t, st.Upsert(ctx, store.NamespaceSession, "s1", store.Payload{"accountId": "alice"}, time.Hour))
	require.NoError(t, st.Upsert(ctx, store.NamespaceSession, "s1", store.Payload{"accountId": "bob"}, time.Hour))

	got, err := st.Find(ctx, store.NamespaceSession, "s1")
	require.NoError(t, err)
	require.Equal(t, "bob", got.String("accountId"))
}

func testUpsertInvalidKey(t *testing.T, st store.Store, _ *Clock) {
	ctx := context.Background()

	require.ErrorIs(t, st.Upsert(ctx, "", "id", store.Payload{}, 0), store.ErrInvalidKey)
	require.ErrorIs(t, st.Upsert(ctx, store.NamespaceGrant, "", store.Payload{}, 0), store.ErrInvalidKey)
}

func testPayloadIsolation(t *testing.T, st store.Store, _ *Clock) {
	ctx := context.Background()

	in := store.Payload{"accountId": "alice"}
	require.NoError(t, st.Upsert(ctx, store.NamespaceSession, "s1", in, time.Hour))

	_, stamped := in["exp"]
	require.False(t, stamped, "caller payload must not be modified")

	in["accountId"] = "mallory"
	got, err := st.Find(ctx, store.NamespaceSession, "s1")
	require.NoError(t, err)
	require.Equal(t, "alice", got.String("accountId"))

	got["accountId"] = "mallory"
	again, err := st.Find(ctx, store.NamespaceSession, "s1")
	require.NoError(t, err)
	require.Equal(t, "alice", again.String("accountId"))
}

func testExpiryBoundary(t *testing.T, st store.Store, clock *Clock) {
	ctx := context.Background()

	// Fractional seconds are floored.
	require.NoError(t, st.Upsert(ctx, store.NamespaceAccessToken, "t1", store.Payload{}, 10*time.Second+900*time.Millisecond))

	clock.Advance(9 * time.Second)
	_, err := st.Find(ctx, store.NamespaceAccessToken, "t1")
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = st.Find(ctx, store.NamespaceAccessToken, "t1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testFindByUIDOrder(t *testing.T, st store.Store, _ *Clock) {
	ctx := context.Background()

	require.NoError(t, st.Upsert(ctx, store.NamespaceSession, "first", store.Payload{"uid": "u1", "n": "1"}, time.Hour))
	require.NoError(t, st.Upsert(ctx, store.NamespaceSession, "second", store.Payload{"uid": "u1", "n": "2"}, time.Hour))
	// Rewriting the first key keeps its position.
	require.NoError(t, st.Upsert(ctx, store.NamespaceSession, "first", store.Payload{"uid": "u1", "n": "1b"}, time.Hour))

	got, err := st.FindByUID(ctx, store.NamespaceSession, "u1")
	require.NoError(t, err)
	require.Equal(t, "1b", got.String("n"))

	_, err = st.FindByUID(ctx, store.NamespaceSession, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.FindByUID(ctx, store.NamespaceSession, "")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testFindByUIDNamespaceScoped(t *testing.T, st store.Store, _ *Clock) {
	ctx := context.Background()

	require.NoError(t, st.Upsert(ctx, store.NamespaceInteraction, "i1", store.Payload{"uid": "u1"}, time.Hour))

	_, err := st.FindByUID(ctx, store.NamespaceSession, "u1")
	require.ErrorIs(t, err, store.ErrNotFound)

	got, err := st.FindByUID(ctx, store.NamespaceInteraction, "u1")
	require.NoError(t, err)
	require.Equal(t, "u1", got.UID())
}

func testFindByUIDSkipsExpired(t *testing.T, st store.Store, clock *Clock) {
	ctx := context.Background()

	require.NoError(t, st.Upsert(ctx, store.NamespaceSession, "old", store.Payload{"uid": "u1", "n": "old"}, 5*time.Second))
	require.NoError(t, st.Upsert(ctx, store.NamespaceSession, "new", store.Payload{"uid": "u1", "n": "new"}, time.Hour))

	clock.Advance(5 * time.Second)
	got, err := st.FindByUID(ctx, store.NamespaceSession, "u1")
	require.NoError(t, err)
	require.Equal(t, "new", got.String("n"))
}

func testFindByUserCode(t *testing.T, st store.Store, _ *Clock) {
	ctx := context.Background()

	require.NoError(t, st.Upsert(ctx, "DeviceCode", "d1", store.Payload{"userCode": "ABCD-EFGH"}, time.Hour))

	got, err := st.FindByUserCode(ctx, "DeviceCode", "ABCD-EFGH")
	require.NoError(t, err)
	require.Equal(t, "ABCD-EFGH", got.UserCode())

	_, err = st.FindByUserCode(ctx, "DeviceCode", "ZZZZ-ZZZZ")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testDestroy(t *testing.T, st store.Store, _ *Clock) {
	ctx := context.Background()

	require.NoError(t, st.Upsert(ctx, store.NamespaceSession, "s1", store.Payload{}, time.Hour))
	require.NoError(t, st.Destroy(ctx, store.NamespaceSession, "s1"))

	_, err := st.Find(ctx, store.NamespaceSession, "s1")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, st.Destroy(ctx, store.NamespaceSession, "s1"), "destroying an absent key is a no-op")
}

func testConsumeOnce(t *testing.T, st store.Store, _ *Clock) {
	ctx := context.Background()

	require.NoError(t, st.Upsert(ctx, store.NamespaceAuthorizationCode, "c1", store.Payload{}, time.Minute))

	ok, err := st.Consume(ctx, store.NamespaceAuthorizationCode, "c1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = st.Consume(ctx, store.NamespaceAuthorizationCode, "c1")
	require.NoError(t, err)
	require.False(t, ok, "second consume must report nothing removed")

	_, err = st.Find(ctx, store.NamespaceAuthorizationCode, "c1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testConsumeExpired(t *testing.T, st store.Store, clock *Clock) {
	ctx := context.Background()

	require.NoError(t, st.Upsert(ctx, store.NamespaceAuthorizationCode, "c1", store.Payload{}, time.Minute))
	clock.Advance(time.Minute)

	ok, err := st.Consume(ctx, store.NamespaceAuthorizationCode, "c1")
	require.NoError(t, err)
	require.False(t, ok)
}

func testConsumeConcurrent(t *testing.T, st store.Store, _ *Clock) {
	ctx := context.Background()
	require.NoError(t, st.Upsert(ctx, store.NamespaceRefreshToken, "r1", store.Payload{}, time.Hour))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := st.Consume(ctx, store.NamespaceRefreshToken, "r1")
			if err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), wins.Load())
}

func testUpsertConcurrent(t *testing.T, st store.Store, _ *Clock) {
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := fmt.Sprintf("w%d", i)
			_ = st.Upsert(ctx, store.NamespaceSession, "s1", store.Payload{"writer": w, "check": w}, time.Hour)
		}()
	}
	wg.Wait()

	got, err := st.Find(ctx, store.NamespaceSession, "s1")
	require.NoError(t, err)
	require.NotEmpty(t, got.String("writer"))
	require.Equal(t, got.String("writer"), got.String("check"), "record must come from a single write")

	require.NoError(t, st.Upsert(ctx, store.NamespaceSession, "s1", store.Payload{"writer": "last", "check": "last"}, time.Hour))
	got, err = st.Find(ctx, store.NamespaceSession, "s1")
	require.NoError(t, err)
	require.Equal(t, "last", got.String("writer"))
}

func testRevokeByGrantID(t *testing.T, st store.Store, _ *Clock) {
	ctx := context.Background()

	for i := range 3 {
		require.NoError(t, st.Upsert(ctx, store.NamespaceAccessToken, fmt.Sprintf("g1-%d", i), store.Payload{"grantId": "g1"}, time.Hour))
	}
	require.NoError(t, st.Upsert(ctx, store.NamespaceAccessToken, "g2-0", store.Payload{"grantId": "g2"}, time.Hour))
	require.NoError(t, st.Upsert(ctx, store.NamespaceRefreshToken, "g1-r", store.Payload{"grantId": "g1"}, time.Hour))

	n, err := st.RevokeByGrantID(ctx, store.NamespaceAccessToken, "g1")
	require.NoError(t, err)
	require.Equal(t, 3, n)

	for i := range 3 {
		_, err := st.Find(ctx, store.NamespaceAccessToken, fmt.Sprintf("g1-%d", i))
		require.ErrorIs(t, err, store.ErrNotFound)
	}

	_, err = st.Find(ctx, store.NamespaceAccessToken, "g2-0")
	require.NoError(t, err, "other grants are untouched")
	_, err = st.Find(ctx, store.NamespaceRefreshToken, "g1-r")
	require.NoError(t, err, "other namespaces are untouched")

	n, err = st.RevokeByGrantID(ctx, store.NamespaceAccessToken, "g1")
	require.NoError(t, err)
	require.Zero(t, n)
}

func testReset(t *testing.T, st store.Store, _ *Clock) {
	ctx := context.Background()

	require.NoError(t, st.Upsert(ctx, store.NamespaceSession, "s1", store.Payload{}, 0))
	require.NoError(t, st.Upsert(ctx, store.NamespaceGrant, "g1", store.Payload{}, 0))
	require.NoError(t, st.Reset(ctx))

	_, err := st.Find(ctx, store.NamespaceSession, "s1")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Find(ctx, store.NamespaceGrant, "g1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testDeleteExpired(t *testing.T, st store.Store, clock *Clock) {
	ctx := context.Background()

	require.NoError(t, st.Upsert(ctx, store.NamespaceAccessToken, "short", store.Payload{}, time.Second))
	require.NoError(t, st.Upsert(ctx, store.NamespaceAccessToken, "long", store.Payload{}, time.Hour))
	require.NoError(t, st.Upsert(ctx, store.NamespaceGrant, "forever", store.Payload{}, 0))

	n, err := st.DeleteExpired(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	clock.Advance(2 * time.Second)
	n, err = st.DeleteExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = st.Find(ctx, store.NamespaceAccessToken, "long")
	require.NoError(t, err)
	_, err = st.Find(ctx, store.NamespaceGrant, "forever")
	require.NoError(t, err)
}

func testPing(t *testing.T, st store.Store, _ *Clock) {
	require.NoError(t, st.Ping(context.Background()))
}
