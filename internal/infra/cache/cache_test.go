package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/infra/cache"
)

func newBackend(t *testing.T) (*miniredis.Miniredis, *cache.RedisBackend) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	b := cache.NewRedisBackendFromClient(client)
	t.Cleanup(func() { _ = b.Close() })
	return mr, b
}

func countOf(n int64, calls *int32) cache.CountFunc {
	return func(ctx context.Context) (int64, error) {
		atomic.AddInt32(calls, 1)
		return n, nil
	}
}

/* ───────── RedisBackend ───────── */

func TestRedisBackend_SetGetList(t *testing.T) {
	mr, b := newBackend(t)
	ctx := context.Background()

	require.NoError(t, b.SetList(ctx, "books:genres", []string{"Drama", "Fantasy"}, time.Hour))

	got, err := b.GetList(ctx, "books:genres")
	require.NoError(t, err)
	assert.Equal(t, []string{"Drama", "Fantasy"}, got)
	assert.Equal(t, time.Hour, mr.TTL("books:genres"))

	// replaced, not appended
	require.NoError(t, b.SetList(ctx, "books:genres", []string{"Horror"}, time.Hour))
	got, err = b.GetList(ctx, "books:genres")
	require.NoError(t, err)
	assert.Equal(t, []string{"Horror"}, got)
}

func TestRedisBackend_GetList_Miss(t *testing.T) {
	_, b := newBackend(t)

	_, err := b.GetList(context.Background(), "absent")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestRedisBackend_Expiry(t *testing.T) {
	mr, b := newBackend(t)
	ctx := context.Background()

	require.NoError(t, b.SetList(ctx, "k", []string{"1"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := b.GetList(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestNewRedisBackend(t *testing.T) {
	t.Run("missing address", func(t *testing.T) {
		_, err := cache.NewRedisBackend(context.Background(), cache.RedisConfig{})
		assert.ErrorIs(t, err, cache.ErrAddrRequired)
	})

	t.Run("reachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		b, err := cache.NewRedisBackend(context.Background(), cache.RedisConfig{Addr: mr.Addr()})
		require.NoError(t, err)
		defer func() { _ = b.Close() }()
		assert.NoError(t, b.Ping(context.Background()))
	})

	t.Run("unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		_, err := cache.NewRedisBackend(context.Background(), cache.RedisConfig{Addr: addr})
		assert.Error(t, err)
	})
}

/* ───────── PageCountCache ───────── */

func TestPageCountKey(t *testing.T) {
	assert.Equal(t, "reviews:pagecount:10", cache.PageCountKey("reviews", "", 10))
	assert.Equal(t, "reviews:book=7:pagecount:20", cache.PageCountKey("reviews", "book=7", 20))
}

func TestPageCountCache_MissThenHit(t *testing.T) {
	mr, b := newBackend(t)
	c := cache.NewPageCountCache(b, cache.Options{Name: "pc-miss-hit"})
	ctx := context.Background()
	var calls int32

	pages, err := c.PageCount(ctx, "reviews", "book=1", 10, countOf(21, &calls))
	require.NoError(t, err)
	assert.Equal(t, 3, pages)

	stored, err := mr.List("reviews:book=1:pagecount:10")
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "21"}, stored)
	assert.Equal(t, cache.DefaultPageCountTTL, mr.TTL("reviews:book=1:pagecount:10"))

	pages, err = c.PageCount(ctx, "reviews", "book=1", 10, countOf(999, &calls))
	require.NoError(t, err)
	assert.Equal(t, 3, pages, "cached value is served even if the source changed")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	assert.Equal(t, 1.0, testutil.ToFloat64(cache.HitsTotal.WithLabelValues("pc-miss-hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(cache.MissesTotal.WithLabelValues("pc-miss-hit")))
}

func TestPageCountCache_KeyedByLimitAndScope(t *testing.T) {
	_, b := newBackend(t)
	c := cache.NewPageCountCache(b, cache.Options{Name: "pc-keys"})
	ctx := context.Background()
	var calls int32

	p10, err := c.PageCount(ctx, "reviews", "book=1", 10, countOf(25, &calls))
	require.NoError(t, err)
	p5, err := c.PageCount(ctx, "reviews", "book=1", 5, countOf(25, &calls))
	require.NoError(t, err)
	other, err := c.PageCount(ctx, "reviews", "book=2", 10, countOf(0, &calls))
	require.NoError(t, err)

	assert.Equal(t, 3, p10)
	assert.Equal(t, 5, p5)
	assert.Equal(t, 0, other)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestPageCountCache_ConcurrentMissesCollapse(t *testing.T) {
	_, b := newBackend(t)
	c := cache.NewPageCountCache(b, cache.Options{Name: "pc-collapse"})
	var calls int32
	release := make(chan struct{})

	count := func(ctx context.Context) (int64, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 40, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := c.PageCount(context.Background(), "reviews", "book=9", 10, count)
			assert.NoError(t, err)
			results[i] = p
		}(i)
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, p := range results {
		assert.Equal(t, 4, p)
	}
}

func TestPageCountCache_CancelledCallerDoesNotFailOthers(t *testing.T) {
	_, b := newBackend(t)
	c := cache.NewPageCountCache(b, cache.Options{Name: "pc-cancel"})
	var calls int32
	release := make(chan struct{})

	count := func(ctx context.Context) (int64, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return 25, nil
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := c.PageCount(ctxA, "reviews", "book=3", 10, count)
		errA <- err
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, time.Millisecond)

	type result struct {
		pages int
		err   error
	}
	resB := make(chan result, 1)
	go func() {
		p, err := c.PageCount(context.Background(), "reviews", "book=3", 10, count)
		resB <- result{p, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(release)
	select {
	case r := <-resB:
		require.NoError(t, r.err)
		assert.Equal(t, 3, r.pages)
	case <-time.After(time.Second):
		t.Fatal("second caller never returned")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	p, err := c.PageCount(context.Background(), "reviews", "book=3", 10, countOf(999, &calls))
	require.NoError(t, err)
	assert.Equal(t, 3, p, "shared result was cached")
}

func TestPageCountCache_CorruptEntryRecomputed(t *testing.T) {
	mr, b := newBackend(t)
	c := cache.NewPageCountCache(b, cache.Options{Name: "pc-corrupt"})
	var calls int32

	_, err := mr.Push("books:pagecount:10", "not-a-number")
	require.NoError(t, err)

	pages, err := c.PageCount(context.Background(), "books", "", 10, countOf(11, &calls))
	require.NoError(t, err)
	assert.Equal(t, 2, pages)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPageCountCache_CountError(t *testing.T) {
	_, b := newBackend(t)
	c := cache.NewPageCountCache(b, cache.Options{Name: "pc-count-err"})
	boom := errors.New("db down")

	_, err := c.PageCount(context.Background(), "reviews", "", 10, func(ctx context.Context) (int64, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestPageCountCache_FailOpen(t *testing.T) {
	mr, b := newBackend(t)
	c := cache.NewPageCountCache(b, cache.Options{Name: "pc-fail-open"})
	mr.Close()
	var calls int32

	pages, err := c.PageCount(context.Background(), "reviews", "book=1", 10, countOf(15, &calls))
	require.NoError(t, err)
	assert.Equal(t, 2, pages)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 1.0, testutil.ToFloat64(cache.ErrorsTotal.WithLabelValues("pc-fail-open", "get")))
}

func TestPageCountCache_FailClosed(t *testing.T) {
	mr, b := newBackend(t)
	c := cache.NewPageCountCache(b, cache.Options{Name: "pc-fail-closed", Policy: cache.FailClosed})
	mr.Close()
	var calls int32

	_, err := c.PageCount(context.Background(), "reviews", "book=1", 10, countOf(15, &calls))
	assert.Error(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestPageCountCache_NilBackend(t *testing.T) {
	c := cache.NewPageCountCache(nil, cache.Options{})
	var calls int32

	for i := 0; i < 2; i++ {
		pages, err := c.PageCount(context.Background(), "reviews", "", 10, countOf(10, &calls))
		require.NoError(t, err)
		assert.Equal(t, 1, pages)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

/* ───────── ListCache ───────── */

func TestListCache_Strings(t *testing.T) {
	mr, b := newBackend(t)
	c := cache.NewListCache(b, cache.Options{Name: "genres-test"})
	ctx := context.Background()
	var loads int32

	load := func(ctx context.Context) ([]string, error) {
		atomic.AddInt32(&loads, 1)
		return []string{"Fantasy", "Sci-Fi"}, nil
	}

	got, err := c.Strings(ctx, "books:genres", load)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fantasy", "Sci-Fi"}, got)
	assert.Equal(t, cache.DefaultListTTL, mr.TTL("books:genres"))

	got, err = c.Strings(ctx, "books:genres", load)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fantasy", "Sci-Fi"}, got)
	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
}

func TestListCache_EmptyNotCached(t *testing.T) {
	mr, b := newBackend(t)
	c := cache.NewListCache(b, cache.Options{Name: "genres-empty"})
	var loads int32

	load := func(ctx context.Context) ([]string, error) {
		atomic.AddInt32(&loads, 1)
		return nil, nil
	}

	for i := 0; i < 2; i++ {
		got, err := c.Strings(context.Background(), "books:genres", load)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NotNil(t, got)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&loads))
	assert.False(t, mr.Exists("books:genres"))
}

func TestListCache_FailOpen(t *testing.T) {
	mr, b := newBackend(t)
	c := cache.NewListCache(b, cache.Options{Name: "genres-down"})
	mr.Close()

	got, err := c.Strings(context.Background(), "books:genres", func(ctx context.Context) ([]string, error) {
		return []string{"Drama"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Drama"}, got)
	assert.Equal(t, 1.0, testutil.ToFloat64(cache.ErrorsTotal.WithLabelValues("genres-down", "set")))
}

func TestListCache_LoadError(t *testing.T) {
	_, b := newBackend(t)
	c := cache.NewListCache(b, cache.Options{Name: "genres-load-err"})
	boom := errors.New("query failed")

	_, err := c.Strings(context.Background(), "books:genres", func(ctx context.Context) ([]string, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestFailurePolicy_String(t *testing.T) {
	assert.Equal(t, "fail_open", cache.FailOpen.String())
	assert.Equal(t, "fail_closed", cache.FailClosed.String())
}
