// README: Location tests (recent list de-duplication, resolution).
package location

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"ridebook/internal/logger"
	"ridebook/internal/types"
)

func loc(addr string) types.Location {
	return types.Location{Address: addr, Latitude: 25.03, Longitude: 121.56}
}

func TestPushRecent(t *testing.T) {
	list := []types.Location{loc("A St"), loc("B Ave"), loc("C Rd")}

	got := pushRecent(list, loc(" b ave "), 10)
	want := []string{" b ave ", "A St", "C Rd"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i, w := range want {
		if got[i].Address != w {
			t.Errorf("position %d = %q, want %q", i, got[i].Address, w)
		}
	}

	got = pushRecent(list, loc("D Ln"), 2)
	if len(got) != 2 || got[0].Address != "D Ln" || got[1].Address != "A St" {
		t.Fatalf("limit not applied: %v", got)
	}
}

type fakeResolver struct {
	calls int
	err   error
}

func (f *fakeResolver) Resolve(ctx context.Context, address string) (types.Location, error) {
	f.calls++
	if f.err != nil {
		return types.Location{}, f.err
	}
	return loc(address), nil
}

func (f *fakeResolver) ResolvePlace(ctx context.Context, placeID string) (types.Location, error) {
	f.calls++
	l := loc("Place " + placeID)
	l.PlaceID = placeID
	return l, f.err
}

func TestResolve(t *testing.T) {
	r := &fakeResolver{}
	svc := NewService(nil, r, logger.Discard())
	ctx := context.Background()

	if got, err := svc.Resolve(ctx, loc("A St")); err != nil || got.Address != "A St" || r.calls != 0 {
		t.Fatalf("resolved input should pass through: %v %v calls=%d", got, err, r.calls)
	}
	if got, err := svc.Resolve(ctx, types.Location{PlaceID: "p1"}); err != nil || got.PlaceID != "p1" {
		t.Fatalf("place resolve: %v %v", got, err)
	}
	if _, err := svc.Resolve(ctx, types.Location{}); !errors.Is(err, ErrUnresolvable) {
		t.Fatalf("empty input: expected ErrUnresolvable, got %v", err)
	}

	r.err = errors.New("ZERO_RESULTS")
	if _, err := svc.Resolve(ctx, types.Location{Address: "nowhere"}); !errors.Is(err, ErrUnresolvable) {
		t.Fatalf("expected ErrUnresolvable, got %v", err)
	}

	if _, err := NewService(nil, nil, logger.Discard()).Resolve(ctx, types.Location{Address: "x"}); !errors.Is(err, ErrUnresolvable) {
		t.Fatalf("no resolver: expected ErrUnresolvable, got %v", err)
	}
}

func TestRecentWithoutStore(t *testing.T) {
	got, err := NewService(nil, nil, logger.Discard()).Recent(context.Background(), "u1")
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty history, got %v %v", got, err)
	}
}

func TestStore_RememberDeduplicates(t *testing.T) {
	redisAddr := os.Getenv("RIDEBOOK_TEST_REDIS_ADDR")
	if redisAddr == "" {
		t.Skip("RIDEBOOK_TEST_REDIS_ADDR not set; skipping integration test")
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	store := NewStore(rdb, 3)
	svc := NewService(store, nil, logger.Discard())
	ctx := context.Background()
	uid := fmt.Sprintf("recent_test_%d", time.Now().UnixNano())
	t.Cleanup(func() { rdb.Del(context.Background(), recentKey(uid)) })

	for _, a := range []string{"A St", "B Ave", "C Rd", "a st", "D Ln"} {
		if _, err := svc.Select(ctx, uid, loc(a)); err != nil {
			t.Fatalf("select %s: %v", a, err)
		}
	}
	got, err := svc.Recent(ctx, uid)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	want := []string{"D Ln", "a st", "C Rd"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i, w := range want {
		if got[i].Address != w {
			t.Errorf("position %d = %q, want %q", i, got[i].Address, w)
		}
	}
}

func TestStore_ConcurrentRememberKeepsEveryEntry(t *testing.T) {
	redisAddr := os.Getenv("RIDEBOOK_TEST_REDIS_ADDR")
	if redisAddr == "" {
		t.Skip("RIDEBOOK_TEST_REDIS_ADDR not set; skipping integration test")
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	store := NewStore(rdb, DefaultMax)
	ctx := context.Background()
	uid := fmt.Sprintf("recent_race_%d", time.Now().UnixNano())
	t.Cleanup(func() { rdb.Del(context.Background(), recentKey(uid)) })

	const n = 6
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- store.Remember(ctx, uid, loc(fmt.Sprintf("%d Main St", i)))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("remember: %v", err)
		}
	}

	got, err := store.Recent(ctx, uid)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != n {
		t.Fatalf("expected %d entries after concurrent selects, got %v", n, got)
	}
}
