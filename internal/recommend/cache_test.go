// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// setGeneration replaces the source data with generation g. Every id of
// generation g carries the prefix "g<g>-" and the catalog and user counts
// grow with g, so matrices from different generations never have matching
// shapes.
func setGeneration(src *memSource, g int) {
	src.update(func(m *memSource) {
		m.listings = nil
		m.implicit = nil
		m.explicit = nil
		for i := 0; i < g+3; i++ {
			m.listings = append(m.listings, ListingRecord{
				ID:    fmt.Sprintf("g%d-item%d", g, i),
				Title: fmt.Sprintf("generation %d listing %d", g, i),
			})
		}
		for u := 0; u < g+2; u++ {
			user := fmt.Sprintf("g%d-user%d", g, u)
			m.explicit = append(m.explicit, ExplicitFeedback{ActorID: user, ItemID: fmt.Sprintf("g%d-item%d", g, u%(g+3)), Rating: 5})
			m.implicit = append(m.implicit, ImplicitFeedback{ActorID: user, ItemID: fmt.Sprintf("g%d-item%d", g, (u+1)%(g+3))})
		}
		m.popular = []string{fmt.Sprintf("g%d-item0", g)}
	})
}

// checkSnapshot verifies that every part of snap comes from one build.
func checkSnapshot(snap *Snapshot) error {
	prefix := fmt.Sprintf("g%d-", snap.Version)

	n := snap.Catalog.Len()
	for _, item := range snap.Catalog.Items {
		if !strings.HasPrefix(item.ID, prefix) {
			return fmt.Errorf("version %d catalog holds %s", snap.Version, item.ID)
		}
	}
	if snap.Features.Len() != n {
		return fmt.Errorf("version %d: %d feature rows for %d items", snap.Version, snap.Features.Len(), n)
	}

	rows, cols := snap.Matrix.Values.Dims()
	if cols != n || rows != len(snap.Matrix.Users) {
		return fmt.Errorf("version %d: matrix %dx%d for %d users, %d items", snap.Version, rows, cols, len(snap.Matrix.Users), n)
	}
	for _, u := range snap.Matrix.Users {
		if !strings.HasPrefix(u, prefix) {
			return fmt.Errorf("version %d matrix holds user %s", snap.Version, u)
		}
	}
	if r, c := snap.UserSimilarity.Dims(); r != rows || c != rows {
		return fmt.Errorf("version %d: user similarity %dx%d for %d users", snap.Version, r, c, rows)
	}
	if r, c := snap.ItemSimilarity.Dims(); r != n || c != n {
		return fmt.Errorf("version %d: item similarity %dx%d for %d items", snap.Version, r, c, n)
	}
	return nil
}

// echoScorer scores every catalog item of the snapshot it is given.
type echoScorer struct{}

func (echoScorer) Name() string { return ScorerContent }

func (echoScorer) Score(_ context.Context, snap *Snapshot, _ string) (map[string]float64, error) {
	if err := checkSnapshot(snap); err != nil {
		return nil, err
	}
	out := make(map[string]float64, snap.Catalog.Len())
	for _, item := range snap.Catalog.Items {
		out[item.ID] = 1
	}
	return out, nil
}

func TestModelCache_ConcurrentReadersDuringRebuild(t *testing.T) {
	src := &memSource{}
	setGeneration(src, 1)

	e := newTestEngine(t, src, echoScorer{})
	if _, err := e.Rebuild(context.Background()); err != nil {
		t.Fatalf("initial Rebuild() error = %v", err)
	}

	const readers = 100
	const rebuilds = 8

	stop := make(chan struct{})
	var wg sync.WaitGroup

	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			for iter := 0; ; iter++ {
				select {
				case <-stop:
					return
				default:
				}

				snap := e.Cache().Current()
				if err := checkSnapshot(snap); err != nil {
					t.Errorf("reader %d: %v", r, err)
					return
				}

				user := fmt.Sprintf("g%d-user%d", snap.Version, iter%2)
				resp, err := e.Recommend(context.Background(), user)
				if err != nil {
					t.Errorf("reader %d: Recommend() error = %v", r, err)
					return
				}
				if resp.Source != SourcePersonalized {
					// The user belongs to a snapshot replaced in between.
					continue
				}
				prefix := fmt.Sprintf("g%d-", resp.ModelVersion)
				for _, rec := range resp.Recommendations {
					if !strings.HasPrefix(rec.ItemID, prefix) {
						t.Errorf("reader %d: version %d response holds %s", r, resp.ModelVersion, rec.ItemID)
						return
					}
				}
			}
		}(r)
	}

	for g := 2; g < 2+rebuilds; g++ {
		setGeneration(src, g)
		res, err := e.Rebuild(context.Background())
		if err != nil {
			t.Fatalf("Rebuild(%d) error = %v", g, err)
		}
		if res.Snapshot.Version != int64(g) {
			t.Fatalf("Rebuild(%d) published version %d", g, res.Snapshot.Version)
		}
		time.Sleep(5 * time.Millisecond)
	}

	close(stop)
	wg.Wait()

	if got := e.Cache().Current().Version; got != int64(1+rebuilds) {
		t.Errorf("final version = %d, want %d", got, 1+rebuilds)
	}
}

func TestModelCache_CoalescesConcurrentFirstBuilds(t *testing.T) {
	src := shopSource()
	src.gate = make(chan struct{})
	c := NewModelCache(DefaultConfig(), src, zerolog.Nop())

	const callers = 20
	var started, done sync.WaitGroup
	results := make([]*Snapshot, callers)

	for i := 0; i < callers; i++ {
		started.Add(1)
		done.Add(1)
		go func(i int) {
			defer done.Done()
			started.Done()
			snap, err := c.Snapshot(context.Background())
			if err != nil {
				t.Errorf("Snapshot() error = %v", err)
				return
			}
			results[i] = snap
		}(i)
	}

	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(src.gate)
	done.Wait()

	if loads := src.loads.Load(); loads != 1 {
		t.Errorf("data loaded %d times, want 1", loads)
	}
	for i, snap := range results {
		if snap != results[0] {
			t.Errorf("caller %d received a different snapshot", i)
		}
	}
}

func TestModelCache_CanceledCallerDoesNotFailSharedBuild(t *testing.T) {
	src := shopSource()
	src.gate = make(chan struct{})
	c := NewModelCache(DefaultConfig(), src, zerolog.Nop())

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.Snapshot(ctxA)
		errA <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for src.loads.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first build never started")
		}
		time.Sleep(time.Millisecond)
	}

	type result struct {
		snap *Snapshot
		err  error
	}
	resB := make(chan result, 1)
	go func() {
		snap, err := c.Snapshot(context.Background())
		resB <- result{snap, err}
	}()

	job := c.TriggerRefresh()
	jobDone := make(chan RefreshJob, 1)
	go func() {
		done, _ := c.RunPending(context.Background())
		jobDone <- done
	}()

	time.Sleep(50 * time.Millisecond)
	cancelA()

	select {
	case err := <-errA:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("canceled caller error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("canceled caller kept waiting on the build")
	}

	close(src.gate)

	b := <-resB
	if b.err != nil || b.snap == nil {
		t.Fatalf("joined caller Snapshot() = %v, %v", b.snap, b.err)
	}
	done := <-jobDone
	if done.ID != job.ID || done.State != RefreshSucceeded {
		t.Errorf("refresh job = %+v, want succeeded", done)
	}
	if !c.IsReady() {
		t.Error("IsReady() = false after the shared build finished")
	}
	if loads := src.loads.Load(); loads != 1 {
		t.Errorf("data loaded %d times, want 1", loads)
	}
}

func TestModelCache_TriggerRefreshDoesNotBlock(t *testing.T) {
	src := shopSource()
	src.gate = make(chan struct{})
	c := NewModelCache(DefaultConfig(), src, zerolog.Nop())

	first := c.TriggerRefresh()
	go c.RunPending(context.Background())

	// Wait until the job is running; a new request must get a new job
	// without waiting for the blocked build.
	deadline := time.Now().Add(2 * time.Second)
	for {
		job, _ := c.Job(first.ID)
		if job.State == RefreshRunning {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("job never started")
		}
		time.Sleep(time.Millisecond)
	}

	returned := make(chan RefreshJob, 1)
	go func() { returned <- c.TriggerRefresh() }()

	select {
	case second := <-returned:
		if second.ID == first.ID {
			t.Error("a running job must not absorb new requests")
		}
	case <-time.After(time.Second):
		t.Fatal("TriggerRefresh() blocked on a running build")
	}

	close(src.gate)
}

func TestModelCache_RecentJobsBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RecentJobs = 3
	c := NewModelCache(cfg, shopSource(), zerolog.Nop())

	var ids []string
	for i := 0; i < 6; i++ {
		job := c.TriggerRefresh()
		ids = append(ids, job.ID)
		if _, ran := c.RunPending(context.Background()); !ran {
			t.Fatal("RunPending() did not run")
		}
	}

	if _, err := c.Job(ids[0]); err == nil {
		t.Error("oldest job should have been evicted")
	}
	for _, id := range ids[3:] {
		if _, err := c.Job(id); err != nil {
			t.Errorf("Job(%s) error = %v", id, err)
		}
	}
}

type recordingObserver struct {
	mu      sync.Mutex
	results []string
}

func (r *recordingObserver) ObserveBuild(result string, _ time.Duration, _ *Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func TestModelCache_Observer(t *testing.T) {
	src := shopSource()
	obs := &recordingObserver{}
	c := NewModelCache(DefaultConfig(), src, zerolog.Nop())
	c.SetObserver(obs)

	_, _ = c.Rebuild(context.Background())
	src.update(func(m *memSource) { m.err = errStoreDown })
	_, _ = c.Rebuild(context.Background())
	src.update(func(m *memSource) { m.err = nil; m.listings = nil })
	_, _ = c.Rebuild(context.Background())

	want := []string{"success", "error", "skipped"}
	if fmt.Sprint(obs.results) != fmt.Sprint(want) {
		t.Errorf("observed %v, want %v", obs.results, want)
	}
}
