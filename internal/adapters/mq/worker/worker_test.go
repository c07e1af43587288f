package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/pitchmech/internal/adapters/mq/queue"
	"github.com/okian/pitchmech/internal/adapters/mq/worker"
	"github.com/okian/pitchmech/internal/domain/deviation"
	"github.com/okian/pitchmech/internal/domain/model"
	"github.com/okian/pitchmech/internal/domain/variance"
	"github.com/okian/pitchmech/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockScorer struct {
	mu     sync.Mutex
	errors map[string]error
	calls  int
}

func (m *mockScorer) Score(_ context.Context, clip model.Clip) (deviation.ClipDeviation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err, ok := m.errors[clip.ClipID]; ok {
		return deviation.ClipDeviation{Profile: clip.Key(), FramesDiscarded: len(clip.Frames)}, err
	}
	return deviation.ClipDeviation{
		Profile:          clip.Key(),
		MeanDeviationPct: 12.5,
		Category:         variance.LessThanIdeal,
		FramesUsed:       len(clip.Frames),
		Scorable:         true,
	}, nil
}

type mockResults struct {
	mu      sync.Mutex
	results map[string]model.ClipResult
	err     error
}

func newMockResults() *mockResults {
	return &mockResults{results: make(map[string]model.ClipResult)}
}

func (m *mockResults) Put(_ context.Context, r model.ClipResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.results[r.ClipID] = r
	return nil
}

func (m *mockResults) get(id string) (model.ClipResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[id]
	return r, ok
}

func (m *mockResults) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.results)
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker over a queue", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		scorer := &mockScorer{errors: map[string]error{
			"unscorable": fmt.Errorf("clip unscorable: %w", deviation.ErrUnscorableClip),
			"broken":     errors.New("profile store down"),
		}}
		results := newMockResults()
		fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
		w := worker.NewInMemoryWorker(q, scorer, results,
			worker.WithName("test-worker"),
			worker.WithLogger(logger.Nop()),
			worker.WithClock(func() time.Time { return fixed }))
		go w.Run(ctx)

		convey.Convey("When a scorable clip is processed", func() {
			q.Enqueue(ctx, model.Clip{ClipID: "ok", PitcherID: "kershaw", PitchType: "slider"})
			convey.So(waitFor(func() bool { _, ok := results.get("ok"); return ok }), convey.ShouldBeTrue)
			r, _ := results.get("ok")

			convey.Convey("Then the result is scored", func() {
				convey.So(r.Status, convey.ShouldEqual, model.StatusScored)
				convey.So(r.Deviation, convey.ShouldNotBeNil)
				convey.So(r.Deviation.MeanDeviationPct, convey.ShouldEqual, 12.5)
				convey.So(*r.CompletedAt, convey.ShouldEqual, fixed)
				convey.So(r.Error, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When a clip is unscorable", func() {
			q.Enqueue(ctx, model.Clip{ClipID: "unscorable", PitcherID: "kershaw", PitchType: "slider"})
			convey.So(waitFor(func() bool { _, ok := results.get("unscorable"); return ok }), convey.ShouldBeTrue)
			r, _ := results.get("unscorable")

			convey.Convey("Then the result keeps the frame counts", func() {
				convey.So(r.Status, convey.ShouldEqual, model.StatusUnscorable)
				convey.So(r.Deviation, convey.ShouldNotBeNil)
				convey.So(r.Deviation.Scorable, convey.ShouldBeFalse)
				convey.So(r.Error, convey.ShouldContainSubstring, "unscorable")
			})
		})

		convey.Convey("When scoring fails", func() {
			q.Enqueue(ctx, model.Clip{ClipID: "broken", PitcherID: "kershaw", PitchType: "slider"})
			convey.So(waitFor(func() bool { _, ok := results.get("broken"); return ok }), convey.ShouldBeTrue)
			r, _ := results.get("broken")

			convey.Convey("Then the result is failed without a deviation", func() {
				convey.So(r.Status, convey.ShouldEqual, model.StatusFailed)
				convey.So(r.Deviation, convey.ShouldBeNil)
				convey.So(r.Error, convey.ShouldContainSubstring, "profile store down")
			})
		})

		convey.Convey("When the worker is shut down", func() {
			err := w.Shutdown(context.Background())

			convey.Convey("Then it stops and a second shutdown is harmless", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of workers", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		scorer := &mockScorer{}
		results := newMockResults()
		pool := worker.NewPool(4, q, scorer, results, worker.WithLogger(logger.Nop()))
		pool.Start(ctx)

		convey.Convey("When clips are queued and the pool shuts down", func() {
			for i := 0; i < 50; i++ {
				convey.So(q.Enqueue(ctx, model.Clip{ClipID: fmt.Sprintf("clip-%d", i)}), convey.ShouldBeTrue)
			}
			err := pool.Shutdown(ctx)

			convey.Convey("Then every queued clip is drained first", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(pool.Size(), convey.ShouldEqual, 4)
				convey.So(results.len(), convey.ShouldEqual, 50)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the pool size is not positive", func() {
			p := worker.NewPool(0, q, scorer, results)

			convey.Convey("Then it defaults to the CPU count", func() {
				convey.So(p.Size(), convey.ShouldBeGreaterThan, 0)
			})
		})
	})
}
