package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/pitchmech/internal/adapters/repository"
	"github.com/okian/pitchmech/internal/domain/fatigue"
	"github.com/okian/pitchmech/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func f64(v float64) *float64 { return &v }

func TestMemoryResults(t *testing.T) {
	ctx := context.Background()

	Convey("Given a result store with capacity 2", t, func() {
		store := repository.NewMemoryResults(repository.WithCapacity(2))

		Convey("When a result is stored", func() {
			So(store.Put(ctx, model.ClipResult{ClipID: "a", Status: model.StatusPending}), ShouldBeNil)

			Convey("Then it can be read back", func() {
				r, err := store.Get(ctx, "a")
				So(err, ShouldBeNil)
				So(r.Status, ShouldEqual, model.StatusPending)
				So(store.Count(ctx), ShouldEqual, 1)
			})

			Convey("Then replacing it updates the status in place", func() {
				So(store.Put(ctx, model.ClipResult{ClipID: "a", Status: model.StatusScored}), ShouldBeNil)
				r, _ := store.Get(ctx, "a")
				So(r.Status, ShouldEqual, model.StatusScored)
				So(store.Count(ctx), ShouldEqual, 1)
			})
		})

		Convey("When the capacity is exceeded", func() {
			for _, id := range []string{"a", "b", "c"} {
				So(store.Put(ctx, model.ClipResult{ClipID: id}), ShouldBeNil)
			}

			Convey("Then the oldest result is evicted", func() {
				_, err := store.Get(ctx, "a")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				_, err = store.Get(ctx, "c")
				So(err, ShouldBeNil)
				So(store.Count(ctx), ShouldEqual, 2)
			})
		})

		Convey("When the clip id is empty", func() {
			err := store.Put(ctx, model.ClipResult{})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, repository.ErrInvalidID), ShouldBeTrue)
			})
		})
	})
}

func TestMemoryOutings(t *testing.T) {
	ctx := context.Background()

	Convey("Given an outing store", t, func() {
		store := repository.NewMemoryOutings()

		Convey("When the first pitch is recorded", func() {
			o, err := store.Update(ctx, " kershaw ", func(o *repository.Outing) error {
				So(o.Pitches, ShouldBeEmpty)
				o.Pitches = append(o.Pitches, fatigue.Metrics{Velocity: f64(95)})
				return nil
			})

			Convey("Then the outing exists under the normalised id", func() {
				So(err, ShouldBeNil)
				So(o.PitcherID, ShouldEqual, "KERSHAW")
				So(o.Pitches, ShouldHaveLength, 1)
				So(o.StartedAt.IsZero(), ShouldBeFalse)

				got, err := store.Get(ctx, "Kershaw")
				So(err, ShouldBeNil)
				So(got.Pitches, ShouldHaveLength, 1)
				So(store.Count(ctx), ShouldEqual, 1)
			})

			Convey("Then returned outings are copies", func() {
				o.Pitches[0].Velocity = f64(10)
				got, _ := store.Get(ctx, "KERSHAW")
				So(*got.Pitches[0].Velocity, ShouldEqual, 95)
			})
		})

		Convey("When the update function fails", func() {
			boom := errors.New("boom")
			_, err := store.Update(ctx, "wheeler", func(o *repository.Outing) error {
				o.Pitches = append(o.Pitches, fatigue.Metrics{})
				return boom
			})

			Convey("Then nothing is stored", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
				_, err := store.Get(ctx, "wheeler")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(store.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When an outing is reset", func() {
			_, err := store.Update(ctx, "cortes", func(o *repository.Outing) error {
				o.Pitches = append(o.Pitches, fatigue.Metrics{})
				return nil
			})
			So(err, ShouldBeNil)
			So(store.Reset(ctx, "cortes"), ShouldBeNil)

			Convey("Then it is gone and a new outing starts empty", func() {
				_, err := store.Get(ctx, "cortes")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(store.Count(ctx), ShouldEqual, 0)
				So(errors.Is(store.Reset(ctx, "cortes"), repository.ErrNotFound), ShouldBeTrue)

				o, err := store.Update(ctx, "cortes", func(o *repository.Outing) error {
					So(o.Pitches, ShouldBeEmpty)
					return nil
				})
				So(err, ShouldBeNil)
				So(o.Pitches, ShouldBeEmpty)
			})
		})

		Convey("When many pitches are recorded concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < 40; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, _ = store.Update(ctx, fmt.Sprintf("p%d", i%4), func(o *repository.Outing) error {
						o.Pitches = append(o.Pitches, fatigue.Metrics{Velocity: f64(float64(i))})
						time.Sleep(time.Microsecond)
						return nil
					})
				}(i)
			}
			wg.Wait()

			Convey("Then no pitch is lost", func() {
				total := 0
				for i := 0; i < 4; i++ {
					o, err := store.Get(ctx, fmt.Sprintf("p%d", i))
					So(err, ShouldBeNil)
					total += len(o.Pitches)
				}
				So(total, ShouldEqual, 40)
				So(store.Count(ctx), ShouldEqual, 4)
			})
		})
	})
}
