package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/okian/pitchmech/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("Init with defaults succeeds", func() {
			So(logger.Init(), ShouldBeNil)
			So(logger.Get(), ShouldNotBeNil)
			So(logger.Sync(), ShouldBeNil)
		})

		Convey("Unknown formats and levels are rejected", func() {
			So(logger.Init(logger.WithFormat("xml")), ShouldNotBeNil)
			So(logger.Init(logger.WithLevel("loud")), ShouldNotBeNil)
		})
	})
}

func TestLoggerJSON(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(logger.Init(logger.WithFormat("json"), logger.WithOutput(&buf), logger.WithLevel("info")), ShouldBeNil)
		ctx := context.Background()

		Convey("Fields and the caller source are emitted", func() {
			logger.Named("calc").Info(ctx, "clip scored",
				logger.String("clip_id", "c1"),
				logger.Float64("pct", 12.5),
				logger.Error(errors.New("boom")))

			var entry map[string]interface{}
			So(json.Unmarshal(buf.Bytes(), &entry), ShouldBeNil)
			So(entry["msg"], ShouldEqual, "clip scored")
			So(entry["clip_id"], ShouldEqual, "c1")
			So(entry["component"], ShouldEqual, "calc")
			So(entry["source"], ShouldContainSubstring, "logger_test.go")
		})

		Convey("Entries below the level are dropped", func() {
			logger.Get().Debug(ctx, "hidden")
			So(buf.Len(), ShouldEqual, 0)

			So(logger.SetLevelString("debug"), ShouldBeNil)
			logger.Get().Debug(ctx, "shown")
			So(buf.String(), ShouldContainSubstring, "shown")
		})
	})
}

func TestNop(t *testing.T) {
	Convey("The no-op logger accepts calls silently", t, func() {
		l := logger.Nop().Named("x")
		So(func() { l.Info(context.Background(), "ignored", logger.Int("n", 1)) }, ShouldNotPanic)
	})
}
