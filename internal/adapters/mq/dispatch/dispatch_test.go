package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sweetshooter/study-progress-tracker/internal/adapters/mq/dispatch"
	"github.com/sweetshooter/study-progress-tracker/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// recordingWriter captures applied writes in order.
type recordingWriter struct {
	mu     sync.Mutex
	writes []dispatch.FieldWrite
	err    error
	delay  time.Duration
}

func (w *recordingWriter) UpdateField(ctx context.Context, name, subjectID string, value int, lastUpdated string) error {
	if w.delay > 0 {
		time.Sleep(w.delay)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes = append(w.writes, dispatch.FieldWrite{Name: name, SubjectID: subjectID, Value: value, LastUpdated: lastUpdated})
	return w.err
}

func (w *recordingWriter) applied() []dispatch.FieldWrite {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]dispatch.FieldWrite, len(w.writes))
	copy(out, w.writes)
	return out
}

func TestSubmit(t *testing.T) {
	Convey("Given a started dispatcher", t, func() {
		ctx := context.Background()
		writer := &recordingWriter{}
		d := dispatch.New(writer)
		d.Start(ctx)
		defer d.Close()

		Convey("When a write is submitted", func() {
			done, ok := d.Submit(ctx, dispatch.FieldWrite{Name: "amy", SubjectID: "os", Value: 29, LastUpdated: "ts"})

			Convey("Then it is accepted and confirmed", func() {
				So(ok, ShouldBeTrue)
				So(<-done, ShouldBeNil)
				applied := writer.applied()
				So(len(applied), ShouldEqual, 1)
				So(applied[0].SubjectID, ShouldEqual, "os")
				So(applied[0].Value, ShouldEqual, 29)
			})
		})

		Convey("When the writer fails", func() {
			boom := errors.New("store down")
			writer.err = boom
			done, ok := d.Submit(ctx, dispatch.FieldWrite{Name: "amy", SubjectID: "os", Value: 1})

			Convey("Then the failure is delivered on the result channel", func() {
				So(ok, ShouldBeTrue)
				So(errors.Is(<-done, boom), ShouldBeTrue)
			})
		})
	})
}

func TestSubmitOrdering(t *testing.T) {
	Convey("Given a dispatcher with a slow writer", t, func() {
		ctx := context.Background()
		writer := &recordingWriter{delay: time.Millisecond}
		d := dispatch.New(writer, dispatch.WithCapacity(16))
		d.Start(ctx)

		Convey("When several writes to the same subject are submitted rapidly", func() {
			var last <-chan error
			for v := 1; v <= 5; v++ {
				done, ok := d.Submit(ctx, dispatch.FieldWrite{Name: "amy", SubjectID: "os", Value: v})
				So(ok, ShouldBeTrue)
				last = done
			}
			<-last
			d.Close()

			Convey("Then they land in submission order", func() {
				applied := writer.applied()
				So(len(applied), ShouldEqual, 5)
				for i, w := range applied {
					So(w.Value, ShouldEqual, i+1)
				}
			})
		})
	})
}

func TestSubmitBackpressureAndClose(t *testing.T) {
	Convey("Given a dispatcher that was never started", t, func() {
		d := dispatch.New(&recordingWriter{})

		Convey("Then Submit is refused", func() {
			_, ok := d.Submit(context.Background(), dispatch.FieldWrite{Name: "amy"})
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given a closed dispatcher", t, func() {
		ctx := context.Background()
		d := dispatch.New(&recordingWriter{})
		d.Start(ctx)
		d.Close()

		Convey("Then Submit is refused", func() {
			_, ok := d.Submit(ctx, dispatch.FieldWrite{Name: "amy"})
			So(ok, ShouldBeFalse)
		})

		Convey("And closing twice is safe", func() {
			So(d.Close, ShouldNotPanic)
		})
	})
}
