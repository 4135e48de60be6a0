package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sweetshooter/study-progress-tracker/internal/adapters/gateway"
	"github.com/sweetshooter/study-progress-tracker/internal/app"
	"github.com/sweetshooter/study-progress-tracker/internal/domain/catalog"
	"github.com/sweetshooter/study-progress-tracker/internal/domain/progress"
	"github.com/sweetshooter/study-progress-tracker/pkg/logger"
	"github.com/sweetshooter/study-progress-tracker/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]catalog.Subject{
		{ID: "os", Name: "OS", TotalUnits: 58},
		{ID: "algo", Name: "Algorithms", TotalUnits: 16},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat
}

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2025, 8, 28, 14, 30, 0, 0, time.UTC)
	}
}

func startService(t *testing.T, store *gateway.Memory) *app.Service {
	t.Helper()
	svc := app.New(
		app.WithGateway(store),
		app.WithCatalog(testCatalog(t)),
		app.WithClock(fixedClock()),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestLoginNewUser(t *testing.T) {
	Convey("Given a started service with an empty roster", t, func() {
		ctx := context.Background()
		store := gateway.NewMemory()
		svc := startService(t, store)

		Convey("When a new nickname logs in", func() {
			err := svc.Login(ctx, "  Amy  ")

			Convey("Then the trimmed user joins the roster and the session", func() {
				So(err, ShouldBeNil)
				snap := svc.Snapshot()
				So(snap.CurrentUser, ShouldEqual, "Amy")
				So(len(snap.Roster), ShouldEqual, 1)
				So(snap.Roster[0].Name, ShouldEqual, "Amy")
			})

			Convey("And every subject starts at zero with a timestamp", func() {
				snap := svc.Snapshot()
				So(snap.Roster[0].Progress["os"], ShouldEqual, 0)
				So(snap.Roster[0].Progress["algo"], ShouldEqual, 0)
				So(snap.Roster[0].LastUpdated, ShouldEqual, "2025/08/28 14:30")
			})

			Convey("And the remote store holds the document", func() {
				So(store.Len(), ShouldEqual, 1)
				rec, ok := store.Get("Amy")
				So(ok, ShouldBeTrue)
				So(rec.Progress["os"], ShouldEqual, 0)
			})
		})

		Convey("When the remote create fails", func() {
			broken := gateway.NewMemory(gateway.WithCreateError(errors.New("permission denied")))
			svcBroken := startService(t, broken)
			err := svcBroken.Login(ctx, "Amy")

			Convey("Then no local state changes and the session stays logged out", func() {
				So(errors.Is(err, app.ErrRemoteWrite), ShouldBeTrue)
				snap := svcBroken.Snapshot()
				So(len(snap.Roster), ShouldEqual, 0)
				So(snap.CurrentUser, ShouldEqual, "")
			})
		})

		Convey("When the nickname trims to empty", func() {
			err := svc.Login(ctx, "   ")

			Convey("Then login is refused", func() {
				So(errors.Is(err, app.ErrEmptyNickname), ShouldBeTrue)
				So(svc.Snapshot().CurrentUser, ShouldEqual, "")
			})
		})
	})
}

func TestLoginExistingUser(t *testing.T) {
	Convey("Given a roster seeded with Amy", t, func() {
		ctx := context.Background()
		// Create is rigged to fail: an existing-nickname login must never
		// reach the remote store.
		store := gateway.NewMemory(
			gateway.WithSeed(progress.Record{
				Name:        "Amy",
				Progress:    map[string]int{"os": 29},
				LastUpdated: "2025/08/01 09:00",
			}),
			gateway.WithCreateError(errors.New("create must not be called")),
		)
		svc := startService(t, store)

		Convey("When Amy logs in again", func() {
			err := svc.Login(ctx, "Amy")

			Convey("Then login is purely local and the roster size is unchanged", func() {
				So(err, ShouldBeNil)
				snap := svc.Snapshot()
				So(snap.CurrentUser, ShouldEqual, "Amy")
				So(len(snap.Roster), ShouldEqual, 1)
				So(snap.Roster[0].Progress["os"], ShouldEqual, 29)
			})
		})

		Convey("When a different-cased nickname logs in", func() {
			err := svc.Login(ctx, "amy")

			Convey("Then it is a distinct user (names are case-sensitive)", func() {
				// The rigged create error surfaces, proving the new-user path ran.
				So(errors.Is(err, app.ErrRemoteWrite), ShouldBeTrue)
			})
		})
	})
}

func TestLogout(t *testing.T) {
	Convey("Given a logged-in user", t, func() {
		ctx := context.Background()
		svc := startService(t, gateway.NewMemory())
		So(svc.Login(ctx, "Amy"), ShouldBeNil)

		Convey("When logging out", func() {
			svc.Logout()

			Convey("Then the session clears but the roster keeps the record", func() {
				snap := svc.Snapshot()
				So(snap.CurrentUser, ShouldEqual, "")
				So(len(snap.Roster), ShouldEqual, 1)
			})
		})

		Convey("And logging out twice is harmless", func() {
			svc.Logout()
			So(svc.Logout, ShouldNotPanic)
		})
	})
}

func TestDeleteAccount(t *testing.T) {
	Convey("Given a logged-in user Amy", t, func() {
		ctx := context.Background()

		Convey("When the remote delete succeeds", func() {
			store := gateway.NewMemory()
			svc := startService(t, store)
			So(svc.Login(ctx, "Amy"), ShouldBeNil)

			err := svc.DeleteAccount(ctx)

			Convey("Then the record and session are gone locally and remotely", func() {
				So(err, ShouldBeNil)
				snap := svc.Snapshot()
				So(len(snap.Roster), ShouldEqual, 0)
				So(snap.CurrentUser, ShouldEqual, "")
				So(store.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the remote delete fails", func() {
			store := gateway.NewMemory(gateway.WithDeleteError(errors.New("quota exceeded")))
			svc := startService(t, store)
			So(svc.Login(ctx, "Amy"), ShouldBeNil)

			err := svc.DeleteAccount(ctx)

			Convey("Then local state is left exactly as it was", func() {
				So(errors.Is(err, app.ErrRemoteWrite), ShouldBeTrue)
				snap := svc.Snapshot()
				So(len(snap.Roster), ShouldEqual, 1)
				So(snap.Roster[0].Name, ShouldEqual, "Amy")
				So(snap.CurrentUser, ShouldEqual, "Amy")
			})
		})

		Convey("When nobody is logged in", func() {
			svc := startService(t, gateway.NewMemory())

			Convey("Then delete reports ErrNoSession", func() {
				So(errors.Is(svc.DeleteAccount(ctx), app.ErrNoSession), ShouldBeTrue)
			})
		})
	})
}

func TestUpdateProgress(t *testing.T) {
	Convey("Given a logged-in user Amy", t, func() {
		ctx := context.Background()
		store := gateway.NewMemory()
		svc := startService(t, store)
		So(svc.Login(ctx, "Amy"), ShouldBeNil)

		Convey("When updating within range", func() {
			err := svc.UpdateProgress(ctx, "os", 29)

			Convey("Then local and remote agree", func() {
				So(err, ShouldBeNil)
				snap := svc.Snapshot()
				So(snap.Roster[0].Progress["os"], ShouldEqual, 29)
				remote, _ := store.Get("Amy")
				So(remote.Progress["os"], ShouldEqual, 29)
				So(svc.PercentFor("os"), ShouldEqual, 50)
				So(svc.WatchedFor("os"), ShouldEqual, 29)
			})
		})

		Convey("When updating far above the subject total", func() {
			So(svc.UpdateProgress(ctx, "os", 1000), ShouldBeNil)

			Convey("Then the stored value clamps to the total", func() {
				So(svc.Snapshot().Roster[0].Progress["os"], ShouldEqual, 58)
				remote, _ := store.Get("Amy")
				So(remote.Progress["os"], ShouldEqual, 58)
				So(svc.WatchedFor("os"), ShouldEqual, 58)
			})
		})

		Convey("When updating below zero", func() {
			So(svc.UpdateProgress(ctx, "os", -5), ShouldBeNil)

			Convey("Then the stored value clamps to zero", func() {
				So(svc.Snapshot().Roster[0].Progress["os"], ShouldEqual, 0)
			})
		})

		Convey("When the subject is unknown", func() {
			err := svc.UpdateProgress(ctx, "chemistry", 3)

			Convey("Then the catalog lookup error surfaces and nothing changes", func() {
				So(errors.Is(err, catalog.ErrNotFound), ShouldBeTrue)
				_, stray := svc.Snapshot().Roster[0].Progress["chemistry"]
				So(stray, ShouldBeFalse)
			})
		})

		Convey("The range invariant holds after any sequence of raw inputs", func() {
			for _, raw := range []int{5, -100, 999, 58, 0, 57, -1} {
				So(svc.UpdateProgress(ctx, "os", raw), ShouldBeNil)
				v := svc.Snapshot().Roster[0].Progress["os"]
				So(v, ShouldBeGreaterThanOrEqualTo, 0)
				So(v, ShouldBeLessThanOrEqualTo, 58)
			}
		})
	})

	Convey("Given a remote store that rejects field writes", t, func() {
		ctx := context.Background()
		store := gateway.NewMemory(gateway.WithUpdateError(errors.New("deadline exceeded")))
		svc := startService(t, store)
		So(svc.Login(ctx, "Amy"), ShouldBeNil)

		Convey("When updating progress", func() {
			err := svc.UpdateProgress(ctx, "os", 29)

			Convey("Then the failure is reported but the local value is kept", func() {
				So(errors.Is(err, app.ErrRemoteWrite), ShouldBeTrue)
				So(svc.Snapshot().Roster[0].Progress["os"], ShouldEqual, 29)
			})
		})
	})

	Convey("Given nobody is logged in", t, func() {
		svc := startService(t, gateway.NewMemory())

		Convey("Then updates report ErrNoSession", func() {
			err := svc.UpdateProgress(context.Background(), "os", 3)
			So(errors.Is(err, app.ErrNoSession), ShouldBeTrue)
		})
	})

	Convey("Given a service that was never started", t, func() {
		svc := app.New(
			app.WithGateway(gateway.NewMemory()),
			app.WithLogger(logger.Get()),
		)

		Convey("Then updates are refused instead of reaching the write queue", func() {
			err := svc.UpdateProgress(context.Background(), "os", 3)
			So(errors.Is(err, app.ErrNotStarted), ShouldBeTrue)
		})
	})
}

func TestRefresh(t *testing.T) {
	Convey("Given a remote store with raw documents", t, func() {
		ctx := context.Background()
		store := gateway.NewMemory(gateway.WithSeed(
			progress.Record{Name: "Amy", Progress: map[string]int{"os": 12, "ghost": 9}},
			progress.Record{Name: "Bob", Progress: nil},
		))
		svc := startService(t, store)

		Convey("Then the startup refresh normalized every record", func() {
			snap := svc.Snapshot()
			So(len(snap.Roster), ShouldEqual, 2)
			So(snap.Roster[0].Name, ShouldEqual, "Amy")
			So(snap.Roster[0].Progress["os"], ShouldEqual, 12)
			So(snap.Roster[0].Progress["algo"], ShouldEqual, 0)
			_, stray := snap.Roster[0].Progress["ghost"]
			So(stray, ShouldBeFalse)
			So(snap.Roster[1].Progress["os"], ShouldEqual, 0)
		})

		Convey("When the store is unreachable at startup", func() {
			broken := gateway.NewMemory(gateway.WithListError(errors.New("network unreachable")))
			svcBroken := app.New(
				app.WithGateway(broken),
				app.WithCatalog(testCatalog(t)),
			)
			err := svcBroken.Start(ctx)
			defer svcBroken.Stop()

			Convey("Then Start surfaces ErrRemoteRead and serves an empty roster", func() {
				So(errors.Is(err, app.ErrRemoteRead), ShouldBeTrue)
				So(len(svcBroken.Snapshot().Roster), ShouldEqual, 0)
			})
		})

		Convey("When the logged-in user's document vanished remotely", func() {
			So(svc.Login(ctx, "Amy"), ShouldBeNil)
			So(store.Delete(ctx, "Amy"), ShouldBeNil)
			So(svc.Refresh(ctx), ShouldBeNil)

			Convey("Then the session clears rather than dangle", func() {
				snap := svc.Snapshot()
				So(snap.CurrentUser, ShouldEqual, "")
				So(len(snap.Roster), ShouldEqual, 1)
			})
		})
	})
}

func TestSnapshotIsolation(t *testing.T) {
	Convey("Given a roster with one user", t, func() {
		ctx := context.Background()
		svc := startService(t, gateway.NewMemory())
		So(svc.Login(ctx, "Amy"), ShouldBeNil)

		Convey("When a snapshot copy is mutated", func() {
			snap := svc.Snapshot()
			snap.Roster[0].Progress["os"] = 999

			Convey("Then the service state is unaffected", func() {
				So(svc.Snapshot().Roster[0].Progress["os"], ShouldEqual, 0)
			})
		})
	})
}

func TestCharts(t *testing.T) {
	Convey("Given two users with progress", t, func() {
		ctx := context.Background()
		svc := startService(t, gateway.NewMemory())
		So(svc.Login(ctx, "Bob"), ShouldBeNil)
		So(svc.UpdateProgress(ctx, "os", 10), ShouldBeNil)
		svc.Logout()
		So(svc.Login(ctx, "Amy"), ShouldBeNil)
		So(svc.UpdateProgress(ctx, "os", 29), ShouldBeNil)

		Convey("When projecting chart data", func() {
			data := svc.Charts()

			Convey("Then all three series cover the roster", func() {
				So(len(data.Bars), ShouldEqual, 2)
				So(data.Bars[0].Watched["Amy"], ShouldEqual, 29)
				So(data.Bars[0].Watched["Bob"], ShouldEqual, 10)
				So(len(data.Pies), ShouldEqual, 2)
				So(data.Pies[0].Name, ShouldEqual, "Amy")
				So(len(data.Overviews), ShouldEqual, 2)
				// Amy: 29 of 74 -> 39%
				So(data.Overviews[0].TotalPercent, ShouldEqual, 39)
			})
		})
	})
}

func TestGetStats(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := startService(t, gateway.NewMemory())

		Convey("Then stats reflect the empty state", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["rosterSize"], ShouldEqual, 0)
			So(stats["sessionActive"], ShouldEqual, false)
		})

		Convey("And a login shows up in the stats", func() {
			So(svc.Login(ctx, "Amy"), ShouldBeNil)
			stats := svc.GetStats()
			So(stats["rosterSize"], ShouldEqual, 1)
			So(stats["sessionActive"], ShouldEqual, true)
			So(stats["currentUser"], ShouldEqual, "Amy")
		})

		Convey("And reading the stats refreshes the Prometheus gauges", func() {
			So(svc.Login(ctx, "Amy"), ShouldBeNil)
			_ = svc.GetStats()
			So(gaugeValue(t, "tracker_progress_roster_size"), ShouldEqual, 1)
			So(gaugeValue(t, "tracker_progress_session_active"), ShouldEqual, 1)
			So(gaugeValue(t, "tracker_progress_write_queue_size"), ShouldEqual, 0)
		})
	})
}

// gaugeValue reads one gauge from the shared registry.
func gaugeValue(t *testing.T, name string) float64 {
	t.Helper()
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() == name {
			return fam.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("gauge %s not registered", name)
	return 0
}
