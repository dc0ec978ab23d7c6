package emitter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/WGlynn/divvy/internal/domain/model"
	"github.com/WGlynn/divvy/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// capturedCreate records what the fake engine saw; the handler runs on the
// server goroutine, so it only captures and the test goroutine asserts.
type capturedCreate struct {
	path    string
	account string
	req     createGameRequest
}

func TestTick(t *testing.T) {
	ctx := context.Background()

	Convey("Given an emitter pointed at a fake engine", t, func() {
		var received []capturedCreate
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req createGameRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			received = append(received, capturedCreate{
				path:    r.URL.Path,
				account: r.Header.Get("X-Account"),
				req:     req,
			})
			w.WriteHeader(http.StatusCreated)
		}))
		Reset(server.Close)

		e := New(
			WithTarget(server.URL),
			WithOperator("op-1"),
			WithMint(1_000_000),
			WithDrainBounds(1000, 1000), // always drain exactly 10%
		)

		Convey("When one tick fires", func() {
			e.tick(ctx)

			Convey("Then one time-neutral game is created from the pool", func() {
				So(received, ShouldHaveLength, 1)
				So(received[0].path, ShouldEqual, "/games")
				So(received[0].account, ShouldEqual, "op-1")

				req := received[0].req
				So(req.Track, ShouldEqual, model.TrackTimeNeutral.String())
				So(req.GameID, ShouldNotBeEmpty)
				So(req.Asset, ShouldEqual, "VIBE")
				So(req.TotalValue, ShouldEqual, 100_000)
			})

			Convey("And the pool is debited by the drained amount", func() {
				So(e.pool, ShouldEqual, 900_000)
			})

			Convey("And the participants carry in-range signals", func() {
				So(received, ShouldHaveLength, 1)
				for _, p := range received[0].req.Participants {
					So(p.Account, ShouldNotBeEmpty)
					So(p.Direct, ShouldBeGreaterThan, 0)
					So(p.ScarcityBPS, ShouldBeLessThanOrEqualTo, 10_000)
					So(p.StabilityBPS, ShouldBeLessThanOrEqualTo, 10_000)
				}
			})
		})

		Convey("When two ticks fire the game ids differ", func() {
			e.tick(ctx)
			e.tick(ctx)

			So(received, ShouldHaveLength, 2)
			So(received[0].req.GameID, ShouldNotEqual, received[1].req.GameID)
		})
	})

	Convey("Given an engine that rejects game creation", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		Reset(server.Close)

		e := New(WithTarget(server.URL), WithDrainBounds(1000, 1000))

		Convey("When a tick fires the pool is not debited", func() {
			e.tick(ctx)
			So(e.pool, ShouldEqual, defaultMint)
		})
	})
}

func TestCreateGameErrors(t *testing.T) {
	ctx := context.Background()

	Convey("Given a rejecting engine", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusConflict)
		}))
		Reset(server.Close)

		e := New(WithTarget(server.URL))

		Convey("When creating a game the rejection surfaces as an error", func() {
			err := e.createGame(ctx, "game-1", 1000)
			So(err, ShouldWrap, ErrCreateRejected)
		})
	})
}
