package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/WGlynn/divvy/internal/adapters/ledger"
	"github.com/WGlynn/divvy/internal/adapters/repository"
	app "github.com/WGlynn/divvy/internal/app"
	"github.com/WGlynn/divvy/internal/domain/fairness"
	"github.com/WGlynn/divvy/internal/domain/fixed"
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

const operator = model.AccountID("op-1")

func startEngine(ctx context.Context, opts ...app.Option) *app.Engine {
	opts = append([]app.Option{app.WithOperators([]model.AccountID{operator})}, opts...)
	engine := app.New(opts...)
	So(engine.Start(ctx), ShouldBeNil)
	return engine
}

func twoPlayerGame(id string) app.CreateGameParams {
	return app.CreateGameParams{
		ID:         id,
		TotalValue: 1000,
		Asset:      "VIBE",
		Track:      model.TrackTimeNeutral,
		Participants: []model.Participant{
			{Account: "alice", Direct: 800},
			{Account: "bob", Direct: 200},
		},
	}
}

func TestGameLifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started engine", t, func() {
		engine := startEngine(ctx)
		Reset(engine.Stop)

		Convey("When a game is created, settled and claimed", func() {
			So(engine.CreateGame(ctx, operator, twoPlayerGame("g1")), ShouldBeNil)
			So(engine.SettleGame(ctx, operator, "g1"), ShouldBeNil)

			Convey("Then shares are proportional to contribution", func() {
				alice, err := engine.Allocation(ctx, "g1", "alice")
				So(err, ShouldBeNil)
				So(alice.Weight, ShouldEqual, 320)
				So(alice.Share, ShouldEqual, 800)

				bob, err := engine.Allocation(ctx, "g1", "bob")
				So(err, ShouldBeNil)
				So(bob.Weight, ShouldEqual, 80)
				So(bob.Share, ShouldEqual, 200)
			})

			Convey("And each participant can claim exactly once", func() {
				So(engine.Claim(ctx, "alice", "g1"), ShouldBeNil)
				So(engine.Claim(ctx, "bob", "g1"), ShouldBeNil)

				balances, err := engine.Balances(ctx, "alice")
				So(err, ShouldBeNil)
				So(balances[model.AssetID("VIBE")], ShouldEqual, 800)

				So(engine.Claim(ctx, "alice", "g1"), ShouldWrap, repository.ErrAlreadyClaimed)
			})

			Convey("And settling again is refused", func() {
				So(engine.SettleGame(ctx, operator, "g1"), ShouldWrap, repository.ErrAlreadySettled)
			})

			Convey("And a non-participant cannot claim", func() {
				So(engine.Claim(ctx, "mallory", "g1"), ShouldWrap, repository.ErrUnknownParticipant)
			})
		})

		Convey("When claiming before settlement", func() {
			So(engine.CreateGame(ctx, operator, twoPlayerGame("g2")), ShouldBeNil)
			So(engine.Claim(ctx, "alice", "g2"), ShouldWrap, repository.ErrNotSettled)
		})

		Convey("When reusing a game id", func() {
			So(engine.CreateGame(ctx, operator, twoPlayerGame("g3")), ShouldBeNil)
			So(engine.CreateGame(ctx, operator, twoPlayerGame("g3")), ShouldWrap, repository.ErrDuplicateGame)
		})

		Convey("When shares do not divide evenly the remainder goes to the last participant", func() {
			params := app.CreateGameParams{
				ID:         "g4",
				TotalValue: 1000,
				Asset:      "VIBE",
				Participants: []model.Participant{
					{Account: "alice", Direct: 300},
					{Account: "bob", Direct: 300},
					{Account: "carol", Direct: 100},
				},
			}
			So(engine.CreateGame(ctx, operator, params), ShouldBeNil)
			So(engine.SettleGame(ctx, operator, "g4"), ShouldBeNil)

			var total uint64
			for _, account := range []model.AccountID{"alice", "bob", "carol"} {
				alloc, err := engine.Allocation(ctx, "g4", account)
				So(err, ShouldBeNil)
				total += alloc.Share
			}
			So(total, ShouldEqual, 1000)

			carol, err := engine.Allocation(ctx, "g4", "carol")
			So(err, ShouldBeNil)
			// 1000 * 40/280 floors to 142; carol absorbs the remainder.
			So(carol.Share, ShouldEqual, 144)
		})

		Convey("When every participant contributed nothing", func() {
			params := app.CreateGameParams{
				ID:         "g5",
				TotalValue: 1000,
				Asset:      "VIBE",
				Participants: []model.Participant{
					{Account: "alice"},
					{Account: "bob"},
				},
			}
			So(engine.CreateGame(ctx, operator, params), ShouldBeNil)
			So(engine.SettleGame(ctx, operator, "g5"), ShouldWrap, app.ErrZeroTotalWeight)

			Convey("And the game stays unsettled", func() {
				g, err := engine.Game(ctx, "g5")
				So(err, ShouldBeNil)
				So(g.Settled, ShouldBeFalse)
			})
		})

		Convey("When a zero-weight participant sits among contributors", func() {
			params := app.CreateGameParams{
				ID:         "g6",
				TotalValue: 1000,
				Asset:      "VIBE",
				Participants: []model.Participant{
					{Account: "alice", Direct: 500},
					{Account: "ghost"},
					{Account: "bob", Direct: 500},
				},
			}
			So(engine.CreateGame(ctx, operator, params), ShouldBeNil)
			So(engine.SettleGame(ctx, operator, "g6"), ShouldBeNil)

			ghost, err := engine.Allocation(ctx, "g6", "ghost")
			So(err, ShouldBeNil)
			So(ghost.Share, ShouldEqual, 0)

			Convey("And their claim succeeds without crediting anything", func() {
				So(engine.Claim(ctx, "ghost", "g6"), ShouldBeNil)
				balances, err := engine.Balances(ctx, "ghost")
				So(err, ShouldBeNil)
				So(balances, ShouldBeEmpty)
			})
		})
	})
}

func TestCreateGameValidation(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started engine", t, func() {
		engine := startEngine(ctx)
		Reset(engine.Stop)

		Convey("When the caller is not an operator", func() {
			So(engine.CreateGame(ctx, "rando", twoPlayerGame("g1")), ShouldWrap, app.ErrUnauthorized)
		})

		Convey("When the game id is missing", func() {
			params := twoPlayerGame("")
			So(engine.CreateGame(ctx, operator, params), ShouldWrap, app.ErrMissingGameID)
		})

		Convey("When the total value is zero", func() {
			params := twoPlayerGame("g1")
			params.TotalValue = 0
			So(engine.CreateGame(ctx, operator, params), ShouldWrap, app.ErrZeroValue)
		})

		Convey("When the asset is missing", func() {
			params := twoPlayerGame("g1")
			params.Asset = ""
			So(engine.CreateGame(ctx, operator, params), ShouldWrap, app.ErrMissingAsset)
		})

		Convey("When there are too few participants", func() {
			params := twoPlayerGame("g1")
			params.Participants = params.Participants[:1]
			So(engine.CreateGame(ctx, operator, params), ShouldWrap, app.ErrParticipantBounds)
		})

		Convey("When a participant appears twice", func() {
			params := twoPlayerGame("g1")
			params.Participants[1].Account = "alice"
			So(engine.CreateGame(ctx, operator, params), ShouldWrap, app.ErrDuplicateParticipant)
		})

		Convey("When a participant's score is out of range", func() {
			params := twoPlayerGame("g1")
			params.Participants[0].ScarcityBPS = 10_001
			So(engine.CreateGame(ctx, operator, params), ShouldWrap, model.ErrScoreOutOfRange)
		})
	})

	Convey("Given an engine that was never started", t, func() {
		engine := app.New(app.WithOperators([]model.AccountID{operator}))

		Convey("When submitting any operation", func() {
			So(engine.CreateGame(ctx, operator, twoPlayerGame("g1")), ShouldWrap, app.ErrNotStarted)
			_, err := engine.Game(ctx, "g1")
			So(err, ShouldWrap, app.ErrNotStarted)
		})
	})
}

func TestHalvingTracks(t *testing.T) {
	ctx := context.Background()

	Convey("Given an engine with a two-game era", t, func() {
		engine := startEngine(ctx, app.WithGamesPerEra(2), app.WithHalvingEnabled(true))
		Reset(engine.Stop)

		scheduled := func(id string, value uint64) app.CreateGameParams {
			p := twoPlayerGame(id)
			p.TotalValue = value
			p.Track = model.TrackScheduledEmission
			return p
		}

		Convey("When scheduled games fill the first era", func() {
			So(engine.CreateGame(ctx, operator, scheduled("s1", 1000)), ShouldBeNil)
			So(engine.CreateGame(ctx, operator, scheduled("s2", 1000)), ShouldBeNil)

			Convey("Then era-0 games carry full value", func() {
				g, err := engine.Game(ctx, "s1")
				So(err, ShouldBeNil)
				So(g.TotalValue, ShouldEqual, 1000)
				So(g.Era, ShouldEqual, 0)
				So(g.Multiplier, ShouldEqual, fixed.Precision)
			})

			Convey("And the next scheduled game lands in era 1 at half value", func() {
				So(engine.CreateGame(ctx, operator, scheduled("s3", 1000)), ShouldBeNil)

				g, err := engine.Game(ctx, "s3")
				So(err, ShouldBeNil)
				So(g.TotalValue, ShouldEqual, 500)
				So(g.Era, ShouldEqual, 1)
				So(g.Multiplier, ShouldEqual, fixed.Precision/2)
			})

			Convey("And the era status reflects the advanced clock", func() {
				status, err := engine.EraStatus(ctx)
				So(err, ShouldBeNil)
				So(status.Counter, ShouldEqual, 2)
				So(status.Era, ShouldEqual, 1)
				So(status.Enabled, ShouldBeTrue)
			})

			Convey("And time-neutral games never consult or advance the clock", func() {
				So(engine.CreateGame(ctx, operator, twoPlayerGame("t1")), ShouldBeNil)

				g, err := engine.Game(ctx, "t1")
				So(err, ShouldBeNil)
				So(g.TotalValue, ShouldEqual, 1000)

				status, err := engine.EraStatus(ctx)
				So(err, ShouldBeNil)
				So(status.Counter, ShouldEqual, 2)
			})

			Convey("And an already-created game keeps its value when the config changes", func() {
				So(engine.SetHalvingConfig(ctx, operator, 1000, false), ShouldBeNil)

				g, err := engine.Game(ctx, "s2")
				So(err, ShouldBeNil)
				So(g.TotalValue, ShouldEqual, 1000)
			})
		})

		Convey("When halving is disabled scheduled games store face value", func() {
			So(engine.SetHalvingConfig(ctx, operator, 2, false), ShouldBeNil)
			So(engine.CreateGame(ctx, operator, scheduled("s4", 1000)), ShouldBeNil)
			So(engine.CreateGame(ctx, operator, scheduled("s5", 1000)), ShouldBeNil)
			So(engine.CreateGame(ctx, operator, scheduled("s6", 1000)), ShouldBeNil)

			g, err := engine.Game(ctx, "s6")
			So(err, ShouldBeNil)
			So(g.TotalValue, ShouldEqual, 1000)

			Convey("And the counter stays frozen", func() {
				status, err := engine.EraStatus(ctx)
				So(err, ShouldBeNil)
				So(status.Counter, ShouldEqual, 0)
			})
		})
	})

	Convey("Given an engine whose era length is one game", t, func() {
		engine := startEngine(ctx, app.WithGamesPerEra(1), app.WithHalvingEnabled(true))
		Reset(engine.Stop)

		Convey("When emission has fully decayed scheduled creation is refused", func() {
			p := twoPlayerGame("deep")
			p.Track = model.TrackScheduledEmission
			p.TotalValue = 1 << 40 // survives halving through era 31
			// 32 scheduled games walk the clock through every live era.
			for i := 0; i < 32; i++ {
				p.ID = string(rune('a'+i/26)) + string(rune('a'+i%26))
				So(engine.CreateGame(ctx, operator, p), ShouldBeNil)
			}

			p.ID = "exhausted"
			So(engine.CreateGame(ctx, operator, p), ShouldWrap, app.ErrValueExhausted)
		})
	})
}

func TestQualityWeights(t *testing.T) {
	ctx := context.Background()

	Convey("Given an engine with quality weights enabled", t, func() {
		engine := startEngine(ctx, app.WithQualityWeightsEnabled(true))
		Reset(engine.Stop)

		Convey("When an operator sets a maximal record for one participant", func() {
			qw := model.QualityWeight{ActivityBPS: 10000, ReputationBPS: 10000, EconomicBPS: 10000}
			So(engine.SetQualityWeight(ctx, operator, "alice", qw), ShouldBeNil)

			stored, ok, err := engine.QualityWeight(ctx, "alice")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(stored.ActivityBPS, ShouldEqual, 10000)
			So(stored.UpdatedAt.IsZero(), ShouldBeFalse)

			Convey("Then their settled weight is scaled up", func() {
				So(engine.CreateGame(ctx, operator, twoPlayerGame("g1")), ShouldBeNil)
				So(engine.SettleGame(ctx, operator, "g1"), ShouldBeNil)

				alice, err := engine.Allocation(ctx, "g1", "alice")
				So(err, ShouldBeNil)
				So(alice.Weight, ShouldEqual, 480)

				bob, err := engine.Allocation(ctx, "g1", "bob")
				So(err, ShouldBeNil)
				So(bob.Weight, ShouldEqual, 80)
			})
		})

		Convey("When a non-operator sets a quality record", func() {
			qw := model.QualityWeight{ActivityBPS: 10000}
			So(engine.SetQualityWeight(ctx, "rando", "alice", qw), ShouldWrap, app.ErrUnauthorized)
		})

		Convey("When the record is out of range", func() {
			qw := model.QualityWeight{ActivityBPS: 10_001}
			So(engine.SetQualityWeight(ctx, operator, "alice", qw), ShouldWrap, model.ErrScoreOutOfRange)
		})
	})

	Convey("Given an engine with quality weights disabled", t, func() {
		engine := startEngine(ctx, app.WithQualityWeightsEnabled(false))
		Reset(engine.Stop)

		Convey("When a stored record exists it does not affect settlement", func() {
			qw := model.QualityWeight{ActivityBPS: 10000, ReputationBPS: 10000, EconomicBPS: 10000}
			So(engine.SetQualityWeight(ctx, operator, "alice", qw), ShouldBeNil)

			So(engine.CreateGame(ctx, operator, twoPlayerGame("g1")), ShouldBeNil)
			So(engine.SettleGame(ctx, operator, "g1"), ShouldBeNil)

			alice, err := engine.Allocation(ctx, "g1", "alice")
			So(err, ShouldBeNil)
			So(alice.Weight, ShouldEqual, 320)
		})
	})
}

func TestFairnessQueries(t *testing.T) {
	ctx := context.Background()

	Convey("Given two settled time-neutral games with the same roster", t, func() {
		engine := startEngine(ctx)
		Reset(engine.Stop)

		So(engine.CreateGame(ctx, operator, twoPlayerGame("g1")), ShouldBeNil)
		So(engine.SettleGame(ctx, operator, "g1"), ShouldBeNil)
		So(engine.CreateGame(ctx, operator, twoPlayerGame("g2")), ShouldBeNil)
		So(engine.SettleGame(ctx, operator, "g2"), ShouldBeNil)

		Convey("When auditing pairwise proportionality", func() {
			report, err := engine.CheckPairwise(ctx, "g1", "alice", "bob")
			So(err, ShouldBeNil)
			So(report.Fair, ShouldBeTrue)
		})

		Convey("When auditing time neutrality across the two games", func() {
			report, err := engine.CheckTimeNeutrality(ctx, "g1", "g2", "alice")
			So(err, ShouldBeNil)
			So(report.Fair, ShouldBeTrue)
		})

		Convey("When auditing an unsettled game", func() {
			So(engine.CreateGame(ctx, operator, twoPlayerGame("g3")), ShouldBeNil)
			_, err := engine.CheckPairwise(ctx, "g3", "alice", "bob")
			So(err, ShouldWrap, repository.ErrNotSettled)
		})

		Convey("When auditing a scheduled-emission game for time neutrality", func() {
			p := twoPlayerGame("s1")
			p.Track = model.TrackScheduledEmission
			So(engine.CreateGame(ctx, operator, p), ShouldBeNil)
			So(engine.SettleGame(ctx, operator, "s1"), ShouldBeNil)

			_, err := engine.CheckTimeNeutrality(ctx, "g1", "s1", "alice")
			So(err, ShouldWrap, fairness.ErrScheduledTrackAudit)
		})
	})
}

func TestAdminCommands(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started engine", t, func() {
		engine := startEngine(ctx)
		Reset(engine.Stop)

		Convey("When tightening the participant bounds", func() {
			So(engine.SetParticipantBounds(ctx, operator, 3, 5), ShouldBeNil)

			Convey("Then new games observe the bounds", func() {
				So(engine.CreateGame(ctx, operator, twoPlayerGame("g1")), ShouldWrap, app.ErrParticipantBounds)
			})
		})

		Convey("When setting inverted bounds", func() {
			So(engine.SetParticipantBounds(ctx, operator, 5, 3), ShouldWrap, app.ErrInvalidBounds)
		})

		Convey("When replacing the operator registry", func() {
			So(engine.SetOperators(ctx, operator, []model.AccountID{"op-2"}), ShouldBeNil)

			Convey("Then the old operator loses access", func() {
				So(engine.CreateGame(ctx, operator, twoPlayerGame("g1")), ShouldWrap, app.ErrUnauthorized)
				So(engine.CreateGame(ctx, "op-2", twoPlayerGame("g1")), ShouldBeNil)
			})
		})

		Convey("When emptying the operator registry", func() {
			So(engine.SetOperators(ctx, operator, nil), ShouldWrap, app.ErrNoOperators)
		})

		Convey("When a non-operator runs admin commands", func() {
			So(engine.SetHalvingConfig(ctx, "rando", 10, true), ShouldWrap, app.ErrUnauthorized)
			So(engine.SetParticipantBounds(ctx, "rando", 2, 10), ShouldWrap, app.ErrUnauthorized)
			So(engine.SetOperators(ctx, "rando", []model.AccountID{"rando"}), ShouldWrap, app.ErrUnauthorized)
		})

		Convey("When reading engine stats", func() {
			So(engine.CreateGame(ctx, operator, twoPlayerGame("g1")), ShouldBeNil)

			stats := engine.Stats(ctx)
			So(stats["started"], ShouldBeTrue)
			So(stats["games"], ShouldEqual, 1)
			So(stats["operators"], ShouldEqual, 1)
		})
	})
}

func TestStopWithCommandsInFlight(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started engine with racing submitters", t, func() {
		engine := startEngine(ctx)

		const submitters = 64
		var wg sync.WaitGroup
		errs := make([]error, submitters)
		for i := 0; i < submitters; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = engine.CreateGame(ctx, operator, twoPlayerGame(fmt.Sprintf("inflight-%d", i)))
			}(i)
		}

		Convey("When the engine stops while they race", func() {
			start := time.Now()
			engine.Stop()
			elapsed := time.Since(start)
			wg.Wait()

			Convey("Then the drain finishes without waiting out the shutdown timeout", func() {
				So(elapsed, ShouldBeLessThan, 5*time.Second)
			})

			Convey("And every submitter gets an answer", func() {
				for _, err := range errs {
					ok := err == nil ||
						errors.Is(err, app.ErrNotStarted) ||
						errors.Is(err, ledger.ErrClosed)
					So(ok, ShouldBeTrue)
				}
			})
		})
	})
}
