package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/posecoach/internal/adapters/enrich"
	"github.com/okian/posecoach/internal/adapters/replay"
	service "github.com/okian/posecoach/internal/app"
	"github.com/okian/posecoach/internal/domain/aggregate"
	"github.com/okian/posecoach/internal/domain/model"
	"github.com/okian/posecoach/internal/domain/model/modeltest"
	"github.com/okian/posecoach/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const talk = "Good morning everyone.\n\nToday we look at latency.\n\nThen we talk about cost.\n\nQuestions at the end."

type stubEnricher struct {
	text  string
	err   error
	block bool
	calls int
}

func (e *stubEnricher) Enrich(ctx context.Context, _ enrich.Summary, _ string) (string, error) {
	e.calls++
	if e.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return e.text, e.err
}

func tilted(t float64) model.Frame { return modeltest.HeadTilt(modeltest.Upright(t), 15) }

func session(frames []model.Frame) service.SessionRequest {
	return service.SessionRequest{Session: model.Session{Frames: frames}, Transcript: talk}
}

func TestAnalyzeSession(t *testing.T) {
	Convey("Given a service with default configuration", t, func() {
		svc := service.New()
		ctx := context.Background()

		Convey("an upright speaker produces no events", func() {
			a, err := svc.AnalyzeSession(ctx, session(modeltest.Series(20, 0.5, modeltest.Upright)))
			So(err, ShouldBeNil)
			So(a.Events, ShouldBeEmpty)
			So(a.ScoreReport.Advisory, ShouldBeEmpty)
			So(a.ScoreReport.Posture, ShouldEqual, 10)
			for _, tip := range a.Tips {
				So(tip.Category, ShouldNotEqual, model.CategoryHeadTilt)
			}
		})

		Convey("a sustained head tilt is debounced and ranked", func() {
			a, err := svc.AnalyzeSession(ctx, session(modeltest.Series(20, 0.5, tilted)))
			So(err, ShouldBeNil)
			So(a.Events, ShouldHaveLength, 10)
			So(a.Events[0].Category, ShouldEqual, model.CategoryHeadTilt)
			So(a.Events[1].Time-a.Events[0].Time, ShouldBeGreaterThanOrEqualTo, 1)

			var tiltTips []model.Tip
			for _, tip := range a.Tips {
				if tip.Category == model.CategoryHeadTilt {
					tiltTips = append(tiltTips, tip)
				}
			}
			So(tiltTips, ShouldHaveLength, 4)
			So(tiltTips[0].Timecode, ShouldEqual, "00:00")
			So(tiltTips[0].NearestTranscriptLine, ShouldEqual, "Good morning everyone.")
			So(a.ScoreReport.Posture, ShouldBeLessThan, 10)
		})

		Convey("frames without landmarks yield the no-data analysis", func() {
			a, err := svc.AnalyzeSession(ctx, session(modeltest.Series(20, 0.5, modeltest.Empty)))
			So(err, ShouldBeNil)
			So(a.ScoreReport.Advisory, ShouldEqual, model.AdvisoryNoData)
			So(a.ScoreReport.Overall, ShouldEqual, 0)
			So(a.Tips, ShouldBeEmpty)
			So(a.Events, ShouldBeEmpty)
		})

		Convey("a session shorter than the minimum has no data", func() {
			a, err := svc.AnalyzeSession(ctx, session(modeltest.Series(4, 0.5, tilted)))
			So(err, ShouldBeNil)
			So(a.ScoreReport.Advisory, ShouldEqual, model.AdvisoryNoData)
		})

		Convey("out-of-order frames are rejected", func() {
			frames := modeltest.Series(20, 0.5, modeltest.Upright)
			frames[5].Timestamp = 0.1
			_, err := svc.AnalyzeSession(ctx, session(frames))
			So(errors.Is(err, aggregate.ErrOutOfOrder), ShouldBeTrue)
		})

		Convey("the same input gives byte-identical output", func() {
			frames := modeltest.Series(30, 0.5, func(t float64) model.Frame {
				if int(t)%3 == 0 {
					return tilted(t)
				}
				return modeltest.MoveHands(modeltest.Upright(t), 0.01*t)
			})
			a1, err := svc.AnalyzeSession(ctx, session(frames))
			So(err, ShouldBeNil)
			a2, err := svc.AnalyzeSession(ctx, session(frames))
			So(err, ShouldBeNil)
			b1, _ := json.Marshal(a1)
			b2, _ := json.Marshal(a2)
			So(string(b1), ShouldEqual, string(b2))
		})

		Convey("a cancelled run is flagged partial", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			a, err := svc.AnalyzeSession(cctx, session(modeltest.Series(20, 0.5, modeltest.Upright)))
			So(err, ShouldBeNil)
			So(a.ScoreReport.Partial, ShouldBeTrue)
		})
	})
}

func TestEnrichment(t *testing.T) {
	Convey("Given a tilted session", t, func() {
		ctx := context.Background()
		req := session(modeltest.Series(20, 0.5, tilted))
		base, err := service.New().AnalyzeSession(ctx, req)
		So(err, ShouldBeNil)
		req.Enrich = true

		Convey("a successful enricher adds its text", func() {
			e := &stubEnricher{text: "Work on your head position."}
			a, err := service.New(service.WithEnricher(e, time.Second)).AnalyzeSession(ctx, req)
			So(err, ShouldBeNil)
			So(a.Enrichment, ShouldEqual, "Work on your head position.")
			So(a.ScoreReport, ShouldResemble, base.ScoreReport)
		})

		Convey("a timed out enricher leaves the base result unchanged", func() {
			e := &stubEnricher{block: true}
			a, err := service.New(service.WithEnricher(e, 20*time.Millisecond)).AnalyzeSession(ctx, req)
			So(err, ShouldBeNil)
			So(e.calls, ShouldEqual, 1)
			b1, _ := json.Marshal(base)
			b2, _ := json.Marshal(a)
			So(string(b2), ShouldEqual, string(b1))
		})

		Convey("a failing enricher is ignored", func() {
			e := &stubEnricher{err: errors.New("rate limited")}
			a, err := service.New(service.WithEnricher(e, time.Second)).AnalyzeSession(ctx, req)
			So(err, ShouldBeNil)
			So(a.Enrichment, ShouldBeEmpty)
		})

		Convey("no-data sessions are not enriched", func() {
			e := &stubEnricher{text: "x"}
			empty := session(modeltest.Series(20, 0.5, modeltest.Empty))
			empty.Enrich = true
			a, err := service.New(service.WithEnricher(e, time.Second)).AnalyzeSession(ctx, empty)
			So(err, ShouldBeNil)
			So(e.calls, ShouldEqual, 0)
			So(a.Enrichment, ShouldBeEmpty)
		})
	})
}

func TestAnalyzeMedia(t *testing.T) {
	Convey("Given a recorded session replayed through the sampler", t, func() {
		rec := replay.FromFrames(10, talk, modeltest.Series(21, 0.5, tilted))
		svc := service.New()

		Convey("seekable media is analysed end to end", func() {
			a, err := svc.Analyze(context.Background(), service.MediaRequest{
				Media:      replay.NewMedia(rec),
				Estimator:  replay.NewEstimator(rec, 0),
				Transcript: rec.Transcript,
			})
			So(err, ShouldBeNil)
			So(a.Events, ShouldNotBeEmpty)
			So(a.ScoreReport.Partial, ShouldBeFalse)
		})

		Convey("media shorter than the minimum has no data", func() {
			short := replay.FromFrames(2, "", modeltest.Series(5, 0.5, tilted))
			a, err := svc.Analyze(context.Background(), service.MediaRequest{
				Media:     replay.NewMedia(short),
				Estimator: replay.NewEstimator(short, 0),
			})
			So(err, ShouldBeNil)
			So(a.ScoreReport.Advisory, ShouldEqual, model.AdvisoryNoData)
		})

		Convey("missing collaborators fail", func() {
			_, err := svc.Analyze(context.Background(), service.MediaRequest{})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestLiveSession(t *testing.T) {
	Convey("Given a live session", t, func() {
		svc := service.New()
		live := svc.NewLiveSession(talk)
		So(svc.GetStats()["liveSessions"], ShouldEqual, int64(1))

		var fired int
		for _, f := range modeltest.Series(20, 0.5, tilted) {
			events, err := live.Add(f)
			So(err, ShouldBeNil)
			fired += len(events)
		}
		So(fired, ShouldEqual, 10)

		Convey("frames going back in time are rejected", func() {
			_, err := live.Add(modeltest.Upright(1))
			So(errors.Is(err, aggregate.ErrOutOfOrder), ShouldBeTrue)
		})

		Convey("finishing returns the same events", func() {
			a, err := live.Finish(context.Background(), false, false)
			So(err, ShouldBeNil)
			So(a.Events, ShouldHaveLength, 10)
			So(svc.GetStats()["liveSessions"], ShouldEqual, int64(0))

			_, err = live.Finish(context.Background(), false, false)
			So(err, ShouldEqual, service.ErrSessionEnded)
			_, err = live.Add(modeltest.Upright(20))
			So(err, ShouldEqual, service.ErrSessionEnded)
		})

		Convey("an abandoned session is released once", func() {
			live.Abandon()
			live.Abandon()
			So(svc.GetStats()["liveSessions"], ShouldEqual, int64(0))
		})
	})
}

func TestJobs(t *testing.T) {
	Convey("Given a service that is not started", t, func() {
		svc := service.New()
		_, err := svc.Submit(context.Background(), session(nil))
		So(err, ShouldEqual, service.ErrNotStarted)
		So(svc.GetStats()["started"], ShouldEqual, false)
	})

	Convey("Given a started service", t, func() {
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(10))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("a submitted session completes", func() {
			job, err := svc.Submit(ctx, session(modeltest.Series(20, 0.5, tilted)))
			So(err, ShouldBeNil)
			So(job.ID, ShouldNotBeEmpty)
			So(job.Status, ShouldEqual, model.JobQueued)

			var got model.Job
			deadline := time.Now().Add(2 * time.Second)
			for time.Now().Before(deadline) {
				got, err = svc.Job(ctx, job.ID)
				So(err, ShouldBeNil)
				if got.Status.Terminal() {
					break
				}
				time.Sleep(5 * time.Millisecond)
			}
			So(got.Status, ShouldEqual, model.JobDone)
			So(got.Result.Events, ShouldHaveLength, 10)
			So(got.Result.Tips[0].NearestTranscriptLine, ShouldNotBeEmpty)
		})

		Convey("malformed sessions are rejected before queueing", func() {
			frames := modeltest.Series(20, 0.5, modeltest.Upright)
			frames[3].Timestamp = 0
			_, err := svc.Submit(ctx, session(frames))
			So(errors.Is(err, aggregate.ErrOutOfOrder), ShouldBeTrue)
		})

		Convey("stats report the pipeline", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["workerCount"], ShouldEqual, 2)
			So(stats, ShouldContainKey, "queueLength")
		})
	})
}
