package replay

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/posecoach/internal/domain/model"
	"github.com/okian/posecoach/internal/domain/model/modeltest"
	"github.com/okian/posecoach/internal/sampler"
	"github.com/okian/posecoach/pkg/logger"
)

func init() {
	_ = logger.Init()
}

const recordingJSON = `{
  "transcript": "Hello. Thanks for coming.",
  "samples": [
    {"t": 2, "width": 200, "height": 100, "keypoints": [{"part": "nose", "x": 100, "y": 50, "score": 0.9}]},
    {"t": 0, "keypoints": [{"part": "left_shoulder", "x": 0.4, "y": 0.5, "score": 0.8}],
     "hands": [{"label": "Left", "x": 0.3, "y": 0.6, "score": 0.7}]},
    {"t": 1, "keypoints": []}
  ]
}`

func TestDecode(t *testing.T) {
	Convey("Given a recording document", t, func() {
		rec, err := Decode(strings.NewReader(recordingJSON))
		So(err, ShouldBeNil)

		Convey("samples are sorted and duration is inferred", func() {
			So(rec.Samples, ShouldHaveLength, 3)
			So(rec.Samples[0].Time, ShouldEqual, 0)
			So(rec.Samples[2].Time, ShouldEqual, 2)
			So(rec.DurationSeconds, ShouldEqual, 2)
			So(rec.Transcript, ShouldStartWith, "Hello.")
		})

		Convey("frames are normalised", func() {
			frames := rec.Frames()
			nose, ok := frames[2].Landmarks.Get(model.Nose)
			So(ok, ShouldBeTrue)
			So(nose.X, ShouldEqual, 0.5)
			So(nose.Y, ShouldEqual, 0.5)
			So(frames[0].Hands, ShouldHaveLength, 1)
			So(frames[1].Empty(), ShouldBeTrue)
		})
	})

	Convey("Empty or malformed documents are rejected", t, func() {
		_, err := Decode(strings.NewReader(`{"samples": []}`))
		So(err, ShouldEqual, ErrEmptyRecording)
		_, err = Decode(strings.NewReader(`{`))
		So(err, ShouldNotBeNil)
	})

	Convey("Load reads from disk", t, func() {
		p := filepath.Join(t.TempDir(), "rec.json")
		So(os.WriteFile(p, []byte(recordingJSON), 0o600), ShouldBeNil)
		rec, err := Load(p)
		So(err, ShouldBeNil)
		So(rec.Samples, ShouldHaveLength, 3)

		_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
		So(err, ShouldNotBeNil)
	})
}

func TestEstimatorLookup(t *testing.T) {
	Convey("Given a recording sampled every second", t, func() {
		rec := FromFrames(0, "", modeltest.Series(5, 1, modeltest.Upright))
		est := NewEstimator(rec, 0.6)
		ctx := context.Background()

		Convey("exact and trailing times resolve to the latest sample", func() {
			d, err := est.Estimate(ctx, sampler.Snapshot{Time: 2})
			So(err, ShouldBeNil)
			So(d.Keypoints, ShouldNotBeEmpty)

			d, err = est.Estimate(ctx, sampler.Snapshot{Time: 2.5})
			So(err, ShouldBeNil)
			So(d.Keypoints, ShouldNotBeEmpty)
		})

		Convey("gaps beyond the limit yield an empty detection", func() {
			d, err := est.Estimate(ctx, sampler.Snapshot{Time: 4.9})
			So(err, ShouldBeNil)
			So(d.Keypoints, ShouldBeEmpty)

			d, err = est.Estimate(ctx, sampler.Snapshot{Time: -1})
			So(err, ShouldBeNil)
			So(d.Keypoints, ShouldBeEmpty)
		})

		Convey("a closed estimator refuses work", func() {
			So(est.Close(), ShouldBeNil)
			_, err := est.Estimate(ctx, sampler.Snapshot{Time: 1})
			So(err, ShouldEqual, ErrClosed)
		})
	})
}

func TestMedia(t *testing.T) {
	Convey("Given a seekable replay", t, func() {
		rec := FromFrames(4, "", modeltest.Series(9, 0.5, modeltest.Upright))
		m := NewMedia(rec)
		ctx := context.Background()

		So(m.Seekable(), ShouldBeTrue)
		So(m.Duration(), ShouldEqual, 4)
		So(m.Seek(ctx, 1.5), ShouldBeNil)
		snap, err := m.Capture(ctx)
		So(err, ShouldBeNil)
		So(snap.Time, ShouldEqual, 1.5)

		So(m.Seek(ctx, 4.5), ShouldBeNil)
		_, err = m.Capture(ctx)
		So(err, ShouldEqual, io.EOF)

		So(m.Close(), ShouldBeNil)
		So(m.Seek(ctx, 1), ShouldEqual, ErrClosed)
	})

	Convey("Given a live replay", t, func() {
		rec := FromFrames(4, "", modeltest.Series(9, 0.5, modeltest.Upright))
		m := NewMedia(rec, Live(2), WithUnknownDuration())
		ctx := context.Background()

		So(m.Seekable(), ShouldBeFalse)
		So(m.Duration(), ShouldEqual, 0)
		So(m.Seek(ctx, 1), ShouldEqual, sampler.ErrNotSeekable)
		So(m.Position(), ShouldEqual, 0)
	})
}

func TestSamplerOverReplay(t *testing.T) {
	Convey("Given a 10s recording at 2 fps", t, func() {
		frames := modeltest.Series(21, 0.5, modeltest.Upright)
		rec := FromFrames(10, "", frames)

		Convey("seek mode visits every sample time", func() {
			var got []model.Frame
			out, err := sampler.New().Run(context.Background(), NewMedia(rec), NewEstimator(rec, 0), func(f model.Frame) error {
				got = append(got, f)
				return nil
			})
			So(err, ShouldBeNil)
			So(out.Mode, ShouldEqual, sampler.ModeSeek)
			So(out.Frames, ShouldEqual, 20)
			So(out.Failed, ShouldEqual, 0)
			So(got[3].Timestamp, ShouldEqual, 1.5)
			So(got[3].Empty(), ShouldBeFalse)
		})

		Convey("live playback samples on the clock", func() {
			s := sampler.New(sampler.WithRate(20))
			out, err := s.Run(context.Background(), NewMedia(rec, Live(20)), NewEstimator(rec, 0), nil)
			So(err, ShouldBeNil)
			So(out.Mode, ShouldEqual, sampler.ModeRealtime)
			So(out.Frames, ShouldBeGreaterThan, 0)
			So(out.Duration, ShouldEqual, 10)
		})
	})
}
