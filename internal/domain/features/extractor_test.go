package features

import (
	"testing"

	"github.com/okian/posecoach/internal/domain/geometry"
	"github.com/okian/posecoach/internal/domain/model"
	"github.com/okian/posecoach/internal/domain/model/modeltest"
	. "github.com/smartystreets/goconvey/convey"
)

func TestExtractUpright(t *testing.T) {
	Convey("Given an upright pose", t, func() {
		s := NewExtractor().Extract(modeltest.Upright(0))

		Convey("Then every posture metric is defined and near zero", func() {
			for _, m := range model.PostureMetrics {
				v, ok := s.Get(m)
				So(ok, ShouldBeTrue)
				So(v, ShouldAlmostEqual, 0, 1e-9)
			}
		})

		Convey("Then both hands are visible", func() {
			v, _ := s.Get(model.MetricHandsBoth)
			So(v, ShouldEqual, 1)
		})
	})
}

func TestExtractHeadTilt(t *testing.T) {
	Convey("Given a tilted head", t, func() {
		e := NewExtractor()
		f := modeltest.HeadTilt(modeltest.Upright(0), 15)
		v, ok := e.Extract(f).Get(model.MetricHeadTilt)
		So(ok, ShouldBeTrue)
		So(v, ShouldAlmostEqual, 15, 1e-9)

		Convey("When ears are missing the outer eye corners are used", func() {
			f.Landmarks.Clear(model.LeftEar)
			v, ok := e.Extract(f).Get(model.MetricHeadTilt)
			So(ok, ShouldBeTrue)
			So(v, ShouldAlmostEqual, 0, 1e-9)
		})

		Convey("When no eye or ear pair is complete the metric is undefined", func() {
			g := modeltest.Only(f, model.Nose, model.LeftEar, model.RightEye)
			So(e.Extract(g).Defined(model.MetricHeadTilt), ShouldBeFalse)
		})
	})
}

func TestExtractTorsoAndShoulders(t *testing.T) {
	Convey("Given shoulders and hips", t, func() {
		e := NewExtractor()

		Convey("A dropped shoulder shows as offset", func() {
			s := e.Extract(modeltest.ShoulderDrop(modeltest.Upright(0), 0.06))
			v, _ := s.Get(model.MetricShoulderOffset)
			So(v, ShouldAlmostEqual, 0.06, 1e-9)
		})

		Convey("A forward lean measures the spine against vertical", func() {
			f := modeltest.Upright(0)
			// shift both shoulders so the spine is 45 degrees off vertical
			for _, n := range []model.LandmarkName{model.LeftShoulder, model.RightShoulder} {
				lm, _ := f.Landmarks.Get(n)
				lm.X += 0.3
				f.Landmarks.Set(n, lm)
			}
			v, ok := e.Extract(f).Get(model.MetricTorsoLean)
			So(ok, ShouldBeTrue)
			So(v, ShouldAlmostEqual, 45, 1e-9)
		})

		Convey("Missing hips leave lean undefined but keep the shoulder offset", func() {
			f := modeltest.Upright(0)
			f.Landmarks.Clear(model.RightHip)
			s := e.Extract(f)
			So(s.Defined(model.MetricTorsoLean), ShouldBeFalse)
			So(s.Defined(model.MetricShoulderOffset), ShouldBeTrue)
		})
	})
}

func TestExtractJoints(t *testing.T) {
	Convey("Given limb landmarks", t, func() {
		e := NewExtractor()
		f := modeltest.Upright(0)

		Convey("A straight left arm deviates 90 degrees; the average covers both sides", func() {
			f.Landmarks.Set(model.LeftWrist, model.Landmark{Point: geometry.Point{X: 0.4, Y: 0.7}, Confidence: 1})
			v, _ := e.Extract(f).Get(model.MetricElbowDeviation)
			So(v, ShouldAlmostEqual, 45, 1e-9)
		})

		Convey("One side is enough", func() {
			f.Landmarks.Clear(model.RightKnee)
			v, ok := e.Extract(f).Get(model.MetricKneeDeviation)
			So(ok, ShouldBeTrue)
			So(v, ShouldAlmostEqual, 0, 1e-9)
		})

		Convey("No complete side means undefined", func() {
			f.Landmarks.Clear(model.LeftAnkle)
			f.Landmarks.Clear(model.RightAnkle)
			So(e.Extract(f).Defined(model.MetricKneeDeviation), ShouldBeFalse)
		})
	})
}

func TestExtractConfidence(t *testing.T) {
	Convey("Given confidence limits", t, func() {
		f := modeltest.Upright(0)
		f.Hands[1].Confidence = 0.3

		Convey("Hands at exactly the limit are not visible", func() {
			s := NewExtractor().Extract(f)
			l, _ := s.Get(model.MetricHandLeft)
			r, _ := s.Get(model.MetricHandRight)
			b, _ := s.Get(model.MetricHandsBoth)
			So(l, ShouldEqual, 1)
			So(r, ShouldEqual, 0)
			So(b, ShouldEqual, 0)
		})

		Convey("Landmarks under the minimum confidence are ignored", func() {
			s := NewExtractor(WithLandmarkConfidence(0.95)).Extract(f)
			So(s.Defined(model.MetricHeadTilt), ShouldBeFalse)
			So(s.Defined(model.MetricHandLeft), ShouldBeTrue)
		})
	})
}

func TestExtractEmpty(t *testing.T) {
	Convey("An empty frame defines nothing", t, func() {
		s := NewExtractor().Extract(modeltest.Empty(1))
		for m := model.Metric(0); int(m) < model.NumMetrics; m++ {
			So(s.Defined(m), ShouldBeFalse)
		}
	})
}
