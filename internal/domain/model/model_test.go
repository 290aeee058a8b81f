package model_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/okian/posecoach/internal/domain/geometry"
	model "github.com/okian/posecoach/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestLandmarkNames(t *testing.T) {
	convey.Convey("Given estimator part labels", t, func() {
		convey.Convey("When they use different casings and separators", func() {
			for _, label := range []string{"leftShoulder", "left_shoulder", "LEFT-SHOULDER", " left shoulder "} {
				n, ok := model.ParseLandmarkName(label)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(n, convey.ShouldEqual, model.LeftShoulder)
			}
		})

		convey.Convey("When the label is outside the enumeration", func() {
			_, ok := model.ParseLandmarkName("leftPinky")
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("Then every name round-trips through String", func() {
			for i := 0; i < model.NumLandmarks; i++ {
				n := model.LandmarkName(i)
				back, ok := model.ParseLandmarkName(n.String())
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(back, convey.ShouldEqual, n)
			}
			convey.So(model.LandmarkName(200).String(), convey.ShouldEqual, "unknown")
		})
	})
}

func TestLandmarkSet(t *testing.T) {
	convey.Convey("Given an empty landmark set", t, func() {
		var s model.LandmarkSet
		convey.So(s.Len(), convey.ShouldEqual, 0)

		_, ok := s.Get(model.Nose)
		convey.So(ok, convey.ShouldBeFalse)

		convey.Convey("When a landmark is set", func() {
			s.Set(model.Nose, model.Landmark{Point: geometry.Point{X: 0.5, Y: 0.2}, Confidence: 0.9})
			lm, ok := s.Get(model.Nose)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(lm.X, convey.ShouldEqual, 0.5)
			convey.So(s.Len(), convey.ShouldEqual, 1)

			convey.Convey("Then a zero-valued landmark is still present", func() {
				s.Set(model.LeftEar, model.Landmark{})
				_, ok := s.Get(model.LeftEar)
				convey.So(ok, convey.ShouldBeTrue)
			})

			convey.Convey("Then Clear removes it", func() {
				s.Clear(model.Nose)
				_, ok := s.Get(model.Nose)
				convey.So(ok, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When decoding JSON with an unknown name", func() {
			err := json.Unmarshal([]byte(`{"nose":{"x":0.4,"y":0.3,"confidence":0.8},"tail":{"x":1,"y":1}}`), &s)
			convey.So(err, convey.ShouldBeNil)
			convey.So(s.Len(), convey.ShouldEqual, 1)

			out, err := json.Marshal(s)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(out), convey.ShouldEqual, `{"nose":{"x":0.4,"y":0.3,"confidence":0.8}}`)
		})
	})
}

func TestFrame(t *testing.T) {
	convey.Convey("Given frames", t, func() {
		convey.So(model.Frame{}.Empty(), convey.ShouldBeTrue)

		f := model.Frame{Hands: []model.Hand{
			{Side: model.SideLeft, Confidence: 0.4},
			{Side: model.SideLeft, Confidence: 0.9, Point: geometry.Point{X: 0.1}},
		}}
		convey.So(f.Empty(), convey.ShouldBeFalse)

		h, ok := f.HandFor(model.SideLeft)
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(h.X, convey.ShouldEqual, 0.1)

		_, ok = f.HandFor(model.SideRight)
		convey.So(ok, convey.ShouldBeFalse)
	})
}

func TestSample(t *testing.T) {
	convey.Convey("Given a sample", t, func() {
		var s model.Sample
		convey.So(s.Defined(model.MetricHeadTilt), convey.ShouldBeFalse)

		s.Set(model.MetricHeadTilt, 0)
		v, ok := s.Get(model.MetricHeadTilt)
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(v, convey.ShouldEqual, 0)

		convey.Convey("Non-finite values stay undefined", func() {
			s.Set(model.MetricTorsoLean, math.NaN())
			s.Set(model.MetricKneeDeviation, math.Inf(1))
			convey.So(s.Defined(model.MetricTorsoLean), convey.ShouldBeFalse)
			convey.So(s.Defined(model.MetricKneeDeviation), convey.ShouldBeFalse)
		})
	})
}

func TestCategoryText(t *testing.T) {
	convey.Convey("Categories encode as snake_case names", t, func() {
		b, err := json.Marshal(model.IssueEvent{Category: model.CategoryHandsHidden, Time: 1})
		convey.So(err, convey.ShouldBeNil)
		convey.So(string(b), convey.ShouldContainSubstring, `"category":"hands_hidden"`)

		var ev model.IssueEvent
		convey.So(json.Unmarshal(b, &ev), convey.ShouldBeNil)
		convey.So(ev.Category, convey.ShouldEqual, model.CategoryHandsHidden)

		var c model.Category
		convey.So(c.UnmarshalText([]byte("slouch")), convey.ShouldNotBeNil)
	})

	convey.Convey("Metrics map onto categories", t, func() {
		c, ok := model.MetricShoulderOffset.Category()
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(c, convey.ShouldEqual, model.CategoryShoulders)

		_, ok = model.MetricHandLeft.Category()
		convey.So(ok, convey.ShouldBeFalse)
	})

	convey.Convey("The no-data analysis encodes empty lists", t, func() {
		b, err := json.Marshal(model.NoDataAnalysis())
		convey.So(err, convey.ShouldBeNil)
		convey.So(string(b), convey.ShouldContainSubstring, `"tips":[]`)
		convey.So(string(b), convey.ShouldContainSubstring, `"events":[]`)
		convey.So(string(b), convey.ShouldContainSubstring, `"advisory":"no data"`)
	})
}

func TestAnalysisDocumentKeys(t *testing.T) {
	convey.Convey("Given an analysis with one event and one tip", t, func() {
		a := model.NoDataAnalysis()
		a.Events = append(a.Events, model.IssueEvent{Time: 2, Category: model.CategoryHeadTilt, Value: 12, Severity: 1.5})
		a.Tips = append(a.Tips, model.Tip{
			Time: 2, Timecode: "00:02", Category: model.CategoryBodyMotion,
			Text: "Reduce body movement", NearestTranscriptLine: "Welcome.",
		})
		b, err := json.Marshal(a)
		convey.So(err, convey.ShouldBeNil)
		doc := string(b)

		convey.Convey("Then events and tips carry time and the nearest transcript line", func() {
			convey.So(doc, convey.ShouldContainSubstring, `"events":[{"time":2,"category":"head_tilt"`)
			convey.So(doc, convey.ShouldContainSubstring, `"tips":[{"time":2,"timecode":"00:02","category":"body_motion"`)
			convey.So(doc, convey.ShouldContainSubstring, `"nearestTranscriptLine":"Welcome."`)
			convey.So(doc, convey.ShouldNotContainSubstring, `"t":`)
		})

		convey.Convey("Then a report without unmeasured categories omits the field", func() {
			convey.So(doc, convey.ShouldNotContainSubstring, `"unmeasured"`)
		})
	})
}
