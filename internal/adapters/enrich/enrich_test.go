package enrich

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/posecoach/internal/domain/model"
	"github.com/okian/posecoach/internal/domain/scoring"
	"github.com/okian/posecoach/pkg/logger"
)

func init() {
	_ = logger.Init()
}

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1,
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "finish_reason": "stop",
    "message": {"role": "assistant", "content": "  Keep your chin level during the opening.  "}}]
}`

func sampleAnalysis() model.Analysis {
	a := model.NoDataAnalysis()
	r := &a.ScoreReport
	r.Overall, r.Posture, r.Gesture, r.Movement = 8.1, 7.5, 9, 8
	r.MetricAverages = map[string]float64{
		"headTilt":                  11.2,
		scoring.KeyHandsBothVisible: 0.42,
		scoring.KeyGestureRate:      0.3,
		scoring.KeyFidgetVariance:   0.0004,
	}
	r.Advisory = ""
	a.Tips = []model.Tip{{
		Time: 12, Timecode: "00:12", Category: model.CategoryHeadTilt,
		Text: "Level your head.", NearestTranscriptLine: strings.Repeat("word ", 60),
	}}
	return a
}

func TestBuildSummary(t *testing.T) {
	Convey("Given a finished analysis", t, func() {
		s := BuildSummary(61.26, sampleAnalysis())

		Convey("scores and derived figures are carried", func() {
			So(s.DurationSeconds, ShouldEqual, 61.3)
			So(s.Scores["overall"], ShouldEqual, 8.1)
			So(s.HandsBothVisiblePercent, ShouldEqual, 42)
			So(s.GestureRatePerSecond, ShouldEqual, 0.3)
			So(s.FidgetVariance, ShouldEqual, 0.0004)
		})

		Convey("nearby lines are capped", func() {
			So(s.Tips, ShouldHaveLength, 1)
			So(len([]rune(s.Tips[0].NearbyLine)), ShouldEqual, MaxNearbyLine)
			So(s.Tips[0].Time, ShouldEqual, "00:12")
			So(s.Tips[0].Category, ShouldEqual, "head_tilt")
		})

		Convey("tip count is bounded", func() {
			a := sampleAnalysis()
			for i := 0; i < MaxSummaryTips+5; i++ {
				a.Tips = append(a.Tips, a.Tips[0])
			}
			So(BuildSummary(10, a).Tips, ShouldHaveLength, MaxSummaryTips)
		})
	})
}

func TestTruncate(t *testing.T) {
	Convey("Truncate is rune safe", t, func() {
		So(Truncate("héllo", 2), ShouldEqual, "hé")
		So(Truncate("abc", 10), ShouldEqual, "abc")
		So(Truncate("abc", 0), ShouldEqual, "")
	})
}

func TestNewOpenAI(t *testing.T) {
	Convey("A key is required", t, func() {
		_, err := NewOpenAI()
		So(err, ShouldEqual, ErrMissingAPIKey)

		_, err = NewOpenAI(WithAPIKey("   "))
		So(err, ShouldEqual, ErrMissingAPIKey)
	})
}

func TestOpenAIEnrich(t *testing.T) {
	Convey("Given an OpenAI-compatible server", t, func() {
		var (
			calls   atomic.Int32
			gotBody map[string]any
			gotAuth string
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			gotAuth = r.Header.Get("Authorization")
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &gotBody)
			if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, completionBody)
		}))
		defer srv.Close()

		e, err := NewOpenAI(
			WithAPIKey("sk-test"),
			WithBaseURL(srv.URL+"/v1/"),
			WithModel("coach-model"),
			WithMaxTokens(300),
			WithTranscriptBudget(10),
			WithTimeout(5*time.Second),
		)
		So(err, ShouldBeNil)

		text, err := e.Enrich(context.Background(), BuildSummary(30, sampleAnalysis()), "Hello everyone, welcome to the talk.")

		Convey("the trimmed reply is returned", func() {
			So(err, ShouldBeNil)
			So(text, ShouldEqual, "Keep your chin level during the opening.")
			So(calls.Load(), ShouldEqual, 1)
		})

		Convey("the request carries model, key and a bounded transcript", func() {
			So(gotAuth, ShouldEqual, "Bearer sk-test")
			So(gotBody["model"], ShouldEqual, "coach-model")
			So(gotBody["max_completion_tokens"], ShouldEqual, 300.0)
			msgs, ok := gotBody["messages"].([]any)
			So(ok, ShouldBeTrue)
			So(msgs, ShouldHaveLength, 2)
			user, _ := msgs[1].(map[string]any)["content"].(string)
			So(user, ShouldContainSubstring, "Hello ever")
			So(user, ShouldNotContainSubstring, "welcome")
			So(user, ShouldContainSubstring, `"durationSeconds":30`)
		})
	})
}

func TestOpenAIEnrichFailures(t *testing.T) {
	Convey("Given a server that fails", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"message":"bad","type":"invalid_request_error"}}`)
		}))
		defer srv.Close()

		e, err := NewOpenAI(WithAPIKey("k"), WithBaseURL(srv.URL))
		So(err, ShouldBeNil)
		_, err = e.Enrich(context.Background(), Summary{}, "")
		So(err, ShouldNotBeNil)
	})

	Convey("Given a server that answers with no text", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`)
		}))
		defer srv.Close()

		e, err := NewOpenAI(WithAPIKey("k"), WithBaseURL(srv.URL))
		So(err, ShouldBeNil)
		_, err = e.Enrich(context.Background(), Summary{}, "")
		So(err, ShouldEqual, ErrEmptyResponse)
	})
}
