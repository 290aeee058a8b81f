package model

// AdvisoryNoData marks a report computed without usable pose data.
const AdvisoryNoData = "no data"

// AdvisoryPartial marks a report over a session that was stopped early.
const AdvisoryPartial = "partial session"

// IssueEvent is a debounced threshold breach.
type IssueEvent struct {
	Time     float64  `json:"time"`
	Category Category `json:"category"`
	Value    float64  `json:"value"`
	// Severity is Value divided by the category threshold; always >= 1.
	Severity float64 `json:"severity"`
}

// Tip is a coaching suggestion anchored to a moment of the session.
type Tip struct {
	Time                  float64  `json:"time"`
	Timecode              string   `json:"timecode"`
	Category              Category `json:"category"`
	Text                  string   `json:"text"`
	NearestTranscriptLine string   `json:"nearestTranscriptLine"`
}

// ScoreReport carries the 0-10 category scores.
type ScoreReport struct {
	Overall        float64            `json:"overall"`
	Posture        float64            `json:"posture"`
	Gesture        float64            `json:"gesture"`
	Movement       float64            `json:"movement"`
	MetricAverages map[string]float64 `json:"metricAverages"`
	Advisory       string             `json:"advisory,omitempty"`
	Partial        bool               `json:"partial"`
	// Unmeasured names the categories left out of Overall for lack of data;
	// their zero scores carry no meaning.
	Unmeasured []string `json:"unmeasured,omitempty"`
}

// Score category names used in Unmeasured.
const (
	ScorePosture  = "posture"
	ScoreGesture  = "gesture"
	ScoreMovement = "movement"
)

// NoDataReport is the zero report returned when nothing could be measured.
func NoDataReport() ScoreReport {
	return ScoreReport{MetricAverages: map[string]float64{}, Advisory: AdvisoryNoData}
}

// Analysis is the document handed to consumers.
type Analysis struct {
	ScoreReport ScoreReport  `json:"scoreReport"`
	Tips        []Tip        `json:"tips"`
	Events      []IssueEvent `json:"events"`
	Enrichment  string       `json:"enrichment,omitempty"`
}

// NoDataAnalysis is the analysis for a session without usable data.
func NoDataAnalysis() Analysis {
	return Analysis{ScoreReport: NoDataReport(), Tips: []Tip{}, Events: []IssueEvent{}}
}
