// Package insights computes descriptive statistics and a simple next-score
// forecast from a student's exam history. Recommendation and level fields
// hold i18n message IDs so views can localize them.
package insights

import "math"

// Status values reported by Summarize and Predict.
const (
	StatusOK               = "success"
	StatusNoData           = "no_data"
	StatusInsufficientData = "insufficient_data"
)

// Performance levels by mean score.
const (
	LevelExcellent        = "LevelExcellent"
	LevelVeryGood         = "LevelVeryGood"
	LevelGood             = "LevelGood"
	LevelAcceptable       = "LevelAcceptable"
	LevelNeedsImprovement = "LevelNeedsImprovement"
)

// Consistency levels by standard deviation.
const (
	ConsistencyExcellent = "ConsistencyExcellent"
	ConsistencyGood      = "ConsistencyGood"
	ConsistencyVariable  = "ConsistencyVariable"
)

// Trend directions over the most recent scores.
const (
	TrendImproving    = "TrendImproving"
	TrendDeclining    = "TrendDeclining"
	TrendStable       = "TrendStable"
	TrendInsufficient = "TrendInsufficient"
)

// trendWindow is how many of the newest scores the trend and forecast look at.
const trendWindow = 5

// minRecommendations is the least number of tips returned with a summary.
const minRecommendations = 3

var generalTips = []string{
	"RecDailyReview",
	"RecRelaxBeforeExam",
	"RecPracticePastExams",
}

// Insights summarizes a score history.
type Insights struct {
	Status          string
	Count           int
	Mean            float64
	Max             float64
	Min             float64
	StdDev          float64
	Level           string
	Consistency     string
	Trend           string
	Recommendations []string
}

// Summarize describes scores, which must be ordered newest first.
func Summarize(scores []float64) Insights {
	if len(scores) == 0 {
		return Insights{Status: StatusNoData}
	}
	in := Insights{
		Status: StatusOK,
		Count:  len(scores),
		Mean:   mean(scores),
		Max:    scores[0],
		Min:    scores[0],
		StdDev: sampleStdDev(scores),
	}
	for _, s := range scores[1:] {
		in.Max = math.Max(in.Max, s)
		in.Min = math.Min(in.Min, s)
	}
	in.Level = PerformanceLevel(in.Mean)
	in.Consistency = consistency(in.StdDev)
	in.Trend = trend(scores)
	in.Recommendations = recommendations(in.Mean, in.StdDev, in.Trend)
	return in
}

// PerformanceLevel maps a mean score to a level message ID.
func PerformanceLevel(avg float64) string {
	switch {
	case avg >= 90:
		return LevelExcellent
	case avg >= 80:
		return LevelVeryGood
	case avg >= 70:
		return LevelGood
	case avg >= 60:
		return LevelAcceptable
	default:
		return LevelNeedsImprovement
	}
}

func consistency(std float64) string {
	switch {
	case std < 5:
		return ConsistencyExcellent
	case std < 10:
		return ConsistencyGood
	default:
		return ConsistencyVariable
	}
}

// trend compares the newest score with the oldest one inside the window.
func trend(scores []float64) string {
	if len(scores) > trendWindow {
		scores = scores[:trendWindow]
	}
	if len(scores) < 2 {
		return TrendInsufficient
	}
	newest, oldest := scores[0], scores[len(scores)-1]
	switch {
	case newest > oldest+5:
		return TrendImproving
	case newest < oldest-5:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func recommendations(avg, std float64, tr string) []string {
	var recs []string
	if avg < 70 {
		recs = append(recs, "RecReviewRegularly", "RecAskInstructors")
	}
	if std > 10 {
		recs = append(recs, "RecStudySchedule", "RecSleep")
	}
	switch tr {
	case TrendDeclining:
		recs = append(recs, "RecRevisitMethod", "RecFocusWeaknesses")
	case TrendImproving:
		recs = append(recs, "RecKeepGoing", "RecApplyStrategy")
	}
	for _, tip := range generalTips {
		if len(recs) >= minRecommendations {
			break
		}
		recs = append(recs, tip)
	}
	return recs
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStdDev uses the n-1 denominator; a single value has no spread.
func sampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func populationStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)))
}
