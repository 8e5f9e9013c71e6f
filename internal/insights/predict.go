package insights

import "math"

// Prediction is an advisory forecast of the next exam score.
type Prediction struct {
	Status     string
	Predicted  float64
	Confidence float64
	Message    string
}

// Predict fits a least-squares line through the newest scores (ordered newest
// first, index 0..n-1) and evaluates it at index n. Fewer than three scores
// yield StatusInsufficientData without a fit.
func Predict(recent []float64) Prediction {
	if len(recent) > trendWindow {
		recent = recent[:trendWindow]
	}
	if len(recent) < 3 {
		return Prediction{Status: StatusInsufficientData}
	}
	slope, intercept := fitLine(recent)
	predicted := intercept + slope*float64(len(recent))
	confidence := math.Max(50, math.Min(95, 100-2*populationStdDev(recent)))
	return Prediction{
		Status:     StatusOK,
		Predicted:  predicted,
		Confidence: confidence,
		Message:    predictionMessage(predicted),
	}
}

// fitLine returns the ordinary least squares fit of ys over x = 0..n-1.
func fitLine(ys []float64) (slope, intercept float64) {
	n := float64(len(ys))
	var sx, sy float64
	for i, y := range ys {
		sx += float64(i)
		sy += y
	}
	mx, my := sx/n, sy/n
	var sxy, sxx float64
	for i, y := range ys {
		dx := float64(i) - mx
		sxy += dx * (y - my)
		sxx += dx * dx
	}
	if sxx == 0 {
		return 0, my
	}
	slope = sxy / sxx
	return slope, my - slope*mx
}

func predictionMessage(p float64) string {
	switch {
	case p >= 90:
		return "PredictExcellent"
	case p >= 80:
		return "PredictVeryGood"
	case p >= 70:
		return "PredictGood"
	case p >= 60:
		return "PredictAcceptable"
	default:
		return "PredictNeedsWork"
	}
}
