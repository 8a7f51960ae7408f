package agent

import "time"

// Activity score weighting. Uptime saturates after one day, cycles after ten
// thousand, recent events after one hundred; the weights sum to one so the
// composite is already in [0,1] before the final clamp.
const (
	uptimeWeight = 0.3
	cycleWeight  = 0.3
	eventWeight  = 0.4

	uptimeSaturation = 86400.0
	cycleSaturation  = 10000.0
	eventSaturation  = 100.0
)

// ActivityScore computes the composite activity score from current status
// fields. Pure function: same inputs, same score.
func ActivityScore(uptime time.Duration, cycles int64, recentEvents int) float64 {
	uptimeFraction := clampFraction(uptime.Seconds() / uptimeSaturation)
	cycleFraction := clampFraction(float64(cycles) / cycleSaturation)
	eventFraction := clampFraction(float64(recentEvents) / eventSaturation)

	score := uptimeWeight*uptimeFraction + cycleWeight*cycleFraction + eventWeight*eventFraction
	return clampFraction(score)
}

func clampFraction(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
