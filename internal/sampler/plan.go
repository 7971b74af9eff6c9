package sampler

// minInterval is the floor the cadence never shrinks below, even for very
// short windows.
const minInterval = 5.0

// effectiveInterval shrinks the sampling cadence when the window is short
// relative to interval*3, so short clips and narrow time ranges still yield
// close to maxFrames samples instead of one or two.
func effectiveInterval(windowSec, interval float64, maxFrames int) float64 {
	if maxFrames <= 0 {
		return interval
	}
	if windowSec < interval*3 {
		adjusted := windowSec / float64(maxFrames)
		if adjusted < minInterval {
			adjusted = minInterval
		}
		return adjusted
	}
	return interval
}

// planTimestamps computes the seek targets for a media source of known
// duration. Timestamps are strictly increasing, fall inside the effective
// [start, end) window, and never exceed maxFrames.
func planTimestamps(duration, interval float64, maxFrames int, start, end *float64) []float64 {
	from := 0.0
	if start != nil && *start > 0 {
		from = *start
	}
	to := duration
	if end != nil && *end < to {
		to = *end
	}
	if from >= to || maxFrames <= 0 {
		return nil
	}
	window := to - from
	if window < 1 {
		window = 1
	}
	step := effectiveInterval(window, interval, maxFrames)

	var stamps []float64
	for t := from; t < to && len(stamps) < maxFrames; t += step {
		stamps = append(stamps, t)
	}
	return stamps
}
