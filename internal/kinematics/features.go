package kinematics

import (
	"math"

	"botgate/internal/models"
)

// fallbackDT replaces a zero or negative time delta so duplicate timestamps
// cannot divide by zero.
const fallbackDT = 0.01

// Extract converts an ordered sequence of raw pointer samples into one
// feature vector per sample. The first sample has no predecessor, so its
// velocity and acceleration are zero rather than the row being dropped.
// Acceleration is the first difference of velocity; it is deliberately not
// divided by dt again, and the offline dataset exporter uses this same
// function so training and live scoring stay on one formula.
func Extract(samples []models.Sample) []models.FeatureVector {
	features := make([]models.FeatureVector, len(samples))
	if len(samples) == 0 {
		return features
	}

	prevVelocity := 0.0
	for i := 1; i < len(samples); i++ {
		dx := samples[i].X - samples[i-1].X
		dy := samples[i].Y - samples[i-1].Y
		dt := samples[i].T - samples[i-1].T
		if dt <= 0 {
			dt = fallbackDT
		}

		velocity := math.Sqrt(dx*dx+dy*dy) / dt
		features[i] = models.FeatureVector{
			Velocity:     velocity,
			Acceleration: velocity - prevVelocity,
		}
		prevVelocity = velocity
	}

	return features
}
