package kinematics

import (
	"math"
	"testing"

	"botgate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLengthMatchesInput(t *testing.T) {
	for _, n := range []int{1, 2, 5, 100} {
		samples := make([]models.Sample, n)
		for i := range samples {
			samples[i] = models.Sample{X: float64(i), Y: float64(i), T: float64(i) * 0.01}
		}
		features := Extract(samples)
		assert.Len(t, features, n)
	}
}

func TestExtractFirstSampleIsZero(t *testing.T) {
	features := Extract([]models.Sample{
		{X: 10, Y: 20, T: 1.0},
		{X: 13, Y: 24, T: 1.1},
	})
	require.Len(t, features, 2)
	assert.Zero(t, features[0].Velocity)
	assert.Zero(t, features[0].Acceleration)
}

func TestExtractVelocityAndAcceleration(t *testing.T) {
	// 3-4-5 triangle per step: distance 5 over 0.1s => velocity 50.
	samples := []models.Sample{
		{X: 0, Y: 0, T: 0.0},
		{X: 3, Y: 4, T: 0.1},
		{X: 9, Y: 12, T: 0.2}, // distance 10 => velocity 100
	}
	features := Extract(samples)
	require.Len(t, features, 3)
	assert.InDelta(t, 50.0, features[1].Velocity, 1e-9)
	assert.InDelta(t, 50.0, features[1].Acceleration, 1e-9)
	assert.InDelta(t, 100.0, features[2].Velocity, 1e-9)
	assert.InDelta(t, 50.0, features[2].Acceleration, 1e-9)
}

func TestExtractDuplicateTimestampFallback(t *testing.T) {
	samples := []models.Sample{
		{X: 0, Y: 0, T: 1.0},
		{X: 1, Y: 0, T: 1.0}, // dt == 0, falls back to 0.01
	}
	features := Extract(samples)
	require.Len(t, features, 2)
	assert.False(t, math.IsInf(features[1].Velocity, 1))
	assert.InDelta(t, 100.0, features[1].Velocity, 1e-9)
}

func TestExtractStraightLineBotPath(t *testing.T) {
	// A scripted path: constant step, constant dt. Velocity settles
	// immediately, so acceleration is near zero everywhere past the ramp-in.
	samples := make([]models.Sample, 100)
	for i := range samples {
		samples[i] = models.Sample{
			X: float64(i) * 5,
			Y: float64(i) * 5,
			T: float64(i) * 0.01,
		}
	}
	features := Extract(samples)
	require.Len(t, features, 100)
	for i := 2; i < len(features); i++ {
		assert.InDelta(t, 0.0, features[i].Acceleration, 1e-6, "index %d", i)
	}
}
