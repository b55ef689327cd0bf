package models

// Sample is one raw pointer-tracker reading: position plus a monotonic
// timestamp in seconds. Insertion order is significant.
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	T float64 `json:"time"`
}

// FeatureVector holds the kinematic features derived from consecutive
// samples.
type FeatureVector struct {
	Velocity     float64 `json:"velocity"`
	Acceleration float64 `json:"acceleration"`
}

// MovementRequest is the wire payload of the movement-scoring endpoint.
type MovementRequest struct {
	Coords []Sample `json:"coords" binding:"required"`
}

// MovementResult is the outcome of scoring one batch of pointer samples.
type MovementResult struct {
	Status   string  `json:"status"`
	BotRatio float64 `json:"bot_ratio"`
	Passed   bool    `json:"passed"`
	TooFast  bool    `json:"too_fast,omitempty"`
	Skipped  bool    `json:"skipped,omitempty"`
}

// CaptureRequest is a labeled batch of raw samples recorded for later
// training-data export.
type CaptureRequest struct {
	Label  string   `json:"label" binding:"required"`
	Coords []Sample `json:"coords" binding:"required"`
}
