package models

import "time"

// BoundingBox is an axis-aligned target region on a part-selection image.
// Edges are inclusive.
type BoundingBox struct {
	MinX float64 `json:"min_x" yaml:"min_x"`
	MinY float64 `json:"min_y" yaml:"min_y"`
	MaxX float64 `json:"max_x" yaml:"max_x"`
	MaxY float64 `json:"max_y" yaml:"max_y"`
}

// Contains reports whether the point (x, y) falls inside the box,
// edges included.
func (b BoundingBox) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// GroundTruth is the server-held correct answer for the currently issued
// challenge. Exactly the fields relevant to the issuing stage are set.
// It is replaced wholesale on every issuance, never merged.
type GroundTruth struct {
	// Token is the expected answer for text and voice challenges.
	Token string
	// Indices are the correct grid positions for image challenges.
	Indices []int
	// Box is the click target for part challenges. May be nil when the
	// bank entry carries no region (degenerate asset).
	Box *BoundingBox
}

// Submission carries a client answer for any stage; the active stage's
// validator reads the fields it cares about.
type Submission struct {
	Answer   string  `json:"answer"`
	Selected []int   `json:"selected"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// SessionState is the whole verification state for one client. It is owned
// by the session store and replaced atomically on every mutation so
// concurrent readers never observe a half-written state.
type SessionState struct {
	Stage     Stage
	Attempts  map[Stage]int
	Truth     *GroundTruth
	IssuedAt  time.Time
	UpdatedAt time.Time
}

// NewSessionState returns a fresh state at the text stage with the given
// per-stage attempt budget.
func NewSessionState(attempts int) *SessionState {
	state := &SessionState{
		Stage:     StageText,
		Attempts:  make(map[Stage]int, len(ChallengeStages)),
		UpdatedAt: time.Now(),
	}
	for _, stage := range ChallengeStages {
		state.Attempts[stage] = attempts
	}
	return state
}

// Clone returns a deep copy so callers can mutate without racing readers
// of the stored state.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	copied := *s
	copied.Attempts = make(map[Stage]int, len(s.Attempts))
	for stage, left := range s.Attempts {
		copied.Attempts[stage] = left
	}
	if s.Truth != nil {
		truth := *s.Truth
		if s.Truth.Indices != nil {
			truth.Indices = append([]int(nil), s.Truth.Indices...)
		}
		if s.Truth.Box != nil {
			box := *s.Truth.Box
			truth.Box = &box
		}
		copied.Truth = &truth
	}
	return &copied
}

// HasActiveChallenge reports whether a challenge has been issued and not yet
// resolved for the current stage.
func (s *SessionState) HasActiveChallenge() bool {
	return s.Truth != nil && !s.IssuedAt.IsZero()
}
