package models

// Stage is one step of the escalating verification sequence. Order is fixed:
// text -> image -> part -> voice -> denied. Denied is terminal.
type Stage int

const (
	StageText Stage = iota
	StageImage
	StagePart
	StageVoice
	StageDenied
)

var stageNames = map[Stage]string{
	StageText:   "text",
	StageImage:  "image",
	StagePart:   "part",
	StageVoice:  "voice",
	StageDenied: "denied",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Number returns the 1-based position of the stage within the challenge
// sequence (1-4). Denied has no position and returns 0.
func (s Stage) Number() int {
	if s == StageDenied {
		return 0
	}
	return int(s) + 1
}

// Next returns the stage that follows s in the fixed forward order.
// Denied is absorbing.
func (s Stage) Next() Stage {
	if s >= StageDenied {
		return StageDenied
	}
	return s + 1
}

// Terminal reports whether the stage accepts no further challenges.
func (s Stage) Terminal() bool {
	return s == StageDenied
}

// ChallengeStages lists the non-terminal stages in issue order.
var ChallengeStages = []Stage{StageText, StageImage, StagePart, StageVoice}
