package captcha

import (
	"strings"

	"botgate/internal/models"
)

// Validator checks one submitted answer against the stored ground truth for
// a stage. One implementation exists per challenge kind; dispatch happens
// through the lookup table below, keyed by stage.
type Validator interface {
	Validate(sub models.Submission, truth *models.GroundTruth) bool
}

// Validators builds the per-stage dispatch table. Text and voice share the
// token rule. partFailOpen restores the legacy behavior of accepting any
// click when a challenge was issued without a bounding box; the default is
// to reject.
func Validators(partFailOpen bool) map[models.Stage]Validator {
	token := tokenValidator{}
	return map[models.Stage]Validator{
		models.StageText:  token,
		models.StageVoice: token,
		models.StageImage: imageValidator{},
		models.StagePart:  partValidator{failOpen: partFailOpen},
	}
}

// tokenValidator compares the submitted string to the expected token,
// trimmed and case-insensitive.
type tokenValidator struct{}

func (tokenValidator) Validate(sub models.Submission, truth *models.GroundTruth) bool {
	return strings.EqualFold(strings.TrimSpace(sub.Answer), strings.TrimSpace(truth.Token))
}

// imageValidator requires the selected grid indices to equal the correct set.
// Order and duplicates are irrelevant.
type imageValidator struct{}

func (imageValidator) Validate(sub models.Submission, truth *models.GroundTruth) bool {
	expected := make(map[int]struct{}, len(truth.Indices))
	for _, idx := range truth.Indices {
		expected[idx] = struct{}{}
	}

	selected := make(map[int]struct{}, len(sub.Selected))
	for _, idx := range sub.Selected {
		if _, ok := expected[idx]; !ok {
			return false
		}
		selected[idx] = struct{}{}
	}
	return len(selected) == len(expected)
}

// partValidator passes when the submitted point lies inside the target box,
// edges inclusive.
type partValidator struct {
	failOpen bool
}

func (v partValidator) Validate(sub models.Submission, truth *models.GroundTruth) bool {
	if truth.Box == nil {
		return v.failOpen
	}
	return truth.Box.Contains(sub.X, sub.Y)
}
