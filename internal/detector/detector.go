package detector

import (
	"botgate/internal/kinematics"
	"botgate/internal/models"

	"go.uber.org/zap"
)

// Verdict is the per-sample classifier output.
type Verdict string

const (
	VerdictHuman Verdict = "human"
	VerdictBot   Verdict = "bot"
)

// Classifier scores one feature vector per verdict, in input order. The
// concrete algorithm behind it is a frozen artifact; the rest of the system
// only sees this contract.
type Classifier interface {
	Predict(features []models.FeatureVector) []Verdict
}

// passThreshold is the maximum bot percentage that still passes. Exactly 50
// passes; strictly above fails.
const passThreshold = 50.0

// Decision is the aggregate of one scoring batch.
type Decision struct {
	BotRatio float64
	Passed   bool
}

// Decide collapses per-sample verdicts into a bot percentage and applies the
// pass threshold. Callers must not pass an empty slice; the minimum-sample
// precondition in Detector.Score guarantees that for the live path.
func Decide(verdicts []Verdict) Decision {
	botHits := 0
	for _, v := range verdicts {
		if v == VerdictBot {
			botHits++
		}
	}
	ratio := float64(botHits) / float64(len(verdicts)) * 100
	return Decision{BotRatio: ratio, Passed: ratio <= passThreshold}
}

// Detector scores raw pointer movement against the behavioral classifier.
// A nil classifier means kinematic gating is disabled for this deployment
// and every score is reported as skipped.
type Detector struct {
	classifier Classifier
	minSamples int
	log        *zap.Logger
}

func New(classifier Classifier, minSamples int, log *zap.Logger) *Detector {
	return &Detector{
		classifier: classifier,
		minSamples: minSamples,
		log:        log,
	}
}

// Enabled reports whether a classifier artifact was loaded.
func (d *Detector) Enabled() bool {
	return d.classifier != nil
}

// Score runs the full pipeline: minimum-sample gate, feature extraction,
// per-sample prediction, ratio decision. Batches below the minimum are
// rejected outright without touching the classifier.
func (d *Detector) Score(samples []models.Sample) models.MovementResult {
	if len(samples) < d.minSamples {
		return models.MovementResult{
			Status:  "Too fast! Are you a bot?",
			TooFast: true,
		}
	}

	if !d.Enabled() {
		return models.MovementResult{
			Status:  "Movement check skipped",
			Passed:  true,
			Skipped: true,
		}
	}

	features := kinematics.Extract(samples)
	verdicts := d.classifier.Predict(features)
	decision := Decide(verdicts)

	d.log.Debug("Scored movement batch",
		zap.Int("samples", len(samples)),
		zap.Float64("bot_ratio", decision.BotRatio),
		zap.Bool("passed", decision.Passed))

	result := models.MovementResult{
		BotRatio: decision.BotRatio,
		Passed:   decision.Passed,
	}
	if decision.Passed {
		result.Status = "Human verified"
	} else {
		result.Status = "Bot detected"
	}
	return result
}
