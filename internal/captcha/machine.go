package captcha

import (
	"errors"
	"fmt"
	"time"

	"botgate/internal/models"
	"botgate/internal/session"

	"go.uber.org/zap"
)

var (
	// ErrNoSession is returned when no verification flow exists for the
	// session identifier. The caller should start one.
	ErrNoSession = errors.New("no verification session")
	// ErrNoChallenge is returned when an answer arrives before any
	// challenge was issued for the current stage. No attempt is consumed.
	ErrNoChallenge = errors.New("no active challenge")
)

// Provider supplies a challenge payload plus fresh ground truth for a stage.
// Asset rendering behind the returned references is its concern, not the
// machine's.
type Provider interface {
	Challenge(stage models.Stage) (*models.ChallengePayload, *models.GroundTruth, error)
}

// Settings are the tunables of one machine instance.
type Settings struct {
	// Attempts is the per-stage budget of tolerated failures.
	Attempts int
	// Window is how long an issued challenge stays answerable.
	Window time.Duration
	// PartFailOpen accepts any click when no bounding box was recorded.
	PartFailOpen bool
}

// Machine owns the challenge progression for every session: stage order,
// attempt budgets, expiry, and the grant/deny outcome. All state lives in
// the session store; the machine itself is stateless and safe for
// concurrent use.
type Machine struct {
	store      *session.Store
	provider   Provider
	validators map[models.Stage]Validator
	settings   Settings
	log        *zap.Logger
	now        func() time.Time
}

func NewMachine(store *session.Store, provider Provider, settings Settings, log *zap.Logger) *Machine {
	return &Machine{
		store:      store,
		provider:   provider,
		validators: Validators(settings.PartFailOpen),
		settings:   settings,
		log:        log,
		now:        time.Now,
	}
}

// Start resets the session to the text stage with a full attempt budget.
// Idempotent: restarting mid-flow discards any previous progress.
func (m *Machine) Start(sessionID string) {
	m.store.Replace(sessionID, models.NewSessionState(m.settings.Attempts))
	m.log.Debug("Verification session started", zap.String("session", sessionID))
}

// IssueChallenge obtains a payload and fresh ground truth for the current
// stage, records the ground truth and issuance time, and returns only the
// payload. A denied session gets a denial response without contacting the
// provider.
func (m *Machine) IssueChallenge(sessionID string) (*models.IssueResult, error) {
	state, ok := m.store.Get(sessionID)
	if !ok {
		return nil, ErrNoSession
	}

	if state.Stage.Terminal() {
		return &models.IssueResult{
			Stage:        state.Stage.String(),
			AccessDenied: true,
			Message:      "Access denied",
		}, nil
	}

	payload, truth, err := m.provider.Challenge(state.Stage)
	if err != nil {
		// Provider failure leaves the session untouched; the client can
		// simply retry issuance.
		return nil, fmt.Errorf("challenge provider failed for stage %s: %w", state.Stage, err)
	}

	state.Truth = truth
	state.IssuedAt = m.now()
	m.store.Replace(sessionID, state)

	return &models.IssueResult{
		Stage:        state.Stage.String(),
		StageNumber:  state.Stage.Number(),
		AttemptsLeft: state.Attempts[state.Stage],
		Payload:      payload,
	}, nil
}

// SubmitAnswer validates one answer against the active challenge and applies
// the transition rules: success destroys the session and grants access; a
// stale challenge reports expired without consuming an attempt; a wrong
// answer burns an attempt and, on exhaustion, advances the stage or lands in
// denied.
func (m *Machine) SubmitAnswer(sessionID string, sub models.Submission) (*models.SubmitResult, error) {
	state, ok := m.store.Get(sessionID)
	if !ok {
		return nil, ErrNoSession
	}

	if state.Stage.Terminal() {
		return &models.SubmitResult{
			Message:      "Access denied",
			AccessDenied: true,
		}, nil
	}

	if !state.HasActiveChallenge() {
		return nil, ErrNoChallenge
	}

	if m.now().Sub(state.IssuedAt) > m.settings.Window {
		// Expiry is reported distinctly and costs nothing; the caller
		// re-issues a challenge for the same stage.
		return &models.SubmitResult{
			Message: "Challenge expired, request a new one",
			Expired: true,
		}, nil
	}

	validator, ok := m.validators[state.Stage]
	if !ok {
		return nil, fmt.Errorf("no validator registered for stage %s", state.Stage)
	}

	if validator.Validate(sub, state.Truth) {
		m.store.Delete(sessionID)
		m.log.Info("Verification passed",
			zap.String("session", sessionID),
			zap.String("stage", state.Stage.String()))
		return &models.SubmitResult{
			Success:       true,
			Message:       "Human verified, access granted",
			AccessGranted: true,
		}, nil
	}

	left := state.Attempts[state.Stage] - 1
	if left < 0 {
		left = 0
	}
	state.Attempts[state.Stage] = left

	if left > 0 {
		// The challenge stays live: the caller may answer it again right
		// away or request a fresh one, either way the next wrong answer
		// exhausts the stage.
		m.store.Replace(sessionID, state)
		return &models.SubmitResult{
			Message:      fmt.Sprintf("Wrong answer, %d attempt(s) left", left),
			AttemptsLeft: &left,
			Reload:       true,
		}, nil
	}

	// Budget exhausted: escalate to the next stage. The old ground truth is
	// cleared so the new stage must issue before it can be answered.
	next := state.Stage.Next()
	state.Stage = next
	state.Truth = nil
	state.IssuedAt = time.Time{}
	m.store.Replace(sessionID, state)

	if next.Terminal() {
		m.log.Info("Verification denied", zap.String("session", sessionID))
		return &models.SubmitResult{
			Message:      "Too many failures, access denied",
			AccessDenied: true,
		}, nil
	}

	return &models.SubmitResult{
		Message:     fmt.Sprintf("Moving to the %s challenge", next),
		Stage:       next.String(),
		StageNumber: next.Number(),
		Progress:    true,
	}, nil
}
