package captcha

import (
	"errors"
	"testing"
	"time"

	"botgate/internal/models"
	"botgate/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeProvider hands out fixed ground truth per stage.
type fakeProvider struct {
	fail bool
}

func (p fakeProvider) Challenge(stage models.Stage) (*models.ChallengePayload, *models.GroundTruth, error) {
	if p.fail {
		return nil, nil, errors.New("asset generator unavailable")
	}
	switch stage {
	case models.StageText:
		return &models.ChallengePayload{Image: "/assets/t.png"}, &models.GroundTruth{Token: "AB12CD"}, nil
	case models.StageImage:
		return &models.ChallengePayload{Images: []string{"a", "b", "c"}, Category: "cats"},
			&models.GroundTruth{Indices: []int{0, 2, 5}}, nil
	case models.StagePart:
		return &models.ChallengePayload{Image: "/assets/p.png", Category: "wheel"},
			&models.GroundTruth{Box: &models.BoundingBox{MinX: 40, MinY: 40, MaxX: 160, MaxY: 140}}, nil
	default:
		return &models.ChallengePayload{Audio: "/assets/v.wav"}, &models.GroundTruth{Token: "seven"}, nil
	}
}

func newTestMachine(t *testing.T, provider Provider) (*Machine, *session.Store) {
	t.Helper()
	store := session.NewStore()
	machine := NewMachine(store, provider, Settings{
		Attempts: 2,
		Window:   300 * time.Second,
	}, zap.NewNop())
	return machine, store
}

func TestSubmitWithoutSession(t *testing.T) {
	machine, _ := newTestMachine(t, fakeProvider{})
	_, err := machine.SubmitAnswer("nobody", models.Submission{Answer: "x"})
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSubmitWithoutIssuedChallenge(t *testing.T) {
	machine, _ := newTestMachine(t, fakeProvider{})
	machine.Start("sid")
	_, err := machine.SubmitAnswer("sid", models.Submission{Answer: "AB12CD"})
	assert.ErrorIs(t, err, ErrNoChallenge)
}

func TestIssueReturnsPayloadNotTruth(t *testing.T) {
	machine, store := newTestMachine(t, fakeProvider{})
	machine.Start("sid")

	issue, err := machine.IssueChallenge("sid")
	require.NoError(t, err)
	assert.Equal(t, "text", issue.Stage)
	assert.Equal(t, 1, issue.StageNumber)
	assert.Equal(t, 2, issue.AttemptsLeft)
	assert.Equal(t, "/assets/t.png", issue.Payload.Image)

	state, ok := store.Get("sid")
	require.True(t, ok)
	assert.Equal(t, "AB12CD", state.Truth.Token)
	assert.False(t, state.IssuedAt.IsZero())
}

func TestProviderFailureLeavesSessionIntact(t *testing.T) {
	machine, store := newTestMachine(t, fakeProvider{fail: true})
	machine.Start("sid")

	_, err := machine.IssueChallenge("sid")
	require.Error(t, err)

	state, ok := store.Get("sid")
	require.True(t, ok)
	assert.Equal(t, models.StageText, state.Stage)
	assert.Nil(t, state.Truth)
}

func TestCorrectAnswerGrantsAndClearsSession(t *testing.T) {
	machine, store := newTestMachine(t, fakeProvider{})
	machine.Start("sid")
	_, err := machine.IssueChallenge("sid")
	require.NoError(t, err)

	// Case-insensitive, trimmed.
	result, err := machine.SubmitAnswer("sid", models.Submission{Answer: "ab12cd"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.AccessGranted)

	_, ok := store.Get("sid")
	assert.False(t, ok, "session must be destroyed on success")
}

func TestWrongAnswerBurnsAttemptAndReloads(t *testing.T) {
	machine, _ := newTestMachine(t, fakeProvider{})
	machine.Start("sid")
	_, err := machine.IssueChallenge("sid")
	require.NoError(t, err)

	result, err := machine.SubmitAnswer("sid", models.Submission{Answer: "AB12C"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.NotNil(t, result.AttemptsLeft)
	assert.Equal(t, 1, *result.AttemptsLeft)
	assert.True(t, result.Reload)

	// The challenge stays answerable after a miss: an immediate second
	// wrong answer, with no re-issue in between, exhausts the stage and
	// escalates.
	result, err = machine.SubmitAnswer("sid", models.Submission{Answer: "AB12X"})
	require.NoError(t, err)
	assert.True(t, result.Progress)
	assert.Equal(t, "image", result.Stage)
}

func TestRetryAfterWrongAnswerCanStillGrant(t *testing.T) {
	machine, store := newTestMachine(t, fakeProvider{})
	machine.Start("sid")
	_, err := machine.IssueChallenge("sid")
	require.NoError(t, err)

	result, err := machine.SubmitAnswer("sid", models.Submission{Answer: "wrong"})
	require.NoError(t, err)
	require.NotNil(t, result.AttemptsLeft)
	assert.Equal(t, 1, *result.AttemptsLeft)

	result, err = machine.SubmitAnswer("sid", models.Submission{Answer: "AB12CD"})
	require.NoError(t, err)
	assert.True(t, result.AccessGranted)

	_, ok := store.Get("sid")
	assert.False(t, ok, "session must be destroyed on success")
}

// failStage burns the full budget of the current stage.
func failStage(t *testing.T, machine *Machine, sid string) *models.SubmitResult {
	t.Helper()
	var last *models.SubmitResult
	for i := 0; i < 2; i++ {
		_, err := machine.IssueChallenge(sid)
		require.NoError(t, err)
		result, err := machine.SubmitAnswer(sid, models.Submission{Answer: "nope", Selected: []int{9}, X: -1, Y: -1})
		require.NoError(t, err)
		last = result
	}
	return last
}

func TestExhaustionWalksForwardToDenied(t *testing.T) {
	machine, store := newTestMachine(t, fakeProvider{})
	machine.Start("sid")

	result := failStage(t, machine, "sid")
	assert.True(t, result.Progress)
	assert.Equal(t, "image", result.Stage)

	result = failStage(t, machine, "sid")
	assert.True(t, result.Progress)
	assert.Equal(t, "part", result.Stage)

	result = failStage(t, machine, "sid")
	assert.True(t, result.Progress)
	assert.Equal(t, "voice", result.Stage)

	result = failStage(t, machine, "sid")
	assert.True(t, result.AccessDenied)

	// Denied is absorbing: no more challenges, no more answers.
	state, ok := store.Get("sid")
	require.True(t, ok)
	assert.Equal(t, models.StageDenied, state.Stage)

	issue, err := machine.IssueChallenge("sid")
	require.NoError(t, err)
	assert.True(t, issue.AccessDenied)

	submit, err := machine.SubmitAnswer("sid", models.Submission{Answer: "anything"})
	require.NoError(t, err)
	assert.True(t, submit.AccessDenied)

	// Attempt counters never go negative.
	for stage, left := range state.Attempts {
		assert.GreaterOrEqual(t, left, 0, "stage %s", stage)
	}
}

func TestStagesNeverMoveBackward(t *testing.T) {
	machine, store := newTestMachine(t, fakeProvider{})
	machine.Start("sid")

	seen := models.StageText
	for i := 0; i < 8; i++ {
		state, ok := store.Get("sid")
		require.True(t, ok)
		assert.GreaterOrEqual(t, int(state.Stage), int(seen))
		seen = state.Stage
		if state.Stage.Terminal() {
			break
		}
		_, err := machine.IssueChallenge("sid")
		require.NoError(t, err)
		_, err = machine.SubmitAnswer("sid", models.Submission{Answer: "wrong"})
		require.NoError(t, err)
	}
}

func TestExpiredChallengeCostsNothing(t *testing.T) {
	machine, store := newTestMachine(t, fakeProvider{})
	machine.Start("sid")
	_, err := machine.IssueChallenge("sid")
	require.NoError(t, err)

	machine.now = func() time.Time { return time.Now().Add(301 * time.Second) }
	result, err := machine.SubmitAnswer("sid", models.Submission{Answer: "AB12CD"})
	require.NoError(t, err)
	assert.True(t, result.Expired)
	assert.False(t, result.Success)

	state, ok := store.Get("sid")
	require.True(t, ok)
	assert.Equal(t, models.StageText, state.Stage)
	assert.Equal(t, 2, state.Attempts[models.StageText])
}

func TestGroundTruthReplacedOnReissue(t *testing.T) {
	machine, store := newTestMachine(t, fakeProvider{})
	machine.Start("sid")

	_, err := machine.IssueChallenge("sid")
	require.NoError(t, err)
	first, _ := store.Get("sid")

	_, err = machine.IssueChallenge("sid")
	require.NoError(t, err)
	second, _ := store.Get("sid")

	assert.Equal(t, first.Truth.Token, second.Truth.Token)
	assert.False(t, second.IssuedAt.Before(first.IssuedAt))
}

func TestStartIsIdempotentRestart(t *testing.T) {
	machine, store := newTestMachine(t, fakeProvider{})
	machine.Start("sid")
	failStage(t, machine, "sid") // now at image stage

	machine.Start("sid")
	state, ok := store.Get("sid")
	require.True(t, ok)
	assert.Equal(t, models.StageText, state.Stage)
	assert.Equal(t, 2, state.Attempts[models.StageImage])
	assert.Nil(t, state.Truth)
}
