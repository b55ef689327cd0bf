package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"botgate/internal/captcha"
	"botgate/internal/detector"
	"botgate/internal/models"
	"botgate/internal/session"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticProvider struct{}

func (staticProvider) Challenge(stage models.Stage) (*models.ChallengePayload, *models.GroundTruth, error) {
	return &models.ChallengePayload{Image: "/assets/x.png"}, &models.GroundTruth{Token: "AB12CD"}, nil
}

type humanClassifier struct{}

func (humanClassifier) Predict(features []models.FeatureVector) []detector.Verdict {
	verdicts := make([]detector.Verdict, len(features))
	for i := range verdicts {
		verdicts[i] = detector.VerdictHuman
	}
	return verdicts
}

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(sessions.Sessions("botgate", cookie.NewStore([]byte("test-secret"))))

	store := session.NewStore()
	machine := captcha.NewMachine(store, staticProvider{}, captcha.Settings{
		Attempts: 2,
		Window:   300 * time.Second,
	}, zap.NewNop())
	det := detector.New(humanClassifier{}, 10, zap.NewNop())

	verifyHandler := NewVerifyHandler(zap.NewNop(), machine, store)
	movementHandler := NewMovementHandler(zap.NewNop(), det)

	engine.GET("/start_verification", verifyHandler.StartVerification)
	engine.GET("/get_current_challenge", verifyHandler.GetCurrentChallenge)
	engine.POST("/verify_captcha", verifyHandler.VerifyCaptcha)
	engine.POST("/verify", movementHandler.VerifyMovement)
	return engine
}

// do runs one request, carrying cookies forward.
func do(t *testing.T, engine *gin.Engine, method, target, body string, cookies []*http.Cookie) (*httptest.ResponseRecorder, []*http.Cookie) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if set := rec.Result().Cookies(); len(set) > 0 {
		cookies = set
	}
	return rec, cookies
}

func TestVerificationFlowOverHTTP(t *testing.T) {
	engine := newTestEngine(t)

	rec, cookies := do(t, engine, http.MethodGet, "/start_verification", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var issue models.IssueResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &issue))
	assert.Equal(t, "text", issue.Stage)
	assert.Equal(t, 1, issue.StageNumber)
	assert.Equal(t, 2, issue.AttemptsLeft)
	require.NotNil(t, issue.Payload)
	assert.NotEmpty(t, issue.Payload.Image)

	// First wrong answer burns one attempt.
	rec, cookies = do(t, engine, http.MethodPost, "/verify_captcha", `{"answer":"wrong"}`, cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	var result models.SubmitResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Success)
	require.NotNil(t, result.AttemptsLeft)
	assert.Equal(t, 1, *result.AttemptsLeft)
	assert.True(t, result.Reload)

	// Re-issue, then exhaust the stage: the flow escalates to images.
	rec, cookies = do(t, engine, http.MethodGet, "/get_current_challenge", "", cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, cookies = do(t, engine, http.MethodPost, "/verify_captcha", `{"answer":"wrong"}`, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	result = models.SubmitResult{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Progress)
	assert.Equal(t, "image", result.Stage)

	// Submitting before the next issuance is a precondition failure.
	rec, _ = do(t, engine, http.MethodPost, "/verify_captcha", `{"answer":"AB12CD"}`, cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyCaptchaWithoutSession(t *testing.T) {
	engine := newTestEngine(t)
	rec, _ := do(t, engine, http.MethodPost, "/verify_captcha", `{"answer":"AB12CD"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCorrectAnswerGrantsAccessOverHTTP(t *testing.T) {
	engine := newTestEngine(t)

	_, cookies := do(t, engine, http.MethodGet, "/start_verification", "", nil)
	rec, _ := do(t, engine, http.MethodPost, "/verify_captcha", `{"answer":" ab12cd "}`, cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	var result models.SubmitResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.True(t, result.AccessGranted)
}

func TestVerifyMovementOverHTTP(t *testing.T) {
	engine := newTestEngine(t)

	rec, _ := do(t, engine, http.MethodPost, "/verify", `{"coords":[{"x":1,"y":1,"time":0.01}]}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result models.MovementResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.TooFast)

	coords := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		coords = append(coords, `{"x":`+strconv.Itoa(i*3)+`,"y":`+strconv.Itoa(i*2)+`,"time":`+strconv.Itoa(i)+`}`)
	}
	body := `{"coords":[` + strings.Join(coords, ",") + `]}`
	rec, _ = do(t, engine, http.MethodPost, "/verify", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	result = models.MovementResult{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Passed)
	assert.Zero(t, result.BotRatio)
}
