package handlers

import (
	"errors"
	"net/http"

	"botgate/internal/captcha"
	"botgate/internal/models"
	"botgate/internal/repository"
	"botgate/internal/session"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// sessionKey names the cookie-session field holding the opaque verification
// session identifier. The cookie carries only the ID; all state lives
// server-side.
const sessionKey = "verificationID"

type VerifyHandler struct {
	log     *zap.Logger
	machine *captcha.Machine
	store   *session.Store
}

func NewVerifyHandler(log *zap.Logger, machine *captcha.Machine, store *session.Store) *VerifyHandler {
	return &VerifyHandler{log: log, machine: machine, store: store}
}

// sessionID returns the caller's verification session identifier, minting
// one when create is set.
func (h *VerifyHandler) sessionID(c *gin.Context, create bool) (string, bool) {
	sess := sessions.Default(c)
	if id, ok := sess.Get(sessionKey).(string); ok && id != "" {
		return id, true
	}
	if !create {
		return "", false
	}

	id := h.store.NewID()
	sess.Set(sessionKey, id)
	if err := sess.Save(); err != nil {
		h.log.Error("Failed to save session cookie", zap.Error(err))
		return "", false
	}
	return id, true
}

// StartVerification resets the flow to the text stage and returns the first
// challenge. Restarting mid-flow discards previous progress.
func (h *VerifyHandler) StartVerification(c *gin.Context) {
	id, ok := h.sessionID(c, true)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not establish a session"})
		return
	}

	h.machine.Start(id)
	issue, err := h.machine.IssueChallenge(id)
	if err != nil {
		h.log.Error("Failed to issue first challenge", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not issue a challenge"})
		return
	}
	c.JSON(http.StatusOK, issue)
}

// GetCurrentChallenge issues a fresh challenge for the session's current
// stage, replacing any previous ground truth.
func (h *VerifyHandler) GetCurrentChallenge(c *gin.Context) {
	id, ok := h.sessionID(c, false)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Start verification first"})
		return
	}

	issue, err := h.machine.IssueChallenge(id)
	if err != nil {
		if errors.Is(err, captcha.ErrNoSession) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Start verification first"})
			return
		}
		h.log.Error("Failed to issue challenge", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not issue a challenge"})
		return
	}
	c.JSON(http.StatusOK, issue)
}

// VerifyCaptcha checks a submitted answer against the active challenge.
// Precondition failures (no session, no issued challenge) cost nothing and
// are reported distinctly from wrong answers.
func (h *VerifyHandler) VerifyCaptcha(c *gin.Context) {
	id, ok := h.sessionID(c, false)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Start verification first"})
		return
	}

	var sub models.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		h.log.Warn("Failed to bind submission", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid submission"})
		return
	}

	// Capture the stage being answered before the machine mutates or
	// destroys the session.
	stage := models.StageText
	if state, ok := h.store.Get(id); ok {
		stage = state.Stage
	}

	result, err := h.machine.SubmitAnswer(id, sub)
	if err != nil {
		switch {
		case errors.Is(err, captcha.ErrNoSession):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Start verification first"})
		case errors.Is(err, captcha.ErrNoChallenge):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Request a challenge before answering"})
		default:
			h.log.Error("Failed to process submission", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not process submission"})
		}
		return
	}

	h.recordOutcome(id, stage, result, sub)
	c.JSON(http.StatusOK, result)
}

// recordOutcome appends an audit event. Best-effort: a failed write is
// logged and never surfaces to the client.
func (h *VerifyHandler) recordOutcome(id string, stage models.Stage, result *models.SubmitResult, sub models.Submission) {
	outcome := models.OutcomeFailed
	attemptsLeft := 0
	switch {
	case result.AccessGranted:
		outcome = models.OutcomeGranted
	case result.AccessDenied:
		outcome = models.OutcomeDenied
	case result.Expired:
		outcome = models.OutcomeExpired
	case result.Progress:
		outcome = models.OutcomeProgress
	default:
		if result.AttemptsLeft != nil {
			attemptsLeft = *result.AttemptsLeft
		}
	}

	if err := repository.RecordEvent(id, stage.String(), outcome, attemptsLeft, sub.Selected, 0); err != nil {
		h.log.Error("Failed to record verification event", zap.Error(err))
	}
}
