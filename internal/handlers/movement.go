package handlers

import (
	"net/http"

	"botgate/internal/detector"
	"botgate/internal/models"
	"botgate/internal/repository"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Labels accepted by the capture endpoint.
var captureLabels = map[string]bool{
	string(detector.VerdictHuman): true,
	string(detector.VerdictBot):   true,
}

type MovementHandler struct {
	log      *zap.Logger
	detector *detector.Detector
}

func NewMovementHandler(log *zap.Logger, det *detector.Detector) *MovementHandler {
	return &MovementHandler{log: log, detector: det}
}

// VerifyMovement scores a batch of raw pointer samples against the
// behavioral classifier.
func (h *MovementHandler) VerifyMovement(c *gin.Context) {
	var req models.MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Failed to bind movement data", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid movement data"})
		return
	}

	result := h.detector.Score(req.Coords)

	if id, ok := sessions.Default(c).Get(sessionKey).(string); ok {
		if err := repository.RecordEvent(id, "movement", models.OutcomeMovement, 0, nil, result.BotRatio); err != nil {
			h.log.Error("Failed to record movement event", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, result)
}

// Capture stores a labeled batch of raw samples for training-data export.
func (h *MovementHandler) Capture(c *gin.Context) {
	var req models.CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Failed to bind capture data", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid capture data"})
		return
	}
	if !captureLabels[req.Label] {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Label must be human or bot"})
		return
	}

	id, _ := sessions.Default(c).Get(sessionKey).(string)
	if err := repository.SaveMovementSamples(id, req.Label, req.Coords); err != nil {
		h.log.Error("Failed to save movement samples", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not save samples"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"saved": len(req.Coords)})
}
