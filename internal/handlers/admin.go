package handlers

import (
	"net/http"

	"botgate/internal/database"
	"botgate/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"go.uber.org/zap"
)

type AdminHandler struct {
	log *zap.Logger
}

func NewAdminHandler(log *zap.Logger) *AdminHandler {
	return &AdminHandler{log: log}
}

// ShowStats renders a bar chart of verification outcomes per stage from the
// audit trail.
func (h *AdminHandler) ShowStats(c *gin.Context) {
	if database.DB == nil {
		c.String(http.StatusServiceUnavailable, "Audit database is disabled")
		return
	}

	rows, err := repository.CountByStageOutcome()
	if err != nil {
		h.log.Error("Failed to aggregate verification events", zap.Error(err))
		c.String(http.StatusInternalServerError, "Could not load stats")
		return
	}

	chart := generateOutcomeChart(rows)
	if err := chart.Render(c.Writer); err != nil {
		h.log.Error("Failed to render stats chart", zap.Error(err))
	}
}

func generateOutcomeChart(rows []repository.StageOutcomeCount) *charts.Bar {
	stages := make([]string, 0)
	stageIdx := make(map[string]int)
	outcomes := make(map[string][]opts.BarData)

	for _, row := range rows {
		if _, ok := stageIdx[row.Stage]; !ok {
			stageIdx[row.Stage] = len(stages)
			stages = append(stages, row.Stage)
		}
	}
	for _, row := range rows {
		if _, ok := outcomes[row.Outcome]; !ok {
			outcomes[row.Outcome] = make([]opts.BarData, len(stages))
		}
		outcomes[row.Outcome][stageIdx[row.Stage]] = opts.BarData{Value: row.Count}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Verification outcomes by stage",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	bar.SetXAxis(stages)
	for outcome, data := range outcomes {
		bar.AddSeries(outcome, data)
	}
	return bar
}
