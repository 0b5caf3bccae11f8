package controller

import (
	"bytes"
	"net/http"

	"github.com/glenmo/lorawan-water-tank-monitor/internal/modules/tank/views"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/utils"
)

func (c *tankControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	cur, history := c.service.State(dashboardHistoryRows)
	data := views.DashboardData{
		Current:        views.NewCurrentData(cur),
		History:        views.NewHistoryData(history, cur.HistoryLength),
		RefreshSeconds: views.RefreshSeconds,
	}

	var buf bytes.Buffer
	if err := views.RenderDashboard(&buf, &data); err != nil {
		c.logger.Error("dashboard template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	utils.WriteHTML(w, buf.Bytes())
}

func (c *tankControllerImpl) handleTankData(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, c.service.Current())
}

func (c *tankControllerImpl) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := parseHistoryLimit(r, c.service.Capacity())
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, c.service.History(limit))
}

func (c *tankControllerImpl) handleCurrentPartial(w http.ResponseWriter, r *http.Request) {
	data := views.NewCurrentData(c.service.Current())

	var buf bytes.Buffer
	if err := views.RenderCurrentPartial(&buf, &data); err != nil {
		c.logger.Error("current partial render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render")
		return
	}
	utils.WriteHTML(w, buf.Bytes())
}

func (c *tankControllerImpl) handleHistoryPartial(w http.ResponseWriter, r *http.Request) {
	cur, history := c.service.State(dashboardHistoryRows)
	data := views.NewHistoryData(history, cur.HistoryLength)

	var buf bytes.Buffer
	if err := views.RenderHistoryPartial(&buf, &data); err != nil {
		c.logger.Error("history partial render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render")
		return
	}
	utils.WriteHTML(w, buf.Bytes())
}
