package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/lootsim/audit"
	"github.com/kasuganosora/lootsim/resource"
	"github.com/kasuganosora/lootsim/scheduler"
	"go.uber.org/zap"
)

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by the AdminKey middleware.
type AdminHandler struct {
	res    *resource.ResourceLoader
	sched  *scheduler.Scheduler
	runs   *audit.Service
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(
	res *resource.ResourceLoader,
	sched *scheduler.Scheduler,
	runs *audit.Service,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{res: res, sched: sched, runs: runs, logger: logger}
}

// Reload re-reads every game data file. Dangling references are reported as
// warnings; the new data is served regardless.
// POST /api/admin/reload
func (h *AdminHandler) Reload(c *gin.Context) {
	if err := h.res.Load(); err != nil {
		h.logger.Error("game data reload failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	warnings := []string{}
	if err := h.res.Validate(); err != nil {
		warnings = splitJoined(err)
		h.logger.Warn("game data has dangling references", zap.Int("count", len(warnings)))
	}
	zones, monsters, items, market := h.res.Counts()
	h.logger.Info("game data reloaded",
		zap.Int("zones", zones), zap.Int("monsters", monsters), zap.Int("items", items))
	c.JSON(http.StatusOK, gin.H{
		"zones":    zones,
		"monsters": monsters,
		"items":    items,
		"market":   market,
		"warnings": warnings,
	})
}

// RefreshMarket re-reads only the market price file.
// POST /api/admin/market/refresh
func (h *AdminHandler) RefreshMarket(c *gin.Context) {
	if err := h.res.ReloadMarket(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"market_time": h.res.MarketTime()})
}

// ListRuns returns the newest simulation runs.
// GET /api/admin/runs?account_id=&limit=
func (h *AdminHandler) ListRuns(c *gin.Context) {
	var accountID int64
	if raw := c.Query("account_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account_id"})
			return
		}
		accountID = id
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	runs, err := h.runs.Recent(c.Request.Context(), accountID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// ListSchedulerTasks returns every background task with its last outcome.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.Status()})
}

// splitJoined flattens an errors.Join result into messages.
func splitJoined(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		out := []string{}
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
