package rest

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/lootsim/audit"
	"github.com/kasuganosora/lootsim/config"
	"github.com/kasuganosora/lootsim/game/loot"
	"github.com/kasuganosora/lootsim/game/sim"
	mw "github.com/kasuganosora/lootsim/middleware"
	"github.com/kasuganosora/lootsim/model"
	"github.com/kasuganosora/lootsim/resource"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RunLog receives freshly drawn snapshots. *audit.Service implements it.
type RunLog interface {
	Log(entry audit.RunEntry)
}

// Display precision of formatted figures.
const (
	rateDecimals = 3
	dropDecimals = 2
	coinDecimals = 0
)

// SimHandler serves encounter-rate and loot reports. Each account keeps one
// snapshot slot, so repeated requests for the same zone and throughput reuse
// the same random draw.
type SimHandler struct {
	db     *gorm.DB
	res    *resource.ResourceLoader
	engine *sim.Engine
	store  *sim.SnapshotStore
	runs   RunLog
	game   config.GameConfig
	logger *zap.Logger
}

// NewSimHandler creates a SimHandler. runs may be nil.
func NewSimHandler(
	db *gorm.DB,
	res *resource.ResourceLoader,
	engine *sim.Engine,
	store *sim.SnapshotStore,
	runs RunLog,
	game config.GameConfig,
	logger *zap.Logger,
) *SimHandler {
	return &SimHandler{db: db, res: res, engine: engine, store: store, runs: runs, game: game, logger: logger}
}

type rateView struct {
	sim.RateRow
	Display string `json:"display"`
}

type recordView struct {
	loot.Record
	DropsDisplay       string `json:"drops_display"`
	CoinPerItemDisplay string `json:"coin_per_item_display"`
	CoinDisplay        string `json:"coin_display"`
}

// maxThroughput bounds kph when no limit is configured.
const maxThroughput = math.MaxInt32

// ParseThroughput reads a kph value. Fractions are truncated; values above
// limit (or maxThroughput when limit <= 0) are rejected before conversion.
// Zero and negative values become 0 and produce empty reports.
func ParseThroughput(raw string, limit int) (int, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid kph %q", raw)
	}
	v = math.Trunc(v)
	if v <= 0 {
		return 0, nil
	}
	if limit <= 0 {
		limit = maxThroughput
	}
	if v > float64(limit) {
		return 0, fmt.Errorf("kph %s exceeds limit %d", raw, limit)
	}
	return int(v), nil
}

// throughput resolves the kph for a request: the query parameter, else the
// account default, else the server default.
func (h *SimHandler) throughput(c *gin.Context) (int, error) {
	if raw, ok := c.GetQuery("kph"); ok {
		return ParseThroughput(raw, h.game.MaxKPH)
	}
	var acc model.Account
	if err := h.db.WithContext(c.Request.Context()).
		Select("default_kph").First(&acc, mw.GetAccountID(c)).Error; err == nil && acc.DefaultKPH > 0 {
		return acc.DefaultKPH, nil
	}
	return h.game.DefaultKPH, nil
}

// snapshot resolves the zone and throughput and returns the account's
// snapshot for them, drawing a new one only when either changed.
func (h *SimHandler) snapshot(c *gin.Context) (*resource.Zone, *sim.Snapshot, bool, bool) {
	zone := h.res.ResolveZone(c.Param("zone"))
	if zone == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "zone not found"})
		return nil, nil, false, false
	}
	n, err := h.throughput(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil, false, false
	}

	key := sim.Key{ZoneID: zone.ID, Throughput: n}
	build := func(k sim.Key) (*sim.Snapshot, error) {
		start := time.Now()
		snap, err := h.engine.Run(k)
		if err != nil {
			return nil, err
		}
		if h.runs != nil {
			h.runs.Log(audit.RunEntry{
				TraceID:    mw.GetTraceID(c),
				AccountID:  mw.GetAccountID(c),
				ZoneID:     k.ZoneID,
				Throughput: k.Throughput,
				Seed:       snap.Seed,
				Encounters: snap.Encounters,
				BossFights: snap.BossFights,
				Rates:      snap.Rates,
				Duration:   time.Since(start),
			})
		}
		return snap, nil
	}
	snap, hit, err := h.store.Get(c.Request.Context(), mw.Owner(c), key, build)
	if err != nil {
		respondError(c, err)
		return nil, nil, false, false
	}
	return zone, snap, hit, true
}

// Encounters handles GET /api/zones/:zone/encounters?kph=.
func (h *SimHandler) Encounters(c *gin.Context) {
	zone, snap, hit, ok := h.snapshot(c)
	if !ok {
		return
	}
	rows, err := h.engine.RateRows(snap)
	if err != nil {
		respondError(c, err)
		return
	}
	rates := make([]rateView, 0, len(rows))
	for _, r := range rows {
		rates = append(rates, rateView{RateRow: r, Display: loot.FormatFigure(r.Rate, rateDecimals)})
	}
	c.JSON(http.StatusOK, gin.H{
		"zone_id":     zone.ID,
		"zone_name":   zone.Name,
		"throughput":  snap.Throughput,
		"encounters":  snap.Encounters,
		"boss_fights": snap.BossFights,
		"seed":        snap.Seed,
		"cached":      hit,
		"rates":       rates,
	})
}

// Loot handles GET /api/zones/:zone/loot?kph=&per=hour|day. Price overrides
// and the per toggle never redraw the snapshot.
func (h *SimHandler) Loot(c *gin.Context) {
	scale, err := loot.ParseScale(c.Query("per"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	zone, snap, hit, ok := h.snapshot(c)
	if !ok {
		return
	}
	overrides, err := LoadOverrides(c.Request.Context(), h.db, mw.GetAccountID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	rep, err := h.engine.Loot(snap, overrides, scale)
	if err != nil {
		respondError(c, err)
		return
	}

	records := make([]recordView, 0, len(rep.Records))
	for _, r := range rep.Records {
		records = append(records, recordView{
			Record:             r,
			DropsDisplay:       loot.FormatFigure(r.DropsPerHour, dropDecimals),
			CoinPerItemDisplay: loot.FormatFigure(r.CoinPerItem, coinDecimals),
			CoinDisplay:        loot.FormatFigure(r.CoinPerHour, coinDecimals),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"zone_id":       zone.ID,
		"zone_name":     zone.Name,
		"throughput":    rep.Throughput,
		"per":           rep.Scale,
		"cached":        hit,
		"records":       records,
		"total":         rep.Total,
		"total_display": loot.FormatFigure(rep.Total, coinDecimals),
		"market_time":   h.res.MarketTime(),
	})
}
