package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/lootsim/resource"
)

// ZoneHandler serves zone listings and spawn configurations.
type ZoneHandler struct {
	res *resource.ResourceLoader
}

// NewZoneHandler creates a ZoneHandler.
func NewZoneHandler(res *resource.ResourceLoader) *ZoneHandler {
	return &ZoneHandler{res: res}
}

type zoneSummary struct {
	ID      string `json:"id"`
	Slug    string `json:"slug"`
	Name    string `json:"name"`
	HasBoss bool   `json:"has_boss"`
}

type spawnView struct {
	MonsterID string  `json:"monster_id"`
	Name      string  `json:"name"`
	Rate      float64 `json:"rate"`
	Strength  float64 `json:"strength"`
}

type bossView struct {
	MonsterID string `json:"monster_id"`
	Name      string `json:"name"`
}

// List handles GET /api/zones.
func (h *ZoneHandler) List(c *gin.Context) {
	zones := h.res.Zones()
	out := make([]zoneSummary, 0, len(zones))
	for _, z := range zones {
		out = append(out, zoneSummary{
			ID:      z.ID,
			Slug:    resource.Slug(z.ID),
			Name:    z.Name,
			HasBoss: len(z.SpawnInfo.BossFightMonsters) > 0,
		})
	}
	c.JSON(http.StatusOK, gin.H{"zones": out})
}

// Get handles GET /api/zones/:zone. The zone may be given by id or slug.
func (h *ZoneHandler) Get(c *gin.Context) {
	z := h.res.ResolveZone(c.Param("zone"))
	if z == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "zone not found"})
		return
	}
	si := z.SpawnInfo
	spawns := make([]spawnView, 0, len(si.Spawns))
	for _, sp := range si.Spawns {
		spawns = append(spawns, spawnView{
			MonsterID: sp.MonsterID,
			Name:      h.monsterName(sp.MonsterID),
			Rate:      sp.Rate,
			Strength:  sp.Strength,
		})
	}
	bosses := make([]bossView, 0, len(si.BossFightMonsters))
	for _, id := range si.BossFightMonsters {
		bosses = append(bosses, bossView{MonsterID: id, Name: h.monsterName(id)})
	}
	c.JSON(http.StatusOK, gin.H{
		"id":                 z.ID,
		"slug":               resource.Slug(z.ID),
		"name":               z.Name,
		"max_spawn_count":    si.MaxSpawnCount,
		"max_total_strength": si.MaxTotalStrength,
		"spawns":             spawns,
		"boss_fight":         bosses,
	})
}

// monsterName falls back to the id for monsters missing from the data.
func (h *ZoneHandler) monsterName(id string) string {
	if m := h.res.MonsterByID(id); m != nil {
		return m.Name
	}
	return id
}
