package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/lootsim/api/rest"
	"github.com/kasuganosora/lootsim/audit"
	"github.com/kasuganosora/lootsim/config"
	"github.com/kasuganosora/lootsim/game/sim"
	mw "github.com/kasuganosora/lootsim/middleware"
	"github.com/kasuganosora/lootsim/resource"
	"github.com/kasuganosora/lootsim/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func nopLogger() *zap.Logger { return zap.NewNop() }

var testSec = config.SecurityConfig{
	JWTSecret: "test-secret",
	JWTTTLH:   72 * time.Hour,
}

var testGame = config.GameConfig{
	DefaultKPH: 100,
	MaxKPH:     5000,
	Seed:       42,
}

// runRecorder collects run log entries in memory.
type runRecorder struct {
	mu      sync.Mutex
	entries []audit.RunEntry
}

func (r *runRecorder) Log(e audit.RunEntry) {
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
}

func (r *runRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

type testServer struct {
	r    *gin.Engine
	db   *gorm.DB
	res  *resource.ResourceLoader
	runs *runRecorder
}

// newTestServer wires the player-facing API against the sample data.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	res := resource.NewLoader("../../data")
	require.NoError(t, res.Load())

	engine := sim.NewEngine(res, testGame.Seed, nopLogger())
	store := sim.NewSnapshotStore(c, res, time.Hour, nopLogger())
	runs := &runRecorder{}

	authH := rest.NewAuthHandler(db, c, testSec, testGame.MaxKPH)
	zoneH := rest.NewZoneHandler(res)
	simH := rest.NewSimHandler(db, res, engine, store, runs, testGame, nopLogger())
	priceH := rest.NewPriceHandler(db, res)

	r := gin.New()
	r.Use(mw.TraceID())
	api := r.Group("/api")
	api.POST("/auth/login", authH.Login)
	api.POST("/auth/logout", mw.Auth(testSec, c), authH.Logout)
	api.POST("/auth/refresh", mw.Auth(testSec, c), authH.Refresh)

	authed := api.Group("", mw.Auth(testSec, c))
	authed.GET("/account", authH.Me)
	authed.PUT("/account", authH.UpdateSettings)
	authed.GET("/zones", zoneH.List)
	authed.GET("/zones/:zone", zoneH.Get)
	authed.GET("/zones/:zone/encounters", simH.Encounters)
	authed.GET("/zones/:zone/loot", simH.Loot)
	authed.GET("/prices", priceH.List)
	authed.PUT("/prices/:item", priceH.Put)
	authed.DELETE("/prices/:item", priceH.Delete)

	return &testServer{r: r, db: db, res: res, runs: runs}
}

func doJSON(r *gin.Engine, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postJSON(r *gin.Engine, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	return doJSON(r, http.MethodPost, path, body, headers...)
}

// login registers (or logs in) username and returns an Authorization header pair.
func login(t *testing.T, r *gin.Engine, username string) []string {
	t.Helper()
	w := postJSON(r, "/api/auth/login", map[string]string{"username": username, "password": "pass1234"})
	require.Equal(t, 200, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return []string{"Authorization", "Bearer " + resp.Token}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}
