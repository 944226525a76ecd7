package web

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"palmwatch/internal/models"
	"palmwatch/internal/telemetry"
	"palmwatch/internal/web/middleware"
	webModels "palmwatch/internal/web/models"
)

var fixedNow = time.Date(2025, 4, 10, 8, 30, 0, 0, time.UTC)

func testSeed() models.Snapshot {
	return models.Snapshot{
		Temperature:        32,
		AvgSoilMoisture:    68,
		HealthyTreeCount:   38,
		ActiveMachineCount: 1,
		Machines: []models.Machine{
			{ID: "machine-1", Name: "Harvester A1", Type: models.MachineHarvester, Temperature: 88, FuelLevel: 82},
			{ID: "machine-2", Name: "Frond Cutter C1", Type: models.MachineFrondCutter, Temperature: 72, FuelLevel: 45},
		},
		Trees: []models.Tree{
			{ID: 1, HealthScore: 90},
			{ID: 2, HealthScore: 55},
			{ID: 3, HealthScore: 20},
			{ID: 4, HealthScore: 75},
		},
		Alerts: []models.Alert{
			{ID: "alert-1", Type: models.SeverityWarning, Source: "Tree #14", Message: "Low soil moisture detected"},
			{ID: "alert-2", Type: models.SeverityCritical, Source: "Harvester A1", Message: "Maintenance required"},
			{ID: "alert-3", Type: models.SeverityInfo, Source: "Weather", Message: "Rain expected"},
		},
		ActivityLog: []models.Activity{
			{ID: "activity-1", Action: "Harvested", Target: "Block A", User: "John Smith"},
			{ID: "activity-2", Action: "Fertilized", Target: "Block C", User: "Maria Garcia"},
		},
		Mode: models.ModeSimulated,
	}
}

func TestWebServerSuite(t *testing.T) {
	suite.Run(t, new(WebServerTestSuite))
}

type WebServerTestSuite struct {
	suite.Suite
	store  *telemetry.Store
	server *WebServer
}

func (s *WebServerTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
}

func (s *WebServerTestSuite) SetupTest() {
	s.store = telemetry.NewStore(
		telemetry.WithSeed(testSeed()),
		telemetry.WithRand(rand.New(rand.NewSource(1))),
		telemetry.WithClock(func() time.Time { return fixedNow }),
	)
	s.server = NewWebServer(s.store)
}

func (s *WebServerTestSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(w, req)
	return w
}

func (s *WebServerTestSuite) decode(w *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), v))
}

func (s *WebServerTestSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", "")
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"ok"}`, w.Body.String())
}

func (s *WebServerTestSuite) TestRequestID() {
	w := s.do(http.MethodGet, "/health", "")
	s.NotEmpty(w.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	w = httptest.NewRecorder()
	s.server.Handler().ServeHTTP(w, req)
	s.Equal("req-42", w.Header().Get(middleware.RequestIDHeader))
}

func (s *WebServerTestSuite) TestGetSnapshot() {
	w := s.do(http.MethodGet, "/api/snapshot", "")
	s.Equal(http.StatusOK, w.Code)

	var snap models.Snapshot
	s.decode(w, &snap)
	s.Equal(testSeed(), snap)
}

func (s *WebServerTestSuite) TestPatchSnapshot() {
	w := s.do(http.MethodPatch, "/api/snapshot", `{"temperature": 29.5, "mode": "live"}`)
	s.Equal(http.StatusOK, w.Code)

	var snap models.Snapshot
	s.decode(w, &snap)
	s.Equal(29.5, snap.Temperature)
	s.Equal(models.ModeLive, snap.Mode)
	s.Equal(68.0, snap.AvgSoilMoisture)
	s.Equal(snap, s.store.Snapshot())
}

func (s *WebServerTestSuite) TestPatchSnapshotRejectsBadBodies() {
	for _, body := range []string{`{"temperature":`, `{"temprature": 1}`, `{}`, `{"temperature": 1} garbage`} {
		w := s.do(http.MethodPatch, "/api/snapshot", body)
		s.Equal(http.StatusBadRequest, w.Code, body)
	}
	s.Equal(testSeed(), s.store.Snapshot())
}

func (s *WebServerTestSuite) TestToggles() {
	var camera webModels.CameraToggleResponse
	s.decode(s.do(http.MethodPost, "/api/camera/toggle", ""), &camera)
	s.True(camera.CameraActive)
	s.decode(s.do(http.MethodPost, "/api/camera/toggle", ""), &camera)
	s.False(camera.CameraActive)

	var mode webModels.ModeToggleResponse
	s.decode(s.do(http.MethodPost, "/api/mode/toggle", ""), &mode)
	s.Equal(models.ModeLive, mode.Mode)
	s.Equal(models.ModeLive, s.store.Snapshot().Mode)
}

func (s *WebServerTestSuite) TestMachines() {
	var machines []webModels.MachineResponse
	w := s.do(http.MethodGet, "/api/machines", "")
	s.Equal(http.StatusOK, w.Code)
	s.decode(w, &machines)
	s.Require().Len(machines, 2)
	s.Equal(telemetry.LevelCritical, machines[0].TemperatureLevel)
	s.Equal(telemetry.LevelWarning, machines[1].FuelLevelStatus)

	var machine webModels.MachineResponse
	w = s.do(http.MethodGet, "/api/machines/machine-2", "")
	s.Equal(http.StatusOK, w.Code)
	s.decode(w, &machine)
	s.Equal("Frond Cutter C1", machine.Name)
	s.Equal(telemetry.LevelNormal, machine.TemperatureLevel)

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/machines/machine-9", "").Code)
}

func (s *WebServerTestSuite) TestMachineOEE() {
	var points []telemetry.OEEPoint
	w := s.do(http.MethodGet, "/api/machines/oee", "")
	s.Equal(http.StatusOK, w.Code)
	s.decode(w, &points)
	s.Require().Len(points, 7)
	s.Equal("Apr 10", points[6].Date)

	s.decode(s.do(http.MethodGet, "/api/machines/oee?days=3", ""), &points)
	s.Len(points, 3)

	for _, days := range []string{"0", "31", "week"} {
		s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/machines/oee?days="+days, "").Code, days)
	}
}

func (s *WebServerTestSuite) TestTrees() {
	var trees []webModels.TreeResponse
	s.decode(s.do(http.MethodGet, "/api/trees", ""), &trees)
	s.Require().Len(trees, 4)
	s.Equal(telemetry.HealthCaution, trees[1].HealthStatus)

	var tree webModels.TreeResponse
	w := s.do(http.MethodGet, "/api/trees/3", "")
	s.Equal(http.StatusOK, w.Code)
	s.decode(w, &tree)
	s.Equal(3, tree.ID)
	s.Equal(telemetry.HealthCritical, tree.HealthStatus)

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/trees/99", "").Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/trees/abc", "").Code)
}

func (s *WebServerTestSuite) TestTreeSummary() {
	var summary webModels.TreeSummaryResponse
	s.decode(s.do(http.MethodGet, "/api/trees/summary", ""), &summary)
	s.Equal(webModels.TreeSummaryResponse{Total: 4, Healthy: 2, Caution: 1, Critical: 1}, summary)
}

func (s *WebServerTestSuite) TestAlerts() {
	var alerts []models.Alert
	s.decode(s.do(http.MethodGet, "/api/alerts", ""), &alerts)
	s.Len(alerts, 3)

	s.decode(s.do(http.MethodGet, "/api/alerts?severity=critical", ""), &alerts)
	s.Require().Len(alerts, 1)
	s.Equal("alert-2", alerts[0].ID)

	s.decode(s.do(http.MethodGet, "/api/alerts?severity=all&q=RAIN", ""), &alerts)
	s.Require().Len(alerts, 1)
	s.Equal("alert-3", alerts[0].ID)

	s.decode(s.do(http.MethodGet, "/api/alerts?q=nothing", ""), &alerts)
	s.Empty(alerts)

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/alerts?severity=urgent", "").Code)
}

func (s *WebServerTestSuite) TestActivity() {
	var entries []models.Activity
	s.decode(s.do(http.MethodGet, "/api/activity?q=maria", ""), &entries)
	s.Require().Len(entries, 1)
	s.Equal("activity-2", entries[0].ID)

	s.decode(s.do(http.MethodGet, "/api/activity", ""), &entries)
	s.Len(entries, 2)
}

func (s *WebServerTestSuite) TestStream() {
	ts := httptest.NewServer(s.server.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var snap models.Snapshot
	s.Require().NoError(conn.ReadJSON(&snap))
	s.False(snap.CameraActive)

	// the first frame is written after the subscription exists
	s.store.ToggleCamera()
	s.Require().NoError(conn.ReadJSON(&snap))
	s.True(snap.CameraActive)

	ticked := s.store.Tick()
	s.Require().NoError(conn.ReadJSON(&snap))
	s.Equal(ticked, snap)
}

func (s *WebServerTestSuite) TestShutdownClosesStreams() {
	ts := httptest.NewServer(s.server.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var snap models.Snapshot
	s.Require().NoError(conn.ReadJSON(&snap))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Require().NoError(s.server.Shutdown(ctx))

	_, _, err = conn.ReadMessage()
	s.True(websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
