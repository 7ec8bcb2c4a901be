package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"GeoSentry/internal/aggregator"
	"GeoSentry/internal/domain/models"
	"GeoSentry/internal/domain/repository"
	"GeoSentry/internal/usecase"
	xhttp "GeoSentry/pkg/http"
	xlogger "GeoSentry/pkg/logger"
)

// LocationHandler exposes the tracking and query endpoints.
type LocationHandler struct {
	logger    *xlogger.Logger
	engine    *usecase.LocationEngine
	processor *aggregator.Processor
	sink      repository.AlertSink
	hub       *Hub
}

func NewLocationHandler(logger *xlogger.Logger, engine *usecase.LocationEngine, processor *aggregator.Processor, sink repository.AlertSink, hub *Hub) *LocationHandler {
	return &LocationHandler{
		logger:    logger,
		engine:    engine,
		processor: processor,
		sink:      sink,
		hub:       hub,
	}
}

func (h *LocationHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.POST("/location/track", h.Track)
	g.GET("/predictions", h.Predictions)
	g.GET("/subjects/:id/risk", h.SubjectRisk)
	g.GET("/geofences", h.Geofences)
	g.GET("/hotspots", h.Hotspots)
	g.GET("/alerts/recent", h.RecentAlerts)
	g.GET("/aggregator/status", h.AggregatorStatus)

	if h.hub != nil {
		e.GET("/ws/location", h.hub.Serve)
	}
}

func (h *LocationHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *LocationHandler) Track(c echo.Context) error {
	req := &models.TrackRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.engine.Track(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("track usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *LocationHandler) Predictions(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.processor.Snapshot())
}

func (h *LocationHandler) SubjectRisk(c echo.Context) error {
	req := &models.RiskProfileRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.engine.RiskProfile(req.SubjectID, req.Window))
}

func (h *LocationHandler) Geofences(c echo.Context) error {
	statuses := h.engine.GeofenceStatuses(c.Request().Context())
	return xhttp.ListResponse(c, statuses, int64(len(statuses)))
}

func (h *LocationHandler) Hotspots(c echo.Context) error {
	statuses := h.engine.HotspotStatuses(time.Now().UTC())
	return xhttp.ListResponse(c, statuses, int64(len(statuses)))
}

func (h *LocationHandler) RecentAlerts(c echo.Context) error {
	n := xhttp.ParseIntDefault(c.QueryParam("limit"), 20)
	alerts := h.sink.Recent(n)
	return xhttp.ListResponse(c, alerts, int64(len(alerts)))
}

func (h *LocationHandler) AggregatorStatus(c echo.Context) error {
	snap := h.processor.Snapshot()
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"window_incidents": h.processor.WindowSize(),
		"last_update":      snap.LastUpdate,
		"hotspot_count":    len(snap.Hotspots),
		"trend_count":      len(snap.Trends),
		"risk_area_count":  len(snap.RiskAreas),
	})
}
