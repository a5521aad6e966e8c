package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"NewsEdge/internal/domain/models"
	"NewsEdge/internal/usecase"
	xhttp "NewsEdge/pkg/http"
	"NewsEdge/pkg/logger"
)

// PredictEchoHandler serves the prediction API surface.
type PredictEchoHandler struct {
	predictor *usecase.Predictor
	logger    *logger.Logger
}

// NewPredictEchoHandler creates the prediction handler.
func NewPredictEchoHandler(predictor *usecase.Predictor, l *logger.Logger) *PredictEchoHandler {
	return &PredictEchoHandler{predictor: predictor, logger: l}
}

// RegisterRoutes registers prediction endpoints.
func (h *PredictEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/predict/live", h.PredictLive)
	g.GET("/model", h.ModelInfo)
	g.GET("/healthz", h.Healthz)
}

// PredictLive handles POST /api/predict/live.
func (h *PredictEchoHandler) PredictLive(c echo.Context) error {
	req := new(models.PredictRequest)
	if errs := xhttp.ReadAndValidateRequest(c, req); errs != nil {
		return xhttp.BadRequestResponse(c, errs)
	}

	prediction, err := h.predictor.Predict(c.Request().Context(), req.Ticker)
	if err != nil {
		h.logger.Warn("prediction failed",
			logger.String("ticker", req.Ticker), logger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	return xhttp.SuccessResponse(c, models.PredictResponse{
		Ticker:         prediction.Ticker,
		Proba:          prediction.Proba,
		Signal:         prediction.Signal,
		Features:       prediction.Features,
		ModelTimestamp: prediction.ModelTimestamp,
	})
}

// ModelInfo handles GET /api/model.
func (h *PredictEchoHandler) ModelInfo(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.predictor.ModelInfo())
}

// Healthz handles GET /api/healthz. 503 until model assets load.
func (h *PredictEchoHandler) Healthz(c echo.Context) error {
	if !h.predictor.Ready() {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
