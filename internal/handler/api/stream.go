package api

import (
	"net/http"
	"sync"

	models "TriSight/internal/domain/models"
	"TriSight/internal/usecase"
	xlogger "TriSight/pkg/logger"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

var streamValidate = validator.New()

// streamMessage is the envelope for every frame sent over the socket.
type streamMessage struct {
	Type   string                   `json:"type"` // stage | result | error
	Stage  *usecase.StageEvent      `json:"stage_event,omitempty"`
	Result *models.AnalysisResponse `json:"result,omitempty"`
	Error  *models.ErrorBody        `json:"error,omitempty"`
}

// AnalyzeStream upgrades to a websocket, reads one analysis request, then
// streams per-stage progress frames followed by a final result or error frame.
func (h *AnalysisHandler) AnalyzeStream(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	var req models.AnalysisRequest
	if err := conn.ReadJSON(&req); err != nil {
		h.logger.Warn("stream request read failed", xlogger.Error(err))
		return nil
	}
	if err := defaults.Set(&req); err != nil {
		return writeStreamError(conn, models.CodeValidation, err.Error())
	}
	if err := streamValidate.StructCtx(c.Request().Context(), &req); err != nil {
		return writeStreamError(conn, models.CodeValidation, err.Error())
	}

	// Stage events arrive from three concurrent goroutines; gorilla allows
	// one writer at a time.
	var writeMu sync.Mutex
	listener := func(ev usecase.StageEvent) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(streamMessage{Type: "stage", Stage: &ev}); err != nil {
			h.logger.Debug("stream stage write failed", xlogger.Error(err))
		}
	}

	resp, runErr := h.orch.RunAnalysisStreaming(c.Request().Context(), req, listener)

	writeMu.Lock()
	defer writeMu.Unlock()
	if runErr != nil {
		ae := models.AsAnalysisError(runErr, "")
		return conn.WriteJSON(streamMessage{
			Type:  "error",
			Error: &models.ErrorBody{Code: string(ae.Code), Message: ae.Message},
		})
	}
	return conn.WriteJSON(streamMessage{Type: "result", Result: resp})
}

func writeStreamError(conn *websocket.Conn, code models.ErrorCode, msg string) error {
	return conn.WriteJSON(streamMessage{
		Type:  "error",
		Error: &models.ErrorBody{Code: string(code), Message: msg},
	})
}
