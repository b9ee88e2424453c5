package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TriSight/internal/domain/models"
)

func dialStream(t *testing.T, h *AnalysisHandler) *websocket.Conn {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/analyze/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestAnalyzeStreamStageOrdering(t *testing.T) {
	h := newTestHandler()
	conn := dialStream(t, h)

	require.NoError(t, conn.WriteJSON(map[string]string{
		"ticker":  "AAPL",
		"api_key": "sk-ant-REDACTED",
	}))

	var completed []models.Stage
	var result *models.AnalysisResponse
	deadline := time.Now().Add(5 * time.Second)
	for result == nil {
		require.NoError(t, conn.SetReadDeadline(deadline))
		var msg streamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		switch msg.Type {
		case "stage":
			require.NotNil(t, msg.Stage)
			assert.Contains(t, []string{"started", "succeeded"}, msg.Stage.Status)
			if msg.Stage.Status == "succeeded" {
				completed = append(completed, msg.Stage.Stage)
			}
		case "result":
			result = msg.Result
		case "error":
			t.Fatalf("unexpected error frame: %+v", msg.Error)
		}
	}

	require.NotEmpty(t, completed)
	assert.Equal(t, models.StageValidation, completed[0])

	index := make(map[models.Stage]int, len(completed))
	for i, stage := range completed {
		index[stage] = i
	}
	synth, ok := index[models.StageSynthesis]
	require.True(t, ok, "synthesis stage never completed")
	for _, stage := range []models.Stage{models.StageFundamental, models.StageTechnical, models.StageSentimentEco} {
		i, ok := index[stage]
		require.True(t, ok, "analysis stage %s never completed", stage)
		assert.Less(t, i, synth, "%s must complete before synthesis", stage)
	}

	assert.Equal(t, 83, result.SynthesisScore)
	assert.Equal(t, models.RecommendationBuy, result.Recommendation)
}

func TestAnalyzeStreamInvalidRequest(t *testing.T) {
	h := newTestHandler()
	conn := dialStream(t, h)

	require.NoError(t, conn.WriteJSON(map[string]string{"ticker": "AAPL"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg streamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "error", msg.Type)
	assert.Equal(t, string(models.CodeValidation), msg.Error.Code)
}
