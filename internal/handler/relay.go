package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"rss-relay-go/internal/model"
	"rss-relay-go/internal/service"
)

// Error bodies returned to callers. Upstream detail never reaches them.
var (
	missingURLBody  = errorBody("URL is required")
	fetchFailedBody = errorBody("Failed to fetch the URL")
)

func errorBody(msg string) []byte {
	b, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		panic(err)
	}
	return b
}

// RelayHandler serves GET /proxy?url=<target>.
type RelayHandler struct {
	service *service.RelayService
	logger  *slog.Logger
}

// NewRelayHandler creates a RelayHandler.
func NewRelayHandler(svc *service.RelayService, logger *slog.Logger) *RelayHandler {
	return &RelayHandler{
		service: svc,
		logger:  logger.With("component", "relay_handler"),
	}
}

// Handle fetches the url query parameter and writes the outcome.
func (h *RelayHandler) Handle(c echo.Context) error {
	req := c.Request()

	res := h.service.Relay(&model.RelayRequest{
		Ctx: req.Context(),
		URL: c.QueryParam("url"),
	})

	status, contentType, body := Render(res)
	if res.Outcome != model.OutcomeForwarded {
		h.logger.Debug("relay rejected",
			"outcome", res.Outcome.String(),
			"status", status,
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		)
	}
	return c.Blob(status, contentType, body)
}

// Render maps a relay result to the status, content type and body sent to the caller.
func Render(res model.Result) (int, string, []byte) {
	switch res.Outcome {
	case model.OutcomeForwarded:
		return http.StatusOK, echo.MIMETextPlainCharsetUTF8, res.Body
	case model.OutcomeMissingURL:
		return http.StatusBadRequest, echo.MIMEApplicationJSON, missingURLBody
	default:
		return http.StatusInternalServerError, echo.MIMEApplicationJSON, fetchFailedBody
	}
}
