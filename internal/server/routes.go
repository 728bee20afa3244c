package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	coreactor "github.com/berfenger/hassbridge/internal/core/actor"
	"github.com/berfenger/hassbridge/internal/core/domain"
	"github.com/berfenger/hassbridge/internal/core/flow"
	"github.com/berfenger/hassbridge/internal/core/sensortypes"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type startFlowBody struct {
	Handler string         `json:"handler"`
	Source  string         `json:"source"`
	Data    map[string]any `json:"data"`
}

type errorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	if s.metricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(s.metricsHandler))
	}

	api := e.Group("/api")
	api.GET("/sensors", s.SensorsHandler)
	api.GET("/flows", s.ListFlowsHandler)
	api.POST("/flows", s.StartFlowHandler)
	api.GET("/flows/:id", s.GetFlowHandler)
	api.POST("/flows/:id", s.ConfigureFlowHandler)
	api.DELETE("/flows/:id", s.AbortFlowHandler)
	api.GET("/entries", s.ListEntriesHandler)
	api.DELETE("/entries/:id", s.RemoveEntryHandler)
	api.POST("/entries/:id/options", s.StartOptionsFlowHandler)
	api.POST("/options/:id", s.ConfigureOptionsFlowHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

func (s *Server) SensorsHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, sensortypes.StorageSensorTypes())
}

func (s *Server) StartFlowHandler(c echo.Context) error {
	var body startFlowBody
	if err := c.Bind(&body); err != nil {
		return err
	}
	if body.Handler == "" {
		return c.JSON(http.StatusBadRequest, errorBody{Message: "handler is required"})
	}
	if body.Source == "" {
		body.Source = flow.SOURCE_USER
	}
	if body.Source == flow.SOURCE_SSDP || body.Source == flow.SOURCE_OPTIONS {
		return c.JSON(http.StatusBadRequest, errorBody{Message: "source not allowed: " + body.Source})
	}
	return s.flowRequest(c, domain.StartFlowRequest{
		Handler: body.Handler,
		Source:  body.Source,
		Input:   body.Data,
	})
}

func (s *Server) ListFlowsHandler(c echo.Context) error {
	res, err := s.request(domain.ListFlowsRequest{Handler: c.QueryParam("handler")})
	if err != nil {
		return s.errorResponse(c, err)
	}
	resp, ok := res.(domain.ListFlowsResponse)
	if !ok {
		return s.errorResponse(c, errUnexpectedResponse)
	}
	if resp.HasResponseError() {
		return s.errorResponse(c, resp.GetResponseError())
	}
	if resp.Flows == nil {
		resp.Flows = []flow.Progress{}
	}
	return c.JSON(http.StatusOK, resp.Flows)
}

func (s *Server) GetFlowHandler(c echo.Context) error {
	return s.flowRequest(c, domain.GetFlowRequest{FlowID: c.Param("id")})
}

func (s *Server) ConfigureFlowHandler(c echo.Context) error {
	input, err := bindInput(c)
	if err != nil {
		return err
	}
	return s.flowRequest(c, domain.ConfigureFlowRequest{FlowID: c.Param("id"), Input: input})
}

func (s *Server) AbortFlowHandler(c echo.Context) error {
	res, err := s.request(domain.AbortFlowRequest{FlowID: c.Param("id")})
	if err != nil {
		return s.errorResponse(c, err)
	}
	if resp, ok := res.(domain.FlowResponse); ok && resp.HasResponseError() {
		return s.errorResponse(c, resp.GetResponseError())
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) ListEntriesHandler(c echo.Context) error {
	res, err := s.request(domain.ListEntriesRequest{Domain: c.QueryParam("domain")})
	if err != nil {
		return s.errorResponse(c, err)
	}
	resp, ok := res.(domain.ListEntriesResponse)
	if !ok {
		return s.errorResponse(c, errUnexpectedResponse)
	}
	if resp.HasResponseError() {
		return s.errorResponse(c, resp.GetResponseError())
	}
	if resp.Entries == nil {
		resp.Entries = []flow.Entry{}
	}
	return c.JSON(http.StatusOK, resp.Entries)
}

func (s *Server) RemoveEntryHandler(c echo.Context) error {
	res, err := s.request(domain.RemoveEntryRequest{EntryID: c.Param("id")})
	if err != nil {
		return s.errorResponse(c, err)
	}
	resp, ok := res.(domain.RemoveEntryResponse)
	if !ok {
		return s.errorResponse(c, errUnexpectedResponse)
	}
	if resp.HasResponseError() {
		return s.errorResponse(c, resp.GetResponseError())
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) StartOptionsFlowHandler(c echo.Context) error {
	return s.flowRequest(c, domain.StartOptionsFlowRequest{EntryID: c.Param("id")})
}

func (s *Server) ConfigureOptionsFlowHandler(c echo.Context) error {
	input, err := bindInput(c)
	if err != nil {
		return err
	}
	return s.flowRequest(c, domain.ConfigureOptionsFlowRequest{FlowID: c.Param("id"), Input: input})
}

var errUnexpectedResponse = errors.New("unexpected actor response")

func (s *Server) request(msg any) (any, error) {
	return s.rootContext.RequestFuture(s.masterActor, msg, s.requestTimeout).Result()
}

func (s *Server) flowRequest(c echo.Context, msg any) error {
	res, err := s.request(msg)
	if err != nil {
		return s.errorResponse(c, err)
	}
	resp, ok := res.(domain.FlowResponse)
	if !ok {
		return s.errorResponse(c, errUnexpectedResponse)
	}
	if resp.HasResponseError() {
		return s.errorResponse(c, resp.GetResponseError())
	}
	return c.JSON(http.StatusOK, resp.Result)
}

func (s *Server) errorResponse(c echo.Context, err error) error {
	var verr *flow.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, errorBody{Message: "invalid input", Errors: verr.Errors})
	case errors.Is(err, coreactor.ErrFlowNotFound), errors.Is(err, flow.ErrEntryNotFound):
		return c.JSON(http.StatusNotFound, errorBody{Message: err.Error()})
	case errors.Is(err, coreactor.ErrUnknownHandler), errors.Is(err, coreactor.ErrOptionsNotSupported),
		errors.Is(err, flow.ErrUnknownStep):
		return c.JSON(http.StatusBadRequest, errorBody{Message: err.Error()})
	case errors.Is(err, actor.ErrTimeout):
		return c.JSON(http.StatusGatewayTimeout, errorBody{Message: err.Error()})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, errorBody{Message: err.Error()})
}

// bindInput reads the step input. An empty body means no input.
// The body is decoded directly so path params do not leak into the input.
func bindInput(c echo.Context) (map[string]any, error) {
	body := c.Request().Body
	if body == nil || body == http.NoBody {
		return nil, nil
	}
	var input map[string]any
	if err := json.NewDecoder(body).Decode(&input); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return input, nil
}
