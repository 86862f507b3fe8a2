package lifecycle

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/middleware"
	"github.com/clinicore/clinicore/pkg/pagination"
)

// Handler exposes an Executor's transition and query surface over HTTP. Each
// machine-bearing domain mounts one under its own route group.
type Handler struct {
	exec *Executor
}

func NewHandler(exec *Executor) *Handler {
	return &Handler{exec: exec}
}

// Register mounts the transition endpoints on the given group, which is
// expected to be scoped to the aggregate's collection path.
func (h *Handler) Register(g *echo.Group) {
	g.POST("/:id/transitions", h.Transition)
	g.GET("/:id/state", h.State)
	g.GET("/:id/allowed-states", h.AllowedStates)
	g.GET("/:id/can-transition", h.CanTransition)
	g.GET("/:id/history", h.History)
}

// TransitionRequest is the transition endpoint's request body. Domain
// handlers that wrap the engine bind the same shape.
type TransitionRequest struct {
	Target  string            `json:"target"`
	Role    string            `json:"role"`
	Reason  string            `json:"reason"`
	Context map[string]string `json:"context"`
}

// RequestActor derives the acting principal from the authenticated request
// and the advisory role claimed in the body.
func RequestActor(c echo.Context, claimed string) Actor {
	return Actor{ID: auth.UserIDFromContext(c.Request().Context()), Role: Role(claimed)}
}

// RequestContext assembles the transition context from middleware-captured
// request metadata.
func RequestContext(c echo.Context, reason string, refs map[string]string) TransitionContext {
	ctx := c.Request().Context()
	return TransitionContext{
		Reason:        reason,
		CorrelationID: requestID(c),
		IPAddress:     middleware.ClientIPFromContext(ctx),
		UserAgent:     middleware.UserAgentFromContext(ctx),
		ClientInfo:    middleware.ClientDescFromContext(ctx),
		Refs:          refs,
	}
}

func (h *Handler) Transition(c echo.Context) error {
	var req TransitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Target == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "target is required")
	}

	ctx := c.Request().Context()
	actor := RequestActor(c, req.Role)
	tc := RequestContext(c, req.Reason, req.Context)

	if err := h.exec.Transition(ctx, c.Param("id"), State(req.Target), actor, tc); err != nil {
		return HTTPError(err)
	}

	state, err := h.exec.CurrentState(ctx, c.Param("id"))
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"state": state})
}

func (h *Handler) State(c echo.Context) error {
	state, err := h.exec.CurrentState(c.Request().Context(), c.Param("id"))
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"state": state})
}

func (h *Handler) AllowedStates(c echo.Context) error {
	states, err := h.exec.AllowedNextStates(c.Request().Context(), c.Param("id"))
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"allowed": states})
}

func (h *Handler) CanTransition(c echo.Context) error {
	target := c.QueryParam("target")
	if target == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "target query parameter is required")
	}

	ctx := c.Request().Context()
	actor := Actor{ID: auth.UserIDFromContext(ctx), Role: Role(c.QueryParam("role"))}
	ok := h.exec.CanTransition(ctx, c.Param("id"), State(target), actor, TransitionContext{
		Reason: c.QueryParam("reason"),
	})
	return c.JSON(http.StatusOK, map[string]interface{}{"allowed": ok})
}

func (h *Handler) History(c echo.Context) error {
	pg := pagination.FromContext(c)
	records, total, err := h.exec.History(c.Request().Context(), c.Param("id"), pg.Limit, pg.Offset)
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(records, total, pg.Limit, pg.Offset))
}

func requestID(c echo.Context) string {
	rid, _ := c.Get("request_id").(string)
	return rid
}

// HTTPError maps a lifecycle error to the HTTP status the error taxonomy
// prescribes. Unrecognized errors become 500 without leaking detail.
func HTTPError(err error) *echo.HTTPError {
	var notFound *NotFoundError
	var invalid *InvalidTransitionError
	var unauthorized *UnauthorizedError
	var missing *MissingDataError
	var validation *ValidationError
	var conflict *ConflictError

	switch {
	case errors.As(err, &notFound):
		return echo.NewHTTPError(http.StatusNotFound, notFound.Error())
	case errors.As(err, &invalid):
		return echo.NewHTTPError(http.StatusBadRequest, map[string]interface{}{
			"message": invalid.Error(),
			"allowed": invalid.Allowed,
		})
	case errors.As(err, &unauthorized):
		return echo.NewHTTPError(http.StatusForbidden, unauthorized.Error())
	case errors.As(err, &missing):
		return echo.NewHTTPError(http.StatusBadRequest, map[string]interface{}{
			"message": missing.Error(),
			"missing": missing.Keys,
		})
	case errors.As(err, &validation):
		return echo.NewHTTPError(http.StatusBadRequest, validation.Error())
	case errors.As(err, &conflict):
		return echo.NewHTTPError(http.StatusConflict, conflict.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
