package orders

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/lifecycle"
	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/pkg/pagination"
)

type Handler struct {
	svc *Service
	lh  *lifecycle.Handler
}

func NewHandler(svc *Service, exec *lifecycle.Executor) *Handler {
	return &Handler{svc: svc, lh: lifecycle.NewHandler(exec)}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "doctor", "nurse", "lab_tech", "pharmacist"))
	g.POST("/orders", h.CreateOrder)
	g.GET("/orders", h.ListOrders)
	g.GET("/orders/:id", h.GetOrder)

	g.POST("/orders/:id/transitions", h.Transition)
	g.GET("/orders/:id/state", h.lh.State)
	g.GET("/orders/:id/allowed-states", h.lh.AllowedStates)
	g.GET("/orders/:id/can-transition", h.lh.CanTransition)
	g.GET("/orders/:id/history", h.lh.History)
}

func (h *Handler) CreateOrder(c echo.Context) error {
	var o Order
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	orderedBy := auth.UserIDFromContext(c.Request().Context())
	if err := h.svc.CreateOrder(c.Request().Context(), &o, orderedBy); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) GetOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	o, err := h.svc.GetOrder(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) ListOrders(c echo.Context) error {
	pg := pagination.FromContext(c)

	if patientID := c.QueryParam("patient_id"); patientID != "" {
		pid, err := uuid.Parse(patientID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		list, total, err := h.svc.ListByPatient(c.Request().Context(), pid, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(list, total, pg.Limit, pg.Offset))
	}

	list, total, err := h.svc.ListOrders(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, total, pg.Limit, pg.Offset))
}

func (h *Handler) Transition(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req lifecycle.TransitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Target == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "target is required")
	}

	actor := lifecycle.RequestActor(c, req.Role)
	tc := lifecycle.RequestContext(c, req.Reason, req.Context)
	if err := h.svc.Transition(c.Request().Context(), id, lifecycle.State(req.Target), actor, tc); err != nil {
		return lifecycle.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"state": req.Target})
}
