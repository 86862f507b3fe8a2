package surgery

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
	g := api.Group("", auth.RequireRole("admin", "doctor", "nurse", "receptionist"))
	g.POST("/surgical-cases", h.CreateCase)
	g.GET("/surgical-cases", h.ListCases)
	g.GET("/surgical-cases/:id", h.GetCase)

	g.POST("/surgical-cases/:id/transitions", h.Transition)
	g.GET("/surgical-cases/:id/state", h.lh.State)
	g.GET("/surgical-cases/:id/allowed-states", h.lh.AllowedStates)
	g.GET("/surgical-cases/:id/can-transition", h.lh.CanTransition)
	g.GET("/surgical-cases/:id/history", h.lh.History)

	g.POST("/procedure-plans", h.CreatePlan)
	g.GET("/procedure-plans", h.ListPlans)
	g.GET("/procedure-plans/:id", h.GetPlan)
}

func (h *Handler) CreateCase(c echo.Context) error {
	var sc Case
	if err := c.Bind(&sc); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	createdBy := auth.UserIDFromContext(c.Request().Context())
	if err := h.svc.CreateCase(c.Request().Context(), &sc, createdBy); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, sc)
}

func (h *Handler) GetCase(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	sc, err := h.svc.GetCase(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "surgical case not found")
	}
	return c.JSON(http.StatusOK, sc)
}

func (h *Handler) ListCases(c echo.Context) error {
	pg := pagination.FromContext(c)

	if patientID := c.QueryParam("patient_id"); patientID != "" {
		pid, err := uuid.Parse(patientID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		cases, total, err := h.svc.ListCasesByPatient(c.Request().Context(), pid, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(cases, total, pg.Limit, pg.Offset))
	}

	cases, total, err := h.svc.ListCases(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(cases, total, pg.Limit, pg.Offset))
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

func (h *Handler) CreatePlan(c echo.Context) error {
	var p Plan
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if p.PlannedBy == "" {
		p.PlannedBy = auth.UserIDFromContext(c.Request().Context())
	}
	if err := h.svc.CreatePlan(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPlan(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPlan(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "procedure plan not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPlans(c echo.Context) error {
	pid, err := uuid.Parse(c.QueryParam("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	pg := pagination.FromContext(c)
	plans, total, err := h.svc.ListPlansByPatient(c.Request().Context(), pid, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(plans, total, pg.Limit, pg.Offset))
}
