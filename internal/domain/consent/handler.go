package consent

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
	g := api.Group("", auth.RequireRole("admin", "doctor", "nurse", "receptionist", "patient"))
	g.POST("/consents", h.CreateConsent)
	g.GET("/consents", h.ListConsents)
	g.GET("/consents/:id", h.GetConsent)

	// Transitions go through the service so the SIGNED edge stamps the signer.
	g.POST("/consents/:id/transitions", h.Transition)
	g.GET("/consents/:id/state", h.lh.State)
	g.GET("/consents/:id/allowed-states", h.lh.AllowedStates)
	g.GET("/consents/:id/can-transition", h.lh.CanTransition)
	g.GET("/consents/:id/history", h.lh.History)

	g.POST("/consent-documents", h.UploadDocument)
	g.GET("/consent-documents", h.ListDocuments)
	g.GET("/consent-documents/:id", h.GetDocument)
}

func (h *Handler) CreateConsent(c echo.Context) error {
	var consent Consent
	if err := c.Bind(&consent); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	createdBy := auth.UserIDFromContext(c.Request().Context())
	if err := h.svc.CreateConsent(c.Request().Context(), &consent, createdBy); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, consent)
}

func (h *Handler) GetConsent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	consent, err := h.svc.GetConsent(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "consent not found")
	}
	return c.JSON(http.StatusOK, consent)
}

func (h *Handler) ListConsents(c echo.Context) error {
	pid, err := uuid.Parse(c.QueryParam("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	pg := pagination.FromContext(c)
	consents, total, err := h.svc.ListByPatient(c.Request().Context(), pid, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(consents, total, pg.Limit, pg.Offset))
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

func (h *Handler) UploadDocument(c echo.Context) error {
	var d Document
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if d.UploadedBy == "" {
		d.UploadedBy = auth.UserIDFromContext(c.Request().Context())
	}
	if err := h.svc.UploadDocument(c.Request().Context(), &d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDocument(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.GetDocument(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "document not found")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDocuments(c echo.Context) error {
	pid, err := uuid.Parse(c.QueryParam("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	pg := pagination.FromContext(c)
	docs, total, err := h.svc.ListDocumentsByPatient(c.Request().Context(), pid, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(docs, total, pg.Limit, pg.Offset))
}
