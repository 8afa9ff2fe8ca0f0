package mapping

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/masterdata/masterdata/internal/platform/apperr"
	"github.com/masterdata/masterdata/pkg/pagination"
)

const dateLayout = "2006-01-02"

// Handler exposes the mapping table over HTTP.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/mappings", h.AddMapping)
	g.GET("/mappings/active", h.ListActive)
	g.GET("/mappings/resolve", h.Resolve)
	g.GET("/mappings/:id", h.GetMapping)
	g.POST("/mappings/:id/close", h.CloseMapping)
	g.GET("/clients/:id/mappings", h.ListByClient)
}

type addMappingRequest struct {
	ClientID             uuid.UUID  `json:"client_id"`
	PracticeID           *uuid.UUID `json:"practice_id"`
	SourceCode           string     `json:"source_code"`
	StandardizedCategory string     `json:"standardized_category"`
	ValidFrom            string     `json:"valid_from"`
	ValidUntil           *string    `json:"valid_until"`
	Notes                *string    `json:"notes"`
}

type closeMappingRequest struct {
	EndDate string `json:"end_date"`
}

func errorResponse(c echo.Context, err error) error {
	switch {
	case apperr.IsValidation(err):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case apperr.IsReference(err):
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case apperr.IsConflict(err):
		var conflict *apperr.ConflictError
		errors.As(err, &conflict)
		return c.JSON(http.StatusConflict, map[string]any{
			"error":          err.Error(),
			"conflicting_id": conflict.ConflictingID,
		})
	case errors.Is(err, apperr.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse(dateLayout, raw)
}

func (h *Handler) AddMapping(c echo.Context) error {
	var req addMappingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	validFrom, err := parseDate(req.ValidFrom)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid valid_from, expected YYYY-MM-DD"})
	}
	var validUntil *time.Time
	if req.ValidUntil != nil {
		t, err := parseDate(*req.ValidUntil)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid valid_until, expected YYYY-MM-DD"})
		}
		validUntil = &t
	}

	m := &Mapping{
		ClientID:             req.ClientID,
		PracticeID:           req.PracticeID,
		SourceCode:           req.SourceCode,
		StandardizedCategory: req.StandardizedCategory,
		ValidFrom:            validFrom,
		ValidUntil:           validUntil,
		Notes:                req.Notes,
	}
	if err := h.service.AddMapping(c.Request().Context(), m); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) CloseMapping(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	var req closeMappingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid end_date, expected YYYY-MM-DD"})
	}

	m, err := h.service.CloseMapping(c.Request().Context(), id, endDate)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) GetMapping(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	m, err := h.service.GetMapping(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) ListByClient(c echo.Context) error {
	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	params := pagination.FromContext(c)
	mappings, total, err := h.service.ListByClient(c.Request().Context(), clientID, params.Limit, params.Offset)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(mappings, total, params))
}

// Resolve answers GET /mappings/resolve?client_id=&practice_id=&source_code=&at=.
// The at parameter defaults to today.
func (h *Handler) Resolve(c echo.Context) error {
	clientID, err := uuid.Parse(c.QueryParam("client_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid client_id"})
	}
	var practiceID *uuid.UUID
	if raw := c.QueryParam("practice_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid practice_id"})
		}
		practiceID = &id
	}
	sourceCode := c.QueryParam("source_code")
	if sourceCode == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "source_code is required"})
	}

	at := time.Now().UTC()
	if raw := c.QueryParam("at"); raw != "" {
		at, err = parseDate(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid at, expected YYYY-MM-DD"})
		}
	}

	m, err := h.service.Resolve(c.Request().Context(), clientID, practiceID, sourceCode, at)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"standardized_category": m.StandardizedCategory,
		"scope":                 m.Scope(),
		"mapping":               m,
	})
}

func (h *Handler) ListActive(c echo.Context) error {
	params := pagination.FromContext(c)
	var clientID, practiceID *uuid.UUID
	if raw := c.QueryParam("client_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid client_id"})
		}
		clientID = &id
	}
	if raw := c.QueryParam("practice_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid practice_id"})
		}
		practiceID = &id
	}

	active, total, err := h.service.ListActive(c.Request().Context(), clientID, practiceID, params.Limit, params.Offset)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(active, total, params))
}
