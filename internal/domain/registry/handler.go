package registry

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/masterdata/masterdata/internal/platform/apperr"
	"github.com/masterdata/masterdata/pkg/pagination"
)

// Handler exposes the registry over HTTP.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/clients", h.CreateClient)
	g.GET("/clients", h.ListClients)
	g.GET("/clients/:id", h.GetClient)
	g.PUT("/clients/:id", h.UpdateClient)
	g.DELETE("/clients/:id", h.DeleteClient)
	g.GET("/clients/:id/practices", h.ListClientPractices)

	g.POST("/practices", h.CreatePractice)
	g.GET("/practices", h.ListPractices)
	g.GET("/practices/:id", h.GetPractice)
	g.PUT("/practices/:id", h.UpdatePractice)
	g.DELETE("/practices/:id", h.DeletePractice)
	g.GET("/practices/:id/providers", h.ListPracticeProviders)

	g.POST("/providers", h.CreateProvider)
	g.GET("/providers", h.ListProviders)
	g.GET("/providers/:id", h.GetProvider)
	g.PUT("/providers/:id", h.UpdateProvider)
	g.DELETE("/providers/:id", h.DeleteProvider)
}

func errorResponse(c echo.Context, err error) error {
	switch {
	case apperr.IsValidation(err):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case apperr.IsReference(err):
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case apperr.IsConflict(err):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func parseID(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

func (h *Handler) CreateClient(c echo.Context) error {
	var client Client
	if err := c.Bind(&client); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := h.service.CreateClient(c.Request().Context(), &client); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, client)
}

func (h *Handler) ListClients(c echo.Context) error {
	params := pagination.FromContext(c)
	clients, total, err := h.service.ListClients(c.Request().Context(), params.Limit, params.Offset)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(clients, total, params))
}

func (h *Handler) GetClient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	client, err := h.service.GetClient(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, client)
}

func (h *Handler) UpdateClient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	var client Client
	if err := c.Bind(&client); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	client.ID = id
	if err := h.service.UpdateClient(c.Request().Context(), &client); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, client)
}

func (h *Handler) DeleteClient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	if err := h.service.DeleteClient(c.Request().Context(), id); err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CreatePractice(c echo.Context) error {
	var practice Practice
	if err := c.Bind(&practice); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := h.service.CreatePractice(c.Request().Context(), &practice); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, practice)
}

func (h *Handler) ListPractices(c echo.Context) error {
	params := pagination.FromContext(c)
	var clientID *uuid.UUID
	if raw := c.QueryParam("client_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid client_id"})
		}
		clientID = &id
	}
	practices, total, err := h.service.ListPractices(c.Request().Context(), clientID, params.Limit, params.Offset)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(practices, total, params))
}

// ListClientPractices lists the practices under one client; 404 when the
// client itself does not exist.
func (h *Handler) ListClientPractices(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	if _, err := h.service.GetClient(c.Request().Context(), id); err != nil {
		return errorResponse(c, err)
	}
	params := pagination.FromContext(c)
	practices, total, err := h.service.ListPractices(c.Request().Context(), &id, params.Limit, params.Offset)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(practices, total, params))
}

func (h *Handler) GetPractice(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	practice, err := h.service.GetPractice(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, practice)
}

func (h *Handler) UpdatePractice(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	var practice Practice
	if err := c.Bind(&practice); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	practice.ID = id
	if err := h.service.UpdatePractice(c.Request().Context(), &practice); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, practice)
}

func (h *Handler) DeletePractice(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	if err := h.service.DeletePractice(c.Request().Context(), id); err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CreateProvider(c echo.Context) error {
	var provider Provider
	if err := c.Bind(&provider); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := h.service.CreateProvider(c.Request().Context(), &provider); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, provider)
}

func (h *Handler) ListProviders(c echo.Context) error {
	params := pagination.FromContext(c)
	var practiceID *uuid.UUID
	if raw := c.QueryParam("practice_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid practice_id"})
		}
		practiceID = &id
	}
	providers, total, err := h.service.ListProviders(c.Request().Context(), practiceID, params.Limit, params.Offset)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(providers, total, params))
}

// ListPracticeProviders lists the providers under one practice; 404 when
// the practice itself does not exist.
func (h *Handler) ListPracticeProviders(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	if _, err := h.service.GetPractice(c.Request().Context(), id); err != nil {
		return errorResponse(c, err)
	}
	params := pagination.FromContext(c)
	providers, total, err := h.service.ListProviders(c.Request().Context(), &id, params.Limit, params.Offset)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(providers, total, params))
}

func (h *Handler) GetProvider(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	provider, err := h.service.GetProvider(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, provider)
}

func (h *Handler) UpdateProvider(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	var provider Provider
	if err := c.Bind(&provider); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	provider.ID = id
	if err := h.service.UpdateProvider(c.Request().Context(), &provider); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, provider)
}

func (h *Handler) DeleteProvider(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	if err := h.service.DeleteProvider(c.Request().Context(), id); err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
