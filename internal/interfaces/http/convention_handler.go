package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/xtm888/medflow-clinic-sub000/internal/application/dto"
	"github.com/xtm888/medflow-clinic-sub000/internal/application/usecase"
)

// ConventionHandler maneja las peticiones HTTP para convenciones (empresas aseguradoras).
type ConventionHandler struct {
	uc *usecase.ConventionUseCase
}

// NewConventionHandler construye el handler inyectando el caso de uso.
func NewConventionHandler(uc *usecase.ConventionUseCase) *ConventionHandler {
	return &ConventionHandler{uc: uc}
}

// Create registra una convención. Una convención no puede ser padre e hija a la vez.
// POST /api/conventions
func (h *ConventionHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateConventionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID GET /api/conventions/:id
func (h *ConventionHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List GET /api/conventions?limit=&offset=
func (h *ConventionHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	out, err := h.uc.List(c.Context(), dto.PageRequest{Limit: limit, Offset: offset})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
