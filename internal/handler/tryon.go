package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/pr-poehali-dev/fashion-photo-search/internal/model"
	"github.com/pr-poehali-dev/fashion-photo-search/internal/service"
	"github.com/pr-poehali-dev/fashion-photo-search/pkg/response"
)

type TryonHandler struct {
	service   *service.TryonService
	validator *validator.Validate
}

func NewTryonHandler(svc *service.TryonService, v *validator.Validate) *TryonHandler {
	return &TryonHandler{
		service:   svc,
		validator: v,
	}
}

// TryOn handles POST /api/tryon
// @Summary      Virtual clothing try-on
// @Description  Accepts person and clothes photos, generates the try-on result
// @Tags         Tryon
// @Accept       json
// @Produce      json
// @Param        request body model.TryonRequest true "Person and clothes photos"
// @Param        X-User-Id header string false "Caller identifier"
// @Success      200 {object} model.TryonResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /api/tryon [post]
func (h *TryonHandler) TryOn(c *fiber.Ctx) error {
	var req model.TryonRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.BadRequest(c, "Both person and clothes images are required")
	}

	userID := c.Get("X-User-Id")

	result, err := h.service.TryOn(c.Context(), &req, userID)
	if err != nil {
		return response.InternalError(c, err.Error())
	}

	return response.OK(c, result)
}

// History handles GET /api/tryon/history
func (h *TryonHandler) History(c *fiber.Ctx) error {
	userID := c.Get("X-User-Id")

	entries, err := h.service.History(c.Context(), userID)
	if err != nil {
		return response.InternalError(c, err.Error())
	}

	return response.OK(c, fiber.Map{"history": entries})
}
