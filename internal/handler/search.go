package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/pr-poehali-dev/fashion-photo-search/internal/model"
	"github.com/pr-poehali-dev/fashion-photo-search/internal/service"
	"github.com/pr-poehali-dev/fashion-photo-search/pkg/response"
)

type SearchHandler struct {
	service   *service.SearchService
	validator *validator.Validate
}

func NewSearchHandler(svc *service.SearchService, v *validator.Validate) *SearchHandler {
	return &SearchHandler{
		service:   svc,
		validator: v,
	}
}

// Search handles POST /api/search
// @Summary      Search clothing by photo
// @Description  Accepts a base64 photo, stores it and returns similar products with match scores
// @Tags         Search
// @Accept       json
// @Produce      json
// @Param        request body model.SearchRequest true "Photo and optional clothing type"
// @Param        X-User-Id header string false "Caller identifier"
// @Success      200 {object} model.SearchResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /api/search [post]
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	var req model.SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.BadRequest(c, "Image is required")
	}

	userID := c.Get("X-User-Id")

	result, err := h.service.Search(c.Context(), &req, userID)
	if err != nil {
		return response.InternalError(c, err.Error())
	}

	return response.OK(c, result)
}

// History handles GET /api/search/history
func (h *SearchHandler) History(c *fiber.Ctx) error {
	userID := c.Get("X-User-Id")

	entries, err := h.service.History(c.Context(), userID)
	if err != nil {
		return response.InternalError(c, err.Error())
	}

	return response.OK(c, fiber.Map{"history": entries})
}
