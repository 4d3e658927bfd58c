package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/arena-go-api/internal/dto"
	"github.com/noah-isme/arena-go-api/internal/service"
	"github.com/noah-isme/arena-go-api/internal/utils"
)

// ResultHandler manages organizer operations on finalized results.
type ResultHandler struct {
	results   service.ResultService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewResultHandler builds a result handler instance.
func NewResultHandler(results service.ResultService, validate *validator.Validate, logger zerolog.Logger) *ResultHandler {
	return &ResultHandler{
		results:   results,
		validator: validate,
		logger:    logger.With().Str("component", "result_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ResultHandler) Register(router fiber.Router) {
	router.Patch("/:contestID/results/:userID/penalty", h.applyPenalty)
}

func (h *ResultHandler) applyPenalty(c *fiber.Ctx) error {
	contestID, err := parseUintParam(c, "contestID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	userID, err := parseUintParam(c, "userID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ApplyPenaltyRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.results.ApplyPenalty(c.Context(), contestID, userID, payload)
	if err != nil {
		if errors.Is(err, service.ErrResultNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "final result not found")
		}
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "penalty applied", result)
}
