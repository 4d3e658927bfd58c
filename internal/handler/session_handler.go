package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/arena-go-api/internal/dto"
	"github.com/noah-isme/arena-go-api/internal/service"
	"github.com/noah-isme/arena-go-api/internal/utils"
)

// SessionHandler manages the contest session lifecycle endpoints.
type SessionHandler struct {
	sessions  service.SessionService
	finalize  service.FinalizeService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSessionHandler builds a session handler instance.
func NewSessionHandler(sessions service.SessionService, finalize service.FinalizeService, validate *validator.Validate, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions:  sessions,
		finalize:  finalize,
		validator: validate,
		logger:    logger.With().Str("component", "session_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SessionHandler) Register(router fiber.Router) {
	router.Post("/:contestID/start", h.start)
	router.Get("/:contestID/timer", h.timer)
	router.Post("/:contestID/finish", h.finish)
	router.Post("/:contestID/submit-all", h.submitAll)
}

func (h *SessionHandler) start(c *fiber.Ctx) error {
	contestID, err := parseUintParam(c, "contestID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.StartSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	session, err := h.sessions.Start(c.Context(), contestID, userID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	message := "session started"
	if session.Resumed {
		message = "session resumed"
	}

	return utils.SendSuccess(c, message, session)
}

func (h *SessionHandler) timer(c *fiber.Ctx) error {
	contestID, err := parseUintParam(c, "contestID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	timer, err := h.sessions.Timer(c.Context(), contestID, userID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "timer computed", timer)
}

// finish closes the attempt early without building a result; scoring still
// happens through submit-all.
func (h *SessionHandler) finish(c *fiber.Ctx) error {
	contestID, err := parseUintParam(c, "contestID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	session, err := h.sessions.Finish(c.Context(), contestID, userID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "session finished", dto.NewFinishSessionResponse(session))
}

func (h *SessionHandler) submitAll(c *fiber.Ctx) error {
	contestID, err := parseUintParam(c, "contestID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	summary, err := h.finalize.SubmitAll(c.Context(), contestID, userID, bearerToken(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assessment finalized", summary)
}

func (h *SessionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrContestNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "contest not found")
	case errors.Is(err, service.ErrOutsideWindow):
		return utils.SendError(c, fiber.StatusForbidden, "contest window is closed")
	case errors.Is(err, service.ErrTimeExpired):
		return utils.SendError(c, fiber.StatusGone, "session time expired")
	case errors.Is(err, service.ErrAlreadyCompleted):
		return utils.SendError(c, fiber.StatusConflict, "attempt already completed")
	case errors.Is(err, service.ErrNoActiveSession):
		return utils.SendError(c, fiber.StatusConflict, "no active session")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

// bearerToken extracts the raw credential so it can be forwarded to the judge
// collaborator on the contestant's behalf.
func bearerToken(c *fiber.Ctx) string {
	authorization := c.Get("Authorization")
	const bearer = "Bearer "
	if len(authorization) > len(bearer) && strings.EqualFold(authorization[:len(bearer)], bearer) {
		return strings.TrimSpace(authorization[len(bearer):])
	}
	return ""
}
