package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/edufy-labs/challenge-api/internal/dto"
	"github.com/edufy-labs/challenge-api/internal/service"
	"github.com/edufy-labs/challenge-api/internal/utils"
)

// ChallengeHandler manages challenge endpoints.
type ChallengeHandler struct {
	service service.ChallengeService
	logger  zerolog.Logger
}

// NewChallengeHandler builds a challenge handler instance.
func NewChallengeHandler(service service.ChallengeService, logger zerolog.Logger) *ChallengeHandler {
	return &ChallengeHandler{
		service: service,
		logger:  logger.With().Str("component", "challenge_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ChallengeHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", h.create)
	router.Patch("/:id/status", h.updateStatus)
}

func (h *ChallengeHandler) list(c *fiber.Ctx) error {
	filter := dto.ChallengeFilter{}
	creatorID, err := parseQueryUint(c, "creator_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	filter.CreatorID = creatorID

	schoolID, err := parseQueryUint(c, "school_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	filter.SchoolID = schoolID

	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}
	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}

	challenges, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "challenges retrieved", challenges)
}

func (h *ChallengeHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	challenge, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "challenge retrieved", challenge)
}

func (h *ChallengeHandler) create(c *fiber.Ctx) error {
	var payload dto.ChallengeCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	challenge, err := h.service.Create(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "challenge created", challenge)
}

func (h *ChallengeHandler) updateStatus(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ChallengeStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	challenge, err := h.service.UpdateStatus(c.UserContext(), id, actorFromContext(c), payload)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "challenge status updated", challenge)
}
