package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/edufy-labs/challenge-api/internal/dto"
	"github.com/edufy-labs/challenge-api/internal/service"
	"github.com/edufy-labs/challenge-api/internal/utils"
)

// SubmissionHandler manages submission lifecycle endpoints plus the nested
// evaluation and comment routes.
type SubmissionHandler struct {
	submissions service.SubmissionService
	evaluations service.EvaluationService
	comments    service.CommentService
	logger      zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(
	submissions service.SubmissionService,
	evaluations service.EvaluationService,
	comments service.CommentService,
	logger zerolog.Logger,
) *SubmissionHandler {
	return &SubmissionHandler{
		submissions: submissions,
		evaluations: evaluations,
		comments:    comments,
		logger:      logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", h.create)
	router.Patch("/:id/status", h.transition)

	router.Get("/:id/evaluations", h.listEvaluations)
	router.Get("/:id/evaluations/latest", h.latestEvaluation)
	router.Post("/:id/evaluations", h.addEvaluation)

	router.Get("/:id/comments", h.listComments)
	router.Post("/:id/comments", h.addComment)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	filter := dto.SubmissionFilter{}
	challengeID, err := parseQueryUint(c, "challenge_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	filter.ChallengeID = challengeID

	studentID, err := parseQueryUint(c, "student_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	filter.StudentID = studentID

	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}

	submissions, err := h.submissions.List(c.UserContext(), filter)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.submissions.GetByID(c.UserContext(), id)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) create(c *fiber.Ctx) error {
	var payload dto.SubmissionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "multipart form required")
	}

	submission, err := h.submissions.Create(c.UserContext(), actorFromContext(c), payload, form.File["files"])
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission created", submission)
}

func (h *SubmissionHandler) transition(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmissionTransitionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.submissions.Transition(c.UserContext(), id, actorFromContext(c), payload)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submission status updated", submission)
}

func (h *SubmissionHandler) listEvaluations(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	evaluations, err := h.evaluations.ListBySubmission(c.UserContext(), id, actorFromContext(c))
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "evaluations retrieved", evaluations)
}

func (h *SubmissionHandler) latestEvaluation(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	evaluation, err := h.evaluations.Latest(c.UserContext(), id, actorFromContext(c))
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}
	if evaluation == nil {
		return utils.SendError(c, fiber.StatusNotFound, "no evaluation available")
	}

	return utils.SendSuccess(c, "evaluation retrieved", evaluation)
}

func (h *SubmissionHandler) addEvaluation(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.EvaluationCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	evaluation, err := h.evaluations.Add(c.UserContext(), id, actorFromContext(c), payload)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "evaluation added", evaluation)
}

func (h *SubmissionHandler) listComments(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	comments, err := h.comments.ListBySubmission(c.UserContext(), id)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "comments retrieved", comments)
}

func (h *SubmissionHandler) addComment(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CommentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	comment, err := h.comments.Add(c.UserContext(), id, actorFromContext(c), payload)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "comment added", comment)
}
