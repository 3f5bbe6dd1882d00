package api

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"skill-marketplace/internal/service"
)

type RatingHandler struct {
	ratingService service.RatingService
	validate      *validator.Validate
}

func NewRatingHandler(ratingService service.RatingService) *RatingHandler {
	return &RatingHandler{
		ratingService: ratingService,
		validate:      validator.New(),
	}
}

type RateSessionRequest struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=1000"`
}

func (h *RatingHandler) parseRating(c *fiber.Ctx) (*RateSessionRequest, error) {
	var req RateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := h.validate.Struct(&req); err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}
	return &req, nil
}

func (h *RatingHandler) CanRate(c *fiber.Ctx) error {
	actor, err := ActorFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user claims"})
	}

	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID format"})
	}

	ok, err := h.ratingService.CanRate(c.UserContext(), actor, sessionID)
	if err != nil {
		return respondError(c, err, "Could not check rating eligibility")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"can_rate": ok})
}

func (h *RatingHandler) RateSession(c *fiber.Ctx) error {
	actor, err := ActorFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user claims"})
	}

	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID format"})
	}

	req, err := h.parseRating(c)
	if req == nil {
		return err
	}

	rating, err := h.ratingService.CreateRating(c.UserContext(), actor, sessionID, req.Rating, req.Comment)
	if err != nil {
		return respondError(c, err, "Could not rate session")
	}

	return c.Status(fiber.StatusCreated).JSON(rating)
}

func (h *RatingHandler) ListSessionRatings(c *fiber.Ctx) error {
	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID format"})
	}

	ratings, err := h.ratingService.ListSessionRatings(c.UserContext(), sessionID)
	if err != nil {
		return respondError(c, err, "Could not fetch ratings")
	}

	return c.Status(fiber.StatusOK).JSON(ratings)
}

func (h *RatingHandler) UpdateRating(c *fiber.Ctx) error {
	actor, err := ActorFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user claims"})
	}

	ratingID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid rating ID format"})
	}

	req, err := h.parseRating(c)
	if req == nil {
		return err
	}

	rating, err := h.ratingService.UpdateRating(c.UserContext(), actor, ratingID, req.Rating, req.Comment)
	if err != nil {
		return respondError(c, err, "Could not update rating")
	}

	return c.Status(fiber.StatusOK).JSON(rating)
}

func (h *RatingHandler) DeleteRating(c *fiber.Ctx) error {
	actor, err := ActorFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user claims"})
	}

	ratingID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid rating ID format"})
	}

	if err := h.ratingService.DeleteRating(c.UserContext(), actor, ratingID); err != nil {
		return respondError(c, err, "Could not delete rating")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *RatingHandler) InstructorSummary(c *fiber.Ctx) error {
	instructorID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid instructor ID format"})
	}

	summary, err := h.ratingService.InstructorSummary(c.UserContext(), instructorID)
	if err != nil {
		return respondError(c, err, "Could not fetch rating summary")
	}

	return c.Status(fiber.StatusOK).JSON(summary)
}
