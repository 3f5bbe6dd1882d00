package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Auth     *AuthHandler
	User     *UserHandler
	Session  *SessionHandler
	Booking  *BookingHandler
	Rating   *RatingHandler
	Internal *InternalHandler
}

type RouteConfig struct {
	InternalSecret      string
	RateLimitMax        int
	RateLimitExpiration time.Duration
}

func SetupRoutes(app *fiber.App, h Handlers, cfg RouteConfig) {
	v1 := app.Group("/v1", RateLimiter(cfg.RateLimitMax, cfg.RateLimitExpiration))

	auth := v1.Group("/auth")
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.Refresh)
	auth.Post("/logout", h.Auth.Logout)

	v1.Get("/categories", h.Session.GetCategories)
	v1.Get("/instructors/:id/rating-summary", h.Rating.InstructorSummary)

	users := v1.Group("/users", AuthMiddleware())
	users.Get("/me", h.User.GetMyProfile)
	users.Put("/me", h.User.UpdateMyProfile)
	users.Post("/me/avatar/upload-url", h.User.CreateAvatarUploadURL)
	users.Post("/me/device-token", h.User.RegisterDeviceToken)
	users.Get("/me/settings", h.User.GetSettings)
	users.Put("/me/settings", h.User.UpdateSettings)

	sessions := v1.Group("/sessions", AuthMiddleware())
	sessions.Get("/", h.Session.ListUpcomingSessions)
	sessions.Post("/", h.Session.CreateSession)
	sessions.Get("/history", h.Session.ListHistory)
	sessions.Get("/mine", h.Session.ListMySessions)
	sessions.Get("/:id", h.Session.GetSessionDetails)
	sessions.Get("/:id/capacity", h.Session.GetCapacity)
	sessions.Post("/:id/cancel", h.Session.CancelSession)
	sessions.Post("/:id/complete", h.Session.CompleteSession)
	sessions.Post("/:id/bookings", h.Booking.RequestBooking)
	sessions.Get("/:id/bookings", h.Booking.ListSessionBookings)
	sessions.Get("/:id/can-rate", h.Rating.CanRate)
	sessions.Post("/:id/ratings", h.Rating.RateSession)
	sessions.Get("/:id/ratings", h.Rating.ListSessionRatings)

	bookings := v1.Group("/bookings", AuthMiddleware())
	bookings.Get("/mine", h.Booking.ListMyBookings)
	bookings.Get("/:id", h.Booking.GetBooking)
	bookings.Post("/:id/accept", h.Booking.AcceptBooking)
	bookings.Post("/:id/decline", h.Booking.DeclineBooking)
	bookings.Post("/:id/cancel", h.Booking.CancelBooking)

	ratings := v1.Group("/ratings", AuthMiddleware())
	ratings.Put("/:id", h.Rating.UpdateRating)
	ratings.Delete("/:id", h.Rating.DeleteRating)

	internal := app.Group("/internal", InternalAuthMiddleware(cfg.InternalSecret))
	internal.Get("/bookings/:id/events", h.Internal.ListBookingEvents)
	internal.Get("/sessions/:id/capacity", h.Internal.GetSessionCapacity)
}
