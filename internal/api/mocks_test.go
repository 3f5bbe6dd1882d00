package api

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"skill-marketplace/internal/booking"
	"skill-marketplace/internal/model"
	"skill-marketplace/internal/repository"
	"skill-marketplace/internal/service"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) RegisterUser(ctx context.Context, email, password, name string, role model.Role) (*model.User, error) {
	args := m.Called(ctx, email, password, name, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthService) LoginUser(ctx context.Context, email, password string) (string, string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockAuthService) RefreshToken(ctx context.Context, refreshTokenString string) (string, error) {
	args := m.Called(ctx, refreshTokenString)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) LogoutUser(ctx context.Context, refreshTokenString string) error {
	return m.Called(ctx, refreshTokenString).Error(0)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetUserProfile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) UpdateUserProfile(ctx context.Context, userID uuid.UUID, dto service.UpdateUserDTO) (*model.User, error) {
	args := m.Called(ctx, userID, dto)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) CreateAvatarUpload(ctx context.Context, userID uuid.UUID, contentType string) (*service.AvatarUpload, error) {
	args := m.Called(ctx, userID, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AvatarUpload), args.Error(1)
}

func (m *MockUserService) RegisterDeviceToken(ctx context.Context, userID uuid.UUID, token string) error {
	return m.Called(ctx, userID, token).Error(0)
}

func (m *MockUserService) GetSettings(ctx context.Context, userID uuid.UUID) (*model.UserSettings, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserSettings), args.Error(1)
}

func (m *MockUserService) UpdateSettings(ctx context.Context, userID uuid.UUID, dto service.UpdateSettingsDTO) (*model.UserSettings, error) {
	args := m.Called(ctx, userID, dto)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserSettings), args.Error(1)
}

type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) CreateSession(ctx context.Context, actor model.Actor, in service.CreateSessionInput) (*model.Session, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockSessionService) ListUpcomingSessions(ctx context.Context, categoryID string, page int, limit int) (*repository.PaginatedSessions, error) {
	args := m.Called(ctx, categoryID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PaginatedSessions), args.Error(1)
}

func (m *MockSessionService) GetSessionDetails(ctx context.Context, sessionID uuid.UUID) (*model.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockSessionService) ListUserHistory(ctx context.Context, actor model.Actor) ([]model.SessionDetails, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SessionDetails), args.Error(1)
}

func (m *MockSessionService) ListInstructorSessions(ctx context.Context, actor model.Actor) ([]model.SessionDetails, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SessionDetails), args.Error(1)
}

func (m *MockSessionService) GetCategories(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Category), args.Error(1)
}

func (m *MockSessionService) RemainingCapacity(ctx context.Context, sessionID uuid.UUID) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

func (m *MockSessionService) IsFull(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionService) CancelSession(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (booking.SessionOutcome, error) {
	args := m.Called(ctx, actor, sessionID)
	return args.Get(0).(booking.SessionOutcome), args.Error(1)
}

func (m *MockSessionService) CompleteSession(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (booking.SessionOutcome, error) {
	args := m.Called(ctx, actor, sessionID)
	return args.Get(0).(booking.SessionOutcome), args.Error(1)
}

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) RequestBooking(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (*model.Booking, error) {
	args := m.Called(ctx, actor, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingService) AcceptBooking(ctx context.Context, actor model.Actor, bookingID uuid.UUID) (booking.Transition, error) {
	args := m.Called(ctx, actor, bookingID)
	return args.Get(0).(booking.Transition), args.Error(1)
}

func (m *MockBookingService) DeclineBooking(ctx context.Context, actor model.Actor, bookingID uuid.UUID) (booking.Transition, error) {
	args := m.Called(ctx, actor, bookingID)
	return args.Get(0).(booking.Transition), args.Error(1)
}

func (m *MockBookingService) CancelBooking(ctx context.Context, actor model.Actor, bookingID uuid.UUID) (booking.Transition, error) {
	args := m.Called(ctx, actor, bookingID)
	return args.Get(0).(booking.Transition), args.Error(1)
}

func (m *MockBookingService) GetBooking(ctx context.Context, actor model.Actor, bookingID uuid.UUID) (*model.Booking, error) {
	args := m.Called(ctx, actor, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingService) ListSessionBookings(ctx context.Context, actor model.Actor, sessionID uuid.UUID) ([]model.BookingDetails, error) {
	args := m.Called(ctx, actor, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.BookingDetails), args.Error(1)
}

func (m *MockBookingService) ListMyBookings(ctx context.Context, actor model.Actor) ([]model.BookingDetails, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.BookingDetails), args.Error(1)
}

type MockRatingService struct {
	mock.Mock
}

func (m *MockRatingService) CanRate(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (bool, error) {
	args := m.Called(ctx, actor, sessionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRatingService) CreateRating(ctx context.Context, actor model.Actor, sessionID uuid.UUID, rating int, comment *string) (*model.Rating, error) {
	args := m.Called(ctx, actor, sessionID, rating, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Rating), args.Error(1)
}

func (m *MockRatingService) UpdateRating(ctx context.Context, actor model.Actor, ratingID uuid.UUID, rating int, comment *string) (*model.Rating, error) {
	args := m.Called(ctx, actor, ratingID, rating, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Rating), args.Error(1)
}

func (m *MockRatingService) DeleteRating(ctx context.Context, actor model.Actor, ratingID uuid.UUID) error {
	return m.Called(ctx, actor, ratingID).Error(0)
}

func (m *MockRatingService) ListSessionRatings(ctx context.Context, sessionID uuid.UUID) ([]model.Rating, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Rating), args.Error(1)
}

func (m *MockRatingService) InstructorSummary(ctx context.Context, instructorID uuid.UUID) (*model.RatingSummary, error) {
	args := m.Called(ctx, instructorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RatingSummary), args.Error(1)
}

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) SaveEvent(ctx context.Context, event *model.BookingEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockAuditRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]model.BookingEvent, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.BookingEvent), args.Error(1)
}
