package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"skill-marketplace/internal/booking"
	"skill-marketplace/internal/model"
	"skill-marketplace/internal/repository"
)

// store is an in-memory stand-in for Postgres. Each session has its own
// mutex playing the role of the session row lock.
type store struct {
	mu       sync.Mutex
	locks    map[uuid.UUID]*sync.Mutex
	sessions map[uuid.UUID]*model.Session
	bookings map[uuid.UUID]*model.Booking
	ratings  map[uuid.UUID]*model.Rating

	categoryCalls int
}

func newStore() *store {
	return &store{
		locks:    map[uuid.UUID]*sync.Mutex{},
		sessions: map[uuid.UUID]*model.Session{},
		bookings: map[uuid.UUID]*model.Booking{},
		ratings:  map[uuid.UUID]*model.Rating{},
	}
}

func (st *store) lockFor(sessionID uuid.UUID) *sync.Mutex {
	st.mu.Lock()
	defer st.mu.Unlock()
	l, ok := st.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		st.locks[sessionID] = l
	}
	return l
}

func (st *store) session(id uuid.UUID) *model.Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil
	}
	cp := *s
	return &cp
}

func (st *store) booking(id uuid.UUID) *model.Booking {
	st.mu.Lock()
	defer st.mu.Unlock()
	b, ok := st.bookings[id]
	if !ok {
		return nil
	}
	cp := *b
	return &cp
}

func (st *store) acceptedCount(sessionID uuid.UUID) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for _, b := range st.bookings {
		if b.SessionID == sessionID && b.Status == model.BookingAccepted {
			n++
		}
	}
	return n
}

// apply writes a decided transition the way the SQL layer does: a
// conditional status update followed by a bounded capacity update.
func (st *store) apply(t booking.Transition) error {
	b := st.bookings[t.BookingID]
	if b == nil || b.Status != t.From {
		return fmt.Errorf("%w: booking %s changed underneath", booking.ErrConcurrencyConflict, t.BookingID)
	}
	b.Status = t.To
	b.UpdatedAt = time.Now()
	return nil
}

func (st *store) adjust(sessionID uuid.UUID, delta int) error {
	s := st.sessions[sessionID]
	next := s.CapacityRemaining + delta
	if next < 0 || next > s.TotalCapacity {
		return fmt.Errorf("%w: capacity bounds violated", booking.ErrConcurrencyConflict)
	}
	s.CapacityRemaining = next
	return nil
}

func (st *store) addSession(instructorID uuid.UUID, capacity int, status model.SessionStatus, startAt time.Time) *model.Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := &model.Session{
		ID:                uuid.New(),
		InstructorID:      instructorID,
		Title:             "Session",
		StartAt:           startAt,
		TotalCapacity:     capacity,
		CapacityRemaining: capacity,
		Status:            status,
		CreatedAt:         time.Now(),
	}
	st.sessions[s.ID] = s
	cp := *s
	return &cp
}

type fakeSessionRepo struct{ *store }

func (r fakeSessionRepo) Create(_ context.Context, s *model.Session) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = uuid.New()
	s.CapacityRemaining = s.TotalCapacity
	s.Status = model.SessionUpcoming
	s.CreatedAt = time.Now()
	cp := *s
	r.sessions[s.ID] = &cp
	return s, nil
}

func (r fakeSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Session, error) {
	return r.session(id), nil
}

func (r fakeSessionRepo) ListUpcoming(_ context.Context, _ string, page int, limit int) (*repository.PaginatedSessions, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := &repository.PaginatedSessions{Data: []model.SessionDetails{}}
	for _, s := range r.sessions {
		if s.Status == model.SessionUpcoming {
			out.Data = append(out.Data, model.SessionDetails{ID: s.ID, Title: s.Title, CapacityRemaining: s.CapacityRemaining})
		}
	}
	out.Meta = repository.PaginationMeta{CurrentPage: page, PerPage: limit, TotalItems: len(out.Data)}
	return out, nil
}

func (r fakeSessionRepo) ListHistoryByLearnerID(context.Context, uuid.UUID) ([]model.SessionDetails, error) {
	return []model.SessionDetails{}, nil
}

func (r fakeSessionRepo) ListByInstructorID(context.Context, uuid.UUID) ([]model.SessionDetails, error) {
	return []model.SessionDetails{}, nil
}

func (r fakeSessionRepo) GetCategories(context.Context) ([]model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categoryCalls++
	return []model.Category{{ID: uuid.New(), Name: "Design"}}, nil
}

type fakeBookingRepo struct{ *store }

func (r fakeBookingRepo) Create(_ context.Context, sessionID, learnerID uuid.UUID, check repository.RequestCheckFunc) (*model.Booking, error) {
	lock := r.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session := r.session(sessionID)
	if session == nil {
		return nil, fmt.Errorf("%w: session %s", booking.ErrNotFound, sessionID)
	}
	active, _ := r.FindActive(context.Background(), learnerID, sessionID)
	if err := check(session, active); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	b := &model.Booking{
		ID:        uuid.New(),
		SessionID: sessionID,
		LearnerID: learnerID,
		Status:    model.BookingPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	r.bookings[b.ID] = b
	cp := *b
	return &cp, nil
}

func (r fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Booking, error) {
	return r.booking(id), nil
}

func (r fakeBookingRepo) FindActive(_ context.Context, learnerID, sessionID uuid.UUID) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.LearnerID == learnerID && b.SessionID == sessionID && b.Status.Active() {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (r fakeBookingRepo) HasAccepted(_ context.Context, learnerID, sessionID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.LearnerID == learnerID && b.SessionID == sessionID && b.Status == model.BookingAccepted {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeBookingRepo) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.BookingDetails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.BookingDetails{}
	for _, b := range r.bookings {
		if b.SessionID == sessionID {
			out = append(out, model.BookingDetails{Booking: *b})
		}
	}
	return out, nil
}

func (r fakeBookingRepo) ListByLearner(_ context.Context, learnerID uuid.UUID) ([]model.BookingDetails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.BookingDetails{}
	for _, b := range r.bookings {
		if b.LearnerID == learnerID {
			out = append(out, model.BookingDetails{Booking: *b})
		}
	}
	return out, nil
}

func (r fakeBookingRepo) Transition(_ context.Context, bookingID uuid.UUID, decide repository.DecideFunc) (booking.Transition, error) {
	b := r.booking(bookingID)
	if b == nil {
		return booking.Transition{}, fmt.Errorf("%w: booking %s", booking.ErrNotFound, bookingID)
	}

	lock := r.lockFor(b.SessionID)
	lock.Lock()
	defer lock.Unlock()

	t, err := decide(r.booking(bookingID), r.session(b.SessionID))
	if err != nil {
		return booking.Transition{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.apply(t); err != nil {
		return booking.Transition{}, err
	}
	if err := r.adjust(b.SessionID, t.CapacityDelta); err != nil {
		return booking.Transition{}, err
	}
	return t, nil
}

func (r fakeBookingRepo) TransitionSession(_ context.Context, sessionID uuid.UUID, decide repository.SessionDecideFunc) (booking.SessionOutcome, error) {
	lock := r.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session := r.session(sessionID)
	if session == nil {
		return booking.SessionOutcome{}, fmt.Errorf("%w: session %s", booking.ErrNotFound, sessionID)
	}

	r.mu.Lock()
	active := []model.Booking{}
	for _, b := range r.bookings {
		if b.SessionID == sessionID && b.Status.Active() {
			active = append(active, *b)
		}
	}
	r.mu.Unlock()

	out, err := decide(session, active)
	if err != nil {
		return booking.SessionOutcome{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID].Status = out.To
	for _, t := range out.Transitions {
		if err := r.apply(t); err != nil {
			return booking.SessionOutcome{}, err
		}
	}
	if err := r.adjust(sessionID, out.CapacityDelta()); err != nil {
		return booking.SessionOutcome{}, err
	}
	return out, nil
}

type fakeRatingRepo struct{ *store }

func (r fakeRatingRepo) Create(_ context.Context, rating *model.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.ratings {
		if existing.LearnerID == rating.LearnerID && existing.SessionID == rating.SessionID {
			return fmt.Errorf("%w: session already rated", booking.ErrDuplicate)
		}
	}
	rating.ID = uuid.New()
	rating.CreatedAt = time.Now()
	rating.UpdatedAt = rating.CreatedAt
	cp := *rating
	r.ratings[rating.ID] = &cp
	return nil
}

func (r fakeRatingRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rating, ok := r.ratings[id]
	if !ok {
		return nil, nil
	}
	cp := *rating
	return &cp, nil
}

func (r fakeRatingRepo) Exists(_ context.Context, learnerID, sessionID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rating := range r.ratings {
		if rating.LearnerID == learnerID && rating.SessionID == sessionID {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeRatingRepo) Update(_ context.Context, rating *model.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.ratings[rating.ID]
	if !ok {
		return fmt.Errorf("%w: rating %s", booking.ErrNotFound, rating.ID)
	}
	existing.Rating = rating.Rating
	existing.Comment = rating.Comment
	existing.UpdatedAt = time.Now()
	rating.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r fakeRatingRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ratings[id]; !ok {
		return fmt.Errorf("%w: rating %s", booking.ErrNotFound, id)
	}
	delete(r.ratings, id)
	return nil
}

func (r fakeRatingRepo) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Rating{}
	for _, rating := range r.ratings {
		if rating.SessionID == sessionID {
			out = append(out, *rating)
		}
	}
	return out, nil
}

func (r fakeRatingRepo) SummaryForInstructor(_ context.Context, instructorID uuid.UUID) (*model.RatingSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	summary := &model.RatingSummary{InstructorID: instructorID}
	total := 0
	for _, rating := range r.ratings {
		if s := r.sessions[rating.SessionID]; s != nil && s.InstructorID == instructorID {
			total += rating.Rating
			summary.Count++
		}
	}
	if summary.Count > 0 {
		summary.Average = float64(total) / float64(summary.Count)
	}
	return summary, nil
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
	fail     error
}

func (p *fakePublisher) record(subject string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return p.fail
}

func (p *fakePublisher) Subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.subjects...)
}

func (p *fakePublisher) PublishSessionCreated(*model.Session) error {
	return p.record("session.created")
}

func (p *fakePublisher) PublishSessionClosed(_ *model.Session, out booking.SessionOutcome) error {
	err := p.record("session." + string(out.To))
	for _, t := range out.Transitions {
		if terr := p.PublishBookingTransition(t); err == nil {
			err = terr
		}
	}
	return err
}

func (p *fakePublisher) PublishBookingRequested(*model.Booking) error {
	return p.record("booking.requested")
}

func (p *fakePublisher) PublishBookingTransition(t booking.Transition) error {
	return p.record("booking." + string(t.To))
}

func (p *fakePublisher) PublishRatingCreated(*model.Rating) error {
	return p.record("rating.created")
}

type fakeUserRepo struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*model.User
	devices map[string]uuid.UUID
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*model.User{}, devices: map[string]uuid.UUID{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return uuid.Nil, fmt.Errorf("%w: email already registered", booking.ErrDuplicate)
		}
	}
	cp := *user
	cp.ID = uuid.New()
	r.users[cp.ID] = &cp
	return cp.ID, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) Update(_ context.Context, id uuid.UUID, name, avatarURL *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil
	}
	if name != nil {
		u.Name = *name
	}
	if avatarURL != nil {
		u.AvatarURL = avatarURL
	}
	return nil
}

func (r *fakeUserRepo) RegisterDeviceToken(_ context.Context, userID uuid.UUID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[token] = userID
	return nil
}

func (r *fakeUserRepo) GetDeviceTokens(_ context.Context, userID uuid.UUID) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var tokens []string
	for token, owner := range r.devices {
		if owner == userID {
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*model.RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: map[string]*model.RefreshToken{}}
}

func (r *fakeTokenRepo) Create(_ context.Context, token *model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.TokenHash] = token
	return nil
}

func (r *fakeTokenRepo) FindValidByHash(_ context.Context, hash string) (*model.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[hash]
	if !ok || t.ExpiresAt.Before(time.Now()) {
		return nil, sql.ErrNoRows
	}
	return t, nil
}

func (r *fakeTokenRepo) Delete(_ context.Context, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, hash)
	return nil
}

func (r *fakeTokenRepo) DeleteAllForUser(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for hash, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, hash)
		}
	}
	return nil
}

type fakeSettingsRepo struct {
	mu       sync.Mutex
	settings map[uuid.UUID]model.UserSettings
}

func (r *fakeSettingsRepo) Get(_ context.Context, userID uuid.UUID) (*model.UserSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[userID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *fakeSettingsRepo) Upsert(_ context.Context, s *model.UserSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settings == nil {
		r.settings = map[uuid.UUID]model.UserSettings{}
	}
	s.UpdatedAt = time.Now()
	r.settings[s.UserID] = *s
	return nil
}

type fakePresigner struct {
	keys []string
}

func (p *fakePresigner) PresignUpload(_ context.Context, key, _ string) (string, error) {
	p.keys = append(p.keys, key)
	return "https://uploads.example.test/" + key + "?sig=x", nil
}
