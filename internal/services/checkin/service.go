// Package checkin records guest entries and exits.
//
// Presence is never stored: it is a pure function of the newest row of the
// append-only access log. Every transition reads that row and appends the
// next one inside a single transaction serialized per guest, so two devices
// tapping the same guest at once produce exactly one event.
package checkin

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/apperr"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/auth"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/models"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/repository"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/services/iam"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/telemetry"
)

// Request identifies the guest a transition applies to.
type Request struct {
	GuestID string
	// StadiumID is the stadium named by the caller. Required for super
	// admins, optional (and checked) for everyone else.
	StadiumID string
	// DeviceType is stored as given; callers classify it with
	// NormalizeDevice. Empty means DeviceUnknown.
	DeviceType string
}

// Result describes an appended access event.
type Result struct {
	AccessID   int64
	AccessTime time.Time
	// DurationMinutes is the dwell time; only set on checkout.
	DurationMinutes int
	Guest           *models.Guest
}

// History is the ordered access log of a guest with its derived state.
type History struct {
	GuestID string
	State   State
	Events  []models.AccessEvent
}

// Service drives the check-in state machine.
type Service struct {
	guests  repository.GuestRepository
	events  repository.AccessEventRepository
	guard   *iam.AccessGuard
	metrics *telemetry.DomainMetrics
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewService constructs a new Service instance.
func NewService(guests repository.GuestRepository, events repository.AccessEventRepository, guard *iam.AccessGuard) *Service {
	return &Service{
		guests: guests,
		events: events,
		guard:  guard,
		log:    logrus.StandardLogger(),
		now:    time.Now,
	}
}

// WithMetrics attaches transition counters (optional dependency).
func (s *Service) WithMetrics(m *telemetry.DomainMetrics) *Service {
	s.metrics = m
	return s
}

// WithLogger replaces the standard logger (optional dependency).
func (s *Service) WithLogger(log logrus.FieldLogger) *Service {
	s.log = log.WithField("pkg", "checkin")
	return s
}

// Checkin appends an entry event. A guest already present fails with
// ALREADY_CHECKED_IN carrying the prior entry's time and hostess.
func (s *Service) Checkin(ctx context.Context, p auth.Principal, req Request) (*Result, error) {
	return s.transition(ctx, p, req, models.AccessEntry)
}

// Checkout appends an exit event and reports the dwell time since the
// matching entry. A guest not present fails with NOT_CHECKED_IN.
func (s *Service) Checkout(ctx context.Context, p auth.Principal, req Request) (*Result, error) {
	return s.transition(ctx, p, req, models.AccessExit)
}

func (s *Service) transition(ctx context.Context, p auth.Principal, req Request, to models.AccessType) (*Result, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerCheckin, "checkin."+string(to),
		attribute.String(telemetry.AttrGuestID, req.GuestID),
		attribute.String(telemetry.AttrPrincipalID, p.UserID),
		attribute.String(telemetry.AttrAccessType, string(to)),
	)
	defer span.End()

	guest, err := s.authorize(ctx, p, req.GuestID, req.StadiumID, auth.CheckinWrite)
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordTransition(ctx, string(to), outcomeOf(err))
		return nil, err
	}
	span.SetAttributes(
		attribute.String(telemetry.AttrStadiumID, guest.StadiumID),
		attribute.String(telemetry.AttrRoomID, guest.RoomID),
	)

	device := req.DeviceType
	if device == "" {
		device = DeviceUnknown
	}
	var lastEntry time.Time

	event, err := s.events.AppendTransition(ctx, guest.ID, func(latest *models.AccessEvent) (*models.AccessEvent, error) {
		state := DeriveState(latest)
		switch to {
		case models.AccessEntry:
			if state == StatePresent {
				return nil, apperr.New(apperr.CodeAlreadyCheckedIn, "guest %s is already checked in", guest.ID).
					WithDetail("access_time", latest.AccessTime.UTC()).
					WithDetail("hostess_id", latest.HostessID)
			}
		case models.AccessExit:
			if state == StateNotPresent {
				return nil, apperr.New(apperr.CodeNotCheckedIn, "guest %s is not checked in", guest.ID)
			}
			lastEntry = latest.AccessTime
		}
		return &models.AccessEvent{
			HostessID:  p.UserID,
			StadiumID:  guest.StadiumID,
			AccessType: to,
			AccessTime: s.now().UTC(),
			DeviceType: device,
		}, nil
	})
	s.metrics.RecordTransition(ctx, string(to), outcomeOf(err))
	if err != nil {
		telemetry.RecordError(span, err)
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("append %s event: %w", to, err)
	}

	res := &Result{
		AccessID:   event.ID,
		AccessTime: event.AccessTime,
		Guest:      guest,
	}
	if to == models.AccessExit {
		res.DurationMinutes = dwellMinutes(lastEntry, event.AccessTime)
	}

	s.log.WithFields(logrus.Fields{
		"guest_id":   guest.ID,
		"stadium_id": guest.StadiumID,
		"hostess_id": p.UserID,
		"access_id":  event.ID,
		"device":     device,
	}).Infof("guest %s", to)

	return res, nil
}

// State returns the derived presence of a guest.
func (s *Service) State(ctx context.Context, p auth.Principal, guestID, stadiumID string) (State, error) {
	guest, err := s.authorize(ctx, p, guestID, stadiumID, auth.GuestRead)
	if err != nil {
		return "", err
	}
	latest, err := s.events.Latest(ctx, guest.ID)
	if err != nil {
		return "", err
	}
	return DeriveState(latest), nil
}

// History returns the access log of a guest, oldest first.
func (s *Service) History(ctx context.Context, p auth.Principal, guestID, stadiumID string) (*History, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerCheckin, "checkin.History",
		attribute.String(telemetry.AttrGuestID, guestID),
	)
	defer span.End()

	guest, err := s.authorize(ctx, p, guestID, stadiumID, auth.AccessHistoryRead)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	events, err := s.events.ListByGuest(ctx, guest.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var latest *models.AccessEvent
	if len(events) > 0 {
		latest = &events[len(events)-1]
	}
	return &History{GuestID: guest.ID, State: DeriveState(latest), Events: events}, nil
}

// authorize loads the guest and checks permission, stadium scope and room
// assignment. A guest outside the caller's stadium is reported as not found.
func (s *Service) authorize(ctx context.Context, p auth.Principal, guestID, stadiumID, perm string) (*models.Guest, error) {
	if guestID == "" {
		return nil, apperr.Validation("guest id is required")
	}
	if err := s.guard.RequirePermission(p, perm); err != nil {
		return nil, err
	}
	scope, err := s.guard.ScopeFor(p, stadiumID)
	if err != nil {
		return nil, err
	}
	guest, err := s.guests.GetByID(ctx, guestID)
	if err != nil {
		return nil, err
	}
	if guest.StadiumID != scope || !guest.IsActive {
		return nil, apperr.NotFound("guest %s not found", guestID)
	}
	if err := s.guard.CanActOnRoom(ctx, p, guest.RoomID); err != nil {
		return nil, err
	}
	return guest, nil
}

func dwellMinutes(entry, exit time.Time) int {
	if entry.IsZero() || exit.Before(entry) {
		return 0
	}
	return int(exit.Sub(entry) / time.Minute)
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	if e, ok := apperr.As(err); ok {
		return string(e.Code)
	}
	return string(apperr.CodeInternal)
}
