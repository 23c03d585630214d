// Package guest edits guest records under an optimistic lock.
package guest

import (
	"context"
	"net/mail"
	"strings"
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

// Patch lists the fields to change. Nil fields are left untouched.
type Patch struct {
	FirstName   *string
	LastName    *string
	CompanyName *string
	Email       *string
	Phone       *string
	VIPLevel    *string
	TableNumber *string
	Notes       *string
	RoomID      *string
}

// Service reads and edits guests.
type Service struct {
	guests   repository.GuestRepository
	stadiums repository.StadiumRepository
	guard    *iam.AccessGuard
	notifier Notifier
	metrics  *telemetry.DomainMetrics
	log      logrus.FieldLogger
}

// NewService constructs a new Service instance.
func NewService(guests repository.GuestRepository, stadiums repository.StadiumRepository, guard *iam.AccessGuard) *Service {
	return &Service{
		guests:   guests,
		stadiums: stadiums,
		guard:    guard,
		log:      logrus.StandardLogger(),
	}
}

// WithNotifier sets where hostess edits are announced (optional dependency).
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// WithMetrics attaches the conflict counter (optional dependency).
func (s *Service) WithMetrics(m *telemetry.DomainMetrics) *Service {
	s.metrics = m
	return s
}

// WithLogger replaces the standard logger (optional dependency).
func (s *Service) WithLogger(log logrus.FieldLogger) *Service {
	s.log = log.WithField("pkg", "guest")
	return s
}

// Get returns a guest visible to p, with its current version.
func (s *Service) Get(ctx context.Context, p auth.Principal, guestID, stadiumID string) (*models.Guest, error) {
	return s.load(ctx, p, guestID, stadiumID, auth.GuestRead)
}

// Update applies patch when expected equals the stored version. On
// VERSION_CONFLICT nothing is written and the error carries the current
// version so the client can re-fetch.
func (s *Service) Update(ctx context.Context, p auth.Principal, guestID, stadiumID string, patch Patch, expected time.Time) (*models.Guest, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerGuest, "guest.Update",
		attribute.String(telemetry.AttrGuestID, guestID),
		attribute.String(telemetry.AttrPrincipalID, p.UserID),
	)
	defer span.End()

	if expected.IsZero() {
		return nil, apperr.Validation("updated_at is required for guest updates")
	}

	current, err := s.load(ctx, p, guestID, stadiumID, auth.GuestUpdate)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	updated := *current
	columns, err := s.apply(ctx, p, &updated, patch)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if len(columns) == 0 {
		return nil, apperr.Validation("no fields to update")
	}

	if err := s.guests.UpdateIfVersion(ctx, &updated, expected, columns...); err != nil {
		if apperr.IsCode(err, apperr.CodeVersionConflict) {
			s.metrics.RecordConflict(ctx, "guest")
			s.log.WithFields(logrus.Fields{
				"guest_id":  guestID,
				"editor_id": p.UserID,
				"expected":  expected,
			}).Info("guest update rejected: stale version")
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	if p.Role == auth.RoleHostess && s.notifier != nil {
		edit := Edit{
			GuestID:   updated.ID,
			StadiumID: updated.StadiumID,
			RoomID:    updated.RoomID,
			EditorID:  p.UserID,
			Editor:    p.Username,
			Fields:    columns,
			Version:   updated.UpdatedAt,
		}
		if err := s.notifier.Notify(ctx, edit); err != nil {
			s.log.WithError(err).WithField("guest_id", updated.ID).Warn("guest edit notification failed")
		}
	}

	return &updated, nil
}

func (s *Service) load(ctx context.Context, p auth.Principal, guestID, stadiumID, perm string) (*models.Guest, error) {
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
	g, err := s.guests.GetByID(ctx, guestID)
	if err != nil {
		return nil, err
	}
	if g.StadiumID != scope || !g.IsActive {
		return nil, apperr.NotFound("guest %s not found", guestID)
	}
	if err := s.guard.CanActOnRoom(ctx, p, g.RoomID); err != nil {
		return nil, err
	}
	return g, nil
}

// apply copies patch onto g and returns the changed column names.
func (s *Service) apply(ctx context.Context, p auth.Principal, g *models.Guest, patch Patch) ([]string, error) {
	var columns []string
	set := func(column string, dst *string, v *string, required bool) error {
		if v == nil {
			return nil
		}
		val := strings.TrimSpace(*v)
		if required && val == "" {
			return apperr.Validation("%s must not be empty", column).WithDetail("field", column)
		}
		*dst = val
		columns = append(columns, column)
		return nil
	}

	if err := set("first_name", &g.FirstName, patch.FirstName, true); err != nil {
		return nil, err
	}
	if err := set("last_name", &g.LastName, patch.LastName, true); err != nil {
		return nil, err
	}
	if patch.Email != nil && strings.TrimSpace(*patch.Email) != "" {
		if _, err := mail.ParseAddress(strings.TrimSpace(*patch.Email)); err != nil {
			return nil, apperr.Validation("email is not a valid address").WithDetail("field", "email")
		}
	}
	if patch.VIPLevel != nil && !models.ValidVIPLevel(strings.TrimSpace(*patch.VIPLevel)) {
		return nil, apperr.Validation("unknown vip_level %q", *patch.VIPLevel).WithDetail("field", "vip_level")
	}
	for _, f := range []struct {
		column string
		dst    *string
		v      *string
	}{
		{"company_name", &g.CompanyName, patch.CompanyName},
		{"email", &g.Email, patch.Email},
		{"phone", &g.Phone, patch.Phone},
		{"vip_level", &g.VIPLevel, patch.VIPLevel},
		{"table_number", &g.TableNumber, patch.TableNumber},
		{"notes", &g.Notes, patch.Notes},
	} {
		_ = set(f.column, f.dst, f.v, false)
	}

	if patch.RoomID != nil && *patch.RoomID != g.RoomID {
		// Room moves are reserved for admins.
		if err := s.guard.RequireRole(p, auth.RoleStadiumAdmin); err != nil {
			return nil, err
		}
		if err := s.guard.RequirePermission(p, auth.GuestMoveRoom); err != nil {
			return nil, err
		}
		room, err := s.stadiums.GetRoom(ctx, *patch.RoomID)
		if err != nil {
			if apperr.IsCode(err, apperr.CodeNotFound) {
				return nil, apperr.Validation("room %s does not exist", *patch.RoomID).WithDetail("field", "room_id")
			}
			return nil, err
		}
		if room.StadiumID != g.StadiumID {
			return nil, apperr.Validation("room %s belongs to another stadium", room.ID).WithDetail("field", "room_id")
		}
		g.RoomID = room.ID
		columns = append(columns, "room_id")
	}

	return columns, nil
}
