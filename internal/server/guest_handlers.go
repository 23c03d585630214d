package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/apperr"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/auth"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/models"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/respond"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/services/checkin"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/services/guest"
)

// The stadium a request acts on comes from the header or, failing that, the
// query parameter. Only super admins need it; others may repeat their own.
const (
	stadiumHeader = "X-Stadium-ID"
	stadiumParam  = "stadium_id"
)

func requestedStadium(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(stadiumHeader)); v != "" {
		return v
	}
	return strings.TrimSpace(r.URL.Query().Get(stadiumParam))
}

type guestView struct {
	ID          string    `json:"id"`
	StadiumID   string    `json:"stadium_id"`
	RoomID      string    `json:"room_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	CompanyName string    `json:"company_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	VIPLevel    string    `json:"vip_level"`
	TableNumber string    `json:"table_number,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newGuestView(g *models.Guest) guestView {
	return guestView{
		ID:          g.ID,
		StadiumID:   g.StadiumID,
		RoomID:      g.RoomID,
		FirstName:   g.FirstName,
		LastName:    g.LastName,
		CompanyName: g.CompanyName,
		Email:       g.Email,
		Phone:       g.Phone,
		VIPLevel:    g.VIPLevel,
		TableNumber: g.TableNumber,
		Notes:       g.Notes,
		UpdatedAt:   g.UpdatedAt,
	}
}

type transitionRequest struct {
	DeviceType string `json:"device_type,omitempty"`
}

type transitionResponse struct {
	AccessID        int64     `json:"access_id"`
	AccessTime      time.Time `json:"access_time"`
	DurationMinutes *int      `json:"duration_minutes,omitempty"`
	Guest           guestView `json:"guest"`
}

type accessEventView struct {
	ID         int64     `json:"id"`
	AccessType string    `json:"access_type"`
	AccessTime time.Time `json:"access_time"`
	HostessID  string    `json:"hostess_id"`
	DeviceType string    `json:"device_type"`
}

type historyResponse struct {
	GuestID string            `json:"guest_id"`
	State   checkin.State     `json:"state"`
	Events  []accessEventView `json:"events"`
}

type updateGuestRequest struct {
	FirstName   *string    `json:"first_name,omitempty"`
	LastName    *string    `json:"last_name,omitempty"`
	CompanyName *string    `json:"company_name,omitempty"`
	Email       *string    `json:"email,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	VIPLevel    *string    `json:"vip_level,omitempty"`
	TableNumber *string    `json:"table_number,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	RoomID      *string    `json:"room_id,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type conflictResponse struct {
	Conflict       bool                `json:"conflict"`
	CurrentVersion any                 `json:"current_version,omitempty"`
	Error          respond.ErrorDetail `json:"error"`
}

func etag(v time.Time) string {
	return `"` + v.UTC().Format(time.RFC3339Nano) + `"`
}

// expectedVersion reads the client's version from If-Match, falling back
// to the updated_at body field.
func expectedVersion(r *http.Request, body *time.Time) (time.Time, error) {
	if raw := strings.TrimSpace(r.Header.Get("If-Match")); raw != "" {
		raw = strings.TrimPrefix(raw, "W/")
		v, err := time.Parse(time.RFC3339Nano, strings.Trim(raw, `"`))
		if err != nil {
			return time.Time{}, apperr.Validation("If-Match must be an RFC 3339 timestamp")
		}
		return v, nil
	}
	if body != nil {
		return *body, nil
	}
	return time.Time{}, nil
}

func (h *handlers) transitionRequest(w http.ResponseWriter, r *http.Request) (checkin.Request, bool) {
	var body transitionRequest
	if err := respond.DecodeOptional(r, &body); err != nil {
		h.fail(w, r, err)
		return checkin.Request{}, false
	}
	return checkin.Request{
		GuestID:    chi.URLParam(r, "id"),
		StadiumID:  requestedStadium(r),
		DeviceType: checkin.NormalizeDevice(body.DeviceType, r.UserAgent()),
	}, true
}

// checkinGuest handles POST /guests/{id}/checkin.
func (h *handlers) checkinGuest(w http.ResponseWriter, r *http.Request) {
	req, ok := h.transitionRequest(w, r)
	if !ok {
		return
	}
	principal, _ := auth.PrincipalFromContext(r.Context())

	res, err := h.checkin.Checkin(r.Context(), principal, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, transitionResponse{
		AccessID:   res.AccessID,
		AccessTime: res.AccessTime,
		Guest:      newGuestView(res.Guest),
	})
}

// checkoutGuest handles POST /guests/{id}/checkout.
func (h *handlers) checkoutGuest(w http.ResponseWriter, r *http.Request) {
	req, ok := h.transitionRequest(w, r)
	if !ok {
		return
	}
	principal, _ := auth.PrincipalFromContext(r.Context())

	res, err := h.checkin.Checkout(r.Context(), principal, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	minutes := res.DurationMinutes
	respond.JSON(w, http.StatusOK, transitionResponse{
		AccessID:        res.AccessID,
		AccessTime:      res.AccessTime,
		DurationMinutes: &minutes,
		Guest:           newGuestView(res.Guest),
	})
}

// accessHistory handles GET /guests/{id}/access-history.
func (h *handlers) accessHistory(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	history, err := h.checkin.History(r.Context(), principal, chi.URLParam(r, "id"), requestedStadium(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	events := make([]accessEventView, 0, len(history.Events))
	for _, e := range history.Events {
		events = append(events, accessEventView{
			ID:         e.ID,
			AccessType: string(e.AccessType),
			AccessTime: e.AccessTime,
			HostessID:  e.HostessID,
			DeviceType: e.DeviceType,
		})
	}
	respond.JSON(w, http.StatusOK, historyResponse{
		GuestID: history.GuestID,
		State:   history.State,
		Events:  events,
	})
}

// getGuest handles GET /guests/{id}.
func (h *handlers) getGuest(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	g, err := h.guests.Get(r.Context(), principal, chi.URLParam(r, "id"), requestedStadium(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("ETag", etag(g.UpdatedAt))
	respond.JSON(w, http.StatusOK, newGuestView(g))
}

// updateGuest handles PUT /guests/{id}. A stale version answers 409 with
// conflict=true and the current version.
func (h *handlers) updateGuest(w http.ResponseWriter, r *http.Request) {
	var req updateGuestRequest
	if err := respond.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	expected, err := expectedVersion(r, req.UpdatedAt)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	principal, _ := auth.PrincipalFromContext(r.Context())

	patch := guest.Patch{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		CompanyName: req.CompanyName,
		Email:       req.Email,
		Phone:       req.Phone,
		VIPLevel:    req.VIPLevel,
		TableNumber: req.TableNumber,
		Notes:       req.Notes,
		RoomID:      req.RoomID,
	}
	g, err := h.guests.Update(r.Context(), principal, chi.URLParam(r, "id"), requestedStadium(r), patch, expected)
	if err != nil {
		if e, ok := apperr.As(err); ok && e.Code == apperr.CodeVersionConflict {
			respond.JSON(w, http.StatusConflict, conflictResponse{
				Conflict:       true,
				CurrentVersion: e.Details["current_version"],
				Error: respond.ErrorDetail{
					Kind:    e.Kind(),
					Code:    e.Code,
					Message: e.Message,
					Details: e.Details,
				},
			})
			return
		}
		h.fail(w, r, err)
		return
	}
	w.Header().Set("ETag", etag(g.UpdatedAt))
	respond.JSON(w, http.StatusOK, newGuestView(g))
}
