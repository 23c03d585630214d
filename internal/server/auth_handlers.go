package server

import (
	"net/http"
	"time"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/apperr"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/auth"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/models"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/respond"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/services/iam"
)

const tokenTypeBearer = "Bearer"

type loginRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	StadiumID string `json:"stadium_id,omitempty"`
	// TenantID is accepted as an alias of StadiumID.
	TenantID string `json:"tenant_id,omitempty"`
}

type userView struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	FullName    string     `json:"full_name,omitempty"`
	Role        auth.Role  `json:"role"`
	StadiumID   *string    `json:"stadium_id"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func newUserView(u *models.User) userView {
	return userView{
		ID:          u.ID,
		Username:    u.Username,
		FullName:    u.FullName,
		Role:        u.Role,
		StadiumID:   u.StadiumID,
		LastLoginAt: u.LastLoginAt,
	}
}

type loginResponse struct {
	AccessToken      string   `json:"access_token"`
	RefreshToken     string   `json:"refresh_token"`
	TokenType        string   `json:"token_type"`
	ExpiresIn        int64    `json:"expires_in"`
	RefreshExpiresIn int64    `json:"refresh_expires_in"`
	User             userView `json:"user"`
	Permissions      []string `json:"permissions"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type meResponse struct {
	User        userView `json:"user"`
	Permissions []string `json:"permissions"`
	// Rooms lists the hostess's active room assignments.
	Rooms   []string    `json:"rooms,omitempty"`
	Session sessionView `json:"session"`
}

type sessionView struct {
	TokenID   string    `json:"token_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func secondsUntil(t time.Time) int64 {
	d := time.Until(t)
	if d < 0 {
		return 0
	}
	return int64(d.Round(time.Second) / time.Second)
}

// login handles POST /auth/login.
func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := respond.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	stadiumID := req.StadiumID
	if stadiumID == "" {
		stadiumID = req.TenantID
	}

	res, err := h.tokens.Issue(r.Context(), iam.Credentials{
		Username:  req.Username,
		Password:  req.Password,
		StadiumID: stadiumID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, loginResponse{
		AccessToken:      res.Tokens.AccessToken,
		RefreshToken:     res.Tokens.RefreshToken,
		TokenType:        tokenTypeBearer,
		ExpiresIn:        secondsUntil(res.Tokens.AccessExpiresAt),
		RefreshExpiresIn: secondsUntil(res.Tokens.RefreshExpiresAt),
		User:             newUserView(res.User),
		Permissions:      res.Principal.Permissions,
	})
}

// refresh handles POST /auth/refresh.
func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := respond.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.RefreshToken == "" {
		h.fail(w, r, apperr.Validation("refresh_token is required"))
		return
	}

	grant, err := h.tokens.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, refreshResponse{
		AccessToken: grant.AccessToken,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   secondsUntil(grant.ExpiresAt),
	})
}

// logout handles POST /auth/logout. It revokes the presented access token
// first and then, when given, the refresh token of the same user.
func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := auth.PrincipalFromContext(ctx)

	var req refreshRequest
	if err := respond.DecodeOptional(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if token, ok := auth.TokenFromContext(ctx); ok {
		if err := h.tokens.Revoke(ctx, token, iam.ReasonLogout); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	if req.RefreshToken != "" {
		claims, err := h.tokens.Decode(req.RefreshToken)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if claims.UserID != principal.UserID || claims.Type != auth.TokenTypeRefresh {
			h.fail(w, r, apperr.Validation("refresh_token does not belong to this session"))
			return
		}
		if err := h.tokens.Revoke(ctx, req.RefreshToken, iam.ReasonLogout); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// me handles GET /auth/me.
func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	view := userView{ID: principal.UserID, Username: principal.Username, Role: principal.Role}
	if principal.StadiumID != "" {
		stadium := principal.StadiumID
		view.StadiumID = &stadium
	}
	if h.users != nil {
		user, err := h.users.GetByID(r.Context(), principal.UserID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		view = newUserView(user)
	}

	var rooms []string
	if h.rooms != nil && principal.Role == auth.RoleHostess {
		var err error
		if rooms, err = h.rooms.ActiveRooms(r.Context(), principal.UserID); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	respond.JSON(w, http.StatusOK, meResponse{
		User:        view,
		Permissions: principal.Permissions,
		Rooms:       rooms,
		Session: sessionView{
			TokenID:   principal.TokenID,
			IssuedAt:  principal.IssuedAt,
			ExpiresAt: principal.ExpiresAt,
		},
	})
}
