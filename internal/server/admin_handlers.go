package server

import (
	"net/http"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/logging"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/respond"
)

type purgeResponse struct {
	Purged int64 `json:"purged"`
}

// purgeBlacklist handles POST /admin/blacklist/purge.
func (h *handlers) purgeBlacklist(w http.ResponseWriter, r *http.Request) {
	n, err := h.tokens.CleanupExpired(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	logging.FromContext(r.Context(), h.log).WithField("purged", n).Info("blacklist purged on request")
	respond.JSON(w, http.StatusOK, purgeResponse{Purged: n})
}
