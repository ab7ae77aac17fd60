package feed

import (
	"net/http"
	"strings"

	"github.com/ayush/feed-api/internal/apperr"
	"github.com/ayush/feed-api/internal/auth"
	"github.com/ayush/feed-api/internal/models"
	"github.com/ayush/feed-api/internal/respond"
	"github.com/ayush/feed-api/internal/validate"
)

var statusMessages = map[string]string{
	"status": "Status must not be empty.",
}

// GetStatus returns the caller's status text.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUserByID(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respond.Error(w, r, h.log, notFound(err, "User not found."))
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": user.Status})
}

// UpdateStatus replaces the caller's status text.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.StatusRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, h.log, apperr.Validation("Invalid request body.", nil))
		return
	}
	req.Status = strings.TrimSpace(req.Status)

	details, err := validate.Struct(req, statusMessages)
	if err != nil {
		respond.Error(w, r, h.log, apperr.Internal(err))
		return
	}
	if len(details) > 0 {
		respond.Error(w, r, h.log, apperr.Validation("Validation failed, entered data is incorrect.", details))
		return
	}

	if err := h.users.SetStatus(ctx, auth.UserID(ctx), req.Status); err != nil {
		respond.Error(w, r, h.log, notFound(err, "User not found."))
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{
		"message": "User updated.",
		"status":  req.Status,
	})
}
