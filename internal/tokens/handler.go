package tokens

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/studyq-platform/studyq/internal/api"
	"github.com/studyq-platform/studyq/internal/auth"
)

// Handler exposes the caller's balance over HTTP.
type Handler struct {
	ledger *Ledger
}

func NewHandler(ledger *Ledger) *Handler {
	return &Handler{ledger: ledger}
}

type balanceResponse struct {
	Tier            Tier      `json:"tier"`
	Balance         int       `json:"balance"`
	WeeklyQuota     int       `json:"weekly_quota"`
	LastRefreshedAt time.Time `json:"last_refreshed_at"`
	NextRefillAt    time.Time `json:"next_refill_at"`
}

// GetBalance returns the authenticated user's balance after any due refill.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	acct, err := h.ledger.Balance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			api.HandleError(w, api.NewNotFoundError("account not found"))
			return
		}
		slog.Error("loading token balance", "user_id", userID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, balanceResponse{
		Tier:            acct.Tier,
		Balance:         acct.Balance,
		WeeklyQuota:     acct.Tier.Quota(),
		LastRefreshedAt: acct.LastRefreshedAt,
		NextRefillAt:    acct.LastRefreshedAt.Add(RefillInterval),
	})
}
