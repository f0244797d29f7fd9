package dashboard

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/bridge-rewarder/pkg/app/errors"
	apphttp "github.com/chainsafe/bridge-rewarder/pkg/app/http"
)

// HTTP exposes the dashboard Service over HTTP
type HTTP struct {
	service Service
	logger  *zap.Logger
}

// RegisterRoutes registers the dashboard endpoints on r
func RegisterRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Get("/status", apphttp.HandleError(logger, h.status))
	r.Get("/rewards", apphttp.HandleError(logger, h.listRewards))
	r.Get("/rewards/{id}", apphttp.HandleError(logger, h.getReward))
}

func (h *HTTP) status(w http.ResponseWriter, r *http.Request) error {
	resp, err := h.service.Status(r.Context())
	if err != nil {
		return apperrors.DependencyFailureError(err, "failed to load status")
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *HTTP) listRewards(w http.ResponseWriter, r *http.Request) error {
	limit := DefaultRewardsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return apperrors.BadRequestError(err, "limit must be a positive integer")
		}
		limit = n
	}

	resp, err := h.service.LatestRewards(r.Context(), limit)
	if err != nil {
		return apperrors.DependencyFailureError(err, "failed to list rewards")
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *HTTP) getReward(w http.ResponseWriter, r *http.Request) error {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return apperrors.BadRequestError(err, "invalid reward id")
	}

	resp, err := h.service.Reward(r.Context(), id)
	if errors.Is(err, ErrRewardNotFound) {
		return apperrors.ResourceNotFoundError(err, "reward not found")
	}
	if err != nil {
		return apperrors.DependencyFailureError(err, "failed to get reward")
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}
