package dating

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/imadgeboyega/datescape-backend/internal/auth"
	"github.com/imadgeboyega/datescape-backend/internal/common/utils"
	"github.com/imadgeboyega/datescape-backend/internal/profile"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) GetQueue(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var params QueueParams
	if limit := r.URL.Query().Get("limit"); limit != "" {
		l, err := strconv.Atoi(limit)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		params.Limit = l
	}
	if err := utils.ValidateStruct(&params); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.service.Queue(r.Context(), userID, params.Limit)
	if err != nil {
		respondError(w, err, "Failed to get queue")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, items)
}

func (h *Handler) GetLikes(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	items, err := h.service.Likes(r.Context(), userID)
	if err != nil {
		respondError(w, err, "Failed to get likes")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, items)
}

func (h *Handler) GetMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	items, err := h.service.Matches(r.Context(), userID)
	if err != nil {
		respondError(w, err, "Failed to get matches")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, items)
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	m, err := h.service.GetMatch(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		respondError(w, err, "Failed to get match")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, m)
}

func (h *Handler) RecordDecision(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var dto DecisionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := utils.ValidateStruct(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	m, err := h.service.RecordDecision(r.Context(), mux.Vars(r)["id"], userID, dto.Liked())
	if err != nil {
		respondError(w, err, "Failed to record decision")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, m)
}

func (h *Handler) Unmatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	m, err := h.service.Unmatch(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		respondError(w, err, "Failed to unmatch")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, m)
}

func (h *Handler) NotifyMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	matchID := mux.Vars(r)["id"]
	sent, err := h.service.NotifyNewMessage(r.Context(), matchID, userID)
	if err != nil {
		respondError(w, err, "Failed to send message notification")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, MessageNotifyResponse{MatchID: matchID, Sent: sent})
}

func (h *Handler) AcknowledgeMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.service.AcknowledgeMessages(r.Context(), mux.Vars(r)["id"], userID); err != nil {
		respondError(w, err, "Failed to acknowledge messages")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ResolveLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	linkID := mux.Vars(r)["linkId"]
	otherID, matchID, err := ResolveLink(linkID, userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.service.GetMatch(r.Context(), matchID, userID)
	if err != nil {
		respondError(w, err, "Failed to resolve link")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, LinkResponse{LinkID: linkID, MatchID: matchID, UserID: otherID, Match: m})
}

func (h *Handler) GetCompatibility(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	report, err := h.service.GetCompatibility(r.Context(), userID, mux.Vars(r)["userId"])
	if err != nil {
		respondError(w, err, "Failed to calculate compatibility")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, report)
}

func (h *Handler) Regenerate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.service.RegenerateFor(r.Context(), userID); err != nil {
		respondError(w, err, "Failed to regenerate matches")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, RegenerateResponse{UserID: userID, Regenerated: true})
}

func respondError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrMatchNotFound), errors.Is(err, profile.ErrProfileNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotParticipant):
		utils.RespondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidMatchID), errors.Is(err, ErrCannotMatchSelf):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidProfile), errors.Is(err, profile.ErrInvalidProfile):
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrConcurrentUpdate), errors.Is(err, ErrDecisionClosed), errors.Is(err, ErrNotMatched):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrStoreUnavailable):
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Match store unavailable, try again later")
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
