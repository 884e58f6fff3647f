package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sphera-labs/sphera-backend/internal/metadata"
	"github.com/sphera-labs/sphera-backend/internal/players"
)

// PlayerAPI serves the player-record endpoints backed by the CSV store and
// the card metadata service.
type PlayerAPI struct {
	Store *players.Store
	Meta  *metadata.Client
	Log   *zap.Logger
}

type assignRequest struct {
	NFTID json.Number `json:"nftId"`
}

type assignResponse struct {
	Success         bool           `json:"success"`
	Player          players.Record `json:"player"`
	AdditionApplied int            `json:"additionApplied"`
}

// AssignNFT binds a card to a random unassigned player record and applies
// the card's addition value to its stats.
func (a *PlayerAPI) AssignNFT(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NFTID.String() == "" {
		writeError(w, http.StatusBadRequest, "NFT ID is required")
		return
	}
	nftID := req.NFTID.String()

	meta, err := a.Meta.Fetch(r.Context(), nftID)
	if err != nil {
		a.Log.Error("assign: metadata fetch failed", zap.String("nft", nftID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch NFT metadata")
		return
	}

	rec, err := a.Store.AssignNFT(nftID, meta.Addition)
	if errors.Is(err, players.ErrNoAvailablePlayers) {
		writeError(w, http.StatusNotFound, "No available players found")
		return
	}
	if err != nil {
		a.Log.Error("assign: store update failed", zap.String("nft", nftID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to process request")
		return
	}

	a.Log.Info("card assigned",
		zap.String("nft", nftID),
		zap.String("player", rec.Name),
		zap.Int("addition", meta.Addition))
	writeJSON(w, http.StatusOK, assignResponse{
		Success:         true,
		Player:          rec,
		AdditionApplied: meta.Addition,
	})
}

// PlayersByNFTIDs returns the records assigned to a comma-separated list of
// card ids.
func (a *PlayerAPI) PlayersByNFTIDs(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("nftIds")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "NFT IDs are required")
		return
	}

	ids := strings.Split(raw, ",")
	for i := range ids {
		ids[i] = strings.TrimSpace(ids[i])
	}

	recs, err := a.Store.ByNFTIDs(ids)
	if err != nil {
		a.Log.Error("lookup by nft ids failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to process request")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
