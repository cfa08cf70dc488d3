package api

import (
	"context"
	"net/http"

	"github.com/okian/gamestore/internal/domain/model"
	"github.com/okian/gamestore/pkg/logger"
)

// GamesDependencies defines the raw data operations.
type GamesDependencies interface {
	Games(ctx context.Context) ([]model.GameRecord, error)
	Images(ctx context.Context) ([]string, error)
}

// GamesHandler serves the stored records and the image listing unchanged.
type GamesHandler struct {
	deps   GamesDependencies
	logger logger.Logger
}

// NewGamesHandler creates a new games handler.
func NewGamesHandler(deps GamesDependencies, l logger.Logger) *GamesHandler {
	return &GamesHandler{deps: deps, logger: l}
}

type imagesResponse struct {
	Images []string `json:"images"`
}

// HandleGames handles GET /api/games.
func (h *GamesHandler) HandleGames(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_games"
	games, err := h.deps.Games(r.Context())
	if err != nil {
		e := WrapKind(op, ErrGamesUnavailable, err)
		h.logger.Error(r.Context(), "games query failed", logger.String("cause", e.Cause()))
		writeError(w, http.StatusInternalServerError, "games_unavailable", e)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// HandleImages handles GET /api/images.
func (h *GamesHandler) HandleImages(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_images"
	images, err := h.deps.Images(r.Context())
	if err != nil {
		e := WrapKind(op, ErrImagesUnavailable, err)
		h.logger.Error(r.Context(), "image listing failed", logger.String("cause", e.Cause()))
		writeError(w, http.StatusInternalServerError, "images_unavailable", e)
		return
	}
	writeJSON(w, http.StatusOK, imagesResponse{Images: images})
}
