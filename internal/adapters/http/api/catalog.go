package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	service "github.com/okian/gamestore/internal/app"
	"github.com/okian/gamestore/internal/domain/catalog"
	"github.com/okian/gamestore/internal/domain/progress"
	"github.com/okian/gamestore/pkg/logger"
)

// CatalogDependencies defines the browser page operations.
type CatalogDependencies interface {
	Catalog(ctx context.Context, q catalog.Query) (catalog.Page, error)
	Progress() progress.Snapshot
}

// CatalogHandler serves the filtered, paginated table and preload progress.
type CatalogHandler struct {
	deps   CatalogDependencies
	logger logger.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(deps CatalogDependencies, l logger.Logger) *CatalogHandler {
	return &CatalogHandler{deps: deps, logger: l}
}

// HandleCatalog handles GET /api/catalog?q=&platform=&page=.
// A missing page means the first one; pages past the end are clamped.
func (h *CatalogHandler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_catalog"
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	page, err := h.deps.Catalog(r.Context(), q)
	if err != nil {
		kind, code := ErrGamesUnavailable, "games_unavailable"
		if errors.Is(err, service.ErrAssets) {
			kind, code = ErrImagesUnavailable, "images_unavailable"
		}
		e := WrapKind(op, kind, err)
		h.logger.Error(r.Context(), "catalog build failed", logger.String("cause", e.Cause()))
		writeError(w, http.StatusInternalServerError, code, e)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleProgress handles GET /api/progress.
func (h *CatalogHandler) HandleProgress(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Progress())
}

func parseQuery(r *http.Request) (catalog.Query, error) {
	values := r.URL.Query()

	platform, err := catalog.ParsePlatform(values.Get("platform"))
	if err != nil {
		return catalog.Query{}, err
	}

	page := 1
	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil {
			return catalog.Query{}, err
		}
	}

	return catalog.Query{
		Search:   values.Get("q"),
		Platform: platform,
		Page:     page,
	}, nil
}
