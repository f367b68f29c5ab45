package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"yamo/treasury/internal/apperror"
	"yamo/treasury/internal/datacache"
	"yamo/treasury/internal/filterstate"
	"yamo/treasury/internal/logging"
	"yamo/treasury/internal/models"
	"yamo/treasury/internal/view"

	"github.com/go-chi/chi/v5"
)

// Handler serves the section endpoints. Requests are stateless: the filter state of a
// request is rebuilt from its query parameters.
type Handler struct {
	catalog   *view.Catalog
	cache     *datacache.Cache
	delimiter rune
	logger    logging.Logger
}

type sectionSummary struct {
	Name     string          `json:"name"`
	Title    string          `json:"title"`
	Resource models.Resource `json:"resource"`
	Facets   []view.Facet    `json:"facets"`
}

type sectionResponse struct {
	view.Page
	Facets []view.Facet `json:"facets"`
}

type reloadResponse struct {
	LoadedAt map[models.Resource]time.Time `json:"loaded_at"`
	Counts   map[models.Resource]int       `json:"counts"`
}

func (h *Handler) handleSections(w http.ResponseWriter, r *http.Request) {
	snap := h.cache.Snapshot()
	out := make([]sectionSummary, 0, len(h.catalog.Names()))
	for _, b := range h.catalog.Bindings() {
		out = append(out, sectionSummary{
			Name:     b.Name(),
			Title:    b.Title(),
			Resource: b.Resource(),
			Facets:   b.Facets(snap),
		})
	}
	JSON(w, http.StatusOK, out)
}

func (h *Handler) handleSection(w http.ResponseWriter, r *http.Request) {
	b, store, err := h.prepare(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	name := b.Name()
	snap := h.cache.Snapshot()

	page, err := h.evaluate(b, snap, store)
	if err != nil {
		RespondError(w, err)
		return
	}
	page.Badges = store.Badges(name)

	facets := b.Facets(snap)
	for i := range facets {
		facets[i].Selected = store.Selected(name, facets[i].Name)
	}
	JSON(w, http.StatusOK, sectionResponse{Page: page, Facets: facets})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	b, store, err := h.prepare(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	name := b.Name()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".csv"))
	if err := b.WriteCSV(w, h.cache.Snapshot(), store.Selection(name), store.Query(name), h.delimiter); err != nil {
		h.logger.WithError(err).Warn("Failed to write CSV export",
			logging.F(logging.FieldSection, name))
	}
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	var resources []models.Resource
	for _, raw := range r.URL.Query()["resource"] {
		res, err := models.ParseResource(raw)
		if err != nil {
			RespondError(w, fmt.Errorf("%w: %v", ErrBadRequest, err))
			return
		}
		resources = append(resources, res)
	}

	snap, err := h.cache.Reload(r.Context(), resources...)
	if err != nil {
		h.logger.WithError(err).Warn("Data cache reload failed, keeping previous data")
		RespondError(w, err)
		return
	}

	resp := reloadResponse{
		LoadedAt: snap.LoadedAt,
		Counts:   make(map[models.Resource]int, len(models.AllResources)),
	}
	for _, res := range models.AllResources {
		resp.Counts[res] = snap.Len(res)
	}
	JSON(w, http.StatusOK, resp)
}

// prepare resolves the section and builds its filter state from q and facet=name:value.
func (h *Handler) prepare(r *http.Request) (view.Binding, *filterstate.Store, error) {
	b, err := h.catalog.Lookup(chi.URLParam(r, "section"))
	if err != nil {
		return nil, nil, err
	}
	name := b.Name()
	section := b.Section()

	store := filterstate.New()
	params := r.URL.Query()
	for _, raw := range params["facet"] {
		facet, value, ok := strings.Cut(raw, ":")
		facet = strings.TrimSpace(facet)
		if !ok || facet == "" || value == "" {
			return nil, nil, fmt.Errorf("%w: facet must be name:value, got '%s'", ErrBadRequest, raw)
		}
		if _, known := section.Facet(facet); !known {
			return nil, nil, fmt.Errorf("%w: unknown facet '%s' for section '%s'", ErrBadRequest, facet, name)
		}
		if !store.IsSelected(name, facet, value) {
			store.Toggle(name, facet, value)
		}
	}
	store.SetQuery(name, params.Get("q"))
	return b, store, nil
}

func (h *Handler) evaluate(b view.Binding, snap *models.Snapshot, store *filterstate.Store) (page view.Page, err error) {
	name := b.Name()
	defer func() {
		if rec := recover(); rec != nil {
			err = &apperror.EngineError{Section: name, Cause: rec}
			h.logger.WithError(err).Error("Filter evaluation failed",
				logging.F(logging.FieldSection, name))
		}
	}()
	return b.Evaluate(snap, store.Selection(name), store.Query(name)), nil
}
