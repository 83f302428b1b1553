// Package api serves the emulated GitHub endpoints used by the gist client.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shunichi-ikebuchi/debt-tracker/emulator/store"
)

// GistsHandler handles gist endpoints.
type GistsHandler struct {
	store *store.Store
	// TruncateAt makes file contents longer than this many bytes come back
	// truncated with a raw_url, as GitHub does for large files. Zero disables it.
	TruncateAt int
}

// NewGistsHandler creates a new GistsHandler.
func NewGistsHandler(s *store.Store) *GistsHandler {
	return &GistsHandler{store: s}
}

type fileResponse struct {
	Filename  string `json:"filename"`
	Size      int    `json:"size"`
	RawURL    string `json:"raw_url"`
	Truncated bool   `json:"truncated"`
	Content   string `json:"content"`
}

type gistResponse struct {
	ID          string                  `json:"id"`
	Description string                  `json:"description"`
	Owner       userResponse            `json:"owner"`
	Files       map[string]fileResponse `json:"files"`
	CreatedAt   string                  `json:"created_at"`
	UpdatedAt   string                  `json:"updated_at"`
}

type userResponse struct {
	Login string `json:"login"`
}

type createGistRequest struct {
	Description string                 `json:"description"`
	Files       map[string]fileRequest `json:"files"`
}

type updateGistRequest struct {
	Files map[string]*fileRequest `json:"files"`
}

type fileRequest struct {
	Content string `json:"content"`
}

// User handles GET /user.
func (h *GistsHandler) User(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userResponse{Login: loginFromContext(r.Context())})
}

// Get handles GET /gists/{id}.
// @Summary Get a gist
// @Description Get a gist with its files; content over the truncation limit is cut and flagged
// @Tags gists
// @Produce json
// @Param id path string true "Gist ID"
// @Success 200 {object} gistResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /gists/{id} [get]
// @Security BearerAuth
func (h *GistsHandler) Get(w http.ResponseWriter, r *http.Request) {
	g, ok := h.load(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.render(r, g))
}

// Create handles POST /gists.
func (h *GistsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createGistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Problems parsing JSON")
		return
	}
	if len(req.Files) == 0 {
		writeJSONError(w, http.StatusUnprocessableEntity, "Validation Failed: files is missing")
		return
	}

	files := make(map[string]string, len(req.Files))
	for name, f := range req.Files {
		files[name] = f.Content
	}

	g, err := h.store.CreateGist("", loginFromContext(r.Context()), req.Description, files)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to create gist")
		return
	}
	writeJSON(w, http.StatusCreated, h.render(r, g))
}

// Update handles PATCH /gists/{id}.
// @Summary Update gist files
// @Description Replace the content of the given files; a null file deletes it
// @Tags gists
// @Accept json
// @Produce json
// @Param id path string true "Gist ID"
// @Param request body updateGistRequest true "Files to change"
// @Success 200 {object} gistResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /gists/{id} [patch]
// @Security BearerAuth
func (h *GistsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.load(w, id); !ok {
		return
	}

	var req updateGistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Problems parsing JSON")
		return
	}

	files := make(map[string]*string, len(req.Files))
	for name, f := range req.Files {
		if f == nil {
			files[name] = nil
			continue
		}
		content := f.Content
		files[name] = &content
	}

	g, err := h.store.UpdateGist(id, files)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to update gist")
		return
	}
	writeJSON(w, http.StatusOK, h.render(r, g))
}

// Raw handles GET /raw/{id}/{filename}.
func (h *GistsHandler) Raw(w http.ResponseWriter, r *http.Request) {
	g, ok := h.load(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	f, ok := g.Files[chi.URLParam(r, "filename")]
	if !ok {
		writeJSONError(w, http.StatusNotFound, "Not Found")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(f.Content))
}

func (h *GistsHandler) load(w http.ResponseWriter, id string) (*store.Gist, bool) {
	g, err := h.store.GetGist(id)
	if err != nil {
		if err == store.ErrNotFound || err == store.ErrInvalidID {
			writeJSONError(w, http.StatusNotFound, "Not Found")
			return nil, false
		}
		writeJSONError(w, http.StatusInternalServerError, "Failed to get gist")
		return nil, false
	}
	return g, true
}

func (h *GistsHandler) render(r *http.Request, g *store.Gist) gistResponse {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	files := make(map[string]fileResponse, len(g.Files))
	for name, f := range g.Files {
		resp := fileResponse{
			Filename: name,
			Size:     len(f.Content),
			RawURL:   fmt.Sprintf("%s://%s/raw/%s/%s", scheme, r.Host, g.ID, name),
			Content:  f.Content,
		}
		if h.TruncateAt > 0 && len(f.Content) > h.TruncateAt {
			resp.Content = f.Content[:h.TruncateAt]
			resp.Truncated = true
		}
		files[name] = resp
	}

	return gistResponse{
		ID:          g.ID,
		Description: g.Description,
		Owner:       userResponse{Login: g.Owner},
		Files:       files,
		CreatedAt:   g.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   g.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
