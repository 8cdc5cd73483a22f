package submissions

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/gradethread/gradethread/pkg/handlers"
	"github.com/gradethread/gradethread/pkg/pagination"
	"github.com/gradethread/gradethread/pkg/routes"
)

// Handler provides HTTP endpoints for submission operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// NewHandler creates a Handler with the given system, logger, pagination config, and upload size limit.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "submissions"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for submission endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/submissions",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "GET", Pattern: "/{id}/images", Handler: h.Images},
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
		},
	}
}

// List returns a paginated list of submissions with optional query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single submission by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	sub, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, sub)
}

// Images returns a submission's photos ordered by display order.
func (h *Handler) Images(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	images, err := h.sys.Images(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, images)
}

// Search accepts a JSON body with pagination and filter criteria and returns matching submissions.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}

	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.List(r.Context(), req.PageRequest, req.Filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Create processes a multipart form upload containing garment metadata and
// one or more photo parts named "photos". Image types are supplied as a
// comma-separated "image_types" field matching photo order; unlisted photos
// default to "detail".
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}

	ownerID, err := uuid.Parse(r.FormValue("owner_id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}

	files := r.MultipartForm.File["photos"]
	if len(files) == 0 {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNoImages)
		return
	}

	photos, err := readPhotos(files, r.FormValue("image_types"), h.maxUploadSize)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	cmd := CreateCommand{
		OwnerID:     ownerID,
		GarmentType: r.FormValue("garment_type"),
		Category:    r.FormValue("category"),
		Brand:       r.FormValue("brand"),
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Photos:      photos,
	}

	sub, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, sub)
}

// Delete removes a submission, its image rows, and their blobs.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func readPhotos(files []*multipart.FileHeader, imageTypes string, maxSize int64) ([]PhotoUpload, error) {
	var types []string
	if imageTypes != "" {
		types = strings.Split(imageTypes, ",")
	}

	photos := make([]PhotoUpload, 0, len(files))
	for i, fh := range files {
		if fh.Size > maxSize {
			return nil, ErrFileTooLarge
		}

		imageType := ImageDetail
		if i < len(types) {
			t := ImageType(strings.TrimSpace(types[i]))
			if !t.Valid() {
				return nil, ErrInvalidFile
			}
			imageType = t
		}

		f, err := fh.Open()
		if err != nil {
			return nil, ErrInvalidFile
		}

		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, ErrInvalidFile
		}

		photos = append(photos, PhotoUpload{
			Data:         data,
			Filename:     fh.Filename,
			ContentType:  fh.Header.Get("Content-Type"),
			ImageType:    imageType,
			DisplayOrder: i,
		})
	}

	return photos, nil
}
