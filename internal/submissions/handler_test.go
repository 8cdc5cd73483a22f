package submissions_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gradethread/gradethread/internal/submissions"
	"github.com/gradethread/gradethread/pkg/pagination"
)

type mockSystem struct {
	listFn       func(ctx context.Context, page pagination.PageRequest, filters submissions.Filters) (*pagination.PageResult[submissions.Submission], error)
	findFn       func(ctx context.Context, id uuid.UUID) (*submissions.Submission, error)
	imagesFn     func(ctx context.Context, submissionID uuid.UUID) ([]submissions.SubmissionImage, error)
	createFn     func(ctx context.Context, cmd submissions.CreateCommand) (*submissions.Submission, error)
	beginFn      func(ctx context.Context, id uuid.UUID) (*submissions.Submission, error)
	transitionFn func(ctx context.Context, id uuid.UUID, from, to submissions.Status) error
	deleteFn     func(ctx context.Context, id uuid.UUID) error
}

func (m *mockSystem) Handler(maxUploadSize int64) *submissions.Handler {
	return submissions.NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}, maxUploadSize)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters submissions.Filters) (*pagination.PageResult[submissions.Submission], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*submissions.Submission, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Images(ctx context.Context, submissionID uuid.UUID) ([]submissions.SubmissionImage, error) {
	return m.imagesFn(ctx, submissionID)
}

func (m *mockSystem) Create(ctx context.Context, cmd submissions.CreateCommand) (*submissions.Submission, error) {
	return m.createFn(ctx, cmd)
}

func (m *mockSystem) BeginProcessing(ctx context.Context, id uuid.UUID) (*submissions.Submission, error) {
	return m.beginFn(ctx, id)
}

func (m *mockSystem) Transition(ctx context.Context, id uuid.UUID, from, to submissions.Status) error {
	return m.transitionFn(ctx, id, from, to)
}

func (m *mockSystem) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func newTestHandler(sys *mockSystem) *submissions.Handler {
	return submissions.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
		50*1024*1024,
	)
}

func setupMux(h *submissions.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func sampleSubmission() submissions.Submission {
	return submissions.Submission{
		ID:          uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		OwnerID:     uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		GarmentType: "jacket",
		Category:    "outerwear",
		Brand:       "Levi's",
		Title:       "Vintage Type III trucker",
		Status:      submissions.StatusPending,
		CreatedAt:   time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestHandlerList(t *testing.T) {
	sub := sampleSubmission()
	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, _ submissions.Filters) (*pagination.PageResult[submissions.Submission], error) {
			result := pagination.NewPageResult([]submissions.Submission{sub}, 1, 1, 20)
			return &result, nil
		},
	}

	mux := setupMux(newTestHandler(sys))

	t.Run("returns paginated list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/submissions", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var result pagination.PageResult[submissions.Submission]
		if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
			t.Fatalf("decode: %v", err)
		}

		if result.Total != 1 {
			t.Errorf("total = %d, want 1", result.Total)
		}
		if len(result.Data) != 1 {
			t.Fatalf("data length = %d, want 1", len(result.Data))
		}
		if result.Data[0].ID != sub.ID {
			t.Errorf("id = %v, want %v", result.Data[0].ID, sub.ID)
		}
	})

	t.Run("passes query filters", func(t *testing.T) {
		var captured submissions.Filters
		sys.listFn = func(_ context.Context, _ pagination.PageRequest, f submissions.Filters) (*pagination.PageResult[submissions.Submission], error) {
			captured = f
			result := pagination.NewPageResult([]submissions.Submission{}, 0, 1, 20)
			return &result, nil
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/submissions?status=pending&brand=Levi's", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if captured.Status == nil || *captured.Status != "pending" {
			t.Errorf("status filter = %v, want pending", captured.Status)
		}
		if captured.Brand == nil || *captured.Brand != "Levi's" {
			t.Errorf("brand filter = %v, want Levi's", captured.Brand)
		}
	})
}

func TestHandlerFind(t *testing.T) {
	sub := sampleSubmission()

	t.Run("returns submission by id", func(t *testing.T) {
		sys := &mockSystem{
			findFn: func(_ context.Context, id uuid.UUID) (*submissions.Submission, error) {
				if id != sub.ID {
					return nil, submissions.ErrNotFound
				}
				return &sub, nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/submissions/"+sub.ID.String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var got submissions.Submission
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.ID != sub.ID {
			t.Errorf("id = %v, want %v", got.ID, sub.ID)
		}
	})

	t.Run("invalid uuid returns 400", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/submissions/not-a-uuid", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode error body: %v", err)
		}
		if body["error"] != submissions.ErrInvalidID.Error() {
			t.Errorf("error = %q, want %q", body["error"], submissions.ErrInvalidID)
		}
	})

	t.Run("not found returns 404", func(t *testing.T) {
		sys := &mockSystem{
			findFn: func(_ context.Context, _ uuid.UUID) (*submissions.Submission, error) {
				return nil, submissions.ErrNotFound
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/submissions/"+uuid.New().String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestHandlerImages(t *testing.T) {
	sub := sampleSubmission()

	t.Run("returns ordered images", func(t *testing.T) {
		sys := &mockSystem{
			imagesFn: func(_ context.Context, _ uuid.UUID) ([]submissions.SubmissionImage, error) {
				return []submissions.SubmissionImage{
					{ID: uuid.New(), SubmissionID: sub.ID, ImageType: submissions.ImageFront, DisplayOrder: 0},
					{ID: uuid.New(), SubmissionID: sub.ID, ImageType: submissions.ImageBack, DisplayOrder: 1},
				}, nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/submissions/"+sub.ID.String()+"/images", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var got []submissions.SubmissionImage
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("images length = %d, want 2", len(got))
		}
		if got[0].ImageType != submissions.ImageFront {
			t.Errorf("first image type = %s, want front", got[0].ImageType)
		}
	})

	t.Run("not found returns 404", func(t *testing.T) {
		sys := &mockSystem{
			imagesFn: func(_ context.Context, _ uuid.UUID) ([]submissions.SubmissionImage, error) {
				return nil, submissions.ErrNotFound
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/submissions/"+uuid.New().String()+"/images", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestHandlerSearch(t *testing.T) {
	sub := sampleSubmission()

	t.Run("returns search results", func(t *testing.T) {
		sys := &mockSystem{
			listFn: func(_ context.Context, _ pagination.PageRequest, _ submissions.Filters) (*pagination.PageResult[submissions.Submission], error) {
				result := pagination.NewPageResult([]submissions.Submission{sub}, 1, 1, 20)
				return &result, nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		body, _ := json.Marshal(submissions.SearchRequest{
			PageRequest: pagination.PageRequest{Page: 1, PageSize: 20},
		})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/submissions/search", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var result pagination.PageResult[submissions.Submission]
		if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if result.Total != 1 {
			t.Errorf("total = %d, want 1", result.Total)
		}
	})

	t.Run("invalid json returns 400", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/submissions/search", bytes.NewReader([]byte("not json")))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("normalizes pagination", func(t *testing.T) {
		var capturedPage pagination.PageRequest
		sys := &mockSystem{
			listFn: func(_ context.Context, page pagination.PageRequest, _ submissions.Filters) (*pagination.PageResult[submissions.Submission], error) {
				capturedPage = page
				result := pagination.NewPageResult([]submissions.Submission{}, 0, page.Page, page.PageSize)
				return &result, nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		body, _ := json.Marshal(submissions.SearchRequest{
			PageRequest: pagination.PageRequest{Page: 0, PageSize: 0},
		})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/submissions/search", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if capturedPage.Page != 1 {
			t.Errorf("page = %d, want 1 (normalized)", capturedPage.Page)
		}
		if capturedPage.PageSize != 20 {
			t.Errorf("page_size = %d, want 20 (default)", capturedPage.PageSize)
		}
	})
}

func TestHandlerCreate(t *testing.T) {
	sub := sampleSubmission()
	ownerID := sub.OwnerID

	t.Run("creates submission from multipart form", func(t *testing.T) {
		var capturedCmd submissions.CreateCommand
		sys := &mockSystem{
			createFn: func(_ context.Context, cmd submissions.CreateCommand) (*submissions.Submission, error) {
				capturedCmd = cmd
				return &sub, nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		body, contentType := createMultipartForm(t, multipartFields{
			ownerID:    ownerID.String(),
			title:      "Vintage Type III trucker",
			imageTypes: "front,back",
			photos:     []string{"front.jpg", "back.jpg"},
		})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/submissions", body)
		req.Header.Set("Content-Type", contentType)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201", rec.Code)
		}
		if capturedCmd.OwnerID != ownerID {
			t.Errorf("owner_id = %v, want %v", capturedCmd.OwnerID, ownerID)
		}
		if capturedCmd.Title != "Vintage Type III trucker" {
			t.Errorf("title = %q", capturedCmd.Title)
		}
		if len(capturedCmd.Photos) != 2 {
			t.Fatalf("photos = %d, want 2", len(capturedCmd.Photos))
		}
		if capturedCmd.Photos[0].ImageType != submissions.ImageFront {
			t.Errorf("photo[0] type = %s, want front", capturedCmd.Photos[0].ImageType)
		}
		if capturedCmd.Photos[1].ImageType != submissions.ImageBack {
			t.Errorf("photo[1] type = %s, want back", capturedCmd.Photos[1].ImageType)
		}
		if capturedCmd.Photos[1].DisplayOrder != 1 {
			t.Errorf("photo[1] display_order = %d, want 1", capturedCmd.Photos[1].DisplayOrder)
		}
	})

	t.Run("unlisted photos default to detail", func(t *testing.T) {
		var capturedCmd submissions.CreateCommand
		sys := &mockSystem{
			createFn: func(_ context.Context, cmd submissions.CreateCommand) (*submissions.Submission, error) {
				capturedCmd = cmd
				return &sub, nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		body, contentType := createMultipartForm(t, multipartFields{
			ownerID:    ownerID.String(),
			imageTypes: "front",
			photos:     []string{"front.jpg", "cuff.jpg"},
		})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/submissions", body)
		req.Header.Set("Content-Type", contentType)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201", rec.Code)
		}
		if capturedCmd.Photos[1].ImageType != submissions.ImageDetail {
			t.Errorf("unlisted photo type = %s, want detail", capturedCmd.Photos[1].ImageType)
		}
	})

	t.Run("missing owner_id returns 400", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(newTestHandler(sys))

		body, contentType := createMultipartForm(t, multipartFields{
			photos: []string{"front.jpg"},
		})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/submissions", body)
		req.Header.Set("Content-Type", contentType)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("missing photos returns 400", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(newTestHandler(sys))

		body, contentType := createMultipartForm(t, multipartFields{
			ownerID: ownerID.String(),
		})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/submissions", body)
		req.Header.Set("Content-Type", contentType)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("unknown image type returns 400", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(newTestHandler(sys))

		body, contentType := createMultipartForm(t, multipartFields{
			ownerID:    ownerID.String(),
			imageTypes: "sideways",
			photos:     []string{"front.jpg"},
		})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/submissions", body)
		req.Header.Set("Content-Type", contentType)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("system create error maps status", func(t *testing.T) {
		sys := &mockSystem{
			createFn: func(_ context.Context, _ submissions.CreateCommand) (*submissions.Submission, error) {
				return nil, submissions.ErrDuplicate
			},
		}
		mux := setupMux(newTestHandler(sys))

		body, contentType := createMultipartForm(t, multipartFields{
			ownerID: ownerID.String(),
			photos:  []string{"front.jpg"},
		})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/submissions", body)
		req.Header.Set("Content-Type", contentType)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
	})
}

func TestHandlerDelete(t *testing.T) {
	subID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

	t.Run("deletes submission", func(t *testing.T) {
		var capturedID uuid.UUID
		sys := &mockSystem{
			deleteFn: func(_ context.Context, id uuid.UUID) error {
				capturedID = id
				return nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("DELETE", "/submissions/"+subID.String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
		if capturedID != subID {
			t.Errorf("id = %v, want %v", capturedID, subID)
		}
	})

	t.Run("not found returns 404", func(t *testing.T) {
		sys := &mockSystem{
			deleteFn: func(_ context.Context, _ uuid.UUID) error {
				return submissions.ErrNotFound
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("DELETE", "/submissions/"+uuid.New().String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestHandlerRoutes(t *testing.T) {
	sys := &mockSystem{}
	h := newTestHandler(sys)
	group := h.Routes()

	if group.Prefix != "/submissions" {
		t.Errorf("prefix = %q, want /submissions", group.Prefix)
	}

	want := []struct {
		method  string
		pattern string
	}{
		{"GET", ""},
		{"GET", "/{id}"},
		{"GET", "/{id}/images"},
		{"POST", ""},
		{"POST", "/search"},
		{"DELETE", "/{id}"},
	}

	if len(group.Routes) != len(want) {
		t.Fatalf("route count = %d, want %d", len(group.Routes), len(want))
	}

	for i, w := range want {
		r := group.Routes[i]
		if r.Method != w.method || r.Pattern != w.pattern {
			t.Errorf("route[%d] = %s %s, want %s %s", i, r.Method, r.Pattern, w.method, w.pattern)
		}
	}
}

type multipartFields struct {
	ownerID    string
	title      string
	imageTypes string
	photos     []string
}

func createMultipartForm(t *testing.T, fields multipartFields) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if fields.ownerID != "" {
		writer.WriteField("owner_id", fields.ownerID)
	}
	if fields.title != "" {
		writer.WriteField("title", fields.title)
	}
	if fields.imageTypes != "" {
		writer.WriteField("image_types", fields.imageTypes)
	}

	for _, name := range fields.photos {
		part, err := writer.CreateFormFile("photos", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write([]byte("fake image bytes"))
	}

	writer.Close()
	return &buf, writer.FormDataContentType()
}
