package courseapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(baseURL string) *Client {
	return NewClient(baseURL, "test-key", 5*time.Second, zap.NewNop())
}

func TestClient_CreateCourse(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		require.NoError(t, r.ParseMultipartForm(32<<20))

		assert.Equal(t, "Algebra Fundamentals", r.FormValue("courseTitle"))
		assert.Equal(t, "en", r.FormValue("language"))
		assert.Equal(t, `["sem-1"]`, r.FormValue("semester"))
		assert.Equal(t, `["q-1","q-2"]`, r.FormValue("quarter"))
		assert.Contains(t, r.FormValue("chapters"), "Linear equations")
		assert.Contains(t, r.FormValue("grades"), "Quizzes")

		thumbs := r.MultipartForm.File["thumbnail"]
		require.Len(t, thumbs, 1)
		assert.Equal(t, "cover.png", thumbs[0].Filename)
		assert.Equal(t, "image/png", thumbs[0].Header.Get("Content-Type"))

		// Attachment parts are named by content ref for payload correlation
		attachments := r.MultipartForm.File["attachments"]
		require.Len(t, attachments, 1)
		assert.Equal(t, "ref-123", attachments[0].Filename)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"courseId":"course-42"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	courseID, err := c.CreateCourse(context.Background(), CreateCourseInput{
		Title:          "Algebra Fundamentals",
		CategoryID:     "cat-1",
		SubcategoryID:  "sub-1",
		Language:       "en",
		Description:    "A full introduction to algebra.",
		TeachingPoints: []string{"Solve linear equations"},
		Requirements:   []string{"Basic arithmetic"},
		SemesterIDs:    []string{"sem-1"},
		QuarterIDs:     []string{"q-1", "q-2"},
		Chapters:       `[{"title":"Linear equations"}]`,
		Grades:         `{"categories":[{"name":"Quizzes","weight":100}]}`,
		Thumbnail:      FilePart{Filename: "cover.png", MimeType: "image/png", Content: []byte{0x89, 'P', 'N', 'G'}},
		Syllabus:       FilePart{Filename: "syllabus.pdf", MimeType: "application/pdf", Content: []byte("%PDF-1.7")},
		Extra: []FilePart{
			{FieldName: "attachments", Filename: "ref-123", MimeType: "application/pdf", Content: []byte("%PDF-1.7")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "course-42", courseID)
	assert.Equal(t, "test-key", gotKey)
}

func TestClient_ReadRetries(t *testing.T) {
	t.Run("a transient failure is retried until it clears", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"q-1","name":"Q1"}`))
		}))
		defer srv.Close()

		c := newTestClient(srv.URL)
		quarter, err := c.GetQuarter(context.Background(), "q-1")
		require.NoError(t, err)
		assert.Equal(t, "Q1", quarter.Name)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("retries stop after the attempt cap", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := newTestClient(srv.URL)
		_, err := c.GetQuarter(context.Background(), "q-1")

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
		assert.Equal(t, int32(maxGetAttempts), calls.Load())
	})

	t.Run("a client error is not retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"quarter not found"}`))
		}))
		defer srv.Close()

		c := newTestClient(srv.URL)
		_, err := c.GetQuarter(context.Background(), "q-1")

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		assert.Equal(t, "quarter not found", apiErr.Message)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestClient_WritesNeverRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	err := c.DeleteChapter(context.Background(), "ch-1")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_ErrorDecoding(t *testing.T) {
	t.Run("message falls back to the status text", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		c := newTestClient(srv.URL)
		err := c.DeleteChapter(context.Background(), "ch-1")

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
		assert.Equal(t, "Forbidden", apiErr.Message)
	})

	t.Run("message field is used when error is absent", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"message":"chapter already exists"}`))
		}))
		defer srv.Close()

		c := newTestClient(srv.URL)
		err := c.DeleteChapter(context.Background(), "ch-1")

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "chapter already exists", apiErr.Message)
	})
}
