package handler_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripboard/internal/domain"
	"github.com/pkordes/tripboard/internal/handler"
)

// mockBlobStore is a test double for handler.BlobStore.
type mockBlobStore struct {
	put func(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

func (m *mockBlobStore) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	return m.put(ctx, name, contentType, r)
}

// compile-time check: mockBlobStore must satisfy handler.BlobStore.
var _ handler.BlobStore = (*mockBlobStore)(nil)

func multipartUpload(t *testing.T, filename, contentType string, data []byte, label string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
	h["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("label", label))
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestAddAttachment_ImageUpload(t *testing.T) {
	var gotName, gotType string
	var gotData []byte
	env := newTestEnv(t, func(d *handler.Deps) {
		d.Blobs = &mockBlobStore{put: func(_ context.Context, name, contentType string, r io.Reader) (string, error) {
			gotName, gotType = name, contentType
			gotData, _ = io.ReadAll(r)
			return "/files/abc.jpg", nil
		}}
	})
	body, ct := multipartUpload(t, "menu.jpg", "image/jpeg", []byte("jpeg-bytes"), "Menu")

	req := httptest.NewRequest(http.MethodPost, "/itinerary/days/day1/activities/0/attachments", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-Debug-Email", adminEmail)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "menu.jpg", gotName)
	assert.Equal(t, "image/jpeg", gotType)
	assert.Equal(t, []byte("jpeg-bytes"), gotData)

	breakfast := decode[handler.PlanResponse](t, rec).Plan.Days[0].Activities[0]
	require.Len(t, breakfast.Attachments, 1)
	att := breakfast.Attachments[0]
	assert.Equal(t, domain.AttachmentImage, att.Type)
	assert.Equal(t, "/files/abc.jpg", att.URL)
	assert.Equal(t, "Menu", att.Label)
	assert.NotEmpty(t, att.ID)
	assert.True(t, env.itinerary.CanUndo())
}

func TestAddAttachment_Link(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := do(t, env.handler, http.MethodPost, "/itinerary/days/day1/activities/1/attachments", adminEmail,
		map[string]string{"url": "https://example.com/menu", "label": "Menu"})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	lunch := decode[handler.PlanResponse](t, rec).Plan.Days[0].Activities[1]
	require.Len(t, lunch.Attachments, 1)
	assert.Equal(t, domain.AttachmentLink, lunch.Attachments[0].Type)

	rec = do(t, env.handler, http.MethodPost, "/itinerary/days/day1/activities/1/attachments", adminEmail,
		map[string]string{"url": "javascript:alert(1)"})
	requireError(t, rec, http.StatusUnprocessableEntity, "validation_error")
}

func TestAddAttachment_UploadsDisabled(t *testing.T) {
	env := newTestEnv(t, nil)
	body, ct := multipartUpload(t, "menu.jpg", "image/jpeg", []byte("x"), "")

	req := httptest.NewRequest(http.MethodPost, "/itinerary/days/day1/activities/0/attachments", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-Debug-Email", adminEmail)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	requireError(t, rec, http.StatusNotImplemented, "not_implemented")
}

func TestAddAttachment_RejectedImage(t *testing.T) {
	env := newTestEnv(t, func(d *handler.Deps) {
		d.Blobs = &mockBlobStore{put: func(context.Context, string, string, io.Reader) (string, error) {
			return "", domain.ErrValidation
		}}
	})
	body, ct := multipartUpload(t, "notes.txt", "text/plain", []byte("x"), "")

	req := httptest.NewRequest(http.MethodPost, "/itinerary/days/day1/activities/0/attachments", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-Debug-Email", adminEmail)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	requireError(t, rec, http.StatusUnprocessableEntity, "validation_error")
	assert.False(t, env.itinerary.CanUndo())
}
