package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	mediarepo "github.com/yungbote/cms-backend/internal/data/repos/media"
	"github.com/yungbote/cms-backend/internal/data/repos/testutil"
	httpH "github.com/yungbote/cms-backend/internal/http/handlers"
	httpMW "github.com/yungbote/cms-backend/internal/http/middleware"
	"github.com/yungbote/cms-backend/internal/modules/media"
	"github.com/yungbote/cms-backend/internal/platform/imagevariant"
	"github.com/yungbote/cms-backend/internal/platform/localmedia"
)

const testSecret = "router-test-secret"

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Pagination *media.Pagination      `json:"pagination"`
	Error      *struct{ Code string } `json:"error"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.DB(t)
	log := testutil.Logger(t)
	store, err := localmedia.New(log, t.TempDir())
	require.NoError(t, err)

	uc := media.New(media.UsecasesDeps{
		DB:       db,
		Log:      log,
		Assets:   mediarepo.NewAssetRepo(db, log),
		Store:    store,
		Variants: imagevariant.New(log, imagevariant.Config{}),
	})
	return NewRouter(RouterConfig{
		Log:            log,
		AuthMiddleware: httpMW.NewAuthMiddleware(log, testSecret),
		MediaHandler:   httpH.NewMediaHandler(log, uc, media.DefaultRetentionDays),
		HealthHandler:  httpH.NewHealthHandler(db),
	})
}

func bearer(t *testing.T) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, httpMW.AdminClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + tok
}

func do(t *testing.T, r *gin.Engine, method, path string, body *bytes.Buffer, contentType string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", bearer(t))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var env envelope
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func multipartBody(t *testing.T, filename, partType string, data []byte, alt string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	if partType != "" {
		h.Set("Content-Type", partType)
	}
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	if alt != "" {
		require.NoError(t, w.WriteField("altText", alt))
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAdminRoutesRequireToken(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/media", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMediaLifecycleOverHTTP(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)

	body, ct := multipartBody(t, "Hero Image (final).png", "", pngBytes(t, 1200, 600), "Hero")
	rec, env := do(t, r, http.MethodPost, "/api/admin/media", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var d media.Descriptor
	require.NoError(t, json.Unmarshal(env.Data, &d))
	require.Equal(t, "image/png", d.MimeType)
	require.Regexp(t, `^\d{4}/\d{2}/[0-9a-f-]{36}-hero-image-final\.png$`, d.StorageKey)
	require.Equal(t, "/media/"+d.StorageKey, d.URL)
	require.Equal(t, 1200, *d.Width)
	require.Equal(t, 600, *d.Height)
	require.Len(t, d.Variants, 3)
	require.Equal(t, 300, d.Variants["thumb"].Width)
	require.Equal(t, 150, d.Variants["thumb"].Height)
	require.Equal(t, 1200, d.Variants["large"].Width)

	// Stored files are publicly readable.
	fileReq := httptest.NewRequest(http.MethodGet, d.Variants["thumb"].URL, nil)
	fileRec := httptest.NewRecorder()
	r.ServeHTTP(fileRec, fileReq)
	require.Equal(t, http.StatusOK, fileRec.Code)
	require.Equal(t, "image/webp", fileRec.Header().Get("Content-Type"))

	id := d.ID
	rec, env = do(t, r, http.MethodPost, fmt.Sprintf("/api/admin/media/%d/restore", id), nil, "")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "invalid_state", env.Error.Code)

	rec, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/api/admin/media/%d/permanent", id), nil, "")
	require.Equal(t, http.StatusConflict, rec.Code)

	rec, env = do(t, r, http.MethodDelete, fmt.Sprintf("/api/admin/media/%d", id), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &d))
	require.NotNil(t, d.DeletedAt)

	rec, env = do(t, r, http.MethodGet, "/api/admin/media/trash", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.Pagination)
	require.EqualValues(t, 1, env.Pagination.Total)

	fileRec = httptest.NewRecorder()
	r.ServeHTTP(fileRec, httptest.NewRequest(http.MethodGet, d.Variants["thumb"].URL, nil))
	require.Equal(t, http.StatusNotFound, fileRec.Code, "trashed files are not served")

	pubReq := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/media/%d", id), nil)
	pubRec := httptest.NewRecorder()
	r.ServeHTTP(pubRec, pubReq)
	require.Equal(t, http.StatusNotFound, pubRec.Code)

	rec, env = do(t, r, http.MethodDelete, fmt.Sprintf("/api/admin/media/%d/permanent", id), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, fmt.Sprintf(`{"id":%d,"deleted":true}`, id), string(env.Data))

	fileRec = httptest.NewRecorder()
	r.ServeHTTP(fileRec, httptest.NewRequest(http.MethodGet, d.URL, nil))
	require.Equal(t, http.StatusNotFound, fileRec.Code)

	rec, _ = do(t, r, http.MethodGet, fmt.Sprintf("/api/admin/media/%d", id), nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)

	body, ct := multipartBody(t, "notes.txt", "text/plain", []byte("hello"), "")
	rec, env := do(t, r, http.MethodPost, "/api/admin/media", body, ct)
	require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	require.Equal(t, "unsupported_media_type", env.Error.Code)
}

func TestUploadSniffsMissingContentType(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)

	body, ct := multipartBody(t, "doc.pdf", "", []byte("%PDF-1.4\n%test document"), "")
	rec, env := do(t, r, http.MethodPost, "/api/admin/media", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var d media.Descriptor
	require.NoError(t, json.Unmarshal(env.Data, &d))
	require.Equal(t, "application/pdf", d.MimeType)
	require.Empty(t, d.Variants)
}

func TestUpdateAltTextAndCleanupPreview(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)

	body, ct := multipartBody(t, "doc.pdf", "application/pdf", []byte("%PDF-1.4"), "")
	rec, env := do(t, r, http.MethodPost, "/api/admin/media", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code)
	var d media.Descriptor
	require.NoError(t, json.Unmarshal(env.Data, &d))

	rec, env = do(t, r, http.MethodPatch, fmt.Sprintf("/api/admin/media/%d", d.ID), bytes.NewBufferString(`{"altText":"Brochure"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &d))
	require.Equal(t, "Brochure", *d.AltText)

	rec, env = do(t, r, http.MethodGet, "/api/admin/media/cleanup?retentionDays=0", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"count":0,"retentionDays":0}`, string(env.Data))

	rec, _ = do(t, r, http.MethodGet, "/api/admin/media/cleanup?retentionDays=-3", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = do(t, r, http.MethodPost, "/api/admin/media/cleanup", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"cleaned":0,"failed":0,"errors":[]}`, string(env.Data))

	rec, _ = do(t, r, http.MethodGet, "/api/admin/media/abc", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
