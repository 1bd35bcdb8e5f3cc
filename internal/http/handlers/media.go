package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/cms-backend/internal/http/response"
	"github.com/yungbote/cms-backend/internal/modules/media"
	"github.com/yungbote/cms-backend/internal/platform/logger"
)

// maxMultipartMemory keeps small parts in memory; larger ones spill to temp files.
const maxMultipartMemory = 8 << 20

type MediaHandler struct {
	log              *logger.Logger
	media            media.Usecases
	defaultRetention int
}

func NewMediaHandler(log *logger.Logger, uc media.Usecases, defaultRetentionDays int) *MediaHandler {
	if defaultRetentionDays < 0 {
		defaultRetentionDays = media.DefaultRetentionDays
	}
	return &MediaHandler{
		log:              log.With("handler", "MediaHandler"),
		media:            uc,
		defaultRetention: defaultRetentionDays,
	}
}

// POST /api/admin/media
func (h *MediaHandler) Upload(c *gin.Context) {
	// Multipart overhead on top of the largest accepted file.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, media.MaxPDFBytes+(1<<20))
	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			response.RespondError(c, http.StatusRequestEntityTooLarge, "payload_too_large", err)
			return
		}
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	defer file.Close()

	mimeType, err := partContentType(header, file)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_file", err)
		return
	}

	var alt *string
	if v, ok := c.GetPostForm("altText"); ok {
		alt = &v
	}

	d, err := h.media.Upload(c.Request.Context(), media.UploadInput{
		Filename: header.Filename,
		MimeType: mimeType,
		Size:     header.Size,
		Content:  file,
		AltText:  alt,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondData(c, http.StatusCreated, d)
}

// partContentType prefers the declared part type and sniffs the first 512 bytes otherwise.
func partContentType(header *multipart.FileHeader, file multipart.File) (string, error) {
	ct := strings.TrimSpace(header.Header.Get("Content-Type"))
	if ct != "" && ct != "application/octet-stream" {
		if i := strings.IndexByte(ct, ';'); i >= 0 {
			ct = ct[:i]
		}
		return strings.ToLower(strings.TrimSpace(ct)), nil
	}
	buf := make([]byte, 512)
	n, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	sniffed := http.DetectContentType(buf[:n])
	if i := strings.IndexByte(sniffed, ';'); i >= 0 {
		sniffed = sniffed[:i]
	}
	return sniffed, nil
}

// GET /api/admin/media
func (h *MediaHandler) ListLibrary(c *gin.Context) {
	page, limit := pageParams(c)
	res, err := h.media.ListLibrary(c.Request.Context(), page, limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondPage(c, res.Items, res.Pagination)
}

// GET /api/admin/media/trash
func (h *MediaHandler) ListTrash(c *gin.Context) {
	page, limit := pageParams(c)
	res, err := h.media.ListTrash(c.Request.Context(), page, limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondPage(c, res.Items, res.Pagination)
}

// GET /api/admin/media/:id
func (h *MediaHandler) Get(c *gin.Context) {
	id, ok := mediaID(c)
	if !ok {
		return
	}
	d, err := h.media.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondData(c, http.StatusOK, d)
}

// GET /api/media/:id
func (h *MediaHandler) GetPublic(c *gin.Context) {
	id, ok := mediaID(c)
	if !ok {
		return
	}
	d, err := h.media.GetActive(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondData(c, http.StatusOK, d)
}

type updateMediaRequest struct {
	AltText *string `json:"altText"`
}

// PATCH /api/admin/media/:id
func (h *MediaHandler) Update(c *gin.Context) {
	id, ok := mediaID(c)
	if !ok {
		return
	}
	var req updateMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	d, err := h.media.UpdateAltText(c.Request.Context(), id, req.AltText)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondData(c, http.StatusOK, d)
}

// DELETE /api/admin/media/:id
func (h *MediaHandler) SoftDelete(c *gin.Context) {
	id, ok := mediaID(c)
	if !ok {
		return
	}
	d, err := h.media.SoftDelete(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondData(c, http.StatusOK, d)
}

// POST /api/admin/media/:id/restore
func (h *MediaHandler) Restore(c *gin.Context) {
	id, ok := mediaID(c)
	if !ok {
		return
	}
	d, err := h.media.Restore(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondData(c, http.StatusOK, d)
}

// DELETE /api/admin/media/:id/permanent
func (h *MediaHandler) PermanentlyDelete(c *gin.Context) {
	id, ok := mediaID(c)
	if !ok {
		return
	}
	if err := h.media.PermanentlyDelete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondData(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

// GET /api/admin/media/cleanup
func (h *MediaHandler) CleanupPreview(c *gin.Context) {
	days, ok := h.retentionParam(c)
	if !ok {
		return
	}
	n, err := h.media.GetCleanupCount(c.Request.Context(), days)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondData(c, http.StatusOK, gin.H{"count": n, "retentionDays": days})
}

// POST /api/admin/media/cleanup
func (h *MediaHandler) RunCleanup(c *gin.Context) {
	days, ok := h.retentionParam(c)
	if !ok {
		return
	}
	res, err := h.media.RunCleanup(c.Request.Context(), days)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondData(c, http.StatusOK, res)
}

// GET /media/*key
func (h *MediaHandler) ServeFile(c *gin.Context) {
	rc, contentType, err := h.media.OpenFile(c.Request.Context(), c.Param("key"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	defer rc.Close()
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}

func mediaID(c *gin.Context) (uint, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("invalid media id"))
		return 0, false
	}
	return uint(id), true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(media.DefaultPageLimit)))
	return media.NormalizePage(page, limit)
}

func (h *MediaHandler) retentionParam(c *gin.Context) (int, bool) {
	raw := strings.TrimSpace(c.Query("retentionDays"))
	if raw == "" {
		return h.defaultRetention, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_retention_days", errors.New("retentionDays must be a non-negative integer"))
		return 0, false
	}
	return days, true
}
