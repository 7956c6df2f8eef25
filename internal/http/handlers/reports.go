package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"smartbus/internal/domain/models"
	"smartbus/internal/http/middleware"
	"smartbus/internal/services"
	"smartbus/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxMediaBytes = 10 << 20

// mediaExts are the upload types served back from /uploads.
var mediaExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	".mp4": true, ".mov": true, ".webm": true, ".3gp": true,
}

var errMediaType = errors.New("media must be an image or video")

// POST /api/reports (multipart: reportType, busId, locationLat, locationLon,
// description, media)
func SubmitReport(c *gin.Context) {
	in := models.NewReport{
		UserID:      middleware.UserID(c),
		ReportType:  c.PostForm("reportType"),
		LocationLat: utils.ParseOptionalFloat(c.PostForm("locationLat")),
		LocationLon: utils.ParseOptionalFloat(c.PostForm("locationLon")),
		Description: strings.TrimSpace(c.PostForm("description")),
	}
	if busID, ok := utils.ParseID(c.PostForm("busId")); ok {
		in.BusID = &busID
	}
	if err := services.ValidateReport(in); err != nil {
		RespondDomainError(c, err)
		return
	}

	mediaURL, mediaPath, err := saveMedia(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "Invalid media upload.", err)
		return
	}
	in.MediaURL = mediaURL

	if _, err := reportService(c).Submit(c.Request.Context(), in); err != nil {
		if mediaPath != "" {
			if rmErr := os.Remove(mediaPath); rmErr != nil {
				utils.LogError(middleware.GetRequestID(c), "reports", "remove_media", rmErr)
			}
		}
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Report submitted successfully!"})
}

// saveMedia stores the optional "media" file under the upload dir and
// returns its public URL and the path it was written to.
func saveMedia(c *gin.Context) (*string, string, error) {
	fh, err := c.FormFile("media")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	if fh.Size > maxMediaBytes {
		return nil, "", errors.New("media larger than 10MB")
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !mediaExts[ext] {
		return nil, "", errMediaType
	}
	dir := current().UploadDir
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", err
	}
	name := uuid.NewString() + ext
	path := filepath.Join(dir, name)
	if err := c.SaveUploadedFile(fh, path); err != nil {
		return nil, "", err
	}
	url := "/uploads/" + name
	utils.LogEvent(middleware.GetRequestID(c), "reports", "upload_media", "file="+name)
	return &url, path, nil
}

// GET /api/reports
func ListReports(c *gin.Context) {
	reports, err := reportService(c).Recent(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reports": reports})
}

// GET /api/reports/mine
func MyReports(c *gin.Context) {
	reports, err := reportService(c).Mine(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reports": reports})
}
