package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MuthonduG/reports-api/internal/authz"
	"github.com/MuthonduG/reports-api/internal/facedetect"
	"github.com/MuthonduG/reports-api/internal/middleware"
	"github.com/MuthonduG/reports-api/internal/models"
	"github.com/MuthonduG/reports-api/internal/notify"
	"github.com/MuthonduG/reports-api/internal/storage"
	"github.com/MuthonduG/reports-api/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxMediaSize caps each uploaded file at 50 MB.
const maxMediaSize = 50 * 1024 * 1024

var (
	validImageExts = []string{".jpg", ".jpeg", ".png"}
	validVideoExts = []string{".mp4", ".avi", ".mkv"}
)

// ReportHandler covers report CRUD, the media validation gate, and the
// notification fan-out on create/update.
type ReportHandler struct {
	DB      *gorm.DB
	Gate    *facedetect.Gate
	Storage storage.Storage
	Notify  *notify.Service
	Logger  *zap.Logger
}

func NewReportHandler(db *gorm.DB, gate *facedetect.Gate, store storage.Storage, notifier *notify.Service, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		DB:      db,
		Gate:    gate,
		Storage: store,
		Notify:  notifier,
		Logger:  logger,
	}
}

type reportResp struct {
	ID          uint      `json:"id"`
	UserID      uint      `json:"user_id"`
	Title       string    `json:"report_title"`
	Type        string    `json:"report_type"`
	Description string    `json:"report_description"`
	Status      bool      `json:"report_status"`
	ImageURL    string    `json:"image_data,omitempty"`
	AudioURL    string    `json:"audio_data,omitempty"`
	VideoURL    string    `json:"video_data,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

func (h *ReportHandler) toReportResp(c *gin.Context, r *models.Report) reportResp {
	resp := reportResp{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Type:        r.Type,
		Description: r.Description,
		Status:      r.Status,
		UploadedAt:  r.UploadedAt,
	}
	// presign failures degrade to an absent URL, never fail the request
	presign := func(key string) string {
		if key == "" {
			return ""
		}
		url, err := h.Storage.PresignGet(c.Request.Context(), key)
		if err != nil {
			h.Logger.Error("presign failed", zap.String("key", key), zap.Error(err))
			return ""
		}
		return url
	}
	resp.ImageURL = presign(r.ImageKey)
	resp.AudioURL = presign(r.AudioKey)
	resp.VideoURL = presign(r.VideoKey)
	return resp
}

// ---------- read ----------

// ListReports returns every report; any authenticated principal may read.
func (h *ReportHandler) ListReports(c *gin.Context) {
	var reports []models.Report
	if err := h.DB.Find(&reports).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to list reports.")
		return
	}

	out := make([]reportResp, 0, len(reports))
	for i := range reports {
		out = append(out, h.toReportResp(c, &reports[i]))
	}
	util.Success(c, util.Response{"reports": out})
}

// GetReport returns a single report by id.
func (h *ReportHandler) GetReport(c *gin.Context) {
	var report models.Report
	if err := h.DB.First(&report, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "Report not found.")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to load report.")
		}
		return
	}
	util.Success(c, util.Response{"report": h.toReportResp(c, &report)})
}

// ---------- create ----------

func hasValidExt(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// saveTemp copies an upload to a temp file and returns its path. Callers
// must remove the file on every path.
func saveTemp(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "report-media-*"+filepath.Ext(fh.Filename))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer tmp.Close()

	if _, err := tmp.ReadFrom(src); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("copy upload: %w", err)
	}
	return tmp.Name(), nil
}

// validateAndCheckImage runs the extension/size constraints and the face
// gate for an image upload, returning the temp path of the validated file.
func (h *ReportHandler) validateAndCheckImage(fh *multipart.FileHeader) (string, string) {
	if !hasValidExt(fh.Filename, validImageExts) {
		return "", "Only image files (JPG, JPEG, PNG) are allowed."
	}
	if fh.Size > maxMediaSize {
		return "", "File size too large. Maximum is 50 MB."
	}

	tmpPath, err := saveTemp(fh)
	if err != nil {
		return "", facedetect.ErrImageDecode.Error()
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return "", facedetect.ErrImageDecode.Error()
	}
	gateErr := h.Gate.CheckImage(f)
	f.Close()

	if gateErr != nil {
		os.Remove(tmpPath)
		return "", gateErr.Error()
	}
	return tmpPath, ""
}

// validateAndCheckVideo does the same for a video upload.
func (h *ReportHandler) validateAndCheckVideo(fh *multipart.FileHeader) (string, string) {
	if !hasValidExt(fh.Filename, validVideoExts) {
		return "", "Only video files (MP4, AVI, MKV) are allowed."
	}
	if fh.Size > maxMediaSize {
		return "", "File size too large. Maximum is 50 MB."
	}

	tmpPath, err := saveTemp(fh)
	if err != nil {
		return "", facedetect.ErrVideoOpen.Error()
	}

	if err := h.Gate.CheckVideo(tmpPath); err != nil {
		os.Remove(tmpPath)
		return "", err.Error()
	}
	return tmpPath, ""
}

func (h *ReportHandler) uploadTemp(c *gin.Context, tmpPath, kind, origName, contentType string) (string, error) {
	f, err := os.Open(tmpPath)
	if err != nil {
		return "", fmt.Errorf("open temp file: %w", err)
	}
	defer f.Close()

	key := storage.RandomKey(kind, strings.ToLower(filepath.Ext(origName)))
	if err := h.Storage.Put(c.Request.Context(), key, f, contentType); err != nil {
		return "", err
	}
	return key, nil
}

// CreateReport accepts a multipart submission with optional image, audio
// and video attachments. Image and video must pass the face gate before
// anything is persisted; audio is accepted without validation.
func (h *ReportHandler) CreateReport(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusForbidden, util.CodeForbidden, "Guests cannot submit reports.")
		return
	}

	title := strings.TrimSpace(c.PostForm("report_title"))
	rtype := strings.TrimSpace(c.PostForm("report_type"))
	description := c.PostForm("report_description")

	switch {
	case title == "" || len(title) > 150:
		util.FieldError(c, "report_title", "Title is required and must be at most 150 characters.")
		return
	case rtype == "" || len(rtype) > 150:
		util.FieldError(c, "report_type", "Type is required and must be at most 150 characters.")
		return
	case description == "" || len(description) > 1000:
		util.FieldError(c, "report_description", "Description is required and must be at most 1000 characters.")
		return
	}

	imageFH, _ := c.FormFile("image_data")
	videoFH, _ := c.FormFile("video_data")
	audioFH, _ := c.FormFile("audio_data")

	// validate everything before uploading anything; no partial save
	var imagePath, videoPath string
	if imageFH != nil {
		path, msg := h.validateAndCheckImage(imageFH)
		if msg != "" {
			util.FieldError(c, "image_data", msg)
			return
		}
		imagePath = path
		defer os.Remove(imagePath)
	}
	if videoFH != nil {
		path, msg := h.validateAndCheckVideo(videoFH)
		if msg != "" {
			util.FieldError(c, "video_data", msg)
			return
		}
		videoPath = path
		defer os.Remove(videoPath)
	}

	report := models.Report{
		UserID:      user.ID,
		Title:       title,
		Type:        rtype,
		Description: description,
		UploadedAt:  time.Now(),
	}

	if imageFH != nil {
		key, err := h.uploadTemp(c, imagePath, "reports/image", imageFH.Filename, imageFH.Header.Get("Content-Type"))
		if err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to store image.")
			return
		}
		report.ImageKey = key
	}
	if videoFH != nil {
		key, err := h.uploadTemp(c, videoPath, "reports/video", videoFH.Filename, videoFH.Header.Get("Content-Type"))
		if err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to store video.")
			return
		}
		report.VideoKey = key
	}
	if audioFH != nil {
		src, err := audioFH.Open()
		if err != nil {
			util.FieldError(c, "audio_data", "Unable to read the uploaded audio.")
			return
		}
		key := storage.RandomKey("reports/audio", strings.ToLower(filepath.Ext(audioFH.Filename)))
		err = h.Storage.Put(c.Request.Context(), key, src, audioFH.Header.Get("Content-Type"))
		src.Close()
		if err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to store audio.")
			return
		}
		report.AudioKey = key
	}

	if err := h.DB.Create(&report).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to create report.")
		return
	}

	h.Logger.Info("report created",
		zap.Uint("report_id", report.ID),
		zap.String("user", user.Username))

	h.Notify.Send(user.ID, user.ID, "created a new report",
		fmt.Sprintf("Report titled '%s' was successfully created.", report.Title),
		&report.ID)

	util.Created(c, util.Response{"report": h.toReportResp(c, &report)})
}

// ---------- update ----------

// UpdateReport applies a role-gated partial update. Staff change status and
// nothing else; creators change content and never status.
func (h *ReportHandler) UpdateReport(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusForbidden, util.CodeForbidden, "Guests cannot update reports.")
		return
	}

	var report models.Report
	if err := h.DB.First(&report, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "Report not found.")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to load report.")
		}
		return
	}

	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Invalid update payload.")
		return
	}

	fields := make([]string, 0, len(payload))
	for k := range payload {
		fields = append(fields, k)
	}

	role := authz.RoleFor(user.ID, user.IsStaff, report.UserID)
	decision := authz.EvaluateUpdate(role, fields)
	if !decision.Allow {
		util.Error(c, http.StatusForbidden, util.CodeForbidden, decision.Reason)
		return
	}

	if role == authz.RoleStaff {
		newStatus, ok := payload[authz.StatusField].(bool)
		if !ok {
			util.FieldError(c, authz.StatusField, "Status must be a boolean.")
			return
		}
		oldStatus := report.Status
		report.Status = newStatus
		if err := h.DB.Save(&report).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to update report.")
			return
		}

		h.Logger.Info("report status updated",
			zap.Uint("report_id", report.ID),
			zap.Bool("old", oldStatus),
			zap.Bool("new", newStatus))

		h.Notify.Send(user.ID, report.UserID, "updated the status of your report",
			fmt.Sprintf("The status of your report titled '%s' was updated to '%t'.", report.Title, report.Status),
			&report.ID)

		util.Success(c, util.Response{"message": "Report status updated by admin."})
		return
	}

	// creator path: apply known content fields, ignore anything else
	if v, ok := payload["report_title"].(string); ok {
		if v == "" || len(v) > 150 {
			util.FieldError(c, "report_title", "Title must be at most 150 characters.")
			return
		}
		report.Title = v
	}
	if v, ok := payload["report_type"].(string); ok {
		if v == "" || len(v) > 150 {
			util.FieldError(c, "report_type", "Type must be at most 150 characters.")
			return
		}
		report.Type = v
	}
	if v, ok := payload["report_description"].(string); ok {
		if v == "" || len(v) > 1000 {
			util.FieldError(c, "report_description", "Description must be at most 1000 characters.")
			return
		}
		report.Description = v
	}

	if err := h.DB.Save(&report).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to update report.")
		return
	}

	h.Logger.Info("report updated",
		zap.Uint("report_id", report.ID),
		zap.String("user", user.Username))

	util.Success(c, util.Response{"report": h.toReportResp(c, &report)})
}

// ---------- delete ----------

// DeleteReport removes a report. Only the creator or staff may delete;
// deletion is immediate with no undo.
func (h *ReportHandler) DeleteReport(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusForbidden, util.CodeForbidden, "Guests cannot delete reports.")
		return
	}

	var report models.Report
	if err := h.DB.First(&report, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "Report not found.")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to load report.")
		}
		return
	}

	role := authz.RoleFor(user.ID, user.IsStaff, report.UserID)
	if !authz.CanDelete(role) {
		util.Error(c, http.StatusForbidden, util.CodeForbidden, "You are not authorized to delete this report.")
		return
	}

	if err := h.DB.Delete(&report).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to delete report.")
		return
	}

	h.Logger.Info("report deleted",
		zap.Uint("report_id", report.ID),
		zap.String("user", user.Username))

	util.Success(c, util.Response{"message": "Report successfully deleted!"})
}

// ---------- notifications ----------

// ListNotifications returns the current user's notifications, newest first.
func (h *ReportHandler) ListNotifications(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusForbidden, util.CodeForbidden, "Guests have no notifications.")
		return
	}

	items, err := h.Notify.ForUser(user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to list notifications.")
		return
	}
	util.Success(c, util.Response{"notifications": items})
}
