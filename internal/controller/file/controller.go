// Package file provides HTTP handlers for document file uploads and downloads.
package file

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"JobCard-backend/internal/apperror"
	"JobCard-backend/internal/config"
	"JobCard-backend/internal/controller"
	"JobCard-backend/internal/middleware"
	"JobCard-backend/internal/model"
	"JobCard-backend/internal/service"
	"JobCard-backend/internal/utilities"
)

// MaxUploadBytes is the largest document file accepted.
const MaxUploadBytes = 10 << 20

const documentObjectPrefix = "documents"

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// linkSlots hold URLs typed by the member, never uploaded files.
var linkSlots = map[string]bool{
	"LinkedinURL":      true,
	"GithubURL":        true,
	"PortfolioWebsite": true,
}

// FileController handles file related endpoints
type FileController struct {
	Documents *service.DocumentService
	Members   *service.MemberService
	Storage   StorageClient
	baseURL   string
}

// NewFileController creates a new instance of FileController. storage may be
// nil, in which case file endpoints answer 503.
func NewFileController(svc *service.Services, storage StorageClient, cfg config.StorageConfig) *FileController {
	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if cfg.Bucket != "" {
		base += "/" + cfg.Bucket
	}
	return &FileController{
		Documents: svc.Documents,
		Members:   svc.Members,
		Storage:   storage,
		baseURL:   base,
	}
}

func (fc *FileController) storageEnabled(c *gin.Context) bool {
	if fc.Storage == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, utilities.ErrorResponse{
			Message: "File storage is not configured",
		})
		return false
	}
	return true
}

func fileSlot(c *gin.Context) (model.Slot, bool) {
	slot, ok := model.LookupSlot(c.Param("slot"))
	if !ok {
		utilities.RespondError(c, apperror.NotFound("Unknown document %q", c.Param("slot")))
		return model.Slot{}, false
	}
	if linkSlots[slot.Name] {
		utilities.RespondError(c, apperror.Field("slot", "holds a link, not a file"))
		return model.Slot{}, false
	}
	return slot, true
}

// reference is the public URL stored for objectName.
func (fc *FileController) reference(objectName string) string {
	return fc.baseURL + "/" + objectName
}

// objectName recovers the object behind a stored reference.
func (fc *FileController) objectName(ref string) (string, bool) {
	name, ok := strings.CutPrefix(ref, fc.baseURL+"/")
	return name, ok && name != ""
}

// UploadDocumentFile stores a document file and records its URL in the caller's documents.
// @Summary Upload a document file
// @Description Only file that smaller than 10 MB with .pdf, .jpg, .jpeg, or .png extension is permitted. The slot goes back to pending verification
// @Tags Document
// @Accept mpfd
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param slot path string true "Document slot, e.g. Resume or aadhaar_card"
// @Param file formData file true "Upload your document file"
// @Success 200 {object} model.MemberDocuments "Successfully upload document"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 404 {object} utilities.ErrorResponse "Unknown document slot"
// @Failure 413 {object} utilities.ErrorResponse "File size is larger than 10 MB"
// @Failure 415 {object} utilities.ErrorResponse "File extension is not allowed"
// @Failure 503 {object} utilities.ErrorResponse "File storage is not configured"
// @Router /member/documents/{slot}/file [post]
func (fc *FileController) UploadDocumentFile(c *gin.Context) {
	if !fc.storageEnabled(c) {
		return
	}
	card, ok := controller.MemberCard(c, fc.Members)
	if !ok {
		return
	}
	slot, ok := fileSlot(c)
	if !ok {
		return
	}

	rawFile, err := c.FormFile("file")
	if middleware.IsTooLarge(err) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, utilities.ErrorResponse{Message: "Entity too large"})
		return
	}
	if err != nil {
		utilities.RespondError(c, apperror.Field("file", "is required"))
		return
	}
	if rawFile.Size > MaxUploadBytes {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, utilities.ErrorResponse{Message: "Entity too large"})
		return
	}

	extension := strings.ToLower(filepath.Ext(rawFile.Filename))
	if !allowedExtensions[extension] {
		c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, utilities.ErrorResponse{
			Message: fmt.Sprintf("Unsupported file extension: %s", extension),
		})
		return
	}

	f, err := rawFile.Open()
	if err != nil {
		utilities.RespondError(c, apperror.Unexpected("Cannot open file", err))
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close uploaded file", "error", err)
		}
	}()

	objectName := fmt.Sprintf("%s/%s/%s/%s%s", documentObjectPrefix, card, slot.Column, uuid.NewString(), extension)
	if err := fc.Storage.UploadFile(c.Request.Context(), objectName, mime.TypeByExtension(extension), f); err != nil {
		utilities.RespondError(c, apperror.Unexpected("Failed to store document", err))
		return
	}

	docs, err := fc.Documents.Upsert(c.Request.Context(), card, map[string]string{slot.Name: fc.reference(objectName)})
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	utilities.RespondMessage(c, http.StatusOK, "Document uploaded", docs)
}

// DownloadDocumentFile streams a stored document file of the caller.
// @Summary Retrieve own document as downloadable attachment
// @Tags Document
// @Produce octet-stream
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param slot path string true "Document slot"
// @Success 200 {string} binary "Successfully retrieve file"
// @Failure 404 {object} utilities.ErrorResponse "No file stored for this slot"
// @Router /member/documents/{slot}/file [get]
func (fc *FileController) DownloadDocumentFile(c *gin.Context) {
	card, ok := controller.MemberCard(c, fc.Members)
	if !ok {
		return
	}
	fc.download(c, card)
}

// DownloadMemberDocumentFile lets staff fetch a member's document while verifying it.
// @Summary Retrieve a member document as downloadable attachment
// @Tags Verification
// @Produce octet-stream
// @Param card path string true "Member card number"
// @Param slot path string true "Document slot"
// @Success 200 {string} binary "Successfully retrieve file"
// @Failure 404 {object} utilities.ErrorResponse "No file stored for this slot"
// @Router /verification/members/{card}/documents/{slot}/file [get]
func (fc *FileController) DownloadMemberDocumentFile(c *gin.Context) {
	card, err := model.ParseCardNumber(c.Param("card"))
	if err != nil {
		utilities.RespondError(c, apperror.Field("card", err.Error()))
		return
	}
	fc.download(c, card)
}

func (fc *FileController) download(c *gin.Context, card string) {
	if !fc.storageEnabled(c) {
		return
	}
	slot, ok := fileSlot(c)
	if !ok {
		return
	}

	docs, err := fc.Documents.Get(c.Request.Context(), card)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	ref := ""
	if docs != nil {
		ref = docs.Values()[slot.Name]
	}
	objectName, ok := fc.objectName(ref)
	if !ok {
		utilities.RespondError(c, apperror.NotFound("No file stored for %s", slot.Name))
		return
	}

	reader, size, err := fc.Storage.DownloadFile(c.Request.Context(), objectName)
	if errors.Is(err, ErrObjectNotFound) {
		utilities.RespondError(c, apperror.NotFound("No file stored for %s", slot.Name))
		return
	}
	if err != nil {
		utilities.RespondError(c, apperror.Unexpected("Failed to download file from storage", err))
		return
	}
	defer func() {
		if err := reader.Close(); err != nil {
			slog.Warn("failed to close storage reader", "object", objectName, "error", err)
		}
	}()

	c.Writer.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", model.DisplayName(ref)))
	c.Writer.Header().Set("Content-Type", "application/octet-stream")
	if size > 0 {
		c.Writer.Header().Set("Content-Length", fmt.Sprint(size))
	}
	if _, err := io.Copy(c.Writer, reader); err != nil {
		fc.handleWriterError(c, err)
	}
}

func (fc *FileController) handleWriterError(c *gin.Context, err error) {
	if !c.Writer.Written() {
		utilities.RespondError(c, apperror.Unexpected("Failed to send file content", err))
		return
	}
	c.Abort()
}
