package attachment

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	attachmentService "github.com/Balaji-Udayagiri/ChatLLM/internal/service/attachment"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/orchestrator"
	"github.com/Balaji-Udayagiri/ChatLLM/pkg/utils"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to temp files.
const multipartMemory = 32 << 20

// Handler serves the pending attachment list.
type Handler struct {
	orch *orchestrator.Service
}

// New creates an attachment handler.
func New(orch *orchestrator.Service) *Handler {
	return &Handler{orch: orch}
}

// RegisterRoutes registers attachment routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/attachments", h.handleList)
	r.Post("/attachments", h.handleUpload)
	r.Delete("/attachments/{index}", h.handleRemove)
}

type uploadResponse struct {
	Attachments []attachmentService.Info `json:"attachments"`
	Rejected    []string                 `json:"rejected,omitempty"`
	Error       string                   `json:"error,omitempty"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, uploadResponse{Attachments: h.orch.Attachments()})
}

// handleUpload accepts one or more "file" parts. Oversized files are
// rejected individually; the others are still queued.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		utils.RespondError(w, http.StatusBadRequest, "file is required")
		return
	}

	var resp uploadResponse
	for _, fh := range files {
		err := h.add(fh)
		switch {
		case err == nil:
		case errors.Is(err, attachmentService.ErrTooLarge):
			resp.Rejected = append(resp.Rejected, fh.Filename)
			resp.Error = fmt.Sprintf("File %s is too large. Maximum size is %s.",
				fh.Filename, attachmentService.FormatFileSize(h.orch.MaxAttachmentBytes()))
		default:
			log.Printf("[attachment] failed to read %s: %v", fh.Filename, err)
			utils.RespondError(w, http.StatusBadRequest, "failed to read "+fh.Filename)
			return
		}
	}

	resp.Attachments = h.orch.Attachments()
	status := http.StatusOK
	if len(resp.Rejected) > 0 {
		status = http.StatusRequestEntityTooLarge
	}
	utils.RespondJSON(w, status, resp)
}

func (h *Handler) add(fh *multipart.FileHeader) error {
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	return h.orch.AddAttachment(fh.Filename, fh.Header.Get("Content-Type"), f)
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	utils.RespondJSON(w, http.StatusOK, uploadResponse{Attachments: h.orch.RemoveAttachment(index)})
}
