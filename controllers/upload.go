package controllers

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"go-storefront/utils"
)

// UploadController stores admin-uploaded images on local disk
type UploadController struct {
	Dir string
}

// NewUploadController creates the upload directory if needed
func NewUploadController(dir string) *UploadController {
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		panic(err)
	}
	return &UploadController{Dir: dir}
}

const maxUploadSize = 5 << 20 // 5 MB

var allowedUploadExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// Upload accepts a single multipart file under the "file" field and returns
// its public URL. The stored name is random so client filenames never hit disk.
func (uc *UploadController) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "File too large or malformed upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedUploadExts[ext] {
		utils.WriteError(w, http.StatusBadRequest, "Unsupported file type")
		return
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(uc.Dir, name))
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		utils.WriteInternalError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]string{"url": "/uploads/" + name})
}
