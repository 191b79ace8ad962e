package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	applog "invoicer/internal/log"
)

// logoTypes maps accepted sniffed content types to their canonical
// extension. SVG is excluded since it can carry script.
var logoTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var logoExtensions = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// handleUploadLogo stores the multipart "logo" file under the upload
// directory as <unixMillis>-<uuid><ext> and returns its public URL.
func (s *Server) handleUploadLogo(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context()).WithComponent(applog.ComponentUpload)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+(64<<10))
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, r, badRequest("expected a multipart form with a logo file"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("logo")
	if err != nil {
		writeError(w, r, badRequest("No file uploaded"))
		return
	}
	defer file.Close()

	if header.Size > s.cfg.MaxUploadBytes {
		writeMessage(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		writeError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}
	head = head[:n]

	sniffed := http.DetectContentType(head)
	ext, ok := logoTypes[sniffed]
	if !ok {
		writeError(w, r, badRequest("logo must be a PNG, JPEG, GIF or WebP image"))
		return
	}
	// Keep the client's extension when it agrees with the content.
	if orig := strings.ToLower(filepath.Ext(header.Filename)); logoExtensions[orig] == sniffed {
		ext = orig
	}

	name := strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + uuid.NewString() + ext
	if err := saveUpload(filepath.Join(s.cfg.UploadDir, name), io.MultiReader(bytes.NewReader(head), file)); err != nil {
		writeError(w, r, err)
		return
	}

	logger.InfoContext(r.Context(), "Logo uploaded",
		"file", name,
		"content_type", sniffed,
		"size", header.Size)
	writeJSON(w, http.StatusOK, map[string]string{"url": "/uploads/" + name})
}

func saveUpload(path string, src io.Reader) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create upload %s: %w", filepath.Base(path), err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write upload %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
