package routes

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"mediaedge/auth"
	"mediaedge/logger"
	"mediaedge/metrics"
	"mediaedge/storage"
	"mediaedge/uploads"
)

// maxUploadSize caps multipart uploads.
const maxUploadSize = 32 << 20

// UploadResponse is returned after a successful upload.
type UploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// UploadHandler accepts a multipart "file" from a bearer-authenticated client,
// writes it to the storage provider and returns its CDN URL.
func (s *Server) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, err := auth.FromRequest(r, s.Verify)
	if err != nil {
		logger.Warnf("Rejected upload from %s: %v", r.RemoteAddr, err)
		status := http.StatusUnauthorized
		if errors.Is(err, auth.ErrNoKey) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, fmt.Sprintf("Invalid token: %v", err), status)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Failed to parse multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Failed to get file from form", http.StatusBadRequest)
		return
	}
	defer file.Close()

	key := objectKey(claims.Folder, header.Filename)
	contentType := detectContentType(header)
	rec := uploads.Record{
		Key:         key,
		Filename:    header.Filename,
		Provider:    s.Provider.Name(),
		ContentType: contentType,
		Size:        header.Size,
		Subject:     claims.Subject,
	}

	started := time.Now()
	if err := s.Provider.Upload(r.Context(), key, contentType, file); err != nil {
		metrics.RecordUpload(s.Provider.Name(), uploads.StatusFailed, time.Since(started).Seconds())
		logger.Errorf("Upload of %s failed: %v", key, err)
		rec.Status = uploads.StatusFailed
		rec.Error = err.Error()
		s.putRecord(rec)
		http.Error(w, "Failed to store file", http.StatusBadGateway)
		return
	}
	metrics.RecordUpload(s.Provider.Name(), uploads.StatusStored, time.Since(started).Seconds())

	url, _ := s.Rewriter.Media("/" + key)
	rec.Status = uploads.StatusStored
	rec.URL = url
	s.putRecord(rec)

	logger.Infof("Stored upload %s (%d bytes) via %s", key, header.Size, s.Provider.Name())
	writeJSON(w, http.StatusCreated, UploadResponse{Key: key, URL: url})
}

func (s *Server) putRecord(rec uploads.Record) {
	if err := s.Store.Put(rec); err != nil {
		logger.Errorf("Failed to record upload %s: %v", rec.Key, err)
	}
}

// objectKey places the upload under the token's folder, if any.
func objectKey(folder, filename string) string {
	key := storage.NewKey(filename)
	folder = strings.Trim(path.Clean("/"+folder), "/")
	if folder == "" {
		return key
	}
	return "uploads/" + folder + "/" + strings.TrimPrefix(key, "uploads/")
}

func detectContentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
