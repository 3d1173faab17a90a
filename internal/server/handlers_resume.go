package server

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

// maxResumeUploadBytes caps resume uploads at 10 MB.
const maxResumeUploadBytes = 10 << 20

// resumeMediaTypes maps accepted upload extensions to the media type
// recorded on the profile pointer.
var resumeMediaTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":  "application/msword",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".html": "text/html",
}

// handleUploadResume accepts a multipart resume upload, stores the
// bytes in object storage, and points the user's profile at it. The
// previous resume pointer, if any, is replaced.
func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxResumeUploadBytes)
	if err := r.ParseMultipartForm(maxResumeUploadBytes); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("resume")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Missing resume file field")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	mediaType, supported := resumeMediaTypes[ext]
	if !supported {
		s.errorResponse(w, http.StatusUnsupportedMediaType, "Unsupported resume format: "+ext)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Failed to read upload: "+err.Error())
		return
	}

	path, err := s.deps.Blob.Upload(r.Context(), userID, header.Filename, data, mediaType)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	if err := s.deps.Profiles.SetResumePointer(r.Context(), userID, path, mediaType, header.Filename); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusCreated, map[string]string{
		"path":       path,
		"media_type": mediaType,
		"filename":   header.Filename,
	})
}
