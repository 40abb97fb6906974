package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"tutoria-backend/internal/middleware"
	"tutoria-backend/internal/models"
	"tutoria-backend/internal/retrieval"
	"tutoria-backend/internal/services"
	"tutoria-backend/internal/storage"
)

const maxUploadBytes = 25 * 1024 * 1024 // 25MB

var allowedUploadExts = map[string]string{
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// UploadHandler accepts study documents, stores them, and optionally
// ingests their text into the knowledge base.
type UploadHandler struct {
	store     storage.ArtifactStore
	docs      *services.DocumentService
	retriever *retrieval.Retriever
}

func NewUploadHandler(store storage.ArtifactStore, docs *services.DocumentService, retriever *retrieval.Retriever) *UploadHandler {
	return &UploadHandler{store: store, docs: docs, retriever: retriever}
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > maxUploadBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "File size exceeds 25MB limit", r))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "No file provided", r))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	contentType, ok := allowedUploadExts[ext]
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Unsupported file type: "+ext, r))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Failed to read file", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	storedName := fmt.Sprintf("%s/%s%s", userID, uuid.NewString(), ext)

	url, err := h.store.PutObject(r.Context(), storedName, data, contentType)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store file", r))
		return
	}

	// Best-effort knowledge-base ingestion so the curriculum agent can find
	// the material later. Extraction failures don't fail the upload.
	if r.URL.Query().Get("ingest") == "true" && h.retriever != nil {
		if text, err := h.docs.ExtractText(r.Context(), storedName); err == nil {
			for _, chunk := range chunkText(text, 1500) {
				h.retriever.Ingest(r.Context(), header.Filename, chunk)
			}
		}
	}

	writeJSON(w, http.StatusOK, models.UploadResponse{
		FileName:   header.Filename,
		StoredName: storedName,
		FileType:   contentType,
		FileSize:   int64(len(data)),
		URL:        url,
	})
}

// ServeFile serves locally stored objects under /files/. Only used with the
// local store; Supabase objects are served by Supabase directly.
func (h *UploadHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/files/")
	if key == "" || strings.Contains(key, "..") {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid file path", r))
		return
	}

	data, err := h.store.GetObject(r.Context(), key)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "File not found", r))
		return
	}

	if contentType, ok := allowedUploadExts[strings.ToLower(filepath.Ext(key))]; ok {
		w.Header().Set("Content-Type", contentType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Write(data)
}

// chunkText splits text into roughly maxLen-sized pieces on paragraph
// boundaries for embedding.
func chunkText(text string, maxLen int) []string {
	var chunks []string
	var current strings.Builder

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(para) > maxLen {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}
