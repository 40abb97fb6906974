package models

// APIError is the error body shape shared by all HTTP endpoints.
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

// UploadResponse tells the client how to reference an uploaded document in
// later turns.
type UploadResponse struct {
	FileName   string `json:"file_name"`
	StoredName string `json:"s3_file_name"`
	FileType   string `json:"file_type"`
	FileSize   int64  `json:"file_size"`
	URL        string `json:"url"`
}
