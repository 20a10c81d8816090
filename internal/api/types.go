package api

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// UpdateDreamRequest carries the caller-mutable dream fields. Absent fields
// are left unchanged.
type UpdateDreamRequest struct {
	Title      *string `json:"title"`
	IsArchived *bool   `json:"isArchived"`
	IsPrivate  *bool   `json:"isPrivate"`
}
