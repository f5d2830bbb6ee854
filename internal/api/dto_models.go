package api

import "renoleads-backend-go/internal/models"

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`             // A high-level error message or code
	Details string `json:"details,omitempty"` // More specific details about the error, if available
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// AssignmentListResponse wraps the updated assignment list every
// distribution endpoint returns.
type AssignmentListResponse struct {
	EstimationID string              `json:"estimationId"`
	Assignments  []models.Assignment `json:"assignments"`
}

// ArtisanProfileResponse is the self-service profile payload for
// GET /artisans/me.
type ArtisanProfileResponse struct {
	Artisan *models.Artisan `json:"artisan"`
}
