package model

// Try-on status values
const (
	StatusCompleted = "completed"
)

// TryonRequest represents the request body for virtual try-on
type TryonRequest struct {
	PersonImage  string `json:"personImage" validate:"required"`
	ClothesImage string `json:"clothesImage" validate:"required"`
}

// TryonResponse represents the response for virtual try-on
type TryonResponse struct {
	TryonID         int64  `json:"tryonId"`
	PersonImageURL  string `json:"personImageUrl"`
	ClothesImageURL string `json:"clothesImageUrl"`
	ResultImageURL  string `json:"resultImageUrl"`
	Status          string `json:"status"`
}

// TryonHistoryEntry represents one past try-on of a user
type TryonHistoryEntry struct {
	TryonID         int64  `json:"tryonId"`
	PersonImageURL  string `json:"personImageUrl"`
	ClothesImageURL string `json:"clothesImageUrl"`
	ResultImageURL  string `json:"resultImageUrl"`
	Status          string `json:"status"`
}
