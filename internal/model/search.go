package model

// SearchRequest represents the request body for photo-based clothing search
type SearchRequest struct {
	Image        string `json:"image" validate:"required"`
	ClothingType string `json:"clothingType"`
}

// SearchResultItem represents one matched product
type SearchResultItem struct {
	Name       string  `json:"name"`
	Brand      string  `json:"brand"`
	Price      float64 `json:"price"`
	Currency   string  `json:"currency"`
	ImageURL   string  `json:"image_url"`
	ProductURL string  `json:"product_url"`
	MatchScore float64 `json:"match_score"`
}

// SearchResponse represents the response for photo-based clothing search
type SearchResponse struct {
	SearchID int64              `json:"searchId"`
	Results  []SearchResultItem `json:"results"`
	ImageURL string             `json:"imageUrl"`
}

// SearchHistoryEntry represents one past search of a user
type SearchHistoryEntry struct {
	SearchID     int64  `json:"searchId"`
	ImageURL     string `json:"imageUrl"`
	ClothingType string `json:"clothingType"`
	ResultsCount int    `json:"resultsCount"`
}
