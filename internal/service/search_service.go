package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pr-poehali-dev/fashion-photo-search/internal/client"
	"github.com/pr-poehali-dev/fashion-photo-search/internal/config"
	"github.com/pr-poehali-dev/fashion-photo-search/internal/model"
	"github.com/pr-poehali-dev/fashion-photo-search/internal/prediction"
	"github.com/pr-poehali-dev/fashion-photo-search/internal/repository"
)

const (
	maxSearchResults = 8

	labelPollAttempts = 15
	labelPollInterval = time.Second
)

// brandLabels is cycled by result index when mapping search items.
var brandLabels = []string{
	"CHANEL", "DIOR", "GUCCI", "VALENTINO", "PRADA", "VERSACE", "FENDI", "BALENCIAGA",
}

// categoryQueries maps a clothingType to a fixed search phrase.
var categoryQueries = map[string]string{
	"dress":  "женское платье купить",
	"top":    "женская блуза рубашка купить",
	"bottom": "женские брюки юбка купить",
	"shoes":  "женская обувь купить",
}

// SearchService runs the photo-search pipeline: store the photo, record the
// search, query the image-search upstream and persist the results.
type SearchService struct {
	storage client.StorageClient
	search  *client.GoogleSearchClient
	gateway *prediction.Gateway
	store   *repository.Store
	cfg     *config.SearchConfig
}

// NewSearchService creates a new search service. storage, gateway and store
// may be nil when the corresponding upstream is not configured; the service
// degrades to mock URLs, the default query and no persistence respectively.
func NewSearchService(
	storage client.StorageClient,
	search *client.GoogleSearchClient,
	gateway *prediction.Gateway,
	store *repository.Store,
	cfg *config.SearchConfig,
) *SearchService {
	return &SearchService{
		storage: storage,
		search:  search,
		gateway: gateway,
		store:   store,
		cfg:     cfg,
	}
}

// Search handles one photo-search request end to end
func (s *SearchService) Search(ctx context.Context, req *model.SearchRequest, userID string) (*model.SearchResponse, error) {
	imageData, err := decodeImage(req.Image)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("searches/%s.jpg", uniqueToken())
	imageURL, err := s.uploadImage(ctx, key, imageData)
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	searchID, err := s.createHistory(ctx, userID, imageURL, req.ClothingType)
	if err != nil {
		return nil, err
	}

	var results []model.SearchResultItem
	if s.search != nil && s.search.IsConfigured() {
		query := s.deriveQuery(ctx, req.ClothingType, imageURL)
		items, err := s.search.SearchImages(ctx, query, maxSearchResults)
		if err != nil {
			log.Printf("[Search] image search failed, using fallback: %v", err)
		} else {
			results = mapSearchItems(items)
		}
	}
	if len(results) == 0 {
		results = fallbackResults()
	}

	if s.store != nil {
		products := make([]repository.Product, len(results))
		for i, r := range results {
			products[i] = repository.Product{
				Name:       r.Name,
				Brand:      r.Brand,
				Price:      r.Price,
				Currency:   r.Currency,
				ImageURL:   r.ImageURL,
				ProductURL: r.ProductURL,
				MatchScore: r.MatchScore,
				SearchID:   searchID,
			}
		}
		if err := s.store.SaveSearchResults(ctx, searchID, products); err != nil {
			return nil, err
		}
	}

	return &model.SearchResponse{
		SearchID: searchID,
		Results:  results,
		ImageURL: imageURL,
	}, nil
}

// History returns the caller's recent searches, newest first
func (s *SearchService) History(ctx context.Context, userID string) ([]model.SearchHistoryEntry, error) {
	entries := []model.SearchHistoryEntry{}
	if s.store == nil || userID == "" {
		return entries, nil
	}

	rows, err := s.store.RecentSearches(ctx, userID, 20)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		entries = append(entries, model.SearchHistoryEntry{
			SearchID:     row.ID,
			ImageURL:     row.ImageURL,
			ClothingType: row.ClothingType,
			ResultsCount: row.ResultsCount,
		})
	}
	return entries, nil
}

func (s *SearchService) uploadImage(ctx context.Context, key string, data []byte) (string, error) {
	if s.storage == nil {
		return fmt.Sprintf("%s/%s", mockCDNURL, key), nil
	}
	return s.storage.Upload(ctx, key, bytes.NewReader(data), "image/jpeg")
}

func (s *SearchService) createHistory(ctx context.Context, userID, imageURL, clothingType string) (int64, error) {
	if s.store == nil {
		return time.Now().Unix(), nil
	}

	h := &repository.SearchHistory{
		UserID:       optionalUserID(userID),
		ImageURL:     imageURL,
		ClothingType: clothingType,
	}
	if err := s.store.CreateSearchHistory(ctx, h); err != nil {
		return 0, err
	}
	return h.ID, nil
}

// deriveQuery builds the search query using the strategy fixed at startup.
func (s *SearchService) deriveQuery(ctx context.Context, clothingType, imageURL string) string {
	switch s.cfg.QueryStrategy {
	case config.QueryStrategyClothingType:
		if q, ok := categoryQueries[strings.ToLower(clothingType)]; ok {
			return q
		}
		return s.cfg.DefaultQuery
	case config.QueryStrategyLabels:
		return s.labelQuery(ctx, imageURL)
	default:
		return s.cfg.DefaultQuery
	}
}

// labelQuery asks the prediction gateway to describe the stored photo and
// builds the query from the top labels. Any non-success outcome degrades to
// the default query; the strategy itself never changes at runtime.
func (s *SearchService) labelQuery(ctx context.Context, imageURL string) string {
	if s.gateway == nil {
		return s.cfg.DefaultQuery
	}

	outcome := s.gateway.SubmitAndAwait(ctx, s.cfg.LabelModel,
		map[string]any{"image": imageURL},
		prediction.RetryPolicy{MaxAttempts: labelPollAttempts, Interval: labelPollInterval},
	)
	if outcome.Kind != prediction.OutcomeSuccess {
		log.Printf("[Search] label detection %s, using default query", outcome.Kind)
		return s.cfg.DefaultQuery
	}

	labels := outcome.Output
	if len(labels) > 3 {
		labels = labels[:3]
	}
	return strings.Join(labels, " ") + " купить"
}

// mapSearchItems converts search API items into result records with a
// synthetic descending match score and cycled brand labels.
func mapSearchItems(items []client.SearchItem) []model.SearchResultItem {
	if len(items) > maxSearchResults {
		items = items[:maxSearchResults]
	}

	results := make([]model.SearchResultItem, 0, len(items))
	for i, item := range items {
		productURL := item.Image.ContextLink
		if productURL == "" {
			productURL = item.Link
		}
		results = append(results, model.SearchResultItem{
			Name:       item.Title,
			Brand:      brandLabels[i%len(brandLabels)],
			Price:      float64(89990 - 7000*i),
			Currency:   "RUB",
			ImageURL:   item.Link,
			ProductURL: productURL,
			MatchScore: float64(98 - 2*i),
		})
	}
	return results
}

// fallbackResults is the static sample content substituted when no real
// upstream result is available.
func fallbackResults() []model.SearchResultItem {
	return []model.SearchResultItem{
		{
			Name:       "Шелковая блуза",
			Brand:      "CHANEL",
			Price:      89990,
			Currency:   "RUB",
			ImageURL:   "https://via.placeholder.com/400x500/FFE5E5/000000?text=CHANEL",
			ProductURL: "https://example.com/product1",
			MatchScore: 98,
		},
	}
}

func optionalUserID(userID string) *string {
	if userID == "" {
		return nil
	}
	return &userID
}
