package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pr-poehali-dev/fashion-photo-search/internal/client"
	"github.com/pr-poehali-dev/fashion-photo-search/internal/model"
	"github.com/pr-poehali-dev/fashion-photo-search/internal/prediction"
	"github.com/pr-poehali-dev/fashion-photo-search/internal/repository"
)

const (
	tryonPollAttempts = 30
	tryonPollInterval = time.Second

	garmentDescription = "clothing item from uploaded photo"
)

// TryonService runs the virtual try-on pipeline: store both photos, invoke
// the generative model through the prediction gateway and record the result.
type TryonService struct {
	storage    client.StorageClient
	gateway    *prediction.Gateway
	store      *repository.Store
	tryonModel string
}

// NewTryonService creates a new try-on service. storage, gateway and store
// may be nil when the corresponding upstream is not configured.
func NewTryonService(storage client.StorageClient, gateway *prediction.Gateway, store *repository.Store, tryonModel string) *TryonService {
	return &TryonService{
		storage:    storage,
		gateway:    gateway,
		store:      store,
		tryonModel: tryonModel,
	}
}

// TryOn handles one virtual try-on request end to end
func (s *TryonService) TryOn(ctx context.Context, req *model.TryonRequest, userID string) (*model.TryonResponse, error) {
	personData, err := decodeImage(req.PersonImage)
	if err != nil {
		return nil, err
	}
	clothesData, err := decodeImage(req.ClothesImage)
	if err != nil {
		return nil, err
	}

	token := uniqueToken()
	personURL, err := s.uploadImage(ctx, fmt.Sprintf("tryons/person_%s.jpg", token), personData)
	if err != nil {
		return nil, fmt.Errorf("failed to store person image: %w", err)
	}
	clothesURL, err := s.uploadImage(ctx, fmt.Sprintf("tryons/clothes_%s.jpg", token), clothesData)
	if err != nil {
		return nil, fmt.Errorf("failed to store clothes image: %w", err)
	}

	// Identity fallback: the person photo stands in for the generated
	// result whenever the prediction does not succeed.
	resultURL := personURL
	if s.gateway != nil {
		outcome := s.gateway.SubmitAndAwait(ctx, s.tryonModel,
			map[string]any{
				"human_img":   personURL,
				"garm_img":    clothesURL,
				"garment_des": garmentDescription,
			},
			prediction.RetryPolicy{MaxAttempts: tryonPollAttempts, Interval: tryonPollInterval},
		)
		if outcome.Kind == prediction.OutcomeSuccess {
			resultURL = outcome.Output[0]
		} else {
			log.Printf("[TryOn] prediction %s, falling back to person image", outcome.Kind)
		}
	}

	tryonID, err := s.createHistory(ctx, userID, personURL, clothesURL, resultURL)
	if err != nil {
		return nil, err
	}

	return &model.TryonResponse{
		TryonID:         tryonID,
		PersonImageURL:  personURL,
		ClothesImageURL: clothesURL,
		ResultImageURL:  resultURL,
		Status:          model.StatusCompleted,
	}, nil
}

// History returns the caller's recent try-ons, newest first
func (s *TryonService) History(ctx context.Context, userID string) ([]model.TryonHistoryEntry, error) {
	entries := []model.TryonHistoryEntry{}
	if s.store == nil || userID == "" {
		return entries, nil
	}

	rows, err := s.store.RecentTryons(ctx, userID, 20)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		entries = append(entries, model.TryonHistoryEntry{
			TryonID:         row.ID,
			PersonImageURL:  row.PersonImageURL,
			ClothesImageURL: row.ClothesImageURL,
			ResultImageURL:  row.ResultImageURL,
			Status:          row.Status,
		})
	}
	return entries, nil
}

func (s *TryonService) uploadImage(ctx context.Context, key string, data []byte) (string, error) {
	if s.storage == nil {
		return fmt.Sprintf("%s/%s", mockCDNURL, key), nil
	}
	return s.storage.Upload(ctx, key, bytes.NewReader(data), "image/jpeg")
}

func (s *TryonService) createHistory(ctx context.Context, userID, personURL, clothesURL, resultURL string) (int64, error) {
	if s.store == nil {
		return time.Now().Unix(), nil
	}

	h := &repository.TryonHistory{
		UserID:          optionalUserID(userID),
		PersonImageURL:  personURL,
		ClothesImageURL: clothesURL,
		ResultImageURL:  resultURL,
		Status:          model.StatusCompleted,
	}
	if err := s.store.CreateTryonHistory(ctx, h); err != nil {
		return 0, err
	}
	return h.ID, nil
}
