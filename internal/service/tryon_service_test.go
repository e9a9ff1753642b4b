package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pr-poehali-dev/fashion-photo-search/internal/model"
	"github.com/pr-poehali-dev/fashion-photo-search/internal/prediction"
)

const testTryonModel = "test/tryon:v1"

func tryonRequest() *model.TryonRequest {
	return &model.TryonRequest{
		PersonImage:  testImage(),
		ClothesImage: testImage(),
	}
}

func TestTryOn_SuccessUsesGeneratedImage(t *testing.T) {
	store := testStore(t)
	gateway := prediction.NewGateway(&stubJobClient{status: prediction.JobStatus{
		Status: prediction.StatusSucceeded,
		Output: []string{"https://replicate.delivery/result.jpg"},
	}})
	svc := NewTryonService(&fakeStorage{}, gateway, store, testTryonModel)

	resp, err := svc.TryOn(context.Background(), tryonRequest(), "user-1")
	if err != nil {
		t.Fatalf("tryon failed: %v", err)
	}
	if resp.ResultImageURL != "https://replicate.delivery/result.jpg" {
		t.Errorf("expected generated result url, got %q", resp.ResultImageURL)
	}
	if resp.Status != model.StatusCompleted {
		t.Errorf("expected status %q, got %q", model.StatusCompleted, resp.Status)
	}

	rows, err := store.RecentTryons(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("history query failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 history row, got %d", len(rows))
	}
	if rows[0].ResultImageURL != resp.ResultImageURL {
		t.Errorf("persisted result url %q != returned %q", rows[0].ResultImageURL, resp.ResultImageURL)
	}
}

func TestTryOn_FailedPredictionFallsBackToPersonImage(t *testing.T) {
	gateway := prediction.NewGateway(&stubJobClient{status: prediction.JobStatus{
		Status: prediction.StatusFailed,
		Error:  "NSFW content detected",
	}})
	svc := NewTryonService(&fakeStorage{}, gateway, nil, testTryonModel)

	resp, err := svc.TryOn(context.Background(), tryonRequest(), "user-1")
	if err != nil {
		t.Fatalf("failed prediction must degrade, not error: %v", err)
	}
	if resp.ResultImageURL != resp.PersonImageURL {
		t.Errorf("expected person image fallback, got %q (person %q)", resp.ResultImageURL, resp.PersonImageURL)
	}
	if resp.Status != model.StatusCompleted {
		t.Errorf("expected status %q even after fallback, got %q", model.StatusCompleted, resp.Status)
	}
}

func TestTryOn_EmptyOutputFallsBackToPersonImage(t *testing.T) {
	gateway := prediction.NewGateway(&stubJobClient{status: prediction.JobStatus{
		Status: prediction.StatusSucceeded,
	}})
	svc := NewTryonService(&fakeStorage{}, gateway, nil, testTryonModel)

	resp, err := svc.TryOn(context.Background(), tryonRequest(), "")
	if err != nil {
		t.Fatalf("tryon failed: %v", err)
	}
	if resp.ResultImageURL != resp.PersonImageURL {
		t.Errorf("expected person image fallback for empty output, got %q", resp.ResultImageURL)
	}
}

func TestTryOn_NoGatewayUsesPersonImage(t *testing.T) {
	storage := &fakeStorage{}
	svc := NewTryonService(storage, nil, nil, testTryonModel)

	resp, err := svc.TryOn(context.Background(), tryonRequest(), "")
	if err != nil {
		t.Fatalf("tryon failed: %v", err)
	}
	if resp.ResultImageURL != resp.PersonImageURL {
		t.Errorf("expected person image as result, got %q", resp.ResultImageURL)
	}
	if len(storage.keys) != 2 {
		t.Fatalf("expected both photos uploaded, got %v", storage.keys)
	}
	if !strings.HasPrefix(storage.keys[0], "tryons/person_") || !strings.HasPrefix(storage.keys[1], "tryons/clothes_") {
		t.Errorf("unexpected storage keys %v", storage.keys)
	}
}

func TestTryOn_SharedTokenForBothPhotos(t *testing.T) {
	storage := &fakeStorage{}
	svc := NewTryonService(storage, nil, nil, testTryonModel)

	if _, err := svc.TryOn(context.Background(), tryonRequest(), ""); err != nil {
		t.Fatalf("tryon failed: %v", err)
	}

	personToken := strings.TrimSuffix(strings.TrimPrefix(storage.keys[0], "tryons/person_"), ".jpg")
	clothesToken := strings.TrimSuffix(strings.TrimPrefix(storage.keys[1], "tryons/clothes_"), ".jpg")
	if personToken != clothesToken {
		t.Errorf("photos of one request must share a token: %q vs %q", personToken, clothesToken)
	}
}

func TestTryOn_UploadErrorIsFatal(t *testing.T) {
	svc := NewTryonService(&fakeStorage{uploadErr: errors.New("bucket unavailable")}, nil, nil, testTryonModel)

	_, err := svc.TryOn(context.Background(), tryonRequest(), "")
	if err == nil {
		t.Fatal("expected error when photo upload fails")
	}
}

func TestTryOn_InvalidBase64IsError(t *testing.T) {
	svc := NewTryonService(&fakeStorage{}, nil, nil, testTryonModel)

	_, err := svc.TryOn(context.Background(), &model.TryonRequest{
		PersonImage:  "%%%broken%%%",
		ClothesImage: testImage(),
	}, "")
	if err == nil {
		t.Fatal("expected error for invalid person image payload")
	}
}

func TestTryonHistory_EmptyWithoutStore(t *testing.T) {
	svc := NewTryonService(&fakeStorage{}, nil, nil, testTryonModel)

	entries, err := svc.History(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("expected empty non-nil history, got %v", entries)
	}
}
