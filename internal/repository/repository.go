package repository

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SearchHistory is one user-facing search request
type SearchHistory struct {
	ID           int64   `gorm:"primaryKey;autoIncrement"`
	UserID       *string `gorm:"column:user_id"`
	ImageURL     string  `gorm:"column:image_url"`
	ClothingType string  `gorm:"column:clothing_type"`
	ResultsCount int     `gorm:"column:results_count"`
}

func (SearchHistory) TableName() string { return "search_history" }

// Product is one result row belonging to a search
type Product struct {
	ID         int64   `gorm:"primaryKey;autoIncrement"`
	Name       string  `gorm:"column:name"`
	Brand      string  `gorm:"column:brand"`
	Price      float64 `gorm:"column:price"`
	Currency   string  `gorm:"column:currency"`
	ImageURL   string  `gorm:"column:image_url"`
	ProductURL string  `gorm:"column:product_url"`
	MatchScore float64 `gorm:"column:match_score"`
	SearchID   int64   `gorm:"column:search_id;index"`
}

func (Product) TableName() string { return "products" }

// TryonHistory is one user-facing try-on request
type TryonHistory struct {
	ID              int64   `gorm:"primaryKey;autoIncrement"`
	UserID          *string `gorm:"column:user_id"`
	PersonImageURL  string  `gorm:"column:person_image_url"`
	ClothesImageURL string  `gorm:"column:clothes_image_url"`
	ResultImageURL  string  `gorm:"column:result_image_url"`
	Status          string  `gorm:"column:status"`
}

func (TryonHistory) TableName() string { return "tryon_history" }

// Store persists search and try-on history in a relational database
type Store struct {
	db *gorm.DB
}

// New opens a Postgres connection and prepares the schema
func New(databaseURL string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewWithDB(db)
}

// NewWithDB wraps an existing gorm connection (used by tests with sqlite)
func NewWithDB(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&SearchHistory{}, &Product{}, &TryonHistory{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// CreateSearchHistory inserts a history row and fills in its id
func (s *Store) CreateSearchHistory(ctx context.Context, h *SearchHistory) error {
	if err := s.db.WithContext(ctx).Create(h).Error; err != nil {
		return fmt.Errorf("failed to create search history: %w", err)
	}
	return nil
}

// SaveSearchResults writes all product rows and the updated results count as
// one transaction: either every row and the count are visible, or none are.
func (s *Store) SaveSearchResults(ctx context.Context, searchID int64, products []Product) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(products) > 0 {
			if err := tx.Create(&products).Error; err != nil {
				return err
			}
		}
		return tx.Model(&SearchHistory{}).
			Where("id = ?", searchID).
			Update("results_count", len(products)).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save search results: %w", err)
	}
	return nil
}

// CreateTryonHistory inserts a try-on row and fills in its id
func (s *Store) CreateTryonHistory(ctx context.Context, h *TryonHistory) error {
	if err := s.db.WithContext(ctx).Create(h).Error; err != nil {
		return fmt.Errorf("failed to create tryon history: %w", err)
	}
	return nil
}

// RecentSearches returns the latest searches of one user, newest first
func (s *Store) RecentSearches(ctx context.Context, userID string, limit int) ([]SearchHistory, error) {
	var rows []SearchHistory
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load search history: %w", err)
	}
	return rows, nil
}

// RecentTryons returns the latest try-ons of one user, newest first
func (s *Store) RecentTryons(ctx context.Context, userID string, limit int) ([]TryonHistory, error) {
	var rows []TryonHistory
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load tryon history: %w", err)
	}
	return rows, nil
}
