package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/unideal/unideal-server/internal/database"
)

var ErrNotFound = errors.New("college not found")

// Category is a marketplace item category.
type Category struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Slug     string    `json:"slug"`
	IconName string    `json:"iconName"`
}

// College is a campus a user can belong to.
type College struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	EmailDomain string    `json:"emailDomain"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	CampusLat   float64   `json:"campusLat"`
	CampusLng   float64   `json:"campusLng"`
	LogoURL     *string   `json:"logoUrl"`
	IsActive    bool      `json:"isActive"`
}

// Repository handles catalog reads
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// ListCategories returns all categories ordered by name
func (r *Repository) ListCategories(ctx context.Context) ([]Category, error) {
	var dbCategories []database.Category
	err := r.db.NewSelect().
		Model(&dbCategories).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	categories := make([]Category, 0, len(dbCategories))
	for _, c := range dbCategories {
		categories = append(categories, Category{
			ID:       c.ID,
			Name:     c.Name,
			Slug:     c.Slug,
			IconName: c.IconName,
		})
	}

	return categories, nil
}

// ListColleges returns active colleges ordered by name, up to limit
func (r *Repository) ListColleges(ctx context.Context, limit int) ([]College, error) {
	var dbColleges []database.College
	q := r.db.NewSelect().
		Model(&dbColleges).
		Where("is_active = ?", true).
		Order("name ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list colleges: %w", err)
	}

	colleges := make([]College, 0, len(dbColleges))
	for _, c := range dbColleges {
		colleges = append(colleges, mapCollege(c))
	}

	return colleges, nil
}

// GetCollegeBySlug retrieves a single college by slug
func (r *Repository) GetCollegeBySlug(ctx context.Context, slug string) (*College, error) {
	dbCollege := new(database.College)
	err := r.db.NewSelect().
		Model(dbCollege).
		Where("slug = ?", slug).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get college by slug: %w", err)
	}

	college := mapCollege(*dbCollege)
	return &college, nil
}

func mapCollege(c database.College) College {
	return College{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		EmailDomain: c.EmailDomain,
		City:        c.City,
		State:       c.State,
		CampusLat:   c.CampusLat,
		CampusLng:   c.CampusLng,
		LogoURL:     c.LogoURL,
		IsActive:    c.IsActive,
	}
}
