package memory

import (
	"context"
	"sort"

	"codequiz-session-service/internal/domain"
)

// CategoryRepository serves category metadata from an in-memory map.
type CategoryRepository struct {
	categories map[string]domain.Category
}

func NewCategoryRepository(categories map[string]domain.Category) *CategoryRepository {
	return &CategoryRepository{categories: categories}
}

func (r *CategoryRepository) GetCategory(_ context.Context, id string) (domain.Category, error) {
	if category, ok := r.categories[id]; ok {
		return category, nil
	}
	return domain.Category{}, domain.ErrCategoryNotFound
}

func (r *CategoryRepository) ListCategories(_ context.Context) ([]domain.Category, error) {
	out := make([]domain.Category, 0, len(r.categories))
	for _, category := range r.categories {
		out = append(out, category)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
