package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/akozyrev/TrainingEvents/internal/domain"
	"github.com/akozyrev/TrainingEvents/internal/service/ports"
)

type CategoryService struct {
	repo ports.CategoryRepo
	now  func() time.Time
}

func NewCategoryService(repo ports.CategoryRepo) *CategoryService {
	return &CategoryService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *CategoryService) Create(ctx context.Context, input domain.CategoryInput) (*domain.Category, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}

	now := s.now()
	c := &domain.Category{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Description: input.Description,
		CreatedBy:   input.CallerID,
		CreatedOn:   now,
		UpdatedBy:   input.CallerID,
		UpdatedOn:   now,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, input domain.CategoryInput) (*domain.Category, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}

	c, err := s.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	c.Name = input.Name
	c.Description = input.Description
	c.UpdatedBy = input.CallerID
	c.UpdatedOn = s.now()

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

func (s *CategoryService) List(ctx context.Context) ([]*domain.Category, error) {
	return s.repo.List(ctx)
}

// Delete refuses while any live event references the category.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
