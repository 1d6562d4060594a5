package services

import (
	"context"
	"fmt"
	"log/slog"

	"budgetwise/internal/core"
)

// CategoryStore is the storage surface the category service needs.
type CategoryStore interface {
	InsertCategory(ctx context.Context, c core.Category) (int64, error)
	GetCategory(ctx context.Context, userID, id int64) (core.Category, error)
	ListCategories(ctx context.Context, userID int64) ([]core.Category, error)
	DeleteCategory(ctx context.Context, userID, id int64) error
	CountSystemCategories(ctx context.Context) (int, error)
	CategoryInUse(ctx context.Context, categoryID int64) (bool, error)
}

type CategoryService struct {
	store CategoryStore
}

func NewCategoryService(store CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

// systemCategories is the default set shared by every user.
var systemCategories = []core.Category{
	{Name: "Food & Dining", Type: core.Expense, Icon: "🍽️", Color: "#FF6B6B"},
	{Name: "Groceries", Type: core.Expense, Icon: "🛒", Color: "#4ECDC4"},
	{Name: "Transportation", Type: core.Expense, Icon: "🚗", Color: "#45B7D1"},
	{Name: "Rent", Type: core.Expense, Icon: "🏠", Color: "#96CEB4"},
	{Name: "Utilities", Type: core.Expense, Icon: "💡", Color: "#FFEAA7"},
	{Name: "Healthcare", Type: core.Expense, Icon: "🏥", Color: "#DFE6E9"},
	{Name: "Entertainment", Type: core.Expense, Icon: "🎬", Color: "#A29BFE"},
	{Name: "Shopping", Type: core.Expense, Icon: "🛍️", Color: "#FD79A8"},
	{Name: "Travel", Type: core.Expense, Icon: "✈️", Color: "#6C5CE7"},
	{Name: "Education", Type: core.Expense, Icon: "📚", Color: "#00B894"},
	{Name: "Insurance", Type: core.Expense, Icon: "🛡️", Color: "#0984E3"},
	{Name: "Personal Care", Type: core.Expense, Icon: "💅", Color: "#FDCB6E"},
	{Name: "Gifts & Donations", Type: core.Expense, Icon: "🎁", Color: "#E17055"},
	{Name: "Bills & EMI", Type: core.Expense, Icon: "📄", Color: "#B2BEC3"},
	{Name: "Other Expenses", Type: core.Expense, Icon: "📦", Color: "#636E72"},
	{Name: "Salary", Type: core.Income, Icon: "💰", Color: "#00B894"},
	{Name: "Business Income", Type: core.Income, Icon: "💼", Color: "#0984E3"},
	{Name: "Freelance", Type: core.Income, Icon: "💻", Color: "#6C5CE7"},
	{Name: "Investments", Type: core.Income, Icon: "📈", Color: "#FDCB6E"},
	{Name: "Rental Income", Type: core.Income, Icon: "🏘️", Color: "#00CEC9"},
	{Name: "Gifts Received", Type: core.Income, Icon: "🎁", Color: "#FD79A8"},
	{Name: "Refunds", Type: core.Income, Icon: "↩️", Color: "#74B9FF"},
	{Name: "Other Income", Type: core.Income, Icon: "💵", Color: "#55EFC4"},
}

// SeedSystemCategories inserts the default category set once. Re-running
// against a seeded store is a no-op.
func (s *CategoryService) SeedSystemCategories(ctx context.Context) error {
	existing, err := s.store.CountSystemCategories(ctx)
	if err != nil {
		return fmt.Errorf("count system categories: %w", err)
	}
	if existing > 0 {
		return nil
	}

	for _, c := range systemCategories {
		c.IsSystem = true
		if _, err := s.store.InsertCategory(ctx, c); err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}
	slog.InfoContext(ctx, "Seeded system categories", "count", len(systemCategories))
	return nil
}

// Create adds a user-owned category.
func (s *CategoryService) Create(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	c.IsSystem = false

	id, err := s.store.InsertCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	c.ID = id
	return c, nil
}

// List returns system categories plus the user's own.
func (s *CategoryService) List(ctx context.Context, userID int64) ([]core.Category, error) {
	return s.store.ListCategories(ctx, userID)
}

// Delete removes a user category. System categories cannot be deleted, and
// a category referenced by transactions stays until they are reassigned.
func (s *CategoryService) Delete(ctx context.Context, userID, id int64) error {
	c, err := s.store.GetCategory(ctx, userID, id)
	if err != nil {
		return err
	}
	if c.IsSystem {
		return core.ErrPermissionDenied
	}
	if c.UserID != userID {
		return core.ErrPermissionDenied
	}

	inUse, err := s.store.CategoryInUse(ctx, id)
	if err != nil {
		return fmt.Errorf("check category usage: %w", err)
	}
	if inUse {
		return core.ErrCategoryInUse
	}
	return s.store.DeleteCategory(ctx, userID, id)
}
