package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eatly/dishes-api/internal/models"
	"github.com/eatly/dishes-api/internal/repository"
	"github.com/eatly/dishes-api/internal/seed"
)

var (
	// ErrStorageFailure wraps every error coming from the store. The
	// underlying diagnostic stays reachable through errors.Unwrap.
	ErrStorageFailure = errors.New("storage failure")
)

// Setup statuses
const (
	StatusCreated         = "created"
	StatusAlreadyExists   = "already_exists"
	StatusUpdated         = "updated"
	StatusAlreadyComplete = "already_complete"
)

// ListResult is returned by EnsureAndList
type ListResult struct {
	Success      bool          `json:"success"`
	Count        int           `json:"count"`
	Dishes       []models.Dish `json:"dishes"`
	AutoCreated  bool          `json:"auto_created"`
	TableCreated bool          `json:"-"`
	AddedColumns []string      `json:"-"`
}

// SetupOptions controls the schema-only ensure step
type SetupOptions struct {
	// SkipColumns stops after the table check and reports already_exists
	// for an existing table.
	SkipColumns bool
}

// SetupResult is returned by Setup
type SetupResult struct {
	Success      bool     `json:"success"`
	Status       string   `json:"status"`
	Table        string   `json:"table"`
	AddedColumns []string `json:"added_columns"`
	Columns      []string `json:"columns"`
	Message      string   `json:"message"`
}

// ReseedResult is returned by Reseed
type ReseedResult struct {
	Success  bool   `json:"success"`
	Inserted int    `json:"inserted"`
	Message  string `json:"message"`
}

// DishService ensures the dishes table exists, is complete and seeded, and
// serves its contents.
type DishService struct {
	repo     repository.DishRepository
	table    string
	defaults func() []models.Dish
	logger   *slog.Logger
}

// NewDishService creates a new dish service for the named table
func NewDishService(repo repository.DishRepository, table string, logger *slog.Logger) *DishService {
	return &DishService{
		repo:     repo,
		table:    table,
		defaults: seed.Default,
		logger:   logger,
	}
}

type schemaOutcome struct {
	created bool
	added   []string
}

// ensureSchema creates the table if needed and adds any missing optional
// column. Every missing column is attempted even if an earlier one failed;
// the failures are returned together.
func ensureSchema(ctx context.Context, tx repository.SchemaTx, checkColumns bool) (schemaOutcome, error) {
	var out schemaOutcome

	exists, err := tx.TableExists(ctx)
	if err != nil {
		return out, err
	}
	if !exists {
		if err := tx.CreateTable(ctx); err != nil {
			return out, err
		}
		// A fresh table has every column.
		out.created = true
		return out, nil
	}
	if !checkColumns {
		return out, nil
	}

	var errs []error
	for _, col := range models.OptionalColumns {
		ok, err := tx.ColumnExists(ctx, col.Name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			continue
		}
		if err := tx.AddColumn(ctx, col); err != nil {
			errs = append(errs, fmt.Errorf("add column %s: %w", col.Name, err))
			continue
		}
		out.added = append(out.added, col.Name)
	}
	if len(errs) > 0 {
		return out, errors.Join(errs...)
	}
	return out, nil
}

// EnsureAndList guarantees the table exists with every column and holds at
// least the default dishes, then returns all rows ordered by id. Seeding
// only happens when the table is empty and is all-or-nothing.
func (s *DishService) EnsureAndList(ctx context.Context) (*ListResult, error) {
	var (
		outcome schemaOutcome
		seeded  bool
	)

	err := s.repo.Exclusive(ctx, func(ctx context.Context, tx repository.SchemaTx) error {
		o, err := ensureSchema(ctx, tx, true)
		if err != nil {
			return err
		}

		n, err := tx.Count(ctx)
		if err != nil {
			return err
		}

		seeded = false
		if n == 0 {
			if err := tx.Insert(ctx, s.defaults()); err != nil {
				return err
			}
			seeded = true
		}
		outcome = o
		return nil
	})
	if err != nil {
		return nil, s.fail("ensure dishes", err)
	}

	s.logOutcome(outcome)
	if seeded {
		s.logger.Info("seeded empty dishes table", "table", s.table)
	}

	dishes, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.fail("list dishes", err)
	}

	return &ListResult{
		Success:      true,
		Count:        len(dishes),
		Dishes:       dishes,
		AutoCreated:  seeded,
		TableCreated: outcome.created,
		AddedColumns: outcome.added,
	}, nil
}

// Setup ensures the table and its columns without inserting any rows.
func (s *DishService) Setup(ctx context.Context, opts SetupOptions) (*SetupResult, error) {
	var outcome schemaOutcome

	err := s.repo.Exclusive(ctx, func(ctx context.Context, tx repository.SchemaTx) error {
		o, err := ensureSchema(ctx, tx, !opts.SkipColumns)
		if err != nil {
			return err
		}
		outcome = o
		return nil
	})
	if err != nil {
		return nil, s.fail("setup dishes table", err)
	}

	s.logOutcome(outcome)

	result := &SetupResult{
		Success:      true,
		Table:        s.table,
		AddedColumns: []string{},
		Columns:      models.ColumnNames(models.DishColumns),
	}

	switch {
	case outcome.created:
		result.Status = StatusCreated
		result.Message = fmt.Sprintf("table %s created", s.table)
	case opts.SkipColumns:
		result.Status = StatusAlreadyExists
		result.Message = fmt.Sprintf("table %s already exists", s.table)
	case len(outcome.added) > 0:
		result.Status = StatusUpdated
		result.AddedColumns = outcome.added
		result.Message = fmt.Sprintf("added %d missing column(s) to %s", len(outcome.added), s.table)
	default:
		result.Status = StatusAlreadyComplete
		result.Message = fmt.Sprintf("table %s already has every column", s.table)
	}

	return result, nil
}

// ListReadOnly returns all dishes without touching the schema. A missing
// table yields an empty list.
func (s *DishService) ListReadOnly(ctx context.Context) ([]models.Dish, error) {
	exists, err := s.repo.TableExists(ctx)
	if err != nil {
		return nil, s.fail("check dishes table", err)
	}
	if !exists {
		return []models.Dish{}, nil
	}

	dishes, err := s.repo.List(ctx)
	if errors.Is(err, repository.ErrTableMissing) {
		// Dropped between the check and the read.
		return []models.Dish{}, nil
	}
	if err != nil {
		return nil, s.fail("list dishes", err)
	}
	return dishes, nil
}

// Reseed replaces every row with dataset. It is destructive and meant for
// administrative use only.
func (s *DishService) Reseed(ctx context.Context, dataset []models.Dish) (*ReseedResult, error) {
	err := s.repo.Exclusive(ctx, func(ctx context.Context, tx repository.SchemaTx) error {
		if _, err := ensureSchema(ctx, tx, true); err != nil {
			return err
		}
		if err := tx.Truncate(ctx); err != nil {
			return err
		}
		return tx.Insert(ctx, dataset)
	})
	if err != nil {
		return nil, s.fail("reseed dishes", err)
	}

	s.logger.Warn("dishes table reseeded", "table", s.table, "inserted", len(dataset))

	return &ReseedResult{
		Success:  true,
		Inserted: len(dataset),
		Message:  fmt.Sprintf("replaced contents of %s with %d dishes", s.table, len(dataset)),
	}, nil
}

func (s *DishService) logOutcome(o schemaOutcome) {
	if o.created {
		s.logger.Info("dishes table created", "table", s.table)
	}
	if len(o.added) > 0 {
		s.logger.Info("added missing columns", "table", s.table, "columns", o.added)
	}
}

func (s *DishService) fail(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, err)
}
