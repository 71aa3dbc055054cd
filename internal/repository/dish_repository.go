package repository

import (
	"context"
	"sync"
	"time"

	"github.com/eatly/dishes-api/internal/models"
)

// DishRepository defines the interface for dish data access
type DishRepository interface {
	// Exclusive runs fn as one atomic unit. Calls are serialised per table
	// and nothing fn did survives if it returns an error.
	Exclusive(ctx context.Context, fn func(ctx context.Context, tx SchemaTx) error) error
	// List returns every dish ordered by ascending id.
	List(ctx context.Context) ([]models.Dish, error)
	// Count returns the number of rows without loading them.
	Count(ctx context.Context) (int, error)
	TableExists(ctx context.Context) (bool, error)
	Info(ctx context.Context) (*DBInfo, error)
	Ping(ctx context.Context) error
}

// SchemaTx is the set of steps available inside an Exclusive unit.
type SchemaTx interface {
	TableExists(ctx context.Context) (bool, error)
	// CreateTable is a no-op when the table already exists.
	CreateTable(ctx context.Context) error
	ColumnExists(ctx context.Context, name string) (bool, error)
	// AddColumn is a no-op when the column already exists. A failure leaves
	// the unit usable for further steps.
	AddColumn(ctx context.Context, col models.Column) error
	Count(ctx context.Context) (int, error)
	Insert(ctx context.Context, dishes []models.Dish) error
	Truncate(ctx context.Context) error
}

// DBInfo describes the store the repository is connected to.
type DBInfo struct {
	Database      string `json:"database"`
	User          string `json:"user"`
	Version       string `json:"version"`
	ServerVersion string `json:"server_version"`
}

// InMemoryDishRepository implements DishRepository with in-memory storage
type InMemoryDishRepository struct {
	mu      sync.Mutex
	state   memoryState
	nowFunc func() time.Time
}

type memoryState struct {
	tableExists bool
	missing     map[string]bool
	dishes      []models.Dish
	nextID      int64
}

func (s memoryState) clone() memoryState {
	c := memoryState{
		tableExists: s.tableExists,
		missing:     make(map[string]bool, len(s.missing)),
		dishes:      append([]models.Dish(nil), s.dishes...),
		nextID:      s.nextID,
	}
	for k, v := range s.missing {
		c.missing[k] = v
	}
	return c
}

// MemoryOption configures the initial state of an in-memory repository.
type MemoryOption func(*memoryState)

// WithTable starts the repository with an existing table lacking the
// given columns.
func WithTable(missingColumns ...string) MemoryOption {
	return func(s *memoryState) {
		s.tableExists = true
		for _, c := range missingColumns {
			s.missing[c] = true
		}
	}
}

// WithDishes starts the repository with an existing table holding dishes.
// Ids are assigned in order.
func WithDishes(dishes ...models.Dish) MemoryOption {
	return func(s *memoryState) {
		s.tableExists = true
		for _, d := range dishes {
			s.nextID++
			d.ID = s.nextID
			s.dishes = append(s.dishes, d)
		}
	}
}

// NewInMemoryDishRepository creates a new in-memory dish repository. With
// no options the table does not exist yet.
func NewInMemoryDishRepository(opts ...MemoryOption) *InMemoryDishRepository {
	r := &InMemoryDishRepository{
		state:   memoryState{missing: make(map[string]bool)},
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(&r.state)
	}
	return r
}

// Exclusive runs fn under the repository lock and restores the previous
// state if fn fails.
func (r *InMemoryDishRepository) Exclusive(ctx context.Context, fn func(ctx context.Context, tx SchemaTx) error) error {
	if err := ctx.Err(); err != nil {
		return wrapErr("begin transaction", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.state.clone()
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.state = snapshot
		return err
	}
	return nil
}

// List returns all dishes ordered by id
func (r *InMemoryDishRepository) List(ctx context.Context) ([]models.Dish, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.state.tableExists {
		return nil, &StorageError{Op: "list dishes", Kind: KindQuery, Err: ErrTableMissing}
	}
	// Rows are appended with increasing ids, so insertion order is id order.
	return append([]models.Dish{}, r.state.dishes...), nil
}

// Count returns the number of stored dishes
func (r *InMemoryDishRepository) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.state.tableExists {
		return 0, &StorageError{Op: "count dishes", Kind: KindQuery, Err: ErrTableMissing}
	}
	return len(r.state.dishes), nil
}

// TableExists reports whether the table has been created
func (r *InMemoryDishRepository) TableExists(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.tableExists, nil
}

// Info describes the in-memory store
func (r *InMemoryDishRepository) Info(ctx context.Context) (*DBInfo, error) {
	return &DBInfo{
		Database:      "memory",
		User:          "local",
		Version:       "in-memory store",
		ServerVersion: "n/a",
	}, nil
}

// Ping always succeeds for the in-memory store
func (r *InMemoryDishRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Columns returns the names of the columns the table currently has.
func (r *InMemoryDishRepository) Columns() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.state.tableExists {
		return nil
	}
	var names []string
	for _, c := range models.DishColumns {
		if !r.state.missing[c.Name] {
			names = append(names, c.Name)
		}
	}
	return names
}

// memoryTx operates on the repository state while Exclusive holds the lock.
type memoryTx struct {
	repo *InMemoryDishRepository
}

func (t *memoryTx) TableExists(ctx context.Context) (bool, error) {
	return t.repo.state.tableExists, nil
}

func (t *memoryTx) CreateTable(ctx context.Context) error {
	if t.repo.state.tableExists {
		return nil
	}
	t.repo.state.tableExists = true
	t.repo.state.missing = make(map[string]bool)
	return nil
}

func (t *memoryTx) ColumnExists(ctx context.Context, name string) (bool, error) {
	if !t.repo.state.tableExists {
		return false, &StorageError{Op: "check column", Kind: KindQuery, Err: ErrTableMissing}
	}
	for _, c := range models.DishColumns {
		if c.Name == name {
			return !t.repo.state.missing[name], nil
		}
	}
	return false, nil
}

func (t *memoryTx) AddColumn(ctx context.Context, col models.Column) error {
	if !t.repo.state.tableExists {
		return &StorageError{Op: "add column " + col.Name, Kind: KindQuery, Err: ErrTableMissing}
	}
	delete(t.repo.state.missing, col.Name)
	return nil
}

func (t *memoryTx) Count(ctx context.Context) (int, error) {
	if !t.repo.state.tableExists {
		return 0, &StorageError{Op: "count dishes", Kind: KindQuery, Err: ErrTableMissing}
	}
	return len(t.repo.state.dishes), nil
}

func (t *memoryTx) Insert(ctx context.Context, dishes []models.Dish) error {
	s := &t.repo.state
	if !s.tableExists {
		return &StorageError{Op: "insert dishes", Kind: KindQuery, Err: ErrTableMissing}
	}
	now := t.repo.nowFunc().UTC()
	for _, d := range dishes {
		if err := d.Validate(); err != nil {
			return &StorageError{Op: "insert dishes", Kind: KindQuery, Err: err}
		}
		s.nextID++
		d.ID = s.nextID
		d.CreatedAt = now
		if s.missing["delivery_time"] {
			d.DeliveryTime = nil
		}
		if s.missing["rating"] {
			d.Rating = nil
		}
		s.dishes = append(s.dishes, d)
	}
	return nil
}

func (t *memoryTx) Truncate(ctx context.Context) error {
	s := &t.repo.state
	if !s.tableExists {
		return &StorageError{Op: "truncate dishes", Kind: KindQuery, Err: ErrTableMissing}
	}
	s.dishes = nil
	s.nextID = 0
	return nil
}
