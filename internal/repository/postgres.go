package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/eatly/dishes-api/internal/models"
)

// Pool is the subset of *pgxpool.Pool the repository needs.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

var _ Pool = (*pgxpool.Pool)(nil)

// PostgresDishRepository stores dishes in a PostgreSQL table.
type PostgresDishRepository struct {
	pool   Pool
	schema string
	table  string
}

// NewPostgresDishRepository creates a repository for schema.table. Both
// names must already be validated identifiers.
func NewPostgresDishRepository(pool Pool, schema, table string) *PostgresDishRepository {
	return &PostgresDishRepository{pool: pool, schema: schema, table: table}
}

// Connect opens a pool with the given configuration and verifies it with a ping.
func Connect(ctx context.Context, cfg *pgxpool.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, wrapErr("create connection pool", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &StorageError{Op: "ping database", Kind: KindUnavailable, Err: err}
	}

	return pool, nil
}

func (r *PostgresDishRepository) qualifiedName() string {
	return pgx.Identifier{r.schema, r.table}.Sanitize()
}

const dishSelectColumns = "id, name, description, price, category, delivery_time, rating, image_url, created_at"

// Exclusive runs fn in a transaction holding a transaction-scoped advisory
// lock keyed on the table name. The lock is released on commit or rollback.
func (r *PostgresDishRepository) Exclusive(ctx context.Context, fn func(ctx context.Context, tx SchemaTx) error) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return wrapErr("begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if _, err = tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", r.schema+"."+r.table); err != nil {
		return wrapErr("acquire table lock", err)
	}

	if err = fn(ctx, &pgSchemaTx{tx: tx, repo: r}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return wrapErr("commit transaction", err)
	}
	return nil
}

// List returns every dish ordered by ascending id.
func (r *PostgresDishRepository) List(ctx context.Context) ([]models.Dish, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+dishSelectColumns+" FROM "+r.qualifiedName()+" ORDER BY id")
	if err != nil {
		return nil, wrapErr("list dishes", err)
	}

	dishes, err := pgx.CollectRows(rows, scanDish)
	if err != nil {
		return nil, wrapErr("list dishes", err)
	}
	return dishes, nil
}

// Count runs SELECT COUNT(*) on the table. A missing table is ErrTableMissing.
func (r *PostgresDishRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+r.qualifiedName()).Scan(&n); err != nil {
		return 0, wrapErr("count dishes", err)
	}
	return n, nil
}

// TableExists checks the catalog for the dishes table.
func (r *PostgresDishRepository) TableExists(ctx context.Context) (bool, error) {
	return tableExists(ctx, r.pool, r.schema, r.table)
}

// Info reports the connected database, role and server version.
func (r *PostgresDishRepository) Info(ctx context.Context) (*DBInfo, error) {
	var info DBInfo
	err := r.pool.QueryRow(ctx,
		"SELECT current_database(), current_user, version(), current_setting('server_version')",
	).Scan(&info.Database, &info.User, &info.Version, &info.ServerVersion)
	if err != nil {
		return nil, wrapErr("read database info", err)
	}
	return &info, nil
}

// Ping verifies a connection can be acquired and used.
func (r *PostgresDishRepository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return &StorageError{Op: "ping database", Kind: KindUnavailable, Err: err}
	}
	return nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func tableExists(ctx context.Context, q querier, schema, table string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2
		)`, schema, table).Scan(&exists)
	if err != nil {
		return false, wrapErr("check table", err)
	}
	return exists, nil
}

func scanDish(row pgx.CollectableRow) (models.Dish, error) {
	var (
		d           models.Dish
		description pgtype.Text
		category    pgtype.Text
		imageURL    pgtype.Text
		minutes     pgtype.Int4
		rating      decimal.NullDecimal
	)
	err := row.Scan(&d.ID, &d.Name, &description, &d.Price, &category, &minutes, &rating, &imageURL, &d.CreatedAt)
	if err != nil {
		return d, err
	}
	d.Description = textPtr(description)
	d.Category = textPtr(category)
	d.ImageURL = textPtr(imageURL)
	if minutes.Valid {
		d.DeliveryTime = &minutes.Int32
	}
	if rating.Valid {
		d.Rating = &rating.Decimal
	}
	return d, nil
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

// pgSchemaTx runs the SchemaTx steps on an open transaction.
type pgSchemaTx struct {
	tx   pgx.Tx
	repo *PostgresDishRepository
}

func (t *pgSchemaTx) TableExists(ctx context.Context) (bool, error) {
	return tableExists(ctx, t.tx, t.repo.schema, t.repo.table)
}

func (t *pgSchemaTx) CreateTable(ctx context.Context) error {
	defs := make([]string, len(models.DishColumns))
	for i, c := range models.DishColumns {
		defs[i] = pgx.Identifier{c.Name}.Sanitize() + " " + c.Definition
	}
	sql := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", t.repo.qualifiedName(), strings.Join(defs, ",\n\t"))
	return t.execDDL(ctx, "create table", sql)
}

// ColumnExists runs its catalog query in a savepoint so a failed check
// leaves the transaction usable for the remaining columns.
func (t *pgSchemaTx) ColumnExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := t.savepoint(ctx, "check column "+name, func(sp pgx.Tx) error {
		return sp.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM information_schema.columns
				WHERE table_schema = $1 AND table_name = $2 AND column_name = $3
			)`, t.repo.schema, t.repo.table, name).Scan(&exists)
	})
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (t *pgSchemaTx) AddColumn(ctx context.Context, col models.Column) error {
	sql := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s",
		t.repo.qualifiedName(), pgx.Identifier{col.Name}.Sanitize(), col.Definition)
	return t.execDDL(ctx, "add column "+col.Name, sql)
}

// execDDL runs one idempotent DDL statement inside a savepoint. A statement
// that lost a creation race to another session counts as done.
func (t *pgSchemaTx) execDDL(ctx context.Context, op, sql string) error {
	return t.savepoint(ctx, op, func(sp pgx.Tx) error {
		_, err := sp.Exec(ctx, sql)
		return err
	})
}

// savepoint runs fn in a nested transaction. On failure only the savepoint
// is rolled back, so the surrounding transaction can go on. Schema
// conflicts are absorbed.
func (t *pgSchemaTx) savepoint(ctx context.Context, op string, fn func(sp pgx.Tx) error) error {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return wrapErr(op, err)
	}

	if err := fn(sp); err != nil {
		_ = sp.Rollback(context.WithoutCancel(ctx))
		if isSchemaConflict(err) {
			return nil
		}
		return wrapErr(op, err)
	}

	if err := sp.Commit(ctx); err != nil {
		return wrapErr(op, err)
	}
	return nil
}

func (t *pgSchemaTx) Count(ctx context.Context) (int, error) {
	var n int
	if err := t.tx.QueryRow(ctx, "SELECT COUNT(*) FROM "+t.repo.qualifiedName()).Scan(&n); err != nil {
		return 0, wrapErr("count dishes", err)
	}
	return n, nil
}

// Insert queues one INSERT per dish in a single batch on the transaction.
func (t *pgSchemaTx) Insert(ctx context.Context, dishes []models.Dish) error {
	if len(dishes) == 0 {
		return nil
	}

	sql := "INSERT INTO " + t.repo.qualifiedName() +
		" (name, description, price, category, delivery_time, rating, image_url) VALUES ($1, $2, $3, $4, $5, $6, $7)"

	batch := &pgx.Batch{}
	for _, d := range dishes {
		var rating any
		if d.Rating != nil {
			rating = *d.Rating
		}
		batch.Queue(sql, d.Name, d.Description, d.Price, d.Category, d.DeliveryTime, rating, d.ImageURL)
	}

	results := t.tx.SendBatch(ctx, batch)
	for range dishes {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return wrapErr("insert dishes", err)
		}
	}
	if err := results.Close(); err != nil {
		return wrapErr("insert dishes", err)
	}
	return nil
}

func (t *pgSchemaTx) Truncate(ctx context.Context) error {
	if _, err := t.tx.Exec(ctx, "TRUNCATE TABLE "+t.repo.qualifiedName()+" RESTART IDENTITY"); err != nil {
		return wrapErr("truncate dishes", err)
	}
	return nil
}
