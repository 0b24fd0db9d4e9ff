// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/testispark/testispark/internal/model"
	"github.com/testispark/testispark/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Pool limits for the shared *sql.DB.
const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
)

// PostgresStore is the database-backed store.Store.
type PostgresStore struct {
	dbOps
	db *sql.DB
}

var (
	_ store.Store = (*PostgresStore)(nil)
	_ store.Store = (*txStore)(nil)
)

// New connects to databaseURL and brings the schema up to date.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB wraps an open database as is. Migrations are not run.
func NewWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{dbOps: dbOps{ex: db}, db: db}
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// RunInTransaction calls fn with a store bound to a new transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&txStore{dbOps{ex: tx}}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore runs every query inside one transaction owned by the caller of
// RunInTransaction.
type txStore struct {
	dbOps
}

// RunInTransaction joins the current transaction.
func (s *txStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

func (s *txStore) Close() error { return nil }

// dbOps binds the query functions to an executor, either the pool or a
// transaction.
type dbOps struct {
	ex executor
}

func (o dbOps) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	return queryGetProfile(ctx, o.ex, id)
}

func (o dbOps) GetProfileForUpdate(ctx context.Context, id string) (*model.Profile, error) {
	return queryGetProfileForUpdate(ctx, o.ex, id)
}

func (o dbOps) UpsertProfile(ctx context.Context, p *model.Profile) error {
	return queryUpsertProfile(ctx, o.ex, p)
}

func (o dbOps) ApplyBillingUpdate(ctx context.Context, u model.BillingUpdate) (int64, error) {
	return queryApplyBillingUpdate(ctx, o.ex, u)
}

func (o dbOps) CreateForm(ctx context.Context, f *model.Form) error {
	return queryCreateForm(ctx, o.ex, f)
}

func (o dbOps) GetForm(ctx context.Context, id string) (*model.Form, error) {
	return queryGetForm(ctx, o.ex, id)
}

func (o dbOps) GetFormBySlug(ctx context.Context, slug string) (*model.Form, error) {
	return queryGetFormBySlug(ctx, o.ex, slug)
}

func (o dbOps) ListForms(ctx context.Context, userID string) ([]*model.Form, error) {
	return queryListForms(ctx, o.ex, userID)
}

func (o dbOps) CreateTestimonial(ctx context.Context, t *model.Testimonial) error {
	return queryCreateTestimonial(ctx, o.ex, t)
}

func (o dbOps) GetTestimonial(ctx context.Context, id string) (*model.Testimonial, error) {
	return queryGetTestimonial(ctx, o.ex, id)
}

func (o dbOps) ListTestimonials(ctx context.Context, filter model.TestimonialFilter) ([]*model.Testimonial, error) {
	return queryListTestimonials(ctx, o.ex, filter)
}

func (o dbOps) CountTestimonials(ctx context.Context, userID string) (int, error) {
	return queryCountTestimonials(ctx, o.ex, userID)
}

func (o dbOps) UpdateTestimonial(ctx context.Context, id string, patch model.TestimonialPatch) (*model.Testimonial, error) {
	return queryUpdateTestimonial(ctx, o.ex, id, patch)
}

func (o dbOps) UpdateSummary(ctx context.Context, id, summary string, tags []string) (*model.Testimonial, error) {
	return queryUpdateSummary(ctx, o.ex, id, summary, tags)
}

func (o dbOps) DeleteTestimonial(ctx context.Context, id string) error {
	return queryDeleteTestimonial(ctx, o.ex, id)
}

func (o dbOps) ListApprovedTestimonials(ctx context.Context, ids []string) ([]*model.Testimonial, error) {
	return queryListApprovedTestimonials(ctx, o.ex, ids)
}

func (o dbOps) ListWallTestimonials(ctx context.Context, formID string) ([]*model.Testimonial, error) {
	return queryListWallTestimonials(ctx, o.ex, formID)
}

func (o dbOps) CreateWidget(ctx context.Context, w *model.Widget) error {
	return queryCreateWidget(ctx, o.ex, w)
}

func (o dbOps) GetWidget(ctx context.Context, id string) (*model.Widget, error) {
	return queryGetWidget(ctx, o.ex, id)
}

func (o dbOps) ListWidgets(ctx context.Context, userID string) ([]*model.Widget, error) {
	return queryListWidgets(ctx, o.ex, userID)
}

func (o dbOps) UpdateWidget(ctx context.Context, w *model.Widget) error {
	return queryUpdateWidget(ctx, o.ex, w)
}

func (o dbOps) DeleteWidget(ctx context.Context, id string) error {
	return queryDeleteWidget(ctx, o.ex, id)
}

func (o dbOps) CreateCryptoPayment(ctx context.Context, p *model.CryptoPayment) error {
	return queryCreateCryptoPayment(ctx, o.ex, p)
}

func (o dbOps) GetCryptoPaymentByTxHash(ctx context.Context, txHash string) (*model.CryptoPayment, error) {
	return queryGetCryptoPaymentByTxHash(ctx, o.ex, txHash)
}
