package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quiz-drill/internal/domain"
	"quiz-drill/internal/repository/models"

	"github.com/jmoiron/sqlx"
	go_ora "github.com/sijms/go-ora/v2"
)

// RecordDatabaseAdapter implements domain.RecordStore on the kv_records table.
type RecordDatabaseAdapter struct {
	db *sqlx.DB
	tm domain.TransactionManager
	// now stamps updated_at; replaced in tests.
	now func() time.Time
}

// NewRecordDatabaseAdapter creates a new instance of RecordDatabaseAdapter
func NewRecordDatabaseAdapter(db *sqlx.DB) *RecordDatabaseAdapter {
	return &RecordDatabaseAdapter{
		db:  db,
		tm:  NewTransactionManagerAdapter(db),
		now: time.Now,
	}
}

const (
	selectRecordQuery = `SELECT record_key "record_key", record_value "record_value", updated_at "updated_at" FROM kv_records WHERE record_key = :1`

	updateRecordQuery = `UPDATE kv_records SET record_value = :1, updated_at = :2 WHERE record_key = :3`

	insertRecordQuery = `INSERT INTO kv_records (record_key, record_value, updated_at) VALUES (:1, :2, :3)`

	deleteRecordQuery = `DELETE FROM kv_records WHERE record_key = :1`
)

// Get implements domain.RecordStore
func (a *RecordDatabaseAdapter) Get(ctx context.Context, key string) (string, error) {
	var rec models.Record
	if err := GetExecutor(ctx, a.db).GetContext(ctx, &rec, selectRecordQuery, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrRecordNotFound
		}
		return "", fmt.Errorf("failed to get record %s: %w", key, err)
	}
	return rec.Value, nil
}

// Set updates the row for key, inserting it when none exists. The value is
// bound as a CLOB since the history log outgrows the VARCHAR2 bind limit.
func (a *RecordDatabaseAdapter) Set(ctx context.Context, key string, value string) error {
	clob := go_ora.Clob{String: value, Valid: true}
	now := a.now()
	return a.tm.WithTransaction(ctx, func(txCtx context.Context) error {
		exec := GetExecutor(txCtx, a.db)
		res, err := exec.ExecContext(txCtx, updateRecordQuery, clob, now, key)
		if err != nil {
			return fmt.Errorf("failed to save record %s: %w", key, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to save record %s: %w", key, err)
		}
		if affected > 0 {
			return nil
		}
		if _, err := exec.ExecContext(txCtx, insertRecordQuery, key, clob, now); err != nil {
			return fmt.Errorf("failed to save record %s: %w", key, err)
		}
		return nil
	})
}

// Delete removes every key in one transaction.
func (a *RecordDatabaseAdapter) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return a.tm.WithTransaction(ctx, func(txCtx context.Context) error {
		exec := GetExecutor(txCtx, a.db)
		for _, key := range keys {
			if _, err := exec.ExecContext(txCtx, deleteRecordQuery, key); err != nil {
				return fmt.Errorf("failed to delete record %s: %w", key, err)
			}
		}
		return nil
	})
}

// Ping implements domain.RecordStore
func (a *RecordDatabaseAdapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}
