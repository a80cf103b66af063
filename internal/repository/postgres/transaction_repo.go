package postgres

import (
	"context"
	"errors"
	"fmt"

	"casino-miniapp-backend/internal/models"
	"casino-miniapp-backend/internal/repository"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	transactionsTable = "transactions"
	uniqueViolation   = "23505"
)

var transactionColumns = []string{
	"id", "account_id", "type", "game_type", "round_id",
	"amount::text", "balance_before::text", "balance_after::text",
	"COALESCE(idempotency_key, '')", "description", "created_at",
}

type transactionRepo struct {
	db     *pgxpool.Pool
	getter *trmpgx.CtxGetter
}

func NewTransactionRepository(db *pgxpool.Pool) repository.TransactionRepository {
	return &transactionRepo{
		db:     db,
		getter: trmpgx.DefaultCtxGetter,
	}
}

func (r *transactionRepo) Insert(ctx context.Context, rec *models.TransactionRecord) error {
	var key any
	if rec.IdempotencyKey != "" {
		key = rec.IdempotencyKey
	}

	query := sq.Insert(transactionsTable).
		Columns("id", "account_id", "type", "game_type", "round_id", "amount",
			"balance_before", "balance_after", "idempotency_key", "description", "created_at").
		Values(rec.ID, rec.AccountID, string(rec.Type), string(rec.GameType), rec.RoundID,
			rec.Amount.String(), rec.BalanceBefore.String(), rec.BalanceAfter.String(),
			key, rec.Description, rec.CreatedAt).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}

	if _, err := r.getter.DefaultTrOrDB(ctx, r.db).Exec(ctx, sqlStr, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicateKey
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (r *transactionRepo) ListRecent(ctx context.Context, accountID string, limit int) ([]*models.TransactionRecord, error) {
	if limit <= 0 {
		limit = repository.DefaultListLimit
	}

	query := sq.Select(transactionColumns...).
		From(transactionsTable).
		Where(sq.Eq{"account_id": accountID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.getter.DefaultTrOrDB(ctx, r.db).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	records := make([]*models.TransactionRecord, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *transactionRepo) FindByIdempotencyKey(ctx context.Context, key string) (*models.TransactionRecord, error) {
	query := sq.Select(transactionColumns...).
		From(transactionsTable).
		Where(sq.Eq{"idempotency_key": key}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rec, err := scanRecord(r.getter.DefaultTrOrDB(ctx, r.db).QueryRow(ctx, sqlStr, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return rec, err
}

func scanRecord(row pgx.Row) (*models.TransactionRecord, error) {
	var (
		rec                   models.TransactionRecord
		txType, gameType      string
		amount, before, after string
	)
	err := row.Scan(&rec.ID, &rec.AccountID, &txType, &gameType, &rec.RoundID,
		&amount, &before, &after, &rec.IdempotencyKey, &rec.Description, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	rec.Type = models.TransactionType(txType)
	rec.GameType = models.GameType(gameType)
	if rec.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, err
	}
	if rec.BalanceBefore, err = decimal.NewFromString(before); err != nil {
		return nil, err
	}
	if rec.BalanceAfter, err = decimal.NewFromString(after); err != nil {
		return nil, err
	}
	return &rec, nil
}
