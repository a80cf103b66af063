package postgres

import (
	"context"
	"errors"
	"fmt"

	"casino-miniapp-backend/internal/repository"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	accountsTable = "accounts"
	colID         = "id"
	colBalance    = "balance"
	colUpdatedAt  = "updated_at"
)

type accountRepo struct {
	db     *pgxpool.Pool
	getter *trmpgx.CtxGetter
}

func NewAccountRepository(db *pgxpool.Pool) repository.AccountRepository {
	return &accountRepo{
		db:     db,
		getter: trmpgx.DefaultCtxGetter,
	}
}

// GetBalance locks the row for the surrounding transaction.
func (r *accountRepo) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	query := sq.Select(colBalance + "::text").
		From(accountsTable).
		Where(sq.Eq{colID: accountID}).
		Suffix("FOR UPDATE").
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return decimal.Zero, err
	}

	var raw string
	err = r.getter.DefaultTrOrDB(ctx, r.db).QueryRow(ctx, sqlStr, args...).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}
	return decimal.NewFromString(raw)
}

func (r *accountRepo) SetBalance(ctx context.Context, accountID string, balance decimal.Decimal) (decimal.Decimal, error) {
	query := sq.Insert(accountsTable).
		Columns(colID, colBalance, colUpdatedAt).
		Values(accountID, balance.String(), sq.Expr("now()")).
		Suffix("ON CONFLICT (" + colID + ") DO UPDATE SET " +
			colBalance + " = EXCLUDED." + colBalance + ", " +
			colUpdatedAt + " = EXCLUDED." + colUpdatedAt +
			" RETURNING " + colBalance + "::text").
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return decimal.Zero, err
	}

	var raw string
	if err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRow(ctx, sqlStr, args...).Scan(&raw); err != nil {
		return decimal.Zero, fmt.Errorf("failed to set balance: %w", err)
	}
	return decimal.NewFromString(raw)
}
