package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"casino-miniapp-backend/internal/models"
	"casino-miniapp-backend/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accountModel struct {
	ID        string          `gorm:"primaryKey;size:64"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime"`
}

func (accountModel) TableName() string { return "accounts" }

type transactionModel struct {
	ID             string          `gorm:"primaryKey;size:64"`
	AccountID      string          `gorm:"size:64;not null;index:idx_account_created,priority:1"`
	Type           string          `gorm:"size:32;not null"`
	GameType       string          `gorm:"size:32"`
	RoundID        string          `gorm:"size:64"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	BalanceBefore  decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	BalanceAfter   decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	IdempotencyKey *string         `gorm:"size:128;uniqueIndex"`
	Description    string          `gorm:"size:255"`
	CreatedAt      time.Time       `gorm:"not null;index:idx_account_created,priority:2"`
}

func (transactionModel) TableName() string { return "transactions" }

func toModel(rec *models.TransactionRecord) *transactionModel {
	m := &transactionModel{
		ID:            rec.ID,
		AccountID:     rec.AccountID,
		Type:          string(rec.Type),
		GameType:      string(rec.GameType),
		RoundID:       rec.RoundID,
		Amount:        rec.Amount,
		BalanceBefore: rec.BalanceBefore,
		BalanceAfter:  rec.BalanceAfter,
		Description:   rec.Description,
		CreatedAt:     rec.CreatedAt,
	}
	if rec.IdempotencyKey != "" {
		key := rec.IdempotencyKey
		m.IdempotencyKey = &key
	}
	return m
}

func (m *transactionModel) record() *models.TransactionRecord {
	rec := &models.TransactionRecord{
		ID:            m.ID,
		AccountID:     m.AccountID,
		Type:          models.TransactionType(m.Type),
		GameType:      models.GameType(m.GameType),
		RoundID:       m.RoundID,
		Amount:        m.Amount,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		Description:   m.Description,
		CreatedAt:     m.CreatedAt,
	}
	if m.IdempotencyKey != nil {
		rec.IdempotencyKey = *m.IdempotencyKey
	}
	return rec
}

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	var account accountModel
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", accountID).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}
	return account.Balance, nil
}

func (r *AccountRepository) SetBalance(ctx context.Context, accountID string, balance decimal.Decimal) (decimal.Decimal, error) {
	account := &accountModel{ID: accountID, Balance: balance}
	err := conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"balance", "updated_at"}),
		}).
		Create(account).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to set balance: %w", err)
	}
	return balance, nil
}

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Insert(ctx context.Context, rec *models.TransactionRecord) error {
	err := conn(ctx, r.db).Create(toModel(rec)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repository.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) ListRecent(ctx context.Context, accountID string, limit int) ([]*models.TransactionRecord, error) {
	if limit <= 0 {
		limit = repository.DefaultListLimit
	}

	var rows []transactionModel
	err := conn(ctx, r.db).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	records := make([]*models.TransactionRecord, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].record())
	}
	return records, nil
}

func (r *TransactionRepository) FindByIdempotencyKey(ctx context.Context, key string) (*models.TransactionRecord, error) {
	var row transactionModel
	err := conn(ctx, r.db).Where("idempotency_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return row.record(), nil
}
