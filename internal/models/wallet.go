package models

import "github.com/shopspring/decimal"

type BalanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

type DepositResult struct {
	Reference   string          `json:"reference"`
	Amount      decimal.Decimal `json:"amount"`
	TokenAmount decimal.Decimal `json:"token_amount"`
	Balance     decimal.Decimal `json:"balance"`
}
