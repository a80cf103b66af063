package redisstore

const (
	KeyWalletBalance       = "wallet:%s:balance"
	KeyTransaction         = "transaction:%s"
	KeyAccountTransactions = "account:%s:transactions"
	KeyIdempotency         = "idem:%s"
)
