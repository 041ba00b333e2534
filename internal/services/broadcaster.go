package services

// BalanceNotifier is told about every balance a settlement produced. It must
// not block.
type BalanceNotifier interface {
	NotifyBalance(accountID string, balance int64)
}

type noopNotifier struct{}

func (noopNotifier) NotifyBalance(string, int64) {}
