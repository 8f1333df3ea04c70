package payment

import "github.com/autozen/backend/cache"

const (
	configPrefix           = "payment_config"
	transactionPrefix      = "transaction"
	userTransactionsPrefix = "user_transactions"
	refundPrefix           = "refund"
)

func configKey(gateway string) string { return cache.Key(configPrefix, gateway) }
func activeConfigsKey() string        { return "active_payment_configs" }

func transactionKey(txID string) string { return cache.Key(transactionPrefix, txID) }
func userTransactionsKey(userID int64) string {
	return cache.Key(userTransactionsPrefix, cache.ID(userID))
}

func refundKey(refundID string) string { return cache.Key(refundPrefix, refundID) }

// configFanout covers a gateway's own key and the active list.
func configFanout(c *Configuration) []string {
	return []string{configKey(c.Gateway), activeConfigsKey()}
}

// transactionFanout covers the transaction and the owner's history.
func transactionFanout(t *Transaction) []string {
	return []string{transactionKey(t.TxID), userTransactionsKey(t.UserID)}
}
