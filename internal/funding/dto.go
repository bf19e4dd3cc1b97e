package funding

// AddMoneyRequest captures user-provided data to load cash onto a wallet.
// Amount is a decimal string with at most two fractional digits.
type AddMoneyRequest struct {
	Amount     string `json:"amount"`
	ClientTxID string `json:"client_tx_id"`
}

// AddMoneyResponse represents the API response for a cash load.
type AddMoneyResponse struct {
	TransactionID string `json:"transaction_id"`
	WalletBalance string `json:"wallet_balance"`
}
