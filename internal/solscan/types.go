package solscan

// accountResponse is the raw /account/{address} response.
type accountResponse struct {
	Lamports   uint64  `json:"lamports"`
	OwnerProg  string  `json:"ownerProgram"`
	Type       *string `json:"type"`
	Executable bool    `json:"executable"`
	Account    string  `json:"account"`
}

// tokenHoldingResponse is one entry of the raw /account/tokens response.
type tokenHoldingResponse struct {
	TokenAddress string      `json:"tokenAddress"`
	TokenSymbol  *string     `json:"tokenSymbol"`
	TokenAmount  tokenAmount `json:"tokenAmount"`
}

// tokenAmount is the nested amount object used by the explorer API.
type tokenAmount struct {
	UIAmount float64 `json:"uiAmount"`
	Decimals int     `json:"decimals"`
}

// transactionResponse is one entry of the raw /account/transactions response.
type transactionResponse struct {
	TxHash    string `json:"txHash"`
	Slot      int64  `json:"slot"`
	BlockTime int64  `json:"blockTime"`
	Status    string `json:"status"`
	Fee       uint64 `json:"fee"`
}

// apiError is the error envelope some endpoints return with status 200.
type apiError struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}
