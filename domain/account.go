package domain

// Typed mirrors of the Coinbase Advanced Trade JSON schema. Only the fields
// the service reads are declared; unknown fields are ignored on decode.

type Balance struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type Account struct {
	UUID             string  `json:"uuid"`
	Name             string  `json:"name"`
	Currency         string  `json:"currency"`
	AvailableBalance Balance `json:"available_balance"`
	Hold             Balance `json:"hold"`
	Type             string  `json:"type"`
}

type Product struct {
	ProductID     string `json:"product_id"`
	BaseCurrency  string `json:"base_currency_id"`
	QuoteCurrency string `json:"quote_currency_id"`
	Status        string `json:"status"`
	BaseMinSize   string `json:"base_min_size"`
	Price         string `json:"price"`
}

type Order struct {
	OrderID            string `json:"order_id"`
	ClientOrderID      string `json:"client_order_id"`
	ProductID          string `json:"product_id"`
	Side               string `json:"side"`
	Status             string `json:"status"`
	CreatedTime        string `json:"created_time"`
	FilledSize         string `json:"filled_size"`
	AverageFilledPrice string `json:"average_filled_price"`
}

type CancelResult struct {
	Success       bool   `json:"success"`
	OrderID       string `json:"order_id"`
	FailureReason string `json:"failure_reason"`
}
