package domain

// Request and response bodies of the service's own HTTP surface.

type TradeRequest struct {
	Action    string `json:"action"`
	ProductID string `json:"product_id"`
	Amount    string `json:"amount"`
	OrderType string `json:"order_type"`
	Price     string `json:"price,omitempty"`
}

type Response struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Detail    string `json:"detail"`
	ErrorType string `json:"error_type,omitempty"`
}

type HealthResponse struct {
	Status         string   `json:"status"`
	Service        string   `json:"service"`
	ToolsAvailable []string `json:"tools_available"`
}

type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Endpoint    string `json:"endpoint"`
	Type        string `json:"type"`
}
