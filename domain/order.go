package domain

import (
	"fmt"
	"strconv"
)

type OrderSide string

const (
	OrderSideBuy  = OrderSide("buy")
	OrderSideSell = OrderSide("sell")
)

type OrderType string

const (
	OrderTypeMarket = OrderType("market")
	OrderTypeLimit  = OrderType("limit")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (validationError *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", validationError.Field, validationError.Reason)
}

// TradeOrder is built from caller input and validated before any request
// leaves the process. It is never mutated after creation.
type TradeOrder struct {
	ProductID  string
	Side       OrderSide
	Size       string
	Funds      string
	OrderType  OrderType
	LimitPrice string
}

func (tradeOrder *TradeOrder) Validate() error {
	if tradeOrder.ProductID == "" {
		return &ValidationError{Field: "product_id", Reason: "is required"}
	}
	if tradeOrder.Side != OrderSideBuy && tradeOrder.Side != OrderSideSell {
		return &ValidationError{Field: "side", Reason: "must be buy or sell"}
	}
	if tradeOrder.OrderType != OrderTypeMarket && tradeOrder.OrderType != OrderTypeLimit {
		return &ValidationError{Field: "order_type", Reason: "must be market or limit"}
	}
	if tradeOrder.Size == "" && tradeOrder.Funds == "" {
		return &ValidationError{Field: "size", Reason: "or funds is required"}
	}
	if tradeOrder.Size != "" && tradeOrder.Funds != "" {
		return &ValidationError{Field: "size", Reason: "and funds are mutually exclusive"}
	}
	if tradeOrder.Size != "" && !isPositiveDecimal(tradeOrder.Size) {
		return &ValidationError{Field: "size", Reason: "must be a positive number"}
	}
	if tradeOrder.Funds != "" && !isPositiveDecimal(tradeOrder.Funds) {
		return &ValidationError{Field: "funds", Reason: "must be a positive number"}
	}
	if tradeOrder.OrderType == OrderTypeLimit {
		if tradeOrder.Size == "" {
			return &ValidationError{Field: "size", Reason: "is required for limit orders"}
		}
		if tradeOrder.LimitPrice == "" {
			return &ValidationError{Field: "limit_price", Reason: "is required for limit orders"}
		}
		if !isPositiveDecimal(tradeOrder.LimitPrice) {
			return &ValidationError{Field: "limit_price", Reason: "must be a positive number"}
		}
	}
	if tradeOrder.OrderType == OrderTypeMarket && tradeOrder.LimitPrice != "" {
		return &ValidationError{Field: "limit_price", Reason: "is only valid for limit orders"}
	}
	return nil
}

func isPositiveDecimal(value string) bool {
	number, err := strconv.ParseFloat(value, 64)
	return err == nil && number > 0
}

type OrderFilter struct {
	Status string
	Limit  int
}
