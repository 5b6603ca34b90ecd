package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/legendiguess/coinbase-tool-server/domain"
)

// Tool is one named, schema-validated operation exposed to the
// agent-orchestration caller. Validation failures surface as
// *domain.ValidationError before any network call is made.
type Tool interface {
	Name() string
	Description() string
	Invoke(ctx context.Context, args map[string]string) (string, error)
}

type toolsClient interface {
	GetAccounts(ctx context.Context) ([]domain.Account, error)
	GetProducts(ctx context.Context) ([]domain.Product, error)
	PlaceOrder(ctx context.Context, order domain.TradeOrder) (*domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	CancelOrder(ctx context.Context, orderID string) (*domain.CancelResult, error)
}

// ToolRegistry is a fixed name-to-tool mapping resolved at startup.
type ToolRegistry struct {
	tools map[string]Tool
	names []string
}

func NewToolRegistry(client toolsClient) *ToolRegistry {
	toolRegistry := ToolRegistry{tools: map[string]Tool{}}

	for _, tool := range []Tool{
		NewBalanceTool(client),
		NewPortfolioTool(client),
		NewTradeTool(client),
		NewOrdersTool(client),
	} {
		shortName := strings.TrimPrefix(tool.Name(), "coinbase_")
		toolRegistry.tools[shortName] = tool
		toolRegistry.names = append(toolRegistry.names, shortName)
	}

	return &toolRegistry
}

func (toolRegistry *ToolRegistry) Names() []string {
	return toolRegistry.names
}

func (toolRegistry *ToolRegistry) Describe(name string) (domain.ToolInfo, bool) {
	tool, ok := toolRegistry.tools[name]
	if !ok {
		return domain.ToolInfo{}, false
	}

	return domain.ToolInfo{
		Name:        tool.Name(),
		Description: tool.Description(),
		Endpoint:    "/api/v1/" + name,
		Type:        "agent_tool",
	}, true
}

func (toolRegistry *ToolRegistry) Invoke(ctx context.Context, name string, args map[string]string) (string, error) {
	tool, ok := toolRegistry.tools[name]
	if !ok {
		return "", &domain.ValidationError{Field: "tool", Reason: "is unknown: " + name}
	}

	result, err := tool.Invoke(ctx, args)
	mtxToolInvocations.WithLabelValues(name, invokeOutcome(err)).Inc()
	return result, err
}

func invokeOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case isValidationError(err):
		return "validation_error"
	default:
		return "upstream_error"
	}
}

func isValidationError(err error) bool {
	var validationError *domain.ValidationError
	return errors.As(err, &validationError)
}

type BalanceTool struct {
	client toolsClient
}

func NewBalanceTool(client toolsClient) *BalanceTool {
	return &BalanceTool{client: client}
}

func (balanceTool *BalanceTool) Name() string {
	return "coinbase_balance"
}

func (balanceTool *BalanceTool) Description() string {
	return "Get current cryptocurrency balances from Coinbase account. Returns all account balances with available and hold amounts."
}

func (balanceTool *BalanceTool) Invoke(ctx context.Context, args map[string]string) (string, error) {
	accounts, err := balanceTool.client.GetAccounts(ctx)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	activeAccounts := 0

	builder.WriteString("Current Coinbase Account Balances:\n")
	for _, account := range accounts {
		available := parseAmount(account.AvailableBalance.Value)
		hold := parseAmount(account.Hold.Value)
		if available == 0 && hold == 0 {
			continue
		}
		activeAccounts++
		fmt.Fprintf(&builder, "- %s: %.8f available, %.8f on hold (Total: %.8f)\n", account.Currency, available, hold, available+hold)
	}

	if activeAccounts == 0 {
		return "No cryptocurrency balances found in your Coinbase account.", nil
	}

	return builder.String(), nil
}

type PortfolioTool struct {
	client toolsClient
}

func NewPortfolioTool(client toolsClient) *PortfolioTool {
	return &PortfolioTool{client: client}
}

func (portfolioTool *PortfolioTool) Name() string {
	return "coinbase_portfolio"
}

func (portfolioTool *PortfolioTool) Description() string {
	return "Get detailed portfolio information including available trading products and account overview."
}

func (portfolioTool *PortfolioTool) Invoke(ctx context.Context, args map[string]string) (string, error) {
	accounts, err := portfolioTool.client.GetAccounts(ctx)
	if err != nil {
		return "", err
	}

	products, err := portfolioTool.client.GetProducts(ctx)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	builder.WriteString("Coinbase Portfolio Overview:\n\n")

	builder.WriteString("Active Holdings:\n")
	activeHoldings := 0
	for _, account := range accounts {
		available := parseAmount(account.AvailableBalance.Value)
		if available == 0 {
			continue
		}
		activeHoldings++
		fmt.Fprintf(&builder, "- %s: %.8f\n", account.Currency, available)
	}
	if activeHoldings == 0 {
		builder.WriteString("- No active holdings found\n")
	}

	tradingPairs := 0
	var pairs strings.Builder
	for _, product := range products {
		if product.Status != "online" || tradingPairs >= 10 {
			continue
		}
		tradingPairs++
		fmt.Fprintf(&pairs, "- %s (min: %s %s)\n", product.ProductID, product.BaseMinSize, product.BaseCurrency)
	}
	fmt.Fprintf(&builder, "\nAvailable Trading Pairs (showing first %d):\n", tradingPairs)
	builder.WriteString(pairs.String())

	return builder.String(), nil
}

type TradeTool struct {
	client toolsClient
}

func NewTradeTool(client toolsClient) *TradeTool {
	return &TradeTool{client: client}
}

func (tradeTool *TradeTool) Name() string {
	return "coinbase_trade"
}

func (tradeTool *TradeTool) Description() string {
	return "Execute cryptocurrency trades on Coinbase. Arguments: action (BUY or SELL), product_id (e.g. BTC-USD), amount, order_type (market or limit), price (limit orders only)."
}

func (tradeTool *TradeTool) Invoke(ctx context.Context, args map[string]string) (string, error) {
	action := strings.ToUpper(args["action"])
	if action != "BUY" && action != "SELL" {
		return "", &domain.ValidationError{Field: "action", Reason: "must be BUY or SELL"}
	}

	orderType := strings.ToLower(args["order_type"])
	if orderType == "" {
		orderType = string(domain.OrderTypeMarket)
	}

	order := domain.TradeOrder{
		ProductID:  args["product_id"],
		Side:       domain.OrderSide(strings.ToLower(action)),
		Size:       args["amount"],
		OrderType:  domain.OrderType(orderType),
		LimitPrice: args["price"],
	}

	if err := order.Validate(); err != nil {
		return "", err
	}

	placedOrder, err := tradeTool.client.PlaceOrder(ctx, order)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Trade executed successfully: %s %s %s %s order (order ID: %s)",
		action, order.Size, order.ProductID, orderType, placedOrder.OrderID), nil
}

type OrdersTool struct {
	client toolsClient
}

func NewOrdersTool(client toolsClient) *OrdersTool {
	return &OrdersTool{client: client}
}

func (ordersTool *OrdersTool) Name() string {
	return "coinbase_orders"
}

func (ordersTool *OrdersTool) Description() string {
	return "Get order history and status, or cancel an order. Arguments: status (open or all) to list, cancel_order_id to cancel."
}

func (ordersTool *OrdersTool) Invoke(ctx context.Context, args map[string]string) (string, error) {
	if orderID := args["cancel_order_id"]; orderID != "" {
		return ordersTool.cancel(ctx, orderID)
	}

	filter := domain.OrderFilter{}
	switch args["status"] {
	case "", "all", "list":
	case "open":
		filter.Status = "open"
	default:
		return "", &domain.ValidationError{Field: "status", Reason: "must be open or all"}
	}

	orders, err := ordersTool.client.ListOrders(ctx, filter)
	if err != nil {
		return "", err
	}

	if len(orders) == 0 {
		return "No orders found.", nil
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Coinbase Orders (%d):\n", len(orders))
	for _, order := range orders {
		fmt.Fprintf(&builder, "- %s: %s %s %s (filled: %s)\n",
			order.OrderID, order.Side, order.ProductID, order.Status, order.FilledSize)
	}

	return builder.String(), nil
}

func (ordersTool *OrdersTool) cancel(ctx context.Context, orderID string) (string, error) {
	result, err := ordersTool.client.CancelOrder(ctx, orderID)
	if err != nil {
		return "", err
	}

	if !result.Success {
		return fmt.Sprintf("Failed to cancel order %s: %s", orderID, result.FailureReason), nil
	}

	return fmt.Sprintf("Order %s cancelled successfully.", orderID), nil
}

func parseAmount(value string) float64 {
	amount, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return amount
}
