package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/legendiguess/coinbase-tool-server/domain"
)

type clientCredentials interface {
	GetAPIKey() string
	GetPrivateKey() string
	GetPassphrase() string
	GetBaseURL() string
	GetHTTPTimeout() time.Duration
}

type clientLogger interface {
	Printf(format string, args ...interface{})
}

// CoinbaseError wraps every way an upstream call can fail: non-2xx status,
// transport failure, malformed payload. The client never retries.
type CoinbaseError struct {
	StatusCode int
	Message    string
	Body       string
}

func (coinbaseError *CoinbaseError) Error() string {
	if coinbaseError.Body != "" {
		return fmt.Sprintf("coinbase: %s (status %d): %s", coinbaseError.Message, coinbaseError.StatusCode, coinbaseError.Body)
	}
	return fmt.Sprintf("coinbase: %s (status %d)", coinbaseError.Message, coinbaseError.StatusCode)
}

type CoinbaseClient struct {
	credentials clientCredentials
	signer      *Signer
	httpClient  *http.Client
	logger      clientLogger
	now         func() time.Time
}

func NewCoinbaseClient(credentials clientCredentials, clientLogger clientLogger) *CoinbaseClient {
	return &CoinbaseClient{
		credentials: credentials,
		signer:      NewSigner(credentials.GetPrivateKey()),
		httpClient:  &http.Client{Timeout: credentials.GetHTTPTimeout()},
		logger:      clientLogger,
		now:         time.Now,
	}
}

// sendRequest signs and issues one outbound call. The signature covers
// exactly the bytes that go on the wire: timestamp + method + path + body.
func (coinbaseClient *CoinbaseClient) sendRequest(ctx context.Context, method string, path string, body string, answer interface{}) error {
	timestamp := coinbaseClient.now().Unix()
	if err := CheckTimestampFreshness(timestamp, time.Now()); err != nil {
		return err
	}

	signature, err := coinbaseClient.signer.Sign(timestamp, method, path, body)
	if err != nil {
		return err
	}

	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	newRequest, err := http.NewRequestWithContext(ctx, method, coinbaseClient.credentials.GetBaseURL()+path, bodyReader)
	if err != nil {
		return err
	}

	newRequest.Header.Set("API-KEY", coinbaseClient.credentials.GetAPIKey())
	newRequest.Header.Set("API-SIGN", signature)
	newRequest.Header.Set("API-TIMESTAMP", strconv.FormatInt(timestamp, 10))
	newRequest.Header.Set("API-PASSPHRASE", coinbaseClient.credentials.GetPassphrase())
	if body != "" {
		newRequest.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := coinbaseClient.httpClient.Do(newRequest)
	if err != nil {
		statusCode := http.StatusBadGateway
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			statusCode = http.StatusGatewayTimeout
		}
		mtxUpstreamRequests.WithLabelValues(method, "network_error").Inc()
		coinbaseClient.logger.Printf("coinbase request %s %s failed: %v", method, path, err)
		return &CoinbaseError{StatusCode: statusCode, Message: "request failed"}
	}
	defer resp.Body.Close()
	mtxUpstreamLatency.Observe(time.Since(started).Seconds())

	bytesAnswer, err := io.ReadAll(resp.Body)
	if err != nil {
		mtxUpstreamRequests.WithLabelValues(method, "network_error").Inc()
		return &CoinbaseError{StatusCode: http.StatusBadGateway, Message: "failed to read response body"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		mtxUpstreamRequests.WithLabelValues(method, "upstream_error").Inc()
		coinbaseClient.logger.Printf("coinbase returned %d for %s %s", resp.StatusCode, method, path)
		return &CoinbaseError{StatusCode: resp.StatusCode, Message: "coinbase returned non-2xx status", Body: string(bytesAnswer)}
	}

	if answer != nil {
		if err := json.Unmarshal(bytesAnswer, answer); err != nil {
			mtxUpstreamRequests.WithLabelValues(method, "bad_payload").Inc()
			return &CoinbaseError{StatusCode: resp.StatusCode, Message: "malformed response body", Body: string(bytesAnswer)}
		}
	}

	mtxUpstreamRequests.WithLabelValues(method, "ok").Inc()
	return nil
}

func (coinbaseClient *CoinbaseClient) GetAccounts(ctx context.Context) ([]domain.Account, error) {
	var answer struct {
		Accounts []domain.Account `json:"accounts"`
	}

	if err := coinbaseClient.sendRequest(ctx, http.MethodGet, "/api/v3/brokerage/accounts", "", &answer); err != nil {
		return nil, err
	}

	return answer.Accounts, nil
}

func (coinbaseClient *CoinbaseClient) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	var answer struct {
		Account domain.Account `json:"account"`
	}

	if err := coinbaseClient.sendRequest(ctx, http.MethodGet, "/api/v3/brokerage/accounts/"+url.PathEscape(accountID), "", &answer); err != nil {
		return nil, err
	}

	return &answer.Account, nil
}

func (coinbaseClient *CoinbaseClient) GetProducts(ctx context.Context) ([]domain.Product, error) {
	var answer struct {
		Products []domain.Product `json:"products"`
	}

	if err := coinbaseClient.sendRequest(ctx, http.MethodGet, "/api/v3/brokerage/products", "", &answer); err != nil {
		return nil, err
	}

	return answer.Products, nil
}

func (coinbaseClient *CoinbaseClient) PlaceOrder(ctx context.Context, order domain.TradeOrder) (*domain.Order, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	orderConfiguration := map[string]map[string]string{}
	switch order.OrderType {
	case domain.OrderTypeLimit:
		orderConfiguration["limit_limit_gtc"] = map[string]string{
			"base_size":   order.Size,
			"limit_price": order.LimitPrice,
		}
	default:
		if order.Size != "" {
			orderConfiguration["market_market_ioc"] = map[string]string{"base_size": order.Size}
		} else {
			orderConfiguration["market_market_ioc"] = map[string]string{"quote_size": order.Funds}
		}
	}

	body, err := json.Marshal(map[string]interface{}{
		"client_order_id":     uuid.NewString(),
		"product_id":          order.ProductID,
		"side":                strings.ToUpper(string(order.Side)),
		"order_configuration": orderConfiguration,
	})
	if err != nil {
		return nil, err
	}

	var answer struct {
		Success         bool         `json:"success"`
		SuccessResponse domain.Order `json:"success_response"`
		ErrorResponse   struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		} `json:"error_response"`
	}

	if err := coinbaseClient.sendRequest(ctx, http.MethodPost, "/api/v3/brokerage/orders", string(body), &answer); err != nil {
		return nil, err
	}

	if !answer.Success {
		message := answer.ErrorResponse.Message
		if message == "" {
			message = answer.ErrorResponse.Error
		}
		if message == "" {
			message = "order rejected"
		}
		return nil, &CoinbaseError{StatusCode: http.StatusBadRequest, Message: message}
	}

	placedOrder := answer.SuccessResponse
	placedOrder.ProductID = order.ProductID
	return &placedOrder, nil
}

func (coinbaseClient *CoinbaseClient) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	values := url.Values{}
	values.Set("limit", strconv.Itoa(limit))
	if filter.Status != "" {
		values.Set("order_status", strings.ToUpper(filter.Status))
	}

	var answer struct {
		Orders []domain.Order `json:"orders"`
	}

	if err := coinbaseClient.sendRequest(ctx, http.MethodGet, "/api/v3/brokerage/orders/historical/batch?"+values.Encode(), "", &answer); err != nil {
		return nil, err
	}

	return answer.Orders, nil
}

func (coinbaseClient *CoinbaseClient) CancelOrder(ctx context.Context, orderID string) (*domain.CancelResult, error) {
	body, err := json.Marshal(map[string][]string{"order_ids": {orderID}})
	if err != nil {
		return nil, err
	}

	var answer struct {
		Results []domain.CancelResult `json:"results"`
	}

	if err := coinbaseClient.sendRequest(ctx, http.MethodPost, "/api/v3/brokerage/orders/batch_cancel", string(body), &answer); err != nil {
		return nil, err
	}

	if len(answer.Results) == 0 {
		return nil, &CoinbaseError{StatusCode: http.StatusBadGateway, Message: "empty cancel response"}
	}

	return &answer.Results[0], nil
}
