package services_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/legendiguess/coinbase-tool-server/domain"
	"github.com/legendiguess/coinbase-tool-server/services"
)

type testClientCredentials struct {
	url     string
	timeout time.Duration
}

func (testClientCredentials *testClientCredentials) GetAPIKey() string {
	return "test-api-key"
}

func (testClientCredentials *testClientCredentials) GetPrivateKey() string {
	return testSecret
}

func (testClientCredentials *testClientCredentials) GetPassphrase() string {
	return "test-passphrase"
}

func (testClientCredentials *testClientCredentials) GetBaseURL() string {
	return testClientCredentials.url
}

func (testClientCredentials *testClientCredentials) GetHTTPTimeout() time.Duration {
	if testClientCredentials.timeout == 0 {
		return 5 * time.Second
	}
	return testClientCredentials.timeout
}

type testClientLogger struct{}

func (testClientLogger *testClientLogger) Printf(format string, args ...interface{}) {}

func TestGetAccounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/api/v3/brokerage/accounts", req.URL.Path)
		assert.Equal(t, "test-api-key", req.Header.Get("API-KEY"))
		assert.Equal(t, "test-passphrase", req.Header.Get("API-PASSPHRASE"))

		timestamp, err := strconv.ParseInt(req.Header.Get("API-TIMESTAMP"), 10, 64)
		assert.Nil(t, err)

		expectedSignature, err := services.NewSigner(testSecret).Sign(timestamp, req.Method, req.URL.Path, "")
		assert.Nil(t, err)
		assert.Equal(t, expectedSignature, req.Header.Get("API-SIGN"))

		answer := `{"accounts":[{"uuid":"aaa-111","currency":"BTC","available_balance":{"value":"0.5","currency":"BTC"},"hold":{"value":"0.1","currency":"BTC"}}]}`
		_, _ = resp.Write([]byte(answer))
	}))
	defer server.Close()

	coinbaseClient := services.NewCoinbaseClient(&testClientCredentials{url: server.URL}, &testClientLogger{})
	accounts, err := coinbaseClient.GetAccounts(context.Background())

	assert.Nil(t, err)
	assert.Len(t, accounts, 1)
	assert.Equal(t, "BTC", accounts[0].Currency)
	assert.Equal(t, "0.5", accounts[0].AvailableBalance.Value)
	assert.Equal(t, "0.1", accounts[0].Hold.Value)
}

func TestGetAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/api/v3/brokerage/accounts/aaa-111", req.URL.Path)
		_, _ = resp.Write([]byte(`{"account":{"uuid":"aaa-111","currency":"ETH","available_balance":{"value":"2","currency":"ETH"}}}`))
	}))
	defer server.Close()

	coinbaseClient := services.NewCoinbaseClient(&testClientCredentials{url: server.URL}, &testClientLogger{})
	account, err := coinbaseClient.GetAccount(context.Background(), "aaa-111")

	assert.Nil(t, err)
	assert.Equal(t, "ETH", account.Currency)
}

func TestGetAccountsUpstream401(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		resp.WriteHeader(http.StatusUnauthorized)
		_, _ = resp.Write([]byte(`{"error":"Unauthorized"}`))
	}))
	defer server.Close()

	coinbaseClient := services.NewCoinbaseClient(&testClientCredentials{url: server.URL}, &testClientLogger{})
	_, err := coinbaseClient.GetAccounts(context.Background())

	var coinbaseError *services.CoinbaseError
	assert.ErrorAs(t, err, &coinbaseError)
	assert.Equal(t, http.StatusUnauthorized, coinbaseError.StatusCode)
	assert.Contains(t, coinbaseError.Body, "Unauthorized")
}

func TestGetAccountsMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		_, _ = resp.Write([]byte(`{"accounts": [`))
	}))
	defer server.Close()

	coinbaseClient := services.NewCoinbaseClient(&testClientCredentials{url: server.URL}, &testClientLogger{})
	_, err := coinbaseClient.GetAccounts(context.Background())

	var coinbaseError *services.CoinbaseError
	assert.ErrorAs(t, err, &coinbaseError)
	assert.Equal(t, "malformed response body", coinbaseError.Message)
}

func TestGetAccountsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {}))
	server.Close()

	coinbaseClient := services.NewCoinbaseClient(&testClientCredentials{url: server.URL}, &testClientLogger{})
	_, err := coinbaseClient.GetAccounts(context.Background())

	var coinbaseError *services.CoinbaseError
	assert.ErrorAs(t, err, &coinbaseError)
	assert.Equal(t, http.StatusBadGateway, coinbaseError.StatusCode)
}

func TestGetAccountsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	coinbaseClient := services.NewCoinbaseClient(&testClientCredentials{url: server.URL, timeout: 50 * time.Millisecond}, &testClientLogger{})
	_, err := coinbaseClient.GetAccounts(context.Background())

	var coinbaseError *services.CoinbaseError
	assert.ErrorAs(t, err, &coinbaseError)
	assert.Equal(t, http.StatusGatewayTimeout, coinbaseError.StatusCode)
}

func TestGetProducts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/api/v3/brokerage/products", req.URL.Path)
		_, _ = resp.Write([]byte(`{"products":[{"product_id":"BTC-USD","base_currency_id":"BTC","quote_currency_id":"USD","status":"online"}]}`))
	}))
	defer server.Close()

	coinbaseClient := services.NewCoinbaseClient(&testClientCredentials{url: server.URL}, &testClientLogger{})
	products, err := coinbaseClient.GetProducts(context.Background())

	assert.Nil(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, "BTC-USD", products[0].ProductID)
	assert.Equal(t, "online", products[0].Status)
}

func TestPlaceOrderMarket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/api/v3/brokerage/orders", req.URL.Path)

		d, err := io.ReadAll(req.Body)
		assert.Nil(t, err)

		var requestBody map[string]interface{}
		assert.Nil(t, json.Unmarshal(d, &requestBody))
		assert.Equal(t, "BTC-USD", requestBody["product_id"])
		assert.Equal(t, "BUY", requestBody["side"])
		assert.NotEmpty(t, requestBody["client_order_id"])

		orderConfiguration := requestBody["order_configuration"].(map[string]interface{})
		marketOrder := orderConfiguration["market_market_ioc"].(map[string]interface{})
		assert.Equal(t, "0.001", marketOrder["base_size"])

		answer := `{"success":true,"success_response":{"order_id":"ord-123","side":"BUY","client_order_id":"cli-1"}}`
		_, _ = resp.Write([]byte(answer))
	}))
	defer server.Close()

	coinbaseClient := services.NewCoinbaseClient(&testClientCredentials{url: server.URL}, &testClientLogger{})
	order, err := coinbaseClient.PlaceOrder(context.Background(), domain.TradeOrder{
		ProductID: "BTC-USD",
		Side:      domain.OrderSideBuy,
		Size:      "0.001",
		OrderType: domain.OrderTypeMarket,
	})

	assert.Nil(t, err)
	assert.Equal(t, "ord-123", order.OrderID)
	assert.Equal(t, "BTC-USD", order.ProductID)
}

func TestPlaceOrderLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		d, err := io.ReadAll(req.Body)
		assert.Nil(t, err)

		var requestBody map[string]interface{}
		assert.Nil(t, json.Unmarshal(d, &requestBody))

		orderConfiguration := requestBody["order_configuration"].(map[string]interface{})
		limitOrder := orderConfiguration["limit_limit_gtc"].(map[string]interface{})
		assert.Equal(t, "0.5", limitOrder["base_size"])
		assert.Equal(t, "50000", limitOrder["limit_price"])

		_, _ = resp.Write([]byte(`{"success":true,"success_response":{"order_id":"ord-456"}}`))
	}))
	defer server.Close()

	coinbaseClient := services.NewCoinbaseClient(&testClientCredentials{url: server.URL}, &testClientLogger{})
	order, err := coinbaseClient.PlaceOrder(context.Background(), domain.TradeOrder{
		ProductID:  "ETH-USD",
		Side:       domain.OrderSideSell,
		Size:       "0.5",
		OrderType:  domain.OrderTypeLimit,
		LimitPrice: "50000",
	})

	assert.Nil(t, err)
	assert.Equal(t, "ord-456", order.OrderID)
}

func TestPlaceOrderInvalidSkipsNetwork(t *testing.T) {
	upstreamCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		upstreamCalls++
	}))
	defer server.Close()

	coinbaseClient := services.NewCoinbaseClient(&testClientCredentials{url: server.URL}, &testClientLogger{})
	_, err := coinbaseClient.PlaceOrder(context.Background(), domain.TradeOrder{
		ProductID: "BTC-USD",
		Side:      domain.OrderSideBuy,
		OrderType: domain.OrderTypeMarket,
	})

	var validationError *domain.ValidationError
	assert.ErrorAs(t, err, &validationError)
	assert.Equal(t, 0, upstreamCalls)
}

func TestPlaceOrderRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		_, _ = resp.Write([]byte(`{"success":false,"error_response":{"error":"INSUFFICIENT_FUND","message":"Insufficient balance"}}`))
	}))
	defer server.Close()

	coinbaseClient := services.NewCoinbaseClient(&testClientCredentials{url: server.URL}, &testClientLogger{})
	_, err := coinbaseClient.PlaceOrder(context.Background(), domain.TradeOrder{
		ProductID: "BTC-USD",
		Side:      domain.OrderSideBuy,
		Size:      "100",
		OrderType: domain.OrderTypeMarket,
	})

	var coinbaseError *services.CoinbaseError
	assert.ErrorAs(t, err, &coinbaseError)
	assert.Equal(t, http.StatusBadRequest, coinbaseError.StatusCode)
	assert.Equal(t, "Insufficient balance", coinbaseError.Message)
}

func TestListOrders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/api/v3/brokerage/orders/historical/batch", req.URL.Path)
		assert.Equal(t, "OPEN", req.URL.Query().Get("order_status"))
		assert.Equal(t, "100", req.URL.Query().Get("limit"))

		answer := `{"orders":[{"order_id":"ord-1","product_id":"BTC-USD","side":"BUY","status":"OPEN"}]}`
		_, _ = resp.Write([]byte(answer))
	}))
	defer server.Close()

	coinbaseClient := services.NewCoinbaseClient(&testClientCredentials{url: server.URL}, &testClientLogger{})
	orders, err := coinbaseClient.ListOrders(context.Background(), domain.OrderFilter{Status: "open"})

	assert.Nil(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, "ord-1", orders[0].OrderID)
}

func TestCancelOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/api/v3/brokerage/orders/batch_cancel", req.URL.Path)

		d, err := io.ReadAll(req.Body)
		assert.Nil(t, err)

		var requestBody map[string][]string
		assert.Nil(t, json.Unmarshal(d, &requestBody))
		assert.Equal(t, []string{"ord-1"}, requestBody["order_ids"])

		_, _ = resp.Write([]byte(`{"results":[{"success":true,"order_id":"ord-1"}]}`))
	}))
	defer server.Close()

	coinbaseClient := services.NewCoinbaseClient(&testClientCredentials{url: server.URL}, &testClientLogger{})
	result, err := coinbaseClient.CancelOrder(context.Background(), "ord-1")

	assert.Nil(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "ord-1", result.OrderID)
}
