package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/erp/marketplace/internal/domain/integration"
	"github.com/erp/marketplace/internal/infrastructure/telemetry"
)

// Lazada API paths
const (
	lazadaPathCategoryTree       = "/category/tree/get"
	lazadaPathCategorySuggestion = "/product/category/suggestion/get"
	lazadaPathCategoryAttributes = "/category/attributes/get"
	lazadaPathProductCreate      = "/product/create"
	lazadaPathProductUpdate      = "/product/update"
	lazadaPathProductRemove      = "/product/remove"
	lazadaPathImageUpload        = "/image/upload"
	lazadaPathOrderGet           = "/order/get"
	lazadaPathOrdersGet          = "/orders/get"
	lazadaPathOrderItemsGet      = "/order/items/get"
	lazadaPathTokenRefresh       = "/auth/token/refresh"
)

const (
	// maxLazadaResponseSize limits the response body size to prevent memory exhaustion
	maxLazadaResponseSize = 10 * 1024 * 1024
	// maxLoggedBodySize caps response bodies quoted in errors
	maxLoggedBodySize = 512
	// lazadaOrderWindowLayout is the created_after/update_after format
	lazadaOrderWindowLayout = "2006-01-02T15:04:05+07:00"
	// lazadaOrderPageSize is the /orders/get maximum limit
	lazadaOrderPageSize = 100
)

// lazadaOrderZone is the marketplace's reporting zone for order windows
var lazadaOrderZone = time.FixedZone("ICT", 7*60*60)

// LazadaClient implements integration.MarketplaceGateway for the Lazada Open Platform.
// Every call is signed, rate limited and traced; nothing is retried.
type LazadaClient struct {
	config     *LazadaConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *telemetry.CallMetrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewLazadaClient creates a Lazada client with the given configuration
func NewLazadaClient(config *LazadaConfig, logger *zap.Logger) (*LazadaClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}

	return &LazadaClient{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		limiter: rate.NewLimiter(limit, config.Burst),
		logger:  logger.Named("lazada"),
		now:     time.Now,
	}, nil
}

// WithMetrics records every call on m
func (c *LazadaClient) WithMetrics(m *telemetry.CallMetrics) *LazadaClient {
	c.metrics = m
	return c
}

// Marketplace returns the marketplace this client talks to
func (c *LazadaClient) Marketplace() integration.MarketplaceCode {
	return integration.MarketplaceLazada
}

// ---------------------------------------------------------------------------
// Category Operations
// ---------------------------------------------------------------------------

// SuggestCategories asks the marketplace which categories fit a product name
func (c *LazadaClient) SuggestCategories(ctx context.Context, cred *integration.Credential, productName string) ([]integration.CategorySuggestion, error) {
	resp, err := c.get(ctx, cred, lazadaPathCategorySuggestion, map[string]any{
		"product_name": productName,
	})
	if err != nil {
		return nil, err
	}

	var data LazadaCategorySuggestionData
	if err := decodeData(resp, &data); err != nil {
		return nil, err
	}

	out := make([]integration.CategorySuggestion, 0, len(data.CategorySuggestions))
	for _, s := range data.CategorySuggestions {
		out = append(out, integration.CategorySuggestion{
			CategoryID:   s.CategoryID.String(),
			CategoryName: s.CategoryName,
			CategoryPath: s.CategoryPath,
		})
	}
	return out, nil
}

// GetCategoryTree fetches the full nested category tree
func (c *LazadaClient) GetCategoryTree(ctx context.Context, cred *integration.Credential) ([]integration.RemoteCategory, error) {
	resp, err := c.get(ctx, cred, lazadaPathCategoryTree, map[string]any{
		"language_code": c.config.LanguageCode,
	})
	if err != nil {
		return nil, err
	}

	var data []LazadaCategory
	if err := decodeData(resp, &data); err != nil {
		return nil, err
	}

	tree := make([]integration.RemoteCategory, 0, len(data))
	for _, node := range data {
		tree = append(tree, node.toDomain())
	}
	return tree, nil
}

// GetCategoryAttributes fetches the attribute definitions of a category
func (c *LazadaClient) GetCategoryAttributes(ctx context.Context, cred *integration.Credential, categoryID string) ([]integration.RemoteAttribute, error) {
	resp, err := c.get(ctx, cred, lazadaPathCategoryAttributes, map[string]any{
		"primary_category_id": categoryID,
		"language_code":       c.config.LanguageCode,
	})
	if err != nil {
		return nil, err
	}

	var data []LazadaAttribute
	if err := decodeData(resp, &data); err != nil {
		return nil, err
	}

	out := make([]integration.RemoteAttribute, 0, len(data))
	for _, attr := range data {
		out = append(out, attr.toDomain())
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Product Operations
// ---------------------------------------------------------------------------

// CreateProduct creates a product and returns the identifiers assigned to it
func (c *LazadaClient) CreateProduct(ctx context.Context, cred *integration.Credential, payload *integration.ProductPayload) (*integration.CreatedProduct, error) {
	body, err := payload.ToJSON()
	if err != nil {
		return nil, err
	}

	resp, err := c.post(ctx, cred, lazadaPathProductCreate, map[string]any{"payload": body})
	if err != nil {
		return nil, err
	}

	var data LazadaCreateProductData
	if err := decodeData(resp, &data); err != nil {
		return nil, err
	}
	if data.ItemID == "" {
		return nil, fmt.Errorf("%w: %s returned no item_id", integration.ErrPlatformInvalidResponse, lazadaPathProductCreate)
	}

	created := &integration.CreatedProduct{
		ItemID: data.ItemID.String(),
		SKUs:   make([]integration.CreatedSKU, 0, len(data.SKUList)),
	}
	for _, sku := range data.SKUList {
		created.SKUs = append(created.SKUs, integration.CreatedSKU{
			SellerSKU: sku.SellerSKU,
			ShopSKU:   sku.ShopSKU,
			SkuID:     sku.SkuID.String(),
		})
	}
	return created, nil
}

// UpdateProduct updates an existing product
func (c *LazadaClient) UpdateProduct(ctx context.Context, cred *integration.Credential, payload *integration.ProductPayload) error {
	body, err := payload.ToJSON()
	if err != nil {
		return err
	}
	_, err = c.post(ctx, cred, lazadaPathProductUpdate, map[string]any{"payload": body})
	return err
}

// RemoveProduct removes SKUs by seller SKU and/or sku id. Both lists are sent
// as JSON arrays; sku ids are passed through in the marketplace "SkuId_<item>_<sku>" form.
func (c *LazadaClient) RemoveProduct(ctx context.Context, cred *integration.Credential, sellerSKUs, skuIDs []string) error {
	params := make(map[string]any)
	if len(sellerSKUs) > 0 {
		list, err := json.Marshal(sellerSKUs)
		if err != nil {
			return fmt.Errorf("lazada: failed to marshal seller sku list: %w", err)
		}
		params["seller_sku_list"] = string(list)
	}
	if len(skuIDs) > 0 {
		list, err := json.Marshal(skuIDs)
		if err != nil {
			return fmt.Errorf("lazada: failed to marshal sku id list: %w", err)
		}
		params["sku_id_list"] = string(list)
	}
	_, err := c.post(ctx, cred, lazadaPathProductRemove, params)
	return err
}

// UploadImage uploads image bytes and returns the marketplace hosted URL.
// The binary part is sent as multipart and excluded from the signature.
func (c *LazadaClient) UploadImage(ctx context.Context, cred *integration.Credential, filename string, content io.Reader, useCase integration.ImageUseCase) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", fmt.Errorf("lazada: failed to read image: %w", err)
	}

	params := c.commonParams(cred)
	params["use_case"] = useCase.String()
	params["image"] = data

	resp, err := c.doMultipart(ctx, cred, lazadaPathImageUpload, params, filename)
	if err != nil {
		return "", err
	}

	var upload LazadaImageUploadData
	if err := decodeData(resp, &upload); err != nil {
		return "", err
	}
	if upload.Image.URL == "" {
		return "", fmt.Errorf("%w: %s returned no image url", integration.ErrPlatformInvalidResponse, lazadaPathImageUpload)
	}
	return upload.Image.URL, nil
}

// ---------------------------------------------------------------------------
// Order Operations
// ---------------------------------------------------------------------------

// GetOrder fetches one order
func (c *LazadaClient) GetOrder(ctx context.Context, cred *integration.Credential, orderID string) (*integration.RemoteOrder, error) {
	resp, err := c.get(ctx, cred, lazadaPathOrderGet, map[string]any{"order_id": orderID})
	if err != nil {
		return nil, err
	}

	var data LazadaOrder
	if err := decodeData(resp, &data); err != nil {
		return nil, err
	}
	if data.OrderID == "" {
		return nil, fmt.Errorf("%w: %s", integration.ErrOrderNotFound, orderID)
	}
	order := data.toDomain()
	return &order, nil
}

// GetOrders lists orders created or updated after since, newest first.
// Pages are fetched until one comes back short or countTotal is reached.
func (c *LazadaClient) GetOrders(ctx context.Context, cred *integration.Credential, since time.Time) ([]integration.RemoteOrder, error) {
	window := since.In(lazadaOrderZone).Format(lazadaOrderWindowLayout)
	var orders []integration.RemoteOrder
	for offset := 0; ; {
		resp, err := c.get(ctx, cred, lazadaPathOrdersGet, map[string]any{
			"created_after":  window,
			"update_after":   window,
			"sort_direction": "DESC",
			"offset":         offset,
			"limit":          lazadaOrderPageSize,
		})
		if err != nil {
			return nil, err
		}

		var data LazadaOrderListData
		if err := decodeData(resp, &data); err != nil {
			return nil, err
		}
		for _, o := range data.Orders {
			orders = append(orders, o.toDomain())
		}

		offset += len(data.Orders)
		if len(data.Orders) < lazadaOrderPageSize || (data.CountTotal > 0 && offset >= data.CountTotal) {
			break
		}
	}
	if orders == nil {
		orders = []integration.RemoteOrder{}
	}
	return orders, nil
}

// GetOrderItems fetches the lines of an order
func (c *LazadaClient) GetOrderItems(ctx context.Context, cred *integration.Credential, orderID string) ([]integration.RemoteOrderItem, error) {
	resp, err := c.get(ctx, cred, lazadaPathOrderItemsGet, map[string]any{"order_id": orderID})
	if err != nil {
		return nil, err
	}

	var data []LazadaOrderItem
	if err := decodeData(resp, &data); err != nil {
		return nil, err
	}

	items := make([]integration.RemoteOrderItem, 0, len(data))
	for _, item := range data {
		items = append(items, item.toDomain())
	}
	return items, nil
}

// ---------------------------------------------------------------------------
// Token Operations
// ---------------------------------------------------------------------------

// RefreshAccessToken exchanges the refresh token for a new token pair
func (c *LazadaClient) RefreshAccessToken(ctx context.Context, cred *integration.Credential) (*integration.TokenGrant, error) {
	if err := validateCredential(cred); err != nil {
		return nil, err
	}
	if cred.RefreshToken == "" {
		return nil, integration.ErrRefreshTokenMissing
	}

	params := map[string]any{
		"app_key":       cred.AppKey,
		"timestamp":     c.timestamp(),
		"sign_method":   LazadaSignMethod,
		"refresh_token": cred.RefreshToken,
	}

	var resp LazadaTokenResponse
	err := c.observe(ctx, http.MethodGet, lazadaPathTokenRefresh, func(ctx context.Context) error {
		body, err := c.do(ctx, http.MethodGet, c.config.AuthBaseURL, lazadaPathTokenRefresh, params, cred.AppSecret)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
		}
		if resp.Code != "" && resp.Code != "0" {
			return &integration.MarketplaceError{
				API:       lazadaPathTokenRefresh,
				Code:      resp.Code.String(),
				Message:   resp.Message,
				RequestID: resp.RequestID,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" || resp.ExpiresIn == "" {
		return nil, fmt.Errorf("%w: %w: missing access_token or expires_in", integration.ErrTokenRefreshFailed, integration.ErrPlatformInvalidResponse)
	}

	return &integration.TokenGrant{
		AccessToken:      resp.AccessToken,
		RefreshToken:     resp.RefreshToken,
		ExpiresIn:        resp.ExpiresIn.Int64(),
		RefreshExpiresIn: resp.RefreshExpiresIn.Int64(),
		Account:          resp.Account,
	}, nil
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

// commonParams returns the parameters every seller call carries
func (c *LazadaClient) commonParams(cred *integration.Credential) map[string]any {
	return map[string]any{
		"app_key":      cred.AppKey,
		"access_token": cred.AccessToken,
		"timestamp":    c.timestamp(),
		"sign_method":  LazadaSignMethod,
	}
}

func (c *LazadaClient) timestamp() string {
	return strconv.FormatInt(c.now().UnixMilli(), 10)
}

func (c *LazadaClient) get(ctx context.Context, cred *integration.Credential, apiPath string, extra map[string]any) (*LazadaResponse, error) {
	return c.call(ctx, http.MethodGet, cred, apiPath, extra)
}

func (c *LazadaClient) post(ctx context.Context, cred *integration.Credential, apiPath string, extra map[string]any) (*LazadaResponse, error) {
	return c.call(ctx, http.MethodPost, cred, apiPath, extra)
}

// call signs and sends a seller call and checks the response envelope
func (c *LazadaClient) call(ctx context.Context, method string, cred *integration.Credential, apiPath string, extra map[string]any) (*LazadaResponse, error) {
	if err := validateCredential(cred); err != nil {
		return nil, err
	}
	params := c.commonParams(cred)
	for k, v := range extra {
		params[k] = v
	}

	var resp *LazadaResponse
	err := c.observe(ctx, method, apiPath, func(ctx context.Context) error {
		body, err := c.do(ctx, method, c.config.APIBaseURL, apiPath, params, cred.AppSecret)
		if err != nil {
			return err
		}
		resp, err = c.parseEnvelope(apiPath, body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// observe runs one rate limited round trip inside a client span and records
// its outcome, including marketplace error codes.
func (c *LazadaClient) observe(ctx context.Context, method, apiPath string, fn func(ctx context.Context) error) error {
	ctx, span := telemetry.StartSpan(ctx, "lazada"+apiPath,
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrAPIPath, apiPath),
		telemetry.WithAttribute("http.method", method),
	)
	defer span.End()

	start := time.Now()
	err := c.limiter.Wait(ctx)
	if err != nil {
		err = fmt.Errorf("%w: rate limiter: %v", integration.ErrPlatformRequestFailed, err)
	} else {
		err = fn(ctx)
	}

	code := ""
	if err != nil {
		code = errorCode(err)
		telemetry.RecordError(span, err)
		telemetry.SetAttributes(span, "lazada.error_code", code)
	} else {
		telemetry.SetOK(span)
	}
	c.metrics.Record(context.WithoutCancel(ctx), string(integration.MarketplaceLazada), apiPath, code, time.Since(start))
	return err
}

// errorCode labels a failed call: the marketplace code when there is one,
// otherwise the transport failure class.
func errorCode(err error) string {
	var mErr *integration.MarketplaceError
	switch {
	case errors.As(err, &mErr) && mErr.Code != "":
		return mErr.Code
	case errors.Is(err, integration.ErrPlatformInvalidResponse):
		return "invalid_response"
	default:
		return "request_failed"
	}
}

// do signs params and performs one HTTP round trip, returning the raw body of a 200 response
func (c *LazadaClient) do(ctx context.Context, method, baseURL, apiPath string, params map[string]any, secret string) ([]byte, error) {
	params["sign"] = SignRequest(apiPath, params, secret)
	values := encodeParams(params)

	var (
		req *http.Request
		err error
	)
	endpoint := baseURL + apiPath
	if method == http.MethodGet {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+values.Encode(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("lazada: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.send(req, apiPath)
}

// doMultipart signs params without binary values and uploads them as a multipart form
func (c *LazadaClient) doMultipart(ctx context.Context, cred *integration.Credential, apiPath string, params map[string]any, filename string) (*LazadaResponse, error) {
	if err := validateCredential(cred); err != nil {
		return nil, err
	}

	var resp *LazadaResponse
	err := c.observe(ctx, http.MethodPost, apiPath, func(ctx context.Context) error {
		params["sign"] = SignRequest(apiPath, params, cred.AppSecret)

		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		for k, v := range params {
			if data, ok := v.([]byte); ok {
				part, err := writer.CreateFormFile(k, filename)
				if err != nil {
					return fmt.Errorf("lazada: failed to create form file: %w", err)
				}
				if _, err := part.Write(data); err != nil {
					return fmt.Errorf("lazada: failed to write form file: %w", err)
				}
				continue
			}
			if err := writer.WriteField(k, formatParamValue(v)); err != nil {
				return fmt.Errorf("lazada: failed to write form field: %w", err)
			}
		}
		if err := writer.Close(); err != nil {
			return fmt.Errorf("lazada: failed to close multipart body: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIBaseURL+apiPath, &buf)
		if err != nil {
			return fmt.Errorf("lazada: failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
		req.Header.Set("Accept", "application/json")

		body, err := c.send(req, apiPath)
		if err != nil {
			return err
		}
		resp, err = c.parseEnvelope(apiPath, body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// send executes the request and enforces HTTP 200
func (c *LazadaClient) send(req *http.Request, apiPath string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("lazada request failed", zap.String("api", apiPath), zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %v", integration.ErrPlatformRequestFailed, apiPath, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLazadaResponseSize))
	if err != nil {
		return nil, fmt.Errorf("lazada: failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		snippet := truncateBody(body)
		c.logger.Error("lazada returned non-200 status",
			zap.String("api", apiPath),
			zap.Int("status", resp.StatusCode),
			zap.String("body", snippet),
		)
		return nil, fmt.Errorf("%w: %s: HTTP %d: %s", integration.ErrPlatformRequestFailed, apiPath, resp.StatusCode, snippet)
	}
	return body, nil
}

// parseEnvelope decodes the response envelope and maps non-zero codes to MarketplaceError
func (c *LazadaClient) parseEnvelope(apiPath string, body []byte) (*LazadaResponse, error) {
	var resp LazadaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", integration.ErrPlatformInvalidResponse, apiPath, err)
	}
	if !resp.IsSuccess() {
		c.logger.Warn("lazada returned error code",
			zap.String("api", apiPath),
			zap.String("code", resp.Code.String()),
			zap.String("message", resp.Message),
			zap.String("request_id", resp.RequestID),
		)
		return nil, &integration.MarketplaceError{
			API:       apiPath,
			Code:      resp.Code.String(),
			Message:   resp.Message,
			RequestID: resp.RequestID,
		}
	}
	return &resp, nil
}

// decodeData unmarshals the data member of a successful response
func decodeData(resp *LazadaResponse, out any) error {
	if len(resp.Data) == 0 || bytes.Equal(resp.Data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	return nil
}

// encodeParams renders signed parameters as URL values, skipping binary values
func encodeParams(params map[string]any) url.Values {
	values := make(url.Values, len(params))
	for k, v := range params {
		if _, binary := v.([]byte); binary {
			continue
		}
		values.Set(k, formatParamValue(v))
	}
	return values
}

func validateCredential(cred *integration.Credential) error {
	if cred == nil {
		return integration.ErrCredentialNotFound
	}
	if cred.AppKey == "" {
		return ErrLazadaCredentialMissingKey
	}
	if cred.AppSecret == "" {
		return ErrLazadaCredentialMissingSign
	}
	return nil
}

func truncateBody(body []byte) string {
	if len(body) <= maxLoggedBodySize {
		return string(body)
	}
	return string(body[:maxLoggedBodySize]) + "..."
}

// Compile-time interface check
var _ integration.MarketplaceGateway = (*LazadaClient)(nil)
