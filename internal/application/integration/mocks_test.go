package integration

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/erp/marketplace/internal/domain/integration"
	"github.com/erp/marketplace/internal/domain/shared"
	"github.com/erp/marketplace/internal/infrastructure/scheduler"
	"github.com/erp/marketplace/internal/infrastructure/storage"
)

// MockGateway is a mock implementation of integration.MarketplaceGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Marketplace() integration.MarketplaceCode {
	return integration.MarketplaceLazada
}

func (m *MockGateway) SuggestCategories(ctx context.Context, cred *integration.Credential, productName string) ([]integration.CategorySuggestion, error) {
	args := m.Called(ctx, cred, productName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.CategorySuggestion), args.Error(1)
}

func (m *MockGateway) GetCategoryTree(ctx context.Context, cred *integration.Credential) ([]integration.RemoteCategory, error) {
	args := m.Called(ctx, cred)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.RemoteCategory), args.Error(1)
}

func (m *MockGateway) GetCategoryAttributes(ctx context.Context, cred *integration.Credential, categoryID string) ([]integration.RemoteAttribute, error) {
	args := m.Called(ctx, cred, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.RemoteAttribute), args.Error(1)
}

func (m *MockGateway) CreateProduct(ctx context.Context, cred *integration.Credential, payload *integration.ProductPayload) (*integration.CreatedProduct, error) {
	args := m.Called(ctx, cred, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.CreatedProduct), args.Error(1)
}

func (m *MockGateway) UpdateProduct(ctx context.Context, cred *integration.Credential, payload *integration.ProductPayload) error {
	return m.Called(ctx, cred, payload).Error(0)
}

func (m *MockGateway) RemoveProduct(ctx context.Context, cred *integration.Credential, sellerSKUs, skuIDs []string) error {
	return m.Called(ctx, cred, sellerSKUs, skuIDs).Error(0)
}

func (m *MockGateway) UploadImage(ctx context.Context, cred *integration.Credential, filename string, content io.Reader, useCase integration.ImageUseCase) (string, error) {
	data, _ := io.ReadAll(content)
	args := m.Called(ctx, cred, filename, data, useCase)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) GetOrder(ctx context.Context, cred *integration.Credential, orderID string) (*integration.RemoteOrder, error) {
	args := m.Called(ctx, cred, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.RemoteOrder), args.Error(1)
}

func (m *MockGateway) GetOrders(ctx context.Context, cred *integration.Credential, since time.Time) ([]integration.RemoteOrder, error) {
	args := m.Called(ctx, cred, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.RemoteOrder), args.Error(1)
}

func (m *MockGateway) GetOrderItems(ctx context.Context, cred *integration.Credential, orderID string) ([]integration.RemoteOrderItem, error) {
	args := m.Called(ctx, cred, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.RemoteOrderItem), args.Error(1)
}

func (m *MockGateway) RefreshAccessToken(ctx context.Context, cred *integration.Credential) (*integration.TokenGrant, error) {
	args := m.Called(ctx, cred)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.TokenGrant), args.Error(1)
}

// MockCredentialRepository is a mock implementation of integration.CredentialRepository
type MockCredentialRepository struct {
	mock.Mock
}

func (m *MockCredentialRepository) FindByShop(ctx context.Context, shopName string) (*integration.Credential, error) {
	args := m.Called(ctx, shopName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Credential), args.Error(1)
}

func (m *MockCredentialRepository) FindAll(ctx context.Context) ([]integration.Credential, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Credential), args.Error(1)
}

func (m *MockCredentialRepository) Save(ctx context.Context, cred *integration.Credential) error {
	return m.Called(ctx, cred).Error(0)
}

// MockCredentialSource hands out a fixed credential
type MockCredentialSource struct {
	mock.Mock
}

func (m *MockCredentialSource) ActiveCredentials(ctx context.Context, shop string) (*integration.Credential, error) {
	args := m.Called(ctx, shop)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Credential), args.Error(1)
}

// MockCategoryRepository is a mock implementation of integration.CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) ReplaceMirror(ctx context.Context, marketplace integration.MarketplaceCode, nodes []integration.CategoryNode) error {
	return m.Called(ctx, marketplace, nodes).Error(0)
}

func (m *MockCategoryRepository) FindByMarketplace(ctx context.Context, marketplace integration.MarketplaceCode) ([]integration.CategoryNode, error) {
	args := m.Called(ctx, marketplace)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.CategoryNode), args.Error(1)
}

func (m *MockCategoryRepository) FindByDisplayName(ctx context.Context, marketplace integration.MarketplaceCode, displayName string) (*integration.CategoryNode, error) {
	args := m.Called(ctx, marketplace, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.CategoryNode), args.Error(1)
}

func (m *MockCategoryRepository) FindDefault(ctx context.Context, marketplace integration.MarketplaceCode) (*integration.CategoryNode, error) {
	args := m.Called(ctx, marketplace)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.CategoryNode), args.Error(1)
}

// MockItemGroupCategoryRepository is a mock implementation of integration.ItemGroupCategoryRepository
type MockItemGroupCategoryRepository struct {
	mock.Mock
}

func (m *MockItemGroupCategoryRepository) FindMapping(ctx context.Context, itemGroup string, marketplace integration.MarketplaceCode) (*integration.ItemGroupCategoryMapping, error) {
	args := m.Called(ctx, itemGroup, marketplace)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ItemGroupCategoryMapping), args.Error(1)
}

// MockItemRepository is a mock implementation of integration.ItemRepository
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) FindByCode(ctx context.Context, code string) (*integration.Item, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Item), args.Error(1)
}

func (m *MockItemRepository) FindItemGroup(ctx context.Context, name string) (*integration.ItemGroup, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ItemGroup), args.Error(1)
}

// MockAttributeRepository is a mock implementation of integration.AttributeRepository
type MockAttributeRepository struct {
	mock.Mock
}

func (m *MockAttributeRepository) FindByAttributeID(ctx context.Context, marketplace integration.MarketplaceCode, attributeID string) (*integration.MarketplaceAttribute, error) {
	args := m.Called(ctx, marketplace, attributeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.MarketplaceAttribute), args.Error(1)
}

func (m *MockAttributeRepository) Create(ctx context.Context, attr *integration.MarketplaceAttribute) error {
	return m.Called(ctx, attr).Error(0)
}

func (m *MockAttributeRepository) FindMappings(ctx context.Context, marketplace integration.MarketplaceCode) ([]integration.AttributeMapping, error) {
	args := m.Called(ctx, marketplace)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.AttributeMapping), args.Error(1)
}

// MockImageCache is a mock implementation of integration.ImageURICache
type MockImageCache struct {
	mock.Mock
}

func (m *MockImageCache) Initialize(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockImageCache) Get(ctx context.Context, key integration.ImageCacheKey) (string, bool) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1)
}

func (m *MockImageCache) Put(ctx context.Context, entry integration.ImageCacheEntry) error {
	return m.Called(ctx, entry).Error(0)
}

// MockFetcher is a mock implementation of storage.Fetcher
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, ref string) (*storage.Image, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Image), args.Error(1)
}

// MockMappingStore is a mock implementation of ProductMappingStore
type MockMappingStore struct {
	mock.Mock
}

func (m *MockMappingStore) FindActive(ctx context.Context, itemCode string, marketplace integration.MarketplaceCode, shopName string) (*integration.ItemMarketplaceMapping, error) {
	args := m.Called(ctx, itemCode, marketplace, shopName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ItemMarketplaceMapping), args.Error(1)
}

func (m *MockMappingStore) Save(ctx context.Context, mapping *integration.ItemMarketplaceMapping) error {
	return m.Called(ctx, mapping).Error(0)
}

func (m *MockMappingStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockMappingStore) SaveAll(ctx context.Context, mappings []integration.SKUMapping) error {
	return m.Called(ctx, mappings).Error(0)
}

func (m *MockMappingStore) FindSkuIDs(ctx context.Context, marketplace integration.MarketplaceCode, sellerSKUs []string) (map[string]string, error) {
	args := m.Called(ctx, marketplace, sellerSKUs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

// MockStockRepository is a mock implementation of integration.StockRepository
type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) GetStockLevel(ctx context.Context, itemCode, warehouse string) (integration.StockLevel, error) {
	args := m.Called(ctx, itemCode, warehouse)
	return args.Get(0).(integration.StockLevel), args.Error(1)
}

// MockPayloadBuilder is a mock implementation of ProductPayloadBuilder
type MockPayloadBuilder struct {
	mock.Mock
}

func (m *MockPayloadBuilder) Build(ctx context.Context, shop string, item *integration.Item) (*integration.ProductPayload, error) {
	args := m.Called(ctx, shop, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ProductPayload), args.Error(1)
}

func (m *MockPayloadBuilder) BuildUpdate(ctx context.Context, payload *integration.ProductPayload, itemID string) (*integration.ProductPayload, error) {
	args := m.Called(ctx, payload, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ProductPayload), args.Error(1)
}

// inlineJobs runs every job synchronously and remembers what it ran
type inlineJobs struct {
	submitted []*scheduler.Job
	submitErr error
}

func (j *inlineJobs) Submit(job *scheduler.Job) error {
	if j.submitErr != nil {
		return j.submitErr
	}
	j.submitted = append(j.submitted, job)
	return job.Run(context.Background())
}

func (j *inlineJobs) RunInline(ctx context.Context, job *scheduler.Job) error {
	j.submitted = append(j.submitted, job)
	return job.Run(ctx)
}

// queuedJobs only records submissions
type queuedJobs struct {
	submitted []*scheduler.Job
}

func (j *queuedJobs) Submit(job *scheduler.Job) error {
	j.submitted = append(j.submitted, job)
	return nil
}

func (j *queuedJobs) RunInline(ctx context.Context, job *scheduler.Job) error {
	j.submitted = append(j.submitted, job)
	return job.Run(ctx)
}

// memoryOrders is an in-memory SalesOrderRepository
type memoryOrders struct {
	byID    map[string]*integration.SalesOrder
	creates int
	updates int
}

func newMemoryOrders() *memoryOrders {
	return &memoryOrders{byID: make(map[string]*integration.SalesOrder)}
}

func (r *memoryOrders) FindByMarketplaceOrderID(_ context.Context, marketplace integration.MarketplaceCode, orderID string) (*integration.SalesOrder, error) {
	o, ok := r.byID[string(marketplace)+"/"+orderID]
	if !ok {
		return nil, integration.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *memoryOrders) Create(_ context.Context, order *integration.SalesOrder) error {
	r.creates++
	cp := *order
	r.byID[string(order.Marketplace)+"/"+order.MarketplaceOrderID] = &cp
	return nil
}

func (r *memoryOrders) Update(_ context.Context, order *integration.SalesOrder) error {
	r.updates++
	cp := *order
	r.byID[string(order.Marketplace)+"/"+order.MarketplaceOrderID] = &cp
	return nil
}

// memoryCustomers is an in-memory CustomerRepository
type memoryCustomers struct {
	byName map[string]*integration.Customer
}

func (r *memoryCustomers) FindByName(_ context.Context, name string) (*integration.Customer, error) {
	return r.byName[name], nil
}

func (r *memoryCustomers) Create(_ context.Context, c *integration.Customer) error {
	if r.byName == nil {
		r.byName = make(map[string]*integration.Customer)
	}
	r.byName[c.Name] = c
	return nil
}

// memoryRequests is an in-memory MaterialRequestRepository
type memoryRequests struct {
	created []*integration.MaterialRequest
}

func (r *memoryRequests) Create(_ context.Context, req *integration.MaterialRequest) error {
	r.created = append(r.created, req)
	return nil
}

// recordingPublisher collects published events
type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}
