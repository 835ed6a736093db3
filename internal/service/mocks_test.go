package service

import (
	"context"
	"sync"
	"time"

	"github.com/dipanjanswapna/averzotech-sub001/internal/domain"
	"github.com/dipanjanswapna/averzotech-sub001/internal/gateway/bkash"
	"github.com/dipanjanswapna/averzotech-sub001/internal/repository"
)

// MockRepository implements repository.OrderRepository over in-memory maps,
// keeping the real store's settlement semantics: settle is all-or-nothing and
// at most one order exists per tran id.
type MockRepository struct {
	mu      sync.Mutex
	Pending map[string]*domain.PendingOrder
	Orders  map[string]*domain.Order // keyed by tran id
	Stocks  map[string]int32

	CreatePendingErr error
	SettleErr        error // injected fault: settle fails before any effect applies
	AppendNoteErr    error

	SettleCalls int
	Notes       map[string][]domain.RefundNote // keyed by order id
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		Pending: make(map[string]*domain.PendingOrder),
		Orders:  make(map[string]*domain.Order),
		Stocks:  make(map[string]int32),
		Notes:   make(map[string][]domain.RefundNote),
	}
}

func (m *MockRepository) CreatePendingOrder(_ context.Context, pending *domain.PendingOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreatePendingErr != nil {
		return m.CreatePendingErr
	}
	if pending.CreatedAt.IsZero() {
		pending.CreatedAt = time.Now()
	}
	m.Pending[pending.TranID] = pending
	return nil
}

func (m *MockRepository) GetPendingOrder(_ context.Context, tranID string) (*domain.PendingOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending, ok := m.Pending[tranID]
	if !ok {
		return nil, repository.ErrPendingOrderNotFound
	}
	return pending, nil
}

func (m *MockRepository) DeletePendingOrder(_ context.Context, tranID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Pending[tranID]; !ok {
		return repository.ErrPendingOrderNotFound
	}
	delete(m.Pending, tranID)
	return nil
}

func (m *MockRepository) DeleteStalePendingOrders(_ context.Context, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var reaped int64
	for tranID, pending := range m.Pending {
		if pending.CreatedAt.Before(olderThan) {
			delete(m.Pending, tranID)
			reaped++
		}
	}
	return reaped, nil
}

func (m *MockRepository) SettleOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SettleCalls++
	if m.SettleErr != nil {
		return m.SettleErr
	}
	if _, exists := m.Orders[order.TranID]; exists {
		return repository.ErrDuplicateTranID
	}
	if _, ok := m.Pending[order.TranID]; !ok {
		return repository.ErrDuplicateTranID
	}

	m.Orders[order.TranID] = order
	for _, line := range order.Items {
		m.Stocks[line.ProductID] -= line.Quantity
	}
	delete(m.Pending, order.TranID)
	return nil
}

func (m *MockRepository) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, order := range m.Orders {
		if order.ID == id {
			return order, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *MockRepository) GetOrderByTranID(_ context.Context, tranID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.Orders[tranID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (m *MockRepository) AppendRefundNote(_ context.Context, orderID string, note domain.RefundNote) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.AppendNoteErr != nil {
		return m.AppendNoteErr
	}
	m.Notes[orderID] = append(m.Notes[orderID], note)
	return nil
}

// MockHostedGateway implements HostedGateway for testing
type MockHostedGateway struct {
	URL   string
	Err   error
	Calls int

	// OnCreateSession lets a test observe repository state at the moment the
	// provider is called.
	OnCreateSession func(pending *domain.PendingOrder)
}

func (m *MockHostedGateway) CreateSession(_ context.Context, pending *domain.PendingOrder) (string, error) {
	m.Calls++
	if m.OnCreateSession != nil {
		m.OnCreateSession(pending)
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.URL, nil
}

// MockWalletGateway implements WalletGateway for testing
type MockWalletGateway struct {
	PaymentID string
	HostedURL string
	CreateErr error

	ExecuteResp *bkash.ExecuteResponse
	ExecuteErr  error

	RefundResp *bkash.RefundResponse
	RefundErr  error

	ExecuteCalls  int
	RefundRequest *bkash.RefundRequest
}

func (m *MockWalletGateway) CreatePayment(_ context.Context, _ *domain.PendingOrder) (string, string, error) {
	if m.CreateErr != nil {
		return "", "", m.CreateErr
	}
	return m.PaymentID, m.HostedURL, nil
}

func (m *MockWalletGateway) ExecutePayment(_ context.Context, _ string) (*bkash.ExecuteResponse, error) {
	m.ExecuteCalls++
	if m.ExecuteErr != nil {
		return nil, m.ExecuteErr
	}
	return m.ExecuteResp, nil
}

func (m *MockWalletGateway) Refund(_ context.Context, req *bkash.RefundRequest) (*bkash.RefundResponse, error) {
	m.RefundRequest = req
	if m.RefundErr != nil {
		return nil, m.RefundErr
	}
	return m.RefundResp, nil
}

// MockPublisher implements EventPublisher for testing
type MockPublisher struct {
	Events []OrderSettledEvent
	Err    error
}

func (m *MockPublisher) PublishOrderSettled(_ context.Context, event OrderSettledEvent) error {
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, event)
	return nil
}
