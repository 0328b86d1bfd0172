package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/allertrack/backend/internal/domain"
)

// stubLocal is a controllable domain.LocalFinder. A barcode with a gate blocks
// until the gate is closed.
type stubLocal struct {
	mu      sync.Mutex
	calls   []string
	gates   map[string]chan struct{}
	matches map[string]*domain.LocalMatch
	err     error
	done    map[string]int
}

func newStubLocal() *stubLocal {
	return &stubLocal{
		gates:   make(map[string]chan struct{}),
		matches: make(map[string]*domain.LocalMatch),
		done:    make(map[string]int),
	}
}

func (s *stubLocal) gate(barcode string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{})
	s.gates[barcode] = ch
	return ch
}

func (s *stubLocal) FindByBarcode(ctx context.Context, barcode string) (*domain.LocalMatch, error) {
	s.mu.Lock()
	s.calls = append(s.calls, barcode)
	gate := s.gates[barcode]
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.done[barcode]++
	if s.err != nil {
		return nil, s.err
	}
	return s.matches[barcode], nil
}

// Returned counts finished calls for barcode
func (s *stubLocal) Returned(barcode string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done[barcode]
}

func (s *stubLocal) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// stubCatalog is a controllable domain.CatalogFinder
type stubCatalog struct {
	mu       sync.Mutex
	calls    []string
	gates    map[string]chan struct{}
	products map[string]*domain.CatalogProduct
	errs     map[string]error
	done     map[string]int
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{
		gates:    make(map[string]chan struct{}),
		products: make(map[string]*domain.CatalogProduct),
		errs:     make(map[string]error),
		done:     make(map[string]int),
	}
}

func (s *stubCatalog) gate(barcode string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{})
	s.gates[barcode] = ch
	return ch
}

func (s *stubCatalog) Lookup(ctx context.Context, barcode string) (*domain.CatalogProduct, error) {
	s.mu.Lock()
	s.calls = append(s.calls, barcode)
	gate := s.gates[barcode]
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.done[barcode]++
	if err := s.errs[barcode]; err != nil {
		return nil, err
	}
	if p, ok := s.products[barcode]; ok {
		return p, nil
	}
	return nil, domain.ErrProductNotFound
}

// Returned counts finished calls for barcode
func (s *stubCatalog) Returned(barcode string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done[barcode]
}

func (s *stubCatalog) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// recorder captures every callback and notice a resolver emits
type recorder struct {
	mu       sync.Mutex
	found    []string
	forms    []domain.ProductForm
	notices  []domain.Notice
	outcomes []domain.Outcome
}

func (r *recorder) handlers() ResolverHandlers {
	return ResolverHandlers{
		OnProductFound: func(id string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.found = append(r.found, id)
		},
		OnCatalogData: func(form domain.ProductForm) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.forms = append(r.forms, form)
		},
		OnSettled: func(_ string, outcome domain.Outcome) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.outcomes = append(r.outcomes, outcome)
		},
	}
}

func (r *recorder) Notify(notice domain.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice)
}

// events counts found-local callbacks, pre-fill callbacks and failure notices
func (r *recorder) events() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	failures := 0
	for _, n := range r.notices {
		if n.Kind == domain.NoticeFailure {
			failures++
		}
	}
	return len(r.found) + len(r.forms) + failures
}

func (r *recorder) snapshot() recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return recorder{
		found:    append([]string(nil), r.found...),
		forms:    append([]domain.ProductForm(nil), r.forms...),
		notices:  append([]domain.Notice(nil), r.notices...),
		outcomes: append([]domain.Outcome(nil), r.outcomes...),
	}
}

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu        sync.Mutex
	data      map[string]interface{}
	getError  error
	setError  error
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{data: make(map[string]interface{})}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return m.getError
	}
	value, ok := m.data[key]
	if !ok {
		return domain.ErrCacheMiss
	}
	product, ok := value.(*domain.CatalogProduct)
	target, isProduct := dest.(*domain.CatalogProduct)
	if !ok || !isProduct {
		return domain.ErrCacheMiss
	}
	*target = *product
	return nil
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// MockCatalogClient is a mock implementation of domain.CatalogClient
type MockCatalogClient struct {
	product *domain.CatalogProduct
	err     error
	calls   int
}

func (m *MockCatalogClient) GetProduct(ctx context.Context, barcode string) (*domain.CatalogProduct, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.product, nil
}

// MockProductRepository is an in-memory domain.ProductRepository
type MockProductRepository struct {
	mu        sync.Mutex
	products  []*domain.Product
	findError error
	createErr error
}

func (m *MockProductRepository) FindByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findError != nil {
		return nil, m.findError
	}
	for _, p := range m.products {
		if p.Barcode != nil && *p.Barcode == barcode {
			return p, nil
		}
	}
	return nil, nil
}

func (m *MockProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.ID.String() == id {
			return p, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (m *MockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.products = append(m.products, product)
	return nil
}

func (m *MockProductRepository) Search(ctx context.Context, query string, limit int) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Product
	for _, p := range m.products {
		for _, tok := range strings.Fields(strings.ToLower(query)) {
			if strings.Contains(strings.ToLower(p.Name), tok) {
				out = append(out, p)
				break
			}
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func strPtr(s string) *string { return &s }
