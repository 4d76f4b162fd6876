package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/JustBrowsing/command-service/internal/core/domain"
)

// memStore is an in-memory stand-in for the MySQL adapter with the same
// semantics: version CAS on inventory, all-or-nothing order creation, outbox
// rows appended atomically with the mutation they describe.
type memStore struct {
	mu        sync.Mutex
	products  map[string]domain.Product
	bySKU     map[string]string
	inventory map[string]domain.Inventory // keyed by product ID
	tags      map[string]map[string]string
	orders    map[string]domain.Order
	events    []domain.OutboxEvent

	createOrderErr error
	markErr        map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		products:  make(map[string]domain.Product),
		bySKU:     make(map[string]string),
		inventory: make(map[string]domain.Inventory),
		tags:      make(map[string]map[string]string),
		orders:    make(map[string]domain.Order),
		markErr:   make(map[string]error),
	}
}

func (m *memStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memStore) GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.bySKU[sku]
	if !ok {
		return nil, nil
	}
	p := m.products[id]
	return &p, nil
}

func (m *memStore) CreateProduct(ctx context.Context, product *domain.Product, inventory *domain.Inventory, tags []domain.TagAssignment, events []domain.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bySKU[product.SKU]; ok {
		return &domain.DuplicateResourceError{Resource: "Product", Field: "sku", Value: product.SKU}
	}
	m.products[product.ID] = *product
	m.bySKU[product.SKU] = product.ID
	if inventory != nil {
		m.inventory[inventory.ProductID] = *inventory
	}
	for _, tag := range tags {
		if m.tags[product.ID] == nil {
			m.tags[product.ID] = make(map[string]string)
		}
		m.tags[product.ID][tag.Name] = tag.Value
	}
	m.events = append(m.events, events...)
	return nil
}

func (m *memStore) UpdateProduct(ctx context.Context, product *domain.Product, event domain.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[product.ID]; !ok {
		return &domain.NotFoundError{Resource: "Product", Field: "id", Value: product.ID}
	}
	m.products[product.ID] = *product
	m.events = append(m.events, event)
	return nil
}

func (m *memStore) AddProductTag(ctx context.Context, productID string, tag domain.TagAssignment, event domain.OutboxEvent) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[productID]; !ok {
		return "", &domain.NotFoundError{Resource: "Product", Field: "id", Value: productID}
	}
	if _, ok := m.tags[productID][tag.Name]; ok {
		return "", &domain.DuplicateResourceError{Resource: "Tag", Field: "name", Value: tag.Name}
	}
	if m.tags[productID] == nil {
		m.tags[productID] = make(map[string]string)
	}
	m.tags[productID][tag.Name] = tag.Value
	m.events = append(m.events, event)
	return "tag-" + tag.Name, nil
}

func (m *memStore) RemoveProductTag(ctx context.Context, productID, tagID string, event domain.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := false
	for name := range m.tags[productID] {
		if "tag-"+name == tagID {
			delete(m.tags[productID], name)
			found = true
		}
	}
	if !found {
		return &domain.NotFoundError{Resource: "Tag", Field: "id", Value: tagID}
	}
	m.events = append(m.events, event)
	return nil
}

func (m *memStore) GetInventory(ctx context.Context, productID string) (*domain.Inventory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.inventory[productID]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func (m *memStore) SaveInventory(ctx context.Context, inv domain.Inventory, isNew bool, event domain.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if isNew {
		if _, ok := m.inventory[inv.ProductID]; ok {
			return domain.ErrConcurrentModification
		}
	} else {
		cur, ok := m.inventory[inv.ProductID]
		if !ok || cur.Version != inv.Version {
			return domain.ErrConcurrentModification
		}
		inv.Version++
	}
	m.inventory[inv.ProductID] = inv
	m.events = append(m.events, event)
	return nil
}

func (m *memStore) CreateOrder(ctx context.Context, order *domain.Order, event domain.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createOrderErr != nil {
		return m.createOrderErr
	}

	// stage decrements so a mid-order failure leaves nothing applied
	staged := make(map[string]domain.Inventory, len(order.Items))
	for _, item := range order.Items {
		inv, ok := staged[item.ProductID]
		if !ok {
			inv, ok = m.inventory[item.ProductID]
			if !ok {
				return &domain.NotFoundError{Resource: "Inventory", Field: "productId", Value: item.ProductID}
			}
		}
		if inv.Quantity < item.Quantity {
			return &domain.InsufficientStockError{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: inv.Quantity,
			}
		}
		inv.Quantity -= item.Quantity
		inv.Version++
		staged[item.ProductID] = inv
	}
	for id, inv := range staged {
		m.inventory[id] = inv
	}

	m.orders[order.ID] = *order
	m.events = append(m.events, event)
	return nil
}

func (m *memStore) ListUnprocessed(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.OutboxEvent
	for _, ev := range m.events {
		if !ev.Processed {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) MarkProcessed(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.markErr[id]; err != nil {
		return err
	}
	for i := range m.events {
		if m.events[i].ID == id {
			m.events[i].MarkProcessed()
			return nil
		}
	}
	return &domain.NotFoundError{Resource: "OutboxEvent", Field: "id", Value: id}
}

func (m *memStore) eventsFor(aggregateType string) []domain.OutboxEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.OutboxEvent
	for _, ev := range m.events {
		if ev.AggregateType == aggregateType {
			out = append(out, ev)
		}
	}
	return out
}

type mockCacheRepo struct {
	mu             sync.Mutex
	idempotencySet map[string]bool
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{idempotencySet: make(map[string]bool)}
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

type publishedMessage struct {
	topic   string
	key     string
	payload []byte
}

type mockPublisher struct {
	mu        sync.Mutex
	published []publishedMessage
	failKeys  map[string]bool
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{failKeys: make(map[string]bool)}
}

func (m *mockPublisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failKeys[key] {
		return errors.New("broker unavailable")
	}
	m.published = append(m.published, publishedMessage{topic: topic, key: key, payload: payload})
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) messages() []publishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]publishedMessage(nil), m.published...)
}

var errInjected = fmt.Errorf("injected failure")
