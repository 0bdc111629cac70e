package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gearhub/internal/common"
	"github.com/dmitrijs2005/gearhub/internal/dbx"
	"github.com/dmitrijs2005/gearhub/internal/logging"
	"github.com/dmitrijs2005/gearhub/internal/server/config"
	"github.com/dmitrijs2005/gearhub/internal/server/models"
	"github.com/dmitrijs2005/gearhub/internal/server/repositories/equipment"
	"github.com/dmitrijs2005/gearhub/internal/server/repositories/orders"
	"github.com/dmitrijs2005/gearhub/internal/server/repositories/payments"
	"github.com/dmitrijs2005/gearhub/internal/server/repositories/users"
)

// store is an in-memory stand-in for the database shared by the fake
// repositories. Its guards mirror the conditional SQL of the real ones.
type store struct {
	mu        sync.Mutex
	seq       int
	users     map[string]*models.User
	equipment map[string]*models.Equipment
	orders    map[string]*models.Order
	payments  map[string]*models.Payment // by order id

	failWith error
}

func newStore() *store {
	return &store{
		users:     map[string]*models.User{},
		equipment: map[string]*models.Equipment{},
		orders:    map[string]*models.Order{},
		payments:  map[string]*models.Payment{},
	}
}

func (s *store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s%d", prefix, s.seq)
}

type fakeRepoManager struct{ s *store }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error  { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository             { return &fakeUsers{m.s} }
func (m *fakeRepoManager) Equipment(dbx.DBTX) equipment.Repository     { return &fakeEquipment{m.s} }
func (m *fakeRepoManager) Orders(dbx.DBTX) orders.Repository           { return &fakeOrders{m.s} }
func (m *fakeRepoManager) Payments(dbx.DBTX) payments.Repository       { return &fakePayments{m.s} }

type fakeUsers struct{ s *store }

func (f *fakeUsers) Upsert(_ context.Context, email string, profile models.Document) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failWith != nil {
		return nil, f.s.failWith
	}
	u, ok := f.s.users[email]
	if !ok {
		u = &models.User{ID: f.s.nextID("u"), Email: email, Role: models.RoleUser, Profile: models.Document{}, CreatedAt: time.Now()}
		f.s.users[email] = u
	}
	for k, v := range profile {
		u.Profile[k] = v
	}
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, email string, profile models.Document) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	for k, v := range profile {
		u.Profile[k] = v
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) SetRole(_ context.Context, email string, role string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.Role = role
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failWith != nil {
		return nil, f.s.failWith
	}
	u, ok := f.s.users[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) List(context.Context) ([]*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.User
	for _, u := range f.s.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

type fakeEquipment struct{ s *store }

func (f *fakeEquipment) Create(_ context.Context, item *models.Equipment) (*models.Equipment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	item.ID = f.s.nextID("e")
	cp := *item
	f.s.equipment[item.ID] = &cp
	return item, nil
}

func (f *fakeEquipment) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.equipment[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.s.equipment, id)
	return nil
}

func (f *fakeEquipment) GetByID(_ context.Context, id string) (*models.Equipment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failWith != nil {
		return nil, f.s.failWith
	}
	e, ok := f.s.equipment[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEquipment) List(context.Context) ([]*models.Equipment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.Equipment
	for _, e := range f.s.equipment {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeEquipment) AdjustQuantity(_ context.Context, id string, delta int64) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failWith != nil {
		return 0, f.s.failWith
	}
	e, ok := f.s.equipment[id]
	if !ok {
		return 0, common.ErrorNotFound
	}
	if e.AvailableQuantity+delta < 0 {
		return e.AvailableQuantity, common.ErrInsufficientStock
	}
	e.AvailableQuantity += delta
	return e.AvailableQuantity, nil
}

func (f *fakeEquipment) SetImage(_ context.Context, id string, key string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	e, ok := f.s.equipment[id]
	if !ok {
		return common.ErrorNotFound
	}
	e.Image = key
	return nil
}

type fakeOrders struct{ s *store }

func (f *fakeOrders) Create(_ context.Context, o *models.Order) (*models.Order, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if o.ID == "" {
		o.ID = f.s.nextID("o")
	}
	cp := *o
	f.s.orders[o.ID] = &cp
	return o, nil
}

func (f *fakeOrders) GetByID(_ context.Context, id string) (*models.Order, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failWith != nil {
		return nil, f.s.failWith
	}
	o, ok := f.s.orders[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) GetByIDForUpdate(ctx context.Context, id string) (*models.Order, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeOrders) ListByEmail(_ context.Context, email string) ([]*models.Order, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.Order
	for _, o := range f.s.orders {
		if o.Email == email {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeOrders) List(context.Context) ([]*models.Order, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.Order
	for _, o := range f.s.orders {
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeOrders) rejected(id string) error {
	if _, ok := f.s.orders[id]; !ok {
		return common.ErrorNotFound
	}
	return common.ErrAlreadySettled
}

func (f *fakeOrders) UpdateUnpaid(_ context.Context, o *models.Order) (*models.Order, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cur, ok := f.s.orders[o.ID]
	if !ok || cur.Paid {
		return nil, f.rejected(o.ID)
	}
	merged := models.Document{}
	for k, v := range cur.Details {
		merged[k] = v
	}
	for k, v := range o.Details {
		merged[k] = v
	}
	cur.Quantity, cur.Details, cur.Total = o.Quantity, merged, o.Total
	cp := *cur
	return &cp, nil
}

func (f *fakeOrders) MarkPaid(_ context.Context, id string, paymentID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cur, ok := f.s.orders[id]
	if !ok || cur.Paid {
		return f.rejected(id)
	}
	cur.Paid = true
	cur.PaymentID = &paymentID
	return nil
}

func (f *fakeOrders) DeleteUnpaid(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cur, ok := f.s.orders[id]
	if !ok || cur.Paid {
		return f.rejected(id)
	}
	if _, ok := f.s.payments[id]; ok {
		return common.ErrAlreadySettled
	}
	delete(f.s.orders, id)
	return nil
}

type fakePayments struct{ s *store }

func (f *fakePayments) Create(_ context.Context, p *models.Payment) (*models.Payment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.payments[p.OrderID]; ok {
		return nil, common.ErrAlreadySettled
	}
	for _, existing := range f.s.payments {
		if existing.TransactionID == p.TransactionID {
			return nil, common.ErrAlreadySettled
		}
	}
	p.ID = f.s.nextID("p")
	cp := *p
	f.s.payments[p.OrderID] = &cp
	return p, nil
}

func (f *fakePayments) GetByOrderID(_ context.Context, orderID string) (*models.Payment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failWith != nil {
		return nil, f.s.failWith
	}
	p, ok := f.s.payments[orderID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePayments) ListOrphaned(context.Context) ([]*models.Payment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.Payment
	for orderID, p := range f.s.payments {
		if o, ok := f.s.orders[orderID]; ok && !o.Paid {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "k"
	return cfg
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

var nopLogger logging.Logger = logging.Nop{}
