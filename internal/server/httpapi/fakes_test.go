package httpapi

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gearhub/internal/common"
	"github.com/dmitrijs2005/gearhub/internal/server/models"
	"github.com/shopspring/decimal"
)

type fakeUsers struct {
	mu      sync.Mutex
	users   map[string]*models.User
	roleErr error
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{users: map[string]*models.User{}}
	for _, u := range users {
		f.users[u.Email] = u
	}
	return f
}

func (f *fakeUsers) UpsertProfile(_ context.Context, email string, profile models.Document) (*models.User, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(email)
	u, ok := f.users[email]
	if !ok {
		u = &models.User{ID: "u-" + email, Email: email, Role: models.RoleUser, Profile: models.Document{}}
		f.users[email] = u
	}
	for k, v := range profile {
		u.Profile[k] = v
	}
	return u, "token-for-" + email, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, email string, profile models.Document) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.Profile = profile
	return u, nil
}

func (f *fakeUsers) PromoteToAdmin(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.Role = models.RoleAdmin
	return u, nil
}

func (f *fakeUsers) IsAdmin(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.roleErr != nil {
		return false, f.roleErr
	}
	u, ok := f.users[email]
	if !ok {
		return false, common.ErrorNotFound
	}
	return u.IsAdmin(), nil
}

func (f *fakeUsers) Get(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsers) List(context.Context) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

type fakeInventory struct {
	items map[string]*models.Equipment
}

func (f *fakeInventory) Create(_ context.Context, item *models.Equipment) (*models.Equipment, error) {
	if item.Name == "" {
		return nil, common.ErrorValidation
	}
	item.ID = "eq-new"
	f.items[item.ID] = item
	return item, nil
}

func (f *fakeInventory) Delete(_ context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeInventory) Get(_ context.Context, id string) (*models.Equipment, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return item, nil
}

func (f *fakeInventory) ListAll(context.Context) ([]*models.Equipment, error) {
	out := make([]*models.Equipment, 0, len(f.items))
	for _, item := range f.items {
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeInventory) AdjustQuantity(_ context.Context, id string, delta int64) (int64, error) {
	item, ok := f.items[id]
	if !ok {
		return 0, common.ErrorNotFound
	}
	if item.AvailableQuantity+delta < 0 {
		return item.AvailableQuantity, common.ErrInsufficientStock
	}
	item.AvailableQuantity += delta
	return item.AvailableQuantity, nil
}

func (f *fakeInventory) Restock(ctx context.Context, id string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, common.ErrorValidation
	}
	return f.AdjustQuantity(ctx, id, amount)
}

func (f *fakeInventory) ImageUploadURL(_ context.Context, id string) (*models.ImageUploadTask, error) {
	if _, ok := f.items[id]; !ok {
		return nil, common.ErrorNotFound
	}
	return &models.ImageUploadTask{EquipmentID: id, StorageKey: "equipment/" + id, URL: "https://s3/put"}, nil
}

// fakeOrders keeps the ownership and settlement rules of the real ledger.
type fakeOrders struct {
	mu     sync.Mutex
	orders map[string]*models.Order
	admins map[string]bool
}

func (f *fakeOrders) visible(subject, id string) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if o.Email != subject && !f.admins[subject] {
		return nil, common.ErrorForbidden
	}
	return o, nil
}

func (f *fakeOrders) Create(_ context.Context, owner, equipmentID string, quantity int64, details models.Document) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if quantity <= 0 {
		return nil, common.ErrorValidation
	}
	o := &models.Order{ID: "o-new", Email: owner, EquipmentID: equipmentID, Quantity: quantity,
		Details: details, Total: decimal.NewFromInt(quantity)}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeOrders) GetByID(_ context.Context, subject, id string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visible(subject, id)
}

func (f *fakeOrders) ListByOwner(_ context.Context, email string) ([]*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Order
	for _, o := range f.orders {
		if o.Email == email {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) ListAll(context.Context) ([]*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeOrders) Update(_ context.Context, subject, id string, upd models.OrderUpdate) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, err := f.visible(subject, id)
	if err != nil {
		return nil, err
	}
	if o.Paid {
		return nil, common.ErrAlreadySettled
	}
	if upd.Quantity != nil {
		o.Quantity = *upd.Quantity
	}
	return o, nil
}

func (f *fakeOrders) Settle(_ context.Context, subject, id string, rec models.PaymentRecord) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, err := f.visible(subject, id)
	if err != nil {
		return nil, err
	}
	if rec.TransactionID == "" {
		return nil, common.ErrorValidation
	}
	if o.Paid {
		return nil, common.ErrAlreadySettled
	}
	tx := rec.TransactionID
	o.Paid, o.PaymentID = true, &tx
	return o, nil
}

func (f *fakeOrders) Cancel(_ context.Context, subject, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, err := f.visible(subject, id)
	if err != nil {
		return err
	}
	if o.Paid {
		return common.ErrAlreadySettled
	}
	delete(f.orders, id)
	return nil
}

type fakePayments struct {
	err error
}

func (f *fakePayments) CreateIntent(_ context.Context, price decimal.Decimal, currency string) (*models.PaymentIntent, error) {
	if f.err != nil {
		return nil, f.err
	}
	if !price.IsPositive() {
		return nil, common.ErrorValidation
	}
	if currency == "" {
		currency = "usd"
	}
	return &models.PaymentIntent{
		IntentID:     "pi_1",
		ClientSecret: "pi_1_secret",
		Amount:       price.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
		Currency:     currency,
	}, nil
}

type fakePinger struct {
	err error
}

func (f fakePinger) PingContext(context.Context) error { return f.err }

var errBoom = errors.New("boom")
