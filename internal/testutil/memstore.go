// Package testutil provides in-memory stand-ins for the MySQL repositories,
// the event publisher and the clock, for use in tests of the service and
// handler packages.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-orders/internal/model"
	"github.com/iliyamo/restaurant-orders/internal/repository"
)

type memToken struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

// MemStore keeps every table of the schema in memory.  Each mutating call
// either applies all of its changes or none, like the SQL transactions it
// replaces.  A non-nil FailWrites makes every mutating call return it
// without changing anything.
type MemStore struct {
	mu sync.Mutex

	FailWrites error

	nextID  uint64
	tables  map[uint64]model.Table
	menu    map[uint64]model.MenuItem
	orders  map[uint64]model.Order
	items   []model.OrderItem
	users   map[uint64]model.User
	pins    []model.RegistrationPIN
	tokens  map[string]memToken
	audit   []model.AuditEntry
	created []uint64 // order ids in insertion order
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		tables: map[uint64]model.Table{},
		menu:   map[uint64]model.MenuItem{},
		orders: map[uint64]model.Order{},
		users:  map[uint64]model.User{},
		tokens: map[string]memToken{},
	}
}

func (m *MemStore) id() uint64 {
	m.nextID++
	return m.nextID
}

// AddTable seeds a table.
func (m *MemStore) AddTable(number int, available bool) model.Table {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := model.Table{ID: m.id(), Number: number, Capacity: 4, IsAvailable: available}
	m.tables[t.ID] = t
	return t
}

// AddMenuItem seeds a menu item priced at price, e.g. "12.50".
func (m *MemStore) AddMenuItem(name, price string, available bool) model.MenuItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	it := model.MenuItem{ID: m.id(), Name: name, Price: decimal.RequireFromString(price), Available: available}
	m.menu[it.ID] = it
	return it
}

// AddUser seeds a user.  An empty role leaves the user without a role
// record.
func (m *MemStore) AddUser(username, passwordHash string, role model.Role, superuser bool) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := model.User{ID: m.id(), Username: username, PasswordHash: passwordHash, Role: role, IsSuperuser: superuser}
	m.users[u.ID] = u
	return u
}

// AddPIN seeds a registration PIN with uses already consumed.
func (m *MemStore) AddPIN(code, role string, uses int, createdBy uint64) model.RegistrationPIN {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := model.RegistrationPIN{ID: m.id(), Code: code, Role: role, Uses: uses, CreatedBy: createdBy}
	m.pins = append(m.pins, p)
	return p
}

// AuditEntries returns a copy of the audit log in insertion order.
func (m *MemStore) AuditEntries() []model.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.AuditEntry(nil), m.audit...)
}

// Orders returns every order in insertion order.
func (m *MemStore) Orders() []model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Order, 0, len(m.created))
	for _, id := range m.created {
		out = append(out, m.orders[id])
	}
	return out
}

// ItemsOf returns the lines of an order.
func (m *MemStore) ItemsOf(orderID uint64) []model.OrderItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.OrderItem
	for _, it := range m.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out
}

// PIN returns the PIN with code.
func (m *MemStore) PIN(code string) (model.RegistrationPIN, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.pins {
		if p.Code == code {
			return p, true
		}
	}
	return model.RegistrationPIN{}, false
}

// SetOrderCreatedAt rewrites the creation time of an order.
func (m *MemStore) SetOrderCreatedAt(id uint64, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.orders[id]
	o.CreatedAt = at
	m.orders[id] = o
}

// ---- TableStore ----

func (m *MemStore) ListTables(ctx context.Context) ([]model.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Table, 0, len(m.tables))
	for _, t := range m.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (m *MemStore) GetTable(ctx context.Context, id uint64) (model.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[id]
	if !ok {
		return model.Table{}, repository.ErrTableNotFound
	}
	return t, nil
}

func (m *MemStore) CountTables(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tables), nil
}

func (m *MemStore) ToggleTable(ctx context.Context, id uint64, audit func(model.Table) model.AuditEntry) (model.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return model.Table{}, m.FailWrites
	}
	t, ok := m.tables[id]
	if !ok {
		return model.Table{}, repository.ErrTableNotFound
	}
	t.IsAvailable = !t.IsAvailable
	m.tables[id] = t
	m.appendAudit(audit(t))
	return t, nil
}

// ---- MenuStore ----

func (m *MemStore) ListMenuItems(ctx context.Context, onlyAvailable bool) ([]model.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.MenuItem
	for _, it := range m.menu {
		if onlyAvailable && !it.Available {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemStore) MenuItemsByIDs(ctx context.Context, ids []uint64) (map[uint64]model.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[uint64]model.MenuItem{}
	for _, id := range ids {
		if it, ok := m.menu[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

func (m *MemStore) CountMenuItems(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.menu), nil
}

func (m *MemStore) ToggleMenuItem(ctx context.Context, id uint64, audit func(model.MenuItem) model.AuditEntry) (model.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return model.MenuItem{}, m.FailWrites
	}
	it, ok := m.menu[id]
	if !ok {
		return model.MenuItem{}, repository.ErrMenuItemNotFound
	}
	it.Available = !it.Available
	m.menu[id] = it
	m.appendAudit(audit(it))
	return it, nil
}

// ---- OrderStore ----

func (m *MemStore) PlaceOrder(ctx context.Context, p repository.PlaceOrderParams) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return model.Order{}, m.FailWrites
	}
	t, ok := m.tables[p.TableID]
	if !ok {
		return model.Order{}, repository.ErrTableNotFound
	}
	for _, it := range p.Items {
		if _, ok := m.menu[it.MenuItemID]; !ok {
			return model.Order{}, repository.ErrMenuItemNotFound
		}
	}
	o := model.Order{
		ID:        m.id(),
		TableID:   p.TableID,
		WaiterID:  p.WaiterID,
		Status:    model.StatusUnclaimed,
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt,
	}
	m.orders[o.ID] = o
	m.created = append(m.created, o.ID)
	for _, it := range p.Items {
		it.ID = m.id()
		it.OrderID = o.ID
		m.items = append(m.items, it)
	}
	t.IsAvailable = false
	m.tables[t.ID] = t
	m.appendAudit(p.Audit(o, t))
	return o, nil
}

func (m *MemStore) TransitionOrder(ctx context.Context, id uint64, next model.OrderStatus,
	check func(current model.OrderStatus) error, audit model.AuditEntry) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return model.Order{}, m.FailWrites
	}
	o, ok := m.orders[id]
	if !ok {
		return model.Order{}, repository.ErrOrderNotFound
	}
	if check != nil {
		if err := check(o.Status); err != nil {
			return model.Order{}, err
		}
	}
	o.Status = next
	m.orders[id] = o
	m.appendAudit(audit)
	return o, nil
}

func (m *MemStore) OrdersByStatus(ctx context.Context, statuses ...model.OrderStatus) ([]model.OrderDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := map[model.OrderStatus]bool{}
	for _, s := range statuses {
		want[s] = true
	}
	return m.details(func(o model.Order) bool { return want[o.Status] }), nil
}

func (m *MemStore) OrdersCreatedBetween(ctx context.Context, from, to time.Time) ([]model.OrderDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.details(func(o model.Order) bool {
		return !o.CreatedAt.Before(from) && o.CreatedAt.Before(to)
	}), nil
}

func (m *MemStore) CountOrdersCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	d, _ := m.OrdersCreatedBetween(ctx, from, to)
	return len(d), nil
}

func (m *MemStore) details(keep func(model.Order) bool) []model.OrderDetail {
	out := []model.OrderDetail{}
	for _, id := range m.created {
		o := m.orders[id]
		if !keep(o) {
			continue
		}
		d := model.OrderDetail{Order: o, TableNumber: m.tables[o.TableID].Number, WaiterUsername: m.users[o.WaiterID].Username}
		for _, it := range m.items {
			if it.OrderID == o.ID {
				mi := m.menu[it.MenuItemID]
				d.Lines = append(d.Lines, model.OrderLine{OrderItem: it, MenuItemName: mi.Name, UnitPrice: mi.Price})
			}
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// ---- UserStore ----

func (m *MemStore) UserByUsername(ctx context.Context, username string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (m *MemStore) UserByID(ctx context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (m *MemStore) ListUsers(ctx context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *MemStore) CountUsers(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

func (m *MemStore) EnsureRole(ctx context.Context, userID uint64) (model.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return "", repository.ErrUserNotFound
	}
	if u.Role == "" {
		u.Role = model.DefaultRole
		m.users[userID] = u
	}
	return u.Role, nil
}

func (m *MemStore) SetUserRole(ctx context.Context, userID uint64, role model.Role, audit model.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Role = role
	m.users[userID] = u
	m.appendAudit(audit)
	return nil
}

func (m *MemStore) RegisterWithPIN(ctx context.Context, p repository.RegisterParams) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return model.User{}, m.FailWrites
	}
	idx := -1
	for i, pin := range m.pins {
		if pin.Code == p.PIN && pin.Uses < model.MaxPINUses {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.User{}, repository.ErrPINNotFound
	}
	name := strings.TrimSpace(p.Username)
	for _, u := range m.users {
		if u.Username == name {
			return model.User{}, repository.ErrUserExists
		}
	}
	u := model.User{
		ID:           m.id(),
		Username:     name,
		PasswordHash: p.PasswordHash,
		Role:         model.RoleOrDefault(m.pins[idx].Role),
		CreatedAt:    p.CreatedAt,
	}
	m.users[u.ID] = u
	m.pins[idx].Uses++
	m.appendAudit(p.Audit(u))
	return u, nil
}

// ---- PINStore ----

func (m *MemStore) CreatePIN(ctx context.Context, pin model.RegistrationPIN, audit model.AuditEntry) (model.RegistrationPIN, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return model.RegistrationPIN{}, m.FailWrites
	}
	for _, p := range m.pins {
		if p.Code == pin.Code {
			return model.RegistrationPIN{}, repository.ErrPINCollision
		}
	}
	pin.ID = m.id()
	pin.Uses = 0
	m.pins = append(m.pins, pin)
	m.appendAudit(audit)
	return pin, nil
}

func (m *MemStore) ListPINs(ctx context.Context) ([]model.RegistrationPIN, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.RegistrationPIN, 0, len(m.pins))
	for i := len(m.pins) - 1; i >= 0; i-- {
		p := m.pins[i]
		p.CreatorUsername = m.users[p.CreatedBy].Username
		out = append(out, p)
	}
	return out, nil
}

// ---- TokenStore ----

func (m *MemStore) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[tokenHash] = memToken{userID: userID, exp: exp}
	return nil
}

func (m *MemStore) ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[tokenHash]
	if !ok || t.revoked || now.After(t.exp) {
		return 0, repository.ErrRefreshInvalid
	}
	return t.userID, nil
}

func (m *MemStore) RevokeRefresh(ctx context.Context, tokenHash string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[tokenHash]; ok {
		t.revoked = true
		m.tokens[tokenHash] = t
	}
	return nil
}

// ---- AuditStore ----

func (m *MemStore) ListAudit(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.AuditEntry
	for i := len(m.audit) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		e := m.audit[i]
		e.Username = m.users[e.UserID].Username
		out = append(out, e)
	}
	return out, nil
}

func (m *MemStore) appendAudit(e model.AuditEntry) {
	e.ID = m.id()
	m.audit = append(m.audit, e)
}
