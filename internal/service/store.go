// Package service implements the restaurant operations on top of the
// repository interfaces declared here.  The MySQL repositories satisfy
// them in production and internal/testutil provides an in-memory version.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/restaurant-orders/internal/model"
	"github.com/iliyamo/restaurant-orders/internal/queue"
	"github.com/iliyamo/restaurant-orders/internal/repository"
)

// TableStore is satisfied by *repository.TableRepo.
type TableStore interface {
	ListTables(ctx context.Context) ([]model.Table, error)
	GetTable(ctx context.Context, id uint64) (model.Table, error)
	CountTables(ctx context.Context) (int, error)
	ToggleTable(ctx context.Context, id uint64, audit func(model.Table) model.AuditEntry) (model.Table, error)
}

// MenuStore is satisfied by *repository.MenuRepo.
type MenuStore interface {
	ListMenuItems(ctx context.Context, onlyAvailable bool) ([]model.MenuItem, error)
	MenuItemsByIDs(ctx context.Context, ids []uint64) (map[uint64]model.MenuItem, error)
	CountMenuItems(ctx context.Context) (int, error)
	ToggleMenuItem(ctx context.Context, id uint64, audit func(model.MenuItem) model.AuditEntry) (model.MenuItem, error)
}

// OrderStore is satisfied by *repository.OrderRepo.
type OrderStore interface {
	PlaceOrder(ctx context.Context, p repository.PlaceOrderParams) (model.Order, error)
	TransitionOrder(ctx context.Context, id uint64, next model.OrderStatus,
		check func(current model.OrderStatus) error, audit model.AuditEntry) (model.Order, error)
	OrdersByStatus(ctx context.Context, statuses ...model.OrderStatus) ([]model.OrderDetail, error)
	OrdersCreatedBetween(ctx context.Context, from, to time.Time) ([]model.OrderDetail, error)
	CountOrdersCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
}

// UserStore is satisfied by *repository.UserRepo.
type UserStore interface {
	UserByUsername(ctx context.Context, username string) (model.User, error)
	UserByID(ctx context.Context, id uint64) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	CountUsers(ctx context.Context) (int, error)
	EnsureRole(ctx context.Context, userID uint64) (model.Role, error)
	SetUserRole(ctx context.Context, userID uint64, role model.Role, audit model.AuditEntry) error
	RegisterWithPIN(ctx context.Context, p repository.RegisterParams) (model.User, error)
}

// PINStore is satisfied by *repository.PINRepo.
type PINStore interface {
	CreatePIN(ctx context.Context, pin model.RegistrationPIN, audit model.AuditEntry) (model.RegistrationPIN, error)
	ListPINs(ctx context.Context) ([]model.RegistrationPIN, error)
}

// TokenStore is satisfied by *repository.TokenRepo.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (uint64, error)
	RevokeRefresh(ctx context.Context, tokenHash string, now time.Time) error
}

// AuditStore is satisfied by *repository.AuditRepo.
type AuditStore interface {
	ListAudit(ctx context.Context, limit int) ([]model.AuditEntry, error)
}

// EventPublisher is satisfied by *queue.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.OrderEvent) error
}

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID       uint64
	Username string
	Role     model.Role
}

func (a Actor) audit(action, details string, at time.Time) model.AuditEntry {
	return model.AuditEntry{UserID: a.ID, Action: action, Details: details, Timestamp: at}
}

func nowOr(f func() time.Time) time.Time {
	if f == nil {
		return time.Now()
	}
	return f()
}
