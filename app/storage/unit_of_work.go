package storage

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UnitOfWork is the request-scoped database session. Everything resolved in
// one scope shares the same UnitOfWork, so the controller and its
// repositories see one consistent session, tagged with an ID that doubles
// as the request ID in logs.
type UnitOfWork struct {
	// ID uniquely identifies the scope this unit of work belongs to.
	ID string

	db       *gorm.DB
	disposed bool
}

// NewUnitOfWork derives a fresh session from the shared Store.
// Registered as scoped; EndScope disposes it.
func NewUnitOfWork(store *Store) *UnitOfWork {
	return &UnitOfWork{
		ID: uuid.NewString(),
		db: store.DB().Session(&gorm.Session{NewDB: true}),
	}
}

// Session returns the gorm handle bound to ctx, ready for queries.
func (u *UnitOfWork) Session(ctx context.Context) *gorm.DB {
	return u.db.WithContext(ctx)
}

// Disposed reports whether the scope that owned this unit of work has ended.
func (u *UnitOfWork) Disposed() bool { return u.disposed }

// Dispose marks the unit of work finished. gorm sessions hold no resources
// of their own, so this only flags late use; the pool belongs to Store.
func (u *UnitOfWork) Dispose() error {
	u.disposed = true
	return nil
}
