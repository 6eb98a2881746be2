package biz

import (
	"context"

	"gorm.io/gorm"

	"github.com/lyfdddd/ryadmin/internal/server/db"
)

type AbstractService struct {
	db *gorm.DB
}

// dbFromContext returns the transaction bound to the context if one is
// open, otherwise the shared handle bound to the context.
func (a *AbstractService) dbFromContext(ctx context.Context) *gorm.DB {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx.WithContext(ctx)
	}

	return a.db.WithContext(ctx)
}

// RunInTransaction executes fn inside a transaction. Nested calls join the
// transaction already bound to the context.
func (a *AbstractService) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx := db.TxFromContext(ctx); tx != nil {
		return fn(ctx)
	}

	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(db.NewTxContext(ctx, tx))
	})
}
