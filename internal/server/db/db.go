package db

import (
	"context"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lyfdddd/ryadmin/internal/model"
	"github.com/lyfdddd/ryadmin/internal/tenant"
)

// NewDB opens the database, migrates the schema, and installs the tenant
// scoping plugin.
func NewDB(cfg Config, tenantCfg tenant.Config) *gorm.DB {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if cfg.Debug {
		gormCfg.Logger = logger.Default.LogMode(logger.Info)
	}

	var dialector gorm.Dialector

	switch cfg.Dialect {
	case "mysql", "tidb":
		dialector = mysql.Open(cfg.DSN)
	case "postgres", "pgx", "pg", "postgresql":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite3", "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		panic(fmt.Errorf("invalid dialect: %s", cfg.Dialect))
	}

	gdb, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		panic(err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		panic(err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	if err := gdb.Use(NewTenantPlugin(tenantCfg)); err != nil {
		panic(err)
	}

	err = gdb.AutoMigrate(
		&model.Tenant{},
		&model.User{},
		&model.Role{},
		&model.Dept{},
		&model.Category{},
		&model.Menu{},
		&model.DictType{},
		&model.DictData{},
	)
	if err != nil {
		panic(err)
	}

	return gdb
}

// txKey carries an open transaction on the context so nested service calls
// join it.
type txKey struct{}

// NewTxContext stores a transaction handle in the context.
func NewTxContext(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext retrieves the transaction handle from the context, if any.
func TxFromContext(ctx context.Context) *gorm.DB {
	tx, _ := ctx.Value(txKey{}).(*gorm.DB)
	return tx
}
