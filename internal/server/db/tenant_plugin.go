package db

import (
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/lyfdddd/ryadmin/internal/tenant"
)

// tenantColumn is the isolation column stamped on scoped tables.
const tenantColumn = "tenant_id"

// TenantScoped marks entities isolated per tenant. model.TenantBase
// implements it; the plugin additionally falls back to schema inspection
// so scoping never depends on how the statement model was passed in.
type TenantScoped interface {
	GetTenantID() string
}

// TenantPlugin injects the `tenant_id = ?` predicate into every query,
// update, and delete against a scoped table, and stamps tenant_id on
// create. This is the query-layer half of the tenancy contract: the other
// half — which tenant applies — lives on the request context.
type TenantPlugin struct {
	cfg tenant.Config
}

func NewTenantPlugin(cfg tenant.Config) *TenantPlugin {
	return &TenantPlugin{cfg: cfg}
}

func (p *TenantPlugin) Name() string {
	return "tenant"
}

func (p *TenantPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Create().Before("gorm:create").Register("tenant:create", p.stampCreate); err != nil {
		return err
	}

	if err := db.Callback().Query().Before("gorm:query").Register("tenant:query", p.scopeStatement); err != nil {
		return err
	}

	if err := db.Callback().Update().Before("gorm:update").Register("tenant:update", p.scopeStatement); err != nil {
		return err
	}

	return db.Callback().Delete().Before("gorm:delete").Register("tenant:delete", p.scopeStatement)
}

// scopeStatement appends the tenant predicate unless tenancy is disabled,
// the scope is ignored, or the table carries no tenant column.
func (p *TenantPlugin) scopeStatement(tx *gorm.DB) {
	field := p.scopedField(tx)
	if field == nil {
		return
	}

	ctx := tx.Statement.Context

	if tenant.IsIgnored(ctx) {
		return
	}

	tenantID, ok := tenant.Current(ctx)
	if !ok {
		return
	}

	tx.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: clause.CurrentTable, Name: field.DBName},
				Value:  tenantID,
			},
		},
	})
}

// stampCreate fills the tenant column of inserted rows from the active
// scope, keeping any explicitly set value.
func (p *TenantPlugin) stampCreate(tx *gorm.DB) {
	field := p.scopedField(tx)
	if field == nil {
		return
	}

	ctx := tx.Statement.Context

	if tenant.IsIgnored(ctx) {
		return
	}

	tenantID, ok := tenant.Current(ctx)
	if !ok {
		return
	}

	switch rv := tx.Statement.ReflectValue; rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			p.stampValue(tx, field, rv.Index(i), tenantID)
		}
	case reflect.Struct:
		p.stampValue(tx, field, rv, tenantID)
	}
}

func (p *TenantPlugin) stampValue(tx *gorm.DB, field *schema.Field, rv reflect.Value, tenantID string) {
	if _, zero := field.ValueOf(tx.Statement.Context, rv); zero {
		_ = field.Set(tx.Statement.Context, rv, tenantID)
	}
}

var tenantScopedType = reflect.TypeOf((*TenantScoped)(nil)).Elem()

// scopedField returns the tenant column of the statement's table, or nil
// when the statement is not tenant scoped. Implementing TenantScoped is
// what opts a model in: sys_tenant itself carries a tenant_id column but
// is administered across tenants, so it does not implement the interface.
func (p *TenantPlugin) scopedField(tx *gorm.DB) *schema.Field {
	if !p.cfg.Enabled {
		return nil
	}

	if tx.Statement.Schema == nil {
		return nil
	}

	modelType := tx.Statement.Schema.ModelType
	if !modelType.Implements(tenantScopedType) && !reflect.PointerTo(modelType).Implements(tenantScopedType) {
		return nil
	}

	field := tx.Statement.Schema.LookUpField(tenantColumn)
	if field == nil || field.DBName != tenantColumn {
		return nil
	}

	return field
}
