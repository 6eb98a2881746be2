package model

// DataScope enumerates which department rows a role may see.
type DataScope string

const (
	// DataScopeAll grants unrestricted access, no predicate is applied.
	DataScopeAll DataScope = "all"
	// DataScopeCustom grants exactly the departments attached to the role.
	DataScopeCustom DataScope = "custom"
	// DataScopeDept grants the holder's own department.
	DataScopeDept DataScope = "dept"
	// DataScopeDeptChild grants the holder's department and its subtree.
	DataScopeDeptChild DataScope = "dept_and_child"
	// DataScopeSelf restricts to rows owned by the holder.
	DataScopeSelf DataScope = "self"
)

// Role groups permissions and a data scope configuration.
type Role struct {
	TenantBase

	Name      string    `gorm:"size:64" json:"name"`
	Key       string    `gorm:"size:64;index" json:"key"`
	DataScope DataScope `gorm:"size:20;default:self" json:"dataScope"`
	Status    Status    `gorm:"size:20;default:enabled" json:"status"`
	OrderNum  int       `json:"orderNum"`

	// Depts holds the explicit grant set, used only when DataScope is custom.
	Depts []Dept `gorm:"many2many:sys_role_dept;" json:"depts,omitempty"`
	Menus []Menu `gorm:"many2many:sys_role_menu;" json:"menus,omitempty"`
}

func (Role) TableName() string {
	return "sys_role"
}
