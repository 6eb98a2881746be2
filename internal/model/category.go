package model

// Category groups workflow definitions into a tree. Unlike departments,
// categories carry no enabled/disabled status, so inserts under any parent
// are allowed.
type Category struct {
	TenantBase

	ParentID  int64  `gorm:"index" json:"parentId"`
	Ancestors string `gorm:"size:500" json:"ancestors"`
	Name      string `gorm:"size:64" json:"name"`
	OrderNum  int    `json:"orderNum"`
}

func (Category) TableName() string {
	return "flow_category"
}

func (c Category) NodeID() int64 { return c.ID }
func (c Category) NodeParentID() int64 { return c.ParentID }
func (c Category) NodeAncestors() string { return c.Ancestors }
