package model

// Menu is a navigation entry carrying a permission string such as
// "system:user:list". Menus are global, not tenant scoped.
type Menu struct {
	Base

	ParentID int64  `gorm:"index" json:"parentId"`
	Name     string `gorm:"size:64" json:"name"`
	Perms    string `gorm:"size:128" json:"perms"`
	OrderNum int    `json:"orderNum"`
	Status   Status `gorm:"size:20;default:enabled" json:"status"`
	Visible  bool   `gorm:"default:true" json:"visible"`
}

func (Menu) TableName() string {
	return "sys_menu"
}
