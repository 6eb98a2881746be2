package model

// SuperadminRoleKey is the role key that short-circuits all scope and
// permission checks for its holders.
const SuperadminRoleKey = "superadmin"

// User is an account that can sign in to the admin backend.
type User struct {
	TenantBase

	DeptID   int64  `gorm:"index" json:"deptId"`
	Username string `gorm:"size:64;index" json:"username"`
	Nickname string `gorm:"size:64" json:"nickname"`
	Phone    string `gorm:"size:20;index" json:"phone"`
	Email    string `gorm:"size:128;index" json:"email"`
	OpenID   string `gorm:"size:128;index" json:"-"`
	Password string `gorm:"size:128" json:"-"`
	Status   Status `gorm:"size:20;default:enabled" json:"status"`

	Roles []Role `gorm:"many2many:sys_user_role;" json:"roles,omitempty"`
	Dept  *Dept  `gorm:"foreignKey:DeptID;references:ID" json:"dept,omitempty"`
}

func (User) TableName() string {
	return "sys_user"
}

// IsSuperuser reports whether any loaded role carries the superadmin key.
func (u *User) IsSuperuser() bool {
	for _, role := range u.Roles {
		if role.Key == SuperadminRoleKey {
			return true
		}
	}

	return false
}
