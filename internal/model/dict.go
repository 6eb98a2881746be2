package model

// DictType names a dictionary, e.g. "sys_user_sex".
type DictType struct {
	TenantBase

	Name string `gorm:"size:100" json:"name"`
	Type string `gorm:"size:100;index" json:"type"`
}

func (DictType) TableName() string {
	return "sys_dict_type"
}

// DictData is one labeled value of a dictionary type.
type DictData struct {
	TenantBase

	DictType string `gorm:"size:100;index" json:"dictType"`
	Label    string `gorm:"size:100" json:"label"`
	Value    string `gorm:"size:100" json:"value"`
	Sort     int    `json:"sort"`
}

func (DictData) TableName() string {
	return "sys_dict_data"
}
