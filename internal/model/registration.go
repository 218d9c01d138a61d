package model

// Registration 选课登记表 — 对应 registrations
// 同一 owner 的登记之间占用格子互不相交（编辑时被替换的登记除外）
type Registration struct {
	RegistrationID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"registration_id"`
	OwnerID        string `gorm:"type:uuid;not null;uniqueIndex:uk_registration_owner_slot" json:"owner_id"`
	SlotID         string `gorm:"type:uuid;not null;uniqueIndex:uk_registration_owner_slot" json:"slot_id"`
	VersionedModel

	// 关联
	Slot *Slot `gorm:"foreignKey:SlotID;references:SlotID" json:"slot,omitempty"`
}

// TableName 指定表名
func (Registration) TableName() string { return "registrations" }
