package model

// Course 课程表 — 对应 courses（由目录导入方维护，本服务只读）
type Course struct {
	CourseID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	OwnerID   string `gorm:"type:uuid;not null;index"                       json:"owner_id"`
	Code      string `gorm:"type:varchar(20);not null"                      json:"code"`
	Name      string `gorm:"type:varchar(200);not null"                     json:"name"`
	Lecture   int    `gorm:"type:smallint;not null;default:0"               json:"lecture"`
	Tutorial  int    `gorm:"type:smallint;not null;default:0"               json:"tutorial"`
	Practical int    `gorm:"type:smallint;not null;default:0"               json:"practical"`
	Project   int    `gorm:"type:smallint;not null;default:0"               json:"project"`
	Credits   int    `gorm:"type:smallint;not null;default:0"               json:"credits"`
	Category  string `gorm:"type:varchar(50)"                               json:"category,omitempty"`
	BaseModel

	// 关联
	Slots []Slot `gorm:"foreignKey:CourseID;references:CourseID" json:"slots,omitempty"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }
