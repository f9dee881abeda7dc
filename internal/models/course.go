package models

import "encoding/json"

// Course is a catalog entry that testbanks and challenges can reference.
type Course struct {
	BaseModel
	Code     string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"code"`
	Title    string          `gorm:"type:varchar(200);not null" json:"title"`
	Major    string          `gorm:"type:varchar(100)" json:"major,omitempty"`
	Subject  string          `gorm:"type:varchar(100)" json:"subject,omitempty"`
	Keywords json.RawMessage `gorm:"type:jsonb" json:"keywords,omitempty"`
}

// TableName specifies the table name for the Course model.
func (Course) TableName() string {
	return "courses"
}
