package models

// Notification is an inbox entry for a user.
type Notification struct {
	BaseModel
	UserID  uint   `gorm:"index;not null" json:"userId"`
	Content string `gorm:"type:text;not null" json:"content"`
	Link    string `gorm:"type:varchar(255)" json:"link,omitempty"`
	IsRead  bool   `gorm:"not null;default:false" json:"isRead"`
}

// TableName specifies the table name for the Notification model.
func (Notification) TableName() string {
	return "notifications"
}
