package models

import "time"

// Club is a study group owned by a user.
type Club struct {
	BaseModel
	Name        string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	OwnerID     uint   `gorm:"not null" json:"ownerId"`
	MemberCount int    `gorm:"default:0" json:"memberCount"`

	Owner   User         `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members []ClubMember `gorm:"foreignKey:ClubID" json:"members,omitempty"`
}

// TableName specifies the table name for the Club model.
func (Club) TableName() string {
	return "clubs"
}

// ClubMember links a user to a club.
type ClubMember struct {
	ClubID   uint      `gorm:"primaryKey;autoIncrement:false" json:"clubId"`
	UserID   uint      `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	JoinedAt time.Time `json:"joinedAt"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for the ClubMember model.
func (ClubMember) TableName() string {
	return "club_members"
}
