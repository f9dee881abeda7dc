package models

import "time"

// Follow is a directed edge from one user to another.
// The composite primary key makes a duplicate edge a database-level conflict,
// so concurrent identical follow requests cannot create two rows.
type Follow struct {
	FollowerID  uint      `gorm:"primaryKey;autoIncrement:false" json:"followerId"`
	FollowingID uint      `gorm:"primaryKey;autoIncrement:false" json:"followingId"`
	CreatedAt   time.Time `json:"createdAt"`

	Follower  User `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Following User `gorm:"foreignKey:FollowingID" json:"following,omitempty"`
}

// TableName specifies the table name for the Follow model.
func (Follow) TableName() string {
	return "follows"
}
