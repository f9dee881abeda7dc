package models

// Friendship represents an established, symmetric friendship between two users.
// To avoid duplicates and simplify queries, UserID1 is always less than UserID2.
type Friendship struct {
	BaseModel
	UserID1 uint `gorm:"not null;uniqueIndex:idx_friendship_users" json:"userId1"`
	User1   User `gorm:"foreignKey:UserID1" json:"-"`
	UserID2 uint `gorm:"not null;uniqueIndex:idx_friendship_users" json:"userId2"`
	User2   User `gorm:"foreignKey:UserID2" json:"-"`
}

// EnsureCanonicalOrder sets UserID1 to the smaller ID and UserID2 to the larger ID.
// This must be called before creating a Friendship record.
func (f *Friendship) EnsureCanonicalOrder() {
	if f.UserID1 > f.UserID2 {
		f.UserID1, f.UserID2 = f.UserID2, f.UserID1
	}
}

// TableName specifies the table name for the Friendship model.
func (Friendship) TableName() string {
	return "friendships"
}
