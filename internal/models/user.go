package models

// UserRole defines the role of a user within the platform.
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// User represents a member of the platform.
// Credits holds the denormalized running balance; it must only ever be
// mutated together with a LedgerEntry insert (see the credits service).
type User struct {
	BaseModel
	Username     string   `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	PasswordHash string   `gorm:"type:varchar(255);not null" json:"-"`
	Email        *string  `gorm:"type:varchar(100);uniqueIndex" json:"email,omitempty"`
	FullName     string   `gorm:"type:varchar(100)" json:"fullName,omitempty"`
	AvatarURL    string   `gorm:"type:varchar(255)" json:"avatarUrl,omitempty"`
	Bio          string   `gorm:"type:text" json:"bio,omitempty"`
	Credits      int64    `gorm:"not null;default:0" json:"credits"`
	Role         UserRole `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	Banned       bool     `gorm:"not null;default:false" json:"banned"`
}

// UserBasicInfo holds minimal public information about a user.
// Used for scenarios like displaying the sender of a friend request.
type UserBasicInfo struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Credits   int64  `json:"credits"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}
