package models

// FriendRequestStatus defines the state of a friend request.
type FriendRequestStatus string

const (
	FriendRequestStatusPending  FriendRequestStatus = "pending"
	FriendRequestStatusAccepted FriendRequestStatus = "accepted"
	FriendRequestStatusDeclined FriendRequestStatus = "declined"
)

// FriendRequest represents a directed friend request between two users.
// At most one pending request may exist per unordered pair; the sender may
// cancel (delete) it while pending, only the receiver may accept or decline.
type FriendRequest struct {
	BaseModel
	SenderID   uint                `gorm:"not null;index:idx_friend_request_users" json:"senderId"`
	ReceiverID uint                `gorm:"not null;index:idx_friend_request_users" json:"receiverId"`
	Status     FriendRequestStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
}

// TableName specifies the table name for the FriendRequest model.
func (FriendRequest) TableName() string {
	return "friend_requests"
}

// FriendRequestWithSender is a DTO that includes friend request details
// along with basic information about the user who sent the request.
type FriendRequestWithSender struct {
	FriendRequest
	Sender *UserBasicInfo `json:"sender"`
}
