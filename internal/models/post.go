package models

// Post is a feed entry authored by a user.
type Post struct {
	BaseModel
	UserID   uint   `gorm:"index;not null" json:"userId"`
	Content  string `gorm:"type:text;not null" json:"content"`
	ImageURL string `gorm:"type:varchar(255)" json:"imageUrl,omitempty"`

	User     User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Comments []Comment `gorm:"foreignKey:PostID" json:"comments,omitempty"`
}

// TableName specifies the table name for the Post model.
func (Post) TableName() string {
	return "posts"
}

// PostUpvote marks that a user upvoted a post. The composite primary key
// makes a second upvote from the same user a conflict rather than a new row.
type PostUpvote struct {
	PostID uint `gorm:"primaryKey;autoIncrement:false" json:"postId"`
	UserID uint `gorm:"primaryKey;autoIncrement:false" json:"userId"`
}

// TableName specifies the table name for the PostUpvote model.
func (PostUpvote) TableName() string {
	return "post_upvotes"
}

// Comment is a reply to a post.
type Comment struct {
	BaseModel
	PostID  uint   `gorm:"index;not null" json:"postId"`
	UserID  uint   `gorm:"index;not null" json:"userId"`
	Content string `gorm:"type:text;not null" json:"content"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for the Comment model.
func (Comment) TableName() string {
	return "comments"
}
