package models

// ChallengeStatus defines the state of a learning challenge.
type ChallengeStatus string

const (
	ChallengeStatusPending   ChallengeStatus = "pending"
	ChallengeStatusActive    ChallengeStatus = "active"
	ChallengeStatusCompleted ChallengeStatus = "completed"
	ChallengeStatusDeclined  ChallengeStatus = "declined"
)

// Challenge is a credit wager between two users over a course.
// Only the opponent may respond to a pending challenge. Completion and
// winner determination are not implemented yet; no scoring rule exists.
type Challenge struct {
	BaseModel
	ChallengerID uint            `gorm:"index;not null" json:"challengerId"`
	OpponentID   uint            `gorm:"index;not null" json:"opponentId"`
	CourseID     uint            `gorm:"not null" json:"courseId"`
	CreditPot    int64           `gorm:"not null" json:"creditPot"`
	Status       ChallengeStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	WinnerID     *uint           `json:"winnerId,omitempty"`

	Challenger User   `gorm:"foreignKey:ChallengerID" json:"challenger,omitempty"`
	Opponent   User   `gorm:"foreignKey:OpponentID" json:"opponent,omitempty"`
	Course     Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

// TableName specifies the table name for the Challenge model.
func (Challenge) TableName() string {
	return "challenges"
}
