package models

import "encoding/json"

// TestbankVisibility controls who can see a testbank.
type TestbankVisibility string

const (
	TestbankPrivate TestbankVisibility = "private"
	TestbankPublic  TestbankVisibility = "public"
)

// GenerationMethod records how a testbank's questions were produced.
type GenerationMethod string

const (
	GenerationManual GenerationMethod = "manual"
	GenerationAI     GenerationMethod = "ai"
)

// Testbank is a question bank owned by a user.
type Testbank struct {
	BaseModel
	OwnerID          uint               `gorm:"index;not null" json:"ownerId"`
	Title            string             `gorm:"type:varchar(200);not null" json:"title"`
	Description      string             `gorm:"type:text" json:"description,omitempty"`
	Visibility       TestbankVisibility `gorm:"type:varchar(20);not null;default:'private'" json:"visibility"`
	GenerationMethod GenerationMethod   `gorm:"type:varchar(20);not null;default:'manual'" json:"generationMethod"`
	ReviewStatus     string             `gorm:"type:varchar(30);not null;default:'not_reviewed'" json:"reviewStatus"`

	Owner     User       `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Questions []Question `gorm:"foreignKey:TestbankID" json:"questions,omitempty"`
}

// TableName specifies the table name for the Testbank model.
func (Testbank) TableName() string {
	return "testbanks"
}

// QuestionAuthorType records whether a question was written by a person or generated.
type QuestionAuthorType string

const (
	QuestionAuthorManual QuestionAuthorType = "manual"
	QuestionAuthorAI     QuestionAuthorType = "ai"
)

// Question is a single multiple-choice question in a testbank.
// Options and Keywords are stored as JSON arrays.
type Question struct {
	BaseModel
	TestbankID uint               `gorm:"index;not null" json:"testbankId"`
	AuthorType QuestionAuthorType `gorm:"type:varchar(20);not null;default:'manual'" json:"authorType"`
	Type       string             `gorm:"type:varchar(20);not null;default:'mcq'" json:"type"`
	Topic      string             `gorm:"type:varchar(200)" json:"topic,omitempty"`
	Content    string             `gorm:"type:text;not null" json:"content"`
	Options    json.RawMessage    `gorm:"type:jsonb" json:"options"`
	Answer     string             `gorm:"type:varchar(10);not null" json:"answer"`
	Difficulty string             `gorm:"type:varchar(20);not null;default:'medium'" json:"difficulty"`
	Keywords   json.RawMessage    `gorm:"type:jsonb" json:"keywords,omitempty"`
}

// TableName specifies the table name for the Question model.
func (Question) TableName() string {
	return "questions"
}

// SetOptions marshals the given options into the Options column.
func (q *Question) SetOptions(options []string) error {
	data, err := json.Marshal(options)
	if err != nil {
		return err
	}
	q.Options = data
	return nil
}

// GetOptions unmarshals the Options column.
func (q *Question) GetOptions() ([]string, error) {
	if q.Options == nil {
		return nil, nil
	}
	var options []string
	if err := json.Unmarshal(q.Options, &options); err != nil {
		return nil, err
	}
	return options, nil
}
