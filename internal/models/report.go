package models

// ReportStatus defines the state of a moderation report.
type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusResolved  ReportStatus = "resolved"
	ReportStatusDismissed ReportStatus = "dismissed"
)

// ReportTargetType names the kind of content a report is about.
type ReportTargetType string

const (
	ReportTargetPost     ReportTargetType = "post"
	ReportTargetComment  ReportTargetType = "comment"
	ReportTargetTestbank ReportTargetType = "testbank"
	ReportTargetUser     ReportTargetType = "user"
	ReportTargetMessage  ReportTargetType = "message"
)

// Report is a user-submitted moderation report. Once resolved or dismissed
// it is terminal; there is no reopening path.
type Report struct {
	BaseModel
	ReporterID uint             `gorm:"index;not null" json:"reporterId"`
	TargetType ReportTargetType `gorm:"type:varchar(20);not null" json:"targetType"`
	TargetID   uint             `gorm:"not null" json:"targetId"`
	Reason     string           `gorm:"type:text;not null" json:"reason"`
	Status     ReportStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ResolvedBy *uint            `json:"resolvedBy,omitempty"`

	Reporter User `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
}

// TableName specifies the table name for the Report model.
func (Report) TableName() string {
	return "reports"
}
