package models

// Ledger reason codes. Every credits-affecting event records one of these so
// the ledger stays auditable.
const (
	ReasonSignupBonus          = "SIGNUP_BONUS"           // one-time credit on registration
	ReasonAITestbankGeneration = "AI_TESTBANK_GENERATION" // award after a successful AI generation
	ReasonAIGenerationCost     = "AI_GENERATION_COST"     // debit charged before a generation attempt
	ReasonAIGenerationRefund   = "AI_GENERATION_REFUND"   // compensating credit after a failed generation
	ReasonAdminAdjustment      = "ADMIN_ADJUSTMENT"       // manual correction from the admin console
)

// LedgerEntry is an immutable record of a single credit-balance change.
// The user's displayed balance is the running sum of their entries,
// maintained incrementally in users.credits by the credits service.
type LedgerEntry struct {
	BaseModel
	UserID          uint   `gorm:"index;not null" json:"userId"`
	Amount          int64  `gorm:"not null" json:"amount"` // positive = credit, negative = debit
	Reason          string `gorm:"type:varchar(50);not null" json:"reason"`
	RelatedEntityID *uint  `json:"relatedEntityId,omitempty"`
}

// TableName specifies the table name for the LedgerEntry model.
func (LedgerEntry) TableName() string {
	return "credits_ledger"
}
