package submissions

import (
	"time"
)

// Lifecycle status of a submission. pending and flagged are reviewable;
// approved, rejected, and withdrawn are terminal with no outgoing
// transitions.
type Status string

const (
	StatusPending   Status = "pending"
	StatusFlagged   Status = "flagged"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
)

func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}

// ModerationFlags is the persisted projection of a moderation verdict. The
// full verdict is ephemeral; only these fields survive on the record.
type ModerationFlags struct {
	SpamScore          float64 `json:"spamScore"`
	InappropriateScore float64 `json:"inappropriateScore"`
	// placeholder until an AI-generated-content detector is wired in
	AIGenerated bool `json:"aiGenerated"`
}

type Submission struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	SubmitterID string `gorm:"index" json:"submitterId"`
	Status      Status `gorm:"index" json:"status"`

	Title       string   `json:"title"`
	Description string   `json:"description"`
	MediaURLs   []string `gorm:"serializer:json" json:"mediaUrls"`
	Tags        []string `gorm:"serializer:json" json:"tags"`
	DesignType  string   `json:"designType"`
	Difficulty  string   `json:"difficulty"`
	PriceTier   string   `json:"priceTier"`
	Materials   []string `gorm:"serializer:json" json:"materials"`

	Flags ModerationFlags `gorm:"serializer:json" json:"moderationFlags"`

	SubmittedAt     time.Time  `json:"submittedAt"`
	ReviewedAt      *time.Time `json:"reviewedAt,omitempty"`
	ReviewedBy      *string    `json:"reviewedBy,omitempty"`
	RejectionReason *string    `json:"rejectionReason,omitempty"`
	ApprovedEntryID *uint      `json:"approvedEntryId,omitempty"`
}

// PublishedEntry is the denormalized public copy of an approved submission,
// created exactly once via approval.
type PublishedEntry struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	CollectionID string `gorm:"index" json:"collectionId"`

	Title        string   `json:"title"`
	Description  string   `json:"description"`
	ImageURL     string   `json:"imageUrl"`
	ThumbnailURL string   `json:"thumbnailUrl"`
	Tags         []string `gorm:"serializer:json" json:"tags"`
	DesignType   string   `json:"designType"`
	Difficulty   string   `json:"difficulty"`
	PriceTier    string   `json:"priceTier"`
	Materials    []string `gorm:"serializer:json" json:"materials"`

	TrendScore float64 `json:"trendScore"`
	Likes      int64   `json:"likes"`
	Saves      int64   `json:"saves"`
	Shares     int64   `json:"shares"`

	Source      string    `json:"source"`
	SubmitterID string    `json:"submitterId"`
	CuratedBy   string    `json:"curatedBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

// provenance marker for entries that arrived through the submission queue
const SourceUserSubmission = "user_submission"
