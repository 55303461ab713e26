package data

import "time"

// Deliberation is one persisted panel run. Votes are serialized onto the row
// for audit tooling; individual votes also get their own rows.
type Deliberation struct {
	ID               uint64 `gorm:"primaryKey"`
	Topic            string `gorm:"size:255;not null;index"`
	Content          string `gorm:"type:text;not null"`
	VotesJSON        string `gorm:"column:votes_json;type:text"`
	FinalDecision    string `gorm:"size:16;not null"`
	ConsensusSummary string `gorm:"type:text"`
	AutoApproved     bool
	CreatedAt        time.Time
	PublishedAt      *time.Time
}

// AgentVote is one reviewer's vote within a deliberation.
type AgentVote struct {
	ID              uint64 `gorm:"primaryKey"`
	DeliberationID  uint64 `gorm:"index;not null"`
	AgentRole       string `gorm:"size:32;not null"`
	Approve         bool
	Reasoning       string `gorm:"type:text"`
	ConcernsJSON    string `gorm:"column:concerns_json;type:text"`
	SuggestionsJSON string `gorm:"column:suggestions_json;type:text"`
	ParseFailed     bool
	CreatedAt       time.Time
}

// Publication is content moving through the review pipeline.
type Publication struct {
	ID             uint64 `gorm:"primaryKey"`
	Title          string `gorm:"size:255;not null"`
	Content        string `gorm:"type:text;not null"`
	Category       string `gorm:"size:32;not null"`
	Status         string `gorm:"size:32;not null;index"`
	DeliberationID *uint64
	PublishTargets string `gorm:"type:text"`
	AutoApproved   bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	PublishedAt    *time.Time
}

// PublicationLog is the append-only provenance trail for a publication.
type PublicationLog struct {
	ID            uint64 `gorm:"primaryKey"`
	PublicationID uint64 `gorm:"index;not null"`
	Action        string `gorm:"size:64;not null"`
	Actor         string `gorm:"size:32"`
	Notes         string `gorm:"type:text"`
	CreatedAt     time.Time
}
