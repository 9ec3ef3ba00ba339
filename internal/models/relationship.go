package models

import (
	"time"

	"gorm.io/gorm"
)

// RelationshipStatus defines the lifecycle state of a relationship.
type RelationshipStatus string

const (
	// StatusPending means an invitation has been sent but not yet accepted.
	StatusPending RelationshipStatus = "pending"

	// StatusActive means the invitation was accepted and the relationship is live.
	StatusActive RelationshipStatus = "active"

	// StatusRequestedBreakup means one party has asked to end the relationship
	// and is waiting for the other party to confirm.
	StatusRequestedBreakup RelationshipStatus = "requested_breakup"

	// StatusEnded means both parties agreed to end the relationship.
	StatusEnded RelationshipStatus = "ended"

	// StatusArchived means an ended relationship was put away for good.
	StatusArchived RelationshipStatus = "archived"
)

// RelationshipType is the closeness scale of a relationship.
type RelationshipType string

const (
	TypeAcquaintance     RelationshipType = "acquaintance"
	TypeFriend           RelationshipType = "friend"
	TypeCloseFriend      RelationshipType = "close_friend"
	TypeBestFriend       RelationshipType = "best_friend"
	TypeRomanticInterest RelationshipType = "romantic_interest"
	TypePartner          RelationshipType = "partner"
	TypeEngaged          RelationshipType = "engaged"
	TypeMarried          RelationshipType = "married"
	TypeFamily           RelationshipType = "family"
	TypeMentor           RelationshipType = "mentor"
	TypeMentee           RelationshipType = "mentee"
)

// ValidRelationshipType reports whether t is one of the enumerated closeness types.
func ValidRelationshipType(t RelationshipType) bool {
	switch t {
	case TypeAcquaintance, TypeFriend, TypeCloseFriend, TypeBestFriend,
		TypeRomanticInterest, TypePartner, TypeEngaged, TypeMarried,
		TypeFamily, TypeMentor, TypeMentee:
		return true
	}
	return false
}

// TypeChangeRequest is an in-flight proposal by one party to change the
// relationship type. Requested is false when no negotiation is pending.
type TypeChangeRequest struct {
	Requested     bool             `gorm:"not null;default:false"`
	RequestedByID uint             `gorm:"index"`
	NewType       RelationshipType `gorm:"size:50"`
	Message       string           `gorm:"size:512"`
}

// RelationshipStats holds read-only aggregate counters maintained server-side.
type RelationshipStats struct {
	TrustLevel         int `gorm:"not null;default:0"`
	ActivityCount      int `gorm:"not null;default:0"`
	MilestonesAchieved int `gorm:"not null;default:0"`
	LastInteractionAt  *time.Time
}

// RelationshipSettings enumerates the per-relationship toggles. Every toggle is
// an explicit field so a missing one is a compile error, not a silent default.
type RelationshipSettings struct {
	NotifyOnActivity   bool `gorm:"not null;default:true"`
	NotifyOnMilestone  bool `gorm:"not null;default:true"`
	NotifyOnTermChange bool `gorm:"not null;default:true"`
	ShareActivityFeed  bool `gorm:"not null;default:true"`
	ShareMilestones    bool `gorm:"not null;default:true"`
	ShowOnProfile      bool `gorm:"not null;default:false"`
}

// Relationship represents the connection between exactly two users.
// The initiator created the invitation; the partner was invited. Declined
// invitations are soft deleted, so they disappear from both parties' lists.
type Relationship struct {
	gorm.Model
	InitiatorID uint   `gorm:"not null;index"`
	PartnerID   uint   `gorm:"not null;index"`
	Title       string `gorm:"size:255;not null"`
	Description string

	Type   RelationshipType   `gorm:"type:varchar(50);not null"`
	Status RelationshipStatus `gorm:"type:varchar(20);not null;index"`

	TypeChange           TypeChangeRequest `gorm:"embedded;embeddedPrefix:type_change_"`
	BreakupRequestedByID *uint             `gorm:"index"`
	BreakupReason        string            `gorm:"size:1024"`

	Stats    RelationshipStats    `gorm:"embedded;embeddedPrefix:stats_"`
	Settings RelationshipSettings `gorm:"embedded;embeddedPrefix:settings_"`

	LatestCertificateID *uint

	StartDate    time.Time
	AcceptedDate *time.Time
	EndDate      *time.Time
	ArchivedDate *time.Time

	// Define foreign key relationships
	Initiator         User         `gorm:"foreignKey:InitiatorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Partner           User         `gorm:"foreignKey:PartnerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	LatestCertificate *Certificate `gorm:"foreignKey:LatestCertificateID"`
}

// IsParty reports whether userID is one of the two sides of the relationship.
func (r *Relationship) IsParty(userID uint) bool {
	return r.InitiatorID == userID || r.PartnerID == userID
}

