package client

import "time"

// Status values of a relationship, as reported by the API.
const (
	StatusPending          = "pending"
	StatusActive           = "active"
	StatusRequestedBreakup = "requested_breakup"
	StatusEnded            = "ended"
	StatusArchived         = "archived"
)

// UserRef is the denormalized party reference on a relationship.
type UserRef struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// TypeChangeRequest is an in-flight proposal to change the relationship type.
type TypeChangeRequest struct {
	RequestedBy uint   `json:"requested_by"`
	NewType     string `json:"new_type"`
	Message     string `json:"message,omitempty"`
}

// Stats holds the server-maintained aggregate counters. Read-only.
type Stats struct {
	TrustLevel         int        `json:"trust_level"`
	ActivityCount      int        `json:"activity_count"`
	MilestonesAchieved int        `json:"milestones_achieved"`
	LastInteractionAt  *time.Time `json:"last_interaction_at,omitempty"`
}

// Settings enumerates the per-relationship toggles.
type Settings struct {
	NotifyOnActivity   bool `json:"notify_on_activity"`
	NotifyOnMilestone  bool `json:"notify_on_milestone"`
	NotifyOnTermChange bool `json:"notify_on_term_change"`
	ShareActivityFeed  bool `json:"share_activity_feed"`
	ShareMilestones    bool `json:"share_milestones"`
	ShowOnProfile      bool `json:"show_on_profile"`
}

// Certificate is a reference to a generated certificate artifact.
type Certificate struct {
	ID       uint      `json:"id"`
	Title    string    `json:"title"`
	Serial   string    `json:"serial"`
	IssuedAt time.Time `json:"issued_at"`
}

// Relationship is the client-side representation of a relationship record.
// The server's copy is authoritative; on every successful operation the cached
// record is replaced wholesale by the returned one.
type Relationship struct {
	ID                 uint               `json:"id"`
	Title              string             `json:"title"`
	Description        string             `json:"description,omitempty"`
	Type               string             `json:"type"`
	Status             string             `json:"status"`
	Initiator          UserRef            `json:"initiator"`
	Partner            UserRef            `json:"partner"`
	TypeChangeRequest  *TypeChangeRequest `json:"type_change_request,omitempty"`
	BreakupRequestedBy *uint              `json:"breakup_requested_by,omitempty"`
	BreakupReason      string             `json:"breakup_reason,omitempty"`
	Stats              Stats              `json:"stats"`
	Settings           Settings           `json:"settings"`
	LatestCertificate  *Certificate       `json:"latest_certificate,omitempty"`
	StartDate          time.Time          `json:"start_date"`
	AcceptedDate       *time.Time         `json:"accepted_date,omitempty"`
	EndDate            *time.Time         `json:"end_date,omitempty"`
	ArchivedDate       *time.Time         `json:"archived_date,omitempty"`
}

// InviteInput is the payload for creating an invitation. Exactly one of
// PartnerEmail and PartnerID must be set.
type InviteInput struct {
	PartnerEmail string `json:"partner_email,omitempty"`
	PartnerID    uint   `json:"partner_id,omitempty"`
	Title        string `json:"title"`
	Type         string `json:"type"`
	Description  string `json:"description,omitempty"`
}

// TypeChangeInput is the payload for proposing a new relationship type.
type TypeChangeInput struct {
	NewType string `json:"new_type"`
	Message string `json:"message,omitempty"`
}

// UpdateInput is the payload for the generic update. Nil fields are untouched.
type UpdateInput struct {
	Title         *string   `json:"title,omitempty"`
	Description   *string   `json:"description,omitempty"`
	BreakupReason *string   `json:"breakup_reason,omitempty"`
	Status        *string   `json:"status,omitempty"`
	Settings      *Settings `json:"settings,omitempty"`
}
