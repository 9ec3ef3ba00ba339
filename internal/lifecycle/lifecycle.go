// Package lifecycle enforces the relationship state machine. Every transition
// is a pure mutation of a Relationship in memory; callers persist the result.
//
// The status graph:
//
//	pending --accept--> active --requestBreakup--> requested_breakup --confirmBreakup--> ended --archive--> archived
//	pending --decline--> (removed)
//
// Type-change negotiation only ever touches the type field of an active
// relationship; the status never moves. Terminal states have no way back.
package lifecycle

import (
	"time"

	"kinship/backend/internal/models"
	"kinship/backend/pkg/apierr"
)

// acceptTrustBaseline is the trust level granted when an invitation is accepted.
const acceptTrustBaseline = 10

// typeChangeTrustBonus is added each time both parties agree on a new type.
const typeChangeTrustBonus = 5

// NewInvitation builds a pending relationship with the caller as initiator.
func NewInvitation(initiatorID, partnerID uint, title, description string, relType models.RelationshipType) (*models.Relationship, error) {
	if title == "" {
		return nil, apierr.Validation("title is required")
	}
	if !models.ValidRelationshipType(relType) {
		return nil, apierr.Validation("unknown relationship type %q", relType)
	}
	if partnerID == 0 {
		return nil, apierr.Validation("partner is required")
	}
	if initiatorID == partnerID {
		return nil, apierr.Conflict("cannot invite yourself")
	}

	now := time.Now()
	return &models.Relationship{
		InitiatorID: initiatorID,
		PartnerID:   partnerID,
		Title:       title,
		Description: description,
		Type:        relType,
		Status:      models.StatusPending,
		StartDate:   now,
	}, nil
}

// Accept moves a pending relationship to active. Only the invited partner may
// accept; the initiator cannot accept their own invitation.
func Accept(rel *models.Relationship, actorID uint) error {
	if err := requireParty(rel, actorID); err != nil {
		return err
	}
	if rel.Status != models.StatusPending {
		return apierr.State("relationship is %s, only pending invitations can be accepted", rel.Status)
	}
	if actorID != rel.PartnerID {
		return apierr.Permission("only the invited partner can accept")
	}

	now := time.Now()
	rel.Status = models.StatusActive
	rel.AcceptedDate = &now
	rel.Stats.TrustLevel = acceptTrustBaseline
	touch(rel, now)
	return nil
}

// Decline validates that actorID may decline the pending invitation. The
// caller removes the record afterwards; declined invitations are not kept as
// tombstones.
func Decline(rel *models.Relationship, actorID uint) error {
	if err := requireParty(rel, actorID); err != nil {
		return err
	}
	if rel.Status != models.StatusPending {
		return apierr.State("relationship is %s, only pending invitations can be declined", rel.Status)
	}
	if actorID != rel.PartnerID {
		return apierr.Permission("only the invited partner can decline")
	}
	return nil
}

// RequestTypeChange opens a negotiation to change the closeness type.
func RequestTypeChange(rel *models.Relationship, actorID uint, newType models.RelationshipType, message string) error {
	if err := requireParty(rel, actorID); err != nil {
		return err
	}
	if rel.Status != models.StatusActive {
		return apierr.State("relationship is %s, type changes require an active relationship", rel.Status)
	}
	if rel.TypeChange.Requested {
		return apierr.State("a type change is already pending")
	}
	if !models.ValidRelationshipType(newType) {
		return apierr.Validation("unknown relationship type %q", newType)
	}
	if newType == rel.Type {
		return apierr.Validation("relationship is already %s", newType)
	}

	rel.TypeChange = models.TypeChangeRequest{
		Requested:     true,
		RequestedByID: actorID,
		NewType:       newType,
		Message:       message,
	}
	touch(rel, time.Now())
	return nil
}

// AcceptTypeChange applies a pending type change. The proposer cannot accept
// their own request.
func AcceptTypeChange(rel *models.Relationship, actorID uint) error {
	if err := requireParty(rel, actorID); err != nil {
		return err
	}
	if !rel.TypeChange.Requested {
		return apierr.State("no type change is pending")
	}
	if actorID == rel.TypeChange.RequestedByID {
		return apierr.Permission("cannot accept your own type change request")
	}

	rel.Type = rel.TypeChange.NewType
	rel.TypeChange = models.TypeChangeRequest{}
	rel.Stats.TrustLevel += typeChangeTrustBonus
	touch(rel, time.Now())
	return nil
}

// DeclineTypeChange rejects a pending type change without altering the type.
// Only the party who did not propose it may decline.
func DeclineTypeChange(rel *models.Relationship, actorID uint) error {
	if err := requireParty(rel, actorID); err != nil {
		return err
	}
	if !rel.TypeChange.Requested {
		return apierr.State("no type change is pending")
	}
	if actorID == rel.TypeChange.RequestedByID {
		return apierr.Permission("cannot decline your own request, cancel it instead")
	}

	rel.TypeChange = models.TypeChangeRequest{}
	touch(rel, time.Now())
	return nil
}

// CancelTypeChange withdraws a pending type change. Only the proposer may cancel.
func CancelTypeChange(rel *models.Relationship, actorID uint) error {
	if err := requireParty(rel, actorID); err != nil {
		return err
	}
	if !rel.TypeChange.Requested {
		return apierr.State("no type change is pending")
	}
	if actorID != rel.TypeChange.RequestedByID {
		return apierr.Permission("only the requester can cancel a type change request")
	}

	rel.TypeChange = models.TypeChangeRequest{}
	touch(rel, time.Now())
	return nil
}

// RequestBreakup asks to end an active relationship. The other party has to
// confirm before the relationship actually ends.
func RequestBreakup(rel *models.Relationship, actorID uint) error {
	if err := requireParty(rel, actorID); err != nil {
		return err
	}
	if rel.Status != models.StatusActive {
		return apierr.State("relationship is %s, only active relationships can be broken up", rel.Status)
	}

	actor := actorID
	rel.Status = models.StatusRequestedBreakup
	rel.BreakupRequestedByID = &actor
	touch(rel, time.Now())
	return nil
}

// ConfirmBreakup ends a relationship in requested_breakup. The party who asked
// for the breakup cannot also confirm it.
func ConfirmBreakup(rel *models.Relationship, actorID uint) error {
	if err := requireParty(rel, actorID); err != nil {
		return err
	}
	if rel.Status != models.StatusRequestedBreakup {
		return apierr.State("relationship is %s, no breakup has been requested", rel.Status)
	}
	if rel.BreakupRequestedByID != nil && *rel.BreakupRequestedByID == actorID {
		return apierr.Permission("the other party has to confirm the breakup")
	}

	now := time.Now()
	rel.Status = models.StatusEnded
	rel.EndDate = &now
	// A breakup also voids any negotiation that was still open.
	rel.TypeChange = models.TypeChangeRequest{}
	touch(rel, now)
	return nil
}

// Archive puts an ended relationship away. Either party may archive.
func Archive(rel *models.Relationship, actorID uint) error {
	if err := requireParty(rel, actorID); err != nil {
		return err
	}
	if rel.Status != models.StatusEnded {
		return apierr.State("relationship is %s, only ended relationships can be archived", rel.Status)
	}

	now := time.Now()
	rel.Status = models.StatusArchived
	rel.ArchivedDate = &now
	return nil
}

// CheckDelete verifies that actorID may permanently remove the relationship.
// Active relationships must be ended first.
func CheckDelete(rel *models.Relationship, actorID uint) error {
	if err := requireParty(rel, actorID); err != nil {
		return err
	}
	if rel.Status == models.StatusActive {
		return apierr.Conflict("cannot delete an active relationship, end it first")
	}
	return nil
}

// CheckCertificate verifies that a certificate may be issued for rel.
func CheckCertificate(rel *models.Relationship, actorID uint) error {
	if err := requireParty(rel, actorID); err != nil {
		return err
	}
	if rel.Status != models.StatusActive {
		return apierr.State("relationship is %s, certificates require an active relationship", rel.Status)
	}
	return nil
}

func requireParty(rel *models.Relationship, actorID uint) error {
	if !rel.IsParty(actorID) {
		return apierr.Permission("you are not part of this relationship")
	}
	return nil
}

func touch(rel *models.Relationship, now time.Time) {
	t := now
	rel.Stats.LastInteractionAt = &t
}
