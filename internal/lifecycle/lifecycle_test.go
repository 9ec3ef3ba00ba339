package lifecycle

import (
	"testing"

	"kinship/backend/internal/models"
	"kinship/backend/pkg/apierr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	initiatorID uint = 1
	partnerID   uint = 2
	outsiderID  uint = 99
)

func pendingRelationship() *models.Relationship {
	rel, err := NewInvitation(initiatorID, partnerID, "Trip Buddies", "", models.TypeFriend)
	if err != nil {
		panic(err)
	}
	rel.ID = 42
	return rel
}

func activeRelationship(t *testing.T) *models.Relationship {
	t.Helper()
	rel := pendingRelationship()
	require.NoError(t, Accept(rel, partnerID))
	return rel
}

func requireKind(t *testing.T, err error, kind apierr.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apierr.KindOf(err))
}

func TestNewInvitation(t *testing.T) {
	rel, err := NewInvitation(initiatorID, partnerID, "Trip Buddies", "met on a plane", models.TypeFriend)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, rel.Status)
	assert.Equal(t, initiatorID, rel.InitiatorID)
	assert.Equal(t, partnerID, rel.PartnerID)
	assert.Equal(t, models.TypeFriend, rel.Type)
	assert.False(t, rel.StartDate.IsZero())
	assert.Nil(t, rel.AcceptedDate)
}

func TestNewInvitationValidation(t *testing.T) {
	tests := []struct {
		name      string
		initiator uint
		partner   uint
		title     string
		relType   models.RelationshipType
		kind      apierr.Kind
	}{
		{"missing title", initiatorID, partnerID, "", models.TypeFriend, apierr.KindValidation},
		{"missing partner", initiatorID, 0, "Trip Buddies", models.TypeFriend, apierr.KindValidation},
		{"unknown type", initiatorID, partnerID, "Trip Buddies", "soulmate", apierr.KindValidation},
		{"self invite", initiatorID, initiatorID, "Trip Buddies", models.TypeFriend, apierr.KindConflict},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewInvitation(tc.initiator, tc.partner, tc.title, "", tc.relType)
			requireKind(t, err, tc.kind)
		})
	}
}

func TestAccept(t *testing.T) {
	rel := pendingRelationship()

	require.NoError(t, Accept(rel, partnerID))

	assert.Equal(t, models.StatusActive, rel.Status)
	require.NotNil(t, rel.AcceptedDate)
	assert.Equal(t, acceptTrustBaseline, rel.Stats.TrustLevel)
	assert.NotNil(t, rel.Stats.LastInteractionAt)
}

func TestAcceptByInitiatorFails(t *testing.T) {
	rel := pendingRelationship()
	requireKind(t, Accept(rel, initiatorID), apierr.KindPermission)
	assert.Equal(t, models.StatusPending, rel.Status)
}

func TestAcceptByOutsiderFails(t *testing.T) {
	rel := pendingRelationship()
	requireKind(t, Accept(rel, outsiderID), apierr.KindPermission)
}

func TestAcceptNonPendingFails(t *testing.T) {
	rel := activeRelationship(t)
	requireKind(t, Accept(rel, partnerID), apierr.KindState)
}

func TestDecline(t *testing.T) {
	rel := pendingRelationship()
	require.NoError(t, Decline(rel, partnerID))

	requireKind(t, Decline(pendingRelationship(), initiatorID), apierr.KindPermission)

	active := activeRelationship(t)
	requireKind(t, Decline(active, partnerID), apierr.KindState)
}

func TestRequestTypeChange(t *testing.T) {
	rel := activeRelationship(t)

	require.NoError(t, RequestTypeChange(rel, initiatorID, models.TypePartner, "closer than that"))

	assert.True(t, rel.TypeChange.Requested)
	assert.Equal(t, initiatorID, rel.TypeChange.RequestedByID)
	assert.Equal(t, models.TypePartner, rel.TypeChange.NewType)
	assert.Equal(t, models.TypeFriend, rel.Type, "type must not change until accepted")
	assert.Equal(t, models.StatusActive, rel.Status, "status never moves during negotiation")
}

func TestRequestTypeChangeRejectsSecondRequest(t *testing.T) {
	rel := activeRelationship(t)
	require.NoError(t, RequestTypeChange(rel, initiatorID, models.TypePartner, ""))

	requireKind(t, RequestTypeChange(rel, partnerID, models.TypeBestFriend, ""), apierr.KindState)
	assert.Equal(t, models.TypePartner, rel.TypeChange.NewType, "pending request must be untouched")
}

func TestRequestTypeChangeValidation(t *testing.T) {
	rel := activeRelationship(t)

	requireKind(t, RequestTypeChange(rel, initiatorID, models.TypeFriend, ""), apierr.KindValidation)
	requireKind(t, RequestTypeChange(rel, initiatorID, "nemesis", ""), apierr.KindValidation)

	pending := pendingRelationship()
	requireKind(t, RequestTypeChange(pending, initiatorID, models.TypePartner, ""), apierr.KindState)
}

func TestAcceptTypeChange(t *testing.T) {
	rel := activeRelationship(t)
	require.NoError(t, RequestTypeChange(rel, initiatorID, models.TypePartner, ""))

	require.NoError(t, AcceptTypeChange(rel, partnerID))

	assert.Equal(t, models.TypePartner, rel.Type)
	assert.False(t, rel.TypeChange.Requested, "request must be cleared")
	assert.Equal(t, models.TypeChangeRequest{}, rel.TypeChange)
	assert.Equal(t, models.StatusActive, rel.Status)
}

func TestAcceptTypeChangeByRequesterFails(t *testing.T) {
	rel := activeRelationship(t)
	require.NoError(t, RequestTypeChange(rel, initiatorID, models.TypePartner, ""))

	requireKind(t, AcceptTypeChange(rel, initiatorID), apierr.KindPermission)
	assert.Equal(t, models.TypeFriend, rel.Type)
}

func TestAcceptTypeChangeWithoutRequestFails(t *testing.T) {
	rel := activeRelationship(t)
	requireKind(t, AcceptTypeChange(rel, partnerID), apierr.KindState)
}

func TestDeclineTypeChange(t *testing.T) {
	rel := activeRelationship(t)
	require.NoError(t, RequestTypeChange(rel, initiatorID, models.TypePartner, ""))

	requireKind(t, DeclineTypeChange(rel, initiatorID), apierr.KindPermission)

	require.NoError(t, DeclineTypeChange(rel, partnerID))
	assert.False(t, rel.TypeChange.Requested)
	assert.Equal(t, models.TypeFriend, rel.Type, "declining keeps the current type")
}

func TestCancelTypeChange(t *testing.T) {
	rel := activeRelationship(t)
	require.NoError(t, RequestTypeChange(rel, initiatorID, models.TypePartner, ""))

	requireKind(t, CancelTypeChange(rel, partnerID), apierr.KindPermission)

	require.NoError(t, CancelTypeChange(rel, initiatorID))
	assert.False(t, rel.TypeChange.Requested)
	assert.Equal(t, models.TypeFriend, rel.Type)
}

func TestRequestBreakup(t *testing.T) {
	rel := activeRelationship(t)

	require.NoError(t, RequestBreakup(rel, initiatorID))

	assert.Equal(t, models.StatusRequestedBreakup, rel.Status)
	require.NotNil(t, rel.BreakupRequestedByID)
	assert.Equal(t, initiatorID, *rel.BreakupRequestedByID)
}

func TestRequestBreakupNotActiveFails(t *testing.T) {
	pending := pendingRelationship()
	requireKind(t, RequestBreakup(pending, initiatorID), apierr.KindState)

	rel := activeRelationship(t)
	require.NoError(t, RequestBreakup(rel, initiatorID))
	requireKind(t, RequestBreakup(rel, partnerID), apierr.KindState)
}

func TestConfirmBreakup(t *testing.T) {
	rel := activeRelationship(t)
	require.NoError(t, RequestBreakup(rel, initiatorID))

	requireKind(t, ConfirmBreakup(rel, initiatorID), apierr.KindPermission)
	assert.Equal(t, models.StatusRequestedBreakup, rel.Status)

	require.NoError(t, ConfirmBreakup(rel, partnerID))
	assert.Equal(t, models.StatusEnded, rel.Status)
	require.NotNil(t, rel.EndDate)
}

func TestConfirmBreakupClearsPendingTypeChange(t *testing.T) {
	rel := activeRelationship(t)
	require.NoError(t, RequestTypeChange(rel, partnerID, models.TypeBestFriend, ""))
	require.NoError(t, RequestBreakup(rel, initiatorID))
	require.NoError(t, ConfirmBreakup(rel, partnerID))

	assert.False(t, rel.TypeChange.Requested)
}

func TestConfirmBreakupWithoutRequestFails(t *testing.T) {
	rel := activeRelationship(t)
	requireKind(t, ConfirmBreakup(rel, partnerID), apierr.KindState)
}

func TestArchive(t *testing.T) {
	rel := activeRelationship(t)
	require.NoError(t, RequestBreakup(rel, initiatorID))
	require.NoError(t, ConfirmBreakup(rel, partnerID))

	require.NoError(t, Archive(rel, initiatorID))

	assert.Equal(t, models.StatusArchived, rel.Status)
	require.NotNil(t, rel.ArchivedDate)
}

func TestArchiveRequiresEnded(t *testing.T) {
	requireKind(t, Archive(activeRelationship(t), initiatorID), apierr.KindState)
	requireKind(t, Archive(pendingRelationship(), partnerID), apierr.KindState)
}

func TestCheckDelete(t *testing.T) {
	requireKind(t, CheckDelete(activeRelationship(t), initiatorID), apierr.KindConflict)
	requireKind(t, CheckDelete(activeRelationship(t), partnerID), apierr.KindConflict)

	require.NoError(t, CheckDelete(pendingRelationship(), initiatorID))

	rel := activeRelationship(t)
	require.NoError(t, RequestBreakup(rel, initiatorID))
	require.NoError(t, ConfirmBreakup(rel, partnerID))
	require.NoError(t, CheckDelete(rel, partnerID))

	require.NoError(t, Archive(rel, partnerID))
	require.NoError(t, CheckDelete(rel, initiatorID))
}

func TestCheckCertificate(t *testing.T) {
	require.NoError(t, CheckCertificate(activeRelationship(t), initiatorID))

	requireKind(t, CheckCertificate(pendingRelationship(), initiatorID), apierr.KindState)
	requireKind(t, CheckCertificate(activeRelationship(t), outsiderID), apierr.KindPermission)
}

// TestNoTransitionLeavesTerminalStates walks every transition against ended
// and archived relationships: none may bring them back.
func TestNoTransitionLeavesTerminalStates(t *testing.T) {
	makeEnded := func() *models.Relationship {
		rel := activeRelationship(t)
		require.NoError(t, RequestBreakup(rel, initiatorID))
		require.NoError(t, ConfirmBreakup(rel, partnerID))
		return rel
	}
	makeArchived := func() *models.Relationship {
		rel := makeEnded()
		require.NoError(t, Archive(rel, partnerID))
		return rel
	}

	for name, mk := range map[string]func() *models.Relationship{
		"ended":    makeEnded,
		"archived": makeArchived,
	} {
		t.Run(name, func(t *testing.T) {
			status := mk().Status

			assert.Error(t, Accept(mk(), partnerID))
			assert.Error(t, Decline(mk(), partnerID))
			assert.Error(t, RequestTypeChange(mk(), initiatorID, models.TypePartner, ""))
			assert.Error(t, RequestBreakup(mk(), partnerID))
			assert.Error(t, ConfirmBreakup(mk(), partnerID))
			assert.Error(t, CheckCertificate(mk(), partnerID))

			rel := mk()
			_ = Accept(rel, partnerID)
			_ = RequestBreakup(rel, initiatorID)
			assert.Equal(t, status, rel.Status, "failed transitions must not move the status")
		})
	}
}

func TestOutsiderIsRejectedEverywhere(t *testing.T) {
	rel := activeRelationship(t)

	requireKind(t, RequestTypeChange(rel, outsiderID, models.TypePartner, ""), apierr.KindPermission)
	requireKind(t, RequestBreakup(rel, outsiderID), apierr.KindPermission)
	requireKind(t, CheckDelete(rel, outsiderID), apierr.KindPermission)

	require.NoError(t, RequestBreakup(rel, initiatorID))
	requireKind(t, ConfirmBreakup(rel, outsiderID), apierr.KindPermission)
}
