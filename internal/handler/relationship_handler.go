package handler

import (
	"net/http"
	"strconv"
	"time"

	"kinship/backend/internal/database"
	"kinship/backend/internal/lifecycle"
	"kinship/backend/internal/models"
	"kinship/backend/pkg/apierr"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// InviteInput defines the structure for creating a relationship invitation.
// Exactly one of partner_email and partner_id must be supplied.
type InviteInput struct {
	PartnerEmail string                  `json:"partner_email" example:"bob@example.com"`
	PartnerID    uint                    `json:"partner_id" example:"2"`
	Title        string                  `json:"title" binding:"required" example:"Trip Buddies"`
	Type         models.RelationshipType `json:"type" binding:"required" example:"friend"`
	Description  string                  `json:"description"`
}

// TypeChangeInput defines the structure for proposing a new relationship type.
type TypeChangeInput struct {
	NewType models.RelationshipType `json:"new_type" binding:"required" example:"partner"`
	Message string                  `json:"message" example:"I think we're closer than that"`
}

// SettingsInput mirrors RelationshipSettings on the wire. All toggles are
// replaced together when the block is present.
type SettingsInput struct {
	NotifyOnActivity   bool `json:"notify_on_activity"`
	NotifyOnMilestone  bool `json:"notify_on_milestone"`
	NotifyOnTermChange bool `json:"notify_on_term_change"`
	ShareActivityFeed  bool `json:"share_activity_feed"`
	ShareMilestones    bool `json:"share_milestones"`
	ShowOnProfile      bool `json:"show_on_profile"`
}

// UpdateRelationshipInput defines the generic update payload. Setting status
// to "archived" archives an ended relationship; no other status value is
// accepted here, the dedicated transition endpoints own the rest.
type UpdateRelationshipInput struct {
	Title         *string                    `json:"title"`
	Description   *string                    `json:"description"`
	BreakupReason *string                    `json:"breakup_reason"`
	Status        *models.RelationshipStatus `json:"status"`
	Settings      *SettingsInput             `json:"settings"`
}

// TypeChangeResponse describes an in-flight type change negotiation.
type TypeChangeResponse struct {
	RequestedBy uint                    `json:"requested_by"`
	NewType     models.RelationshipType `json:"new_type"`
	Message     string                  `json:"message,omitempty"`
}

// StatsResponse carries the server-maintained aggregate counters.
type StatsResponse struct {
	TrustLevel         int        `json:"trust_level"`
	ActivityCount      int        `json:"activity_count"`
	MilestonesAchieved int        `json:"milestones_achieved"`
	LastInteractionAt  *time.Time `json:"last_interaction_at,omitempty"`
}

// CertificateResponse is the reference to a generated certificate.
type CertificateResponse struct {
	ID       uint      `json:"id"`
	Title    string    `json:"title"`
	Serial   string    `json:"serial"`
	IssuedAt time.Time `json:"issued_at"`
}

// RelationshipResponse is the full wire representation of a relationship.
type RelationshipResponse struct {
	ID                 uint                      `json:"id"`
	Title              string                    `json:"title"`
	Description        string                    `json:"description,omitempty"`
	Type               models.RelationshipType   `json:"type"`
	Status             models.RelationshipStatus `json:"status"`
	Initiator          UserRef                   `json:"initiator"`
	Partner            UserRef                   `json:"partner"`
	TypeChangeRequest  *TypeChangeResponse       `json:"type_change_request,omitempty"`
	BreakupRequestedBy *uint                     `json:"breakup_requested_by,omitempty"`
	BreakupReason      string                    `json:"breakup_reason,omitempty"`
	Stats              StatsResponse             `json:"stats"`
	Settings           SettingsInput             `json:"settings"`
	LatestCertificate  *CertificateResponse      `json:"latest_certificate,omitempty"`
	StartDate          time.Time                 `json:"start_date"`
	AcceptedDate       *time.Time                `json:"accepted_date,omitempty"`
	EndDate            *time.Time                `json:"end_date,omitempty"`
	ArchivedDate       *time.Time                `json:"archived_date,omitempty"`
}

// PaginatedRelationshipResponse defines the structure for a relationship listing.
type PaginatedRelationshipResponse struct {
	Relationships []RelationshipResponse `json:"relationships"`
	Meta          PaginationMeta         `json:"meta"`
}

func newRelationshipResponse(rel models.Relationship) RelationshipResponse {
	resp := RelationshipResponse{
		ID:            rel.ID,
		Title:         rel.Title,
		Description:   rel.Description,
		Type:          rel.Type,
		Status:        rel.Status,
		Initiator:     buildUserRef(rel.Initiator),
		Partner:       buildUserRef(rel.Partner),
		BreakupReason: rel.BreakupReason,
		Stats: StatsResponse{
			TrustLevel:         rel.Stats.TrustLevel,
			ActivityCount:      rel.Stats.ActivityCount,
			MilestonesAchieved: rel.Stats.MilestonesAchieved,
			LastInteractionAt:  rel.Stats.LastInteractionAt,
		},
		Settings: SettingsInput{
			NotifyOnActivity:   rel.Settings.NotifyOnActivity,
			NotifyOnMilestone:  rel.Settings.NotifyOnMilestone,
			NotifyOnTermChange: rel.Settings.NotifyOnTermChange,
			ShareActivityFeed:  rel.Settings.ShareActivityFeed,
			ShareMilestones:    rel.Settings.ShareMilestones,
			ShowOnProfile:      rel.Settings.ShowOnProfile,
		},
		StartDate:          rel.StartDate,
		AcceptedDate:       rel.AcceptedDate,
		EndDate:            rel.EndDate,
		ArchivedDate:       rel.ArchivedDate,
		BreakupRequestedBy: rel.BreakupRequestedByID,
	}

	if rel.TypeChange.Requested {
		resp.TypeChangeRequest = &TypeChangeResponse{
			RequestedBy: rel.TypeChange.RequestedByID,
			NewType:     rel.TypeChange.NewType,
			Message:     rel.TypeChange.Message,
		}
	}

	if rel.LatestCertificate != nil {
		resp.LatestCertificate = &CertificateResponse{
			ID:       rel.LatestCertificate.ID,
			Title:    rel.LatestCertificate.Title,
			Serial:   rel.LatestCertificate.Serial,
			IssuedAt: rel.LatestCertificate.IssuedAt,
		}
	}

	return resp
}

// endregion

// region --- CRUD Handlers ---

// CreateRelationship godoc
// @Summary      Send a relationship invitation
// @Description  Creates a pending relationship with the caller as initiator. The partner is addressed by ID or by email.
// @Tags         relationships
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body InviteInput true "Invitation Info"
// @Success      201  {object}  map[string]RelationshipResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Partner not found"
// @Failure      409  {object}  ErrorResponse "Self-invite or relationship already exists"
// @Router       /relationships [post]
func CreateRelationship(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	var input InviteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apierr.Validation("%s", err.Error()))
		return
	}

	if (input.PartnerEmail == "") == (input.PartnerID == 0) {
		respondError(c, apierr.Validation("exactly one of partner_email and partner_id is required"))
		return
	}

	var partner models.User
	query := database.DB
	if input.PartnerID != 0 {
		query = query.Where("id = ?", input.PartnerID)
	} else {
		query = query.Where("email = ?", input.PartnerEmail)
	}
	if err := query.First(&partner).Error; err != nil {
		respondError(c, apierr.NotFound("partner not found"))
		return
	}

	rel, err := lifecycle.NewInvitation(viewerID.(uint), partner.ID, input.Title, input.Description, input.Type)
	if err != nil {
		respondError(c, err)
		return
	}

	// One live relationship per pair. Ended and archived pairs may start over.
	var existing models.Relationship
	err = database.DB.
		Where("(initiator_id = ? AND partner_id = ?) OR (initiator_id = ? AND partner_id = ?)",
			viewerID, partner.ID, partner.ID, viewerID).
		Where("status IN ?", []models.RelationshipStatus{
			models.StatusPending, models.StatusActive, models.StatusRequestedBreakup,
		}).
		First(&existing).Error
	if err == nil {
		respondError(c, apierr.Conflict("a relationship with this user already exists"))
		return
	}

	if err := database.DB.Create(rel).Error; err != nil {
		respondError(c, err)
		return
	}

	database.DB.Preload("Initiator").Preload("Partner").First(rel, rel.ID)

	c.JSON(http.StatusCreated, gin.H{"relationship": newRelationshipResponse(*rel)})
}

// ListRelationships godoc
// @Summary      List the caller's relationships
// @Description  Gets a paginated list of relationships the caller is part of, optionally filtered by status.
// @Tags         relationships
// @Produce      json
// @Security     BearerAuth
// @Param        status query     string  false  "Filter by status (pending, active, requested_breakup, ended, archived)"
// @Param        page   query     int     false  "Page number" default(1)
// @Param        limit  query     int     false  "Items per page" default(20)
// @Success      200  {object}  PaginatedRelationshipResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /relationships [get]
func ListRelationships(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	statusFilter := c.Query("status")

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100 // Max limit
	}

	query := database.DB.
		Where("initiator_id = ? OR partner_id = ?", viewerID, viewerID).
		Preload("Initiator").Preload("Partner").Preload("LatestCertificate").
		Order("created_at DESC")
	if statusFilter != "" {
		query = query.Where("status = ?", statusFilter)
	}

	relations, meta, err := Paginate[models.Relationship](query, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]RelationshipResponse, 0, len(relations))
	for _, rel := range relations {
		responses = append(responses, newRelationshipResponse(rel))
	}

	c.JSON(http.StatusOK, PaginatedRelationshipResponse{
		Relationships: responses,
		Meta:          meta,
	})
}

// GetRelationship godoc
// @Summary      Get a relationship
// @Description  Retrieves a single relationship the caller is part of.
// @Tags         relationships
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Relationship ID"
// @Success      200  {object}  map[string]RelationshipResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /relationships/{id} [get]
func GetRelationship(c *gin.Context) {
	rel, _, ok := findRelationship(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"relationship": newRelationshipResponse(*rel)})
}

// UpdateRelationship godoc
// @Summary      Update a relationship
// @Description  Updates title, description, settings or breakup reason. Setting status to "archived" archives an ended relationship.
// @Tags         relationships
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                      true  "Relationship ID"
// @Param        input body      UpdateRelationshipInput  true  "Fields to update"
// @Success      200  {object}  map[string]RelationshipResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse "Archive on a non-ended relationship"
// @Router       /relationships/{id} [put]
func UpdateRelationship(c *gin.Context) {
	rel, viewerID, ok := findRelationship(c)
	if !ok {
		return
	}

	var input UpdateRelationshipInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apierr.Validation("%s", err.Error()))
		return
	}

	if input.Status != nil {
		if *input.Status != models.StatusArchived {
			respondError(c, apierr.Validation("status can only be updated to archived, use the transition endpoints otherwise"))
			return
		}
		if err := lifecycle.Archive(rel, viewerID); err != nil {
			respondError(c, err)
			return
		}
	}

	if input.Title != nil {
		if *input.Title == "" {
			respondError(c, apierr.Validation("title cannot be empty"))
			return
		}
		rel.Title = *input.Title
	}
	if input.Description != nil {
		rel.Description = *input.Description
	}
	if input.BreakupReason != nil {
		rel.BreakupReason = *input.BreakupReason
	}
	if input.Settings != nil {
		rel.Settings = models.RelationshipSettings{
			NotifyOnActivity:   input.Settings.NotifyOnActivity,
			NotifyOnMilestone:  input.Settings.NotifyOnMilestone,
			NotifyOnTermChange: input.Settings.NotifyOnTermChange,
			ShareActivityFeed:  input.Settings.ShareActivityFeed,
			ShareMilestones:    input.Settings.ShareMilestones,
			ShowOnProfile:      input.Settings.ShowOnProfile,
		}
	}

	saveAndRespond(c, rel)
}

// DeleteRelationship godoc
// @Summary      Delete a relationship
// @Description  Permanently removes a non-active relationship.
// @Tags         relationships
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Relationship ID"
// @Success      200  {object}  map[string]string "{"message": "Relationship deleted"}"
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Relationship is active"
// @Router       /relationships/{id} [delete]
func DeleteRelationship(c *gin.Context) {
	rel, viewerID, ok := findRelationship(c)
	if !ok {
		return
	}

	if err := lifecycle.CheckDelete(rel, viewerID); err != nil {
		respondError(c, err)
		return
	}

	if err := database.DB.Unscoped().Delete(rel).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Relationship deleted"})
}

// endregion

// region --- Transition Handlers ---

// AcceptRelationship godoc
// @Summary      Accept an invitation
// @Description  Accepts a pending invitation. Only the invited partner may accept.
// @Tags         relationships
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Relationship ID"
// @Success      200  {object}  map[string]RelationshipResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Caller is the initiator"
// @Failure      404  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse "Invitation is not pending"
// @Router       /relationships/{id}/accept [post]
func AcceptRelationship(c *gin.Context) {
	transition(c, lifecycle.Accept)
}

// DeclineRelationship godoc
// @Summary      Decline an invitation
// @Description  Declines a pending invitation and removes it. Only the invited partner may decline.
// @Tags         relationships
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Relationship ID"
// @Success      200  {object}  map[string]string "{"message": "Invitation declined"}"
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Caller is the initiator"
// @Failure      404  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse "Invitation is not pending"
// @Router       /relationships/{id}/decline [post]
func DeclineRelationship(c *gin.Context) {
	rel, viewerID, ok := findRelationship(c)
	if !ok {
		return
	}

	if err := lifecycle.Decline(rel, viewerID); err != nil {
		respondError(c, err)
		return
	}

	// Declined invitations are soft deleted rather than kept as tombstones.
	if err := database.DB.Delete(rel).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation declined"})
}

// RequestBreakup godoc
// @Summary      Request a breakup
// @Description  Asks to end an active relationship. The other party must confirm.
// @Tags         relationships
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Relationship ID"
// @Success      200  {object}  map[string]RelationshipResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse "Relationship is not active"
// @Router       /relationships/{id}/request-breakup [post]
func RequestBreakup(c *gin.Context) {
	transition(c, lifecycle.RequestBreakup)
}

// ConfirmBreakup godoc
// @Summary      Confirm a breakup
// @Description  Ends a relationship in requested_breakup. The requester cannot confirm their own request.
// @Tags         relationships
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Relationship ID"
// @Success      200  {object}  map[string]RelationshipResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Caller requested the breakup"
// @Failure      404  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse "No breakup requested"
// @Router       /relationships/{id}/confirm-breakup [post]
func ConfirmBreakup(c *gin.Context) {
	transition(c, lifecycle.ConfirmBreakup)
}

// RequestTypeChange godoc
// @Summary      Propose a type change
// @Description  Opens a negotiation to change the closeness type of an active relationship.
// @Tags         relationships
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int              true  "Relationship ID"
// @Param        input body      TypeChangeInput  true  "Proposed type"
// @Success      200  {object}  map[string]RelationshipResponse
// @Failure      400  {object}  ErrorResponse "New type equals current type"
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse "Not active, or a request is already pending"
// @Router       /relationships/{id}/request-type-change [post]
func RequestTypeChange(c *gin.Context) {
	rel, viewerID, ok := findRelationship(c)
	if !ok {
		return
	}

	var input TypeChangeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apierr.Validation("%s", err.Error()))
		return
	}

	if err := lifecycle.RequestTypeChange(rel, viewerID, input.NewType, input.Message); err != nil {
		respondError(c, err)
		return
	}

	saveAndRespond(c, rel)
}

// AcceptTypeChange godoc
// @Summary      Accept a type change
// @Description  Applies the proposed type. The proposer cannot accept their own request.
// @Tags         relationships
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Relationship ID"
// @Success      200  {object}  map[string]RelationshipResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Caller proposed the change"
// @Failure      404  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse "No pending request"
// @Router       /relationships/{id}/accept-type-change [post]
func AcceptTypeChange(c *gin.Context) {
	transition(c, lifecycle.AcceptTypeChange)
}

// DeclineTypeChange godoc
// @Summary      Decline a type change
// @Description  Rejects the proposed type without changing anything.
// @Tags         relationships
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Relationship ID"
// @Success      200  {object}  map[string]RelationshipResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Caller proposed the change"
// @Failure      404  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse "No pending request"
// @Router       /relationships/{id}/decline-type-change [post]
func DeclineTypeChange(c *gin.Context) {
	transition(c, lifecycle.DeclineTypeChange)
}

// CancelTypeChange godoc
// @Summary      Cancel a type change
// @Description  Withdraws the caller's own pending type change proposal.
// @Tags         relationships
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Relationship ID"
// @Success      200  {object}  map[string]RelationshipResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Caller did not propose the change"
// @Failure      404  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse "No pending request"
// @Router       /relationships/{id}/cancel-type-change [post]
func CancelTypeChange(c *gin.Context) {
	transition(c, lifecycle.CancelTypeChange)
}

// endregion

// region --- Helpers ---

// findRelationship loads the relationship in the path, scoped to the caller's
// own relationships. Outsiders get a 404, not a 403, so IDs don't leak.
func findRelationship(c *gin.Context) (*models.Relationship, uint, bool) {
	viewerID, _ := c.Get("userID")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, apierr.Validation("invalid relationship ID"))
		return nil, 0, false
	}

	var rel models.Relationship
	err = database.DB.
		Preload("Initiator").Preload("Partner").Preload("LatestCertificate").
		Where("initiator_id = ? OR partner_id = ?", viewerID, viewerID).
		First(&rel, uint(id)).Error
	if err != nil {
		respondError(c, apierr.NotFound("relationship not found"))
		return nil, 0, false
	}

	return &rel, viewerID.(uint), true
}

// transition runs a body-less lifecycle transition and persists the result.
func transition(c *gin.Context, fn func(*models.Relationship, uint) error) {
	rel, viewerID, ok := findRelationship(c)
	if !ok {
		return
	}

	if err := fn(rel, viewerID); err != nil {
		respondError(c, err)
		return
	}

	saveAndRespond(c, rel)
}

func saveAndRespond(c *gin.Context, rel *models.Relationship) {
	if err := database.DB.Save(rel).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"relationship": newRelationshipResponse(*rel)})
}

// respondError writes the classified error body. Unclassified errors become a
// generic 500 so internals don't leak.
func respondError(c *gin.Context, err error) {
	kind := apierr.KindOf(err)
	message := err.Error()
	if kind == apierr.KindInternal {
		message = "Internal server error"
	}
	c.JSON(apierr.HTTPStatus(kind), gin.H{"message": message, "code": string(kind)})
}

// endregion
