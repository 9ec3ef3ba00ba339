package handler

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"kinship/backend/internal/database"
	"kinship/backend/internal/lifecycle"
	"kinship/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// GenerateCertificate godoc
// @Summary      Generate a relationship certificate
// @Description  Issues a new certificate record for an active relationship and makes it the latest one. Rendering happens elsewhere.
// @Tags         certificates
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Relationship ID"
// @Success      201  {object}  map[string]RelationshipResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse "Relationship is not active"
// @Router       /certificates/relationship/{id}/generate [post]
func GenerateCertificate(c *gin.Context) {
	rel, viewerID, ok := findRelationship(c)
	if !ok {
		return
	}

	if err := lifecycle.CheckCertificate(rel, viewerID); err != nil {
		respondError(c, err)
		return
	}

	cert := models.Certificate{
		RelationshipID: rel.ID,
		Title:          fmt.Sprintf("Certificate of %s", rel.Title),
		Serial:         newSerial(),
		IssuedAt:       time.Now(),
	}

	// Use a transaction to ensure the certificate and the pointer to it land together
	tx := database.DB.Begin()

	if err := tx.Create(&cert).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create certificate"})
		return
	}

	rel.LatestCertificateID = &cert.ID
	if err := tx.Save(rel).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update relationship"})
		return
	}

	tx.Commit()

	rel.LatestCertificate = &cert

	c.JSON(http.StatusCreated, gin.H{"relationship": newRelationshipResponse(*rel)})
}

func newSerial() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("KIN-%s", hex.EncodeToString(buf))
}
