package handlers_contacts

import (
	"net/http"
	"strconv"

	"vitrine/internal/models/vtcaptchas"
	"vitrine/internal/models/vtcontacts"

	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	service *vtcontacts.ContactService
	captcha *vtcaptchas.Captchas
}

func NewContactHandler(service *vtcontacts.ContactService, captcha *vtcaptchas.Captchas) *ContactHandler {
	return &ContactHandler{
		service: service,
		captcha: captcha,
	}
}

// contactRequest ne reprend que les champs du formulaire public :
// le client ne pilote ni l'id, ni le statut, ni les horodatages
type contactRequest struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Service       string `json:"service"`
	Message       string `json:"message"`
	CaptchaID     string `json:"captcha_id"`
	CaptchaAnswer string `json:"captcha_answer"`
}

// Submit reçoit une demande de contact du formulaire public
func (ch *ContactHandler) Submit(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide"})
		return
	}

	if err := ch.captcha.VerifyCaptcha(req.CaptchaID, req.CaptchaAnswer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	enquiry := vtcontacts.ContactEnquiry{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Service: req.Service,
		Message: req.Message,
	}
	if err := ch.service.Submit(&enquiry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Merci, nous revenons vers vous rapidement",
		"id":      enquiry.ID,
	})
}

// ============= Administration =============

func (ch *ContactHandler) List(c *gin.Context) {
	enquiries, err := ch.service.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la lecture des demandes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"enquiries": enquiries, "total": len(enquiries)})
}

func (ch *ContactHandler) UpdateStatus(c *gin.Context) {
	id, ok := enquiryID(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide"})
		return
	}

	if err := ch.service.UpdateStatus(id, req.Status); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Statut mis à jour"})
}

func (ch *ContactHandler) Delete(c *gin.Context) {
	id, ok := enquiryID(c)
	if !ok {
		return
	}

	if err := ch.service.Delete(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Demande supprimée"})
}

func enquiryID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant invalide"})
		return 0, false
	}
	return uint(id), true
}
