package handlers_reviews

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strconv"
	"strings"

	"vitrine/internal/models/vtcaptchas"
	"vitrine/internal/models/vtimages"
	"vitrine/internal/models/vtreviews"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	service    *vtreviews.ReviewService
	captcha    *vtcaptchas.Captchas
	uploadsDir string
}

func NewReviewHandler(service *vtreviews.ReviewService, captcha *vtcaptchas.Captchas, uploadsDir string) *ReviewHandler {
	return &ReviewHandler{
		service:    service,
		captcha:    captcha,
		uploadsDir: uploadsDir,
	}
}

type submitRequest struct {
	vtreviews.Submission
	CaptchaID     string `json:"captcha_id"`
	CaptchaAnswer string `json:"captcha_answer"`
}

// ListApproved sert les témoignages publiés à la SPA
func (rh *ReviewHandler) ListApproved(c *gin.Context) {
	reviews, err := rh.service.ListApproved()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la lecture des avis"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// Submit reçoit un témoignage du formulaire public
func (rh *ReviewHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide"})
		return
	}

	if err := rh.captcha.VerifyCaptcha(req.CaptchaID, req.CaptchaAnswer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := rh.service.Submit(&req.Submission)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Merci, votre témoignage sera publié après validation",
		"review":  review,
	})
}

// UploadImage reçoit la photo jointe à un témoignage
func (rh *ReviewHandler) UploadImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier non trouvé"})
		return
	}
	defer file.Close()

	// Vérifier le type MIME
	buffer := make([]byte, 512)
	if _, err := file.Read(buffer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture fichier"})
		return
	}

	contentType := http.DetectContentType(buffer)
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le fichier doit être une image"})
		return
	}

	// Limiter la taille (ex: 10MB avant compression)
	if header.Size > 10*1024*1024 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image trop grande (max 10MB)"})
		return
	}

	// Réinitialiser le curseur du fichier
	file.Seek(0, 0)

	img, format, err := image.Decode(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur décodage image"})
		return
	}

	processed := vtimages.Resize(img, vtimages.MaxUploadWidth)

	filename, err := vtimages.Save(processed, format, rh.uploadsDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":      "/static/uploads/" + filename,
		"filename": filename,
		"format":   format,
	})
}

// ============= Modération (admin) =============

// List filtre les avis par statut (?status=pending|approved|rejected|all)
func (rh *ReviewHandler) List(c *gin.Context) {
	reviews, err := rh.service.ListByStatus(c.DefaultQuery("status", "pending"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews, "total": len(reviews)})
}

func (rh *ReviewHandler) Approve(c *gin.Context) {
	id, ok := reviewID(c)
	if !ok {
		return
	}

	if err := rh.service.Approve(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Avis publié"})
}

func (rh *ReviewHandler) Reject(c *gin.Context) {
	id, ok := reviewID(c)
	if !ok {
		return
	}

	if err := rh.service.Reject(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Avis rejeté"})
}

func (rh *ReviewHandler) Edit(c *gin.Context) {
	id, ok := reviewID(c)
	if !ok {
		return
	}

	var edit vtreviews.ApprovedEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide"})
		return
	}

	if err := rh.service.EditApproved(id, &edit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Avis modifié"})
}

func (rh *ReviewHandler) Delete(c *gin.Context) {
	id, ok := reviewID(c)
	if !ok {
		return
	}

	if err := rh.service.HardDelete(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Avis supprimé"})
}

func reviewID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant invalide"})
		return 0, false
	}
	return uint(id), true
}
