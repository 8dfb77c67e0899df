package vtreviews

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Statuts possibles d'un avis. Les transitions autorisées sont
// pending → approved et pending → rejected, jamais le retour
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Review struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Company   string    `json:"company"`
	Email     string    `json:"email" gorm:"type:varchar(255)"`
	Phone     string    `json:"phone" gorm:"type:varchar(30)"`
	Rating    int       `json:"rating" gorm:"not null"`
	Services  string    `json:"services" gorm:"type:text"`
	Review    string    `json:"review" gorm:"type:text;not null"`
	ImageURL  string    `json:"image_url"`
	Status    string    `json:"status" gorm:"default:pending;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Review) TableName() string {
	return "pending_reviews"
}

type ReviewService struct {
	DB *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{
		DB: db,
	}
}

// Submission porte les champs acceptés du formulaire public
type Submission struct {
	Name     string   `json:"name"`
	Company  string   `json:"company"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Rating   int      `json:"rating"`
	Services []string `json:"services"`
	Review   string   `json:"review"`
	ImageURL string   `json:"image_url"`
}

// Validate vérifie les champs obligatoires du formulaire
func (s *Submission) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("le nom est obligatoire")
	}
	if strings.TrimSpace(s.Email) == "" {
		return fmt.Errorf("l'email est obligatoire")
	}
	if s.Rating < 1 || s.Rating > 5 {
		return fmt.Errorf("la note doit être comprise entre 1 et 5")
	}
	if strings.TrimSpace(s.Review) == "" {
		return fmt.Errorf("le témoignage est obligatoire")
	}
	return nil
}

// Submit crée un avis en attente de modération
func (rs *ReviewService) Submit(sub *Submission) (*Review, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	review := &Review{
		Name:     strings.TrimSpace(sub.Name),
		Company:  strings.TrimSpace(sub.Company),
		Email:    strings.TrimSpace(sub.Email),
		Phone:    strings.TrimSpace(sub.Phone),
		Rating:   sub.Rating,
		Services: strings.Join(sub.Services, ", "),
		Review:   strings.TrimSpace(sub.Review),
		ImageURL: sub.ImageURL,
		Status:   StatusPending,
	}

	if err := rs.DB.Create(review).Error; err != nil {
		return nil, fmt.Errorf("error creating review: %w", err)
	}

	return review, nil
}

// ListPending retourne les avis en attente, les plus récents d'abord
func (rs *ReviewService) ListPending() ([]Review, error) {
	var reviews []Review
	err := rs.DB.Where("status = ?", StatusPending).
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}

// ListApproved retourne les avis publiés, les plus récents d'abord
func (rs *ReviewService) ListApproved() ([]Review, error) {
	var reviews []Review
	err := rs.DB.Where("status = ?", StatusApproved).
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}

// ListByStatus filtre sur un statut donné, ou tout si status vaut "all"
func (rs *ReviewService) ListByStatus(status string) ([]Review, error) {
	query := rs.DB.Order("created_at DESC")
	switch status {
	case StatusPending, StatusApproved, StatusRejected:
		query = query.Where("status = ?", status)
	case "", "all":
		// pas de filtre
	default:
		return nil, fmt.Errorf("statut inconnu: %s", status)
	}

	var reviews []Review
	err := query.Find(&reviews).Error
	return reviews, err
}

// Approve publie un avis en attente. Le filtre sur le statut garantit
// qu'un avis rejeté ou déjà publié n'est jamais re-transitionné
func (rs *ReviewService) Approve(id uint) error {
	return rs.transition(id, StatusApproved)
}

// Reject écarte un avis en attente
func (rs *ReviewService) Reject(id uint) error {
	return rs.transition(id, StatusRejected)
}

func (rs *ReviewService) transition(id uint, newStatus string) error {
	result := rs.DB.Model(&Review{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Update("status", newStatus)
	if result.Error != nil {
		return fmt.Errorf("error updating review %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("aucun avis en attente avec l'id %d", id)
	}
	return nil
}

// ApprovedEdit porte les seuls champs modifiables après publication.
// L'email et la photo ne sont jamais retouchés par ce chemin
type ApprovedEdit struct {
	Name     string   `json:"name"`
	Company  string   `json:"company"`
	Rating   int      `json:"rating"`
	Services []string `json:"services"`
	Review   string   `json:"review"`
}

// EditApproved modifie un avis déjà publié
func (rs *ReviewService) EditApproved(id uint, edit *ApprovedEdit) error {
	if strings.TrimSpace(edit.Name) == "" {
		return fmt.Errorf("le nom est obligatoire")
	}
	if edit.Rating < 1 || edit.Rating > 5 {
		return fmt.Errorf("la note doit être comprise entre 1 et 5")
	}

	result := rs.DB.Model(&Review{}).
		Where("id = ? AND status = ?", id, StatusApproved).
		Updates(map[string]interface{}{
			"name":     strings.TrimSpace(edit.Name),
			"company":  strings.TrimSpace(edit.Company),
			"rating":   edit.Rating,
			"services": strings.Join(edit.Services, ", "),
			"review":   strings.TrimSpace(edit.Review),
		})
	if result.Error != nil {
		return fmt.Errorf("error editing review %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("aucun avis publié avec l'id %d", id)
	}
	return nil
}

// HardDelete supprime définitivement un avis, quel que soit son statut
func (rs *ReviewService) HardDelete(id uint) error {
	result := rs.DB.Delete(&Review{}, id)
	if result.Error != nil {
		return fmt.Errorf("error deleting review %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("aucun avis avec l'id %d", id)
	}
	return nil
}
