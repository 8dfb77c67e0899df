package vtcontacts

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type ContactEnquiry struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Phone     string    `json:"phone" gorm:"type:varchar(30)"`
	Email     string    `json:"email" gorm:"type:varchar(255)"`
	Service   string    `json:"service"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	Status    string    `json:"status" gorm:"default:new"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (ContactEnquiry) TableName() string {
	return "contact_enquiries"
}

// legacyEnquiry double le modèle sur l'ancienne table `enquiries`,
// utilisée en secours si l'insertion principale échoue
type legacyEnquiry struct {
	ContactEnquiry
}

func (legacyEnquiry) TableName() string {
	return "enquiries"
}

var (
	nameRe  = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	phoneRe = regexp.MustCompile(`^[0-9+\-\s()]{6,20}$`)
)

type ContactService struct {
	DB *gorm.DB
}

func NewContactService(db *gorm.DB) *ContactService {
	return &ContactService{
		DB: db,
	}
}

// Validate vérifie le formulaire avant toute écriture en base
func (e *ContactEnquiry) Validate() error {
	if !nameRe.MatchString(strings.TrimSpace(e.Name)) {
		return fmt.Errorf("le nom ne doit contenir que des lettres")
	}
	if !phoneRe.MatchString(strings.TrimSpace(e.Phone)) {
		return fmt.Errorf("le numéro de téléphone est invalide")
	}
	if len(strings.TrimSpace(e.Message)) < 10 {
		return fmt.Errorf("le message doit comporter au moins 10 caractères")
	}
	return nil
}

// Submit valide puis enregistre une demande de contact. Si la table
// principale refuse l'insertion, on retente sur l'ancienne table
// `enquiries` encore présente sur certains déploiements
func (cs *ContactService) Submit(enquiry *ContactEnquiry) error {
	if err := enquiry.Validate(); err != nil {
		return err
	}

	enquiry.Name = strings.TrimSpace(enquiry.Name)
	enquiry.Phone = strings.TrimSpace(enquiry.Phone)
	enquiry.Message = strings.TrimSpace(enquiry.Message)
	if enquiry.Status == "" {
		enquiry.Status = "new"
	}

	err := cs.DB.Create(enquiry).Error
	if err == nil {
		return nil
	}

	log.Warn().Err(err).Msg("Insertion contact_enquiries échouée, bascule sur enquiries")

	legacy := legacyEnquiry{ContactEnquiry: *enquiry}
	legacy.ID = 0
	if err := cs.DB.Create(&legacy).Error; err != nil {
		return fmt.Errorf("error creating enquiry: %w", err)
	}
	enquiry.ID = legacy.ID

	return nil
}

// List retourne toutes les demandes, les plus récentes d'abord
func (cs *ContactService) List() ([]ContactEnquiry, error) {
	var enquiries []ContactEnquiry
	err := cs.DB.Order("created_at DESC").Find(&enquiries).Error
	return enquiries, err
}

// UpdateStatus change librement le statut d'une demande
func (cs *ContactService) UpdateStatus(id uint, status string) error {
	if strings.TrimSpace(status) == "" {
		return fmt.Errorf("le statut est obligatoire")
	}

	result := cs.DB.Model(&ContactEnquiry{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("error updating enquiry %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("aucune demande avec l'id %d", id)
	}
	return nil
}

// Delete supprime une demande
func (cs *ContactService) Delete(id uint) error {
	result := cs.DB.Delete(&ContactEnquiry{}, id)
	if result.Error != nil {
		return fmt.Errorf("error deleting enquiry %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("aucune demande avec l'id %d", id)
	}
	return nil
}
