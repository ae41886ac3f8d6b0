package therapist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"therapylink_backend/internal/common"
	"therapylink_backend/internal/schedule"
	"therapylink_backend/internal/user"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BasicInfoUpdate carries the columns written by the basic-info step.
type BasicInfoUpdate struct {
	FirstName       string
	LastName        string
	Phone           string
	Bio             string
	Specialization  []string
	Experience      int
	Slug            string
	ProfilePhotoURL *string
}

// CredentialsUpdate carries the columns written by the credentials step.
type CredentialsUpdate struct {
	LicenseType              string
	LicenseNumber            string
	LicenseState             string
	ExpirationDate           time.Time
	LicenseDocumentURL       *string
	AdditionalCertifications []Certification
}

type Repository interface {
	Create(ctx context.Context, tx *gorm.DB, t *Therapist) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Therapist, error)
	FindByStripeAccountID(ctx context.Context, accountID string) (*Therapist, error)
	FindWithAvailability(ctx context.Context, id uuid.UUID) (*Therapist, error)
	ListPendingVerification(ctx context.Context) ([]Therapist, error)
	SlugTaken(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
	UpdateBasicInfo(ctx context.Context, t *Therapist, in BasicInfoUpdate) error
	UpdateCredentials(ctx context.Context, id uuid.UUID, in CredentialsUpdate) error
	ReplaceAvailability(ctx context.Context, id uuid.UUID, slots []schedule.Slot, hourlyRate float64) error
	SetStripeAccountID(ctx context.Context, id uuid.UUID, accountID string) error
	SetVerificationFlags(ctx context.Context, id uuid.UUID, complete bool) (changed bool, err error)
	DeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Create inserts t using tx so it can join the user-creation transaction.
func (r *gormRepository) Create(ctx context.Context, tx *gorm.DB, t *Therapist) error {
	if tx == nil {
		tx = r.db
	}
	if err := tx.WithContext(ctx).Omit(clause.Associations).Create(t).Error; err != nil {
		return fmt.Errorf("create therapist: %w", err)
	}
	return nil
}

func (r *gormRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*Therapist, error) {
	var t Therapist
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Therapist profile not found.")
		}
		return nil, fmt.Errorf("find therapist by user %s: %w", userID, err)
	}
	return &t, nil
}

func (r *gormRepository) FindByStripeAccountID(ctx context.Context, accountID string) (*Therapist, error) {
	var t Therapist
	err := r.db.WithContext(ctx).Where("stripe_account_id = ?", accountID).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("No therapist linked to this payment account.")
		}
		return nil, fmt.Errorf("find therapist by account %s: %w", accountID, err)
	}
	return &t, nil
}

// FindWithAvailability loads the therapist with slots ordered by day then
// start time.
func (r *gormRepository) FindWithAvailability(ctx context.Context, id uuid.UUID) (*Therapist, error) {
	var t Therapist
	err := r.db.WithContext(ctx).
		Preload("Availabilities", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week ASC, start_time ASC")
		}).
		Where("id = ?", id).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Therapist profile not found.")
		}
		return nil, fmt.Errorf("find therapist %s: %w", id, err)
	}
	return &t, nil
}

// ListPendingVerification returns therapists that started payment linking
// but are not yet complete.
func (r *gormRepository) ListPendingVerification(ctx context.Context) ([]Therapist, error) {
	var out []Therapist
	err := r.db.WithContext(ctx).
		Where("stripe_account_id IS NOT NULL AND onboarding_complete = ?", false).
		Order("updated_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list therapists pending verification: %w", err)
	}
	return out, nil
}

func (r *gormRepository) SlugTaken(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Therapist{}).
		Where("slug = ? AND id <> ?", slug, excludeID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check slug %q: %w", slug, err)
	}
	return count > 0, nil
}

// UpdateBasicInfo writes the user's name and the therapist's profile
// columns in one transaction.
func (r *gormRepository) UpdateBasicInfo(ctx context.Context, t *Therapist, in BasicInfoUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&user.User{}).Where("id = ?", t.UserID).Updates(map[string]interface{}{
			"first_name": in.FirstName,
			"last_name":  in.LastName,
		}).Error
		if err != nil {
			return fmt.Errorf("update user name: %w", err)
		}

		cols := map[string]interface{}{
			"phone":          in.Phone,
			"bio":            in.Bio,
			"specialization": datatypes.JSONSlice[string](in.Specialization),
			"experience":     in.Experience,
			"slug":           in.Slug,
		}
		if in.ProfilePhotoURL != nil {
			cols["profile_photo_url"] = *in.ProfilePhotoURL
		}
		if err := tx.Model(&Therapist{}).Where("id = ?", t.ID).Updates(cols).Error; err != nil {
			return fmt.Errorf("update therapist basic info: %w", err)
		}
		return nil
	})
}

func (r *gormRepository) UpdateCredentials(ctx context.Context, id uuid.UUID, in CredentialsUpdate) error {
	certs := in.AdditionalCertifications
	if certs == nil {
		certs = []Certification{}
	}
	expires := datatypes.Date(in.ExpirationDate)
	err := r.db.WithContext(ctx).Model(&Therapist{}).Where("id = ?", id).Updates(map[string]interface{}{
		"license_type":              in.LicenseType,
		"license_number":            in.LicenseNumber,
		"license_state":             in.LicenseState,
		"license_expiration_date":   &expires,
		"license_document_url":      in.LicenseDocumentURL,
		"additional_certifications": datatypes.JSONSlice[Certification](certs),
	}).Error
	if err != nil {
		return fmt.Errorf("update therapist credentials: %w", err)
	}
	return nil
}

// ReplaceAvailability swaps the full slot set and the hourly rate in one
// transaction, so readers never see a partial schedule.
func (r *gormRepository) ReplaceAvailability(ctx context.Context, id uuid.UUID, slots []schedule.Slot, hourlyRate float64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("therapist_id = ?", id).Delete(&Availability{}).Error; err != nil {
			return fmt.Errorf("delete availability: %w", err)
		}

		if len(slots) > 0 {
			rows := make([]Availability, 0, len(slots))
			for _, s := range slots {
				rows = append(rows, Availability{
					TherapistID: id,
					DayOfWeek:   s.DayOfWeek,
					StartTime:   s.StartTime,
					EndTime:     s.EndTime,
					IsAvailable: true,
				})
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("insert availability: %w", err)
			}
		}

		if err := tx.Model(&Therapist{}).Where("id = ?", id).Update("hourly_rate", hourlyRate).Error; err != nil {
			return fmt.Errorf("update hourly rate: %w", err)
		}
		return nil
	})
}

func (r *gormRepository) SetStripeAccountID(ctx context.Context, id uuid.UUID, accountID string) error {
	err := r.db.WithContext(ctx).Model(&Therapist{}).Where("id = ?", id).Update("stripe_account_id", accountID).Error
	if err != nil {
		return fmt.Errorf("store payment account id: %w", err)
	}
	return nil
}

// SetVerificationFlags writes all three verification flags from complete and
// reports whether is_active changed.
func (r *gormRepository) SetVerificationFlags(ctx context.Context, id uuid.UUID, complete bool) (bool, error) {
	var changed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current Therapist
		if err := tx.Select("id", "is_active").Where("id = ?", id).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.ErrNotFound.WithDetails("Therapist profile not found.")
			}
			return err
		}
		changed = current.IsActive != complete

		return tx.Model(&Therapist{}).Where("id = ?", id).Updates(map[string]interface{}{
			"stripe_onboarding_complete": complete,
			"onboarding_complete":        complete,
			"is_active":                  complete,
		}).Error
	})
	if err != nil {
		return false, fmt.Errorf("set verification flags: %w", err)
	}
	return changed, nil
}

// DeleteByUserID removes the therapist and its slots inside tx.
func (r *gormRepository) DeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	if tx == nil {
		tx = r.db
	}
	tx = tx.WithContext(ctx)
	sub := tx.Model(&Therapist{}).Select("id").Where("user_id = ?", userID)
	if err := tx.Where("therapist_id IN (?)", sub).Delete(&Availability{}).Error; err != nil {
		return fmt.Errorf("delete availability for user %s: %w", userID, err)
	}
	if err := tx.Where("user_id = ?", userID).Delete(&Therapist{}).Error; err != nil {
		return fmt.Errorf("delete therapist for user %s: %w", userID, err)
	}
	return nil
}
