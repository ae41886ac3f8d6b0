package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"therapylink_backend/internal/common"
	"therapylink_backend/internal/schedule"
	"therapylink_backend/internal/therapist"
	"therapylink_backend/internal/user"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fatih/color"
	"github.com/gosimple/slug"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var seedSpecializations = []string{"anxiety", "depression", "trauma", "couples", "addiction", "grief", "adhd"}

var seedLicenseTypes = []string{"LCSW", "LMFT", "LPC", "PsyD"}

// runSeed creates count fully onboarded therapists with Mon-Fri 09:00-17:00
// availability.
func runSeed(ctx context.Context, db *gorm.DB, count int, out io.Writer) error {
	ok := color.New(color.FgGreen).SprintFunc()
	info := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintf(out, "%s seeding %d therapists\n", info("->"), count)

	week := schedule.New()
	week["monday"] = schedule.DaySchedule{Enabled: true, TimeBlocks: []schedule.TimeBlock{schedule.DefaultTimeBlock}}
	week.ApplyToWeekdays()
	slots := week.Slots()

	for i := 0; i < count; i++ {
		first, last := gofakeit.FirstName(), gofakeit.LastName()
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			u := &user.User{
				FirebaseUID: "seed_" + gofakeit.UUID(),
				Email:       gofakeit.Email(),
				FirstName:   first,
				LastName:    last,
				Role:        common.RoleTherapist,
			}
			if err := tx.Create(u).Error; err != nil {
				return fmt.Errorf("create user: %w", err)
			}

			spec := seedSpecializations[gofakeit.Number(0, len(seedSpecializations)-1)]
			license := seedLicenseTypes[gofakeit.Number(0, len(seedLicenseTypes)-1)]
			slugValue := slug.Make(fmt.Sprintf("%s %s %s", first, last, u.ID.String()[:8]))
			accountID := "acct_seed_" + gofakeit.LetterN(12)
			expires := datatypes.Date(time.Now().AddDate(2, 0, 0))
			t := &therapist.Therapist{
				UserID:                   u.ID,
				Slug:                     &slugValue,
				Phone:                    gofakeit.Numerify("(###) ###-####"),
				Bio:                      fmt.Sprintf("%s %s is a licensed %s in %s who works with adults on %s and related concerns.", first, last, license, gofakeit.City(), spec),
				Specialization:           datatypes.JSONSlice[string]{spec},
				Experience:               gofakeit.Number(1, 30),
				LicenseType:              license,
				LicenseNumber:            gofakeit.Regex("[A-Z]{2}[0-9]{5}"),
				LicenseState:             gofakeit.StateAbr(),
				LicenseExpirationDate:    &expires,
				AdditionalCertifications: datatypes.JSONSlice[therapist.Certification]{},
				HourlyRate:               float64(gofakeit.Number(80, 220)),
				StripeAccountID:          &accountID,
				StripeOnboardingComplete: true,
				OnboardingComplete:       true,
				IsActive:                 true,
			}
			if err := tx.Create(t).Error; err != nil {
				return fmt.Errorf("create therapist: %w", err)
			}

			rows := make([]therapist.Availability, 0, len(slots))
			for _, s := range slots {
				rows = append(rows, therapist.Availability{
					TherapistID: t.ID,
					DayOfWeek:   s.DayOfWeek,
					StartTime:   s.StartTime,
					EndTime:     s.EndTime,
					IsAvailable: true,
				})
			}
			return tx.Create(&rows).Error
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s %s\n", ok("created"), first, last)
	}

	fmt.Fprintf(out, "%s seed complete\n", ok("ok"))
	return nil
}
