package testutil

import (
	"strings"
	"testing"
	"time"

	"pcoscare/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// CreateUser inserts a user with a random name and address. The password
// column holds a placeholder, not a bcrypt hash.
func CreateUser(t testing.TB, db *gorm.DB, isAdmin bool) *models.User {
	t.Helper()
	u := &models.User{
		Name:     gofakeit.Name(),
		Email:    strings.ToLower(gofakeit.Username() + "." + gofakeit.LetterN(6) + "@example.com"),
		Password: "not-a-hash",
		IsAdmin:  isAdmin,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// CreateExpert inserts a directory entry with the given specialty and location.
func CreateExpert(t testing.TB, db *gorm.DB, specialty, location string, rating float64) *models.Expert {
	t.Helper()
	e := &models.Expert{
		Name:         "Dr. " + gofakeit.LastName(),
		Specialty:    specialty,
		Location:     location,
		ContactEmail: gofakeit.Email(),
		Bio:          gofakeit.Sentence(12),
		Rating:       rating,
	}
	if err := db.Create(e).Error; err != nil {
		t.Fatalf("create expert: %v", err)
	}
	return e
}

// CreatePost inserts a post by userID in group.
func CreatePost(t testing.TB, db *gorm.DB, userID uint, group string) *models.Post {
	t.Helper()
	p := &models.Post{UserID: userID, Group: group, Content: gofakeit.Sentence(10)}
	if err := db.Omit("User").Create(p).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

// CreateEvent inserts an event on date with status.
func CreateEvent(t testing.TB, db *gorm.DB, date time.Time, status string) *models.Event {
	t.Helper()
	e := &models.Event{
		Title:       gofakeit.Sentence(4),
		Description: gofakeit.Paragraph(1, 2, 10, " "),
		Date:        date,
		EventType:   models.EventWebinar,
		Status:      status,
	}
	if err := db.Create(e).Error; err != nil {
		t.Fatalf("create event: %v", err)
	}
	return e
}

// FullScreening returns a screening vector with every feature present.
func FullScreening() models.ScreeningInput {
	var in models.ScreeningInput
	values := map[string]float64{
		"age": 28, "weight": 68, "height": 162, "bmi": 25.9, "pulseRate": 74,
		"respiratoryRate": 18, "hemoglobin": 11.8, "cycleRegularity": 0, "cycleLength": 6,
		"yearsMarried": 3, "pregnant": 0, "abortions": 0, "weightGain": 1, "hairGrowth": 1,
		"skinDarkening": 0, "hairLoss": 1, "pimples": 1, "fastFood": 1, "regularExercise": 0,
	}
	for _, f := range models.ScreeningFeatures {
		f.Set(&in, values[f.Name])
	}
	return in
}
