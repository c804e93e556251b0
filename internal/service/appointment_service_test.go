package service

import (
	"context"
	"testing"

	"pcoscare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expertsWith(ids ...uint) *expertRepoStub {
	return &expertRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.Expert, error) {
			for _, known := range ids {
				if known == id {
					return &models.Expert{ID: id, Name: "Dr. Rao"}, nil
				}
			}
			return nil, models.NewNotFoundError("Expert", id)
		},
	}
}

// memAppointments is an in-memory AppointmentRepository with real
// compare-and-set semantics.
func memAppointments() *appointmentRepoStub {
	rows := map[uint]*models.Appointment{}
	var next uint
	return &appointmentRepoStub{
		createFn: func(_ context.Context, a *models.Appointment) error {
			next++
			a.ID = next
			cp := *a
			rows[a.ID] = &cp
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Appointment, error) {
			a, ok := rows[id]
			if !ok {
				return nil, models.NewNotFoundError("Appointment", id)
			}
			cp := *a
			return &cp, nil
		},
		compareAndSet: func(_ context.Context, id uint, from, to models.AppointmentStatus) (bool, error) {
			a, ok := rows[id]
			if !ok || a.Status != from {
				return false, nil
			}
			a.Status = to
			return true, nil
		},
	}
}

func TestAppointmentService_Book(t *testing.T) {
	user := &models.User{ID: 5, Name: "Asha", Email: "asha@example.com"}
	svc := NewAppointmentService(memAppointments(), expertsWith(1))

	appt, err := svc.Book(context.Background(), BookAppointmentInput{
		User:     user,
		ExpertID: 1,
		Date:     "2026-11-02",
		TimeSlot: " 10:00 AM ",
		Notes:    "first visit",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentPending, appt.Status)
	assert.Equal(t, "Asha", appt.UserName)
	assert.Equal(t, "asha@example.com", appt.UserEmail)
	assert.Equal(t, "10:00 AM", appt.TimeSlot)
}

func TestAppointmentService_Book_Validation(t *testing.T) {
	user := &models.User{ID: 5, Name: "Asha", Email: "asha@example.com"}
	svc := NewAppointmentService(memAppointments(), expertsWith(1))

	tests := []struct {
		name string
		in   BookAppointmentInput
		code string
	}{
		{"missing time slot", BookAppointmentInput{User: user, ExpertID: 1, Date: "2026-11-02"}, models.CodeValidation},
		{"missing expert", BookAppointmentInput{User: user, Date: "2026-11-02", TimeSlot: "9:00"}, models.CodeValidation},
		{"bad date", BookAppointmentInput{User: user, ExpertID: 1, Date: "02/11/2026", TimeSlot: "9:00"}, models.CodeValidation},
		{"unknown expert", BookAppointmentInput{User: user, ExpertID: 99, Date: "2026-11-02", TimeSlot: "9:00"}, models.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Book(context.Background(), tt.in)
			assertAppErrorCode(t, err, tt.code)
		})
	}
}

func TestAppointmentService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: 5, Name: "Asha", Email: "asha@example.com"}

	book := func(t *testing.T, svc *AppointmentService) uint {
		t.Helper()
		appt, err := svc.Book(ctx, BookAppointmentInput{User: user, ExpertID: 1, Date: "2026-11-02", TimeSlot: "9:00"})
		require.NoError(t, err)
		return appt.ID
	}

	t.Run("pending to confirmed to completed", func(t *testing.T) {
		svc := NewAppointmentService(memAppointments(), expertsWith(1))
		id := book(t, svc)

		appt, err := svc.UpdateStatus(ctx, id, "Confirmed")
		require.NoError(t, err)
		assert.Equal(t, models.AppointmentConfirmed, appt.Status)

		appt, err = svc.UpdateStatus(ctx, id, "Completed")
		require.NoError(t, err)
		assert.Equal(t, models.AppointmentCompleted, appt.Status)
	})

	t.Run("terminal states reject changes", func(t *testing.T) {
		svc := NewAppointmentService(memAppointments(), expertsWith(1))
		id := book(t, svc)

		_, err := svc.UpdateStatus(ctx, id, "Cancelled")
		require.NoError(t, err)

		_, err = svc.UpdateStatus(ctx, id, "Confirmed")
		assertAppErrorCode(t, err, models.CodeConflict)
		assert.Contains(t, err.Error(), "from Cancelled to Confirmed")
	})

	t.Run("pending cannot complete", func(t *testing.T) {
		svc := NewAppointmentService(memAppointments(), expertsWith(1))
		id := book(t, svc)

		_, err := svc.UpdateStatus(ctx, id, "Completed")
		assertAppErrorCode(t, err, models.CodeConflict)
	})

	t.Run("unknown status", func(t *testing.T) {
		svc := NewAppointmentService(memAppointments(), expertsWith(1))
		id := book(t, svc)

		_, err := svc.UpdateStatus(ctx, id, "Rescheduled")
		assertValidationError(t, err)
	})

	t.Run("unknown appointment", func(t *testing.T) {
		svc := NewAppointmentService(memAppointments(), expertsWith(1))
		_, err := svc.UpdateStatus(ctx, 404, "Confirmed")
		assertAppErrorCode(t, err, models.CodeNotFound)
	})

	t.Run("lost race", func(t *testing.T) {
		repo := memAppointments()
		repo.compareAndSet = func(context.Context, uint, models.AppointmentStatus, models.AppointmentStatus) (bool, error) {
			return false, nil
		}
		svc := NewAppointmentService(repo, expertsWith(1))
		id := book(t, svc)

		_, err := svc.UpdateStatus(ctx, id, "Confirmed")
		assertAppErrorCode(t, err, models.CodeConflict)
		assert.Contains(t, err.Error(), "changed by another request")
	})
}
