package service

import (
	"context"
	"errors"
	"testing"

	"pcoscare/internal/assistant"
	"pcoscare/internal/mlclient"
	"pcoscare/internal/models"
	"pcoscare/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn     func(context.Context, *models.Post) error
	getByIDFn    func(context.Context, uint, uint) (*models.Post, error)
	listFn       func(context.Context, string, int, int, uint) ([]*models.Post, int64, error)
	updateFn     func(context.Context, *models.Post) error
	deleteFn     func(context.Context, uint) error
	isLikedFn    func(context.Context, uint, uint) (bool, error)
	likeFn       func(context.Context, uint, uint) (bool, error)
	unlikeFn     func(context.Context, uint, uint) error
	countLikesFn func(context.Context, uint) (int64, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, currentUserID)
}
func (s *postRepoStub) List(ctx context.Context, group string, limit, offset int, currentUserID uint) ([]*models.Post, int64, error) {
	return s.listFn(ctx, group, limit, offset, currentUserID)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	return s.isLikedFn(ctx, userID, postID)
}
func (s *postRepoStub) Like(ctx context.Context, userID, postID uint) (bool, error) {
	return s.likeFn(ctx, userID, postID)
}
func (s *postRepoStub) Unlike(ctx context.Context, userID, postID uint) error {
	return s.unlikeFn(ctx, userID, postID)
}
func (s *postRepoStub) CountLikes(ctx context.Context, postID uint) (int64, error) {
	return s.countLikesFn(ctx, postID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:  func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn: func(_ context.Context, id, _ uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listFn: func(_ context.Context, _ string, _, _ int, _ uint) ([]*models.Post, int64, error) {
			return []*models.Post{}, 0, nil
		},
		updateFn:     func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:     func(_ context.Context, _ uint) error { return nil },
		isLikedFn:    func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		likeFn:       func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		unlikeFn:     func(_ context.Context, _, _ uint) error { return nil },
		countLikesFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	listByPostFn func(context.Context, uint) ([]*models.Comment, error)
	deleteFn     func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn:    func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		listByPostFn: func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
		deleteFn:     func(_ context.Context, _ uint) error { return nil },
	}
}

// predictionRepoStub is a stub for repository.PredictionRepository.
type predictionRepoStub struct {
	createFn       func(context.Context, *models.Prediction) error
	getForUserFn   func(context.Context, uint, uint) (*models.Prediction, error)
	listByUserFn   func(context.Context, uint) ([]models.Prediction, error)
	setReportURLFn func(context.Context, uint, string) error
}

func (s *predictionRepoStub) Create(ctx context.Context, p *models.Prediction) error {
	return s.createFn(ctx, p)
}
func (s *predictionRepoStub) GetForUser(ctx context.Context, id, userID uint) (*models.Prediction, error) {
	return s.getForUserFn(ctx, id, userID)
}
func (s *predictionRepoStub) ListByUser(ctx context.Context, userID uint) ([]models.Prediction, error) {
	return s.listByUserFn(ctx, userID)
}
func (s *predictionRepoStub) SetReportURL(ctx context.Context, id uint, url string) error {
	return s.setReportURLFn(ctx, id, url)
}

// appointmentRepoStub is a stub for repository.AppointmentRepository.
type appointmentRepoStub struct {
	createFn       func(context.Context, *models.Appointment) error
	getByIDFn      func(context.Context, uint) (*models.Appointment, error)
	listByUserFn   func(context.Context, uint) ([]models.Appointment, error)
	listAllFn      func(context.Context) ([]models.Appointment, error)
	compareAndSet  func(context.Context, uint, models.AppointmentStatus, models.AppointmentStatus) (bool, error)
}

func (s *appointmentRepoStub) Create(ctx context.Context, a *models.Appointment) error {
	return s.createFn(ctx, a)
}
func (s *appointmentRepoStub) GetByID(ctx context.Context, id uint) (*models.Appointment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *appointmentRepoStub) ListByUser(ctx context.Context, userID uint) ([]models.Appointment, error) {
	return s.listByUserFn(ctx, userID)
}
func (s *appointmentRepoStub) ListAll(ctx context.Context) ([]models.Appointment, error) {
	return s.listAllFn(ctx)
}
func (s *appointmentRepoStub) CompareAndSetStatus(ctx context.Context, id uint, from, to models.AppointmentStatus) (bool, error) {
	return s.compareAndSet(ctx, id, from, to)
}

// expertRepoStub is a stub for repository.ExpertRepository.
type expertRepoStub struct {
	getByIDFn func(context.Context, uint) (*models.Expert, error)
}

func (s *expertRepoStub) List(_ context.Context, _ repository.ExpertFilter) ([]models.Expert, error) {
	return nil, nil
}
func (s *expertRepoStub) GetByID(ctx context.Context, id uint) (*models.Expert, error) {
	return s.getByIDFn(ctx, id)
}
func (s *expertRepoStub) Create(_ context.Context, _ *models.Expert) error { return nil }
func (s *expertRepoStub) Update(_ context.Context, _ *models.Expert) error { return nil }
func (s *expertRepoStub) Delete(_ context.Context, _ uint) error           { return nil }

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn    func(context.Context, uint) (*models.User, error)
	getByEmailFn func(context.Context, string) (*models.User, error)
	setAdminFn   func(context.Context, uint, bool) error
	listAdmins   func(context.Context) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(_ context.Context, _ *models.User) error { return nil }
func (s *userRepoStub) Update(_ context.Context, _ *models.User) error { return nil }
func (s *userRepoStub) SetAdmin(ctx context.Context, id uint, isAdmin bool) error {
	return s.setAdminFn(ctx, id, isAdmin)
}
func (s *userRepoStub) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.listAdmins(ctx)
}

// screenerStub is a stub for the inference service.
type screenerStub struct {
	predictFn func(context.Context, *models.ScreeningInput) (*mlclient.PredictResult, error)
	reportFn  func(context.Context, mlclient.ReportRequest) ([]byte, error)
	calls     int
}

func (s *screenerStub) Predict(ctx context.Context, in *models.ScreeningInput) (*mlclient.PredictResult, error) {
	s.calls++
	return s.predictFn(ctx, in)
}
func (s *screenerStub) GenerateReport(ctx context.Context, req mlclient.ReportRequest) ([]byte, error) {
	s.calls++
	return s.reportFn(ctx, req)
}

// generatorStub records the transcript it was given.
type generatorStub struct {
	reply string
	err   error
	turns []assistant.Turn
}

func (g *generatorStub) Generate(ctx context.Context, turns []assistant.Turn) (string, error) {
	g.turns = turns
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return g.reply, g.err
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeValidation)
}

func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeForbidden)
}

func isAdminFn(admins ...uint) func(context.Context, uint) (bool, error) {
	return func(_ context.Context, userID uint) (bool, error) {
		for _, id := range admins {
			if id == userID {
				return true, nil
			}
		}
		return false, nil
	}
}
