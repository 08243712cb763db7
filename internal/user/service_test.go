package user

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/otodana/internal/model"
	"github.com/hitoshi/otodana/internal/repository"
)

type mockUserRepository struct {
	findByIDFunc       func(ctx context.Context, id string) (*model.User, error)
	findByYandexIDFunc func(ctx context.Context, yandexID string) (*model.User, error)
	createFunc         func(ctx context.Context, user *model.User) error
	updateFunc         func(ctx context.Context, user *model.User) error
	listFunc           func(ctx context.Context) ([]*model.User, error)
	deleteByIDFunc     func(ctx context.Context, id string) error
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockUserRepository) FindByYandexID(ctx context.Context, yandexID string) (*model.User, error) {
	return m.findByYandexIDFunc(ctx, yandexID)
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	return m.createFunc(ctx, user)
}

func (m *mockUserRepository) Update(ctx context.Context, user *model.User) error {
	return m.updateFunc(ctx, user)
}

func (m *mockUserRepository) List(ctx context.Context) ([]*model.User, error) {
	return m.listFunc(ctx)
}

func (m *mockUserRepository) DeleteByID(ctx context.Context, id string) error {
	return m.deleteByIDFunc(ctx, id)
}

type mockUserDirRemover struct {
	removeUserDirFunc func(userID string) error
}

func (m *mockUserDirRemover) RemoveUserDir(userID string) error {
	return m.removeUserDirFunc(userID)
}

type passThroughSanitizer struct{}

func (passThroughSanitizer) Sanitize(raw string) string { return raw }

var (
	_ repository.UserRepository = (*mockUserRepository)(nil)
	_ UserDirRemover            = (*mockUserDirRemover)(nil)
	_ NameSanitizer             = passThroughSanitizer{}
)

func strPtr(s string) *string { return &s }

// 存在しないユーザーのGetがUSER_NOT_FOUNDを返すことを検証
func TestService_Get_NotFound(t *testing.T) {
	repo := &mockUserRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return nil, nil
		},
	}

	service := NewService(repo, &mockUserDirRemover{}, passThroughSanitizer{})

	_, err := service.Get(context.Background(), "missing")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("error = %v, want USER_NOT_FOUND", err)
	}
}

// nilのフィールドが既存値を維持することを検証
func TestService_UpdateProfile_PartialUpdate(t *testing.T) {
	tests := []struct {
		name      string
		update    ProfileUpdate
		wantName  string
		wantEmail string
	}{
		{
			"名前のみ更新",
			ProfileUpdate{Name: strPtr("New Name")},
			"New Name",
			"old@example.com",
		},
		{
			"メールのみ更新",
			ProfileUpdate{Email: strPtr("new@example.com")},
			"Old Name",
			"new@example.com",
		},
		{
			"両方更新",
			ProfileUpdate{Name: strPtr("New Name"), Email: strPtr("new@example.com")},
			"New Name",
			"new@example.com",
		},
		{
			"どちらも更新しない",
			ProfileUpdate{},
			"Old Name",
			"old@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockUserRepository{
				findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
					return &model.User{ID: id, Name: "Old Name", Email: "old@example.com"}, nil
				},
				updateFunc: func(ctx context.Context, user *model.User) error {
					return nil
				},
			}

			service := NewService(repo, &mockUserDirRemover{}, passThroughSanitizer{})

			got, err := service.UpdateProfile(context.Background(), "user-1", tt.update)
			if err != nil {
				t.Fatalf("UpdateProfile failed: %v", err)
			}
			if got.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", got.Name, tt.wantName)
			}
			if got.Email != tt.wantEmail {
				t.Errorf("Email = %q, want %q", got.Email, tt.wantEmail)
			}
		})
	}
}

type upperSanitizer struct{}

func (upperSanitizer) Sanitize(raw string) string { return "SANITIZED" }

// 更新される表示名がサニタイズを通ることを検証
func TestService_UpdateProfile_SanitizesName(t *testing.T) {
	var saved *model.User
	repo := &mockUserRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
		updateFunc: func(ctx context.Context, user *model.User) error {
			saved = user
			return nil
		},
	}

	service := NewService(repo, &mockUserDirRemover{}, upperSanitizer{})

	if _, err := service.UpdateProfile(context.Background(), "user-1", ProfileUpdate{Name: strPtr("<b>x</b>")}); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if saved == nil || saved.Name != "SANITIZED" {
		t.Errorf("saved name = %v, want SANITIZED", saved)
	}
}

// 削除がレコードを先に消し、アップロードディレクトリも削除することを検証
func TestService_Delete(t *testing.T) {
	recordDeleted := false
	repo := &mockUserRepository{
		deleteByIDFunc: func(ctx context.Context, id string) error {
			recordDeleted = true
			return nil
		},
	}

	dirRemoved := false
	store := &mockUserDirRemover{
		removeUserDirFunc: func(userID string) error {
			if !recordDeleted {
				t.Error("the record must be deleted before the upload directory is removed")
			}
			if userID != "user-1" {
				t.Errorf("RemoveUserDir called with %q, want user-1", userID)
			}
			dirRemoved = true
			return nil
		},
	}

	service := NewService(repo, store, passThroughSanitizer{})

	if err := service.Delete(context.Background(), "user-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !dirRemoved {
		t.Error("upload directory must be removed")
	}
}

// ディレクトリ削除に失敗してもDeleteが成功することを検証
func TestService_Delete_DirRemovalFailureIsNotFatal(t *testing.T) {
	repo := &mockUserRepository{
		deleteByIDFunc: func(ctx context.Context, id string) error {
			return nil
		},
	}
	store := &mockUserDirRemover{
		removeUserDirFunc: func(userID string) error {
			return errors.New("disk error")
		},
	}

	service := NewService(repo, store, passThroughSanitizer{})

	if err := service.Delete(context.Background(), "user-1"); err != nil {
		t.Errorf("Delete must not fail when directory removal fails: %v", err)
	}
}

// 存在しないユーザーのDeleteがUSER_NOT_FOUNDを返すことを検証
func TestService_Delete_NotFound(t *testing.T) {
	repo := &mockUserRepository{
		deleteByIDFunc: func(ctx context.Context, id string) error {
			return repository.ErrNotFound
		},
	}
	store := &mockUserDirRemover{
		removeUserDirFunc: func(userID string) error {
			t.Error("RemoveUserDir must not be called for a missing user")
			return nil
		},
	}

	service := NewService(repo, store, passThroughSanitizer{})

	err := service.Delete(context.Background(), "missing")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("error = %v, want USER_NOT_FOUND", err)
	}
}
