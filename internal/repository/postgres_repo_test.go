package repository

import (
	"testing"
)

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

// PostgresAudioFileRepoはAudioFileRepositoryインターフェースを満たすことを検証
func TestPostgresAudioFileRepo_ImplementsInterface(t *testing.T) {
	var _ AudioFileRepository = (*PostgresAudioFileRepo)(nil)
}

// NewPostgresUserRepoが正しく初期化されることを検証
func TestNewPostgresUserRepo_Initializes(t *testing.T) {
	repo := NewPostgresUserRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresAudioFileRepoが正しく初期化されることを検証
func TestNewPostgresAudioFileRepo_Initializes(t *testing.T) {
	repo := NewPostgresAudioFileRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}
