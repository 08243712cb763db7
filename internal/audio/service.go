// Package audio は音声ファイルの管理に関するビジネスロジックを提供する。
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/otodana/internal/model"
	"github.com/hitoshi/otodana/internal/repository"
)

// FileStore は音声ファイル本体の保存先インターフェース。
// storage.LocalStoreの部分集合として定義する。
type FileStore interface {
	Save(userID, fileID string, r io.Reader) (int64, error)
	Open(userID, fileID string) (io.ReadCloser, error)
	Remove(userID, fileID string) error
}

// MetricsRecorder はアップロード関連メトリクスの記録インターフェース。
// nilの場合は記録をスキップする。
type MetricsRecorder interface {
	RecordUpload(bytes int64)
}

// Service は音声ファイルに関するビジネスロジックを提供する。
type Service struct {
	repo          repository.AudioFileRepository
	store         FileStore
	maxUploadSize int64
	metrics       MetricsRecorder
}

// NewService はServiceを生成する。metricsはnilを許容する。
func NewService(
	repo repository.AudioFileRepository,
	store FileStore,
	maxUploadSize int64,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		repo:          repo,
		store:         store,
		maxUploadSize: maxUploadSize,
		metrics:       metrics,
	}
}

// Upload は音声ファイルを保存し、メタデータレコードを作成する。
// Content-Typeがaudio/で始まらない場合、サイズ上限を超える場合は拒否する。
// ディスク書き込み後のレコード作成に失敗した場合は書き込んだファイルを削除する。
func (s *Service) Upload(ctx context.Context, ownerID, filename, contentType string, r io.Reader) (*model.AudioFile, error) {
	if !strings.HasPrefix(contentType, "audio/") {
		return nil, model.NewInvalidFileTypeError(contentType)
	}
	if filename == "" {
		return nil, model.NewInvalidRequestError("ファイル名が指定されていません")
	}

	fileID := uuid.New().String()

	// 上限+1バイトまで読み、超過を検出する
	written, err := s.store.Save(ownerID, fileID, io.LimitReader(r, s.maxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}
	if written > s.maxUploadSize {
		s.removeStored(ownerID, fileID)
		return nil, model.NewFileTooLargeError(s.maxUploadSize)
	}

	now := time.Now()
	file := &model.AudioFile{
		ID:        fileID,
		Filename:  filename,
		UserID:    ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, file); err != nil {
		// レコードのないファイルを残さない
		s.removeStored(ownerID, fileID)
		return nil, fmt.Errorf("failed to create audio file record: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordUpload(written)
	}

	slog.Info("audio file uploaded",
		slog.String("file_id", fileID),
		slog.String("user_id", ownerID),
		slog.Int64("bytes", written),
	)

	return file, nil
}

// List は全音声ファイルの一覧を返す。
func (s *Service) List(ctx context.Context) ([]*model.AudioFile, error) {
	files, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list audio files: %w", err)
	}
	return files, nil
}

// ListByOwner は指定ユーザーが所有する音声ファイルの一覧を返す。
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]*model.AudioFile, error) {
	files, err := s.repo.ListByUserID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audio files by owner: %w", err)
	}
	return files, nil
}

// Get は指定IDの音声ファイルメタデータを取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.AudioFile, error) {
	file, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find audio file: %w", err)
	}
	if file == nil {
		return nil, model.NewFileNotFoundError(id)
	}
	return file, nil
}

// Download は音声ファイルのメタデータと本体の読み取りストリームを返す。
// 呼び出し側がストリームをCloseする責任を持つ。
// レコードはあるがディスク上にファイルがない場合もFileNotFoundを返し、詳細はログに残す。
func (s *Service) Download(ctx context.Context, id string) (*model.AudioFile, io.ReadCloser, error) {
	file, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.store.Open(file.UserID, file.ID)
	if err != nil {
		slog.Error("音声ファイル本体のオープンに失敗しました",
			slog.String("file_id", file.ID),
			slog.String("user_id", file.UserID),
			slog.String("error", err.Error()),
		)
		return nil, nil, model.NewFileNotFoundError(id)
	}

	return file, rc, nil
}

// Rename はファイル名を変更し、更新後のメタデータを返す。
func (s *Service) Rename(ctx context.Context, id, filename string) (*model.AudioFile, error) {
	if filename == "" {
		return nil, model.NewInvalidRequestError("ファイル名が指定されていません")
	}

	if err := s.repo.UpdateFilename(ctx, id, filename); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewFileNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to rename audio file: %w", err)
	}

	return s.Get(ctx, id)
}

// Delete は音声ファイルを削除する。
// レコードを先に削除し、ディスク上のファイル削除はベストエフォートで行う。
// ファイル削除の失敗はログに残すのみで、孤児ファイルはワーカーが回収する。
func (s *Service) Delete(ctx context.Context, id string) error {
	file, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find audio file: %w", err)
	}
	if file == nil {
		return model.NewFileNotFoundError(id)
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewFileNotFoundError(id)
		}
		return fmt.Errorf("failed to delete audio file record: %w", err)
	}

	s.removeStored(file.UserID, id)

	slog.Info("audio file deleted",
		slog.String("file_id", id),
		slog.String("user_id", file.UserID),
	)

	return nil
}

func (s *Service) removeStored(userID, fileID string) {
	if err := s.store.Remove(userID, fileID); err != nil {
		slog.Error("failed to remove stored file",
			slog.String("file_id", fileID),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}
