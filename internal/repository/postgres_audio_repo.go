package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/otodana/internal/model"
)

// PostgresAudioFileRepo はPostgreSQLを使用した音声ファイルリポジトリ。
type PostgresAudioFileRepo struct {
	db *sql.DB
}

// NewPostgresAudioFileRepo はPostgresAudioFileRepoを生成する。
func NewPostgresAudioFileRepo(db *sql.DB) *PostgresAudioFileRepo {
	return &PostgresAudioFileRepo{db: db}
}

// Create は音声ファイルレコードを作成する。
func (r *PostgresAudioFileRepo) Create(ctx context.Context, file *model.AudioFile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audio_files (id, filename, user_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		file.ID, file.Filename, file.UserID, file.CreatedAt, file.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audio file: %w", err)
	}
	return nil
}

// FindByID は指定IDの音声ファイルを取得する。見つからない場合はnilを返す。
func (r *PostgresAudioFileRepo) FindByID(ctx context.Context, id string) (*model.AudioFile, error) {
	file := &model.AudioFile{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, filename, user_id, created_at, updated_at
		 FROM audio_files WHERE id = $1`,
		id,
	).Scan(&file.ID, &file.Filename, &file.UserID, &file.CreatedAt, &file.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find audio file by ID: %w", err)
	}

	return file, nil
}

// List は全音声ファイルをcreated_at昇順で返す。
func (r *PostgresAudioFileRepo) List(ctx context.Context) ([]*model.AudioFile, error) {
	return r.queryList(ctx,
		`SELECT id, filename, user_id, created_at, updated_at
		 FROM audio_files ORDER BY created_at`,
	)
}

// ListByUserID は指定ユーザーの音声ファイル一覧を返す。
func (r *PostgresAudioFileRepo) ListByUserID(ctx context.Context, userID string) ([]*model.AudioFile, error) {
	return r.queryList(ctx,
		`SELECT id, filename, user_id, created_at, updated_at
		 FROM audio_files WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
}

// UpdateFilename はファイル名を更新する。
func (r *PostgresAudioFileRepo) UpdateFilename(ctx context.Context, id, filename string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE audio_files SET filename = $1, updated_at = now() WHERE id = $2`,
		filename, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update audio file: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByID は指定IDの音声ファイルレコードを削除する。
func (r *PostgresAudioFileRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM audio_files WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete audio file: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistsByID は指定IDのレコードが存在するか返す。
func (r *PostgresAudioFileRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM audio_files WHERE id = $1)`,
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check audio file existence: %w", err)
	}
	return exists, nil
}

// queryList は一覧クエリを実行して結果をスキャンする。
func (r *PostgresAudioFileRepo) queryList(ctx context.Context, query string, args ...interface{}) ([]*model.AudioFile, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audio files: %w", err)
	}
	defer rows.Close()

	var files []*model.AudioFile
	for rows.Next() {
		file := &model.AudioFile{}
		if err := rows.Scan(&file.ID, &file.Filename, &file.UserID, &file.CreatedAt, &file.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audio file: %w", err)
		}
		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audio files: %w", err)
	}

	return files, nil
}

// compile-time interface check
var _ AudioFileRepository = (*PostgresAudioFileRepo)(nil)
