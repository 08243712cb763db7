// Package storage は音声ファイルのディスク保存を提供する。
// ファイルは <base_dir>/<user_id>/<file_id> に配置し、
// メタデータ（元のファイル名など）はデータベース側で管理する。
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// LocalStore はローカルファイルシステム上のファイルストア。
type LocalStore struct {
	baseDir string
}

// NewLocalStore はLocalStoreを生成し、ベースディレクトリを作成する。
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

// path はユーザーID・ファイルIDから保存先パスを構築する。
// IDはどちらもサーバー側で生成したUUIDであり、パス要素として安全。
func (s *LocalStore) path(userID, fileID string) string {
	return filepath.Join(s.baseDir, userID, fileID)
}

// Save はrの内容をユーザーのディレクトリ配下に書き込み、書き込んだバイト数を返す。
// 書き込みが途中で失敗した場合は部分ファイルを残さない。
func (s *LocalStore) Save(userID, fileID string, r io.Reader) (int64, error) {
	userDir := filepath.Join(s.baseDir, userID)
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create user directory: %w", err)
	}

	dst := s.path(userID, fileID)
	f, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(dst)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return 0, fmt.Errorf("failed to close file: %w", err)
	}

	return written, nil
}

// Open は保存済みファイルを読み取り用に開く。
// 存在しない場合はos.ErrNotExistを包んだエラーを返す。
func (s *LocalStore) Open(userID, fileID string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(userID, fileID))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// Remove は保存済みファイルを削除する。すでに存在しない場合はエラーにしない。
func (s *LocalStore) Remove(userID, fileID string) error {
	if err := os.Remove(s.path(userID, fileID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// RemoveUserDir はユーザーのディレクトリごと削除する。
// アカウント削除時の後片付けに使用する。存在しない場合はエラーにしない。
func (s *LocalStore) RemoveUserDir(userID string) error {
	if userID == "" {
		return fmt.Errorf("user ID is required")
	}
	if err := os.RemoveAll(filepath.Join(s.baseDir, userID)); err != nil {
		return fmt.Errorf("failed to remove user directory: %w", err)
	}
	return nil
}

// StoredFile はストア内の1ファイルの位置と最終更新時刻を表す。
type StoredFile struct {
	UserID  string
	FileID  string
	ModTime time.Time
}

// Walk はストア内の全ファイルを列挙し、1件ごとにfnを呼ぶ。
// fnがエラーを返した場合は走査を中断してそのエラーを返す。
// ワーカーの孤児ファイル掃除で使用する。
func (s *LocalStore) Walk(fn func(file StoredFile) error) error {
	userDirs, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read base directory: %w", err)
	}

	for _, userDir := range userDirs {
		if !userDir.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(s.baseDir, userDir.Name()))
		if err != nil {
			return fmt.Errorf("failed to read user directory: %w", err)
		}
		for _, file := range files {
			if file.IsDir() {
				continue
			}
			info, err := file.Info()
			if err != nil {
				return fmt.Errorf("failed to stat file: %w", err)
			}
			entry := StoredFile{
				UserID:  userDir.Name(),
				FileID:  file.Name(),
				ModTime: info.ModTime(),
			}
			if err := fn(entry); err != nil {
				return err
			}
		}
	}

	return nil
}
