package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"
)

// 保存したファイルがユーザーごとのディレクトリ配下に置かれ、読み出せることを検証
func TestLocalStore_SaveAndOpen(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}

	content := "fake audio bytes"
	written, err := store.Save("user-1", "file-1", strings.NewReader(content))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if written != int64(len(content)) {
		t.Errorf("written = %d, want %d", written, len(content))
	}

	r, err := store.Open("user-1", "file-1")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(got) != content {
		t.Errorf("content = %q, want %q", got, content)
	}
}

// 存在しないファイルのOpenがos.ErrNotExistを返すことを検証
func TestLocalStore_Open_NotFound(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}

	if _, err := store.Open("user-1", "missing"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist", err)
	}
}

// Removeがファイルを削除し、存在しないファイルではエラーにならないことを検証
func TestLocalStore_Remove(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}

	if _, err := store.Save("user-1", "file-1", strings.NewReader("data")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := store.Remove("user-1", "file-1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := store.Open("user-1", "file-1"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("file still exists after Remove")
	}

	// 冪等であること
	if err := store.Remove("user-1", "file-1"); err != nil {
		t.Errorf("Remove of a missing file failed: %v", err)
	}
}

// RemoveUserDirがユーザーのファイルをまとめて削除することを検証
func TestLocalStore_RemoveUserDir(t *testing.T) {
	baseDir := t.TempDir()
	store, err := NewLocalStore(baseDir)
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}

	if _, err := store.Save("user-1", "file-1", strings.NewReader("a")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := store.Save("user-1", "file-2", strings.NewReader("b")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := store.Save("user-2", "file-3", strings.NewReader("c")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := store.RemoveUserDir("user-1"); err != nil {
		t.Fatalf("RemoveUserDir failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(baseDir, "user-1")); !errors.Is(err, os.ErrNotExist) {
		t.Error("user-1 directory still exists")
	}
	// 他のユーザーのファイルは影響を受けない
	if _, err := store.Open("user-2", "file-3"); err != nil {
		t.Errorf("user-2 file was removed: %v", err)
	}

	// 空のuserIDでベースディレクトリを消さないこと
	if err := store.RemoveUserDir(""); err == nil {
		t.Error("RemoveUserDir with empty user ID must fail")
	}
}

// Walkがストア内の全ファイルを列挙することを検証
func TestLocalStore_Walk(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}

	if _, err := store.Save("user-1", "file-1", strings.NewReader("a")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := store.Save("user-2", "file-2", strings.NewReader("b")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	var seen []string
	err = store.Walk(func(file StoredFile) error {
		seen = append(seen, file.UserID+"/"+file.FileID)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	sort.Strings(seen)
	want := []string{"user-1/file-1", "user-2/file-2"}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("seen[%d] = %q, want %q", i, seen[i], want[i])
		}
	}
}

// Walkが各ファイルの最終更新時刻を報告することを検証
func TestLocalStore_Walk_ReportsModTime(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}

	before := time.Now().Add(-time.Minute)
	if _, err := store.Save("user-1", "file-1", strings.NewReader("a")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	err = store.Walk(func(file StoredFile) error {
		if file.ModTime.IsZero() {
			t.Error("ModTime should be set")
		}
		if file.ModTime.Before(before) {
			t.Errorf("ModTime = %v, want after %v", file.ModTime, before)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
}

// Walkのコールバックエラーで走査が中断されることを検証
func TestLocalStore_Walk_CallbackError(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}

	if _, err := store.Save("user-1", "file-1", strings.NewReader("a")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	wantErr := errors.New("stop walking")
	if err := store.Walk(func(file StoredFile) error { return wantErr }); !errors.Is(err, wantErr) {
		t.Errorf("Walk error = %v, want %v", err, wantErr)
	}
}
