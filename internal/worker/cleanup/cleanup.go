// Package cleanup は孤児ファイルの自動削除ジョブを提供する。
// レコード削除とディスク上のファイル削除は意図的に非アトミックなため、
// レコードを持たないファイルが残ることがある。このジョブはアップロード
// ディレクトリを走査し、audio_filesに対応するレコードがないファイルを
// 日次バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/otodana/internal/storage"
)

// RecordChecker はファイルIDに対応するレコードの存在確認インターフェース。
// repository.AudioFileRepositoryの部分集合として定義する。
type RecordChecker interface {
	ExistsByID(ctx context.Context, id string) (bool, error)
}

// FileWalker はストア内のファイル列挙と削除のインターフェース。
// storage.LocalStoreの部分集合として定義する。
type FileWalker interface {
	Walk(fn func(file storage.StoredFile) error) error
	Remove(userID, fileID string) error
}

// MetricsRecorder は削除した孤児ファイル数の記録インターフェース。
// nilの場合は記録をスキップする。
type MetricsRecorder interface {
	RecordOrphanFilesRemoved(count int)
}

// OrphanSweepJob はレコードを持たないファイルの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type OrphanSweepJob struct {
	records RecordChecker
	store   FileWalker
	logger  *slog.Logger
	metrics MetricsRecorder
	minAge  time.Duration
}

// NewOrphanSweepJob は新しいOrphanSweepJobを生成する。metricsはnilを許容する。
// minAgeより新しいファイルは掃除対象から外す。アップロードはディスク書き込みの後に
// レコードを作成するため、書き込み直後のファイルはまだ孤児と判定できない。
func NewOrphanSweepJob(records RecordChecker, store FileWalker, logger *slog.Logger, metrics MetricsRecorder, minAge time.Duration) *OrphanSweepJob {
	return &OrphanSweepJob{
		records: records,
		store:   store,
		logger:  logger,
		metrics: metrics,
		minAge:  minAge,
	}
}

// Run はアップロードディレクトリを走査し、レコードのないファイルを削除する。
// 個々のファイルの削除失敗は走査を止めず、ログに残して続行する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *OrphanSweepJob) Run(ctx context.Context) error {
	start := time.Now()

	var scanned, skipped, removed, failed int

	err := j.store.Walk(func(file storage.StoredFile) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		scanned++

		// 書き込み途中のアップロードを孤児と誤判定しないため、新しいファイルは見送る
		if time.Since(file.ModTime) < j.minAge {
			skipped++
			return nil
		}

		exists, err := j.records.ExistsByID(ctx, file.FileID)
		if err != nil {
			return fmt.Errorf("failed to check record existence: %w", err)
		}
		if exists {
			return nil
		}

		if err := j.store.Remove(file.UserID, file.FileID); err != nil {
			failed++
			j.logger.Error("孤児ファイルの削除に失敗しました",
				slog.String("file_id", file.FileID),
				slog.String("user_id", file.UserID),
				slog.String("error", err.Error()),
			)
			return nil
		}

		removed++
		j.logger.Info("孤児ファイルを削除しました",
			slog.String("file_id", file.FileID),
			slog.String("user_id", file.UserID),
		)
		return nil
	})
	if err != nil {
		j.logger.Error("孤児ファイル掃除ジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("孤児ファイル掃除の実行に失敗: %w", err)
	}

	if j.metrics != nil && removed > 0 {
		j.metrics.RecordOrphanFilesRemoved(removed)
	}

	duration := time.Since(start)
	j.logger.Info("孤児ファイル掃除ジョブが完了しました",
		slog.Int("scanned_count", scanned),
		slog.Int("skipped_count", skipped),
		slog.Int("removed_count", removed),
		slog.Int("failed_count", failed),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
