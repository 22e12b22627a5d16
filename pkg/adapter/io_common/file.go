// 指示: miu200521358
package io_common

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

const (
	lockSuffix     = ".lock"
	lockRetryDelay = 20 * time.Millisecond
	// DefaultLockTimeout はファイルロック取得の既定待ち時間。
	DefaultLockTimeout = 5 * time.Second
)

// HasExt は拡張子が一致するか大文字小文字を無視して判定する。
func HasExt(path string, ext string) bool {
	return strings.EqualFold(filepath.Ext(path), ext)
}

// InferName はパスから拡張子を除いた表示名を返す。
func InferName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ReadLocked は共有ロックを取得してファイルを読み込む。
func ReadLocked(path string, timeout time.Duration) ([]byte, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, NewIoFileNotFound(path, err)
		}
		return nil, NewIoParseFailed("ファイル情報の取得に失敗しました", err)
	}
	lock := flock.New(path + lockSuffix)
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout(timeout))
	defer cancel()
	locked, err := lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		return nil, NewIoLockFailed(path, err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewIoParseFailed("ファイルの読み取りに失敗しました", err)
	}
	return data, nil
}

// WriteLocked は排他ロックを取得し、一時ファイル経由でファイルを置き換える。
func WriteLocked(path string, data []byte, timeout time.Duration) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return NewIoSaveFailed("保存先ディレクトリの作成に失敗しました", err)
	}
	lock := flock.New(path + lockSuffix)
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout(timeout))
	defer cancel()
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		return NewIoLockFailed(path, err)
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return NewIoSaveFailed("一時ファイルの作成に失敗しました", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return NewIoSaveFailed("ファイルの書き込みに失敗しました", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return NewIoSaveFailed("ファイルの書き込みに失敗しました", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return NewIoSaveFailed("ファイルの置き換えに失敗しました", err)
	}
	return nil
}

func lockTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return DefaultLockTimeout
	}
	return timeout
}
