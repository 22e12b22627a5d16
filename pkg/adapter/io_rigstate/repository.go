// 指示: miu200521358
package io_rigstate

import (
	"time"

	"github.com/miu200521358/mu_rigbake/pkg/adapter/io_common"
	"github.com/miu200521358/mu_rigbake/pkg/domain/rigstate"
	"github.com/miu200521358/mu_rigbake/pkg/shared/base/logging"
)

const rigStateExt = ".json"

// RigStateRepository はリグ状態文書を JSON ファイルで読み書きする。
type RigStateRepository struct {
	lockTimeout time.Duration
}

// NewRigStateRepository はRigStateRepositoryを生成する。
func NewRigStateRepository() *RigStateRepository {
	return &RigStateRepository{lockTimeout: io_common.DefaultLockTimeout}
}

// SetLockTimeout はファイルロックの待ち時間を設定する。
func (r *RigStateRepository) SetLockTimeout(timeout time.Duration) {
	if r == nil {
		return
	}
	r.lockTimeout = timeout
}

// CanLoad は拡張子に応じて読み込み可否を判定する。
func (r *RigStateRepository) CanLoad(path string) bool {
	return io_common.HasExt(path, rigStateExt)
}

// Load はリグ状態文書を読み込む。
func (r *RigStateRepository) Load(path string) (*rigstate.Document, error) {
	if !r.CanLoad(path) {
		return nil, io_common.NewIoExtInvalid(path, nil)
	}
	data, err := io_common.ReadLocked(path, r.lockTimeout)
	if err != nil {
		return nil, err
	}
	doc, err := rigstate.Unmarshal(data)
	if err != nil {
		return nil, io_common.NewIoParseFailed("リグ状態ファイルの解析に失敗しました", err)
	}
	logRigStateInfo("リグ状態読込: file=%s schema=%d constraints=%d bones=%d",
		io_common.InferName(path), doc.SchemaVersion, doc.Constraints.Len(), doc.BoneStates.Len())
	return doc, nil
}

// Save はリグ状態文書を保存する。
func (r *RigStateRepository) Save(path string, doc *rigstate.Document) error {
	if !r.CanLoad(path) {
		return io_common.NewIoExtInvalid(path, nil)
	}
	data, err := rigstate.Marshal(doc)
	if err != nil {
		return io_common.NewIoSaveFailed("リグ状態文書の変換に失敗しました", err)
	}
	if err := io_common.WriteLocked(path, data, r.lockTimeout); err != nil {
		return err
	}
	logRigStateInfo("リグ状態保存: file=%s schema=%d constraints=%d bones=%d",
		io_common.InferName(path), doc.SchemaVersion, doc.Constraints.Len(), doc.BoneStates.Len())
	return nil
}

// logRigStateInfo はリグ状態入出力のINFOログを出力する。
func logRigStateInfo(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Info(format, params...)
	if logger.IsVerboseEnabled(logging.VERBOSE_INDEX_STATE) {
		logger.Verbose(logging.VERBOSE_INDEX_STATE, "[INFO] "+format, params...)
	}
}
