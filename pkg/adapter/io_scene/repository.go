// 指示: miu200521358
package io_scene

import (
	"encoding/json"
	"time"

	"github.com/miu200521358/mu_rigbake/pkg/adapter/io_common"
	"github.com/miu200521358/mu_rigbake/pkg/domain/scene"
	"github.com/miu200521358/mu_rigbake/pkg/shared/base/logging"
)

const sceneExt = ".json"

// SceneRepository はシーンを JSON ファイルで読み書きする。
type SceneRepository struct {
	lockTimeout time.Duration
}

// NewSceneRepository はSceneRepositoryを生成する。
func NewSceneRepository() *SceneRepository {
	return &SceneRepository{lockTimeout: io_common.DefaultLockTimeout}
}

// CanLoad は拡張子に応じて読み込み可否を判定する。
func (r *SceneRepository) CanLoad(path string) bool {
	return io_common.HasExt(path, sceneExt)
}

// Load はシーンを読み込む。
func (r *SceneRepository) Load(path string) (*scene.Scene, error) {
	if !r.CanLoad(path) {
		return nil, io_common.NewIoExtInvalid(path, nil)
	}
	data, err := io_common.ReadLocked(path, r.lockTimeout)
	if err != nil {
		return nil, err
	}
	file := &sceneFile{}
	if err := json.Unmarshal(data, file); err != nil {
		return nil, io_common.NewIoParseFailed("シーンファイルの解析に失敗しました", err)
	}
	sc, err := file.toScene()
	if err != nil {
		return nil, io_common.NewIoParseFailed("シーンの復元に失敗しました", err)
	}
	logSceneInfo("シーン読込: file=%s skeletons=%d clips=%d constraints=%d",
		io_common.InferName(path), len(file.Skeletons), len(file.Clips), len(file.Constraints))
	return sc, nil
}

// Save はシーンを保存する。
func (r *SceneRepository) Save(path string, sc *scene.Scene) error {
	if !r.CanLoad(path) {
		return io_common.NewIoExtInvalid(path, nil)
	}
	if sc == nil {
		return io_common.NewIoSaveFailed("保存対象シーンが未設定です", nil)
	}
	file := newSceneFile(sc)
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return io_common.NewIoSaveFailed("シーンの変換に失敗しました", err)
	}
	if err := io_common.WriteLocked(path, data, r.lockTimeout); err != nil {
		return err
	}
	logSceneInfo("シーン保存: file=%s skeletons=%d clips=%d constraints=%d",
		io_common.InferName(path), len(file.Skeletons), len(file.Clips), len(file.Constraints))
	return nil
}

// logSceneInfo はシーン入出力のINFOログを出力する。
func logSceneInfo(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Info(format, params...)
}
