// 指示: miu200521358
package io_gltf

import (
	"time"

	"github.com/miu200521358/mu_rigbake/pkg/adapter/io_common"
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/shared/base/logging"
)

// SkeletonRepository はglTF/GLB/VRMのnode階層から骨格を読み込む。
type SkeletonRepository struct {
	lockTimeout time.Duration
}

// NewSkeletonRepository はSkeletonRepositoryを生成する。
func NewSkeletonRepository() *SkeletonRepository {
	return &SkeletonRepository{lockTimeout: io_common.DefaultLockTimeout}
}

// CanLoad は拡張子に応じて読み込み可否を判定する。
func (r *SkeletonRepository) CanLoad(path string) bool {
	return io_common.HasExt(path, ".gltf") || isBinary(path)
}

func isBinary(path string) bool {
	return io_common.HasExt(path, ".glb") || io_common.HasExt(path, ".vrm")
}

// Load は骨格を読み込む。骨格名はファイル名から推定する。
func (r *SkeletonRepository) Load(path string) (*model.Skeleton, error) {
	if !r.CanLoad(path) {
		return nil, io_common.NewIoExtInvalid(path, nil)
	}
	name := io_common.InferName(path)
	logGltfInfo("骨格読込開始: file=%s", name)

	b, err := io_common.ReadLocked(path, r.lockTimeout)
	if err != nil {
		return nil, err
	}
	doc, err := parseDocument(b, isBinary(path))
	if err != nil {
		return nil, err
	}
	logGltfDebug("glTF解析完了: nodes=%d skins=%d generator=%s", len(doc.Nodes), len(doc.Skins), doc.Asset.Generator)

	skeleton, err := buildSkeleton(name, doc)
	if err != nil {
		return nil, err
	}
	logGltfInfo("骨格読込完了: file=%s joints=%d", name, skeleton.Len())
	return skeleton, nil
}

// logGltfInfo は骨格読込のINFOログを出力する。
func logGltfInfo(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Info(format, params...)
}

// logGltfDebug は骨格読込のデバッグログを出力する。
func logGltfDebug(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Debug(format, params...)
}
