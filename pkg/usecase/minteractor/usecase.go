// 指示: miu200521358
package minteractor

import (
	"fmt"
	"strings"

	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/domain/rigstate"
	"github.com/miu200521358/mu_rigbake/pkg/domain/scene"
	"github.com/miu200521358/mu_rigbake/pkg/usecase/port/moutput"
)

// OperationDefaults は要求で省略された操作パラメータの既定値を表す。
type OperationDefaults struct {
	IKChainLength           int
	IKPole                  bool
	IKStretchType           string
	IKPoleAxis              string
	DistributionChainLength int
	AimAxis                 string
	AimDistance             float64
	AimStretch              bool
	SchemaVersion           int
}

// DefaultOperationDefaults は設定ファイルがない場合の既定値を返す。
func DefaultOperationDefaults() OperationDefaults {
	return OperationDefaults{
		IKChainLength:           2,
		IKPole:                  true,
		IKStretchType:           StretchTypeNone,
		IKPoleAxis:              "X",
		DistributionChainLength: 2,
		AimAxis:                 "Y",
		AimDistance:             1,
		AimStretch:              false,
		SchemaVersion:           rigstate.CurrentSchemaVersion,
	}
}

// RigBakeUsecaseDeps はリグベイクユースケースの依存を表す。
type RigBakeUsecaseDeps struct {
	StateReader moutput.IRigStateReader
	StateWriter moutput.IRigStateWriter
	SceneReader moutput.ISceneReader
	SceneWriter moutput.ISceneWriter
	// SkeletonReader は import で使うモデル読み込みリポジトリ。
	SkeletonReader moutput.ISkeletonReader
	Defaults       *OperationDefaults
}

// RigBakeUsecase は空間変換操作とリグ状態の保存復元をまとめたユースケースを表す。
type RigBakeUsecase struct {
	stateReader moutput.IRigStateReader
	stateWriter moutput.IRigStateWriter
	sceneReader moutput.ISceneReader
	sceneWriter moutput.ISceneWriter
	skelReader  moutput.ISkeletonReader
	defaults    OperationDefaults
	registry    *Registry
}

// NewRigBakeUsecase はリグベイクユースケースを生成する。
func NewRigBakeUsecase(deps RigBakeUsecaseDeps) *RigBakeUsecase {
	defaults := DefaultOperationDefaults()
	if deps.Defaults != nil {
		defaults = *deps.Defaults
	}
	return &RigBakeUsecase{
		stateReader: deps.StateReader,
		stateWriter: deps.StateWriter,
		sceneReader: deps.SceneReader,
		sceneWriter: deps.SceneWriter,
		skelReader:  deps.SkeletonReader,
		defaults:    defaults,
		registry:    NewRegistry(),
	}
}

// Defaults は操作パラメータの既定値を返す。
func (uc *RigBakeUsecase) Defaults() OperationDefaults {
	return uc.defaults
}

// Registry は操作種別の登録表を返す。
func (uc *RigBakeUsecase) Registry() *Registry {
	return uc.registry
}

// LoadScene はシーンファイルを読み込む。
func (uc *RigBakeUsecase) LoadScene(rep moutput.ISceneReader, path string) (*scene.Scene, error) {
	repo := rep
	if repo == nil {
		repo = uc.sceneReader
	}
	if repo == nil {
		return nil, fmt.Errorf("シーン読み込みリポジトリが設定されていません")
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("シーンファイルパスが未指定です")
	}
	return repo.Load(path)
}

// SaveScene はシーンファイルを保存する。
func (uc *RigBakeUsecase) SaveScene(rep moutput.ISceneWriter, path string, sc *scene.Scene) error {
	writer := rep
	if writer == nil {
		writer = uc.sceneWriter
	}
	if writer == nil {
		return fmt.Errorf("シーン保存リポジトリが設定されていません")
	}
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("保存先パスが未指定です")
	}
	if sc == nil {
		return fmt.Errorf("保存対象シーンが未設定です")
	}
	return writer.Save(path, sc)
}

// ImportSkeleton はモデルファイルの骨格をシーンへ追加する。name が空ならファイル由来の名前を使う。
func (uc *RigBakeUsecase) ImportSkeleton(rep moutput.ISkeletonReader, path string, sc *scene.Scene, name string) (*model.Skeleton, error) {
	reader := rep
	if reader == nil {
		reader = uc.skelReader
	}
	if reader == nil {
		return nil, fmt.Errorf("骨格読み込みリポジトリが設定されていません")
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("モデルファイルパスが未指定です")
	}
	if sc == nil {
		return nil, fmt.Errorf("シーンが未設定です")
	}
	skeleton, err := reader.Load(path)
	if err != nil {
		return nil, err
	}
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		skeleton.Name = model.NormalizeName(trimmed)
	}
	if err := sc.AddSkeleton(skeleton); err != nil {
		return nil, err
	}
	logBakeInfo("骨格取込: skeleton=%s joints=%d", skeleton.Name, skeleton.Len())
	return skeleton, nil
}
