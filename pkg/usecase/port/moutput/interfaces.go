// 指示: miu200521358
package moutput

import (
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/domain/rigstate"
	"github.com/miu200521358/mu_rigbake/pkg/domain/scene"
)

// IRigStateReader はリグ状態文書の読み込み契約を表す。
type IRigStateReader interface {
	// Load はパスからリグ状態文書を読み込む。
	Load(path string) (*rigstate.Document, error)
}

// IRigStateWriter はリグ状態文書の書き込み契約を表す。
type IRigStateWriter interface {
	// Save はリグ状態文書をパスへ保存する。
	Save(path string, doc *rigstate.Document) error
}

// ISceneReader はシーンファイルの読み込み契約を表す。
type ISceneReader interface {
	// Load はパスからシーンを読み込む。
	Load(path string) (*scene.Scene, error)
}

// ISceneWriter はシーンファイルの書き込み契約を表す。
type ISceneWriter interface {
	// Save はシーンをパスへ保存する。
	Save(path string, sc *scene.Scene) error
}

// ISkeletonReader はモデルファイルから骨格を読み込む契約を表す。
type ISkeletonReader interface {
	// Load はパスから骨格を読み込む。
	Load(path string) (*model.Skeleton, error)
}
