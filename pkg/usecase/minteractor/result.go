// 指示: miu200521358
package minteractor

import (
	"github.com/miu200521358/mu_rigbake/pkg/domain/anim"
	"github.com/miu200521358/mu_rigbake/pkg/domain/constraint"
	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/domain/rigstate"
)

const (
	// StretchTypeNone はIKチェーンを伸縮させない。
	StretchTypeNone = "NONE"
	// StretchTypeStretch は目標が届かない場合にIKチェーンを伸ばす。
	StretchTypeStretch = "STRETCH"
)

// ProgressEventType は操作の進捗イベント種別を表す。
type ProgressEventType string

const (
	// ProgressEventTypeStructureBuilt は代理関節の生成完了イベントを表す。
	ProgressEventTypeStructureBuilt ProgressEventType = "structure_built"
	// ProgressEventTypeBound は一時コンストレイントの接続完了イベントを表す。
	ProgressEventTypeBound ProgressEventType = "bound"
	// ProgressEventTypeBaked はベイク完了イベントを表す。
	ProgressEventTypeBaked ProgressEventType = "baked"
	// ProgressEventTypeBehaviorRewired は恒久コンストレイントへの張り替え完了イベントを表す。
	ProgressEventTypeBehaviorRewired ProgressEventType = "behavior_rewired"
	// ProgressEventTypeLogged はリグ状態ログへの記録完了イベントを表す。
	ProgressEventTypeLogged ProgressEventType = "logged"
	// ProgressEventTypeRemoved は操作の解除完了イベントを表す。
	ProgressEventTypeRemoved ProgressEventType = "removed"
	// ProgressEventTypeStateReplayed はリグ状態の再適用完了イベントを表す。
	ProgressEventTypeStateReplayed ProgressEventType = "state_replayed"
	// ProgressEventTypeBoneStatesApplied は関節状態の適用完了イベントを表す。
	ProgressEventTypeBoneStatesApplied ProgressEventType = "bone_states_applied"
)

// ProgressEvent は操作の進捗イベントを表す。
type ProgressEvent struct {
	Type         ProgressEventType
	Kind         model.OperationKind
	UnitCount    int
	FrameCount   int
	ChannelCount int
}

// IProgressReporter は操作の進捗通知契約を表す。
type IProgressReporter interface {
	// ReportProgress は操作の進捗を通知する。
	ReportProgress(event ProgressEvent)
}

// reportProgress は通知先がある場合のみ進捗を通知する。
func reportProgress(reporter IProgressReporter, event ProgressEvent) {
	if reporter == nil {
		return
	}
	reporter.ReportProgress(event)
}

// OperationParams は操作種別ごとの追加パラメータを表す。ゼロ値は既定値で補う。
type OperationParams struct {
	// TargetSkeleton と TargetJoint は親空間の親、または単純コピーの対象。
	TargetSkeleton string
	TargetJoint    string
	ParentCopy     bool
	// Offset はオフセット系操作の行列。nil は単位行列。
	Offset      *mmath.Mat4
	AimAxis     string
	AimDistance float64
	AimStretch  *bool
	ChainLength int
	Pole        *bool
	PoleAxis    string
	StretchType string
	CopyKind    constraint.Kind
	Influence   *float64
	// Weights は重心計算の関節別の重み。未指定の関節は 100。
	Weights map[string]float64
}

// OperationRequest は空間変換操作の要求を表す。
type OperationRequest struct {
	Kind             model.OperationKind
	Skeleton         string
	Joints           []string
	Params           OperationParams
	ProgressReporter IProgressReporter
}

// OperationResult は空間変換操作の結果を表す。
type OperationResult struct {
	Kind     model.OperationKind
	Skeleton string
	Entries  []*rigstate.Entry
	Joints   []string
	Proxies  []string
	Missing  []string
}

// RemoveRequest は操作の解除要求を表す。Kind が空の場合は関節に掛かる全種別が対象。
type RemoveRequest struct {
	Kind             model.OperationKind
	Skeleton         string
	Joints           []string
	ProgressReporter IProgressReporter
}

// RemoveResult は操作の解除結果を表す。
type RemoveResult struct {
	Entries []string
	Joints  []string
	Proxies []string
}

// KeyRangeRequest は範囲キー打ちの要求を表す。
type KeyRangeRequest struct {
	Skeleton      string
	Joints        []string
	Start         float64
	End           float64
	Step          float64
	Mask          anim.ChannelMask
	AvailableOnly bool
}

// KeyRangeResult は範囲キー打ちの結果を表す。
type KeyRangeResult struct {
	Frames   []float64
	Channels int
}

// CenterOfMassUpdate は重心関節の構成要素の追加・削除要求を表す。
type CenterOfMassUpdate struct {
	Skeleton string
	Joint    string
	Add      []string
	Remove   []string
	Weights  map[string]float64
}

// LoadStateResult はリグ状態の読み込み結果を表す。
type LoadStateResult struct {
	Replayed []string
	Skipped  []string
	States   int
}
