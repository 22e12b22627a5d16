// 指示: miu200521358
// Package messages はCLI表示に使うメッセージを提供する。
package messages

// コマンド説明。
const (
	CommandRootShort    = "リグの空間変換とキーフレームベイクを行う"
	CommandImportShort  = "glTF/GLB/VRM の骨格をシーンへ取り込む"
	CommandApplyShort   = "関節に空間変換操作を適用する"
	CommandRemoveShort  = "関節の空間変換操作を解除して元関節へベイクする"
	CommandStateShort   = "リグ状態ファイルを保存・読み込みする"
	CommandStateSave    = "リグ状態をファイルへ保存する"
	CommandStateLoad    = "リグ状態ファイルを読み込んでリグを再構築する"
	CommandKeyRange     = "指定範囲の解決済み姿勢をキー打ちする"
	CommandBakeShort    = "コンストレイントの結果を関節自身へベイクする"
	CommandComShort     = "重心関節の構成要素を追加・削除する"
	CommandInspectShort = "シーンの骨格・操作・コンストレイントを一覧表示する"
	CommandConfigShort  = "設定ファイルを管理する"
	CommandConfigInit   = "サンプル設定ファイルを作成する"
	CommandConfigShow   = "読み込まれた設定のパスを表示する"
	CommandKindsShort   = "利用可能な操作種別を一覧表示する"
	FlagConfigUsage     = "設定ファイルパス"
	FlagSceneUsage      = "シーンファイルパス (.json)"
	FlagOutUsage        = "保存先シーンファイルパス (省略時は --scene を上書き)"
	FlagSkeletonUsage   = "対象骨格名 (骨格が1つなら省略可)"
	FlagLogLevelUsage   = "ログレベル (verbose/debug/info/warn/error)"
	FlagVerboseUsage    = "冗長ログのチャネル (bake/pose/state)"
)

// 出力メッセージ。
const (
	MessageSceneRequired     = "シーンファイルを指定してください (--scene)"
	MessageSkeletonRequired  = "骨格が複数あるため --skeleton を指定してください: %v"
	MessageSkeletonNotFound  = "骨格が見つかりません: %s"
	MessageKindUnknown       = "操作種別が未対応です: %s (mu_rigbake kinds で一覧表示)"
	MessageJointsRequired    = "対象関節を1つ以上指定してください"
	MessageWeightInvalid     = "重み指定が不正です: %s (関節名=値)"
	MessageOffsetInvalid     = "オフセット指定が不正です: %s (x,y,z)"
	MessageProblem           = "[問題] %s"
	MessageApplied           = "[mu_rigbake] 適用完了: %s entries=%d proxies=%d"
	MessageRemoved           = "[mu_rigbake] 解除完了: entries=%d joints=%d"
	MessageStateSaved        = "[mu_rigbake] リグ状態保存: %s"
	MessageStateLoaded       = "[mu_rigbake] リグ状態読込: replayed=%d skipped=%d bones=%d"
	MessageKeyRangeDone      = "[mu_rigbake] キー打ち完了: %s"
	MessageBaked             = "[mu_rigbake] ベイク完了: clips=%d frames=%d channels=%d"
	MessageComUpdated        = "[mu_rigbake] 重心更新: %s"
	MessageSceneSaved        = "[mu_rigbake] シーン保存: %s"
	MessageImported          = "[mu_rigbake] 骨格取込: %s joints=%d"
	MessageConfigCreated     = "[mu_rigbake] 設定ファイル作成: %s"
	MessageConfigPath        = "設定ファイル: %s (存在: %v)"
	MessageProgress          = "[mu_rigbake] %s: %s units=%d frames=%d channels=%d"
	MessageNoEntries         = "有効な操作はありません"
	MessageNoConstraints     = "コンストレイントはありません"
	MessageInvalidVerboseKey = "冗長ログのチャネルが不正です: %s"
)

// 表の見出し。
const (
	HeaderSkeleton    = "骨格"
	HeaderJoint       = "関節"
	HeaderParent      = "親"
	HeaderRole        = "役割"
	HeaderRotation    = "回転モード"
	HeaderCollections = "コレクション"
	HeaderKeys        = "キー数"
	HeaderEntryKey    = "キー"
	HeaderKind        = "種別"
	HeaderJoints      = "対象関節"
	HeaderOwner       = "所有関節"
	HeaderTarget      = "対象"
	HeaderInfluence   = "影響度"
	HeaderEngineOwned = "エンジン所有"
	HeaderAlias       = "別名"
)
