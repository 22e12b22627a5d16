// 指示: miu200521358
package rigstate

import (
	"encoding/json"
	"fmt"

	"github.com/miu200521358/mu_rigbake/pkg/shared/base/merr"
)

const (
	// SchemaVersionBoneGroups は表示グループを bone_groups で持つ旧形式。
	SchemaVersionBoneGroups = 1
	// SchemaVersionBoneCollections は表示グループを bone_collections で持つ形式。
	SchemaVersionBoneCollections = 2
	// CurrentSchemaVersion は書き出し時の既定スキーマ。
	CurrentSchemaVersion = SchemaVersionBoneCollections
)

// ConstraintRecord は constraints の1要素を表す。
type ConstraintRecord struct {
	FullName       string    `json:"full_name"`
	ConstraintType string    `json:"constraint_type"`
	BoneList       []string  `json:"bone_list"`
	BoolList       []bool    `json:"bool_list"`
	StringList     []string  `json:"string_list"`
	IntList        []int     `json:"int_list"`
	FloatList      []float64 `json:"float_list"`
}

// DisplayGroups は表示グループの一覧を表す。
type DisplayGroups struct {
	Names      []string `json:"names"`
	Visibility []bool   `json:"visibility"`
}

// ShapeTransform は表示形状の変形を表す。
type ShapeTransform struct {
	Scale       [3]float64 `json:"scale"`
	Translation [3]float64 `json:"translation"`
	Rotation    [3]float64 `json:"rotation"`
	Joint       string     `json:"joint,omitempty"`
}

// BoneColor は関節の表示色を表す。
type BoneColor struct {
	Palette string     `json:"palette"`
	Normal  [3]float64 `json:"normal"`
	Select  [3]float64 `json:"select"`
	Active  [3]float64 `json:"active"`
}

// WeightPair は重み付きカスタムプロパティ1件を表す。JSON では [key, value]。
type WeightPair struct {
	Key   string
	Value float64
}

// MarshalJSON は [key, value] 形式で出力する。
func (p WeightPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Key, p.Value})
}

// UnmarshalJSON は [key, value] 形式を読み込む。
func (p *WeightPair) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("重みの要素数が不正です: %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.Key); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &p.Value)
}

// BoneState は関節状態のスナップショットを表す。
type BoneState struct {
	RotationMode           string          `json:"rotation_mode"`
	UseInheritRotation     bool            `json:"use_inherit_rotation"`
	InheritScale           string          `json:"inherit_scale"`
	DisplayShapeRef        string          `json:"display_shape_ref,omitempty"`
	DisplayShapeTransform  *ShapeTransform `json:"display_shape_transform,omitempty"`
	Color                  *BoneColor      `json:"color,omitempty"`
	Collections            []string        `json:"collections"`
	CustomInfluenceWeights []WeightPair    `json:"custom_influence_weights,omitempty"`
}

// Document は保存されるリグ状態文書を表す。
type Document struct {
	SchemaVersion   int                           `json:"schema_version"`
	Constraints     *OrderedMap[ConstraintRecord] `json:"constraints"`
	BoneCollections *DisplayGroups                `json:"bone_collections,omitempty"`
	BoneGroups      *DisplayGroups                `json:"bone_groups,omitempty"`
	BoneStates      *OrderedMap[BoneState]        `json:"bone_states"`
}

// NewDocument は空の文書を生成する。
func NewDocument(schemaVersion int) *Document {
	return &Document{
		SchemaVersion: schemaVersion,
		Constraints:   NewOrderedMap[ConstraintRecord](),
		BoneStates:    NewOrderedMap[BoneState](),
	}
}

// DisplayGroups はスキーマに応じた表示グループを返す。
func (d *Document) DisplayGroups() *DisplayGroups {
	if d == nil {
		return nil
	}
	if d.SchemaVersion >= SchemaVersionBoneCollections && d.BoneCollections != nil {
		return d.BoneCollections
	}
	if d.BoneGroups != nil {
		return d.BoneGroups
	}
	return d.BoneCollections
}

// SetDisplayGroups はスキーマに応じたキーへ表示グループを設定する。
func (d *Document) SetDisplayGroups(groups *DisplayGroups) {
	if d.SchemaVersion >= SchemaVersionBoneCollections {
		d.BoneCollections = groups
		d.BoneGroups = nil
		return
	}
	d.BoneGroups = groups
	d.BoneCollections = nil
}

// RecordFromEntry はログのエントリを文書要素へ変換する。
func RecordFromEntry(entry *Entry) ConstraintRecord {
	return ConstraintRecord{
		FullName:       entry.FullName,
		ConstraintType: entry.Kind,
		BoneList:       nonNilStrings(entry.Joints),
		BoolList:       nonNilBools(entry.Bools),
		StringList:     nonNilStrings(entry.Strings),
		IntList:        nonNilInts(entry.Ints),
		FloatList:      nonNilFloats(entry.Floats),
	}
}

// EntryFromRecord は文書要素をログのエントリへ変換する。
func EntryFromRecord(key string, record ConstraintRecord) *Entry {
	return &Entry{
		Key:      key,
		FullName: record.FullName,
		Kind:     record.ConstraintType,
		Joints:   append([]string(nil), record.BoneList...),
		Bools:    append([]bool(nil), record.BoolList...),
		Strings:  append([]string(nil), record.StringList...),
		Ints:     append([]int(nil), record.IntList...),
		Floats:   append([]float64(nil), record.FloatList...),
	}
}

// Marshal は文書を JSON へ変換する。
func Marshal(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("リグ状態文書が未設定です")
	}
	if doc.Constraints == nil {
		doc.Constraints = NewOrderedMap[ConstraintRecord]()
	}
	if doc.BoneStates == nil {
		doc.BoneStates = NewOrderedMap[BoneState]()
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Unmarshal は JSON を文書へ変換する。schema_version がない場合は旧形式とみなす。
func Unmarshal(data []byte) (*Document, error) {
	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("リグ状態文書の解析に失敗しました: %w", err)
	}
	if doc.SchemaVersion == 0 {
		doc.SchemaVersion = SchemaVersionBoneGroups
	}
	if doc.SchemaVersion > CurrentSchemaVersion {
		return nil, merr.NewConfigurationError("未対応のスキーマバージョンです: %d", doc.SchemaVersion)
	}
	if doc.Constraints == nil {
		doc.Constraints = NewOrderedMap[ConstraintRecord]()
	}
	if doc.BoneStates == nil {
		doc.BoneStates = NewOrderedMap[BoneState]()
	}
	return doc, nil
}

func nonNilStrings(values []string) []string {
	if len(values) == 0 {
		return []string{}
	}
	return append([]string(nil), values...)
}

func nonNilBools(values []bool) []bool {
	if len(values) == 0 {
		return []bool{}
	}
	return append([]bool(nil), values...)
}

func nonNilInts(values []int) []int {
	if len(values) == 0 {
		return []int{}
	}
	return append([]int(nil), values...)
}

func nonNilFloats(values []float64) []float64 {
	if len(values) == 0 {
		return []float64{}
	}
	return append([]float64(nil), values...)
}
