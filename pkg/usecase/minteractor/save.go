// 指示: miu200521358
package minteractor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/domain/rigstate"
	"github.com/miu200521358/mu_rigbake/pkg/domain/scene"
	"github.com/miu200521358/mu_rigbake/pkg/usecase/port/moutput"
)

// SaveState は骨格のリグ状態ログ・表示グループ・関節状態を文書へまとめる。
// 関節状態はエンジン所有でない関節のみ書き出す。
func (uc *RigBakeUsecase) SaveState(sc *scene.Scene, skeletonName string) (*rigstate.Document, error) {
	if sc == nil {
		return nil, fmt.Errorf("シーンが未設定です")
	}
	skeleton, ok := sc.Skeleton(model.NormalizeName(skeletonName))
	if !ok {
		return nil, fmt.Errorf("骨格が見つかりません: %s", skeletonName)
	}
	schema := uc.defaults.SchemaVersion
	if schema <= 0 {
		schema = rigstate.CurrentSchemaVersion
	}
	doc := rigstate.NewDocument(schema)
	for _, entry := range skeleton.State.Entries() {
		doc.Constraints.Set(entry.Key, rigstate.RecordFromEntry(entry))
	}

	groups := &rigstate.DisplayGroups{Names: []string{}, Visibility: []bool{}}
	for _, collection := range skeleton.Collections {
		groups.Names = append(groups.Names, collection.Name)
		groups.Visibility = append(groups.Visibility, collection.Visible)
	}
	doc.SetDisplayGroups(groups)

	for _, joint := range skeleton.Joints() {
		if skeleton.IsEngineOwned(joint.Name) {
			continue
		}
		doc.BoneStates.Set(joint.Name, boneStateOf(joint))
	}
	logStateInfo("リグ状態をまとめました: %s 操作=%d 関節=%d", skeleton.Name, doc.Constraints.Len(), doc.BoneStates.Len())
	return doc, nil
}

// SaveStateFile はリグ状態をファイルへ保存する。
func (uc *RigBakeUsecase) SaveStateFile(rep moutput.IRigStateWriter, path string, sc *scene.Scene, skeletonName string) error {
	writer := rep
	if writer == nil {
		writer = uc.stateWriter
	}
	if writer == nil {
		return fmt.Errorf("リグ状態保存リポジトリが設定されていません")
	}
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("保存先パスが未指定です")
	}
	doc, err := uc.SaveState(sc, skeletonName)
	if err != nil {
		return err
	}
	return writer.Save(path, doc)
}

// boneStateOf は関節の表示・継承設定を文書形式へ変換する。
func boneStateOf(joint *model.Joint) rigstate.BoneState {
	state := rigstate.BoneState{
		RotationMode:       string(joint.RotationMode),
		UseInheritRotation: joint.InheritRotation,
		InheritScale:       string(joint.InheritScale),
		DisplayShapeRef:    joint.Display.ShapeRef,
		Collections:        append([]string{}, joint.Display.Collections...),
		Color: &rigstate.BoneColor{
			Palette: joint.Display.ColorPalette,
			Normal:  joint.Display.NormalColor,
			Select:  joint.Display.SelectColor,
			Active:  joint.Display.ActiveColor,
		},
	}
	if joint.Display.ShapeRef != "" {
		state.DisplayShapeTransform = &rigstate.ShapeTransform{
			Scale:       vec3Array(joint.Display.ShapeScale),
			Translation: vec3Array(joint.Display.ShapeTranslation),
			Rotation:    vec3Array(joint.Display.ShapeRotation),
			Joint:       joint.Display.ShapeTransform,
		}
	}
	keys := make([]string, 0, len(joint.Props))
	for key := range joint.Props {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		state.CustomInfluenceWeights = append(state.CustomInfluenceWeights, rigstate.WeightPair{Key: key, Value: joint.Props[key]})
	}
	return state
}

func vec3Array(v mmath.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
