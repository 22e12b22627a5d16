// 指示: miu200521358
package io_scene

import (
	"fmt"
	"sort"

	"github.com/miu200521358/mu_rigbake/pkg/domain/anim"
	"github.com/miu200521358/mu_rigbake/pkg/domain/constraint"
	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/domain/rigstate"
	"github.com/miu200521358/mu_rigbake/pkg/domain/scene"
)

// sceneFileVersion はシーンファイル形式の版。
const sceneFileVersion = 1

// sceneFile はシーンファイルのトップレベル要素を表す。
type sceneFile struct {
	Version     int             `json:"version"`
	Frame       float64         `json:"frame"`
	Settings    settingsDTO     `json:"settings"`
	Skeletons   []skeletonDTO   `json:"skeletons"`
	Clips       []clipDTO       `json:"clips"`
	Stacks      []stackDTO      `json:"stacks"`
	Constraints []constraintDTO `json:"constraints"`
	Drivers     []driverDTO     `json:"drivers"`
}

type settingsDTO struct {
	SmartFrames    bool `json:"smart_frames"`
	SmartChannels  bool `json:"smart_channels"`
	NoBakeOnRemove bool `json:"no_bake_on_remove"`
}

type skeletonDTO struct {
	Name        string          `json:"name"`
	Matrix      []float64       `json:"matrix"`
	Joints      []jointDTO      `json:"joints"`
	Collections []collectionDTO `json:"collections"`
	Roles       []roleDTO       `json:"roles,omitempty"`
	State       []entryDTO      `json:"state,omitempty"`
}

type jointDTO struct {
	Name               string             `json:"name"`
	Parent             string             `json:"parent,omitempty"`
	Rest               []float64          `json:"rest"`
	Length             float64            `json:"length"`
	Location           []float64          `json:"location"`
	RotationQuaternion []float64          `json:"rotation_quaternion"`
	RotationEuler      []float64          `json:"rotation_euler"`
	Scale              []float64          `json:"scale"`
	RotationMode       string             `json:"rotation_mode"`
	InheritRotation    bool               `json:"inherit_rotation"`
	InheritScale       string             `json:"inherit_scale"`
	Display            displayDTO         `json:"display"`
	Props              map[string]float64 `json:"props,omitempty"`
}

type displayDTO struct {
	ShapeRef         string     `json:"shape_ref,omitempty"`
	ShapeScale       []float64  `json:"shape_scale"`
	ShapeTranslation []float64  `json:"shape_translation"`
	ShapeRotation    []float64  `json:"shape_rotation"`
	ShapeTransform   string     `json:"shape_transform,omitempty"`
	ColorPalette     string     `json:"color_palette"`
	NormalColor      [3]float64 `json:"normal_color"`
	SelectColor      [3]float64 `json:"select_color"`
	ActiveColor      [3]float64 `json:"active_color"`
	Hidden           bool       `json:"hidden"`
	Collections      []string   `json:"collections"`
}

type collectionDTO struct {
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
}

type roleDTO struct {
	Joint        string `json:"joint"`
	Kind         string `json:"kind"`
	HostSkeleton string `json:"host_skeleton"`
	HostJoint    string `json:"host_joint"`
	EntryKey     string `json:"entry_key"`
}

type entryDTO struct {
	Key    string                    `json:"key"`
	Record rigstate.ConstraintRecord `json:"record"`
}

type clipDTO struct {
	Name       string       `json:"name"`
	FrameRange []float64    `json:"frame_range,omitempty"`
	Channels   []channelDTO `json:"channels"`
}

type channelDTO struct {
	Joint     string        `json:"joint"`
	Property  string        `json:"property"`
	Index     int           `json:"index"`
	Keyframes []keyframeDTO `json:"keyframes"`
}

type keyframeDTO struct {
	Time            float64    `json:"time"`
	Value           float64    `json:"value"`
	Interpolation   string     `json:"interpolation"`
	LeftHandleType  string     `json:"left_handle_type"`
	RightHandleType string     `json:"right_handle_type"`
	LeftHandle      [2]float64 `json:"left_handle"`
	RightHandle     [2]float64 `json:"right_handle"`
}

type stackDTO struct {
	Skeleton        string     `json:"skeleton"`
	Active          string     `json:"active"`
	ActiveBlend     string     `json:"active_blend"`
	ActiveInfluence float64    `json:"active_influence"`
	SinglePose      bool       `json:"single_pose"`
	Layers          []layerDTO `json:"layers"`
}

type layerDTO struct {
	Name      string  `json:"name"`
	Clip      string  `json:"clip"`
	Blend     string  `json:"blend"`
	Influence float64 `json:"influence"`
	Mute      bool    `json:"mute"`
	Solo      bool    `json:"solo"`
}

type jointRefDTO struct {
	Skeleton string `json:"skeleton"`
	Joint    string `json:"joint"`
}

type constraintDTO struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Kind        string       `json:"kind"`
	Owner       jointRefDTO  `json:"owner"`
	Target      jointRefDTO  `json:"target"`
	Pole        *jointRefDTO `json:"pole,omitempty"`
	OwnerSpace  string       `json:"owner_space"`
	TargetSpace string       `json:"target_space"`
	Influence   float64      `json:"influence"`
	EngineOwned bool         `json:"engine_owned"`
	Tag         string       `json:"tag,omitempty"`
	Offset      []float64    `json:"offset"`
	UseOffset   bool         `json:"use_offset"`
	Axis        string       `json:"axis"`
	AxisVector  []float64    `json:"axis_vector"`
	ChainLength int          `json:"chain_length"`
	UseStretch  bool         `json:"use_stretch"`
	UseLocation bool         `json:"use_location"`
	UseRotation bool         `json:"use_rotation"`
	RestLength  float64      `json:"rest_length"`
}

type driverDTO struct {
	ID          string        `json:"id"`
	Owner       jointRefDTO   `json:"owner"`
	Property    string        `json:"property"`
	Index       int           `json:"index"`
	Expression  string        `json:"expression"`
	Variables   []variableDTO `json:"variables"`
	EngineOwned bool          `json:"engine_owned"`
	Tag         string        `json:"tag,omitempty"`
}

type variableDTO struct {
	Name     string      `json:"name"`
	Kind     string      `json:"kind"`
	Source   jointRefDTO `json:"source"`
	Index    int         `json:"index"`
	Property string      `json:"property,omitempty"`
}

// newSceneFile はシーンを保存用の要素へ変換する。
func newSceneFile(sc *scene.Scene) *sceneFile {
	file := &sceneFile{
		Version: sceneFileVersion,
		Frame:   sc.Frame(),
		Settings: settingsDTO{
			SmartFrames:    sc.Settings.SmartFrames,
			SmartChannels:  sc.Settings.SmartChannels,
			NoBakeOnRemove: sc.Settings.NoBakeOnRemove,
		},
		Skeletons:   []skeletonDTO{},
		Clips:       []clipDTO{},
		Stacks:      []stackDTO{},
		Constraints: []constraintDTO{},
		Drivers:     []driverDTO{},
	}
	for _, skeleton := range sc.Skeletons() {
		file.Skeletons = append(file.Skeletons, newSkeletonDTO(skeleton))
	}
	for _, clip := range sc.Store.Clips() {
		file.Clips = append(file.Clips, newClipDTO(clip))
	}
	names := sc.Store.StackNames()
	sort.Strings(names)
	for _, name := range names {
		file.Stacks = append(file.Stacks, newStackDTO(name, sc.Store.Stack(name)))
	}
	for _, c := range sc.Constraints.All() {
		file.Constraints = append(file.Constraints, newConstraintDTO(c))
	}
	for _, d := range sc.Drivers.All() {
		file.Drivers = append(file.Drivers, newDriverDTO(d))
	}
	return file
}

func newSkeletonDTO(skeleton *model.Skeleton) skeletonDTO {
	dto := skeletonDTO{
		Name:        skeleton.Name,
		Matrix:      skeleton.Matrix.RowMajor(),
		Joints:      make([]jointDTO, 0, skeleton.Len()),
		Collections: make([]collectionDTO, 0, len(skeleton.Collections)),
	}
	for _, joint := range skeleton.Joints() {
		dto.Joints = append(dto.Joints, newJointDTO(joint))
	}
	for _, collection := range skeleton.Collections {
		dto.Collections = append(dto.Collections, collectionDTO{Name: collection.Name, Visible: collection.Visible})
	}
	for _, name := range skeleton.EngineOwnedJoints() {
		tag, _ := skeleton.RoleOf(name)
		dto.Roles = append(dto.Roles, roleDTO{
			Joint:        name,
			Kind:         string(tag.Kind),
			HostSkeleton: tag.HostSkeleton,
			HostJoint:    tag.HostJoint,
			EntryKey:     tag.EntryKey,
		})
	}
	for _, entry := range skeleton.State.Entries() {
		dto.State = append(dto.State, entryDTO{Key: entry.Key, Record: rigstate.RecordFromEntry(entry)})
	}
	return dto
}

func newJointDTO(joint *model.Joint) jointDTO {
	return jointDTO{
		Name:               joint.Name,
		Parent:             joint.Parent,
		Rest:               joint.Rest.RowMajor(),
		Length:             joint.Length,
		Location:           joint.Location.Slice(),
		RotationQuaternion: joint.RotationQuaternion.Slice(),
		RotationEuler:      joint.RotationEuler.Slice(),
		Scale:              joint.Scale.Slice(),
		RotationMode:       string(joint.RotationMode),
		InheritRotation:    joint.InheritRotation,
		InheritScale:       string(joint.InheritScale),
		Display: displayDTO{
			ShapeRef:         joint.Display.ShapeRef,
			ShapeScale:       joint.Display.ShapeScale.Slice(),
			ShapeTranslation: joint.Display.ShapeTranslation.Slice(),
			ShapeRotation:    joint.Display.ShapeRotation.Slice(),
			ShapeTransform:   joint.Display.ShapeTransform,
			ColorPalette:     joint.Display.ColorPalette,
			NormalColor:      joint.Display.NormalColor,
			SelectColor:      joint.Display.SelectColor,
			ActiveColor:      joint.Display.ActiveColor,
			Hidden:           joint.Display.Hidden,
			Collections:      append([]string{}, joint.Display.Collections...),
		},
		Props: joint.Props,
	}
}

func newClipDTO(clip *anim.Clip) clipDTO {
	dto := clipDTO{Name: clip.Name, Channels: []channelDTO{}}
	if clip.ManualRange {
		dto.FrameRange = []float64{clip.RangeStart, clip.RangeEnd}
	}
	for _, channel := range clip.Channels() {
		keys := make([]keyframeDTO, 0, channel.Len())
		for _, key := range channel.Keyframes {
			keys = append(keys, keyframeDTO{
				Time:            key.Time,
				Value:           key.Value,
				Interpolation:   string(key.Interpolation),
				LeftHandleType:  string(key.LeftHandleType),
				RightHandleType: string(key.RightHandleType),
				LeftHandle:      key.LeftHandle,
				RightHandle:     key.RightHandle,
			})
		}
		dto.Channels = append(dto.Channels, channelDTO{
			Joint:     channel.Key.Joint,
			Property:  string(channel.Key.Property),
			Index:     channel.Key.Index,
			Keyframes: keys,
		})
	}
	return dto
}

func newStackDTO(skeleton string, stack *anim.LayerStack) stackDTO {
	dto := stackDTO{
		Skeleton:        skeleton,
		Active:          stack.Active,
		ActiveBlend:     string(stack.ActiveBlend),
		ActiveInfluence: stack.ActiveInfluence,
		SinglePose:      stack.SinglePose,
		Layers:          make([]layerDTO, 0, len(stack.Layers)),
	}
	for _, layer := range stack.Layers {
		dto.Layers = append(dto.Layers, layerDTO{
			Name:      layer.Name,
			Clip:      layer.Clip,
			Blend:     string(layer.Blend),
			Influence: layer.Influence,
			Mute:      layer.Mute,
			Solo:      layer.Solo,
		})
	}
	return dto
}

func newJointRefDTO(ref constraint.JointRef) jointRefDTO {
	return jointRefDTO{Skeleton: ref.Skeleton, Joint: ref.Joint}
}

func (r jointRefDTO) ref() constraint.JointRef {
	return constraint.JointRef{Skeleton: r.Skeleton, Joint: r.Joint}
}

func newConstraintDTO(c *constraint.Constraint) constraintDTO {
	dto := constraintDTO{
		ID:          c.ID,
		Name:        c.Name,
		Kind:        string(c.Kind),
		Owner:       newJointRefDTO(c.Owner),
		Target:      newJointRefDTO(c.Target),
		OwnerSpace:  string(c.OwnerSpace),
		TargetSpace: string(c.TargetSpace),
		Influence:   c.Influence,
		EngineOwned: c.EngineOwned,
		Tag:         c.Tag,
		Offset:      c.Offset.RowMajor(),
		UseOffset:   c.UseOffset,
		Axis:        string(c.Axis),
		AxisVector:  c.AxisVector.Slice(),
		ChainLength: c.ChainLength,
		UseStretch:  c.UseStretch,
		UseLocation: c.UseLocation,
		UseRotation: c.UseRotation,
		RestLength:  c.RestLength,
	}
	if !c.Pole.IsZero() {
		pole := newJointRefDTO(c.Pole)
		dto.Pole = &pole
	}
	return dto
}

func newDriverDTO(d *constraint.Driver) driverDTO {
	dto := driverDTO{
		ID:          d.ID,
		Owner:       newJointRefDTO(d.Owner),
		Property:    string(d.Property),
		Index:       d.Index,
		Expression:  d.Expression,
		Variables:   make([]variableDTO, 0, len(d.Variables)),
		EngineOwned: d.EngineOwned,
		Tag:         d.Tag,
	}
	for _, v := range d.Variables {
		dto.Variables = append(dto.Variables, variableDTO{
			Name:     v.Name,
			Kind:     string(v.Kind),
			Source:   newJointRefDTO(v.Source),
			Index:    v.Index,
			Property: v.Property,
		})
	}
	return dto
}

// toScene は読み込んだ要素からシーンを組み立てる。
func (f *sceneFile) toScene() (*scene.Scene, error) {
	if f.Version > sceneFileVersion {
		return nil, fmt.Errorf("未対応のシーンファイル形式です: %d", f.Version)
	}
	sc := scene.NewScene()
	sc.Settings = scene.Settings{
		SmartFrames:    f.Settings.SmartFrames,
		SmartChannels:  f.Settings.SmartChannels,
		NoBakeOnRemove: f.Settings.NoBakeOnRemove,
	}
	for _, dto := range f.Skeletons {
		skeleton, err := dto.toSkeleton()
		if err != nil {
			return nil, err
		}
		if err := sc.AddSkeleton(skeleton); err != nil {
			return nil, err
		}
	}
	for _, dto := range f.Clips {
		dto.applyTo(sc.Store.EnsureClip(dto.Name))
	}
	for _, dto := range f.Stacks {
		dto.applyTo(sc.Store.Stack(dto.Skeleton))
	}
	for _, dto := range f.Constraints {
		sc.Constraints.Add(dto.toConstraint())
	}
	for _, dto := range f.Drivers {
		driver, err := dto.toDriver()
		if err != nil {
			return nil, err
		}
		sc.Drivers.Add(driver)
	}
	sc.SetFrame(f.Frame)
	return sc, nil
}

func (d skeletonDTO) toSkeleton() (*model.Skeleton, error) {
	skeleton := model.NewSkeleton(d.Name)
	if len(d.Matrix) == 16 {
		skeleton.Matrix = mmath.Mat4FromRowMajor(d.Matrix)
	}
	err := skeleton.WithStructuralEditScope(func() error {
		for _, dto := range d.Joints {
			if err := skeleton.AddJoint(dto.toJoint()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("骨格の復元に失敗しました %s: %w", d.Name, err)
	}
	for _, dto := range d.Collections {
		skeleton.EnsureCollection(dto.Name, dto.Visible).Visible = dto.Visible
	}
	for _, dto := range d.Roles {
		if !skeleton.Has(dto.Joint) {
			return nil, fmt.Errorf("役割付き関節が見つかりません: %s[%s]", d.Name, dto.Joint)
		}
		skeleton.SetRole(dto.Joint, model.RoleTag{
			Kind:         model.RoleKind(dto.Kind),
			HostSkeleton: dto.HostSkeleton,
			HostJoint:    dto.HostJoint,
			EntryKey:     dto.EntryKey,
		})
	}
	for _, dto := range d.State {
		if err := skeleton.State.Append(rigstate.EntryFromRecord(dto.Key, dto.Record)); err != nil {
			return nil, err
		}
	}
	return skeleton, nil
}

func (d jointDTO) toJoint() *model.Joint {
	joint := model.NewJoint(d.Name, d.Parent, mmath.Mat4FromRowMajor(d.Rest), d.Length)
	joint.Location = mmath.Vec3FromSlice(d.Location)
	if len(d.RotationQuaternion) == 4 {
		joint.RotationQuaternion = mmath.QuaternionFromSlice(d.RotationQuaternion)
	}
	joint.RotationEuler = mmath.Vec3FromSlice(d.RotationEuler)
	if len(d.Scale) == 3 {
		joint.Scale = mmath.Vec3FromSlice(d.Scale)
	}
	if d.RotationMode != "" {
		joint.RotationMode = mmath.RotationMode(d.RotationMode)
	}
	joint.InheritRotation = d.InheritRotation
	if d.InheritScale != "" {
		joint.InheritScale = model.InheritScale(d.InheritScale)
	}
	joint.Display.ShapeRef = d.Display.ShapeRef
	if len(d.Display.ShapeScale) == 3 {
		joint.Display.ShapeScale = mmath.Vec3FromSlice(d.Display.ShapeScale)
	}
	joint.Display.ShapeTranslation = mmath.Vec3FromSlice(d.Display.ShapeTranslation)
	joint.Display.ShapeRotation = mmath.Vec3FromSlice(d.Display.ShapeRotation)
	joint.Display.ShapeTransform = d.Display.ShapeTransform
	if d.Display.ColorPalette != "" {
		joint.Display.ColorPalette = d.Display.ColorPalette
	}
	joint.Display.NormalColor = d.Display.NormalColor
	joint.Display.SelectColor = d.Display.SelectColor
	joint.Display.ActiveColor = d.Display.ActiveColor
	joint.Display.Hidden = d.Display.Hidden
	joint.Display.Collections = append([]string(nil), d.Display.Collections...)
	for key, value := range d.Props {
		joint.Props[key] = value
	}
	return joint
}

func (d clipDTO) applyTo(clip *anim.Clip) {
	if len(d.FrameRange) == 2 {
		clip.SetFrameRange(d.FrameRange[0], d.FrameRange[1])
	}
	for _, dto := range d.Channels {
		channel := clip.EnsureChannel(anim.ChannelKey{
			Joint:    model.NormalizeName(dto.Joint),
			Property: anim.Property(dto.Property),
			Index:    dto.Index,
		})
		keys := make([]anim.Keyframe, 0, len(dto.Keyframes))
		for _, key := range dto.Keyframes {
			keys = append(keys, anim.Keyframe{
				Time:            key.Time,
				Value:           key.Value,
				Interpolation:   anim.Interpolation(key.Interpolation),
				LeftHandleType:  anim.HandleType(key.LeftHandleType),
				RightHandleType: anim.HandleType(key.RightHandleType),
				LeftHandle:      key.LeftHandle,
				RightHandle:     key.RightHandle,
			})
		}
		sort.SliceStable(keys, func(i, j int) bool { return keys[i].Time < keys[j].Time })
		channel.Keyframes = keys
	}
}

func (d stackDTO) applyTo(stack *anim.LayerStack) {
	stack.Active = d.Active
	if d.ActiveBlend != "" {
		stack.ActiveBlend = anim.BlendMode(d.ActiveBlend)
	}
	stack.ActiveInfluence = d.ActiveInfluence
	stack.SinglePose = d.SinglePose
	stack.Layers = make([]anim.Layer, 0, len(d.Layers))
	for _, layer := range d.Layers {
		stack.Layers = append(stack.Layers, anim.Layer{
			Name:      layer.Name,
			Clip:      layer.Clip,
			Blend:     anim.BlendMode(layer.Blend),
			Influence: layer.Influence,
			Mute:      layer.Mute,
			Solo:      layer.Solo,
		})
	}
}

func (d constraintDTO) toConstraint() *constraint.Constraint {
	c := constraint.New(constraint.Kind(d.Kind), d.Owner.ref(), d.Target.ref())
	if d.ID != "" {
		c.ID = d.ID
	}
	c.Name = d.Name
	if d.Pole != nil {
		c.Pole = d.Pole.ref()
	}
	c.OwnerSpace = constraint.Space(d.OwnerSpace)
	c.TargetSpace = constraint.Space(d.TargetSpace)
	c.Influence = d.Influence
	c.EngineOwned = d.EngineOwned
	c.Tag = d.Tag
	if len(d.Offset) == 16 {
		c.Offset = mmath.Mat4FromRowMajor(d.Offset)
	}
	c.UseOffset = d.UseOffset
	c.Axis = constraint.TrackAxis(d.Axis)
	c.AxisVector = mmath.Vec3FromSlice(d.AxisVector)
	c.ChainLength = d.ChainLength
	c.UseStretch = d.UseStretch
	c.UseLocation = d.UseLocation
	c.UseRotation = d.UseRotation
	c.RestLength = d.RestLength
	return c
}

func (d driverDTO) toDriver() (*constraint.Driver, error) {
	variables := make([]constraint.Variable, 0, len(d.Variables))
	for _, v := range d.Variables {
		variables = append(variables, constraint.Variable{
			Name:     v.Name,
			Kind:     constraint.VariableKind(v.Kind),
			Source:   v.Source.ref(),
			Index:    v.Index,
			Property: v.Property,
		})
	}
	driver, err := constraint.NewDriver(d.Owner.ref(), anim.Property(d.Property), d.Index, d.Expression, variables)
	if err != nil {
		return nil, fmt.Errorf("ドライバー式の復元に失敗しました %q: %w", d.Expression, err)
	}
	if d.ID != "" {
		driver.ID = d.ID
	}
	driver.EngineOwned = d.EngineOwned
	driver.Tag = d.Tag
	return driver, nil
}
