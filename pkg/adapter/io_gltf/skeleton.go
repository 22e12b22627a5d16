// 指示: miu200521358
package io_gltf

import (
	"fmt"
	"strings"

	"github.com/miu200521358/mu_rigbake/pkg/adapter/io_common"
	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
)

const (
	// HumanoidCollectionName はVRM humanoid 関節の表示グループ名。
	HumanoidCollectionName = "Humanoid"
	defaultJointLength     = 0.1
	minJointLength         = 0.01
)

// buildNodeParentIndexes はnode配列から親インデックス配列を生成する。
func buildNodeParentIndexes(nodes []gltfNode) ([]int, error) {
	parentIndexes := make([]int, len(nodes))
	for i := range parentIndexes {
		parentIndexes[i] = -1
	}
	for parentIndex, node := range nodes {
		for _, childIndex := range node.Children {
			if childIndex < 0 || childIndex >= len(nodes) {
				return nil, io_common.NewIoParseFailed(fmt.Sprintf("node.children のindexが不正です: %d", childIndex), nil)
			}
			if parentIndexes[childIndex] == -1 {
				parentIndexes[childIndex] = parentIndex
			}
		}
	}
	return parentIndexes, nil
}

// buildNodeWorldMatrices はnodeのローカル変換からワールド行列を算出する。
func buildNodeWorldMatrices(nodes []gltfNode, parents []int) ([]mmath.Mat4, error) {
	worldMats := make([]mmath.Mat4, len(nodes))
	state := make([]int, len(nodes))
	for i := range nodes {
		if err := resolveNodeWorldMatrix(nodes, parents, i, state, worldMats); err != nil {
			return nil, err
		}
	}
	return worldMats, nil
}

// resolveNodeWorldMatrix はnodeのワールド行列を再帰的に解決する。
func resolveNodeWorldMatrix(nodes []gltfNode, parents []int, nodeIndex int, state []int, worldMats []mmath.Mat4) error {
	if state[nodeIndex] == 2 {
		return nil
	}
	if state[nodeIndex] == 1 {
		return io_common.NewIoParseFailed(fmt.Sprintf("node親子関係に循環があります: %d", nodeIndex), nil)
	}
	state[nodeIndex] = 1
	local, err := nodeLocalMatrix(nodes[nodeIndex])
	if err != nil {
		return err
	}
	parentIndex := parents[nodeIndex]
	if parentIndex >= 0 {
		if err := resolveNodeWorldMatrix(nodes, parents, parentIndex, state, worldMats); err != nil {
			return err
		}
		worldMats[nodeIndex] = worldMats[parentIndex].Mul(local)
	} else {
		worldMats[nodeIndex] = local
	}
	state[nodeIndex] = 2
	return nil
}

// nodeLocalMatrix はnode要素からローカル行列を生成する。matrix は列優先。
func nodeLocalMatrix(node gltfNode) (mmath.Mat4, error) {
	if len(node.Matrix) > 0 {
		if len(node.Matrix) != 16 {
			return mmath.Mat4Identity(), io_common.NewIoParseFailed(fmt.Sprintf("node.matrix の要素数が不正です: %d", len(node.Matrix)), nil)
		}
		var mat mmath.Mat4
		copy(mat[:], node.Matrix)
		return mat, nil
	}
	translation, err := parseVec3(node.Translation, mmath.Vec3Zero(), "node.translation")
	if err != nil {
		return mmath.Mat4Identity(), err
	}
	scale, err := parseVec3(node.Scale, mmath.Vec3One(), "node.scale")
	if err != nil {
		return mmath.Mat4Identity(), err
	}
	rotation := mmath.QuaternionIdentity()
	if len(node.Rotation) > 0 {
		if len(node.Rotation) != 4 {
			return mmath.Mat4Identity(), io_common.NewIoParseFailed(fmt.Sprintf("node.rotation の要素数が不正です: %d", len(node.Rotation)), nil)
		}
		// glTF は x,y,z,w の順。
		rotation = mmath.NewQuaternion(node.Rotation[3], node.Rotation[0], node.Rotation[1], node.Rotation[2]).Normalized()
	}
	return mmath.NewMat4FromLocRotScale(translation, rotation, scale), nil
}

func parseVec3(values []float64, defaultValue mmath.Vec3, label string) (mmath.Vec3, error) {
	if len(values) == 0 {
		return defaultValue, nil
	}
	if len(values) != 3 {
		return mmath.Vec3Zero(), io_common.NewIoParseFailed(fmt.Sprintf("%s の要素数が不正です: %d", label, len(values)), nil)
	}
	return mmath.Vec3FromSlice(values), nil
}

// selectJointNodes は関節にするnodeを返す。スキンがあればスキン関節のみ、無ければメッシュ以外の全node。
func selectJointNodes(doc *gltfDocument) map[int]bool {
	selected := map[int]bool{}
	for _, skin := range doc.Skins {
		for _, joint := range skin.Joints {
			if joint >= 0 && joint < len(doc.Nodes) {
				selected[joint] = true
			}
		}
	}
	if len(selected) > 0 {
		return selected
	}
	for i, node := range doc.Nodes {
		if node.Mesh == nil {
			selected[i] = true
		}
	}
	return selected
}

// nearestSelectedAncestor は関節に選ばれた最も近い祖先nodeを返す。無ければ -1。
func nearestSelectedAncestor(parents []int, selected map[int]bool, nodeIndex int) int {
	for current := parents[nodeIndex]; current >= 0; current = parents[current] {
		if selected[current] {
			return current
		}
	}
	return -1
}

// resolveNodeJointName はnode名から関節名を決定する。
func resolveNodeJointName(nodeIndex int, nodeName string) string {
	trimmed := strings.TrimSpace(nodeName)
	if trimmed != "" {
		return trimmed
	}
	return fmt.Sprintf("node_%03d", nodeIndex)
}

// ensureUniqueJointName は同名関節の重複を回避する。
func ensureUniqueJointName(name string, used map[string]int) string {
	if _, ok := used[name]; !ok {
		used[name] = 1
		return name
	}
	index := used[name]
	used[name] = index + 1
	return fmt.Sprintf("%s_%d", name, index)
}

// jointLength は最初の子関節までの距離を長さとする。子が無ければ親からの距離の半分。
func jointLength(nodeIndex int, childIndex int, parentIndex int, worlds []mmath.Mat4) float64 {
	head := worlds[nodeIndex].Translation()
	if childIndex >= 0 {
		if length := worlds[childIndex].Translation().Sub(head).Length(); length > minJointLength {
			return length
		}
	}
	if parentIndex >= 0 {
		if length := head.Sub(worlds[parentIndex].Translation()).Length() * 0.5; length > minJointLength {
			return length
		}
	}
	return defaultJointLength
}

// buildSkeleton は文書のnode階層から骨格を構築する。レストは拡縮を除いたワールド行列。
func buildSkeleton(name string, doc *gltfDocument) (*model.Skeleton, error) {
	if len(doc.Nodes) == 0 {
		return nil, io_common.NewIoParseFailed("glTFにnodeがありません", nil)
	}
	parents, err := buildNodeParentIndexes(doc.Nodes)
	if err != nil {
		return nil, err
	}
	worlds, err := buildNodeWorldMatrices(doc.Nodes, parents)
	if err != nil {
		return nil, err
	}
	humanoid, err := humanoidBones(doc)
	if err != nil {
		return nil, err
	}
	selected := selectJointNodes(doc)

	order := make([]int, 0, len(selected))
	visited := make([]bool, len(doc.Nodes))
	var visit func(int)
	visit = func(index int) {
		if visited[index] {
			return
		}
		visited[index] = true
		if selected[index] {
			order = append(order, index)
		}
		for _, child := range doc.Nodes[index].Children {
			visit(child)
		}
	}
	for i := range doc.Nodes {
		if parents[i] < 0 {
			visit(i)
		}
	}

	skeleton := model.NewSkeleton(name)
	jointNames := map[int]string{}
	used := map[string]int{}
	err = skeleton.WithStructuralEditScope(func() error {
		for _, index := range order {
			jointName := ensureUniqueJointName(resolveNodeJointName(index, doc.Nodes[index].Name), used)
			parentIndex := nearestSelectedAncestor(parents, selected, index)
			parentName := ""
			if parentIndex >= 0 {
				parentName = jointNames[parentIndex]
			}
			childIndex := -1
			for _, child := range doc.Nodes[index].Children {
				if selected[child] {
					childIndex = child
					break
				}
			}
			length := jointLength(index, childIndex, parentIndex, worlds)
			joint, err := skeleton.CreateJoint(jointName, parentName, worlds[index].NormalizedAxes(), length)
			if err != nil {
				return err
			}
			jointNames[index] = joint.Name
		}
		return nil
	})
	if err != nil {
		return nil, io_common.NewIoParseFailed("骨格の構築に失敗しました", err)
	}
	for nodeIndex := range humanoid {
		if jointName, ok := jointNames[nodeIndex]; ok {
			skeleton.AssignCollection(jointName, HumanoidCollectionName)
		}
	}
	return skeleton, nil
}
