// 指示: miu200521358
package io_gltf

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/miu200521358/mu_rigbake/pkg/adapter/io_common"
)

const (
	glbHeaderLength   = 12
	glbChunkHeadSize  = 8
	glbMagic          = 0x46546C67
	glbJSONChunkType  = 0x4E4F534A
	glbMinValidLength = glbHeaderLength + glbChunkHeadSize
)

// gltfDocument は骨格読込に必要なglTFトップレベル要素を表す。
type gltfDocument struct {
	Asset          gltfAsset                  `json:"asset"`
	Nodes          []gltfNode                 `json:"nodes"`
	Skins          []gltfSkin                 `json:"skins"`
	ExtensionsUsed []string                   `json:"extensionsUsed"`
	Extensions     map[string]json.RawMessage `json:"extensions"`
}

type gltfAsset struct {
	Version   string `json:"version"`
	Generator string `json:"generator"`
}

// gltfNode はglTF node要素を表す。
type gltfNode struct {
	Name        string    `json:"name"`
	Mesh        *int      `json:"mesh"`
	Children    []int     `json:"children"`
	Matrix      []float64 `json:"matrix"`
	Translation []float64 `json:"translation"`
	Rotation    []float64 `json:"rotation"`
	Scale       []float64 `json:"scale"`
}

type gltfSkin struct {
	Joints []int `json:"joints"`
}

// vrm0Extension はVRM0拡張の humanoid 要素を表す。
type vrm0Extension struct {
	Humanoid struct {
		HumanBones []struct {
			Bone string `json:"bone"`
			Node int    `json:"node"`
		} `json:"humanBones"`
	} `json:"humanoid"`
}

// vrm1Extension はVRM1拡張の humanoid 要素を表す。
type vrm1Extension struct {
	Humanoid struct {
		HumanBones map[string]struct {
			Node *int `json:"node"`
		} `json:"humanBones"`
	} `json:"humanoid"`
}

// parseDocument はglTF JSON または GLB バイナリから文書を解析する。
func parseDocument(b []byte, glb bool) (*gltfDocument, error) {
	jsonChunk := b
	if glb {
		chunk, err := parseGLBJSONChunk(b)
		if err != nil {
			return nil, err
		}
		jsonChunk = chunk
	}
	doc := &gltfDocument{}
	if err := json.Unmarshal(jsonChunk, doc); err != nil {
		return nil, io_common.NewIoParseFailed("glTF JSONの解析に失敗しました", err)
	}
	if doc.Asset.Version != "" && !strings.HasPrefix(doc.Asset.Version, "2.") {
		return nil, io_common.NewIoFormatNotSupported(fmt.Sprintf("glTFバージョンが未対応です: %s", doc.Asset.Version), nil)
	}
	return doc, nil
}

// parseGLBJSONChunk はGLBバイナリからJSONチャンクを取り出す。
func parseGLBJSONChunk(b []byte) ([]byte, error) {
	if len(b) < glbMinValidLength {
		return nil, io_common.NewIoParseFailed("GLBヘッダが不足しています", nil)
	}
	if magic := binary.LittleEndian.Uint32(b[0:4]); magic != glbMagic {
		return nil, io_common.NewIoParseFailed("GLBマジックが不正です", nil)
	}
	if version := binary.LittleEndian.Uint32(b[4:8]); version != 2 {
		return nil, io_common.NewIoFormatNotSupported(fmt.Sprintf("GLBバージョンが未対応です: %d", version), nil)
	}
	if totalLength := binary.LittleEndian.Uint32(b[8:12]); totalLength > uint32(len(b)) {
		return nil, io_common.NewIoParseFailed("GLB全体長が不正です", nil)
	}

	offset := glbHeaderLength
	for offset+glbChunkHeadSize <= len(b) {
		chunkLength := int(binary.LittleEndian.Uint32(b[offset : offset+4]))
		chunkType := binary.LittleEndian.Uint32(b[offset+4 : offset+8])
		chunkStart := offset + glbChunkHeadSize
		chunkEnd := chunkStart + chunkLength
		if chunkLength < 0 || chunkEnd > len(b) {
			return nil, io_common.NewIoParseFailed("GLBチャンク長が不正です", nil)
		}
		if chunkType == glbJSONChunkType {
			return b[chunkStart:chunkEnd], nil
		}
		offset = chunkEnd
	}
	return nil, io_common.NewIoParseFailed("GLB JSONチャンクが見つかりません", nil)
}

// humanoidBones はVRM拡張から node index ごとの humanoid 名を返す。VRM1 を優先する。
func humanoidBones(doc *gltfDocument) (map[int]string, error) {
	bones := map[int]string{}
	if doc.Extensions == nil {
		return bones, nil
	}
	if raw, ok := doc.Extensions["VRMC_vrm"]; ok {
		ext := vrm1Extension{}
		if err := json.Unmarshal(raw, &ext); err != nil {
			return nil, io_common.NewIoParseFailed("VRM1拡張のJSON解析に失敗しました", err)
		}
		for name, bone := range ext.Humanoid.HumanBones {
			if bone.Node != nil {
				bones[*bone.Node] = name
			}
		}
		return bones, nil
	}
	if raw, ok := doc.Extensions["VRM"]; ok {
		ext := vrm0Extension{}
		if err := json.Unmarshal(raw, &ext); err != nil {
			return nil, io_common.NewIoParseFailed("VRM0拡張のJSON解析に失敗しました", err)
		}
		for _, bone := range ext.Humanoid.HumanBones {
			bones[bone.Node] = bone.Bone
		}
	}
	return bones, nil
}
