// 指示: miu200521358
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/miu200521358/mu_rigbake/pkg/domain/anim"
	"github.com/miu200521358/mu_rigbake/pkg/domain/scene"
	"github.com/miu200521358/mu_rigbake/pkg/usecase/minteractor"
)

//go:embed sample_config.toml
var sampleConfig string

const (
	defaultConfigPath = "~/.config/mu_rigbake/config.toml"
	projectConfigName = "mu_rigbake.toml"
)

// Bake はベイク動作の設定を表す。
type Bake struct {
	SmartFrames    bool `toml:"smart_frames"`
	SmartChannels  bool `toml:"smart_channels"`
	NoBakeOnRemove bool `toml:"no_bake_on_remove"`
}

// IK は IK 操作の既定値を表す。
type IK struct {
	DefaultChainLength int    `toml:"default_chain_length"`
	Pole               bool   `toml:"pole"`
	StretchType        string `toml:"stretch_type"`
	PoleAxis           string `toml:"pole_axis"`
}

// RotationDistribution は回転分配操作の既定値を表す。
type RotationDistribution struct {
	ChainLength int `toml:"chain_length"`
}

// Aim は注視操作の既定値を表す。
type Aim struct {
	Axis     string  `toml:"axis"`
	Distance float64 `toml:"distance"`
	Stretch  bool    `toml:"stretch"`
}

// KeyRange は範囲キー打ちの既定値を表す。
type KeyRange struct {
	Start         float64 `toml:"start"`
	End           float64 `toml:"end"`
	Step          float64 `toml:"step"`
	Location      bool    `toml:"location"`
	Rotation      bool    `toml:"rotation"`
	Scale         bool    `toml:"scale"`
	AvailableOnly bool    `toml:"available_only"`
}

// Logging はログ出力の設定を表す。
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// State はリグ状態ファイルの設定を表す。
type State struct {
	SchemaVersion int `toml:"schema_version"`
}

// Config は設定ファイル全体を表す。
type Config struct {
	Bake                 Bake                 `toml:"bake"`
	IK                   IK                   `toml:"ik"`
	RotationDistribution RotationDistribution `toml:"rotation_distribution"`
	Aim                  Aim                  `toml:"aim"`
	KeyRange             KeyRange             `toml:"key_range"`
	Logging              Logging              `toml:"logging"`
	State                State                `toml:"state"`
}

// DefaultConfigPath は既定の設定ファイルパスを返す。
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load は設定ファイルを読み込み、正規化と検証を行う。
// 戻り値は設定、解決したパス、ファイルの有無、エラーの順。
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("設定ファイルを開けません: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("設定ファイルの解析に失敗しました: %w", err)
		}
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("設定ファイルの確認に失敗しました: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("設定ファイルパスがディレクトリです: %s", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("ホームディレクトリを解決できません: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("絶対パスを解決できません %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath は "~" を含むパスを絶対パスへ展開する。
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample はサンプル設定ファイルを書き出す。既存ファイルは上書きしない。
func CreateSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("設定ファイルが既に存在します: %s", path)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("設定ディレクトリを作成できません: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("サンプル設定の書き込みに失敗しました: %w", err)
	}
	return nil
}

// SampleConfig は埋め込みのサンプル設定を返す。
func SampleConfig() string {
	return sampleConfig
}

// OperationDefaults は操作パラメータの既定値へ変換する。
func (c *Config) OperationDefaults() minteractor.OperationDefaults {
	return minteractor.OperationDefaults{
		IKChainLength:           c.IK.DefaultChainLength,
		IKPole:                  c.IK.Pole,
		IKStretchType:           c.IK.StretchType,
		IKPoleAxis:              c.IK.PoleAxis,
		DistributionChainLength: c.RotationDistribution.ChainLength,
		AimAxis:                 c.Aim.Axis,
		AimDistance:             c.Aim.Distance,
		AimStretch:              c.Aim.Stretch,
		SchemaVersion:           c.State.SchemaVersion,
	}
}

// SceneSettings はシーンの動作設定へ変換する。
func (c *Config) SceneSettings() scene.Settings {
	return scene.Settings{
		SmartFrames:    c.Bake.SmartFrames,
		SmartChannels:  c.Bake.SmartChannels,
		NoBakeOnRemove: c.Bake.NoBakeOnRemove,
	}
}

// Mask は範囲キー打ちで対象にするチャンネルを返す。
func (k KeyRange) Mask() anim.ChannelMask {
	mask := anim.MaskNone
	if k.Location {
		mask |= anim.MaskLocation
	}
	if k.Rotation {
		mask |= anim.MaskRotation
	}
	if k.Scale {
		mask |= anim.MaskScale
	}
	return mask
}
