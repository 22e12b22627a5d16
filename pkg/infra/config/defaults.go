// 指示: miu200521358
package config

import (
	"github.com/miu200521358/mu_rigbake/pkg/domain/scene"
	"github.com/miu200521358/mu_rigbake/pkg/usecase/minteractor"
)

// Default は設定ファイルがない場合の設定を返す。
func Default() Config {
	settings := scene.DefaultSettings()
	ops := minteractor.DefaultOperationDefaults()
	return Config{
		Bake: Bake{
			SmartFrames:    settings.SmartFrames,
			SmartChannels:  settings.SmartChannels,
			NoBakeOnRemove: settings.NoBakeOnRemove,
		},
		IK: IK{
			DefaultChainLength: ops.IKChainLength,
			Pole:               ops.IKPole,
			StretchType:        ops.IKStretchType,
			PoleAxis:           ops.IKPoleAxis,
		},
		RotationDistribution: RotationDistribution{
			ChainLength: ops.DistributionChainLength,
		},
		Aim: Aim{
			Axis:     ops.AimAxis,
			Distance: ops.AimDistance,
			Stretch:  ops.AimStretch,
		},
		KeyRange: KeyRange{
			Start:    1,
			End:      250,
			Step:     1,
			Location: true,
			Rotation: true,
			Scale:    true,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		State: State{
			SchemaVersion: ops.SchemaVersion,
		},
	}
}
