// 指示: miu200521358
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/miu200521358/mu_rigbake/pkg/domain/rigstate"
	"github.com/miu200521358/mu_rigbake/pkg/usecase/minteractor"
)

var (
	validAxes       = []string{"X", "Y", "Z", "-X", "-Y", "-Z"}
	validLogLevels  = []string{"verbose", "debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
)

// Validate は設定値が利用可能か検証する。
func (c *Config) Validate() error {
	if err := c.validateIK(); err != nil {
		return err
	}
	if err := c.validateRotationDistribution(); err != nil {
		return err
	}
	if err := c.validateAim(); err != nil {
		return err
	}
	if err := c.validateKeyRange(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateState()
}

func (c *Config) validateIK() error {
	if c.IK.DefaultChainLength < 1 {
		return errors.New("ik.default_chain_length は 1 以上が必要です")
	}
	if c.IK.StretchType != minteractor.StretchTypeNone && c.IK.StretchType != minteractor.StretchTypeStretch {
		return fmt.Errorf("ik.stretch_type が不正です: %q", c.IK.StretchType)
	}
	if !slices.Contains(validAxes, c.IK.PoleAxis) {
		return fmt.Errorf("ik.pole_axis が不正です: %q", c.IK.PoleAxis)
	}
	return nil
}

func (c *Config) validateRotationDistribution() error {
	if c.RotationDistribution.ChainLength < 1 {
		return errors.New("rotation_distribution.chain_length は 1 以上が必要です")
	}
	return nil
}

func (c *Config) validateAim() error {
	if !slices.Contains(validAxes, c.Aim.Axis) {
		return fmt.Errorf("aim.axis が不正です: %q", c.Aim.Axis)
	}
	if c.Aim.Distance <= 0 {
		return errors.New("aim.distance は正の値が必要です")
	}
	return nil
}

func (c *Config) validateKeyRange() error {
	if c.KeyRange.Step <= 0 {
		return errors.New("key_range.step は正の値が必要です")
	}
	if c.KeyRange.End < c.KeyRange.Start {
		return errors.New("key_range.end は key_range.start 以上が必要です")
	}
	if c.KeyRange.Mask() == 0 {
		return errors.New("key_range は location/rotation/scale のいずれかが必要です")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains(validLogLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level が不正です: %q", c.Logging.Level)
	}
	if !slices.Contains(validLogFormats, c.Logging.Format) {
		return fmt.Errorf("logging.format が不正です: %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateState() error {
	switch c.State.SchemaVersion {
	case rigstate.SchemaVersionBoneGroups, rigstate.CurrentSchemaVersion:
		return nil
	default:
		return fmt.Errorf("state.schema_version が未対応です: %d", c.State.SchemaVersion)
	}
}
