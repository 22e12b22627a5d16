// 指示: miu200521358
package config

import "strings"

func (c *Config) normalize() {
	c.IK.StretchType = strings.ToUpper(strings.TrimSpace(c.IK.StretchType))
	c.IK.PoleAxis = normalizeAxis(c.IK.PoleAxis)
	c.Aim.Axis = normalizeAxis(c.Aim.Axis)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" || c.Logging.Format == "console" {
		c.Logging.Format = "text"
	}
}

func normalizeAxis(axis string) string {
	axis = strings.ToUpper(strings.TrimSpace(axis))
	return strings.TrimPrefix(axis, "+")
}
