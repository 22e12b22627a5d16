// 指示: miu200521358
package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/miu200521358/mu_rigbake/pkg/domain/anim"
	"github.com/miu200521358/mu_rigbake/pkg/infra/config"
	"github.com/miu200521358/mu_rigbake/pkg/usecase/minteractor"
)

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent")
	}
	want := filepath.Join(tempHome, ".config", "mu_rigbake", "config.toml")
	if resolved != want {
		t.Fatalf("resolved path mismatch: got=%q want=%q", resolved, want)
	}
	if got, want := cfg.OperationDefaults(), minteractor.DefaultOperationDefaults(); got != want {
		t.Fatalf("operation defaults mismatch: got=%+v want=%+v", got, want)
	}
	if settings := cfg.SceneSettings(); !settings.SmartFrames || settings.SmartChannels || settings.NoBakeOnRemove {
		t.Fatalf("scene settings mismatch: %+v", settings)
	}
	if cfg.KeyRange.Mask() != anim.MaskAll {
		t.Fatalf("key range mask mismatch: got=%v", cfg.KeyRange.Mask())
	}
}

func TestLoadOverridesAndNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rig.toml")
	content := `
[bake]
smart_frames = false
no_bake_on_remove = true

[ik]
stretch_type = " stretch "
pole_axis = "+z"

[aim]
axis = "-y"
distance = 2.5

[key_range]
scale = false

[logging]
level = "DEBUG"
format = "console"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolve mismatch: path=%q exists=%v", resolved, exists)
	}
	ops := cfg.OperationDefaults()
	if ops.IKStretchType != minteractor.StretchTypeStretch || ops.IKPoleAxis != "Z" || ops.AimAxis != "-Y" || ops.AimDistance != 2.5 {
		t.Fatalf("operation defaults mismatch: %+v", ops)
	}
	if ops.IKChainLength != 2 {
		t.Fatalf("omitted values should keep defaults: got=%d", ops.IKChainLength)
	}
	if settings := cfg.SceneSettings(); settings.SmartFrames || !settings.NoBakeOnRemove {
		t.Fatalf("scene settings mismatch: %+v", settings)
	}
	if cfg.KeyRange.Mask()&anim.MaskScale != 0 {
		t.Fatalf("scale should be excluded from key range mask")
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Fatalf("logging mismatch: %+v", cfg.Logging)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{name: "chain", content: "[ik]\ndefault_chain_length = 0\n", want: "ik.default_chain_length"},
		{name: "stretch", content: "[ik]\nstretch_type = \"SQUASH\"\n", want: "ik.stretch_type"},
		{name: "axis", content: "[aim]\naxis = \"W\"\n", want: "aim.axis"},
		{name: "distance", content: "[aim]\ndistance = 0.0\n", want: "aim.distance"},
		{name: "step", content: "[key_range]\nstep = 0.0\n", want: "key_range.step"},
		{name: "range", content: "[key_range]\nstart = 10.0\nend = 1.0\n", want: "key_range.end"},
		{name: "level", content: "[logging]\nlevel = \"loud\"\n", want: "logging.level"},
		{name: "schema", content: "[state]\nschema_version = 9\n", want: "state.schema_version"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error mismatch: got=%v want=%s", err, tc.want)
			}
		})
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[bake]\nsmart_frame = true\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key error")
	}
}

func TestProjectConfigTakesPrecedence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, "mu_rigbake.toml"), []byte("[rotation_distribution]\nchain_length = 4\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || filepath.Base(resolved) != "mu_rigbake.toml" {
		t.Fatalf("resolve mismatch: path=%q exists=%v", resolved, exists)
	}
	if cfg.RotationDistribution.ChainLength != 4 {
		t.Fatalf("chain length mismatch: got=%d want=4", cfg.RotationDistribution.ChainLength)
	}
}

func TestCreateSampleMatchesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	if err := config.CreateSample(path); err == nil {
		t.Fatal("expected error when sample already exists")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample is not valid toml: %v", err)
	}
	if decoded != config.Default() {
		t.Fatalf("sample mismatch:\n got=%+v\nwant=%+v", decoded, config.Default())
	}
}
