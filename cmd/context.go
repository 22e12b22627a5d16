// 指示: miu200521358
package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/miu200521358/mu_rigbake/pkg/adapter/io_gltf"
	"github.com/miu200521358/mu_rigbake/pkg/adapter/io_rigstate"
	"github.com/miu200521358/mu_rigbake/pkg/adapter/io_scene"
	"github.com/miu200521358/mu_rigbake/pkg/adapter/mpresenter/messages"
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/domain/scene"
	"github.com/miu200521358/mu_rigbake/pkg/infra/base/mlogging"
	"github.com/miu200521358/mu_rigbake/pkg/infra/config"
	"github.com/miu200521358/mu_rigbake/pkg/shared/base/logging"
	"github.com/miu200521358/mu_rigbake/pkg/usecase/minteractor"
)

// commandContext はコマンド間で共有するフラグと遅延初期化の状態を表す。
type commandContext struct {
	configFlag   string
	sceneFlag    string
	outFlag      string
	skeletonFlag string
	logLevelFlag string
	verboseFlags []string

	out    io.Writer
	errOut io.Writer

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
	logger       *mlogging.Logger
}

func newCommandContext(out io.Writer, errOut io.Writer) *commandContext {
	return &commandContext{out: out, errOut: errOut}
}

// ensureConfig は設定を読み込み、既定ロガーを設定する。
func (c *commandContext) ensureConfig() error {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(c.configFlag)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
		c.configExists = exists

		level := cfg.Logging.Level
		if strings.TrimSpace(c.logLevelFlag) != "" {
			level = c.logLevelFlag
		}
		logger, err := mlogging.New(mlogging.Options{Writer: c.errOut, Level: level, Format: cfg.Logging.Format})
		if err != nil {
			c.configErr = err
			return
		}
		for _, name := range c.verboseFlags {
			index, ok := verboseIndex(name)
			if !ok {
				c.configErr = fmt.Errorf(messages.MessageInvalidVerboseKey, name)
				return
			}
			logger.EnableVerbose(index, true)
		}
		c.logger = logger
		logging.SetDefaultLogger(logger)
	})
	return c.configErr
}

// currentConfig は読み込み済みの設定を返す。未読み込みなら既定値。
func (c *commandContext) currentConfig() *config.Config {
	if c.config != nil {
		return c.config
	}
	cfg := config.Default()
	return &cfg
}

func verboseIndex(name string) (logging.VerboseIndex, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bake":
		return logging.VERBOSE_INDEX_BAKE, true
	case "pose":
		return logging.VERBOSE_INDEX_POSE, true
	case "state":
		return logging.VERBOSE_INDEX_STATE, true
	default:
		return 0, false
	}
}

// usecase は設定の既定値とファイルリポジトリを持つユースケースを生成する。
func (c *commandContext) usecase() *minteractor.RigBakeUsecase {
	defaults := c.currentConfig().OperationDefaults()
	stateRepository := io_rigstate.NewRigStateRepository()
	sceneRepository := io_scene.NewSceneRepository()
	return minteractor.NewRigBakeUsecase(minteractor.RigBakeUsecaseDeps{
		StateReader:    stateRepository,
		StateWriter:    stateRepository,
		SceneReader:    sceneRepository,
		SceneWriter:    sceneRepository,
		SkeletonReader: io_gltf.NewSkeletonRepository(),
		Defaults:       &defaults,
	})
}

// loadScene は --scene のシーンを読み込み、設定のベイク動作を反映する。
func (c *commandContext) loadScene(uc *minteractor.RigBakeUsecase) (*scene.Scene, error) {
	if strings.TrimSpace(c.sceneFlag) == "" {
		return nil, errors.New(messages.MessageSceneRequired)
	}
	path, err := config.ExpandPath(c.sceneFlag)
	if err != nil {
		return nil, err
	}
	sc, err := uc.LoadScene(nil, path)
	if err != nil {
		return nil, err
	}
	sc.Settings = c.currentConfig().SceneSettings()
	return sc, nil
}

// saveScene は --out、なければ --scene へシーンを保存する。
func (c *commandContext) saveScene(uc *minteractor.RigBakeUsecase, sc *scene.Scene) error {
	target := c.outFlag
	if strings.TrimSpace(target) == "" {
		target = c.sceneFlag
	}
	path, err := config.ExpandPath(target)
	if err != nil {
		return err
	}
	if err := uc.SaveScene(nil, path, sc); err != nil {
		return err
	}
	fmt.Fprintf(c.out, messages.MessageSceneSaved+"\n", path)
	return nil
}

// resolveSkeleton は --skeleton、または唯一の骨格を返す。
func (c *commandContext) resolveSkeleton(sc *scene.Scene) (*model.Skeleton, error) {
	if name := strings.TrimSpace(c.skeletonFlag); name != "" {
		skeleton, ok := sc.Skeleton(model.NormalizeName(name))
		if !ok {
			return nil, fmt.Errorf(messages.MessageSkeletonNotFound, name)
		}
		return skeleton, nil
	}
	skeletons := sc.Skeletons()
	if len(skeletons) == 1 {
		return skeletons[0], nil
	}
	names := make([]string, 0, len(skeletons))
	for _, skeleton := range skeletons {
		names = append(names, skeleton.Name)
	}
	return nil, fmt.Errorf(messages.MessageSkeletonRequired, names)
}

// printProblems は問題一覧をエラー出力へ書く。
func (c *commandContext) printProblems(problems []string) {
	for _, problem := range problems {
		fmt.Fprintf(c.errOut, messages.MessageProblem+"\n", problem)
	}
}

// progressReporter は操作の進捗をログへ流す。
type progressReporter struct{}

// ReportProgress は進捗をDEBUGログへ出力する。
func (progressReporter) ReportProgress(event minteractor.ProgressEvent) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Debug(messages.MessageProgress, event.Type, event.Kind, event.UnitCount, event.FrameCount, event.ChannelCount)
}
