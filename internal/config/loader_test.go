package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/posecoach/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoaderDefaults(t *testing.T) {
	t.Setenv(config.EnvConfigFile, "")
	t.Setenv(config.EnvOpenAIKey, "")

	convey.Convey("When loading config with defaults only", t, func() {
		cfg, err := config.Load(context.Background())
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
		convey.So(cfg.HeadTiltWarn, convey.ShouldEqual, 8)
	})
}

func TestConfigLoaderEnv(t *testing.T) {
	t.Setenv(config.EnvConfigFile, "")
	t.Setenv("POSECOACH_ADDR", ":8080")
	t.Setenv("POSECOACH_SAMPLE_RATE", "4")
	t.Setenv("POSECOACH_HEAD_TILT_WARN", "6.5")
	t.Setenv("POSECOACH_TOP_K", "2")
	t.Setenv(config.EnvOpenAIKey, "sk-test")

	convey.Convey("When loading config with environment variables", t, func() {
		cfg, err := config.Load(context.Background())

		convey.Convey("Then it should override defaults with env vars", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.SampleRate, convey.ShouldEqual, 4)
			convey.So(cfg.Thresholds().HeadTilt, convey.ShouldEqual, 6.5)
			convey.So(cfg.TopK, convey.ShouldEqual, 2)
		})

		convey.Convey("Then the OpenAI key is picked up as a fallback", func() {
			convey.So(cfg.EnrichAPIKey, convey.ShouldEqual, "sk-test")
			convey.So(cfg.EnrichEnabled(), convey.ShouldBeTrue)
		})
	})
}

func TestConfigLoaderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posecoach.yaml")
	content := `
addr: ":9090"
debounce_seconds: 2.5
worker_count: 3
enrich_api_key: from-file
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.EnvConfigFile, path)
	t.Setenv("POSECOACH_WORKER_COUNT", "5")
	t.Setenv(config.EnvOpenAIKey, "ignored")

	convey.Convey("When loading config with a YAML file and env", t, func() {
		cfg, err := config.Load(context.Background())
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
		convey.So(cfg.DebounceSeconds, convey.ShouldEqual, 2.5)

		convey.Convey("Then env wins over the file", func() {
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 5)
		})

		convey.Convey("Then an explicit key is kept", func() {
			convey.So(cfg.EnrichAPIKey, convey.ShouldEqual, "from-file")
		})
	})
}

func TestConfigLoaderErrors(t *testing.T) {
	convey.Convey("Given broken configuration", t, func() {
		convey.Convey("A missing file fails to load", func() {
			t.Setenv(config.EnvConfigFile, filepath.Join(t.TempDir(), "missing.yaml"))
			_, err := config.Load(context.Background())
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("Validation rejects impossible values", func() {
			for _, mutate := range []func(*config.Config){
				func(c *config.Config) { c.Addr = "" },
				func(c *config.Config) { c.SampleRate = 0 },
				func(c *config.Config) { c.MinSamples = 0 },
				func(c *config.Config) { c.DebounceSeconds = -1 },
				func(c *config.Config) { c.TopK = 0 },
				func(c *config.Config) { c.GestureLowWarn = 1 },
			} {
				cfg := config.New()
				mutate(cfg)
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			}
		})
	})
}
