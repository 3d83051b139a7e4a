package main

import (
	"math/rand"
	"time"

	"github.com/urfave/cli"

	"github.com/Carmen-Shannon/oxy-trace/engine/config"
	"github.com/Carmen-Shannon/oxy-trace/engine/loader"
	"github.com/Carmen-Shannon/oxy-trace/engine/mesh"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene_file"
	"github.com/Carmen-Shannon/oxy-trace/log"
)

var logger = log.New("oxytrace")

// setup loads the configuration and applies its log level, then the -v/-vv overrides.
func setup(ctx *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := ctx.GlobalString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	log.SetLevel(cfg.LogLevel())
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}
	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
	return cfg, nil
}

// loadScene reads the --scene flag or the first argument, falling back to the built-in scene.
func loadScene(ctx *cli.Context) (*scene_file.Scene, error) {
	path := ctx.String("scene")
	if path == "" {
		path = ctx.Args().First()
	}
	if path == "" {
		logger.Info("no scene file given, using the built-in scene")
		return scene_file.Default(), nil
	}
	return scene_file.Load(path)
}

// newLibrary returns the built-in primitives plus every model the scene names. Import failures
// are logged and the affected objects are skipped when the scene is built.
func newLibrary(sc *scene_file.Scene) mesh.Library {
	lib := mesh.NewLibrary()
	if err := sc.ImportModels(loader.NewLoader(loader.WithLibrary(lib))); err != nil {
		logger.Warningf("%v", err)
	}
	return lib
}

// newSeededRand seeds from the clock when seed is 0.
func newSeededRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
