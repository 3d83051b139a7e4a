package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/Carmen-Shannon/oxy-trace/engine"
	"github.com/Carmen-Shannon/oxy-trace/engine/accumulation"
	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
	"github.com/Carmen-Shannon/oxy-trace/engine/config"
	"github.com/Carmen-Shannon/oxy-trace/engine/frame"
	"github.com/Carmen-Shannon/oxy-trace/engine/material"
	"github.com/Carmen-Shannon/oxy-trace/engine/profiler"
	"github.com/Carmen-Shannon/oxy-trace/engine/registry"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer"
	"github.com/Carmen-Shannon/oxy-trace/engine/window"
)

// RenderScene opens a window and renders the scene until it is closed.
func RenderScene(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	if err := applyRenderFlags(ctx, &cfg); err != nil {
		return err
	}
	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}

	seed := cfg.Render.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger.Infof("seed %d", seed)

	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
	)
	if err != nil {
		return err
	}

	mode, err := renderer.ParsePresentMode(cfg.Render.PresentMode)
	if err != nil {
		return err
	}
	rendererOpts := []renderer.RendererBuilderOption{
		renderer.WithPresentMode(mode),
		renderer.WithForceSoftwareRenderer(cfg.Render.ForceSoftware),
	}
	if cfg.Render.Kernel != "" {
		source, err := os.ReadFile(cfg.Render.Kernel)
		if err != nil {
			return fmt.Errorf("read kernel: %w", err)
		}
		rendererOpts = append(rendererOpts, renderer.WithKernelSource(string(source)))
	}
	gpu, err := renderer.NewRenderer(win, rendererOpts...)
	if err != nil {
		_ = win.Close()
		return err
	}

	fov := cfg.Camera.FOVDegrees
	if sc.Camera.FOVDegrees > 0 {
		fov = sc.Camera.FOVDegrees
	}
	cam := camera.NewCamera(
		camera.WithFOV(fov),
		camera.WithClipPlanes(cfg.Camera.Near, cfg.Camera.Far),
		camera.WithAspect(float32(win.Width())/float32(win.Height())),
	)
	orbit := camera.NewOrbitController(cam.Transform(), sc.OrbitOptions()...)

	reg := registry.NewRegistry()
	objects := sc.Populate(reg, newLibrary(sc), material.RandomGenerator, rand.New(rand.NewSource(seed)))
	logger.Noticef("loaded %d objects", len(objects))

	fr, err := frame.NewRenderer(
		frame.WithRegistry(reg),
		frame.WithKernel(gpu.Kernel()),
		frame.WithCompositor(gpu.Compositor()),
		frame.WithSizeSource(win),
		frame.WithCamera(cam),
		frame.WithLight(sc.NewLight()),
		frame.WithBufferAllocator(gpu.BufferAllocator()),
		frame.WithTextureAllocator(gpu.TextureAllocator()),
		frame.WithBuilder(newBuilder(cfg)),
		frame.WithAccumulation(accumulation.NewController(accumulation.WithMaxSamples(cfg.Render.MaxSamples))),
		frame.WithBounces(cfg.Render.Bounces),
		frame.WithRand(rand.New(rand.NewSource(seed+1))),
	)
	if err != nil {
		gpu.Release()
		_ = win.Close()
		return err
	}

	eng, err := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithSurface(gpu),
		engine.WithFrameRenderer(fr),
		engine.WithRegistry(reg),
		engine.WithCamera(cam, orbit),
		engine.WithRand(rand.New(rand.NewSource(seed+2))),
		engine.WithTitle(cfg.Window.Title),
		engine.WithProfiler(profiler.NewProfiler()),
		engine.WithProfiling(ctx.Bool("profile")),
	)
	if err != nil {
		fr.Release()
		gpu.Release()
		_ = win.Close()
		return err
	}

	eng.Run()
	logger.Noticef("finished with %d samples accumulated", fr.Accumulation().SampleCount())
	return win.Close()
}

// applyRenderFlags overlays the render command's flags onto cfg and revalidates it.
func applyRenderFlags(ctx *cli.Context, cfg *config.Config) error {
	if ctx.IsSet("bounces") {
		cfg.Render.Bounces = ctx.Int("bounces")
	}
	if ctx.IsSet("present-mode") {
		cfg.Render.PresentMode = ctx.String("present-mode")
	}
	return cfg.Validate()
}
