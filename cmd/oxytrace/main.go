package main

import (
	"os"
	"runtime"

	"github.com/urfave/cli"
)

func init() {
	// GLFW and the surface it owns must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	app := cli.NewApp()
	app.Name = "oxytrace"
	app.Usage = "progressively ray trace a scene on the GPU"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "config, c",
			Usage: "TOML configuration file",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "open a window and progressively render a scene",
			Description: `
Render the scene interactively. Every frame traces one jittered sample per pixel and
blends it into a running average, so the image sharpens while nothing moves.

Controls: WASD orbit, Q/E zoom, arrows pan, mouse drag orbits (left) or pans,
scroll changes the field of view, [ and ] change the bounce count, R restarts
accumulation, M re-rolls random materials, P toggles the profiler, Esc quits.`,
			ArgsUsage: "[scene.yaml]",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "scene, s",
					Usage: "YAML scene file; the built-in scene is used when omitted",
				},
				cli.IntFlag{
					Name:  "bounces, b",
					Usage: "override render.bounces",
				},
				cli.StringFlag{
					Name:  "present-mode",
					Usage: "override render.present_mode (vsync or uncapped)",
				},
				cli.BoolFlag{
					Name:  "profile",
					Usage: "log frame statistics every second",
				},
			},
			Action: RenderScene,
		},
		{
			Name:  "inspect",
			Usage: "build the scene buffers without a GPU and print their layout",
			Description: `
Load a scene file, resolve every mesh and flatten the scene exactly as the renderer
would, then print a table with one row per object and the resulting buffer sizes.`,
			ArgsUsage: "[scene.yaml]",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "scene, s",
					Usage: "YAML scene file; the built-in scene is used when omitted",
				},
			},
			Action: InspectScene,
		},
		{
			Name:   "config",
			Usage:  "print the effective configuration as TOML",
			Action: PrintConfig,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
