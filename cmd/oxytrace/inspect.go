package main

import (
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/Carmen-Shannon/oxy-trace/engine/config"
	"github.com/Carmen-Shannon/oxy-trace/engine/material"
	"github.com/Carmen-Shannon/oxy-trace/engine/ray_object"
	"github.com/Carmen-Shannon/oxy-trace/engine/registry"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene_buffer"
)

// InspectScene flattens a scene on the CPU and prints the resulting buffer layout.
func InspectScene(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}

	reg := registry.NewRegistry()
	rng := newSeededRand(cfg.Render.Seed)
	sc.Populate(reg, newLibrary(sc), material.RandomGenerator, rng)

	builder := newBuilder(cfg)
	defer builder.Release()
	writeInspection(os.Stdout, reg.Objects(), builder.Build(reg.Objects()))
	return nil
}

// newBuilder returns the scene buffer builder sized by the render configuration.
func newBuilder(cfg config.Config) scene_buffer.Builder {
	return scene_buffer.NewBuilder(scene_buffer.WithWorkers(cfg.Render.BuildWorkers))
}

// writeInspection prints one row per built object, one per skipped object, and buffer totals.
func writeInspection(w io.Writer, objects []ray_object.RayObject, b scene_buffer.Buffers) {
	skipped := make(map[uint64]error, len(b.Skipped))
	for _, s := range b.Skipped {
		skipped[s.Object.ID()] = s.Err
	}

	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"#", "Object", "Index offset", "Index count", "Triangles", "Albedo", "Specular", "Emissive", "Status"})

	record := 0
	for _, obj := range objects {
		if err, ok := skipped[obj.ID()]; ok {
			table.Append([]string{"-", obj.Name(), "", "", "", "", "", "", fmt.Sprintf("skipped: %v", err)})
			continue
		}
		r := b.Objects[record]
		table.Append([]string{
			fmt.Sprintf("%d", record),
			obj.Name(),
			fmt.Sprintf("%d", r.IndicesOffset),
			fmt.Sprintf("%d", r.IndicesCount),
			fmt.Sprintf("%d", r.IndicesCount/3),
			formatColor(r.Material.Albedo),
			formatColor(r.Material.Specular),
			fmt.Sprintf("%t", r.Material.IsEmissive()),
			"ok",
		})
		record++
	}
	table.SetFooter([]string{
		"", fmt.Sprintf("%d objects", len(b.Objects)),
		"", fmt.Sprintf("%d indices", len(b.Indices)),
		fmt.Sprintf("%d vertices", len(b.Vertices)),
		"", "", "",
		fmt.Sprintf("%d bytes", len(b.ObjectBytes())+len(b.VertexBytes())+len(b.IndexBytes())),
	})
	table.Render()
}

func formatColor(c [3]float32) string {
	return fmt.Sprintf("%.2f %.2f %.2f", c[0], c[1], c[2])
}
