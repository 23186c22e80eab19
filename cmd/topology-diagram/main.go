package main

import (
	"bytes"
	"flag"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/rubenvp8510/ticket-load-generator/internal/topology"
)

func main() {
	region := flag.String("region", "us-west-2", "AWS region shown in the diagram")
	output := flag.String("output", "network_boundaries", "output file name without extension")
	format := flag.String("format", "dot", "output format: dot, png or svg (png/svg require Graphviz)")
	direction := flag.String("direction", "LR", "layout direction: LR or TB")
	flag.Parse()

	d := topology.Default(*region)
	d.Direction = strings.ToUpper(*direction)

	data, err := topology.Marshal(d)
	if err != nil {
		slog.Error("failed to encode diagram", "error", err)
		os.Exit(1)
	}

	switch *format {
	case "dot":
		path := *output + ".dot"
		if err := os.WriteFile(path, data, 0o644); err != nil {
			slog.Error("failed to write diagram", "path", path, "error", err)
			os.Exit(1)
		}
		slog.Info("diagram written", "path", path, "components", d.Nodes().Len())
	case "png", "svg":
		path := *output + "." + *format
		if err := render(data, *format, path); err != nil {
			slog.Error("failed to render diagram", "path", path, "error", err)
			os.Exit(1)
		}
		slog.Info("diagram rendered", "path", path, "components", d.Nodes().Len())
	default:
		slog.Error("unknown format", "format", *format)
		os.Exit(1)
	}
}

// render pipes DOT source through the Graphviz dot binary
func render(data []byte, format, path string) error {
	bin, err := exec.LookPath("dot")
	if err != nil {
		return err
	}
	cmd := exec.Command(bin, "-T"+format, "-o", path)
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
