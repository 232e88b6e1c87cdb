package main

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"winshifts/src/clipboard"
	"winshifts/src/screenshot"
)

type grabOptions struct {
	outPath    string
	region     string
	jsonOutput bool
	verbose    bool
	copy       bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args))
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"grab"}
	}

	opts := &grabOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *grabOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "grab",
		Short:         "Capture the virtual desktop, or part of it, as PNG",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(*opts, screenshot.NewScreen(), os.Stdout)
		},
	}

	cmd.Flags().StringVar(&opts.outPath, "out", "", "Path to PNG file (use '-' for stdout)")
	cmd.Flags().StringVar(&opts.region, "region", "", "Desktop region as X,Y,WIDTH,HEIGHT (default: whole desktop)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print a JSON summary to stdout")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "Also copy the image to the clipboard")

	return cmd
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"out", "region", "json", "verbose", "copy"} {
			switch {
			case arg == "-"+name:
				normalized[i] = "--" + name
			case strings.HasPrefix(arg, "-"+name+"="):
				normalized[i] = "--" + name + "=" + arg[len("-"+name+"="):]
			}
		}
	}

	return normalized
}

// parseRegion reads "X,Y,WIDTH,HEIGHT" in virtual-desktop coordinates.
func parseRegion(s string) (image.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("region %q: want X,Y,WIDTH,HEIGHT", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("region %q: %w", s, err)
		}
		v[i] = n
	}
	if v[2] <= 0 || v[3] <= 0 {
		return image.Rectangle{}, fmt.Errorf("region %q: %w", s, screenshot.ErrInvalidRegion)
	}
	return image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3]), nil
}

type grabResult struct {
	Path      string `json:"path"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Bytes     int    `json:"bytes"`
	Copied    bool   `json:"copied"`
	Timestamp string `json:"timestamp"`
}

func runWithOptions(opts grabOptions, capturer screenshot.Capturer, stdout io.Writer) error {
	// Configure logging BEFORE any other operations.
	if opts.verbose {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}
	if opts.outPath == "" {
		return fmt.Errorf("--out is required")
	}
	if opts.outPath == "-" && opts.jsonOutput {
		return fmt.Errorf("--json cannot be combined with --out -")
	}

	fb, err := capturer.Capture()
	if err != nil {
		return fmt.Errorf("capture failed: %w", err)
	}
	defer fb.Release()
	log.Printf("Captured virtual desktop %v", fb.DesktopBounds())

	crop := fb
	if opts.region != "" {
		r, err := parseRegion(opts.region)
		if err != nil {
			return err
		}
		local := r.Sub(fb.Origin)
		crop, err = screenshot.Extract(fb, screenshot.Region{X: local.Min.X, Y: local.Min.Y, Width: local.Dx(), Height: local.Dy()})
		if err != nil {
			return fmt.Errorf("crop failed: %w", err)
		}
		defer crop.Release()
	}

	data, err := clipboard.Encode(crop)
	if err != nil {
		return err
	}

	if opts.outPath == "-" {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("failed to write to stdout: %w", err)
		}
	} else if err := os.WriteFile(opts.outPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.outPath, err)
	}
	log.Printf("Wrote %d bytes (%dx%d)", len(data), crop.Width, crop.Height)

	if opts.copy {
		if err := clipboard.Init(); err != nil {
			return err
		}
		// Publish takes ownership of its buffer.
		dup := screenshot.NewFrameBuffer(crop.Origin, crop.Width, crop.Height)
		copy(dup.Pix, crop.Pix)
		if err := clipboard.NewPublisher().Publish(dup); err != nil {
			return fmt.Errorf("copy failed: %w", err)
		}
	}

	if !opts.jsonOutput {
		return nil
	}
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(grabResult{
		Path:      opts.outPath,
		X:         crop.Origin.X,
		Y:         crop.Origin.Y,
		Width:     crop.Width,
		Height:    crop.Height,
		Bytes:     len(data),
		Copied:    opts.copy,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}
