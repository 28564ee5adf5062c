// Command cdfslice renders a NetCDF-3 classic dataset's three centre
// slices (and optional thumbnails) as PNG files, driving cdfkit's
// orchestrator from the command line.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	cdfkit "github.com/bgrewell/cdf-kit"
	"github.com/bgrewell/usage"
	"github.com/theckman/yacspin"
)

func main() {
	u := usage.NewUsage(
		usage.WithApplicationName("cdfslice"),
		usage.WithApplicationDescription("cdfslice renders the centre X/Y/Z slices of a NetCDF-3 classic volume dataset as PNG images, with optional down-sampled thumbnails."),
	)

	help := u.AddBooleanOption("h", "help", false, "Show this help message", "optional", nil)
	replace := u.AddBooleanOption("r", "replace", false, "Re-render outputs that already exist in the output directory", "", nil)
	dryRun := u.AddBooleanOption("n", "dry-run", false, "Emit grey placeholder images instead of decoding real volume data", "", nil)
	quiet := u.AddBooleanOption("q", "quiet", false, "Suppress the progress spinner", "", nil)
	path := u.AddArgument(1, "dataset-path", "Path to a shard file or directory of shards", "")
	outDir := u.AddArgument(2, "output-dir", "Directory PNG outputs are written to", "./slices")

	if !u.Parse() {
		u.PrintError(fmt.Errorf("failed to parse arguments"))
		os.Exit(1)
	}
	if *help {
		u.PrintUsage()
		os.Exit(0)
	}
	if path == nil || *path == "" {
		u.PrintError(fmt.Errorf("dataset-path must be provided"))
		os.Exit(1)
	}

	sizes := thumbnailSizesFromEnv()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		u.PrintError(fmt.Errorf("creating output directory: %w", err))
		os.Exit(1)
	}
	existing := existingOutputs(*outDir)

	spinner := newSpinner(*quiet)
	if spinner != nil {
		_ = spinner.Start()
		defer spinner.Stop()
	}

	opts := []cdfkit.Option{
		cdfkit.WithReplace(*replace),
		cdfkit.WithDryRun(*dryRun),
		cdfkit.WithThumbnailSizes(sizes...),
		cdfkit.WithProgress(func(phase cdfkit.Phase, current, total int) {
			if spinner == nil {
				return
			}
			_ = spinner.Message(fmt.Sprintf("%s %d/%d", phase, current, total))
		}),
	}

	k, err := cdfkit.Open(*path, opts...)
	if err != nil {
		stopSpinner(spinner)
		u.PrintError(fmt.Errorf("opening %s: %w", *path, err))
		os.Exit(1)
	}

	datasetName := filepath.Base(strings.TrimRight(*path, string(filepath.Separator)))
	images, err := k.Slices(datasetName, existing)
	if err != nil {
		stopSpinner(spinner)
		u.PrintError(fmt.Errorf("rendering slices: %w", err))
		os.Exit(1)
	}
	stopSpinner(spinner)

	if len(images) == 0 {
		fmt.Println("no slices emitted")
		return
	}
	for _, img := range images {
		dst := filepath.Join(*outDir, img.Name)
		if err := os.WriteFile(dst, img.Bytes, 0o644); err != nil {
			u.PrintError(fmt.Errorf("writing %s: %w", dst, err))
			os.Exit(1)
		}
		fmt.Printf("%-8s %s\n", img.Action, img.Name)
	}
}

func stopSpinner(s *yacspin.Spinner) {
	if s != nil {
		_ = s.Stop()
	}
}

func newSpinner(quiet bool) *yacspin.Spinner {
	if quiet {
		return nil
	}
	cfg := yacspin.Config{
		Frequency:       100 * time.Millisecond,
		CharSet:         yacspin.CharSets[9],
		Suffix:          " ",
		SuffixAutoColon: true,
		Message:         "starting",
		StopCharacter:   "✓",
		StopColors:      []string{"fgGreen"},
	}
	s, err := yacspin.New(cfg)
	if err != nil {
		return nil
	}
	return s
}

// existingOutputs lists the basenames already present in dir, the
// caller-provided "existing" set the orchestrator resolves ADD/REPLACE/
// SKIP actions against.
func existingOutputs(dir string) map[string]bool {
	existing := map[string]bool{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return existing
	}
	for _, e := range entries {
		if !e.IsDir() {
			existing[e.Name()] = true
		}
	}
	return existing
}

// thumbnailSizesFromEnv reads a comma-separated list of square thumbnail
// sizes from CDFSLICE_THUMBNAILS, e.g. "64,128,256". Absent or malformed
// entries are skipped rather than aborting the run.
func thumbnailSizesFromEnv() []int {
	raw := os.Getenv("CDFSLICE_THUMBNAILS")
	if raw == "" {
		return nil
	}
	var sizes []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			continue
		}
		sizes = append(sizes, n)
	}
	return sizes
}
