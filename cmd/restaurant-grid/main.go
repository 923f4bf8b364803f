package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go-restaurant-grid/internal/config"
	"go-restaurant-grid/internal/container"
	apperrors "go-restaurant-grid/internal/errors"
	"go-restaurant-grid/internal/logger"
	"go-restaurant-grid/internal/observer"
	"go-restaurant-grid/internal/publish"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// errNoLines is returned when the given input holds no restaurant lines.
var errNoLines = errors.New("input contains no restaurant lines")

// sampleLines are rendered when no input is given.
var sampleLines = []string{
	"1. Cactus bellevue",
	"2. The matador Redmond",
	"3. Tipsy Cow Woodinville",
	"sura-korean-bbq-tofu-house-restaurant-LYNNWOOD",
	"Korea house restaurant - https://g.co/kgs/xG5zT8D",
	"Baekjeong KBBQ - http://www.baekjeongkbbq.com/locations-2/",
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, stdin *os.File, stdout io.Writer) int {
	fs := flag.NewFlagSet("restaurant-grid", flag.ContinueOnError)
	output := fs.String("o", "", "output PNG path (overrides OUTPUT_FILE)")
	workers := fs.Int("workers", 0, "concurrent lookups (overrides LOOKUP_WORKERS)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: restaurant-grid [-o file.png] [-workers n] [input.txt ...]\n\n")
		fmt.Fprintf(fs.Output(), "Reads one restaurant per line from the given files, or stdin when piped,\n")
		fmt.Fprintf(fs.Output(), "or renders a built-in sample list.\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitConfig
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.WithError(err).Error("Failed to load config")
		return exitConfig
	}
	if *output != "" {
		cfg.OutputFile = *output
	}
	if *workers > 0 {
		cfg.LookupWorkers = *workers
	}
	logger.Configure(cfg.LogLevel, cfg.LogFormat)

	lines, err := inputLines(fs.Args(), stdin)
	if err != nil {
		logger.WithError(err).Error("Failed to read input")
		return exitRuntime
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runID := uuid.NewString()
	ctx = observer.WithRunID(ctx, runID)
	log := logger.WithFields(logrus.Fields{"run_id": runID, "lines": len(lines)})

	c, err := container.NewContainer(ctx, cfg)
	if err != nil {
		log.WithError(err).Error("Failed to initialize container")
		return exitCode(err)
	}

	log.Info("Generating restaurant grid")
	grid, err := c.GridService().Generate(ctx, lines)
	if err != nil {
		log.WithError(err).Error("Failed to generate grid")
		return exitCode(err)
	}

	results, err := c.CLIPublisher().Publish(ctx, publish.ObjectKey(cfg.S3.Prefix, runID), grid.PNG)
	for _, r := range results {
		if r.Error == "" {
			fmt.Fprintf(stdout, "Saved: %s\n", r.Location)
		}
	}
	if err != nil {
		log.WithError(err).Error("Failed to publish grid")
		return exitRuntime
	}
	return exitOK
}

func exitCode(err error) int {
	if apperrors.IsType(err, apperrors.ErrorTypeConfig) {
		return exitConfig
	}
	return exitRuntime
}

// inputLines reads the named files in order, or stdin when it is piped, or
// falls back to the sample list when neither is given. Input that is given
// but holds no lines is an error.
func inputLines(paths []string, stdin *os.File) ([]string, error) {
	if len(paths) > 0 {
		var lines []string
		for _, p := range paths {
			f, err := os.Open(p)
			if err != nil {
				return nil, err
			}
			got, err := readLines(f)
			f.Close()
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", p, err)
			}
			lines = append(lines, got...)
		}
		if len(lines) == 0 {
			return nil, errNoLines
		}
		return lines, nil
	}

	if stdin != nil {
		if info, err := stdin.Stat(); err == nil && info.Mode()&os.ModeCharDevice == 0 {
			lines, err := readLines(stdin)
			if err != nil {
				return nil, err
			}
			if len(lines) == 0 {
				return nil, fmt.Errorf("stdin: %w", errNoLines)
			}
			return lines, nil
		}
	}
	return sampleLines, nil
}

// readLines returns the non-blank lines of r, skipping "#" comments.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, sc.Err()
}
