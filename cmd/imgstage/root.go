package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/meigma/imgstage"
	"github.com/meigma/imgstage/tarball"
)

var (
	flagOutput   string
	flagGzip     bool
	flagKeepWork bool
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "imgstage [image-archive]",
	Short: "Stage an exported container image into a content-addressed archive",
	Long: `imgstage converts the output of an image export (docker save) into a
content-addressed blob store with a rewritten manifest, then packages the
result as a distributable archive.

The image archive is read from the given path, or from stdin when the path
is "-" or omitted.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runStage,
}

func init() {
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output archive path (default stdout)")
	rootCmd.Flags().BoolVar(&flagGzip, "gzip", false, "gzip-compress the output archive")
	rootCmd.Flags().BoolVar(&flagKeepWork, "keep-work", false, "keep temporary working directories")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

func runStage(cmd *cobra.Command, args []string) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if flagVerbose {
		logger.SetLevel(log.DebugLevel)
	}

	input, closeInput, err := openInput(args)
	if err != nil {
		logger.Error("open input", "error", err)
		return err
	}
	defer closeInput()

	srcDir, err := os.MkdirTemp("", "imgstage-src-")
	if err != nil {
		return fmt.Errorf("create source staging directory: %w", err)
	}
	destRoot, err := os.MkdirTemp("", "imgstage-dest-")
	if err != nil {
		removeAll(logger, srcDir)
		return fmt.Errorf("create destination staging directory: %w", err)
	}
	if !flagKeepWork {
		defer removeAll(logger, destRoot)
		defer removeAll(logger, srcDir)
	}

	logger.Debug("extracting bundle", "dir", srcDir)
	if err := tarball.Extract(input, srcDir); err != nil {
		logger.Error("extract bundle", "error", err)
		return err
	}

	pipeline, err := imgstage.New(destRoot,
		imgstage.WithLogger(slog.New(logger)),
		imgstage.WithKeepSource(flagKeepWork),
	)
	if err != nil {
		return err
	}
	staged, err := pipeline.Run(cmd.Context(), srcDir)
	if err != nil {
		logger.Error("stage image", "error", err)
		return err
	}

	output, closeOutput, err := openOutput()
	if err != nil {
		logger.Error("open output", "error", err)
		return err
	}
	if err := tarball.Pack(staged, output, tarball.PackOptions{Gzip: flagGzip}); err != nil {
		closeOutput()
		logger.Error("package staged tree", "error", err)
		return err
	}
	if err := closeOutput(); err != nil {
		return err
	}

	logger.Info("done", "staged", staged)
	return nil
}

func openInput(args []string) (io.Reader, func() error, error) {
	if len(args) == 0 || args[0] == "-" {
		return os.Stdin, func() error { return nil }, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func openOutput() (io.Writer, func() error, error) {
	if flagOutput == "" || flagOutput == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(flagOutput)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func removeAll(logger *log.Logger, dir string) {
	if err := os.RemoveAll(dir); err != nil {
		logger.Warn("temporary directory cleanup failed", "dir", dir, "error", err)
	}
}
