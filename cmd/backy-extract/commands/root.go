// Package commands implements the backy-extract CLI: a single cobra
// command that restores one revision to a file, block device, or pipe.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/flyingcircusio/backy-extract/internal/logger"
	"github.com/flyingcircusio/backy-extract/pkg/backyerr"
	"github.com/flyingcircusio/backy-extract/pkg/chunkstore"
	"github.com/flyingcircusio/backy-extract/pkg/manifest/revisionfile"
	"github.com/flyingcircusio/backy-extract/pkg/progress"
	"github.com/flyingcircusio/backy-extract/pkg/purgelock"
	"github.com/flyingcircusio/backy-extract/pkg/restore"
)

// extractFlags mirrors the package-level flag vars so their combination
// can be validated with a single validator.Struct call, the way the
// teacher's pkg/config structs declare validate tags (never executed
// there; executed here).
type extractFlags struct {
	Sparse     string `validate:"oneof=always auto never"`
	Workers    int    `validate:"gte=1"`
	QueueDepth int    `validate:"gte=1"`
}

var flagValidator = validator.New()

var (
	sparseFlag     string
	workersFlag    int
	queueDepthFlag int
	logLevelFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "backy-extract REVISION_PATH TARGET",
	Short: "Restore a backy revision to a file, block device, or pipe",
	Long: `backy-extract reads a revision document and restores the image it
describes to TARGET, which may be a regular file, a block device, or "-"
for stdout.

The chunk store is assumed to live alongside the revision file, at
filepath.Dir(REVISION_PATH).`,
	Args:          cobra.ExactArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runExtract,
}

func init() {
	rootCmd.Flags().StringVar(&sparseFlag, "sparse", "auto", "sparse write policy for seekable targets: always, auto, never")
	rootCmd.Flags().IntVar(&workersFlag, "workers", restore.DefaultConfig().Workers, "number of concurrent chunk fetch/decompress workers")
	rootCmd.Flags().IntVar(&queueDepthFlag, "queue-depth", restore.DefaultConfig().QueueDepth, "dispatcher queue and writer reorder buffer depth")
	rootCmd.Flags().StringVar(&logLevelFlag, "log-level", "INFO", "log level: DEBUG, INFO, WARN, ERROR")
}

// Execute runs the root command. Called by main.main.
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps a returned error to the process exit code, per spec.md
// section 6: 0 success, 1 lock/manifest error, 2 I/O or corruption.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var be *backyerr.Error
	if !errors.As(err, &be) {
		return 1
	}
	switch be.Code {
	case backyerr.Locked, backyerr.NotFound, backyerr.InvalidArgument:
		return 1
	case backyerr.Corrupt, backyerr.IoError:
		return 2
	default:
		return 1
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	if err := logger.Init(logger.Config{Level: logLevelFlag}); err != nil {
		return err
	}

	revisionPath, targetPath := args[0], args[1]

	if err := flagValidator.Struct(extractFlags{
		Sparse:     sparseFlag,
		Workers:    workersFlag,
		QueueDepth: queueDepthFlag,
	}); err != nil {
		return backyerr.Wrap(backyerr.InvalidArgument, "validating flags", err)
	}

	sparse, ok := restore.ParseSparseMode(sparseFlag)
	if !ok {
		return backyerr.New(backyerr.InvalidArgument, fmt.Sprintf("invalid --sparse value %q", sparseFlag))
	}

	revision, err := revisionfile.Load(revisionPath)
	if err != nil {
		return err
	}
	logger.Info("loaded revision", "revision", revision.ID, "image_size", revision.Manifest.ImageSize())

	storeRoot := filepath.Dir(revisionPath)
	guard, err := purgelock.Acquire(storeRoot)
	if err != nil {
		return err
	}
	defer guard.Release()

	store, err := chunkstore.NewFileStore(storeRoot)
	if err != nil {
		return err
	}

	target, err := openTarget(targetPath)
	if err != nil {
		return err
	}
	defer target.Close()

	cfg := restore.Config{Workers: workersFlag, QueueDepth: queueDepthFlag, Sparse: sparse}
	pipeline := restore.New(store, revision.Manifest, progress.NoOp{}, cfg)

	if err := pipeline.Run(context.Background(), target); err != nil {
		return err
	}

	logger.Info("restore complete", "revision", revision.ID)
	return nil
}

// openTarget resolves TARGET into a restore.Target. "-" means stdout; a
// stat-detected block device opens as BlockDeviceTarget; anything else
// opens/truncates as a regular file.
func openTarget(path string) (restore.Target, error) {
	if path == "-" {
		return restore.NewPipeTarget(os.Stdout), nil
	}

	info, err := os.Stat(path)
	if err == nil && info.Mode()&os.ModeDevice != 0 {
		return restore.OpenBlockDeviceTarget(path)
	}
	if err != nil && !os.IsNotExist(err) {
		return nil, backyerr.Wrap(backyerr.IoError, "statting restore target", err)
	}

	return restore.OpenFileTarget(path)
}
