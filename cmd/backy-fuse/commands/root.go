// Package commands implements the backy-fuse CLI: a single cobra command
// that mounts every revision found under a base directory.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/flyingcircusio/backy-extract/internal/bytesize"
	"github.com/flyingcircusio/backy-extract/internal/logger"
	"github.com/flyingcircusio/backy-extract/pkg/backyerr"
	"github.com/flyingcircusio/backy-extract/pkg/cache"
	"github.com/flyingcircusio/backy-extract/pkg/chunkstore"
	"github.com/flyingcircusio/backy-extract/pkg/fuseadapter"
	"github.com/flyingcircusio/backy-extract/pkg/manifest"
	"github.com/flyingcircusio/backy-extract/pkg/manifest/revisionfile"
	"github.com/flyingcircusio/backy-extract/pkg/progress"
	"github.com/flyingcircusio/backy-extract/pkg/purgelock"
)

// fuseFlags mirrors the package-level flag vars that matter beyond a
// simple presence check, validated the way the teacher's pkg/config
// structs declare (but never execute) validate tags.
type fuseFlags struct {
	Basedir   string `validate:"required"`
	CacheSize string `validate:"required"`
	LogLevel  string `validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`
}

var flagValidator = validator.New()

// revisionExt is the well-known suffix of a revision document under
// basedir, matching the store layout spec.md section 6 leaves to the
// caller to pick.
const revisionExt = ".rev"

var (
	basedirFlag   string
	mountOptsFlag string
	cacheSizeFlag string
	logLevelFlag  string
	versionFlag   bool
)

const cliVersion = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "backy-fuse MOUNTPOINT",
	Short: "Mount backy revisions as a FUSE filesystem",
	Long: `backy-fuse scans --basedir for revision documents and mounts one
read/write file per revision at MOUNTPOINT, backed by a shared chunk
cache. Writes land in an in-memory dirty overlay and are never persisted
back to the chunk store.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runFuse,
}

func init() {
	rootCmd.Flags().StringVarP(&basedirFlag, "basedir", "d", ".", "directory to scan for revision documents")
	rootCmd.Flags().StringVarP(&mountOptsFlag, "mount-options", "o", "allow_root", "additional FUSE mount options")
	rootCmd.Flags().StringVar(&cacheSizeFlag, "cache-size", "256Mi", "clean chunk cache capacity, e.g. 256Mi, 1Gi")
	rootCmd.Flags().StringVar(&logLevelFlag, "log-level", "INFO", "log level: DEBUG, INFO, WARN, ERROR")
	rootCmd.Flags().BoolVarP(&versionFlag, "version", "V", false, "print version and exit")
}

// Execute runs the root command. Called by main.main.
func Execute() error {
	return rootCmd.Execute()
}

func runFuse(cmd *cobra.Command, args []string) error {
	if versionFlag {
		fmt.Fprintf(cmd.OutOrStdout(), "backy-fuse %s\n", cliVersion)
		return nil
	}
	if len(args) != 1 {
		return backyerr.New(backyerr.InvalidArgument, "expected exactly one MOUNTPOINT argument")
	}
	mountpoint := args[0]

	if err := flagValidator.Struct(fuseFlags{
		Basedir:   basedirFlag,
		CacheSize: cacheSizeFlag,
		LogLevel:  logLevelFlag,
	}); err != nil {
		return backyerr.Wrap(backyerr.InvalidArgument, "validating flags", err)
	}

	if err := logger.Init(logger.Config{Level: logLevelFlag}); err != nil {
		return err
	}

	cacheSize, err := bytesize.ParseByteSize(cacheSizeFlag)
	if err != nil {
		return backyerr.Wrap(backyerr.InvalidArgument, "parsing --cache-size", err)
	}

	guard, err := purgelock.Acquire(basedirFlag)
	if err != nil {
		return err
	}
	defer guard.Release()

	store, err := chunkstore.NewFileStore(basedirFlag)
	if err != nil {
		return err
	}

	revisions, err := scanRevisions(basedirFlag)
	if err != nil {
		return err
	}
	logger.Info("scanned revisions", "basedir", basedirFlag, "count", len(revisions))

	clean := cache.NewCleanCache(cacheSize.Int64())
	dirty := cache.NewDirtyCache()
	observer := progress.NoOp{}

	entries := make([]fuseadapter.Entry, 0, len(revisions))
	for _, rev := range revisions {
		tier := cache.NewTier(clean, dirty, store, rev.Manifest, rev.ID, observer)
		entries = append(entries, fuseadapter.Entry{Revision: rev, Tier: tier})
	}

	root := fuseadapter.NewRoot(entries)
	server, err := fuseadapter.Mount(mountpoint, root, fuseadapter.Options{
		MountOptions: splitMountOptions(mountOptsFlag),
	})
	if err != nil {
		return backyerr.Wrap(backyerr.IoError, "mounting filesystem", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, unmounting", "mountpoint", mountpoint)
			server.Unmount()
		case <-ctx.Done():
		}
	}()

	logger.Info("mounted", "mountpoint", mountpoint, "revisions", len(entries))
	server.Wait()
	return nil
}

// scanRevisions loads every *.rev document directly under basedir, sorted
// by filename for a deterministic mount listing.
func scanRevisions(basedir string) ([]manifest.Revision, error) {
	entries, err := os.ReadDir(basedir)
	if err != nil {
		return nil, backyerr.Wrap(backyerr.IoError, "reading basedir", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != revisionExt {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	revisions := make([]manifest.Revision, 0, len(names))
	for _, name := range names {
		rev, err := revisionfile.Load(filepath.Join(basedir, name))
		if err != nil {
			return nil, err
		}
		revisions = append(revisions, *rev)
	}
	return revisions, nil
}

// splitMountOptions turns a comma-separated -o value into the list
// go-fuse's MountOptions.Options expects.
func splitMountOptions(raw string) []string {
	if raw == "" {
		return nil
	}
	var opts []string
	start := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == ',' {
			if i > start {
				opts = append(opts, raw[start:i])
			}
			start = i + 1
		}
	}
	return opts
}
