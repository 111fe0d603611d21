// Package cmd implements the arh command line tool.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/meigma/arh"
	arhhttp "github.com/meigma/arh/core/http"
	"github.com/meigma/arh/core/namelist"
	"github.com/meigma/arh/metrics"
	"github.com/meigma/arh/registry/cache/disk"
)

// CLI are the global parameters of the arh binary.
type CLI struct {
	Header       string           `help:"Archive header file (.arh)." type:"existingfile" placeholder:"PATH"`
	Data         string           `help:"Archive data file (.ard) or an http(s) URL serving it." placeholder:"PATH|URL"`
	Ref          string           `help:"OCI reference of a published archive, used instead of --header and --data." placeholder:"REF"`
	OutputDir    string           `name:"output-dir" short:"o" default:"." help:"Output directory."`
	Filenames    string           `help:"File of candidate filenames, one per line (plain, zstd or lz4)." type:"existingfile" placeholder:"PATH"`
	Workers      int              `short:"j" default:"1" help:"Members to extract concurrently."`
	Retries      int              `default:"3" help:"Retries for failed requests against a --data URL."`
	Timeout      time.Duration    `default:"30s" help:"Timeout of a single request against a --data URL."`
	AtomicWrites bool             `name:"atomic-writes" help:"Write each member to a temporary file and rename it into place."`
	Lenient      bool             `help:"Accept headers whose magic is not arh2."`
	PlainHTTP    bool             `name:"plain-http" help:"Talk to the registry over plain HTTP."`
	CacheDir     string           `name:"cache-dir" help:"Cache registry lookups, headers and remote data blocks in this directory." placeholder:"DIR"`
	MetricsFile  string           `name:"metrics-file" help:"Write Prometheus metrics to this file after the command." placeholder:"PATH"`
	Progress     bool             `help:"Print per-member progress to stderr."`
	Verbose      bool             `short:"v" help:"Verbose logging."`
	Version      kong.VersionFlag `short:"V" help:"Print release version information."`

	ListAll      ListAllCmd      `cmd:"" name:"list-all" help:"List all files."`
	ExtractAll   ExtractAllCmd   `cmd:"" name:"extract-all" help:"Extract all files."`
	ExtractFile  ExtractFileCmd  `cmd:"" name:"extract-file" help:"Extract one file."`
	ExtractFiles ExtractFilesCmd `cmd:"" name:"extract-files" help:"Extract the files named in a list file."`
}

// Validate checks that exactly one archive source is configured.
func (c *CLI) Validate() error {
	switch {
	case c.Ref != "" && (c.Header != "" || c.Data != ""):
		return errors.New("--ref cannot be combined with --header or --data")
	case c.Ref == "" && (c.Header == "" || c.Data == ""):
		return errors.New("either --ref or both --header and --data are required")
	case c.Workers < 1:
		return errors.New("--workers must be at least 1")
	case c.Retries < 0:
		return errors.New("--retries must not be negative")
	}
	return nil
}

// errIncomplete marks a command that ran but did not process every member.
var errIncomplete = errors.New("some members were not extracted")

// app carries the state shared by all subcommands.
type app struct {
	cli     *CLI
	logger  *slog.Logger
	stdout  io.Writer
	stderr  io.Writer
	archive *arh.Archive
	source  *arhhttp.Source
	blocks  *disk.BlockCache
	metrics *metrics.Collector
}

// Run the entrypoint into arh as a cli tool.
func Run(version, commit, date string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr,
		kong.Vars{
			"version": fmt.Sprintf("%s (%s), commit %s, built at %s", filepath.Base(os.Args[0]), version, commit, date),
		},
	)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, opts ...kong.Option) int {
	var cli CLI
	exitCode := -1
	opts = append([]kong.Option{
		kong.Name("arh"),
		kong.Description("Extract files from ARH/ARD archives."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { exitCode = code }),
		kong.BindTo(ctx, (*context.Context)(nil)),
	}, opts...)

	parser, err := kong.New(&cli, opts...)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	kctx, err := parser.Parse(args)
	if exitCode >= 0 {
		return exitCode
	}
	if err != nil {
		parser.Errorf("%s", err)
		return 2
	}

	logLevel := slog.LevelError
	if cli.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel}))

	a := &app{cli: &cli, logger: logger, stdout: stdout, stderr: stderr}
	if cli.MetricsFile != "" {
		a.metrics = metrics.New()
	}

	err = a.open(ctx)
	if err == nil {
		err = kctx.Run(a)
	}
	if a.metrics != nil {
		if a.source != nil {
			a.metrics.ObserveSource(a.source.Stats())
		}
		if a.blocks != nil {
			a.metrics.ObserveBlockCache(a.blocks.Stats())
		}
		if werr := a.metrics.WriteToTextfile(cli.MetricsFile); werr != nil {
			logger.Error("writing metrics failed", "path", cli.MetricsFile, "err", werr)
			err = errors.Join(err, werr)
		}
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errIncomplete):
		return 1
	default:
		fmt.Fprintf(stderr, "arh: %v\n", err)
		return 1
	}
}

func (a *app) archiveOptions() []arh.ArchiveOption {
	opts := []arh.ArchiveOption{
		arh.ArchiveWithWorkers(a.cli.Workers),
		arh.ArchiveWithAtomicWrites(a.cli.AtomicWrites),
		arh.ArchiveWithStrictMagic(!a.cli.Lenient),
	}
	if a.cli.Progress {
		opts = append(opts, arh.ArchiveWithProgress(a.printProgress))
	}
	return opts
}

func (a *app) printProgress(ev arh.ProgressEvent) {
	if ev.Stage != arh.StageExtracting {
		return
	}
	fmt.Fprintf(a.stderr, "[%d/%d] %s\n", ev.FilesDone, ev.FilesTotal, ev.Name)
}

// open builds the archive from the configured source and attaches names.
func (a *app) open(ctx context.Context) error {
	var err error
	if a.cli.CacheDir != "" {
		a.blocks, err = disk.NewBlockCache(filepath.Join(a.cli.CacheDir, "blocks"),
			disk.WithMaxBytes(arh.DefaultBlockCacheSize))
		if err != nil {
			return fmt.Errorf("open block cache: %w", err)
		}
	}

	switch {
	case a.cli.Ref != "":
		a.archive, err = a.pull(ctx)
	case isURL(a.cli.Data):
		a.archive, err = a.openRemote(ctx)
	default:
		a.archive, err = arh.Open(a.cli.Header, a.cli.Data, append(a.archiveOptions(), arh.ArchiveWithLogger(a.logger))...)
	}
	if err != nil {
		return err
	}

	if a.cli.Filenames != "" {
		names, err := namelist.Load(a.cli.Filenames)
		if err != nil {
			return fmt.Errorf("read filenames: %w", err)
		}
		matched := a.archive.SupplyFilenames(names)
		a.logger.Info("supplied filenames", "candidates", len(names), "matched", matched)
	}
	if a.metrics != nil {
		a.metrics.ObserveArchive(a.archive)
	}
	return nil
}

func (a *app) pull(ctx context.Context) (*arh.Archive, error) {
	opts := []arh.Option{
		arh.WithDockerConfig(),
		arh.WithPlainHTTP(a.cli.PlainHTTP),
		arh.WithLogger(a.logger),
		arh.WithArchiveOptions(a.archiveOptions()...),
	}
	if a.cli.CacheDir != "" {
		opts = append(opts, arh.WithCacheDir(a.cli.CacheDir), arh.WithBlockCache(a.blocks))
	}
	client, err := arh.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	return client.Pull(ctx, a.cli.Ref)
}

func (a *app) openRemote(ctx context.Context) (*arh.Archive, error) {
	header, err := os.ReadFile(a.cli.Header)
	if err != nil {
		return nil, err
	}
	client := arhhttp.NewRetryClient(a.cli.Retries, a.cli.Timeout, a.logger)
	src, err := arhhttp.NewSource(ctx, a.cli.Data, arhhttp.WithClient(client))
	if err != nil {
		return nil, err
	}
	a.source = src

	var data io.ReaderAt = src
	if a.blocks != nil {
		if data, err = a.blocks.Wrap(src); err != nil {
			return nil, err
		}
	}
	return arh.New(header, data, append(a.archiveOptions(), arh.ArchiveWithLogger(a.logger))...)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// summarize prints the batch summary and reports whether anything was missed.
func (a *app) summarize(report *arh.Report, start time.Time) error {
	if a.metrics != nil {
		a.metrics.ObserveReport(report, start)
	}
	for _, o := range report.Outcomes {
		if o.Err != nil {
			fmt.Fprintf(a.stderr, "%s: %v\n", o.Status, o.Err)
		}
	}
	fmt.Fprintf(a.stdout, "extracted %d of %d files (%d bytes), %d failed, %d not found\n",
		report.Succeeded, report.Attempted, report.Bytes, report.Failed, report.NotFound)
	if report.Failed > 0 || report.NotFound > 0 {
		return errIncomplete
	}
	return nil
}

// ListAllCmd prints one line per member.
type ListAllCmd struct{}

// Run lists the archive members.
func (c *ListAllCmd) Run(a *app) error {
	return a.archive.List(a.stdout)
}

// ExtractAllCmd extracts every member.
type ExtractAllCmd struct{}

// Run extracts all members into the output directory.
func (c *ExtractAllCmd) Run(ctx context.Context, a *app) error {
	start := time.Now()
	report, err := a.archive.ExtractAll(ctx, a.cli.OutputDir)
	if serr := a.summarize(report, start); err == nil {
		err = serr
	}
	return err
}

// ExtractFileCmd extracts a single named member.
type ExtractFileCmd struct {
	File string `arg:"" help:"Name of the file to extract."`
}

// Run extracts one member into the output directory.
func (c *ExtractFileCmd) Run(ctx context.Context, a *app) error {
	outcome, err := a.archive.ExtractOne(ctx, c.File, a.cli.OutputDir)
	// A cancelled run attempted nothing.
	if a.metrics != nil && (ctx.Err() == nil || !errors.Is(err, ctx.Err())) {
		a.metrics.ObserveOutcome(outcome)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s (%d bytes, %s)\n", outcome.Path, outcome.Bytes, outcome.Digest)
	return nil
}

// ExtractFilesCmd extracts the members named in a list file.
type ExtractFilesCmd struct {
	FileList string `arg:"" name:"file-list" type:"existingfile" help:"File listing the names to extract, one per line."`
}

// Run extracts each listed member into the output directory.
func (c *ExtractFilesCmd) Run(ctx context.Context, a *app) error {
	names, err := namelist.Load(c.FileList)
	if err != nil {
		return fmt.Errorf("read file list: %w", err)
	}
	start := time.Now()
	report, err := a.archive.ExtractMany(ctx, names, a.cli.OutputDir)
	if serr := a.summarize(report, start); err == nil {
		err = serr
	}
	return err
}
