package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/fsnotify/fsnotify"
	"github.com/tpplang/tppc/diag"
	"github.com/tpplang/tppc/pipeline"
	"tinygo.org/x/go-llvm"
)

type config struct {
	outDir   string
	messages string
	noSema   bool
	watch    bool
	verbose  bool
	dump     bool
	version  bool
	verify   bool
	paths    []string
}

func parseFlags(args []string, stderr io.Writer) (*config, error) {
	cfg := &config{}
	fs := flag.NewFlagSet("tppc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: tppc [flags] [file.tpp | dir]...\n")
		fs.PrintDefaults()
	}
	fs.StringVar(&cfg.outDir, "o", "", "also write each module's IR to `dir`")
	fs.StringVar(&cfg.messages, "messages", os.Getenv("TPPC_MESSAGES"), "diagnostic message catalog (YAML `file`)")
	fs.BoolVar(&cfg.noSema, "no-sema", false, "skip semantic analysis")
	fs.BoolVar(&cfg.watch, "watch", false, "recompile inputs when they change")
	fs.BoolVar(&cfg.verbose, "v", false, "trace compiler phases on stderr")
	fs.BoolVar(&cfg.dump, "dump", false, "print the pruned tree and the symbol table")
	fs.BoolVar(&cfg.version, "version", false, "print version and exit")
	fs.BoolVar(&cfg.verify, "verify", false, "run the LLVM verifier on every module")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.paths = fs.Args()
	return cfg, nil
}

func (cfg *config) options() pipeline.Options {
	return pipeline.Options{Analyze: !cfg.noSema, Verify: cfg.verify}
}

// collectInputs expands directories into the .tpp files directly inside them.
// Files are passed through unchecked so the pipeline reports wrong kinds and
// missing files.
func collectInputs(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		for _, e := range entries {
			// TODO compile within subdirectories too
			if !e.IsDir() && strings.HasSuffix(e.Name(), pipeline.TPP_SUFFIX) {
				files = append(files, filepath.Join(p, e.Name()))
			}
		}
	}
	return files, nil
}

type driver struct {
	cfg     *config
	opts    pipeline.Options
	catalog diag.Catalog
	cache   outputCache
	log     *slog.Logger
	out     io.Writer
}

// build compiles paths and reports every outcome. It returns false when any
// file failed or had an error diagnostic.
func (d *driver) build(ctx context.Context, paths []string) bool {
	ok := true
	var pending []string
	for _, path := range paths {
		if d.cfg.dump {
			pending = append(pending, path)
			continue
		}
		u, err := pipeline.LoadFile(path)
		if err != nil {
			pending = append(pending, path)
			continue
		}
		cached, hit := d.cache.Lookup(u, d.opts)
		if !hit {
			pending = append(pending, path)
			continue
		}
		d.log.Debug("cache hit", "file", path, "ir", cached)
		if err := d.publish(u, cached); err != nil {
			fmt.Fprintf(d.out, "⚠️ %s: %v\n", path, err)
			ok = false
			continue
		}
		fmt.Fprintf(d.out, "✅ %s is up to date: %s\n", path, cached)
	}
	if len(pending) == 0 {
		return ok
	}

	start := time.Now()
	outcomes, err := pipeline.CompileFiles(ctx, pending, d.opts)
	if err != nil {
		fmt.Fprintf(d.out, "⚠️ compilation interrupted: %v\n", err)
		return false
	}
	d.log.Debug("compiled", "files", len(pending), "elapsed", time.Since(start))
	for _, o := range outcomes {
		if !d.report(o) {
			ok = false
		}
	}
	return ok
}

// report prints one outcome and writes its IR.
func (d *driver) report(o pipeline.Outcome) bool {
	var fe *pipeline.FileError
	if errors.As(o.Err, &fe) {
		fmt.Fprintf(d.out, "⚠️ %s\n", fe.Diagnostic.Render(d.catalog))
		return false
	}

	res := o.Result
	if res != nil {
		for _, dg := range res.Diagnostics {
			fmt.Fprintf(d.out, "%s:%s\n", o.Path, dg.Render(d.catalog))
		}
		for _, ce := range res.CompileErrors {
			fmt.Fprintf(d.out, "⚠️ %s\n", ce)
		}
		if d.cfg.dump {
			d.dump(res)
		}
	}
	if o.Err != nil {
		fmt.Fprintf(d.out, "⚠️ %v\n", o.Err)
		return false
	}
	if len(res.CompileErrors) > 0 {
		fmt.Fprintf(d.out, "⚠️ %s: no IR written\n", o.Path)
		return false
	}

	d.log.Debug("storing IR", "file", o.Path, "bytes", len(res.IR))
	path, err := d.cache.Store(res.Unit, d.opts, res.IR, len(res.Diagnostics) == 0)
	if err == nil {
		err = d.publish(res.Unit, path)
	}
	if err != nil {
		fmt.Fprintf(d.out, "⚠️ %s: %v\n", o.Path, err)
		return false
	}
	fmt.Fprintf(d.out, "✅ %s -> %s\n", o.Path, d.destination(res.Unit, path))
	return !res.Diagnostics.HasErrors()
}

func (d *driver) dump(res *pipeline.Result) {
	if res.Program != nil {
		fmt.Fprintln(d.out, res.Program.String())
	}
	if res.Table != nil {
		spew.Fdump(d.out, res.Table.Functions(), res.Table.Variables())
	}
}

// publish copies a cached module to the -o directory, if any.
func (d *driver) publish(u pipeline.Unit, cached string) error {
	if d.cfg.outDir == "" {
		return nil
	}
	if err := os.MkdirAll(d.cfg.outDir, 0755); err != nil {
		return err
	}
	return Copy(cached, d.destination(u, cached))
}

func (d *driver) destination(u pipeline.Unit, cached string) string {
	if d.cfg.outDir == "" {
		return cached
	}
	return filepath.Join(d.cfg.outDir, u.ModuleName()+pipeline.IR_SUFFIX)
}

// watch rebuilds an input each time it is written, until ctx is done.
func (d *driver) watch(ctx context.Context, files []string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watched := map[string]bool{}
	var dirs []string
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		watched[abs] = true
		if dir := filepath.Dir(abs); !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	fmt.Fprintf(d.out, "Watching %d file(s) for changes\n", len(watched))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 || !watched[filepath.Clean(ev.Name)] {
				continue
			}
			d.log.Debug("change", "file", ev.Name, "op", ev.Op.String())
			d.build(ctx, []string{ev.Name})
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			d.log.Warn("watch error", "err", err)
		}
	}
}

func newLogger(verbose bool, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func loadCatalog(path string) (diag.Catalog, error) {
	if path == "" {
		return diag.Default(), nil
	}
	return diag.LoadCatalogFile(path)
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if cfg.version {
		printVersion(stdout)
		return 0
	}
	if err := checkLLVMVersion(llvm.Version); err != nil {
		fmt.Fprintf(stderr, "⚠️ %v\n", err)
		return 1
	}

	catalog, err := loadCatalog(cfg.messages)
	if err != nil {
		fmt.Fprintf(stderr, "⚠️ loading messages: %v\n", err)
		return 1
	}

	if len(cfg.paths) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(stderr, "Error getting current working directory: %v\n", err)
			return 1
		}
		cfg.paths = []string{cwd}
	}
	files, err := collectInputs(cfg.paths)
	if err != nil {
		fmt.Fprintf(stderr, "⚠️ %v\n", err)
		return 1
	}
	if len(files) == 0 {
		fmt.Fprintf(stderr, "⚠️ no %s files in %s\n", pipeline.TPP_SUFFIX, strings.Join(cfg.paths, ", "))
		return 1
	}

	tppcache := defaultTPPCache()
	d := &driver{
		cfg:     cfg,
		opts:    cfg.options(),
		catalog: catalog,
		cache:   outputCache{dir: tppcache},
		log:     newLogger(cfg.verbose, stderr),
		out:     stdout,
	}
	d.log.Debug("starting", "cache", tppcache, "files", len(files), "sema", d.opts.Analyze)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ok := d.build(ctx, files)
	if cfg.watch {
		if err := d.watch(ctx, files); err != nil {
			fmt.Fprintf(stderr, "⚠️ %v\n", err)
			return 1
		}
		return 0
	}
	if !ok {
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
