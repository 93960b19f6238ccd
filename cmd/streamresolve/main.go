// Command streamresolve resolves an HLS or DASH manifest and prints the
// normalized media playlist and its segments, optionally downloading them.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	streams "github.com/turtletowerz/go-streams"
	"github.com/turtletowerz/go-streams/progressbar"
)

type options struct {
	config    string
	bandwidth int64
	scheme    string
	format    string
	out       string
	workers   int
	verbose   bool
}

func main() {
	var opts options
	flag.StringVar(&opts.config, "config", "", "YAML configuration file")
	flag.Int64Var(&opts.bandwidth, "bandwidth", 0, "target bandwidth in bits per second (default from config)")
	flag.StringVar(&opts.scheme, "scheme", "", "rewrite segment URIs to this scheme (default from config)")
	flag.StringVar(&opts.format, "format", "text", "output format: text, json or yaml")
	flag.StringVar(&opts.out, "out", "", "download init and media segments into this file")
	flag.IntVar(&opts.workers, "workers", 0, "concurrent segment downloads (default from config)")
	flag.BoolVar(&opts.verbose, "v", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <manifest url>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, flag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, manifest string) error {
	cfg := streams.DefaultConfig()
	if opts.config != "" {
		var err error
		if cfg, err = streams.LoadConfig(opts.config); err != nil {
			return err
		}
	}
	if opts.scheme != "" {
		cfg.CustomScheme = opts.scheme
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(cfg.Level())
	if opts.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	resolver := streams.New(cfg, streams.WithLogger(logger))
	defer resolver.Close()

	ready, err := resolver.Resolve(ctx, manifest, opts.bandwidth)
	if err != nil {
		return err
	}

	if err := printReady(os.Stdout, opts.format, ready); err != nil {
		return err
	}

	if opts.out == "" {
		return nil
	}
	return download(ctx, resolver.Session(), opts, logger)
}

func printReady(w io.Writer, format string, ready *streams.Ready) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ready)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(ready)
	case "text":
		fmt.Fprintf(w, "# %s %s, %d bps, %d segments, %.3fs\n", ready.Format, ready.PlaylistURL, ready.Bandwidth, len(ready.Segments), ready.TotalDuration())
		_, err := io.WriteString(w, ready.Playlist)
		return err
	}
	return fmt.Errorf("unknown output format %q", format)
}

func download(ctx context.Context, session *streams.Session, opts options, logger *logrus.Logger) error {
	file, err := os.Create(opts.out)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer file.Close()

	ready, _ := session.Ready()
	bar := progressbar.New(len(ready.Segments))
	err = session.Download(ctx, file, opts.workers, func(done, total int) error {
		fmt.Fprint(os.Stderr, bar.Set(done))
		return nil
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("downloading segments: %w", err)
	}

	logger.WithField("file", opts.out).Info("download complete")
	return file.Close()
}
