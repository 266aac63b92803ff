// Command collectortool drives a Collector from the shell: reload the
// manifest, download descriptors matching a type/time-range query, or
// stream-decode them to stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/trinity-1686a/collector"
	"github.com/trinity-1686a/collector/index"
)

type commonConfig struct {
	baseDir  string
	indexURL string
	offline  bool
}

type subcmd func(context.Context, *commonConfig, []string) error

func main() {
	var exit int
	defer func() {
		if exit != 0 {
			os.Exit(exit)
		}
	}()
	ctx, done := context.WithCancel(context.Background())
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		<-ch
		done()
	}()

	var cfg commonConfig
	fs := flag.NewFlagSet("collectortool", flag.ExitOnError)
	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage of %s:\n", os.Args[0])
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nSubcommands\n\n")
		fmt.Fprintln(out, "reload\n\trefresh the local manifest cache")
		fmt.Fprintln(out, "download <type> [<type> ...]\n\tfetch every file matching the given descriptor types")
		fmt.Fprintln(out, "stream <type>\n\tdecode and print every descriptor of the given type")
		fmt.Fprintln(out)
	}
	fs.StringVar(&cfg.baseDir, "base", "./collector-cache", "local cache directory")
	fs.StringVar(&cfg.indexURL, "index-url", collector.DefaultIndexURL, "manifest URL")
	fs.BoolVar(&cfg.offline, "offline", false, "never issue network requests; use only the local cache")

	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatal(err)
	}

	var cmd subcmd
	switch n := fs.Arg(0); n {
	case "reload":
		cmd = Reload
	case "download":
		cmd = Download
	case "stream":
		cmd = Stream
	case "":
		fs.Usage()
		os.Exit(99)
	default:
		fs.Usage()
		fmt.Fprintf(os.Stderr, "\nunknown subcommand %q\n", n)
		os.Exit(99)
	}

	var cmdErr error
	cmdctx, cmddone := context.WithCancel(ctx)
	go func() {
		defer cmddone()
		cmdErr = cmd(cmdctx, &cfg, fs.Args()[1:])
	}()

	select {
	case <-ctx.Done():
		log.Print(ctx.Err())
		exit = 1
	case <-cmdctx.Done():
		if cmdErr != nil {
			log.Print(cmdErr)
			exit = 2
		}
	}
}

func newCollector(ctx context.Context, cfg *commonConfig) (*collector.Collector, error) {
	var opts []collector.Option
	if cfg.offline {
		opts = append(opts, collector.Offline())
	}
	return collector.New(ctx, cfg.baseDir, cfg.indexURL, opts...)
}

// Reload refreshes the local manifest cache and reports whether it changed.
func Reload(ctx context.Context, cfg *commonConfig, _ []string) error {
	c, err := newCollector(ctx, cfg)
	if err != nil {
		return err
	}
	res, err := c.ReloadIndex(ctx)
	if err != nil {
		return err
	}
	if res == collector.Changed {
		fmt.Println("changed")
	} else {
		fmt.Println("unchanged")
	}
	return nil
}

// Download fetches every file matching the given descriptor type names.
func Download(ctx context.Context, cfg *commonConfig, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("download: at least one descriptor type is required")
	}
	c, err := newCollector(ctx, cfg)
	if err != nil {
		return err
	}
	types := make([]index.Type, len(args))
	for i, a := range args {
		types[i] = index.ParseType(a)
	}
	failed, err := c.DownloadDescriptors(ctx, types, collector.TimeRange{})
	if err != nil {
		return err
	}
	if len(failed) > 0 {
		for _, f := range failed {
			fmt.Fprintf(os.Stderr, "failed: %s: %v\n", f.File.Path, f.Err)
		}
		return fmt.Errorf("download: %d file(s) failed after all retries", len(failed))
	}
	fmt.Println("ok")
	return nil
}

// Stream decodes and prints every descriptor of the given type.
func Stream(ctx context.Context, cfg *commonConfig, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("stream: exactly one descriptor type is required")
	}
	c, err := newCollector(ctx, cfg)
	if err != nil {
		return err
	}
	t := index.ParseType(args[0])
	next, err := c.StreamDescriptors(ctx, t, collector.TimeRange{})
	if err != nil {
		return err
	}
	w := os.Stdout
	for {
		d, f, err := next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", f.Path, err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", f.Path, strings.TrimSpace(fmt.Sprintf("%+v", d)))
	}
}
