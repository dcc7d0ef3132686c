package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/net/html"

	"github.com/goliatone/go-axelforms/pkg/command"
	"github.com/goliatone/go-axelforms/pkg/config"
	"github.com/goliatone/go-axelforms/pkg/dom"
	"github.com/goliatone/go-axelforms/pkg/i18n"
	"github.com/goliatone/go-axelforms/pkg/installer"
	"github.com/goliatone/go-axelforms/pkg/logging"
	"github.com/goliatone/go-axelforms/pkg/prompt"
	"github.com/goliatone/go-axelforms/pkg/transport"
)

type options struct {
	page     string
	config   string
	pageURL  string
	root     string
	locale   string
	output   string
	yes      bool
	fill     bool
	activate bool
	verbose  bool
	steps    []step
}

func main() {
	var opts options
	flag.StringVar(&opts.page, "page", "", "HTML page to install, a file or an http(s) URL (required)")
	flag.StringVar(&opts.config, "config", "", "configuration file (yaml, toml or json)")
	flag.StringVar(&opts.pageURL, "page-url", "", "URL the page is served from, used to resolve relative URLs")
	flag.StringVar(&opts.root, "root", "", "directory serving relative template and data URLs (defaults to the page directory)")
	flag.StringVar(&opts.locale, "locale", "", "message locale")
	flag.StringVar(&opts.output, "output", "", "output file for the installed page (stdout if empty)")
	flag.BoolVar(&opts.yes, "yes", false, "answer yes to every confirmation")
	flag.BoolVar(&opts.fill, "fill", false, "prompt for the fields of every editor before running steps")
	flag.BoolVar(&opts.activate, "activate", false, "activate pages that defer their install")
	flag.BoolVar(&opts.verbose, "v", false, "debug logging")
	flag.Var(stepFlag{steps: &opts.steps, kind: stepClick}, "click", "run the commands of an element: id or id:command (repeatable)")
	flag.Var(stepFlag{steps: &opts.steps, kind: stepSet}, "set", "update a field as user input: variable=value (repeatable)")
	watch := flag.Bool("watch", false, "run again whenever the page changes")
	flag.Parse()

	if strings.TrimSpace(opts.page) == "" {
		log.Fatalf("missing -page")
	}
	if opts.root == "" && !isRemote(opts.page) {
		opts.root = filepath.Dir(opts.page)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts); err != nil && !*watch {
		log.Fatalf("Install failed: %v", err)
	} else if err != nil {
		log.Printf("Install failed: %v", err)
	}
	if *watch {
		if isRemote(opts.page) {
			log.Fatalf("-watch needs a local page")
		}
		if err := watchPage(ctx, opts); err != nil {
			log.Fatalf("Watch failed: %v", err)
		}
	}
}

func run(ctx context.Context, opts options) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := logging.New(os.Stderr, level)

	cfg := config.Config{}
	if opts.config != "" {
		loaded, err := config.Load(opts.config)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if opts.pageURL != "" {
		cfg.PageURL = opts.pageURL
	}
	if opts.locale != "" {
		cfg.Locale = opts.locale
	}
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return err
	}

	if isRemote(opts.page) && cfg.PageURL == "" {
		cfg.PageURL = opts.page
	}
	client := transport.New(
		transport.WithTimeout(timeout),
		transport.WithBaseURL(cfg.PageURL),
		transport.WithLogger(logger),
	)
	doc, err := readPage(ctx, client, opts.page)
	if err != nil {
		return err
	}
	recorder := logging.NewRecorder(logging.LogReporter{Logger: logger})
	driver := prompt.NewSurvey()

	confirmer := command.ConfirmFunc(prompt.Confirm(driver))
	if opts.yes {
		confirmer = func(context.Context, string) bool { return true }
	}

	inst := installer.New(
		installer.WithConfig(cfg),
		installer.WithClient(client),
		installer.WithFetcher(newFileFetcher(opts.root, client)),
		installer.WithConfirmer(confirmer),
		installer.WithNavigator(command.NavigateFunc(func(_ context.Context, url string) {
			fmt.Fprintf(os.Stderr, "redirect: %s\n", url)
		})),
		installer.WithTranslator(i18n.Default()),
		installer.WithReporter(recorder),
		installer.WithLogger(logger),
	)

	if err := inst.Install(ctx, doc); err != nil {
		return err
	}
	if inst.Config().Deferred && opts.activate {
		if err := inst.Activate(ctx); err != nil {
			return err
		}
	}

	if opts.fill {
		for _, ed := range inst.Editors().Editors() {
			if err := prompt.Fill(ctx, driver, ed); err != nil {
				return err
			}
		}
	}
	for _, s := range opts.steps {
		if err := s.apply(ctx, inst); err != nil {
			recorder.Report(ctx, err)
		}
	}

	if err := writePage(opts.output, doc); err != nil {
		return err
	}
	return summarize(recorder.Errors())
}

func isRemote(page string) bool {
	return strings.HasPrefix(page, "http://") || strings.HasPrefix(page, "https://")
}

func readPage(ctx context.Context, client *transport.Client, path string) (*html.Node, error) {
	if isRemote(path) {
		data, err := client.Fetch(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("read page: %w", err)
		}
		return dom.Parse(bytes.NewReader(data))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	defer f.Close()
	return dom.Parse(f)
}

func writePage(path string, doc *html.Node) error {
	out := dom.Render(doc)
	if path == "" {
		fmt.Println(out)
		return nil
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Page written to %s\n", path)
	return nil
}

func summarize(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	fmt.Fprintf(os.Stderr, "%d error(s) reported:\n", len(errs))
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "  - %v\n", err)
	}
	return fmt.Errorf("%d error(s) reported", len(errs))
}

func watchPage(ctx context.Context, opts options) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Editors save through rename, so watch the directory and filter on name.
	page, err := filepath.Abs(opts.page)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(page)); err != nil {
		return err
	}
	log.Printf("watching %s", page)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != page {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			if err := run(ctx, opts); err != nil {
				log.Printf("Install failed: %v", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				log.Printf("watch: %v", err)
				continue
			}
			return err
		}
	}
}
