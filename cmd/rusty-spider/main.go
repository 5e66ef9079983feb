package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/spaceshaker/rusty-spider/pkg/config"
	"github.com/spaceshaker/rusty-spider/pkg/crawler"
	"github.com/spaceshaker/rusty-spider/pkg/fetch"
	"github.com/spaceshaker/rusty-spider/pkg/progress"
)

// seedList collects repeated -seed flags.
type seedList []string

func (s *seedList) String() string { return fmt.Sprint(*s) }

func (s *seedList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func main() {
	var seeds seedList
	flag.Var(&seeds, "seed", "Seed URL to crawl (repeatable)")
	maxPages := flag.Int("max-pages", 1000, "Maximum number of pages to crawl per seed")
	maxDepth := flag.Int("max-depth", 4, "Maximum link depth from the seed")
	rate := flag.Float64("rate", 0, "Maximum requests per second per seed (0 = unthrottled)")
	configFile := flag.String("config", "", "Path to optional YAML config file")
	logLevel := flag.String("loglevel", "warn", "Log level (debug, info, warn, error, fatal)")
	plain := flag.Bool("plain", false, "Disable the live progress display")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: rusty-spider [options]\n\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  rusty-spider -seed https://example.com\n")
		fmt.Fprintf(os.Stderr, "  rusty-spider -seed https://example.com -seed https://example.org -rate 2\n")
	}
	flag.Parse()

	if len(seeds) == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one -seed is required")
		flag.Usage()
		os.Exit(1)
	}

	log := setupLogger(*logLevel)
	logEntry := log.WithField("run_id", uuid.NewString())

	// --- Configuration ---
	cfg := config.Default()
	if *configFile != "" {
		if err := config.Load(*configFile, cfg); err != nil {
			log.Fatalf("Config error: %v", err)
		}
	}
	cfg.MaxPages = *maxPages
	cfg.MaxDepth = *maxDepth
	cfg.RequestsPerSecond = *rate

	warnings, err := cfg.Validate()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	for _, w := range warnings {
		log.Warn(w)
	}

	// --- Parse seeds ---
	seedURLs := make([]*url.URL, 0, len(seeds))
	for _, raw := range seeds {
		u, err := url.ParseRequestURI(raw)
		if err != nil {
			log.Fatalf("Invalid seed URL '%s': %v", raw, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			log.Fatalf("Invalid seed URL '%s': scheme must be http or https", raw)
		}
		seedURLs = append(seedURLs, u)
	}

	// --- Context & signal handling ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logEntry.Warnf("Received signal: %v. Initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig = <-sigChan:
			logEntry.Warnf("Received second signal: %v. Forcing exit.", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logEntry.Warn("Graceful shutdown period exceeded after signal. Forcing exit.")
			os.Exit(1)
		}
	}()
	defer signal.Stop(sigChan)

	// --- Components ---
	httpClient := fetch.NewClient(cfg.HTTPClientSettings, logEntry)
	fetcher := fetch.NewHTTPPageFetcher(httpClient, cfg.UserAgent, logEntry)
	robots := fetch.NewHTTPRobotsLoader(httpClient, logEntry)

	tty := !*plain && isatty.IsTerminal(os.Stdout.Fd())
	console := progress.NewConsoleReporter(os.Stdout, cfg.EventBufferSize, tty, logEntry)
	go console.Run(ctx)

	mc := crawler.NewMultiCrawler(cfg, fetcher, robots, console, logEntry)
	for _, seed := range seedURLs {
		mc.AddSeed(seed)
	}

	// --- Crawl ---
	summaries := mc.Run(ctx)

	// All crawlers have returned; no more events will be produced.
	console.Close()
	console.Wait()

	// --- Final report ---
	// Seeds that failed contributed no summary; their crawls are already
	// logged as errors.
	for _, summary := range summaries {
		for _, page := range summary.Pages {
			fmt.Printf("%s, %d, %s, %s, %d\n", page.URL, page.StatusCode, page.ContentType, page.Title, page.NumOutgoingLinks)
		}
	}
}

// setupLogger creates a configured logrus.Logger with the given log level.
func setupLogger(logLevelStr string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.WarnLevel)

	level, err := logrus.ParseLevel(logLevelStr)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'warn'. Error: %v", logLevelStr, err)
	} else {
		log.SetLevel(level)
	}

	return log
}
