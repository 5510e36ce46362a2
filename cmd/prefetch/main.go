// cmd/prefetch/main.go
// Warms the local cache for offline reading: syncs subscriptions, loads the
// first feed pages and the comments of the top posts.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"Readout/internal/app"
	"Readout/internal/config"
	"Readout/internal/core/mediators"
)

var exitCode int

func main() {
	defer func() { os.Exit(exitCode) }()
	run()
}

func run() {
	subreddit := flag.String("subreddit", "", "subreddit to prefetch (empty for the home feed)")
	sort := flag.String("sort", "hot", "feed sort")
	pages := flag.Int("pages", 3, "feed pages to load")
	commentPosts := flag.Int("comments", 10, "number of posts whose comments are fetched")
	concurrency := flag.Int("concurrency", 4, "simultaneous comment fetches")
	syncSubs := flag.Bool("sync-subscriptions", true, "refresh the subscription list first")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, nil, app.NewLogger(cfg.LogLevel))
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Printf("Failed to close store: %v", err)
		}
	}()

	log.Printf("Prefetching r/%s (%s), %d pages...", displayName(*subreddit), *sort, *pages)
	stats, err := a.Prefetch(ctx, app.PrefetchOptions{
		Scope:             mediators.FeedScope{Subreddit: *subreddit, Sort: *sort},
		Pages:             *pages,
		CommentPosts:      *commentPosts,
		Concurrency:       *concurrency,
		SyncSubscriptions: *syncSubs,
	})
	if err != nil {
		log.Printf("Prefetch failed: %v", err)
		exitCode = 1
		return
	}

	log.Printf("Done: %d subscriptions, %d posts, comments for %d posts (%d failed)",
		stats.Subscriptions, stats.Posts, stats.CommentPosts, stats.Failed)
}

func displayName(subreddit string) string {
	if subreddit == "" {
		return "frontpage"
	}
	return subreddit
}
