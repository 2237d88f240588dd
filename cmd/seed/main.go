// Command seed fills the configured store with demo data or fixtures.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"ainews/internal/bootstrap"
	"ainews/internal/config"
	"ainews/internal/seed"
)

func main() {
	profiles := flag.Int("profiles", 10, "Number of profiles to create")
	posts := flag.Int("posts", 40, "Number of posts to create")
	comments := flag.Int("comments", 0, "Maximum comments per post (0 uses the seeder default)")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data")
	fixtures := flag.String("fixtures", "", "YAML fixtures file to load instead of random data")
	flag.Parse()

	opts := seed.Options{
		Profiles:    *profiles,
		Posts:       *posts,
		MaxComments: *comments,
		Seed:        *randSeed,
	}
	if err := run(context.Background(), *fixtures, opts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}

func run(ctx context.Context, fixtures string, opts seed.Options) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	stores, db, err := bootstrap.OpenStores(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	rt := &bootstrap.Runtime{Stores: stores, DB: db}
	defer func() { _ = rt.Close() }()

	var result *seed.Result
	if fixtures != "" {
		log.Printf("Loading fixtures from %s", fixtures)
		fx, err := seed.LoadFixtures(fixtures)
		if err != nil {
			return err
		}
		if result, err = seed.Apply(ctx, stores, fx, 0); err != nil {
			return err
		}
	} else {
		log.Printf("Target: %d profiles, %d posts", opts.Profiles, opts.Posts)
		if result, err = seed.NewSeeder(stores, opts).Run(ctx); err != nil {
			return err
		}
		log.Printf("Every generated profile signs in with password %q", seed.DemoPassword)
	}

	log.Printf("Seeded %d profiles, %d posts, %d comments, %d likes",
		result.Profiles, result.Posts, result.Comments, result.Likes)
	return nil
}
