// Command main runs the database seeder for DevConnect.
package main

import (
	"context"
	"flag"
	"log"

	"devconnect/internal/auth"
	"devconnect/internal/config"
	"devconnect/internal/database"
	"devconnect/internal/seed"
)

func main() {
	// Parse command line flags
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "Build data in memory without writing")
	maxDays := flag.Int("max-days", 90, "Spread post dates over this many days")
	randSeed := flag.Int64("rand-seed", 0, "Seed for reproducible content (0 = random)")
	fixture := flag.String("fixture", "", "YAML fixture to apply instead of generated data")
	flag.Parse()

	log.Println("Database Seeder")
	log.Println("===============")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *fixture != "" {
		log.Printf("Applying fixture %s", *fixture)
		fx, err := seed.LoadFixture(*fixture)
		if err != nil {
			log.Fatalf("Fixture invalid: %v", err)
		}
		res, err := seed.ApplyFixture(context.Background(), db, fx, auth.NewHasher(cfg.BcryptCost))
		if err != nil {
			log.Fatalf("Fixture seeding failed: %v", err)
		}
		log.Printf("Fixture applied: %d users created, %d updated, %d profiles, %d posts",
			res.UsersCreated, res.UsersUpdated, res.Profiles, res.Posts)
		return
	}

	log.Printf("Target: %d users, %d posts, clean=%v, dry-run=%v", *numUsers, *numPosts, *shouldClean, *dryRun)
	res, err := seed.Seed(db, seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		ShouldClean: *shouldClean,
		DryRun:      *dryRun,
		MaxDays:     *maxDays,
		BcryptCost:  cfg.BcryptCost,
		RandSeed:    *randSeed,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Done: %d users, %d profiles, %d posts, %d likes, %d comments",
		res.Users, res.Profiles, res.Posts, res.Likes, res.Comments)
	log.Printf("All generated users have the password: %s", seed.DefaultPassword)
}
