// Command seed fills the database with demo groups, users, posts, comments
// and follows.
package main

import (
	"context"
	"flag"
	"log"

	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/media"
	"yatube/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numPosts := flag.Int("posts", 120, "Number of posts to create")
	comments := flag.Int("comments", 3, "Maximum comments per post")
	follows := flag.Int("follows", 4, "Follows per user")
	images := flag.Float64("images", 0.2, "Share of posts with a generated image (0..1)")
	groupsFile := flag.String("groups", "", "YAML file with groups (defaults to the bundled list)")
	shouldClean := flag.Bool("clean", false, "Delete existing rows before seeding")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing anything")
	fast := flag.Bool("fast", false, "Hash the demo password with the minimum bcrypt cost")
	flag.Parse()

	log.Printf("Target: %d users, %d posts, clean=%v, dry-run=%v", *numUsers, *numPosts, *shouldClean, *dryRun)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	fixtures, err := loadGroups(*groupsFile)
	if err != nil {
		log.Fatalf("Failed to load groups: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	seeder, err := seed.NewSeeder(db, media.NewStore(cfg.MediaDir, cfg.MediaMaxUploadMB), seed.Options{
		Users:           *numUsers,
		Posts:           *numPosts,
		CommentsPerPost: *comments,
		FollowsPerUser:  *follows,
		ImageRatio:      *images,
		SkipBcrypt:      *fast,
		DryRun:          *dryRun,
	})
	if err != nil {
		log.Fatalf("Failed to create seeder: %v", err)
	}

	ctx := context.Background()
	if *shouldClean {
		if err := seeder.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	summary, err := seeder.Run(ctx, fixtures)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Done: %d groups, %d users, %d posts, %d comments, %d follows",
		summary.Groups, summary.Users, summary.Posts, summary.Comments, summary.Follows)
	log.Printf("All demo users have the password: %s", seed.DefaultPassword)
}

func loadGroups(path string) ([]seed.GroupFixture, error) {
	if path == "" {
		return seed.DefaultGroups()
	}
	return seed.LoadGroupsFile(path)
}
