// Command main loads the expert, event and testimonial catalog and,
// optionally, generated demo community data.
package main

import (
	"flag"
	"log"

	"pcoscare/internal/config"
	"pcoscare/internal/database"
	"pcoscare/internal/seed"
)

func main() {
	demo := flag.Bool("demo", false, "Also generate demo users, posts, likes and comments")
	numUsers := flag.Int("users", 20, "Number of demo users to create")
	numPosts := flag.Int("posts", 60, "Number of demo posts to create")
	clean := flag.Bool("clean", false, "Remove existing posts, likes and comments before generating demo data")
	fast := flag.Bool("fast", false, "Store demo passwords unhashed (local use only)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if !*demo {
		if err := seed.Builtins(db); err != nil {
			log.Fatalf("Catalog seeding failed: %v", err)
		}
		log.Println("Catalog seeded")
		return
	}

	if *fast && cfg.IsProduction() {
		log.Fatal("-fast is not allowed in production")
	}

	err = seed.Demo(db, seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		ShouldClean: *clean,
		SkipBcrypt:  *fast,
	})
	if err != nil {
		log.Fatalf("Demo seeding failed: %v", err)
	}
	log.Println("Catalog and demo data seeded")
}
