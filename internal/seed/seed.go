// Package seed loads the curated expert, event and testimonial catalog and
// generates demo community data for development.
package seed

import (
	"fmt"
	"log"

	"pcoscare/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the demo seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	BatchSize   int
	MaxDays     int
	SkipBcrypt  bool
	DryRun      bool
	ShouldClean bool
}

// Builtins seeds the embedded catalog. It is safe to call on every start.
func Builtins(db *gorm.DB) error {
	catalog, err := DefaultCatalog()
	if err != nil {
		return err
	}
	return ApplyCatalog(db, catalog)
}

// Demo populates the database with generated members, posts, likes and
// comments on top of the catalog.
func Demo(db *gorm.DB, opts Options) error {
	log.Printf("seeding demo data: %d users, %d posts", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean && !opts.DryRun {
		if err := clearCommunity(db); err != nil {
			log.Printf("warning: could not clear community data: %v", err)
		}
	}

	if !opts.DryRun {
		if err := Builtins(db); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
	}

	f := NewFactory(db, opts)
	members := make([]*models.User, 0, opts.NumUsers)
	for range opts.NumUsers {
		u, err := f.CreateUser()
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		members = append(members, u)
	}
	log.Printf("%d demo users created (password %q)", len(members), DemoPassword)

	if len(members) == 0 || opts.NumPosts <= 0 {
		return nil
	}

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := range opts.NumPosts {
		posts = append(posts, f.BuildPost(members[i%len(members)]))
	}
	if err := f.CreatePostsBatch(posts); err != nil {
		return fmt.Errorf("create posts: %w", err)
	}
	for _, p := range posts {
		if err := f.Engage(p, members); err != nil {
			return err
		}
	}
	log.Printf("%d demo posts created", len(posts))
	return nil
}

// clearCommunity removes posts, likes and comments. Accounts are kept.
func clearCommunity(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&models.Like{}, &models.Comment{}, &models.Post{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
