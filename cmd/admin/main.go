// Package main provides admin management utilities for PCOS Care.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"pcoscare/internal/config"
	"pcoscare/internal/database"
	"pcoscare/internal/models"
	"pcoscare/internal/repository"
	"pcoscare/internal/service"
)

const usage = `Usage:
  go run ./cmd/admin promote <email>   - Grant admin rights
  go run ./cmd/admin demote <email>    - Revoke admin rights
  go run ./cmd/admin list-admins       - List all admins`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	users := service.NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	switch command := os.Args[1]; command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: go run ./cmd/admin %s <email>\n", command)
			os.Exit(1)
		}
		setAdmin(ctx, users, os.Args[2], command == "promote")

	case "list-admins":
		listAdmins(ctx, users)

	default:
		fmt.Printf("Unknown command: %s\n\n%s\n", command, usage)
		os.Exit(1)
	}
}

func setAdmin(ctx context.Context, users *service.UserService, email string, isAdmin bool) {
	user, err := users.SetAdminByEmail(ctx, email, isAdmin)
	if err != nil {
		if models.StatusFor(err) == http.StatusNotFound {
			fmt.Printf("No user with email %s\n", email)
			os.Exit(1)
		}
		log.Fatalf("Failed to update user: %v", err)
	}

	verb := "demoted"
	if isAdmin {
		verb = "promoted"
	}
	fmt.Printf("%s %s (ID: %d), admin=%t\n", verb, user.Email, user.ID, user.IsAdmin)
}

func listAdmins(ctx context.Context, users *service.UserService) {
	admins, err := users.ListAdmins(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}

	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return
	}

	fmt.Println("Current admins:")
	for _, admin := range admins {
		fmt.Printf("ID: %d | Name: %s | Email: %s\n", admin.ID, admin.Name, admin.Email)
	}
}
