// Command messages prints the contact inbox, newest first.
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
	"text/tabwriter"
	"time"

	"pcoscare/internal/config"
	"pcoscare/internal/database"
	"pcoscare/internal/kv"
	"pcoscare/internal/models"
	"pcoscare/internal/notifications"
	"pcoscare/internal/repository"
	"pcoscare/internal/service"
)

func main() {
	status := flag.String("status", "", "Only show messages with this status (new, read, replied)")
	full := flag.Bool("full", false, "Print full message bodies")
	follow := flag.Bool("follow", false, "After listing, stream new bookings and messages as they arrive")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	contacts, err := service.NewContactService(repository.NewContactRepository(db)).List(context.Background())
	if err != nil {
		log.Fatalf("Failed to load messages: %v", err)
	}

	printMessages(os.Stdout, contacts, *status, *full)

	if *follow {
		if err := followEvents(cfg); err != nil {
			log.Fatalf("Failed to follow notifications: %v", err)
		}
	}
}

func followEvents(cfg *config.Config) error {
	rdb := kv.InitRedis(cfg.RedisURL)
	if rdb == nil {
		return fmt.Errorf("redis unavailable at %q", cfg.RedisURL)
	}
	defer func() { _ = rdb.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n := notifications.NewNotifier(rdb)
	if err := n.Subscribe(ctx, func(_ string, ev notifications.Event) {
		printEvent(os.Stdout, ev)
	}, notifications.AdminChannel); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(os.Stdout, "Following admin notifications, Ctrl+C to stop")
	<-ctx.Done()
	return nil
}

func printEvent(out io.Writer, ev notifications.Event) {
	line := fmt.Sprintf("[%s] %s #%d", ev.At.Local().Format(time.DateTime), ev.Type, ev.ID)
	if ev.Status != "" {
		line += " (" + ev.Status + ")"
	}
	if ev.Summary != "" {
		line += ": " + ev.Summary
	}
	_, _ = fmt.Fprintln(out, line)
}

func printMessages(out io.Writer, contacts []models.Contact, status string, full bool) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tRECEIVED\tSTATUS\tFROM\tSUBJECT\tMESSAGE")

	shown := 0
	for _, c := range contacts {
		if status != "" && string(c.Status) != status {
			continue
		}
		msg := strings.Join(strings.Fields(c.Message), " ")
		if !full && len(msg) > 60 {
			msg = msg[:57] + "..."
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s <%s>\t%s\t%s\n",
			c.ID, c.CreatedAt.Format(time.DateTime), c.Status, c.Name, c.Email, c.Subject, msg)
		shown++
	}
	_ = w.Flush()
	_, _ = fmt.Fprintf(out, "\n%d message(s)\n", shown)
}
