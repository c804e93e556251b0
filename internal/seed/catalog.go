package seed

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"pcoscare/internal/models"
	"pcoscare/internal/validation"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog is the curated directory content shipped with the application.
type Catalog struct {
	Experts      []CatalogExpert      `yaml:"experts"`
	Events       []CatalogEvent       `yaml:"events"`
	Testimonials []CatalogTestimonial `yaml:"testimonials"`
}

type CatalogExpert struct {
	Name         string  `yaml:"name"`
	Specialty    string  `yaml:"specialty"`
	Location     string  `yaml:"location"`
	ContactEmail string  `yaml:"contactEmail"`
	ContactPhone string  `yaml:"contactPhone"`
	Bio          string  `yaml:"bio"`
	ImageURL     string  `yaml:"imageUrl"`
	Rating       float64 `yaml:"rating"`
}

type CatalogEvent struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Date        string `yaml:"date"`
	EventType   string `yaml:"eventType"`
	ImageURL    string `yaml:"imageUrl"`
	Status      string `yaml:"status"`
}

type CatalogTestimonial struct {
	Name     string `yaml:"name"`
	Location string `yaml:"location"`
	Quote    string `yaml:"quote"`
	ImageURL string `yaml:"imageUrl"`
}

// DefaultCatalog parses the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(catalogYAML)
}

// ParseCatalog decodes and checks a catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	for i, e := range c.Experts {
		if strings.TrimSpace(e.Name) == "" || strings.TrimSpace(e.Specialty) == "" || strings.TrimSpace(e.Location) == "" {
			return nil, fmt.Errorf("expert %d: name, specialty and location are required", i)
		}
		if e.Rating < 0 || e.Rating > 5 {
			return nil, fmt.Errorf("expert %q: rating must be between 0 and 5", e.Name)
		}
	}
	for _, e := range c.Events {
		if _, err := e.date(); err != nil {
			return nil, fmt.Errorf("event %q: %w", e.Title, err)
		}
		if !validation.OneOf(e.EventType, models.EventTypes) {
			return nil, fmt.Errorf("event %q: unknown event type %q", e.Title, e.EventType)
		}
		if e.Status != "" && !validation.OneOf(e.Status, models.EventStatuses) {
			return nil, fmt.Errorf("event %q: unknown status %q", e.Title, e.Status)
		}
	}
	for i, t := range c.Testimonials {
		if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.Quote) == "" {
			return nil, fmt.Errorf("testimonial %d: name and quote are required", i)
		}
	}
	return &c, nil
}

func (e CatalogEvent) date() (time.Time, error) {
	if d, err := time.Parse(time.DateOnly, e.Date); err == nil {
		return d, nil
	}
	return time.Parse(time.RFC3339, e.Date)
}

// ApplyCatalog upserts every catalog entry. Experts are matched by name and
// specialty, events by title and testimonials by name, so running it twice
// leaves one row per entry.
func ApplyCatalog(db *gorm.DB, c *Catalog) error {
	for _, item := range c.Experts {
		err := db.Transaction(func(tx *gorm.DB) error {
			var expert models.Expert
			return tx.Where(models.Expert{Name: item.Name, Specialty: item.Specialty}).
				Assign(models.Expert{
					Location:     item.Location,
					ContactEmail: item.ContactEmail,
					ContactPhone: item.ContactPhone,
					Bio:          item.Bio,
					ImageURL:     item.ImageURL,
					Rating:       item.Rating,
				}).
				FirstOrCreate(&expert).Error
		})
		if err != nil {
			return fmt.Errorf("seed expert %s: %w", item.Name, err)
		}
	}

	for _, item := range c.Events {
		date, _ := item.date()
		status := item.Status
		if status == "" {
			status = models.EventUpcoming
		}
		var event models.Event
		err := db.Where(models.Event{Title: item.Title}).
			Assign(models.Event{
				Description: item.Description,
				Date:        date,
				EventType:   item.EventType,
				ImageURL:    item.ImageURL,
				Status:      status,
			}).
			FirstOrCreate(&event).Error
		if err != nil {
			return fmt.Errorf("seed event %s: %w", item.Title, err)
		}
	}

	for _, item := range c.Testimonials {
		var testimonial models.Testimonial
		err := db.Where(models.Testimonial{Name: item.Name}).
			Assign(map[string]any{
				"location":  item.Location,
				"quote":     item.Quote,
				"image_url": item.ImageURL,
				"is_active": true,
			}).
			FirstOrCreate(&testimonial).Error
		if err != nil {
			return fmt.Errorf("seed testimonial %s: %w", item.Name, err)
		}
	}

	return nil
}
