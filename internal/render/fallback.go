// internal/render/fallback.go
//
// Demo content fallback.
//
// No region of a demo page renders empty.  Each data-bearing region
// degrades on its own:
//
//   - hero image missing       → PlaceholderImage
//   - collection list empty    → sample destinations (tour) or brands (car)
//   - entity list empty        → sample packages (tour) or fleet (car)
//
// ApplyFallback is pure.  It returns the filled configuration plus a
// Fallbacks record telling the caller which regions are sample content.

package render

import (
	"slices"
	"strings"

	"github.com/yanizio/demosite/internal/demosite"
)

// PlaceholderImage replaces a missing hero image.
const PlaceholderImage = "https://images.unsplash.com/photo-1507525428034-b723cf961d3e?w=1600&q=80"

// DefaultPrimaryColor is used when branding omits a color.
const DefaultPrimaryColor = "#0E7490"

// Fallbacks reports which regions were filled with sample content.
type Fallbacks struct {
	HeroImage  bool `json:"heroImage"`
	Collection bool `json:"collection"`
	Entities   bool `json:"entities"`
}

// Any reports whether any region uses sample content.
func (f Fallbacks) Any() bool { return f.HeroImage || f.Collection || f.Entities }

type samples struct {
	collection []demosite.Destination
	entities   []demosite.Package
}

var sampleSets = map[string]samples{
	"tour": {
		collection: []demosite.Destination{
			{Name: "Seminyak", Region: "South Bali", Description: "Beach clubs and sunset dinners", Image: "https://images.unsplash.com/photo-1537996194471-e657df975ab4?w=800&q=80", Price: "350"},
			{Name: "Nusa Penida", Region: "Klungkung", Description: "Cliffs, manta rays and crystal bays", Image: "https://images.unsplash.com/photo-1570789210967-2cac24afeb00?w=800&q=80", Price: "480"},
			{Name: "Kintamani", Region: "Bangli", Description: "Volcano sunrise above the caldera lake", Image: "https://images.unsplash.com/photo-1604999333679-b86d54738315?w=800&q=80", Price: "290"},
		},
		entities: []demosite.Package{
			{
				Title: "Island Hopping Escape", Location: "Nusa Islands", Duration: "3 days", Feature: "Snorkelling included", Price: "890",
				Image: "https://images.unsplash.com/photo-1518548419970-58e3b4079ab2?w=800&q=80",
				Itinerary: []demosite.ItineraryDay{
					{Day: demosite.NewDay(1), Title: "Fast boat to Nusa Penida", Description: "Kelingking cliff and Broken Beach"},
					{Day: demosite.NewDay(2), Title: "Manta Point snorkelling"},
					{Day: demosite.NewDay(3), Title: "Lembongan mangroves and return"},
				},
			},
			{
				Title: "Cultural Heart of Bali", Location: "Ubud", Duration: "4 days", Feature: "Private guide", Price: "1,150",
				Image: "https://images.unsplash.com/photo-1555400038-63f5ba517a47?w=800&q=80",
				Itinerary: []demosite.ItineraryDay{
					{Day: demosite.NewDay(1), Title: "Tegallalang rice terraces"},
					{Day: demosite.NewDay(2), Title: "Temple trail", Description: "Tirta Empul and Gunung Kawi"},
				},
			},
		},
	},
	"car": {
		collection: []demosite.Destination{
			{Name: "Toyota", Region: "MPV", Description: "Avanza, Innova and Alphard", Price: "350,000"},
			{Name: "Honda", Region: "City car", Description: "Brio, Jazz and HR-V", Price: "300,000"},
			{Name: "Suzuki", Region: "4x4", Description: "Jimny and Ertiga", Price: "400,000"},
		},
		entities: []demosite.Package{
			{Title: "Toyota Avanza", Feature: "7 seats, automatic", Duration: "per day", Price: "350,000", Image: "https://images.unsplash.com/photo-1549317661-bd32c8ce0db2?w=800&q=80"},
			{Title: "Honda Brio", Feature: "5 seats, fuel saver", Duration: "per day", Price: "300,000", Image: "https://images.unsplash.com/photo-1533473359331-0135ef1b58bf?w=800&q=80"},
			{Title: "Suzuki Jimny", Feature: "4x4, open roof", Duration: "per day", Price: "650,000", Image: "https://images.unsplash.com/photo-1519641471654-76ce0107ad1b?w=800&q=80"},
		},
	},
}

// ApplyFallback fills empty regions of cfg for templateID with sample
// content.  cfg is not modified.
func ApplyFallback(templateID string, cfg demosite.Config) (demosite.Config, Fallbacks) {
	var fb Fallbacks
	out := cfg

	if strings.TrimSpace(out.Hero.Image) == "" {
		out.Hero.Image = PlaceholderImage
		fb.HeroImage = true
	}

	set := sampleSets[templateID]
	if len(out.Destinations) == 0 && len(set.collection) > 0 {
		out.Destinations = slices.Clone(set.collection)
		fb.Collection = true
	}
	if len(out.Packages) == 0 && len(set.entities) > 0 {
		out.Packages = slices.Clone(set.entities)
		fb.Entities = true
	}
	return out, fb
}
