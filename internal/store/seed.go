// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

type demoVilla struct {
	slug, name, location, region, summary, description, price string
	bedrooms, bathrooms, guests                                int64
	images, amenities                                          []string
	private, featured                                          bool
}

var demoVillas = []demoVilla{
	{
		slug: "villa-les-oliviers", name: "Villa Les Oliviers", location: "Saint-Jean-Cap-Ferrat",
		region: "Côte d'Azur", price: "€38,000 / week", bedrooms: 6, bathrooms: 7, guests: 12,
		summary:     "Belle Époque villa among olive groves with a heated infinity pool above the bay.",
		description: "A restored **Belle Époque** residence set in two hectares of olive groves.\n\nFull staff, private cinema and direct path to a secluded cove.",
		images:      []string{"/static/img/villas/oliviers-1.jpg", "/static/img/villas/oliviers-2.jpg"},
		amenities:   []string{"Infinity pool", "Private chef", "Cinema", "Sea access"},
		featured:    true,
	},
	{
		slug: "casa-del-faro", name: "Casa del Faro", location: "Porto Cervo", region: "Sardinia",
		price: "From €4,200 per night", bedrooms: 5, bathrooms: 5, guests: 10,
		summary:     "Granite-and-glass retreat on the Costa Smeralda with a private jetty.",
		description: "Contemporary architecture carved into the granite coast.\n\nTender service to the marina is included.",
		images:      []string{"/static/img/villas/faro-1.jpg"},
		amenities:   []string{"Private jetty", "Gym", "Wine cellar"},
		featured:    true,
	},
	{
		slug: "chalet-blanc", name: "Chalet Blanc", location: "Courchevel 1850", region: "French Alps",
		price: "CHF 95'000 / week", bedrooms: 7, bathrooms: 8, guests: 14,
		summary:     "Ski-in ski-out chalet with spa, hammam and a dedicated ski concierge.",
		description: "Seven suites over four floors, with a **spa level** and heated boot room.",
		images:      []string{"/static/img/villas/chalet-1.jpg"},
		amenities:   []string{"Ski-in/ski-out", "Spa", "Hammam", "Chauffeur"},
	},
	{
		slug: "villa-aurelia", name: "Villa Aurelia", location: "Positano", region: "Amalfi Coast",
		price: "EUR 21.500/week", bedrooms: 4, bathrooms: 4, guests: 8,
		summary:     "Cliffside terraces and lemon gardens above the Tyrrhenian Sea.",
		description: "Terraced gardens descend to a saltwater pool carved into the cliff.",
		images:      []string{"/static/img/villas/aurelia-1.jpg"},
		amenities:   []string{"Saltwater pool", "Boat charter", "Lemon garden"},
	},
	{
		slug: "domaine-prive-esterel", name: "Domaine Privé de l'Estérel", location: "Théoule-sur-Mer",
		region: "Côte d'Azur", price: "Price on request", bedrooms: 10, bathrooms: 12, guests: 20,
		summary:     "An off-market estate shown only to members of our private client list.",
		description: "Red-rock headland estate with helipad, two pools and a guest pavilion.",
		images:      []string{"/static/img/villas/esterel-1.jpg"},
		amenities:   []string{"Helipad", "Two pools", "Guest pavilion", "Security team"},
		private:     true,
	},
	{
		slug: "villa-serenissima", name: "Villa Serenissima", location: "Lake Como", region: "Lombardy",
		price: "€65k per week", bedrooms: 8, bathrooms: 9, guests: 16,
		summary:     "Private lakeside palazzo with boathouse and frescoed salons.",
		description: "An eighteenth-century palazzo with its own **Riva** in the boathouse.",
		images:      []string{"/static/img/villas/serenissima-1.jpg"},
		amenities:   []string{"Boathouse", "Frescoed salons", "Tennis court"},
		private:     true,
	},
}

type demoYacht struct {
	slug, name, length, price, summary, description string
	guests, cabins, crew                            int64
	images                                          []string
}

var demoYachts = []demoYacht{
	{
		slug: "my-azzurra", name: "M/Y Azzurra", length: "42 m", price: "€185,000 / week",
		guests: 12, cabins: 6, crew: 10,
		summary:     "Tri-deck motor yacht cruising the Riviera and Corsica.",
		description: "Beach club, jacuzzi on the sun deck and a full water-toy garage.",
		images:      []string{"/static/img/yachts/azzurra-1.jpg"},
	},
	{
		slug: "sy-mistral", name: "S/Y Mistral", length: "28 m", price: "€9,800 per day",
		guests: 8, cabins: 4, crew: 5,
		summary:     "Classic sailing yacht for day charters from Cannes.",
		description: "Teak decks, lunch on board and sunset returns to the Croisette.",
		images:      []string{"/static/img/yachts/mistral-1.jpg"},
	},
}

var demoServices = []UpsertServiceParams{
	{Slug: "private-aviation", Title: "Private Aviation", Icon: "plane", Position: 1,
		Summary: "Jet and helicopter transfers arranged door to door.",
		Body:    "From Nice heliport transfers to transatlantic charters, our aviation desk handles every leg."},
	{Slug: "yacht-charter", Title: "Yacht Charter", Icon: "anchor", Position: 2,
		Summary: "Day and week charters with vetted crews.",
		Body:    "We match your itinerary to a yacht and crew, and handle provisioning and berths."},
	{Slug: "private-chef", Title: "Private Chef", Icon: "chef", Position: 3,
		Summary: "Michelin-trained chefs in residence.",
		Body:    "Menus built around local markets, dietary needs and the occasion."},
	{Slug: "events", Title: "Events & Celebrations", Icon: "sparkles", Position: 4,
		Summary: "Weddings, anniversaries and corporate retreats.",
		Body:    "Venue scouting, design and production by our events team."},
}

type demoPost struct {
	slug, title, excerpt, body, author, cover string
	tags                                      []string
	age                                       time.Duration
}

var demoPosts = []demoPost{
	{
		slug: "summer-on-the-riviera", title: "A Summer on the Riviera", author: "Claire Dumas",
		excerpt: "Where to moor, dine and unwind between Monaco and Saint-Tropez.",
		body:    "## Morning\n\nStart with a swim at **Paloma Beach**.\n\n## Evening\n\nBook the terrace table before sunset.",
		cover:   "/static/img/blog/riviera.jpg", tags: []string{"riviera", "guides"}, age: 72 * time.Hour,
	},
	{
		slug: "courchevel-season-guide", title: "The Courchevel Season Guide", author: "Marc Vidal",
		excerpt: "Opening dates, ski schools and the tables worth booking now.",
		body:    "The season opens in early December. Private instructors book out by **October**.",
		cover:   "/static/img/blog/courchevel.jpg", tags: []string{"alps", "guides"}, age: 240 * time.Hour,
	},
	{
		slug: "planning-a-villa-wedding", title: "Planning a Villa Wedding", author: "Claire Dumas",
		excerpt: "Permits, timings and the guest-count questions to ask first.",
		body:    "A villa wedding starts with the guest list: it decides the venue, not the other way round.",
		cover:   "/static/img/blog/wedding.jpg", tags: []string{"events"}, age: 480 * time.Hour,
	},
}

// SeedCatalog fills an empty catalog with demo villas, yachts, services and posts.
// It does nothing when at least one villa already exists.
func SeedCatalog(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	count, err := queries.CountVillas(ctx)
	if err != nil {
		return fmt.Errorf("counting villas: %w", err)
	}
	if count > 0 {
		slog.Debug("catalog already populated, skipping seed", "villas", count)
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	q := queries.WithTx(tx)

	now := time.Now().UTC()
	for _, v := range demoVillas {
		if err := q.UpsertVilla(ctx, UpsertVillaParams{
			Slug: v.slug, Name: v.name, Location: v.location, Region: v.region,
			Summary: v.summary, Description: v.description, PriceText: v.price,
			Bedrooms: v.bedrooms, Bathrooms: v.bathrooms, Guests: v.guests,
			Images: mustJSON(v.images), Amenities: mustJSON(v.amenities),
			Private: v.private, Featured: v.featured, UpdatedAt: now,
		}); err != nil {
			return fmt.Errorf("seeding villa %s: %w", v.slug, err)
		}
	}

	for _, y := range demoYachts {
		if err := q.UpsertYacht(ctx, UpsertYachtParams{
			Slug: y.slug, Name: y.name, Length: y.length, Guests: y.guests, Cabins: y.cabins,
			Crew: y.crew, PriceText: y.price, Summary: y.summary, Description: y.description,
			Images: mustJSON(y.images), UpdatedAt: now,
		}); err != nil {
			return fmt.Errorf("seeding yacht %s: %w", y.slug, err)
		}
	}

	for _, s := range demoServices {
		if err := q.UpsertService(ctx, s); err != nil {
			return fmt.Errorf("seeding service %s: %w", s.Slug, err)
		}
	}

	for _, p := range demoPosts {
		if err := q.UpsertPost(ctx, UpsertPostParams{
			Slug: p.slug, Title: p.title, Excerpt: p.excerpt, Body: p.body, Author: p.author,
			CoverImage: p.cover, Tags: mustJSON(p.tags), PublishedAt: now.Add(-p.age),
		}); err != nil {
			return fmt.Errorf("seeding post %s: %w", p.slug, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed: %w", err)
	}

	slog.Info("demo catalog seeded",
		"villas", len(demoVillas), "yachts", len(demoYachts),
		"services", len(demoServices), "posts", len(demoPosts))
	return nil
}

func mustJSON(v []string) string {
	if v == nil {
		return "[]"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}
