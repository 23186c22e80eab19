package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rubenvp8510/ticket-load-generator/internal/seating"
)

type venuesDocument struct {
	Venues struct {
		Map map[string]Venue `yaml:"map"`
	} `yaml:"venues"`
}

type eventsDocument struct {
	Events Events `yaml:"events"`
}

// Layout converts the configured zone dimensions to a seat layout
func (v Venue) Layout() seating.VenueLayout {
	return seating.VenueLayout{
		ZoneCount: v.Zones.ZoneCount,
		RowCount:  v.Zones.RowCount,
		ColCount:  v.Zones.ColCount,
	}
}

// Find returns the event with the given id
func (e Events) Find(eventID string) (Event, bool) {
	for _, ev := range e.List {
		if ev.EventID == eventID {
			return ev, true
		}
	}
	return Event{}, false
}

// loadYAMLFile reads path and decodes it into out. Empty documents decode to the zero value.
func loadYAMLFile(path string, out any) error {
	if path == "" {
		return fmt.Errorf("%w: config path not provided", ErrConfiguration)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: config file not found: %s", ErrConfiguration, path)
		}
		return fmt.Errorf("%w: failed to read %s: %v", ErrConfiguration, path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: error parsing YAML %s: %v", ErrConfiguration, path, err)
	}
	return nil
}

// LoadVenues returns the venues.map section of a venues file
func LoadVenues(path string) (map[string]Venue, error) {
	var doc venuesDocument
	if err := loadYAMLFile(path, &doc); err != nil {
		return nil, err
	}
	if doc.Venues.Map == nil {
		return map[string]Venue{}, nil
	}
	return doc.Venues.Map, nil
}

// LoadEvents returns the events section of an events file
func LoadEvents(path string) (Events, error) {
	var doc eventsDocument
	if err := loadYAMLFile(path, &doc); err != nil {
		return Events{}, err
	}
	return doc.Events, nil
}

// LoadVenueLayout loads the layout of a single venue from path
func LoadVenueLayout(path, venueID string) (seating.VenueLayout, error) {
	venues, err := LoadVenues(path)
	if err != nil {
		return seating.VenueLayout{}, err
	}
	venue, ok := venues[venueID]
	if !ok {
		return seating.VenueLayout{}, fmt.Errorf("%w: venue %q not found in %s", ErrConfiguration, venueID, path)
	}
	return venue.Layout(), nil
}
