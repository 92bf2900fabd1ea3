// Package store persists analyzed candidates so repeat lookups skip the
// generation and verification pipeline.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/juju/clock"

	"github.com/ppiankov/candidstance/internal/model"
)

// StalenessWindow is how long a cached analysis is served before it is regenerated
const StalenessWindow = 30 * 24 * time.Hour

// ErrNotFound is returned by Find when no record matches
var ErrNotFound = errors.New("candidate not found")

// Store is the candidate cache.
//
// Find and Upsert normalize the name with model.NormalizeName, so
// "Kamala Harris" and "kamala-harris" address the same record. Upsert is a
// single atomic increment-and-upsert: concurrent calls for one candidate never
// lose a searchCount increment, and the last writer's stances win.
type Store interface {
	Find(ctx context.Context, name string) (*model.CandidateRecord, error)
	Upsert(ctx context.Context, name string, stances []model.PoliticalStance) (*model.CandidateRecord, error)
	Close() error
}

// IsStale reports whether lastUpdated is strictly more than StalenessWindow before now.
// A record exactly 30 days old is still fresh.
func IsStale(now, lastUpdated time.Time) bool {
	return now.Sub(lastUpdated) > StalenessWindow
}

// Open creates the store selected by cfg.Driver
func Open(ctx context.Context, cfg model.StoreConfig, clk clock.Clock) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		return NewMemoryStore(clk), nil
	case "sqlite":
		return NewSQLiteStore(cfg.Path, clk)
	case "mongo", "mongodb":
		return NewMongoStore(ctx, cfg, clk)
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Driver)
	}
}

// normalizedKey validates and normalizes a candidate name
func normalizedKey(name string) (string, error) {
	key := model.NormalizeName(name)
	if key == "" {
		return "", fmt.Errorf("candidate name %q has no letters", name)
	}
	return key, nil
}

// cloneStances copies stances so callers cannot mutate stored records
func cloneStances(stances []model.PoliticalStance) []model.PoliticalStance {
	out := make([]model.PoliticalStance, len(stances))
	for i, s := range stances {
		out[i] = s
		out[i].Sources = append([]model.Source{}, s.Sources...)
	}
	return out
}
