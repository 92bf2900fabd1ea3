package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ppiankov/candidstance/internal/model"
)

var epoch = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

type storeFactory func(t *testing.T, clk *testclock.Clock) Store

func backends(t *testing.T) map[string]storeFactory {
	factories := map[string]storeFactory{
		"memory": func(t *testing.T, clk *testclock.Clock) Store {
			return NewMemoryStore(clk)
		},
		"sqlite": func(t *testing.T, clk *testclock.Clock) Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "candidates.db"), clk)
			require.NoError(t, err)
			return s
		},
	}

	if uri := os.Getenv("CANDIDSTANCE_TEST_MONGO_URI"); uri != "" {
		factories["mongo"] = func(t *testing.T, clk *testclock.Clock) Store {
			cfg := model.StoreConfig{URI: uri, Database: "candidstance_test", Collection: "candidates_" + randomSuffix()}
			s, err := NewMongoStore(context.Background(), cfg, clk)
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.collection.Drop(context.Background()) })
			return s
		}
	}

	return factories
}

func randomSuffix() string {
	return time.Now().Format("150405.000000000")
}

func sampleStances(text string) []model.PoliticalStance {
	return []model.PoliticalStance{
		{
			Issue:   "Economy & Taxes",
			Stance:  text,
			Sources: []model.Source{{URL: "https://reuters.com/a", Title: "A", Origin: "reuters.com"}},
		},
		model.NoInformationStance("Education"),
	}
}

func TestStore_Backends(t *testing.T) {
	for name, factory := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("find missing", func(t *testing.T) {
				s := factory(t, testclock.NewClock(epoch))
				defer s.Close()

				_, err := s.Find(context.Background(), "Nobody Here")
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("insert then find by equivalent name", func(t *testing.T) {
				s := factory(t, testclock.NewClock(epoch))
				defer s.Close()
				ctx := context.Background()

				rec, err := s.Upsert(ctx, "Kamala Harris", sampleStances("Raise corporate taxes."))
				require.NoError(t, err)
				assert.Equal(t, int64(1), rec.SearchCount)
				assert.Equal(t, "kamalaharris", rec.NormalizedName)

				for _, variant := range []string{"Kamala Harris", "kamala-harris", "KAMALA  HARRIS"} {
					found, err := s.Find(ctx, variant)
					require.NoError(t, err, variant)
					assert.Equal(t, "Kamala Harris", found.Name)
					assert.Equal(t, sampleStances("Raise corporate taxes."), found.Stances)
					assert.True(t, found.LastUpdated.Equal(epoch), "lastUpdated %v", found.LastUpdated)
				}
			})

			t.Run("double upsert increments by two", func(t *testing.T) {
				clk := testclock.NewClock(epoch)
				s := factory(t, clk)
				defer s.Close()
				ctx := context.Background()

				stances := sampleStances("Raise corporate taxes.")
				_, err := s.Upsert(ctx, "Jane Doe", stances)
				require.NoError(t, err)
				clk.Advance(time.Hour)
				rec, err := s.Upsert(ctx, "jane doe", stances)
				require.NoError(t, err)

				assert.Equal(t, int64(2), rec.SearchCount)
				assert.Equal(t, stances, rec.Stances)
				assert.True(t, rec.LastUpdated.Equal(epoch.Add(time.Hour)))
				assert.True(t, rec.LastSearched.Equal(epoch.Add(time.Hour)))
			})

			t.Run("upsert replaces stances", func(t *testing.T) {
				s := factory(t, testclock.NewClock(epoch))
				defer s.Close()
				ctx := context.Background()

				_, err := s.Upsert(ctx, "Jane Doe", sampleStances("old"))
				require.NoError(t, err)
				_, err = s.Upsert(ctx, "Jane Doe", sampleStances("new"))
				require.NoError(t, err)

				found, err := s.Find(ctx, "Jane Doe")
				require.NoError(t, err)
				assert.Equal(t, "new", found.Stances[0].Stance)
				assert.Len(t, found.Stances, 2)
			})

			t.Run("concurrent upserts", func(t *testing.T) {
				s := factory(t, testclock.NewClock(epoch))
				defer s.Close()
				ctx := context.Background()

				_, err := s.Upsert(ctx, "Jane Doe", sampleStances("seed"))
				require.NoError(t, err)

				var wg sync.WaitGroup
				for _, text := range []string{"writer one", "writer two"} {
					wg.Add(1)
					go func(text string) {
						defer wg.Done()
						_, err := s.Upsert(ctx, "Jane Doe", sampleStances(text))
						assert.NoError(t, err)
					}(text)
				}
				wg.Wait()

				found, err := s.Find(ctx, "Jane Doe")
				require.NoError(t, err)
				assert.Equal(t, int64(3), found.SearchCount)
				assert.Contains(t, []string{"writer one", "writer two"}, found.Stances[0].Stance)
			})

			t.Run("nameless input rejected", func(t *testing.T) {
				s := factory(t, testclock.NewClock(epoch))
				defer s.Close()

				_, err := s.Upsert(context.Background(), "12345", nil)
				assert.Error(t, err)
			})
		})
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore(testclock.NewClock(epoch))
	ctx := context.Background()

	stances := sampleStances("original")
	_, err := s.Upsert(ctx, "Jane Doe", stances)
	require.NoError(t, err)

	stances[0].Stance = "mutated by caller"
	found, err := s.Find(ctx, "Jane Doe")
	require.NoError(t, err)
	found.Stances[0].Sources[0].URL = "mutated too"

	again, err := s.Find(ctx, "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Stances[0].Stance)
	assert.Equal(t, "https://reuters.com/a", again.Stances[0].Sources[0].URL)
}

func TestIsStale(t *testing.T) {
	tests := []struct {
		desc     string
		age      time.Duration
		expected bool
	}{
		{"fresh", time.Hour, false},
		{"29 days", 29 * 24 * time.Hour, false},
		{"exactly 30 days", 30 * 24 * time.Hour, false},
		{"30 days and a second", 30*24*time.Hour + time.Second, true},
		{"31 days", 31 * 24 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsStale(epoch, epoch.Add(-tt.age)))
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, model.StoreConfig{Driver: "memory"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, model.StoreConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "x.db")}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	assert.NoError(t, s.Close())

	_, err = Open(ctx, model.StoreConfig{Driver: "mongo"}, nil)
	assert.Error(t, err)

	_, err = Open(ctx, model.StoreConfig{Driver: "cassandra"}, nil)
	assert.Error(t, err)
}

func TestDatabaseFromURI(t *testing.T) {
	assert.Equal(t, "politics", databaseFromURI("mongodb://localhost:27017/politics?retryWrites=true"))
	assert.Equal(t, "candidstance", databaseFromURI("mongodb://localhost:27017"))
}

func TestMongoUpsertUpdate(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	update := upsertUpdate("kamalaharris", "Kamala Harris", sampleStances("Raise corporate taxes."), now)

	assert.Equal(t, bson.M{"normalizedName": "kamalaharris"}, update["$setOnInsert"])
	assert.Equal(t, bson.M{"searchCount": 1}, update["$inc"])

	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, "Kamala Harris", set["name"])
	assert.Equal(t, now, set["lastUpdated"])
	assert.Equal(t, now, set["lastSearched"])
	assert.NotContains(t, set, "normalizedName")
}
