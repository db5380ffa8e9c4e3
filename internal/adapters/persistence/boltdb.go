// Package persistence stores tier-set snapshots in BoltDB so the registry
// survives restarts. Only the current state is kept; executed swaps replace
// the stored record rather than appending history.
package persistence

import (
	"fmt"
	"os"
	"path/filepath"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/tier-engine/internal/domain"
)

const (
	TierSetsBucket = "tier_sets"

	DefaultDBPath = "./data/tier-engine.db"
)

type StoredTier struct {
	ID       string  `json:"id"`
	ReserveA float64 `json:"reserveA"`
	ReserveB float64 `json:"reserveB"`
	FeeRate  float64 `json:"feeRate"`
}

type StoredTierSet struct {
	ID    string       `json:"id"`
	Tiers []StoredTier `json:"tiers"`
}

type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	os.MkdirAll(filepath.Dir(dbPath), 0755)

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[tierStorage] opened database")

	return &Storage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) SaveTierSet(set domain.TierSet) error {
	data, err := sonic.Marshal(setToStored(set))
	if err != nil {
		return fmt.Errorf("failed to marshal tier set %s: %w", set.ID, err)
	}
	return s.db.Set(TierSetsBucket, []byte(set.ID), data)
}

func (s *Storage) SaveTierSetBatch(sets []domain.TierSet) error {
	if len(sets) == 0 {
		return nil
	}

	batch := s.db.NewBatch()
	for _, set := range sets {
		data, err := sonic.Marshal(setToStored(set))
		if err != nil {
			return fmt.Errorf("failed to marshal tier set %s: %w", set.ID, err)
		}

		value := data
		op := &boltdb.WriteOperation{
			Bucket: []byte(TierSetsBucket),
			Key:    []byte(set.ID),
			Value:  &value,
			Op:     boltdb.OpSet,
		}
		if err := batch.Add(op); err != nil {
			return fmt.Errorf("failed to add tier set %s to batch: %w", set.ID, err)
		}
	}

	if err := batch.Execute(); err != nil {
		log.Error().Err(err).Int("count", len(sets)).Msg("[tierStorage] failed to execute batch")
		return err
	}

	log.Info().Int("count", len(sets)).Msg("[tierStorage] saved tier set batch")
	return nil
}

func (s *Storage) DeleteTierSet(id string) error {
	batch := s.db.NewBatch()
	op := &boltdb.WriteOperation{
		Bucket: []byte(TierSetsBucket),
		Key:    []byte(id),
		Op:     boltdb.OpDelete,
	}
	if err := batch.Add(op); err != nil {
		return fmt.Errorf("failed to stage delete for tier set %s: %w", id, err)
	}
	return batch.Execute()
}

func (s *Storage) LoadAllTierSets() ([]domain.TierSet, error) {
	data, err := s.db.List(TierSetsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list tier sets: %w", err)
	}

	sets := make([]domain.TierSet, 0, len(data))
	failed := 0
	for id, value := range data {
		var stored StoredTierSet
		if err := sonic.Unmarshal(value, &stored); err != nil {
			log.Error().Str("id", id).Err(err).Msg("[tierStorage] failed to unmarshal tier set, skipping")
			failed++
			continue
		}

		set := storedToSet(&stored)
		if err := set.Validate(); err != nil {
			log.Error().Str("id", id).Err(err).Msg("[tierStorage] stored tier set invalid, skipping")
			failed++
			continue
		}
		sets = append(sets, set)
	}

	if failed > 0 {
		log.Error().
			Int("total_in_db", len(data)).
			Int("loaded", len(sets)).
			Int("failed", failed).
			Msg("[tierStorage] tier set loading completed with errors")
	} else {
		log.Info().
			Int("total_in_db", len(data)).
			Int("loaded", len(sets)).
			Msg("[tierStorage] tier set loading completed")
	}

	return sets, nil
}

func setToStored(set domain.TierSet) StoredTierSet {
	stored := StoredTierSet{ID: set.ID, Tiers: make([]StoredTier, len(set.Tiers))}
	for i, t := range set.Tiers {
		stored.Tiers[i] = StoredTier{
			ID:       t.ID,
			ReserveA: t.ReserveA,
			ReserveB: t.ReserveB,
			FeeRate:  t.FeeRate,
		}
	}
	return stored
}

func storedToSet(stored *StoredTierSet) domain.TierSet {
	set := domain.TierSet{ID: stored.ID, Tiers: make([]domain.Tier, len(stored.Tiers))}
	for i, t := range stored.Tiers {
		set.Tiers[i] = domain.Tier{
			ID:       t.ID,
			ReserveA: t.ReserveA,
			ReserveB: t.ReserveB,
			FeeRate:  t.FeeRate,
		}
	}
	return set
}
