package storage

import "fmt"

// Store bundles the three logical databases and their repositories behind
// one handle, the shape every CLI command opens at startup.
type Store struct {
	Fundamentals *FundamentalsRepository
	Quality      *QualityRepository
	Price        *PriceRepository

	fundamentalsDB *DB
	qualityDB      *DB
	priceDB        *DB
}

// Paths names the three SQLite files a Store opens.
type Paths struct {
	Fundamentals string
	Quality      string
	Price        string
}

// Open opens all three databases, migrating each to its current schema.
func Open(paths Paths) (*Store, error) {
	fundamentalsDB, err := OpenDB(Config{Path: paths.Fundamentals, Profile: ProfileStandard, Name: "fundamentals"})
	if err != nil {
		return nil, fmt.Errorf("open fundamentals database: %w", err)
	}
	qualityDB, err := OpenDB(Config{Path: paths.Quality, Profile: ProfileStandard, Name: "quality"})
	if err != nil {
		_ = fundamentalsDB.Close()
		return nil, fmt.Errorf("open quality database: %w", err)
	}
	priceDB, err := OpenDB(Config{Path: paths.Price, Profile: ProfileFast, Name: "price"})
	if err != nil {
		_ = fundamentalsDB.Close()
		_ = qualityDB.Close()
		return nil, fmt.Errorf("open price database: %w", err)
	}

	return &Store{
		Fundamentals:   NewFundamentalsRepository(fundamentalsDB),
		Quality:        NewQualityRepository(qualityDB),
		Price:          NewPriceRepository(priceDB),
		fundamentalsDB: fundamentalsDB,
		qualityDB:      qualityDB,
		priceDB:        priceDB,
	}, nil
}

// Close closes all three databases, returning the first error encountered.
func (s *Store) Close() error {
	var firstErr error
	for _, db := range []*DB{s.fundamentalsDB, s.qualityDB, s.priceDB} {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
