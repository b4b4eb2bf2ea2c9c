package model

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sor_go/internal/domain"
)

// The bundle artifact is a single SQLite file. One file keeps the handoff
// to the router as a single opaque artifact while staying inspectable with
// ordinary tooling; model parameters are JSON inside their row.

type bundleInfoRow struct {
	ID         uint   `gorm:"primaryKey"`
	RunID      string `gorm:"column:run_id"`
	CreatedAt  time.Time
	SchemaJSON string `gorm:"column:schema_json"`
}

func (bundleInfoRow) TableName() string { return "bundle_info" }

type exchangeModelRow struct {
	Exchange        string `gorm:"primaryKey"`
	Status          string
	Kind            string
	ParamsJSON      string `gorm:"column:params_json"`
	SampleCount     int
	MeanImprovement float64
	RMSE            float64 `gorm:"column:rmse"`
	R2              float64 `gorm:"column:r2"`
	TrainStart      time.Time
	TrainEnd        time.Time
}

func (exchangeModelRow) TableName() string { return "exchange_models" }

func openBundleDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("opening bundle database: %w", err)
	}
	return db, nil
}

func closeBundleDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

// SaveBundle writes the bundle to path, replacing any previous artifact.
func SaveBundle(path string, b *Bundle) error {
	if b == nil {
		return &domain.ConfigError{Field: "bundle", Err: domain.ErrEmptyBundle}
	}

	// Rebuild from scratch so a retrain never merges with stale rows.
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing previous bundle: %w", err)
	}

	db, err := openBundleDB(path)
	if err != nil {
		return err
	}
	defer closeBundleDB(db)

	if err := db.AutoMigrate(&bundleInfoRow{}, &exchangeModelRow{}); err != nil {
		return fmt.Errorf("migrating bundle schema: %w", err)
	}

	schemaJSON, err := json.Marshal(b.Schema)
	if err != nil {
		return err
	}
	info := bundleInfoRow{
		RunID:      b.RunID,
		CreatedAt:  b.CreatedAt,
		SchemaJSON: string(schemaJSON),
	}
	if err := db.Create(&info).Error; err != nil {
		return fmt.Errorf("writing bundle info: %w", err)
	}

	for _, id := range sortedExchangeIDs(b) {
		em := b.Exchanges[id]
		row := exchangeModelRow{
			Exchange:        em.Exchange,
			Status:          string(em.Status),
			SampleCount:     em.SampleCount,
			MeanImprovement: em.MeanImprovement,
			RMSE:            em.RMSE,
			R2:              em.R2,
			TrainStart:      em.TrainStart,
			TrainEnd:        em.TrainEnd,
		}
		if em.Model != nil {
			params, err := json.Marshal(em.Model)
			if err != nil {
				return fmt.Errorf("encoding model for %s: %w", em.Exchange, err)
			}
			row.Kind = em.Model.Kind()
			row.ParamsJSON = string(params)
		}
		if err := db.Create(&row).Error; err != nil {
			return fmt.Errorf("writing model for %s: %w", em.Exchange, err)
		}
	}

	return nil
}

// LoadBundle reads a bundle artifact back, reconstructing every model.
// A missing file is a configuration error, not an empty bundle.
func LoadBundle(path string) (*Bundle, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &domain.ConfigError{Field: "bundle", Err: err}
	}

	db, err := openBundleDB(path)
	if err != nil {
		return nil, &domain.ConfigError{Field: "bundle", Err: err}
	}
	defer closeBundleDB(db)

	var info bundleInfoRow
	if err := db.First(&info).Error; err != nil {
		return nil, &domain.ConfigError{Field: "bundle", Err: fmt.Errorf("reading bundle info: %w", err)}
	}

	b := &Bundle{
		RunID:     info.RunID,
		CreatedAt: info.CreatedAt,
		Exchanges: make(map[string]*ExchangeModel),
	}
	if err := json.Unmarshal([]byte(info.SchemaJSON), &b.Schema); err != nil {
		return nil, &domain.ConfigError{Field: "bundle", Err: fmt.Errorf("decoding schema: %w", err)}
	}

	var rows []exchangeModelRow
	if err := db.Find(&rows).Error; err != nil {
		return nil, &domain.ConfigError{Field: "bundle", Err: fmt.Errorf("reading models: %w", err)}
	}

	for _, row := range rows {
		em := &ExchangeModel{
			Exchange:        row.Exchange,
			Status:          ExchangeStatus(row.Status),
			SampleCount:     row.SampleCount,
			MeanImprovement: row.MeanImprovement,
			RMSE:            row.RMSE,
			R2:              row.R2,
			TrainStart:      row.TrainStart,
			TrainEnd:        row.TrainEnd,
		}
		if row.Kind != "" {
			m, err := decodeModel(row.Kind, []byte(row.ParamsJSON))
			if err != nil {
				return nil, &domain.ConfigError{Field: "bundle", Err: err}
			}
			em.Model = m
		}
		b.Exchanges[em.Exchange] = em
	}

	return b, nil
}

func sortedExchangeIDs(b *Bundle) []string {
	ids := make([]string, 0, len(b.Exchanges))
	for id := range b.Exchanges {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
