package database

import (
	"fmt"

	"gorm.io/gorm"
)

// RunRepository provides database operations for encoder runs
type RunRepository struct {
	db *gorm.DB
}

// NewRunRepository creates a new repository instance
func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run and sets its ID
func (r *RunRepository) Create(run *Run) error {
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}
	if !run.IsValid() {
		return fmt.Errorf("run is not valid: q=%d, n=%d, a=%d", run.FieldSize, run.CodewordLength, run.AugmentingLength)
	}
	return r.db.Create(run).Error
}

// Save updates an existing run
func (r *RunRepository) Save(run *Run) error {
	if run == nil || run.ID == 0 {
		return fmt.Errorf("run must be created before saving")
	}
	return r.db.Save(run).Error
}

// Get finds a run by ID
func (r *RunRepository) Get(id uint) (*Run, error) {
	var run Run
	err := r.db.First(&run, id).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// List returns the most recent runs
func (r *RunRepository) List(limit int) ([]Run, error) {
	var runs []Run
	err := r.db.Order("id DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

// FindByName returns runs with the given name, newest first
func (r *RunRepository) FindByName(name string) ([]Run, error) {
	var runs []Run
	err := r.db.Where("name = ?", name).Order("id DESC").Find(&runs).Error
	return runs, err
}

// Count returns the total number of runs
func (r *RunRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&Run{}).Count(&count).Error
	return count, err
}

// Delete removes a run and its snapshots
func (r *RunRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", id).Delete(&DistributionSnapshot{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Run{}, id).Error
	})
}

// AddSnapshots stores distribution snapshots for a run in one transaction
func (r *RunRepository) AddSnapshots(runID uint, snapshots []DistributionSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		for i := range snapshots {
			snapshots[i].RunID = runID
			if err := tx.Create(&snapshots[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("storing %d snapshots for run %d: %w", len(snapshots), runID, err)
	}
	return nil
}

// Snapshots returns a run's snapshots in the order they were taken
func (r *RunRepository) Snapshots(runID uint) ([]DistributionSnapshot, error) {
	var snapshots []DistributionSnapshot
	err := r.db.Where("run_id = ?", runID).Order("words ASC, id ASC").Find(&snapshots).Error
	return snapshots, err
}

// GetStatistics returns basic database statistics
func (r *RunRepository) GetStatistics() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	count, err := r.Count()
	if err != nil {
		return nil, err
	}
	stats["total_runs"] = count

	var totals struct {
		Words uint64
		Bytes uint64
	}
	err = r.db.Model(&Run{}).
		Select("COALESCE(SUM(words), 0) as words, COALESCE(SUM(bytes), 0) as bytes").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	stats["total_words"] = totals.Words
	stats["total_bytes"] = totals.Bytes

	var methodStats []struct {
		Method string `json:"method"`
		Count  int    `json:"count"`
	}
	err = r.db.Model(&Run{}).
		Select("method, COUNT(*) as count").
		Group("method").
		Order("count DESC").
		Find(&methodStats).Error
	if err != nil {
		return nil, err
	}
	stats["methods"] = methodStats

	return stats, nil
}
