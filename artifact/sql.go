package artifact

import (
	"context"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/ezoic/carprice/pkg/errors"
)

// Record is one stored artifact row.
type Record struct {
	Name      string `gorm:"primaryKey;size:255"`
	Data      []byte `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName pins the table name used by gorm.
func (Record) TableName() string { return "artifacts" }

// SQLStore keeps artifacts as rows of a SQLite database.
type SQLStore struct {
	db *gorm.DB
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore opens (creating if needed) the SQLite database at path.
func NewSQLStore(path string) (*SQLStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite database %s", path)
	}
	return NewSQLStoreFromDB(db)
}

// NewSQLStoreFromDB wraps an open gorm connection and migrates the schema.
func NewSQLStoreFromDB(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate artifact table")
	}
	return &SQLStore{db: db}, nil
}

// Put inserts or replaces the row for name in a single statement.
func (s *SQLStore) Put(ctx context.Context, name string, data []byte) error {
	cleaned, err := cleanName(name)
	if err != nil {
		return err
	}
	record := Record{Name: cleaned, Data: data, UpdatedAt: time.Now().UTC()}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&record)
	if result.Error != nil {
		return errors.Wrapf(result.Error, "failed to store %s", name)
	}
	return nil
}

// Get loads the row for name.
func (s *SQLStore) Get(ctx context.Context, name string) ([]byte, error) {
	cleaned, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	var record Record
	result := s.db.WithContext(ctx).Where("name = ?", cleaned).Take(&record)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, notFound(name)
	}
	if result.Error != nil {
		return nil, errors.Wrapf(result.Error, "failed to load %s", name)
	}
	return record.Data, nil
}

// Delete removes the row for name.
func (s *SQLStore) Delete(ctx context.Context, name string) error {
	cleaned, err := cleanName(name)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Where("name = ?", cleaned).Delete(&Record{}).Error; err != nil {
		return errors.Wrapf(err, "failed to delete %s", name)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get sqlite handle")
	}
	return sqlDB.Close()
}
