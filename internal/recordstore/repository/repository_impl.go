package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/futautah-hue/balo-website/internal/recordstore/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecordSet persists one user collection as a single JSON document so the
// read-modify-write in the engines maps to one row.
type RecordSet struct {
	UserID    string         `gorm:"primaryKey;size:64"`
	Name      string         `gorm:"primaryKey;size:64"`
	Records   datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}

// TableName sets the database table name.
func (RecordSet) TableName() string { return "user_record_sets" }

type store struct {
	db *gorm.DB
}

// Provide returns the gorm-backed record store.
func Provide(db *gorm.DB) domain.Store {
	return &store{db: db}
}

// Migrate creates the backing table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&RecordSet{})
}

func (s *store) Get(ctx context.Context, userID, set string) (domain.Collection, error) {
	userID = strings.TrimSpace(userID)
	set = strings.TrimSpace(set)
	if userID == "" || set == "" {
		return nil, nil
	}

	var row RecordSet
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND name = ?", userID, set).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if len(row.Records) == 0 {
		return nil, nil
	}

	var collection domain.Collection
	if err := json.Unmarshal(row.Records, &collection); err != nil {
		return nil, err
	}
	return collection, nil
}

func (s *store) Put(ctx context.Context, userID, set string, collection domain.Collection) error {
	userID = strings.TrimSpace(userID)
	set = strings.TrimSpace(set)
	if userID == "" || set == "" {
		return errors.New("record set identity is empty")
	}

	encoded, err := json.Marshal(collection)
	if err != nil {
		return err
	}

	row := RecordSet{
		UserID:    userID,
		Name:      set,
		Records:   datatypes.JSON(encoded),
		UpdatedAt: time.Now().UTC(),
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
			UpdateAll: true,
		}).
		Create(&row).Error
}
