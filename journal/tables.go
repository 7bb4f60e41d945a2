package journal

import (
	"github.com/alwitt/securepass/models"
	"gorm.io/gorm"
)

// ActivityEventDBEntry activity event DB entry
type ActivityEventDBEntry struct {
	models.ActivityEvent
}

// TableName hard code table name
func (ActivityEventDBEntry) TableName() string {
	return "activity_events"
}

// DefineTables prepare a database with the journal tables
func DefineTables(db *gorm.DB) error {
	return db.AutoMigrate(ActivityEventDBEntry{})
}
