// Package journal - local activity journal
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alwitt/goutils"
	"github.com/alwitt/securepass/models"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

/*
GetSqliteDialector define Sqlite GORM dialector

	@param dbFile string - Sqlite DB file
	@return GORM sqlite dialector
*/
func GetSqliteDialector(dbFile string) gorm.Dialector {
	return sqlite.Open(fmt.Sprintf("%s?_foreign_keys=on", dbFile))
}

// EventQueryFilter activity event query filter conditions
type EventQueryFilter struct {
	Limit  *int
	Offset *int
	// EventTypes the specific event types to query for
	EventTypes []models.ActivityEventTypeENUMType
	// EventsAfter filter for events after this timestamp
	EventsAfter *time.Time
	// EventsBefore filter for events before this timestamp
	EventsBefore *time.Time
}

/*
Journal records account and vault level events for later inspection.

Recording is best effort from the caller's point of view: the stores log and
ignore journal failures so a journaling problem never fails the journaled
operation.
*/
type Journal interface {
	/*
		RecordEvent record a new activity event

			@param ctx context.Context - execution context
			@param eventType models.ActivityEventTypeENUMType - activity event type
			@param metadata interface{} - optional typed metadata payload
	*/
	RecordEvent(
		ctx context.Context, eventType models.ActivityEventTypeENUMType, metadata interface{},
	) error

	/*
		ListEvents list captured activity events

			@param ctx context.Context - execution context
			@param filters EventQueryFilter - entry listing filter
			@return list of activity events
	*/
	ListEvents(ctx context.Context, filters EventQueryFilter) ([]models.ActivityEvent, error)
}

// journalImpl implements Journal
type journalImpl struct {
	goutils.Component

	db        *gorm.DB
	validator *validator.Validate
}

/*
NewJournal define new activity journal backed by a SQL database

	@param dbDialector gorm.Dialector - GORM dialector
	@param dbLogLevel logger.LogLevel - SQL log level
	@returns journal instance
*/
func NewJournal(dbDialector gorm.Dialector, dbLogLevel logger.LogLevel) (Journal, error) {
	logTags := log.Fields{"module": "journal", "component": "activity-journal"}

	db, err := gorm.Open(dbDialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(dbLogLevel),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect with DB [%w]", err)
	}

	if err := DefineTables(db); err != nil {
		return nil, fmt.Errorf("failed to prepare journal tables [%w]", err)
	}

	instance := &journalImpl{
		Component: goutils.Component{LogTags: logTags},
		db:        db,
		validator: validator.New(),
	}

	if err := models.RegisterWithValidator(instance.validator); err != nil {
		return nil, fmt.Errorf("failed to install custom validation macros [%w]", err)
	}

	return instance, nil
}

/*
RecordEvent record a new activity event

	@param ctx context.Context - execution context
	@param eventType models.ActivityEventTypeENUMType - activity event type
	@param metadata interface{} - optional typed metadata payload
*/
func (j *journalImpl) RecordEvent(
	_ context.Context, eventType models.ActivityEventTypeENUMType, metadata interface{},
) error {
	newEntry := ActivityEventDBEntry{
		ActivityEvent: models.ActivityEvent{ID: ulid.Make().String(), EventType: eventType},
	}

	if metadata != nil {
		if err := j.validator.Struct(metadata); err != nil {
			return fmt.Errorf(
				"new activity event '%s' metadata entry is not valid [%w]", eventType, err,
			)
		}

		metadataStr, _ := json.Marshal(&metadata)
		newEntry.Metadata = datatypes.JSON(metadataStr)
	}

	if err := j.validator.Struct(&newEntry); err != nil {
		return fmt.Errorf("new activity event '%s' entry is not valid [%w]", eventType, err)
	}

	if tmp := j.db.Create(&newEntry); tmp.Error != nil {
		return fmt.Errorf("new activity event '%s' insert failed [%w]", eventType, tmp.Error)
	}

	return nil
}

/*
ListEvents list captured activity events

	@param ctx context.Context - execution context
	@param filters EventQueryFilter - entry listing filter
	@return list of activity events
*/
func (j *journalImpl) ListEvents(
	_ context.Context, filters EventQueryFilter,
) ([]models.ActivityEvent, error) {
	query := j.db.Model(&ActivityEventDBEntry{})

	if len(filters.EventTypes) > 0 {
		query = query.Where("type in ?", filters.EventTypes)
	}

	if filters.EventsAfter != nil {
		query = query.Where("created_at >= ?", *filters.EventsAfter)
	}
	if filters.EventsBefore != nil {
		query = query.Where("created_at <= ?", *filters.EventsBefore)
	}

	if filters.Limit != nil {
		query = query.Limit(*filters.Limit)
	}
	if filters.Offset != nil {
		query = query.Offset(*filters.Offset)
	}

	query = query.Order("created_at")

	var entries []ActivityEventDBEntry
	if tmp := query.Find(&entries); tmp.Error != nil {
		return nil, fmt.Errorf("failed to list captured activity events [%w]", tmp.Error)
	}

	result := []models.ActivityEvent{}
	for _, entry := range entries {
		result = append(result, entry.ActivityEvent)
	}

	return result, nil
}
