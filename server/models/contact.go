package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Sentinel errors for unique-constraint violations surfaced by the store.
// The email variant is reported when the offending column is identifiable.
var (
	ErrDuplicateEmail  = errors.New("a contact with this email address already exists")
	ErrDuplicateRecord = errors.New("a record with these values already exists")
)

var (
	updatableFields = []string{
		"first_name",
		"last_name",
		"email",
		"country_code",
		"mobile_number",
		"event_notification_type",
		"event_notification_groups",
		"event_types",
		"status",
	}

	orderableFields = map[string]bool{
		"first_name": true,
		"last_name":  true,
		"email":      true,
		"status":     true,
		"created_at": true,
		"updated_at": true,
	}
)

// EventTypeList is stored as a JSON array in a text column.
type EventTypeList []string

func (l EventTypeList) Value() (driver.Value, error) {
	if l == nil {
		l = EventTypeList{}
	}

	data, err := json.Marshal(l)
	return string(data), err
}

func (l *EventTypeList) Scan(value interface{}) error {
	switch data := value.(type) {
	case nil:
		*l = EventTypeList{}
		return nil
	case []byte:
		return json.Unmarshal(data, l)
	case string:
		return json.Unmarshal([]byte(data), l)
	}

	return fmt.Errorf("unsupported type %T for event types", value)
}

type Contact struct {
	BaseModel
	FirstName               string        `json:"first_name" gorm:"size:50;not null"`
	LastName                string        `json:"last_name" gorm:"size:50;not null"`
	Email                   string        `json:"email" gorm:"not null;unique"`
	CountryCode             string        `json:"country_code" gorm:"size:5"`
	MobileNumber            string        `json:"mobile_number" gorm:"size:20"`
	EventNotificationType   string        `json:"event_notification_type" gorm:"size:20;default:ALL_USERS"`
	EventNotificationGroups string        `json:"event_notification_groups"`
	EventTypes              EventTypeList `json:"event_types" gorm:"type:text;not null"`
	Status                  string        `json:"status" gorm:"size:10;default:ACTIVE"`
}

// ContactQuery carries the request-supplied list parameters. Zero values
// mean "not set" and leave the corresponding layer inactive.
type ContactQuery struct {
	Status                string
	EventNotificationType string
	Search                string
	Ordering              string
	Page                  int
	PageSize              int
}

func CreateContact(contact *Contact) error {
	return translateUniqueError(db.Create(contact).Error)
}

func FindContact(id interface{}) (*Contact, error) {
	contact := Contact{}

	err := db.First(&contact, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return &contact, nil
}

// UpdateContact applies the supplied field values to the record & reloads it,
// so the caller sees the stored state including the refreshed updated_at.
func UpdateContact(contact *Contact, data map[string]interface{}) error {
	if eventTypes, ok := data["event_types"].([]string); ok {
		data["event_types"] = EventTypeList(eventTypes)
	}

	err := translateUniqueError(db.Model(contact).Select(updatableFields).Updates(data).Error)
	if err != nil {
		return err
	}

	return db.First(contact, contact.ID).Error
}

func DeleteContact(id interface{}) error {
	result := db.Delete(&Contact{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// ListContacts layers filter -> search -> order -> paginate over the
// contacts table and returns the matching page with pagination metadata.
func ListContacts(query ContactQuery) ([]Contact, *Paging, error) {
	var total int64
	contacts := []Contact{}

	page, pageSize := NormalizePageParams(query.Page, query.PageSize)

	err := db.Model(&Contact{}).Scopes(filterBy(query), searchBy(query.Search)).Count(&total).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	err = db.Scopes(filterBy(query), searchBy(query.Search), orderBy(query.Ordering), paginate(page, pageSize)).
		Find(&contacts).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	return contacts, newPaging(int64(page), int64(pageSize), total), nil
}

// ---------------------------------------------------------------------------------//
// Scopes
// --------------------------------------------------------------------------------//

func filterBy(query ContactQuery) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		// Filter params are matched case-insensitively against the enums
		if query.Status != "" {
			db = db.Where("status = ?", strings.ToUpper(query.Status))
		}

		if query.EventNotificationType != "" {
			db = db.Where("event_notification_type = ?", strings.ToUpper(query.EventNotificationType))
		}

		return db
	}
}

func searchBy(term string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(term)
		if term == "" {
			return db
		}

		pattern := "%" + strings.ToLower(term) + "%"
		return db.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(mobile_number) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
}

func orderBy(ordering string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		field := strings.TrimSpace(ordering)
		direction := "asc"

		if strings.HasPrefix(field, "-") {
			field = strings.TrimPrefix(field, "-")
			direction = "desc"
		}

		// Unknown ordering fields fall back to the default order
		if !orderableFields[field] {
			return db.Order("created_at desc")
		}

		return db.Order(fmt.Sprintf("%v %v", field, direction))
	}
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func translateUniqueError(err error) error {
	if err == nil {
		return nil
	}

	message := strings.ToLower(err.Error())
	if !strings.Contains(message, "unique") {
		return err
	}

	if strings.Contains(message, "email") {
		return ErrDuplicateEmail
	}

	return ErrDuplicateRecord
}
