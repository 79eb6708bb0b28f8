package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/beaconhq/beacon/server/models"
	"github.com/beaconhq/beacon/server/schema"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var contactSchema = schema.NewContactSchema()

func healthCheck(rw http.ResponseWriter, r *http.Request) {
	writeResponse(rw, map[string]string{"status": "ok"}, http.StatusOK)
}

func createContact(rw http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(rw, "Malformed JSON in request body.", http.StatusBadRequest)
		return
	}

	removeUnknownFields(data, contactSchema.Fields())

	normalized, fieldErrors := contactSchema.Validate(data, false)
	if fieldErrors.Any() {
		writeValidationError(rw, fieldErrors)
		return
	}

	contact := contactFromValues(normalized)
	if err := models.CreateContact(&contact); err != nil {
		writeStoreError(rw, err, "creating")
		return
	}

	writeResponse(rw, SuccessPayload{Message: "Contact created successfully.", Data: contact}, http.StatusCreated)
}

func findContact(rw http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	contact, err := models.FindContact(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(rw, fmt.Sprintf("Contact with id %v does not exist.", id), http.StatusNotFound)
		return
	}

	if err != nil {
		logg.Error(err)
		writeError(rw, "An error occurred while retrieving the contact.", http.StatusInternalServerError)
		return
	}

	writeResponse(rw, contact, http.StatusOK)
}

func updateContact(rw http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	partial := r.Method == http.MethodPatch

	contact, err := models.FindContact(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(rw, fmt.Sprintf("Contact with id %v does not exist.", id), http.StatusNotFound)
		return
	}

	if err != nil {
		logg.Error(err)
		writeError(rw, "An error occurred while updating the contact.", http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(rw, "Malformed JSON in request body.", http.StatusBadRequest)
		return
	}

	removeUnknownFields(data, contactSchema.Fields())

	// Updates only touch the supplied fields, so absent optional fields keep
	// their stored values. A full update must still name every required field.
	normalized, fieldErrors := contactSchema.Validate(data, true)
	if !partial {
		contactSchema.CheckRequired(data, fieldErrors)
	}

	// Only supplied fields are revalidated, but the GROUPS rule must still
	// hold for the record the merge would produce.
	notificationType := contact.EventNotificationType
	if value, ok := normalized["event_notification_type"].(string); ok {
		notificationType = value
	}

	groups := contact.EventNotificationGroups
	if value, ok := normalized["event_notification_groups"].(string); ok {
		groups = value
	}

	if message := schema.GroupsRuleViolation(notificationType, groups); message != "" {
		fieldErrors.Add("event_notification_groups", message)
	}

	if fieldErrors.Any() {
		writeValidationError(rw, fieldErrors)
		return
	}

	if len(normalized) > 0 {
		if err := models.UpdateContact(contact, normalized); err != nil {
			writeStoreError(rw, err, "updating")
			return
		}
	}

	writeResponse(rw, SuccessPayload{Message: "Contact updated successfully.", Data: contact}, http.StatusOK)
}

func deleteContact(rw http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := models.DeleteContact(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(rw, fmt.Sprintf("Contact with id %v does not exist.", id), http.StatusNotFound)
			return
		}

		// The underlying failure goes to the server log only
		logg.Error(err)
		payload := newErrorPayload(
			"An error occurred while deleting the contact.",
			errorCode(http.StatusInternalServerError),
			http.StatusInternalServerError,
			nil,
		)
		payload.Detail = "Contact could not be deleted."
		writeResponse(rw, payload, http.StatusInternalServerError)
		return
	}

	writeResponse(rw, SuccessPayload{Message: "Contact deleted successfully."}, http.StatusOK)
}

func listContacts(rw http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	// A page that isn't a positive integer can never be served; a bad
	// page_size just falls back to the default.
	page := 0
	if raw := params.Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(rw, "Invalid page.", http.StatusNotFound)
			return
		}

		page = parsed
	}

	pageSize, _ := strconv.Atoi(params.Get("page_size"))

	query := models.ContactQuery{
		Status:                params.Get("status"),
		EventNotificationType: params.Get("event_notification_type"),
		Search:                params.Get("search"),
		Ordering:              params.Get("ordering"),
		Page:                  page,
		PageSize:              pageSize,
	}

	contacts, paging, err := models.ListContacts(query)
	if err != nil {
		logg.Error(err)
		writeError(rw, "An error occurred while listing contacts.", http.StatusInternalServerError)
		return
	}

	if paging.Page > paging.Pages {
		writeError(rw, "Invalid page.", http.StatusNotFound)
		return
	}

	writeResponse(rw, PaginatedPayload{
		Count:      paging.Total,
		Next:       pageLink(r, paging.Page+1, paging.Pages),
		Previous:   pageLink(r, paging.Page-1, paging.Pages),
		Results:    contacts,
		Page:       paging.Page,
		TotalPages: paging.Pages,
		PageSize:   paging.PageSize,
	}, http.StatusOK)
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func contactFromValues(values map[string]interface{}) models.Contact {
	return models.Contact{
		FirstName:               values["first_name"].(string),
		LastName:                values["last_name"].(string),
		Email:                   values["email"].(string),
		CountryCode:             values["country_code"].(string),
		MobileNumber:            values["mobile_number"].(string),
		EventNotificationType:   values["event_notification_type"].(string),
		EventNotificationGroups: values["event_notification_groups"].(string),
		EventTypes:              models.EventTypeList(values["event_types"].([]string)),
		Status:                  values["status"].(string),
	}
}

func writeStoreError(rw http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, models.ErrDuplicateEmail):
		writeIntegrityError(rw, "A contact with this email address already exists.")
	case errors.Is(err, models.ErrDuplicateRecord):
		writeIntegrityError(rw, fmt.Sprintf("An error occurred while %v the contact. Please check your data.", action))
	default:
		logg.Error(err)
		writeError(rw, fmt.Sprintf("An error occurred while %v the contact.", action), http.StatusInternalServerError)
	}
}
