package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/beaconhq/beacon/server/models"
	"github.com/stretchr/testify/assert"
)

func performRequest(router http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}

	request := httptest.NewRequest(method, target, &buf)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	body := map[string]interface{}{}
	assert.Nil(t, json.Unmarshal(recorder.Body.Bytes(), &body))

	return body
}

func errorInfo(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	body := decodeBody(t, recorder)
	errInfo, ok := body["error"].(map[string]interface{})
	assert.True(t, ok, "expected an error envelope, got %v", body)

	return errInfo
}

func validContactBody() map[string]interface{} {
	return map[string]interface{}{
		"first_name":  "Ana",
		"last_name":   "Lee",
		"email":       "Ana@X.com",
		"event_types": []string{"SOS", "SOS", "911"},
	}
}

func TestCreateContactEndpoint(t *testing.T) {
	models.InitializeTestDb()
	router := NewRouter()

	recorder := performRequest(router, "POST", "/api/items/", validContactBody())
	assert.Equal(t, http.StatusCreated, recorder.Code)

	body := decodeBody(t, recorder)
	assert.Equal(t, "Contact created successfully.", body["message"])

	data := body["data"].(map[string]interface{})
	assert.NotZero(t, data["id"])
	assert.Equal(t, "ana@x.com", data["email"], "stored email is the lower-cased input")
	assert.Equal(t, []interface{}{"SOS", "911"}, data["event_types"], "duplicates removed, order preserved")
	assert.Equal(t, "ACTIVE", data["status"])
	assert.Equal(t, "ALL_USERS", data["event_notification_type"])
}

func TestCreateContactValidationErrors(t *testing.T) {
	models.InitializeTestDb()
	router := NewRouter()

	payload := validContactBody()
	payload["mobile_number"] = "123"
	payload["first_name"] = "Ana3"

	recorder := performRequest(router, "POST", "/api/items/", payload)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	errInfo := errorInfo(t, recorder)
	assert.Equal(t, "validation_error", errInfo["code"])
	assert.Equal(t, "Validation failed", errInfo["message"])
	assert.Equal(t, float64(http.StatusBadRequest), errInfo["status_code"])

	details := errInfo["details"].(map[string]interface{})
	assert.Contains(t, details["mobile_number"], "Mobile number must contain between 10 and 15 digits.")
	assert.Contains(t, details["first_name"], "First name can only contain letters, spaces, hyphens, and apostrophes.")

	body := decodeBody(t, recorder)
	assert.Equal(t, "Validation failed", body["detail"], "detail duplicates the top-level message")
}

func TestCreateContactDuplicateEmailEndpoint(t *testing.T) {
	models.InitializeTestDb()
	router := NewRouter()

	recorder := performRequest(router, "POST", "/api/items/", validContactBody())
	assert.Equal(t, http.StatusCreated, recorder.Code)

	// Same email, different case
	payload := validContactBody()
	payload["email"] = "ANA@X.COM"
	recorder = performRequest(router, "POST", "/api/items/", payload)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	errInfo := errorInfo(t, recorder)
	assert.Equal(t, "integrity_error", errInfo["code"])
	assert.Equal(t, "A contact with this email address already exists.", errInfo["message"])
}

func TestRetrieveContactEndpoint(t *testing.T) {
	models.InitializeTestDb()
	router := NewRouter()

	recorder := performRequest(router, "POST", "/api/items/", validContactBody())
	data := decodeBody(t, recorder)["data"].(map[string]interface{})
	id := int(data["id"].(float64))

	recorder = performRequest(router, "GET", fmt.Sprintf("/api/items/%v/", id), nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	// Retrieve returns the bare record, no message wrapper
	body := decodeBody(t, recorder)
	assert.Equal(t, "ana@x.com", body["email"])
	assert.NotContains(t, body, "message")

	recorder = performRequest(router, "GET", "/api/items/9999/", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	errInfo := errorInfo(t, recorder)
	assert.Equal(t, "not_found", errInfo["code"])
	assert.Equal(t, "Contact with id 9999 does not exist.", errInfo["message"])
}

func TestPartialUpdateAppliesGroupsRuleToMergedRecord(t *testing.T) {
	models.InitializeTestDb()
	router := NewRouter()

	recorder := performRequest(router, "POST", "/api/items/", validContactBody())
	data := decodeBody(t, recorder)["data"].(map[string]interface{})
	target := fmt.Sprintf("/api/items/%v/", int(data["id"].(float64)))

	// Switching to GROUPS without groups must fail against the merged record
	recorder = performRequest(router, "PATCH", target, map[string]interface{}{
		"event_notification_type": "GROUPS",
	})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	errInfo := errorInfo(t, recorder)
	assert.Equal(t, "validation_error", errInfo["code"])
	details := errInfo["details"].(map[string]interface{})
	assert.Contains(t, details["event_notification_groups"],
		"This field is required when event_notification_type is GROUPS.")

	// Supplying groups alongside the switch succeeds; list input is joined
	recorder = performRequest(router, "PATCH", target, map[string]interface{}{
		"event_notification_type":   "GROUPS",
		"event_notification_groups": []string{"ops", "oncall"},
	})
	assert.Equal(t, http.StatusOK, recorder.Code)

	body := decodeBody(t, recorder)
	assert.Equal(t, "Contact updated successfully.", body["message"])
	updated := body["data"].(map[string]interface{})
	assert.Equal(t, "GROUPS", updated["event_notification_type"])
	assert.Equal(t, "ops, oncall", updated["event_notification_groups"])
}

func TestFullUpdateRequiresAllFields(t *testing.T) {
	models.InitializeTestDb()
	router := NewRouter()

	recorder := performRequest(router, "POST", "/api/items/", validContactBody())
	data := decodeBody(t, recorder)["data"].(map[string]interface{})
	target := fmt.Sprintf("/api/items/%v/", int(data["id"].(float64)))

	recorder = performRequest(router, "PUT", target, map[string]interface{}{
		"first_name": "Anna",
	})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	errInfo := errorInfo(t, recorder)
	details := errInfo["details"].(map[string]interface{})
	assert.Contains(t, details["last_name"], "Last name is required.")
	assert.Contains(t, details["email"], "Email field is required.")
	assert.Contains(t, details["event_types"], "This field is required.")
}

func TestFullUpdatePreservesAbsentOptionalFields(t *testing.T) {
	models.InitializeTestDb()
	router := NewRouter()

	payload := validContactBody()
	payload["status"] = "INACTIVE"
	payload["country_code"] = "+44"
	payload["mobile_number"] = "4165550199"
	recorder := performRequest(router, "POST", "/api/items/", payload)
	assert.Equal(t, http.StatusCreated, recorder.Code)
	data := decodeBody(t, recorder)["data"].(map[string]interface{})
	target := fmt.Sprintf("/api/items/%v/", int(data["id"].(float64)))

	// Required fields only: absent optional fields keep their stored values
	recorder = performRequest(router, "PUT", target, validContactBody())
	assert.Equal(t, http.StatusOK, recorder.Code)

	updated := decodeBody(t, recorder)["data"].(map[string]interface{})
	assert.Equal(t, "INACTIVE", updated["status"], "absent status must not reset to ACTIVE")
	assert.Equal(t, "+44", updated["country_code"])
	assert.Equal(t, "4165550199", updated["mobile_number"])
}

func TestFullUpdateAppliesGroupsRuleToMergedRecord(t *testing.T) {
	models.InitializeTestDb()
	router := NewRouter()

	payload := validContactBody()
	payload["event_notification_type"] = "GROUPS"
	payload["event_notification_groups"] = "ops"
	recorder := performRequest(router, "POST", "/api/items/", payload)
	assert.Equal(t, http.StatusCreated, recorder.Code)
	data := decodeBody(t, recorder)["data"].(map[string]interface{})
	target := fmt.Sprintf("/api/items/%v/", int(data["id"].(float64)))

	// Clearing groups while the stored type stays GROUPS must fail
	payload = validContactBody()
	payload["event_notification_groups"] = ""
	recorder = performRequest(router, "PUT", target, payload)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	details := errorInfo(t, recorder)["details"].(map[string]interface{})
	assert.Contains(t, details["event_notification_groups"],
		"This field is required when event_notification_type is GROUPS.")
}

func TestDeleteContactEndpoint(t *testing.T) {
	models.InitializeTestDb()
	router := NewRouter()

	recorder := performRequest(router, "POST", "/api/items/", validContactBody())
	data := decodeBody(t, recorder)["data"].(map[string]interface{})
	target := fmt.Sprintf("/api/items/%v/", int(data["id"].(float64)))

	recorder = performRequest(router, "DELETE", target, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "Contact deleted successfully.", decodeBody(t, recorder)["message"])

	// Delete is not idempotent: the second call reports not found
	recorder = performRequest(router, "DELETE", target, nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "not_found", errorInfo(t, recorder)["code"])
}

func seedContactsViaModels(t *testing.T) {
	t.Helper()
	models.InitializeTestDb()

	now := time.Now().UTC()
	seeds := []*models.Contact{
		{FirstName: "Ana", LastName: "Lee", Email: "ana@x.com", EventNotificationType: "ALL_USERS", EventTypes: models.EventTypeList{"SOS"}, Status: "ACTIVE"},
		{FirstName: "Anabel", LastName: "Diaz", Email: "anabel@x.com", EventNotificationType: "ALL_USERS", EventTypes: models.EventTypeList{"SOS"}, Status: "ACTIVE"},
		{FirstName: "Bob", LastName: "Ray", Email: "bob@x.com", EventNotificationType: "ALL_USERS", EventTypes: models.EventTypeList{"SOS"}, Status: "INACTIVE"},
	}

	for i, seed := range seeds {
		seed.CreatedAt = now.Add(time.Duration(i) * time.Minute)
		assert.Nil(t, models.CreateContact(seed))
	}
}

func TestListContactsEndpoint(t *testing.T) {
	seedContactsViaModels(t)
	router := NewRouter()

	recorder := performRequest(router, "GET",
		"/api/items/?status=active&search=ana&ordering=-created_at&page=1&page_size=5", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	body := decodeBody(t, recorder)
	assert.Equal(t, float64(2), body["count"])
	assert.Equal(t, float64(1), body["page"])
	assert.Equal(t, float64(1), body["total_pages"])
	assert.Equal(t, float64(5), body["page_size"])
	assert.Nil(t, body["next"])
	assert.Nil(t, body["previous"])

	results := body["results"].([]interface{})
	assert.Len(t, results, 2)
	first := results[0].(map[string]interface{})
	assert.Equal(t, "Anabel", first["first_name"], "newest matching record comes first")
}

func TestListContactsPaginationLinks(t *testing.T) {
	seedContactsViaModels(t)
	router := NewRouter()

	recorder := performRequest(router, "GET", "/api/items/?page=2&page_size=1", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	body := decodeBody(t, recorder)
	assert.Equal(t, float64(3), body["count"])
	assert.Equal(t, float64(3), body["total_pages"])

	next, ok := body["next"].(string)
	assert.True(t, ok, "middle pages should link forward")
	assert.Contains(t, next, "page=3")

	previous, ok := body["previous"].(string)
	assert.True(t, ok, "middle pages should link backward")
	assert.Contains(t, previous, "page=1")
}

func TestListContactsInvalidPage(t *testing.T) {
	seedContactsViaModels(t)
	router := NewRouter()

	recorder := performRequest(router, "GET", "/api/items/?page=9", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	errInfo := errorInfo(t, recorder)
	assert.Equal(t, "Invalid page.", errInfo["message"])
	assert.Equal(t, "not_found", errInfo["code"])

	recorder = performRequest(router, "GET", "/api/items/?page=abc", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "Invalid page.", errorInfo(t, recorder)["message"])

	recorder = performRequest(router, "GET", "/api/items/?page=0", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	// page_size is forgiving: bad values fall back to the default
	recorder = performRequest(router, "GET", "/api/items/?page_size=abc", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, float64(models.DEFAULT_PAGE_SIZE), decodeBody(t, recorder)["page_size"])
}

func TestUnknownRouteAndMethod(t *testing.T) {
	models.InitializeTestDb()
	router := NewRouter()

	recorder := performRequest(router, "GET", "/api/nope/", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "not_found", errorInfo(t, recorder)["code"])

	recorder = performRequest(router, "DELETE", "/api/items/", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
	assert.Equal(t, "method_not_allowed", errorInfo(t, recorder)["code"])
}
