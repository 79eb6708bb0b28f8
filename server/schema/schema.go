package schema

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator"
)

// Contact enum values
const (
	ACTIVE_STATUS   = "ACTIVE"
	INACTIVE_STATUS = "INACTIVE"

	ALL_USERS_NOTIFICATION_TYPE = "ALL_USERS"
	GROUPS_NOTIFICATION_TYPE    = "GROUPS"
)

const (
	MAX_NAME_LENGTH         = 50
	MAX_COUNTRY_CODE_LENGTH = 5
	MAX_MOBILE_LENGTH       = 20
	MAX_EVENT_TYPES         = 20
	MAX_EVENT_TYPE_LENGTH   = 50
)

var (
	nameRegexp        = regexp.MustCompile(`^[a-zA-Z\s\-']+$`)
	emailRegexp       = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	mobileStripRegexp = regexp.MustCompile(`[\s\-()+]`)
	digitsRegexp      = regexp.MustCompile(`^[0-9]+$`)
)

var validate = validator.New()

// FieldErrors maps a field name to every validation message recorded for it,
// so a client sees all violations in a single response.
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field, message string) {
	fe[field] = append(fe[field], message)
}

func (fe FieldErrors) Any() bool {
	return len(fe) > 0
}

// Rule describes how a single contact field is validated & normalized.
// Normalize returns the value to store, or one message per violation.
type Rule struct {
	Required        bool
	RequiredMessage string
	Default         interface{}
	Normalize       func(value interface{}) (interface{}, []string)
}

// ContactSchema holds the validation-rule table for contact records.
type ContactSchema struct {
	rules  map[string]Rule
	fields []string
}

func NewContactSchema() *ContactSchema {
	schema := &ContactSchema{rules: map[string]Rule{
		"first_name":                nameRule("First name"),
		"last_name":                 nameRule("Last name"),
		"email":                     emailRule(),
		"country_code":              countryCodeRule(),
		"mobile_number":             mobileNumberRule(),
		"event_notification_type":   choiceRule(ALL_USERS_NOTIFICATION_TYPE, "Event notification type must be one of: ALL_USERS, GROUPS", ALL_USERS_NOTIFICATION_TYPE, GROUPS_NOTIFICATION_TYPE),
		"event_notification_groups": groupsRule(),
		"event_types":               eventTypesRule(),
		"status":                    choiceRule(ACTIVE_STATUS, "Status must be one of: ACTIVE, INACTIVE", ACTIVE_STATUS, INACTIVE_STATUS),
	}}

	for field := range schema.rules {
		schema.fields = append(schema.fields, field)
	}

	return schema
}

// Fields returns the set of writable field names, used to discard
// unknown & read-only keys from a request payload.
func (s *ContactSchema) Fields() map[string]bool {
	fields := map[string]bool{}
	for _, field := range s.fields {
		fields[field] = true
	}

	return fields
}

// Validate checks & normalizes the supplied field values. With partial set,
// only supplied fields are checked; otherwise required fields must be present
// and optional fields fall back to their defaults. Both return values are
// always usable: normalized holds every field that passed, fieldErrors every
// violation found.
func (s *ContactSchema) Validate(input map[string]interface{}, partial bool) (map[string]interface{}, FieldErrors) {
	normalized := map[string]interface{}{}
	fieldErrors := FieldErrors{}

	for field, rule := range s.rules {
		value, present := input[field]
		if !present {
			if partial {
				continue
			}

			if rule.Required {
				fieldErrors.Add(field, rule.RequiredMessage)
				continue
			}

			normalized[field] = rule.Default
			continue
		}

		out, violations := rule.Normalize(value)
		if len(violations) > 0 {
			for _, message := range violations {
				fieldErrors.Add(field, message)
			}
			continue
		}

		normalized[field] = out
	}

	// The GROUPS rule spans two fields, so it only runs once both sides
	// normalized cleanly. Updates re-check it against the merged record
	// in the caller, which knows the stored values.
	if !partial {
		notificationType, typeOK := normalized["event_notification_type"].(string)
		groups, groupsOK := normalized["event_notification_groups"].(string)
		if typeOK && groupsOK {
			if message := GroupsRuleViolation(notificationType, groups); message != "" {
				fieldErrors.Add("event_notification_groups", message)
			}
		}
	}

	return normalized, fieldErrors
}

// CheckRequired records the required-field violation for every required
// field missing from input. Full updates validate with partial set and run
// this on top, so absent optional fields keep their stored values instead
// of being reset to creation defaults.
func (s *ContactSchema) CheckRequired(input map[string]interface{}, fieldErrors FieldErrors) {
	for field, rule := range s.rules {
		if !rule.Required {
			continue
		}

		if _, present := input[field]; !present {
			fieldErrors.Add(field, rule.RequiredMessage)
		}
	}
}

// GroupsRuleViolation reports the cross-field violation message when the
// notification type is GROUPS but no groups are set, or "" when the pair
// is consistent.
func GroupsRuleViolation(notificationType, groups string) string {
	if notificationType == GROUPS_NOTIFICATION_TYPE && strings.TrimSpace(groups) == "" {
		return "This field is required when event_notification_type is GROUPS."
	}

	return ""
}

// ---------------------------------------------------------------------------------//
// Field rules
// --------------------------------------------------------------------------------//

func nameRule(label string) Rule {
	return Rule{
		Required:        true,
		RequiredMessage: label + " is required.",
		Normalize: func(value interface{}) (interface{}, []string) {
			name, ok := value.(string)
			if !ok {
				return nil, []string{"Not a valid string."}
			}

			if name == "" {
				return nil, []string{label + " cannot be blank."}
			}

			if utf8.RuneCountInString(name) > MAX_NAME_LENGTH {
				return nil, []string{label + " cannot exceed 50 characters."}
			}

			name = strings.TrimSpace(name)
			if name == "" {
				return nil, []string{label + " cannot be empty or whitespace only."}
			}

			if !nameRegexp.MatchString(name) {
				return nil, []string{label + " can only contain letters, spaces, hyphens, and apostrophes."}
			}

			return name, nil
		},
	}
}

func emailRule() Rule {
	return Rule{
		Required:        true,
		RequiredMessage: "Email field is required.",
		Normalize: func(value interface{}) (interface{}, []string) {
			email, ok := value.(string)
			if !ok {
				return nil, []string{"Not a valid string."}
			}

			email = strings.ToLower(strings.TrimSpace(email))
			if email == "" {
				return nil, []string{"Email cannot be empty."}
			}

			if !emailRegexp.MatchString(email) || validate.Var(email, "email") != nil {
				return nil, []string{"Enter a valid email address."}
			}

			return email, nil
		},
	}
}

func countryCodeRule() Rule {
	return Rule{
		Default: "",
		Normalize: func(value interface{}) (interface{}, []string) {
			if value == nil {
				return "", nil
			}

			code, ok := value.(string)
			if !ok {
				return nil, []string{"Not a valid string."}
			}

			code = strings.TrimSpace(code)
			if code == "" {
				return "", nil
			}

			if utf8.RuneCountInString(code) > MAX_COUNTRY_CODE_LENGTH {
				return nil, []string{"Country code cannot exceed 5 characters."}
			}

			if !strings.HasPrefix(code, "+") {
				return nil, []string{"Country code must start with a plus sign (+)."}
			}

			digits := strings.TrimPrefix(code, "+")
			if !digitsRegexp.MatchString(digits) {
				return nil, []string{"Country code can only contain a plus sign (+) followed by digits."}
			}

			if len(digits) < 1 || len(digits) > 4 {
				return nil, []string{"Country code must contain 1 to 4 digits after the plus sign."}
			}

			return code, nil
		},
	}
}

func mobileNumberRule() Rule {
	return Rule{
		Default: "",
		Normalize: func(value interface{}) (interface{}, []string) {
			if value == nil {
				return "", nil
			}

			mobile, ok := value.(string)
			if !ok {
				return nil, []string{"Not a valid string."}
			}

			mobile = strings.TrimSpace(mobile)
			if mobile == "" {
				return "", nil
			}

			if utf8.RuneCountInString(mobile) > MAX_MOBILE_LENGTH {
				return nil, []string{"Mobile number cannot exceed 20 characters."}
			}

			// Formatting characters are allowed on the way in, only the
			// digits count toward the length check.
			digits := mobileStripRegexp.ReplaceAllString(mobile, "")
			if !digitsRegexp.MatchString(digits) {
				return nil, []string{"Mobile number can only contain digits, spaces, hyphens, parentheses, and plus sign."}
			}

			if len(digits) < 10 || len(digits) > 15 {
				return nil, []string{"Mobile number must contain between 10 and 15 digits."}
			}

			return mobile, nil
		},
	}
}

// groupsRule accepts either a single string or an array of strings; an array
// is joined into a comma-separated string for storage.
func groupsRule() Rule {
	return Rule{
		Default: "",
		Normalize: func(value interface{}) (interface{}, []string) {
			switch groups := value.(type) {
			case nil:
				return "", nil
			case string:
				return strings.TrimSpace(groups), nil
			case []interface{}:
				items := make([]string, 0, len(groups))
				for _, entry := range groups {
					item, ok := entry.(string)
					if !ok {
						return nil, []string{"All group items must be strings."}
					}

					item = strings.TrimSpace(item)
					if item == "" {
						return nil, []string{"Group items cannot be empty strings."}
					}

					items = append(items, item)
				}

				return strings.Join(items, ", "), nil
			default:
				return nil, []string{"Event notification groups must be a string or an array of strings."}
			}
		},
	}
}

func eventTypesRule() Rule {
	return Rule{
		Required:        true,
		RequiredMessage: "This field is required.",
		Normalize: func(value interface{}) (interface{}, []string) {
			list, ok := value.([]interface{})
			if !ok {
				return nil, []string{"Event types must be a list."}
			}

			if len(list) == 0 {
				return nil, []string{"At least one event type is required."}
			}

			if len(list) > MAX_EVENT_TYPES {
				return nil, []string{"Cannot specify more than 20 event types."}
			}

			validated := make([]string, 0, len(list))
			for _, entry := range list {
				eventType, ok := entry.(string)
				if !ok {
					return nil, []string{"Each event type must be a string."}
				}

				eventType = strings.TrimSpace(eventType)
				if eventType == "" {
					return nil, []string{"Event types cannot be empty strings."}
				}

				if utf8.RuneCountInString(eventType) > MAX_EVENT_TYPE_LENGTH {
					return nil, []string{"Each event type cannot exceed 50 characters."}
				}

				validated = append(validated, eventType)
			}

			// Drop duplicates, keeping the first occurrence
			seen := map[string]bool{}
			unique := make([]string, 0, len(validated))
			for _, eventType := range validated {
				if !seen[eventType] {
					seen[eventType] = true
					unique = append(unique, eventType)
				}
			}

			return unique, nil
		},
	}
}

func choiceRule(defaultValue, message string, choices ...string) Rule {
	valid := map[string]bool{}
	for _, choice := range choices {
		valid[choice] = true
	}

	return Rule{
		Default: defaultValue,
		Normalize: func(value interface{}) (interface{}, []string) {
			choice, ok := value.(string)
			if !ok || !valid[choice] {
				return nil, []string{message}
			}

			return choice, nil
		},
	}
}
