package validation

import (
	"fmt"
	"net/mail"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ── Error bag ────────────────────────────────────────────────────────────────

// Errors holds validation failures per field, shaped for the standard
// Laravel 422 payload: {"errors": {"field": ["msg1", "msg2"]}}
type Errors struct {
	Bag map[string][]string `json:"errors"`
}

func (e *Errors) add(field, msg string) {
	if e.Bag == nil {
		e.Bag = make(map[string][]string)
	}
	e.Bag[field] = append(e.Bag[field], msg)
}

// Has returns true if any field failed.
func (e *Errors) Has() bool { return len(e.Bag) > 0 }

// First returns the first failure message for a field.
func (e *Errors) First(field string) string {
	if msgs := e.Bag[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Fields returns the failed field names, sorted.
func (e *Errors) Fields() []string {
	fields := lo.Keys(e.Bag)
	sort.Strings(fields)
	return fields
}

// ── Validator ────────────────────────────────────────────────────────────────

// Rules maps field names to pipe-separated rule strings.
//
//	validation.Rules{"email": "required|email", "name": "required|min:2|max:100"}
type Rules map[string]string

// Validator checks a flat input map against its rules. Feed it the output
// of Request.All().
type Validator struct {
	data   map[string]string
	rules  Rules
	errors *Errors
	ran    bool
}

// Make builds a Validator — mirrors Validator::make($data, $rules).
func Make(data map[string]string, rules Rules) *Validator {
	return &Validator{data: data, rules: rules, errors: &Errors{}}
}

// Fails runs the rules once and reports whether any failed.
func (v *Validator) Fails() bool {
	v.validate()
	return v.errors.Has()
}

// Passes is the complement of Fails.
func (v *Validator) Passes() bool { return !v.Fails() }

// Errors returns the error bag.
func (v *Validator) Errors() *Errors { return v.errors }

func (v *Validator) validate() {
	if v.ran {
		return
	}
	v.ran = true
	for field, ruleStr := range v.rules {
		value := v.data[field]
		for _, rule := range strings.Split(ruleStr, "|") {
			name, param, _ := strings.Cut(strings.TrimSpace(rule), ":")
			if name == "" {
				continue
			}
			if msg, ok := check(field, value, name, param); !ok {
				v.errors.add(field, msg)
				break // first failure wins per field, like Laravel's bail
			}
		}
	}
}

// ── Rules ────────────────────────────────────────────────────────────────────

// check applies one rule to one value. A false return carries the failure
// message.
func check(field, value, rule, param string) (string, bool) {
	switch rule {
	case "required":
		if strings.TrimSpace(value) == "" {
			return fmt.Sprintf("The %s field is required.", field), false
		}

	case "email":
		if _, err := mail.ParseAddress(value); err != nil {
			return fmt.Sprintf("The %s must be a valid email address.", field), false
		}

	case "uuid":
		if uuid.Validate(value) != nil {
			return fmt.Sprintf("The %s must be a valid UUID.", field), false
		}

	case "integer":
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Sprintf("The %s must be an integer.", field), false
		}

	case "numeric":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Sprintf("The %s must be a number.", field), false
		}

	case "min":
		n, _ := strconv.Atoi(param)
		if utf8.RuneCountInString(value) < n {
			return fmt.Sprintf("The %s must be at least %d characters.", field, n), false
		}

	case "max":
		n, _ := strconv.Atoi(param)
		if utf8.RuneCountInString(value) > n {
			return fmt.Sprintf("The %s may not be greater than %d characters.", field, n), false
		}

	case "between":
		lowStr, highStr, ok := strings.Cut(param, ",")
		if !ok {
			break
		}
		low, _ := strconv.Atoi(strings.TrimSpace(lowStr))
		high, _ := strconv.Atoi(strings.TrimSpace(highStr))
		if l := utf8.RuneCountInString(value); l < low || l > high {
			return fmt.Sprintf("The %s must be between %d and %d characters.", field, low, high), false
		}

	case "in":
		allowed := lo.Map(strings.Split(param, ","), func(s string, _ int) string {
			return strings.TrimSpace(s)
		})
		if !lo.Contains(allowed, value) {
			return fmt.Sprintf("The selected %s is invalid.", field), false
		}
	}

	return "", true
}
