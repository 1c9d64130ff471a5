// Package validation holds the submit-time rules for the login form.
package validation

import (
	"regexp"
	"strings"
)

const phoneField = "phone"

var phonePattern = regexp.MustCompile(`^09\d{9}$`)

// LoginValues are the submitted login form values.
type LoginValues struct {
	Phone string
}

// Issue is one violated rule.
type Issue struct {
	Field   string
	Message string
}

// Errors is the result of validating one submit attempt. An empty Errors means
// the values were accepted.
type Errors []Issue

// OK reports whether no rule was violated.
func (e Errors) OK() bool { return len(e) == 0 }

// Fields maps every field to its first message.
func (e Errors) Fields() map[string]string {
	out := make(map[string]string, len(e))
	for _, issue := range e {
		if _, seen := out[issue.Field]; !seen {
			out[issue.Field] = issue.Message
		}
	}
	return out
}

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, issue := range e {
		msgs = append(msgs, issue.Field+": "+issue.Message)
	}
	return strings.Join(msgs, "; ")
}

type rule struct {
	field   string
	message string
	ok      func(LoginValues) bool
}

// Schema is an ordered rule set.
type Schema struct {
	rules []rule
}

// LoginSchema returns the rule set for the login form.
func LoginSchema() *Schema {
	phone := func(fn func(string) bool) func(LoginValues) bool {
		return func(v LoginValues) bool { return fn(v.Phone) }
	}
	return &Schema{rules: []rule{
		{phoneField, "Phone number is required", phone(func(s string) bool { return len(s) > 0 })},
		{phoneField, "Phone number must be at least 11 digits", phone(func(s string) bool { return len(s) >= 11 })},
		{phoneField, "Phone number cannot exceed 11 digits", phone(func(s string) bool { return len(s) <= 11 })},
		{phoneField, "Phone number can only contain digits", phone(allDigits)},
		{phoneField, "Phone number must start with 09 and be exactly 11 digits", phone(phonePattern.MatchString)},
	}}
}

// Validate runs every rule and collects one Issue per violation.
func (s *Schema) Validate(values LoginValues) Errors {
	var errs Errors
	for _, r := range s.rules {
		if !r.ok(values) {
			errs = append(errs, Issue{Field: r.field, Message: r.message})
		}
	}
	return errs
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
