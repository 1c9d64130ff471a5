// Package phoneinput implements the masked phone-number field: raw keystrokes
// are reduced to digits, truncated to a maximum length and classified into a
// validation status that drives the field's inline feedback.
package phoneinput

import (
	"fmt"
	"strings"
	"sync"
)

const (
	// PhoneLength is the number of digits in a complete phone number.
	PhoneLength = 11
	// DefaultMaxLength bounds the cleaned value when Props.MaxLength is unset.
	DefaultMaxLength = PhoneLength
	// RequiredPrefix starts every valid phone number.
	RequiredPrefix = "09"
)

// Status is the derived validation state of the current value.
type Status string

const (
	StatusNone       Status = ""
	StatusIncomplete Status = "incomplete"
	StatusInvalid    Status = "invalid"
	StatusValid      Status = "valid"
)

// Clean strips every non-digit from raw and truncates the result to maxLength
// digits. A non-positive maxLength means DefaultMaxLength.
func Clean(raw string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	var b strings.Builder
	for i := 0; i < len(raw) && b.Len() < maxLength; i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// StatusOf classifies a cleaned value.
func StatusOf(value string) Status {
	switch {
	case len(value) == 0:
		return StatusNone
	case len(value) < PhoneLength:
		return StatusIncomplete
	case len(value) == PhoneLength && strings.HasPrefix(value, RequiredPrefix):
		return StatusValid
	default:
		return StatusInvalid
	}
}

// Props is the configuration surface of an Input.
type Props struct {
	ID          string
	Name        string
	Label       string
	Placeholder string
	Value       string
	// Error is an externally supplied message. It takes precedence over the
	// derived status and suppresses the derived help text.
	Error     string
	Disabled  bool
	MaxLength int

	// OnChange receives the cleaned value after every accepted change.
	OnChange func(value string)
	// OnValueChange is an optional value-only listener.
	OnValueChange func(value string)
	OnBlur        func()
}

// Input is one masked phone field instance. It owns its displayed value.
type Input struct {
	mu       sync.Mutex
	props    Props
	value    string
	external string
}

// New creates an Input showing props.Value.
func New(props Props) *Input {
	if props.MaxLength <= 0 {
		props.MaxLength = DefaultMaxLength
	}
	return &Input{props: props, value: props.Value, external: props.Value}
}

// Change applies one raw change event. Disabled inputs ignore it. It returns
// the displayed value after the change.
func (in *Input) Change(raw string) string {
	in.mu.Lock()
	if in.props.Disabled {
		v := in.value
		in.mu.Unlock()
		return v
	}
	cleaned := Clean(raw, in.props.MaxLength)
	in.value = cleaned
	onChange, onValue := in.props.OnChange, in.props.OnValueChange
	in.mu.Unlock()

	if onChange != nil {
		onChange(cleaned)
	}
	if onValue != nil {
		onValue(cleaned)
	}
	return cleaned
}

// Blur forwards a blur event.
func (in *Input) Blur() {
	in.mu.Lock()
	onBlur := in.props.OnBlur
	in.mu.Unlock()
	if onBlur != nil {
		onBlur()
	}
}

// Sync adopts a new externally supplied value. The displayed value only
// follows the external one when the external value itself changed.
func (in *Input) Sync(external string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if external == in.external {
		return
	}
	in.external = external
	in.value = external
}

// SetError replaces the externally supplied error message.
func (in *Input) SetError(msg string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.props.Error = msg
}

// SetDisabled toggles whether changes are accepted.
func (in *Input) SetDisabled(disabled bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.props.Disabled = disabled
}

// Value returns the displayed value.
func (in *Input) Value() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.value
}

// Status returns the derived validation status of the displayed value.
func (in *Input) Status() Status {
	return StatusOf(in.Value())
}

// Field is the render model of an Input.
type Field struct {
	ID          string
	Name        string
	Label       string
	Placeholder string
	Value       string
	MaxLength   int
	Disabled    bool

	Count    string
	Status   Status
	Icon     string
	HelpText string
	Error    string

	Invalid     bool
	DescribedBy string
}

// View renders the current state.
func (in *Input) View() Field {
	in.mu.Lock()
	p, value := in.props, in.value
	in.mu.Unlock()

	f := Field{
		ID:          p.ID,
		Name:        p.Name,
		Label:       p.Label,
		Placeholder: p.Placeholder,
		Value:       value,
		MaxLength:   p.MaxLength,
		Disabled:    p.Disabled,
		Count:       fmt.Sprintf("%d/%d", len(value), p.MaxLength),
		Status:      StatusOf(value),
	}

	if p.Error != "" {
		f.Error = p.Error
		f.Invalid = true
		if p.ID != "" {
			f.DescribedBy = p.ID + "-error"
		}
		return f
	}

	f.Icon, f.HelpText = feedback(f.Status, len(value))
	f.Invalid = f.Status == StatusInvalid
	if f.HelpText != "" && p.ID != "" {
		f.DescribedBy = p.ID + "-help"
	}
	return f
}

func feedback(status Status, length int) (icon, help string) {
	switch status {
	case StatusIncomplete:
		remaining := PhoneLength - length
		if remaining == 1 {
			return "pending", "1 more digit needed"
		}
		return "pending", fmt.Sprintf("%d more digits needed", remaining)
	case StatusInvalid:
		return "error", "Phone number must start with " + RequiredPrefix
	case StatusValid:
		return "check", "Valid phone number"
	default:
		return "", ""
	}
}
