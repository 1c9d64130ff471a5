package handlers

import (
	"github.com/phonegate/portal/internal/model"
	"github.com/phonegate/portal/internal/phoneinput"
	"github.com/phonegate/portal/internal/toast"
)

// Button is the render model of a button.
type Button struct {
	Type         string
	Variant      string
	Label        string
	LoadingLabel string
	Loading      bool
	Disabled     bool
}

// Text is the label shown for the current loading state.
func (b Button) Text() string {
	if b.Loading && b.LoadingLabel != "" {
		return b.LoadingLabel
	}
	return b.Label
}

// Inert reports whether the button rejects clicks.
func (b Button) Inert() bool { return b.Disabled || b.Loading }

// Page carries what the shared layout renders.
type Page struct {
	Title string
	Path  string
	Toast *toast.View
}

type loginPage struct {
	Page
	Banner string
	Phone  phoneinput.Field
	Submit Button
}

type dashboardPage struct {
	Page
	User   model.User
	Logout Button
}

func signInButton(loading bool) Button {
	return Button{
		Type:         "submit",
		Variant:      "primary",
		Label:        "Sign In",
		LoadingLabel: "Signing In...",
		Loading:      loading,
	}
}

func signOutButton() Button {
	return Button{Type: "submit", Variant: "secondary", Label: "Sign Out"}
}

func newPhoneInput(value string) *phoneinput.Input {
	return phoneinput.New(phoneinput.Props{
		ID:          "phone",
		Name:        "phone",
		Label:       "Phone Number",
		Placeholder: "09123456789",
		Value:       value,
		MaxLength:   phoneinput.DefaultMaxLength,
	})
}
