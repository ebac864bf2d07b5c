package user

import (
	"net/mail"
	"regexp"
	"strings"

	passwordvalidator "github.com/wagslane/go-password-validator"

	"grandpa/infrastructure"
	"grandpa/internal/database"
)

func ConvertDBUserToUser(dbUser *database.User) *User {
	return &User{
		ID:        dbUser.ID,
		Username:  dbUser.Username,
		Email:     dbUser.Email,
		FirstName: dbUser.FirstName,
		LastName:  dbUser.LastName,
		CreatedAt: dbUser.CreatedAt,
	}
}

const (
	PasswordMinEntropyBits = 30
	maxUsernameLength      = 150
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// CheckRegistration validates and normalizes input in place.
func CheckRegistration(input *RegisterInput) error {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	switch {
	case input.Username == "":
		return infrastructure.NewValidationError("username", "This field is required.")
	case len(input.Username) > maxUsernameLength:
		return infrastructure.NewValidationError("username", "Ensure this field has no more than 150 characters.")
	case !usernamePattern.MatchString(input.Username):
		return infrastructure.NewValidationError("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}

	if input.Password == "" {
		return infrastructure.NewValidationError("password", "This field is required.")
	}
	if err := passwordvalidator.Validate(input.Password, PasswordMinEntropyBits); err != nil {
		return infrastructure.NewValidationError("password", err.Error())
	}

	if input.Email != "" && !ValidEmail(input.Email) {
		return infrastructure.NewValidationError("email", "Enter a valid email address.")
	}
	return nil
}

func ValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}
