package cmd

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/bnema/hfmctl/internal/domain"
)

// promptPassword asks on the controlling terminal. The prompt goes to stderr
// so stdout keeps only the result.
func promptPassword(message string) (string, error) {
	var password string
	err := survey.AskOne(
		&survey.Password{Message: message},
		&password,
		survey.WithStdio(os.Stdin, os.Stderr, os.Stderr),
	)
	if err == terminal.InterruptErr {
		return "", &domain.AuthError{Reason: "password prompt interrupted", Err: domain.ErrCredentialsMissing}
	}
	if err != nil {
		return "", fmt.Errorf("prompt password: %w", err)
	}
	return password, nil
}
