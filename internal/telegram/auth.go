package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
)

// Prompter asks the operator for a single line of input.
type Prompter interface {
	Prompt(label string) (string, error)
}

// terminalAuth implements auth.UserAuthenticator for a known phone number,
// asking for the login code and, only when required, the 2FA password.
type terminalAuth struct {
	phone    string
	prompter Prompter
}

var _ auth.UserAuthenticator = terminalAuth{}

func (a terminalAuth) Phone(_ context.Context) (string, error) {
	return a.phone, nil
}

func (a terminalAuth) Password(_ context.Context) (string, error) {
	pwd, err := a.prompter.Prompt("enter your two-step verification password: ")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(pwd), nil
}

func (a terminalAuth) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	code, err := a.prompter.Prompt("enter the login code telegram sent you: ")
	if err != nil {
		return "", fmt.Errorf("read code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return "", errors.New("empty login code")
	}
	return code, nil
}

func (a terminalAuth) AcceptTermsOfService(_ context.Context, tos tg.HelpTermsOfService) error {
	return &auth.SignUpRequired{TermsOfService: tos}
}

func (a terminalAuth) SignUp(_ context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, errors.New("sign up is not supported, register the account in an official app first")
}
