package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/pharmgate/internal/common"
)

// readNewPassword asks twice and checks the minimum length locally so the
// operator can retry before anything is sent.
func (a *App) readNewPassword(prompt string) (string, error) {
	pw, err := getPassword(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)

	again, err := getPassword(a.reader, "Repeat password", a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(again)

	if string(pw) != string(again) {
		return "", fmt.Errorf("%w: passwords do not match", common.ErrValidation)
	}
	if n := a.auth.MinPasswordLength(); len([]rune(string(pw))) < n {
		return "", fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, n)
	}
	return string(pw), nil
}

// Setup creates the first administrator of a fresh database.
func (a *App) Setup(ctx context.Context) error {
	if !a.auth.IsFirstRun(ctx) {
		a.println("The administrator is already set up. Use 'login'.")
		return nil
	}

	username, err := GetSimpleText(a.reader, "Administrator username", a.out)
	if err != nil {
		return err
	}
	name, err := GetSimpleText(a.reader, "Full name", a.out)
	if err != nil {
		return err
	}
	pw, err := a.readNewPassword("Password")
	if err != nil {
		return err
	}

	if err := a.auth.BootstrapAdmin(ctx, username, pw, name); err != nil {
		return err
	}
	a.printf("Administrator %q created. Use 'login' to sign in.\n", username)
	return nil
}

const lastUsernameKey = "last_username"

// Login prompts for credentials and signs in. The last signed-in username is
// offered as the default.
func (a *App) Login(ctx context.Context) error {
	var last string
	a.profiles.Get(lastUsernameKey, &last)

	username, err := GetTextDefault(a.reader, "Username", last, a.out)
	if err != nil {
		return err
	}
	pw, err := getPassword(a.reader, "Password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	persist, err := GetYesNo(a.reader, "Remember me on this computer?", a.out)
	if err != nil {
		return err
	}

	if err := a.auth.Authenticate(ctx, username, string(pw), persist); err != nil {
		return err
	}

	if err := a.profiles.Set(lastUsernameKey, username); err != nil {
		a.log.Warn(ctx, "cannot remember username", "error", err)
	}

	info, _ := a.auth.CurrentUserInfo()
	a.printf("Welcome, %s (%s).\n", info.EmployeeName, info.Role)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.auth.Logout()
	a.println("Signed out.")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	info, ok := a.auth.CurrentUserInfo()
	if !ok {
		a.println("Not signed in.")
		return nil
	}
	a.printf("%s: %s, %s, role %s\n", info.Username, info.EmployeeName, info.Position, info.Role)
	return nil
}
