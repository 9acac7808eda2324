package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/pharmgate/internal/auth"
	"github.com/dmitrijs2005/pharmgate/internal/common"
	"github.com/dmitrijs2005/pharmgate/internal/models"
)

const historyLimit = 20

// Users prints every account.
func (a *App) Users(ctx context.Context) error {
	list, err := a.auth.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		a.println("No users.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMPLOYEE\tPOSITION\tROLE")
	for _, u := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Username, u.EmployeeName, u.Position, u.Role)
	}
	return tw.Flush()
}

// AddUser prompts for a new account. Only administrators get past the
// first check, so nobody else is asked for input.
func (a *App) AddUser(ctx context.Context) error {
	if !a.auth.IsAdmin() {
		return fmt.Errorf("%w: create user requires an administrator", common.ErrAuthorization)
	}

	var (
		nu  auth.NewUser
		err error
	)
	if nu.Username, err = GetSimpleText(a.reader, "Username", a.out); err != nil {
		return err
	}
	if nu.EmployeeName, err = GetSimpleText(a.reader, "Full name", a.out); err != nil {
		return err
	}
	if nu.Position, err = GetSimpleText(a.reader, "Position", a.out); err != nil {
		return err
	}

	salary, err := GetSimpleText(a.reader, "Salary (empty for none)", a.out)
	if err != nil {
		return err
	}
	if salary != "" {
		v, err := strconv.ParseFloat(strings.ReplaceAll(salary, ",", "."), 64)
		if err != nil {
			return fmt.Errorf("%w: salary %q is not a number", common.ErrValidation, salary)
		}
		nu.Salary = &v
	}

	role, err := GetTextDefault(a.reader, "Role (admin/user)", string(models.RoleUser), a.out)
	if err != nil {
		return err
	}
	if nu.Role, err = models.ParseRole(strings.ToLower(role)); err != nil {
		return err
	}

	if nu.Password, err = a.readNewPassword("Password"); err != nil {
		return err
	}

	if err := a.auth.CreateUser(ctx, nu); err != nil {
		return err
	}
	a.printf("User %q created.\n", nu.Username)
	return nil
}

// DelUser shows the account whose id is the first argument and deletes it
// once the operator confirms.
func (a *App) DelUser(ctx context.Context, args []string) error {
	if len(args) != 1 {
		a.println("Usage: deluser <id>")
		return nil
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q is not a user id", common.ErrValidation, args[0])
	}

	u, err := a.auth.GetUser(ctx, id)
	if err != nil {
		return err
	}
	a.printf("%d  %s  %s, %s, role %s\n", u.ID, u.Username, u.EmployeeName, u.Position, u.Role)
	ok, err := GetYesNo(a.reader, "Delete this user?", a.out)
	if err != nil || !ok {
		return err
	}

	if err := a.auth.DeleteUser(ctx, id); err != nil {
		return err
	}
	a.printf("User %d deleted.\n", id)
	return nil
}

// History prints the latest audit entries of the signed-in operator.
func (a *App) History(ctx context.Context) error {
	s, ok := a.auth.CurrentSession()
	if !ok {
		return fmt.Errorf("%w: sign in first", common.ErrAuthorization)
	}

	entries, err := a.audit.AuditTrail(ctx, s.User.ID, historyLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		a.println("No recorded actions.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tACTION\tTABLE\tRECORD\tDETAILS")
	for _, e := range entries {
		rec := "-"
		if e.RecordID != nil {
			rec = strconv.FormatInt(*e.RecordID, 10)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Timestamp.Local().Format("2006-01-02 15:04"), e.ActionType, e.TableName, rec, e.Details)
	}
	return tw.Flush()
}
