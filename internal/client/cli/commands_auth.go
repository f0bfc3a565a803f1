package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/rainwise/internal/client/session"
	"github.com/dmitrijs2005/rainwise/internal/common"
	"github.com/dmitrijs2005/rainwise/internal/models"
)

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// login prompts for credentials and signs in. After the manager has sent
// the user to their role's landing route, a return URL saved by a guard
// takes precedence.
func (a *App) login(ctx context.Context, args []string) error {
	email := firstArg(args)
	if email == "" {
		var err error
		if email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
			return err
		}
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	id, err := a.auth.Login(ctx, email, string(password))
	if err != nil {
		a.log.Debug(ctx, "login failed", "error", err)
		return err
	}

	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", id.Email, id.Role)
	if ret := a.nav.TakeReturnURL(); ret != "" && ret != session.RouteHome {
		a.nav.Navigate(ctx, session.Redirect{Route: ret})
	}
	return nil
}

func (a *App) logout(ctx context.Context, _ []string) error {
	a.auth.Logout(ctx)
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

// register prompts for the account details. The city list is public, so
// it is offered when the API answers.
func (a *App) register(ctx context.Context, _ []string) error {
	var req models.RegisterRequest
	var err error

	if req.Name, err = getSimpleText(a.reader, "Enter your name", a.out); err != nil {
		return err
	}
	if req.Email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	req.Password = string(password)

	if a.catalog != nil {
		if cities, err := a.catalog.Cities.List(ctx, cityPickerParams); err == nil && len(cities.Data) > 0 {
			printCities(a.out, cities)
		}
	}
	if req.CityID, err = GetOptionalInt(a.reader, "City ID (empty to skip)", a.out, 0); err != nil {
		return err
	}
	if req.Language, err = getSimpleText(a.reader, "Language (en/es, default es)", a.out); err != nil {
		return err
	}

	res, err := a.auth.Register(ctx, req)
	if err != nil {
		return err
	}
	if res.Message != "" {
		fmt.Fprintln(a.out, res.Message)
	}
	return nil
}

func (a *App) confirm(ctx context.Context, args []string) error {
	token := firstArg(args)
	if token == "" {
		var err error
		if token, err = getSimpleText(a.reader, "Enter confirmation token", a.out); err != nil {
			return err
		}
	}
	if err := a.auth.ConfirmEmail(ctx, token); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Email confirmed. You can sign in now.")
	return nil
}

func (a *App) whoami(_ context.Context, _ []string) error {
	u := a.auth.WhoAmI()
	if u == nil {
		fmt.Fprintln(a.out, "Not signed in")
		return nil
	}
	fmt.Fprintf(a.out, "ID:    %d\nName:  %s\nEmail: %s\nRole:  %s\n", u.ID, u.Name, u.Email, u.Role)
	if u.CityID != nil {
		fmt.Fprintf(a.out, "City:  %d\n", *u.CityID)
	}
	return nil
}

// status never triggers a refresh.
func (a *App) status(ctx context.Context, _ []string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "State: %s\n", a.sess.State())
	if u := a.sess.CurrentUser(); u != nil {
		fmt.Fprintf(&b, "User:  %s (%s)\n", u.Email, u.Role)
		fmt.Fprintf(&b, "Token: %s\n", validity(a.sess.IsAuthenticatedSilent(ctx)))
	}
	fmt.Fprintf(&b, "Route: %s\n", a.nav.Current())
	if m := a.Mode(); m != "" {
		fmt.Fprintf(&b, "API:   %s\n", m)
	}
	fmt.Fprint(a.out, b.String())
	return nil
}

func validity(ok bool) string {
	if ok {
		return "valid"
	}
	return "expired"
}
