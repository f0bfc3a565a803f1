package cli

import (
	"github.com/dmitrijs2005/rainwise/internal/client/session"
	"github.com/dmitrijs2005/rainwise/internal/common"
)

const (
	routeConfirmEmail = "/auth/confirm-email"
	routeProfile      = "/profile"
	routeCities       = "/cities"
	routeCalculator   = "/calculator"
	routeAdminGuides  = "/admin/guides"
	routeAdminModules = "/admin/modules"
	routeAdminQuest   = "/admin/questions"
	routeAdminCities  = "/admin/cities"
)

func (a *App) registerCommands() {
	a.addCommand(&command{name: "login", usage: "[email]", summary: "sign in",
		route: session.RouteSignIn, vis: visSignedOut, guard: a.requireAnon(), run: a.login})
	a.addCommand(&command{name: "register", summary: "create an account",
		route: session.RouteSignUp, vis: visSignedOut, guard: a.requireAnon(), run: a.register})
	a.addCommand(&command{name: "confirm", usage: "[token]", summary: "confirm your email address",
		route: routeConfirmEmail, vis: visSignedOut, run: a.confirm})
	a.addCommand(&command{name: "whoami", summary: "show the signed-in user",
		route: routeProfile, vis: visSignedIn, guard: a.requireAuth(), run: a.whoami})
	a.addCommand(&command{name: "status", summary: "show session state",
		vis: visAlways, run: a.status})

	a.addCommand(&command{name: "cities", usage: "[-page n] [-limit n] [-sort f] [-desc] [search]", summary: "list cities",
		route: routeCities, vis: visAlways, run: a.listCities})
	a.addCommand(&command{name: "guides", usage: "[list flags] [-status s] [-difficulty d]", summary: "list guides",
		route: routeAdminGuides, vis: visSignedIn, guard: a.requireAuth(common.RoleAdmin), run: a.listGuides})
	a.addCommand(&command{name: "modules", usage: "[list flags] [-guide id] [-status s]", summary: "list modules",
		route: routeAdminModules, vis: visSignedIn, guard: a.requireAuth(common.RoleAdmin), run: a.listModules})
	a.addCommand(&command{name: "questions", usage: "[list flags] [-module id]", summary: "list questions",
		route: routeAdminQuest, vis: visSignedIn, guard: a.requireAuth(common.RoleAdmin), run: a.listQuestions})
	a.addCommand(&command{name: "users", usage: "[-page n] [-size n]", summary: "list users",
		route: session.RouteAdminUsers, vis: visSignedIn, guard: a.requireAuth(common.RoleAdmin), run: a.listUsers})
	a.addCommand(&command{name: "show", usage: "<kind> <id>", summary: "show one city, guide, module, question or user",
		vis: visAlways, run: a.show})
	a.addCommand(&command{name: "addcity", summary: "create a city",
		route: routeAdminCities, vis: visSignedIn, guard: a.requireAuth(common.RoleAdmin), run: a.addCity})
	a.addCommand(&command{name: "delete", aliases: []string{"rm"}, usage: "<kind> <id>", summary: "delete an item",
		vis: visSignedIn, guard: a.requireAuth(common.RoleAdmin), run: a.delete})

	a.addCommand(&command{name: "calc", usage: "-area m2 [-region r | -city id | -rainfall mm] [-method m] [-efficiency pct]",
		summary: "estimate yearly rainwater harvest",
		route:   routeCalculator, vis: visSignedIn, guard: a.requireAuth(common.RoleCitizen, common.RoleAdmin), run: a.calculate})

	a.addCommand(&command{name: "logout", summary: "sign out",
		vis: visSignedIn, run: a.logout})
}
