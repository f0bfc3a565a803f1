package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/rainwise/internal/client/client"
	"github.com/dmitrijs2005/rainwise/internal/client/services"
	"github.com/dmitrijs2005/rainwise/internal/common"
	"github.com/dmitrijs2005/rainwise/internal/models"
)

var cityPickerParams = client.ListParams{Page: 1, Limit: 50, SortBy: "name", SortDirection: "ASC"}

// Item kinds accepted by show and delete.
const (
	kindCity     = "city"
	kindGuide    = "guide"
	kindModule   = "module"
	kindQuestion = "question"
	kindUser     = "user"
)

func parseKind(s string) (string, error) {
	switch k := strings.TrimSuffix(strings.ToLower(s), "s"); k {
	case kindGuide, kindModule, kindQuestion, kindUser:
		return k, nil
	case kindCity, "citie":
		return kindCity, nil
	}
	return "", fmt.Errorf("%w: unknown kind %q (city, guide, module, question, user)", common.ErrorValidation, s)
}

func parseKindAndID(args []string) (string, int64, error) {
	if len(args) != 2 {
		return "", 0, fmt.Errorf("%w: expected <kind> <id>", common.ErrorValidation)
	}
	kind, err := parseKind(args[0])
	if err != nil {
		return "", 0, err
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || id <= 0 {
		return "", 0, fmt.Errorf("%w: invalid id %q", common.ErrorValidation, args[1])
	}
	return kind, id, nil
}

// listFlags parses the paging flags shared by the list commands. filters
// maps extra flag names to query keys. Remaining words become the search.
func listFlags(name string, args []string, filters map[string]string) (client.ListParams, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	p := client.ListParams{}
	fs.IntVar(&p.Page, "page", 1, "page number")
	fs.IntVar(&p.Limit, "limit", 10, "page size")
	fs.StringVar(&p.SortBy, "sort", "", "sort field")
	desc := fs.Bool("desc", false, "sort descending")
	fs.StringVar(&p.Search, "search", "", "search text")

	values := make(map[string]*string, len(filters))
	for f := range filters {
		values[f] = fs.String(f, "", f+" filter")
	}

	if err := fs.Parse(args); err != nil {
		return p, fmt.Errorf("%w: %s", common.ErrorValidation, err.Error())
	}
	if p.Search == "" && fs.NArg() > 0 {
		p.Search = strings.Join(fs.Args(), " ")
	}
	switch {
	case *desc:
		p.SortDirection = "DESC"
	case p.SortBy != "":
		p.SortDirection = "ASC"
	}
	for f, v := range values {
		if *v == "" {
			continue
		}
		if p.Filters == nil {
			p.Filters = make(map[string]string)
		}
		p.Filters[filters[f]] = *v
	}
	return p, nil
}

func printFooter(w io.Writer, meta *models.Meta, shown int) {
	if meta == nil {
		fmt.Fprintf(w, "%d item(s)\n", shown)
		return
	}
	pg := meta.Pagination
	fmt.Fprintf(w, "page %d/%d, %d total\n", pg.Page, max(pg.PageCount, 1), pg.Total)
}

func printCities(w io.Writer, res *models.ListResponse[models.City]) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tRAINFALL (mm/yr)")
	for _, c := range res.Data {
		fmt.Fprintf(tw, "%d\t%s\t%g\n", c.ID, c.Name, c.Rainfall)
	}
	tw.Flush()
	printFooter(w, res.Meta, len(res.Data))
}

func (a *App) listCities(ctx context.Context, args []string) error {
	p, err := listFlags("cities", args, nil)
	if err != nil {
		return err
	}
	res, err := a.catalog.Cities.List(ctx, p)
	if err != nil {
		return err
	}
	printCities(a.out, res)
	return nil
}

func (a *App) listGuides(ctx context.Context, args []string) error {
	p, err := listFlags("guides", args, map[string]string{"status": "status", "difficulty": "difficulty", "language": "language"})
	if err != nil {
		return err
	}
	res, err := a.catalog.Guides.List(ctx, p)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDIFFICULTY\tSTATUS\tLANG\tPOINTS")
	for _, g := range res.Data {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n", g.ID, g.Name, g.Difficulty, g.Status, g.Language, g.Points)
	}
	tw.Flush()
	printFooter(a.out, res.Meta, len(res.Data))
	return nil
}

func (a *App) listModules(ctx context.Context, args []string) error {
	p, err := listFlags("modules", args, map[string]string{"guide": "guideId", "status": "status"})
	if err != nil {
		return err
	}
	res, err := a.catalog.Modules.List(ctx, p)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tGUIDE\tORDER\tNAME\tSTATUS\tPOINTS")
	for _, m := range res.Data {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\t%d\n", m.ID, m.GuideID, m.Order, m.Name, m.Status, m.Points)
	}
	tw.Flush()
	printFooter(a.out, res.Meta, len(res.Data))
	return nil
}

func (a *App) listQuestions(ctx context.Context, args []string) error {
	p, err := listFlags("questions", args, map[string]string{"module": "moduleId"})
	if err != nil {
		return err
	}
	res, err := a.catalog.Questions.List(ctx, p)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMODULE\tTYPE\tSTATEMENT")
	for _, q := range res.Data {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", q.ID, q.ModuleID, q.QuestionType, q.Statement)
	}
	tw.Flush()
	printFooter(a.out, res.Meta, len(res.Data))
	return nil
}

func (a *App) listUsers(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("users", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	page := fs.Int("page", 1, "page number")
	size := fs.Int("size", 10, "page size")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s", common.ErrorValidation, err.Error())
	}

	res, err := a.catalog.ListUsers(ctx, *page, *size)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tSTATUS\tCONFIRMED")
	for _, u := range res.Data {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%t\n", u.ID, u.Email, u.Name, u.Role, u.Status, u.EmailConfirmed)
	}
	tw.Flush()
	printFooter(a.out, res.Meta, len(res.Data))
	return nil
}

// show prints one item. Cities are public; every other kind is admin-only
// and goes through the guard here because the kind is only known now.
func (a *App) show(ctx context.Context, args []string) error {
	kind, id, err := parseKindAndID(args)
	if err != nil {
		return err
	}
	route := itemRoute(kind, id)
	if kind != kindCity && !authGuard(ctx, a.sess, a.nav, route, common.RoleAdmin) {
		return nil
	}
	a.nav.Enter(route)

	tw := tabwriter.NewWriter(a.out, 0, 4, 1, ' ', 0)
	defer tw.Flush()

	switch kind {
	case kindCity:
		c, err := a.catalog.Cities.Get(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "ID:\t%d\nName:\t%s\nRainfall:\t%g mm/yr\nLanguage:\t%s\nDescription:\t%s\n",
			c.ID, c.Name, c.Rainfall, c.Language, c.Description)
	case kindGuide:
		g, err := a.catalog.Guides.Get(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "ID:\t%d\nName:\t%s\nDifficulty:\t%s\nDuration:\t%d min\nStatus:\t%s\nLanguage:\t%s\nPoints:\t%d\nDescription:\t%s\n",
			g.ID, g.Name, g.Difficulty, g.EstimatedDuration, g.Status, g.Language, g.Points, g.Description)
	case kindModule:
		m, err := a.catalog.Modules.Get(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "ID:\t%d\nGuide:\t%d\nOrder:\t%d\nName:\t%s\nStatus:\t%s\nPoints:\t%d\nDescription:\t%s\n",
			m.ID, m.GuideID, m.Order, m.Name, m.Status, m.Points, m.Description)
	case kindQuestion:
		q, err := a.catalog.Questions.Get(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "ID:\t%d\nModule:\t%d\nBlock:\t%s\nType:\t%s / %s\nStatement:\t%s\nFeedback:\t%s\n",
			q.ID, q.ModuleID, q.BlockType, q.QuestionType, q.DynamicType, q.Statement, q.Feedback)
	case kindUser:
		u, err := a.catalog.Users.Get(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "ID:\t%d\nEmail:\t%s\nName:\t%s\nRole:\t%s\nStatus:\t%s\nConfirmed:\t%t\n",
			u.ID, u.Email, u.Name, u.Role, u.Status, u.EmailConfirmed)
	}
	return nil
}

func itemRoute(kind string, id int64) string {
	if kind == kindCity {
		return fmt.Sprintf("%s/%d", routeCities, id)
	}
	return fmt.Sprintf("/admin/%ss/%d", kind, id)
}

func (a *App) delete(ctx context.Context, args []string) error {
	kind, id, err := parseKindAndID(args)
	if err != nil {
		return err
	}

	answer, err := getSimpleText(a.reader, fmt.Sprintf("Delete %s %d? Type 'yes' to confirm", kind, id), a.out)
	if err != nil {
		return err
	}
	if answer != "yes" {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}

	var msg string
	switch kind {
	case kindCity:
		msg, err = a.catalog.Cities.Delete(ctx, id)
	case kindGuide:
		msg, err = a.catalog.Guides.Delete(ctx, id)
	case kindModule:
		msg, err = a.catalog.Modules.Delete(ctx, id)
	case kindQuestion:
		msg, err = a.catalog.Questions.Delete(ctx, id)
	case kindUser:
		msg, err = a.catalog.Users.Delete(ctx, id)
	}
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "Deleted"
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) addCity(ctx context.Context, _ []string) error {
	var in services.CityInput
	var err error

	if in.Name, err = getSimpleText(a.reader, "City name", a.out); err != nil {
		return err
	}
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", common.ErrorValidation)
	}
	rainfall, err := GetOptionalInt(a.reader, "Yearly rainfall in mm (empty if unknown)", a.out, 0)
	if err != nil {
		return err
	}
	in.Rainfall = float64(rainfall)
	if in.Description, err = GetMultiline(a.reader, "Description", a.out); err != nil {
		return err
	}

	c, err := a.catalog.Cities.Create(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created city %d (%s)\n", c.ID, c.Name)
	return nil
}
