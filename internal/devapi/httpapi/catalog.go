package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/rainwise/internal/common"
	"github.com/dmitrijs2005/rainwise/internal/devapi/repositories/catalog"
	"github.com/dmitrijs2005/rainwise/internal/devapi/services"
	"github.com/dmitrijs2005/rainwise/internal/models"
	"github.com/go-chi/chi/v5"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// collection serves list, get, create, update and delete for one catalog
// collection. filters names the query parameters passed through as
// equality filters.
type collection[T any, I services.Input[T]] struct {
	h       *Handlers
	c       services.Collection[T, I]
	noun    string
	filters []string
}

// mount registers the routes on r. Writes go through guard when it is set.
func (c collection[T, I]) mount(r chi.Router, guard ...Middleware) {
	r.Get("/", c.list)
	r.Get("/{id}", c.get)
	r.Group(func(r chi.Router) {
		for _, m := range guard {
			r.Use(m)
		}
		r.Post("/", c.create)
		r.Put("/{id}", c.update)
		r.Delete("/{id}", c.delete)
	})
}

func (c collection[T, I]) list(w http.ResponseWriter, r *http.Request) {
	q, err := listQuery(r, c.filters)
	if err != nil {
		c.h.fail(w, r, err)
		return
	}
	items, total, err := c.c.List(r.Context(), q)
	if err != nil {
		c.h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ListResponse[T]{
		Data: items,
		Meta: &models.Meta{Pagination: models.NewPagination(q.Page, q.Limit, total)},
	})
}

func (c collection[T, I]) get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		c.h.fail(w, r, err)
		return
	}
	rec, err := c.c.Get(r.Context(), id)
	if err != nil {
		c.h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.DataResponse[T]{Data: rec})
}

func (c collection[T, I]) create(w http.ResponseWriter, r *http.Request) {
	var in I
	if err := decodeStrict(w, r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, msgMalformedBody)
		return
	}
	rec, err := c.c.Create(r.Context(), in)
	if err != nil {
		c.h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.DataResponse[T]{Message: c.noun + " created", Data: rec})
}

func (c collection[T, I]) update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		c.h.fail(w, r, err)
		return
	}
	var in I
	if err := decodeStrict(w, r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, msgMalformedBody)
		return
	}
	rec, err := c.c.Update(r.Context(), id, in)
	if err != nil {
		c.h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.DataResponse[T]{Message: c.noun + " updated", Data: rec})
}

func (c collection[T, I]) delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		c.h.fail(w, r, err)
		return
	}
	if err := c.c.Delete(r.Context(), id); err != nil {
		c.h.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, c.noun+" deleted")
}

// listQuery reads page, limit, sortBy, sortDirection, search and the
// allowed filters from the URL.
func listQuery(r *http.Request, filters []string) (catalog.Query, error) {
	page, err := intParam(r, "page", 1)
	if err != nil {
		return catalog.Query{}, err
	}
	limit, err := intParam(r, "limit", defaultLimit)
	if err != nil {
		return catalog.Query{}, err
	}
	v := r.URL.Query()
	q := catalog.Query{
		Page:   page,
		Limit:  min(limit, maxLimit),
		SortBy: v.Get("sortBy"),
		Search: strings.TrimSpace(v.Get("search")),
	}
	switch strings.ToUpper(v.Get("sortDirection")) {
	case "", "ASC":
	case "DESC":
		q.Desc = true
	default:
		return catalog.Query{}, invalidParam("sortDirection")
	}
	for _, f := range filters {
		if val := v.Get(f); val != "" {
			if q.Filters == nil {
				q.Filters = make(map[string]string)
			}
			q.Filters[f] = val
		}
	}
	return q, nil
}

func invalidParam(name string) error {
	return fmt.Errorf("%w: invalid %s", common.ErrorValidation, name)
}
