package demo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cansoftinc/vaadin-on-kotlin/components/database"
	"github.com/cansoftinc/vaadin-on-kotlin/components/logging"
	"github.com/cansoftinc/vaadin-on-kotlin/cookie"
	"github.com/cansoftinc/vaadin-on-kotlin/dataprovider"
	"github.com/cansoftinc/vaadin-on-kotlin/filter"
	"github.com/cansoftinc/vaadin-on-kotlin/session"
)

// LastNameCookie remembers the most recent name filter of a browser.
const LastNameCookie = "vok_last_name"

var (
	visits = session.Key[int]("visits")
	recent = session.NewScoped("recent_searches", func() *Recent { return &Recent{} })
)

// Recent keeps the last few list queries of a session.
type Recent struct {
	Queries []string `json:"queries"`
}

func (r *Recent) add(q string) {
	r.Queries = append([]string{q}, r.Queries...)
	if len(r.Queries) > 5 {
		r.Queries = r.Queries[:5]
	}
}

// API serves /api/persons and /api/visits.
type API struct {
	db       *gorm.DB
	people   *dataprovider.Provider[Person]
	pageSize int
}

func NewAPI(db *gorm.DB, dialect string, pageSize int) (*API, error) {
	p, err := dataprovider.New[Person](db, dataprovider.WithDialect(dialect))
	if err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &API{db: db, people: p, pageSize: pageSize}, nil
}

// Adults returns a view restricted to people of age.
func (a *API) Adults() *dataprovider.Provider[Person] {
	return a.people.WithFilter(personAge.Ge(18))
}

func (a *API) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/persons", a.listPersons)
		r.Post("/persons", a.createPerson)
		r.Get("/visits", a.countVisit)
	})
}

func (a *API) listPersons(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	if _, ok := values["name"]; ok {
		name := values.Get("name")
		var err error
		if name == "" {
			err = cookie.Delete(w, LastNameCookie)
		} else {
			err = cookie.Set(w, LastNameCookie, url.QueryEscape(name), cookie.WithMaxAge(30*24*time.Hour))
		}
		if err != nil {
			logging.Warn(r.Context(), "last name cookie not written", zap.Error(err))
		}
	} else if last, ok := cookie.Value(r, LastNameCookie); ok {
		if name, err := url.QueryUnescape(last); err == nil {
			values.Set("name", name)
		}
	}

	q, err := parseQuery(values, a.pageSize)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if s, ok := session.FromContext(r.Context()); ok {
		query := values.Encode()
		recent.Do(s, func(r *Recent) { r.add(query) })
	}

	provider := a.people
	if values.Get("adults") == "true" {
		provider = a.Adults()
	}
	total, err := provider.Size(r.Context(), q)
	if err != nil {
		a.queryFailed(w, r, err)
		return
	}
	list := make([]Person, 0)
	for p, err := range provider.Fetch(r.Context(), q) {
		if err != nil {
			a.queryFailed(w, r, err)
			return
		}
		list = append(list, p)
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	writeJSON(w, http.StatusOK, list)
}

func (a *API) queryFailed(w http.ResponseWriter, r *http.Request, err error) {
	var unknown dataprovider.UnknownColumnError
	var invalid filter.InvalidColumnError
	if errors.As(err, &unknown) || errors.As(err, &invalid) {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	logging.Error(r.Context(), "person query failed", zap.Error(err))
	writeErr(w, http.StatusInternalServerError, "query failed")
}

type createPersonRequest struct {
	Name     string  `json:"name"`
	Nickname *string `json:"nickname"`
	Age      int     `json:"age"`
}

// createPerson rejects a name that already exists, check and insert in one transaction.
func (a *API) createPerson(w http.ResponseWriter, r *http.Request) {
	var req createPersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.Age < 0 {
		writeErr(w, http.StatusBadRequest, "name required and age must not be negative")
		return
	}
	p, err := database.InTransaction(r.Context(), a.db, func(tx *gorm.DB) (Person, error) {
		var n int64
		if err := tx.Model(&Person{}).Where("name = ?", req.Name).Count(&n).Error; err != nil {
			return Person{}, err
		}
		if n > 0 {
			return Person{}, errDuplicate
		}
		p := Person{Name: req.Name, Nickname: req.Nickname, Age: req.Age}
		return p, tx.Create(&p).Error
	})
	switch {
	case errors.Is(err, errDuplicate):
		writeErr(w, http.StatusConflict, err.Error())
	case err != nil:
		logging.Error(r.Context(), "create person failed", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, "create failed")
	default:
		writeJSON(w, http.StatusCreated, p)
	}
}

var errDuplicate = errors.New("person with this name already exists")

func (a *API) countVisit(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusServiceUnavailable, "sessions disabled")
		return
	}
	n := visits.Update(s, func(old int) int { return old + 1 })
	var queries []string
	recent.Do(s, func(r *Recent) { queries = slices.Clone(r.Queries) })
	writeJSON(w, http.StatusOK, map[string]any{
		"session": s.ID(),
		"visits":  n,
		"recent":  queries,
	})
}

// CountJob logs the number of adults; meant for Executor.ScheduleAtFixedRate.
func (a *API) CountJob(ctx context.Context) error {
	n, err := a.Adults().Size(ctx, dataprovider.Query[Person]{})
	if err != nil {
		return err
	}
	logging.Info(ctx, "person count", zap.Int64("adults", n))
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
