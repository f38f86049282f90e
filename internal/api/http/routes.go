package httpapi

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weerlive-forecast/internal/common"
	"github.com/i474232898/weerlive-forecast/internal/export"
	"github.com/i474232898/weerlive-forecast/internal/store"
	"github.com/i474232898/weerlive-forecast/internal/weather"
)

var validate = validator.New()

// NewApp creates the Fiber app with the JSON codec and centralized error
// responses shared by every route.
func NewApp(name string) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               name,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          ErrorHandler,
	})
}

// ErrorHandler renders every error as a JSON body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/locations", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"locations": service.Locations()})
	})

	v1.Get("/session", func(c *fiber.Ctx) error {
		ds, err := service.Latest()
		if err != nil {
			return serviceError(err)
		}
		return c.JSON(newSessionSummary(ds, true))
	})

	v1.Get("/sessions", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		datasets, err := service.Sessions(req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no forecast sessions for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch forecast sessions")
		}

		sessions := make([]sessionSummary, 0, len(datasets))
		for _, ds := range datasets {
			sessions = append(sessions, newSessionSummary(ds, false))
		}
		return c.JSON(fiber.Map{
			"from":     req.From,
			"to":       req.To,
			"sessions": sessions,
		})
	})

	v1.Get("/hours", func(c *fiber.Ctx) error {
		q, err := parseHourQuery(c, service)
		if err != nil {
			return err
		}
		view, err := service.SelectHour(weather.Selection{Locations: q.locationIDs()})
		if err != nil && !errors.Is(err, weather.ErrEmptySchedule) {
			return serviceError(err)
		}
		return c.JSON(fiber.Map{
			"hour":      optional(view.Hour),
			"available": view.Available,
		})
	})

	v1.Get("/hourly", func(c *fiber.Ctx) error {
		q, err := parseHourQuery(c, service)
		if err != nil {
			return err
		}
		view, err := service.SelectHour(weather.Selection{Locations: q.locationIDs(), Hour: q.Hour})
		if err != nil && !errors.Is(err, weather.ErrEmptySchedule) {
			return serviceError(err)
		}
		// An empty schedule is a valid state: the client shows a placeholder.
		return c.JSON(hourlyResponse{
			Hour:      optional(view.Hour),
			Requested: view.Requested,
			Available: view.Available,
			Rows:      view.Rows,
			Empty:     errors.Is(err, weather.ErrEmptySchedule),
		})
	})

	v1.Get("/daily", func(c *fiber.Ctx) error {
		loc, err := parseLocation(c, service, false)
		if err != nil {
			return err
		}
		daily, err := service.Daily(loc)
		if err != nil {
			return serviceError(err)
		}
		return c.JSON(fiber.Map{"daily": daily})
	})

	v1.Get("/trend", func(c *fiber.Ctx) error {
		q := trendQuery{
			Locations: common.SplitList(c.Query("locations")),
			Field:     c.Query("field", string(weather.FieldTemperatureSeries)),
			Date:      c.Query("date"),
		}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		field, err := weather.ParseField(q.Field)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		locs := toLocationIDs(q.Locations)
		if err := service.ValidateLocations(locs); err != nil {
			return serviceError(err)
		}

		series, err := service.Trend(locs, q.Date, field)
		if err != nil {
			return serviceError(err)
		}
		return c.JSON(fiber.Map{"series": series})
	})

	v1.Get("/live", func(c *fiber.Ctx) error {
		loc, err := parseLocation(c, service, false)
		if err != nil {
			return err
		}
		live, err := service.Live(loc)
		if err != nil {
			return serviceError(err)
		}
		return c.JSON(fiber.Map{"live": live})
	})

	v1.Get("/summary", func(c *fiber.Ctx) error {
		loc, err := parseLocation(c, service, true)
		if err != nil {
			return err
		}
		summary, err := service.Summary(loc, time.Time{})
		if err != nil {
			return serviceError(err)
		}
		return c.JSON(summary)
	})

	v1.Get("/export.xlsx", func(c *fiber.Ctx) error {
		ds, err := service.Latest()
		if err != nil {
			return serviceError(err)
		}
		data, err := export.Workbook(ds)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to build workbook")
		}
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="forecast-%s.xlsx"`, ds.FetchedAt.Format("20060102-1504")))
		return c.Send(data)
	})
}

// serviceError maps service errors onto HTTP errors.
func serviceError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "no forecast available yet")
	case errors.Is(err, weather.ErrUnknownLocation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to read forecast")
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type hourlyResponse struct {
	Hour      *string           `json:"hour"`
	Requested string            `json:"requested,omitempty"`
	Available []string          `json:"available"`
	Rows      []weather.HourRow `json:"rows"`
	Empty     bool              `json:"empty"`
}

type sessionSummary struct {
	SessionID   string                  `json:"sessionId"`
	FetchedAt   time.Time               `json:"fetchedAt"`
	Locations   []weather.LocationID    `json:"locations"`
	Unavailable []weather.LocationID    `json:"unavailable"`
	Rows        int                     `json:"rows"`
	Stats       *weather.NormalizeStats `json:"stats,omitempty"`
}

func newSessionSummary(ds *weather.Dataset, withStats bool) sessionSummary {
	s := sessionSummary{
		SessionID:   ds.SessionID.String(),
		FetchedAt:   ds.FetchedAt,
		Locations:   ds.Locations,
		Unavailable: ds.Raw.Unavailable,
		Rows:        len(ds.Table.Rows),
	}
	if s.Unavailable == nil {
		s.Unavailable = []weather.LocationID{}
	}
	if withStats {
		stats := ds.Table.Stats
		s.Stats = &stats
	}
	return s
}

// hourQuery holds query parameters for the hour selection endpoints.
type hourQuery struct {
	Locations []string `validate:"dive,required,max=64"`
	Hour      string   `validate:"omitempty,datetime=15:04"`
}

func (q hourQuery) locationIDs() []weather.LocationID {
	return toLocationIDs(q.Locations)
}

func parseHourQuery(c *fiber.Ctx, service *weather.Service) (hourQuery, error) {
	q := hourQuery{
		Locations: common.SplitList(c.Query("locations")),
		Hour:      c.Query("hour"),
	}
	if err := validate.Struct(q); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := service.ValidateLocations(q.locationIDs()); err != nil {
		return q, serviceError(err)
	}
	return q, nil
}

// trendQuery holds query parameters for the trend endpoint.
type trendQuery struct {
	Locations []string `validate:"dive,required,max=64"`
	Field     string   `validate:"required,oneof=temperature precipitation irradiance"`
	Date      string   `validate:"omitempty,datetime=2006-01-02"`
}

// locationQuery holds the single location parameter.
type locationQuery struct {
	Location string `validate:"max=64"`
}

func parseLocation(c *fiber.Ctx, service *weather.Service, required bool) (weather.LocationID, error) {
	q := locationQuery{Location: c.Query("location")}
	if err := validate.Struct(q); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if q.Location == "" {
		if required {
			return "", fiber.NewError(fiber.StatusBadRequest, "location query parameter is required")
		}
		return "", nil
	}
	loc := weather.LocationID(q.Location)
	if err := service.ValidateLocations([]weather.LocationID{loc}); err != nil {
		return "", serviceError(err)
	}
	return loc, nil
}

func toLocationIDs(names []string) []weather.LocationID {
	out := make([]weather.LocationID, 0, len(names))
	for _, n := range names {
		out = append(out, weather.LocationID(n))
	}
	return out
}

// historyQuery holds query parameters for the sessions endpoint.
type historyQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
