package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/starfederation/datastar-go/datastar"

	apperrors "superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/services"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// filterParams is the filter as it arrives over the wire, from query
// parameters or from Datastar signals.
type filterParams struct {
	From       string   `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To         string   `json:"to" validate:"omitempty,datetime=2006-01-02"`
	Regions    []string `json:"regions" validate:"max=100,dive,max=200"`
	Categories []string `json:"categories" validate:"max=100,dive,max=200"`
	Segments   []string `json:"segments" validate:"max=100,dive,max=200"`
}

type extremumParams struct {
	Dimension string `validate:"required"`
	Metric    string `validate:"required"`
	Mode      string `validate:"omitempty,oneof=max min"`
}

// splitValues accepts repeated parameters and comma separated lists.
func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// selection keeps an explicitly empty list apart from an absent one, so a
// control with every option cleared selects no rows.
func selection(values []string) []string {
	if values == nil {
		return nil
	}
	if out := splitValues(values); out != nil {
		return out
	}
	return []string{}
}

func paramsFromQuery(r *http.Request) filterParams {
	q := r.URL.Query()
	return filterParams{
		From:       strings.TrimSpace(q.Get("from")),
		To:         strings.TrimSpace(q.Get("to")),
		Regions:    selection(q["region"]),
		Categories: selection(q["category"]),
		Segments:   selection(q["segment"]),
	}
}

func (p filterParams) filter() (services.Filter, error) {
	if err := validate.Struct(p); err != nil {
		return services.Filter{}, validationError(err)
	}

	var f services.Filter
	var err error
	if p.From != "" {
		if f.From, err = time.Parse(time.DateOnly, p.From); err != nil {
			return services.Filter{}, apperrors.ValidationWrap(err, "invalid from date")
		}
	}
	if p.To != "" {
		if f.To, err = time.Parse(time.DateOnly, p.To); err != nil {
			return services.Filter{}, apperrors.ValidationWrap(err, "invalid to date")
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return services.Filter{}, apperrors.Validation("to date is before from date")
	}

	f.Regions = selection(p.Regions)
	f.Categories = selection(p.Categories)
	f.Segments = selection(p.Segments)
	return f, nil
}

// FilterFromQuery reads from, to, region, category and segment. A set
// parameter that is present but blank selects nothing.
func FilterFromQuery(r *http.Request) (services.Filter, error) {
	return paramsFromQuery(r).filter()
}

// FilterFromSignals reads the filter signals sent by the dashboard page.
func FilterFromSignals(r *http.Request) (services.Filter, error) {
	var p filterParams
	if err := datastar.ReadSignals(r, &p); err != nil {
		return services.Filter{}, apperrors.BadRequestWrap(err, "invalid signals")
	}
	return p.filter()
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.ValidationWrap(err, "invalid parameters")
	}
	fe := fieldErrs[0]
	msg := fmt.Sprintf("invalid %s: must satisfy %s", strings.ToLower(fe.Field()), fe.Tag())
	if fe.Param() != "" {
		msg += "=" + fe.Param()
	}
	return apperrors.ValidationWrap(err, msg)
}
