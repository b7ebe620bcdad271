package loader

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	apperrors "superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/models"
)

type column struct {
	name     string
	required bool
	assign   func(tx *models.Transaction, value string, decimal rune) error
}

var (
	errNotNumber = errors.New("not a number")
	errNotFinite = errors.New("not a finite number")
)

func text(set func(*models.Transaction, string)) func(*models.Transaction, string, rune) error {
	return func(tx *models.Transaction, v string, _ rune) error {
		set(tx, v)
		return nil
	}
}

// normalizeNumber rewrites v into Go float syntax. With a comma decimal
// mark the dot groups thousands, otherwise the comma does. Grouped digits
// must come in threes so "261,96" is never read as 26196. A value with no
// comma in a comma-decimal source is taken as written.
func normalizeNumber(v string, decimal rune) (string, error) {
	group := ","
	if decimal == ',' {
		if !strings.ContainsRune(v, ',') {
			return v, nil
		}
		group = "."
	}

	whole, frac, hasFrac := strings.Cut(v, string(decimal))
	if strings.Contains(frac, group) || strings.ContainsRune(frac, decimal) {
		return "", errNotNumber
	}
	if strings.Contains(whole, group) {
		groups := strings.Split(strings.TrimLeft(whole, "+-"), group)
		if len(groups[0]) == 0 || len(groups[0]) > 3 {
			return "", errNotNumber
		}
		for _, g := range groups[1:] {
			if len(g) != 3 {
				return "", errNotNumber
			}
		}
		whole = strings.ReplaceAll(whole, group, "")
	}
	if hasFrac {
		return whole + "." + frac, nil
	}
	return whole, nil
}

func parseNumber(v string, decimal rune) (float64, error) {
	n, err := normalizeNumber(v, decimal)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(n, 64)
	if err != nil {
		return 0, errNotNumber
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	return f, nil
}

func number(set func(*models.Transaction, float64)) func(*models.Transaction, string, rune) error {
	return func(tx *models.Transaction, v string, decimal rune) error {
		f, err := parseNumber(v, decimal)
		if err != nil {
			return err
		}
		set(tx, f)
		return nil
	}
}

func integer(set func(*models.Transaction, int)) func(*models.Transaction, string, rune) error {
	return func(tx *models.Transaction, v string, decimal rune) error {
		n, err := normalizeNumber(v, decimal)
		if err != nil {
			return err
		}
		i, err := strconv.Atoi(n)
		if err != nil {
			return errNotNumber
		}
		set(tx, i)
		return nil
	}
}

// columns is the source schema in the conventional column order.
var columns = []column{
	{"Row ID", false, text(func(t *models.Transaction, v string) { t.RowID = v })},
	{"Order ID", true, text(func(t *models.Transaction, v string) { t.OrderID = v })},
	{"Order Date", true, text(func(t *models.Transaction, v string) { t.OrderDate = v })},
	{"Ship Date", true, text(func(t *models.Transaction, v string) { t.ShipDate = v })},
	{"Ship Mode", false, text(func(t *models.Transaction, v string) { t.ShipMode = v })},
	{"Customer ID", true, text(func(t *models.Transaction, v string) { t.CustomerID = v })},
	{"Customer Name", true, text(func(t *models.Transaction, v string) { t.CustomerName = v })},
	{"Segment", true, text(func(t *models.Transaction, v string) { t.Segment = v })},
	{"Country", false, text(func(t *models.Transaction, v string) { t.Country = v })},
	{"City", false, text(func(t *models.Transaction, v string) { t.City = v })},
	{"State", false, text(func(t *models.Transaction, v string) { t.State = v })},
	{"Postal Code", false, text(func(t *models.Transaction, v string) { t.PostalCode = v })},
	{"Region", true, text(func(t *models.Transaction, v string) { t.Region = v })},
	{"Product ID", false, text(func(t *models.Transaction, v string) { t.ProductID = v })},
	{"Category", true, text(func(t *models.Transaction, v string) { t.Category = v })},
	{"Sub-Category", true, text(func(t *models.Transaction, v string) { t.SubCategory = v })},
	{"Product Name", true, text(func(t *models.Transaction, v string) { t.ProductName = v })},
	{"Sales", true, number(func(t *models.Transaction, v float64) { t.Sales = v })},
	{"Quantity", true, integer(func(t *models.Transaction, v int) { t.Quantity = v })},
	{"Discount", true, number(func(t *models.Transaction, v float64) { t.Discount = v })},
	{"Profit", true, number(func(t *models.Transaction, v float64) { t.Profit = v })},
}

// RequiredColumns lists the columns a source must provide.
func RequiredColumns() []string {
	var names []string
	for _, c := range columns {
		if c.required {
			names = append(names, c.name)
		}
	}
	return names
}

// normalizeHeader folds case and drops everything but letters and digits,
// so "Sub-Category", "sub_category" and "Sub Category" compare equal.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	var b strings.Builder
	for _, r := range h {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// binding maps schema columns to positions in one source header.
type binding struct {
	index   []int // index[i] is the source position of columns[i], or -1
	decimal rune
}

// bind matches header against the schema. decimal is the decimal mark of
// numeric cells, '.' when zero.
func bind(header []string, decimal rune) (*binding, error) {
	if decimal == 0 {
		decimal = '.'
	}
	positions := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, dup := positions[key]; !dup {
			positions[key] = i
		}
	}

	b := &binding{index: make([]int, len(columns)), decimal: decimal}
	var missing []string
	for i, c := range columns {
		pos, ok := positions[normalizeHeader(c.name)]
		if !ok {
			b.index[i] = -1
			if c.required {
				missing = append(missing, c.name)
			}
			continue
		}
		b.index[i] = pos
	}

	if len(missing) > 0 {
		return nil, &apperrors.SchemaMismatchError{Missing: missing}
	}
	return b, nil
}

// decode converts one record. row is the 1-based data row used in errors.
func (b *binding) decode(row int, record []string) (models.Transaction, error) {
	var tx models.Transaction
	for i, c := range columns {
		pos := b.index[i]
		if pos < 0 || pos >= len(record) {
			continue
		}
		value := strings.TrimSpace(record[pos])
		if err := c.assign(&tx, value, b.decimal); err != nil {
			reason := errNotNumber.Error()
			if errors.Is(err, errNotFinite) {
				reason = errNotFinite.Error()
			}
			return models.Transaction{}, &apperrors.SchemaMismatchError{
				Column: c.name,
				Row:    row,
				Value:  value,
				Reason: reason,
			}
		}
	}
	return tx, nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func checkConstraints(v *validator.Validate, row int, tx models.Transaction) error {
	err := v.Struct(tx)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate row %d: %w", row, err)
	}
	fe := fieldErrs[0]
	return &apperrors.SchemaMismatchError{
		Column: fe.Field(),
		Row:    row,
		Value:  fmt.Sprint(fe.Value()),
		Reason: fmt.Sprintf("constraint %s", constraintText(fe)),
	}
}

func constraintText(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}
