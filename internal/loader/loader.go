// Package loader reads the raw transactions table from disk. Delimited text
// goes through an ordered list of decoding strategies until one yields a
// table that matches the schema; spreadsheets are read with excelize.
package loader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	apperrors "superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/models"
)

const previewLines = 6

var errInvalidUTF8 = errors.New("input is not valid UTF-8")

// Strategy is one way of decoding a delimited file. Decimal is the decimal
// mark of numeric cells and defaults to '.'.
type Strategy struct {
	Name         string
	Comma        rune
	Decimal      rune
	SkipBadLines bool
	decode       func([]byte) (io.Reader, error)
}

func utf8Text(data []byte) (io.Reader, error) {
	if !utf8.Valid(data) {
		return nil, errInvalidUTF8
	}
	return bytes.NewReader(data), nil
}

func latin1Text(data []byte) (io.Reader, error) {
	return charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(data)), nil
}

// DefaultStrategies is the fallback order used unless overridden.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "utf-8", Comma: ',', decode: utf8Text},
		{Name: "latin-1", Comma: ',', decode: latin1Text},
		{Name: "utf-8-skip-bad-lines", Comma: ',', SkipBadLines: true, decode: utf8Text},
		{Name: "utf-8-semicolon", Comma: ';', Decimal: ',', decode: utf8Text},
	}
}

type Loader struct {
	path       string
	strategies []Strategy
	logger     *slog.Logger
	onAttempt  func(strategy string, err error)
	validate   *validator.Validate
}

type Option func(*Loader)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

func WithStrategies(strategies ...Strategy) Option {
	return func(l *Loader) { l.strategies = strategies }
}

// OnAttempt registers a hook called after every strategy attempt with the
// strategy name and its error, nil on success.
func OnAttempt(fn func(strategy string, err error)) Option {
	return func(l *Loader) { l.onAttempt = fn }
}

func New(path string, opts ...Option) *Loader {
	l := &Loader{
		path:       path,
		strategies: DefaultStrategies(),
		logger:     slog.Default(),
		validate:   newValidator(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loader) String() string {
	return l.path
}

// Load reads the whole source. On failure the error is a *DataLoadError.
func (l *Loader) Load(ctx context.Context) ([]models.Transaction, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, &apperrors.DataLoadError{Source: l.path, Cause: err}
	}

	if strings.EqualFold(filepath.Ext(l.path), ".xlsx") {
		rows, err := l.loadWorkbook(data)
		l.attempted("xlsx", err)
		if err != nil {
			return nil, &apperrors.DataLoadError{
				Source:   l.path,
				Attempts: []apperrors.StrategyError{{Strategy: "xlsx", Err: err}},
			}
		}
		return rows, nil
	}

	var attempts []apperrors.StrategyError
	for _, s := range l.strategies {
		if err := ctx.Err(); err != nil {
			return nil, &apperrors.DataLoadError{Source: l.path, Attempts: attempts, Cause: err}
		}

		rows, err := l.loadText(data, s)
		l.attempted(s.Name, err)
		if err == nil {
			return rows, nil
		}
		attempts = append(attempts, apperrors.StrategyError{Strategy: s.Name, Err: err})
	}

	return nil, &apperrors.DataLoadError{
		Source:   l.path,
		Attempts: attempts,
		Preview:  preview(data, previewLines),
	}
}

func (l *Loader) attempted(strategy string, err error) {
	if err != nil {
		l.logger.Warn("load strategy failed", "source", l.path, "strategy", strategy, "error", err)
	} else {
		l.logger.Debug("load strategy succeeded", "source", l.path, "strategy", strategy)
	}
	if l.onAttempt != nil {
		l.onAttempt(strategy, err)
	}
}

func (l *Loader) loadText(data []byte, s Strategy) ([]models.Transaction, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r, err := s.decode(data)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.Comma = s.Comma
	cr.ReuseRecord = true
	if s.SkipBadLines {
		cr.FieldsPerRecord = -1
	}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("source is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	b, err := bind(header, s.Decimal)
	if err != nil {
		return nil, err
	}
	width := len(header)

	var (
		rows    []models.Transaction
		skipped int
	)
	for n := 1; ; n++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if s.SkipBadLines && errors.As(err, &pe) {
				skipped++
				continue
			}
			return nil, fmt.Errorf("read row %d: %w", n, err)
		}
		if s.SkipBadLines && len(record) != width {
			skipped++
			continue
		}

		tx, err := l.row(b, n, record)
		if err != nil {
			return nil, err
		}
		rows = append(rows, tx)
	}

	if skipped > 0 {
		l.logger.Warn("skipped malformed lines", "source", l.path, "strategy", s.Name, "skipped", skipped)
	}
	return rows, nil
}

func (l *Loader) row(b *binding, n int, record []string) (models.Transaction, error) {
	tx, err := b.decode(n, record)
	if err != nil {
		return models.Transaction{}, err
	}
	if err := checkConstraints(l.validate, n, tx); err != nil {
		return models.Transaction{}, err
	}
	return tx, nil
}

// loadWorkbook reads the first sheet that has a header row.
func (l *Loader) loadWorkbook(data []byte) ([]models.Transaction, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		records, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if len(records) == 0 || len(records[0]) == 0 {
			continue
		}

		b, err := bind(records[0], '.')
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet, err)
		}
		rows := make([]models.Transaction, 0, len(records)-1)
		for i, record := range records[1:] {
			tx, err := l.row(b, i+1, record)
			if err != nil {
				return nil, err
			}
			tx.OrderDate = serialDate(tx.OrderDate)
			tx.ShipDate = serialDate(tx.ShipDate)
			rows = append(rows, tx)
		}
		return rows, nil
	}
	return nil, errors.New("workbook has no sheet with a header row")
}

// serialDate converts a spreadsheet date serial to an ISO date. Any other
// value is returned unchanged.
func serialDate(v string) string {
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return v
	}
	return t.Format(time.DateOnly)
}

// preview returns the first n lines of data with invalid bytes replaced.
func preview(data []byte, n int) []string {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for len(lines) < n && sc.Scan() {
		lines = append(lines, strings.ToValidUTF8(sc.Text(), "\uFFFD"))
	}
	return lines
}
