// Package http exposes the budgeting API over net/http.
//
// This file holds the request-side helpers: JSON body decoding with a size
// cap, path ids and the year/month parameters of the dashboard.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"budgettracker/internal/core"
)

// MaxBodyBytes caps every request body.
const MaxBodyBytes = 1 << 20

// requestError is a client error detected before reaching a service.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string {
	return e.msg
}

func badRequest(format string, args ...any) *requestError {
	return &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

// decodeJSON reads the request body into dst. An empty body leaves dst
// untouched so that required-field validation reports what is missing.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(body)

	err := dec.Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var (
		maxErr    *http.MaxBytesError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &maxErr):
		return &requestError{status: http.StatusRequestEntityTooLarge, msg: "request body too large"}
	case errors.As(err, &syntaxErr):
		return badRequest("JSON parse error - %s", syntaxErr.Error())
	case errors.As(err, &typeErr):
		if typeErr.Field != "" {
			return badRequest("JSON parse error - invalid value for field %q", typeErr.Field)
		}
		return badRequest("JSON parse error - expected an object")
	case errors.Is(err, io.ErrUnexpectedEOF):
		return badRequest("JSON parse error - unexpected end of input")
	}
	return badRequest("JSON parse error - %s", err.Error())
}

// pathID parses the {id} path value. Ids that are not positive integers
// cannot name a record, so they are reported as not found.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, &requestError{status: http.StatusNotFound, msg: msgNotFound}
	}
	return id, nil
}

// MonthParams holds the year and month of a request.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams reads year and month from query parameters, using the
// current month for missing values. Non-integer values fail.
func ParseMonthParams(query url.Values) (MonthParams, error) {
	now := core.CurrentYearMonth()
	params := MonthParams{Year: now.Year, Month: int(now.Month)}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return MonthParams{}, core.ErrInvalidPeriod
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return MonthParams{}, core.ErrInvalidPeriod
		}
		params.Month = m
	}
	return params, nil
}

// YearMonth converts the params, validating the range.
func (p MonthParams) YearMonth() (core.YearMonth, error) {
	ym := core.NewYearMonth(p.Year, p.Month)
	if err := ym.Validate(); err != nil {
		return core.YearMonth{}, err
	}
	return ym, nil
}

// parsePathMonth reads {year}/{month} path values. ok is false when either
// segment is not an integer.
func parsePathMonth(r *http.Request) (year, month int, ok bool) {
	year, yerr := strconv.Atoi(r.PathValue("year"))
	month, merr := strconv.Atoi(r.PathValue("month"))
	return year, month, yerr == nil && merr == nil
}

// bearerToken extracts the token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
