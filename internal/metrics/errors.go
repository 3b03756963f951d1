package metrics

import "errors"

var (
	// ErrSheetNotFound is returned when a requested title is absent upstream.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrNoValidData is returned when every row of a sheet failed validation.
	ErrNoValidData = errors.New("no valid data found in sheet")
	// ErrRateLimited is returned when the spreadsheet source throttled us.
	ErrRateLimited = errors.New("rate limit exceeded, please try again later")
)
