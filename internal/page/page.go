// Package page provides parsing and validation for query paging values.
package page

import (
	"fmt"
	"strconv"
)

// Page represents a 1-based page request.
type Page struct {
	Number int
	Rows   int
}

// Parse converts raw query values into a Page, filling in defaults when the
// values are absent.
func Parse(pageNumber string, rowsPerPage string) (Page, error) {
	number := 1
	rows := 10

	if pageNumber != "" {
		var err error
		number, err = strconv.Atoi(pageNumber)
		if err != nil {
			return Page{}, fmt.Errorf("converting page number: %w", err)
		}
	}

	if rowsPerPage != "" {
		var err error
		rows, err = strconv.Atoi(rowsPerPage)
		if err != nil {
			return Page{}, fmt.Errorf("converting rows per page: %w", err)
		}
	}

	if number <= 0 {
		return Page{}, fmt.Errorf("%d, value too small, must be greater than 0", number)
	}

	if rows <= 0 {
		return Page{}, fmt.Errorf("%d, value too small, must be greater than 0", rows)
	}

	if rows > 100 {
		return Page{}, fmt.Errorf("%d, value too big, must be less than or equal 100", rows)
	}

	return Page{Number: number, Rows: rows}, nil
}

// Offset returns the number of rows to skip for this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Rows
}
