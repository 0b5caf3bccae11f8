package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// dashboardHistoryRows is how many recent samples the dashboard table shows.
const dashboardHistoryRows = 20

// parseHistoryLimit reads ?limit. Absent means the whole window (0).
func parseHistoryLimit(r *http.Request, capacity int) (int, error) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid 'limit' (expected integer)")
	}
	if n <= 0 {
		return 0, errors.New("'limit' must be > 0")
	}
	if n > capacity {
		return 0, fmt.Errorf("'limit' must be <= %d", capacity)
	}
	return n, nil
}
