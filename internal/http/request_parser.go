package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"planner/internal/config"
)

// ParseMonthsAhead reads months_ahead from the query, falling back to def.
// Values outside [0, config.MaxMonthsAhead] are rejected.
func ParseMonthsAhead(query url.Values, def int) (int, error) {
	raw := strings.TrimSpace(query.Get("months_ahead"))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("months_ahead must be an integer, got %q", raw)
	}
	if n < 0 || n > config.MaxMonthsAhead {
		return 0, fmt.Errorf("months_ahead must be between 0 and %d, got %d", config.MaxMonthsAhead, n)
	}
	return n, nil
}
