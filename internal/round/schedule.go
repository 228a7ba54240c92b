package round

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/geoguess-service/internal/domain"
)

// Schedule maps a layer kind to the round at which it is revealed. Kinds
// absent from the schedule are only revealed when the round finishes.
type Schedule map[domain.LayerKind]int

// DefaultSchedule reveals rivers first, then cities, terrain, and finally
// roads together with the true outline.
func DefaultSchedule() Schedule {
	return Schedule{
		domain.LayerRivers:    1,
		domain.LayerCities:    2,
		domain.LayerElevation: 3,
		domain.LayerRoads:     4,
		domain.LayerOutline:   4,
	}
}

// ParseSchedule parses "kind:round" pairs separated by commas,
// e.g. "outline:1,rivers:2".
func ParseSchedule(s string) (Schedule, error) {
	sched := make(Schedule)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, num, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("schedule entry %q: want kind:round", pair)
		}
		kind, err := domain.ParseLayerKind(name)
		if err != nil {
			return nil, fmt.Errorf("schedule entry %q: %w", pair, err)
		}
		n, err := strconv.Atoi(strings.TrimSpace(num))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("schedule entry %q: round must be a positive integer", pair)
		}
		sched[kind] = n
	}
	if len(sched) == 0 {
		return nil, fmt.Errorf("empty schedule")
	}
	return sched, nil
}

// Through returns the kinds revealed at or before round, in canonical order.
func (s Schedule) Through(round int) []domain.LayerKind {
	set := make(map[domain.LayerKind]bool)
	for kind, at := range s {
		if at <= round {
			set[kind] = true
		}
	}
	return domain.SortLayerKinds(set)
}

// String formats the schedule in the form ParseSchedule accepts.
func (s Schedule) String() string {
	parts := make([]string, 0, len(s))
	for _, kind := range domain.AllLayerKinds {
		if at, ok := s[kind]; ok {
			parts = append(parts, fmt.Sprintf("%s:%d", kind, at))
		}
	}
	return strings.Join(parts, ",")
}
