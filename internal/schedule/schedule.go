// Package schedule holds the in-memory weekly availability model edited
// during onboarding and its projection onto availability slot rows.
package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrUnknownDay           = errors.New("unknown day of week")
	ErrBlockIndexOutOfRange = errors.New("time block index out of range")
	ErrInvalidClock         = errors.New("time must be HH:MM in 24h format")
)

// Days lists the day keys in day-of-week order, Sunday=0.
var Days = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// Weekdays are the targets of ApplyToWeekdays, Monday excluded.
var Weekdays = []string{"tuesday", "wednesday", "thursday", "friday"}

var dayIndex = func() map[string]int {
	m := make(map[string]int, len(Days))
	for i, d := range Days {
		m[d] = i
	}
	return m
}()

// DefaultTimeBlock is what a freshly added block covers.
var DefaultTimeBlock = TimeBlock{StartTime: "09:00", EndTime: "17:00"}

type TimeBlock struct {
	StartTime string `json:"startTime" binding:"required"`
	EndTime   string `json:"endTime" binding:"required"`
}

type DaySchedule struct {
	Enabled    bool        `json:"enabled"`
	TimeBlocks []TimeBlock `json:"timeBlocks"`
}

// Schedule maps a lowercase day name to its settings. A missing key behaves
// like a disabled day with no blocks.
type Schedule map[string]DaySchedule

// Slot is one derived availability row.
type Slot struct {
	DayOfWeek int
	StartTime string
	EndTime   string
}

// New returns a schedule with every day disabled and empty.
func New() Schedule {
	s := make(Schedule, len(Days))
	for _, d := range Days {
		s[d] = DaySchedule{Enabled: false, TimeBlocks: []TimeBlock{}}
	}
	return s
}

// DayOfWeek returns the 0-6 index of a day name (Sunday=0).
func DayOfWeek(day string) (int, error) {
	idx, ok := dayIndex[strings.ToLower(day)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDay, day)
	}
	return idx, nil
}

func normalizeDay(day string) (string, error) {
	d := strings.ToLower(day)
	if _, ok := dayIndex[d]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDay, day)
	}
	return d, nil
}

// ToggleDay flips Enabled for day. Time blocks are kept either way.
func (s Schedule) ToggleDay(day string) error {
	d, err := normalizeDay(day)
	if err != nil {
		return err
	}
	ds := s[d]
	ds.Enabled = !ds.Enabled
	s[d] = ds
	return nil
}

// AddTimeBlock appends block to day.
func (s Schedule) AddTimeBlock(day string, block TimeBlock) error {
	d, err := normalizeDay(day)
	if err != nil {
		return err
	}
	ds := s[d]
	blocks := make([]TimeBlock, len(ds.TimeBlocks), len(ds.TimeBlocks)+1)
	copy(blocks, ds.TimeBlocks)
	ds.TimeBlocks = append(blocks, block)
	s[d] = ds
	return nil
}

// RemoveTimeBlock deletes the block at index. An out of range index leaves
// the schedule untouched.
func (s Schedule) RemoveTimeBlock(day string, index int) error {
	d, err := normalizeDay(day)
	if err != nil {
		return err
	}
	ds := s[d]
	if index < 0 || index >= len(ds.TimeBlocks) {
		return fmt.Errorf("%w: %s[%d]", ErrBlockIndexOutOfRange, d, index)
	}
	blocks := make([]TimeBlock, 0, len(ds.TimeBlocks)-1)
	blocks = append(blocks, ds.TimeBlocks[:index]...)
	blocks = append(blocks, ds.TimeBlocks[index+1:]...)
	ds.TimeBlocks = blocks
	s[d] = ds
	return nil
}

// UpdateTimeBlock replaces the block at index in place.
func (s Schedule) UpdateTimeBlock(day string, index int, block TimeBlock) error {
	d, err := normalizeDay(day)
	if err != nil {
		return err
	}
	ds := s[d]
	if index < 0 || index >= len(ds.TimeBlocks) {
		return fmt.Errorf("%w: %s[%d]", ErrBlockIndexOutOfRange, d, index)
	}
	blocks := cloneBlocks(ds.TimeBlocks)
	blocks[index] = block
	ds.TimeBlocks = blocks
	s[d] = ds
	return nil
}

// ApplyToWeekdays copies Monday onto Tuesday through Friday.
func (s Schedule) ApplyToWeekdays() {
	s.copyMondayTo(Weekdays)
}

// ApplyToAllDays copies Monday onto every day of the week.
func (s Schedule) ApplyToAllDays() {
	s.copyMondayTo(Days)
}

func (s Schedule) copyMondayTo(days []string) {
	monday := s["monday"]
	for _, d := range days {
		if d == "monday" {
			continue
		}
		s[d] = DaySchedule{Enabled: monday.Enabled, TimeBlocks: cloneBlocks(monday.TimeBlocks)}
	}
}

// Clone returns a deep copy sharing no slices with s.
func (s Schedule) Clone() Schedule {
	if s == nil {
		return nil
	}
	out := make(Schedule, len(s))
	for d, ds := range s {
		out[d] = DaySchedule{Enabled: ds.Enabled, TimeBlocks: cloneBlocks(ds.TimeBlocks)}
	}
	return out
}

// HasAvailability reports whether at least one enabled day has a block.
// Only the day names in Days count, the same keys Slots reads.
func (s Schedule) HasAvailability() bool {
	for _, d := range Days {
		if ds, ok := s[d]; ok && ds.Enabled && len(ds.TimeBlocks) > 0 {
			return true
		}
	}
	return false
}

// UnknownKeys returns the keys of s that are not lowercase day names, sorted.
func (s Schedule) UnknownKeys() []string {
	var out []string
	for k := range s {
		if _, ok := dayIndex[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Slots derives availability rows from enabled days, Sunday first, blocks
// in insertion order. Keys that are not day names are ignored.
func (s Schedule) Slots() []Slot {
	slots := []Slot{}
	for i, d := range Days {
		ds, ok := s[d]
		if !ok || !ds.Enabled {
			continue
		}
		for _, b := range ds.TimeBlocks {
			slots = append(slots, Slot{DayOfWeek: i, StartTime: b.StartTime, EndTime: b.EndTime})
		}
	}
	return slots
}

// ParseClock returns minutes since midnight for an "HH:MM" string.
func ParseClock(value string) (int, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	return h*60 + m, nil
}

func cloneBlocks(blocks []TimeBlock) []TimeBlock {
	out := make([]TimeBlock, len(blocks))
	copy(out, blocks)
	return out
}
