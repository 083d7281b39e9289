// Package directory provides course directory implementations consumed by
// the attendance engine.
package directory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tebraouisamy/presence-app/attendance"
)

// Course describes one course in the static catalog. Each course has a
// single weekly slot; the roster lists enrolled participant IDs.
type Course struct {
	ID              string   `yaml:"id"`
	Name            string   `yaml:"name"`
	Teacher         string   `yaml:"teacher"`
	Room            string   `yaml:"room"`
	Weekday         string   `yaml:"weekday"`
	Start           string   `yaml:"start"` // HH:MM in the catalog's timezone
	DurationMinutes int      `yaml:"duration_minutes"`
	Roster          []string `yaml:"roster"`
}

type catalog struct {
	Timezone string   `yaml:"timezone"`
	Courses  []Course `yaml:"courses"`
}

// Static is an attendance.Directory backed by a fixed course catalog loaded
// at startup.
type Static struct {
	location *time.Location
	courses  map[string]Course
}

var _ attendance.Directory = (*Static)(nil)

// Load reads a YAML course catalog from path.
func Load(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading course catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a Static directory from YAML catalog bytes. Every course
// must carry an ID and a parsable HH:MM start time.
func Parse(data []byte) (*Static, error) {
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing course catalog: %w", err)
	}
	loc := time.Local
	if c.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(c.Timezone)
		if err != nil {
			return nil, fmt.Errorf("loading catalog timezone: %w", err)
		}
	}
	courses := make(map[string]Course, len(c.Courses))
	for _, course := range c.Courses {
		if course.ID == "" {
			return nil, fmt.Errorf("course catalog entry %q missing id", course.Name)
		}
		if _, err := parseClock(course.Start); err != nil {
			return nil, fmt.Errorf("course %s: %w", course.ID, err)
		}
		if _, ok := courses[course.ID]; ok {
			return nil, fmt.Errorf("duplicate course id %s", course.ID)
		}
		courses[course.ID] = course
	}
	return &Static{location: loc, courses: courses}, nil
}

// parseClock converts an HH:MM string to an offset from midnight.
func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid start time %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Location returns the catalog's timezone. Callers that derive calendar
// days from wall-clock time should do so in this location, so a scan near
// midnight lands on the same day SessionStart resolves against.
func (d *Static) Location() *time.Location {
	return d.location
}

func (d *Static) course(sessionID string) (Course, error) {
	c, ok := d.courses[sessionID]
	if !ok {
		return Course{}, fmt.Errorf("unknown course %s", sessionID)
	}
	return c, nil
}

// SessionStart resolves the concrete start timestamp of the course's weekly
// slot on the given day. The slot's weekday is deliberately not checked
// against the day: ad-hoc sessions may run outside the regular slot, and
// the engine treats the day it is handed as authoritative.
func (d *Static) SessionStart(ctx context.Context, sessionID string, day attendance.Day) (time.Time, error) {
	c, err := d.course(sessionID)
	if err != nil {
		return time.Time{}, err
	}
	date, err := time.ParseInLocation(attendance.DayLayout, string(day), d.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q: %w", day, err)
	}
	clock, err := parseClock(c.Start)
	if err != nil {
		return time.Time{}, err
	}
	return date.Add(clock), nil
}

// Roster returns a copy of the course's enrolled participant IDs.
func (d *Static) Roster(ctx context.Context, sessionID string) ([]string, error) {
	c, err := d.course(sessionID)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), c.Roster...), nil
}

// CourseName returns the display name of the course.
func (d *Static) CourseName(ctx context.Context, sessionID string) (string, error) {
	c, err := d.course(sessionID)
	if err != nil {
		return "", err
	}
	return c.Name, nil
}

// Courses lists the catalog, ordered by course ID.
func (d *Static) Courses(ctx context.Context) ([]attendance.CourseInfo, error) {
	infos := make([]attendance.CourseInfo, 0, len(d.courses))
	for _, c := range d.courses {
		infos = append(infos, attendance.CourseInfo{
			ID:       c.ID,
			Name:     c.Name,
			Teacher:  c.Teacher,
			Room:     c.Room,
			Schedule: fmt.Sprintf("%s %s (%d min)", c.Weekday, c.Start, c.DurationMinutes),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}
