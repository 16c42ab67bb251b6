package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"maps-api/internal/i18n"
	"maps-api/internal/models"
)

const (
	dateLayout     = "2006-01-02"
	datetimeLayout = "2006-01-02 15:04:05"
)

// dateGroupLabels formats a date per group-by granularity. Month names follow lang.
var dateGroupLabels = map[string]func(t time.Time, lang string) string{
	"year": func(t time.Time, _ string) string { return t.Format("2006") },
	"quarter": func(t time.Time, _ string) string {
		return fmt.Sprintf("Q%d %d", (int(t.Month())-1)/3+1, t.Year())
	},
	"month": func(t time.Time, lang string) string {
		return fmt.Sprintf("%s %d", i18n.Month(lang, t.Month(), false), t.Year())
	},
	"week": func(t time.Time, _ string) string {
		year, week := t.ISOWeek()
		return fmt.Sprintf("W%02d %d", week, year)
	},
	"day": func(t time.Time, lang string) string {
		return fmt.Sprintf("%02d %s %d", t.Day(), i18n.Month(lang, t.Month(), true), t.Year())
	},
}

type groupSet struct {
	groups []*models.Group
	byKey  map[string]*models.Group
}

func (s *groupSet) add(key, name string, r *models.Record) {
	g, ok := s.byKey[key]
	if !ok {
		g = &models.Group{Key: key, Name: name}
		s.byKey[key] = g
		s.groups = append(s.groups, g)
	}
	g.Records = append(g.Records, r)
}

// groupRecords buckets records by the group-by key ("field" or "field:granularity").
// Groups keep the order in which their first record was seen.
func groupRecords(key string, fields map[string]models.FieldDef, records []*models.Record, lang string) ([]*models.Group, error) {
	name, granularity, _ := strings.Cut(key, ":")
	def, ok := fields[name]
	if !ok {
		return nil, fmt.Errorf("service: unknown group-by field %q", name)
	}
	if granularity == "" {
		granularity = "month"
	}
	label, ok := dateGroupLabels[granularity]
	if !ok && (def.Type == models.FieldDate || def.Type == models.FieldDatetime) {
		return nil, fmt.Errorf("service: unknown date granularity %q", granularity)
	}

	none := i18n.T(lang, i18n.None)
	set := &groupSet{byKey: make(map[string]*models.Group)}
	for _, r := range records {
		value := r.Fields[name]
		switch {
		case def.Type.Multi():
			rels, _ := value.([]models.Relation)
			if len(rels) == 0 {
				set.add(none, none, r)
				continue
			}
			for _, rel := range rels {
				set.add(strconv.FormatInt(rel.ID, 10), rel.DisplayName, r)
			}
		case def.Type == models.FieldDate || def.Type == models.FieldDatetime:
			t, ok := parseDateValue(value)
			if !ok {
				set.add(none, none, r)
				continue
			}
			l := label(t, lang)
			set.add(l, l, r)
		case def.Type == models.FieldBoolean:
			if b, _ := value.(bool); b {
				set.add(i18n.T(lang, i18n.Yes), i18n.T(lang, i18n.Yes), r)
			} else {
				set.add(i18n.T(lang, i18n.No), i18n.T(lang, i18n.No), r)
			}
		case def.Type == models.FieldMany2One:
			rel, ok := value.(models.Relation)
			if !ok {
				set.add(none, none, r)
				continue
			}
			set.add(strconv.FormatInt(rel.ID, 10), rel.DisplayName, r)
		default:
			if isEmpty(value) {
				set.add(none, none, r)
				continue
			}
			s := fmt.Sprint(value)
			set.add(s, s, r)
		}
	}
	return set.groups, nil
}

func parseDateValue(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		if t == "" {
			return time.Time{}, false
		}
		if d, err := time.Parse(datetimeLayout, t); err == nil {
			return d, true
		}
		if d, err := time.Parse(dateLayout, t); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case int64:
		return t == 0
	case float64:
		return t == 0
	}
	return false
}

// localizeDates renders date fields as "2006-01-02" and datetime fields, stored in UTC,
// as "2006-01-02 15:04:05" in tz.
func localizeDates(fields map[string]models.FieldDef, names []string, records []*models.Record, tz *time.Location) {
	for _, name := range names {
		def, ok := fields[name]
		if !ok || (def.Type != models.FieldDate && def.Type != models.FieldDatetime) {
			continue
		}
		for _, r := range records {
			t, ok := r.Fields[name].(time.Time)
			if !ok {
				continue
			}
			if def.Type == models.FieldDate {
				r.Fields[name] = t.Format(dateLayout)
				continue
			}
			r.Fields[name] = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC).
				In(tz).Format(datetimeLayout)
		}
	}
}
