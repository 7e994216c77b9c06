package reminderstore

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/AdheeshBhat/Remora/internal/domain"
)

type fieldConverter func(v any) (any, error)

// updatableFields lists the document paths UpdateFields may touch and how a
// loosely typed value is normalized before it is written.
var updatableFields = map[string]fieldConverter{
	fieldTitle:               asString,
	fieldDescription:         asString,
	fieldDate:                asTime,
	fieldPriority:            asPriority,
	fieldIsComplete:          asBool,
	fieldIsLocked:            asBool,
	fieldAuthor:              asAuthor,
	fieldCaretakerAlertDelay: asSeconds,
	fieldDeletedInstances:    asDateList,
	fieldRepeatSettings + "." + fieldRepeatType:      asRepeatType,
	fieldRepeatSettings + "." + fieldRepeatUntilDate: asUntil,
	fieldRepeatSettings + "." + fieldRepeatIntervals + "." + fieldDays: asPatterns,
}

func normalizeFields(fields map[string]any) (map[string]any, error) {
	set := make(map[string]any, len(fields))
	for name, v := range fields {
		convert, ok := updatableFields[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownField, name)
		}
		out, err := convert(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidFieldValue, name, err)
		}
		set[name] = out
	}
	return set, nil
}

func asString(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}

func asBool(v any) (any, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("expected bool, got %T", v)
	}
	return b, nil
}

func asTime(v any) (any, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return time.Parse(time.RFC3339, t)
	default:
		return nil, fmt.Errorf("expected RFC3339 time, got %T", v)
	}
}

func asPriority(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", v)
	}
	p, err := domain.ParsePriority(s)
	if err != nil {
		return nil, err
	}
	return p.String(), nil
}

func asAuthor(v any) (any, error) {
	s, ok := v.(string)
	if !ok || (s != domain.AuthorUser && s != domain.AuthorCaregiver) {
		return nil, fmt.Errorf("expected %q or %q", domain.AuthorUser, domain.AuthorCaregiver)
	}
	return s, nil
}

func asSeconds(v any) (any, error) {
	switch n := v.(type) {
	case time.Duration:
		return int64(n / time.Second), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return nil, fmt.Errorf("expected seconds, got %T", v)
	}
}

func asDateList(v any) (any, error) {
	var raw []string
	switch l := v.(type) {
	case []string:
		raw = l
	case []any:
		for _, item := range l {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected date string, got %T", item)
			}
			raw = append(raw, s)
		}
	default:
		return nil, fmt.Errorf("expected list of dates, got %T", v)
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		d, err := civil.ParseDate(s)
		if err != nil {
			return nil, err
		}
		out = append(out, d.String())
	}
	return out, nil
}

func asRepeatType(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", v)
	}
	return domain.ParseRecurrenceKind(s).String(), nil
}

func asUntil(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", v)
	}
	u, err := domain.ParseUntilPolicy(s)
	if err != nil {
		return nil, err
	}
	return u.String(), nil
}

func asPatterns(v any) (any, error) {
	switch p := v.(type) {
	case string:
		return domain.JoinPatterns(domain.SplitPatterns(p)), nil
	case []string:
		return domain.JoinPatterns(p), nil
	case []any:
		patterns := make([]string, 0, len(p))
		for _, item := range p {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected pattern string, got %T", item)
			}
			patterns = append(patterns, s)
		}
		return domain.JoinPatterns(patterns), nil
	default:
		return nil, fmt.Errorf("expected patterns, got %T", v)
	}
}
