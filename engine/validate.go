package engine

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/secondbrain/collections/engine/document"
)

const (
	maxCollectionName = 80
	maxViewName       = 80
	maxIcon           = 32
	maxOptions        = 2000
	maxPageLimit      = 1000
)

var iconRe = regexp.MustCompile(`^[a-z0-9-]+$`)

var fieldTypes = map[string]bool{
	FieldText: true, FieldTextarea: true, FieldNumber: true, FieldDate: true, FieldSelect: true,
}

var viewTypes = map[string]bool{
	ViewGrid: true, ViewKanban: true, ViewCalendar: true,
}

func checkID(field string, id int64) error {
	if id <= 0 {
		return ValidationError(field, "must be a positive integer")
	}
	return nil
}

// collectionName trims and bounds a collection name.
func collectionName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxCollectionName {
		return "", ValidationError("name", "collection name must be 1-80 characters")
	}
	return name, nil
}

func checkIcon(icon string) error {
	if len(icon) > maxIcon || !iconRe.MatchString(icon) {
		return ValidationError("icon", "icon must be 1-32 characters of a-z, 0-9 or -")
	}
	return nil
}

func viewName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxViewName {
		return "", ValidationError("name", "view name must be 1-80 characters")
	}
	return name, nil
}

func checkViewType(t string) error {
	if !viewTypes[t] {
		return ValidationError("type", "unknown view type "+quote(t))
	}
	return nil
}

func checkFieldInput(in FieldInput) error {
	if !document.IsSafeName(in.Name) {
		return ValidationError("name", "invalid field name "+quote(in.Name))
	}
	if !fieldTypes[in.Type] {
		return ValidationError("type", "unknown field type "+quote(in.Type))
	}
	if in.Options != nil && len(*in.Options) > maxOptions {
		return ValidationError("options", "options are too long")
	}
	if in.OrderIndex != nil && *in.OrderIndex < 0 {
		return ValidationError("orderIndex", "order index must not be negative")
	}
	return nil
}

func checkDocument(field string, d Document) error {
	if err := d.Validate(); err != nil {
		e := ValidationError(field, err.Error())
		e.Cause = err
		return e
	}
	return nil
}

func checkPage(limit, offset int) error {
	if limit < 1 || limit > maxPageLimit {
		return ValidationError("limit", "limit must be between 1 and 1000")
	}
	if offset < 0 {
		return ValidationError("offset", "offset must not be negative")
	}
	return nil
}

func quote(s string) string {
	return `"` + s + `"`
}
