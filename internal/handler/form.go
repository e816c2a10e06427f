package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	contentSvc "parishcms/internal/domain/services/content"
	"parishcms/internal/richtext"
)

// formMaxMemory bounds how much of a multipart save submission is held in
// memory before spilling to disk.
const formMaxMemory = 4 << 20

func formEncoded(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(ct, "multipart/form-data")
}

// parseSaveForm maps a full-page editor submission onto the save command.
// Field conventions:
//
//	title, hero_image_key, donate_enabled, activities_layout,
//	events_hide_past, redirect
//	section_kind[i], section_pos[i], section_content_html[i],
//	section_content_json[i], section_content_id[i]
//	activity_title[i], activity_pos[i], activity_description[i],
//	activity_description_id[i]
//	event_title[i], event_start_date[i], ... (same shape as activities)
//	content_json[<docID>], content_profile[<docID>],
//	content_html[<docID>] (informational, dropped)
func parseSaveForm(r *http.Request) (*contentSvc.SaveCommand, bool, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(formMaxMemory); err != nil {
			return nil, false, fmt.Errorf("invalid multipart body: %w", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, false, fmt.Errorf("invalid form body: %w", err)
	}

	cmd := &contentSvc.SaveCommand{
		Title:            r.PostFormValue("title"),
		HeroImageKey:     r.PostFormValue("hero_image_key"),
		DonateEnabled:    formBool(r.PostFormValue("donate_enabled")),
		ActivitiesLayout: r.PostFormValue("activities_layout"),
		EventsHidePast:   formBool(r.PostFormValue("events_hide_past")),
		Documents:        map[string]contentSvc.DocumentInput{},
	}
	redirect := formBool(r.PostFormValue("redirect"))

	sections := map[int]*contentSvc.SectionInput{}
	activities := map[int]*contentSvc.ItemInput{}
	events := map[int]*contentSvc.ItemInput{}
	profiles := map[string]string{}
	posSeen := map[string]bool{}

	for name, values := range r.PostForm {
		if len(values) == 0 {
			continue
		}
		base, key, ok := bracketField(name)
		if !ok {
			continue
		}
		value := values[0]

		switch base {
		case "content_json":
			doc := cmd.Documents[key]
			doc.ContentJSON = json.RawMessage(value)
			cmd.Documents[key] = doc
		case "content_profile":
			profiles[key] = value
		case "content_html":
			// Informational only; the persisted markup is always the
			// server-side render of content_json.
		default:
			index, err := strconv.Atoi(key)
			if err != nil || index < 0 {
				return nil, false, fmt.Errorf("field %s: index must be a non-negative integer", name)
			}
			if strings.HasSuffix(base, "_pos") {
				posSeen[base+"/"+key] = true
			}
			switch {
			case strings.HasPrefix(base, "section_"):
				applySectionField(fieldAt(sections, index), strings.TrimPrefix(base, "section_"), value)
			case strings.HasPrefix(base, "activity_"):
				applyItemField(fieldAt(activities, index), strings.TrimPrefix(base, "activity_"), value)
			case strings.HasPrefix(base, "event_"):
				applyItemField(fieldAt(events, index), strings.TrimPrefix(base, "event_"), value)
			}
		}
	}

	for id, doc := range cmd.Documents {
		if profile, ok := profiles[id]; ok {
			doc.Profile = profile
		} else {
			doc.Profile = richtext.ProfileFull
		}
		cmd.Documents[id] = doc
	}

	cmd.Sections = orderedSections(sections, posSeen)
	cmd.Activities = orderedItems(activities, "activity_pos", posSeen)
	cmd.Events = orderedItems(events, "event_pos", posSeen)

	return cmd, redirect, nil
}

// bracketField splits "section_kind[0]" into ("section_kind", "0").
func bracketField(name string) (base, key string, ok bool) {
	open := strings.IndexByte(name, '[')
	if open <= 0 || !strings.HasSuffix(name, "]") {
		return "", "", false
	}
	return name[:open], name[open+1 : len(name)-1], true
}

func formBool(value string) bool {
	switch strings.ToLower(value) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func fieldAt[T any](m map[int]*T, index int) *T {
	if entry, ok := m[index]; ok {
		return entry
	}
	entry := new(T)
	m[index] = entry
	return entry
}

func applySectionField(section *contentSvc.SectionInput, field, value string) {
	switch field {
	case "kind":
		section.Kind = value
	case "pos":
		if pos, err := strconv.Atoi(value); err == nil {
			section.Pos = pos
		}
	case "content_html":
		section.ContentHTML = value
	case "content_json":
		section.ContentJSON = json.RawMessage(value)
	case "content_id":
		section.ContentID = value
	}
}

func applyItemField(item *contentSvc.ItemInput, field, value string) {
	switch field {
	case "title":
		item.Title = value
	case "pos":
		if pos, err := strconv.Atoi(value); err == nil {
			item.Pos = pos
		}
	case "start_date":
		item.StartDate = value
	case "description":
		item.Description = value
	case "description_id":
		item.DescriptionID = value
	}
}

// orderedSections flattens the indexed map into submission order. An index
// without an explicit pos field defaults to the form index so plain forms
// need not repeat it.
func orderedSections(m map[int]*contentSvc.SectionInput, posSeen map[string]bool) []contentSvc.SectionInput {
	indexes := sortedKeys(m)
	out := make([]contentSvc.SectionInput, 0, len(indexes))
	for _, i := range indexes {
		s := *m[i]
		if !posSeen[fmt.Sprintf("section_pos/%d", i)] {
			s.Pos = i
		}
		out = append(out, s)
	}
	return out
}

func orderedItems(m map[int]*contentSvc.ItemInput, posField string, posSeen map[string]bool) []contentSvc.ItemInput {
	indexes := sortedKeys(m)
	out := make([]contentSvc.ItemInput, 0, len(indexes))
	for _, i := range indexes {
		item := *m[i]
		if !posSeen[fmt.Sprintf("%s/%d", posField, i)] {
			item.Pos = i
		}
		out = append(out, item)
	}
	return out
}

func sortedKeys[T any](m map[int]*T) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
