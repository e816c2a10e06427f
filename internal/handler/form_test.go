package handler

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestParseSaveFormMapsFields(t *testing.T) {
	form := url.Values{}
	form.Set("title", "Our Parish")
	form.Set("donate_enabled", "on")
	form.Set("events_hide_past", "true")
	form.Set("activities_layout", "grid")
	form.Set("redirect", "1")

	form.Set("section_kind[0]", "welcome")
	form.Set("section_content_id[0]", "welcome-intro")
	form.Set("section_kind[1]", "activities")

	form.Set("content_json[welcome-intro]", `{"type":"doc","content":[{"type":"paragraph","text":"Welcome pilgrims"}]}`)
	form.Set("content_profile[welcome-intro]", "full")
	form.Set("content_html[welcome-intro]", `<p>client says hi</p>`)

	form.Set("activity_title[0]", "Choir")
	form.Set("activity_description[0]", "<p>Thursdays</p>")
	form.Set("activity_title[1]", "Youth group")

	form.Set("event_title[0]", "Harvest festival")
	form.Set("event_start_date[0]", "2026-10-04")

	r := httptest.NewRequest("POST", "/admin/pages/landing", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	cmd, redirect, err := parseSaveForm(r)
	if err != nil {
		t.Fatalf("parseSaveForm: %v", err)
	}
	if !redirect {
		t.Fatal("redirect flag lost")
	}
	if cmd.Title != "Our Parish" || !cmd.DonateEnabled || !cmd.EventsHidePast || cmd.ActivitiesLayout != "grid" {
		t.Fatalf("page fields wrong: %+v", cmd)
	}

	if len(cmd.Sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(cmd.Sections))
	}
	if cmd.Sections[0].Kind != "welcome" || cmd.Sections[0].ContentID != "welcome-intro" || cmd.Sections[0].Pos != 0 {
		t.Fatalf("section 0 wrong: %+v", cmd.Sections[0])
	}
	if cmd.Sections[1].Kind != "activities" || cmd.Sections[1].Pos != 1 {
		t.Fatalf("section 1 wrong: %+v", cmd.Sections[1])
	}

	doc, ok := cmd.Documents["welcome-intro"]
	if !ok {
		t.Fatal("named document missing")
	}
	if doc.Profile != "full" {
		t.Fatalf("profile = %q, want full", doc.Profile)
	}
	if !strings.Contains(string(doc.ContentJSON), "Welcome pilgrims") {
		t.Fatalf("document JSON lost: %s", doc.ContentJSON)
	}

	if len(cmd.Activities) != 2 || cmd.Activities[0].Title != "Choir" || cmd.Activities[1].Pos != 1 {
		t.Fatalf("activities wrong: %+v", cmd.Activities)
	}
	if len(cmd.Events) != 1 || cmd.Events[0].StartDate != "2026-10-04" {
		t.Fatalf("events wrong: %+v", cmd.Events)
	}
}

func TestParseSaveFormDefaultsProfile(t *testing.T) {
	form := url.Values{}
	form.Set("title", "T")
	form.Set("content_json[d1]", `{"type":"doc"}`)

	r := httptest.NewRequest("POST", "/admin/pages/landing", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	cmd, _, err := parseSaveForm(r)
	if err != nil {
		t.Fatalf("parseSaveForm: %v", err)
	}
	if cmd.Documents["d1"].Profile != "full" {
		t.Fatalf("profile = %q, want full default", cmd.Documents["d1"].Profile)
	}
}

func TestParseSaveFormExplicitPositionsWin(t *testing.T) {
	form := url.Values{}
	form.Set("title", "T")
	form.Set("activity_title[0]", "A")
	form.Set("activity_pos[0]", "5")
	form.Set("activity_title[1]", "B")
	form.Set("activity_pos[1]", "0")

	r := httptest.NewRequest("POST", "/admin/pages/landing", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	cmd, _, err := parseSaveForm(r)
	if err != nil {
		t.Fatalf("parseSaveForm: %v", err)
	}
	if cmd.Activities[0].Pos != 5 || cmd.Activities[1].Pos != 0 {
		t.Fatalf("submitted pos values not preserved: %+v", cmd.Activities)
	}
}

func TestParseSaveFormRejectsBadIndex(t *testing.T) {
	form := url.Values{}
	form.Set("title", "T")
	form.Set("section_kind[zero]", "welcome")

	r := httptest.NewRequest("POST", "/admin/pages/landing", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if _, _, err := parseSaveForm(r); err == nil {
		t.Fatal("expected an error for a non-numeric index")
	}
}
