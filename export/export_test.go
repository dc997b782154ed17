package export

import (
	"bytes"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyp0633/openinvite/internal/dates"
	"github.com/cyp0633/openinvite/plan"
)

var stamp = time.Date(2024, 12, 20, 10, 0, 0, 0, time.UTC)

func samplePlans() []plan.Plan {
	return []plan.Plan{
		{
			ID: "p1", Title: "Board Game Night", Date: dates.MustParse("2025-01-10"),
			Time: dates.MustParseTimeOfDay("19:00"), Location: "Alex's place, 2nd floor",
			TotalSpots: 6, FilledSpots: 2, RSVPDeadline: dates.MustParse("2025-01-08"),
			Notes: "Bring snacks; drinks provided", CreatedBy: "me",
		},
		{
			ID: "rec2", Title: "Weekly Volleyball", Date: dates.MustParse("2025-01-07"),
			Time: dates.MustParseTimeOfDay("18:30"), Location: "City Park",
			TotalSpots: 12, FilledSpots: 5, RSVPDeadline: dates.MustParse("2025-01-06"), CreatedBy: "me",
			Recurrence: &plan.Recurrence{Type: plan.RecurrenceWeekly, SeriesID: "vb", InstanceIndex: 1},
		},
	}
}

func TestEncodeICS_RoundTrip(t *testing.T) {
	enc := NewEncoder(WithClock(func() time.Time { return stamp }), WithDuration(90*time.Minute))

	var buf bytes.Buffer
	require.NoError(t, enc.EncodeICS(&buf, samplePlans()))

	ics := buf.String()
	assert.True(t, strings.HasPrefix(ics, "BEGIN:VCALENDAR"))
	assert.Contains(t, ics, "PRODID:"+DefaultProductID)
	assert.Contains(t, ics, "UID:p1@openinvite")
	assert.Contains(t, ics, "DTSTART:20250110T190000Z")
	assert.Contains(t, ics, "DTSTAMP:20241220T100000Z")
	assert.Contains(t, ics, "X-OPENINVITE-SERIES:vb")
	assert.Equal(t, 2, strings.Count(ics, "BEGIN:VEVENT"))

	events, err := DecodeICS(strings.NewReader(ics), nil)
	require.NoError(t, err)
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, "p1", first.PlanID())
	assert.Equal(t, "Board Game Night", first.Summary)
	assert.Equal(t, "Alex's place, 2nd floor", first.Location)
	assert.Equal(t, "Bring snacks; drinks provided", first.Description)
	assert.True(t, first.Start.Equal(time.Date(2025, 1, 10, 19, 0, 0, 0, time.UTC)))
	assert.Equal(t, 90*time.Minute, first.End.Sub(first.Start))
	assert.Empty(t, first.SeriesID)

	second := events[1]
	assert.Equal(t, "vb", second.SeriesID)
	assert.Equal(t, 1, second.Instance)
	assert.Empty(t, second.Description)
}

func TestEncodeICS_Location(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	enc := NewEncoder(WithLocation(berlin), WithClock(func() time.Time { return stamp }))

	var buf bytes.Buffer
	require.NoError(t, enc.EncodeICS(&buf, samplePlans()[:1]))
	assert.Contains(t, buf.String(), "TZID=Europe/Berlin")

	events, err := DecodeICS(&buf, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].Start.Equal(time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC)))

	in := events[0].Input("me", 4)
	assert.Equal(t, "2025-01-10", in.Date.String())
	assert.Equal(t, "19:00", in.Time.String())
	assert.NoError(t, in.Validate())
}

func TestEncode_RejectsPlanWithoutID(t *testing.T) {
	enc := NewEncoder()
	p := samplePlans()[0]
	p.ID = ""

	var buf bytes.Buffer
	assert.Error(t, enc.EncodeICS(&buf, []plan.Plan{p}))
	assert.Error(t, enc.EncodeXCal(&buf, []plan.Plan{p}))
	assert.Zero(t, buf.Len())
}

func TestDecodeICS_Errors(t *testing.T) {
	_, err := DecodeICS(strings.NewReader("BEGIN:VCALENDAR\r\nnot a line\r\n"), nil)
	assert.Error(t, err)

	events, err := DecodeICS(strings.NewReader(""), nil)
	assert.NoError(t, err)
	assert.Empty(t, events)
}

func TestEncodeXCal(t *testing.T) {
	enc := NewEncoder(WithClock(func() time.Time { return stamp }), WithProductID("-//Test//EN"))

	var buf bytes.Buffer
	require.NoError(t, enc.EncodeXCal(&buf, samplePlans()))

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(buf.Bytes()))

	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "icalendar", root.Tag)
	assert.Equal(t, XCalNamespace, root.SelectAttrValue("xmlns", ""))

	prodid := doc.FindElement("/icalendar/vcalendar/properties/prodid/text")
	require.NotNil(t, prodid)
	assert.Equal(t, "-//Test//EN", prodid.Text())

	vevents := doc.FindElements("/icalendar/vcalendar/components/vevent")
	require.Len(t, vevents, 2)

	first := vevents[0]
	assert.Equal(t, "p1@openinvite", first.FindElement("properties/uid/text").Text())
	assert.Equal(t, "2025-01-10T19:00:00Z", first.FindElement("properties/dtstart/date-time").Text())
	assert.Equal(t, "2025-01-10T21:00:00Z", first.FindElement("properties/dtend/date-time").Text())
	assert.Equal(t, "2/6", first.FindElement("properties/x-openinvite-spots/unknown").Text())
	assert.Nil(t, first.FindElement("properties/x-openinvite-series"))

	second := vevents[1]
	assert.Equal(t, "vb", second.FindElement("properties/x-openinvite-series/unknown").Text())
	assert.Equal(t, "1", second.FindElement("properties/x-openinvite-instance/unknown").Text())
	assert.Nil(t, second.FindElement("properties/description"))
}

func TestEncodeXCal_Location(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	doc, err := NewEncoder(WithLocation(berlin)).XCal(samplePlans()[:1])
	require.NoError(t, err)

	start := doc.FindElement("//vevent/properties/dtstart")
	require.NotNil(t, start)
	assert.Equal(t, "Europe/Berlin", start.FindElement("parameters/tzid/text").Text())
	assert.Equal(t, "2025-01-10T19:00:00", start.FindElement("date-time").Text())
}

func TestUID(t *testing.T) {
	assert.Equal(t, "abc@openinvite", UID("abc"))
	assert.Equal(t, "abc", PlanID(UID("abc")))
	assert.Equal(t, "foreign@example.com", PlanID("foreign@example.com"))
}
