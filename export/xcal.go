package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/cyp0633/openinvite/plan"
)

// XCalNamespace is the RFC 6321 namespace
const XCalNamespace = "urn:ietf:params:xml:ns:icalendar-2.0"

const (
	xcalDateTimeUTC   = "2006-01-02T15:04:05Z"
	xcalDateTimeLocal = "2006-01-02T15:04:05"
)

// XCal builds the xCal document for plans
func (e *Encoder) XCal(plans []plan.Plan) (*etree.Document, error) {
	events, err := e.events(plans)
	if err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("icalendar")
	root.CreateAttr("xmlns", XCalNamespace)

	vcal := root.CreateElement("vcalendar")
	props := vcal.CreateElement("properties")
	textProp(props, "version", "2.0")
	textProp(props, "prodid", e.productID)

	components := vcal.CreateElement("components")
	for _, ev := range events {
		vevent := components.CreateElement("vevent")
		p := vevent.CreateElement("properties")
		textProp(p, "uid", ev.uid)
		dateTimeProp(p, "dtstamp", ev.stamp)
		dateTimeProp(p, "dtstart", ev.start)
		dateTimeProp(p, "dtend", ev.end)
		textProp(p, "summary", ev.summary)
		textProp(p, "location", ev.location)
		if ev.description != "" {
			textProp(p, "description", ev.description)
		}
		unknownProp(p, PropSpots, ev.spots)
		if ev.seriesID != "" {
			unknownProp(p, PropSeries, ev.seriesID)
			unknownProp(p, PropInstance, strconv.Itoa(ev.instance))
		}
	}
	return doc, nil
}

// EncodeXCal writes plans as an indented xCal document
func (e *Encoder) EncodeXCal(w io.Writer, plans []plan.Plan) error {
	doc, err := e.XCal(plans)
	if err != nil {
		return err
	}
	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write xCal document: %w", err)
	}
	return nil
}

func textProp(parent *etree.Element, name, value string) {
	parent.CreateElement(name).CreateElement("text").SetText(value)
}

// unknownProp follows RFC 6321 section 5 for extension properties
func unknownProp(parent *etree.Element, name, value string) {
	parent.CreateElement(strings.ToLower(name)).CreateElement("unknown").SetText(value)
}

func dateTimeProp(parent *etree.Element, name string, t time.Time) {
	prop := parent.CreateElement(name)
	if t.Location() == time.UTC {
		prop.CreateElement("date-time").SetText(t.Format(xcalDateTimeUTC))
		return
	}
	prop.CreateElement("parameters").CreateElement("tzid").CreateElement("text").SetText(t.Location().String())
	prop.CreateElement("date-time").SetText(t.Format(xcalDateTimeLocal))
}
