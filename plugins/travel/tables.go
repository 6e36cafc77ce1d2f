package travel

import (
	"strings"

	"lookupdesk/pkg/query"
)

type schedule struct {
	Route     string
	Train     string
	Departure string
	Arrival   string
	Classes   []string
}

var schedules = []schedule{
	{Route: "colombo-kandy", Train: "Udarata Menike", Departure: "05:55", Arrival: "08:40", Classes: []string{"Second Class", "Third Class"}},
	{Route: "colombo-kandy", Train: "Intercity Express", Departure: "07:00", Arrival: "09:30", Classes: []string{"First Class", "Second Class"}},
	{Route: "colombo-kandy", Train: "Podi Menike", Departure: "09:45", Arrival: "12:45", Classes: []string{"Second Class", "Third Class"}},
	{Route: "colombo-galle", Train: "Ruhunu Kumari", Departure: "06:55", Arrival: "09:20", Classes: []string{"Second Class", "Third Class"}},
	{Route: "colombo-galle", Train: "Galu Kumari", Departure: "14:25", Arrival: "17:05", Classes: []string{"Third Class"}},
	{Route: "kandy-ella", Train: "Ella Odyssey", Departure: "08:47", Arrival: "15:10", Classes: []string{"First Class", "Second Class", "Third Class"}},
}

func (s schedule) record() query.Record {
	return query.Record{
		"route":     s.Route,
		"train":     s.Train,
		"departure": s.Departure,
		"arrival":   s.Arrival,
		"classes":   s.Classes,
	}
}

type fare struct {
	Route string
	Class string
	Fare  float64
}

// Fares in LKR per passenger.
var fares = []fare{
	{Route: "colombo-kandy", Class: "First Class", Fare: 1500},
	{Route: "colombo-kandy", Class: "Second Class", Fare: 500},
	{Route: "colombo-kandy", Class: "Third Class", Fare: 280},
	{Route: "colombo-galle", Class: "First Class", Fare: 1200},
	{Route: "colombo-galle", Class: "Second Class", Fare: 420},
	{Route: "colombo-galle", Class: "Third Class", Fare: 230},
	{Route: "kandy-ella", Class: "First Class", Fare: 2000},
	{Route: "kandy-ella", Class: "Second Class", Fare: 650},
	{Route: "kandy-ella", Class: "Third Class", Fare: 340},
}

func (f fare) record() query.Record {
	return query.Record{"route": f.Route, "class": f.Class, "fare": f.Fare}
}

// routeKey joins the endpoints the way the tables are keyed.
func routeKey(from, to string) string {
	return strings.ToLower(strings.TrimSpace(from)) + "-" + strings.ToLower(strings.TrimSpace(to))
}
