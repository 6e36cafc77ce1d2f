package tourism

import "lookupdesk/pkg/query"

type attraction struct {
	Name        string
	Description string
	Location    string
	Hours       string
}

var attractions = []attraction{
	{
		Name:        "Galle Face Green",
		Description: "A popular urban park and promenade along the coast, perfect for evening walks and street food.",
		Location:    "Colombo 3, Sri Lanka",
		Hours:       "Open 24 hours",
	},
	{
		Name:        "Venerable Gangaramaya Temple",
		Description: "A historic Buddhist temple with a mix of modern and traditional architecture, featuring a museum and library.",
		Location:    "61 Sri Jinarathana Rd, Colombo 2, Sri Lanka",
		Hours:       "6:00 AM - 10:00 PM",
	},
	{
		Name:        "National Museum of Colombo",
		Description: "The largest museum in Sri Lanka, showcasing the country's cultural and historical artifacts.",
		Location:    "Sir Marcus Fernando Mawatha, Colombo 7, Sri Lanka",
		Hours:       "9:00 AM - 5:00 PM, closed on Fridays",
	},
	{
		Name:        "Independence Square",
		Description: "A landmark commemorating Sri Lanka's independence, surrounded by lush gardens and colonial-era architecture.",
		Location:    "Independence Ave, Colombo 7, Sri Lanka",
		Hours:       "Open 24 hours",
	},
}

func (a attraction) record() query.Record {
	return query.Record{"name": a.Name, "description": a.Description, "location": a.Location, "hours": a.Hours}
}

type festival struct {
	Name string
	Date string
}

var festivals = []festival{
	{Name: "Vesak", Date: "2025-05-12"},
	{Name: "Sinhala New Year", Date: "2025-04-14"},
}

func (f festival) record() query.Record {
	return query.Record{"festival": f.Name, "date": f.Date}
}

type exchangeRate struct {
	Direction string
	From      string
	To        string
	Rate      float64
}

// Approximate rates as of May 2025.
var exchangeRates = []exchangeRate{
	{Direction: "LKRtoUSD", From: "LKR", To: "USD", Rate: 0.0033},
	{Direction: "USDtoLKR", From: "USD", To: "LKR", Rate: 303.03},
}

func (r exchangeRate) record() query.Record {
	return query.Record{"direction": r.Direction, "from": r.From, "to": r.To, "rate": r.Rate}
}

const (
	kindDiscipline = "discipline"
	kindRole       = "role"
)

type acronym struct {
	Code    string
	Kind    string
	Meaning string
}

var acronyms = []acronym{
	{"SE", kindDiscipline, "Software Engineering"},
	{"CE", kindDiscipline, "Computer Engineering"},
	{"IT", kindDiscipline, "Information Technology"},
	{"CS", kindDiscipline, "Computer Science"},
	{"IS", kindDiscipline, "Information Systems"},
	{"DS", kindDiscipline, "Data Science"},
	{"AI", kindDiscipline, "Artificial Intelligence"},
	{"ML", kindDiscipline, "Machine Learning"},
	{"DB", kindDiscipline, "Database"},
	{"OS", kindDiscipline, "Operating System"},
	{"CN", kindDiscipline, "Computer Networks"},
	{"SSE", kindDiscipline, "Senior Software Engineering"},
	{"CSE", kindDiscipline, "Computer Science Engineering"},
	{"INTERN", kindRole, "Intern Software Engineer"},
	{"ASE", kindRole, "Associate Software Engineer"},
	{"SE", kindRole, "Software Engineer"},
	{"SSE", kindRole, "Senior Software Engineer"},
	{"TL", kindRole, "Tech Lead"},
	{"PM", kindRole, "Project Manager"},
}

func (a acronym) record() query.Record {
	return query.Record{"code": a.Code, "kind": a.Kind, "meaning": a.Meaning}
}
