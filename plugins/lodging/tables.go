package lodging

import "lookupdesk/pkg/query"

type property struct {
	Name     string
	Type     string
	Location string
	Price    float64
	Bedrooms int
}

// Listing prices in LKR.
var properties = []property{
	{Name: "City Loft Apartment", Type: "Apartment", Location: "Colombo", Price: 8_000_000, Bedrooms: 1},
	{Name: "Harbour View Apartment", Type: "Apartment", Location: "Colombo", Price: 15_500_000, Bedrooms: 2},
	{Name: "Lakeside Villa", Type: "Villa", Location: "Kandy", Price: 32_000_000, Bedrooms: 4},
	{Name: "Garden House", Type: "House", Location: "Colombo", Price: 12_000_000, Bedrooms: 3},
	{Name: "Hill Country Bungalow", Type: "House", Location: "Nuwara Eliya", Price: 9_500_000, Bedrooms: 3},
}

func (p property) record() query.Record {
	return query.Record{
		"name":     p.Name,
		"type":     p.Type,
		"location": p.Location,
		"price":    p.Price,
		"bedrooms": p.Bedrooms,
	}
}

type room struct {
	Number    string
	Type      string
	Capacity  int
	Rate      float64
	Available bool
	Amenities []string
}

// Nightly rates in LKR.
var rooms = []room{
	{Number: "101", Type: "Standard", Capacity: 2, Rate: 12_000, Available: true, Amenities: []string{"WiFi", "Air Conditioning"}},
	{Number: "102", Type: "Standard", Capacity: 2, Rate: 12_000, Available: false, Amenities: []string{"WiFi"}},
	{Number: "201", Type: "Deluxe", Capacity: 3, Rate: 18_500, Available: true, Amenities: []string{"WiFi", "Air Conditioning", "Sea View"}},
	{Number: "301", Type: "Family", Capacity: 5, Rate: 26_000, Available: true, Amenities: []string{"WiFi", "Kitchenette"}},
	{Number: "401", Type: "Suite", Capacity: 4, Rate: 42_000, Available: true, Amenities: []string{"WiFi", "Sea View", "Bathtub"}},
	{Number: "402", Type: "Suite", Capacity: 4, Rate: 42_000, Available: false, Amenities: []string{"WiFi", "Sea View", "Bathtub"}},
}

func (r room) record() query.Record {
	return query.Record{
		"room":      r.Number,
		"room_type": r.Type,
		"capacity":  r.Capacity,
		"rate":      r.Rate,
		"available": r.Available,
		"amenities": r.Amenities,
	}
}
