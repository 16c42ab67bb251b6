package models

import "encoding/json"

// RouteLeg is the trip between two consecutive markers.
type RouteLeg struct {
	Summary  string            `json:"summary"`
	Distance float64           `json:"distance"`
	Duration float64           `json:"duration"`
	Steps    []json.RawMessage `json:"steps"`
}

// Route connects the located records in fetch order; distance in meters, duration in seconds.
type Route struct {
	Distance float64         `json:"distance"`
	Duration float64         `json:"duration"`
	Geometry json.RawMessage `json:"geometry"`
	Legs     []RouteLeg      `json:"legs"`
}

// State is what a map load publishes to its consumers.
type State struct {
	Count                  int         `json:"count"`
	FetchingCoordinates    bool        `json:"fetchingCoordinates"`
	GroupByKey             string      `json:"groupByKey"`
	IsGrouped              bool        `json:"isGrouped"`
	NumberOfLocatedRecords int         `json:"numberOfLocatedRecords"`
	LocationIDs            []int64     `json:"locationIds"`
	Locations              []*Location `json:"locations"`
	RecordGroups           []*Group    `json:"recordGroups"`
	Records                []*Record   `json:"records"`
	Routes                 []Route     `json:"routes"`
	RoutingError           string      `json:"routingError"`
	ShouldUpdatePosition   bool        `json:"shouldUpdatePosition"`
	UseMapBoxAPI           bool        `json:"useMapBoxAPI"`
}

// NewState returns the empty state of a load cycle.
func NewState(groupByKey string, useMapBox bool) *State {
	return &State{
		GroupByKey:           groupByKey,
		IsGrouped:            groupByKey != "",
		LocationIDs:          []int64{},
		Locations:            []*Location{},
		RecordGroups:         []*Group{},
		Records:              []*Record{},
		Routes:               []Route{},
		ShouldUpdatePosition: true,
		UseMapBoxAPI:         useMapBox,
	}
}

// Clone deep-copies the state so a snapshot can be read while the pipeline keeps mutating its own copy.
func (s *State) Clone() *State {
	c := *s
	locs := make(map[*Location]*Location, len(s.Locations))
	c.Locations = make([]*Location, len(s.Locations))
	for i, l := range s.Locations {
		locs[l] = l.Clone()
		c.Locations[i] = locs[l]
	}
	recs := make(map[*Record]*Record, len(s.Records))
	c.Records = make([]*Record, len(s.Records))
	for i, r := range s.Records {
		nr := r.Clone()
		if r.Location != nil {
			if l, ok := locs[r.Location]; ok {
				nr.Location = l
			} else {
				nr.Location = r.Location.Clone()
			}
		}
		recs[r] = nr
		c.Records[i] = nr
	}
	c.RecordGroups = make([]*Group, len(s.RecordGroups))
	for i, g := range s.RecordGroups {
		ng := &Group{Key: g.Key, Name: g.Name, Records: make([]*Record, len(g.Records))}
		for j, r := range g.Records {
			if nr, ok := recs[r]; ok {
				ng.Records[j] = nr
			} else {
				ng.Records[j] = r.Clone()
			}
		}
		c.RecordGroups[i] = ng
	}
	c.LocationIDs = append([]int64(nil), s.LocationIDs...)
	c.Routes = append([]Route(nil), s.Routes...)
	return &c
}
