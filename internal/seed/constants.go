package seed

const (
	maxTeams       = 100
	maxCarsPerTeam = 20
	maxUnassigned  = 100
)

// Performance classes and their attribute ranges.
const (
	classRoad = iota
	classSport
	classRally
	classSuper
	classVintage
	classCount
)

type attrRange struct{ min, max float64 }

type class struct {
	label       string
	topSpeed    attrRange
	accel       attrRange
	reliability attrRange
	handling    attrRange
	weight      attrRange
}

var classes = [classCount]class{ //nolint:gochecknoglobals // static table
	classRoad:    {"Roadster", attrRange{160, 210}, attrRange{7.5, 10.5}, attrRange{0.90, 0.99}, attrRange{45, 65}, attrRange{1200, 1550}},
	classSport:   {"GT", attrRange{230, 290}, attrRange{3.8, 5.5}, attrRange{0.85, 0.95}, attrRange{70, 88}, attrRange{1350, 1600}},
	classRally:   {"Rally", attrRange{190, 230}, attrRange{3.5, 4.8}, attrRange{0.80, 0.93}, attrRange{80, 96}, attrRange{1200, 1350}},
	classSuper:   {"Hyper", attrRange{300, 350}, attrRange{2.4, 3.2}, attrRange{0.70, 0.88}, attrRange{75, 92}, attrRange{1300, 1500}},
	classVintage: {"Classic", attrRange{120, 180}, attrRange{9.0, 14.0}, attrRange{0.60, 0.85}, attrRange{35, 55}, attrRange{900, 1250}},
}

var teamNames = []string{ //nolint:gochecknoglobals // static table
	"Aurora", "Blizzard", "Comet", "Dynamo", "Ember", "Falcon", "Granite", "Horizon",
	"Ironclad", "Jetstream", "Kestrel", "Lynx", "Meteor", "Nimbus", "Onyx", "Phoenix",
}

var memberNames = []string{ //nolint:gochecknoglobals // static table
	"Ada", "Ben", "Chen", "Dana", "Eli", "Fatima", "Goran", "Hana", "Ivo", "Jun",
	"Kai", "Lea", "Mateo", "Nia", "Omar", "Pia", "Rui", "Sana", "Tomas", "Uma",
}
