package property

// Info describes a safety property.
type Info struct {
	ID          string
	Title       string
	Description string
}

var Catalog = map[string]*Info{
	"unreach-error": {
		"unreach-error",
		"Unreachable Error Location",
		"No execution from the start location reaches a location of kind error.",
	},
	"assert": {
		"assert",
		"Assertion Validity",
		"Every location assertion holds whenever control reaches its location, so no assertion failure location is reachable.",
	},
	"unreach-location": {
		"unreach-location",
		"Unreachable Named Locations",
		"No execution from the start location reaches one of the named locations.",
	},
}
