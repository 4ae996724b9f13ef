// Package lang lists the languages the translation backend ships models
// for. The controller never validates codes against this table; it exists
// for the picker and for cycling through the pair in the UI.
package lang

type Language struct {
	Code  string
	Label string
}

var Supported = []Language{
	{"en", "English"},
	{"fr", "French"},
	{"de", "German"},
	{"es", "Spanish"},
	{"hi", "Hindi"},
	{"zh", "Chinese"},
	{"ar", "Arabic"},
	{"ru", "Russian"},
}

func Known(code string) bool {
	for _, l := range Supported {
		if l.Code == code {
			return true
		}
	}
	return false
}

// Label returns the display name for a code, or the code itself for
// anything outside the table (unknown codes are passed through, not
// rejected).
func Label(code string) string {
	for _, l := range Supported {
		if l.Code == code {
			return l.Label
		}
	}
	return code
}

// Next cycles to the following supported code, wrapping around. An unknown
// code lands on the first entry.
func Next(code string) string {
	for i, l := range Supported {
		if l.Code == code {
			return Supported[(i+1)%len(Supported)].Code
		}
	}
	return Supported[0].Code
}
