package phone

// dialingCodes maps the configurable country names onto their international
// dialing prefix. The configured country decides how national-format numbers
// (leading zero) are promoted to canonical form.
var dialingCodes = map[string]string{
	"Argentina":      "+54",
	"Australia":      "+61",
	"Austria":        "+43",
	"Belgium":        "+32",
	"Brazil":         "+55",
	"Bulgaria":       "+359",
	"Canada":         "+1",
	"Chile":          "+56",
	"China":          "+86",
	"Colombia":       "+57",
	"Croatia":        "+385",
	"Czech Republic": "+420",
	"Denmark":        "+45",
	"Egypt":          "+20",
	"Estonia":        "+372",
	"Finland":        "+358",
	"France":         "+33",
	"Germany":        "+49",
	"Greece":         "+30",
	"Hungary":        "+36",
	"Iceland":        "+354",
	"India":          "+91",
	"Indonesia":      "+62",
	"Ireland":        "+353",
	"Israel":         "+972",
	"Italy":          "+39",
	"Japan":          "+81",
	"Latvia":         "+371",
	"Lithuania":      "+370",
	"Luxembourg":     "+352",
	"Mexico":         "+52",
	"Morocco":        "+212",
	"Netherlands":    "+31",
	"New Zealand":    "+64",
	"Norway":         "+47",
	"Poland":         "+48",
	"Portugal":       "+351",
	"Romania":        "+40",
	"Russia":         "+7",
	"Senegal":        "+221",
	"Serbia":         "+381",
	"Singapore":      "+65",
	"Slovakia":       "+421",
	"Slovenia":       "+386",
	"South Africa":   "+27",
	"South Korea":    "+82",
	"Spain":          "+34",
	"Sweden":         "+46",
	"Switzerland":    "+41",
	"Thailand":       "+66",
	"Tunisia":        "+216",
	"Turkey":         "+90",
	"Ukraine":        "+380",
	"United Kingdom": "+44",
	"United States":  "+1",
	"Vietnam":        "+84",
}

// DialingCode returns the dialing prefix for a configured country name.
func DialingCode(country string) (string, bool) {
	code, ok := dialingCodes[country]
	return code, ok
}

// IsValidCountry reports whether a country name can be configured.
func IsValidCountry(country string) bool {
	_, ok := dialingCodes[country]
	return ok
}
