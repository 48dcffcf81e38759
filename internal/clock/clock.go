// Package clock answers date and time questions in French without a
// provider round-trip. A question naming a country is answered in that
// country's timezone; the default is France.
package clock

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// zone associates a country keyword with its IANA timezone. Detection scans
// the slice in order, so a question naming several countries answers for the
// first one listed here.
type zone struct {
	country  string
	location string
}

var zones = []zone{
	{"france", "Europe/Paris"},
	{"cameroun", "Africa/Douala"},
	{"algérie", "Africa/Algiers"},
	{"maroc", "Africa/Casablanca"},
	{"tunisie", "Africa/Tunis"},
	{"sénégal", "Africa/Dakar"},
	{"côte_d_ivoire", "Africa/Abidjan"},
	{"burkina_faso", "Africa/Ouagadougou"},
	{"mali", "Africa/Bamako"},
	{"niger", "Africa/Niamey"},
	{"tchad", "Africa/Ndjamena"},
	{"bénin", "Africa/Porto-Novo"},
	{"togo", "Africa/Lome"},
	{"ghana", "Africa/Accra"},
	{"nigéria", "Africa/Lagos"},
	{"afrique_du_sud", "Africa/Johannesburg"},
	{"égypte", "Africa/Cairo"},
	{"kenya", "Africa/Nairobi"},
	{"éthiopie", "Africa/Addis_Ababa"},
	{"rwanda", "Africa/Kigali"},
	{"tanzanie", "Africa/Dar_es_Salaam"},
	{"ouganda", "Africa/Kampala"},
	{"angola", "Africa/Luanda"},
	{"rdcongo", "Africa/Kinshasa"},
	{"congo", "Africa/Brazzaville"},
	{"gabon", "Africa/Libreville"},
	{"zambie", "Africa/Lusaka"},
	{"zimbabwe", "Africa/Harare"},
	{"botswana", "Africa/Gaborone"},
	{"namibie", "Africa/Windhoek"},
	{"madagascar", "Indian/Antananarivo"},
	{"maurice", "Indian/Mauritius"},
}

// Countries taking the "au" preposition; the rest take "en".
var masculineCountries = map[string]bool{
	"togo": true, "cameroun": true, "maroc": true, "mali": true,
	"niger": true, "tchad": true, "bénin": true, "ghana": true,
	"nigéria": true, "congo": true, "rdcongo": true, "burkina_faso": true,
	"zimbabwe": true, "botswana": true, "namibie": true, "angola": true,
	"zambie": true,
}

var timeQuestion = regexp.MustCompile(`(?i)quel(le)? heure|date|année|mois|jour`)

// French calendar names, indexed by time.Weekday and time.Month-1.
var (
	frenchDays = [...]string{
		"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi",
	}
	frenchMonths = [...]string{
		"janvier", "février", "mars", "avril", "mai", "juin",
		"juillet", "août", "septembre", "octobre", "novembre", "décembre",
	}
)

// IsTimeQuestion reports whether text asks about the date or time.
func IsTimeQuestion(text string) bool {
	return timeQuestion.MatchString(text)
}

// Clock formats localized date/time answers. The zero value uses real time;
// tests inject a fixed now.
type Clock struct {
	now func() time.Time
}

// Option configures a Clock.
type Option func(*Clock)

// WithNow overrides the time source.
func WithNow(now func() time.Time) Option {
	return func(c *Clock) { c.now = now }
}

// New builds a Clock.
func New(opts ...Option) *Clock {
	c := &Clock{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Answer returns the French date/time reply for text, or ok=false when text
// is not a date/time question.
func (c *Clock) Answer(text string) (string, bool) {
	if !IsTimeQuestion(text) {
		return "", false
	}

	country := detectCountry(text)
	loc := lookupLocation(country)
	now := c.now().In(loc)

	dateStr := fmt.Sprintf("%s %d %s %d",
		frenchDays[now.Weekday()], now.Day(), frenchMonths[now.Month()-1], now.Year())
	timeStr := now.Format("15:04:05")

	preposition := "en"
	if masculineCountries[country] {
		preposition = "au"
	}

	return fmt.Sprintf("📅 Nous sommes le %s\n🕒 Il est %s %s %s",
		dateStr, timeStr, preposition, displayName(country)), true
}

// detectCountry returns the first listed country named in text, matching
// either the raw keyword or its space-separated form. Default is france.
func detectCountry(text string) string {
	lower := strings.ToLower(text)
	for _, z := range zones {
		spaced := strings.ReplaceAll(z.country, "_", " ")
		if strings.Contains(lower, z.country) || strings.Contains(lower, spaced) {
			return z.country
		}
	}
	return "france"
}

func lookupLocation(country string) *time.Location {
	name := "Europe/Paris"
	for _, z := range zones {
		if z.country == country {
			name = z.location
			break
		}
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// displayName renders a country keyword for humans: underscores become
// spaces and each word is capitalized.
func displayName(country string) string {
	words := strings.Split(country, "_")
	for i, w := range words {
		runes := []rune(w)
		if len(runes) > 0 {
			runes[0] = unicode.ToUpper(runes[0])
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
