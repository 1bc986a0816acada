package locale

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// ErrUnknownMarket indicates the market code has no locale mapping.
var ErrUnknownMarket = errors.New("unknown market")

type entry struct {
	market string // two-letter market code
	tag    string // BCP-47 locale tag used for template folder names
}

// One entry per market. The upstream mapping sheet carried duplicate rows
// for BE and CH; the surviving values below match what the duplicate-key
// collapse produced there, so folder names stay stable.
var markets = []entry{
	{"BR", "pt-BR"},
	{"AR", "es-AR"},
	{"CL", "es-CL"},
	{"CO", "es-CO"},
	{"MX", "es-MX"},
	{"PE", "es-PE"},
	{"UY", "es-UY"},
	{"US", "en-US"},
	{"CA", "en-CA"},
	{"GB", "en-GB"},
	{"AU", "en-AU"},
	{"NZ", "en-NZ"},
	{"IE", "en-IE"},
	{"ZA", "en-ZA"},
	{"SG", "en-SG"},
	{"MY", "en-MY"},
	{"PH", "en-PH"},
	{"ID", "en-ID"},
	{"TH", "en-TH"},
	{"VN", "en-VN"},
	{"DE", "de-DE"},
	{"AT", "de-AT"},
	{"CH", "it-CH"},
	{"FR", "fr-FR"},
	{"BE", "nl-BE"},
	{"IT", "it-IT"},
	{"ES", "es-ES"},
	{"PT", "pt-PT"},
	{"NL", "nl-NL"},
	{"PL", "pl-PL"},
	{"CZ", "cs-CZ"},
	{"SK", "sk-SK"},
	{"HU", "hu-HU"},
	{"RO", "ro-RO"},
	{"BG", "bg-BG"},
	{"GR", "el-GR"},
	{"DK", "da-DK"},
	{"SE", "sv-SE"},
	{"NO", "nb-NO"},
	{"FI", "fi-FI"},
	{"RU", "ru-RU"},
	{"UA", "uk-UA"},
	{"TR", "tr-TR"},
	{"IL", "he-IL"},
	{"AE", "ar-AE"},
	{"SA", "ar-SA"},
	{"EG", "ar-EG"},
	{"JP", "ja-JP"},
	{"KR", "ko-KR"},
	{"TW", "zh-TW"},
	{"HK", "zh-HK"},
	{"CN", "zh-CN"},
}

var byMarket map[string]string

func init() {
	byMarket = make(map[string]string, len(markets))
	for _, e := range markets {
		if _, dup := byMarket[e.market]; dup {
			panic(fmt.Sprintf("locale: duplicate market %s", e.market))
		}
		// Every tag must parse as BCP-47; a typo here should fail fast.
		language.MustParse(e.tag)
		byMarket[e.market] = e.tag
	}
}

// Resolve maps a two-letter market code to its locale tag. Matching is
// case-insensitive. Callers must treat ErrUnknownMarket as "skip this row";
// no default locale is ever fabricated.
func Resolve(market string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(market))
	if code == "" {
		return "", fmt.Errorf("%w: empty market code", ErrUnknownMarket)
	}
	tag, ok := byMarket[code]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownMarket, code)
	}
	return tag, nil
}

// Tag resolves a market code to a parsed language.Tag.
func Tag(market string) (language.Tag, error) {
	raw, err := Resolve(market)
	if err != nil {
		return language.Und, err
	}
	return language.Parse(raw)
}

// Markets returns every known market code, in table order.
func Markets() []string {
	out := make([]string, 0, len(markets))
	for _, e := range markets {
		out = append(out, e.market)
	}
	return out
}
