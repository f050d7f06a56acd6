package services

import (
	"regexp"
	"strconv"
	"strings"

	"rent-estimator/location"
	"rent-estimator/models"
	"rent-estimator/utils"
)

// DefaultMaxRentPricePerSqm drops rentals priced above this many euros per
// square metre per month; such rows are almost always mislabelled sales or
// per-night prices.
const DefaultMaxRentPricePerSqm = 45.0

var (
	// numberRegexp captures a number with optional thousands/decimal separators
	numberRegexp = regexp.MustCompile(`\d[\d.,\s\x{00a0}]*`)
	// sizeRegexp captures "75 m²", "75m2", "85,5 sqm"
	sizeRegexp = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:m²|m2|sqm|sq\.?\s?m)`)
	// roomTypeRegexp captures Portuguese typologies such as "T2" or "t 3"
	roomTypeRegexp = regexp.MustCompile(`(?i)\bt\s?(\d)`)
	studioRegexp   = regexp.MustCompile(`(?i)\b(?:studio|est[uú]dio)`)
	// bedroomCountRegexp captures a bare bedroom count from a rooms column: "2", "3 quartos"
	bedroomCountRegexp = regexp.MustCompile(`(?i)^(\d)\s*(?:quartos?|bedrooms?|beds?|rooms?)?$`)
)

// Cleaner transforms RawListings into validated ListingRecords.
type Cleaner struct {
	logger        *utils.Logger
	normalizer    *location.Normalizer
	maxRentPerSqm float64
}

// NewCleaner creates a Cleaner. maxRentPerSqm <= 0 disables the rental
// outlier filter.
func NewCleaner(logger *utils.Logger, normalizer *location.Normalizer, maxRentPerSqm float64) *Cleaner {
	return &Cleaner{logger: logger, normalizer: normalizer, maxRentPerSqm: maxRentPerSqm}
}

// Clean processes raw listings and returns cleaned records in input order.
// Sales with unusable price or size are kept so they surface in the report
// as invalid; rentals without them are dropped.
func (c *Cleaner) Clean(raw []*models.RawListing) []*models.ListingRecord {
	seen := utils.NewURLSet()
	result := make([]*models.ListingRecord, 0, len(raw))
	var outliers int

	for _, r := range raw {
		url := strings.TrimSpace(r.URL)
		if url == "" {
			c.logger.Warn("[cleaner] Dropping listing with empty URL: %s", r.Title)
			continue
		}

		if !seen.Add(url) {
			c.logger.Debug("[cleaner] Duplicate URL skipped: %s", url)
			continue
		}

		loc := normaliseText(r.Location)
		rec := &models.ListingRecord{
			Kind:        r.Kind,
			URL:         url,
			Price:       parseNumber(r.RawPrice),
			SizeSqm:     parseSize(r),
			RoomType:    parseRoomType(r),
			LocationRaw: loc,
		}
		if rec.RoomType == "" && strings.TrimSpace(r.RoomType) != "" {
			c.logger.Warn("[cleaner] Unrecognised room type %q: %s", r.RoomType, url)
		}
		if c.normalizer != nil {
			rec.LocationNormalized = c.normalizer.Normalize(loc)
			rec.Neighborhood, _ = c.normalizer.ExtractNeighborhood(loc)
		}

		if rec.Kind == models.KindRental {
			if !rec.Usable() {
				c.logger.Debug("[cleaner] Rental without price or size skipped: %s", url)
				continue
			}
			if c.maxRentPerSqm > 0 && rec.PricePerSqm() > c.maxRentPerSqm {
				c.logger.Debug("[cleaner] Rental outlier skipped: %s (%.2f €/m²)", url, rec.PricePerSqm())
				outliers++
				continue
			}
		}

		result = append(result, rec)
	}

	c.logger.Info("[cleaner] Cleaned %d → %d listings (dropped %d, outliers %d)",
		len(raw), len(result), len(raw)-len(result), outliers)
	return result
}

// parseNumber reads the first number in raw, accepting both "1.250,50" and
// "1,250.50" styles.
// Examples:
//
//	"€1.250/mês" → 1250
//	"350,000 €"  → 350000
//	"85,5"       → 85.5
func parseNumber(raw string) float64 {
	match := numberRegexp.FindString(raw)
	if match == "" {
		return 0
	}
	cleaned := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' || r == '\t' {
			return -1
		}
		return r
	}, match)
	cleaned = strings.TrimRight(cleaned, ".,")

	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		cleaned = resolveSeparator(cleaned, ",", lastComma)
	case lastDot >= 0:
		cleaned = resolveSeparator(cleaned, ".", lastDot)
	}

	val, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return val
}

// resolveSeparator treats sep as a thousands separator when it repeats or is
// followed by exactly three digits, otherwise as the decimal point.
func resolveSeparator(s, sep string, last int) string {
	if strings.Count(s, sep) > 1 || len(s)-last-1 == 3 {
		return strings.ReplaceAll(s, sep, "")
	}
	return strings.Replace(s, sep, ".", 1)
}

func parseSize(r *models.RawListing) float64 {
	if m := sizeRegexp.FindStringSubmatch(r.RawSize); len(m) == 2 {
		return parseNumber(m[1])
	}
	if v := parseNumber(r.RawSize); v > 0 {
		return v
	}
	for _, text := range []string{r.Details, r.Title} {
		if m := sizeRegexp.FindStringSubmatch(text); len(m) == 2 {
			return parseNumber(m[1])
		}
	}
	return 0
}

// parseRoomType returns "T0".."T9" or "" when unknown. Studios are T0. A bare
// count in the room type column is read as the number of bedrooms.
func parseRoomType(r *models.RawListing) string {
	if m := bedroomCountRegexp.FindStringSubmatch(strings.TrimSpace(r.RoomType)); len(m) == 2 {
		return "T" + m[1]
	}
	for _, text := range []string{r.RoomType, r.Title, r.Details} {
		if text == "" {
			continue
		}
		if studioRegexp.MatchString(text) {
			return "T0"
		}
		if m := roomTypeRegexp.FindStringSubmatch(text); len(m) == 2 {
			return "T" + m[1]
		}
	}
	return ""
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
