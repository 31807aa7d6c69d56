package listing

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	domlisting "github.com/marketdz/searchd/internal/domain/listing"
)

// Hash field names of a stored listing.
const (
	fieldTitle           = "title"
	fieldDescription     = "description"
	fieldPrice           = "price"
	fieldCategory        = "category"
	fieldWilaya          = "wilaya"
	fieldCity            = "city"
	fieldPhotos          = "photos"
	fieldStatus          = "status"
	fieldCreatedAt       = "created_at"
	fieldOwnerID         = "owner_id"
	fieldOwnerRating     = "owner_rating"
	fieldViews           = "views"
	fieldLatitude        = "lat"
	fieldLongitude       = "lng"
	fieldStyleTags       = "style_tags"
	fieldModerationScore = "moderation_score"
)

// listingFromFields maps a stored hash onto the domain listing. Malformed or
// absent optional fields degrade to zero values rather than failing the page.
func listingFromFields(id string, fields map[string]string) domlisting.Listing {
	l := domlisting.Listing{
		ID:          id,
		Title:       fields[fieldTitle],
		Description: fields[fieldDescription],
		Category:    domlisting.Category(fields[fieldCategory]),
		Wilaya:      fields[fieldWilaya],
		City:        fields[fieldCity],
		Status:      domlisting.Status(fields[fieldStatus]),
		OwnerID:     fields[fieldOwnerID],
	}

	l.Price = parseOptFloat(fields[fieldPrice])
	l.Latitude = parseOptFloat(fields[fieldLatitude])
	l.Longitude = parseOptFloat(fields[fieldLongitude])
	l.ModerationScore = parseOptFloat(fields[fieldModerationScore])

	if v, err := strconv.ParseFloat(fields[fieldOwnerRating], 64); err == nil {
		l.OwnerRating = v
	}
	if v, err := strconv.ParseInt(fields[fieldViews], 10, 64); err == nil {
		l.Views = v
	}
	if ts, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64); err == nil {
		l.CreatedAt = time.Unix(ts, 0).UTC()
	}

	if raw := fields[fieldPhotos]; raw != "" {
		var photos []string
		if err := json.Unmarshal([]byte(raw), &photos); err == nil {
			l.Photos = photos
		}
	}
	if raw := fields[fieldStyleTags]; raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				l.StyleTags = append(l.StyleTags, tag)
			}
		}
	}

	return l
}

func parseOptFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
