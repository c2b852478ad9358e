package schema

import (
	"strings"

	"github.com/GyroZepelix/mithril-admin/internal/dynval"
)

// MediaValue is the normalized stored shape of a media field.
type MediaValue struct {
	URL          string `json:"url"`
	Photographer string `json:"photographer"`
	Route        string `json:"route"`
}

// Value converts m into its stored object form.
func (m MediaValue) Value() dynval.Value {
	return dynval.Object(map[string]dynval.Value{
		"url":          dynval.String(m.URL),
		"photographer": dynval.String(m.Photographer),
		"route":        dynval.String(m.Route),
	})
}

// NormalizeMediaValue reads a media field value in any stored form. Legacy
// values are bare URL strings; they are upgraded in memory only. Anything
// else yields an empty MediaValue. Normalizing is idempotent.
func NormalizeMediaValue(v dynval.Value) MediaValue {
	if s, ok := v.AsString(); ok {
		return MediaValue{URL: s}
	}
	if _, ok := v.AsObject(); ok {
		return MediaValue{
			URL:          v.GetString("url"),
			Photographer: v.GetString("photographer"),
			Route:        v.GetString("route"),
		}
	}
	return MediaValue{}
}

// mediaURL returns the URL carried by a media value, bare or object form.
func mediaURL(v dynval.Value) string {
	return strings.TrimSpace(NormalizeMediaValue(v).URL)
}

// Button link targets.
const (
	TargetSelf  = "_self"
	TargetBlank = "_blank"
)

// ButtonValue is the normalized stored shape of a button field.
type ButtonValue struct {
	Text   string `json:"text"`
	URL    string `json:"url"`
	Target string `json:"target"`
}

// Value converts b into its stored object form.
func (b ButtonValue) Value() dynval.Value {
	return dynval.Object(map[string]dynval.Value{
		"text":   dynval.String(b.Text),
		"url":    dynval.String(b.URL),
		"target": dynval.String(b.Target),
	})
}

// NormalizeButtonValue reads a button field value. Missing members become
// empty strings and any target other than _blank becomes _self.
func NormalizeButtonValue(v dynval.Value) ButtonValue {
	b := ButtonValue{
		Text:   v.GetString("text"),
		URL:    v.GetString("url"),
		Target: TargetSelf,
	}
	if v.GetString("target") == TargetBlank {
		b.Target = TargetBlank
	}
	return b
}

// MediaRefScheme is the URL scheme of a media value that names a media
// library record instead of a location: media://<record id>.
const MediaRefScheme = "media"

// MediaRef returns the reference URL of media record id.
func MediaRef(id string) string {
	return MediaRefScheme + "://" + id
}

// MediaRecordID returns the id of the media library record v refers to,
// either through a media:// URL or as a legacy bare id. Both forms are read
// from a bare string or from the url member of an object.
func MediaRecordID(v dynval.Value) (string, bool) {
	u := mediaURL(v)
	if IsUUID(u) {
		return u, true
	}
	rest, ok := strings.CutPrefix(u, MediaRefScheme+"://")
	if !ok || !IsUUID(rest) {
		return "", false
	}
	return rest, true
}
