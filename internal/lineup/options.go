package lineup

import (
	"encoding/json"
	"strings"
)

// Rotation is the visual tilt of the card picture
type Rotation string

const (
	RotationNone  Rotation = ""
	RotationLeft  Rotation = "left"
	RotationRight Rotation = "right"
)

// ParseRotation maps the rotation attribute to a Rotation. Absent or unknown
// values mean no rotation.
func ParseRotation(s string) Rotation {
	switch Rotation(strings.ToLower(strings.TrimSpace(s))) {
	case RotationLeft:
		return RotationLeft
	case RotationRight:
		return RotationRight
	default:
		return RotationNone
	}
}

// UnmarshalJSON normalises rotations read from seed files, stores and the API.
func (r *Rotation) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r = ParseRotation(s)
	return nil
}

// Class returns the CSS class of the rotation wrapper.
func (r Rotation) Class() string {
	switch r {
	case RotationRight:
		return "rotate-12"
	case RotationLeft:
		return "-rotate-12"
	default:
		return "rotate-0"
	}
}

// Label is used for metric labels and logs.
func (r Rotation) Label() string {
	if r == RotationNone {
		return "none"
	}
	return string(r)
}

// Social is one of the recognized external profile links
type Social string

const (
	SocialYouTube   Social = "youtube"
	SocialSpotify   Social = "spotify"
	SocialWebsite   Social = "website"
	SocialApple     Social = "apple"
	SocialInstagram Social = "instagram"
	SocialFacebook  Social = "facebook"
)

// Socials lists the social keys in the order the card renders them
var Socials = []Social{
	SocialYouTube,
	SocialSpotify,
	SocialWebsite,
	SocialApple,
	SocialInstagram,
	SocialFacebook,
}

// IconDir is where social icons are served from
const IconDir = "/assets/images/icons/"

// Title formats the link title, e.g. "Jabbawaukee's Youtube page".
func (s Social) Title(name string) string {
	key := string(s)
	return name + "'s " + strings.ToUpper(key[:1]) + key[1:] + " page"
}

// Icon returns the icon asset path for the social key.
func (s Social) Icon() string {
	return IconDir + string(s) + ".svg"
}

// SocialLink is one rendered item of the card's link list
type SocialLink struct {
	Social Social
	Href   string
	Title  string
	Icon   string
}
