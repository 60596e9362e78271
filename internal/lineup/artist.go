// Package lineup holds the artist model behind the festival lineup cards and
// the attribute surface used to build one.
package lineup

import (
	"errors"
	"sort"
	"strconv"
	"strings"
)

// ErrMissingSlug is returned by Validate for artists that cannot be stored.
var ErrMissingSlug = errors.New("artist slug is required")

// ErrReservedSlug is returned for slugs that collide with fixed lineup routes.
var ErrReservedSlug = errors.New("artist slug is reserved")

// reservedSlugs are path segments under /lineup/ that never name an artist.
var reservedSlugs = map[string]bool{
	"card": true,
}

// IsReservedSlug reports whether slug is taken by a fixed lineup route.
func IsReservedSlug(slug string) bool {
	return reservedSlugs[slug]
}

// Attribute names accepted by a lineup card
const (
	AttrName      = "name"
	AttrBio       = "bio"
	AttrPicture   = "picture"
	AttrRotation  = "rotation"
	AttrHeadliner = "headliner"
	AttrStartTime = "start-time"
)

// Artist is the input of a lineup card. Name, Bio and Picture are always
// rendered, even when empty.
type Artist struct {
	Slug        string   `json:"slug" url:"-"`
	Name        string   `json:"name" url:"name"`
	Bio         string   `json:"bio" url:"bio"`
	Picture     string   `json:"picture" url:"picture"`
	Rotation    Rotation `json:"rotation,omitempty" url:"rotation,omitempty"`
	IsHeadliner bool     `json:"isHeadliner,omitempty" url:"headliner,omitempty"`
	StartTime   int64    `json:"startTime,omitempty" url:"start-time,omitempty"`

	Facebook  string `json:"facebook,omitempty" url:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty" url:"instagram,omitempty"`
	Website   string `json:"website,omitempty" url:"website,omitempty"`
	Spotify   string `json:"spotify,omitempty" url:"spotify,omitempty"`
	Apple     string `json:"apple,omitempty" url:"apple,omitempty"`
	YouTube   string `json:"youtube,omitempty" url:"youtube,omitempty"`
}

// PictureAlt returns the alt text of the artist picture.
func (a Artist) PictureAlt() string {
	return "Picture of " + a.Name
}

// Social returns the URL stored for the given social key.
func (a Artist) Social(s Social) string {
	switch s {
	case SocialYouTube:
		return a.YouTube
	case SocialSpotify:
		return a.Spotify
	case SocialWebsite:
		return a.Website
	case SocialApple:
		return a.Apple
	case SocialInstagram:
		return a.Instagram
	case SocialFacebook:
		return a.Facebook
	}
	return ""
}

func (a *Artist) setSocial(s Social, v string) {
	switch s {
	case SocialYouTube:
		a.YouTube = v
	case SocialSpotify:
		a.Spotify = v
	case SocialWebsite:
		a.Website = v
	case SocialApple:
		a.Apple = v
	case SocialInstagram:
		a.Instagram = v
	case SocialFacebook:
		a.Facebook = v
	}
}

// SocialLinks returns one link per social attribute that is set, in canonical
// order. ok is false when no social attribute is set at all, in which case the
// card has no link list.
func (a Artist) SocialLinks() (links []SocialLink, ok bool) {
	for _, s := range Socials {
		href := a.Social(s)
		if href == "" {
			continue
		}
		links = append(links, SocialLink{
			Social: s,
			Href:   href,
			Title:  s.Title(a.Name),
			Icon:   s.Icon(),
		})
	}
	return links, len(links) > 0
}

// Validate checks the fields needed to persist an artist.
func (a Artist) Validate() error {
	if strings.TrimSpace(a.Slug) == "" {
		return ErrMissingSlug
	}
	if IsReservedSlug(a.Slug) {
		return ErrReservedSlug
	}
	return nil
}

// FromAttributes builds an artist from an attribute set. Unknown attributes are
// ignored and nothing is validated.
func FromAttributes(attrs map[string]string) Artist {
	a := Artist{
		Name:     attrs[AttrName],
		Bio:      attrs[AttrBio],
		Picture:  attrs[AttrPicture],
		Rotation: ParseRotation(attrs[AttrRotation]),
	}
	if v, ok := attrs[AttrHeadliner]; ok && v != "false" {
		a.IsHeadliner = true
	}
	if v := attrs[AttrStartTime]; v != "" {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			a.StartTime = ms
		}
	}
	for _, s := range Socials {
		a.setSocial(s, attrs[string(s)])
	}
	return a
}

// Attributes is the inverse of FromAttributes. Empty optional values are
// omitted.
func (a Artist) Attributes() map[string]string {
	attrs := map[string]string{
		AttrName:    a.Name,
		AttrBio:     a.Bio,
		AttrPicture: a.Picture,
	}
	if a.Rotation != RotationNone {
		attrs[AttrRotation] = string(a.Rotation)
	}
	if a.IsHeadliner {
		attrs[AttrHeadliner] = ""
	}
	if a.StartTime != 0 {
		attrs[AttrStartTime] = strconv.FormatInt(a.StartTime, 10)
	}
	for _, s := range Socials {
		if v := a.Social(s); v != "" {
			attrs[string(s)] = v
		}
	}
	return attrs
}

// SortForLineup orders artists the way the lineup page shows them: headliners
// first, then by start time (unscheduled last), then by name.
func SortForLineup(artists []Artist) {
	sort.SliceStable(artists, func(i, j int) bool {
		a, b := artists[i], artists[j]
		if a.IsHeadliner != b.IsHeadliner {
			return a.IsHeadliner
		}
		if a.StartTime != b.StartTime {
			if a.StartTime == 0 || b.StartTime == 0 {
				return b.StartTime == 0
			}
			return a.StartTime < b.StartTime
		}
		return a.Name < b.Name
	})
}
