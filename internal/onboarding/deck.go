// Package onboarding greets a user on first contact with a fixed deck of
// photo slides and records that the user reached its end.
package onboarding

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf16"

	"github.com/gabriel-vasile/mimetype"
)

// Slide is one photo message with a caption and a single link button.
type Slide struct {
	Photo      string // local file path
	Caption    string
	ButtonText string
	URL        string
}

// MaxCaptionLength is the Bot API limit for photo captions, counted in
// UTF-16 code units.
const MaxCaptionLength = 1024

// Deck is shown in order. An empty deck just registers the user.
type Deck []Slide

const groupURL = "https://t.me/trading_germany"

const welcomeCaption = `Guten Tag! Mein Name ist Christoph, und ich freue mich sehr, Sie kennenzulernen.
Ich bin ein Trader mit umfangreicher Erfahrung 📊 und habe derzeit viele vielversprechende Projekte 🚀
Ich freue mich, dass gerade Sie hier auf meinem Kanal gelandet sind!
Vielen Kunden, die finanzielle Probleme hatten, konnte ich bereits helfen 💪, sie zu lösen und so ihr Traumziel zu erreichen 🌟
Ich biete keine übernatürlichen Investitionen an ✋ – ich biete nur eine gute, solide Einkommensmöglichkeit 💼💰

Wenn Sie interessiert sind, freue ich mich sehr, Sie in meinem Telegram-Kanal zu begrüßen.
Ich habe viele zufriedene Kunden und zahlreiche positive Bewertungen ⭐️
Sie können also ganz sicher sein – ich schätze jeden einzelnen meiner Kunden sehr.
Und wenn Sie mehr erfahren möchten, schreiben Sie mir einfach eine private Nachricht ✉️
Ich erzähle Ihnen gerne mehr über meine Arbeitsmethode 💼 und über die Perspektiven dieses Projekts 🚀

✉️Mir eine private Nachricht schreiben:  @christoph_crypto`

// DefaultDeck returns the single promotional slide using photo as its image.
func DefaultDeck(photo string) Deck {
	return Deck{
		{
			Photo:      photo,
			Caption:    welcomeCaption,
			ButtonText: "🔗 Weiter",
			URL:        groupURL,
		},
	}
}

// Validate checks that every slide points at a readable image, fits the
// caption limit and, when it has a button, at an absolute link.
func (d Deck) Validate() error {
	var errs []error
	for i, s := range d {
		mt, err := mimetype.DetectFile(s.Photo)
		if err != nil {
			errs = append(errs, fmt.Errorf("slide %d: photo %q: %w", i, s.Photo, err))
		} else if !strings.HasPrefix(mt.String(), "image/") {
			errs = append(errs, fmt.Errorf("slide %d: photo %q is %s, not an image", i, s.Photo, mt.String()))
		}

		if n := len(utf16.Encode([]rune(s.Caption))); n > MaxCaptionLength {
			errs = append(errs, fmt.Errorf("slide %d: caption is %d characters, limit is %d", i, n, MaxCaptionLength))
		}

		if s.ButtonText == "" {
			continue
		}
		u, err := url.Parse(s.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("slide %d: invalid button url %q", i, s.URL))
		}
	}
	return errors.Join(errs...)
}
