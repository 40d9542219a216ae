package bot

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/telelocator/telelocator-go/internal/storage"
)

// Static reply texts. Dynamic ones are built by the functions below.
const (
	helpText = "I help you find locations in the directory.\n\n" +
		"/number - look up a single location\n" +
		"/numbers - look up several locations at once\n" +
		"/city, /town, /village, /postcode - search one type directly\n" +
		"/invite - get an invite link\n" +
		"/start - see your remaining quota\n\n" +
		"You can also share a location pin to see what's nearby."

	promptLocationText        = "Please enter a location name or address."
	promptLocationNumbersText = "Please enter a location to look up. I'll send back the closest matches."
	fallbackPromptText        = "I didn't catch that. Use /number to look up a location, or /invite for an invite link."
	unknownCommandText        = "Unknown command. Send /help to see what I can do."
	notFoundText              = "Sorry, I couldn't find that place. Please check the spelling and try again."
	geocodeDownText           = "The location service is having trouble right now. Please try again later."
	searchFailedText          = "Something went wrong on my end. Please try again in a moment."
	noNearbyText              = "No locations found near that pin."
)

// WelcomeText builds the /start greeting with the remaining daily quota.
func WelcomeText(firstName string, remaining int) string {
	greeting := "Welcome"
	if firstName != "" {
		greeting = "Welcome, " + firstName
	}
	return fmt.Sprintf(
		"%s! I'm the location directory bot.\n\n"+
			"You have %d requests left for today.\n\n"+
			"Send /help to see everything I can do.",
		greeting, remaining,
	)
}

// QuotaExceededText tells the user their daily allowance is used up.
func QuotaExceededText(limit int) string {
	return fmt.Sprintf(
		"You've used all %d of your daily searches. Your quota refills as older searches fall out of the 24-hour window.",
		limit,
	)
}

// InviteText builds the /invite reply.
func InviteText(link string) string {
	if link == "" {
		return "Invites aren't set up yet. Please check back later."
	}
	return "Share this link to invite others:\n" + link
}

// FormatStars renders a rating as five star glyphs. The rating is rounded to
// the nearest integer and clamped to [0, 5].
func FormatStars(rating float64) string {
	filled := int(math.Round(rating))
	if filled < 0 {
		filled = 0
	}
	if filled > 5 {
		filled = 5
	}
	return strings.Repeat("★", filled) + strings.Repeat("☆", 5-filled)
}

// FormatLocation renders one location as an HTML display block. Name and
// address come from the store and are escaped before markup is added.
func FormatLocation(loc *storage.Location) string {
	return fmt.Sprintf("<b>%s</b>\n%s\n%s\n%s",
		html.EscapeString(loc.Name),
		html.EscapeString(loc.Address),
		loc.Type.Label(),
		FormatStars(loc.Rating),
	)
}

// FormatLocations renders a result list, blocks separated by blank lines.
// Deliver the result with the HTML parse mode.
func FormatLocations(locs []storage.Location) string {
	blocks := make([]string, 0, len(locs))
	for i := range locs {
		blocks = append(blocks, FormatLocation(&locs[i]))
	}
	return strings.Join(blocks, "\n\n")
}
