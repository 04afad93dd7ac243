package google

// DefaultOAuthScopes are the Google OAuth scopes needed to read busy time.
//
// calendar.freebusy is enough to query other attendees; calendar.readonly is
// included so a user's own secondary calendars can be listed.
var DefaultOAuthScopes = []string{
	"https://www.googleapis.com/auth/calendar.freebusy",
	"https://www.googleapis.com/auth/calendar.readonly",
}
