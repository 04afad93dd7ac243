// Package google_tools provides MCP tools for Google OAuth authentication.
//
// They are registered when participant calendars come from the Google
// Calendar freebusy API and let an assistant complete the OAuth flow:
//  1. Call google_get_auth_url to get the authorization URL
//  2. The user visits the URL, authorizes read access and copies the code
//  3. Call google_save_auth_code with the code to store the token
//
// Saving a token reloads the participant calendars right away.
package google_tools
