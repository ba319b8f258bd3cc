package logger

import "strings"

// RedactEmail masks a contact's email address for log output, keeping just
// enough of the local part to correlate entries: "jane.doe@example.com"
// becomes "ja***@example.com". Local parts of two characters or fewer are
// masked entirely, and anything that is not shaped like an email collapses
// to "***@***".
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}
