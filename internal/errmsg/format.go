// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

const (
	// Playback
	OpPlaybackStart Op = "start playback"
	OpPlaybackSeek  Op = "seek"
	OpDeviceOpen    Op = "open audio device"

	// Import
	OpImportFile Op = "import file"
	OpImportTags Op = "read file tags"
	OpImportMove Op = "move file into music folder"

	// Catalog
	OpCatalogOpen   Op = "open catalog"
	OpCatalogList   Op = "list catalog"
	OpCatalogRemove Op = "remove from catalog"

	// Startup
	OpConfigLoad Op = "load configuration"
	OpLogOpen    Op = "open log file"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message naming the item the operation was
// applied to.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
