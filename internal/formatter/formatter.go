// package formatter renders playlist listings as plain text, Markdown, CSV and JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/spm/internal/models"
)

// Format is an export format name accepted on the command line.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// Formats lists every supported [Format].
var Formats = []Format{FormatText, FormatMarkdown, FormatCSV, FormatJSON}

// ParseFormat resolves a format name, accepting "md" and "txt" as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format %q", s)
	}
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	default:
		return "txt"
	}
}

// Listing is a playlist and the rows displayed for it.
//
// Fetched counts every item the service returned; it exceeds len(Tracks) when removed tracks were skipped.
type Listing struct {
	Playlist models.PlaylistSummary `json:"playlist"`
	Tracks   []models.Track         `json:"tracks"`
	Fetched  int                    `json:"fetched"`
}

// FormatDuration renders milliseconds as m:ss.
func FormatDuration(ms int) string {
	if ms <= 0 {
		return "0:00"
	}
	s := ms / 1000
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// Visibility renders a public flag.
func Visibility(public bool) string {
	if public {
		return "Public"
	}
	return "Private"
}

// Export renders l in the given format.
func Export(l *Listing, f Format) ([]byte, error) {
	switch f {
	case FormatText:
		return ExportToText(l)
	case FormatMarkdown:
		return ExportToMarkdown(l)
	case FormatCSV:
		return ExportToCSV(l)
	case FormatJSON:
		return ExportToJSON(l)
	default:
		return nil, fmt.Errorf("unsupported format %q", f)
	}
}

// ExportToText renders the playlist details view:
//
//	Playlist: <name>
//	Description: <description>
//	Total Tracks: <total>
//
//	Track List:
//	1. <name> - <artists>
func ExportToText(l *Listing) ([]byte, error) {
	var buf bytes.Buffer

	description := l.Playlist.Description
	if description == "" {
		description = "No description"
	}

	fmt.Fprintf(&buf, "Playlist: %s\n", l.Playlist.Name)
	fmt.Fprintf(&buf, "Description: %s\n", description)
	fmt.Fprintf(&buf, "Total Tracks: %d\n\n", l.Playlist.TotalTracks)
	buf.WriteString("Track List:\n")

	for i, track := range l.Tracks {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, track.String())
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders l as a Markdown document.
func ExportToMarkdown(l *Listing) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", l.Playlist.Name)

	if l.Playlist.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", l.Playlist.Description)
	}

	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(l.Tracks))
	if skipped := l.Fetched - len(l.Tracks); skipped > 0 {
		fmt.Fprintf(&buf, "**Unavailable**: %d\n", skipped)
	}
	fmt.Fprintf(&buf, "**Visibility**: %s\n\n", Visibility(l.Playlist.Public))

	buf.WriteString("## Tracks\n\n")
	for i, track := range l.Tracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		fmt.Fprintf(&buf, "%d. %s%s [%s]\n", i+1, track.String(), albumPart, FormatDuration(track.DurationMS))
	}

	return buf.Bytes(), nil
}

// ExportToCSV renders l with columns: URI, Name, Artists, Album, Duration
func ExportToCSV(l *Listing) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"URI", "Name", "Artists", "Album", "Duration"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range l.Tracks {
		record := []string{
			track.URI,
			track.Name,
			track.ArtistLine(),
			track.Album,
			strconv.Itoa(track.DurationMS),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders l as indented JSON.
func ExportToJSON(l *Listing) ([]byte, error) {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteExport writes l to path in format f and returns the path written.
//
// Defaults to {playlist.ID}_tracks.{ext} as the filename.
func WriteExport(l *Listing, f Format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_tracks.%s", l.Playlist.ID, f.Extension())
	}

	data, err := Export(l, f)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}
