package transcript

import (
	"regexp"
	"strings"
)

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/v/)([^&\n?#]+)`),
	regexp.MustCompile(`(?i)youtube\.com/watch\?.*?v=([^&\n?#]+)`),
	regexp.MustCompile(`(?i)youtube\.com/shorts/([^&\n?#]+)`),
	regexp.MustCompile(`(?i)youtube-nocookie\.com/embed/([^&\n?#]+)`),
}

var bareVideoIDRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// ExtractVideoID pulls the video ID out of the common YouTube URL
// shapes, or accepts a bare 11-character ID.
func ExtractVideoID(url string) (string, bool) {
	url = strings.TrimSpace(url)
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1], true
		}
	}
	if bareVideoIDRe.MatchString(url) {
		return url, true
	}
	return "", false
}

// IsVideoURL reports whether the input looks like a YouTube URL or ID.
func IsVideoURL(url string) bool {
	_, ok := ExtractVideoID(url)
	return ok
}
