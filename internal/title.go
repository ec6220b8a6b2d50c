package internal

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const maxTitleLen = 30

var (
	repoURLNoise    = regexp.MustCompile(`https://github\.com/|\.git`)
	repoFromGreeter = regexp.MustCompile(`Repository\s+(.+?)\s+has been`)
)

// FallbackTitle is used when no file or repository names the session.
func FallbackTitle(now time.Time) string {
	return fmt.Sprintf("Chat %s", now.Format("1/2/2006, 3:04:05 PM"))
}

// FileTitle derives a session title from an uploaded file name.
func FileTitle(path string, now time.Time) string {
	name := filepath.Base(path)
	if path == "" || name == "." || name == string(filepath.Separator) {
		return FallbackTitle(now)
	}
	return truncateRunes(name, maxTitleLen)
}

// RepoTitle derives a session title from a repository URL, e.g. "owner/repo".
func RepoTitle(repoURL string, now time.Time) string {
	if strings.TrimSpace(repoURL) == "" {
		return FallbackTitle(now)
	}
	return truncateRunes(repoURLNoise.ReplaceAllString(repoURL, ""), maxTitleLen)
}

// RepoGreeting is the first assistant message of a repository session.
func RepoGreeting(repoURL string) string {
	return fmt.Sprintf("Repository %s has been analyzed. You can now ask questions about the code, structure, or functionality.", repoURL)
}

// RepoURLFromSession recovers the repository URL from a stored session's greeting.
func RepoURLFromSession(s ChatSession) (string, bool) {
	msg, ok := s.FirstMessage(RoleAssistant)
	if !ok {
		return "", false
	}
	m := repoFromGreeter.FindStringSubmatch(msg.Content)
	if m == nil || m[1] == "" {
		return "", false
	}
	return m[1], true
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
