package validate

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const (
	maxTitleLen = 200
	maxBodyLen  = 100_000
	minPassword = 8
)

// audioExts are the upload formats the transcription endpoint accepts.
var audioExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".ogg":  true,
	".flac": true,
}

func Email(v string) error {
	if v == "" {
		return fmt.Errorf("email is required")
	}
	if len(v) > 320 || !emailRx.MatchString(v) {
		return fmt.Errorf("invalid email")
	}
	return nil
}

func Password(v string) error {
	if len(v) < minPassword {
		return fmt.Errorf("password must be at least %d characters", minPassword)
	}
	return nil
}

// Title requires a non-blank title within the length cap.
func Title(v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("title is required")
	}
	if len(v) > maxTitleLen {
		return fmt.Errorf("title exceeds %d characters", maxTitleLen)
	}
	return nil
}

// Body requires a non-blank body within the length cap.
func Body(v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("body is required")
	}
	if len(v) > maxBodyLen {
		return fmt.Errorf("body exceeds %d characters", maxBodyLen)
	}
	return nil
}

// OptionalTitle and OptionalBody validate patch fields that may be absent.
func OptionalTitle(v *string) error {
	if v == nil {
		return nil
	}
	return Title(*v)
}

func OptionalBody(v *string) error {
	if v == nil {
		return nil
	}
	return Body(*v)
}

// AudioFilename checks the upload extension against the supported formats.
func AudioFilename(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !audioExts[ext] {
		return fmt.Errorf("unsupported audio format %q; use .mp3, .wav, .ogg or .flac", ext)
	}
	return nil
}
