// Package naming builds published file names and filesystem-safe tokens.
package naming

import (
	"strings"

	"reelpost/internal/config"
)

// SanitizeFileName replaces every run of characters outside letters, digits,
// '.', '_', '-' and space with a single underscore and trims surrounding
// whitespace.
func SanitizeFileName(name string) string {
	var b strings.Builder
	pending := false
	for _, r := range name {
		if allowedRune(r) {
			if pending {
				b.WriteByte('_')
				pending = false
			}
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	if pending {
		b.WriteByte('_')
	}
	return strings.TrimSpace(b.String())
}

func allowedRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.' || r == '_' || r == '-' || r == ' ':
		return true
	}
	return false
}

// SanitizeToken converts a string to a lowercase filesystem-safe token.
// Letters are lowercased, digits and hyphens/underscores are kept, everything
// else becomes an underscore. Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}

// Builder decorates output names with the configured prefix, suffix and
// meta tags.
type Builder struct {
	Prefix   string
	Suffix   string
	MetaTags []string
}

// FromConfig returns the configured Builder.
func FromConfig(cfg *config.Config) Builder {
	return Builder{
		Prefix:   cfg.Naming.Prefix,
		Suffix:   cfg.Naming.Suffix,
		MetaTags: cfg.Naming.MetaTags,
	}
}

// Build renders "<prefix><title>[.<tag>...].<quality><suffix><ext>". ext
// defaults to ".mp4".
func (b Builder) Build(title, quality, ext string) string {
	if ext == "" {
		ext = ".mp4"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	var meta strings.Builder
	for _, tag := range b.MetaTags {
		if tag = SanitizeFileName(tag); tag != "" {
			meta.WriteString(".")
			meta.WriteString(tag)
		}
	}
	full := b.Prefix + SanitizeFileName(title) + meta.String() + "." + quality + b.Suffix + strings.ToLower(ext)
	return SanitizeFileName(full)
}
