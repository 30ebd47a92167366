// Package service holds the console's stores and resolver: the in-memory
// collections the UI reads, and the multi-step writes that keep them in sync
// with the hosted backend.
package service

import (
	"alcyxob/gym-console/internal/auth"
	"alcyxob/gym-console/internal/repository"
	"alcyxob/gym-console/internal/storage"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Backend bundles the ports of the hosted backend.
type Backend struct {
	Tables        repository.Tables
	Auth          auth.Provider
	Storage       storage.FileStorage
	AvatarsBucket string
}

const placeholderPhotoURL = "https://picsum.photos/seed/%s/100/100"

// PlaceholderPhotoURL is the deterministic stand-in image for a student without a photo.
func PlaceholderPhotoURL(studentID string) string {
	return fmt.Sprintf(placeholderPhotoURL, studentID)
}

func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// avatarURL resolves a stored avatar path. Absolute URLs pass through.
func (b Backend) avatarURL(path string) string {
	switch {
	case path == "":
		return ""
	case isAbsoluteURL(path) || b.Storage == nil:
		return path
	default:
		return b.Storage.PublicURL(b.AvatarsBucket, path)
	}
}

// avatarKey is the storage key of a student's photo. Uploads for the same
// student and extension overwrite each other.
func avatarKey(id, ext string) string {
	return "public/" + id + "." + ext
}

// ParseLocale parses a BCP 47 tag, falling back to Brazilian Portuguese.
func ParseLocale(tag string) language.Tag {
	t, err := language.Parse(tag)
	if err != nil {
		return language.BrazilianPortuguese
	}
	return t
}
