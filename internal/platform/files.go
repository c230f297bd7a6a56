package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// Temp file naming
const (
	// TempFileSuffix marks files the fetcher is still writing. A finished
	// run leaves none behind; leftovers are swept at the start of the next.
	TempFileSuffix = ".part"
)

// Default layout
const (
	MusicDirName = "Music"
	SongsDirName = "YtSongs"
)

// Characters that are unsafe in filenames on at least one major platform.
const unsafeFilenameChars = `\/*?:"<>|`

// SanitizeFilename strips filesystem-reserved characters from a proposed
// file name. Everything else, including Unicode, passes through unchanged.
func SanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(unsafeFilenameChars, r) {
			return -1
		}
		return r
	}, name)
}

// CreateDirectoryIfNotExists creates directory if it doesn't exist.
// Reports whether the directory already existed.
func CreateDirectoryIfNotExists(dirPath string) (existed bool, err error) {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return false, os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return true, nil
}

// SweepTempFiles removes leftover temporary download files in dir and
// returns the paths it removed so the caller can log each deletion. Final
// media files are never touched; only names carrying TempFileSuffix match.
func SweepTempFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s for temp files: %w", dir, err)
	}

	var removed []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), TempFileSuffix) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("failed to remove temp file %s: %w", path, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}

// TempPath derives the temporary download path for a target file: the
// source-native extension replaces the output extension and TempFileSuffix
// is appended, so in-progress files are always distinguishable.
func TempPath(dir, baseName, sourceExt string) string {
	return filepath.Join(dir, baseName+"."+sourceExt+TempFileSuffix)
}

// DefaultMusicDir returns the default destination for downloaded songs,
// a YtSongs folder inside the user's Music directory.
func DefaultMusicDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, MusicDirName, SongsDirName), nil
}
