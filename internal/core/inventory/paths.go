package inventory

import (
	"fmt"
	"path"
)

// =============================================================================
// Settings
// =============================================================================

// Settings are the host-specific values the inventory is rendered with.
type Settings struct {
	// MediaRoot is the mount point of the data disk.
	MediaRoot string

	// LibraryRoot holds media libraries and git repositories.
	LibraryRoot string

	// ConfigsRoot holds one config directory per service.
	ConfigsRoot string

	// MainHost is the address of the machine running host-network services.
	MainHost string

	// Timezone is passed to containers as TZ.
	Timezone string

	// PUID and PGID are the user and group linuxserver images run as.
	PUID int
	PGID int

	// ScanRange is the subnet upsnap scans for devices.
	ScanRange string
}

// DefaultSettings returns the settings of the original machine.
func DefaultSettings() Settings {
	return Settings{
		MediaRoot:   "/media/SchlezExt2",
		LibraryRoot: "/media/SchlezExt2/library",
		ConfigsRoot: "/media/SchlezExt2/configs",
		MainHost:    "192.168.31.38",
		Timezone:    "Asia/Jerusalem",
		PUID:        1000,
		PGID:        1000,
		ScanRange:   "192.168.31.0/24",
	}
}

// =============================================================================
// Path Functions
// =============================================================================

// Library names a directory under LibraryRoot.
type Library string

const (
	LibraryTV         Library = "tv"
	LibraryMovies     Library = "movies"
	LibraryDownloads  Library = "downloads"
	LibraryGit        Library = "git"
	LibraryAudiobooks Library = "audiobooks"
	LibraryPodcasts   Library = "podcasts"
)

// LibraryPath returns the host path of a library.
// Pattern: {LibraryRoot}/{library}
//
// Example:
//
//	LibraryPath(DefaultSettings(), LibraryTV) // returns "/media/SchlezExt2/library/tv"
func LibraryPath(s Settings, lib Library) string {
	return path.Join(s.LibraryRoot, string(lib))
}

// ConfigDir returns the host config directory of a service.
// Pattern: {ConfigsRoot}/{name}
//
// Example:
//
//	ConfigDir(DefaultSettings(), "sonarr") // returns "/media/SchlezExt2/configs/sonarr"
func ConfigDir(s Settings, name string) string {
	return path.Join(s.ConfigsRoot, name)
}

// HostURL returns an http URL on the main machine.
//
// Example:
//
//	HostURL(DefaultSettings(), 8123) // returns "http://192.168.31.38:8123"
func HostURL(s Settings, port int) string {
	return fmt.Sprintf("http://%s:%d", s.MainHost, port)
}

// bind formats a short-form bind mount.
func bind(source, target string) string {
	return source + ":" + target
}

// bindRO formats a read-only short-form bind mount.
func bindRO(source, target string) string {
	return source + ":" + target + ":ro"
}

// =============================================================================
// Environment Helpers
// =============================================================================

// tzEnv returns the timezone entry every container gets.
func tzEnv(s Settings) string {
	return "TZ=" + s.Timezone
}

// linuxserverEnv returns the user, group and timezone entries expected by
// linuxserver.io images.
func linuxserverEnv(s Settings) []string {
	return []string{
		fmt.Sprintf("PUID=%d", s.PUID),
		fmt.Sprintf("PGID=%d", s.PGID),
		tzEnv(s),
	}
}
