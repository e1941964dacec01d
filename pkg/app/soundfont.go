package app

import (
	"fmt"
	"os"

	"github.com/veskel/phosphene/pkg/fileutil"
)

// DefaultSoundFontName is the SoundFont filename searched for when none
// is given explicitly.
const DefaultSoundFontName = "GeneralUser-GS.sf2"

// findSoundFont resolves the SoundFont file to load, in order:
//
//  1. The explicit path (-soundfont flag or SOUNDFONT variable)
//  2. The default name in the current directory
//  3. The default name in the song's directory
//
// Directory lookups are case-insensitive; an sf2 renamed by a
// case-squashing transfer still resolves.
func findSoundFont(explicit, songDir string) (string, error) {
	if explicit != "" {
		path, err := resolvePath(explicit)
		if err != nil {
			return "", fmt.Errorf("soundfont %s: %w", explicit, err)
		}
		return path, nil
	}

	if path, err := fileutil.FindFileCaseInsensitive(".", DefaultSoundFontName); err == nil {
		return path, nil
	}

	if songDir != "" && songDir != "." {
		if _, err := os.Stat(songDir); err == nil {
			if path, err := fileutil.FindFileCaseInsensitive(songDir, DefaultSoundFontName); err == nil {
				return path, nil
			}
		}
	}

	return "", fmt.Errorf("no SoundFont found: pass -soundfont or put %s next to the song", DefaultSoundFontName)
}
