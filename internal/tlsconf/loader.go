package tlsconf

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// LoadDir builds credentials from the regular files directly inside dir,
// scanned in lexical order. Subdirectories and unreadable files are skipped
// with a warning. A missing or unreadable dir is reported as *DirError.
func LoadDir(dir string) (*Credentials, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &DirError{Dir: dir, Err: err}
	}

	builder := NewBuilder()

	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(dir, name)

		// Stat follows symlinks so a link to a directory is skipped as well.
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			log.Warn().
				Str("dir", dir).
				Str("entry", name).
				Msg("Found subdirectory in TLS config directory; subdirectories are not supported and will be ignored")
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("Failed to open credential file, skipping")
			continue
		}

		log.Debug().Str("file", name).Msg("Scanning for certificates or private key")

		if err := builder.AddPEM(name, data); err != nil {
			return nil, err
		}
	}

	return builder.Complete()
}
