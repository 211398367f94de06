package lab

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/topolab-net/topolab/pkg/util"
)

// Archive packs the saved-config directory into <prefix>.tar.gz next to
// it, for handing a lab's configs around as one file.
func (l *Lab) Archive() (string, error) {
	confDir := l.Config.ConfigDir
	entries, err := os.ReadDir(confDir)
	if err != nil {
		return "", fmt.Errorf("lab %s: read config dir: %w", l.Config.Prefix, err)
	}

	out := filepath.Join(filepath.Dir(confDir), l.Config.Prefix+".tar.gz")
	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("lab %s: create archive: %w", l.Config.Prefix, err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	defer gz.Close()
	tw := tar.NewWriter(gz)
	defer tw.Close()

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := addFile(tw, filepath.Join(confDir, entry.Name()), entry.Name()); err != nil {
			return "", fmt.Errorf("lab %s: archive %s: %w", l.Config.Prefix, entry.Name(), err)
		}
	}

	util.WithTopology(l.Config.Prefix).Infof("archived configs to %s", out)
	return out, nil
}

func addFile(tw *tar.Writer, path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(tw, f)
	return err
}
