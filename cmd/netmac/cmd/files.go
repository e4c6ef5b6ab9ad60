package cmd

import (
	"os"
	"path/filepath"

	"github.com/anupcshan/netmac/membuf"
)

// OutputName is the file name an image patched to mac is written under.
func OutputName(mac membuf.Pattern) string {
	return "Net" + mac.String() + ".hex"
}

// atomicWriteFile writes data to a file atomically using a temp file in the same directory.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
