package main

import "os"

// osFS is the real-disk implementation of compile.FS (= resolver.FS),
// the only seam the driver needs: read a file, tell a directory from a
// regular file.
type osFS struct{}

func (osFS) ReadFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (osFS) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
