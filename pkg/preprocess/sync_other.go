// Directory sync stub for platforms without fsync on directories.

//go:build !unix

package preprocess

func syncDir(string) error {
	return nil
}
