package utils

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CompressDirectoryToTarGz packs the contents of sourceDir into a .tar.gz
// archive at destPath and returns destPath. Entry names are relative to
// sourceDir, so unpacking reproduces the bundle layout.
func CompressDirectoryToTarGz(sourceDir, destPath string) (string, error) {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return "", fmt.Errorf("failed to stat source directory %s: %w", sourceDir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("source path %s is not a directory", sourceDir)
	}

	archiveFile, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive file %s: %w", destPath, err)
	}
	defer archiveFile.Close()

	gzWriter := gzip.NewWriter(archiveFile)
	defer gzWriter.Close()

	tarWriter := tar.NewWriter(gzWriter)
	defer tarWriter.Close()

	err = filepath.Walk(sourceDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %s: %w", path, err)
		}
		if relPath == "." {
			return nil
		}
		return writeTarEntry(tarWriter, path, relPath, info)
	})
	if err != nil {
		return "", fmt.Errorf("failed to build archive %s: %w", destPath, err)
	}
	return destPath, nil
}

func writeTarEntry(tw *tar.Writer, path, relPath string, info os.FileInfo) error {
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("failed to create tar header for %s: %w", path, err)
	}
	// Use forward slashes for cross-platform compatibility
	header.Name = filepath.ToSlash(relPath)

	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header for %s: %w", path, err)
	}
	if info.IsDir() {
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	if _, err := io.Copy(tw, file); err != nil {
		return fmt.Errorf("failed to copy %s into archive: %w", path, err)
	}
	return nil
}
