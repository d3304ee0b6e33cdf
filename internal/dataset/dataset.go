// internal/dataset/dataset.go
// Package dataset scans labeled image directories for evaluation runs.
package dataset

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Sample is one labeled image on disk.
type Sample struct {
	Path      string
	TrueClass string
}

// ClassCount describes one class directory in verification output.
type ClassCount struct {
	Class      string
	Images     int
	Unreadable int
	Missing    bool
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Scan lists labeled samples under root, expecting one subdirectory per
// configured class. Samples are ordered by class then filename so repeated
// runs see the same sequence. A configured class without a directory is an
// error; an empty directory is a class with zero support.
func Scan(root string, classes []string) ([]Sample, error) {
	if len(classes) == 0 {
		return nil, errors.New("dataset: class set is empty")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("dataset directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("dataset path %s is not a directory", root)
	}

	sorted := append([]string(nil), classes...)
	sort.Strings(sorted)

	var samples []Sample
	for _, class := range sorted {
		classDir := filepath.Join(root, class)
		entries, err := os.ReadDir(classDir)
		if err != nil {
			return nil, fmt.Errorf("class directory %s: %w", classDir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !isImageFile(entry.Name()) {
				continue
			}
			samples = append(samples, Sample{
				Path:      filepath.Join(classDir, entry.Name()),
				TrueClass: class,
			})
		}
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no images found under %s", root)
	}
	return samples, nil
}

// Limit returns at most limit samples drawn with a seeded shuffle. The
// picked subset is re-sorted to class-then-filename order so capped runs
// stay deterministic end to end. A limit of zero means no cap.
func Limit(samples []Sample, limit int, seed int64) []Sample {
	if limit <= 0 || limit >= len(samples) {
		return samples
	}
	shuffled := append([]Sample(nil), samples...)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	picked := shuffled[:limit]
	sort.Slice(picked, func(i, j int) bool {
		if picked[i].TrueClass != picked[j].TrueClass {
			return picked[i].TrueClass < picked[j].TrueClass
		}
		return picked[i].Path < picked[j].Path
	})
	return picked
}

// Verify checks a dataset layout against the configured classes, counting
// decodable and unreadable images per class directory.
func Verify(root string, classes []string) ([]ClassCount, error) {
	if len(classes) == 0 {
		return nil, errors.New("dataset: class set is empty")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("dataset directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("dataset path %s is not a directory", root)
	}

	sorted := append([]string(nil), classes...)
	sort.Strings(sorted)

	counts := make([]ClassCount, 0, len(sorted))
	for _, class := range sorted {
		count := ClassCount{Class: class}
		classDir := filepath.Join(root, class)
		entries, err := os.ReadDir(classDir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				count.Missing = true
				counts = append(counts, count)
				continue
			}
			return nil, fmt.Errorf("class directory %s: %w", classDir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !isImageFile(entry.Name()) {
				continue
			}
			if decodableImage(filepath.Join(classDir, entry.Name())) {
				count.Images++
			} else {
				count.Unreadable++
			}
		}
		counts = append(counts, count)
	}
	return counts, nil
}

func isImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// decodableImage reads just the image header, not the full pixel data.
func decodableImage(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()
	_, _, err = image.DecodeConfig(file)
	return err == nil
}
