package keyvalstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/disk"
	"github.com/sirupsen/logrus"
)

// calculateDirectorySize calculates the total size of files within a directory
func calculateDirectorySize(path string) (size int64, err error) {
	err = filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return
}

// displayDiskUsage logs the disk usage of every data path and fails when a
// path's filesystem is below the configured free-space floor.
func displayDiskUsage(log *logrus.Logger, paths []string, minimumFreeGB int) error {
	for _, path := range paths {
		usage, err := disk.Usage(path)
		if err != nil {
			log.WithFields(logrus.Fields{
				"path": path,
			}).Errorf("Error retrieving disk usage stats: %v", err)
			return fmt.Errorf("error retrieving disk usage for %s: %w", path, err)
		}

		pathSize, err := calculateDirectorySize(path)
		if err != nil {
			log.WithFields(logrus.Fields{
				"path": path,
			}).Errorf("Error calculating directory size: %v", err)
			return fmt.Errorf("error calculating directory size for %s: %w", path, err)
		}

		totalSpace := float64(usage.Total) / 1e9
		freeSpace := float64(usage.Free) / 1e9
		usedSpace := float64(usage.Used) / 1e9
		pathUsage := float64(pathSize) / 1e9

		log.WithFields(logrus.Fields{
			"Path":        path,
			"Total (GB)":  fmt.Sprintf("%.2f", totalSpace),
			"Used (GB)":   fmt.Sprintf("%.2f", usedSpace),
			"Free (GB)":   fmt.Sprintf("%.2f", freeSpace),
			"Usage by DB": fmt.Sprintf("%.2f", pathUsage),
		}).Info("Disk Usage")

		if minimumFreeGB > 0 && freeSpace < float64(minimumFreeGB) {
			return fmt.Errorf("not enough free space on %s: %.2f GB left, %d GB required", path, freeSpace, minimumFreeGB)
		}
	}

	return nil
}
