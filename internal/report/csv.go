// Package report generates the per-campaign CSV export.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Row is one CSV data row, joining a result with its job and worker.
// Fields mirror the fixed header exactly; missing values serialize as
// empty strings.
type Row struct {
	CreatedUtc            time.Time
	Status                string
	UploadId              string
	FileName              string
	FileSize              int64
	DeviceName             string
	DeviceYear             string
	Soc                    string
	Ram                    int
	DiscreteGpu            string
	VRam                   string
	DeviceOs               string
	DeviceOsVersion        string
	ComputeUnits           string
	LoadMsMedian           *float64
	LoadMsStdDev           *float64
	LoadMsAverage          *float64
	LoadMsFirst            *float64
	PeakLoadRamUsage       *float64
	InferenceMsMedian      *float64
	InferenceMsStdDev      *float64
	InferenceMsAverage     *float64
	InferenceMsFirst       *float64
	PeakInferenceRamUsage  *float64
	JobId                  string
}

var header = []string{
	"CreatedUtc", "Status", "UploadId", "FileName", "FileSize", "DeviceName", "DeviceYear", "Soc", "Ram",
	"DiscreteGpu", "VRam", "DeviceOs", "DeviceOsVersion", "ComputeUnits",
	"LoadMsMedian", "LoadMsStdDev", "LoadMsAverage", "LoadMsFirst", "PeakLoadRamUsage",
	"InferenceMsMedian", "InferenceMsStdDev", "InferenceMsAverage", "InferenceMsFirst",
	"PeakInferenceRamUsage", "JobId",
}

func fmtFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func fmtInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func fmtInt64(n int64) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatInt(n, 10)
}

func (r Row) record() []string {
	return []string{
		r.CreatedUtc.UTC().Format(time.RFC3339),
		r.Status,
		r.UploadId,
		r.FileName,
		fmtInt64(r.FileSize),
		r.DeviceName,
		r.DeviceYear,
		r.Soc,
		fmtInt(r.Ram),
		r.DiscreteGpu,
		r.VRam,
		r.DeviceOs,
		r.DeviceOsVersion,
		r.ComputeUnits,
		fmtFloat(r.LoadMsMedian),
		fmtFloat(r.LoadMsStdDev),
		fmtFloat(r.LoadMsAverage),
		fmtFloat(r.LoadMsFirst),
		fmtFloat(r.PeakLoadRamUsage),
		fmtFloat(r.InferenceMsMedian),
		fmtFloat(r.InferenceMsStdDev),
		fmtFloat(r.InferenceMsAverage),
		fmtFloat(r.InferenceMsFirst),
		fmtFloat(r.PeakInferenceRamUsage),
		r.JobId,
	}
}

// WriteFile writes rows to outputsDir/{campaignID}_{YYYYMMDD_HHMMSS}_results.csv
// and returns the path written. Ordering within the file is unspecified.
func WriteFile(outputsDir, campaignID string, rows []Row, now time.Time) (string, error) {
	if err := os.MkdirAll(outputsDir, 0o755); err != nil {
		return "", fmt.Errorf("create outputs dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s_results.csv", campaignID, now.Format("20060102_150405"))
	path := filepath.Join(outputsDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, row := range rows {
		if err := w.Write(row.record()); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, nil
}
