package constants

import (
	"os"
	"path/filepath"
	"strconv"
)

// TicksPerQuarter is the timing resolution of every exported file.
const TicksPerQuarter uint16 = 480

// VelocityOffset is added to confidence*100 when a note opens.
const VelocityOffset = 27

// DefaultTempoBPM is the placeholder tempo reported with transcriptions.
// Tempo estimation is out of scope; callers supply the real value.
const DefaultTempoBPM = 120

func GetMinConfidence() float64 {
	return envFloat("VOX2MIDI_MIN_CONFIDENCE", 0.6)
}

func GetMinNoteDuration() float64 {
	return envFloat("VOX2MIDI_MIN_NOTE_DURATION", 0.05)
}

func GetListenAddr() string {
	if addr := os.Getenv("VOX2MIDI_ADDR"); addr != "" {
		return addr
	}
	return ":8080"
}

func GetExportDir() string {
	if dir := os.Getenv("VOX2MIDI_EXPORT_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(os.TempDir(), "vox2midi_exports")
}

// GetExportBucket returns the S3 bucket for exports, or "" to store
// exports on the local filesystem.
func GetExportBucket() string {
	return os.Getenv("VOX2MIDI_EXPORT_BUCKET")
}

func GetExportBucketRegion() string {
	if region := os.Getenv("VOX2MIDI_EXPORT_BUCKET_REGION"); region != "" {
		return region
	}
	return "us-east-1"
}

func GetPythonPath() string {
	if path := os.Getenv("VOX2MIDI_PYTHON"); path != "" {
		return path
	}
	return "python3"
}

func GetOracleScript() string {
	if path := os.Getenv("VOX2MIDI_CREPE_SCRIPT"); path != "" {
		return path
	}
	return "scripts/crepe_detect.py"
}

// GetOracleWorkers bounds how many pitch-estimation runs may execute at
// once. Estimation is the only CPU-heavy stage in the pipeline.
func GetOracleWorkers() int {
	if v := os.Getenv("VOX2MIDI_ORACLE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			panic("VOX2MIDI_ORACLE_WORKERS must be a positive integer")
		}
		return n
	}
	return 4
}

func envFloat(name string, fallback float64) float64 {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		panic(name + " is not a valid number: " + v)
	}
	return f
}
