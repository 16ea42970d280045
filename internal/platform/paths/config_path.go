package paths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const AppName = "wb-updater"

func ConfigFilePath() (string, error) {
	// A config.yaml next to the binary wins; this matches how the tool is
	// deployed on the price server (one directory per seller account).
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml", nil
	}

	switch runtime.GOOS {
	case "windows":
		programData := os.Getenv("PROGRAMDATA")
		if programData == "" {
			programData = `C:\ProgramData`
		}
		return filepath.Join(programData, AppName, "config.yaml"), nil
	case "linux":
		return filepath.Join("/etc", AppName, "config.yaml"), nil
	default:
		return "", errors.New("unsupported OS for machine-wide config")
	}
}
