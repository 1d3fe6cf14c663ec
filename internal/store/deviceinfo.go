package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/geocoder89/benchorch/internal/domain/worker"
)

// extractDeviceInfo is a tolerant best-effort parser over the opaque
// device_info blob a worker reports at registration. Any missing field is
// left at its zero value; extraction never fails registration.
func extractDeviceInfo(raw map[string]any) worker.DeviceInfo {
	var out worker.DeviceInfo
	out.Soc = stringField(raw, "Soc", "soc")
	out.OS = stringField(raw, "DeviceOs", "os")
	out.OSVersion = stringField(raw, "DeviceOsVersion", "os_version")
	out.UDID = stringField(raw, "UDID", "udid")
	out.DeviceYear = stringField(raw, "DeviceYear", "device_year")
	out.DiscreteGPU = stringField(raw, "DiscreteGpu", "discrete_gpu")
	out.VRam = stringField(raw, "VRam", "vram")
	out.RamGB = intField(raw, "Ram", "ram_gb")
	return out
}

func stringField(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func intField(raw map[string]any, keys ...string) int {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return 0
}

// deriveWorkerID computes a deterministic worker id: UDID hash preferred,
// falling back to a hash of (device_name, soc, ram, os), with a random
// identifier as the last resort when none of those are present.
func deriveWorkerID(deviceName string, info worker.DeviceInfo) string {
	if info.UDID != "" {
		return hashID("udid:" + info.UDID)
	}
	if deviceName != "" || info.Soc != "" || info.OS != "" {
		key := fmt.Sprintf("fingerprint:%s:%s:%d:%s", deviceName, info.Soc, info.RamGB, info.OS)
		return hashID(key)
	}
	return "w-" + uuid.NewString()
}

func hashID(key string) string {
	sum := sha256.Sum256([]byte(key))
	return "w-" + hex.EncodeToString(sum[:8])
}
