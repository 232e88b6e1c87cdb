//go:build windows

package main

import (
	"log"

	"golang.org/x/sys/windows"
)

var (
	shcore              = windows.NewLazySystemDLL("Shcore.dll")
	user32              = windows.NewLazySystemDLL("user32.dll")
	procSetDpiAwareness = shcore.NewProc("SetProcessDpiAwareness")
	procSetDPIAware     = user32.NewProc("SetProcessDPIAware")
	procGetMetrics      = user32.NewProc("GetSystemMetrics")
)

// enableDPIAwareness sets per-monitor DPI awareness so captured pixels and
// overlay coordinates share one physical-pixel space.
func enableDPIAwareness() {
	const processPerMonitorDPIAware = 2
	if err := procSetDpiAwareness.Find(); err == nil {
		ret, _, _ := procSetDpiAwareness.Call(uintptr(processPerMonitorDPIAware))
		if ret == 0 {
			log.Printf("DPI: Successfully set per-monitor DPI awareness")
		} else {
			log.Printf("DPI: Failed to set per-monitor DPI awareness, error code: %d", ret)
		}
		return
	}

	log.Printf("DPI: Shcore.SetProcessDpiAwareness not available, trying fallback")
	if err := procSetDPIAware.Find(); err != nil {
		log.Printf("DPI: SetProcessDPIAware not available, no DPI awareness set")
		return
	}
	if ret, _, _ := procSetDPIAware.Call(); ret != 0 {
		log.Printf("DPI: Successfully set system DPI awareness (fallback)")
	} else {
		log.Printf("DPI: Failed to set system DPI awareness (fallback)")
	}
}

func systemMetric(index int) int {
	ret, _, _ := procGetMetrics.Call(uintptr(index))
	return int(int32(ret))
}

func logMonitorConfiguration() {
	const (
		smCXScreen        = 0
		smCYScreen        = 1
		smXVirtualScreen  = 76
		smYVirtualScreen  = 77
		smCXVirtualScreen = 78
		smCYVirtualScreen = 79
		smCMonitors       = 80
	)
	log.Printf("MONITOR: Detected %d monitors", systemMetric(smCMonitors))
	log.Printf("MONITOR: Virtual screen - x:%d y:%d w:%d h:%d",
		systemMetric(smXVirtualScreen), systemMetric(smYVirtualScreen),
		systemMetric(smCXVirtualScreen), systemMetric(smCYVirtualScreen))
	log.Printf("MONITOR: Primary screen - w:%d h:%d", systemMetric(smCXScreen), systemMetric(smCYScreen))
}
