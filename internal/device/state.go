package device

import (
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/mem"
)

// State is the snapshot served on /status and mirrored to redis.
type State struct {
	State             string    `json:"state"`
	ConnectedToServer bool      `json:"connected_to_server"`
	DeviceID          string    `json:"device_id"`
	Server            string    `json:"server"`
	URL               string    `json:"url"`
	Width             int       `json:"width"`
	Height            int       `json:"height"`
	AcceleratedDecode bool      `json:"accelerated_decode"`
	Connects          int       `json:"connects"`
	LastKeepalive     time.Time `json:"last_keepalive"`
	FramesRendered    uint64    `json:"frames_rendered"`
	LastFrameMs       int64     `json:"last_frame_ms"`
	MessagesDropped   uint64    `json:"messages_dropped"`
	LastError         string    `json:"last_error"`
	Version           string    `json:"version"`
	MemAvailable      uint64    `json:"mem_available,omitempty"`
}

type VersionInfo struct {
	Version   string `json:"version"`
	BuildSHA  string `json:"build_sha"`
	BuildDate string `json:"build_date"`
}

var (
	stateMu   sync.RWMutex
	stateData = State{State: "disconnected"}
	buildInfo = VersionInfo{Version: "dev", BuildSHA: "unknown", BuildDate: "unknown"}
)

func resetState() {
	stateMu.Lock()
	defer stateMu.Unlock()
	stateData = State{State: "disconnected", Version: buildInfo.Version}
}

func SetBuildInfo(v, sha, date string) {
	buildInfo = VersionInfo{Version: v, BuildSHA: sha, BuildDate: date}
	stateMu.Lock()
	stateData.Version = v
	stateMu.Unlock()
}

func GetVersionInfo() VersionInfo {
	return buildInfo
}

// SetDeviceInfo records the static identity of this run.
func SetDeviceInfo(id, server string, width, height int, accelerated bool) {
	stateMu.Lock()
	stateData.DeviceID = id
	stateData.Server = server
	stateData.Width = width
	stateData.Height = height
	stateData.AcceleratedDecode = accelerated
	stateMu.Unlock()
}

func SetState(s string) {
	stateMu.Lock()
	stateData.State = s
	stateMu.Unlock()
}

func setConnected(v bool) {
	stateMu.Lock()
	stateData.ConnectedToServer = v
	if v {
		stateData.State = "connected"
		stateData.Connects++
		stateData.LastError = ""
	} else if stateData.State == "connected" {
		stateData.State = "disconnected"
	}
	stateMu.Unlock()
}

func SetURL(u string) {
	stateMu.Lock()
	stateData.URL = u
	stateMu.Unlock()
}

func SetLastError(err string) {
	stateMu.Lock()
	stateData.LastError = err
	stateMu.Unlock()
}

func setLastKeepalive(t time.Time) {
	stateMu.Lock()
	stateData.LastKeepalive = t
	stateMu.Unlock()
}

func frameRendered(d time.Duration) {
	stateMu.Lock()
	stateData.FramesRendered++
	stateData.LastFrameMs = d.Milliseconds()
	stateMu.Unlock()
}

func messageDropped() {
	stateMu.Lock()
	stateData.MessagesDropped++
	stateMu.Unlock()
}

func GetState() State {
	stateMu.RLock()
	defer stateMu.RUnlock()
	return stateData
}

// snapshot is GetState plus host memory, read at call time.
func snapshot() State {
	st := GetState()
	if vm, err := mem.VirtualMemory(); err == nil {
		st.MemAvailable = vm.Available
	}
	return st
}
