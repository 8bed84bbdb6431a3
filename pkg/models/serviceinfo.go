package models

type APIServiceInfo struct {
	Version   string `json:"version"`
	BuildSHA  string `json:"build"`
	BuildTime string `json:"build_time"`
}
