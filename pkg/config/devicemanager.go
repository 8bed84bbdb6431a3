package config

import "time"

type DeviceManagerConfig struct {
	Logs              Logging           `mapstructure:"logs"`
	Server            HttpServer        `mapstructure:"server"`
	Storage           PostgresConfig    `mapstructure:"storage"`
	BlobStorage       BlobStorageConfig `mapstructure:"blob_storage"`
	IotPlatform       IotPlatformConfig `mapstructure:"iot_platform"`
	Monitoring        MonitoringConfig  `mapstructure:"monitoring"`
	PublisherEventBus EventBusConfig    `mapstructure:"publisher_event_bus"`
}

type PostgresConfig struct {
	LogLevel LogLevel `mapstructure:"log_level"`
	Hostname string   `mapstructure:"hostname"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password Password `mapstructure:"password"`
	Database string   `mapstructure:"database"`
}

type BlobStorageProvider string

const (
	LocalFilesystem BlobStorageProvider = "localfs"
	AWSS3           BlobStorageProvider = "s3"
)

type BlobStorageConfig struct {
	LogLevel         LogLevel            `mapstructure:"log_level"`
	Provider         BlobStorageProvider `mapstructure:"provider"`
	StorageDirectory string              `mapstructure:"storage_directory"`
	BucketName       string              `mapstructure:"bucket_name"`
	AWSSDKConfig     `mapstructure:",squash"`
	DownloadURLTTL   time.Duration `mapstructure:"download_url_ttl"`
}

type IotPlatformConfig struct {
	LogLevel     LogLevel `mapstructure:"log_level"`
	AWSSDKConfig `mapstructure:",squash"`
	PolicyName   string `mapstructure:"policy_name"`
}

type MonitoringConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// SweepFrequency is a cron expression; six fields enable second-level
	// scheduling.
	SweepFrequency        string        `mapstructure:"sweep_frequency"`
	HeartbeatStaleness    time.Duration `mapstructure:"heartbeat_staleness"`
	RegistrationFreshness time.Duration `mapstructure:"registration_freshness"`
}

type EventBusConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	LogLevel LogLevel `mapstructure:"log_level"`
}

func DeviceManagerDefaults() *DeviceManagerConfig {
	return &DeviceManagerConfig{
		Logs: Logging{Level: Info},
		Server: HttpServer{
			LogLevel:      Info,
			ListenAddress: "0.0.0.0",
			Port:          8085,
			Protocol:      HTTP,
		},
		BlobStorage: BlobStorageConfig{
			Provider:         LocalFilesystem,
			StorageDirectory: "/var/lib/anemone/blobs",
			DownloadURLTTL:   1 * time.Hour,
		},
		Monitoring: MonitoringConfig{
			Enabled:               true,
			SweepFrequency:        "*/5 * * * * *",
			HeartbeatStaleness:    15 * time.Second,
			RegistrationFreshness: 10 * time.Minute,
		},
	}
}
