package config

const (
	defaultConfigPath     = "~/.config/rekogexport/config.toml"
	projectConfigName     = "rekogexport.toml"
	journalFileName       = "journal.db"
	defaultDestinationDir = "~/datasets/rekognition"
	defaultLogDir         = "~/.local/share/rekogexport/logs"
	defaultPageSize       = 100
	defaultWorkers        = 4
	defaultLabelFormat    = "yolo"
	defaultRecordShape    = "dimensions"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultLogMaxSizeMB   = 20
	defaultLogMaxBackups  = 5

	envRegion  = "AWS_REGION"
	envProfile = "AWS_PROFILE"
	envProject = "REKOGEXPORT_PROJECT"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DestinationDir: defaultDestinationDir,
			LogDir:         defaultLogDir,
		},
		Rekognition: Rekognition{
			PageSize: defaultPageSize,
		},
		Export: Export{
			Workers:     defaultWorkers,
			LabelFormat: defaultLabelFormat,
			RecordShape: defaultRecordShape,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
		},
	}
}
