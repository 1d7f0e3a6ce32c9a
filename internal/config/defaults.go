package config

const (
	defaultOutputDir  = "~/voxpull/datasets"
	defaultLedgerPath = "~/.local/share/voxpull/speakers.csv"
	defaultLogDir     = "~/.local/share/voxpull/logs"

	defaultManifestFile = "release.json"
	defaultScriptFile   = "scripts.csv"
	defaultAcousticFile = "uploads.csv"

	defaultSpeakerIDWidth       = 5
	defaultMinApprovedUploads   = 15
	defaultDeliveredCap         = 16
	defaultGroupRejectAllowance = 2

	defaultBackgroundPrompt  = "Record 30 seconds of background noise without speaking"
	defaultRecordingDevice   = "Mobile"
	defaultMobilePlaceholder = "+91 1234567890"

	defaultFetchTimeoutSeconds = 300
	defaultFFmpegBinary        = "ffmpeg"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:  defaultOutputDir,
			LedgerPath: defaultLedgerPath,
			LogDir:     defaultLogDir,
		},
		Release: Release{
			ManifestFile:         defaultManifestFile,
			ScriptFile:           defaultScriptFile,
			AcousticFile:         defaultAcousticFile,
			SpeakerIDWidth:       defaultSpeakerIDWidth,
			MinApprovedUploads:   defaultMinApprovedUploads,
			DeliveredCap:         defaultDeliveredCap,
			GroupRejectAllowance: defaultGroupRejectAllowance,
			BackgroundPrompt:     defaultBackgroundPrompt,
			RecordingDevice:      defaultRecordingDevice,
			MobilePlaceholder:    defaultMobilePlaceholder,
		},
		Fetch: Fetch{
			TimeoutSeconds: defaultFetchTimeoutSeconds,
			FFmpegBinary:   defaultFFmpegBinary,
			Progress:       true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
