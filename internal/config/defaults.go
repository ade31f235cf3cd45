package config

const (
	defaultDataDir       = "~/.local/share/mediasort"
	defaultLogDir        = "~/.local/share/mediasort/logs"
	defaultMinFileSize   = 10240
	defaultProgressEvery = 200
	defaultRetries       = 2
	defaultLogFormat     = "auto"
	defaultLogLevel      = "info"

	// PolicyOverwriteSuffix resolves destination name collisions with a
	// numeric suffix. The alternatives are recorded for provenance only.
	PolicyOverwriteSuffix  = "suffix"
	PolicyOverwriteSkip    = "skip"
	PolicyOverwriteReplace = "replace"

	PolicyOnErrorContinue = "continue"
	PolicyOnErrorStop     = "stop"

	PolicyLivePhotoKeepBoth    = "keep_both"
	PolicyLivePhotoPreferPhoto = "prefer_photo"
	PolicyLivePhotoPreferVideo = "prefer_video"

	PolicyThumbnailsSkip    = "skip"
	PolicyThumbnailsInclude = "include"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Scan: Scan{
			MinFileSize:   defaultMinFileSize,
			IncludePhotos: true,
			IncludeVideos: true,
			IncludeRAW:    true,
			IncludeOther:  false,
			ProgressEvery: defaultProgressEvery,
		},
		Hash: Hash{
			Workers: 0,
		},
		Execute: Execute{
			Retries: defaultRetries,
		},
		Policies: Policies{
			Overwrite:  PolicyOverwriteSuffix,
			OnError:    PolicyOnErrorContinue,
			LivePhoto:  PolicyLivePhotoKeepBoth,
			Thumbnails: PolicyThumbnailsSkip,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
