package config

const (
	defaultConfigPath           = "~/.config/arheritage/config.toml"
	defaultDataDir              = "~/.local/share/arheritage"
	defaultLogDir               = "~/.local/share/arheritage/logs"
	defaultMediaDir             = "~/.local/share/arheritage/media"
	defaultAPIBind              = "127.0.0.1:7488"
	defaultGeminiBaseURL        = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel          = "gemini-2.5-flash"
	defaultGeminiTimeoutSeconds = 60
	defaultGeminiMaxAttempts    = 1
	defaultCameraDevice         = "/dev/video0"
	defaultCameraWidth          = 1920
	defaultCameraHeight         = 1080
	defaultFFmpegBinary         = "ffmpeg"
	defaultCaptureTimeout       = 15
	defaultSpeechBinary         = "espeak-ng"
	defaultSpeechRate           = 160
	defaultSessionTTLMinutes    = 7 * 24 * 60
	defaultNtfyTimeoutSeconds   = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
			MediaDir: defaultMediaDir,
			APIBind:  defaultAPIBind,
		},
		Gemini: Gemini{
			BaseURL:        defaultGeminiBaseURL,
			Model:          defaultGeminiModel,
			TimeoutSeconds: defaultGeminiTimeoutSeconds,
			MaxAttempts:    defaultGeminiMaxAttempts,
		},
		Camera: Camera{
			Device:         defaultCameraDevice,
			Width:          defaultCameraWidth,
			Height:         defaultCameraHeight,
			FFmpegBinary:   defaultFFmpegBinary,
			WatchHotplug:   true,
			CaptureTimeout: defaultCaptureTimeout,
		},
		Speech: Speech{
			Enabled: true,
			Binary:  defaultSpeechBinary,
			Rate:    defaultSpeechRate,
		},
		Session: Session{
			TTLMinutes: defaultSessionTTLMinutes,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
