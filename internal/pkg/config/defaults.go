package config

// Значения по умолчанию.
const (
	DefaultInputFile  = "kompass_data.xlsx"
	DefaultOutputFile = "crm_results.xlsx"
	DefaultAssetsDir  = "assets"
	DefaultScriptsDir = "scripts"

	// Vision defaults
	DefaultConfidence = 0.85

	// Timing defaults
	DefaultOuterTimeoutSeconds    = 30.0
	DefaultDetectorTimeoutSeconds = 20.0
	DefaultSnippetTimeoutSeconds  = 60.0
	DefaultPrefetchGraceSeconds   = 13.0
	DefaultPollIntervalMS         = 500
	DefaultSettleDelayMS          = 500
	DefaultTypeIntervalMS         = 50
	DefaultInterNumberPauseMS     = 2000

	// Snippet defaults
	DefaultChunkSize    = 600
	DefaultChunkDelayMS = 2

	// Fallback coordinates of the search bar
	DefaultSearchBarFallbackX = 640
	DefaultSearchBarFallbackY = 180

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// DefaultScales - кандидатные масштабы шаблонов по умолчанию.
func DefaultScales() []float64 {
	return []float64{1.0, 0.97, 1.03, 0.94, 1.06}
}

// Default возвращает конфигурацию со значениями по умолчанию.
func Default() *Config {
	return &Config{
		Files: Files{
			InputFile:  DefaultInputFile,
			OutputFile: DefaultOutputFile,
			AssetsDir:  DefaultAssetsDir,
			ScriptsDir: DefaultScriptsDir,
		},
		Vision: Vision{
			Confidence: DefaultConfidence,
			Scales:     DefaultScales(),
			UseOpenCV:  true,
		},
		Timing: Timing{
			OuterTimeoutSeconds:    DefaultOuterTimeoutSeconds,
			DetectorTimeoutSeconds: DefaultDetectorTimeoutSeconds,
			SnippetTimeoutSeconds:  DefaultSnippetTimeoutSeconds,
			PrefetchGraceSeconds:   DefaultPrefetchGraceSeconds,
			PollIntervalMS:         DefaultPollIntervalMS,
			SettleDelayMS:          DefaultSettleDelayMS,
			TypeIntervalMS:         DefaultTypeIntervalMS,
			InterNumberPauseMS:     DefaultInterNumberPauseMS,
		},
		Snippets: Snippets{
			ChunkSize:    DefaultChunkSize,
			ChunkDelayMS: DefaultChunkDelayMS,
		},
		Resolver: Resolver{
			Strategy: "local",
		},
		Fallbacks: Fallbacks{
			SearchBarX: DefaultSearchBarFallbackX,
			SearchBarY: DefaultSearchBarFallbackY,
		},
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
