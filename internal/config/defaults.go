package config

const (
	defaultDataDir          = "~/.local/share/reelgate"
	defaultAPIBind          = "127.0.0.1:7319"
	defaultTMDBBaseURL      = "https://api.themoviedb.org/3"
	defaultTMDBLanguage     = "en-US"
	defaultResultsPerPage   = 5
	defaultMatchThreshold   = 90
	defaultYearTolerance    = 2
	defaultCandidateLimit   = 5
	defaultPendingScanLimit = 100
	defaultMaxPending       = 3
	defaultHandleTimeout    = 30
	defaultNotifyTimeout    = 10
	defaultLogFormat        = "text"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			APIBind: defaultAPIBind,
		},
		TMDB: TMDB{
			BaseURL:        defaultTMDBBaseURL,
			Language:       defaultTMDBLanguage,
			ResultsPerPage: defaultResultsPerPage,
		},
		Matching: Matching{
			Threshold:        defaultMatchThreshold,
			YearTolerance:    defaultYearTolerance,
			CandidateLimit:   defaultCandidateLimit,
			PendingScanLimit: defaultPendingScanLimit,
		},
		Requests: Requests{
			MaxPending: defaultMaxPending,
		},
		Ingest: Ingest{
			HandleTimeout: defaultHandleTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
