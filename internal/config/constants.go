package config

// Default values
const (
	// DefaultDatasetURL is the RIVM per-case dataset in JSON form.
	DefaultDatasetURL = "https://data.rivm.nl/covid-19/COVID-19_casus_landelijk.json"

	// DefaultSmoothingWindow is the trailing moving average width in days.
	DefaultSmoothingWindow = 7

	// DefaultCutoffDays drops the trailing days that are still being
	// backfilled by the health authorities.
	DefaultCutoffDays = 7
)
