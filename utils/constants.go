package utils

// Redis key prefixes shared by the snapshot store and the preference store.
const (
	SnapshotPrefix    = "snapshots:"
	SportViewsPrefix  = "prefs:sportviews:"
	MostViewedPrefix  = "prefs:mostviewed:"
	PreferenceUserSet = "prefs:users"
)
