package report

// NoExtension buckets files whose name has no extension.
const NoExtension = "(no extension)"

// ExtensionCount is one row of a directory breakdown.
type ExtensionCount struct {
	Extension string `json:"extension"`
	Count     int    `json:"count"`
}

// DirectorySummary aggregates a file set. It is rebuilt on every request.
type DirectorySummary struct {
	TotalFiles       int              `json:"total_files"`
	ImagesCount      int              `json:"images_count"`
	OfficeCount      int              `json:"office_count"`
	ExtensionCounts  []ExtensionCount `json:"extension_counts"`
	ImageExtensions  []string         `json:"image_extensions"`
	OfficeExtensions []string         `json:"office_extensions"`
}
