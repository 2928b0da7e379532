package types

// DefaultMaxFileSize is the default per-file size cap applied during
// discovery; files above this are skipped and counted in Report.SkippedFiles.
const DefaultMaxFileSize int64 = 4 * 1024 * 1024 // 4 MiB
