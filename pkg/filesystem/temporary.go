package filesystem

const (
	// TemporaryNamePrefix is the file name prefix used for all temporary files
	// created by the core. Using this prefix keeps such files out of any
	// directory listing the running mount materializes from store objects.
	TemporaryNamePrefix = ".edenfs-temporary-"
)
