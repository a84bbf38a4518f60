package media

// Track is the metadata of a resolved media item and the location of its
// backing file. It is never modified after Resolve returns it.
type Track struct {
	Title string
	// SourceURL is the canonical page of the item, used for the download.
	SourceURL string
	// StreamURL is the direct media URL reported by the extractor.
	StreamURL string
	// Path is the backing audio file on local disk.
	Path string
}
