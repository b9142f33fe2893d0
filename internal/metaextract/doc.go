// Package metaextract implements the metadata extractor pool (C7) of §4.7.
// Images are measured via the shared internal/media image-dimension helper
// (no full decode required); videos are probed with ffprobe's
// "-show_streams -show_format -print_format json" output, reading the
// first video stream's width/height/codec and the container's duration.
//
// EXIF is not read: capture time is always the file's mtime (seconds), and
// the camera, lens, ISO, f-number and exposure fields stay empty.
// Extraction failures log and proceed with partial attributes rather than
// aborting the item, per §4.7 and §7.
package metaextract
