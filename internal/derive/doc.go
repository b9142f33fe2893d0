// Package derive implements derived-artifact serving (C10, §4.10): thumb
// and preview WebP lookup, browser-compatibility-aware video streaming
// with on-demand transcode, MP3/M4A audio extraction, original-file
// download, and soft/hard asset deletion.
//
// Range requests are served by net/http's own ServeContent (via
// ServeFile). Before handing over, serveFile drops a single-range header
// whose start is past its end or whose end is at or past the file size, so
// such requests get a full 200 instead of net/http's 416 or clamped 206.
package derive
