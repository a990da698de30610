// Package media defines the decode-side collaborator contract and its
// ffprobe/ffmpeg-backed implementation.
//
// The engine treats decode and encode as external services: sources are
// referenced by handle, probed once at import, and individual frames are
// pulled on demand at a quality scale. Variable frame rate sources are
// rejected at import with no partial admission.
package media
