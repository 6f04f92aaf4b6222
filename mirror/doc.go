// Package mirror shares generated corpora between machines through a
// blobstore.Store.
//
// A corpus is published once, optionally compressed, under its canonical
// file name plus the codec suffix. Fetching streams the blob through the
// decompressor into a temporary file next to the destination and renames it
// into place, so a partially downloaded corpus is never picked up.
package mirror
