// Package jsonfile implements storage.MetadataCache on plain JSON
// files. One file per show record plus an index.json, all human
// readable, so the cache can be inspected, hand-edited, or rebuilt
// with nothing but a text editor.
package jsonfile
