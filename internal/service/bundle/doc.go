// Package bundle prepares a directory for publication to the manifest syncer.
//
// Run hashes every file under the directory and writes the bundle
// description next to them. The directory is then copied as is to the
// HTTP folder that the machines' sync.manifest_url points at.
package bundle
