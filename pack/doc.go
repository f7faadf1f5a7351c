// Package pack defines the installer catalog model: packs, the files they
// install, and the build-time aggregate that groups them.
//
// Values are assembled once at packaging time and treated as read-only while
// an installation runs. The only mutators are the build-time helpers on
// [Pack] and [PackInfo] and [PackFile.SetLoosePackInfo].
package pack
