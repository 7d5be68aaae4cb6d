// Package git checks how the timelock database and keystore relate to the
// surrounding git repository.
//
// The keystore holds sealed signing keys and should be neither tracked nor
// left out of .gitignore. The database is mutable local state and should
// not be committed either.
package git
