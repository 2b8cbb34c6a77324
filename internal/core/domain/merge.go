package domain

import "time"

// ShouldAdoptRemote is whole-document last-write-wins: the remote copy wins
// when nothing exists locally or when it is strictly newer.
func ShouldAdoptRemote(remoteLastUpdated, localLastUpdated time.Time, localExists bool) bool {
	if !localExists {
		return true
	}
	return remoteLastUpdated.After(localLastUpdated)
}
